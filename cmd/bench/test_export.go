package main

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"sync/atomic"
	"time"
)

// TestExport preloads N sprites and then downloads the packed region from
// every worker as fast as possible.
func TestExport(c Config) {

	if c.Base == "" {
		start, stop := CreateServer(&c)
		defer stop()
		go start()
	}

	collectionName := CreateCollection(c.Base, c.N)

	{
		r, w := io.Pipe()
		go func() {
			WriteSprites(w, 0, c.N)
			w.Close()
		}()

		resp, err := http.Post(c.Base+"/v1/collections/"+collectionName+":insert", "application/json", r)
		if err != nil {
			fmt.Println("ERROR: do request:", err.Error())
			os.Exit(4)
		}
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}

	exportURL := c.Base + "/v1/collections/" + collectionName + ":export?compression=lz4"

	exports := int64(0)
	received := int64(0)
	deadline := time.Now().Add(10 * time.Second)

	t0 := time.Now()
	Parallel(c.Workers, func() {
		for time.Now().Before(deadline) {
			resp, err := http.Post(exportURL, "application/json", nil)
			if err != nil {
				fmt.Println("ERROR: do request:", err.Error())
				return
			}
			n, _ := io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			atomic.AddInt64(&exports, 1)
			atomic.AddInt64(&received, n)
		}
	})

	took := time.Since(t0)
	fmt.Println("exports:", exports)
	fmt.Println("received bytes:", received)
	fmt.Printf("Throughput: %.2f exports/sec\n", float64(exports)/took.Seconds())
}
