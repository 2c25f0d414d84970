package main

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync/atomic"
	"time"
)

func TestRemove(c Config) {

	if c.Base == "" {
		start, stop := CreateServer(&c)
		defer stop()
		go start()
	}

	collectionName := CreateCollection(c.Base, c.N)

	transport := &http.Transport{
		MaxConnsPerHost:     1024,
		MaxIdleConns:        1024,
		MaxIdleConnsPerHost: 1024,
	}
	defer transport.CloseIdleConnections()

	client := &http.Client{
		Transport: transport,
		Timeout:   10 * time.Second,
	}

	var handles []int64
	{
		fmt.Println("Preload records...")
		r, w := io.Pipe()

		go func() {
			WriteSprites(w, 0, c.N)
			w.Close()
		}()

		req, err := http.NewRequest("POST", c.Base+"/v1/collections/"+collectionName+":insert", r)
		if err != nil {
			fmt.Println("ERROR: new request:", err.Error())
			os.Exit(3)
		}

		resp, err := client.Do(req)
		if err != nil {
			fmt.Println("ERROR: do request:", err.Error())
			os.Exit(4)
		}
		handles, err = ReadHandles(resp.Body)
		resp.Body.Close()
		if err != nil {
			fmt.Println("ERROR: read handles:", err.Error())
			os.Exit(5)
		}
	}

	removeURL := fmt.Sprintf("%s/v1/collections/%s:remove", c.Base, collectionName)

	next := int64(-1)
	t0 := time.Now()
	Parallel(c.Workers, func() {
		for {
			i := atomic.AddInt64(&next, 1)
			if i >= int64(len(handles)) {
				return
			}

			body := fmt.Sprintf(`{"handle":%d}`, handles[i])
			req, err := http.NewRequest(http.MethodPost, removeURL, strings.NewReader(body))
			if err != nil {
				fmt.Println("ERROR: new request:", err.Error())
				return
			}
			req.Header.Set("Content-Type", "application/json")

			resp, err := client.Do(req)
			if err != nil {
				fmt.Println("ERROR: do request:", err.Error())
				return
			}
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()

			if resp.StatusCode != http.StatusNoContent {
				fmt.Println("ERROR: bad status:", resp.Status)
			}
		}
	})

	took := time.Since(t0)
	fmt.Println("removed:", len(handles))
	fmt.Println("took:", took)
	fmt.Printf("Throughput: %.2f rows/sec\n", float64(len(handles))/took.Seconds())
}
