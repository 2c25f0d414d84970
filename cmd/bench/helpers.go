package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/fulldump/slotdb/bootstrap"
	"github.com/fulldump/slotdb/configuration"
)

type JSON = map[string]any

func Parallel(workers int, f func()) {
	wg := &sync.WaitGroup{}
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			f()
		}()
	}
	wg.Wait()
}

func TempDir() (string, func()) {
	dir, err := os.MkdirTemp("", "slotdb_bench_*")
	if err != nil {
		panic("Could not create temp directory: " + err.Error())
	}

	cleanup := func() {
		os.RemoveAll(dir)
	}

	return dir, cleanup
}

// CreateCollection creates a sprite collection with room for n records.
func CreateCollection(base string, n int64) string {

	name := "col-" + strconv.FormatInt(time.Now().UnixNano(), 10)

	payload, _ := json.Marshal(JSON{
		"name":     name,
		"preset":   "sprite",
		"capacity": n,
	})

	req, _ := http.NewRequest("POST", base+"/v1/collections", bytes.NewReader(payload))
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		panic(err)
	}
	defer resp.Body.Close()

	io.Copy(os.Stdout, resp.Body)
	fmt.Println()

	return name
}

func CreateServer(c *Config) (start, stop func()) {
	dir, cleanup := TempDir()
	cleanups = append(cleanups, cleanup)

	conf := configuration.Default()
	conf.ExportDir = dir
	c.Base = "http://" + conf.HttpAddr

	return bootstrap.Bootstrap(conf)
}

func WriteSprites(w io.Writer, from, to int64) error {
	wb := bufio.NewWriterSize(w, 1*1024*1024)
	for i := from; i < to; i++ {
		fmt.Fprintf(wb, "{\"com_position\":[%d,%d],\"angle\":0.5,\"size\":[16,16],\"tint\":[1,1,1,1]}\n", i%1920, i%1080)
	}
	return wb.Flush()
}

// ReadHandles decodes the answer of an insert.
func ReadHandles(r io.Reader) ([]int64, error) {
	result := []int64{}
	d := json.NewDecoder(r)
	for {
		item := struct {
			Handle int64 `json:"handle"`
		}{}
		err := d.Decode(&item)
		if err == io.EOF {
			return result, nil
		}
		if err != nil {
			return result, err
		}
		result = append(result, item.Handle)
	}
}
