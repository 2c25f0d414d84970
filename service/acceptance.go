package service

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/fulldump/apitest"
	"github.com/fulldump/biff"

	"github.com/fulldump/slotdb/consumer"
)

type JSON = map[string]interface{}

// pick keeps only keys from a response object, so generated values like the
// collection id stay out of the comparison.
func pick(body interface{}, keys ...string) JSON {
	m, _ := body.(map[string]interface{})
	result := JSON{}
	for _, key := range keys {
		result[key] = m[key]
	}
	return result
}

func readLines(body string) []interface{} {
	result := []interface{}{}
	dec := json.NewDecoder(strings.NewReader(body))
	for {
		var line interface{}
		err := dec.Decode(&line)
		if err != nil {
			return result
		}
		result = append(result, line)
	}
}

var collectionKeys = []string{"name", "total", "capacity", "element_size", "indexes"}

func Acceptance(a *biff.A, apiRequest func(method, path string) *apitest.Request) {

	pointLayout := JSON{
		"fields": []JSON{
			{"name": "id", "type": "uint32"},
			{"name": "x", "type": "float32"},
			{"name": "name", "type": "bytes", "count": 8},
		},
	}

	a.Alternative("Create collection", func(a *biff.A) {
		resp := apiRequest("POST", "/collections").
			WithBodyJson(JSON{
				"name":     "points",
				"layout":   pointLayout,
				"capacity": 2,
			}).Do()
		Save(resp, "Create collection", `
			Creates a dense array whose records follow the given layout. Every
			record takes element_size bytes.
		`)

		body := resp.BodyJson()
		biff.AssertEqual(resp.StatusCode, http.StatusCreated)
		biff.AssertEqualJson(pick(body, collectionKeys...), JSON{
			"name":         "points",
			"total":        0,
			"capacity":     2,
			"element_size": 16,
			"indexes":      0,
		})
		biff.AssertEqualJson(pick(body, "layout"), JSON{
			"layout": JSON{
				"fields": []JSON{
					{"name": "id", "type": "uint32", "offset": 0, "size": 4},
					{"name": "x", "type": "float32", "offset": 4, "size": 4},
					{"name": "name", "type": "bytes", "count": 8, "offset": 8, "size": 8},
				},
				"size": 16,
			},
		})

		a.Alternative("Create collection twice", func(a *biff.A) {
			resp := apiRequest("POST", "/collections").
				WithBodyJson(JSON{
					"name":   "points",
					"preset": "sprite",
				}).Do()
			Save(resp, "Create collection - already exists", ``)

			biff.AssertEqual(resp.StatusCode, http.StatusConflict)
		})

		a.Alternative("Create collection with bad name", func(a *biff.A) {
			resp := apiRequest("POST", "/collections").
				WithBodyJson(JSON{
					"name":   "bad name!",
					"preset": "sprite",
				}).Do()

			biff.AssertEqual(resp.StatusCode, http.StatusBadRequest)
		})

		a.Alternative("Create collection without layout", func(a *biff.A) {
			resp := apiRequest("POST", "/collections").
				WithBodyJson(JSON{
					"name": "empty",
				}).Do()

			biff.AssertEqual(resp.StatusCode, http.StatusBadRequest)
		})

		a.Alternative("Create collection from preset", func(a *biff.A) {
			resp := apiRequest("POST", "/collections").
				WithBodyJson(JSON{
					"name":   "sprites",
					"preset": "sprite",
				}).Do()
			Save(resp, "Create collection - preset", `
				Presets are predefined layouts, see /v1/presets.
			`)

			biff.AssertEqual(resp.StatusCode, http.StatusCreated)
			biff.AssertEqualJson(pick(resp.BodyJson(), "name", "element_size"), JSON{
				"name":         "sprites",
				"element_size": 60,
			})
		})

		a.Alternative("Retrieve collection", func(a *biff.A) {
			resp := apiRequest("GET", "/collections/points").Do()
			Save(resp, "Retrieve collection", ``)

			biff.AssertEqual(resp.StatusCode, http.StatusOK)
			biff.AssertEqualJson(pick(resp.BodyJson(), collectionKeys...), JSON{
				"name":         "points",
				"total":        0,
				"capacity":     2,
				"element_size": 16,
				"indexes":      0,
			})
		})

		a.Alternative("List collections", func(a *biff.A) {
			resp := apiRequest("GET", "/collections").Do()
			Save(resp, "List collections", ``)

			biff.AssertEqual(resp.StatusCode, http.StatusOK)
			list, _ := resp.BodyJson().([]interface{})
			biff.AssertEqual(len(list), 1)
			biff.AssertEqualJson(pick(list[0], "name"), JSON{"name": "points"})
		})

		a.Alternative("Memory", func(a *biff.A) {
			collectionBytes := pick(apiRequest("GET", "/collections/points").Do().BodyJson(), "bytes")["bytes"]

			resp := apiRequest("GET", "/memory").Do()
			Save(resp, "Memory", `
				Bytes held by every collection. A limit of 0 means unlimited.
			`)

			biff.AssertEqual(resp.StatusCode, http.StatusOK)
			biff.AssertEqualJson(pick(resp.BodyJson(), "used", "limit"), JSON{
				"used":  collectionBytes,
				"limit": 0,
			})
		})

		a.Alternative("Drop collection", func(a *biff.A) {
			resp := apiRequest("POST", "/collections/points:dropCollection").
				Do()
			Save(resp, "Drop collection", ``)

			biff.AssertEqual(resp.StatusCode, http.StatusOK)

			a.Alternative("Get dropped collection", func(a *biff.A) {
				resp := apiRequest("GET", "/collections/points").
					Do()
				Save(resp, "Get collection - not found", ``)

				biff.AssertEqual(resp.StatusCode, http.StatusNotFound)
			})

			a.Alternative("Memory is released", func(a *biff.A) {
				resp := apiRequest("GET", "/memory").Do()
				biff.AssertEqualJson(pick(resp.BodyJson(), "used"), JSON{"used": 0})
			})
		})

		a.Alternative("Insert empty body", func(a *biff.A) {
			resp := apiRequest("POST", "/collections/points:insert").Do()

			biff.AssertEqual(resp.StatusCode, http.StatusNoContent)
		})

		a.Alternative("Insert unknown field", func(a *biff.A) {
			resp := apiRequest("POST", "/collections/points:insert").
				WithBodyJson(JSON{"id": 1, "color": "red"}).Do()
			Save(resp, "Insert - unknown field", ``)

			biff.AssertEqual(resp.StatusCode, http.StatusBadRequest)
		})

		a.Alternative("Insert malformed", func(a *biff.A) {
			resp := apiRequest("POST", "/collections/points:insert").
				WithBodyString(`{"id": 1,`).Do()

			biff.AssertEqual(resp.StatusCode, http.StatusBadRequest)
		})

		a.Alternative("Insert many", func(a *biff.A) {

			myDocuments := []JSON{
				{"id": 1, "x": 1.5, "name": "one"},
				{"id": 2, "x": -3, "name": "two"},
				{"id": 3, "x": 0, "name": "three"},
			}

			body := ""
			for _, myDocument := range myDocuments {
				myDocument, _ := json.Marshal(myDocument)
				body += string(myDocument) + "\n"
			}
			resp := apiRequest("POST", "/collections/points:insert").
				WithBodyString(body).Do()
			Save(resp, "Insert many", `
				One document per line. Each answer line carries the handle of the
				record, which stays the same until the record is removed.
			`)

			biff.AssertEqual(resp.StatusCode, http.StatusCreated)
			biff.AssertEqualJson(readLines(resp.BodyString()), []JSON{
				{"handle": 0},
				{"handle": 1},
				{"handle": 2},
			})

			a.Alternative("Collection grew", func(a *biff.A) {
				resp := apiRequest("GET", "/collections/points").Do()
				biff.AssertEqualJson(pick(resp.BodyJson(), "total", "capacity"), JSON{
					"total":    3,
					"capacity": 4,
				})
			})

			a.Alternative("Get", func(a *biff.A) {
				resp := apiRequest("POST", "/collections/points:get").
					WithBodyJson(JSON{"handle": 1}).Do()
				Save(resp, "Get", ``)

				biff.AssertEqual(resp.StatusCode, http.StatusOK)
				biff.AssertEqualJson(resp.BodyJson(), myDocuments[1])
			})

			a.Alternative("Get invalid handle", func(a *biff.A) {
				resp := apiRequest("POST", "/collections/points:get").
					WithBodyJson(JSON{"handle": 7}).Do()
				Save(resp, "Get - invalid handle", ``)

				biff.AssertEqual(resp.StatusCode, http.StatusNotFound)
			})

			a.Alternative("Patch", func(a *biff.A) {
				resp := apiRequest("POST", "/collections/points:patch").
					WithBodyJson(JSON{
						"handle": 2,
						"patch":  JSON{"x": 0.5},
					}).Do()
				Save(resp, "Patch", `
					Only the given fields are written.
				`)

				biff.AssertEqual(resp.StatusCode, http.StatusOK)
				biff.AssertEqualJson(resp.BodyJson(), JSON{"id": 3, "x": 0.5, "name": "three"})
			})

			a.Alternative("Patch wrong type", func(a *biff.A) {
				resp := apiRequest("POST", "/collections/points:patch").
					WithBodyJson(JSON{
						"handle": 2,
						"patch":  JSON{"id": "three"},
					}).Do()

				biff.AssertEqual(resp.StatusCode, http.StatusBadRequest)
			})

			a.Alternative("Remove", func(a *biff.A) {
				resp := apiRequest("POST", "/collections/points:remove").
					WithBodyJson(JSON{"handle": 0}).Do()
				Save(resp, "Remove", `
					The last record moves into the freed slot and keeps its handle.
				`)

				biff.AssertEqual(resp.StatusCode, http.StatusNoContent)

				a.Alternative("Find after remove", func(a *biff.A) {
					resp := apiRequest("POST", "/collections/points:find").
						WithBodyJson(JSON{"limit": 10}).Do()

					biff.AssertEqual(resp.StatusCode, http.StatusOK)
					biff.AssertEqualJson(readLines(resp.BodyString()), []JSON{
						{"handle": 2, "document": myDocuments[2]},
						{"handle": 1, "document": myDocuments[1]},
					})
				})

				a.Alternative("Remove twice", func(a *biff.A) {
					resp := apiRequest("POST", "/collections/points:remove").
						WithBodyJson(JSON{"handle": 0}).Do()

					biff.AssertEqual(resp.StatusCode, http.StatusNotFound)
				})
			})

			a.Alternative("Find first", func(a *biff.A) {
				resp := apiRequest("POST", "/collections/points:find").Do()

				biff.AssertEqual(resp.StatusCode, http.StatusOK)
				biff.AssertEqualJson(readLines(resp.BodyString()), []JSON{
					{"handle": 0, "document": myDocuments[0]},
				})
			})

			a.Alternative("Find with filter", func(a *biff.A) {
				resp := apiRequest("POST", "/collections/points:find").
					WithBodyJson(JSON{
						"limit":  10,
						"filter": JSON{"id": JSON{"$gt": 1}},
					}).Do()
				Save(resp, "Find - filter", `
					Filters are evaluated over the decoded records.
				`)

				biff.AssertEqual(resp.StatusCode, http.StatusOK)
				biff.AssertEqualJson(readLines(resp.BodyString()), []JSON{
					{"handle": 1, "document": myDocuments[1]},
					{"handle": 2, "document": myDocuments[2]},
				})
			})

			a.Alternative("Create btree index", func(a *biff.A) {
				resp := apiRequest("POST", "/collections/points:createIndex").
					WithBodyJson(JSON{"name": "by-x", "type": "btree", "field": "x"}).Do()
				Save(resp, "Create index - btree", ``)

				biff.AssertEqual(resp.StatusCode, http.StatusCreated)
				biff.AssertEqualJson(resp.BodyJson(), JSON{
					"name":    "by-x",
					"type":    "btree",
					"field":   "x",
					"unique":  false,
					"entries": 3,
				})

				a.Alternative("Find by range", func(a *biff.A) {
					resp := apiRequest("POST", "/collections/points:find").
						WithBodyJson(JSON{
							"index": "by-x",
							"from":  -5,
							"to":    1,
							"limit": 10,
						}).Do()
					Save(resp, "Find - btree range", `
						Both bounds are inclusive.
					`)

					biff.AssertEqual(resp.StatusCode, http.StatusOK)
					biff.AssertEqualJson(readLines(resp.BodyString()), []JSON{
						{"handle": 1, "document": myDocuments[1]},
						{"handle": 2, "document": myDocuments[2]},
					})
				})

				a.Alternative("List indexes", func(a *biff.A) {
					resp := apiRequest("POST", "/collections/points:listIndexes").Do()
					Save(resp, "List indexes", ``)

					biff.AssertEqual(resp.StatusCode, http.StatusOK)
					biff.AssertEqualJson(resp.BodyJson(), []JSON{
						{"name": "by-x", "type": "btree", "field": "x", "unique": false, "entries": 3},
					})
				})

				a.Alternative("Drop index", func(a *biff.A) {
					resp := apiRequest("POST", "/collections/points:dropIndex").
						WithBodyJson(JSON{"name": "by-x"}).Do()
					Save(resp, "Drop index", ``)

					biff.AssertEqual(resp.StatusCode, http.StatusNoContent)

					resp = apiRequest("POST", "/collections/points:getIndex").
						WithBodyJson(JSON{"name": "by-x"}).Do()
					biff.AssertEqual(resp.StatusCode, http.StatusNotFound)
				})
			})

			a.Alternative("Create map index", func(a *biff.A) {
				resp := apiRequest("POST", "/collections/points:createIndex").
					WithBodyJson(JSON{"name": "by-id", "type": "map", "field": "id"}).Do()
				Save(resp, "Create index - map", `
					Map indexes are always unique.
				`)

				biff.AssertEqual(resp.StatusCode, http.StatusCreated)

				a.Alternative("Find by value", func(a *biff.A) {
					resp := apiRequest("POST", "/collections/points:find").
						WithBodyJson(JSON{"index": "by-id", "value": 3}).Do()
					Save(resp, "Find - map value", ``)

					biff.AssertEqual(resp.StatusCode, http.StatusOK)
					biff.AssertEqualJson(readLines(resp.BodyString()), []JSON{
						{"handle": 2, "document": myDocuments[2]},
					})
				})

				a.Alternative("Insert duplicated", func(a *biff.A) {
					resp := apiRequest("POST", "/collections/points:insert").
						WithBodyJson(JSON{"id": 2, "name": "again"}).Do()
					Save(resp, "Insert - index conflict", ``)

					biff.AssertEqual(resp.StatusCode, http.StatusConflict)
				})

				a.Alternative("Insert stream with a duplicated record", func(a *biff.A) {
					resp := apiRequest("POST", "/collections/points:insert").
						WithBodyString(`{"id": 10, "name": "ten"}` + "\n" + `{"id": 2, "name": "again"}` + "\n").Do()
					Save(resp, "Insert - stream failure", `
						Once the first record is stored the status is already sent, so a
						later failure is reported as a last error line.
					`)

					biff.AssertEqual(resp.StatusCode, http.StatusCreated)
					lines := readLines(resp.BodyString())
					biff.AssertEqual(len(lines), 2)
					biff.AssertEqualJson(lines[0], JSON{"handle": 3})
					errorLine, _ := pick(lines[1], "error")["error"].(map[string]interface{})
					biff.AssertEqualJson(pick(errorLine, "document"), JSON{"document": 1})

					resp = apiRequest("GET", "/collections/points").Do()
					biff.AssertEqualJson(pick(resp.BodyJson(), "total"), JSON{"total": 4})
				})

				a.Alternative("Create index twice", func(a *biff.A) {
					resp := apiRequest("POST", "/collections/points:createIndex").
						WithBodyJson(JSON{"name": "by-id", "type": "map", "field": "id"}).Do()

					biff.AssertEqual(resp.StatusCode, http.StatusConflict)
				})
			})

			a.Alternative("Export", func(a *biff.A) {
				resp := apiRequest("POST", "/collections/points:export").Do()

				biff.AssertEqual(resp.StatusCode, http.StatusOK)
				biff.AssertEqual(resp.Header.Get("Content-Type"), "application/octet-stream")
				biff.AssertEqual(resp.Header.Get("X-Element-Size"), "16")
				biff.AssertEqual(resp.Header.Get("X-Count"), "3")
				biff.AssertEqual(len(resp.BodyBytes()), 48)
			})

			a.Alternative("Export compressed", func(a *biff.A) {
				resp := apiRequest("POST", "/collections/points:export?compression=lz4").Do()

				biff.AssertEqual(resp.StatusCode, http.StatusOK)
				biff.AssertEqual(resp.Header.Get("X-Compression"), "lz4")

				r, err := consumer.NewReader(bytes.NewReader(resp.BodyBytes()), consumer.Lz4)
				biff.AssertNil(err)
				data, err := io.ReadAll(r)
				biff.AssertNil(err)
				biff.AssertEqual(len(data), 48)
			})

			a.Alternative("Export with unknown compression", func(a *biff.A) {
				resp := apiRequest("POST", "/collections/points:export?compression=rar").Do()

				biff.AssertEqual(resp.StatusCode, http.StatusBadRequest)
			})

			a.Alternative("Reserve", func(a *biff.A) {
				resp := apiRequest("POST", "/collections/points:reserve").
					WithBodyJson(JSON{"capacity": 100}).Do()
				Save(resp, "Reserve", `
					Grows the collection so that it holds at least capacity records
					without further allocations.
				`)

				biff.AssertEqual(resp.StatusCode, http.StatusOK)
				biff.AssertEqualJson(pick(resp.BodyJson(), "total", "capacity"), JSON{
					"total":    3,
					"capacity": 100,
				})
			})
		})
	})

	a.Alternative("Wide integers", func(a *biff.A) {
		resp := apiRequest("POST", "/collections").
			WithBodyJson(JSON{
				"name": "wide",
				"layout": JSON{
					"fields": []JSON{
						{"name": "id", "type": "uint64"},
						{"name": "n", "type": "int64"},
					},
				},
			}).Do()
		biff.AssertEqual(resp.StatusCode, http.StatusCreated)

		resp = apiRequest("POST", "/collections/wide:insert").
			WithBodyString(`{"id": 9007199254740993, "n": -9007199254740993}` + "\n" + `{"id": 18446744073709551615}` + "\n").Do()
		Save(resp, "Insert - 64 bit integers", `
			Integers keep every bit, they never go through a float.
		`)
		biff.AssertEqual(resp.StatusCode, http.StatusCreated)

		resp = apiRequest("POST", "/collections/wide:get").
			WithBodyJson(JSON{"handle": 0}).Do()
		biff.AssertEqual(resp.StatusCode, http.StatusOK)
		biff.AssertEqual(resp.BodyJsonMap(), map[string]interface{}{
			"id": json.Number("9007199254740993"),
			"n":  json.Number("-9007199254740993"),
		})

		resp = apiRequest("POST", "/collections/wide:patch").
			WithBodyString(`{"handle": 1, "patch": {"n": 9223372036854775807}}`).Do()
		biff.AssertEqual(resp.StatusCode, http.StatusOK)
		biff.AssertEqual(resp.BodyJsonMap(), map[string]interface{}{
			"id": json.Number("18446744073709551615"),
			"n":  json.Number("9223372036854775807"),
		})

		resp = apiRequest("POST", "/collections/wide:find").
			WithBodyString(`{"filter": {"id": {"$gt": 9007199254740993}}, "limit": 10}`).Do()
		biff.AssertEqual(resp.StatusCode, http.StatusOK)
		lines := readLines(resp.BodyString())
		biff.AssertEqual(len(lines), 1)
		biff.AssertEqualJson(pick(lines[0], "handle"), JSON{"handle": 1})
	})

	a.Alternative("Collection not found", func(a *biff.A) {
		resp := apiRequest("POST", "/collections/missing:insert").
			WithBodyJson(JSON{"id": 1}).Do()

		biff.AssertEqual(resp.StatusCode, http.StatusNotFound)
	})

	a.Alternative("Presets", func(a *biff.A) {
		resp := apiRequest("GET", "/presets").Do()
		Save(resp, "List presets", ``)

		biff.AssertEqual(resp.StatusCode, http.StatusOK)
		body, _ := resp.BodyJson().(map[string]interface{})
		biff.AssertEqualJson(pick(body["sprite"], "size"), JSON{"size": 60})
	})

	a.Alternative("Not implemented", func(a *biff.A) {
		resp := apiRequest("GET", "/nothing-here").Do()

		biff.AssertEqual(resp.StatusCode, http.StatusNotImplemented)
	})
}
