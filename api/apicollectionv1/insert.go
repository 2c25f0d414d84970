package apicollectionv1

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-json-experiment/json/jsontext"

	"github.com/fulldump/slotdb/densearray"
)

type handleResponse struct {
	Handle densearray.Handle `json:"handle"`
}

type streamError struct {
	Error struct {
		Message  string `json:"message"`
		Document int    `json:"document"`
	} `json:"error"`
}

// insert reads a stream of documents and answers one handle line per
// document, in order. It stops at the first failure. Once the status is sent
// a failure is reported as a last error line instead.
func insert(ctx context.Context, w http.ResponseWriter, r *http.Request) error {

	collection, err := getCollectionFromUrl(ctx)
	if err != nil {
		return err
	}

	jsonReader := jsontext.NewDecoder(r.Body)
	jsonWriter := json.NewEncoder(w)

	fail := func(i int, err error) error {
		if i == 0 {
			return err
		}
		line := streamError{}
		line.Error.Message = err.Error()
		line.Error.Document = i
		jsonWriter.Encode(line)
		return nil
	}

	for i := 0; true; i++ {
		value, err := jsonReader.ReadValue()
		if errors.Is(err, io.EOF) {
			if i == 0 {
				w.WriteHeader(http.StatusNoContent)
			}
			return nil
		}
		if err != nil {
			return fail(i, fmt.Errorf("%w: document %d: %w", ErrBadRequest, i, err))
		}
		item := map[string]any{}
		err = decodeNumbers(value, &item)
		if err != nil {
			return fail(i, fmt.Errorf("document %d: %w", i, err))
		}

		h, err := collection.Insert(item)
		if err != nil {
			return fail(i, err)
		}

		if i == 0 {
			w.WriteHeader(http.StatusCreated)
		}
		jsonWriter.Encode(handleResponse{Handle: h})
	}

	return nil
}
