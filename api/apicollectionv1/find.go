package apicollectionv1

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/fulldump/slotdb/collection"
	"github.com/fulldump/slotdb/densearray"
)

type findItem struct {
	Handle   densearray.Handle `json:"handle"`
	Document map[string]any    `json:"document"`
}

// find answers one line per selected record. An empty body selects the first
// record.
func find(ctx context.Context, w http.ResponseWriter, r *http.Request) error {

	requestBody, err := io.ReadAll(r.Body)
	if err != nil {
		return err
	}

	input := &collection.FindOptions{
		Limit: 1,
	}
	if len(requestBody) > 0 {
		err = decodeNumbers(requestBody, input)
		if err != nil {
			return err
		}
	}

	col, err := getCollectionFromUrl(ctx)
	if err != nil {
		return err
	}

	jsonWriter := json.NewEncoder(w)
	var writeErr error
	err = col.Find(input, func(h densearray.Handle, doc map[string]any) bool {
		writeErr = jsonWriter.Encode(findItem{Handle: h, Document: doc})
		return writeErr == nil
	})
	if err != nil {
		return err
	}

	return writeErr
}
