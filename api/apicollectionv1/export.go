package apicollectionv1

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/fulldump/slotdb/consumer"
	"github.com/fulldump/slotdb/densearray"
)

// export writes the packed region as is. Headers describe how to split it
// back into records. Write failures after the status is sent only abort the
// body.
func export(ctx context.Context, w http.ResponseWriter, r *http.Request) error {

	compression, err := consumer.ParseCompression(r.URL.Query().Get("compression"))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBadRequest, err)
	}

	collection, err := getCollectionFromUrl(ctx)
	if err != nil {
		return err
	}

	return collection.Export(func(view densearray.View) error {
		cw, err := consumer.NewWriter(w, compression)
		if err != nil {
			return err
		}

		w.Header().Set("Content-Type", "application/octet-stream")
		w.Header().Set("X-Element-Size", strconv.Itoa(view.ElementSize))
		w.Header().Set("X-Count", strconv.Itoa(view.Count))
		w.Header().Set("X-Compression", string(compression))
		w.WriteHeader(http.StatusOK)

		cw.Write(view.Data)
		cw.Close()
		return nil
	})
}
