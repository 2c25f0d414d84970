package apicollectionv1

import (
	"context"
	"fmt"
	"net/http"

	"github.com/fulldump/slotdb/densearray"
)

type patchInput struct {
	Handle densearray.Handle `json:"handle"`
	Patch  map[string]any    `json:"patch"`
}

func patch(ctx context.Context, r *http.Request) (map[string]any, error) {

	input := &patchInput{}
	err := decodeBody(r.Body, input)
	if err != nil {
		return nil, err
	}
	if len(input.Patch) == 0 {
		return nil, fmt.Errorf("%w: empty patch", ErrBadRequest)
	}

	collection, err := getCollectionFromUrl(ctx)
	if err != nil {
		return nil, err
	}

	return collection.Patch(input.Handle, input.Patch)
}
