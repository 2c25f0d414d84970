package apicollectionv1

import (
	"context"

	"github.com/fulldump/slotdb/densearray"
)

type getDocumentInput struct {
	Handle densearray.Handle `json:"handle"`
}

func getDocument(ctx context.Context, input *getDocumentInput) (map[string]any, error) {

	collection, err := getCollectionFromUrl(ctx)
	if err != nil {
		return nil, err
	}

	return collection.Get(input.Handle)
}
