package apicollectionv1

import (
	"context"
	"net/http"

	"github.com/fulldump/slotdb/densearray"
)

type removeInput struct {
	Handle densearray.Handle `json:"handle"`
}

func remove(ctx context.Context, w http.ResponseWriter, input *removeInput) error {

	collection, err := getCollectionFromUrl(ctx)
	if err != nil {
		return err
	}

	_, err = collection.Remove(input.Handle)
	if err != nil {
		return err
	}

	w.WriteHeader(http.StatusNoContent)
	return nil
}
