package apicollectionv1

import (
	"context"
	"net/http"
)

func dropIndex(ctx context.Context, w http.ResponseWriter, input *indexNameInput) error {

	col, err := getCollectionFromUrl(ctx)
	if err != nil {
		return err
	}

	err = col.DropIndex(input.Name)
	if err != nil {
		return err
	}

	w.WriteHeader(http.StatusNoContent)
	return nil
}
