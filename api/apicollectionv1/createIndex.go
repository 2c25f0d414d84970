package apicollectionv1

import (
	"context"
	"net/http"

	"github.com/fulldump/slotdb/collection"
)

func createIndex(ctx context.Context, w http.ResponseWriter, input *collection.CreateIndexOptions) (*collection.IndexInfo, error) {

	col, err := getCollectionFromUrl(ctx)
	if err != nil {
		return nil, err
	}

	err = col.CreateIndex(input)
	if err != nil {
		return nil, err
	}

	info, err := col.GetIndex(input.Name)
	if err != nil {
		return nil, err
	}

	w.WriteHeader(http.StatusCreated)
	return &info, nil
}
