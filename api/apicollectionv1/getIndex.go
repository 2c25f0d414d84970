package apicollectionv1

import (
	"context"

	"github.com/fulldump/slotdb/collection"
)

type indexNameInput struct {
	Name string `json:"name"`
}

func getIndex(ctx context.Context, input *indexNameInput) (*collection.IndexInfo, error) {

	col, err := getCollectionFromUrl(ctx)
	if err != nil {
		return nil, err
	}

	info, err := col.GetIndex(input.Name)
	if err != nil {
		return nil, err
	}

	return &info, nil
}
