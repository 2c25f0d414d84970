package apicollectionv1

import (
	"context"

	"github.com/fulldump/slotdb/collection"
)

func listIndexes(ctx context.Context) ([]collection.IndexInfo, error) {

	col, err := getCollectionFromUrl(ctx)
	if err != nil {
		return nil, err
	}

	return col.ListIndexes(), nil
}
