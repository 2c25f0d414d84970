package apicollectionv1

import (
	"context"
)

func getCollection(ctx context.Context) (*CollectionResponse, error) {

	collection, err := getCollectionFromUrl(ctx)
	if err != nil {
		return nil, err
	}

	return newCollectionResponse(collection), nil
}
