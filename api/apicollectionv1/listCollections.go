package apicollectionv1

import (
	"context"
)

func listCollections(ctx context.Context) ([]*CollectionResponse, error) {

	s := GetServicer(ctx)

	result := []*CollectionResponse{}
	for _, col := range s.ListCollections() {
		result = append(result, newCollectionResponse(col))
	}

	return result, nil
}
