package apicollectionv1

import (
	"context"
	"fmt"
)

type reserveInput struct {
	Capacity int `json:"capacity"`
}

func reserve(ctx context.Context, input *reserveInput) (*CollectionResponse, error) {

	if input.Capacity < 0 {
		return nil, fmt.Errorf("%w: negative capacity", ErrBadRequest)
	}

	collection, err := getCollectionFromUrl(ctx)
	if err != nil {
		return nil, err
	}

	err = collection.Reserve(input.Capacity)
	if err != nil {
		return nil, err
	}

	return newCollectionResponse(collection), nil
}
