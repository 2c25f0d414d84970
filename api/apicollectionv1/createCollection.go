package apicollectionv1

import (
	"context"
	"net/http"

	"github.com/fulldump/slotdb/service"
)

func createCollection(ctx context.Context, w http.ResponseWriter, input *service.CreateCollectionInput) (*CollectionResponse, error) {

	s := GetServicer(ctx)

	collection, err := s.CreateCollection(input)
	if err != nil {
		return nil, err
	}

	w.WriteHeader(http.StatusCreated)
	return newCollectionResponse(collection), nil
}
