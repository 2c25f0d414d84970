package apicollectionv1

import (
	"context"

	"github.com/fulldump/box"

	"github.com/fulldump/slotdb/collection"
	"github.com/fulldump/slotdb/layout"
)

type CollectionResponse struct {
	Name        string         `json:"name"`
	Id          string         `json:"id"`
	Total       int            `json:"total"`
	Capacity    int            `json:"capacity"`
	ElementSize int            `json:"element_size"`
	Indexes     int            `json:"indexes"`
	Version     uint64         `json:"version"`
	Bytes       int64          `json:"bytes"`
	Layout      *layout.Layout `json:"layout"`
}

func newCollectionResponse(col *collection.Collection) *CollectionResponse {
	stats := col.Stats()
	return &CollectionResponse{
		Name:        stats.Name,
		Id:          stats.Id,
		Total:       stats.Total,
		Capacity:    stats.Capacity,
		ElementSize: stats.ElementSize,
		Indexes:     stats.Indexes,
		Version:     stats.Version,
		Bytes:       stats.Bytes,
		Layout:      stats.Layout,
	}
}

func getCollectionFromUrl(ctx context.Context) (*collection.Collection, error) {
	s := GetServicer(ctx)
	collectionName := box.GetUrlParameter(ctx, "collectionName")
	return s.GetCollection(collectionName)
}
