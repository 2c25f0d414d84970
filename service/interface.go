package service

import (
	"errors"

	"github.com/fulldump/slotdb/collection"
	"github.com/fulldump/slotdb/memory"
)

var (
	ErrorCollectionNotFound      = errors.New("collection not found")
	ErrorCollectionAlreadyExists = errors.New("collection already exists")
	ErrorBadCollectionName       = errors.New("bad collection name")
)

type Servicer interface { // todo: review naming
	CreateCollection(input *CreateCollectionInput) (*collection.Collection, error)
	GetCollection(name string) (*collection.Collection, error)
	ListCollections() []*collection.Collection
	DeleteCollection(name string) error
	Memory() memory.Stats
}
