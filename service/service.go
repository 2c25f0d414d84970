package service

import (
	"fmt"
	"regexp"

	"github.com/fulldump/slotdb/collection"
	"github.com/fulldump/slotdb/database"
	"github.com/fulldump/slotdb/layout"
	"github.com/fulldump/slotdb/memory"
)

type Service struct {
	db *database.Database
}

func NewService(db *database.Database) *Service {
	return &Service{
		db: db,
	}
}

type CreateCollectionInput struct {
	Name     string       `json:"name"`
	Layout   *LayoutInput `json:"layout"`
	Preset   string       `json:"preset"`
	Capacity int          `json:"capacity"`
}

type LayoutInput struct {
	Fields []layout.Field `json:"fields"`
}

var collectionNameRegexp = regexp.MustCompile(`^[A-Za-z0-9_.-]{1,128}$`)

// buildLayout picks the explicit layout first, then the preset.
func (input *CreateCollectionInput) buildLayout() (*layout.Layout, error) {
	if input.Layout != nil && len(input.Layout.Fields) > 0 {
		return layout.New(input.Layout.Fields)
	}
	if input.Preset != "" {
		return layout.Preset(input.Preset)
	}
	return nil, fmt.Errorf("%w: collection needs a layout or a preset", layout.ErrInvalid)
}

func (s *Service) CreateCollection(input *CreateCollectionInput) (*collection.Collection, error) {

	if !collectionNameRegexp.MatchString(input.Name) {
		return nil, fmt.Errorf("%w: '%s'", ErrorBadCollectionName, input.Name)
	}
	if input.Capacity < 0 {
		return nil, fmt.Errorf("%w: negative capacity", layout.ErrInvalid)
	}

	if _, exists := s.db.GetCollection(input.Name); exists {
		return nil, ErrorCollectionAlreadyExists
	}

	l, err := input.buildLayout()
	if err != nil {
		return nil, err
	}

	return s.db.CreateCollection(input.Name, l, input.Capacity)
}

func (s *Service) GetCollection(name string) (*collection.Collection, error) {
	col, exists := s.db.GetCollection(name)
	if !exists {
		return nil, ErrorCollectionNotFound
	}

	return col, nil
}

func (s *Service) ListCollections() []*collection.Collection {
	return s.db.ListCollections()
}

func (s *Service) DeleteCollection(name string) error {
	if _, exists := s.db.GetCollection(name); !exists {
		return ErrorCollectionNotFound
	}

	return s.db.DropCollection(name)
}

func (s *Service) Memory() memory.Stats {
	return s.db.Budget.Stats()
}
