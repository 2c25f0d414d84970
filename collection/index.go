package collection

import (
	"errors"
	"fmt"
	"sort"

	"github.com/fulldump/slotdb/densearray"
	"github.com/fulldump/slotdb/layout"
)

var (
	ErrIndexNotFound      = errors.New("index not found")
	ErrIndexAlreadyExists = errors.New("index already exists")
	ErrIndexConflict      = errors.New("index conflict")
	ErrIndexType          = errors.New("unknown index type")
)

const (
	IndexTypeMap   = "map"
	IndexTypeBtree = "btree"
)

// Index maps field values to handles. Handles survive compaction, so an
// index is only touched by the record it points to.
type Index interface {
	AddRow(h densearray.Handle, doc map[string]any) error
	RemoveRow(h densearray.Handle, doc map[string]any) error
	Traverse(options *TraverseOptions, f func(h densearray.Handle) bool) error
	Len() int
}

// TraverseOptions selects index entries. Map indexes only use Value; btree
// indexes walk [From, To], both inclusive and optional.
type TraverseOptions struct {
	Value   any  `json:"value"`
	From    any  `json:"from"`
	To      any  `json:"to"`
	Reverse bool `json:"reverse"`
}

type CreateIndexOptions struct {
	Name   string `json:"name"`
	Type   string `json:"type"`
	Field  string `json:"field"`
	Unique bool   `json:"unique"`
}

type IndexInfo struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	Field   string `json:"field"`
	Unique  bool   `json:"unique"`
	Entries int    `json:"entries"`
}

type collectionIndex struct {
	Index
	Options *CreateIndexOptions
}

func (c *Collection) CreateIndex(options *CreateIndexOptions) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.dropped {
		return ErrDropped
	}

	if options.Name == "" {
		options.Name = options.Field
	}
	if _, exists := c.Indexes[options.Name]; exists {
		return fmt.Errorf("%w: '%s'", ErrIndexAlreadyExists, options.Name)
	}
	if _, exists := c.Layout.Field(options.Field); !exists {
		return fmt.Errorf("index '%s': %w '%s'", options.Name, layout.ErrUnknownField, options.Field)
	}

	var index Index
	switch options.Type {
	case "", IndexTypeMap:
		options.Type = IndexTypeMap
		options.Unique = true
		index = NewIndexMap(&IndexMapOptions{
			Field:  options.Field,
			Layout: c.Layout,
		})
	case IndexTypeBtree:
		index = NewIndexBTree(&IndexBTreeOptions{
			Field:  options.Field,
			Unique: options.Unique,
			Layout: c.Layout,
		})
	default:
		return fmt.Errorf("%w '%s', must be [%s|%s]", ErrIndexType, options.Type, IndexTypeMap, IndexTypeBtree)
	}

	var err error
	c.array.Each(func(h densearray.Handle, record []byte) bool {
		var doc map[string]any
		doc, err = c.Layout.Decode(record)
		if err != nil {
			return false
		}
		err = index.AddRow(h, doc)
		return err == nil
	})
	if err != nil {
		return fmt.Errorf("index '%s': %w", options.Name, err)
	}

	c.Indexes[options.Name] = &collectionIndex{
		Index:   index,
		Options: options,
	}

	return nil
}

func (c *Collection) DropIndex(name string) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if _, exists := c.Indexes[name]; !exists {
		return fmt.Errorf("%w: '%s'", ErrIndexNotFound, name)
	}
	delete(c.Indexes, name)

	return nil
}

func (c *Collection) GetIndex(name string) (IndexInfo, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	index, exists := c.Indexes[name]
	if !exists {
		return IndexInfo{}, fmt.Errorf("%w: '%s'", ErrIndexNotFound, name)
	}
	return index.info(), nil
}

// ListIndexes returns every index sorted by name.
func (c *Collection) ListIndexes() []IndexInfo {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	result := make([]IndexInfo, 0, len(c.Indexes))
	for _, index := range c.Indexes {
		result = append(result, index.info())
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Name < result[j].Name
	})
	return result
}

func (i *collectionIndex) info() IndexInfo {
	return IndexInfo{
		Name:    i.Options.Name,
		Type:    i.Options.Type,
		Field:   i.Options.Field,
		Unique:  i.Options.Unique,
		Entries: i.Len(),
	}
}

// indexInsert adds the row to every index or to none.
func indexInsert(indexes map[string]*collectionIndex, h densearray.Handle, doc map[string]any) error {
	done := make([]Index, 0, len(indexes))
	for name, index := range indexes {
		err := index.AddRow(h, doc)
		if err != nil {
			for _, d := range done {
				d.RemoveRow(h, doc)
			}
			return fmt.Errorf("index '%s': %w", name, err)
		}
		done = append(done, index)
	}
	return nil
}

func indexRemove(indexes map[string]*collectionIndex, h densearray.Handle, doc map[string]any) {
	for _, index := range indexes {
		index.RemoveRow(h, doc)
	}
}

// indexReplace moves the row from before to after, restoring before if any
// index refuses after.
func indexReplace(indexes map[string]*collectionIndex, h densearray.Handle, before, after map[string]any) error {
	indexRemove(indexes, h, before)

	err := indexInsert(indexes, h, after)
	if err != nil {
		indexInsert(indexes, h, before)
		return err
	}
	return nil
}
