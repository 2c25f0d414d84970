package collection

import (
	"fmt"
	"sync"

	"github.com/fulldump/slotdb/densearray"
	"github.com/fulldump/slotdb/layout"
)

// IndexMap is a unique equality index over one field.
type IndexMap struct {
	Entries map[string]densearray.Handle
	RWmutex *sync.RWMutex
	Options *IndexMapOptions
}

type IndexMapOptions struct {
	Field  string         `json:"field"`
	Layout *layout.Layout `json:"-"`
}

func NewIndexMap(options *IndexMapOptions) *IndexMap {
	return &IndexMap{
		Entries: map[string]densearray.Handle{},
		RWmutex: &sync.RWMutex{},
		Options: options,
	}
}

func mapKey(value any) string {
	return fmt.Sprint(value)
}

func (i *IndexMap) AddRow(h densearray.Handle, doc map[string]any) error {

	field := i.Options.Field

	value, exists := doc[field]
	if !exists {
		return fmt.Errorf("field '%s' is indexed and mandatory", field)
	}
	key := mapKey(value)

	i.RWmutex.Lock()
	defer i.RWmutex.Unlock()

	if other, exists := i.Entries[key]; exists && other != h {
		return fmt.Errorf("%w: field '%s' with value '%s'", ErrIndexConflict, field, key)
	}
	i.Entries[key] = h

	return nil
}

func (i *IndexMap) RemoveRow(h densearray.Handle, doc map[string]any) error {

	value, exists := doc[i.Options.Field]
	if !exists {
		return nil
	}
	key := mapKey(value)

	i.RWmutex.Lock()
	defer i.RWmutex.Unlock()

	if i.Entries[key] == h {
		delete(i.Entries, key)
	}

	return nil
}

func (i *IndexMap) Traverse(options *TraverseOptions, f func(h densearray.Handle) bool) error {

	value := options.Value
	if i.Options.Layout != nil {
		normalized, err := i.Options.Layout.Normalize(i.Options.Field, value)
		if err != nil {
			return err
		}
		value = normalized
	}

	i.RWmutex.RLock()
	h, ok := i.Entries[mapKey(value)]
	i.RWmutex.RUnlock()
	if !ok {
		return nil
	}

	f(h)
	return nil
}

func (i *IndexMap) Len() int {
	i.RWmutex.RLock()
	defer i.RWmutex.RUnlock()

	return len(i.Entries)
}
