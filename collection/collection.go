package collection

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fulldump/slotdb/consumer"
	"github.com/fulldump/slotdb/densearray"
	"github.com/fulldump/slotdb/layout"
)

var ErrDropped = errors.New("collection dropped")

// Collection is a named dense array whose records follow a layout. It is safe
// for concurrent use.
type Collection struct {
	Name      string
	Id        string
	CreatedAt time.Time
	Layout    *layout.Layout

	array   *densearray.DenseArray
	mutex   *sync.RWMutex
	Indexes map[string]*collectionIndex
	dropped bool
}

type Config struct {
	Name     string
	Layout   *layout.Layout
	Capacity int
	Acquirer densearray.Acquirer
}

func New(config *Config) (*Collection, error) {

	if config.Layout == nil {
		return nil, fmt.Errorf("collection '%s': missing layout", config.Name)
	}

	options := []densearray.Option{
		densearray.WithInitialCapacity(config.Capacity),
	}
	if config.Acquirer != nil {
		options = append(options, densearray.WithAcquirer(config.Acquirer))
	}

	array, err := densearray.New(config.Layout.Size(), options...)
	if err != nil {
		return nil, fmt.Errorf("collection '%s': %w", config.Name, err)
	}

	return &Collection{
		Name:      config.Name,
		Id:        uuid.New().String(),
		CreatedAt: time.Now(),
		Layout:    config.Layout,
		array:     array,
		mutex:     &sync.RWMutex{},
		Indexes:   map[string]*collectionIndex{},
	}, nil
}

// Insert stores doc in a fresh record. Fields missing from doc are zero.
func (c *Collection) Insert(doc map[string]any) (densearray.Handle, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.dropped {
		return -1, ErrDropped
	}

	record := make([]byte, c.Layout.Size())
	err := c.Layout.Encode(record, doc)
	if err != nil {
		return -1, err
	}

	full, err := c.Layout.Decode(record)
	if err != nil {
		return -1, err
	}

	h, err := c.array.AddAndFill(record)
	if err != nil {
		return -1, err
	}

	err = indexInsert(c.Indexes, h, full)
	if err != nil {
		c.array.Remove(h)
		return -1, err
	}

	return h, nil
}

func (c *Collection) Get(h densearray.Handle) (map[string]any, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	if c.dropped {
		return nil, ErrDropped
	}

	record, err := c.array.Peek(h)
	if err != nil {
		return nil, err
	}
	return c.Layout.Decode(record)
}

// Patch writes the fields present in patch and returns the whole record.
func (c *Collection) Patch(h densearray.Handle, patch map[string]any) (map[string]any, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.dropped {
		return nil, ErrDropped
	}

	current, err := c.array.Peek(h)
	if err != nil {
		return nil, err
	}

	before, err := c.Layout.Decode(current)
	if err != nil {
		return nil, err
	}

	record := append([]byte(nil), current...)
	err = c.Layout.Encode(record, patch)
	if err != nil {
		return nil, err
	}

	after, err := c.Layout.Decode(record)
	if err != nil {
		return nil, err
	}

	err = indexReplace(c.Indexes, h, before, after)
	if err != nil {
		return nil, err
	}

	err = c.array.Fill(h, record)
	if err != nil {
		return nil, err
	}

	return after, nil
}

// Remove deletes the record and returns what it held.
func (c *Collection) Remove(h densearray.Handle) (map[string]any, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.dropped {
		return nil, ErrDropped
	}

	record, err := c.array.Peek(h)
	if err != nil {
		return nil, err
	}

	doc, err := c.Layout.Decode(record)
	if err != nil {
		return nil, err
	}

	indexRemove(c.Indexes, h, doc)

	err = c.array.Remove(h)
	if err != nil {
		return nil, err
	}

	return doc, nil
}

func (c *Collection) Reserve(n int) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.dropped {
		return ErrDropped
	}

	return c.array.Reserve(n)
}

// Traverse calls f for every record in slot order while holding the read
// lock, so f must not call back into the collection.
func (c *Collection) Traverse(f func(h densearray.Handle, record []byte) bool) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	c.array.Each(f)
}

// Export hands the packed region to f under the read lock. The view is only
// valid while f runs.
func (c *Collection) Export(f func(view densearray.View) error) error {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	if c.dropped {
		return ErrDropped
	}

	return f(c.array.View())
}

// Poll copies the packed region and drains the dirty set when the array
// changed after version.
func (c *Collection) Poll(version uint64) (consumer.Frame, bool, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.dropped {
		return consumer.Frame{}, false, ErrDropped
	}

	if c.array.Version() == version {
		return consumer.Frame{}, false, nil
	}

	view := c.array.View()
	return consumer.Frame{
		Name:        c.Name,
		Version:     c.array.Version(),
		ElementSize: view.ElementSize,
		Count:       view.Count,
		Data:        append([]byte(nil), view.Data...),
		Dirty:       c.array.TakeDirty(),
	}, true, nil
}

type source struct {
	collection *Collection
}

func (s source) Name() string {
	return s.collection.Name
}

func (s source) Poll(version uint64) (consumer.Frame, bool, error) {
	return s.collection.Poll(version)
}

// Source exposes the collection to a consumer.Pump.
func (c *Collection) Source() consumer.Source {
	return source{collection: c}
}

type Stats struct {
	Name        string         `json:"name"`
	Id          string         `json:"id"`
	CreatedAt   time.Time      `json:"created_at"`
	ElementSize int            `json:"element_size"`
	Total       int            `json:"total"`
	Capacity    int            `json:"capacity"`
	Indexes     int            `json:"indexes"`
	Version     uint64         `json:"version"`
	Bytes       int64          `json:"bytes"`
	Layout      *layout.Layout `json:"layout"`
}

func (c *Collection) Stats() Stats {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	return Stats{
		Name:        c.Name,
		Id:          c.Id,
		CreatedAt:   c.CreatedAt,
		ElementSize: c.array.ElementSize(),
		Total:       c.array.Len(),
		Capacity:    c.array.Cap(),
		Indexes:     len(c.Indexes),
		Version:     c.array.Version(),
		Bytes:       c.array.Accounted(),
		Layout:      c.Layout,
	}
}

func (c *Collection) Len() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	return c.array.Len()
}

// Drop destroys the array and returns its memory to the budget.
func (c *Collection) Drop() error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.dropped {
		return ErrDropped
	}

	c.array.Destroy()
	c.Indexes = map[string]*collectionIndex{}
	c.dropped = true

	return nil
}
