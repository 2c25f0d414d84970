package collection

import (
	"fmt"

	"github.com/SierraSoftworks/connor"

	"github.com/fulldump/slotdb/densearray"
)

// FindOptions selects records. With Index set the walk goes through that
// index, otherwise every record is visited in slot order. Filter is a
// connor expression applied on top. Limit <= 0 means no limit.
type FindOptions struct {
	Filter map[string]any `json:"filter"`
	Skip   int64          `json:"skip"`
	Limit  int64          `json:"limit"`

	Index string `json:"index"`
	TraverseOptions
}

// Find calls f under the read lock for every selected record until f returns
// false.
func (c *Collection) Find(options *FindOptions, f func(h densearray.Handle, doc map[string]any) bool) error {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	if c.dropped {
		return ErrDropped
	}

	hasFilter := len(options.Filter) > 0
	filter := matchable(options.Filter)
	skip := options.Skip
	limit := options.Limit

	var visitErr error
	visit := func(h densearray.Handle) bool {
		if options.Limit > 0 && limit == 0 {
			return false
		}

		record, err := c.array.Peek(h)
		if err != nil {
			visitErr = err
			return false
		}
		doc, err := c.Layout.Decode(record)
		if err != nil {
			visitErr = err
			return false
		}

		if hasFilter {
			match, err := connor.Match(filter, matchable(doc))
			if err != nil {
				visitErr = fmt.Errorf("match: %w", err)
				return false
			}
			if !match {
				return true
			}
		}

		if skip > 0 {
			skip--
			return true
		}

		limit--
		return f(h, doc)
	}

	if options.Index == "" {
		c.array.Each(func(h densearray.Handle, record []byte) bool {
			return visit(h)
		})
		return visitErr
	}

	index, exists := c.Indexes[options.Index]
	if !exists {
		return fmt.Errorf("%w: '%s'", ErrIndexNotFound, options.Index)
	}

	err := index.Traverse(&options.TraverseOptions, visit)
	if err != nil {
		return err
	}
	return visitErr
}
