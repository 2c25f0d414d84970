package collection

import (
	"fmt"
	"math"

	"github.com/google/btree"

	"github.com/fulldump/slotdb/densearray"
	"github.com/fulldump/slotdb/layout"
)

// IndexBtree keeps (value, handle) pairs ordered so ranges can be walked.
type IndexBtree struct {
	Btree   *btree.BTreeG[*RowOrdered]
	Options *IndexBTreeOptions
}

type RowOrdered struct {
	Handle densearray.Handle
	Value  any
}

type IndexBTreeOptions struct {
	Field  string         `json:"field"`
	Unique bool           `json:"unique"`
	Layout *layout.Layout `json:"-"`
}

func NewIndexBTree(options *IndexBTreeOptions) *IndexBtree {

	index := btree.NewG(32, func(a, b *RowOrdered) bool {
		if c := compareValues(a.Value, b.Value); c != 0 {
			return c < 0
		}
		return a.Handle < b.Handle
	})

	return &IndexBtree{
		Btree:   index,
		Options: options,
	}
}

func (b *IndexBtree) AddRow(h densearray.Handle, doc map[string]any) error {

	field := b.Options.Field
	value, exists := doc[field]
	if !exists {
		return fmt.Errorf("field '%s' not defined", field)
	}

	if b.Options.Unique {
		conflict := false
		b.Btree.AscendGreaterOrEqual(&RowOrdered{Handle: math.MinInt, Value: value}, func(item *RowOrdered) bool {
			conflict = compareValues(item.Value, value) == 0 && item.Handle != h
			return false
		})
		if conflict {
			return fmt.Errorf("%w: key (%s:%v) already exists", ErrIndexConflict, field, value)
		}
	}

	b.Btree.ReplaceOrInsert(&RowOrdered{
		Handle: h,
		Value:  value,
	})

	return nil
}

func (b *IndexBtree) RemoveRow(h densearray.Handle, doc map[string]any) error {

	value, exists := doc[b.Options.Field]
	if !exists {
		return nil
	}

	b.Btree.Delete(&RowOrdered{
		Handle: h,
		Value:  value,
	})

	return nil
}

func (b *IndexBtree) normalize(value any) (any, error) {
	if b.Options.Layout == nil {
		return value, nil
	}
	return b.Options.Layout.Normalize(b.Options.Field, value)
}

func (b *IndexBtree) Traverse(options *TraverseOptions, f func(h densearray.Handle) bool) error {

	iterator := func(r *RowOrdered) bool {
		return f(r.Handle)
	}

	from, to := options.From, options.To
	if options.Value != nil {
		from, to = options.Value, options.Value
	}

	hasFrom := from != nil
	hasTo := to != nil

	var pivotFrom, pivotTo *RowOrdered
	if hasFrom {
		value, err := b.normalize(from)
		if err != nil {
			return err
		}
		pivotFrom = &RowOrdered{Handle: math.MinInt, Value: value}
	}
	if hasTo {
		value, err := b.normalize(to)
		if err != nil {
			return err
		}
		pivotTo = &RowOrdered{Handle: math.MaxInt, Value: value}
	}

	if !hasFrom && !hasTo {
		if options.Reverse {
			b.Btree.Descend(iterator)
		} else {
			b.Btree.Ascend(iterator)
		}
	} else if hasFrom && !hasTo {
		if options.Reverse {
			b.Btree.DescendGreaterThan(pivotFrom, iterator)
		} else {
			b.Btree.AscendGreaterOrEqual(pivotFrom, iterator)
		}
	} else if !hasFrom && hasTo {
		if options.Reverse {
			b.Btree.DescendLessOrEqual(pivotTo, iterator)
		} else {
			b.Btree.AscendLessThan(pivotTo, iterator)
		}
	} else {
		if options.Reverse {
			b.Btree.DescendRange(pivotTo, pivotFrom, iterator)
		} else {
			b.Btree.AscendRange(pivotFrom, pivotTo, iterator)
		}
	}

	return nil
}

func (b *IndexBtree) Len() int {
	return b.Btree.Len()
}
