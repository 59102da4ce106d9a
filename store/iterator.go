package store

import (
	"bytes"

	"github.com/google/btree"
	"github.com/iov-one/nftmarket/errors"
)

// collectRange returns a snapshot of all btree items within [start, end).
// A nil start or end means the range is open on that side. When reverse is
// set, items are returned in descending order.
func collectRange(bt *btree.BTree, start, end []byte, reverse bool) []btree.Item {
	var items []btree.Item
	insert := func(item btree.Item) bool {
		items = append(items, item)
		return true
	}

	if start == nil && end == nil {
		bt.Ascend(insert)
	} else if start == nil { // end != nil
		bt.AscendLessThan(bkey{end}, insert)
	} else if end == nil { // start != nil
		bt.AscendGreaterOrEqual(bkey{start}, insert)
	} else { // both != nil
		bt.AscendRange(bkey{start}, bkey{end}, insert)
	}

	if reverse {
		for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
			items[i], items[j] = items[j], items[i]
		}
	}
	return items
}

// cacheIterator merges the uncommitted items of a cache wrap with the
// iterator of the store below it. Items in the cache shadow parent entries
// with the same key and deleted items hide them.
type cacheIterator struct {
	items   []btree.Item
	pos     int
	reverse bool

	parent Iterator
	// one element look ahead of the parent iterator
	pKey, pValue []byte
	pDone        bool
}

var _ Iterator = (*cacheIterator)(nil)

func newCacheIterator(items []btree.Item, parent Iterator, reverse bool) (*cacheIterator, error) {
	it := &cacheIterator{
		items:   items,
		reverse: reverse,
		parent:  parent,
	}
	if err := it.advanceParent(); err != nil {
		parent.Release()
		return nil, err
	}
	return it, nil
}

func (i *cacheIterator) advanceParent() error {
	if i.pDone {
		return nil
	}
	key, value, err := i.parent.Next()
	switch {
	case errors.ErrIteratorDone.Is(err):
		i.pKey, i.pValue, i.pDone = nil, nil, true
		return nil
	case err != nil:
		return err
	}
	i.pKey, i.pValue = key, value
	return nil
}

// first reports which source holds the next key in iteration order.
func (i *cacheIterator) first() source {
	ours := i.pos < len(i.items)
	switch {
	case !ours && i.pDone:
		return none
	case !ours:
		return parent
	case i.pDone:
		return us
	}

	cmp := bytes.Compare(i.items[i.pos].(keyer).Key(), i.pKey)
	if i.reverse {
		cmp = -cmp
	}
	switch {
	case cmp < 0:
		return us
	case cmp > 0:
		return parent
	default:
		return both
	}
}

// Next implements Iterator.
func (i *cacheIterator) Next() (key, value []byte, err error) {
	for {
		switch i.first() {
		case none:
			return nil, nil, errors.Wrap(errors.ErrIteratorDone, "cache iterator")
		case parent:
			key, value = i.pKey, i.pValue
			if err := i.advanceParent(); err != nil {
				return nil, nil, err
			}
			return key, value, nil
		case both:
			// The cached item shadows the parent entry.
			if err := i.advanceParent(); err != nil {
				return nil, nil, err
			}
			fallthrough
		case us:
			item := i.items[i.pos]
			i.pos++
			if set, ok := item.(setItem); ok {
				return set.key, set.value, nil
			}
			// Deleted entries are skipped.
		}
	}
}

// Release implements Iterator. It is synchronous, so the store can be
// modified right after it returns.
func (i *cacheIterator) Release() {
	i.parent.Release()
	i.items = nil
	i.pos = 0
	i.pDone = true
}

// source marks where the current item comes from
type source int32

const (
	us source = iota
	parent
	both
	none
)
