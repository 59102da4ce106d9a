package store

import (
	"bytes"
	"fmt"
	"math/rand"
	"sort"
	"testing"

	"github.com/iov-one/nftmarket/errors"
	"github.com/iov-one/nftmarket/weavetest/assert"
)

// TestSuite checks that a CacheableKVStore implementation behaves like the
// in-memory store: cache layers read through to their parent, keep their
// writes until Write is called, and iterate over the merged view of both
// layers in key order.
//
// Expected results are computed from a plain map holding the same
// operations, so cases only describe what is written and what is read.
type TestSuite struct {
	makeBase TestStoreConstructor
}

// TestStoreConstructor returns an empty store and a function releasing it.
type TestStoreConstructor func() (base CacheableKVStore, cleanup func())

func NewTestSuite(constructor TestStoreConstructor) *TestSuite {
	return &TestSuite{makeBase: constructor}
}

// Run runs every check of the suite as a subtest.
func (s *TestSuite) Run(t *testing.T) {
	t.Run("get and set", s.GetSet)
	t.Run("cache conflicts", s.CacheConflicts)
	t.Run("fuzz iterator", s.FuzzIterator)
	t.Run("iterator with conflicts", s.IteratorWithConflicts)
}

// GetSet follows the lifetime of a few records through cache layers that
// are written or discarded.
func (s *TestSuite) GetSet(t *testing.T) {
	base, cleanup := s.makeBase()
	defer cleanup()

	item := Pair([]byte("item:1"), []byte("listed"))
	wallet := Pair([]byte("wallet:alice"), []byte("1000 ETH"))
	fee := Pair([]byte("conf:fee"), []byte("10 ETH"))

	assertHolds(t, base, item.Key, nil)
	assert.Nil(t, base.Set(item.Key, item.Value))
	assertHolds(t, base, item.Key, item.Value)

	cache := base.CacheWrap()
	assertHolds(t, cache, item.Key, item.Value)
	assert.Nil(t, cache.Set(wallet.Key, wallet.Value))
	assertHolds(t, cache, wallet.Key, wallet.Value)
	assertHolds(t, base, wallet.Key, nil)
	assert.Nil(t, cache.Write())
	assertHolds(t, base, wallet.Key, wallet.Value)

	discarded := base.CacheWrap()
	assert.Nil(t, discarded.Set(fee.Key, fee.Value))
	assert.Nil(t, discarded.Delete(wallet.Key))
	assertHolds(t, discarded, wallet.Key, nil)
	discarded.Discard()
	assertHolds(t, base, fee.Key, nil)
	assertHolds(t, base, wallet.Key, wallet.Value)

	sold := base.CacheWrap()
	assert.Nil(t, sold.Delete(item.Key))
	assert.Nil(t, sold.Set(fee.Key, fee.Value))
	assert.Nil(t, sold.Write())
	assertHolds(t, base, item.Key, nil)
	assertHolds(t, base, wallet.Key, wallet.Value)
	assertHolds(t, base, fee.Key, fee.Value)
}

// CacheConflicts checks that a cache layer shadows the parent values it
// overwrites or deletes, and that writing it makes the parent agree.
func (s *TestSuite) CacheConflicts(t *testing.T) {
	k := func(name string) []byte { return []byte("item:" + name) }
	v := func(state string) []byte { return []byte(state) }

	cases := map[string]struct {
		parent []Op
		child  []Op
		keys   [][]byte
	}{
		"overwrite one, delete another, add a third": {
			parent: []Op{SetOp(k("1"), v("listed")), SetOp(k("2"), v("listed"))},
			child:  []Op{SetOp(k("1"), v("sold")), DelOp(k("2")), SetOp(k("3"), v("listed"))},
			keys:   [][]byte{k("1"), k("2"), k("3")},
		},
		"delete and set again": {
			parent: []Op{SetOp(k("1"), v("listed"))},
			child:  []Op{DelOp(k("1")), SetOp(k("1"), v("relisted"))},
			keys:   [][]byte{k("1")},
		},
		"set and delete again": {
			child: []Op{SetOp(k("1"), v("listed")), DelOp(k("1"))},
			keys:  [][]byte{k("1")},
		},
		"delete a missing key": {
			parent: []Op{SetOp(k("1"), v("listed"))},
			child:  []Op{DelOp(k("9"))},
			keys:   [][]byte{k("1"), k("9")},
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			parent, cleanup := s.makeBase()
			defer cleanup()

			before := applyOps(t, parent, nil, tc.parent)
			child := parent.CacheWrap()
			after := applyOps(t, child, copyState(before), tc.child)

			for _, key := range tc.keys {
				assertHolds(t, parent, key, before[string(key)])
				assertHolds(t, child, key, after[string(key)])
			}
			assert.Nil(t, child.Write())
			for _, key := range tc.keys {
				assertHolds(t, parent, key, after[string(key)])
			}
		})
	}
}

// FuzzIterator iterates random ranges over random writes and deletes made
// to both layers. Part of the deletes hit existing keys.
func (s *TestSuite) FuzzIterator(t *testing.T) {
	for seed := int64(1); seed <= 3; seed++ {
		t.Run(fmt.Sprintf("seed %d", seed), func(t *testing.T) {
			rnd := rand.New(rand.NewSource(seed))
			parent := randomOps(rnd, 50, 20, nil)
			child := randomOps(rnd, 50, 20, parent)

			var ranges []keyRange
			for i := 0; i < 16; i++ {
				ranges = append(ranges, randomRange(rnd, append(parent, child...)))
			}
			ranges = append(ranges, keyRange{}, keyRange{reverse: true})

			base, cleanup := s.makeBase()
			defer cleanup()
			layered{parent: parent, child: child, ranges: ranges}.check(t, base)
		})
	}
}

// IteratorWithConflicts covers layer combinations that are easy to get
// wrong when merging a cache with its parent.
func (s *TestSuite) IteratorWithConflicts(t *testing.T) {
	a, b, c, d := []byte("item:a"), []byte("item:b"), []byte("item:c"), []byte("item:d")
	set := func(keys ...[]byte) []Op {
		ops := make([]Op, len(keys))
		for i, k := range keys {
			ops[i] = SetOp(k, append([]byte("v-"), k...))
		}
		return ops
	}
	overwrite := func(keys ...[]byte) []Op {
		ops := make([]Op, len(keys))
		for i, k := range keys {
			ops[i] = SetOp(k, append([]byte("new-"), k...))
		}
		return ops
	}
	del := func(keys ...[]byte) []Op {
		ops := make([]Op, len(keys))
		for i, k := range keys {
			ops[i] = DelOp(k)
		}
		return ops
	}
	ranges := []keyRange{
		{},
		{reverse: true},
		{start: b, end: c},
		{start: b, end: d, reverse: true},
		{end: c},
		{start: c},
	}

	cases := map[string]layered{
		"child only":           {child: set(a, b, c)},
		"parent only":          {parent: set(a, b, c)},
		"split between layers": {parent: set(a, b), child: set(c)},
		"child overwrites":     {parent: set(a, b, c), child: overwrite(a, b, d)},
		"child deletes":        {parent: set(a, c, d), child: del(a, b, d)},
		"child deletes all":    {parent: set(a, b), child: del(a, b)},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			base, cleanup := s.makeBase()
			defer cleanup()
			tc.ranges = ranges
			tc.check(t, base)
		})
	}
}

// assertHolds checks both Get and Has for key. A nil want means the key
// must be absent.
func assertHolds(t testing.TB, kv ReadOnlyKVStore, key, want []byte) {
	t.Helper()
	got, err := kv.Get(key)
	assert.Nil(t, err)
	assert.Equal(t, want, got)
	has, err := kv.Has(key)
	assert.Nil(t, err)
	assert.Equal(t, want != nil, has)
}

// layered writes parent operations to a store and child operations to a
// cache wrapping it, then iterates the cache.
type layered struct {
	parent []Op
	child  []Op
	ranges []keyRange
}

type keyRange struct {
	start, end []byte
	reverse    bool
}

func (l layered) check(t testing.TB, base CacheableKVStore) {
	t.Helper()
	state := applyOps(t, base, nil, l.parent)
	cache := base.CacheWrap()
	state = applyOps(t, cache, state, l.child)

	for _, r := range l.ranges {
		var (
			it  Iterator
			err error
		)
		if r.reverse {
			it, err = cache.ReverseIterator(r.start, r.end)
		} else {
			it, err = cache.Iterator(r.start, r.end)
		}
		assert.Nil(t, err)

		for _, want := range r.expected(state) {
			key, value, err := it.Next()
			assert.Nil(t, err)
			if !bytes.Equal(want.Key, key) {
				t.Fatalf("range %X-%X reverse=%v: want key %X, got %X", r.start, r.end, r.reverse, want.Key, key)
			}
			assert.Equal(t, want.Value, value)
		}
		if _, _, err := it.Next(); !errors.ErrIteratorDone.Is(err) {
			t.Fatalf("range %X-%X reverse=%v: want the end of iteration, got %+v", r.start, r.end, r.reverse, err)
		}
		it.Release()
	}
}

// expected returns the pairs of state within the range, in iteration order.
func (r keyRange) expected(state map[string][]byte) []Model {
	var res []Model
	for k, v := range state {
		key := []byte(k)
		if r.start != nil && bytes.Compare(key, r.start) < 0 {
			continue
		}
		if r.end != nil && bytes.Compare(key, r.end) >= 0 {
			continue
		}
		res = append(res, Pair(key, v))
	}
	sort.Slice(res, func(i, j int) bool {
		less := bytes.Compare(res[i].Key, res[j].Key) < 0
		if r.reverse {
			return !less
		}
		return less
	})
	return res
}

// applyOps applies ops to kv and records their effect in state, which may
// be nil.
func applyOps(t testing.TB, kv SetDeleter, state map[string][]byte, ops []Op) map[string][]byte {
	t.Helper()
	if state == nil {
		state = make(map[string][]byte)
	}
	for _, op := range ops {
		assert.Nil(t, op.Apply(kv))
		switch op.kind {
		case setKind:
			state[string(op.key)] = op.value
		case delKind:
			delete(state, string(op.key))
		}
	}
	return state
}

func copyState(state map[string][]byte) map[string][]byte {
	res := make(map[string][]byte, len(state))
	for k, v := range state {
		res[k] = v
	}
	return res
}

// randomOps returns sets of fresh keys followed by deletes. Half of the
// deletes target keys set by previous, when there are any.
func randomOps(rnd *rand.Rand, sets, deletes int, previous []Op) []Op {
	ops := make([]Op, 0, sets+deletes)
	for i := 0; i < sets; i++ {
		ops = append(ops, SetOp(randBytes(rnd, 8), randBytes(rnd, 1+rnd.Intn(40))))
	}
	for i := 0; i < deletes; i++ {
		if i%2 == 0 && len(previous) > 0 {
			ops = append(ops, DelOp(previous[rnd.Intn(len(previous))].key))
			continue
		}
		ops = append(ops, DelOp(randBytes(rnd, 8)))
	}
	return ops
}

// randomRange returns a range bounded by keys of ops, or left open on
// either side.
func randomRange(rnd *rand.Rand, ops []Op) keyRange {
	bound := func() []byte {
		if rnd.Intn(4) == 0 {
			return nil
		}
		return ops[rnd.Intn(len(ops))].key
	}
	r := keyRange{start: bound(), end: bound(), reverse: rnd.Intn(2) == 0}
	if r.start != nil && r.end != nil && bytes.Compare(r.start, r.end) > 0 {
		r.start, r.end = r.end, r.start
	}
	return r
}

func randBytes(rnd *rand.Rand, length int) []byte {
	res := make([]byte, length)
	rnd.Read(res)
	return res
}
