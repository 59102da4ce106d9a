package store

import (
	"fmt"
	"testing"

	"github.com/iov-one/nftmarket/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func memBase() (CacheableKVStore, func()) {
	return MemStore(), func() {}
}

func TestBTreeCacheSuite(t *testing.T) {
	NewTestSuite(memBase).Run(t)
}

func TestBTreeCacheNestedDiscard(t *testing.T) {
	base := MemStore()
	require.NoError(t, base.Set([]byte("item:1"), []byte("listed")))

	outer := base.CacheWrap()
	require.NoError(t, outer.Set([]byte("item:1"), []byte("sold")))
	inner := outer.CacheWrap()
	require.NoError(t, inner.Delete([]byte("item:1")))
	require.NoError(t, inner.Set([]byte("item:2"), []byte("listed")))

	has, err := inner.Has([]byte("item:1"))
	require.NoError(t, err)
	assert.False(t, has)

	// Dropping the inner layer keeps the outer changes only.
	inner.Discard()
	val, err := outer.Get([]byte("item:1"))
	require.NoError(t, err)
	assert.Equal(t, []byte("sold"), val)
	val, err = outer.Get([]byte("item:2"))
	require.NoError(t, err)
	assert.Nil(t, val)

	// Base is not modified until the outer layer is written.
	val, err = base.Get([]byte("item:1"))
	require.NoError(t, err)
	assert.Equal(t, []byte("listed"), val)
	require.NoError(t, outer.Write())
	val, err = base.Get([]byte("item:1"))
	require.NoError(t, err)
	assert.Equal(t, []byte("sold"), val)
}

func TestCacheIteratorRelease(t *testing.T) {
	db := MemStore()
	require.NoError(t, db.Set([]byte("a"), []byte("A")))
	require.NoError(t, db.Set([]byte("b"), []byte("B")))
	cache := db.CacheWrap()

	it, err := cache.Iterator([]byte("a"), []byte("z"))
	require.NoError(t, err)
	key, value, err := it.Next()
	require.NoError(t, err)
	assert.Equal(t, []byte("a"), key)
	assert.Equal(t, []byte("A"), value)

	// Release must be a synchronous operation.
	it.Release()
	require.NoError(t, db.Delete([]byte("a")))

	_, _, err = it.Next()
	assert.True(t, errors.ErrIteratorDone.Is(err), "got %+v", err)
}

func TestSliceIterator(t *testing.T) {
	const size = 10

	ks := make([][]byte, size)
	vs := make([][]byte, size)
	models := make([]Model, size)
	for i := 0; i < size; i++ {
		ks[i] = []byte(fmt.Sprintf("item:%02d", i))
		vs[i] = []byte(fmt.Sprintf("price:%d", i*10))
		models[i] = Pair(ks[i], vs[i])
	}

	it := NewSliceIterator(models)
	for i := 0; i < size; i++ {
		key, value, err := it.Next()
		require.NoError(t, err)
		assert.Equal(t, ks[i], key)
		assert.Equal(t, vs[i], value)
	}
	_, _, err := it.Next()
	assert.True(t, errors.ErrIteratorDone.Is(err))

	released := NewSliceIterator(models)
	released.Release()
	_, _, err = released.Next()
	assert.True(t, errors.ErrIteratorDone.Is(err))
}

func TestNonAtomicBatch(t *testing.T) {
	db := MemStore()
	b := NewNonAtomicBatch(db)
	require.NoError(t, b.Set([]byte("k1"), []byte("v1")))
	require.NoError(t, b.Set([]byte("k2"), []byte("v2")))
	require.NoError(t, b.Delete([]byte("k1")))
	assert.Equal(t, 3, b.Len())

	has, err := db.Has([]byte("k2"))
	require.NoError(t, err)
	assert.False(t, has, "batch must not write before Write is called")

	require.NoError(t, b.Write())
	assert.Equal(t, 0, b.Len())
	has, err = db.Has([]byte("k1"))
	require.NoError(t, err)
	assert.False(t, has)
	val, err := db.Get([]byte("k2"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), val)
}
