package store

import "github.com/iov-one/nftmarket"

// Move references for all storage types into this package
// for shorter names everywhere.
type (
	ReadOnlyKVStore  = nftmarket.ReadOnlyKVStore
	SetDeleter       = nftmarket.SetDeleter
	KVStore          = nftmarket.KVStore
	Batch            = nftmarket.Batch
	Iterator         = nftmarket.Iterator
	CacheableKVStore = nftmarket.CacheableKVStore
	KVCacheWrap      = nftmarket.KVCacheWrap
	CommitKVStore    = nftmarket.CommitKVStore
	CommitID         = nftmarket.CommitID
)

// Model is a single key/value pair as stored in a KVStore.
type Model struct {
	Key   []byte
	Value []byte
}

// Pair constructs a Model.
func Pair(key, value []byte) Model {
	return Model{Key: key, Value: value}
}
