package orm

import (
	"github.com/gogo/protobuf/proto"
	"github.com/iov-one/nftmarket"
	"github.com/iov-one/nftmarket/errors"
)

// ModelIterator lazily loads models from a bucket. It must be released once
// no longer used.
//
//   it, err := bucket.IterAll(db)
//   ...
//   defer it.Release()
//   for {
//     var item MarketItem
//     key, err := it.LoadNext(&item)
//     if errors.ErrIteratorDone.Is(err) {
//       break
//     }
//     ...
//   }
type ModelIterator struct {
	it     nftmarket.Iterator
	prefix []byte
}

// LoadNext loads the next model into dest and returns its primary key.
// ErrIteratorDone is returned once all models were read.
func (i *ModelIterator) LoadNext(dest Model) ([]byte, error) {
	key, value, err := i.it.Next()
	if err != nil {
		return nil, err
	}
	if err := proto.Unmarshal(value, dest); err != nil {
		return nil, errors.Wrapf(errors.ErrModel, "cannot unmarshal: %s", err)
	}
	return key[len(i.prefix):], nil
}

// Release releases the underlying store iterator.
func (i *ModelIterator) Release() {
	i.it.Release()
}
