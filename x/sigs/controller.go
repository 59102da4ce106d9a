package sigs

import (
	"github.com/iov-one/nftmarket"
	"github.com/iov-one/nftmarket/errors"
	"github.com/iov-one/nftmarket/orm"
)

// Controller reads and consumes signer sequences.
type Controller struct {
	bucket *orm.ModelBucket
}

// NewController returns a controller operating on the default sequence
// bucket.
func NewController() Controller {
	return Controller{bucket: NewBucket()}
}

// NextSequence returns the sequence the next change signed by addr must
// carry. An address that never signed anything starts at zero.
func (c Controller) NextSequence(db nftmarket.ReadOnlyKVStore, addr nftmarket.Address) (int64, error) {
	u, err := c.load(db, addr)
	if err != nil {
		return 0, err
	}
	return u.Sequence, nil
}

// CheckAndIncrementSequence consumes the sequence of signer. It fails with
// ErrInvalidSequence unless seq is the next sequence of signer, in which
// case the store is left untouched.
func (c Controller) CheckAndIncrementSequence(db nftmarket.KVStore, signer nftmarket.Address, seq int64) error {
	if err := signer.Validate(); err != nil {
		return errors.Wrap(err, "signer")
	}
	u, err := c.load(db, signer)
	if err != nil {
		return err
	}
	if err := u.CheckAndIncrementSequence(seq); err != nil {
		return err
	}
	_, err = c.bucket.Put(db, signer, u)
	return err
}

func (c Controller) load(db nftmarket.ReadOnlyKVStore, addr nftmarket.Address) (*UserData, error) {
	var u UserData
	switch err := c.bucket.One(db, addr, &u); {
	case errors.ErrNotFound.Is(err):
		return &UserData{}, nil
	case err != nil:
		return nil, err
	}
	return &u, nil
}
