package nft

import (
	"github.com/iov-one/nftmarket"
	"github.com/iov-one/nftmarket/errors"
	"github.com/iov-one/nftmarket/orm"
)

// Registry guards token holder transitions. It holds no state besides the
// bucket definition, all data lives in the store passed to each call.
type Registry struct {
	bucket *orm.ModelBucket
	ids    orm.Sequence
}

// NewRegistry returns a registry using the default token bucket.
func NewRegistry() Registry {
	return Registry{
		bucket: NewTokenBucket(),
		ids:    orm.NewSequence("tokens", "id"),
	}
}

// Mint creates a new token held by owner and returns its identifier.
// Identifiers start at 1.
func (r Registry) Mint(db nftmarket.KVStore, uri string, owner nftmarket.Address) (uint64, error) {
	// Check the input before a sequence value is taken.
	t := Token{ID: 1, URI: uri, Owner: owner}
	if err := t.Validate(); err != nil {
		return 0, err
	}
	id, err := r.ids.NextInt(db)
	if err != nil {
		return 0, errors.Wrap(errors.ErrDatabase, err.Error())
	}
	t.ID = uint64(id)
	if err := r.save(db, &t); err != nil {
		return 0, err
	}
	return t.ID, nil
}

// Token loads a registry entry. ErrNotFound is returned for an unknown
// identifier.
func (r Registry) Token(db nftmarket.ReadOnlyKVStore, id uint64) (*Token, error) {
	var t Token
	if err := r.bucket.One(db, TokenKey(id), &t); err != nil {
		return nil, errors.Wrapf(err, "token %d", id)
	}
	return &t, nil
}

// HolderOf returns the current holder of the token and whether it is
// escrowed. The holder of an escrowed token is nil.
func (r Registry) HolderOf(db nftmarket.ReadOnlyKVStore, id uint64) (nftmarket.Address, bool, error) {
	t, err := r.Token(db, id)
	if err != nil {
		return nil, false, err
	}
	return t.Owner, t.Escrowed, nil
}

// URI returns the metadata URI of the token.
func (r Registry) URI(db nftmarket.ReadOnlyKVStore, id uint64) (string, error) {
	t, err := r.Token(db, id)
	if err != nil {
		return "", err
	}
	return t.URI, nil
}

// Transfer moves a token from its current holder to another address. It
// fails if from is not the holder or the token is escrowed.
func (r Registry) Transfer(db nftmarket.KVStore, id uint64, from, to nftmarket.Address) error {
	if err := to.Validate(); err != nil {
		return errors.Wrap(err, "recipient")
	}
	t, err := r.heldBy(db, id, from)
	if err != nil {
		return err
	}
	t.Owner = to
	return r.save(db, t)
}

// Escrow takes the token from its holder. Until released, the token has no
// holder and cannot be transferred.
func (r Registry) Escrow(db nftmarket.KVStore, id uint64, from nftmarket.Address) error {
	t, err := r.heldBy(db, id, from)
	if err != nil {
		return err
	}
	t.Owner = nil
	t.Escrowed = true
	return r.save(db, t)
}

// Release hands an escrowed token to its new holder.
func (r Registry) Release(db nftmarket.KVStore, id uint64, to nftmarket.Address) error {
	if err := to.Validate(); err != nil {
		return errors.Wrap(err, "recipient")
	}
	t, err := r.Token(db, id)
	if err != nil {
		return err
	}
	if !t.Escrowed {
		return errors.Wrapf(ErrNotEscrowed, "token %d", id)
	}
	t.Owner = to
	t.Escrowed = false
	return r.save(db, t)
}

// TokensOf returns all tokens currently held by owner, in identifier order.
// Escrowed tokens are not included.
func (r Registry) TokensOf(db nftmarket.ReadOnlyKVStore, owner nftmarket.Address) ([]Token, error) {
	var tokens []Token
	if _, err := r.bucket.ByIndex(db, ownerIndex, owner, &tokens); err != nil {
		return nil, err
	}
	return tokens, nil
}

func (r Registry) heldBy(db nftmarket.ReadOnlyKVStore, id uint64, holder nftmarket.Address) (*Token, error) {
	t, err := r.Token(db, id)
	if err != nil {
		return nil, err
	}
	if t.Escrowed {
		return nil, errors.Wrapf(ErrEscrowed, "token %d", id)
	}
	if !t.Owner.Equals(holder) {
		return nil, errors.Wrapf(ErrNotHolder, "token %d is not held by %s", id, holder)
	}
	return t, nil
}

func (r Registry) save(db nftmarket.KVStore, t *Token) error {
	if _, err := r.bucket.Put(db, TokenKey(t.ID), t); err != nil {
		return errors.Wrapf(err, "cannot save token %d", t.ID)
	}
	return nil
}
