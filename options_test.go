package nftmarket_test

import (
	"encoding/json"
	"testing"

	"github.com/iov-one/nftmarket"
	"github.com/iov-one/nftmarket/errors"
	"github.com/iov-one/nftmarket/store"
	"github.com/iov-one/nftmarket/weavetest/assert"
)

func TestReadOptions(t *testing.T) {
	opts := nftmarket.Options{
		"fee":    json.RawMessage(`{"amount": 10}`),
		"broken": json.RawMessage(`{"amount":`),
	}

	var got struct {
		Amount int `json:"amount"`
	}
	assert.Nil(t, opts.ReadOptions("fee", &got))
	assert.Equal(t, 10, got.Amount)

	// A missing key leaves the destination untouched.
	assert.Nil(t, opts.ReadOptions("missing", &got))
	assert.Equal(t, 10, got.Amount)

	err := opts.ReadOptions("broken", &got)
	assert.IsErr(t, errors.ErrInput, err)
}

type initFunc func(nftmarket.Options, nftmarket.KVStore) error

func (fn initFunc) FromGenesis(opts nftmarket.Options, db nftmarket.KVStore) error {
	return fn(opts, db)
}

func TestChainInitializers(t *testing.T) {
	var calls []string
	record := func(name string, err error) nftmarket.Initializer {
		return initFunc(func(nftmarket.Options, nftmarket.KVStore) error {
			calls = append(calls, name)
			return err
		})
	}

	chain := nftmarket.ChainInitializers(
		record("cash", nil),
		record("nft", errors.ErrState),
		record("market", nil),
	)
	err := chain.FromGenesis(nftmarket.Options{}, store.MemStore())
	assert.IsErr(t, errors.ErrState, err)
	// Initialization stops at the first failure.
	assert.Equal(t, []string{"cash", "nft"}, calls)
}
