package app

import (
	"testing"

	"github.com/iov-one/nftmarket/coin"
	"github.com/iov-one/nftmarket/errors"
	"github.com/iov-one/nftmarket/store/iavl"
	"github.com/iov-one/nftmarket/weavetest"
	"github.com/iov-one/nftmarket/weavetest/assert"
)

func TestLoadGenesis(t *testing.T) {
	cases := map[string]struct {
		file        string
		wantErr     *errors.Error
		wantChainID string
	}{
		"no such file": {
			file:    "testdata/missing.json",
			wantErr: errors.ErrInput,
		},
		"valid file": {
			file:        "testdata/genesis.json",
			wantChainID: "nftmarket-test",
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			gen, err := LoadGenesis(tc.file)
			if !tc.wantErr.Is(err) {
				t.Fatalf("unexpected error: %+v", err)
			}
			if tc.wantErr == nil {
				assert.Equal(t, tc.wantChainID, gen.ChainID)
			}
		})
	}
}

func TestInitGenesis(t *testing.T) {
	a, err := NewApplication(iavl.NewMemCommitStore(), nil)
	assert.Nil(t, err)
	assert.Equal(t, "", a.ChainID())

	gen, err := LoadGenesis("testdata/genesis.json")
	assert.Nil(t, err)
	assert.Nil(t, a.InitGenesis(gen))
	assert.Equal(t, "nftmarket-test", a.ChainID())

	info, err := a.CommitInfo()
	assert.Nil(t, err)
	assert.Equal(t, int64(1), info.Version)

	owner := weavetest.ParseAddress(t, "6FA3A2D4D00F3A9A2F4F1C6E3DB2C1F01A2B3C4D")
	balance, err := a.Balance(owner)
	assert.Nil(t, err)
	assert.Equal(t, coin.NewCoin(1000, 0, "ETH"), balance)

	tokens, err := a.TokensOf(owner)
	assert.Nil(t, err)
	assert.Equal(t, 1, len(tokens))
	assert.Equal(t, "ipfs://genesis-1", tokens[0].URI)

	fee, err := a.ListingFee()
	assert.Nil(t, err)
	assert.Equal(t, coin.NewCoin(10, 0, "ETH"), fee)

	err = a.InitGenesis(gen)
	assert.IsErr(t, errors.ErrState, err)
}

func TestInitGenesisFailure(t *testing.T) {
	cases := map[string]struct {
		mutate func(*Genesis)
		file   string
	}{
		"invalid market configuration": {
			file: "testdata/bad_genesis.json",
		},
		"invalid chain id": {
			file:   "testdata/genesis.json",
			mutate: func(g *Genesis) { g.ChainID = "x" },
		},
		"missing market configuration": {
			file:   "testdata/genesis.json",
			mutate: func(g *Genesis) { delete(g.AppState, "conf") },
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			a, err := NewApplication(iavl.NewMemCommitStore(), nil)
			assert.Nil(t, err)
			gen, err := LoadGenesis(tc.file)
			assert.Nil(t, err)
			if tc.mutate != nil {
				tc.mutate(gen)
			}

			if err := a.InitGenesis(gen); err == nil {
				t.Fatal("want an error")
			}
			assert.Equal(t, "", a.ChainID())
			info, err := a.CommitInfo()
			assert.Nil(t, err)
			assert.Equal(t, int64(0), info.Version)

			_, err = a.ListingFee()
			assert.IsErr(t, errors.ErrNotFound, err)
		})
	}
}
