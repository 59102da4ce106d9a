package nft

import (
	"github.com/iov-one/nftmarket"
	"github.com/iov-one/nftmarket/errors"
)

const optKey = "nft"

// GenesisToken is a token minted when the ledger is initialized. Tokens are
// minted in the order they are declared, so the first one gets ID 1.
type GenesisToken struct {
	URI   string            `json:"uri"`
	Owner nftmarket.Address `json:"owner"`
}

// Initializer fulfils the InitStater interface to load data from
// the genesis file
type Initializer struct{}

var _ nftmarket.Initializer = Initializer{}

// FromGenesis mints all tokens declared in the genesis file.
func (Initializer) FromGenesis(opts nftmarket.Options, db nftmarket.KVStore) error {
	var tokens []GenesisToken
	if err := opts.ReadOptions(optKey, &tokens); err != nil {
		return err
	}
	reg := NewRegistry()
	for i, t := range tokens {
		if _, err := reg.Mint(db, t.URI, t.Owner); err != nil {
			return errors.Wrapf(err, "token %d", i)
		}
	}
	return nil
}
