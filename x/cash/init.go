package cash

import (
	"github.com/iov-one/nftmarket"
	"github.com/iov-one/nftmarket/coin"
	"github.com/iov-one/nftmarket/errors"
)

const optKey = "cash"

// GenesisAccount is used to parse the json from genesis file
// use nftmarket.Address, so address in hex, not base64
type GenesisAccount struct {
	Address nftmarket.Address `json:"address"`
	Balance coin.Coin         `json:"balance"`
}

// Initializer fulfils the InitStater interface to load data from
// the genesis file
type Initializer struct{}

var _ nftmarket.Initializer = Initializer{}

// FromGenesis will parse initial account info from genesis
// and save it to the database
func (Initializer) FromGenesis(opts nftmarket.Options, kv nftmarket.KVStore) error {
	var accts []GenesisAccount
	if err := opts.ReadOptions(optKey, &accts); err != nil {
		return err
	}
	ctrl := NewController()
	for i, acct := range accts {
		if err := acct.Address.Validate(); err != nil {
			return errors.Wrapf(err, "account %d", i)
		}
		if err := acct.Balance.Validate(); err != nil {
			return errors.Wrapf(err, "account %d balance", i)
		}
		if err := ctrl.IssueCoins(kv, acct.Address, acct.Balance); err != nil {
			return errors.Wrapf(err, "account %d", i)
		}
	}
	return nil
}
