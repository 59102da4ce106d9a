package market

import (
	"github.com/iov-one/nftmarket"
	"github.com/iov-one/nftmarket/coin"
	"github.com/iov-one/nftmarket/errors"
	"github.com/iov-one/nftmarket/gconf"
)

// Initializer fulfils the Initializer interface to load the market
// configuration from the genesis file. The configuration is read from
// opts["conf"]["market"].
type Initializer struct{}

var _ nftmarket.Initializer = Initializer{}

// FromGenesis stores the market configuration and opens an empty fee
// account in the listing fee currency.
func (Initializer) FromGenesis(opts nftmarket.Options, db nftmarket.KVStore) error {
	var conf Configuration
	if err := gconf.InitConfig(db, opts, ConfigPkg, &conf); err != nil {
		return errors.Wrap(err, "init config")
	}
	zero := coin.NewCoin(0, 0, conf.ListingFee.Ticker)
	acc := FeeAccount{Collected: &zero}
	if _, err := NewFeeAccountBucket().Put(db, feeAccountKey, &acc); err != nil {
		return errors.Wrap(err, "fee account")
	}
	return nil
}
