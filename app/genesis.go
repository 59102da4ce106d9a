package app

import (
	"encoding/json"
	"io/ioutil"
	"regexp"

	"github.com/iov-one/nftmarket"
	"github.com/iov-one/nftmarket/errors"
	"github.com/iov-one/nftmarket/x/cash"
	"github.com/iov-one/nftmarket/x/market"
	"github.com/iov-one/nftmarket/x/nft"
)

// IsValidChainID returns true if the chain id is 6-20 alphanumeric chars,
// dashes or underscores.
var IsValidChainID = regexp.MustCompile(`^[a-zA-Z0-9_\-]{6,20}$`).MatchString

// Genesis file format.
//
//   {
//     "chain_id": "nftmarket-dev",
//     "app_state": {
//       "cash": [{"address": "<hex>", "balance": "1000 ETH"}],
//       "nft": [{"uri": "ipfs://...", "owner": "<hex>"}],
//       "conf": {"market": {"owner": "<hex>", "fee_collector": "<hex>", "listing_fee": "10 ETH"}}
//     }
//   }
type Genesis struct {
	ChainID  string            `json:"chain_id"`
	AppState nftmarket.Options `json:"app_state"`
}

// LoadGenesis reads a genesis file.
func LoadGenesis(filePath string) (*Genesis, error) {
	raw, err := ioutil.ReadFile(filePath)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrInput, "loading genesis file: %s", err)
	}
	var gen Genesis
	if err := json.Unmarshal(raw, &gen); err != nil {
		return nil, errors.Wrapf(errors.ErrInput, "unmarshaling genesis file: %s", err)
	}
	return &gen, nil
}

// Initializers loads every extension from the genesis state. The market
// configuration is loaded last, so wallets and tokens exist before the
// market opens.
func Initializers() nftmarket.Initializer {
	return nftmarket.ChainInitializers(
		cash.Initializer{},
		nft.Initializer{},
		market.Initializer{},
	)
}

// _nm: is a prefix for application internal data
const chainIDKey = "_nm:chainID"

// loadChainID returns the chain id stored if any.
func loadChainID(kv nftmarket.ReadOnlyKVStore) (string, error) {
	v, err := kv.Get([]byte(chainIDKey))
	if err != nil {
		return "", errors.Wrap(errors.ErrDatabase, err.Error())
	}
	return string(v), nil
}

// saveChainID stores a chain id in the kv store.
// Returns error if already set, or invalid name
func saveChainID(kv nftmarket.KVStore, chainID string) error {
	if !IsValidChainID(chainID) {
		return errors.Wrapf(errors.ErrInput, "chain id: %v", chainID)
	}
	k := []byte(chainIDKey)
	exists, err := kv.Has(k)
	if err != nil {
		return errors.Wrap(err, "load chainId")
	}
	if exists {
		return errors.Wrap(errors.ErrUnauthorized, "can't modify chain id after genesis init")
	}
	if err := kv.Set(k, []byte(chainID)); err != nil {
		return errors.Wrap(err, "save chainId")
	}
	return nil
}
