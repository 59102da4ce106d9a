package app

import (
	"fmt"
	"sync"

	"github.com/iov-one/nftmarket"
	"github.com/iov-one/nftmarket/coin"
	"github.com/iov-one/nftmarket/errors"
	"github.com/iov-one/nftmarket/x/cash"
	"github.com/iov-one/nftmarket/x/market"
	"github.com/iov-one/nftmarket/x/nft"
	"github.com/iov-one/nftmarket/x/sigs"
	"github.com/tendermint/tendermint/libs/log"
)

// CommitStore is the persistent store the application runs on. Adapter
// gives write access to the working state, Commit persists it.
type CommitStore interface {
	nftmarket.CommitKVStore
	Adapter() nftmarket.CacheableKVStore
}

// Application hosts the market ledger. All calls are serialized and every
// signed state change is committed before the call returns.
type Application struct {
	mu sync.Mutex

	store    CommitStore
	db       nftmarket.CacheableKVStore
	ledger   *market.Ledger
	registry nft.Registry
	bank     cash.Controller
	sigs     sigs.Controller
	logger   log.Logger

	// chainID is loaded from db in initialization
	// saved once in InitGenesis
	chainID string
}

// NewApplication returns an application using the latest committed state
// of the store.
func NewApplication(store CommitStore, logger log.Logger) (*Application, error) {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	if err := store.LoadLatestVersion(); err != nil {
		return nil, errors.Wrap(err, "load latest version")
	}
	db := store.Adapter()
	chainID, err := loadChainID(db)
	if err != nil {
		return nil, err
	}
	registry := nft.NewRegistry()
	bank := cash.NewController()
	return &Application{
		store:    store,
		db:       db,
		ledger:   market.NewLedger(db, registry, bank, logger),
		registry: registry,
		bank:     bank,
		sigs:     sigs.NewController(),
		logger:   logger.With("module", "app"),
		chainID:  chainID,
	}, nil
}

// ChainID returns the chain id set at genesis, or an empty string if the
// application was not initialized yet.
func (a *Application) ChainID() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.chainID
}

// InitGenesis loads the genesis state into an empty store and commits it.
func (a *Application) InitGenesis(gen *Genesis) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.chainID != "" {
		return errors.Wrapf(errors.ErrState, "already initialized as %q", a.chainID)
	}
	cache := a.db.CacheWrap()
	if err := saveChainID(cache, gen.ChainID); err != nil {
		cache.Discard()
		return err
	}
	if err := Initializers().FromGenesis(gen.AppState, cache); err != nil {
		cache.Discard()
		return errors.Wrap(err, "genesis")
	}
	if err := cache.Write(); err != nil {
		return errors.Wrap(errors.ErrDatabase, err.Error())
	}
	if err := a.commit(); err != nil {
		return err
	}
	a.chainID = gen.ChainID
	a.logger.Info("genesis loaded", "chain_id", gen.ChainID)
	return nil
}

// CommitInfo returns the latest committed version.
func (a *Application) CommitInfo() (nftmarket.CommitID, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.store.LatestVersion()
}

// Signer is the author of a signed state change. Sequence must be the next
// sequence of Address.
type Signer struct {
	Address  nftmarket.Address
	Sequence int64
}

// deliver consumes the signer sequence, runs a state changing operation and
// commits the result. The sequence is consumed even if the operation fails,
// so a signed request is never delivered twice.
func (a *Application) deliver(signer Signer, op func() error) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.chainID == "" {
		return errors.Wrap(errors.ErrState, "application is not initialized")
	}
	if err := a.sigs.CheckAndIncrementSequence(a.db, signer.Address, signer.Sequence); err != nil {
		return err
	}
	opErr := op()
	if err := a.commit(); err != nil {
		return err
	}
	return opErr
}

// query runs a read only operation.
func (a *Application) query(op func() error) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return op()
}

func (a *Application) commit() error {
	id, err := a.store.Commit()
	if err != nil {
		return errors.Wrapf(errors.ErrDatabase, "commit: %s", err)
	}
	a.logger.Debug("committed", "version", id.Version, "hash", fmt.Sprintf("%X", id.Hash))
	return nil
}

// CreateListing lists a token held by the signer.
func (a *Application) CreateListing(signer Signer, tokenID uint64, price, payment coin.Coin) (itemID uint64, err error) {
	err = a.deliver(signer, func() error {
		itemID, err = a.ledger.CreateListing(signer.Address, tokenID, price, payment)
		return err
	})
	return itemID, err
}

// Resell lists again a token bought by the signer.
func (a *Application) Resell(signer Signer, tokenID uint64, price, payment coin.Coin) (itemID uint64, err error) {
	err = a.deliver(signer, func() error {
		itemID, err = a.ledger.Resell(signer.Address, tokenID, price, payment)
		return err
	})
	return itemID, err
}

// MintAndList mints a token to the signer and lists it.
func (a *Application) MintAndList(signer Signer, uri string, price, payment coin.Coin) (tokenID, itemID uint64, err error) {
	err = a.deliver(signer, func() error {
		tokenID, itemID, err = a.ledger.MintAndList(signer.Address, uri, price, payment)
		return err
	})
	return tokenID, itemID, err
}

// Purchase buys an item for the signer.
func (a *Application) Purchase(signer Signer, itemID uint64, payment coin.Coin) error {
	return a.deliver(signer, func() error {
		return a.ledger.Purchase(signer.Address, itemID, payment)
	})
}

// SetListingFee changes the listing fee.
func (a *Application) SetListingFee(signer Signer, fee coin.Coin) error {
	return a.deliver(signer, func() error {
		return a.ledger.SetListingFee(signer.Address, fee)
	})
}

// ActiveItems returns all unsold items in ascending item ID order.
func (a *Application) ActiveItems() (items []market.MarketItem, err error) {
	err = a.query(func() error {
		items, err = a.ledger.ListActiveItems()
		return err
	})
	return items, err
}

// Item returns a single item.
func (a *Application) Item(itemID uint64) (item *market.MarketItem, err error) {
	err = a.query(func() error {
		item, err = a.ledger.Item(itemID)
		return err
	})
	return item, err
}

// ItemsListedBy returns unsold items listed by seller.
func (a *Application) ItemsListedBy(seller nftmarket.Address) (items []market.MarketItem, err error) {
	err = a.query(func() error {
		items, err = a.ledger.ItemsListedBy(seller)
		return err
	})
	return items, err
}

// OwnedItems returns the items bought by owner.
func (a *Application) OwnedItems(owner nftmarket.Address) (items []market.MarketItem, err error) {
	err = a.query(func() error {
		items, err = a.ledger.OwnedItems(owner)
		return err
	})
	return items, err
}

// ListingFee returns the current listing fee.
func (a *Application) ListingFee() (fee coin.Coin, err error) {
	err = a.query(func() error {
		fee, err = a.ledger.ListingFee()
		return err
	})
	return fee, err
}

// Collected returns the total of listing fees paid.
func (a *Application) Collected() (total coin.Coin, err error) {
	err = a.query(func() error {
		total, err = a.ledger.Collected()
		return err
	})
	return total, err
}

// Token returns a registry entry.
func (a *Application) Token(tokenID uint64) (token *nft.Token, err error) {
	err = a.query(func() error {
		token, err = a.registry.Token(a.db, tokenID)
		return err
	})
	return token, err
}

// TokensOf returns the tokens held by owner, escrowed tokens excluded.
func (a *Application) TokensOf(owner nftmarket.Address) (tokens []nft.Token, err error) {
	err = a.query(func() error {
		tokens, err = a.registry.TokensOf(a.db, owner)
		return err
	})
	return tokens, err
}

// Balance returns the wallet balance of addr.
func (a *Application) Balance(addr nftmarket.Address) (balance coin.Coin, err error) {
	err = a.query(func() error {
		balance, err = a.bank.Balance(a.db, addr)
		return err
	})
	return balance, err
}

// NextSequence returns the sequence the next change signed by addr must
// carry.
func (a *Application) NextSequence(addr nftmarket.Address) (seq int64, err error) {
	err = a.query(func() error {
		seq, err = a.sigs.NextSequence(a.db, addr)
		return err
	})
	return seq, err
}
