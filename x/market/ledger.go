package market

import (
	"github.com/iov-one/nftmarket"
	"github.com/iov-one/nftmarket/coin"
	"github.com/iov-one/nftmarket/errors"
	"github.com/iov-one/nftmarket/gconf"
	"github.com/iov-one/nftmarket/orm"
	"github.com/iov-one/nftmarket/x/cash"
	"github.com/tendermint/tendermint/libs/log"
)

// ConfigPkg is the gconf key of the market Configuration.
const ConfigPkg = "market"

// TokenRegistry is the part of the token registry used by the ledger.
type TokenRegistry interface {
	Mint(db nftmarket.KVStore, uri string, owner nftmarket.Address) (uint64, error)
	HolderOf(db nftmarket.ReadOnlyKVStore, id uint64) (nftmarket.Address, bool, error)
	URI(db nftmarket.ReadOnlyKVStore, id uint64) (string, error)
	Escrow(db nftmarket.KVStore, id uint64, from nftmarket.Address) error
	Release(db nftmarket.KVStore, id uint64, to nftmarket.Address) error
}

// Ledger owns the market items and the fee account. Every mutating call is
// applied to a cache wrap of the store and written through only if it
// succeeds.
//
// A Ledger is not safe for concurrent use. Callers serialize access, the
// ledger only rejects nested calls.
type Ledger struct {
	db       nftmarket.CacheableKVStore
	items    *orm.ModelBucket
	ids      orm.Sequence
	fees     *orm.ModelBucket
	registry TokenRegistry
	bank     cash.CoinMover
	logger   log.Logger

	inFlight bool
}

// NewLedger returns a ledger over db. The market configuration must already
// be stored in db, see Initializer.
func NewLedger(db nftmarket.CacheableKVStore, registry TokenRegistry, bank cash.CoinMover, logger log.Logger) *Ledger {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &Ledger{
		db:       db,
		items:    NewItemBucket(),
		ids:      orm.NewSequence("items", "id"),
		fees:     NewFeeAccountBucket(),
		registry: registry,
		bank:     bank,
		logger:   logger.With("module", "market"),
	}
}

// enter marks the ledger busy. The returned function must be called once the
// operation is done.
func (l *Ledger) enter(op string) (func(), error) {
	if l.inFlight {
		return nil, errors.Wrapf(ErrReentrant, "%s while another operation is in flight", op)
	}
	l.inFlight = true
	return func() { l.inFlight = false }, nil
}

// atomic runs fn on a cache wrap of the ledger store. The cache is written
// only if fn returns no error and does not panic.
func (l *Ledger) atomic(op string, fn func(db nftmarket.KVStore) error) error {
	leave, err := l.enter(op)
	if err != nil {
		return err
	}
	defer leave()

	cache := l.db.CacheWrap()
	if err := run(cache, fn); err != nil {
		cache.Discard()
		return err
	}
	if err := cache.Write(); err != nil {
		return errors.Wrapf(errors.ErrDatabase, "%s: %s", op, err)
	}
	return nil
}

func run(db nftmarket.KVStore, fn func(nftmarket.KVStore) error) (err error) {
	defer errors.Recover(&err)
	return fn(db)
}

// CreateListing puts a token held by caller up for sale at price. The caller
// pays the listing fee, which must be attached exactly. The token stays in
// escrow until the item is purchased.
func (l *Ledger) CreateListing(caller nftmarket.Address, tokenID uint64, price, payment coin.Coin) (uint64, error) {
	var itemID uint64
	err := l.atomic("create listing", func(db nftmarket.KVStore) error {
		var err error
		itemID, err = l.list(db, caller, tokenID, price, payment)
		return err
	})
	if err != nil {
		return 0, err
	}
	l.logger.Info("token listed",
		"item", itemID, "token", tokenID, "seller", caller, "price", price)
	return itemID, nil
}

// Resell lists again a token that caller bought earlier. It behaves exactly
// like CreateListing with caller recorded as the seller of the new item.
func (l *Ledger) Resell(caller nftmarket.Address, tokenID uint64, price, payment coin.Coin) (uint64, error) {
	var itemID uint64
	err := l.atomic("resell", func(db nftmarket.KVStore) error {
		var err error
		itemID, err = l.list(db, caller, tokenID, price, payment)
		return err
	})
	if err != nil {
		return 0, err
	}
	l.logger.Info("token relisted",
		"item", itemID, "token", tokenID, "seller", caller, "price", price)
	return itemID, nil
}

// MintAndList mints a new token with the given metadata URI to caller and
// lists it in one step.
func (l *Ledger) MintAndList(caller nftmarket.Address, uri string, price, payment coin.Coin) (tokenID, itemID uint64, err error) {
	err = l.atomic("mint and list", func(db nftmarket.KVStore) error {
		// Listing checks that do not depend on the token run first so a
		// failed call does not consume a token ID.
		if _, err := l.checkListing(db, price, payment); err != nil {
			return err
		}
		var err error
		if tokenID, err = l.registry.Mint(db, uri, caller); err != nil {
			return errors.Wrap(err, "mint")
		}
		itemID, err = l.list(db, caller, tokenID, price, payment)
		return err
	})
	if err != nil {
		return 0, 0, err
	}
	l.logger.Info("token minted and listed",
		"item", itemID, "token", tokenID, "seller", caller, "price", price)
	return tokenID, itemID, nil
}

// checkListing validates the price and the attached listing fee.
func (l *Ledger) checkListing(db nftmarket.ReadOnlyKVStore, price, payment coin.Coin) (*Configuration, error) {
	if err := validatePrice(price); err != nil {
		return nil, err
	}
	conf, err := l.config(db)
	if err != nil {
		return nil, err
	}
	fee := *conf.ListingFee
	if !price.SameType(fee) {
		return nil, errors.Wrapf(ErrInvalidPrice, "price must be in %s", fee.Ticker)
	}
	if !payment.SameType(fee) || payment.Compare(fee) != 0 {
		return nil, errors.Wrapf(ErrFeeMismatch, "listing fee is %s, got %s", fee, payment)
	}
	return conf, nil
}

// list holds the shared listing logic. All bookkeeping is written before the
// fee is paid.
func (l *Ledger) list(db nftmarket.KVStore, caller nftmarket.Address, tokenID uint64, price, payment coin.Coin) (uint64, error) {
	conf, err := l.checkListing(db, price, payment)
	if err != nil {
		return 0, err
	}
	holder, escrowed, err := l.registry.HolderOf(db, tokenID)
	if err != nil {
		if errors.ErrNotFound.Is(err) {
			return 0, errors.Wrapf(ErrNotTokenHolder, "token %d does not exist", tokenID)
		}
		return 0, err
	}
	if escrowed || !holder.Equals(caller) {
		return 0, errors.Wrapf(ErrNotTokenHolder, "token %d", tokenID)
	}

	id, err := l.ids.NextInt(db)
	if err != nil {
		return 0, errors.Wrap(errors.ErrDatabase, err.Error())
	}
	item := MarketItem{
		ID:      uint64(id),
		TokenID: tokenID,
		Seller:  caller,
		Owner:   EscrowAddress,
		Price:   &price,
	}
	if _, err := l.items.Put(db, ItemKey(item.ID), &item); err != nil {
		return 0, errors.Wrap(err, "save item")
	}
	if err := l.registry.Escrow(db, tokenID, caller); err != nil {
		return 0, errors.Wrap(err, "escrow")
	}
	if err := l.collect(db, payment); err != nil {
		return 0, err
	}

	if payment.IsPositive() {
		if err := l.bank.MoveCoins(db, caller, conf.FeeCollector, payment); err != nil {
			return 0, errors.Wrap(err, "pay listing fee")
		}
	}
	return item.ID, nil
}

// Purchase buys an unsold item. The payment must equal the item price and is
// moved to the seller, the token is released to caller.
func (l *Ledger) Purchase(caller nftmarket.Address, itemID uint64, payment coin.Coin) error {
	var item MarketItem
	err := l.atomic("purchase", func(db nftmarket.KVStore) error {
		if err := caller.Validate(); err != nil {
			return errors.Wrap(err, "buyer")
		}
		if err := l.loadItem(db, itemID, &item); err != nil {
			return err
		}
		if item.Sold {
			return errors.Wrapf(ErrAlreadySold, "item %d", itemID)
		}
		if !payment.SameType(*item.Price) || payment.Compare(*item.Price) != 0 {
			return errors.Wrapf(ErrPriceMismatch, "price is %s, got %s", item.Price, payment)
		}

		item.Owner = caller
		item.Sold = true
		if _, err := l.items.Put(db, ItemKey(itemID), &item); err != nil {
			return errors.Wrap(err, "save item")
		}
		if err := l.registry.Release(db, item.TokenID, caller); err != nil {
			return errors.Wrap(err, "release")
		}

		if err := l.bank.MoveCoins(db, caller, item.Seller, payment); err != nil {
			return errors.Wrap(err, "pay seller")
		}
		return nil
	})
	if err != nil {
		return err
	}
	l.logger.Info("item sold",
		"item", itemID, "token", item.TokenID, "seller", item.Seller, "buyer", caller, "price", item.Price)
	return nil
}

// SetListingFee replaces the listing fee. Only the configuration owner may
// change it and the currency cannot change. Existing items are not affected.
func (l *Ledger) SetListingFee(caller nftmarket.Address, fee coin.Coin) error {
	err := l.atomic("set listing fee", func(db nftmarket.KVStore) error {
		var conf Configuration
		return gconf.Update(db, ConfigPkg, &conf, caller, func(c gconf.OwnedConfig) error {
			conf := c.(*Configuration)
			if !fee.SameType(*conf.ListingFee) {
				return errors.Wrapf(errors.ErrCurrency, "listing fee must be in %s", conf.ListingFee.Ticker)
			}
			conf.ListingFee = &fee
			return conf.Validate()
		})
	})
	if err != nil {
		return err
	}
	l.logger.Info("listing fee changed", "fee", fee, "operator", caller)
	return nil
}

// collect adds the paid fee to the fee account.
func (l *Ledger) collect(db nftmarket.KVStore, fee coin.Coin) error {
	acc, err := l.feeAccount(db)
	if err != nil {
		return err
	}
	total, err := acc.Collected.Add(fee)
	if err != nil {
		return errors.Wrap(err, "collected fees")
	}
	acc.Collected = &total
	if _, err := l.fees.Put(db, feeAccountKey, acc); err != nil {
		return errors.Wrap(err, "save fee account")
	}
	return nil
}

func (l *Ledger) feeAccount(db nftmarket.ReadOnlyKVStore) (*FeeAccount, error) {
	var acc FeeAccount
	if err := l.fees.One(db, feeAccountKey, &acc); err != nil {
		return nil, errors.Wrap(err, "fee account")
	}
	return &acc, nil
}

func (l *Ledger) config(db nftmarket.ReadOnlyKVStore) (*Configuration, error) {
	var conf Configuration
	if err := gconf.Load(db, ConfigPkg, &conf); err != nil {
		return nil, errors.Wrap(err, "market configuration")
	}
	return &conf, nil
}

func (l *Ledger) loadItem(db nftmarket.ReadOnlyKVStore, itemID uint64, dest *MarketItem) error {
	if err := l.items.One(db, ItemKey(itemID), dest); err != nil {
		if errors.ErrNotFound.Is(err) {
			return errors.Wrapf(ErrItemNotFound, "item %d", itemID)
		}
		return err
	}
	return nil
}

