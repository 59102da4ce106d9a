package cash

import (
	"github.com/iov-one/nftmarket"
	"github.com/iov-one/nftmarket/coin"
	"github.com/iov-one/nftmarket/errors"
	"github.com/iov-one/nftmarket/orm"
)

// CoinMover is the payment primitive used by other extensions.
type CoinMover interface {
	// MoveCoins moves the given amount from src to dest. It fails with
	// ErrInsufficientFunds when src cannot cover the amount.
	MoveCoins(db nftmarket.KVStore, src, dest nftmarket.Address, amount coin.Coin) error
}

// Controller reads and modifies wallet balances.
type Controller struct {
	bucket *orm.ModelBucket
}

var _ CoinMover = Controller{}

// NewController returns a controller operating on the default wallet bucket.
func NewController() Controller {
	return Controller{bucket: NewBucket()}
}

// Balance returns the coins held by the given address. An address that never
// received any coins has a zero balance.
func (c Controller) Balance(db nftmarket.ReadOnlyKVStore, addr nftmarket.Address) (coin.Coin, error) {
	w, err := c.load(db, addr)
	if err != nil {
		return coin.Coin{}, err
	}
	return w.Coins(), nil
}

// MoveCoins moves the given amount from src to dest.
// If src doesn't exist, or doesn't have sufficient
// coins, it fails.
func (c Controller) MoveCoins(db nftmarket.KVStore, src, dest nftmarket.Address, amount coin.Coin) error {
	if err := amount.Validate(); err != nil {
		return errors.Wrap(err, "amount")
	}
	if !amount.IsPositive() {
		return errors.Wrapf(errors.ErrAmount, "non-positive amount %s", amount)
	}
	if err := dest.Validate(); err != nil {
		return errors.Wrap(err, "destination")
	}

	sender, err := c.load(db, src)
	if err != nil {
		return err
	}
	have := sender.Coins()
	if !have.IsZero() && !have.SameType(amount) {
		return errors.Wrapf(errors.ErrCurrency, "wallet holds %s, cannot pay %s", have.Ticker, amount.Ticker)
	}
	if have.IsZero() || !have.IsGTE(amount) {
		return errors.Wrapf(errors.ErrInsufficientFunds, "%s has %s, needs %s", src, have, amount)
	}

	left, err := have.Subtract(amount)
	if err != nil {
		return err
	}
	if err := c.save(db, src, left); err != nil {
		return err
	}
	// Recipient is loaded after the sender was saved, which covers src == dest.
	return c.IssueCoins(db, dest, amount)
}

// IssueCoins attempts to add the given amount of coins to
// the destination address. Fails if it overflows the wallet.
//
// Note the amount may also be negative:
// "the lord giveth and the lord taketh away"
func (c Controller) IssueCoins(db nftmarket.KVStore, dest nftmarket.Address, amount coin.Coin) error {
	recipient, err := c.load(db, dest)
	if err != nil {
		return err
	}
	total, err := recipient.Coins().Add(amount)
	if err != nil {
		return err
	}
	return c.save(db, dest, total)
}

func (c Controller) load(db nftmarket.ReadOnlyKVStore, addr nftmarket.Address) (*Wallet, error) {
	var w Wallet
	switch err := c.bucket.One(db, addr, &w); {
	case errors.ErrNotFound.Is(err):
		return &Wallet{}, nil
	case err != nil:
		return nil, err
	}
	return &w, nil
}

func (c Controller) save(db nftmarket.KVStore, addr nftmarket.Address, balance coin.Coin) error {
	_, err := c.bucket.Put(db, addr, &Wallet{Balance: &balance})
	return err
}
