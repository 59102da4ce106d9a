package market

import (
	"github.com/iov-one/nftmarket"
	"github.com/iov-one/nftmarket/coin"
	"github.com/iov-one/nftmarket/errors"
	"github.com/iov-one/nftmarket/orm"
)

// ItemIterator lazily walks the unsold items in ascending item ID order. It
// reads the store directly, so a new iterator always reflects the current
// state. It must be released.
type ItemIterator struct {
	it *orm.ModelIterator
}

// Next returns the next unsold item. ErrIteratorDone is returned once all
// items were read.
func (i *ItemIterator) Next() (*MarketItem, error) {
	for {
		var item MarketItem
		if _, err := i.it.LoadNext(&item); err != nil {
			return nil, err
		}
		if !item.Sold {
			return &item, nil
		}
	}
}

// Release releases the underlying store iterator.
func (i *ItemIterator) Release() {
	i.it.Release()
}

// ActiveItems returns an iterator over all unsold items.
func (l *Ledger) ActiveItems() (*ItemIterator, error) {
	leave, err := l.enter("active items")
	if err != nil {
		return nil, err
	}
	defer leave()

	it, err := l.items.IterAll(l.db)
	if err != nil {
		return nil, err
	}
	return &ItemIterator{it: it}, nil
}

// ListActiveItems returns all unsold items in ascending item ID order.
func (l *Ledger) ListActiveItems() ([]MarketItem, error) {
	it, err := l.ActiveItems()
	if err != nil {
		return nil, err
	}
	defer it.Release()

	items := []MarketItem{}
	for {
		item, err := it.Next()
		if errors.ErrIteratorDone.Is(err) {
			return items, nil
		}
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
}

// Item returns a single item, sold or not.
func (l *Ledger) Item(itemID uint64) (*MarketItem, error) {
	leave, err := l.enter("item")
	if err != nil {
		return nil, err
	}
	defer leave()

	var item MarketItem
	if err := l.loadItem(l.db, itemID, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// ListingFee returns the fee currently charged for every listing.
func (l *Ledger) ListingFee() (coin.Coin, error) {
	conf, err := l.Configuration()
	if err != nil {
		return coin.Coin{}, err
	}
	return *conf.ListingFee, nil
}

// Configuration returns the market configuration.
func (l *Ledger) Configuration() (*Configuration, error) {
	leave, err := l.enter("configuration")
	if err != nil {
		return nil, err
	}
	defer leave()
	return l.config(l.db)
}

// Collected returns the total of all listing fees paid so far.
func (l *Ledger) Collected() (coin.Coin, error) {
	leave, err := l.enter("collected")
	if err != nil {
		return coin.Coin{}, err
	}
	defer leave()

	acc, err := l.feeAccount(l.db)
	if err != nil {
		return coin.Coin{}, err
	}
	return *acc.Collected, nil
}

// TokenURI returns the metadata URI of a token.
func (l *Ledger) TokenURI(tokenID uint64) (string, error) {
	leave, err := l.enter("token uri")
	if err != nil {
		return "", err
	}
	defer leave()
	return l.registry.URI(l.db, tokenID)
}

// ItemsListedBy returns the unsold items listed by seller.
func (l *Ledger) ItemsListedBy(seller nftmarket.Address) ([]MarketItem, error) {
	items, err := l.byIndex(sellerIndex, seller)
	if err != nil {
		return nil, err
	}
	return filter(items, func(m MarketItem) bool { return !m.Sold }), nil
}

// OwnedItems returns the sold items bought by owner. Items that were later
// resold by owner are included, as the item records stay unchanged.
func (l *Ledger) OwnedItems(owner nftmarket.Address) ([]MarketItem, error) {
	items, err := l.byIndex(ownerIndex, owner)
	if err != nil {
		return nil, err
	}
	return filter(items, func(m MarketItem) bool { return m.Sold }), nil
}

func (l *Ledger) byIndex(name string, addr nftmarket.Address) ([]MarketItem, error) {
	if err := addr.Validate(); err != nil {
		return nil, err
	}
	leave, err := l.enter(name + " items")
	if err != nil {
		return nil, err
	}
	defer leave()

	var items []MarketItem
	if _, err := l.items.ByIndex(l.db, name, addr, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func filter(items []MarketItem, keep func(MarketItem) bool) []MarketItem {
	res := []MarketItem{}
	for _, m := range items {
		if keep(m) {
			res = append(res, m)
		}
	}
	return res
}
