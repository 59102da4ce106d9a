package market

import (
	"github.com/gogo/protobuf/proto"
	"github.com/iov-one/nftmarket"
	"github.com/iov-one/nftmarket/coin"
	"github.com/iov-one/nftmarket/errors"
	"github.com/iov-one/nftmarket/orm"
)

// EscrowAddress holds all listed tokens. It is derived from a condition no
// key can sign for.
var EscrowAddress = nftmarket.NewCondition("market", "escrow", []byte("items")).Address()

// MarketItem is created for every listing and resale.
type MarketItem struct {
	ID      uint64            `protobuf:"varint,1,opt,name=id,proto3" json:"id"`
	TokenID uint64            `protobuf:"varint,2,opt,name=token_id,json=tokenId,proto3" json:"token_id"`
	Seller  nftmarket.Address `protobuf:"bytes,3,opt,name=seller,proto3" json:"seller"`
	// Owner is the EscrowAddress until the item is sold and the buyer
	// afterwards.
	Owner nftmarket.Address `protobuf:"bytes,4,opt,name=owner,proto3" json:"owner"`
	Price *coin.Coin        `protobuf:"bytes,5,opt,name=price,proto3" json:"price"`
	Sold  bool              `protobuf:"varint,6,opt,name=sold,proto3" json:"sold"`
}

var _ orm.Model = (*MarketItem)(nil)

func (m *MarketItem) Reset()         { *m = MarketItem{} }
func (m *MarketItem) String() string { return proto.CompactTextString(m) }
func (*MarketItem) ProtoMessage()    {}

// Validate ensures the item is consistent.
func (m *MarketItem) Validate() error {
	var errs error
	if m.ID == 0 {
		errs = errors.AppendField(errs, "ID", errors.ErrEmpty)
	}
	if m.TokenID == 0 {
		errs = errors.AppendField(errs, "TokenID", errors.ErrEmpty)
	}
	errs = errors.AppendField(errs, "Seller", m.Seller.Validate())
	errs = errors.AppendField(errs, "Owner", m.Owner.Validate())
	if m.Price == nil {
		errs = errors.AppendField(errs, "Price", errors.ErrEmpty)
	} else if err := validatePrice(*m.Price); err != nil {
		errs = errors.AppendField(errs, "Price", err)
	}
	if !m.Sold && !m.Owner.Equals(EscrowAddress) {
		errs = errors.AppendField(errs, "Owner", errors.Wrap(errors.ErrState, "unsold item must be held in escrow"))
	}
	return errs
}

func validatePrice(price coin.Coin) error {
	if err := price.Validate(); err != nil {
		return errors.Wrap(ErrInvalidPrice, err.Error())
	}
	if !price.IsPositive() {
		return errors.Wrapf(ErrInvalidPrice, "price must be positive, got %s", price)
	}
	return nil
}

// Configuration is the market singleton kept under the gconf "market" key.
type Configuration struct {
	// Owner is the operator allowed to change the configuration.
	Owner nftmarket.Address `protobuf:"bytes,1,opt,name=owner,proto3" json:"owner"`
	// FeeCollector receives all listing fees.
	FeeCollector nftmarket.Address `protobuf:"bytes,2,opt,name=fee_collector,json=feeCollector,proto3" json:"fee_collector"`
	ListingFee   *coin.Coin        `protobuf:"bytes,3,opt,name=listing_fee,json=listingFee,proto3" json:"listing_fee"`
}

var _ orm.Model = (*Configuration)(nil)

func (c *Configuration) Reset()         { *c = Configuration{} }
func (c *Configuration) String() string { return proto.CompactTextString(c) }
func (*Configuration) ProtoMessage()    {}

// GetOwner implements gconf.OwnedConfig.
func (c *Configuration) GetOwner() nftmarket.Address {
	return c.Owner
}

// Validate ensures the configuration is consistent.
func (c *Configuration) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Owner", c.Owner.Validate())
	errs = errors.AppendField(errs, "FeeCollector", c.FeeCollector.Validate())
	switch {
	case c.ListingFee == nil:
		errs = errors.AppendField(errs, "ListingFee", errors.ErrEmpty)
	case !c.ListingFee.IsNonNegative():
		errs = errors.AppendField(errs, "ListingFee", errors.Wrap(errors.ErrAmount, "negative fee"))
	default:
		errs = errors.AppendField(errs, "ListingFee", c.ListingFee.Validate())
	}
	return errs
}

// FeeAccount tracks the total of all listing fees paid.
type FeeAccount struct {
	Collected *coin.Coin `protobuf:"bytes,1,opt,name=collected,proto3" json:"collected"`
}

var _ orm.Model = (*FeeAccount)(nil)

func (f *FeeAccount) Reset()         { *f = FeeAccount{} }
func (f *FeeAccount) String() string { return proto.CompactTextString(f) }
func (*FeeAccount) ProtoMessage()    {}

// Validate ensures the collected amount is a non negative coin.
func (f *FeeAccount) Validate() error {
	if f.Collected == nil {
		return errors.Wrap(errors.ErrEmpty, "collected")
	}
	if err := f.Collected.Validate(); err != nil {
		return errors.Wrap(err, "collected")
	}
	if !f.Collected.IsNonNegative() {
		return errors.Wrap(errors.ErrAmount, "negative collected amount")
	}
	return nil
}

const (
	sellerIndex = "seller"
	ownerIndex  = "owner"
)

// ItemKey returns the bucket key of a market item.
func ItemKey(id uint64) []byte {
	return orm.EncodeSequence(int64(id))
}

// NewItemBucket returns the bucket holding market items keyed by big endian
// item ID, indexed by seller and by recorded owner.
func NewItemBucket() *orm.ModelBucket {
	return orm.NewModelBucket("items", &MarketItem{},
		orm.WithIndex(sellerIndex, func(m orm.Model) ([]byte, error) {
			item, ok := m.(*MarketItem)
			if !ok {
				return nil, errors.Wrapf(orm.ErrInvalidIndex, "%T", m)
			}
			return item.Seller, nil
		}, false),
		orm.WithIndex(ownerIndex, func(m orm.Model) ([]byte, error) {
			item, ok := m.(*MarketItem)
			if !ok {
				return nil, errors.Wrapf(orm.ErrInvalidIndex, "%T", m)
			}
			return item.Owner, nil
		}, false),
	)
}

var feeAccountKey = []byte("account")

// NewFeeAccountBucket returns the bucket holding the FeeAccount singleton.
func NewFeeAccountBucket() *orm.ModelBucket {
	return orm.NewModelBucket("market_fees", &FeeAccount{})
}
