package cash

import (
	"github.com/gogo/protobuf/proto"
	"github.com/iov-one/nftmarket/coin"
	"github.com/iov-one/nftmarket/errors"
	"github.com/iov-one/nftmarket/orm"
)

// BucketName is where we store the balances
const BucketName = "cash"

// Wallet holds the balance of a single address. The address is the key the
// wallet is stored under.
type Wallet struct {
	Balance *coin.Coin `protobuf:"bytes,1,opt,name=balance,proto3" json:"balance,omitempty"`
}

var _ orm.Model = (*Wallet)(nil)

func (w *Wallet) Reset()         { *w = Wallet{} }
func (w *Wallet) String() string { return proto.CompactTextString(w) }
func (*Wallet) ProtoMessage()    {}

// Validate requires a non negative balance in a valid currency.
func (w *Wallet) Validate() error {
	if w.Balance == nil {
		return errors.Wrap(errors.ErrEmpty, "balance")
	}
	if w.Balance.IsZero() && w.Balance.Ticker == "" {
		return nil
	}
	if err := w.Balance.Validate(); err != nil {
		return errors.Wrap(err, "balance")
	}
	if !w.Balance.IsNonNegative() {
		return errors.Wrap(errors.ErrAmount, "negative balance")
	}
	return nil
}

// Coins returns the wallet balance, zero if the wallet is empty.
func (w *Wallet) Coins() coin.Coin {
	if w == nil || w.Balance == nil {
		return coin.Coin{}
	}
	return *w.Balance
}

// NewBucket returns the bucket holding wallets keyed by address.
func NewBucket() *orm.ModelBucket {
	return orm.NewModelBucket(BucketName, &Wallet{})
}
