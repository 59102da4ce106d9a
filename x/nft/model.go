package nft

import (
	"github.com/gogo/protobuf/proto"
	"github.com/iov-one/nftmarket"
	"github.com/iov-one/nftmarket/errors"
	"github.com/iov-one/nftmarket/orm"
)

// MaxURILength is the longest metadata URI accepted by the registry.
const MaxURILength = 2048

// Token is a single registry entry.
type Token struct {
	ID  uint64 `protobuf:"varint,1,opt,name=id,proto3" json:"id"`
	URI string `protobuf:"bytes,2,opt,name=uri,proto3" json:"uri"`
	// Owner is the current holder. It is empty while the token is escrowed.
	Owner    nftmarket.Address `protobuf:"bytes,3,opt,name=owner,proto3" json:"owner,omitempty"`
	Escrowed bool              `protobuf:"varint,4,opt,name=escrowed,proto3" json:"escrowed"`
}

var _ orm.Model = (*Token)(nil)

func (t *Token) Reset()         { *t = Token{} }
func (t *Token) String() string { return proto.CompactTextString(t) }
func (*Token) ProtoMessage()    {}

// Validate ensures the token is consistent.
func (t *Token) Validate() error {
	var errs error
	if t.ID == 0 {
		errs = errors.AppendField(errs, "ID", errors.ErrEmpty)
	}
	switch n := len(t.URI); {
	case n == 0:
		errs = errors.AppendField(errs, "URI", errors.ErrEmpty)
	case n > MaxURILength:
		errs = errors.AppendField(errs, "URI", errors.Wrapf(errors.ErrInput, "longer than %d", MaxURILength))
	}
	if t.Escrowed {
		if len(t.Owner) != 0 {
			errs = errors.AppendField(errs, "Owner", errors.Wrap(errors.ErrState, "escrowed token has a holder"))
		}
	} else {
		errs = errors.AppendField(errs, "Owner", t.Owner.Validate())
	}
	return errs
}

// TokenKey returns the bucket key of a token.
func TokenKey(id uint64) []byte {
	return orm.EncodeSequence(int64(id))
}

const ownerIndex = "owner"

// NewTokenBucket returns the bucket holding registry entries, indexed by
// holder.
func NewTokenBucket() *orm.ModelBucket {
	return orm.NewModelBucket("tokens", &Token{},
		orm.WithIndex(ownerIndex, func(m orm.Model) ([]byte, error) {
			t, ok := m.(*Token)
			if !ok {
				return nil, errors.Wrapf(orm.ErrInvalidIndex, "%T", m)
			}
			if len(t.Owner) == 0 {
				return nil, nil
			}
			return t.Owner, nil
		}, false),
	)
}
