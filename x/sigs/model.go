package sigs

import (
	"github.com/gogo/protobuf/proto"
	"github.com/iov-one/nftmarket/errors"
	"github.com/iov-one/nftmarket/orm"
)

// BucketName is where the signer sequences are stored.
const BucketName = "sigs"

// maxSequence is the greatest sequence a JSON client can represent without
// losing precision.
const maxSequence = (1 << 53) - 1

// UserData holds the sequence of a single signer. The address is the key the
// data is stored under.
type UserData struct {
	Sequence int64 `protobuf:"varint,1,opt,name=sequence,proto3" json:"sequence,omitempty"`
}

var _ orm.Model = (*UserData)(nil)

func (u *UserData) Reset()         { *u = UserData{} }
func (u *UserData) String() string { return proto.CompactTextString(u) }
func (*UserData) ProtoMessage()    {}

// Validate requires a sequence in the representable range.
func (u *UserData) Validate() error {
	if u.Sequence < 0 || u.Sequence > maxSequence {
		return errors.Field("Sequence", ErrInvalidSequence, "out of range")
	}
	return nil
}

// CheckAndIncrementSequence implements check and increment operation.
// The sequence is incremented only if it is equal to expected.
func (u *UserData) CheckAndIncrementSequence(expected int64) error {
	if u.Sequence != expected {
		return errors.Wrapf(ErrInvalidSequence, "mismatch expected %d, got %d", u.Sequence, expected)
	}
	next := u.Sequence + 1
	if next > maxSequence {
		return errors.Wrap(ErrInvalidSequence, "sequence exhausted")
	}
	u.Sequence = next
	return nil
}

// NewBucket returns the bucket holding signer sequences keyed by address.
func NewBucket() *orm.ModelBucket {
	return orm.NewModelBucket(BucketName, &UserData{})
}
