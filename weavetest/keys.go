package weavetest

import (
	"encoding/binary"

	"github.com/iov-one/nftmarket"
	"github.com/iov-one/nftmarket/crypto"
)

func NewKey() crypto.PrivateKey {
	return crypto.GenPrivKeyEd25519()
}

func NewCondition() nftmarket.Condition {
	return NewKey().PublicKey().Condition()
}

// SequenceID returns an 8 byte encoded ID, as generated by orm sequences.
func SequenceID(n uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, n)
	return b
}
