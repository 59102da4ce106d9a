package crypto

import (
	"crypto/sha512"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"math"

	"github.com/iov-one/nftmarket"
	"github.com/iov-one/nftmarket/errors"
)

// SignCodeV1 is the current way to prefix the bytes we use to build
// a signature
var SignCodeV1 = []byte{0, 0xCA, 0xFE, 0}

// SignedPayload carries a JSON encoded payload together with a signature of
// the payload bytes bound to a chain id and the signer sequence.
type SignedPayload struct {
	PubKey    string          `json:"pubkey"`
	Signature string          `json:"signature"`
	Sequence  int64           `json:"sequence"`
	Payload   json.RawMessage `json:"payload"`
}

/*
SignBytes returns the bytes that are signed for given payload.

	version | len(chainID) | chainID      | sequence          | payload
	4bytes  | uint8        | ascii string | int64 (bigendian) | JSON

The chain id binds the signature to a single deployment and the sequence to
a single use. The result is prehashed with sha512.
*/
func SignBytes(chainID string, seq int64, payload []byte) ([]byte, error) {
	if seq < 0 {
		return nil, errors.Wrapf(errors.ErrInput, "negative sequence %d", seq)
	}
	if chainID == "" || len(chainID) > math.MaxUint8 {
		return nil, errors.Wrapf(errors.ErrInput, "chain id: %q", chainID)
	}

	nonce := make([]byte, 8)
	binary.BigEndian.PutUint64(nonce, uint64(seq))

	output := make([]byte, 0, len(SignCodeV1)+1+len(chainID)+len(nonce)+len(payload))
	output = append(output, SignCodeV1...)
	output = append(output, uint8(len(chainID)))
	output = append(output, chainID...)
	output = append(output, nonce...)
	output = append(output, payload...)

	hashed := sha512.Sum512(output)
	return hashed[:], nil
}

// SignPayload serializes given payload and signs it with the key. The
// sequence must be the next sequence of the key owner.
func SignPayload(key PrivateKey, chainID string, seq int64, payload interface{}) (*SignedPayload, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.Wrap(errors.ErrInput, err.Error())
	}
	toSign, err := SignBytes(chainID, seq, raw)
	if err != nil {
		return nil, err
	}
	sig, err := key.Sign(toSign)
	if err != nil {
		return nil, err
	}
	return &SignedPayload{
		PubKey:    key.PublicKey().String(),
		Signature: hex.EncodeToString(sig),
		Sequence:  seq,
		Payload:   raw,
	}, nil
}

// Open verifies the signature and decodes the payload into dest. The address
// of the signer is returned. Open does not check the sequence against the
// signer state, that is up to the caller.
func (s *SignedPayload) Open(chainID string, dest interface{}) (nftmarket.Address, error) {
	pub, err := ParsePublicKey(s.PubKey)
	if err != nil {
		return nil, errors.Wrap(err, "pubkey")
	}
	sig, err := hex.DecodeString(s.Signature)
	if err != nil {
		return nil, errors.Wrap(errors.ErrInput, "signature hex")
	}
	signed, err := SignBytes(chainID, s.Sequence, s.Payload)
	if err != nil {
		return nil, err
	}
	if !pub.Verify(signed, sig) {
		return nil, errors.Wrap(errors.ErrUnauthorized, "invalid signature")
	}
	if err := json.Unmarshal(s.Payload, dest); err != nil {
		return nil, errors.Wrapf(errors.ErrMsg, "payload: %s", err)
	}
	return pub.Address(), nil
}
