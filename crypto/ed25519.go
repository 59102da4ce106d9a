package crypto

import (
	"encoding/hex"
	"io"
	"strings"

	"github.com/iov-one/nftmarket"
	"github.com/iov-one/nftmarket/errors"
	"golang.org/x/crypto/ed25519"
)

// ExtensionName is used for the conditions we get from signatures
const ExtensionName = "sigs"

// PublicKey is an ed25519 public key.
type PublicKey []byte

// Verify verifies the signature was created with this message and public key
func (p PublicKey) Verify(message []byte, sig []byte) bool {
	if len(p) != ed25519.PublicKeySize || len(sig) != ed25519.SignatureSize {
		return false
	}
	return ed25519.Verify(ed25519.PublicKey(p), message, sig)
}

// Condition encodes the public key into a condition
func (p PublicKey) Condition() nftmarket.Condition {
	return nftmarket.NewCondition(ExtensionName, "ed25519", p)
}

// Address returns the address of the signature condition.
func (p PublicKey) Address() nftmarket.Address {
	return p.Condition().Address()
}

// String returns the hex representation of the key.
func (p PublicKey) String() string {
	return strings.ToUpper(hex.EncodeToString(p))
}

// ParsePublicKey decodes a hex encoded public key.
func ParsePublicKey(enc string) (PublicKey, error) {
	raw, err := hex.DecodeString(enc)
	if err != nil {
		return nil, errors.Wrap(errors.ErrInput, "public key hex")
	}
	if len(raw) != ed25519.PublicKeySize {
		return nil, errors.Wrapf(errors.ErrInput, "public key must be %d bytes", ed25519.PublicKeySize)
	}
	return PublicKey(raw), nil
}

// PrivateKey is an ed25519 private key.
type PrivateKey []byte

// Sign returns a matching signature for this private key
func (p PrivateKey) Sign(message []byte) ([]byte, error) {
	if len(p) != ed25519.PrivateKeySize {
		return nil, errors.Wrap(errors.ErrInput, "invalid private key")
	}
	return ed25519.Sign(ed25519.PrivateKey(p), message), nil
}

// PublicKey returns the corresponding PublicKey
func (p PrivateKey) PublicKey() PublicKey {
	pub := ed25519.PrivateKey(p).Public().(ed25519.PublicKey)
	return PublicKey(pub)
}

// String returns the hex representation of the key.
func (p PrivateKey) String() string {
	return strings.ToUpper(hex.EncodeToString(p))
}

// ParsePrivateKey decodes a hex encoded private key.
func ParsePrivateKey(enc string) (PrivateKey, error) {
	raw, err := hex.DecodeString(strings.TrimSpace(enc))
	if err != nil {
		return nil, errors.Wrap(errors.ErrInput, "private key hex")
	}
	if len(raw) != ed25519.PrivateKeySize {
		return nil, errors.Wrapf(errors.ErrInput, "private key must be %d bytes", ed25519.PrivateKeySize)
	}
	return PrivateKey(raw), nil
}

// GenPrivKeyEd25519 returns a random new private key
func GenPrivKeyEd25519() PrivateKey {
	return MustGenPrivKeyFrom(nil)
}

// MustGenPrivKeyFrom returns a private key generated from the given source
// of randomness. A nil source defaults to crypto/rand.
func MustGenPrivKeyFrom(rand io.Reader) PrivateKey {
	_, priv, err := ed25519.GenerateKey(rand)
	if err != nil {
		panic(err)
	}
	return PrivateKey(priv)
}
