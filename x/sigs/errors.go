package sigs

import (
	"github.com/iov-one/nftmarket/errors"
)

// sigs reserves 800~900
var (
	// ErrInvalidSequence is returned when a signed change does not carry
	// the next sequence of its signer.
	ErrInvalidSequence = errors.Register(800, "invalid sequence")
)
