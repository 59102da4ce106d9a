package nft

import (
	"github.com/iov-one/nftmarket/errors"
)

// nft reserves 500~600
var (
	// ErrNotHolder is returned when the caller does not hold the token.
	ErrNotHolder = errors.Register(500, "not the token holder")
	// ErrEscrowed is returned when a token held in escrow is transferred or
	// escrowed again.
	ErrEscrowed = errors.Register(501, "token is escrowed")
	// ErrNotEscrowed is returned when releasing a token that is not in escrow.
	ErrNotEscrowed = errors.Register(502, "token is not escrowed")
)
