package market

import (
	"github.com/iov-one/nftmarket/errors"
)

// market reserves 700~720
var (
	ErrInvalidPrice   = errors.Register(700, "invalid price")
	ErrFeeMismatch    = errors.Register(701, "listing fee mismatch")
	ErrPriceMismatch  = errors.Register(702, "price mismatch")
	ErrNotTokenHolder = errors.Register(703, "not the token holder")
	ErrItemNotFound   = errors.Register(704, "item not found")
	ErrAlreadySold    = errors.Register(705, "item already sold")
	ErrReentrant      = errors.Register(706, "reentrant call")
)
