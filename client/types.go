package client

import (
	"github.com/iov-one/nftmarket"
	"github.com/iov-one/nftmarket/coin"
)

// ListingMsg is signed by a seller to list or relist a token.
type ListingMsg struct {
	TokenID uint64    `json:"token_id"`
	Price   coin.Coin `json:"price"`
	Payment coin.Coin `json:"payment"`
}

// MintAndListMsg is signed by a seller to mint a new token and list it.
type MintAndListMsg struct {
	URI     string    `json:"uri"`
	Price   coin.Coin `json:"price"`
	Payment coin.Coin `json:"payment"`
}

// PurchaseMsg is signed by a buyer.
type PurchaseMsg struct {
	ItemID  uint64    `json:"item_id"`
	Payment coin.Coin `json:"payment"`
}

// SetFeeMsg is signed by the market operator.
type SetFeeMsg struct {
	Fee coin.Coin `json:"fee"`
}

// Info describes the served market.
type Info struct {
	ChainID string `json:"chain_id"`
	Version int64  `json:"version"`
	Hash    string `json:"hash"`
}

// Wallet is the public state of an address. Sequence is the one the next
// request signed by the address must carry.
type Wallet struct {
	Address  nftmarket.Address `json:"address"`
	Balance  coin.Coin         `json:"balance"`
	Sequence int64             `json:"sequence"`
}

// ListingResult is returned for every successful listing.
type ListingResult struct {
	ItemID  uint64 `json:"item_id"`
	TokenID uint64 `json:"token_id,omitempty"`
}

// FeeResult carries the listing fee and the total collected so far.
type FeeResult struct {
	Fee       coin.Coin `json:"fee"`
	Collected coin.Coin `json:"collected"`
}

// ErrorResult is the body of every failed request. Code is the registered
// error code, zero when the error is not a registered one.
type ErrorResult struct {
	Errors    []string `json:"errors"`
	Code      uint32   `json:"code,omitempty"`
	RequestID string   `json:"request_id,omitempty"`
}
