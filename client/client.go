package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"io/ioutil"
	"net/http"
	"strings"
	"sync"

	"github.com/iov-one/nftmarket"
	"github.com/iov-one/nftmarket/coin"
	"github.com/iov-one/nftmarket/crypto"
	"github.com/iov-one/nftmarket/errors"
	"github.com/iov-one/nftmarket/x/market"
	"github.com/iov-one/nftmarket/x/nft"
)

// Client talks to a marketd instance over HTTP. Requests that change the
// market state are signed with the caller's key.
type Client struct {
	apiURL string
	cli    http.Client

	mu      sync.Mutex
	chainID string
}

// NewClient returns a client for the API served under apiURL, for example
// "http://localhost:8000".
func NewClient(apiURL string) *Client {
	return &Client{
		apiURL: strings.TrimRight(apiURL, "/"),
	}
}

// Info returns the chain id and the latest committed version.
func (c *Client) Info(ctx context.Context) (*Info, error) {
	var info Info
	if err := c.do(ctx, "GET", "/info", nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// ListingFee returns the current listing fee and the fees collected so far.
func (c *Client) ListingFee(ctx context.Context) (*FeeResult, error) {
	var res FeeResult
	if err := c.do(ctx, "GET", "/fee", nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// ActiveItems returns all unsold items in ascending item ID order.
func (c *Client) ActiveItems(ctx context.Context) ([]market.MarketItem, error) {
	var res struct {
		Items []market.MarketItem `json:"items"`
	}
	if err := c.do(ctx, "GET", "/items", nil, &res); err != nil {
		return nil, err
	}
	return res.Items, nil
}

// Item returns a single market item.
func (c *Client) Item(ctx context.Context, itemID uint64) (*market.MarketItem, error) {
	var item market.MarketItem
	if err := c.do(ctx, "GET", fmt.Sprintf("/items/%d", itemID), nil, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// Token returns a registry entry.
func (c *Client) Token(ctx context.Context, tokenID uint64) (*nft.Token, error) {
	var t nft.Token
	if err := c.do(ctx, "GET", fmt.Sprintf("/tokens/%d", tokenID), nil, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// Balance returns the wallet balance of an address.
func (c *Client) Balance(ctx context.Context, addr nftmarket.Address) (coin.Coin, error) {
	w, err := c.Wallet(ctx, addr)
	if err != nil {
		return coin.Coin{}, err
	}
	return w.Balance, nil
}

// Wallet returns the balance and the next sequence of an address.
func (c *Client) Wallet(ctx context.Context, addr nftmarket.Address) (*Wallet, error) {
	var w Wallet
	if err := c.do(ctx, "GET", "/wallets/"+addr.String(), nil, &w); err != nil {
		return nil, err
	}
	return &w, nil
}

// CreateListing lists a token held by the key owner and returns the new item
// ID.
func (c *Client) CreateListing(ctx context.Context, key crypto.PrivateKey, tokenID uint64, price, payment coin.Coin) (uint64, error) {
	var res ListingResult
	msg := ListingMsg{TokenID: tokenID, Price: price, Payment: payment}
	if err := c.signed(ctx, key, "/listings", msg, &res); err != nil {
		return 0, err
	}
	return res.ItemID, nil
}

// Resell lists again a token bought by the key owner.
func (c *Client) Resell(ctx context.Context, key crypto.PrivateKey, tokenID uint64, price, payment coin.Coin) (uint64, error) {
	var res ListingResult
	msg := ListingMsg{TokenID: tokenID, Price: price, Payment: payment}
	if err := c.signed(ctx, key, "/resales", msg, &res); err != nil {
		return 0, err
	}
	return res.ItemID, nil
}

// MintAndList mints a new token to the key owner and lists it.
func (c *Client) MintAndList(ctx context.Context, key crypto.PrivateKey, uri string, price, payment coin.Coin) (*ListingResult, error) {
	var res ListingResult
	msg := MintAndListMsg{URI: uri, Price: price, Payment: payment}
	if err := c.signed(ctx, key, "/mint-and-list", msg, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Purchase buys an item for the key owner.
func (c *Client) Purchase(ctx context.Context, key crypto.PrivateKey, itemID uint64, payment coin.Coin) error {
	msg := PurchaseMsg{ItemID: itemID, Payment: payment}
	return c.signed(ctx, key, "/purchases", msg, nil)
}

// SetListingFee changes the listing fee. Only the market operator key is
// accepted.
func (c *Client) SetListingFee(ctx context.Context, key crypto.PrivateKey, fee coin.Coin) error {
	return c.signed(ctx, key, "/fee", SetFeeMsg{Fee: fee}, nil)
}

// chain returns the chain id of the server, fetching it once.
func (c *Client) chain(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.chainID != "" {
		return c.chainID, nil
	}
	var info Info
	if err := c.do(ctx, "GET", "/info", nil, &info); err != nil {
		return "", errors.Wrap(err, "chain id")
	}
	if info.ChainID == "" {
		return "", errors.Wrap(errors.ErrState, "market is not initialized")
	}
	c.chainID = info.ChainID
	return c.chainID, nil
}

// signed signs msg with the next sequence of the key owner and posts it.
// Requests signed by the same key must not be sent concurrently, as they
// would carry the same sequence and all but one would be rejected.
func (c *Client) signed(ctx context.Context, key crypto.PrivateKey, path string, msg, dest interface{}) error {
	chainID, err := c.chain(ctx)
	if err != nil {
		return err
	}
	w, err := c.Wallet(ctx, key.PublicKey().Address())
	if err != nil {
		return errors.Wrap(err, "sequence")
	}
	env, err := crypto.SignPayload(key, chainID, w.Sequence, msg)
	if err != nil {
		return errors.Wrap(err, "sign")
	}
	return c.do(ctx, "POST", path, env, dest)
}

func (c *Client) do(ctx context.Context, method, path string, body, dest interface{}) error {
	var input io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(errors.ErrInput, err.Error())
		}
		input = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, c.apiURL+path, input)
	if err != nil {
		return errors.Wrap(errors.ErrInput, err.Error())
	}
	req = req.WithContext(ctx)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.cli.Do(req)
	if err != nil {
		return errors.Wrapf(errors.ErrNetwork, "%s %s: %s", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		b, _ := ioutil.ReadAll(io.LimitReader(resp.Body, 1e5))
		return decodeError(resp.StatusCode, b)
	}
	if dest == nil {
		return nil
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1e6)).Decode(dest); err != nil {
		return errors.Wrapf(errors.ErrNetwork, "decode response: %s", err)
	}
	return nil
}

// decodeError rebuilds a registered error from an error response, so that
// callers can test it with ErrX.Is.
func decodeError(status int, body []byte) error {
	var res ErrorResult
	if err := json.Unmarshal(body, &res); err != nil {
		return errors.Wrapf(errors.ErrNetwork, "bad response: %d %s", status, string(body))
	}
	msg := strings.Join(res.Errors, "; ")
	if root := errors.ByCode(res.Code); root != nil {
		return errors.Wrap(root, msg)
	}
	return errors.Wrapf(errors.ErrNetwork, "bad response: %d %s", status, msg)
}
