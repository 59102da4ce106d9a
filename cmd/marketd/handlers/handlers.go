package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/iov-one/nftmarket"
	"github.com/iov-one/nftmarket/app"
	"github.com/iov-one/nftmarket/client"
	"github.com/iov-one/nftmarket/coin"
	"github.com/iov-one/nftmarket/crypto"
	"github.com/iov-one/nftmarket/errors"
	"github.com/iov-one/nftmarket/x/market"
	"github.com/iov-one/nftmarket/x/nft"
	"github.com/iov-one/nftmarket/x/sigs"
	"github.com/tendermint/tendermint/libs/log"
)

// Market is the application served by the API.
type Market interface {
	ChainID() string
	CommitInfo() (nftmarket.CommitID, error)

	CreateListing(signer app.Signer, tokenID uint64, price, payment coin.Coin) (uint64, error)
	Resell(signer app.Signer, tokenID uint64, price, payment coin.Coin) (uint64, error)
	MintAndList(signer app.Signer, uri string, price, payment coin.Coin) (uint64, uint64, error)
	Purchase(signer app.Signer, itemID uint64, payment coin.Coin) error
	SetListingFee(signer app.Signer, fee coin.Coin) error

	ActiveItems() ([]market.MarketItem, error)
	Item(itemID uint64) (*market.MarketItem, error)
	ItemsListedBy(seller nftmarket.Address) ([]market.MarketItem, error)
	OwnedItems(owner nftmarket.Address) ([]market.MarketItem, error)
	ListingFee() (coin.Coin, error)
	Collected() (coin.Coin, error)
	Token(tokenID uint64) (*nft.Token, error)
	Balance(addr nftmarket.Address) (coin.Coin, error)
	NextSequence(addr nftmarket.Address) (int64, error)
}

// maxBodySize limits the size of a signed request body.
const maxBodySize = 1 << 20

type requestIDKey struct{}

// RequestID returns the id assigned to the request by the router.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

type server struct {
	market Market
	logger log.Logger
	// debug disables redacting of internal errors.
	debug bool
}

// NewRouter returns the HTTP API of the market.
func NewRouter(m Market, logger log.Logger, debug bool) http.Handler {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	s := &server{market: m, logger: logger, debug: debug}

	r := mux.NewRouter()
	r.Use(s.withRequestID)
	r.HandleFunc("/info", s.info).Methods("GET")
	r.HandleFunc("/fee", s.fee).Methods("GET")
	r.HandleFunc("/fee", s.setFee).Methods("POST")
	r.HandleFunc("/items", s.items).Methods("GET")
	r.HandleFunc("/items/{id:[0-9]+}", s.item).Methods("GET")
	r.HandleFunc("/tokens/{id:[0-9]+}", s.token).Methods("GET")
	r.HandleFunc("/wallets/{address}", s.wallet).Methods("GET")
	r.HandleFunc("/listings", s.listing).Methods("POST")
	r.HandleFunc("/resales", s.resale).Methods("POST")
	r.HandleFunc("/mint-and-list", s.mintAndList).Methods("POST")
	r.HandleFunc("/purchases", s.purchase).Methods("POST")
	r.NotFoundHandler = s.withRequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.writeErr(w, r, errors.Wrapf(errors.ErrNotFound, "no route %s", r.URL.Path))
	}))
	return r
}

// withRequestID assigns an id to every request and logs its outcome.
func (s *server) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := uuid.New().String()
		w.Header().Set("X-Request-ID", id)
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		next.ServeHTTP(rec, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id)))

		s.logger.Info("request",
			"id", id,
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"took", time.Since(start))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *server) info(w http.ResponseWriter, r *http.Request) {
	id, err := s.market.CommitInfo()
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	JSONResp(w, http.StatusOK, client.Info{
		ChainID: s.market.ChainID(),
		Version: id.Version,
		Hash:    fmt.Sprintf("%X", id.Hash),
	})
}

func (s *server) fee(w http.ResponseWriter, r *http.Request) {
	fee, err := s.market.ListingFee()
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	collected, err := s.market.Collected()
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	JSONResp(w, http.StatusOK, client.FeeResult{Fee: fee, Collected: collected})
}

func (s *server) items(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if !atMostOne(q, "seller", "owner") {
		s.writeErr(w, r, errors.Wrap(errors.ErrInput, "at most one filter can be used at a time"))
		return
	}

	var (
		items []market.MarketItem
		err   error
	)
	switch {
	case q.Get("seller") != "":
		var seller nftmarket.Address
		if seller, err = nftmarket.ParseAddress(q.Get("seller")); err == nil {
			items, err = s.market.ItemsListedBy(seller)
		}
	case q.Get("owner") != "":
		var owner nftmarket.Address
		if owner, err = nftmarket.ParseAddress(q.Get("owner")); err == nil {
			items, err = s.market.OwnedItems(owner)
		}
	default:
		items, err = s.market.ActiveItems()
	}
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	JSONResp(w, http.StatusOK, struct {
		Items []market.MarketItem `json:"items"`
	}{
		Items: items,
	})
}

func (s *server) item(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	item, err := s.market.Item(id)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	JSONResp(w, http.StatusOK, item)
}

func (s *server) token(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	t, err := s.market.Token(id)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	JSONResp(w, http.StatusOK, t)
}

func (s *server) wallet(w http.ResponseWriter, r *http.Request) {
	addr, err := nftmarket.ParseAddress(mux.Vars(r)["address"])
	if err == nil {
		err = addr.Validate()
	}
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	balance, err := s.market.Balance(addr)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	seq, err := s.market.NextSequence(addr)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	JSONResp(w, http.StatusOK, client.Wallet{
		Address:  addr,
		Balance:  balance,
		Sequence: seq,
	})
}

func (s *server) listing(w http.ResponseWriter, r *http.Request) {
	var msg client.ListingMsg
	signer, err := s.open(r, &msg)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	itemID, err := s.market.CreateListing(signer, msg.TokenID, msg.Price, msg.Payment)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	JSONResp(w, http.StatusCreated, client.ListingResult{ItemID: itemID})
}

func (s *server) resale(w http.ResponseWriter, r *http.Request) {
	var msg client.ListingMsg
	signer, err := s.open(r, &msg)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	itemID, err := s.market.Resell(signer, msg.TokenID, msg.Price, msg.Payment)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	JSONResp(w, http.StatusCreated, client.ListingResult{ItemID: itemID})
}

func (s *server) mintAndList(w http.ResponseWriter, r *http.Request) {
	var msg client.MintAndListMsg
	signer, err := s.open(r, &msg)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	tokenID, itemID, err := s.market.MintAndList(signer, msg.URI, msg.Price, msg.Payment)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	JSONResp(w, http.StatusCreated, client.ListingResult{ItemID: itemID, TokenID: tokenID})
}

func (s *server) purchase(w http.ResponseWriter, r *http.Request) {
	var msg client.PurchaseMsg
	signer, err := s.open(r, &msg)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	if err := s.market.Purchase(signer, msg.ItemID, msg.Payment); err != nil {
		s.writeErr(w, r, err)
		return
	}
	JSONResp(w, http.StatusOK, struct{}{})
}

func (s *server) setFee(w http.ResponseWriter, r *http.Request) {
	var msg client.SetFeeMsg
	signer, err := s.open(r, &msg)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	if err := s.market.SetListingFee(signer, msg.Fee); err != nil {
		s.writeErr(w, r, err)
		return
	}
	JSONResp(w, http.StatusOK, struct{}{})
}

// open reads a signed request body, verifies it against the served chain
// and decodes the payload into dest. The signer is returned together with
// the sequence it signed, which the market consumes on delivery.
func (s *server) open(r *http.Request, dest interface{}) (app.Signer, error) {
	chainID := s.market.ChainID()
	if chainID == "" {
		return app.Signer{}, errors.Wrap(errors.ErrState, "market is not initialized")
	}
	var env crypto.SignedPayload
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodySize)).Decode(&env); err != nil {
		return app.Signer{}, errors.Wrapf(errors.ErrInput, "signed payload: %s", err)
	}
	addr, err := env.Open(chainID, dest)
	if err != nil {
		return app.Signer{}, err
	}
	return app.Signer{Address: addr, Sequence: env.Sequence}, nil
}

func (s *server) writeErr(w http.ResponseWriter, r *http.Request, err error) {
	status := errors.HTTPStatus(err)
	switch {
	case market.ErrItemNotFound.Is(err):
		status = http.StatusNotFound
	case sigs.ErrInvalidSequence.Is(err):
		status = http.StatusConflict
	}
	id := RequestID(r.Context())
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "id", id, "err", fmt.Sprintf("%+v", err))
	}
	err = errors.Redact(err, s.debug)
	JSONResp(w, status, client.ErrorResult{
		Errors:    []string{err.Error()},
		Code:      errors.Code(err),
		RequestID: id,
	})
}

func pathID(r *http.Request) (uint64, error) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		return 0, errors.Wrapf(errors.ErrInput, "id: %s", err)
	}
	return id, nil
}

// atMostOne returns true if at most one of the given query parameters is set.
func atMostOne(query url.Values, names ...string) bool {
	var nonempty int
	for _, name := range names {
		if query.Get(name) != "" {
			nonempty++
		}
		if nonempty > 1 {
			return false
		}
	}
	return true
}

// JSONResp writes content as a JSON encoded response.
func JSONResp(w http.ResponseWriter, code int, content interface{}) {
	b, err := json.MarshalIndent(content, "", "\t")
	if err != nil {
		code = http.StatusInternalServerError
		b = []byte(`{"errors":["Internal Server Error"]}`)
	}
	w.Header().Set("Content-Type", "application/json; charset=UTF-8")
	w.WriteHeader(code)
	_, _ = w.Write(b)
}
