package app

import (
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"github.com/iov-one/nftmarket"
	"github.com/iov-one/nftmarket/coin"
	"github.com/iov-one/nftmarket/errors"
	"github.com/iov-one/nftmarket/store/iavl"
	"github.com/iov-one/nftmarket/weavetest"
	"github.com/iov-one/nftmarket/weavetest/assert"
	"github.com/iov-one/nftmarket/x/market"
	"github.com/iov-one/nftmarket/x/sigs"
)

type actors struct {
	operator nftmarket.Address
	seller   nftmarket.Address
	buyers   []nftmarket.Address
}

// testGenesis returns a genesis with a 10 ETH listing fee, a seller holding
// token 1 and the given number of buyers, each holding 1000 ETH.
func testGenesis(t testing.TB, buyers int) (*Genesis, actors) {
	t.Helper()
	act := actors{
		operator: weavetest.NewCondition().Address(),
		seller:   weavetest.NewCondition().Address(),
	}
	type account struct {
		Address nftmarket.Address `json:"address"`
		Balance string            `json:"balance"`
	}
	accounts := []account{{Address: act.seller, Balance: "1000 ETH"}}
	for i := 0; i < buyers; i++ {
		addr := weavetest.NewCondition().Address()
		act.buyers = append(act.buyers, addr)
		accounts = append(accounts, account{Address: addr, Balance: "1000 ETH"})
	}
	state := map[string]interface{}{
		"cash": accounts,
		"nft": []map[string]interface{}{
			{"uri": "ipfs://token-1", "owner": act.seller},
		},
		"conf": map[string]interface{}{
			"market": map[string]interface{}{
				"owner":         act.operator,
				"fee_collector": act.operator,
				"listing_fee":   "10 ETH",
			},
		},
	}
	raw, err := json.Marshal(map[string]interface{}{
		"chain_id":  "nftmarket-test",
		"app_state": state,
	})
	assert.Nil(t, err)
	var gen Genesis
	assert.Nil(t, json.Unmarshal(raw, &gen))
	return &gen, act
}

func eth(n int64) coin.Coin {
	return coin.NewCoin(n, 0, "ETH")
}

// next returns addr as the signer of its next change.
func next(t testing.TB, a *Application, addr nftmarket.Address) Signer {
	t.Helper()
	seq, err := a.NextSequence(addr)
	assert.Nil(t, err)
	return Signer{Address: addr, Sequence: seq}
}

func TestApplication(t *testing.T) {
	a, err := NewApplication(iavl.NewMemCommitStore(), nil)
	assert.Nil(t, err)

	gen, act := testGenesis(t, 1)
	buyer := act.buyers[0]

	_, err = a.CreateListing(next(t, a, act.seller), 1, eth(100), eth(10))
	assert.IsErr(t, errors.ErrState, err)

	assert.Nil(t, a.InitGenesis(gen))

	itemID, err := a.CreateListing(next(t, a, act.seller), 1, eth(100), eth(10))
	assert.Nil(t, err)
	assert.Equal(t, uint64(1), itemID)
	info, err := a.CommitInfo()
	assert.Nil(t, err)
	assert.Equal(t, int64(2), info.Version)

	// A failed operation leaves the market untouched but still consumes
	// the signer sequence.
	err = a.Purchase(next(t, a, buyer), itemID, eth(99))
	assert.IsErr(t, market.ErrPriceMismatch, err)
	item, err := a.Item(itemID)
	assert.Nil(t, err)
	assert.Equal(t, false, item.Sold)
	seq, err := a.NextSequence(buyer)
	assert.Nil(t, err)
	assert.Equal(t, int64(1), seq)

	assert.Nil(t, a.Purchase(next(t, a, buyer), itemID, eth(100)))
	token, err := a.Token(1)
	assert.Nil(t, err)
	assert.Equal(t, buyer, token.Owner)

	owned, err := a.OwnedItems(buyer)
	assert.Nil(t, err)
	assert.Equal(t, 1, len(owned))

	tokenID, itemID, err := a.MintAndList(next(t, a, buyer), "ipfs://fresh", eth(5), eth(10))
	assert.Nil(t, err)
	assert.Equal(t, uint64(2), tokenID)
	assert.Equal(t, uint64(2), itemID)

	listed, err := a.ItemsListedBy(buyer)
	assert.Nil(t, err)
	assert.Equal(t, 1, len(listed))

	itemID, err = a.Resell(next(t, a, buyer), 1, eth(150), eth(10))
	assert.Nil(t, err)
	assert.Equal(t, uint64(3), itemID)

	active, err := a.ActiveItems()
	assert.Nil(t, err)
	assert.Equal(t, 2, len(active))

	item, err = a.Item(3)
	assert.Nil(t, err)
	assert.Equal(t, eth(150), *item.Price)

	collected, err := a.Collected()
	assert.Nil(t, err)
	assert.Equal(t, eth(30), collected)
	balance, err := a.Balance(act.operator)
	assert.Nil(t, err)
	assert.Equal(t, eth(30), balance)

	err = a.SetListingFee(next(t, a, buyer), eth(1))
	assert.IsErr(t, errors.ErrUnauthorized, err)
	assert.Nil(t, a.SetListingFee(next(t, a, act.operator), eth(1)))
	fee, err := a.ListingFee()
	assert.Nil(t, err)
	assert.Equal(t, eth(1), fee)
}

func TestConcurrentPurchase(t *testing.T) {
	a, err := NewApplication(iavl.NewMemCommitStore(), nil)
	assert.Nil(t, err)
	gen, act := testGenesis(t, 8)
	assert.Nil(t, a.InitGenesis(gen))

	itemID, err := a.CreateListing(next(t, a, act.seller), 1, eth(100), eth(10))
	assert.Nil(t, err)

	var wg sync.WaitGroup
	results := make([]error, len(act.buyers))
	for i, buyer := range act.buyers {
		wg.Add(1)
		go func(i int, buyer nftmarket.Address) {
			defer wg.Done()
			results[i] = a.Purchase(Signer{Address: buyer}, itemID, eth(100))
		}(i, buyer)
	}
	wg.Wait()

	var winner nftmarket.Address
	for i, err := range results {
		if err == nil {
			if winner != nil {
				t.Fatal("item sold twice")
			}
			winner = act.buyers[i]
			continue
		}
		assert.IsErr(t, market.ErrAlreadySold, err)
	}
	if winner == nil {
		t.Fatal("item was not sold")
	}

	token, err := a.Token(1)
	assert.Nil(t, err)
	assert.Equal(t, winner, token.Owner)
	balance, err := a.Balance(act.seller)
	assert.Nil(t, err)
	assert.Equal(t, eth(1090), balance)
}

func TestRestart(t *testing.T) {
	dir, cleanup := weavetest.TempDir(t)
	defer cleanup()

	open := func() (*Application, func()) {
		s := weavetest.OpenCommitStore(t, dir)
		a, err := NewApplication(s, nil)
		assert.Nil(t, err)
		return a, s.Close
	}

	gen, act := testGenesis(t, 1)
	a, closeStore := open()
	assert.Nil(t, a.InitGenesis(gen))
	for i := 0; i < 3; i++ {
		_, _, err := a.MintAndList(next(t, a, act.seller), fmt.Sprintf("ipfs://%d", i), eth(1), eth(10))
		assert.Nil(t, err)
	}
	assert.Nil(t, a.Purchase(next(t, a, act.buyers[0]), 2, eth(1)))
	before, err := a.CommitInfo()
	assert.Nil(t, err)
	closeStore()

	a, closeStore = open()
	defer closeStore()

	assert.Equal(t, "nftmarket-test", a.ChainID())
	after, err := a.CommitInfo()
	assert.Nil(t, err)
	assert.Equal(t, before, after)

	active, err := a.ActiveItems()
	assert.Nil(t, err)
	assert.Equal(t, 2, len(active))
	assert.Equal(t, uint64(1), active[0].ID)
	assert.Equal(t, uint64(3), active[1].ID)

	// Identifiers and signer sequences continue from the persisted state.
	seq, err := a.NextSequence(act.seller)
	assert.Nil(t, err)
	assert.Equal(t, int64(3), seq)
	tokenID, itemID, err := a.MintAndList(Signer{Address: act.seller, Sequence: seq}, "ipfs://after-restart", eth(1), eth(10))
	assert.Nil(t, err)
	assert.Equal(t, uint64(5), tokenID)
	assert.Equal(t, uint64(4), itemID)

	err = a.InitGenesis(gen)
	assert.IsErr(t, errors.ErrState, err)
}

func TestReplayedChange(t *testing.T) {
	a, err := NewApplication(iavl.NewMemCommitStore(), nil)
	assert.Nil(t, err)
	gen, act := testGenesis(t, 1)
	assert.Nil(t, a.InitGenesis(gen))

	lowered := next(t, a, act.operator)
	assert.Nil(t, a.SetListingFee(lowered, eth(3)))
	assert.Nil(t, a.SetListingFee(next(t, a, act.operator), eth(50)))

	err = a.SetListingFee(lowered, eth(3))
	assert.IsErr(t, sigs.ErrInvalidSequence, err)
	fee, err := a.ListingFee()
	assert.Nil(t, err)
	assert.Equal(t, eth(50), fee)

	// A sequence cannot be used ahead of time either.
	err = a.SetListingFee(Signer{Address: act.operator, Sequence: 7}, eth(3))
	assert.IsErr(t, sigs.ErrInvalidSequence, err)

	// Each minting request is delivered once.
	mint := next(t, a, act.seller)
	_, _, err = a.MintAndList(mint, "ipfs://once", eth(5), eth(50))
	assert.Nil(t, err)
	_, _, err = a.MintAndList(mint, "ipfs://once", eth(5), eth(50))
	assert.IsErr(t, sigs.ErrInvalidSequence, err)
	active, err := a.ActiveItems()
	assert.Nil(t, err)
	assert.Equal(t, 1, len(active))
	balance, err := a.Balance(act.seller)
	assert.Nil(t, err)
	assert.Equal(t, eth(950), balance)
}
