package cash

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/iov-one/nftmarket"
	"github.com/iov-one/nftmarket/coin"
	"github.com/iov-one/nftmarket/errors"
	"github.com/iov-one/nftmarket/store"
	"github.com/iov-one/nftmarket/weavetest"
	"github.com/iov-one/nftmarket/weavetest/assert"
)

func TestGenesis(t *testing.T) {
	addr := weavetest.NewCondition().Address()

	cases := map[string]struct {
		genesis string
		wantErr *errors.Error
		want    coin.Coin
	}{
		"no cash section": {
			genesis: `{}`,
			want:    coin.Coin{},
		},
		"human readable balance": {
			genesis: fmt.Sprintf(`{"cash": [{"address": %q, "balance": "1000 ETH"}]}`, addr),
			want:    coin.NewCoin(1000, 0, "ETH"),
		},
		"structured balance": {
			genesis: fmt.Sprintf(`{"cash": [{"address": %q, "balance": {"whole": 2, "fractional": 5, "ticker": "ETH"}}]}`, addr),
			want:    coin.NewCoin(2, 5, "ETH"),
		},
		"invalid address": {
			genesis: `{"cash": [{"address": "", "balance": "1 ETH"}]}`,
			wantErr: errors.ErrEmpty,
		},
		"invalid balance": {
			genesis: fmt.Sprintf(`{"cash": [{"address": %q, "balance": {"whole": 1}}]}`, addr),
			wantErr: errors.ErrCurrency,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			var opts nftmarket.Options
			assert.Nil(t, json.Unmarshal([]byte(tc.genesis), &opts))

			db := store.MemStore()
			err := Initializer{}.FromGenesis(opts, db)
			assert.IsErr(t, tc.wantErr, err)
			if tc.wantErr != nil {
				return
			}

			got, err := NewController().Balance(db, addr)
			assert.Nil(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}
