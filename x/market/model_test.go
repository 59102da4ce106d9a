package market

import (
	"testing"

	"github.com/iov-one/nftmarket/coin"
	"github.com/iov-one/nftmarket/errors"
	"github.com/iov-one/nftmarket/weavetest"
	"github.com/iov-one/nftmarket/weavetest/assert"
)

func TestMarketItemValidate(t *testing.T) {
	seller := weavetest.NewCondition().Address()
	price := coin.NewCoin(5, 0, "ETH")
	zero := coin.NewCoin(0, 0, "ETH")

	cases := map[string]struct {
		item    MarketItem
		wantErr map[string]*errors.Error
	}{
		"valid unsold": {
			item: MarketItem{ID: 1, TokenID: 2, Seller: seller, Owner: EscrowAddress, Price: &price},
			wantErr: map[string]*errors.Error{
				"ID":    nil,
				"Owner": nil,
				"Price": nil,
			},
		},
		"valid sold": {
			item: MarketItem{ID: 1, TokenID: 2, Seller: seller, Owner: seller, Price: &price, Sold: true},
			wantErr: map[string]*errors.Error{
				"Owner": nil,
			},
		},
		"unsold item outside escrow": {
			item: MarketItem{ID: 1, TokenID: 2, Seller: seller, Owner: seller, Price: &price},
			wantErr: map[string]*errors.Error{
				"Owner": errors.ErrState,
			},
		},
		"missing fields": {
			item: MarketItem{Owner: EscrowAddress},
			wantErr: map[string]*errors.Error{
				"ID":      errors.ErrEmpty,
				"TokenID": errors.ErrEmpty,
				"Seller":  errors.ErrEmpty,
				"Price":   errors.ErrEmpty,
			},
		},
		"zero price": {
			item: MarketItem{ID: 1, TokenID: 2, Seller: seller, Owner: EscrowAddress, Price: &zero},
			wantErr: map[string]*errors.Error{
				"Price": ErrInvalidPrice,
			},
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			err := tc.item.Validate()
			for field, want := range tc.wantErr {
				assert.FieldError(t, err, field, want)
			}
		})
	}
}

func TestConfigurationValidate(t *testing.T) {
	owner := weavetest.NewCondition().Address()
	fee := coin.NewCoin(1, 0, "ETH")
	negative := coin.NewCoin(-1, 0, "ETH")
	noTicker := coin.NewCoin(1, 0, "")

	cases := map[string]struct {
		conf    Configuration
		wantErr *errors.Error
	}{
		"valid": {
			conf: Configuration{Owner: owner, FeeCollector: owner, ListingFee: &fee},
		},
		"missing fee": {
			conf:    Configuration{Owner: owner, FeeCollector: owner},
			wantErr: errors.ErrEmpty,
		},
		"negative fee": {
			conf:    Configuration{Owner: owner, FeeCollector: owner, ListingFee: &negative},
			wantErr: errors.ErrAmount,
		},
		"fee without currency": {
			conf:    Configuration{Owner: owner, FeeCollector: owner, ListingFee: &noTicker},
			wantErr: errors.ErrCurrency,
		},
		"missing collector": {
			conf:    Configuration{Owner: owner, ListingFee: &fee},
			wantErr: errors.ErrEmpty,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			if err := tc.conf.Validate(); !tc.wantErr.Is(err) {
				t.Fatalf("unexpected error: %+v", err)
			}
		})
	}
}
