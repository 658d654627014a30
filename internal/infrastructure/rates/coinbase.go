package rates

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/ArkLabsHQ/lightwallet/internal/core/domain"
	"github.com/ArkLabsHQ/lightwallet/internal/core/ports"
	"github.com/lightningnetwork/lnd/clock"
)

const (
	CoinbaseName = "coinbase"
	CoinbaseURL  = "https://api.coinbase.com"
)

type coinbase struct {
	client
}

// NewCoinbaseFetcher returns dollar quotes, fiat units per 1 USD.
func NewCoinbaseFetcher(baseURL string, timeout time.Duration, clk clock.Clock) ports.RateFetcher {
	return &coinbase{newClient(baseURL, timeout, clk)}
}

func (f *coinbase) Name() string {
	return CoinbaseName
}

func (f *coinbase) FetchRates(
	ctx context.Context, currencies []domain.FiatCurrency,
) ([]domain.ExchangeRate, error) {
	var resp struct {
		Data struct {
			Currency string            `json:"currency"`
			Rates    map[string]string `json:"rates"`
		} `json:"data"`
	}
	if err := f.getJSON(ctx, "/v2/exchange-rates?currency=USD", &resp); err != nil {
		return nil, fmt.Errorf("%s: %w", CoinbaseName, err)
	}
	if resp.Data.Currency != string(domain.USD) {
		return nil, fmt.Errorf("%s: unexpected base currency %q", CoinbaseName, resp.Data.Currency)
	}

	now := f.clock.Now()
	rates := make([]domain.ExchangeRate, 0, len(currencies))
	for _, currency := range currencies {
		raw, ok := resp.Data.Rates[string(currency)]
		if !ok {
			continue
		}
		price, err := strconv.ParseFloat(raw, 64)
		if err != nil || price <= 0 {
			continue
		}
		rates = append(rates, domain.ExchangeRate{
			Currency:  currency,
			Kind:      domain.UsdPriceRate,
			Price:     price,
			Source:    CoinbaseName,
			Timestamp: now,
		})
	}
	return rates, nil
}
