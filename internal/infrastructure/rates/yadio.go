package rates

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/ArkLabsHQ/lightwallet/internal/core/domain"
	"github.com/ArkLabsHQ/lightwallet/internal/core/ports"
	"github.com/lightningnetwork/lnd/clock"
)

const (
	YadioName = "yadio"
	YadioURL  = "https://api.yadio.io"
)

type yadio struct {
	client
}

// NewYadioFetcher serves the free market Cuban peso.
func NewYadioFetcher(baseURL string, timeout time.Duration, clk clock.Clock) ports.RateFetcher {
	return &yadio{newClient(baseURL, timeout, clk)}
}

func (f *yadio) Name() string {
	return YadioName
}

func (f *yadio) FetchRates(
	ctx context.Context, currencies []domain.FiatCurrency,
) ([]domain.ExchangeRate, error) {
	if !slices.Contains(currencies, domain.CUP_FM) {
		return nil, nil
	}

	var resp struct {
		USD map[string]float64 `json:"USD"`
	}
	if err := f.getJSON(ctx, "/exrates/usd", &resp); err != nil {
		return nil, fmt.Errorf("%s: %w", YadioName, err)
	}
	price, ok := resp.USD[string(domain.CUP)]
	if !ok || price <= 0 {
		return nil, fmt.Errorf("%s: missing CUP rate", YadioName)
	}

	return []domain.ExchangeRate{{
		Currency:  domain.CUP_FM,
		Kind:      domain.UsdPriceRate,
		Price:     price,
		Source:    YadioName,
		Timestamp: f.clock.Now(),
	}}, nil
}
