package ports

import (
	"context"
	"time"

	"github.com/ArkLabsHQ/lightwallet/internal/core/domain"
)

// RateFetcher queries one upstream price API.
type RateFetcher interface {
	Name() string
	// FetchRates returns the rates of the requested currencies the API knows
	// about. Currencies missing from the response are left out.
	FetchRates(ctx context.Context, currencies []domain.FiatCurrency) ([]domain.ExchangeRate, error)
}

// RateGroup binds a set of currencies to the single API serving them.
type RateGroup struct {
	Fetcher    RateFetcher
	Currencies []domain.FiatCurrency
	// Interval is how old a rate may get before it is refreshed.
	Interval time.Duration
}
