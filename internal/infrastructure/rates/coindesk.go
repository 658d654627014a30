package rates

import (
	"context"
	"fmt"
	"time"

	"github.com/ArkLabsHQ/lightwallet/internal/core/domain"
	"github.com/ArkLabsHQ/lightwallet/internal/core/ports"
	"github.com/lightningnetwork/lnd/clock"
	log "github.com/sirupsen/logrus"
)

const (
	CoindeskName = "coindesk"
	CoindeskURL  = "https://api.coindesk.com"
)

type coindesk struct {
	client
}

// NewCoindeskFetcher queries the coindesk price index, one request per
// currency.
func NewCoindeskFetcher(baseURL string, timeout time.Duration, clk clock.Clock) ports.RateFetcher {
	return &coindesk{newClient(baseURL, timeout, clk)}
}

func (f *coindesk) Name() string {
	return CoindeskName
}

func (f *coindesk) FetchRates(
	ctx context.Context, currencies []domain.FiatCurrency,
) ([]domain.ExchangeRate, error) {
	rates := make([]domain.ExchangeRate, 0, len(currencies))
	var lastErr error
	for _, currency := range currencies {
		var resp struct {
			Bpi map[string]struct {
				RateFloat float64 `json:"rate_float"`
			} `json:"bpi"`
		}
		path := fmt.Sprintf("/v1/bpi/currentprice/%s.json", currency)
		if err := f.getJSON(ctx, path, &resp); err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			log.WithError(err).WithField("currency", currency).Debug("coindesk: fetch failed")
			lastErr = err
			continue
		}

		entry, ok := resp.Bpi[string(currency)]
		if !ok || entry.RateFloat <= 0 {
			continue
		}
		rates = append(rates, domain.ExchangeRate{
			Currency:  currency,
			Kind:      domain.BitcoinPriceRate,
			Price:     entry.RateFloat,
			Source:    CoindeskName,
			Timestamp: f.clock.Now(),
		})
	}
	if len(rates) == 0 && lastErr != nil {
		return nil, fmt.Errorf("%s: %w", CoindeskName, lastErr)
	}
	return rates, nil
}
