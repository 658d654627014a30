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
	BluelyticsName = "bluelytics"
	BluelyticsURL  = "https://api.bluelytics.com.ar"
)

type bluelytics struct {
	client
}

// NewBluelyticsFetcher serves the blue market Argentine peso.
func NewBluelyticsFetcher(baseURL string, timeout time.Duration, clk clock.Clock) ports.RateFetcher {
	return &bluelytics{newClient(baseURL, timeout, clk)}
}

func (f *bluelytics) Name() string {
	return BluelyticsName
}

func (f *bluelytics) FetchRates(
	ctx context.Context, currencies []domain.FiatCurrency,
) ([]domain.ExchangeRate, error) {
	if !slices.Contains(currencies, domain.ARS_BM) {
		return nil, nil
	}

	var resp struct {
		Blue struct {
			ValueAvg float64 `json:"value_avg"`
		} `json:"blue"`
	}
	if err := f.getJSON(ctx, "/v2/latest", &resp); err != nil {
		return nil, fmt.Errorf("%s: %w", BluelyticsName, err)
	}
	if resp.Blue.ValueAvg <= 0 {
		return nil, fmt.Errorf("%s: missing blue market rate", BluelyticsName)
	}

	return []domain.ExchangeRate{{
		Currency:  domain.ARS_BM,
		Kind:      domain.UsdPriceRate,
		Price:     resp.Blue.ValueAvg,
		Source:    BluelyticsName,
		Timestamp: f.clock.Now(),
	}}, nil
}
