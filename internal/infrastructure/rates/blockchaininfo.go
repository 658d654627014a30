package rates

import (
	"context"
	"fmt"
	"time"

	"github.com/ArkLabsHQ/lightwallet/internal/core/domain"
	"github.com/ArkLabsHQ/lightwallet/internal/core/ports"
	"github.com/lightningnetwork/lnd/clock"
)

const (
	BlockchainInfoName = "blockchain.info"
	BlockchainInfoURL  = "https://blockchain.info"
)

type blockchainInfo struct {
	client
}

// NewBlockchainInfoFetcher returns the bitcoin price of the currencies listed
// by the blockchain.info ticker.
func NewBlockchainInfoFetcher(baseURL string, timeout time.Duration, clk clock.Clock) ports.RateFetcher {
	return &blockchainInfo{newClient(baseURL, timeout, clk)}
}

func (f *blockchainInfo) Name() string {
	return BlockchainInfoName
}

func (f *blockchainInfo) FetchRates(
	ctx context.Context, currencies []domain.FiatCurrency,
) ([]domain.ExchangeRate, error) {
	var ticker map[string]struct {
		Last float64 `json:"last"`
	}
	if err := f.getJSON(ctx, "/ticker", &ticker); err != nil {
		return nil, fmt.Errorf("%s: %w", BlockchainInfoName, err)
	}

	now := f.clock.Now()
	rates := make([]domain.ExchangeRate, 0, len(currencies))
	for _, currency := range currencies {
		entry, ok := ticker[string(currency)]
		if !ok || entry.Last <= 0 {
			continue
		}
		rates = append(rates, domain.ExchangeRate{
			Currency:  currency,
			Kind:      domain.BitcoinPriceRate,
			Price:     entry.Last,
			Source:    BlockchainInfoName,
			Timestamp: now,
		})
	}
	return rates, nil
}
