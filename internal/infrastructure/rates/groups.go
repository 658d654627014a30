package rates

import (
	"fmt"
	"time"

	"github.com/ArkLabsHQ/lightwallet/internal/core/domain"
	"github.com/ArkLabsHQ/lightwallet/internal/core/ports"
	"github.com/lightningnetwork/lnd/clock"
)

const (
	DirectInterval     = 20 * time.Minute
	IndirectInterval   = 60 * time.Minute
	BlueMarketInterval = 120 * time.Minute
	FreeMarketInterval = 120 * time.Minute
)

// Groups returns the static partition of the supported currencies, each
// group served by exactly one API. directSource selects the API serving the
// direct group, either "blockchaininfo" or "coindesk".
func Groups(directSource string, timeout time.Duration, clk clock.Clock) ([]ports.RateGroup, error) {
	var direct ports.RateFetcher
	switch directSource {
	case "", "blockchaininfo":
		direct = NewBlockchainInfoFetcher(BlockchainInfoURL, timeout, clk)
	case "coindesk":
		direct = NewCoindeskFetcher(CoindeskURL, timeout, clk)
	default:
		return nil, fmt.Errorf("unknown direct rate source %s", directSource)
	}

	return []ports.RateGroup{
		{
			Fetcher:    direct,
			Currencies: domain.DirectMarketCurrencies,
			Interval:   DirectInterval,
		},
		{
			Fetcher:    NewCoinbaseFetcher(CoinbaseURL, timeout, clk),
			Currencies: domain.IndirectMarketCurrencies,
			Interval:   IndirectInterval,
		},
		{
			Fetcher:    NewBluelyticsFetcher(BluelyticsURL, timeout, clk),
			Currencies: domain.BlueMarketCurrencies,
			Interval:   BlueMarketInterval,
		},
		{
			Fetcher:    NewYadioFetcher(YadioURL, timeout, clk),
			Currencies: domain.FreeMarketCurrencies,
			Interval:   FreeMarketInterval,
		},
	}, nil
}
