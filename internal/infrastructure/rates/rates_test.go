package rates_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ArkLabsHQ/lightwallet/internal/core/domain"
	"github.com/ArkLabsHQ/lightwallet/internal/infrastructure/rates"
	"github.com/lightningnetwork/lnd/clock"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func serve(t *testing.T, path, body string) string {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc(path, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, body)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv.URL
}

func TestFetchers(t *testing.T) {
	ctx := context.Background()
	clk := clock.NewTestClock(now)

	t.Run("blockchain.info", func(t *testing.T) {
		url := serve(t, "/ticker", `{
			"USD": {"15m": 20010.5, "last": 20000, "symbol": "$"},
			"EUR": {"15m": 18010.5, "last": 18000, "symbol": "€"}
		}`)
		fetcher := rates.NewBlockchainInfoFetcher(url, time.Second, clk)
		require.Equal(t, rates.BlockchainInfoName, fetcher.Name())

		got, err := fetcher.FetchRates(ctx, []domain.FiatCurrency{domain.USD, domain.EUR, domain.PLN})
		require.NoError(t, err)
		require.Equal(t, []domain.ExchangeRate{
			{Currency: domain.USD, Kind: domain.BitcoinPriceRate, Price: 20000, Source: rates.BlockchainInfoName, Timestamp: now},
			{Currency: domain.EUR, Kind: domain.BitcoinPriceRate, Price: 18000, Source: rates.BlockchainInfoName, Timestamp: now},
		}, got)
	})

	t.Run("coindesk", func(t *testing.T) {
		url := serve(t, "/v1/bpi/currentprice/GBP.json", `{
			"bpi": {
				"USD": {"code": "USD", "rate_float": 20000.1},
				"GBP": {"code": "GBP", "rate_float": 16000.5}
			}
		}`)
		fetcher := rates.NewCoindeskFetcher(url, time.Second, clk)

		got, err := fetcher.FetchRates(ctx, []domain.FiatCurrency{domain.GBP})
		require.NoError(t, err)
		require.Len(t, got, 1)
		require.Equal(t, domain.GBP, got[0].Currency)
		require.Equal(t, 16000.5, got[0].Price)

		// Every request failing is an error.
		_, err = fetcher.FetchRates(ctx, []domain.FiatCurrency{domain.JPY})
		require.ErrorContains(t, err, "unexpected status 404")
	})

	t.Run("coinbase", func(t *testing.T) {
		url := serve(t, "/v2/exchange-rates", `{
			"data": {"currency": "USD", "rates": {"MXN": "17.05", "COP": "3900.1", "BAD": "x"}}
		}`)
		fetcher := rates.NewCoinbaseFetcher(url, time.Second, clk)

		got, err := fetcher.FetchRates(ctx, []domain.FiatCurrency{domain.MXN, domain.COP, domain.ZAR})
		require.NoError(t, err)
		require.Len(t, got, 2)
		for _, rate := range got {
			require.Equal(t, domain.UsdPriceRate, rate.Kind)
			require.Equal(t, rates.CoinbaseName, rate.Source)
		}
		require.Equal(t, 17.05, got[0].Price)
	})

	t.Run("bluelytics", func(t *testing.T) {
		url := serve(t, "/v2/latest", `{
			"oficial": {"value_avg": 850.0},
			"blue": {"value_avg": 1015.5, "value_sell": 1030, "value_buy": 1001}
		}`)
		fetcher := rates.NewBluelyticsFetcher(url, time.Second, clk)

		got, err := fetcher.FetchRates(ctx, []domain.FiatCurrency{domain.ARS_BM})
		require.NoError(t, err)
		require.Equal(t, []domain.ExchangeRate{{
			Currency: domain.ARS_BM, Kind: domain.UsdPriceRate, Price: 1015.5,
			Source: rates.BluelyticsName, Timestamp: now,
		}}, got)

		got, err = fetcher.FetchRates(ctx, []domain.FiatCurrency{domain.ARS})
		require.NoError(t, err)
		require.Empty(t, got)
	})

	t.Run("yadio", func(t *testing.T) {
		url := serve(t, "/exrates/usd", `{"USD": {"CUP": 320, "EUR": 0.92}, "base": "USD"}`)
		fetcher := rates.NewYadioFetcher(url, time.Second, clk)

		got, err := fetcher.FetchRates(ctx, []domain.FiatCurrency{domain.CUP_FM})
		require.NoError(t, err)
		require.Len(t, got, 1)
		require.Equal(t, domain.CUP_FM, got[0].Currency)
		require.Equal(t, float64(320), got[0].Price)
	})

	t.Run("malformed response", func(t *testing.T) {
		url := serve(t, "/ticker", `not json`)
		fetcher := rates.NewBlockchainInfoFetcher(url, time.Second, clk)

		_, err := fetcher.FetchRates(ctx, []domain.FiatCurrency{domain.USD})
		require.ErrorContains(t, err, "malformed response")
	})

	t.Run("timeout", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
			case <-time.After(2 * time.Second):
			}
		}))
		t.Cleanup(srv.Close)
		fetcher := rates.NewBlockchainInfoFetcher(srv.URL, 50*time.Millisecond, clk)

		_, err := fetcher.FetchRates(ctx, []domain.FiatCurrency{domain.USD})
		require.Error(t, err)
	})
}

func TestGroups(t *testing.T) {
	groups, err := rates.Groups("", time.Second, nil)
	require.NoError(t, err)
	require.Len(t, groups, 4)
	require.Equal(t, rates.BlockchainInfoName, groups[0].Fetcher.Name())

	seen := make(map[domain.FiatCurrency]string)
	for _, group := range groups {
		for _, currency := range group.Currencies {
			_, dup := seen[currency]
			require.False(t, dup, "currency %s belongs to two groups", currency)
			seen[currency] = group.Fetcher.Name()
		}
	}
	require.Len(t, seen, len(domain.AllFiatCurrencies()))

	groups, err = rates.Groups("coindesk", time.Second, nil)
	require.NoError(t, err)
	require.Equal(t, rates.CoindeskName, groups[0].Fetcher.Name())
	require.Equal(t, rates.DirectInterval, groups[0].Interval)

	_, err = rates.Groups("kraken", time.Second, nil)
	require.Error(t, err)
}
