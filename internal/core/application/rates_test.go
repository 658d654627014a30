package application

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ArkLabsHQ/lightwallet/internal/core/domain"
	"github.com/ArkLabsHQ/lightwallet/internal/core/ports"
	"github.com/stretchr/testify/require"
)

type fakeFetcher struct {
	name string

	mu    sync.Mutex
	rates []domain.ExchangeRate
	err   error
	block bool
	calls [][]domain.FiatCurrency
}

func (f *fakeFetcher) Name() string { return f.name }

func (f *fakeFetcher) FetchRates(
	ctx context.Context, currencies []domain.FiatCurrency,
) ([]domain.ExchangeRate, error) {
	f.mu.Lock()
	f.calls = append(f.calls, currencies)
	rates, err, block := f.rates, f.err, f.block
	f.mu.Unlock()

	if block {
		<-ctx.Done()
		return rates, nil
	}
	if err != nil {
		return nil, err
	}
	result := make([]domain.ExchangeRate, 0, len(rates))
	for _, rate := range rates {
		for _, c := range currencies {
			if rate.Currency == c {
				result = append(result, rate)
			}
		}
	}
	return result, nil
}

func (f *fakeFetcher) set(rates []domain.ExchangeRate, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rates, f.err = rates, err
}

func (f *fakeFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (m *ExchangeRateManager) failedAttempts(currency domain.FiatCurrency) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.failures[currency].attempts
}

func (m *ExchangeRateManager) runningLoops() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.loops)
}

func lastHeartbeat(app *AppContext, task string) time.Time {
	for _, status := range app.Monitor.Snapshot() {
		if status.Name == task {
			return status.LastHeartbeat
		}
	}
	return time.Time{}
}

func TestBackoffDelay(t *testing.T) {
	fixtures := []struct {
		attempts int
		expected time.Duration
	}{
		{0, 0},
		{1, 30 * time.Second},
		{2, time.Minute},
		{3, 5 * time.Minute},
		{4, 10 * time.Minute},
		{5, 30 * time.Minute},
		{6, 60 * time.Minute},
		{7, 120 * time.Minute},
		{50, 120 * time.Minute},
	}
	for _, f := range fixtures {
		require.Equal(t, f.expected, BackoffDelay(f.attempts), "attempts %d", f.attempts)
	}
}

func newRateGroups(now time.Time) (*fakeFetcher, *fakeFetcher, []ports.RateGroup) {
	direct := &fakeFetcher{
		name: "direct",
		rates: []domain.ExchangeRate{
			{Currency: domain.USD, Kind: domain.BitcoinPriceRate, Price: 20_000, Source: "direct", Timestamp: now},
			{Currency: domain.EUR, Kind: domain.BitcoinPriceRate, Price: 18_000, Source: "direct", Timestamp: now},
		},
	}
	indirect := &fakeFetcher{
		name: "indirect",
		rates: []domain.ExchangeRate{
			{
				Currency: domain.ARS, Kind: domain.UsdPriceRate, Price: 3.2082,
				Source: "indirect", Timestamp: now.Add(-time.Minute),
			},
		},
	}
	groups := []ports.RateGroup{
		{Fetcher: direct, Currencies: []domain.FiatCurrency{domain.USD, domain.EUR}, Interval: 20 * time.Minute},
		{Fetcher: indirect, Currencies: []domain.FiatCurrency{domain.ARS}, Interval: 60 * time.Minute},
	}
	return direct, indirect, groups
}

func TestExchangeRateManager(t *testing.T) {
	ctx := context.Background()

	t.Run("refresh all", func(t *testing.T) {
		app, clk := newTestApp(t, Settings{FiatCurrency: domain.ARS})
		direct, indirect, groups := newRateGroups(clk.Now())
		manager := NewExchangeRateManager(app, groups)
		require.NoError(t, manager.Start(ctx))
		require.Empty(t, manager.Rates())
		require.Nil(t, manager.CalculateOriginalFiat())

		require.NoError(t, manager.RefreshAll(ctx, nil, true))
		require.Equal(t, 1, direct.callCount())
		require.Equal(t, 1, indirect.callCount())
		require.Len(t, manager.Rates(), 3)
		require.Empty(t, manager.Refreshing())

		persisted, err := app.Repos.ExchangeRates().GetRates(ctx)
		require.NoError(t, err)
		require.Equal(t, manager.Rates(), persisted)

		price := manager.CalculateOriginalFiat()
		require.NotNil(t, price)
		require.Equal(t, domain.ARS, price.Currency)
		require.Equal(t, domain.BitcoinPriceRate, price.Kind)
		require.InDelta(t, 64_164, price.Price, 0.0001)
		require.True(t, price.Timestamp.Equal(clk.Now().Add(-time.Minute)))

		// Fresh rates are not fetched again unless forced.
		require.NoError(t, manager.RefreshAll(ctx, nil, false))
		require.Equal(t, 1, direct.callCount())
		require.Equal(t, 1, indirect.callCount())

		require.NoError(t, manager.RefreshAll(ctx, []domain.FiatCurrency{domain.ARS}, true))
		require.Equal(t, 1, direct.callCount())
		require.Equal(t, 2, indirect.callCount())
		require.Equal(t, []domain.FiatCurrency{domain.ARS}, indirect.calls[1])

		clk.SetTime(clk.Now().Add(21 * time.Minute))
		require.NoError(t, manager.RefreshAll(ctx, nil, false))
		require.Equal(t, 2, direct.callCount())
		require.Equal(t, 2, indirect.callCount())
	})

	t.Run("persisted rates are loaded at start", func(t *testing.T) {
		app, clk := newTestApp(t, Settings{})
		direct, _, groups := newRateGroups(clk.Now())
		require.NoError(t, app.Repos.ExchangeRates().SaveRates(ctx, direct.rates))

		manager := NewExchangeRateManager(app, groups)
		require.NoError(t, manager.Start(ctx))
		require.Len(t, manager.Rates(), 2)
		require.InDelta(t, 20_000, manager.CalculateOriginalFiat().Price, 0.0001)

		require.NoError(t, manager.RefreshAll(ctx, []domain.FiatCurrency{domain.USD, domain.EUR}, false))
		require.Zero(t, direct.callCount())
	})

	t.Run("backoff", func(t *testing.T) {
		app, clk := newTestApp(t, Settings{})
		direct, _, groups := newRateGroups(clk.Now())
		rates := direct.rates
		direct.set(nil, errors.New("service unavailable"))
		manager := NewExchangeRateManager(app, groups[:1])
		require.NoError(t, manager.Start(ctx))

		for attempt := 1; attempt <= 7; attempt++ {
			require.NoError(t, manager.RefreshAll(ctx, nil, false))
			require.Equal(t, attempt, direct.callCount())
			require.Equal(t, attempt, manager.failedAttempts(domain.USD))

			delay := BackoffDelay(attempt)
			require.Equal(t, clk.Now().Add(delay), manager.nextDue(groups[0], domain.USD))

			// Retrying before the delay is over is a no-op.
			clk.SetTime(clk.Now().Add(delay - time.Second))
			require.NoError(t, manager.RefreshAll(ctx, nil, false))
			require.Equal(t, attempt, direct.callCount())
			clk.SetTime(clk.Now().Add(time.Second))
		}
		require.Equal(t, clk.Now(), manager.nextDue(groups[0], domain.USD))

		direct.set(rates, nil)
		require.NoError(t, manager.RefreshAll(ctx, nil, false))
		require.Zero(t, manager.failedAttempts(domain.USD))
		require.Zero(t, manager.failedAttempts(domain.EUR))
		require.Equal(t, clk.Now().Add(20*time.Minute), manager.nextDue(groups[0], domain.USD))
		require.Len(t, manager.Rates(), 2)
	})

	t.Run("missing currencies count as failures", func(t *testing.T) {
		app, clk := newTestApp(t, Settings{})
		direct, _, groups := newRateGroups(clk.Now())
		direct.set(direct.rates[:1], nil)
		manager := NewExchangeRateManager(app, groups[:1])
		require.NoError(t, manager.Start(ctx))

		require.NoError(t, manager.RefreshAll(ctx, nil, true))
		require.Zero(t, manager.failedAttempts(domain.USD))
		require.Equal(t, 1, manager.failedAttempts(domain.EUR))
		require.Len(t, manager.Rates(), 1)
	})

	t.Run("cancelled fetch is not persisted", func(t *testing.T) {
		app, clk := newTestApp(t, Settings{})
		direct, _, groups := newRateGroups(clk.Now())
		direct.block = true
		manager := NewExchangeRateManager(app, groups[:1])
		require.NoError(t, manager.Start(ctx))

		cctx, cancel := context.WithCancel(ctx)
		go func() {
			for len(manager.Refreshing()) < 2 {
				time.Sleep(5 * time.Millisecond)
			}
			cancel()
		}()

		err := manager.RefreshAll(cctx, nil, true)
		require.ErrorIs(t, err, context.Canceled)
		require.Empty(t, manager.Rates())
		require.Empty(t, manager.Refreshing())
		require.Zero(t, manager.failedAttempts(domain.USD))

		persisted, err := app.Repos.ExchangeRates().GetRates(ctx)
		require.NoError(t, err)
		require.Empty(t, persisted)
	})

	t.Run("gates opened during refresh all", func(t *testing.T) {
		app, clk := newTestApp(t, Settings{RatesAutoRefresh: true})
		direct, _, groups := newRateGroups(clk.Now())
		direct.block = true
		manager := NewExchangeRateManager(app, groups[:1])
		require.NoError(t, manager.Start(ctx))
		t.Cleanup(manager.Stop)

		cctx, cancel := context.WithCancel(ctx)
		done := make(chan error, 1)
		go func() {
			done <- manager.RefreshAll(cctx, nil, true)
		}()
		require.Eventually(t, func() bool {
			return len(manager.Refreshing()) == 2
		}, 2*time.Second, 5*time.Millisecond)

		// Loops stay down until the in-flight refresh is over.
		manager.SetNetworkAvailable(true)
		require.Zero(t, manager.runningLoops())
		manager.SetAutoRefresh(true)
		require.Zero(t, manager.runningLoops())
		time.Sleep(50 * time.Millisecond)
		require.Equal(t, 1, direct.callCount())

		cancel()
		require.ErrorIs(t, <-done, context.Canceled)
		require.Equal(t, 1, manager.runningLoops())
	})

	t.Run("idle loops heartbeat", func(t *testing.T) {
		app, clk := newTestApp(t, Settings{RatesAutoRefresh: true})
		direct, _, groups := newRateGroups(clk.Now())
		manager := NewExchangeRateManager(app, groups[:1])
		require.NoError(t, manager.Start(ctx))
		t.Cleanup(manager.Stop)

		manager.SetNetworkAvailable(true)
		require.Eventually(t, func() bool {
			return len(manager.Rates()) == 2
		}, 2*time.Second, 10*time.Millisecond)
		time.Sleep(20 * time.Millisecond)
		since := lastHeartbeat(app, "rates-direct")
		require.False(t, since.IsZero())

		// Well before the group interval, so nothing is fetched.
		require.Eventually(t, func() bool {
			clk.SetTime(clk.Now().Add(idleHeartbeat))
			return lastHeartbeat(app, "rates-direct").After(since)
		}, 2*time.Second, 10*time.Millisecond)
		require.Equal(t, 1, direct.callCount())
	})

	t.Run("gates", func(t *testing.T) {
		app, clk := newTestApp(t, Settings{RatesAutoRefresh: true})
		direct, indirect, groups := newRateGroups(clk.Now())
		manager := NewExchangeRateManager(app, groups)
		require.NoError(t, manager.Start(ctx))
		t.Cleanup(manager.Stop)

		// The network is unavailable until told otherwise.
		require.Zero(t, manager.runningLoops())

		manager.SetNetworkAvailable(true)
		require.Equal(t, 2, manager.runningLoops())
		require.Eventually(t, func() bool {
			return direct.callCount() == 1 && indirect.callCount() == 1
		}, 2*time.Second, 10*time.Millisecond)
		require.Eventually(t, func() bool {
			return len(manager.Rates()) == 3
		}, 2*time.Second, 10*time.Millisecond)

		// Loops wake up once the group interval elapsed.
		require.Eventually(t, func() bool {
			clk.SetTime(clk.Now().Add(20 * time.Minute))
			return direct.callCount() >= 2
		}, 2*time.Second, 10*time.Millisecond)

		manager.SetAutoRefresh(false)
		require.Zero(t, manager.runningLoops())
		calls := direct.callCount()
		clk.SetTime(clk.Now().Add(3 * time.Hour))
		time.Sleep(50 * time.Millisecond)
		require.Equal(t, calls, direct.callCount())

		manager.SetAutoRefresh(true)
		require.Equal(t, 2, manager.runningLoops())
		manager.SetNetworkAvailable(false)
		require.Zero(t, manager.runningLoops())
	})
}
