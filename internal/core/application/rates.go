package application

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/ArkLabsHQ/lightwallet/internal/core/domain"
	"github.com/ArkLabsHQ/lightwallet/internal/core/ports"
	"github.com/ArkLabsHQ/lightwallet/pkg/monitor"
	"github.com/ArkLabsHQ/lightwallet/pkg/observable"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

var backoffDelays = []time.Duration{
	30 * time.Second,
	time.Minute,
	5 * time.Minute,
	10 * time.Minute,
	30 * time.Minute,
	60 * time.Minute,
	120 * time.Minute,
}

// BackoffDelay is how long to wait before retrying a currency after the given
// number of consecutive failed attempts.
func BackoffDelay(attempts int) time.Duration {
	if attempts <= 0 {
		return 0
	}
	if attempts > len(backoffDelays) {
		return backoffDelays[len(backoffDelays)-1]
	}
	return backoffDelays[attempts-1]
}

type failure struct {
	attempts    int
	lastAttempt time.Time
}

// ExchangeRateManager keeps the rates of every supported currency fresh. Each
// currency group is refreshed by its own loop, on its own schedule, against
// the single API serving it.
type ExchangeRateManager struct {
	app    *AppContext
	repo   domain.ExchangeRateRepository
	groups []ports.RateGroup

	refreshing *observable.State[[]domain.FiatCurrency]
	rates      *observable.State[[]domain.ExchangeRate]

	// refreshAllMu serializes RefreshAll calls.
	refreshAllMu sync.Mutex

	mu               sync.Mutex
	networkAvailable bool
	autoRefresh      bool
	refreshingAll    bool
	loops            []monitor.TaskHandle
	lastFetched      map[domain.FiatCurrency]time.Time
	failures         map[domain.FiatCurrency]failure
}

func NewExchangeRateManager(app *AppContext, groups []ports.RateGroup) *ExchangeRateManager {
	return &ExchangeRateManager{
		app:         app,
		repo:        app.Repos.ExchangeRates(),
		groups:      groups,
		refreshing:  observable.NewState[[]domain.FiatCurrency](nil),
		rates:       observable.NewState[[]domain.ExchangeRate](nil),
		autoRefresh: app.Settings.RatesAutoRefresh,
		lastFetched: make(map[domain.FiatCurrency]time.Time),
		failures:    make(map[domain.FiatCurrency]failure),
	}
}

// Rates returns the current persisted rates.
func (m *ExchangeRateManager) Rates() []domain.ExchangeRate {
	return m.rates.Get()
}

func (m *ExchangeRateManager) SubscribeRates(ctx context.Context) <-chan []domain.ExchangeRate {
	return m.rates.Subscribe(ctx)
}

// Refreshing returns the currencies being fetched right now.
func (m *ExchangeRateManager) Refreshing() []domain.FiatCurrency {
	return m.refreshing.Get()
}

func (m *ExchangeRateManager) SubscribeRefreshing(ctx context.Context) <-chan []domain.FiatCurrency {
	return m.refreshing.Subscribe(ctx)
}

// CalculateOriginalFiat returns the bitcoin price of the primary fiat
// currency, or nil if it cannot be priced from the current rates.
func (m *ExchangeRateManager) CalculateOriginalFiat() *domain.ExchangeRate {
	return domain.BitcoinPriceFor(m.app.Settings.FiatCurrency, m.rates.Get())
}

// Start loads the persisted rates and starts the refresh loops if both the
// network and auto refresh are enabled.
func (m *ExchangeRateManager) Start(ctx context.Context) error {
	rates, err := m.repo.GetRates(ctx)
	if err != nil {
		return err
	}

	m.mu.Lock()
	for _, rate := range rates {
		m.lastFetched[rate.Currency] = rate.Timestamp
	}
	m.mu.Unlock()
	m.rates.Set(rates)

	m.applyGates()
	return nil
}

func (m *ExchangeRateManager) Stop() {
	m.mu.Lock()
	m.networkAvailable = false
	loops := m.takeLoops()
	m.mu.Unlock()
	stopLoops(loops)
}

func (m *ExchangeRateManager) SetNetworkAvailable(available bool) {
	m.mu.Lock()
	m.networkAvailable = available
	m.mu.Unlock()
	m.applyGates()
}

func (m *ExchangeRateManager) SetAutoRefresh(enabled bool) {
	m.mu.Lock()
	m.autoRefresh = enabled
	m.mu.Unlock()
	m.applyGates()
}

// RefreshAll stops the refresh loops, fetches the given currencies (every
// supported one if empty) from all groups concurrently, then restarts the
// loops. Unless force is set, only the currencies due for refresh are
// fetched.
func (m *ExchangeRateManager) RefreshAll(
	ctx context.Context, targets []domain.FiatCurrency, force bool,
) error {
	m.refreshAllMu.Lock()
	defer m.refreshAllMu.Unlock()

	m.mu.Lock()
	m.refreshingAll = true
	loops := m.takeLoops()
	m.mu.Unlock()
	stopLoops(loops)
	defer func() {
		m.mu.Lock()
		m.refreshingAll = false
		m.mu.Unlock()
		m.applyGates()
	}()

	now := m.app.Clock.Now()
	g, gctx := errgroup.WithContext(ctx)
	for _, group := range m.groups {
		currencies := make([]domain.FiatCurrency, 0, len(group.Currencies))
		for _, currency := range group.Currencies {
			if len(targets) > 0 && !slices.Contains(targets, currency) {
				continue
			}
			if !force && m.nextDue(group, currency).After(now) {
				continue
			}
			currencies = append(currencies, currency)
		}
		if len(currencies) == 0 {
			continue
		}

		group := group
		g.Go(func() error {
			m.fetch(gctx, group, currencies)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

// applyGates starts the loops if both gates are open and they are not
// running, stops them if a gate is closed. It is a no-op while RefreshAll is
// in flight, which applies the gates itself once done.
func (m *ExchangeRateManager) applyGates() {
	m.mu.Lock()
	if m.refreshingAll {
		m.mu.Unlock()
		return
	}
	if m.networkAvailable && m.autoRefresh {
		if m.loops == nil {
			m.loops = make([]monitor.TaskHandle, 0, len(m.groups))
			for _, group := range m.groups {
				group := group
				handle := m.app.Monitor.Go(
					"rates-"+group.Fetcher.Name(),
					func(ctx context.Context, hb monitor.Heartbeat) error {
						return m.refreshLoop(ctx, hb, group)
					},
				)
				m.loops = append(m.loops, handle)
			}
			log.Debugf("started %d rate refresh loop(s)", len(m.loops))
		}
		m.mu.Unlock()
		return
	}
	loops := m.takeLoops()
	m.mu.Unlock()
	stopLoops(loops)
}

// takeLoops must be called with mu held.
func (m *ExchangeRateManager) takeLoops() []monitor.TaskHandle {
	loops := m.loops
	m.loops = nil
	return loops
}

func stopLoops(loops []monitor.TaskHandle) {
	for _, loop := range loops {
		loop.StopAndWait()
	}
}

func (m *ExchangeRateManager) refreshLoop(
	ctx context.Context, hb monitor.Heartbeat, group ports.RateGroup,
) error {
	for {
		delay, due := m.dueCurrencies(group)
		if len(due) == 0 {
			delay = min(delay, idleHeartbeat)
			select {
			case <-ctx.Done():
				return nil
			case <-m.app.Clock.TickAfter(delay):
			}
			hb.Tick()
			continue
		}

		m.fetch(ctx, group, due)
		hb.Tick()
		if ctx.Err() != nil {
			return nil
		}
	}
}

// dueCurrencies returns the currencies of the group to refresh now or, if
// none, the delay until the earliest one is due.
func (m *ExchangeRateManager) dueCurrencies(group ports.RateGroup) (time.Duration, []domain.FiatCurrency) {
	now := m.app.Clock.Now()
	var (
		due      []domain.FiatCurrency
		earliest time.Time
	)
	for _, currency := range group.Currencies {
		next := m.nextDue(group, currency)
		if !next.After(now) {
			due = append(due, currency)
			continue
		}
		if earliest.IsZero() || next.Before(earliest) {
			earliest = next
		}
	}
	if len(due) > 0 {
		return 0, due
	}
	return earliest.Sub(now), nil
}

// nextDue is the time the currency must be fetched again: after the backoff
// delay if the last attempt failed, once the rate is older than the group
// interval otherwise.
func (m *ExchangeRateManager) nextDue(group ports.RateGroup, currency domain.FiatCurrency) time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()

	if f, ok := m.failures[currency]; ok && f.attempts > 0 {
		return f.lastAttempt.Add(BackoffDelay(f.attempts))
	}
	last, ok := m.lastFetched[currency]
	if !ok {
		return time.Time{}
	}
	return last.Add(group.Interval)
}

// fetch queries the group API for the currencies and persists the result,
// unless ctx is cancelled before the response is applied.
func (m *ExchangeRateManager) fetch(
	ctx context.Context, group ports.RateGroup, currencies []domain.FiatCurrency,
) {
	m.markRefreshing(currencies, true)
	defer m.markRefreshing(currencies, false)

	name := group.Fetcher.Name()
	rates, err := group.Fetcher.FetchRates(ctx, currencies)
	if ctx.Err() != nil {
		log.WithField("api", name).Debug("rate fetch cancelled")
		return
	}

	now := m.app.Clock.Now()
	if err != nil {
		m.recordFailures(currencies, now)
		log.WithError(err).WithField("api", name).Warn("failed to fetch exchange rates")
		return
	}

	fetched := make(map[domain.FiatCurrency]struct{}, len(rates))
	for _, rate := range rates {
		fetched[rate.Currency] = struct{}{}
	}
	missing := make([]domain.FiatCurrency, 0)
	for _, currency := range currencies {
		if _, ok := fetched[currency]; !ok {
			missing = append(missing, currency)
		}
	}
	if len(missing) > 0 {
		m.recordFailures(missing, now)
		log.WithField("api", name).Warnf("no rate returned for %v", missing)
	}
	if len(rates) == 0 {
		return
	}

	if err := m.repo.SaveRates(ctx, rates); err != nil {
		if ctx.Err() != nil {
			return
		}
		m.recordFailures(currencies, now)
		log.WithError(err).WithField("api", name).Warn("failed to persist exchange rates")
		return
	}

	m.mu.Lock()
	for _, rate := range rates {
		delete(m.failures, rate.Currency)
		m.lastFetched[rate.Currency] = now
	}
	m.mu.Unlock()

	all, err := m.repo.GetRates(ctx)
	if err != nil {
		log.WithError(err).Warn("failed to reload exchange rates")
		return
	}
	m.rates.Set(all)
	log.WithField("api", name).Debugf("refreshed %d rate(s)", len(rates))
}

func (m *ExchangeRateManager) recordFailures(currencies []domain.FiatCurrency, at time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, currency := range currencies {
		f := m.failures[currency]
		f.attempts++
		f.lastAttempt = at
		m.failures[currency] = f
	}
}

func (m *ExchangeRateManager) markRefreshing(currencies []domain.FiatCurrency, refreshing bool) {
	m.refreshing.Update(func(current []domain.FiatCurrency) []domain.FiatCurrency {
		next := make([]domain.FiatCurrency, 0, len(current)+len(currencies))
		for _, c := range current {
			if !slices.Contains(currencies, c) {
				next = append(next, c)
			}
		}
		if refreshing {
			next = append(next, currencies...)
		}
		return next
	})
}

