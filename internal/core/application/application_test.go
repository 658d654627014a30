package application

import (
	"context"
	"crypto/rand"
	"sync"
	"testing"
	"time"

	"github.com/ArkLabsHQ/lightwallet/internal/core/domain"
	"github.com/ArkLabsHQ/lightwallet/internal/core/ports"
	"github.com/ArkLabsHQ/lightwallet/internal/infrastructure/db"
	"github.com/ArkLabsHQ/lightwallet/pkg/monitor"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/lightningnetwork/lnd/clock"
	"github.com/lightningnetwork/lnd/lntypes"
	"github.com/stretchr/testify/require"
)

func nowMillis() time.Time {
	return time.UnixMilli(time.Now().UnixMilli())
}

func newTestApp(t *testing.T, settings Settings) (*AppContext, *clock.TestClock) {
	t.Helper()
	repos, err := db.NewService(db.ServiceConfig{DbType: "badger", DbConfig: []any{"", nil}})
	require.NoError(t, err)
	t.Cleanup(repos.Close)

	clk := clock.NewTestClock(nowMillis())
	mon := monitor.New(monitor.WithCheckInterval(0), monitor.WithRestartDelay(10*time.Millisecond))
	t.Cleanup(mon.Stop)

	app, err := NewAppContext(settings, repos, clk, mon)
	require.NoError(t, err)
	return app, clk
}

func randomPreimage(t *testing.T) lntypes.Preimage {
	t.Helper()
	var preimage lntypes.Preimage
	_, err := rand.Read(preimage[:])
	require.NoError(t, err)
	return preimage
}

func randomTxId(t *testing.T) chainhash.Hash {
	t.Helper()
	var hash chainhash.Hash
	_, err := rand.Read(hash[:])
	require.NoError(t, err)
	return hash
}

type fakeScheduler struct {
	mu    sync.Mutex
	tasks map[string]func()
}

func newFakeScheduler() *fakeScheduler {
	return &fakeScheduler{tasks: make(map[string]func())}
}

func (s *fakeScheduler) Start() {}
func (s *fakeScheduler) Stop()  {}

func (s *fakeScheduler) ScheduleEvery(name string, _ time.Duration, task func()) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks[name] = task
	return nil
}

func (s *fakeScheduler) WhenNextRun(string) time.Time { return time.Time{} }

func (s *fakeScheduler) Cancel(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tasks, name)
}

func (s *fakeScheduler) run(name string) bool {
	s.mu.Lock()
	task, ok := s.tasks[name]
	s.mu.Unlock()
	if ok {
		task()
	}
	return ok
}

type fakeSink struct {
	mu            sync.Mutex
	notifications []domain.Notification
}

func (s *fakeSink) Notify(_ context.Context, n domain.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifications = append(s.notifications, n)
	return nil
}

func (s *fakeSink) list() []domain.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Notification(nil), s.notifications...)
}

// fakeEvents is a PeerEventSource and EventPublisher recording published
// events.
type fakeEvents struct {
	ch        chan ports.PeerEvent
	mu        sync.Mutex
	published []ports.PeerEvent
}

func newFakeEvents() *fakeEvents {
	return &fakeEvents{ch: make(chan ports.PeerEvent, 64)}
}

func (f *fakeEvents) Events(ctx context.Context) <-chan ports.PeerEvent {
	out := make(chan ports.PeerEvent)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case ev := <-f.ch:
				select {
				case out <- ev:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}

func (f *fakeEvents) Publish(_ context.Context, event ports.PeerEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published = append(f.published, event)
	return nil
}

func (f *fakeEvents) list() []ports.PeerEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]ports.PeerEvent(nil), f.published...)
}
