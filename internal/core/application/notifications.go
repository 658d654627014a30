package application

import (
	"context"
	"sync"

	"github.com/ArkLabsHQ/lightwallet/internal/core/domain"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

const notificationBuffer = 16

// NotificationsManager persists notifications and forwards them to the
// in-process subscribers.
type NotificationsManager struct {
	app  *AppContext
	repo domain.NotificationRepository

	mu   sync.Mutex
	subs map[chan domain.Notification]struct{}
}

func NewNotificationsManager(app *AppContext) *NotificationsManager {
	return &NotificationsManager{
		app:  app,
		repo: app.Repos.Notifications(),
		subs: make(map[chan domain.Notification]struct{}),
	}
}

func (m *NotificationsManager) Notify(ctx context.Context, notification domain.Notification) error {
	if err := m.repo.Save(ctx, notification); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for ch := range m.subs {
		select {
		case ch <- notification:
		default:
			log.WithField("id", notification.Id).Warn("dropping notification for slow subscriber")
		}
	}
	return nil
}

// Subscribe returns the notifications saved from now on. The channel is
// closed once ctx is done.
func (m *NotificationsManager) Subscribe(ctx context.Context) <-chan domain.Notification {
	ch := make(chan domain.Notification, notificationBuffer)
	m.mu.Lock()
	m.subs[ch] = struct{}{}
	m.mu.Unlock()

	go func() {
		<-ctx.Done()
		m.mu.Lock()
		delete(m.subs, ch)
		close(ch)
		m.mu.Unlock()
	}()
	return ch
}

func (m *NotificationsManager) ListUnread(ctx context.Context) ([]domain.Notification, error) {
	return m.repo.ListUnread(ctx)
}

func (m *NotificationsManager) MarkRead(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	return m.repo.MarkRead(ctx, ids, m.app.Clock.Now())
}
