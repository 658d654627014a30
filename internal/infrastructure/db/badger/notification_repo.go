package badgerdb

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"github.com/ArkLabsHQ/lightwallet/internal/core/domain"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/timshannon/badgerhold/v4"
)

const (
	notificationDir = "notifications"
)

type notificationRepository struct {
	store *badgerhold.Store
}

func NewNotificationRepository(baseDir string, logger badger.Logger) (domain.NotificationRepository, error) {
	var dir string
	if len(baseDir) > 0 {
		dir = filepath.Join(baseDir, notificationDir)
	}
	store, err := createDB(dir, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open notification store: %s", err)
	}
	return &notificationRepository{store}, nil
}

func (r *notificationRepository) Save(ctx context.Context, notification domain.Notification) error {
	data := toNotificationData(notification)
	if err := r.store.Insert(data.Id, data); err != nil {
		if errors.Is(err, badgerhold.ErrKeyExists) {
			return fmt.Errorf("notification %s already exists", data.Id)
		}
		return fmt.Errorf("failed to save notification: %w", err)
	}
	return nil
}

func (r *notificationRepository) ListUnread(ctx context.Context) ([]domain.Notification, error) {
	var dataList []notificationData
	if err := r.store.Find(&dataList, badgerhold.Where("ReadAt").Eq(int64(0))); err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	notifications := make([]domain.Notification, 0, len(dataList))
	for _, data := range dataList {
		n, err := data.toNotification()
		if err != nil {
			return nil, err
		}
		notifications = append(notifications, *n)
	}
	sort.SliceStable(notifications, func(i, j int) bool {
		return notifications[i].CreatedAt.After(notifications[j].CreatedAt)
	})
	return notifications, nil
}

func (r *notificationRepository) MarkRead(ctx context.Context, ids []uuid.UUID, readAt time.Time) error {
	return update(r.store, func(tx *badger.Txn) error {
		for _, id := range ids {
			var data notificationData
			if err := r.store.TxGet(tx, id.String(), &data); err != nil {
				if errors.Is(err, badgerhold.ErrNotFound) {
					continue
				}
				return err
			}
			if data.ReadAt != 0 {
				continue
			}
			data.ReadAt = readAt.UnixMilli()
			if err := r.store.TxUpdate(tx, data.Id, data); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *notificationRepository) Close() {
	// nolint:all
	r.store.Close()
}

type notificationData struct {
	Id            string
	Kind          string
	Reason        string
	Amount        int64
	Fee           int64
	Threshold     int64
	PaymentAmount int64
	CreatedAt     int64
	ReadAt        int64
}

func toNotificationData(n domain.Notification) notificationData {
	return notificationData{
		Id:            n.Id.String(),
		Kind:          string(n.Kind),
		Reason:        string(n.Reason),
		Amount:        int64(n.Amount),
		Fee:           int64(n.Fee),
		Threshold:     int64(n.Threshold),
		PaymentAmount: int64(n.PaymentAmount),
		CreatedAt:     n.CreatedAt.UnixMilli(),
		ReadAt:        toMillisPtr(n.ReadAt),
	}
}

func (d notificationData) toNotification() (*domain.Notification, error) {
	id, err := uuid.Parse(d.Id)
	if err != nil {
		return nil, fmt.Errorf("%w: notification id: %s", domain.ErrUnknownEncoding, err)
	}
	return &domain.Notification{
		Id:            id,
		Kind:          domain.NotificationKind(d.Kind),
		Reason:        domain.RejectionReason(d.Reason),
		Amount:        btcutil.Amount(d.Amount),
		Fee:           btcutil.Amount(d.Fee),
		Threshold:     btcutil.Amount(d.Threshold),
		PaymentAmount: btcutil.Amount(d.PaymentAmount),
		CreatedAt:     time.UnixMilli(d.CreatedAt),
		ReadAt:        fromMillisPtr(d.ReadAt),
	}, nil
}
