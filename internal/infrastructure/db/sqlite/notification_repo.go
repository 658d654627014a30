package sqlitedb

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ArkLabsHQ/lightwallet/internal/core/domain"
	"github.com/ArkLabsHQ/lightwallet/internal/infrastructure/db/sqlite/sqlc/queries"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/google/uuid"
)

type notificationRepository struct {
	db      *sql.DB
	querier *queries.Queries
}

func NewNotificationRepository(db *sql.DB) (domain.NotificationRepository, error) {
	if db == nil {
		return nil, fmt.Errorf("cannot open notification repository: db is nil")
	}

	return &notificationRepository{
		db:      db,
		querier: queries.New(db),
	}, nil
}

func (r *notificationRepository) Save(ctx context.Context, n domain.Notification) error {
	if err := r.querier.InsertNotification(ctx, queries.InsertNotificationParams{
		ID:               n.Id.String(),
		Kind:             string(n.Kind),
		Reason:           string(n.Reason),
		AmountSat:        int64(n.Amount),
		FeeSat:           int64(n.Fee),
		ThresholdSat:     int64(n.Threshold),
		PaymentAmountSat: int64(n.PaymentAmount),
		CreatedAt:        n.CreatedAt.UnixMilli(),
		ReadAt:           toNullableMillisPtr(n.ReadAt),
	}); err != nil {
		if isConstraintErr(err) {
			return fmt.Errorf("notification %s already exists", n.Id)
		}
		return fmt.Errorf("failed to save notification: %w", err)
	}
	return nil
}

func (r *notificationRepository) ListUnread(ctx context.Context) ([]domain.Notification, error) {
	rows, err := r.querier.ListUnreadNotifications(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	notifications := make([]domain.Notification, 0, len(rows))
	for _, row := range rows {
		id, err := uuid.Parse(row.ID)
		if err != nil {
			return nil, fmt.Errorf("%w: notification id: %s", domain.ErrUnknownEncoding, err)
		}
		notifications = append(notifications, domain.Notification{
			Id:            id,
			Kind:          domain.NotificationKind(row.Kind),
			Reason:        domain.RejectionReason(row.Reason),
			Amount:        btcutil.Amount(row.AmountSat),
			Fee:           btcutil.Amount(row.FeeSat),
			Threshold:     btcutil.Amount(row.ThresholdSat),
			PaymentAmount: btcutil.Amount(row.PaymentAmountSat),
			CreatedAt:     time.UnixMilli(row.CreatedAt),
			ReadAt:        fromNullableMillisPtr(row.ReadAt),
		})
	}
	return notifications, nil
}

func (r *notificationRepository) MarkRead(ctx context.Context, ids []uuid.UUID, readAt time.Time) error {
	txBody := func(querierWithTx *queries.Queries) error {
		for _, id := range ids {
			if err := querierWithTx.MarkNotificationRead(ctx, queries.MarkNotificationReadParams{
				ReadAt: toNullableMillis(readAt),
				ID:     id.String(),
			}); err != nil {
				return fmt.Errorf("failed to mark notification %s as read: %w", id, err)
			}
		}
		return nil
	}
	return execTx(ctx, r.db, txBody)
}

func (r *notificationRepository) Close() {
	// nolint
	r.db.Close()
}
