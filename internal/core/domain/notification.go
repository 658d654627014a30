package domain

import (
	"context"
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/google/uuid"
)

type NotificationKind string

const (
	NotificationLiquidityRejected NotificationKind = "liquidity_rejected"
	NotificationMissedPayment     NotificationKind = "missed_payment"
)

type Notification struct {
	Id            uuid.UUID
	Kind          NotificationKind
	Reason        RejectionReason
	Amount        btcutil.Amount
	Fee           btcutil.Amount
	Threshold     btcutil.Amount
	PaymentAmount btcutil.Amount
	CreatedAt     time.Time
	// ReadAt is nil until the notification is acknowledged.
	ReadAt *time.Time
}

func NewLiquidityNotification(
	proposal LiquidityProposal, decision LiquidityDecision, createdAt time.Time,
) Notification {
	kind := NotificationLiquidityRejected
	if proposal.PaymentAmount > 0 {
		kind = NotificationMissedPayment
	}
	return Notification{
		Id:            uuid.New(),
		Kind:          kind,
		Reason:        decision.Reason,
		Amount:        proposal.Amount,
		Fee:           decision.Fee,
		Threshold:     decision.Threshold,
		PaymentAmount: proposal.PaymentAmount,
		CreatedAt:     createdAt,
	}
}

type NotificationRepository interface {
	Save(ctx context.Context, notification Notification) error
	// ListUnread returns the unread notifications, most recent first.
	ListUnread(ctx context.Context) ([]Notification, error)
	MarkRead(ctx context.Context, ids []uuid.UUID, readAt time.Time) error
	Close()
}
