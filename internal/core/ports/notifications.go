package ports

import (
	"context"

	"github.com/ArkLabsHQ/lightwallet/internal/core/domain"
)

type NotificationSink interface {
	Notify(ctx context.Context, notification domain.Notification) error
}
