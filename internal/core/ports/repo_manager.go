package ports

import "github.com/ArkLabsHQ/lightwallet/internal/core/domain"

type RepoManager interface {
	Payments() domain.PaymentRepository
	ExchangeRates() domain.ExchangeRateRepository
	Channels() domain.ChannelRepository
	Notifications() domain.NotificationRepository
	Close()
}
