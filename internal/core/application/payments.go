package application

import (
	"context"
	"fmt"
	"time"

	"github.com/ArkLabsHQ/lightwallet/internal/core/domain"
	"github.com/ArkLabsHQ/lightwallet/internal/core/ports"
	"github.com/ArkLabsHQ/lightwallet/pkg/observable"
	"github.com/ArkLabsHQ/lightwallet/utils"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/google/uuid"
	"github.com/lightningnetwork/lnd/lntypes"
	log "github.com/sirupsen/logrus"
)

const (
	recentPaymentsCount = 20
	purgeTaskName       = "purge-expired-invoices"
	purgeTimeout        = time.Minute
)

// PaymentsManager records the payments made and received by the wallet and
// keeps the view of the most recent ones up to date.
type PaymentsManager struct {
	app       *AppContext
	repo      domain.PaymentRepository
	scheduler ports.SchedulerService
	recent    *observable.State[[]domain.WalletPayment]
}

func NewPaymentsManager(app *AppContext, scheduler ports.SchedulerService) *PaymentsManager {
	return &PaymentsManager{
		app:       app,
		repo:      app.Repos.Payments(),
		scheduler: scheduler,
		recent:    observable.NewState[[]domain.WalletPayment](nil),
	}
}

func (m *PaymentsManager) RecentPayments() []domain.WalletPayment {
	return m.recent.Get()
}

func (m *PaymentsManager) SubscribeRecentPayments(ctx context.Context) <-chan []domain.WalletPayment {
	return m.recent.Subscribe(ctx)
}

// AddInvoicePayment records the invoice generated for preimage.
func (m *PaymentsManager) AddInvoicePayment(
	ctx context.Context, preimage lntypes.Preimage, paymentRequest string,
) (*domain.IncomingPayment, error) {
	invoice, err := utils.ParseInvoice(paymentRequest)
	if err != nil {
		return nil, err
	}
	if invoice.PaymentHash != preimage.Hash() {
		return nil, fmt.Errorf(
			"invoice payment hash %s does not match preimage", invoice.PaymentHash,
		)
	}

	origin := domain.InvoiceOrigin{
		PaymentRequest: paymentRequest,
		Amount:         invoice.Amount,
		Timestamp:      invoice.CreatedAt,
		Expiry:         invoice.Expiry,
	}
	return m.AddIncomingPayment(ctx, preimage, origin)
}

func (m *PaymentsManager) AddIncomingPayment(
	ctx context.Context, preimage lntypes.Preimage, origin domain.IncomingOrigin,
) (*domain.IncomingPayment, error) {
	payment, err := m.repo.AddIncomingPayment(ctx, preimage, origin, m.app.Clock.Now())
	if err != nil {
		return nil, err
	}
	log.WithField("hash", payment.PaymentHash).Debug("incoming payment added")
	return payment, nil
}

func (m *PaymentsManager) ReceivePayment(
	ctx context.Context, paymentHash lntypes.Hash, parts []domain.ReceivedWith,
) (bool, error) {
	ok, err := m.repo.ReceivePayment(ctx, paymentHash, parts, m.app.Clock.Now())
	if err != nil {
		return false, err
	}
	if !ok {
		log.WithField("hash", paymentHash).Warn("received parts for unknown payment")
		return false, nil
	}
	log.WithField("hash", paymentHash).Infof("received %d part(s)", len(parts))
	m.refreshRecent(ctx)
	return true, nil
}

func (m *PaymentsManager) GetIncomingPayment(
	ctx context.Context, paymentHash lntypes.Hash,
) (*domain.IncomingPayment, error) {
	return m.repo.GetIncomingPayment(ctx, paymentHash)
}

func (m *PaymentsManager) AddOutgoingPayment(
	ctx context.Context, payment domain.LightningOutgoingPayment,
) error {
	if err := m.repo.AddOutgoingPayment(ctx, payment); err != nil {
		return err
	}
	m.refreshRecent(ctx)
	return nil
}

func (m *PaymentsManager) AddOutgoingParts(
	ctx context.Context, parentId uuid.UUID, parts []domain.LightningOutgoingPart,
) error {
	return m.repo.AddOutgoingLightningParts(ctx, parentId, parts)
}

func (m *PaymentsManager) CompleteOutgoingPart(
	ctx context.Context, partId uuid.UUID, outcome domain.PartOutcome,
) (bool, error) {
	return m.repo.CompleteOutgoingLightningPart(ctx, partId, outcome, m.app.Clock.Now())
}

func (m *PaymentsManager) CompleteOutgoingPaymentOffchain(
	ctx context.Context, id uuid.UUID, outcome domain.OffchainOutcome,
) (bool, error) {
	ok, err := m.repo.CompleteOutgoingPaymentOffchain(ctx, id, outcome, m.app.Clock.Now())
	if err != nil || !ok {
		return ok, err
	}
	log.WithField("id", id).Info("outgoing payment completed")
	m.refreshRecent(ctx)
	return true, nil
}

func (m *PaymentsManager) CompleteOutgoingPaymentForClosing(
	ctx context.Context, id uuid.UUID, parts []domain.ClosingTxPart,
) (bool, error) {
	ok, err := m.repo.CompleteOutgoingPaymentForClosing(ctx, id, parts, m.app.Clock.Now())
	if err != nil || !ok {
		return ok, err
	}
	m.refreshRecent(ctx)
	return true, nil
}

func (m *PaymentsManager) AddOnChainOutgoingPayment(
	ctx context.Context, payment domain.OnChainOutgoingPayment,
) error {
	if err := m.repo.AddOnChainOutgoingPayment(ctx, payment); err != nil {
		return err
	}
	m.refreshRecent(ctx)
	return nil
}

func (m *PaymentsManager) GetLightningOutgoingPayment(
	ctx context.Context, id uuid.UUID,
) (*domain.LightningOutgoingPayment, error) {
	return m.repo.GetLightningOutgoingPayment(ctx, id)
}

func (m *PaymentsManager) GetLightningOutgoingPaymentFromPartId(
	ctx context.Context, partId uuid.UUID,
) (*domain.LightningOutgoingPayment, error) {
	return m.repo.GetLightningOutgoingPaymentFromPartId(ctx, partId)
}

func (m *PaymentsManager) ListOutgoingLightningParts(
	ctx context.Context, parentId uuid.UUID,
) ([]domain.LightningOutgoingPart, error) {
	return m.repo.ListOutgoingLightningParts(ctx, parentId)
}

func (m *PaymentsManager) GetOnChainOutgoingPayment(
	ctx context.Context, id uuid.UUID,
) (*domain.OnChainOutgoingPayment, error) {
	return m.repo.GetOnChainOutgoingPayment(ctx, id)
}

func (m *PaymentsManager) ListPayments(
	ctx context.Context, count, skip int,
) ([]domain.WalletPayment, error) {
	return m.repo.ListPayments(ctx, count, skip)
}

// OnTxConfirmed marks the payments linked to the transaction as confirmed.
func (m *PaymentsManager) OnTxConfirmed(
	ctx context.Context, txId chainhash.Hash, confirmedAt time.Time,
) (int, error) {
	count, err := m.repo.SetConfirmed(ctx, txId, confirmedAt)
	if err != nil {
		return 0, err
	}
	if count > 0 {
		log.WithField("txid", txId).Infof("confirmation applied to %d payment(s)", count)
		m.refreshRecent(ctx)
	}
	return count, nil
}

// OnTxLocked marks the payments linked to the transaction as locked.
func (m *PaymentsManager) OnTxLocked(ctx context.Context, txId chainhash.Hash) (int, error) {
	count, err := m.repo.SetLocked(ctx, txId, m.app.Clock.Now())
	if err != nil {
		return 0, err
	}
	if count > 0 {
		log.WithField("txid", txId).Infof("lock applied to %d payment(s)", count)
		m.refreshRecent(ctx)
	}
	return count, nil
}

func (m *PaymentsManager) ListUnconfirmedTxIds(ctx context.Context) ([]chainhash.Hash, error) {
	return m.repo.ListUnconfirmedTxIds(ctx)
}

// PurgeExpired removes the invoices that expired without being paid and
// returns how many were removed.
func (m *PaymentsManager) PurgeExpired(ctx context.Context) (int, error) {
	expired, err := m.repo.ListExpiredPayments(ctx, time.UnixMilli(0), m.app.Clock.Now())
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, payment := range expired {
		ok, err := m.repo.RemoveIncomingPayment(ctx, payment.PaymentHash)
		if err != nil {
			return removed, fmt.Errorf("failed to remove payment %s: %w", payment.PaymentHash, err)
		}
		if ok {
			removed++
		}
	}
	if removed > 0 {
		log.Infof("purged %d expired invoice(s)", removed)
	}
	return removed, nil
}

// StartPurgeJob runs PurgeExpired at the configured interval.
func (m *PaymentsManager) StartPurgeJob() error {
	return m.scheduler.ScheduleEvery(purgeTaskName, m.app.Settings.PurgeInterval, func() {
		ctx, cancel := context.WithTimeout(context.Background(), purgeTimeout)
		defer cancel()
		if _, err := m.PurgeExpired(ctx); err != nil {
			log.WithError(err).Warn("failed to purge expired invoices")
		}
	})
}

func (m *PaymentsManager) StopPurgeJob() {
	m.scheduler.Cancel(purgeTaskName)
}

func (m *PaymentsManager) refreshRecent(ctx context.Context) {
	payments, err := m.repo.ListPayments(ctx, recentPaymentsCount, 0)
	if err != nil {
		log.WithError(err).Warn("failed to refresh recent payments")
		return
	}
	m.recent.Set(payments)
}
