package domain

import (
	"context"
	"fmt"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/google/uuid"
	"github.com/lightningnetwork/lnd/lntypes"
	"github.com/lightningnetwork/lnd/lnwire"
)

type WalletPaymentType int

const (
	IncomingPaymentType WalletPaymentType = iota
	LightningOutgoingPaymentType
	OnChainOutgoingPaymentType
)

func (t WalletPaymentType) String() string {
	switch t {
	case IncomingPaymentType:
		return "incoming"
	case LightningOutgoingPaymentType:
		return "lightning_outgoing"
	case OnChainOutgoingPaymentType:
		return "onchain_outgoing"
	default:
		return "unknown"
	}
}

// WalletPaymentId identifies a payment of any kind. Incoming payments are
// identified by their payment hash, outgoing ones by their uuid.
type WalletPaymentId struct {
	Type WalletPaymentType
	Id   string
}

func (id WalletPaymentId) String() string {
	return fmt.Sprintf("%s:%s", id.Type, id.Id)
}

func IncomingPaymentId(hash lntypes.Hash) WalletPaymentId {
	return WalletPaymentId{IncomingPaymentType, hash.String()}
}

func LightningOutgoingPaymentId(id uuid.UUID) WalletPaymentId {
	return WalletPaymentId{LightningOutgoingPaymentType, id.String()}
}

func OnChainOutgoingPaymentId(id uuid.UUID) WalletPaymentId {
	return WalletPaymentId{OnChainOutgoingPaymentType, id.String()}
}

// WalletPayment is implemented by *IncomingPayment,
// *LightningOutgoingPayment and *OnChainOutgoingPayment.
type WalletPayment interface {
	PaymentId() WalletPaymentId
	// Amount is the amount received for incoming payments, or the amount
	// sent including fees for outgoing ones.
	Amount() lnwire.MilliSatoshi
	Fees() lnwire.MilliSatoshi
	CreatedAt() time.Time
	// CompletedAt is zero while the payment is not completed.
	CompletedAt() time.Time
}

// SortTime is the time a payment is listed at in the payment history.
func SortTime(p WalletPayment) time.Time {
	if completedAt := p.CompletedAt(); !completedAt.IsZero() {
		return completedAt
	}
	return p.CreatedAt()
}

// PaymentRepository is the durable history of every payment made or received
// by the wallet. All mutations are atomic with respect to concurrent readers.
type PaymentRepository interface {
	AddIncomingPayment(
		ctx context.Context, preimage lntypes.Preimage, origin IncomingOrigin, createdAt time.Time,
	) (*IncomingPayment, error)
	// ReceivePayment appends the given parts to the payment. It returns false
	// if the payment hash is unknown.
	ReceivePayment(
		ctx context.Context, paymentHash lntypes.Hash, parts []ReceivedWith, receivedAt time.Time,
	) (bool, error)
	// GetIncomingPayment returns nil if no payment exists for the hash.
	GetIncomingPayment(ctx context.Context, paymentHash lntypes.Hash) (*IncomingPayment, error)
	// ListExpiredPayments returns unreceived invoice payments created within
	// [from, to] whose invoice has expired.
	ListExpiredPayments(ctx context.Context, from, to time.Time) ([]IncomingPayment, error)
	RemoveIncomingPayment(ctx context.Context, paymentHash lntypes.Hash) (bool, error)

	AddOutgoingPayment(ctx context.Context, payment LightningOutgoingPayment) error
	AddOutgoingLightningParts(
		ctx context.Context, parentId uuid.UUID, parts []LightningOutgoingPart,
	) error
	CompleteOutgoingLightningPart(
		ctx context.Context, partId uuid.UUID, outcome PartOutcome, completedAt time.Time,
	) (bool, error)
	CompleteOutgoingPaymentOffchain(
		ctx context.Context, id uuid.UUID, outcome OffchainOutcome, completedAt time.Time,
	) (bool, error)
	CompleteOutgoingPaymentForClosing(
		ctx context.Context, id uuid.UUID, parts []ClosingTxPart, completedAt time.Time,
	) (bool, error)
	GetLightningOutgoingPayment(ctx context.Context, id uuid.UUID) (*LightningOutgoingPayment, error)
	GetLightningOutgoingPaymentFromPartId(
		ctx context.Context, partId uuid.UUID,
	) (*LightningOutgoingPayment, error)
	// ListOutgoingLightningParts returns every stored part of the payment,
	// including the ones hidden once the payment succeeded.
	ListOutgoingLightningParts(ctx context.Context, parentId uuid.UUID) ([]LightningOutgoingPart, error)

	AddOnChainOutgoingPayment(ctx context.Context, payment OnChainOutgoingPayment) error
	GetOnChainOutgoingPayment(ctx context.Context, id uuid.UUID) (*OnChainOutgoingPayment, error)

	// SetConfirmed marks every record linked to the transaction as confirmed
	// and returns how many payments were updated.
	SetConfirmed(ctx context.Context, txId chainhash.Hash, confirmedAt time.Time) (int, error)
	SetLocked(ctx context.Context, txId chainhash.Hash, lockedAt time.Time) (int, error)
	ListPaymentIdsForTx(ctx context.Context, txId chainhash.Hash) ([]WalletPaymentId, error)
	ListUnconfirmedTxIds(ctx context.Context) ([]chainhash.Hash, error)

	// ListPayments returns received incoming and all outgoing payments, most
	// recent first.
	ListPayments(ctx context.Context, count, skip int) ([]WalletPayment, error)
	Close()
}
