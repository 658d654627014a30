package domain

import (
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/google/uuid"
	"github.com/lightningnetwork/lnd/lntypes"
	"github.com/lightningnetwork/lnd/lnwire"
)

// LightningOutgoingDetails is one of NormalDetails, KeySendDetails,
// SwapOutDetails or ChannelClosingDetails.
type LightningOutgoingDetails interface {
	PaymentHash() lntypes.Hash
	isLightningOutgoingDetails()
}

type NormalDetails struct {
	PaymentRequest string
	Hash           lntypes.Hash
}

type KeySendDetails struct {
	Preimage lntypes.Preimage
}

type SwapOutDetails struct {
	Address        string
	PaymentRequest string
	Hash           lntypes.Hash
	SwapOutFee     btcutil.Amount
}

type ChannelClosingDetails struct {
	ChannelId              string
	ClosingAddress         string
	IsSentToDefaultAddress bool
}

func (d NormalDetails) PaymentHash() lntypes.Hash  { return d.Hash }
func (d KeySendDetails) PaymentHash() lntypes.Hash { return d.Preimage.Hash() }
func (d SwapOutDetails) PaymentHash() lntypes.Hash { return d.Hash }

// PaymentHash of a closing payment is a zero hash: there is nothing to settle
// off-chain.
func (d ChannelClosingDetails) PaymentHash() lntypes.Hash { return lntypes.ZeroHash }

func (NormalDetails) isLightningOutgoingDetails()         {}
func (KeySendDetails) isLightningOutgoingDetails()        {}
func (SwapOutDetails) isLightningOutgoingDetails()        {}
func (ChannelClosingDetails) isLightningOutgoingDetails() {}

type FinalFailure string

const (
	FailureInvalidPaymentAmount FinalFailure = "invalid_payment_amount"
	FailureInsufficientBalance  FinalFailure = "insufficient_balance"
	FailureInvalidPaymentId     FinalFailure = "invalid_payment_id"
	FailureNoAvailableChannels  FinalFailure = "no_available_channels"
	FailureRecipientUnreachable FinalFailure = "recipient_unreachable"
	FailureRetryExhausted       FinalFailure = "retry_exhausted"
	FailureWalletRestarted      FinalFailure = "wallet_restarted"
	FailureChannelClosing       FinalFailure = "channel_closing"
	FailureAlreadyPaid          FinalFailure = "already_paid"
	FailureUnknown              FinalFailure = "unknown_error"
)

// LightningOutgoingStatus is one of OutgoingPending, OutgoingSucceededOffChain,
// OutgoingSucceededOnChain or OutgoingFailed.
type LightningOutgoingStatus interface {
	isLightningOutgoingStatus()
}

type OutgoingPending struct{}

type OutgoingSucceededOffChain struct {
	Preimage    lntypes.Preimage
	CompletedAt time.Time
}

type ClosingType string

const (
	ClosingMutual  ClosingType = "mutual"
	ClosingLocal   ClosingType = "local"
	ClosingRemote  ClosingType = "remote"
	ClosingRevoked ClosingType = "revoked"
	ClosingOther   ClosingType = "other"
)

type ClosingTxPart struct {
	TxId        chainhash.Hash
	Claimed     btcutil.Amount
	ClosingType ClosingType
	CreatedAt   time.Time
}

type OutgoingSucceededOnChain struct {
	Parts       []ClosingTxPart
	CompletedAt time.Time
}

type OutgoingFailed struct {
	Reason      FinalFailure
	CompletedAt time.Time
}

func (OutgoingPending) isLightningOutgoingStatus()           {}
func (OutgoingSucceededOffChain) isLightningOutgoingStatus() {}
func (OutgoingSucceededOnChain) isLightningOutgoingStatus()  {}
func (OutgoingFailed) isLightningOutgoingStatus()            {}

// PartStatus is one of PartPending, PartSucceeded or PartFailed.
type PartStatus interface {
	isPartStatus()
}

type PartPending struct{}

type PartSucceeded struct {
	Preimage    lntypes.Preimage
	CompletedAt time.Time
}

type PartFailed struct {
	Code        int
	Message     string
	CompletedAt time.Time
}

func (PartPending) isPartStatus()   {}
func (PartSucceeded) isPartStatus() {}
func (PartFailed) isPartStatus()    {}

type LightningOutgoingPart struct {
	Id        uuid.UUID
	Amount    lnwire.MilliSatoshi
	Route     string
	Status    PartStatus
	CreatedAt time.Time
}

// PartOutcome is one of PartSucceededOutcome or PartFailedOutcome.
type PartOutcome interface {
	isPartOutcome()
}

type PartSucceededOutcome struct {
	Preimage lntypes.Preimage
}

type PartFailedOutcome struct {
	Code    int
	Message string
}

func (PartSucceededOutcome) isPartOutcome() {}
func (PartFailedOutcome) isPartOutcome()    {}

func (o PartSucceededOutcome) Status(completedAt time.Time) PartStatus {
	return PartSucceeded{o.Preimage, completedAt}
}

func (o PartFailedOutcome) Status(completedAt time.Time) PartStatus {
	return PartFailed{o.Code, o.Message, completedAt}
}

// PartStatusFromOutcome maps the outcome of a part to its terminal status.
func PartStatusFromOutcome(outcome PartOutcome, completedAt time.Time) PartStatus {
	switch o := outcome.(type) {
	case PartSucceededOutcome:
		return o.Status(completedAt)
	case PartFailedOutcome:
		return o.Status(completedAt)
	default:
		return PartFailed{Message: "unknown outcome", CompletedAt: completedAt}
	}
}

// OffchainOutcome is one of OffchainSucceeded or OffchainFailed.
type OffchainOutcome interface {
	isOffchainOutcome()
}

type OffchainSucceeded struct {
	Preimage lntypes.Preimage
}

type OffchainFailed struct {
	Reason FinalFailure
}

func (OffchainSucceeded) isOffchainOutcome() {}
func (OffchainFailed) isOffchainOutcome()    {}

// StatusFromOutcome maps a payment-level outcome to its terminal status.
func StatusFromOutcome(outcome OffchainOutcome, completedAt time.Time) LightningOutgoingStatus {
	switch o := outcome.(type) {
	case OffchainSucceeded:
		return OutgoingSucceededOffChain{o.Preimage, completedAt}
	case OffchainFailed:
		return OutgoingFailed{o.Reason, completedAt}
	default:
		return OutgoingFailed{FailureUnknown, completedAt}
	}
}

type LightningOutgoingPayment struct {
	Id              uuid.UUID
	RecipientAmount lnwire.MilliSatoshi
	Recipient       string
	Details         LightningOutgoingDetails
	Parts           []LightningOutgoingPart
	Status          LightningOutgoingStatus
	Created         time.Time
}

func (p *LightningOutgoingPayment) PaymentId() WalletPaymentId {
	return LightningOutgoingPaymentId(p.Id)
}

func (p *LightningOutgoingPayment) IsCompleted() bool {
	return IsTerminalStatus(p.Status)
}

func IsTerminalStatus(status LightningOutgoingStatus) bool {
	switch status.(type) {
	case OutgoingSucceededOffChain, OutgoingSucceededOnChain, OutgoingFailed:
		return true
	default:
		return false
	}
}

func isSucceeded(status LightningOutgoingStatus) bool {
	switch status.(type) {
	case OutgoingSucceededOffChain, OutgoingSucceededOnChain:
		return true
	default:
		return false
	}
}

// Amount sent including routing fees: the sum of succeeded parts once the
// payment succeeded, the recipient amount otherwise.
func (p *LightningOutgoingPayment) Amount() lnwire.MilliSatoshi {
	if _, ok := p.Details.(ChannelClosingDetails); ok {
		return p.RecipientAmount
	}
	if !isSucceeded(p.Status) {
		return p.RecipientAmount
	}
	var total lnwire.MilliSatoshi
	for _, part := range p.Parts {
		if _, ok := part.Status.(PartSucceeded); ok {
			total += part.Amount
		}
	}
	if total < p.RecipientAmount {
		return p.RecipientAmount
	}
	return total
}

func (p *LightningOutgoingPayment) Fees() lnwire.MilliSatoshi {
	var fees lnwire.MilliSatoshi
	if swapOut, ok := p.Details.(SwapOutDetails); ok {
		fees += lnwire.NewMSatFromSatoshis(swapOut.SwapOutFee)
	}
	return fees + p.Amount() - p.RecipientAmount
}

func (p *LightningOutgoingPayment) CreatedAt() time.Time {
	return p.Created
}

func (p *LightningOutgoingPayment) CompletedAt() time.Time {
	switch s := p.Status.(type) {
	case OutgoingSucceededOffChain:
		return s.CompletedAt
	case OutgoingSucceededOnChain:
		return s.CompletedAt
	case OutgoingFailed:
		return s.CompletedAt
	default:
		return time.Time{}
	}
}

// VisibleParts returns the parts exposed by the payment: once it succeeded
// only the succeeded parts are shown, the others stay in storage.
func VisibleParts(status LightningOutgoingStatus, parts []LightningOutgoingPart) []LightningOutgoingPart {
	if !isSucceeded(status) {
		return parts
	}
	visible := make([]LightningOutgoingPart, 0, len(parts))
	for _, part := range parts {
		if _, ok := part.Status.(PartSucceeded); ok {
			visible = append(visible, part)
		}
	}
	return visible
}

// IsPartVisible tells whether a part with the given status is exposed by a
// payment with the given status.
func IsPartVisible(paymentStatus LightningOutgoingStatus, partStatus PartStatus) bool {
	if !isSucceeded(paymentStatus) {
		return true
	}
	_, ok := partStatus.(PartSucceeded)
	return ok
}
