package domain

import (
	"fmt"
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/google/uuid"
	"github.com/lightningnetwork/lnd/lntypes"
	"github.com/lightningnetwork/lnd/lnwire"
)

// DefaultInvoiceExpiry is the bolt11 expiry applied when an invoice does not
// carry one.
const DefaultInvoiceExpiry = time.Hour

// IncomingOrigin is one of InvoiceOrigin, KeySendOrigin, SwapInOrigin or
// OnChainOrigin.
type IncomingOrigin interface {
	isIncomingOrigin()
}

type InvoiceOrigin struct {
	PaymentRequest string
	// Amount is nil for amountless invoices.
	Amount    *lnwire.MilliSatoshi
	Timestamp time.Time
	Expiry    time.Duration
}

func (o InvoiceOrigin) ExpiresAt() time.Time {
	expiry := o.Expiry
	if expiry <= 0 {
		expiry = DefaultInvoiceExpiry
	}
	return o.Timestamp.Add(expiry)
}

func (o InvoiceOrigin) IsExpired(now time.Time) bool {
	return !now.Before(o.ExpiresAt())
}

type KeySendOrigin struct{}

type SwapInOrigin struct {
	Address string
}

type OnChainOrigin struct {
	TxId        chainhash.Hash
	LocalInputs []wire.OutPoint
}

func (InvoiceOrigin) isIncomingOrigin() {}
func (KeySendOrigin) isIncomingOrigin() {}
func (SwapInOrigin) isIncomingOrigin()  {}
func (OnChainOrigin) isIncomingOrigin() {}

// ReceivedWith is one of ReceivedLightning, ReceivedNewChannel or
// ReceivedSpliceIn.
type ReceivedWith interface {
	AmountReceived() lnwire.MilliSatoshi
	Fees() lnwire.MilliSatoshi
	isReceivedWith()
}

// OnChainPart is implemented by the received parts that are settled through an
// on-chain transaction.
type OnChainPart interface {
	ReceivedWith
	Tx() chainhash.Hash
	Confirmed() *time.Time
	Locked() *time.Time
}

type ReceivedLightning struct {
	Amount    lnwire.MilliSatoshi
	ChannelId string
	HtlcId    uint64
}

func (p ReceivedLightning) AmountReceived() lnwire.MilliSatoshi { return p.Amount }
func (p ReceivedLightning) Fees() lnwire.MilliSatoshi           { return 0 }

type ReceivedNewChannel struct {
	Id          uuid.UUID
	Amount      lnwire.MilliSatoshi
	ServiceFee  lnwire.MilliSatoshi
	MiningFee   btcutil.Amount
	ChannelId   string
	TxId        chainhash.Hash
	ConfirmedAt *time.Time
	LockedAt    *time.Time
}

func (p ReceivedNewChannel) AmountReceived() lnwire.MilliSatoshi { return p.Amount }
func (p ReceivedNewChannel) Fees() lnwire.MilliSatoshi {
	return p.ServiceFee + lnwire.NewMSatFromSatoshis(p.MiningFee)
}
func (p ReceivedNewChannel) Tx() chainhash.Hash     { return p.TxId }
func (p ReceivedNewChannel) Confirmed() *time.Time { return p.ConfirmedAt }
func (p ReceivedNewChannel) Locked() *time.Time    { return p.LockedAt }

type ReceivedSpliceIn struct {
	Id          uuid.UUID
	Amount      lnwire.MilliSatoshi
	ServiceFee  lnwire.MilliSatoshi
	MiningFee   btcutil.Amount
	ChannelId   string
	TxId        chainhash.Hash
	ConfirmedAt *time.Time
	LockedAt    *time.Time
}

func (p ReceivedSpliceIn) AmountReceived() lnwire.MilliSatoshi { return p.Amount }
func (p ReceivedSpliceIn) Fees() lnwire.MilliSatoshi {
	return p.ServiceFee + lnwire.NewMSatFromSatoshis(p.MiningFee)
}
func (p ReceivedSpliceIn) Tx() chainhash.Hash     { return p.TxId }
func (p ReceivedSpliceIn) Confirmed() *time.Time { return p.ConfirmedAt }
func (p ReceivedSpliceIn) Locked() *time.Time    { return p.LockedAt }

func (ReceivedLightning) isReceivedWith()  {}
func (ReceivedNewChannel) isReceivedWith() {}
func (ReceivedSpliceIn) isReceivedWith()   {}

type IncomingReceived struct {
	ReceivedAt   time.Time
	ReceivedWith []ReceivedWith
}

type IncomingPayment struct {
	Preimage    lntypes.Preimage
	PaymentHash lntypes.Hash
	Origin      IncomingOrigin
	Created     time.Time
	Received    *IncomingReceived
}

func NewIncomingPayment(
	preimage lntypes.Preimage, origin IncomingOrigin, createdAt time.Time,
) IncomingPayment {
	return IncomingPayment{
		Preimage:    preimage,
		PaymentHash: preimage.Hash(),
		Origin:      origin,
		Created:     createdAt,
	}
}

func (p *IncomingPayment) PaymentId() WalletPaymentId {
	return IncomingPaymentId(p.PaymentHash)
}

// Amount is the sum of every received part, zero if nothing was received.
func (p *IncomingPayment) Amount() lnwire.MilliSatoshi {
	if p.Received == nil {
		return 0
	}
	var total lnwire.MilliSatoshi
	for _, part := range p.Received.ReceivedWith {
		total += part.AmountReceived()
	}
	return total
}

// Fees sums the service and mining fees of every received part.
func (p *IncomingPayment) Fees() lnwire.MilliSatoshi {
	if p.Received == nil {
		return 0
	}
	var total lnwire.MilliSatoshi
	for _, part := range p.Received.ReceivedWith {
		total += part.Fees()
	}
	return total
}

func (p *IncomingPayment) CreatedAt() time.Time {
	return p.Created
}

// CompletedAt is the time the payment was received. Parts settled on-chain
// must also be locked for the payment to be considered completed.
func (p *IncomingPayment) CompletedAt() time.Time {
	if p.Received == nil {
		return time.Time{}
	}
	for _, part := range p.Received.ReceivedWith {
		if onchain, ok := part.(OnChainPart); ok && onchain.Locked() == nil {
			return time.Time{}
		}
	}
	return p.Received.ReceivedAt
}

// IsExpiredUnpaid tells whether the payment is an invoice that expired before
// receiving anything.
func (p *IncomingPayment) IsExpiredUnpaid(now time.Time) bool {
	if p.Received != nil {
		return false
	}
	invoice, ok := p.Origin.(InvoiceOrigin)
	if !ok {
		return false
	}
	return invoice.IsExpired(now)
}

// MergeReceived returns the received record obtained by adding parts to the
// existing one, if any. Parts are a set: a part already received is ignored,
// and the record is returned unchanged if every part was already there.
func MergeReceived(
	existing *IncomingReceived, parts []ReceivedWith, receivedAt time.Time,
) *IncomingReceived {
	seen := make(map[string]struct{})
	merged := make([]ReceivedWith, 0, len(parts))
	if existing != nil {
		for _, part := range existing.ReceivedWith {
			seen[partKey(part)] = struct{}{}
		}
		merged = append(merged, existing.ReceivedWith...)
	}

	added := 0
	for _, part := range parts {
		key := partKey(part)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		merged = append(merged, part)
		added++
	}
	if existing != nil && added == 0 {
		return existing
	}
	return &IncomingReceived{
		ReceivedAt:   receivedAt,
		ReceivedWith: merged,
	}
}

// partKey identifies a received part: an htlc by its channel and id, an
// on-chain part by its id.
func partKey(part ReceivedWith) string {
	switch p := part.(type) {
	case ReceivedLightning:
		return fmt.Sprintf("htlc:%s:%d", p.ChannelId, p.HtlcId)
	case ReceivedNewChannel:
		return "new_channel:" + p.Id.String()
	case ReceivedSpliceIn:
		return "splice_in:" + p.Id.String()
	default:
		return fmt.Sprintf("%T:%v", part, part)
	}
}

// ConfirmParts returns a copy of the received parts where every on-chain part
// settled by txId is marked as confirmed or locked.
func ConfirmParts(
	parts []ReceivedWith, txId chainhash.Hash, confirmedAt, lockedAt *time.Time,
) ([]ReceivedWith, bool) {
	updated := make([]ReceivedWith, 0, len(parts))
	changed := false
	for _, part := range parts {
		switch p := part.(type) {
		case ReceivedNewChannel:
			if p.TxId == txId {
				if confirmedAt != nil && p.ConfirmedAt == nil {
					p.ConfirmedAt = confirmedAt
					changed = true
				}
				if lockedAt != nil && p.LockedAt == nil {
					p.LockedAt = lockedAt
					changed = true
				}
			}
			updated = append(updated, p)
		case ReceivedSpliceIn:
			if p.TxId == txId {
				if confirmedAt != nil && p.ConfirmedAt == nil {
					p.ConfirmedAt = confirmedAt
					changed = true
				}
				if lockedAt != nil && p.LockedAt == nil {
					p.LockedAt = lockedAt
					changed = true
				}
			}
			updated = append(updated, p)
		default:
			updated = append(updated, part)
		}
	}
	return updated, changed
}

// TxIds returns the distinct on-chain transactions settling the given parts.
func TxIds(parts []ReceivedWith) []chainhash.Hash {
	seen := make(map[chainhash.Hash]struct{})
	txIds := make([]chainhash.Hash, 0)
	for _, part := range parts {
		onchain, ok := part.(OnChainPart)
		if !ok {
			continue
		}
		if _, ok := seen[onchain.Tx()]; ok {
			continue
		}
		seen[onchain.Tx()] = struct{}{}
		txIds = append(txIds, onchain.Tx())
	}
	return txIds
}
