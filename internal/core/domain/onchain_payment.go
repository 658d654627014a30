package domain

import (
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/google/uuid"
	"github.com/lightningnetwork/lnd/lnwire"
)

type OnChainOutgoingKind int

const (
	SpliceOut OnChainOutgoingKind = iota
	ChannelClose
	SpliceCpfp
)

func (k OnChainOutgoingKind) String() string {
	switch k {
	case SpliceOut:
		return "splice_out"
	case ChannelClose:
		return "channel_close"
	case SpliceCpfp:
		return "splice_cpfp"
	default:
		return "unknown"
	}
}

// OnChainOutgoingPayment is a payment settled by a transaction spending a
// channel funding output: a splice-out, a channel close or a fee bump.
type OnChainOutgoingPayment struct {
	Id              uuid.UUID
	Kind            OnChainOutgoingKind
	RecipientAmount btcutil.Amount
	Address         string
	MiningFees      btcutil.Amount
	TxId            chainhash.Hash
	ChannelId       string
	ClosingType     ClosingType
	Created         time.Time
	// ConfirmedAt and LockedAt are set once, nil until then.
	ConfirmedAt *time.Time
	LockedAt    *time.Time
}

func (p *OnChainOutgoingPayment) PaymentId() WalletPaymentId {
	return OnChainOutgoingPaymentId(p.Id)
}

func (p *OnChainOutgoingPayment) Amount() lnwire.MilliSatoshi {
	return lnwire.NewMSatFromSatoshis(p.RecipientAmount + p.MiningFees)
}

func (p *OnChainOutgoingPayment) Fees() lnwire.MilliSatoshi {
	return lnwire.NewMSatFromSatoshis(p.MiningFees)
}

func (p *OnChainOutgoingPayment) CreatedAt() time.Time {
	return p.Created
}

func (p *OnChainOutgoingPayment) CompletedAt() time.Time {
	if p.LockedAt == nil {
		return time.Time{}
	}
	return *p.LockedAt
}

func (p *OnChainOutgoingPayment) IsConfirmed() bool {
	return p.ConfirmedAt != nil
}
