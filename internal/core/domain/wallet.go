package domain

import (
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/wire"
)

const (
	DefaultMinConfirmations = 3
	DefaultMaxConfirmations = 720
	DefaultRefundDelay      = 900
)

type WalletKind string

const (
	FinalWallet  WalletKind = "final"
	SwapInWallet WalletKind = "swap_in"
)

// Utxo is an unspent output of one of the wallets. BlockHeight is zero while
// the output is unconfirmed.
type Utxo struct {
	Outpoint    wire.OutPoint
	Amount      btcutil.Amount
	BlockHeight uint32
}

// Confirmations returns the depth of the output at the given chain tip.
func (u Utxo) Confirmations(tip uint32) uint32 {
	if u.BlockHeight == 0 || tip < u.BlockHeight {
		return 0
	}
	return tip - u.BlockHeight + 1
}

// ConfirmationPolicy bounds the depth at which an output becomes usable and
// the depth after which a swap-in output can only be refunded.
type ConfirmationPolicy struct {
	MinConfirmations uint32
	MaxConfirmations uint32
	RefundDelay      uint32
}

func DefaultConfirmationPolicy() ConfirmationPolicy {
	return ConfirmationPolicy{
		MinConfirmations: DefaultMinConfirmations,
		MaxConfirmations: DefaultMaxConfirmations,
		RefundDelay:      DefaultRefundDelay,
	}
}

type WalletBalance struct {
	Kind              WalletKind
	Tip               uint32
	Unconfirmed       []Utxo
	WeaklyConfirmed   []Utxo
	DeeplyConfirmed   []Utxo
	LockedUntilRefund []Utxo
	ReadyForRefund    []Utxo
}

// Classify splits the outputs by confirmation depth. Only swap-in outputs
// past MaxConfirmations are moved to the refund buckets: final wallet outputs
// stay deeply confirmed forever.
func (p ConfirmationPolicy) Classify(kind WalletKind, tip uint32, utxos []Utxo) WalletBalance {
	balance := WalletBalance{Kind: kind, Tip: tip}
	for _, utxo := range utxos {
		confirmations := utxo.Confirmations(tip)
		switch {
		case confirmations == 0:
			balance.Unconfirmed = append(balance.Unconfirmed, utxo)
		case confirmations < p.MinConfirmations:
			balance.WeaklyConfirmed = append(balance.WeaklyConfirmed, utxo)
		case kind != SwapInWallet || confirmations < p.MaxConfirmations:
			balance.DeeplyConfirmed = append(balance.DeeplyConfirmed, utxo)
		case confirmations < p.RefundDelay:
			balance.LockedUntilRefund = append(balance.LockedUntilRefund, utxo)
		default:
			balance.ReadyForRefund = append(balance.ReadyForRefund, utxo)
		}
	}
	return balance
}

func sumUtxos(utxos []Utxo) btcutil.Amount {
	var total btcutil.Amount
	for _, u := range utxos {
		total += u.Amount
	}
	return total
}

func (b WalletBalance) Total() btcutil.Amount {
	return sumUtxos(b.Unconfirmed) + sumUtxos(b.WeaklyConfirmed) + sumUtxos(b.DeeplyConfirmed) +
		sumUtxos(b.LockedUntilRefund) + sumUtxos(b.ReadyForRefund)
}

// Usable is the amount that can be spent or swapped right now.
func (b WalletBalance) Usable() btcutil.Amount {
	return sumUtxos(b.DeeplyConfirmed)
}
