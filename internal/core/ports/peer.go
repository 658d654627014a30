package ports

import (
	"context"
	"time"

	"github.com/ArkLabsHQ/lightwallet/internal/core/domain"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// PeerEvent is one of ConnectionChanged, ChannelsUpdated, ChainTipUpdated,
// WalletUtxosUpdated, TxConfirmed or LiquidityProposed.
type PeerEvent interface {
	isPeerEvent()
}

type ConnectionChanged struct {
	State domain.ConnectionState
}

// ChannelsUpdated carries the full set of channels known by the peer.
type ChannelsUpdated struct {
	Channels []domain.ChannelSnapshot
}

type ChainTipUpdated struct {
	Height uint32
}

// WalletUtxosUpdated carries the full set of unspent outputs of a wallet.
type WalletUtxosUpdated struct {
	Wallet domain.WalletKind
	Utxos  []domain.Utxo
}

type TxConfirmed struct {
	TxId        chainhash.Hash
	BlockHeight uint32
	ConfirmedAt time.Time
}

// LiquidityProposed is emitted when the peer offers to open or splice a
// channel for a fee.
type LiquidityProposed struct {
	Proposal domain.LiquidityProposal
}

func (ConnectionChanged) isPeerEvent()  {}
func (ChannelsUpdated) isPeerEvent()    {}
func (ChainTipUpdated) isPeerEvent()    {}
func (WalletUtxosUpdated) isPeerEvent() {}
func (TxConfirmed) isPeerEvent()        {}
func (LiquidityProposed) isPeerEvent()  {}

// PeerEventSource is the stream of events emitted by the peer connection and
// the blockchain watcher.
type PeerEventSource interface {
	// Events returns a channel closed when ctx is done.
	Events(ctx context.Context) <-chan PeerEvent
}
