package domain

import (
	"context"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/lightningnetwork/lnd/lnwire"
)

type ChannelState string

const (
	ChannelNormal                  ChannelState = "Normal"
	ChannelOffline                 ChannelState = "Offline"
	ChannelSyncing                 ChannelState = "Syncing"
	ChannelWaitForFundingConfirmed ChannelState = "WaitForFundingConfirmed"
	ChannelWaitForChannelReady     ChannelState = "WaitForChannelReady"
	ChannelShuttingDown            ChannelState = "ShuttingDown"
	ChannelNegotiating             ChannelState = "Negotiating"
	ChannelClosing                 ChannelState = "Closing"
	ChannelClosed                  ChannelState = "Closed"
	ChannelAborted                 ChannelState = "Aborted"
)

// IsTerminated tells whether the channel can no longer be used nor come back.
func (s ChannelState) IsTerminated() bool {
	return s == ChannelClosed || s == ChannelAborted
}

type CommitmentInfo struct {
	FundingTxId    chainhash.Hash
	FundingTxIndex uint64
	BalanceForSend lnwire.MilliSatoshi
	FundingAmount  btcutil.Amount
}

// ChannelSnapshot is the state of a channel as reported by the peer.
type ChannelSnapshot struct {
	ChannelId           string
	State               ChannelState
	LocalBalance        *lnwire.MilliSatoshi
	Commitments         []CommitmentInfo
	InactiveCommitments []CommitmentInfo
}

// LocalChannelInfo is a channel snapshot as exposed to readers. IsBooting is
// set only for snapshots restored from storage before the peer delivered a
// fresh state.
type LocalChannelInfo struct {
	ChannelSnapshot
	IsBooting bool
}

func NewLocalChannelInfo(snapshot ChannelSnapshot, isBooting bool) LocalChannelInfo {
	return LocalChannelInfo{
		ChannelSnapshot: cloneSnapshot(snapshot),
		IsBooting:       isBooting,
	}
}

func cloneSnapshot(s ChannelSnapshot) ChannelSnapshot {
	clone := s
	if s.LocalBalance != nil {
		balance := *s.LocalBalance
		clone.LocalBalance = &balance
	}
	clone.Commitments = append([]CommitmentInfo(nil), s.Commitments...)
	clone.InactiveCommitments = append([]CommitmentInfo(nil), s.InactiveCommitments...)
	return clone
}

// ChannelRepository keeps the last known snapshot of every channel so that it
// can be served while the peer is not connected yet.
type ChannelRepository interface {
	// SaveChannels replaces every stored snapshot with the given ones.
	SaveChannels(ctx context.Context, channels []ChannelSnapshot) error
	ListChannels(ctx context.Context) ([]ChannelSnapshot, error)
	Close()
}

type ConnectionState int

const (
	ConnectionClosed ConnectionState = iota
	ConnectionEstablishing
	ConnectionEstablished
)

func (s ConnectionState) String() string {
	switch s {
	case ConnectionClosed:
		return "closed"
	case ConnectionEstablishing:
		return "establishing"
	case ConnectionEstablished:
		return "established"
	default:
		return "unknown"
	}
}

// MayDoPayments is true if the peer connection is established and every
// channel that is not terminated is in the Normal state.
func MayDoPayments(connection ConnectionState, channels []LocalChannelInfo) bool {
	if connection != ConnectionEstablished {
		return false
	}
	for _, ch := range channels {
		if ch.State.IsTerminated() {
			continue
		}
		if ch.State != ChannelNormal {
			return false
		}
	}
	return true
}
