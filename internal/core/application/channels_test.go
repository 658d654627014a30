package application

import (
	"context"
	"testing"
	"time"

	"github.com/ArkLabsHQ/lightwallet/internal/core/domain"
	"github.com/ArkLabsHQ/lightwallet/internal/core/ports"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/google/uuid"
	"github.com/lightningnetwork/lnd/lnwire"
	"github.com/stretchr/testify/require"
)

func newSnapshot(id string, state domain.ChannelState) domain.ChannelSnapshot {
	balance := lnwire.MilliSatoshi(500_000)
	return domain.ChannelSnapshot{
		ChannelId:    id,
		State:        state,
		LocalBalance: &balance,
	}
}

// waitChannels returns the first channels value matching fn.
func waitChannels(
	t *testing.T, ch <-chan []domain.LocalChannelInfo, fn func([]domain.LocalChannelInfo) bool,
) []domain.LocalChannelInfo {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case channels := <-ch:
			if fn(channels) {
				return channels
			}
		case <-timeout:
			t.Fatal("channels not updated")
			return nil
		}
	}
}

func TestChannelProjector(t *testing.T) {
	ctx := context.Background()

	t.Run("boot then live", func(t *testing.T) {
		app, _ := newTestApp(t, Settings{})
		stored := []domain.ChannelSnapshot{
			newSnapshot("b", domain.ChannelNormal),
			newSnapshot("a", domain.ChannelNormal),
		}
		require.NoError(t, app.Repos.Channels().SaveChannels(ctx, stored))

		events := newFakeEvents()
		projector := NewChannelProjector(app, events, nil, nil)
		require.NoError(t, projector.Start(ctx))
		require.NoError(t, projector.Start(ctx))
		t.Cleanup(projector.Stop)

		channels := projector.Channels()
		require.Len(t, channels, 2)
		require.Equal(t, "a", channels[0].ChannelId)
		for _, ch := range channels {
			require.True(t, ch.IsBooting)
		}
		require.False(t, projector.MayDoPayments())

		subCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		sub := projector.SubscribeChannels(subCtx)

		events.ch <- ports.ConnectionChanged{State: domain.ConnectionEstablished}
		require.Eventually(t, projector.MayDoPayments, 2*time.Second, 10*time.Millisecond)

		events.ch <- ports.ChannelsUpdated{Channels: []domain.ChannelSnapshot{
			newSnapshot("a", domain.ChannelNormal),
			newSnapshot("c", domain.ChannelSyncing),
		}}
		live := waitChannels(t, sub, func(c []domain.LocalChannelInfo) bool {
			return len(c) == 2 && c[1].ChannelId == "c"
		})
		for _, ch := range live {
			require.False(t, ch.IsBooting)
		}
		require.Eventually(t, func() bool {
			return !projector.MayDoPayments()
		}, 2*time.Second, 10*time.Millisecond)

		require.Eventually(t, func() bool {
			saved, err := app.Repos.Channels().ListChannels(ctx)
			return err == nil && len(saved) == 2
		}, 2*time.Second, 10*time.Millisecond)

		// Once live, the stored snapshots are never served again.
		projector.emitBoot(stored)
		for _, ch := range projector.Channels() {
			require.False(t, ch.IsBooting)
		}

		events.ch <- ports.ChannelsUpdated{Channels: []domain.ChannelSnapshot{
			newSnapshot("a", domain.ChannelNormal),
			newSnapshot("c", domain.ChannelClosed),
		}}
		require.Eventually(t, projector.MayDoPayments, 2*time.Second, 10*time.Millisecond)

		events.ch <- ports.ConnectionChanged{State: domain.ConnectionClosed}
		require.Eventually(t, func() bool {
			return projector.Connection() == domain.ConnectionClosed && !projector.MayDoPayments()
		}, 2*time.Second, 10*time.Millisecond)
	})

	t.Run("wallet balances", func(t *testing.T) {
		app, _ := newTestApp(t, Settings{ConfirmationPolicy: domain.ConfirmationPolicy{
			MinConfirmations: 3, MaxConfirmations: 10, RefundDelay: 20,
		}})
		events := newFakeEvents()
		projector := NewChannelProjector(app, events, nil, nil)
		require.NoError(t, projector.Start(ctx))
		t.Cleanup(projector.Stop)

		utxos := []domain.Utxo{
			{Amount: 1_000, BlockHeight: 0},
			{Amount: 2_000, BlockHeight: 99},
			{Amount: 3_000, BlockHeight: 95},
			{Amount: 4_000, BlockHeight: 85},
			{Amount: 5_000, BlockHeight: 70},
		}
		events.ch <- ports.WalletUtxosUpdated{Wallet: domain.SwapInWallet, Utxos: utxos}
		events.ch <- ports.WalletUtxosUpdated{Wallet: domain.FinalWallet, Utxos: utxos}
		events.ch <- ports.ChainTipUpdated{Height: 100}

		require.Eventually(t, func() bool {
			return projector.WalletBalance(domain.SwapInWallet).Tip == 100
		}, 2*time.Second, 10*time.Millisecond)
		require.Equal(t, uint32(100), projector.ChainTip())

		swapIn := projector.WalletBalance(domain.SwapInWallet)
		require.Len(t, swapIn.Unconfirmed, 1)
		require.Len(t, swapIn.WeaklyConfirmed, 1)
		require.Len(t, swapIn.DeeplyConfirmed, 1)
		require.Len(t, swapIn.LockedUntilRefund, 1)
		require.Len(t, swapIn.ReadyForRefund, 1)
		require.EqualValues(t, 3_000, swapIn.Usable())
		require.EqualValues(t, 15_000, swapIn.Total())

		final := projector.WalletBalance(domain.FinalWallet)
		require.Len(t, final.DeeplyConfirmed, 3)
		require.Empty(t, final.ReadyForRefund)
		require.EqualValues(t, 12_000, final.Usable())
	})

	t.Run("tx events update payments", func(t *testing.T) {
		app, _ := newTestApp(t, Settings{})
		payments := NewPaymentsManager(app, newFakeScheduler())
		events := newFakeEvents()
		projector := NewChannelProjector(app, events, payments, nil)
		require.NoError(t, projector.Start(ctx))
		t.Cleanup(projector.Stop)

		txId := randomTxId(t)
		payment, err := payments.AddIncomingPayment(ctx, randomPreimage(t), domain.KeySendOrigin{})
		require.NoError(t, err)
		_, err = payments.ReceivePayment(ctx, payment.PaymentHash, []domain.ReceivedWith{
			domain.ReceivedNewChannel{Id: uuid.New(), Amount: 1_000_000, ChannelId: "a", TxId: txId},
		})
		require.NoError(t, err)

		events.ch <- ports.TxConfirmed{TxId: txId, BlockHeight: 100, ConfirmedAt: app.Clock.Now()}
		require.Eventually(t, func() bool {
			got, err := payments.GetIncomingPayment(ctx, payment.PaymentHash)
			require.NoError(t, err)
			return got.Received.ReceivedWith[0].(domain.ReceivedNewChannel).ConfirmedAt != nil
		}, 2*time.Second, 10*time.Millisecond)

		snapshot := newSnapshot("a", domain.ChannelNormal)
		snapshot.Commitments = []domain.CommitmentInfo{{FundingTxId: txId, FundingAmount: 1_000}}
		events.ch <- ports.ChannelsUpdated{Channels: []domain.ChannelSnapshot{snapshot}}
		require.Eventually(t, func() bool {
			got, err := payments.GetIncomingPayment(ctx, payment.PaymentHash)
			require.NoError(t, err)
			return !got.CompletedAt().IsZero()
		}, 2*time.Second, 10*time.Millisecond)
	})

	t.Run("liquidity proposals", func(t *testing.T) {
		app, _ := newTestApp(t, Settings{
			LiquidityPolicy: domain.LiquidityPolicyAuto{MaxAbsoluteFee: 5_000, MaxRelativeFeeBasisPoints: 100},
		})
		sink := &fakeSink{}
		events := newFakeEvents()
		projector := NewChannelProjector(app, events, nil, NewLiquidityGate(app, sink))
		require.NoError(t, projector.Start(ctx))
		t.Cleanup(projector.Stop)

		events.ch <- ports.LiquidityProposed{Proposal: domain.LiquidityProposal{Amount: 1_000_000, Fee: 4_000}}
		events.ch <- ports.LiquidityProposed{Proposal: domain.LiquidityProposal{Amount: 1_000_000, Fee: 6_000}}
		require.Eventually(t, func() bool {
			return len(sink.list()) == 1
		}, 2*time.Second, 10*time.Millisecond)

		notification := sink.list()[0]
		require.Equal(t, domain.NotificationLiquidityRejected, notification.Kind)
		require.Equal(t, domain.RejectedOverAbsolute, notification.Reason)
		require.Equal(t, btcutil.Amount(6_000), notification.Fee)
	})

	t.Run("idle loop heartbeats", func(t *testing.T) {
		app, clk := newTestApp(t, Settings{})
		projector := NewChannelProjector(app, newFakeEvents(), nil, nil)
		require.NoError(t, projector.Start(ctx))
		t.Cleanup(projector.Stop)

		require.Eventually(t, func() bool {
			return !lastHeartbeat(app, channelProjectorTask).IsZero()
		}, 2*time.Second, 10*time.Millisecond)
		since := lastHeartbeat(app, channelProjectorTask)
		time.Sleep(20 * time.Millisecond)

		require.Eventually(t, func() bool {
			clk.SetTime(clk.Now().Add(idleHeartbeat))
			return lastHeartbeat(app, channelProjectorTask).After(since)
		}, 2*time.Second, 10*time.Millisecond)
	})
}
