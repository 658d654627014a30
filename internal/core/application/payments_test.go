package application

import (
	"context"
	"testing"
	"time"

	"github.com/ArkLabsHQ/lightwallet/internal/core/domain"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/google/uuid"
	"github.com/lightningnetwork/lnd/lntypes"
	"github.com/lightningnetwork/lnd/lnwire"
	"github.com/stretchr/testify/require"
)

const testInvoice = "lnbc2500u1pvjluezpp5qqqsyqcyq5rqwzqfqqqsyqcyq5rqwzqfqqqsyqcyq5rqwzqfqypqdq5xysxxatsyp3k7enxv4jsxqzpuaztrnwngzn3kdzw5hydlzf03qdgm2hdq27cqv3agm2awhz5se903vruatfhq77w3ls4evs3ch9zw97j25emudupq63nyw24cg27h2rspfj9srp"

func newInvoiceOrigin(createdAt time.Time, expiry time.Duration) domain.InvoiceOrigin {
	amount := lnwire.MilliSatoshi(100_000)
	return domain.InvoiceOrigin{
		PaymentRequest: "lnbc1test",
		Amount:         &amount,
		Timestamp:      createdAt,
		Expiry:         expiry,
	}
}

func TestPaymentsManager(t *testing.T) {
	ctx := context.Background()

	t.Run("invoice must match preimage", func(t *testing.T) {
		app, _ := newTestApp(t, Settings{})
		manager := NewPaymentsManager(app, newFakeScheduler())

		_, err := manager.AddInvoicePayment(ctx, randomPreimage(t), testInvoice)
		require.ErrorContains(t, err, "does not match preimage")

		_, err = manager.AddInvoicePayment(ctx, randomPreimage(t), "not an invoice")
		require.Error(t, err)
	})

	t.Run("receive", func(t *testing.T) {
		app, clk := newTestApp(t, Settings{})
		manager := NewPaymentsManager(app, newFakeScheduler())

		subCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		recent := manager.SubscribeRecentPayments(subCtx)
		require.Empty(t, <-recent)

		preimage := randomPreimage(t)
		payment, err := manager.AddIncomingPayment(ctx, preimage, newInvoiceOrigin(clk.Now(), time.Hour))
		require.NoError(t, err)
		require.Equal(t, preimage.Hash(), payment.PaymentHash)
		require.Nil(t, payment.Received)

		_, err = manager.AddIncomingPayment(ctx, preimage, domain.KeySendOrigin{})
		require.ErrorIs(t, err, domain.ErrDuplicatePaymentHash)

		// Not received yet, so not listed.
		require.Empty(t, manager.RecentPayments())

		parts := []domain.ReceivedWith{
			domain.ReceivedLightning{Amount: 60_000, ChannelId: "chan", HtlcId: 1},
			domain.ReceivedLightning{Amount: 40_000, ChannelId: "chan", HtlcId: 2},
		}
		ok, err := manager.ReceivePayment(ctx, payment.PaymentHash, parts)
		require.NoError(t, err)
		require.True(t, ok)

		got, err := manager.GetIncomingPayment(ctx, payment.PaymentHash)
		require.NoError(t, err)
		require.NotNil(t, got.Received)
		require.Equal(t, lnwire.MilliSatoshi(100_000), got.Amount())

		select {
		case payments := <-recent:
			require.Len(t, payments, 1)
			require.Equal(t, got.PaymentId(), payments[0].PaymentId())
		case <-time.After(time.Second):
			t.Fatal("recent payments not updated")
		}

		ok, err = manager.ReceivePayment(ctx, lntypes.Hash{1}, parts)
		require.NoError(t, err)
		require.False(t, ok)
	})

	t.Run("outgoing", func(t *testing.T) {
		app, clk := newTestApp(t, Settings{})
		manager := NewPaymentsManager(app, newFakeScheduler())

		preimage := randomPreimage(t)
		payment := domain.LightningOutgoingPayment{
			Id:              uuid.New(),
			RecipientAmount: 50_000,
			Recipient:       "02recipient",
			Details:         domain.NormalDetails{Hash: preimage.Hash(), PaymentRequest: "lnbc1test"},
			Status:          domain.OutgoingPending{},
			Created:         clk.Now(),
		}
		require.NoError(t, manager.AddOutgoingPayment(ctx, payment))
		require.ErrorIs(t, manager.AddOutgoingPayment(ctx, payment), domain.ErrDuplicatePaymentId)

		failed := domain.LightningOutgoingPart{
			Id: uuid.New(), Amount: 51_000, Route: "r1", Status: domain.PartPending{}, CreatedAt: clk.Now(),
		}
		succeeded := domain.LightningOutgoingPart{
			Id: uuid.New(), Amount: 51_000, Route: "r2", Status: domain.PartPending{}, CreatedAt: clk.Now(),
		}
		require.NoError(t, manager.AddOutgoingParts(ctx, payment.Id, []domain.LightningOutgoingPart{failed}))
		require.NoError(t, manager.AddOutgoingParts(ctx, payment.Id, []domain.LightningOutgoingPart{succeeded}))

		ok, err := manager.CompleteOutgoingPart(ctx, failed.Id, domain.PartFailedOutcome{Code: 1, Message: "no route"})
		require.NoError(t, err)
		require.True(t, ok)
		ok, err = manager.CompleteOutgoingPart(ctx, succeeded.Id, domain.PartSucceededOutcome{Preimage: preimage})
		require.NoError(t, err)
		require.True(t, ok)

		ok, err = manager.CompleteOutgoingPaymentOffchain(ctx, payment.Id, domain.OffchainSucceeded{Preimage: preimage})
		require.NoError(t, err)
		require.True(t, ok)

		// Terminal payments are left untouched.
		ok, err = manager.CompleteOutgoingPaymentOffchain(ctx, payment.Id, domain.OffchainFailed{})
		require.NoError(t, err)
		require.False(t, ok)

		got, err := manager.GetLightningOutgoingPayment(ctx, payment.Id)
		require.NoError(t, err)
		require.IsType(t, domain.OutgoingSucceededOffChain{}, got.Status)
		require.Len(t, got.Parts, 1)
		require.Equal(t, succeeded.Id, got.Parts[0].Id)

		// Failed parts are hidden once the payment succeeded.
		fromPart, err := manager.GetLightningOutgoingPaymentFromPartId(ctx, failed.Id)
		require.NoError(t, err)
		require.Nil(t, fromPart)

		fromPart, err = manager.GetLightningOutgoingPaymentFromPartId(ctx, succeeded.Id)
		require.NoError(t, err)
		require.NotNil(t, fromPart)
		require.Equal(t, payment.Id, fromPart.Id)

		all, err := manager.ListOutgoingLightningParts(ctx, payment.Id)
		require.NoError(t, err)
		require.Len(t, all, 2)

		require.Len(t, manager.RecentPayments(), 1)
	})

	t.Run("tx confirmation", func(t *testing.T) {
		app, clk := newTestApp(t, Settings{})
		manager := NewPaymentsManager(app, newFakeScheduler())

		txId := randomTxId(t)
		preimage := randomPreimage(t)
		payment, err := manager.AddIncomingPayment(ctx, preimage, domain.KeySendOrigin{})
		require.NoError(t, err)
		ok, err := manager.ReceivePayment(ctx, payment.PaymentHash, []domain.ReceivedWith{
			domain.ReceivedNewChannel{
				Id: uuid.New(), Amount: 1_000_000, ServiceFee: 1_000, MiningFee: 200,
				ChannelId: "chan", TxId: txId,
			},
		})
		require.NoError(t, err)
		require.True(t, ok)

		onchain := domain.OnChainOutgoingPayment{
			Id: uuid.New(), Kind: domain.SpliceOut, RecipientAmount: 10_000, Address: "bc1qaddr",
			MiningFees: 300, TxId: randomTxId(t), ChannelId: "chan", Created: clk.Now(),
		}
		require.NoError(t, manager.AddOnChainOutgoingPayment(ctx, onchain))

		txIds, err := manager.ListUnconfirmedTxIds(ctx)
		require.NoError(t, err)
		require.ElementsMatch(t, []chainhash.Hash{txId, onchain.TxId}, txIds)

		confirmedAt := clk.Now().Add(time.Minute)
		count, err := manager.OnTxConfirmed(ctx, txId, confirmedAt)
		require.NoError(t, err)
		require.Equal(t, 1, count)

		// Confirmation is applied once.
		count, err = manager.OnTxConfirmed(ctx, txId, confirmedAt.Add(time.Minute))
		require.NoError(t, err)
		require.Zero(t, count)

		got, err := manager.GetIncomingPayment(ctx, payment.PaymentHash)
		require.NoError(t, err)
		part := got.Received.ReceivedWith[0].(domain.ReceivedNewChannel)
		require.NotNil(t, part.ConfirmedAt)
		require.True(t, part.ConfirmedAt.Equal(confirmedAt))
		require.Nil(t, part.LockedAt)
		require.True(t, got.CompletedAt().IsZero())

		count, err = manager.OnTxLocked(ctx, txId)
		require.NoError(t, err)
		require.Equal(t, 1, count)
		got, err = manager.GetIncomingPayment(ctx, payment.PaymentHash)
		require.NoError(t, err)
		require.False(t, got.CompletedAt().IsZero())

		txIds, err = manager.ListUnconfirmedTxIds(ctx)
		require.NoError(t, err)
		require.Equal(t, []chainhash.Hash{onchain.TxId}, txIds)

		count, err = manager.OnTxConfirmed(ctx, onchain.TxId, confirmedAt)
		require.NoError(t, err)
		require.Equal(t, 1, count)
		gotOnchain, err := manager.GetOnChainOutgoingPayment(ctx, onchain.Id)
		require.NoError(t, err)
		require.NotNil(t, gotOnchain.ConfirmedAt)
	})

	t.Run("purge expired", func(t *testing.T) {
		app, clk := newTestApp(t, Settings{PurgeInterval: time.Hour})
		scheduler := newFakeScheduler()
		manager := NewPaymentsManager(app, scheduler)

		expired, err := manager.AddIncomingPayment(
			ctx, randomPreimage(t), newInvoiceOrigin(clk.Now().Add(-2*time.Hour), time.Hour),
		)
		require.NoError(t, err)
		valid, err := manager.AddIncomingPayment(
			ctx, randomPreimage(t), newInvoiceOrigin(clk.Now(), time.Hour),
		)
		require.NoError(t, err)
		keysend, err := manager.AddIncomingPayment(ctx, randomPreimage(t), domain.KeySendOrigin{})
		require.NoError(t, err)

		require.NoError(t, manager.StartPurgeJob())
		require.True(t, scheduler.run(purgeTaskName))

		got, err := manager.GetIncomingPayment(ctx, expired.PaymentHash)
		require.NoError(t, err)
		require.Nil(t, got)
		for _, hash := range []lntypes.Hash{valid.PaymentHash, keysend.PaymentHash} {
			got, err := manager.GetIncomingPayment(ctx, hash)
			require.NoError(t, err)
			require.NotNil(t, got)
		}

		removed, err := manager.PurgeExpired(ctx)
		require.NoError(t, err)
		require.Zero(t, removed)

		clk.SetTime(clk.Now().Add(2 * time.Hour))
		removed, err = manager.PurgeExpired(ctx)
		require.NoError(t, err)
		require.Equal(t, 1, removed)

		got, err = manager.GetIncomingPayment(ctx, valid.PaymentHash)
		require.NoError(t, err)
		require.Nil(t, got)

		manager.StopPurgeJob()
		require.False(t, scheduler.run(purgeTaskName))
	})
}
