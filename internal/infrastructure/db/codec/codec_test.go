package codec_test

import (
	"testing"
	"time"

	"github.com/ArkLabsHQ/lightwallet/internal/core/domain"
	"github.com/ArkLabsHQ/lightwallet/internal/infrastructure/db/codec"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/google/uuid"
	"github.com/lightningnetwork/lnd/lntypes"
	"github.com/lightningnetwork/lnd/lnwire"
	"github.com/stretchr/testify/require"
)

var (
	txId, _ = chainhash.NewHashFromStr("bb1c7a3e4d0c5d3fa0e3c2a7e3be1c0f4a4a7fd1a1e8a0b7c2d0d3b5f2efcd01")
	now     = time.UnixMilli(time.Now().UnixMilli())
)

func TestOrigin(t *testing.T) {
	t.Run("legacy invoice", func(t *testing.T) {
		blob := []byte(`{"request":"lnbc1legacy","expiry":600}`)
		origin, err := codec.DecodeOrigin(codec.OriginInvoiceV0, blob, now)
		require.NoError(t, err)

		invoice, ok := origin.(domain.InvoiceOrigin)
		require.True(t, ok)
		require.Equal(t, "lnbc1legacy", invoice.PaymentRequest)
		require.Nil(t, invoice.Amount)
		require.Equal(t, now, invoice.Timestamp)
		require.Equal(t, now.Add(10*time.Minute), invoice.ExpiresAt())
	})

	t.Run("legacy invoice without expiry", func(t *testing.T) {
		origin, err := codec.DecodeOrigin(codec.OriginInvoiceV0, []byte(`{"request":"lnbc1"}`), now)
		require.NoError(t, err)
		require.Equal(t, now.Add(domain.DefaultInvoiceExpiry), origin.(domain.InvoiceOrigin).ExpiresAt())
	})

	t.Run("invoice is written with latest format", func(t *testing.T) {
		amount := lnwire.MilliSatoshi(150_000)
		origin := domain.InvoiceOrigin{
			PaymentRequest: "lnbc1500n1",
			Amount:         &amount,
			Timestamp:      now,
			Expiry:         time.Hour,
		}
		typ, blob, err := codec.EncodeOrigin(origin)
		require.NoError(t, err)
		require.Equal(t, codec.OriginInvoiceV1, typ)

		decoded, err := codec.DecodeOrigin(typ, blob, time.Time{})
		require.NoError(t, err)
		require.Equal(t, origin, decoded)
	})

	t.Run("onchain", func(t *testing.T) {
		origin := domain.OnChainOrigin{
			TxId:        *txId,
			LocalInputs: []wire.OutPoint{{Hash: *txId, Index: 3}},
		}
		typ, blob, err := codec.EncodeOrigin(origin)
		require.NoError(t, err)

		decoded, err := codec.DecodeOrigin(typ, blob, now)
		require.NoError(t, err)
		require.Equal(t, origin, decoded)
	})

	t.Run("unknown", func(t *testing.T) {
		_, err := codec.DecodeOrigin("LNURL_V9", []byte(`{}`), now)
		require.ErrorIs(t, err, domain.ErrUnknownEncoding)

		_, err = codec.DecodeOrigin(codec.OriginSwapInV0, []byte(`not json`), now)
		require.ErrorIs(t, err, domain.ErrUnknownEncoding)
	})
}

func TestReceivedWith(t *testing.T) {
	t.Run("legacy multiparts", func(t *testing.T) {
		id := uuid.New()
		blob := []byte(`[
			{"type":"lightning","amount":100,"fees":0,"channel_id":"chan1","htlc_id":7},
			{"type":"new_channel","amount":50000,"fees":1200,"channel_id":"chan2","id":"` + id.String() + `","txid":"` + txId.String() + `"}
		]`)
		parts, err := codec.DecodeReceivedWith(codec.ReceivedMultipartsV0, blob)
		require.NoError(t, err)
		require.Len(t, parts, 2)

		require.Equal(t, domain.ReceivedLightning{
			Amount: 100_000, ChannelId: "chan1", HtlcId: 7,
		}, parts[0])

		newChannel, ok := parts[1].(domain.ReceivedNewChannel)
		require.True(t, ok)
		require.Equal(t, id, newChannel.Id)
		require.Equal(t, lnwire.MilliSatoshi(50_000_000), newChannel.Amount)
		require.Equal(t, lnwire.MilliSatoshi(1_200_000), newChannel.Fees())
		require.Nil(t, newChannel.ConfirmedAt)
	})

	t.Run("round trip", func(t *testing.T) {
		parts := []domain.ReceivedWith{
			domain.ReceivedLightning{Amount: 1_000, ChannelId: "chan", HtlcId: 1},
			domain.ReceivedSpliceIn{
				Id:          uuid.New(),
				Amount:      2_000_000,
				ServiceFee:  3_000,
				MiningFee:   250,
				ChannelId:   "chan",
				TxId:        *txId,
				ConfirmedAt: &now,
			},
		}
		typ, blob, err := codec.EncodeReceivedWith(parts)
		require.NoError(t, err)
		require.Equal(t, codec.ReceivedMultipartsV1, typ)

		decoded, err := codec.DecodeReceivedWith(typ, blob)
		require.NoError(t, err)
		require.Equal(t, parts, decoded)
	})

	t.Run("bad part fails whole record", func(t *testing.T) {
		blob := []byte(`[{"type":"splice_in","amount_msat":1,"id":"nope","txid":"` + txId.String() + `"}]`)
		_, err := codec.DecodeReceivedWith(codec.ReceivedMultipartsV1, blob)
		require.ErrorIs(t, err, domain.ErrUnknownEncoding)
	})
}

func TestOutgoing(t *testing.T) {
	preimage := lntypes.Preimage{1, 2, 3}

	details := []domain.LightningOutgoingDetails{
		domain.NormalDetails{PaymentRequest: "lnbc1", Hash: preimage.Hash()},
		domain.KeySendDetails{Preimage: preimage},
		domain.SwapOutDetails{Address: "bc1qaddr", PaymentRequest: "lnbc2", Hash: preimage.Hash(), SwapOutFee: 500},
		domain.ChannelClosingDetails{ChannelId: "chan", ClosingAddress: "bc1qclose", IsSentToDefaultAddress: true},
	}
	for _, d := range details {
		typ, blob, err := codec.EncodeDetails(d)
		require.NoError(t, err)
		decoded, err := codec.DecodeDetails(typ, blob)
		require.NoError(t, err)
		require.Equal(t, d, decoded)
	}

	statuses := []domain.LightningOutgoingStatus{
		domain.OutgoingPending{},
		domain.OutgoingSucceededOffChain{Preimage: preimage, CompletedAt: now},
		domain.OutgoingSucceededOnChain{
			Parts: []domain.ClosingTxPart{
				{TxId: *txId, Claimed: 10_000, ClosingType: domain.ClosingMutual, CreatedAt: now},
			},
			CompletedAt: now,
		},
		domain.OutgoingFailed{Reason: domain.FailureRecipientUnreachable, CompletedAt: now},
	}
	for _, s := range statuses {
		typ, blob, err := codec.EncodeStatus(s)
		require.NoError(t, err)
		decoded, err := codec.DecodeStatus(typ, blob, now)
		require.NoError(t, err)
		require.Equal(t, s, decoded)
	}

	partStatuses := []domain.PartStatus{
		domain.PartPending{},
		domain.PartSucceeded{Preimage: preimage, CompletedAt: now},
		domain.PartFailed{Code: 15, Message: "temporary channel failure", CompletedAt: now},
	}
	for _, s := range partStatuses {
		typ, blob, err := codec.EncodePartStatus(s)
		require.NoError(t, err)
		decoded, err := codec.DecodePartStatus(typ, blob, now)
		require.NoError(t, err)
		require.Equal(t, s, decoded)
	}
}

func TestChannel(t *testing.T) {
	balance := lnwire.MilliSatoshi(42_000)
	snapshot := domain.ChannelSnapshot{
		ChannelId:    "chan",
		State:        domain.ChannelNormal,
		LocalBalance: &balance,
		Commitments: []domain.CommitmentInfo{
			{FundingTxId: *txId, FundingTxIndex: 1, BalanceForSend: 42_000, FundingAmount: 100_000},
		},
		InactiveCommitments: []domain.CommitmentInfo{
			{FundingTxId: *txId, FundingTxIndex: 0, BalanceForSend: 10_000, FundingAmount: 50_000},
		},
	}
	typ, blob, err := codec.EncodeChannel(snapshot)
	require.NoError(t, err)

	decoded, err := codec.DecodeChannel("chan", typ, blob)
	require.NoError(t, err)
	require.Equal(t, snapshot, *decoded)
}
