package application

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ArkLabsHQ/lightwallet/internal/core/domain"
	"github.com/ArkLabsHQ/lightwallet/internal/core/ports"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type fakeChain struct {
	mu     sync.Mutex
	height uint32
	utxos  map[string][]domain.Utxo
	status map[chainhash.Hash]*ports.TxStatus
	err    error
}

func (c *fakeChain) GetBlockHeight(context.Context) (uint32, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return 0, c.err
	}
	return c.height, nil
}

func (c *fakeChain) GetAddressUtxos(_ context.Context, address string) ([]domain.Utxo, error) {
	return c.utxos[address], nil
}

func (c *fakeChain) GetTxStatus(_ context.Context, txId chainhash.Hash) (*ports.TxStatus, error) {
	return c.status[txId], nil
}

func TestChainPoller(t *testing.T) {
	ctx := context.Background()
	app, clk := newTestApp(t, Settings{
		FinalAddresses:    []string{"final1", "final2"},
		ChainPollInterval: time.Minute,
	})
	payments := NewPaymentsManager(app, newFakeScheduler())

	confirmedTx, pendingTx := randomTxId(t), randomTxId(t)
	for _, txId := range []chainhash.Hash{confirmedTx, pendingTx} {
		payment, err := payments.AddIncomingPayment(ctx, randomPreimage(t), domain.KeySendOrigin{})
		require.NoError(t, err)
		_, err = payments.ReceivePayment(ctx, payment.PaymentHash, []domain.ReceivedWith{
			domain.ReceivedSpliceIn{Id: uuid.New(), Amount: 10_000, ChannelId: "a", TxId: txId},
		})
		require.NoError(t, err)
	}

	chain := &fakeChain{
		height: 100,
		utxos: map[string][]domain.Utxo{
			"final1": {{Amount: 1_000, BlockHeight: 90}},
			"final2": {{Amount: 2_000}},
		},
		status: map[chainhash.Hash]*ports.TxStatus{
			confirmedTx: {Confirmed: true, BlockHeight: 99, BlockTime: 1_700_000_000},
			pendingTx:   {},
		},
	}
	events := newFakeEvents()
	poller := NewChainPoller(app, chain, payments, events)

	t.Run("poll", func(t *testing.T) {
		require.NoError(t, poller.Poll(ctx))

		published := events.list()
		require.Len(t, published, 3)
		require.Equal(t, ports.ChainTipUpdated{Height: 100}, published[0])

		utxos, ok := published[1].(ports.WalletUtxosUpdated)
		require.True(t, ok)
		require.Equal(t, domain.FinalWallet, utxos.Wallet)
		require.Len(t, utxos.Utxos, 2)

		confirmed, ok := published[2].(ports.TxConfirmed)
		require.True(t, ok)
		require.Equal(t, confirmedTx, confirmed.TxId)
		require.Equal(t, uint32(99), confirmed.BlockHeight)
		require.True(t, confirmed.ConfirmedAt.Equal(time.Unix(1_700_000_000, 0)))

		// An unchanged tip is not published again.
		require.NoError(t, poller.Poll(ctx))
		require.Len(t, events.list(), 5)
	})

	t.Run("chain failure", func(t *testing.T) {
		chain.err = errors.New("connection refused")
		defer func() { chain.err = nil }()
		require.ErrorContains(t, poller.Poll(ctx), "connection refused")
	})

	t.Run("feeds the projector", func(t *testing.T) {
		events := newFakeEvents()
		projector := NewChannelProjector(app, events, payments, nil)
		require.NoError(t, projector.Start(ctx))
		defer projector.Stop()

		poller := NewChainPoller(app, chain, payments, publisherFunc(func(ev ports.PeerEvent) {
			events.ch <- ev
		}))
		poller.Start()
		defer poller.Stop()

		require.Eventually(t, func() bool {
			balance := projector.WalletBalance(domain.FinalWallet)
			return balance.Tip == 100 && len(balance.DeeplyConfirmed) == 1
		}, 2*time.Second, 10*time.Millisecond)

		chain.mu.Lock()
		chain.height = 101
		chain.mu.Unlock()
		require.Eventually(t, func() bool {
			clk.SetTime(clk.Now().Add(time.Minute))
			return projector.ChainTip() == 101
		}, 2*time.Second, 10*time.Millisecond)
	})
}

type publisherFunc func(ports.PeerEvent)

func (f publisherFunc) Publish(_ context.Context, ev ports.PeerEvent) error {
	f(ev)
	return nil
}
