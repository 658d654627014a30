package application

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ArkLabsHQ/lightwallet/internal/core/domain"
	"github.com/ArkLabsHQ/lightwallet/internal/core/ports"
	"github.com/ArkLabsHQ/lightwallet/pkg/monitor"
	log "github.com/sirupsen/logrus"
)

const chainPollerTask = "chain-poller"

// EventPublisher is where the chain poller delivers what it observes.
type EventPublisher interface {
	Publish(ctx context.Context, event ports.PeerEvent) error
}

// ChainPoller watches the chain tip, the outputs of the wallet addresses and
// the confirmation of the transactions linked to payments.
type ChainPoller struct {
	app      *AppContext
	chain    ports.ChainSource
	payments *PaymentsManager
	events   EventPublisher

	lastTip uint32

	mu     sync.Mutex
	handle *monitor.TaskHandle
}

func NewChainPoller(
	app *AppContext, chain ports.ChainSource, payments *PaymentsManager, events EventPublisher,
) *ChainPoller {
	return &ChainPoller{
		app:      app,
		chain:    chain,
		payments: payments,
		events:   events,
	}
}

func (p *ChainPoller) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.handle != nil {
		return
	}
	handle := p.app.Monitor.GoRestart(chainPollerTask, p.run)
	p.handle = &handle
}

func (p *ChainPoller) Stop() {
	p.mu.Lock()
	handle := p.handle
	p.handle = nil
	p.mu.Unlock()
	if handle != nil {
		handle.StopAndWait()
	}
}

func (p *ChainPoller) run(ctx context.Context, hb monitor.Heartbeat) error {
	for {
		if err := p.Poll(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		hb.Tick()

		select {
		case <-ctx.Done():
			return nil
		case <-p.app.Clock.TickAfter(p.app.Settings.ChainPollInterval):
		}
	}
}

// Poll runs a single round of chain queries and publishes the results.
func (p *ChainPoller) Poll(ctx context.Context) error {
	tip, err := p.chain.GetBlockHeight(ctx)
	if err != nil {
		return fmt.Errorf("failed to get chain tip: %w", err)
	}
	if tip != p.lastTip {
		if err := p.events.Publish(ctx, ports.ChainTipUpdated{Height: tip}); err != nil {
			return err
		}
		p.lastTip = tip
	}

	wallets := []struct {
		kind      domain.WalletKind
		addresses []string
	}{
		{domain.FinalWallet, p.app.Settings.FinalAddresses},
		{domain.SwapInWallet, p.app.Settings.SwapInAddresses},
	}
	for _, wallet := range wallets {
		if len(wallet.addresses) == 0 {
			continue
		}
		utxos := make([]domain.Utxo, 0)
		for _, addr := range wallet.addresses {
			addrUtxos, err := p.chain.GetAddressUtxos(ctx, addr)
			if err != nil {
				return fmt.Errorf("failed to get utxos of %s: %w", addr, err)
			}
			utxos = append(utxos, addrUtxos...)
		}
		event := ports.WalletUtxosUpdated{Wallet: wallet.kind, Utxos: utxos}
		if err := p.events.Publish(ctx, event); err != nil {
			return err
		}
	}

	txIds, err := p.payments.ListUnconfirmedTxIds(ctx)
	if err != nil {
		return fmt.Errorf("failed to list unconfirmed txs: %w", err)
	}
	for _, txId := range txIds {
		status, err := p.chain.GetTxStatus(ctx, txId)
		if err != nil {
			log.WithError(err).WithField("txid", txId).Debug("failed to get tx status")
			continue
		}
		if status == nil || !status.Confirmed {
			continue
		}

		confirmedAt := p.app.Clock.Now()
		if status.BlockTime > 0 {
			confirmedAt = time.Unix(status.BlockTime, 0)
		}
		event := ports.TxConfirmed{
			TxId:        txId,
			BlockHeight: status.BlockHeight,
			ConfirmedAt: confirmedAt,
		}
		if err := p.events.Publish(ctx, event); err != nil {
			return err
		}
	}
	return nil
}
