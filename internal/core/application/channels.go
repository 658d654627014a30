package application

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/ArkLabsHQ/lightwallet/internal/core/domain"
	"github.com/ArkLabsHQ/lightwallet/internal/core/ports"
	"github.com/ArkLabsHQ/lightwallet/pkg/monitor"
	"github.com/ArkLabsHQ/lightwallet/pkg/observable"
	log "github.com/sirupsen/logrus"
)

const channelProjectorTask = "channel-projector"

// idleHeartbeat is the longest a supervised loop waits without ticking its
// heartbeat, below the monitor stall threshold.
const idleHeartbeat = time.Minute

// ChannelProjector turns the peer event stream into the observable channel,
// connection and wallet views. Before the peer delivers its first channel
// update, the channels restored from storage are served flagged as booting.
type ChannelProjector struct {
	app       *AppContext
	source    ports.PeerEventSource
	payments  *PaymentsManager
	liquidity *LiquidityGate
	repo      domain.ChannelRepository

	connection    *observable.State[domain.ConnectionState]
	channels      *observable.State[[]domain.LocalChannelInfo]
	mayDoPayments *observable.State[bool]
	tip           *observable.State[uint32]
	finalWallet   *observable.State[domain.WalletBalance]
	swapInWallet  *observable.State[domain.WalletBalance]

	mu      sync.Mutex
	started bool
	live    bool
	utxos   map[domain.WalletKind][]domain.Utxo
	handle  *monitor.TaskHandle
}

// NewChannelProjector builds a projector over source. Confirmations are
// forwarded to payments and liquidity proposals to liquidity, either of which
// can be nil.
func NewChannelProjector(
	app *AppContext, source ports.PeerEventSource,
	payments *PaymentsManager, liquidity *LiquidityGate,
) *ChannelProjector {
	return &ChannelProjector{
		app:           app,
		source:        source,
		payments:      payments,
		liquidity:     liquidity,
		repo:          app.Repos.Channels(),
		connection:    observable.NewState(domain.ConnectionClosed),
		channels:      observable.NewState[[]domain.LocalChannelInfo](nil),
		mayDoPayments: observable.NewState(false),
		tip:           observable.NewState[uint32](0),
		finalWallet:   observable.NewState(domain.WalletBalance{Kind: domain.FinalWallet}),
		swapInWallet:  observable.NewState(domain.WalletBalance{Kind: domain.SwapInWallet}),
		utxos:         make(map[domain.WalletKind][]domain.Utxo),
	}
}

func (p *ChannelProjector) Channels() []domain.LocalChannelInfo {
	return p.channels.Get()
}

func (p *ChannelProjector) SubscribeChannels(ctx context.Context) <-chan []domain.LocalChannelInfo {
	return p.channels.Subscribe(ctx)
}

func (p *ChannelProjector) Connection() domain.ConnectionState {
	return p.connection.Get()
}

func (p *ChannelProjector) MayDoPayments() bool {
	return p.mayDoPayments.Get()
}

func (p *ChannelProjector) SubscribeMayDoPayments(ctx context.Context) <-chan bool {
	return p.mayDoPayments.Subscribe(ctx)
}

func (p *ChannelProjector) ChainTip() uint32 {
	return p.tip.Get()
}

func (p *ChannelProjector) WalletBalance(kind domain.WalletKind) domain.WalletBalance {
	if kind == domain.SwapInWallet {
		return p.swapInWallet.Get()
	}
	return p.finalWallet.Get()
}

func (p *ChannelProjector) SubscribeWalletBalance(
	ctx context.Context, kind domain.WalletKind,
) <-chan domain.WalletBalance {
	if kind == domain.SwapInWallet {
		return p.swapInWallet.Subscribe(ctx)
	}
	return p.finalWallet.Subscribe(ctx)
}

// Start emits the boot snapshot and starts consuming peer events. Further
// calls are no-ops.
func (p *ChannelProjector) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return nil
	}
	p.started = true
	p.mu.Unlock()

	stored, err := p.repo.ListChannels(ctx)
	if err != nil {
		p.mu.Lock()
		p.started = false
		p.mu.Unlock()
		return err
	}
	p.emitBoot(stored)

	handle := p.app.Monitor.GoRestart(channelProjectorTask, p.run)
	p.mu.Lock()
	p.handle = &handle
	p.mu.Unlock()
	return nil
}

func (p *ChannelProjector) Stop() {
	p.mu.Lock()
	handle := p.handle
	p.handle = nil
	p.mu.Unlock()
	if handle != nil {
		handle.StopAndWait()
	}
}

func (p *ChannelProjector) run(ctx context.Context, hb monitor.Heartbeat) error {
	events := p.source.Events(ctx)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-p.app.Clock.TickAfter(idleHeartbeat):
			hb.Tick()
		case event, ok := <-events:
			if !ok {
				return nil
			}
			hb.Tick()
			p.apply(ctx, event)
		}
	}
}

func (p *ChannelProjector) apply(ctx context.Context, event ports.PeerEvent) {
	switch e := event.(type) {
	case ports.ConnectionChanged:
		log.WithField("state", e.State).Debug("peer connection changed")
		p.connection.Set(e.State)
		p.updateMayDoPayments()

	case ports.ChannelsUpdated:
		p.emitLive(ctx, e.Channels)

	case ports.ChainTipUpdated:
		p.tip.Set(e.Height)
		p.updateBalances()

	case ports.WalletUtxosUpdated:
		p.mu.Lock()
		p.utxos[e.Wallet] = append([]domain.Utxo(nil), e.Utxos...)
		p.mu.Unlock()
		p.updateBalances()

	case ports.TxConfirmed:
		if p.payments == nil {
			return
		}
		if _, err := p.payments.OnTxConfirmed(ctx, e.TxId, e.ConfirmedAt); err != nil {
			log.WithError(err).WithField("txid", e.TxId).Warn("failed to apply confirmation")
		}

	case ports.LiquidityProposed:
		if p.liquidity == nil {
			return
		}
		decision, err := p.liquidity.Evaluate(ctx, e.Proposal)
		if err != nil {
			log.WithError(err).Warn("failed to notify liquidity rejection")
			return
		}
		log.WithFields(log.Fields{
			"amount":   e.Proposal.Amount,
			"fee":      e.Proposal.Fee,
			"accepted": decision.Accepted,
		}).Debug("liquidity proposal evaluated")
	}
}

// emitBoot publishes the stored snapshots unless the peer already delivered
// live ones.
func (p *ChannelProjector) emitBoot(snapshots []domain.ChannelSnapshot) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.live {
		return
	}
	p.channels.Set(toLocalChannels(snapshots, true))
	p.updateMayDoPayments()
}

func (p *ChannelProjector) emitLive(ctx context.Context, snapshots []domain.ChannelSnapshot) {
	p.mu.Lock()
	if !p.live {
		log.Info("switching channel state to live peer updates")
	}
	p.live = true
	p.channels.Set(toLocalChannels(snapshots, false))
	p.mu.Unlock()
	p.updateMayDoPayments()

	if err := p.repo.SaveChannels(ctx, snapshots); err != nil {
		log.WithError(err).Warn("failed to persist channel snapshots")
	}

	if p.payments == nil {
		return
	}
	// The funding transactions of ready channels are locked.
	for _, ch := range snapshots {
		if ch.State != domain.ChannelNormal {
			continue
		}
		for _, commitment := range ch.Commitments {
			if _, err := p.payments.OnTxLocked(ctx, commitment.FundingTxId); err != nil {
				log.WithError(err).WithField("txid", commitment.FundingTxId).
					Warn("failed to apply lock")
			}
		}
	}
}

func (p *ChannelProjector) updateMayDoPayments() {
	p.mayDoPayments.Set(domain.MayDoPayments(p.connection.Get(), p.channels.Get()))
}

func (p *ChannelProjector) updateBalances() {
	tip := p.tip.Get()
	policy := p.app.Settings.ConfirmationPolicy

	p.mu.Lock()
	final := policy.Classify(domain.FinalWallet, tip, p.utxos[domain.FinalWallet])
	swapIn := policy.Classify(domain.SwapInWallet, tip, p.utxos[domain.SwapInWallet])
	p.mu.Unlock()

	p.finalWallet.Set(final)
	p.swapInWallet.Set(swapIn)
}

func toLocalChannels(snapshots []domain.ChannelSnapshot, isBooting bool) []domain.LocalChannelInfo {
	channels := make([]domain.LocalChannelInfo, 0, len(snapshots))
	for _, s := range snapshots {
		channels = append(channels, domain.NewLocalChannelInfo(s, isBooting))
	}
	sort.Slice(channels, func(i, j int) bool {
		return channels[i].ChannelId < channels[j].ChannelId
	})
	return channels
}
