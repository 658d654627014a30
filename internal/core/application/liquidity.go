package application

import (
	"context"
	"sync/atomic"

	"github.com/ArkLabsHQ/lightwallet/internal/core/domain"
	"github.com/ArkLabsHQ/lightwallet/internal/core/ports"
	log "github.com/sirupsen/logrus"
)

type policyHolder struct {
	policy domain.LiquidityPolicy
}

// LiquidityGate accepts or rejects the fees of automatic liquidity proposals
// against the current policy.
type LiquidityGate struct {
	app    *AppContext
	sink   ports.NotificationSink
	policy atomic.Pointer[policyHolder]
}

func NewLiquidityGate(app *AppContext, sink ports.NotificationSink) *LiquidityGate {
	gate := &LiquidityGate{app: app, sink: sink}
	gate.policy.Store(&policyHolder{app.Settings.LiquidityPolicy})
	return gate
}

func (g *LiquidityGate) Policy() domain.LiquidityPolicy {
	return g.policy.Load().policy
}

// SetPolicy applies to the proposals evaluated from now on.
func (g *LiquidityGate) SetPolicy(policy domain.LiquidityPolicy) {
	if policy == nil {
		policy = domain.LiquidityPolicyDisabled{}
	}
	g.policy.Store(&policyHolder{policy})
	log.Infof("liquidity policy set to %T", policy)
}

// Evaluate decides on the proposal. A rejection is notified to the sink,
// carrying the fee and the violated threshold.
func (g *LiquidityGate) Evaluate(
	ctx context.Context, proposal domain.LiquidityProposal,
) (domain.LiquidityDecision, error) {
	decision := domain.EvaluateLiquidity(g.Policy(), proposal)
	if decision.Accepted {
		return decision, nil
	}

	log.WithFields(log.Fields{
		"reason":    decision.Reason,
		"amount":    proposal.Amount,
		"fee":       decision.Fee,
		"threshold": decision.Threshold,
	}).Info("liquidity proposal rejected")

	notification := domain.NewLiquidityNotification(proposal, decision, g.app.Clock.Now())
	if err := g.sink.Notify(ctx, notification); err != nil {
		return decision, err
	}
	return decision, nil
}
