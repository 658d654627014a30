package domain

import (
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
)

// LiquidityPolicy is either LiquidityPolicyDisabled or LiquidityPolicyAuto.
type LiquidityPolicy interface {
	isLiquidityPolicy()
}

type LiquidityPolicyDisabled struct{}

type LiquidityPolicyAuto struct {
	MaxAbsoluteFee            btcutil.Amount
	MaxRelativeFeeBasisPoints int64
}

func (LiquidityPolicyDisabled) isLiquidityPolicy() {}
func (LiquidityPolicyAuto) isLiquidityPolicy()     {}

// RelativeCeiling is the fee allowed by the relative limit for the amount.
func (p LiquidityPolicyAuto) RelativeCeiling(amount btcutil.Amount) btcutil.Amount {
	return btcutil.Amount(int64(amount) * p.MaxRelativeFeeBasisPoints / 10_000)
}

func (p LiquidityPolicyAuto) Ceiling(amount btcutil.Amount) btcutil.Amount {
	relative := p.RelativeCeiling(amount)
	if p.MaxAbsoluteFee < relative {
		return p.MaxAbsoluteFee
	}
	return relative
}

type RejectionReason string

const (
	RejectedPolicyDisabled RejectionReason = "policy_disabled"
	RejectedOverAbsolute   RejectionReason = "over_absolute_fee"
	RejectedOverRelative   RejectionReason = "over_relative_fee"
)

type LiquidityProposal struct {
	Amount btcutil.Amount
	Fee    btcutil.Amount
	// PaymentAmount is the amount of the payment that needs the liquidity, if
	// any.
	PaymentAmount btcutil.Amount
}

type LiquidityDecision struct {
	Accepted  bool
	Reason    RejectionReason
	Fee       btcutil.Amount
	Threshold btcutil.Amount
}

// EvaluateLiquidity checks the proposal against the policy. When both limits
// are exceeded, the violated one is the lowest ceiling.
func EvaluateLiquidity(policy LiquidityPolicy, proposal LiquidityProposal) LiquidityDecision {
	auto, ok := policy.(LiquidityPolicyAuto)
	if !ok {
		return LiquidityDecision{Reason: RejectedPolicyDisabled, Fee: proposal.Fee}
	}
	relative := auto.RelativeCeiling(proposal.Amount)
	ceiling := auto.Ceiling(proposal.Amount)
	if proposal.Fee <= ceiling {
		return LiquidityDecision{Accepted: true, Fee: proposal.Fee, Threshold: ceiling}
	}
	if auto.MaxAbsoluteFee <= relative {
		return LiquidityDecision{Reason: RejectedOverAbsolute, Fee: proposal.Fee, Threshold: auto.MaxAbsoluteFee}
	}
	return LiquidityDecision{Reason: RejectedOverRelative, Fee: proposal.Fee, Threshold: relative}
}

func ParseLiquidityPolicy(kind string, maxAbsoluteFee, maxRelativeFeeBp int64) (LiquidityPolicy, error) {
	switch kind {
	case "disabled":
		return LiquidityPolicyDisabled{}, nil
	case "auto":
		if maxAbsoluteFee < 0 || maxRelativeFeeBp < 0 || maxRelativeFeeBp > 10_000 {
			return nil, fmt.Errorf(
				"invalid liquidity policy limits: %d sat, %d bp", maxAbsoluteFee, maxRelativeFeeBp,
			)
		}
		return LiquidityPolicyAuto{
			MaxAbsoluteFee:            btcutil.Amount(maxAbsoluteFee),
			MaxRelativeFeeBasisPoints: maxRelativeFeeBp,
		}, nil
	default:
		return nil, fmt.Errorf("unknown liquidity policy %s", kind)
	}
}
