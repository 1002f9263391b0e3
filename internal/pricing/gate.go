package pricing

import (
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"poolScope/internal/classify"
	"poolScope/internal/mathutil"
	"poolScope/internal/model"
	"poolScope/internal/network"
)

// Thresholds are the percentages the tracked-price gate checks against.
type Thresholds struct {
	OutlierPercent         decimal.Decimal
	MaxTVLImbalancePercent decimal.Decimal
}

// DefaultThresholds returns the gate's stock thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{
		OutlierPercent:         decimal.NewFromInt(10),
		MaxTVLImbalancePercent: decimal.NewFromInt(50),
	}
}

// Engine runs the cascade in both price modes and gates tracked prices.
type Engine struct {
	thresholds Thresholds
	logger     *zap.Logger
}

func NewEngine(thresholds Thresholds, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{thresholds: thresholds, logger: logger}
}

// TrackedInput carries a pool whose reserves and ratio are already updated.
// SwapAmount0/1 are the absolute token amounts of the triggering swap and
// stay zero for liquidity events.
type TrackedInput struct {
	Pool        model.Pool
	Token0      model.Token
	Token1      model.Token
	Network     network.Network
	SwapAmount0 decimal.Decimal
	SwapAmount1 decimal.Decimal
}

// Discovery is the outcome of one price discovery pass.
type Discovery struct {
	Untracked Result
	Tracked   Prices
	// Changed reports per side whether the tracked price moved.
	Changed [2]bool
}

// Discover derives untracked prices and gated tracked prices for a pool.
func (e *Engine) Discover(in TrackedInput) (Discovery, error) {
	base := Input{
		Token0:  in.Token0,
		Token1:  in.Token1,
		Pool:    PoolPricesOf(in.Pool),
		Network: in.Network,
	}
	untracked, err := Discover(base)
	if err != nil {
		return Discovery{}, err
	}
	base.UseTracked = true
	tracked, err := Discover(base)
	if err != nil {
		return Discovery{}, err
	}

	current := Prices{Token0: in.Token0.TrackedUSDPrice, Token1: in.Token1.TrackedUSDPrice}
	candidate := Prices{
		Token0: preferNonZero(tracked.Token0, untracked.Token0),
		Token1: preferNonZero(tracked.Token1, untracked.Token1),
	}

	next := candidate
	if tracked.Rule == RuleGeneric {
		next = e.gate(in, candidate, current)
	}

	out := Discovery{Untracked: untracked, Tracked: next}
	out.Changed[classify.Token0] = !next.Token0.Equal(current.Token0)
	out.Changed[classify.Token1] = !next.Token1.Equal(current.Token1)
	return out, nil
}

func (e *Engine) gate(in TrackedInput, candidate, current Prices) Prices {
	locked := Prices{Token0: in.Pool.TotalValueLockedToken0, Token1: in.Pool.TotalValueLockedToken1}
	discoverable := [2]bool{
		canDiscover(in.Token0, locked.Token0),
		canDiscover(in.Token1, locked.Token1),
	}
	if !discoverable[0] && !discoverable[1] {
		return current
	}

	tvl0 := locked.Token0.Mul(candidate.Token0)
	tvl1 := locked.Token1.Mul(candidate.Token1)
	if !mathutil.IsWithinThreshold(tvl0, tvl1, e.thresholds.MaxTVLImbalancePercent) {
		e.logger.Debug("tracked price blocked: tvl imbalance",
			zap.String("pool", in.Pool.ID),
			zap.String("tvl0_usd", tvl0.String()),
			zap.String("tvl1_usd", tvl1.String()),
		)
		return current
	}
	trustable := isTrustable(in.Token0, in.Token1, locked.Token0, in.Network) ||
		isTrustable(in.Token1, in.Token0, locked.Token1, in.Network)
	if !trustable {
		return current
	}

	accepted := e.crossCheck(in, candidate, current)
	next := current
	for _, side := range []classify.Side{classify.Token0, classify.Token1} {
		v := accepted.get(side)
		if discoverable[side] && v.IsPositive() {
			next.set(side, v)
		}
	}
	return next
}

// crossCheck compares each candidate against the price implied by the swap's
// own amounts and the counter token's current tracked price.
func (e *Engine) crossCheck(in TrackedInput, candidate, current Prices) Prices {
	a0, a1 := in.SwapAmount0.Abs(), in.SwapAmount1.Abs()
	implied := Prices{
		Token0: mathutil.SafeDiv(a1.Mul(current.Token1), a0),
		Token1: mathutil.SafeDiv(a0.Mul(current.Token0), a1),
	}

	accepted := candidate
	for _, side := range []classify.Side{classify.Token0, classify.Token1} {
		ref := implied.get(side)
		if ref.IsZero() {
			continue
		}
		if !mathutil.IsWithinThreshold(candidate.get(side), ref, e.thresholds.OutlierPercent) {
			e.logger.Debug("tracked price outlier",
				zap.String("pool", in.Pool.ID),
				zap.Int("side", int(side)),
				zap.String("candidate", candidate.get(side).String()),
				zap.String("swap_implied", ref.String()),
			)
			accepted.set(side, current.get(side))
		}
	}
	return accepted
}

func preferNonZero(v, fallback decimal.Decimal) decimal.Decimal {
	if v.IsZero() {
		return fallback
	}
	return v
}

// canDiscover reports whether a pool holding locked units of token may set its
// tracked price.
func canDiscover(token model.Token, locked decimal.Decimal) bool {
	if token.PoolsCount <= 1 {
		return true
	}
	return locked.GreaterThanOrEqual(token.AveragePooled())
}

func isTrustable(token, counterpart model.Token, locked decimal.Decimal, n network.Network) bool {
	return n.IsWhitelisted(counterpart.Address) || token.PriceDiscoveryTokenAmount.Exceeds(locked)
}
