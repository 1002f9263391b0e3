// Package pricing derives USD token prices from a pool's exchange ratio.
package pricing

import (
	"github.com/shopspring/decimal"

	"poolScope/internal/classify"
	"poolScope/internal/model"
	"poolScope/internal/network"
)

// Rule names the cascade step that produced a price pair.
type Rule string

const (
	RuleVariableWithStable Rule = "variable_with_stable"
	RuleNative             Rule = "native"
	RuleWrappedNative      Rule = "wrapped_native"
	RuleStableOnly         Rule = "stable_only"
	RuleGeneric            Rule = "generic"
)

// PoolPrices is a pool's internal exchange ratio.
type PoolPrices struct {
	Tokens0PerToken1 decimal.Decimal
	Tokens1PerToken0 decimal.Decimal
}

// PoolPricesOf reads the ratio stored on a pool.
func PoolPricesOf(p model.Pool) PoolPrices {
	return PoolPrices{Tokens0PerToken1: p.Tokens0PerToken1, Tokens1PerToken0: p.Tokens1PerToken0}
}

// Prices is a USD price per pool side.
type Prices struct {
	Token0 decimal.Decimal
	Token1 decimal.Decimal
}

func (p Prices) get(s classify.Side) decimal.Decimal {
	if s == classify.Token0 {
		return p.Token0
	}
	return p.Token1
}

func (p *Prices) set(s classify.Side, v decimal.Decimal) {
	if s == classify.Token0 {
		p.Token0 = v
		return
	}
	p.Token1 = v
}

// Input is what the cascade prices from. UseTracked selects whether stored
// prices are read from TrackedUSDPrice instead of USDPrice.
type Input struct {
	Token0     model.Token
	Token1     model.Token
	Pool       PoolPrices
	Network    network.Network
	UseTracked bool
}

func (in Input) pair() classify.Pair {
	return classify.Pair{Token0: in.Token0.Address, Token1: in.Token1.Address, Network: in.Network}
}

func (in Input) stored() Prices {
	if in.UseTracked {
		return Prices{Token0: in.Token0.TrackedUSDPrice, Token1: in.Token1.TrackedUSDPrice}
	}
	return Prices{Token0: in.Token0.USDPrice, Token1: in.Token1.USDPrice}
}

// ratio returns how many units of from one unit of to is worth, so that
// price(to) = ratio(from, to) * price(from).
func (in Input) ratio(from, to classify.Side) decimal.Decimal {
	if from == to {
		return decimal.NewFromInt(1)
	}
	if from == classify.Token0 {
		return in.Pool.Tokens0PerToken1
	}
	return in.Pool.Tokens1PerToken0
}

// Result is the cascade output.
type Result struct {
	Prices
	Rule Rule
}

type rule struct {
	name    Rule
	applies func(classify.Pair) bool
	derive  func(Input) (Prices, error)
}

// cascade is evaluated top to bottom; the first rule that applies wins.
var cascade = []rule{
	{name: RuleVariableWithStable, applies: classify.IsVariableWithStablePool, derive: deriveVariableWithStable},
	{name: RuleNative, applies: classify.IsNativePool, derive: anchoredOn(classify.FindNativeToken)},
	{name: RuleWrappedNative, applies: classify.IsWrappedNativePool, derive: anchoredOn(classify.FindWrappedNative)},
	{name: RuleStableOnly, applies: classify.IsStableOnlyPool, derive: deriveStableOnly},
	{name: RuleGeneric, applies: func(classify.Pair) bool { return true }, derive: deriveGeneric},
}

// Discover runs the cascade.
func Discover(in Input) (Result, error) {
	pair := in.pair()
	for _, r := range cascade {
		if !r.applies(pair) {
			continue
		}
		prices, err := r.derive(in)
		if err != nil {
			return Result{}, err
		}
		return Result{Prices: prices, Rule: r.name}, nil
	}
	return Result{Prices: in.stored(), Rule: RuleGeneric}, nil
}

func deriveVariableWithStable(in Input) (Prices, error) {
	stable, err := classify.FindStableToken(in.pair())
	if err != nil {
		return Prices{}, err
	}
	other := stable.Other()

	var out Prices
	otherPrice := in.ratio(stable, other)
	out.set(other, otherPrice)
	out.set(stable, in.ratio(other, stable).Mul(otherPrice))
	return out, nil
}

func anchoredOn(find func(classify.Pair) (classify.Side, error)) func(Input) (Prices, error) {
	return func(in Input) (Prices, error) {
		anchor, err := find(in.pair())
		if err != nil {
			return Prices{}, err
		}
		other := anchor.Other()
		stored := in.stored()

		var out Prices
		out.set(anchor, stored.get(anchor))
		out.set(other, in.ratio(anchor, other).Mul(stored.get(anchor)))
		return out, nil
	}
}

func deriveStableOnly(in Input) (Prices, error) {
	return Prices{Token0: in.Pool.Tokens1PerToken0, Token1: in.Pool.Tokens0PerToken1}, nil
}

// deriveGeneric prices token0 from token1's stored price, then token1 from
// the freshly derived token0 (or token0's stored price when token1 had none).
// Both sides end up consistent with the live ratio.
func deriveGeneric(in Input) (Prices, error) {
	stored := in.stored()
	out := stored
	if !stored.Token1.IsZero() {
		out.Token0 = in.ratio(classify.Token1, classify.Token0).Mul(stored.Token1)
	}
	if !out.Token0.IsZero() {
		out.Token1 = in.ratio(classify.Token0, classify.Token1).Mul(out.Token0)
	}
	return out, nil
}
