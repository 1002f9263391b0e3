package pricing

import (
	"github.com/shopspring/decimal"

	"poolScope/internal/model"
	"poolScope/internal/network"
)

// SwapTrustGrowth returns how much each token's discovery counter grows after
// a swap. A side grows only when its tracked price changed, by the other
// side's reserves valued at the live ratio.
func SwapTrustGrowth(pool model.Pool, d Discovery) (grow0, grow1 decimal.Decimal) {
	if d.Changed[0] {
		grow0 = pool.TotalValueLockedToken1.Mul(pool.Tokens0PerToken1)
	}
	if d.Changed[1] {
		grow1 = pool.TotalValueLockedToken0.Mul(pool.Tokens1PerToken0)
	}
	return grow0, grow1
}

// LiquidityTrustGrowth returns the counter growth of a liquidity change.
// Only positive added amounts count; removals leave both counters untouched.
func LiquidityTrustGrowth(pool model.Pool, token0, token1 model.Token, added0, added1 decimal.Decimal, n network.Network) (grow0, grow1 decimal.Decimal) {
	grow0, grow1 = decimal.Zero, decimal.Zero
	if added1.IsPositive() && discoveryEligible(token1, pool.TotalValueLockedToken1, n) {
		grow0 = added1.Mul(pool.Tokens0PerToken1)
	}
	if added0.IsPositive() && discoveryEligible(token0, pool.TotalValueLockedToken0, n) {
		grow1 = added0.Mul(pool.Tokens1PerToken0)
	}
	return grow0, grow1
}

func discoveryEligible(token model.Token, locked decimal.Decimal, n network.Network) bool {
	return n.IsWhitelisted(token.Address) || token.PriceDiscoveryTokenAmount.Exceeds(locked)
}

// ApplyTrustGrowth grows both tokens' counters.
func ApplyTrustGrowth(token0, token1 model.Token, grow0, grow1 decimal.Decimal) (model.Token, model.Token) {
	token0.PriceDiscoveryTokenAmount = token0.PriceDiscoveryTokenAmount.Grow(grow0)
	token1.PriceDiscoveryTokenAmount = token1.PriceDiscoveryTokenAmount.Grow(grow1)
	return token0, token1
}
