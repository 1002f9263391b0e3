package pipeline

import (
	"math/big"

	"github.com/shopspring/decimal"

	"poolScope/internal/mathutil"
	"poolScope/internal/model"
	"poolScope/internal/network"
	"poolScope/internal/pricing"
	"poolScope/internal/stats"
)

var (
	two      = decimal.NewFromInt(2)
	feeDenom = big.NewInt(1_000_000)
)

// State is every entity one pool event reads and writes.
type State struct {
	Pool   model.Pool
	Token0 model.Token
	Token1 model.Token
	Hourly model.PoolHistoricalData
	Daily  model.PoolHistoricalData
	Stats  stats.Set
}

// SwapEvent carries raw on-chain swap amounts. Positive amounts flow into the pool.
type SwapEvent struct {
	Pool         string
	Amount0      *big.Int
	Amount1      *big.Int
	SqrtPriceX96 *big.Int
	Block        uint64
	Timestamp    int64
}

// LiquidityEvent carries raw liquidity deltas; removals are negative.
type LiquidityEvent struct {
	Pool      string
	Amount0   *big.Int
	Amount1   *big.Int
	Block     uint64
	Timestamp int64
}

type prices struct {
	p0, p1 decimal.Decimal
	t0, t1 decimal.Decimal
}

func (st State) prices() prices {
	return prices{
		p0: st.Token0.USDPrice,
		p1: st.Token1.USDPrice,
		t0: st.Token0.TrackedUSDPrice,
		t1: st.Token1.TrackedUSDPrice,
	}
}

// ApplySwap folds a swap into the pool, its tokens, open snapshots and stats rows.
func ApplySwap(st State, ev SwapEvent, n network.Network, engine *pricing.Engine) (State, error) {
	amount0 := mathutil.FromRaw(ev.Amount0, st.Token0.Decimals)
	amount1 := mathutil.FromRaw(ev.Amount1, st.Token1.Decimals)

	pool := st.Pool
	pool.TotalValueLockedToken0 = pool.TotalValueLockedToken0.Add(amount0)
	pool.TotalValueLockedToken1 = pool.TotalValueLockedToken1.Add(amount1)
	if pool.Kind == model.ConcentratedLiquidity && ev.SqrtPriceX96 != nil && ev.SqrtPriceX96.Sign() > 0 {
		pool = pool.WithRatio(mathutil.PriceFromSqrtX96(ev.SqrtPriceX96, st.Token0.Decimals, st.Token1.Decimals))
	} else {
		pool = pool.WithReserveRatio()
	}

	disc, err := engine.Discover(pricing.TrackedInput{
		Pool:        pool,
		Token0:      st.Token0,
		Token1:      st.Token1,
		Network:     n,
		SwapAmount0: amount0,
		SwapAmount1: amount1,
	})
	if err != nil {
		return st, err
	}
	st.Pool = pool
	st = st.withDiscovery(disc)
	grow0, grow1 := pricing.SwapTrustGrowth(st.Pool, disc)
	st.Token0, st.Token1 = pricing.ApplyTrustGrowth(st.Token0, st.Token1, grow0, grow1)
	st = st.withPooledDelta(amount0, amount1)

	px := st.prices()
	abs0, abs1 := amount0.Abs(), amount1.Abs()
	fee0 := mathutil.FromRaw(swapFee(ev.Amount0, st.Pool.FeeTier), st.Token0.Decimals)
	fee1 := mathutil.FromRaw(swapFee(ev.Amount1, st.Pool.FeeTier), st.Token1.Decimals)
	feesUSD := fee0.Mul(px.p0).Add(fee1.Mul(px.p1))

	delta := model.Cumulative{
		SwapVolumeUSD:        abs0.Mul(px.p0).Add(abs1.Mul(px.p1)).Div(two),
		TrackedSwapVolumeUSD: abs0.Mul(px.t0).Add(abs1.Mul(px.t1)).Div(two),
		FeesUSD:              feesUSD,
		TrackedFeesUSD:       fee0.Mul(px.t0).Add(fee1.Mul(px.t1)),
		AccumulatedYield:     mathutil.SafeDiv(feesUSD, st.Pool.TotalValueLockedUSD),
	}

	pool = st.Pool
	pool.SwapVolumeToken0 = pool.SwapVolumeToken0.Add(abs0)
	pool.SwapVolumeToken1 = pool.SwapVolumeToken1.Add(abs1)
	pool.FeesToken0 = pool.FeesToken0.Add(fee0)
	pool.FeesToken1 = pool.FeesToken1.Add(fee1)
	pool.SwapCount++
	st.Pool = pool

	st = st.withActivity(delta, ev.Block, ev.Timestamp)
	for _, snap := range []*model.PoolHistoricalData{&st.Hourly, &st.Daily} {
		snap.IntervalSwapVolumeToken0 = snap.IntervalSwapVolumeToken0.Add(abs0)
		snap.IntervalSwapVolumeToken1 = snap.IntervalSwapVolumeToken1.Add(abs1)
		snap.IntervalFeesToken0 = snap.IntervalFeesToken0.Add(fee0)
		snap.IntervalFeesToken1 = snap.IntervalFeesToken1.Add(fee1)
		snap.IntervalSwapCount++
	}
	return st, nil
}

// ApplyLiquidity folds a liquidity addition or removal into the state.
// Only constant-product pools re-derive their ratio, and so their prices.
func ApplyLiquidity(st State, ev LiquidityEvent, n network.Network, engine *pricing.Engine) (State, error) {
	amount0 := mathutil.FromRaw(ev.Amount0, st.Token0.Decimals)
	amount1 := mathutil.FromRaw(ev.Amount1, st.Token1.Decimals)

	pool := st.Pool
	pool.TotalValueLockedToken0 = pool.TotalValueLockedToken0.Add(amount0)
	pool.TotalValueLockedToken1 = pool.TotalValueLockedToken1.Add(amount1)
	if pool.Kind == model.ConstantProduct {
		pool = pool.WithReserveRatio()
		disc, err := engine.Discover(pricing.TrackedInput{
			Pool:    pool,
			Token0:  st.Token0,
			Token1:  st.Token1,
			Network: n,
		})
		if err != nil {
			return st, err
		}
		st.Pool = pool
		st = st.withDiscovery(disc)
	} else {
		st.Pool = pool
	}

	grow0, grow1 := pricing.LiquidityTrustGrowth(st.Pool, st.Token0, st.Token1, amount0, amount1, n)
	st.Token0, st.Token1 = pricing.ApplyTrustGrowth(st.Token0, st.Token1, grow0, grow1)
	st = st.withPooledDelta(amount0, amount1)

	px := st.prices()
	net := amount0.Mul(px.p0).Add(amount1.Mul(px.p1))
	volume := amount0.Abs().Mul(px.p0).Add(amount1.Abs().Mul(px.p1))

	pool = st.Pool
	pool.LiquidityVolumeToken0 = pool.LiquidityVolumeToken0.Add(amount0.Abs())
	pool.LiquidityVolumeToken1 = pool.LiquidityVolumeToken1.Add(amount1.Abs())
	if net.IsPositive() {
		pool.LiquidityInflowUSD = pool.LiquidityInflowUSD.Add(net)
	} else {
		pool.LiquidityOutflowUSD = pool.LiquidityOutflowUSD.Add(net.Abs())
	}
	st.Pool = pool

	delta := model.Cumulative{
		LiquidityVolumeUSD:    volume,
		LiquidityNetInflowUSD: net,
	}
	return st.withActivity(delta, ev.Block, ev.Timestamp), nil
}

func (st State) withDiscovery(disc pricing.Discovery) State {
	st.Token0.USDPrice = disc.Untracked.Token0
	st.Token1.USDPrice = disc.Untracked.Token1
	st.Token0.TrackedUSDPrice = disc.Tracked.Token0
	st.Token1.TrackedUSDPrice = disc.Tracked.Token1
	return st
}

// withPooledDelta moves the tokens' pooled amounts and revalues both the
// tokens and the pool at the current prices.
func (st State) withPooledDelta(amount0, amount1 decimal.Decimal) State {
	st.Token0.TokenTotalValuePooled = st.Token0.TokenTotalValuePooled.Add(amount0)
	st.Token1.TokenTotalValuePooled = st.Token1.TokenTotalValuePooled.Add(amount1)
	st.Token0 = st.Token0.WithPooledValue()
	st.Token1 = st.Token1.WithPooledValue()

	px := st.prices()
	st.Pool = st.Pool.WithTVL(px.p0, px.p1, px.t0, px.t1)
	return st
}

// withActivity adds the event's cumulative delta everywhere it is tracked.
func (st State) withActivity(delta model.Cumulative, block uint64, ts int64) State {
	pool := st.Pool
	pool.Totals = pool.Totals.Add(delta)
	for i := range pool.YieldWindows {
		pool.YieldWindows[i].AccumulatedYield = pool.YieldWindows[i].AccumulatedYield.Add(delta.AccumulatedYield)
	}
	pool.LastActivityBlock = block
	pool.LastActivityTimestamp = ts
	st.Pool = pool

	px := st.prices()
	for _, snap := range []*model.PoolHistoricalData{&st.Hourly, &st.Daily} {
		snap.AtEnd = pool.Totals
		snap.IntervalTotals = snap.IntervalTotals.Add(delta)
		snap.TotalValueLockedUSDAtEnd = pool.TotalValueLockedUSD
		snap.Token0PriceAtEnd = px.p0
		snap.Token1PriceAtEnd = px.p1
	}
	st.Stats = st.Stats.Accumulate(delta)
	return st
}

// swapFee is the fee charged on the input side of a swap, rounded up.
func swapFee(amount *big.Int, feeTier uint32) *big.Int {
	if amount == nil || amount.Sign() <= 0 || feeTier == 0 {
		return big.NewInt(0)
	}
	return mathutil.MulDivRoundingUp(amount, big.NewInt(int64(feeTier)), feeDenom)
}
