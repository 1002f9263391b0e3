package pricing

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"poolScope/internal/classify"
	"poolScope/internal/model"
	"poolScope/internal/network"
)

const (
	usdc   = "0x00000000000000000000000000000000000000c1"
	dai    = "0x00000000000000000000000000000000000000d1"
	weth   = "0x00000000000000000000000000000000000000e1"
	tokenA = "0x00000000000000000000000000000000000000a1"
	tokenB = "0x00000000000000000000000000000000000000b1"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func testNetwork(t *testing.T, whitelist ...string) network.Network {
	t.Helper()
	n, err := network.New(network.Config{
		ChainID:       1,
		Name:          "test",
		WrappedNative: weth,
		BlocksPerDay:  7200,
		Stablecoins:   []string{usdc, dai},
		Whitelist:     whitelist,
	})
	require.NoError(t, err)
	return n
}

func token(addr, price string) model.Token {
	tok := model.NewToken(1, model.TokenMeta{Address: addr, Decimals: 18})
	tok.USDPrice = d(price)
	tok.TrackedUSDPrice = d(price)
	tok.PoolsCount = 1
	return tok
}

func ratio(tokens0PerToken1, tokens1PerToken0 string) PoolPrices {
	return PoolPrices{Tokens0PerToken1: d(tokens0PerToken1), Tokens1PerToken0: d(tokens1PerToken0)}
}

func TestDiscoverNativeAnchor(t *testing.T) {
	in := Input{
		Token0:  token(tokenA, "0"),
		Token1:  token(network.ZeroAddress, "100"),
		Pool:    ratio("0.5", "2"),
		Network: testNetwork(t),
	}

	res, err := Discover(in)
	require.NoError(t, err)
	assert.Equal(t, RuleNative, res.Rule)
	assert.True(t, res.Token0.Equal(d("200")), "got %s", res.Token0)
	assert.True(t, res.Token1.Equal(d("100")))
}

func TestDiscoverWrappedNativeKeepsStoredPrice(t *testing.T) {
	in := Input{
		Token0:  token(weth, "3000"),
		Token1:  token(tokenB, "1"),
		Pool:    ratio("0.001", "1000"),
		Network: testNetwork(t),
	}

	res, err := Discover(in)
	require.NoError(t, err)
	assert.Equal(t, RuleWrappedNative, res.Rule)
	assert.True(t, res.Token0.Equal(d("3000")))
	assert.True(t, res.Token1.Equal(d("3")))
}

func TestDiscoverStableOnlyReadsRatio(t *testing.T) {
	in := Input{
		Token0:  token(usdc, "5"),
		Token1:  token(dai, "7"),
		Pool:    ratio("0.999", "1.001"),
		Network: testNetwork(t),
	}

	res, err := Discover(in)
	require.NoError(t, err)
	assert.Equal(t, RuleStableOnly, res.Rule)
	assert.True(t, res.Token0.Equal(d("1.001")))
	assert.True(t, res.Token1.Equal(d("0.999")))
}

func TestDiscoverVariableWithStable(t *testing.T) {
	in := Input{
		Token0:  token(usdc, "0.97"),
		Token1:  token(tokenB, "0"),
		Pool:    ratio("2000", "0.0005"),
		Network: testNetwork(t),
	}

	res, err := Discover(in)
	require.NoError(t, err)
	assert.Equal(t, RuleVariableWithStable, res.Rule)
	assert.True(t, res.Token1.Equal(d("2000")))
	// stable side is rederived from the live ratio, not the stored 0.97
	assert.True(t, res.Token0.Equal(d("1")))
}

func TestDiscoverVariableWithStableWinsOverNative(t *testing.T) {
	in := Input{
		Token0:  token(usdc, "1"),
		Token1:  token(network.ZeroAddress, "1"),
		Pool:    ratio("2500", "0.0004"),
		Network: testNetwork(t),
	}

	res, err := Discover(in)
	require.NoError(t, err)
	assert.Equal(t, RuleVariableWithStable, res.Rule)
	assert.True(t, res.Token1.Equal(d("2500")))
}

func TestDiscoverGenericIdempotent(t *testing.T) {
	pool := ratio("0.5", "2")
	in := Input{Token0: token(tokenA, "10"), Token1: token(tokenB, "100"), Pool: pool, Network: testNetwork(t)}

	first, err := Discover(in)
	require.NoError(t, err)
	assert.Equal(t, RuleGeneric, first.Rule)

	in.Token0.USDPrice = first.Token0
	in.Token1.USDPrice = first.Token1
	second, err := Discover(in)
	require.NoError(t, err)
	assert.True(t, first.Token0.Equal(second.Token0), "got %s want %s", second.Token0, first.Token0)
	assert.True(t, first.Token1.Equal(second.Token1), "got %s want %s", second.Token1, first.Token1)
}

func TestDiscoverGenericRealignsStalePrices(t *testing.T) {
	in := Input{
		Token0:  token(tokenA, "10"),
		Token1:  token(tokenB, "100"),
		Pool:    ratio("0.5", "2"),
		Network: testNetwork(t),
	}

	res, err := Discover(in)
	require.NoError(t, err)
	assert.True(t, res.Token0.Equal(d("200")))
	assert.True(t, res.Token1.Equal(d("100")))
	// price0 / price1 matches tokens1PerToken0
	assert.True(t, res.Token0.Div(res.Token1).Equal(d("2")))
}

func TestDiscoverGenericOnlyToken0Priced(t *testing.T) {
	in := Input{
		Token0:  token(tokenA, "30"),
		Token1:  token(tokenB, "0"),
		Pool:    ratio("0.5", "2"),
		Network: testNetwork(t),
	}

	res, err := Discover(in)
	require.NoError(t, err)
	assert.True(t, res.Token0.Equal(d("30")))
	assert.True(t, res.Token1.Equal(d("15")))
}

func TestDiscoverGenericOneSidePriced(t *testing.T) {
	in := Input{
		Token0:  token(tokenA, "0"),
		Token1:  token(tokenB, "100"),
		Pool:    ratio("0.5", "2"),
		Network: testNetwork(t),
	}

	res, err := Discover(in)
	require.NoError(t, err)
	assert.True(t, res.Token0.Equal(d("200")))
	assert.True(t, res.Token1.Equal(d("100")))

	in.Token1.USDPrice = decimal.Zero
	res, err = Discover(in)
	require.NoError(t, err)
	assert.True(t, res.Token0.IsZero())
	assert.True(t, res.Token1.IsZero())
}

func TestDiscoverUsesTrackedMode(t *testing.T) {
	in := Input{
		Token0:     token(tokenA, "0"),
		Token1:     token(network.ZeroAddress, "100"),
		Pool:       ratio("0.5", "2"),
		Network:    testNetwork(t),
		UseTracked: true,
	}
	in.Token1.TrackedUSDPrice = d("50")

	res, err := Discover(in)
	require.NoError(t, err)
	assert.True(t, res.Token0.Equal(d("100")))
}

func TestClassificationErrorIsInvariantViolation(t *testing.T) {
	derive := anchoredOn(classify.FindNativeToken)
	_, err := derive(Input{Token0: token(tokenA, "1"), Token1: token(tokenB, "1"), Network: testNetwork(t)})
	require.Error(t, err)
	assert.True(t, errors.Is(err, classify.ErrInvariantViolation))
}

func gatedInput(t *testing.T, locked0, locked1 string, whitelist ...string) TrackedInput {
	pool := model.NewPool(1, "0x00000000000000000000000000000000000000f1", tokenA, tokenB).WithRatio(d("2"))
	pool.TotalValueLockedToken0 = d(locked0)
	pool.TotalValueLockedToken1 = d(locked1)

	return TrackedInput{
		Pool:    pool,
		Token0:  token(tokenA, "0"),
		Token1:  token(tokenB, "10"),
		Network: testNetwork(t, whitelist...),
	}
}

func TestTrackedGateAccepts(t *testing.T) {
	engine := NewEngine(DefaultThresholds(), zaptest.NewLogger(t))
	in := gatedInput(t, "100", "200", tokenB)

	got, err := engine.Discover(in)
	require.NoError(t, err)
	assert.True(t, got.Tracked.Token0.Equal(d("20")))
	assert.True(t, got.Tracked.Token1.Equal(d("10")))
	assert.Equal(t, [2]bool{true, false}, got.Changed)
	assert.True(t, got.Untracked.Token0.Equal(d("20")))
}

func TestTrackedGateImbalanced(t *testing.T) {
	engine := NewEngine(DefaultThresholds(), zaptest.NewLogger(t))
	in := gatedInput(t, "100", "10", tokenB)

	got, err := engine.Discover(in)
	require.NoError(t, err)
	assert.True(t, got.Tracked.Token0.IsZero())
	assert.Equal(t, [2]bool{false, false}, got.Changed)
	// untracked prices are never gated
	assert.True(t, got.Untracked.Token0.Equal(d("20")))
}

func TestTrackedGateUntrustable(t *testing.T) {
	engine := NewEngine(DefaultThresholds(), zaptest.NewLogger(t))
	in := gatedInput(t, "100", "200")

	got, err := engine.Discover(in)
	require.NoError(t, err)
	assert.True(t, got.Tracked.Token0.IsZero())

	in.Token0.PriceDiscoveryTokenAmount = model.NewTrustLedger(d("101"))
	got, err = engine.Discover(in)
	require.NoError(t, err)
	assert.True(t, got.Tracked.Token0.Equal(d("20")))
}

func TestTrackedGateNotDiscoverable(t *testing.T) {
	engine := NewEngine(DefaultThresholds(), zaptest.NewLogger(t))
	in := gatedInput(t, "100", "200", tokenB)
	for _, tok := range []*model.Token{&in.Token0, &in.Token1} {
		tok.PoolsCount = 3
		tok.TokenTotalValuePooled = d("3000")
	}

	got, err := engine.Discover(in)
	require.NoError(t, err)
	assert.True(t, got.Tracked.Token0.IsZero())
	assert.Equal(t, [2]bool{false, false}, got.Changed)

	in.Pool.TotalValueLockedToken0 = d("1000")
	in.Pool.TotalValueLockedToken1 = d("2000")
	got, err = engine.Discover(in)
	require.NoError(t, err)
	assert.True(t, got.Tracked.Token0.Equal(d("20")))
}

func TestTrackedGateSwapOutlier(t *testing.T) {
	engine := NewEngine(DefaultThresholds(), zaptest.NewLogger(t))
	in := gatedInput(t, "100", "200", tokenB)
	in.SwapAmount0 = d("-1")
	in.SwapAmount1 = d("3")

	got, err := engine.Discover(in)
	require.NoError(t, err)
	assert.True(t, got.Tracked.Token0.IsZero())

	in.SwapAmount1 = d("2.1")
	got, err = engine.Discover(in)
	require.NoError(t, err)
	assert.True(t, got.Tracked.Token0.Equal(d("20")))
}

func TestReferenceRuleBypassesGate(t *testing.T) {
	engine := NewEngine(DefaultThresholds(), zaptest.NewLogger(t))
	pool := model.NewPool(1, "0x00000000000000000000000000000000000000f2", tokenA, network.ZeroAddress).WithRatio(d("2"))
	pool.TotalValueLockedToken0 = d("1")
	pool.TotalValueLockedToken1 = d("1000000")

	got, err := engine.Discover(TrackedInput{
		Pool:    pool,
		Token0:  token(tokenA, "0"),
		Token1:  token(network.ZeroAddress, "100"),
		Network: testNetwork(t),
	})
	require.NoError(t, err)
	assert.True(t, got.Tracked.Token0.Equal(d("200")))
	assert.Equal(t, RuleNative, got.Untracked.Rule)
}

func TestSwapTrustGrowth(t *testing.T) {
	pool := model.NewPool(1, "0x00000000000000000000000000000000000000f3", tokenA, tokenB).WithRatio(d("2"))
	pool.TotalValueLockedToken0 = d("100")
	pool.TotalValueLockedToken1 = d("200")

	grow0, grow1 := SwapTrustGrowth(pool, Discovery{Changed: [2]bool{true, false}})
	assert.True(t, grow0.Equal(d("100")))
	assert.True(t, grow1.IsZero())
}

func TestLiquidityRemovalLeavesLedgerUnchanged(t *testing.T) {
	n := testNetwork(t, tokenA, tokenB)
	pool := model.NewPool(1, "0x00000000000000000000000000000000000000f4", tokenA, tokenB).WithRatio(d("2"))
	pool.TotalValueLockedToken0 = d("100")
	pool.TotalValueLockedToken1 = d("200")

	t0, t1 := token(tokenA, "20"), token(tokenB, "10")
	t0.PriceDiscoveryTokenAmount = model.NewTrustLedger(d("7.5"))
	t1.PriceDiscoveryTokenAmount = model.NewTrustLedger(d("3"))

	grow0, grow1 := LiquidityTrustGrowth(pool, t0, t1, d("-10"), d("-20"), n)
	g0, g1 := ApplyTrustGrowth(t0, t1, grow0, grow1)
	assert.True(t, g0.PriceDiscoveryTokenAmount.Amount().Equal(d("7.5")))
	assert.True(t, g1.PriceDiscoveryTokenAmount.Amount().Equal(d("3")))
}

func TestLiquidityAdditionGrowsAgainstEligibleCounterpart(t *testing.T) {
	n := testNetwork(t, tokenB)
	pool := model.NewPool(1, "0x00000000000000000000000000000000000000f5", tokenA, tokenB).WithRatio(d("2"))
	pool.TotalValueLockedToken0 = d("100")
	pool.TotalValueLockedToken1 = d("200")

	grow0, grow1 := LiquidityTrustGrowth(pool, token(tokenA, "20"), token(tokenB, "10"), d("10"), d("20"), n)
	// token1 whitelisted: token0 grows by 20 token1 at 0.5 token0 each
	assert.True(t, grow0.Equal(d("10")))
	// token0 neither whitelisted nor proven
	assert.True(t, grow1.IsZero())
}
