package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"math/big"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"poolScope/internal/model"
	"poolScope/internal/storage"
)

const (
	factory = "0x1f98431c8ad98523631ae4a59f267346ea31f984"
	pool2   = "0xcbcdf9626bc03e24f779434178a73a0b4bad62ed"
	pool3   = "0x4e68ccd3e89f51c3074ca5072bbac773960dfa36"
)

type jsonl struct {
	t   *testing.T
	buf bytes.Buffer
}

func (j *jsonl) line(s string) {
	j.buf.WriteString(s)
	j.buf.WriteByte('\n')
}

func (j *jsonl) record(chainID, block uint64, address, event string, data any, meta model.PoolMeta) {
	decoded, err := json.Marshal(data)
	require.NoError(j.t, err)
	out, err := json.Marshal(model.TypedEventRecord{
		ChainID:     chainID,
		BlockNumber: block,
		Address:     address,
		EventName:   event,
		Timestamp:   uint64(base) + block,
		Decoded:     decoded,
		PoolMeta:    meta,
	})
	require.NoError(j.t, err)
	j.line(string(out))
}

func runnerInput(t *testing.T) []byte {
	q96 := new(big.Int).Lsh(big.NewInt(1), 96)
	in := &jsonl{t: t}
	in.line(`{not json`)
	in.record(1, 10, factory, "PoolCreated", model.PoolCreatedEventData{
		Token0: usdc, Token1: weth, Fee: 500, TickSpacing: 10, Pool: pool,
	}, model.PoolMeta{Protocol: "uniswap-v3"})
	in.record(1, 11, pool, "Mint", model.MintEventData{
		Amount0: "2000000000", Amount1: "1000000000000000000",
	}, model.PoolMeta{})
	in.record(1, 12, pool, "Swap", model.SwapEventData{
		Amount0: "1000000", Amount1: "-400000000000000", SqrtPriceX96: q96.String(),
	}, model.PoolMeta{})
	in.record(1, 12, pool2, "Mint", model.MintEventData{
		Amount0: "1000000", Amount1: "1000000000000000",
	}, model.PoolMeta{Token0: usdc, Token1: weth, Fee: 3000, Protocol: "sushiswap-v3"})
	in.record(1, 13, pool, "Collect", map[string]string{"amount0": "1"}, model.PoolMeta{})
	in.record(1, 13, pool3, "Swap", model.SwapEventData{Amount0: "1", Amount1: "-1"}, model.PoolMeta{})
	in.record(999, 14, pool, "Swap", model.SwapEventData{Amount0: "1", Amount1: "-1"}, model.PoolMeta{})
	return in.buf.Bytes()
}

func TestRunnerProcessesTypedEvents(t *testing.T) {
	h := newHarness(t)
	checkpoint := &StoreCheckpoint{Store: h.store, Name: "process"}
	runner := NewRunner(RunnerConfig{Checkpoint: checkpoint}, h.networks, h.processor, h.sweeper, zaptest.NewLogger(t))

	input := runnerInput(t)
	res, err := runner.Process(context.Background(), bytes.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, RunStats{Total: 8, Applied: 4, Skipped: 1, Failed: 3, LastBlock: 14}, res)

	p := h.pool(t)
	assert.Equal(t, "uniswap-v3", p.Protocol)
	assert.Equal(t, uint32(500), p.FeeTier)
	assert.Equal(t, model.ConcentratedLiquidity, p.Kind)
	assert.Equal(t, uint64(1), p.SwapCount)
	assert.Equal(t, uint64(12), p.LastActivityBlock)

	lazy, err := h.store.Pools().GetOrThrow(context.Background(), model.EntityID(1, pool2))
	require.NoError(t, err)
	assert.Equal(t, "sushiswap-v3", lazy.Protocol)
	assert.Equal(t, uint64(12), lazy.CreatedAtBlock)
	assert.Equal(t, uint64(2), h.token(t, usdc).PoolsCount)

	_, ok, err := h.store.Pools().Get(context.Background(), model.EntityID(1, pool3))
	require.NoError(t, err)
	assert.False(t, ok)

	last, ok, err := checkpoint.Load(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, uint64(14), last)

	// a second pass over the same input resumes after the checkpoint
	res, err = runner.Process(context.Background(), bytes.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, RunStats{Total: 8, Skipped: 7, Failed: 1, LastBlock: 14}, res)
	assert.Equal(t, uint64(1), h.pool(t).SwapCount)
}

func TestRunnerReprocessFrom(t *testing.T) {
	h := newHarness(t)
	runner := NewRunner(RunnerConfig{ReprocessFrom: 13}, h.networks, h.processor, h.sweeper, zaptest.NewLogger(t))

	res, err := runner.Process(context.Background(), bytes.NewReader(runnerInput(t)))
	require.NoError(t, err)
	assert.Equal(t, 5, res.Skipped)
	assert.Equal(t, 0, res.Applied)
	assert.Equal(t, 3, res.Failed)
}

func TestRunnerRejectsBadAmounts(t *testing.T) {
	h := newHarness(t)
	in := &jsonl{t: t}
	in.record(1, 10, pool, "Swap", model.SwapEventData{Amount0: "1.5", Amount1: "-1"},
		model.PoolMeta{Token0: usdc, Token1: weth, Fee: 500})

	runner := NewRunner(RunnerConfig{}, h.networks, h.processor, h.sweeper, zaptest.NewLogger(t))
	res, err := runner.Process(context.Background(), bytes.NewReader(in.buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Failed)

	_, ok, err := h.store.Pools().Get(context.Background(), model.EntityID(1, pool))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRunnerRunMissingFile(t *testing.T) {
	h := newHarness(t)
	runner := NewRunner(RunnerConfig{}, h.networks, h.processor, h.sweeper, nil)
	_, err := runner.Run(context.Background(), filepath.Join(t.TempDir(), "missing.jsonl"))
	require.Error(t, err)
}

func TestFileCheckpointRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "checkpoint.json")
	cp := &FileCheckpoint{Path: path}

	_, ok, err := cp.Load(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, cp.Save(context.Background(), 42))
	last, ok, err := cp.Load(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, uint64(42), last)

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestFileCheckpointCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "checkpoint.json")
	require.NoError(t, os.WriteFile(path, []byte("{"), 0o644))

	_, _, err := (&FileCheckpoint{Path: path}).Load(context.Background())
	require.Error(t, err)
}

func TestStoreCheckpointRequiresName(t *testing.T) {
	cp := &StoreCheckpoint{Store: storage.NewMemory()}
	require.Error(t, cp.Save(context.Background(), 1))
}

type fixedClock map[uint64]uint64

func (c fixedClock) BlockTimestamp(_ context.Context, number uint64) (uint64, error) {
	return c[number], nil
}

func TestRunnerFillsMissingTimestamps(t *testing.T) {
	h := newHarness(t)
	decoded, err := json.Marshal(model.PoolCreatedEventData{Token0: usdc, Token1: weth, Fee: 500, Pool: pool})
	require.NoError(t, err)
	line, err := json.Marshal(model.TypedEventRecord{ChainID: 1, BlockNumber: 10, EventName: "PoolCreated", Decoded: decoded})
	require.NoError(t, err)

	clock := fixedClock{10: uint64(base) + 5}
	runner := NewRunner(RunnerConfig{Clock: clock}, h.networks, h.processor, h.sweeper, zaptest.NewLogger(t))
	res, err := runner.Process(context.Background(), bytes.NewReader(append(line, '\n')))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Applied)
	assert.Equal(t, base+5, h.pool(t).CreatedAtTimestamp)
}

func TestRunnerBurnRemovesLiquidity(t *testing.T) {
	h := newHarness(t)
	in := &jsonl{t: t}
	meta := model.PoolMeta{Token0: usdc, Token1: weth, Fee: 500}
	in.record(1, 10, pool, "Mint", model.MintEventData{Amount0: "2000000000", Amount1: "1000000000000000000"}, meta)
	in.record(1, 11, pool, "Burn", model.BurnEventData{Amount0: "500000000", Amount1: "250000000000000000"}, meta)

	runner := NewRunner(RunnerConfig{}, h.networks, h.processor, h.sweeper, zaptest.NewLogger(t))
	res, err := runner.Process(context.Background(), bytes.NewReader(in.buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, 2, res.Applied)

	p := h.pool(t)
	assert.True(t, p.TotalValueLockedToken0.Equal(d("1500")))
	assert.True(t, p.TotalValueLockedToken1.Equal(d("0.75")))
	assert.True(t, p.LiquidityVolumeToken0.Equal(d("2500")))
}

func TestRunnerPairCreatedRepricesOnMint(t *testing.T) {
	h := newHarness(t)
	in := &jsonl{t: t}
	in.record(1, 10, factory, "PairCreated", model.PoolCreatedEventData{
		Token0: usdc, Token1: weth, Pair: pool,
	}, model.PoolMeta{Protocol: "uniswap-v2"})
	in.record(1, 11, pool, "Mint", model.MintEventData{Amount0: "2000000000", Amount1: "1000000000000000000"}, model.PoolMeta{})
	in.record(1, 12, pool, "Mint", model.MintEventData{Amount0: "1000000000", Amount1: "0"}, model.PoolMeta{})

	runner := NewRunner(RunnerConfig{}, h.networks, h.processor, h.sweeper, zaptest.NewLogger(t))
	res, err := runner.Process(context.Background(), bytes.NewReader(in.buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, 3, res.Applied)

	p := h.pool(t)
	assert.Equal(t, model.ConstantProduct, p.Kind)
	assert.Equal(t, uint32(3000), p.FeeTier)
	assert.True(t, p.Tokens0PerToken1.Equal(d("3000")), "got %s", p.Tokens0PerToken1)
	assert.True(t, h.token(t, weth).USDPrice.Equal(d("3000")))
}

func TestRunnerPoolKindFromMeta(t *testing.T) {
	h := newHarness(t)
	in := &jsonl{t: t}
	in.record(1, 10, pool, "Mint", model.MintEventData{Amount0: "2000000000", Amount1: "1000000000000000000"},
		model.PoolMeta{Token0: usdc, Token1: weth, Kind: "constant_product"})
	in.record(1, 11, pool2, "Mint", model.MintEventData{Amount0: "1", Amount1: "1"},
		model.PoolMeta{Token0: usdc, Token1: weth, Kind: "stableswap"})

	runner := NewRunner(RunnerConfig{}, h.networks, h.processor, h.sweeper, zaptest.NewLogger(t))
	res, err := runner.Process(context.Background(), bytes.NewReader(in.buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Applied)
	assert.Equal(t, 1, res.Failed)

	p := h.pool(t)
	assert.Equal(t, model.ConstantProduct, p.Kind)
	assert.Equal(t, uint32(3000), p.FeeTier)
	assert.True(t, h.token(t, weth).USDPrice.Equal(d("2000")))
}

func TestPoolKindInference(t *testing.T) {
	tests := []struct {
		meta model.PoolMeta
		want model.PoolKind
	}{
		{model.PoolMeta{}, model.ConcentratedLiquidity},
		{model.PoolMeta{Protocol: "pancakeswap-v2"}, model.ConstantProduct},
		{model.PoolMeta{Protocol: "uniswap-v3"}, model.ConcentratedLiquidity},
		{model.PoolMeta{Protocol: "uniswap-v2", Kind: "concentrated_liquidity"}, model.ConcentratedLiquidity},
	}
	for _, tc := range tests {
		got, err := poolKind(tc.meta, model.ConcentratedLiquidity)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got, "%+v", tc.meta)
	}

	_, err := poolKind(model.PoolMeta{Kind: "weighted"}, model.ConcentratedLiquidity)
	assert.ErrorIs(t, err, errBadPayload)
}
