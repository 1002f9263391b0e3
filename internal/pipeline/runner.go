package pipeline

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"os"
	"strings"

	"go.uber.org/zap"

	"poolScope/internal/model"
	"poolScope/internal/network"
	"poolScope/internal/storage"
)

// RunnerConfig controls which records a run processes.
type RunnerConfig struct {
	// ReprocessFrom, when set, overrides the checkpoint and starts at this block.
	ReprocessFrom uint64
	Checkpoint    Checkpoint
	// Clock fills in block timestamps missing from records. Optional.
	Clock BlockClock
}

// BlockClock resolves a block's timestamp.
type BlockClock interface {
	BlockTimestamp(ctx context.Context, number uint64) (uint64, error)
}

// RunStats summarizes a run.
type RunStats struct {
	Total     int
	Applied   int
	Skipped   int
	Failed    int
	LastBlock uint64
}

// Runner feeds typed-event JSONL records through the processor in file order.
type Runner struct {
	cfg       RunnerConfig
	networks  *network.Registry
	processor *Processor
	sweeper   *Sweeper
	logger    *zap.Logger
}

func NewRunner(cfg RunnerConfig, networks *network.Registry, processor *Processor, sweeper *Sweeper, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		cfg:       cfg,
		networks:  networks,
		processor: processor,
		sweeper:   sweeper,
		logger:    logger,
	}
}

// Run processes a typed events JSONL file.
func (r *Runner) Run(ctx context.Context, inputPath string) (RunStats, error) {
	file, err := os.Open(inputPath)
	if err != nil {
		return RunStats{}, fmt.Errorf("open input: %w", err)
	}
	defer file.Close()
	return r.Process(ctx, file)
}

// Process consumes JSONL records from in. Undecodable records and records
// for unknown pools or networks are logged and counted as failed; any other
// error aborts the run.
func (r *Runner) Process(ctx context.Context, in io.Reader) (RunStats, error) {
	var stats RunStats
	start, err := r.startBlock(ctx)
	if err != nil {
		return stats, err
	}
	stats.LastBlock = start

	scanner := bufio.NewScanner(in)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 10*1024*1024)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		stats.Total++

		var record model.TypedEventRecord
		if err := json.Unmarshal(line, &record); err != nil {
			stats.Failed++
			r.logger.Warn("decode typed event", zap.Error(err))
			continue
		}
		if record.BlockNumber <= start {
			stats.Skipped++
			continue
		}

		if record.BlockNumber > stats.LastBlock && stats.LastBlock > start {
			if err := r.saveCheckpoint(ctx, stats.LastBlock); err != nil {
				return stats, err
			}
		}
		if record.BlockNumber > stats.LastBlock {
			stats.LastBlock = record.BlockNumber
		}

		n, err := r.networks.Get(record.ChainID)
		if err != nil {
			stats.Failed++
			r.logger.Warn("unknown network", zap.Uint64("chain_id", record.ChainID), zap.String("tx", record.TxHash))
			continue
		}
		if record.Timestamp == 0 && r.cfg.Clock != nil {
			ts, err := r.cfg.Clock.BlockTimestamp(ctx, record.BlockNumber)
			if err != nil {
				return stats, fmt.Errorf("block %d timestamp: %w", record.BlockNumber, err)
			}
			record.Timestamp = ts
		}

		applied, err := r.apply(ctx, n, record)
		switch {
		case errors.Is(err, storage.ErrNotFound), errors.Is(err, errBadPayload):
			stats.Failed++
			r.logger.Warn("skip event",
				zap.Error(err),
				zap.String("pool", record.Address),
				zap.String("event", record.EventName),
				zap.Uint64("block", record.BlockNumber),
			)
		case err != nil:
			return stats, fmt.Errorf("block %d log %d: %w", record.BlockNumber, record.LogIndex, err)
		case applied:
			stats.Applied++
		default:
			stats.Skipped++
		}

		if err := r.sweeper.OnBlock(ctx, n, record.BlockNumber, int64(record.Timestamp)); err != nil {
			return stats, err
		}
	}
	if err := scanner.Err(); err != nil {
		return stats, fmt.Errorf("scan input: %w", err)
	}

	if stats.LastBlock > start {
		if err := r.saveCheckpoint(ctx, stats.LastBlock); err != nil {
			return stats, err
		}
	}

	r.logger.Info("process complete",
		zap.Int("total", stats.Total),
		zap.Int("applied", stats.Applied),
		zap.Int("skipped", stats.Skipped),
		zap.Int("failed", stats.Failed),
		zap.Uint64("last_block", stats.LastBlock),
	)
	return stats, nil
}

var errBadPayload = errors.New("bad event payload")

func (r *Runner) apply(ctx context.Context, n network.Network, record model.TypedEventRecord) (bool, error) {
	ts := int64(record.Timestamp)

	switch strings.ToLower(record.EventName) {
	case "poolcreated", "paircreated":
		var data model.PoolCreatedEventData
		if err := json.Unmarshal(record.Decoded, &data); err != nil {
			return false, fmt.Errorf("%w: decode pool created: %v", errBadPayload, err)
		}
		creation := PoolCreation{
			Address:   data.Pool,
			Token0:    data.Token0,
			Token1:    data.Token1,
			FeeTier:   data.Fee,
			Kind:      model.ConcentratedLiquidity,
			Protocol:  record.PoolMeta.Protocol,
			Block:     record.BlockNumber,
			Timestamp: ts,
		}
		if strings.EqualFold(record.EventName, "paircreated") {
			creation.Address = data.Pair
			creation.Kind = model.ConstantProduct
			if creation.FeeTier == 0 {
				creation.FeeTier = firstOf(record.PoolMeta.Fee, pairFeeTier)
			}
		}
		if creation.Address == "" {
			return false, fmt.Errorf("%w: pool created without an address", errBadPayload)
		}
		kind, err := poolKind(record.PoolMeta, creation.Kind)
		if err != nil {
			return false, err
		}
		creation.Kind = kind
		_, err = r.processor.CreatePool(ctx, n, creation)
		return err == nil, err

	case "swap":
		var data model.SwapEventData
		if err := json.Unmarshal(record.Decoded, &data); err != nil {
			return false, fmt.Errorf("%w: decode swap: %v", errBadPayload, err)
		}
		amount0, amount1, err := parseAmounts(data.Amount0, data.Amount1)
		if err != nil {
			return false, err
		}
		var sqrtPrice *big.Int
		if data.SqrtPriceX96 != "" {
			if sqrtPrice, err = parseBigInt(data.SqrtPriceX96); err != nil {
				return false, err
			}
		}
		if err := r.ensurePool(ctx, n, record); err != nil {
			return false, err
		}
		return true, r.processor.ProcessSwap(ctx, n, SwapEvent{
			Pool:         record.Address,
			Amount0:      amount0,
			Amount1:      amount1,
			SqrtPriceX96: sqrtPrice,
			Block:        record.BlockNumber,
			Timestamp:    ts,
		})

	case "mint", "burn":
		amount0, amount1, err := liquidityAmounts(record)
		if err != nil {
			return false, err
		}
		if err := r.ensurePool(ctx, n, record); err != nil {
			return false, err
		}
		return true, r.processor.ProcessLiquidity(ctx, n, LiquidityEvent{
			Pool:      record.Address,
			Amount0:   amount0,
			Amount1:   amount1,
			Block:     record.BlockNumber,
			Timestamp: ts,
		})

	default:
		// collect and unknown events do not move reserves
		return false, nil
	}
}

// ensurePool creates a pool first seen through one of its own events.
func (r *Runner) ensurePool(ctx context.Context, n network.Network, record model.TypedEventRecord) error {
	meta := record.PoolMeta
	if meta.Token0 == "" || meta.Token1 == "" {
		return nil
	}
	kind, err := poolKind(meta, model.ConcentratedLiquidity)
	if err != nil {
		return err
	}
	fee := meta.Fee
	if kind == model.ConstantProduct {
		fee = firstOf(fee, pairFeeTier)
	}
	_, err = r.processor.CreatePool(ctx, n, PoolCreation{
		Address:   record.Address,
		Token0:    meta.Token0,
		Token1:    meta.Token1,
		FeeTier:   fee,
		Kind:      kind,
		Protocol:  meta.Protocol,
		Block:     record.BlockNumber,
		Timestamp: int64(record.Timestamp),
	})
	return err
}

// pairFeeTier is the fixed 0.3% fee of constant-product pairs, in hundredths
// of a bip.
const pairFeeTier uint32 = 3000

// poolKind resolves the kind of a pool: an explicit kind wins, then the
// protocol's version suffix, then fallback.
func poolKind(meta model.PoolMeta, fallback model.PoolKind) (model.PoolKind, error) {
	kind, err := model.ParsePoolKind(meta.Kind)
	if err != nil {
		return "", fmt.Errorf("%w: %v", errBadPayload, err)
	}
	if kind != "" {
		return kind, nil
	}
	protocol := strings.ToLower(meta.Protocol)
	switch {
	case strings.HasSuffix(protocol, "-v2"):
		return model.ConstantProduct, nil
	case strings.HasSuffix(protocol, "-v3"):
		return model.ConcentratedLiquidity, nil
	}
	return fallback, nil
}

func firstOf(v, fallback uint32) uint32 {
	if v == 0 {
		return fallback
	}
	return v
}

func (r *Runner) startBlock(ctx context.Context) (uint64, error) {
	if r.cfg.ReprocessFrom > 0 {
		return r.cfg.ReprocessFrom - 1, nil
	}
	if r.cfg.Checkpoint == nil {
		return 0, nil
	}
	last, ok, err := r.cfg.Checkpoint.Load(ctx)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, nil
	}
	return last, nil
}

func (r *Runner) saveCheckpoint(ctx context.Context, block uint64) error {
	if r.cfg.Checkpoint == nil {
		return nil
	}
	return r.cfg.Checkpoint.Save(ctx, block)
}

// liquidityAmounts returns signed reserve deltas; burns remove liquidity.
func liquidityAmounts(record model.TypedEventRecord) (*big.Int, *big.Int, error) {
	if strings.EqualFold(record.EventName, "burn") {
		var data model.BurnEventData
		if err := json.Unmarshal(record.Decoded, &data); err != nil {
			return nil, nil, fmt.Errorf("%w: decode burn: %v", errBadPayload, err)
		}
		amount0, amount1, err := parseAmounts(data.Amount0, data.Amount1)
		if err != nil {
			return nil, nil, err
		}
		return amount0.Neg(amount0), amount1.Neg(amount1), nil
	}

	var data model.MintEventData
	if err := json.Unmarshal(record.Decoded, &data); err != nil {
		return nil, nil, fmt.Errorf("%w: decode mint: %v", errBadPayload, err)
	}
	return parseAmounts(data.Amount0, data.Amount1)
}

func parseAmounts(a0, a1 string) (*big.Int, *big.Int, error) {
	amount0, err := parseBigInt(a0)
	if err != nil {
		return nil, nil, err
	}
	amount1, err := parseBigInt(a1)
	if err != nil {
		return nil, nil, err
	}
	return amount0, amount1, nil
}

func parseBigInt(value string) (*big.Int, error) {
	if value == "" {
		return big.NewInt(0), nil
	}
	parsed, ok := new(big.Int).SetString(value, 10)
	if !ok {
		return nil, fmt.Errorf("%w: invalid int %q", errBadPayload, value)
	}
	return parsed, nil
}
