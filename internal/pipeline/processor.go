// Package pipeline applies pool events to the entity store: pool creation,
// swaps and liquidity changes, followed by the windowed-stats refresh and the
// periodic retirement sweep.
package pipeline

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"poolScope/internal/model"
	"poolScope/internal/network"
	"poolScope/internal/pricing"
	"poolScope/internal/stats"
	"poolScope/internal/storage"
)

// MetadataFetcher resolves token metadata for new token entities.
type MetadataFetcher interface {
	Get(ctx context.Context, n network.Network, address string) (model.TokenMeta, error)
}

// PoolCreation describes a pool seen for the first time.
type PoolCreation struct {
	Address   string
	Token0    string
	Token1    string
	FeeTier   uint32
	Kind      model.PoolKind
	Protocol  string
	Block     uint64
	Timestamp int64
}

// Processor runs each event as load, pure transformation, stats refresh and commit.
type Processor struct {
	store   storage.Store
	meta    MetadataFetcher
	pricing *pricing.Engine
	stats   *stats.Engine
	logger  *zap.Logger
}

func NewProcessor(store storage.Store, meta MetadataFetcher, pricingEngine *pricing.Engine, statsEngine *stats.Engine, logger *zap.Logger) *Processor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Processor{
		store:   store,
		meta:    meta,
		pricing: pricingEngine,
		stats:   statsEngine,
		logger:  logger,
	}
}

// CreatePool registers a pool and its tokens. Creating an existing pool is a no-op.
func (p *Processor) CreatePool(ctx context.Context, n network.Network, c PoolCreation) (model.Pool, error) {
	poolID := model.EntityID(n.ChainID, c.Address)
	if existing, ok, err := p.store.Pools().Get(ctx, poolID); err != nil || ok {
		return existing, err
	}

	token0, err := p.loadOrNewToken(ctx, n, c.Token0)
	if err != nil {
		return model.Pool{}, err
	}
	token1, err := p.loadOrNewToken(ctx, n, c.Token1)
	if err != nil {
		return model.Pool{}, err
	}
	token0.PoolsCount++
	token1.PoolsCount++

	pool := model.NewPool(n.ChainID, c.Address, c.Token0, c.Token1)
	pool.FeeTier = c.FeeTier
	if c.Kind != "" {
		pool.Kind = c.Kind
	}
	pool.Protocol = c.Protocol
	pool.CreatedAtBlock = c.Block
	pool.CreatedAtTimestamp = c.Timestamp
	pool.LastActivityBlock = c.Block
	pool.LastActivityTimestamp = c.Timestamp
	for i := range pool.YieldWindows {
		pool.YieldWindows[i].DataPointHour = model.HourIndex(c.Timestamp)
	}

	rows := stats.NewSet(pool.ID, c.Timestamp)
	changes := storage.ChangeSet{
		Pools:  []model.Pool{pool},
		Tokens: []model.Token{token0, token1},
		Snapshots: []model.PoolHistoricalData{
			model.OpenSnapshot(pool, model.Hourly, c.Timestamp),
			model.OpenSnapshot(pool, model.Daily, c.Timestamp),
		},
		Stats: rows[:],
	}
	if err := p.store.Commit(ctx, changes); err != nil {
		return model.Pool{}, fmt.Errorf("commit pool %s: %w", pool.ID, err)
	}

	p.logger.Debug("pool created",
		zap.String("pool", pool.ID),
		zap.String("token0", token0.ID),
		zap.String("token1", token1.ID),
		zap.Uint64("block", c.Block),
	)
	return pool, nil
}

func (p *Processor) loadOrNewToken(ctx context.Context, n network.Network, address string) (model.Token, error) {
	id := model.EntityID(n.ChainID, address)
	token, ok, err := p.store.Tokens().Get(ctx, id)
	if err != nil || ok {
		return token, err
	}
	if p.meta == nil {
		return model.Token{}, fmt.Errorf("token %s: no metadata fetcher", id)
	}
	meta, err := p.meta.Get(ctx, n, address)
	if err != nil {
		return model.Token{}, err
	}
	return model.NewToken(n.ChainID, meta), nil
}

// ProcessSwap applies a swap to an existing pool.
func (p *Processor) ProcessSwap(ctx context.Context, n network.Network, ev SwapEvent) error {
	st, err := p.load(ctx, n, ev.Pool, ev.Timestamp)
	if err != nil {
		return err
	}
	st, err = ApplySwap(st, ev, n, p.pricing)
	if err != nil {
		return fmt.Errorf("apply swap to %s: %w", st.Pool.ID, err)
	}
	return p.finish(ctx, st, ev.Timestamp)
}

// ProcessLiquidity applies a liquidity addition or removal to an existing pool.
func (p *Processor) ProcessLiquidity(ctx context.Context, n network.Network, ev LiquidityEvent) error {
	st, err := p.load(ctx, n, ev.Pool, ev.Timestamp)
	if err != nil {
		return err
	}
	st, err = ApplyLiquidity(st, ev, n, p.pricing)
	if err != nil {
		return fmt.Errorf("apply liquidity to %s: %w", st.Pool.ID, err)
	}
	return p.finish(ctx, st, ev.Timestamp)
}

func (p *Processor) load(ctx context.Context, n network.Network, address string, ts int64) (State, error) {
	pool, err := p.store.Pools().GetOrThrow(ctx, model.EntityID(n.ChainID, address))
	if err != nil {
		return State{}, err
	}
	token0, err := p.store.Tokens().GetOrThrow(ctx, pool.Token0)
	if err != nil {
		return State{}, err
	}
	token1, err := p.store.Tokens().GetOrThrow(ctx, pool.Token1)
	if err != nil {
		return State{}, err
	}
	hourly, err := p.openSnapshot(ctx, pool, model.Hourly, ts)
	if err != nil {
		return State{}, err
	}
	daily, err := p.openSnapshot(ctx, pool, model.Daily, ts)
	if err != nil {
		return State{}, err
	}
	rows, err := loadStats(ctx, p.store, pool, ts)
	if err != nil {
		return State{}, err
	}
	return State{Pool: pool, Token0: token0, Token1: token1, Hourly: hourly, Daily: daily, Stats: rows}, nil
}

// openSnapshot returns the ladder slot covering ts, opening it from the
// pre-event pool when the period has no slot yet.
func (p *Processor) openSnapshot(ctx context.Context, pool model.Pool, interval model.Interval, ts int64) (model.PoolHistoricalData, error) {
	snap, ok, err := p.store.Snapshot(ctx, pool.ID, interval, model.PeriodIndex(interval, ts))
	if err != nil {
		return snap, err
	}
	if !ok {
		snap = model.OpenSnapshot(pool, interval, ts)
	}
	return snap, nil
}

// loadStats reads the pool's stats rows. Missing rows start from the initial
// entity and are written by the caller's Commit.
func loadStats(ctx context.Context, store storage.Store, pool model.Pool, ts int64) (stats.Set, error) {
	var rows stats.Set
	for i, tf := range model.Timeframes {
		row, ok, err := store.Stats().Get(ctx, model.StatsID(pool.ID, tf))
		if err != nil {
			return rows, err
		}
		if !ok {
			row = model.InitialPoolTimeframedStatsEntity(pool.ID, tf, ts)
		}
		rows[i] = row
	}
	return rows, nil
}

func (p *Processor) finish(ctx context.Context, st State, ts int64) error {
	pool, rows, err := p.stats.Refresh(ctx, st.Pool, st.Stats, ts, false)
	if err != nil {
		return err
	}
	st.Pool, st.Stats = pool, rows

	tokens := []model.Token{st.Token0, st.Token1}
	if st.Token0.ID == st.Token1.ID {
		tokens = tokens[:1]
	}
	changes := storage.ChangeSet{
		Pools:     []model.Pool{st.Pool},
		Tokens:    tokens,
		Snapshots: []model.PoolHistoricalData{st.Hourly, st.Daily},
		Stats:     st.Stats[:],
	}
	if err := p.store.Commit(ctx, changes); err != nil {
		return fmt.Errorf("commit pool %s: %w", st.Pool.ID, err)
	}
	return nil
}
