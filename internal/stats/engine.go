// Package stats materializes rolling-window deltas from a pool's snapshot ladder.
package stats

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"poolScope/internal/model"
)

// Config bounds when a refresh runs.
type Config struct {
	// MaxEventAge skips refreshes for events older than this, relative to the wall clock.
	MaxEventAge time.Duration
	// RefreshInterval is the minimum spacing between refreshes of one pool.
	RefreshInterval time.Duration
}

func DefaultConfig() Config {
	return Config{
		MaxEventAge:     100 * 24 * time.Hour,
		RefreshInterval: time.Hour,
	}
}

// Set is a pool's four stats rows, indexed like model.Timeframes.
type Set [4]model.PoolTimeframedStats

// NewSet returns zero-valued rows stamped at ts.
func NewSet(poolID string, ts int64) Set {
	var s Set
	for i, tf := range model.Timeframes {
		s[i] = model.InitialPoolTimeframedStatsEntity(poolID, tf, ts)
	}
	return s
}

// Accumulate adds an event's cumulative delta to every row.
func (s Set) Accumulate(delta model.Cumulative) Set {
	for i := range s {
		s[i] = s[i].WithTotals(s[i].Totals.Add(delta))
	}
	return s
}

type Option func(*Engine)

// WithClock replaces the wall clock used for the event age check.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithLookups replaces the per-timeframe anchor searches.
func WithLookups(lookups map[model.Timeframe]Lookup) Option {
	return func(e *Engine) { e.lookups = lookups }
}

type Engine struct {
	cfg     Config
	lookups map[model.Timeframe]Lookup
	now     func() time.Time
	logger  *zap.Logger
}

func NewEngine(src SnapshotSource, cfg Config, logger *zap.Logger, opts ...Option) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &Engine{
		cfg:     cfg,
		lookups: DefaultLookups(src),
		now:     time.Now,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ShouldRefresh reports whether an event at ts may refresh the pool's windows.
func (e *Engine) ShouldRefresh(pool model.Pool, ts int64) bool {
	if pool.Retired() {
		return false
	}
	if ts < e.now().Add(-e.cfg.MaxEventAge).Unix() {
		return false
	}
	return ts-pool.LastStatsRefreshTimestamp >= int64(e.cfg.RefreshInterval/time.Second)
}

// Refresh recomputes the pool's windows against anchors one timeframe before
// ts. Rows without an anchor go back to zero, stamped at ts, including any
// delta the triggering event already accumulated into them; the row restarts
// counting from the next event. auto marks a periodic sweep, which never
// advances LastStatsRefreshTimestamp.
func (e *Engine) Refresh(ctx context.Context, pool model.Pool, rows Set, ts int64, auto bool) (model.Pool, Set, error) {
	if !e.ShouldRefresh(pool, ts) {
		return pool, rows, nil
	}

	anchored := false
	for i, tf := range model.Timeframes {
		lookup, ok := e.lookups[tf]
		if !ok {
			return pool, rows, fmt.Errorf("no anchor lookup for timeframe %s", tf)
		}
		anchor, found, err := lookup(ctx, Query{Pool: pool, Timeframe: tf, Timestamp: ts})
		if err != nil {
			return pool, rows, fmt.Errorf("find %s anchor for %s: %w", tf, pool.ID, err)
		}

		if !found {
			rows[i] = model.InitialPoolTimeframedStatsEntity(pool.ID, tf, ts)
			pool.YieldWindows[i] = model.YieldWindow{DataPointHour: model.HourIndex(ts)}
			continue
		}

		anchored = true
		row := model.InitialPoolTimeframedStatsEntity(pool.ID, tf, anchor.PeriodStart)
		rows[i] = row.WithTotals(pool.Totals.Sub(anchor.AtStart).RoundUSD())
		pool.YieldWindows[i] = model.YieldWindow{
			DataPointHour:    model.HourIndex(anchor.PeriodStart),
			AccumulatedYield: rows[i].Totals.AccumulatedYield,
		}
	}

	if anchored && !auto {
		pool.LastStatsRefreshTimestamp = ts
	}
	e.logger.Debug("refreshed pool windows",
		zap.String("pool", pool.ID),
		zap.Int64("ts", ts),
		zap.Bool("anchored", anchored),
		zap.Bool("auto", auto),
	)
	return pool, rows, nil
}
