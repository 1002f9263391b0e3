package pipeline

import (
	"context"
	"fmt"

	"github.com/puzpuzpuz/xsync/v4"
	"go.uber.org/zap"

	"poolScope/internal/model"
	"poolScope/internal/network"
	"poolScope/internal/stats"
	"poolScope/internal/storage"
)

// SweepResult counts what one sweep did.
type SweepResult struct {
	Visited   int
	Retired   int
	Refreshed int
}

// Sweeper retires long-idle pools and keeps the windows of quiet ones current.
type Sweeper struct {
	store     storage.Store
	stats     *stats.Engine
	lastSweep *xsync.Map[uint64, uint64]
	logger    *zap.Logger
}

func NewSweeper(store storage.Store, statsEngine *stats.Engine, logger *zap.Logger) *Sweeper {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sweeper{
		store:     store,
		stats:     statsEngine,
		lastSweep: xsync.NewMap[uint64, uint64](),
		logger:    logger,
	}
}

// OnBlock runs a sweep once per day of blocks on each chain.
func (s *Sweeper) OnBlock(ctx context.Context, n network.Network, block uint64, ts int64) error {
	if last, ok := s.lastSweep.Load(n.ChainID); ok && block < last+n.BlocksPerDay {
		return nil
	}
	if _, err := s.Sweep(ctx, n, block, ts); err != nil {
		return err
	}
	s.lastSweep.Store(n.ChainID, block)
	return nil
}

// Sweep visits every live pool idle for more than a day of blocks.
func (s *Sweeper) Sweep(ctx context.Context, n network.Network, block uint64, ts int64) (SweepResult, error) {
	var res SweepResult
	if block < n.BlocksPerDay {
		return res, nil
	}

	pools, err := s.store.StalePools(ctx, n.ChainID, block-n.BlocksPerDay)
	if err != nil {
		return res, fmt.Errorf("list stale pools: %w", err)
	}

	for _, pool := range pools {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		res.Visited++

		rows, err := loadStats(ctx, s.store, pool, ts)
		if err != nil {
			return res, err
		}
		if stats.ShouldRetire(pool, ts) {
			pool, rows = stats.Retire(pool, ts)
			res.Retired++
			s.logger.Info("pool retired",
				zap.String("pool", pool.ID),
				zap.Int64("last_activity", pool.LastActivityTimestamp),
				zap.Uint64("block", block),
			)
		} else {
			pool, rows, err = s.stats.Refresh(ctx, pool, rows, ts, true)
			if err != nil {
				return res, err
			}
			res.Refreshed++
		}

		changes := storage.ChangeSet{Pools: []model.Pool{pool}, Stats: rows[:]}
		if err := s.store.Commit(ctx, changes); err != nil {
			return res, fmt.Errorf("commit sweep of %s: %w", pool.ID, err)
		}
	}

	s.logger.Debug("sweep complete",
		zap.Uint64("chain_id", n.ChainID),
		zap.Uint64("block", block),
		zap.Int("visited", res.Visited),
		zap.Int("retired", res.Retired),
		zap.Int("refreshed", res.Refreshed),
	)
	return res, nil
}
