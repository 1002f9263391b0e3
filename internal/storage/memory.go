package storage

import (
	"context"
	"fmt"
	"sort"

	"github.com/puzpuzpuz/xsync/v4"

	"poolScope/internal/model"
)

type memTable[T Entity] struct {
	kind string
	rows *xsync.Map[string, T]
}

func newMemTable[T Entity](kind string) *memTable[T] {
	return &memTable[T]{kind: kind, rows: xsync.NewMap[string, T]()}
}

func (t *memTable[T]) Get(_ context.Context, id string) (T, bool, error) {
	v, ok := t.rows.Load(id)
	return v, ok, nil
}

func (t *memTable[T]) GetOrCreate(_ context.Context, def T) (T, error) {
	v, _ := t.rows.LoadOrStore(def.EntityID(), def)
	return v, nil
}

func (t *memTable[T]) GetOrThrow(_ context.Context, id string) (T, error) {
	v, ok := t.rows.Load(id)
	if !ok {
		return v, fmt.Errorf("%s %s: %w", t.kind, id, ErrNotFound)
	}
	return v, nil
}

func (t *memTable[T]) Set(_ context.Context, entity T) error {
	t.rows.Store(entity.EntityID(), entity)
	return nil
}

// Memory is an in-process Store.
type Memory struct {
	pools     *memTable[model.Pool]
	tokens    *memTable[model.Token]
	snapshots *memTable[model.PoolHistoricalData]
	stats     *memTable[model.PoolTimeframedStats]
	state     *xsync.Map[string, uint64]
}

func NewMemory() *Memory {
	return &Memory{
		pools:     newMemTable[model.Pool]("pool"),
		tokens:    newMemTable[model.Token]("token"),
		snapshots: newMemTable[model.PoolHistoricalData]("snapshot"),
		stats:     newMemTable[model.PoolTimeframedStats]("stats"),
		state:     xsync.NewMap[string, uint64](),
	}
}

func (m *Memory) Pools() Table[model.Pool] { return m.pools }
func (m *Memory) Tokens() Table[model.Token] { return m.tokens }
func (m *Memory) Snapshots() Table[model.PoolHistoricalData] { return m.snapshots }
func (m *Memory) Stats() Table[model.PoolTimeframedStats] { return m.stats }

func (m *Memory) Snapshot(ctx context.Context, poolID string, interval model.Interval, index int64) (model.PoolHistoricalData, bool, error) {
	return m.snapshots.Get(ctx, model.SnapshotID(poolID, interval, index))
}

func (m *Memory) Scan(ctx context.Context, poolID string, interval model.Interval, from, to int64) (model.PoolHistoricalData, bool, error) {
	step := int64(1)
	if to < from {
		step = -1
	}
	for i := from; ; i += step {
		if err := ctx.Err(); err != nil {
			return model.PoolHistoricalData{}, false, err
		}
		if snap, ok, _ := m.Snapshot(ctx, poolID, interval, i); ok {
			return snap, true, nil
		}
		if i == to {
			return model.PoolHistoricalData{}, false, nil
		}
	}
}

func (m *Memory) StalePools(_ context.Context, chainID uint64, beforeBlock uint64) ([]model.Pool, error) {
	var out []model.Pool
	m.pools.rows.Range(func(_ string, pool model.Pool) bool {
		if pool.ChainID == chainID && !pool.Retired() && pool.LastActivityBlock < beforeBlock {
			out = append(out, pool)
		}
		return true
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) Commit(ctx context.Context, changes ChangeSet) error {
	for _, p := range changes.Pools {
		_ = m.pools.Set(ctx, p)
	}
	for _, t := range changes.Tokens {
		_ = m.tokens.Set(ctx, t)
	}
	for _, s := range changes.Snapshots {
		_ = m.snapshots.Set(ctx, s)
	}
	for _, s := range changes.Stats {
		_ = m.stats.Set(ctx, s)
	}
	return nil
}

func (m *Memory) LoadState(_ context.Context, name string) (uint64, bool, error) {
	if name == "" {
		return 0, false, fmt.Errorf("state name required")
	}
	v, ok := m.state.Load(name)
	return v, ok, nil
}

func (m *Memory) SaveState(_ context.Context, name string, value uint64) error {
	if name == "" {
		return fmt.Errorf("state name required")
	}
	m.state.Store(name, value)
	return nil
}
