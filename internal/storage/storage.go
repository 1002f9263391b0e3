// Package storage defines the entity store the pipeline reads and writes.
package storage

import (
	"context"
	"errors"

	"poolScope/internal/model"
)

// ErrNotFound is returned by GetOrThrow when the entity is absent.
var ErrNotFound = errors.New("entity not found")

// Entity is anything keyed by a deterministic string id.
type Entity interface {
	EntityID() string
}

// Table is the per-kind entity accessor.
type Table[T Entity] interface {
	Get(ctx context.Context, id string) (T, bool, error)
	// GetOrCreate returns the stored entity with def's id, storing def when absent.
	GetOrCreate(ctx context.Context, def T) (T, error)
	// GetOrThrow fails with ErrNotFound when the entity is absent.
	GetOrThrow(ctx context.Context, id string) (T, error)
	Set(ctx context.Context, entity T) error
}

// ChangeSet is every entity one event wrote.
type ChangeSet struct {
	Pools     []model.Pool
	Tokens    []model.Token
	Snapshots []model.PoolHistoricalData
	Stats     []model.PoolTimeframedStats
}

func (c ChangeSet) Empty() bool {
	return len(c.Pools) == 0 && len(c.Tokens) == 0 && len(c.Snapshots) == 0 && len(c.Stats) == 0
}

// Store groups the entity tables with the queries the engines need.
type Store interface {
	Pools() Table[model.Pool]
	Tokens() Table[model.Token]
	Snapshots() Table[model.PoolHistoricalData]
	Stats() Table[model.PoolTimeframedStats]

	// Snapshot reads one slot of a pool's ladder.
	Snapshot(ctx context.Context, poolID string, interval model.Interval, index int64) (model.PoolHistoricalData, bool, error)
	// Scan returns the first existing slot walking indexes from "from" to "to".
	Scan(ctx context.Context, poolID string, interval model.Interval, from, to int64) (model.PoolHistoricalData, bool, error)
	// StalePools lists live pools of a chain last active before beforeBlock.
	StalePools(ctx context.Context, chainID uint64, beforeBlock uint64) ([]model.Pool, error)

	// Commit persists a change set atomically.
	Commit(ctx context.Context, changes ChangeSet) error
}

// StateStore persists named progress markers.
type StateStore interface {
	LoadState(ctx context.Context, name string) (uint64, bool, error)
	SaveState(ctx context.Context, name string, value uint64) error
}
