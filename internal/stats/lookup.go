package stats

import (
	"context"

	"poolScope/internal/model"
)

// SnapshotSource reads a pool's snapshot ladder.
type SnapshotSource interface {
	// Snapshot returns the slot at index, if it exists.
	Snapshot(ctx context.Context, poolID string, interval model.Interval, index int64) (model.PoolHistoricalData, bool, error)
	// Scan walks slot indexes from "from" towards "to" (either direction,
	// both inclusive) and returns the first slot that exists.
	Scan(ctx context.Context, poolID string, interval model.Interval, from, to int64) (model.PoolHistoricalData, bool, error)
}

// Query is one anchor search.
type Query struct {
	Pool      model.Pool
	Timeframe model.Timeframe
	Timestamp int64
}

func (q Query) target() int64 {
	return q.Timestamp - q.Timeframe.Seconds()
}

// Lookup searches for an anchor snapshot.
type Lookup func(ctx context.Context, q Query) (model.PoolHistoricalData, bool, error)

// FirstOf returns the first anchor any of the lookups finds, trying them in order.
func FirstOf(lookups ...Lookup) Lookup {
	return func(ctx context.Context, q Query) (model.PoolHistoricalData, bool, error) {
		for _, lookup := range lookups {
			snap, ok, err := lookup(ctx, q)
			if err != nil || ok {
				return snap, ok, err
			}
		}
		return model.PoolHistoricalData{}, false, nil
	}
}

// ExactHour reads the hourly slot exactly one timeframe before the query.
func ExactHour(src SnapshotSource) Lookup {
	return func(ctx context.Context, q Query) (model.PoolHistoricalData, bool, error) {
		return src.Snapshot(ctx, q.Pool.ID, model.Hourly, model.HourIndex(q.target()))
	}
}

// LadderScan searches an interval's ladder between the pool's creation and
// the window start. When the pool is older than the window the most recent
// slot at or before the window start wins; otherwise the oldest slot since
// creation does.
func LadderScan(src SnapshotSource, interval model.Interval) Lookup {
	return func(ctx context.Context, q Query) (model.PoolHistoricalData, bool, error) {
		created := model.PeriodIndex(interval, q.Pool.CreatedAtTimestamp)
		target := q.target()
		if q.Pool.CreatedAtTimestamp <= target {
			return src.Scan(ctx, q.Pool.ID, interval, model.PeriodIndex(interval, target), created)
		}
		return src.Scan(ctx, q.Pool.ID, interval, created, model.PeriodIndex(interval, q.Timestamp))
	}
}

// DefaultLookups returns the anchor search per timeframe.
func DefaultLookups(src SnapshotSource) map[model.Timeframe]Lookup {
	hourly := LadderScan(src, model.Hourly)
	daily := LadderScan(src, model.Daily)
	exact := ExactHour(src)

	return map[model.Timeframe]Lookup{
		model.Day:     FirstOf(exact, hourly),
		model.Week:    FirstOf(exact, daily, hourly),
		model.Month:   FirstOf(exact, daily, hourly),
		model.Quarter: FirstOf(exact, daily, hourly),
	}
}
