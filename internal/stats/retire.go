package stats

import "poolScope/internal/model"

var inactivityLadder = []int64{1, 7, 30}

const maxInactiveDays = 90

// InactivityThreshold returns how long, in seconds, the pool may stay idle
// before retirement. Pools that were only briefly active retire sooner.
func InactivityThreshold(pool model.Pool) int64 {
	lifetime := pool.LastActivityTimestamp - pool.CreatedAtTimestamp
	for _, days := range inactivityLadder {
		if lifetime < days*model.SecondsPerDay {
			return days * model.SecondsPerDay
		}
	}
	return maxInactiveDays * model.SecondsPerDay
}

// ShouldRetire reports whether the pool has been idle past its threshold at ts.
func ShouldRetire(pool model.Pool, ts int64) bool {
	if pool.Retired() {
		return false
	}
	return ts-pool.LastActivityTimestamp > InactivityThreshold(pool)
}

// Retire resets every window and tombstones the pool.
func Retire(pool model.Pool, ts int64) (model.Pool, Set) {
	pool.LastActivityBlock = model.RetiredBlock
	for i := range pool.YieldWindows {
		pool.YieldWindows[i] = model.YieldWindow{DataPointHour: model.HourIndex(ts)}
	}
	return pool, NewSet(pool.ID, ts)
}
