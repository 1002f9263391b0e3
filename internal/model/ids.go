package model

import (
	"fmt"
	"strings"
)

const (
	SecondsPerHour int64 = 3600
	SecondsPerDay  int64 = 86400
)

// EntityID builds the "{network}-{address}" id shared by pools and tokens.
func EntityID(network uint64, address string) string {
	return fmt.Sprintf("%d-%s", network, strings.ToLower(address))
}

// HourIndex returns floor(ts / 3600).
func HourIndex(ts int64) int64 {
	return floorDiv(ts, SecondsPerHour)
}

// DayIndex returns floor(ts / 86400).
func DayIndex(ts int64) int64 {
	return floorDiv(ts, SecondsPerDay)
}

// PeriodIndex returns the ladder index of ts for the interval.
func PeriodIndex(interval Interval, ts int64) int64 {
	return floorDiv(ts, interval.Seconds())
}

// SnapshotID builds the id of a pool's ladder slot.
func SnapshotID(poolID string, interval Interval, index int64) string {
	return fmt.Sprintf("%s:%s:%d", poolID, interval.slug(), index)
}

// PoolHourlyDataID returns the hourly snapshot id covering ts.
func PoolHourlyDataID(network uint64, pool string, ts int64) string {
	return SnapshotID(EntityID(network, pool), Hourly, HourIndex(ts))
}

// PoolDailyDataID returns the daily snapshot id covering ts.
func PoolDailyDataID(network uint64, pool string, ts int64) string {
	return SnapshotID(EntityID(network, pool), Daily, DayIndex(ts))
}

// StatsID builds the id of a pool's timeframed stats row.
func StatsID(poolID string, tf Timeframe) string {
	return poolID + ":stats:" + string(tf)
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}
