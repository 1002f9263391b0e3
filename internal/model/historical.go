package model

import "github.com/shopspring/decimal"

// PoolHistoricalData is one slot of a pool's hourly or daily snapshot ladder.
// AtStart holds the pool's cumulative totals when the period opened; AtEnd is
// overwritten by every event landing in the still-open period.
type PoolHistoricalData struct {
	ID          string   `json:"id"`
	PoolID      string   `json:"pool_id"`
	Interval    Interval `json:"interval"`
	PeriodIndex int64    `json:"period_index"`
	PeriodStart int64    `json:"period_start"`

	AtStart Cumulative `json:"at_start"`
	AtEnd   Cumulative `json:"at_end"`

	TotalValueLockedUSDAtStart decimal.Decimal `json:"total_value_locked_usd_at_start"`
	TotalValueLockedUSDAtEnd   decimal.Decimal `json:"total_value_locked_usd_at_end"`
	Token0PriceAtEnd           decimal.Decimal `json:"token0_price_at_end"`
	Token1PriceAtEnd           decimal.Decimal `json:"token1_price_at_end"`

	IntervalTotals Cumulative `json:"interval_totals"`

	IntervalSwapVolumeToken0 decimal.Decimal `json:"interval_swap_volume_token0"`
	IntervalSwapVolumeToken1 decimal.Decimal `json:"interval_swap_volume_token1"`
	IntervalFeesToken0       decimal.Decimal `json:"interval_fees_token0"`
	IntervalFeesToken1       decimal.Decimal `json:"interval_fees_token1"`
	IntervalSwapCount        uint64          `json:"interval_swap_count"`
}

func (h PoolHistoricalData) EntityID() string { return h.ID }

// OpenSnapshot starts the ladder slot covering ts from the pool's current state.
func OpenSnapshot(pool Pool, interval Interval, ts int64) PoolHistoricalData {
	index := PeriodIndex(interval, ts)
	return PoolHistoricalData{
		ID:                         SnapshotID(pool.ID, interval, index),
		PoolID:                     pool.ID,
		Interval:                   interval,
		PeriodIndex:                index,
		PeriodStart:                index * interval.Seconds(),
		AtStart:                    pool.Totals,
		AtEnd:                      pool.Totals,
		TotalValueLockedUSDAtStart: pool.TotalValueLockedUSD,
		TotalValueLockedUSDAtEnd:   pool.TotalValueLockedUSD,
	}
}
