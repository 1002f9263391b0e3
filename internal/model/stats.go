package model

import "github.com/shopspring/decimal"

var daysPerYear = decimal.NewFromInt(365)

// PoolTimeframedStats holds the delta between a pool's current totals and the
// totals at an anchor DataPointTimestamp one timeframe back.
type PoolTimeframedStats struct {
	ID                 string          `json:"id"`
	PoolID             string          `json:"pool_id"`
	Timeframe          Timeframe       `json:"timeframe"`
	DataPointTimestamp int64           `json:"data_point_timestamp"`
	Totals             Cumulative      `json:"totals"`
	YearlyYield        decimal.Decimal `json:"yearly_yield"`
}

func (s PoolTimeframedStats) EntityID() string { return s.ID }

// InitialPoolTimeframedStatsEntity returns the zero-valued stats row stamped at ts.
func InitialPoolTimeframedStatsEntity(poolID string, tf Timeframe, ts int64) PoolTimeframedStats {
	return PoolTimeframedStats{
		ID:                 StatsID(poolID, tf),
		PoolID:             poolID,
		Timeframe:          tf,
		DataPointTimestamp: ts,
	}
}

// WithTotals replaces the window totals and reprojects the yearly yield.
func (s PoolTimeframedStats) WithTotals(totals Cumulative) PoolTimeframedStats {
	s.Totals = totals
	s.YearlyYield = YearlyYield(totals.AccumulatedYield, s.Timeframe)
	return s
}

// YearlyYield projects a window's accumulated yield onto 365 days.
func YearlyYield(accumulated decimal.Decimal, tf Timeframe) decimal.Decimal {
	days := tf.Days()
	if days == 0 {
		return decimal.Zero
	}
	return accumulated.Mul(daysPerYear).Div(decimal.NewFromInt(days))
}
