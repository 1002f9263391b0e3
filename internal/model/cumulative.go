package model

import (
	"github.com/shopspring/decimal"

	"poolScope/internal/mathutil"
)

// Cumulative is the bundle of monotonically accumulated pool metrics that
// snapshots record and rolling windows subtract.
type Cumulative struct {
	SwapVolumeUSD         decimal.Decimal `json:"swap_volume_usd"`
	TrackedSwapVolumeUSD  decimal.Decimal `json:"tracked_swap_volume_usd"`
	FeesUSD               decimal.Decimal `json:"fees_usd"`
	TrackedFeesUSD        decimal.Decimal `json:"tracked_fees_usd"`
	LiquidityVolumeUSD    decimal.Decimal `json:"liquidity_volume_usd"`
	LiquidityNetInflowUSD decimal.Decimal `json:"liquidity_net_inflow_usd"`
	AccumulatedYield      decimal.Decimal `json:"accumulated_yield"`
}

// Add returns c + o field by field.
func (c Cumulative) Add(o Cumulative) Cumulative {
	return Cumulative{
		SwapVolumeUSD:         c.SwapVolumeUSD.Add(o.SwapVolumeUSD),
		TrackedSwapVolumeUSD:  c.TrackedSwapVolumeUSD.Add(o.TrackedSwapVolumeUSD),
		FeesUSD:               c.FeesUSD.Add(o.FeesUSD),
		TrackedFeesUSD:        c.TrackedFeesUSD.Add(o.TrackedFeesUSD),
		LiquidityVolumeUSD:    c.LiquidityVolumeUSD.Add(o.LiquidityVolumeUSD),
		LiquidityNetInflowUSD: c.LiquidityNetInflowUSD.Add(o.LiquidityNetInflowUSD),
		AccumulatedYield:      c.AccumulatedYield.Add(o.AccumulatedYield),
	}
}

// Sub returns c - o field by field.
func (c Cumulative) Sub(o Cumulative) Cumulative {
	return Cumulative{
		SwapVolumeUSD:         c.SwapVolumeUSD.Sub(o.SwapVolumeUSD),
		TrackedSwapVolumeUSD:  c.TrackedSwapVolumeUSD.Sub(o.TrackedSwapVolumeUSD),
		FeesUSD:               c.FeesUSD.Sub(o.FeesUSD),
		TrackedFeesUSD:        c.TrackedFeesUSD.Sub(o.TrackedFeesUSD),
		LiquidityVolumeUSD:    c.LiquidityVolumeUSD.Sub(o.LiquidityVolumeUSD),
		LiquidityNetInflowUSD: c.LiquidityNetInflowUSD.Sub(o.LiquidityNetInflowUSD),
		AccumulatedYield:      c.AccumulatedYield.Sub(o.AccumulatedYield),
	}
}

// RoundUSD rounds every USD field; the yield is a ratio and stays exact.
func (c Cumulative) RoundUSD() Cumulative {
	return Cumulative{
		SwapVolumeUSD:         mathutil.RoundUSD(c.SwapVolumeUSD),
		TrackedSwapVolumeUSD:  mathutil.RoundUSD(c.TrackedSwapVolumeUSD),
		FeesUSD:               mathutil.RoundUSD(c.FeesUSD),
		TrackedFeesUSD:        mathutil.RoundUSD(c.TrackedFeesUSD),
		LiquidityVolumeUSD:    mathutil.RoundUSD(c.LiquidityVolumeUSD),
		LiquidityNetInflowUSD: mathutil.RoundUSD(c.LiquidityNetInflowUSD),
		AccumulatedYield:      c.AccumulatedYield,
	}
}

// Equal reports field-wise numeric equality.
func (c Cumulative) Equal(o Cumulative) bool {
	return c.SwapVolumeUSD.Equal(o.SwapVolumeUSD) &&
		c.TrackedSwapVolumeUSD.Equal(o.TrackedSwapVolumeUSD) &&
		c.FeesUSD.Equal(o.FeesUSD) &&
		c.TrackedFeesUSD.Equal(o.TrackedFeesUSD) &&
		c.LiquidityVolumeUSD.Equal(o.LiquidityVolumeUSD) &&
		c.LiquidityNetInflowUSD.Equal(o.LiquidityNetInflowUSD) &&
		c.AccumulatedYield.Equal(o.AccumulatedYield)
}
