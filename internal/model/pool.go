package model

import (
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"

	"poolScope/internal/mathutil"
)

// PoolKind distinguishes how a pool's exchange ratio is derived.
type PoolKind string

const (
	ConstantProduct       PoolKind = "constant_product"
	ConcentratedLiquidity PoolKind = "concentrated_liquidity"
)

// ParsePoolKind reads a pool kind name. Empty input yields an empty kind.
func ParsePoolKind(s string) (PoolKind, error) {
	switch k := PoolKind(strings.ToLower(strings.TrimSpace(s))); k {
	case "", ConstantProduct, ConcentratedLiquidity:
		return k, nil
	default:
		return "", fmt.Errorf("unknown pool kind %q", s)
	}
}

// RetiredBlock is the lastActivityBlock tombstone of a retired pool.
const RetiredBlock uint64 = math.MaxUint64

// YieldWindow tracks a pool's accumulated yield since a data point, stored as
// an hour marker.
type YieldWindow struct {
	DataPointHour    int64           `json:"data_point_hour"`
	AccumulatedYield decimal.Decimal `json:"accumulated_yield"`
}

// Pool is the per-(network, address) pool entity.
type Pool struct {
	ID       string   `json:"id"`
	ChainID  uint64   `json:"chain_id"`
	Address  string   `json:"address"`
	Token0   string   `json:"token0"`
	Token1   string   `json:"token1"`
	FeeTier  uint32   `json:"fee_tier"`
	Kind     PoolKind `json:"kind"`
	Protocol string   `json:"protocol,omitempty"`

	Tokens0PerToken1 decimal.Decimal `json:"tokens0_per_token1"`
	Tokens1PerToken0 decimal.Decimal `json:"tokens1_per_token0"`

	TotalValueLockedToken0     decimal.Decimal `json:"total_value_locked_token0"`
	TotalValueLockedToken1     decimal.Decimal `json:"total_value_locked_token1"`
	TotalValueLockedUSD        decimal.Decimal `json:"total_value_locked_usd"`
	TrackedTotalValueLockedUSD decimal.Decimal `json:"tracked_total_value_locked_usd"`

	SwapVolumeToken0      decimal.Decimal `json:"swap_volume_token0"`
	SwapVolumeToken1      decimal.Decimal `json:"swap_volume_token1"`
	LiquidityVolumeToken0 decimal.Decimal `json:"liquidity_volume_token0"`
	LiquidityVolumeToken1 decimal.Decimal `json:"liquidity_volume_token1"`
	LiquidityInflowUSD    decimal.Decimal `json:"liquidity_inflow_usd"`
	LiquidityOutflowUSD   decimal.Decimal `json:"liquidity_outflow_usd"`
	FeesToken0            decimal.Decimal `json:"fees_token0"`
	FeesToken1            decimal.Decimal `json:"fees_token1"`

	Totals       Cumulative     `json:"totals"`
	YieldWindows [4]YieldWindow `json:"yield_windows"`

	SwapCount                 uint64 `json:"swap_count"`
	LastActivityBlock         uint64 `json:"last_activity_block"`
	LastActivityTimestamp     int64  `json:"last_activity_timestamp"`
	LastStatsRefreshTimestamp int64  `json:"last_stats_refresh_timestamp"`
	CreatedAtBlock            uint64 `json:"created_at_block"`
	CreatedAtTimestamp        int64  `json:"created_at_timestamp"`
}

func (p Pool) EntityID() string { return p.ID }

// Retired reports whether the pool carries the retirement tombstone.
func (p Pool) Retired() bool {
	return p.LastActivityBlock == RetiredBlock
}

// WithTVL recomputes the USD-valued reserves from the given prices.
func (p Pool) WithTVL(price0, price1, tracked0, tracked1 decimal.Decimal) Pool {
	p.TotalValueLockedUSD = p.TotalValueLockedToken0.Mul(price0).Add(p.TotalValueLockedToken1.Mul(price1))
	p.TrackedTotalValueLockedUSD = p.TotalValueLockedToken0.Mul(tracked0).Add(p.TotalValueLockedToken1.Mul(tracked1))
	return p
}

// WithReserveRatio derives the exchange ratio from the reserves.
func (p Pool) WithReserveRatio() Pool {
	p.Tokens0PerToken1 = mathutil.SafeDiv(p.TotalValueLockedToken0, p.TotalValueLockedToken1)
	p.Tokens1PerToken0 = mathutil.SafeDiv(p.TotalValueLockedToken1, p.TotalValueLockedToken0)
	return p
}

// WithRatio sets the exchange ratio from a token1-per-token0 price.
func (p Pool) WithRatio(tokens1PerToken0 decimal.Decimal) Pool {
	p.Tokens1PerToken0 = tokens1PerToken0
	p.Tokens0PerToken1 = mathutil.SafeDiv(decimal.NewFromInt(1), tokens1PerToken0)
	return p
}

// NewPool returns a pool with no reserves or activity.
func NewPool(chainID uint64, address, token0, token1 string) Pool {
	return Pool{
		ID:      EntityID(chainID, address),
		ChainID: chainID,
		Address: address,
		Token0:  EntityID(chainID, token0),
		Token1:  EntityID(chainID, token1),
		Kind:    ConcentratedLiquidity,
	}
}
