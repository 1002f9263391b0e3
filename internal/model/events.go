package model

import "encoding/json"

// TypedEventRecord is one decoded pool event from the typed events JSONL.
// Decoded holds the event payload; its shape depends on EventName.
type TypedEventRecord struct {
	ChainID     uint64          `json:"chain_id"`
	BlockNumber uint64          `json:"block_number"`
	BlockHash   string          `json:"block_hash"`
	TxHash      string          `json:"tx_hash"`
	LogIndex    uint64          `json:"log_index"`
	Address     string          `json:"address"`
	EventName   string          `json:"event_name"`
	Timestamp   uint64          `json:"timestamp"`
	Decoded     json.RawMessage `json:"decoded"`
	PoolMeta    PoolMeta        `json:"pool_meta"`
}

// PoolMeta is the immutable pool description attached to each record. Empty
// tokens mean the decoder did not know the pool. Kind is a PoolKind name; when
// empty it is inferred from Protocol.
type PoolMeta struct {
	Token0      string `json:"token0"`
	Token1      string `json:"token1"`
	Fee         uint32 `json:"fee"`
	TickSpacing int32  `json:"tick_spacing"`
	Protocol    string `json:"protocol,omitempty"`
	Kind        string `json:"kind,omitempty"`
}

// PoolCreatedEventData is a factory's creation payload. Concentrated-liquidity
// factories emit PoolCreated with Pool and Fee set; constant-product factories
// emit PairCreated with Pair set and no fee.
type PoolCreatedEventData struct {
	Token0      string `json:"token0"`
	Token1      string `json:"token1"`
	Fee         uint32 `json:"fee,omitempty"`
	TickSpacing int32  `json:"tick_spacing,omitempty"`
	Pool        string `json:"pool,omitempty"`
	Pair        string `json:"pair,omitempty"`
}

// SwapEventData carries signed raw amounts; SqrtPriceX96 is empty for
// constant-product pools.
type SwapEventData struct {
	Amount0      string `json:"amount0"`
	Amount1      string `json:"amount1"`
	SqrtPriceX96 string `json:"sqrt_price_x96"`
	Tick         int32  `json:"tick"`
}

// MintEventData is a liquidity addition.
type MintEventData struct {
	Owner   string `json:"owner"`
	Amount0 string `json:"amount0"`
	Amount1 string `json:"amount1"`
}

// BurnEventData is a liquidity removal. Amounts are unsigned.
type BurnEventData struct {
	Owner   string `json:"owner"`
	Amount0 string `json:"amount0"`
	Amount1 string `json:"amount1"`
}
