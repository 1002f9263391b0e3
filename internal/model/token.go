package model

import "github.com/shopspring/decimal"

// TokenMeta is the sanitized ERC-20 metadata a token entity is created from.
type TokenMeta struct {
	Address  string
	Decimals uint8
	Symbol   string
	Name     string
}

// Token is the per-network token entity.
type Token struct {
	ID       string `json:"id"`
	ChainID  uint64 `json:"chain_id"`
	Address  string `json:"address"`
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Decimals uint8  `json:"decimals"`

	USDPrice        decimal.Decimal `json:"usd_price"`
	TrackedUSDPrice decimal.Decimal `json:"tracked_usd_price"`

	PriceDiscoveryTokenAmount TrustLedger `json:"price_discovery_token_amount"`

	PoolsCount                 uint64          `json:"pools_count"`
	TokenTotalValuePooled      decimal.Decimal `json:"token_total_value_pooled"`
	TotalValuePooledUSD        decimal.Decimal `json:"total_value_pooled_usd"`
	TrackedTotalValuePooledUSD decimal.Decimal `json:"tracked_total_value_pooled_usd"`
}

func (t Token) EntityID() string { return t.ID }

// NewToken builds a token entity from fetched metadata.
func NewToken(chainID uint64, meta TokenMeta) Token {
	return Token{
		ID:       EntityID(chainID, meta.Address),
		ChainID:  chainID,
		Address:  meta.Address,
		Name:     meta.Name,
		Symbol:   meta.Symbol,
		Decimals: meta.Decimals,
	}
}

// WithPooledValue revalues the token's pooled amount at its current prices.
func (t Token) WithPooledValue() Token {
	t.TotalValuePooledUSD = t.TokenTotalValuePooled.Mul(t.USDPrice)
	t.TrackedTotalValuePooledUSD = t.TokenTotalValuePooled.Mul(t.TrackedUSDPrice)
	return t
}

// AveragePooled returns the token's pooled amount per pool.
func (t Token) AveragePooled() decimal.Decimal {
	if t.PoolsCount == 0 {
		return decimal.Zero
	}
	return t.TokenTotalValuePooled.Div(decimal.NewFromInt(int64(t.PoolsCount)))
}
