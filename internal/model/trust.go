package model

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// TrustLedger accumulates how much counter-side liquidity a token has been
// priced against. It can only grow.
type TrustLedger struct {
	amount decimal.Decimal
}

// NewTrustLedger starts a ledger at amount, clamped at zero.
func NewTrustLedger(amount decimal.Decimal) TrustLedger {
	return TrustLedger{}.Grow(amount)
}

// Amount returns the accumulated value.
func (l TrustLedger) Amount() decimal.Decimal {
	return l.amount
}

// Grow returns a ledger increased by amount. Non-positive amounts are ignored.
func (l TrustLedger) Grow(amount decimal.Decimal) TrustLedger {
	if !amount.IsPositive() {
		return l
	}
	return TrustLedger{amount: l.amount.Add(amount)}
}

// Exceeds reports whether the ledger is strictly greater than v.
func (l TrustLedger) Exceeds(v decimal.Decimal) bool {
	return l.amount.GreaterThan(v)
}

func (l TrustLedger) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.amount)
}

func (l *TrustLedger) UnmarshalJSON(data []byte) error {
	var amount decimal.Decimal
	if err := json.Unmarshal(data, &amount); err != nil {
		return err
	}
	*l = NewTrustLedger(amount)
	return nil
}
