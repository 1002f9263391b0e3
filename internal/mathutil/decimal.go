package mathutil

import (
	"math/big"
	"sync"

	"github.com/shopspring/decimal"
)

// DivPrecision is the number of fractional digits kept by divisions.
const DivPrecision = 36

// USDPrecision is the rounding applied to USD fields of windowed stats.
const USDPrecision = 4

var (
	hundred = decimal.NewFromInt(100)
	two     = decimal.NewFromInt(2)

	pow10Once  sync.Once
	pow10Table [256]decimal.Decimal

	q96 = decimal.NewFromBigInt(new(big.Int).Lsh(big.NewInt(1), 96), 0)
)

func initPow10() {
	for i := range pow10Table {
		pow10Table[i] = decimal.New(1, int32(i))
	}
}

// Pow10 returns 10^exp from a cached table covering every ERC-20 decimals value.
func Pow10(exp uint8) decimal.Decimal {
	pow10Once.Do(initPow10)
	return pow10Table[exp]
}

// SafeDiv returns a/b, or zero when b is zero.
func SafeDiv(a, b decimal.Decimal) decimal.Decimal {
	if b.IsZero() {
		return decimal.Zero
	}
	return a.DivRound(b, DivPrecision)
}

// PercentageDifference returns |a-b| relative to the mean of |a| and |b|, in percent.
// Zero when both sides are zero.
func PercentageDifference(a, b decimal.Decimal) decimal.Decimal {
	mean := a.Abs().Add(b.Abs()).Div(two)
	if mean.IsZero() {
		return decimal.Zero
	}
	return a.Sub(b).Abs().DivRound(mean, DivPrecision).Mul(hundred)
}

// IsWithinThreshold reports whether a and b differ by at most threshold percent.
// Against a zero base the answer is true only when both values are zero.
func IsWithinThreshold(a, b, threshold decimal.Decimal) bool {
	if a.IsZero() || b.IsZero() {
		return a.IsZero() && b.IsZero()
	}
	return PercentageDifference(a, b).LessThanOrEqual(threshold)
}

// MulDivRoundingUp computes ceil(a*b/denominator) on integers.
// A zero denominator yields zero.
func MulDivRoundingUp(a, b, denominator *big.Int) *big.Int {
	if denominator == nil || denominator.Sign() == 0 || a == nil || b == nil {
		return big.NewInt(0)
	}
	product := new(big.Int).Mul(a, b)
	quo, rem := new(big.Int).QuoRem(product, denominator, new(big.Int))
	if rem.Sign() != 0 && (rem.Sign() > 0) == (denominator.Sign() > 0) {
		quo.Add(quo, big.NewInt(1))
	}
	return quo
}

// FromRaw converts a raw on-chain integer amount into token units.
func FromRaw(raw *big.Int, decimals uint8) decimal.Decimal {
	if raw == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(raw, -int32(decimals))
}

// ToRaw converts token units back into the raw integer amount, truncating
// anything below the token's smallest unit.
func ToRaw(amount decimal.Decimal, decimals uint8) *big.Int {
	return amount.Mul(Pow10(decimals)).Truncate(0).BigInt()
}

// RoundUSD rounds a USD amount to USDPrecision places.
func RoundUSD(v decimal.Decimal) decimal.Decimal {
	return v.Round(USDPrecision)
}

// PriceFromSqrtX96 converts a concentrated-liquidity sqrtPriceX96 into the
// number of token1 units per token0 unit, adjusted for token decimals.
func PriceFromSqrtX96(sqrtPriceX96 *big.Int, decimals0, decimals1 uint8) decimal.Decimal {
	if sqrtPriceX96 == nil || sqrtPriceX96.Sign() <= 0 {
		return decimal.Zero
	}
	root := decimal.NewFromBigInt(sqrtPriceX96, 0).DivRound(q96, DivPrecision)
	price := root.Mul(root)
	if decimals0 >= decimals1 {
		return price.Mul(Pow10(decimals0 - decimals1))
	}
	return SafeDiv(price, Pow10(decimals1-decimals0))
}
