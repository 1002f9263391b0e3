package mathutil

import (
	"math/big"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestSafeDiv(t *testing.T) {
	assert.True(t, SafeDiv(d("10"), decimal.Zero).IsZero())
	assert.True(t, SafeDiv(d("10"), d("4")).Equal(d("2.5")))
	assert.True(t, SafeDiv(decimal.Zero, d("3")).IsZero())
}

func TestPercentageDifference(t *testing.T) {
	// |110-90| / 100 * 100
	assert.True(t, PercentageDifference(d("110"), d("90")).Equal(d("20")))
	assert.True(t, PercentageDifference(decimal.Zero, decimal.Zero).IsZero())
}

func TestIsWithinThresholdZeroBase(t *testing.T) {
	threshold := d("1000000")
	assert.True(t, IsWithinThreshold(decimal.Zero, decimal.Zero, threshold))
	assert.False(t, IsWithinThreshold(decimal.Zero, d("1"), threshold))
	assert.False(t, IsWithinThreshold(d("1"), decimal.Zero, threshold))
}

func TestIsWithinThresholdSymmetric(t *testing.T) {
	pairs := [][2]string{
		{"100", "105"},
		{"100", "125"},
		{"0.0001", "0.00011"},
		{"3", "0"},
		{"7", "7"},
	}
	thresholds := []string{"0", "5", "10", "25"}

	for _, pair := range pairs {
		for _, th := range thresholds {
			a, b, limit := d(pair[0]), d(pair[1]), d(th)
			assert.Equal(t, IsWithinThreshold(a, b, limit), IsWithinThreshold(b, a, limit), "a=%s b=%s t=%s", pair[0], pair[1], th)
		}
	}

	assert.True(t, IsWithinThreshold(d("100"), d("105"), d("5")))
	assert.False(t, IsWithinThreshold(d("100"), d("125"), d("10")))
}

func TestMulDivRoundingUp(t *testing.T) {
	got := MulDivRoundingUp(big.NewInt(10), big.NewInt(3), big.NewInt(4))
	assert.Equal(t, int64(8), got.Int64())

	got = MulDivRoundingUp(big.NewInt(8), big.NewInt(3), big.NewInt(4))
	assert.Equal(t, int64(6), got.Int64())

	got = MulDivRoundingUp(big.NewInt(-10), big.NewInt(3), big.NewInt(4))
	assert.Equal(t, int64(-7), got.Int64())

	assert.Zero(t, MulDivRoundingUp(big.NewInt(1), big.NewInt(1), big.NewInt(0)).Sign())
}

func TestRawConversion(t *testing.T) {
	raw, ok := new(big.Int).SetString("1234500000000000000", 10)
	require.True(t, ok)

	amount := FromRaw(raw, 18)
	assert.True(t, amount.Equal(d("1.2345")))
	assert.Equal(t, raw.String(), ToRaw(amount, 18).String())

	assert.Equal(t, "1", ToRaw(d("1.9"), 0).String())
	assert.True(t, FromRaw(big.NewInt(-2500000), 6).Equal(d("-2.5")))
	assert.True(t, FromRaw(nil, 6).IsZero())
}

func TestPow10Table(t *testing.T) {
	assert.True(t, Pow10(0).Equal(decimal.NewFromInt(1)))
	assert.True(t, Pow10(6).Equal(decimal.NewFromInt(1_000_000)))
	assert.Equal(t, int32(255), Pow10(255).Exponent())
}

func TestPriceFromSqrtX96(t *testing.T) {
	q96 := new(big.Int).Lsh(big.NewInt(1), 96)

	// sqrt price of 1 with equal decimals
	assert.True(t, PriceFromSqrtX96(q96, 18, 18).Equal(decimal.NewFromInt(1)))

	// sqrt price of 2 -> price 4
	twice := new(big.Int).Mul(q96, big.NewInt(2))
	assert.True(t, PriceFromSqrtX96(twice, 18, 18).Equal(decimal.NewFromInt(4)))

	// raw price 1 with token0 at 18 decimals and token1 at 6
	assert.True(t, PriceFromSqrtX96(q96, 18, 6).Equal(decimal.New(1, 12)))
	assert.True(t, PriceFromSqrtX96(q96, 6, 18).Equal(decimal.New(1, -12)))

	assert.True(t, PriceFromSqrtX96(nil, 18, 18).IsZero())
}

func TestRoundUSD(t *testing.T) {
	assert.True(t, RoundUSD(d("1.23456")).Equal(d("1.2346")))
}
