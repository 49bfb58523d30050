package mathutil

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoinToSatoshi(t *testing.T) {
	tests := []struct {
		amount   string
		expected int64
	}{
		{"0", 0},
		{"0.00005", 5000},
		{"0.0001", 10000},
		{"2", 200000000},
		{"0.001", 100000},
		{"0.123456789", 12345678},
		{"21000000", 2100000000000000},
	}

	for _, tt := range tests {
		amount := decimal.RequireFromString(tt.amount)
		assert.Equal(t, tt.expected, CoinToSatoshi(amount), tt.amount)
	}
}

func TestSatoshiToCoin(t *testing.T) {
	tests := []struct {
		sat      int64
		expected string
	}{
		{0, "0"},
		{3575, "0.00003575"},
		{100000000, "1"},
		{113000000, "1.13"},
		{1, "0.00000001"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, SatoshiToCoin(tt.sat))
	}
}

func TestConversionRoundTrip(t *testing.T) {
	for _, sat := range []int64{1, 999, 1000, 3575, 12345678, 2100000000000000} {
		coin := SatoshiToCoinDecimal(sat)
		assert.Equal(t, sat, CoinToSatoshi(coin))
	}
}

func TestParseCoinAmount(t *testing.T) {
	amount, err := ParseCoinAmount(" 0.5 ")
	require.NoError(t, err)
	assert.True(t, amount.Equal(decimal.RequireFromString("0.5")))

	amount, err = ParseCoinAmount("")
	require.NoError(t, err)
	assert.True(t, amount.IsZero())

	_, err = ParseCoinAmount("1,5")
	assert.Error(t, err)
}

func TestParseFeeRate(t *testing.T) {
	tests := []struct {
		rate     string
		expected uint64
	}{
		{"25", 25},
		{"500000", 500000},
		{"3.2", 4},
		{"0", 0},
		{"18446744073709551615", math.MaxUint64},
	}

	for _, tt := range tests {
		rate, err := ParseFeeRate(tt.rate)
		require.NoError(t, err)
		assert.Equal(t, tt.expected, rate)
	}

	_, err := ParseFeeRate("-1")
	assert.Error(t, err)
	_, err = ParseFeeRate("fast")
	assert.Error(t, err)
	_, err = ParseFeeRate("1e30")
	assert.Error(t, err)
	_, err = ParseFeeRate("18446744073709551616")
	assert.Error(t, err)
}
