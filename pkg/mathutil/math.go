package mathutil

import (
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

const coinPrecision = 10

var (
	//BigOne represents a single unit of a coin with precision 8
	BigOne = int64(math.Pow10(8))
	//BigOneDecimal represents a single unit of a coin with precision 8 as decimal.Decimal
	BigOneDecimal = decimal.NewFromInt(BigOne)
)

// CoinToSatoshi converts an amount expressed in coin units into satoshis.
// Digits beyond the 8th decimal place are floored.
func CoinToSatoshi(amount decimal.Decimal) int64 {
	if amount.IsZero() {
		return 0
	}
	return amount.Mul(BigOneDecimal).Floor().IntPart()
}

// SatoshiToCoin converts satoshis into coin units, without trailing zeros.
func SatoshiToCoin(sat int64) string {
	if sat == 0 {
		return "0"
	}
	return SatoshiToCoinDecimal(sat).String()
}

// SatoshiToCoinDecimal is like SatoshiToCoin but returns a decimal.Decimal.
func SatoshiToCoinDecimal(sat int64) decimal.Decimal {
	return decimal.NewFromInt(sat).DivRound(BigOneDecimal, coinPrecision)
}

// ParseCoinAmount parses a decimal coin amount like "0.0001".
func ParseCoinAmount(str string) (decimal.Decimal, error) {
	str = strings.TrimSpace(str)
	if str == "" {
		return decimal.Zero, nil
	}
	amount, err := decimal.NewFromString(str)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q: %w", str, err)
	}
	return amount, nil
}

// ParseFeeRate parses a fee rate expressed in satoshi per byte. Fractional
// rates are rounded up so that the resulting fee is never below the quote.
func ParseFeeRate(str string) (uint64, error) {
	rate, err := decimal.NewFromString(strings.TrimSpace(str))
	if err != nil {
		return 0, fmt.Errorf("invalid fee rate %q: %w", str, err)
	}
	if rate.IsNegative() {
		return 0, fmt.Errorf("fee rate must not be negative, got %s", str)
	}
	rounded := rate.Ceil().BigInt()
	if !rounded.IsUint64() {
		return 0, fmt.Errorf("fee rate %s out of range", str)
	}
	return rounded.Uint64(), nil
}
