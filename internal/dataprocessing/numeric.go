package dataprocessing

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/guregu/null/v6"
	"github.com/shopspring/decimal"
)

var (
	numericNoise = strings.NewReplacer(
		"%", "",
		"₹", "",
		"Rs.", "",
		",", "",
		" ", "",
		"\u00a0", "",
	)

	firstNumber = regexp.MustCompile(`\d+(?:\.\d+)?`)

	hundred = decimal.NewFromInt(100)
)

// ParseNumeric parses a feed cell that may carry percent signs, rupee
// symbols or thousands separators. Empty and unparsable cells are null.
func ParseNumeric(raw string) null.Float {
	clean := numericNoise.Replace(strings.TrimSpace(raw))
	if clean == "" {
		return null.Float{}
	}

	f, err := strconv.ParseFloat(clean, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return null.Float{}
	}
	return null.FloatFrom(f)
}

// ParseMarketCap extracts the first number from a currency string such as
// "₹1,500 Cr." or "Mcap 2,345.6 (approx)". It is null when no digits are present.
func ParseMarketCap(raw string) null.Float {
	clean := strings.ReplaceAll(strings.ReplaceAll(raw, "₹", ""), ",", "")
	match := firstNumber.FindString(clean)
	if match == "" {
		return null.Float{}
	}

	f, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return null.Float{}
	}
	return null.FloatFrom(f)
}

// ParseWholeNumber parses an integer cell, rounding values such as "12.0".
// Values outside the int64 range are null.
func ParseWholeNumber(raw string) null.Int {
	f := ParseNumeric(raw)
	if !f.Valid {
		return null.Int{}
	}
	r := math.Round(f.Float64)
	if r >= math.MaxInt64 || r < math.MinInt64 {
		return null.Int{}
	}
	return null.IntFrom(int64(r))
}

// DeriveReturns computes (latest - price) / price * 100 rounded half away
// from zero to two places. Both inputs must be present and non-zero.
func DeriveReturns(price, latest null.Float) null.Float {
	if !price.Valid || !latest.Valid || price.Float64 == 0 || latest.Float64 == 0 {
		return null.Float{}
	}

	p := decimal.NewFromFloat(price.Float64)
	l := decimal.NewFromFloat(latest.Float64)

	returns := l.Sub(p).Mul(hundred).Div(p).Round(2)
	return null.FloatFrom(returns.InexactFloat64())
}

// NormalizeSymbol trims and uppercases a ticker.
func NormalizeSymbol(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}

// ParseFlag reports whether a Yes/No cell is set.
func ParseFlag(raw string) bool {
	return strings.EqualFold(strings.TrimSpace(raw), "yes")
}

// textOrNA returns the trimmed value, or "N/A" when it is empty.
func textOrNA(raw string) string {
	v := strings.TrimSpace(raw)
	if v == "" {
		return "N/A"
	}
	return v
}
