package dataprocessing

import (
	"testing"

	"github.com/guregu/null/v6"
	"github.com/stretchr/testify/assert"
)

func TestParseNumeric(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  null.Float
	}{
		{"plain", "42", null.FloatFrom(42)},
		{"percent", "2.5%", null.FloatFrom(2.5)},
		{"negative", "-1.2", null.FloatFrom(-1.2)},
		{"rupee with separators", "₹1,234.50", null.FloatFrom(1234.5)},
		{"rs prefix", "Rs. 10", null.FloatFrom(10)},
		{"non-breaking space", "1\u00a0000", null.FloatFrom(1000)},
		{"padded", "  7  ", null.FloatFrom(7)},
		{"empty", "", null.Float{}},
		{"text", "abc", null.Float{}},
		{"nan", "NaN", null.Float{}},
		{"infinity", "Inf", null.Float{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseNumeric(tt.input))
		})
	}
}

func TestParseMarketCap(t *testing.T) {
	tests := []struct {
		input string
		want  null.Float
	}{
		{"₹1,500 Cr.", null.FloatFrom(1500)},
		{"Mcap 2,345.6 (approx)", null.FloatFrom(2345.6)},
		{"800", null.FloatFrom(800)},
		{"", null.Float{}},
		{"N/A", null.Float{}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseMarketCap(tt.input))
		})
	}
}

func TestParseWholeNumber(t *testing.T) {
	assert.Equal(t, null.IntFrom(12), ParseWholeNumber("12"))
	assert.Equal(t, null.IntFrom(12), ParseWholeNumber("12.0"))
	assert.Equal(t, null.IntFrom(0), ParseWholeNumber("0"))
	assert.False(t, ParseWholeNumber("x").Valid)
	assert.Equal(t, null.IntFrom(-3), ParseWholeNumber("-3"))

	// out of int64 range
	assert.False(t, ParseWholeNumber("1e30").Valid)
	assert.False(t, ParseWholeNumber("-1e30").Valid)
	assert.False(t, ParseWholeNumber("9223372036854775808").Valid)
}

func TestDeriveReturns(t *testing.T) {
	tests := []struct {
		name          string
		price, latest null.Float
		want          null.Float
	}{
		{"gain", null.FloatFrom(100), null.FloatFrom(110), null.FloatFrom(10)},
		{"loss", null.FloatFrom(200), null.FloatFrom(150.5), null.FloatFrom(-24.75)},
		{"rounded", null.FloatFrom(3), null.FloatFrom(3.5), null.FloatFrom(16.67)},
		{"half up away from zero", null.FloatFrom(200), null.FloatFrom(200.01), null.FloatFrom(0.01)},
		{"half down away from zero", null.FloatFrom(200), null.FloatFrom(199.99), null.FloatFrom(-0.01)},
		{"zero price", null.FloatFrom(0), null.FloatFrom(10), null.Float{}},
		{"zero latest", null.FloatFrom(10), null.FloatFrom(0), null.Float{}},
		{"missing latest", null.FloatFrom(10), null.Float{}, null.Float{}},
		{"missing price", null.Float{}, null.FloatFrom(10), null.Float{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DeriveReturns(tt.price, tt.latest))
		})
	}
}

func TestNormalizeSymbolAndFlag(t *testing.T) {
	assert.Equal(t, "RELIANCE", NormalizeSymbol("  reliance "))
	assert.True(t, ParseFlag(" yes"))
	assert.True(t, ParseFlag("Yes"))
	assert.False(t, ParseFlag("No"))
	assert.False(t, ParseFlag(""))
	assert.Equal(t, "N/A", textOrNA("  "))
}
