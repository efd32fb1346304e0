package domain

import (
	"strings"
	"time"

	"github.com/guregu/null/v6"
)

// NotAvailable is the placeholder used for missing categorical fields.
const NotAvailable = "N/A"

// Record represents one stock snapshot for one trading date.
//
// Records are produced by the row normalizer and are immutable once they
// enter a snapshot. Optional numeric fields are nullable; a null value means
// the feed cell was empty or could not be parsed.
type Record struct {
	Symbol string    `json:"symbol"`
	Date   time.Time `json:"date"`

	// DateFallback is set when the feed date could not be parsed and the
	// load time was substituted for it.
	DateFallback bool `json:"date_fallback,omitempty"`

	Sector     string `json:"sector"`
	Industry   string `json:"industry"`
	SeriesType string `json:"series_type"`

	Price         null.Float `json:"ltp"`
	LatestPrice   null.Float `json:"latest_price"`
	PercentChange null.Float `json:"percent_change"`
	Returns       null.Float `json:"returns"`
	MarketCap     null.Float `json:"market_cap"`
	PERatio       null.Float `json:"pe_ratio"`
	ROE           null.Float `json:"roe"`
	ROCE          null.Float `json:"roce"`
	BookValue     null.Float `json:"book_value"`
	DividendYield null.Float `json:"dividend_yield"`
	DaysSinceHigh null.Int   `json:"days_since_high"`

	IsHigh52W bool   `json:"is_high_52w"`
	About     string `json:"about,omitempty"`
}

// ChangeValue returns the change figure used for averages and rankings:
// the derived returns when present, else the feed's percent change, else 0.
func (r Record) ChangeValue() float64 {
	if r.Returns.Valid {
		return r.Returns.Float64
	}
	if r.PercentChange.Valid {
		return r.PercentChange.Float64
	}
	return 0
}

// Day returns the record date truncated to a calendar day in UTC.
func (r Record) Day() time.Time {
	return CalendarDay(r.Date)
}

// MonthLabel returns the "January 2006" label of the record's month.
func (r Record) MonthLabel() string {
	return MonthLabel(r.Date)
}

// CalendarDay truncates t to midnight UTC of its calendar day.
func CalendarDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// SameDay reports whether a and b fall on the same calendar day.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// MonthLabel formats t as a month option label, e.g. "December 2024".
func MonthLabel(t time.Time) string {
	return t.Format("January 2006")
}

// IsPlaceholder reports whether a categorical value means "no value".
// Empty strings, "N/A" and the literal "nan" left by upstream tooling
// are treated alike.
func IsPlaceholder(v string) bool {
	v = strings.TrimSpace(v)
	return v == "" || v == NotAvailable || strings.EqualFold(v, "nan")
}

// RowError describes a problem found while normalizing a single feed row.
type RowError struct {
	Line   int    `json:"line"`
	Symbol string `json:"symbol,omitempty"`
	Field  string `json:"field,omitempty"`
	Reason string `json:"reason"`
}

// Column identifies a categorical record field for generic lookups.
type Column string

const (
	ColumnSector     Column = "sector"
	ColumnIndustry   Column = "industry"
	ColumnSeriesType Column = "series_type"
	ColumnSymbol     Column = "symbol"
)

// ParseColumn maps API and feed spellings to a Column.
func ParseColumn(s string) (Column, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "sector":
		return ColumnSector, true
	case "industry":
		return ColumnIndustry, true
	case "series_type", "series", "series type":
		return ColumnSeriesType, true
	case "symbol":
		return ColumnSymbol, true
	}
	return "", false
}

// Value returns the field of r named by c.
func (c Column) Value(r Record) string {
	switch c {
	case ColumnSector:
		return r.Sector
	case ColumnIndustry:
		return r.Industry
	case ColumnSeriesType:
		return r.SeriesType
	case ColumnSymbol:
		return r.Symbol
	}
	return ""
}
