package testutil

import (
	"encoding/csv"
	"strings"
	"time"

	"github.com/guregu/null/v6"

	"trackhigh/pkg/contracts/domain"
)

// FeedHeader is the header row of the snapshot feed.
var FeedHeader = []string{
	"Today's Date", "Symbol", "Sector", "Industry", "Series Type",
	"LTP", "Latest Price", "%chng", "Market Cap", "P/E Ratio",
	"ROE", "ROCE", "Book Value", "Dividend Yield", "Days Since High",
	"High52W", "About",
}

// FeedRow is one feed row keyed by header name. Missing keys are written
// as empty cells.
type FeedRow map[string]string

// FeedCSV renders rows under FeedHeader.
func FeedCSV(rows ...FeedRow) string {
	var b strings.Builder
	w := csv.NewWriter(&b)
	_ = w.Write(FeedHeader)
	for _, row := range rows {
		cells := make([]string, len(FeedHeader))
		for i, col := range FeedHeader {
			cells[i] = row[col]
		}
		_ = w.Write(cells)
	}
	w.Flush()
	return b.String()
}

// SampleFeed is a small feed covering two days, a dropped row and an
// unparsable date.
func SampleFeed() string {
	return FeedCSV(
		FeedRow{"Today's Date": "01-Dec-24", "Symbol": "abc", "Sector": "Tech", "Industry": "Software",
			"Series Type": "EQ", "LTP": "100", "Latest Price": "110", "%chng": "2.5%",
			"Market Cap": "₹1,500 Cr.", "P/E Ratio": "25", "Days Since High": "0", "High52W": "Yes"},
		FeedRow{"Today's Date": "01-Dec-24", "Symbol": "XYZ", "Sector": "Energy", "Industry": "Oil",
			"Series Type": "BE", "LTP": "50", "%chng": "-1.2", "Market Cap": "800", "High52W": "No"},
		FeedRow{"Today's Date": "02-Dec-24", "Symbol": "ABC", "Sector": "Tech", "Industry": "Software",
			"Series Type": "EQ", "LTP": "112", "Latest Price": "120", "%chng": "1.0",
			"Market Cap": "1,600", "P/E Ratio": "26", "Days Since High": "1", "High52W": "Yes"},
		FeedRow{"Today's Date": "02-Dec-24", "Symbol": "BAD", "Sector": "failed"},
		FeedRow{"Today's Date": "someday", "Symbol": "LMN", "Sector": "Pharma", "Series Type": "EQ",
			"%chng": "4"},
	)
}

// RecordOption customizes a fixture record.
type RecordOption func(*domain.Record)

// NewRecord builds a record for symbol on day ("2006-01-02") in the Tech
// sector, EQ series.
func NewRecord(symbol, day string, opts ...RecordOption) domain.Record {
	d, err := time.Parse("2006-01-02", day)
	if err != nil {
		panic(err)
	}
	r := domain.Record{
		Symbol:     symbol,
		Date:       d,
		Sector:     "Tech",
		Industry:   "Software",
		SeriesType: "EQ",
	}
	for _, opt := range opts {
		opt(&r)
	}
	return r
}

// Date parses a "2006-01-02" day for use in filter specs.
func Date(day string) *time.Time {
	d, err := time.Parse("2006-01-02", day)
	if err != nil {
		panic(err)
	}
	return &d
}

func WithSector(s string) RecordOption { return func(r *domain.Record) { r.Sector = s } }
func WithSeries(s string) RecordOption { return func(r *domain.Record) { r.SeriesType = s } }
func WithHigh() RecordOption           { return func(r *domain.Record) { r.IsHigh52W = true } }

func WithReturns(v float64) RecordOption {
	return func(r *domain.Record) { r.Returns = null.FloatFrom(v) }
}

func WithPercentChange(v float64) RecordOption {
	return func(r *domain.Record) { r.PercentChange = null.FloatFrom(v) }
}

func WithPrice(v float64) RecordOption {
	return func(r *domain.Record) { r.Price = null.FloatFrom(v) }
}

func WithMarketCap(v float64) RecordOption {
	return func(r *domain.Record) { r.MarketCap = null.FloatFrom(v) }
}

func WithPERatio(v float64) RecordOption {
	return func(r *domain.Record) { r.PERatio = null.FloatFrom(v) }
}

func WithDaysSinceHigh(v int64) RecordOption {
	return func(r *domain.Record) { r.DaysSinceHigh = null.IntFrom(v) }
}
