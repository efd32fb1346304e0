package dataprocessing

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Feed column names as they appear in the snapshot header row.
const (
	ColDate          = "Today's Date"
	ColSymbol        = "Symbol"
	ColSector        = "Sector"
	ColIndustry      = "Industry"
	ColSeriesType    = "Series Type"
	ColLTP           = "LTP"
	ColLatestPrice   = "Latest Price"
	ColPercentChange = "%chng"
	ColMarketCap     = "Market Cap"
	ColPERatio       = "P/E Ratio"
	ColROE           = "ROE"
	ColROCE          = "ROCE"
	ColBookValue     = "Book Value"
	ColDividendYield = "Dividend Yield"
	ColDaysSinceHigh = "Days Since High"
	ColHigh52W       = "High52W"
	ColAbout         = "About"
)

// RequiredColumns lists the header names the normalizer reads.
var RequiredColumns = []string{
	ColDate, ColSymbol, ColSector, ColIndustry, ColSeriesType,
	ColLTP, ColLatestPrice, ColPercentChange, ColMarketCap, ColPERatio,
	ColROE, ColROCE, ColBookValue, ColDividendYield, ColDaysSinceHigh,
	ColHigh52W, ColAbout,
}

// ErrEmptyFeed is returned when the document has no header row.
var ErrEmptyFeed = errors.New("feed document is empty")

// RawRow is one data row keyed by header name. Line is the 1-based line
// number in the source document.
type RawRow struct {
	Line   int
	Fields map[string]string
}

// Get returns the raw value of a column, or "" when the column is absent.
func (r RawRow) Get(column string) string {
	return r.Fields[column]
}

// ParseCSV reads a header-first comma separated document.
//
// Blank lines are skipped. Short rows leave the missing columns unset and
// cells beyond the header width are ignored. A leading UTF-8 byte order
// mark is removed from the first header name.
func ParseCSV(r io.Reader) ([]RawRow, []string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.ReuseRecord = false

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil, ErrEmptyFeed
	}
	if err != nil {
		return nil, nil, fmt.Errorf("read header: %w", err)
	}

	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	var rows []RawRow
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, header, fmt.Errorf("read row: %w", err)
		}

		if isBlank(record) {
			continue
		}

		line, _ := reader.FieldPos(0)
		fields := make(map[string]string, len(header))
		for i, name := range header {
			if i >= len(record) {
				break
			}
			if name == "" {
				continue
			}
			fields[name] = record[i]
		}
		rows = append(rows, RawRow{Line: line, Fields: fields})
	}

	return rows, header, nil
}

// MissingColumns reports which of RequiredColumns are absent from header.
func MissingColumns(header []string) []string {
	present := make(map[string]struct{}, len(header))
	for _, h := range header {
		present[h] = struct{}{}
	}

	var missing []string
	for _, c := range RequiredColumns {
		if _, ok := present[c]; !ok {
			missing = append(missing, c)
		}
	}
	return missing
}

func isBlank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
