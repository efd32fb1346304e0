package exporter

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/guregu/null/v6"

	"trackhigh/pkg/contracts/domain"
)

// RecordHeaders are the columns of a record export.
var RecordHeaders = []string{
	"Date", "Symbol", "Sector", "Industry", "Series Type",
	"LTP", "Latest Price", "%chng", "Returns", "Market Cap",
	"P/E Ratio", "ROE", "ROCE", "Book Value", "Dividend Yield",
	"Days Since High", "High52W", "Date Fallback",
}

// RankingHeaders are the columns of an occurrence ranking export.
var RankingHeaders = []string{"Rank", "Symbol", "Series Type", "Sector", "Occurrences", "Max Returns"}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// WriteOptions configures CSV writing behavior
type WriteOptions struct {
	Headers   []string
	Records   [][]string
	BOMPrefix bool // Add UTF-8 BOM for Excel compatibility
}

// WriteCSV writes headers and rows to w.
func WriteCSV(w io.Writer, options WriteOptions) error {
	if options.BOMPrefix {
		if _, err := w.Write(utf8BOM); err != nil {
			return fmt.Errorf("failed to write BOM: %w", err)
		}
	}

	writer := csv.NewWriter(w)
	if len(options.Headers) > 0 {
		if err := writer.Write(options.Headers); err != nil {
			return fmt.Errorf("failed to write headers: %w", err)
		}
	}
	for i, record := range options.Records {
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteRecordsCSV writes records with raw values. Null numbers become
// empty cells.
func WriteRecordsCSV(w io.Writer, records []domain.Record, bom bool) error {
	rows := make([][]string, len(records))
	for i, r := range records {
		rows[i] = recordRow(r)
	}
	return WriteCSV(w, WriteOptions{Headers: RecordHeaders, Records: rows, BOMPrefix: bom})
}

// WriteRankingCSV writes an occurrence ranking with 1-based ranks.
func WriteRankingCSV(w io.Writer, ranking []domain.SymbolOccurrence, bom bool) error {
	rows := make([][]string, len(ranking))
	for i, r := range ranking {
		rows[i] = []string{
			strconv.Itoa(i + 1),
			r.Symbol,
			r.SeriesType,
			r.Sector,
			strconv.Itoa(r.Occurrences),
			formatFloat(r.MaxReturns),
		}
	}
	return WriteCSV(w, WriteOptions{Headers: RankingHeaders, Records: rows, BOMPrefix: bom})
}

// WriteViewCSV writes the rows that make up view: the stock list, the
// ranking, or every matched symbol's history.
func WriteViewCSV(w io.Writer, view domain.View, bom bool) error {
	switch view.ViewType {
	case domain.ViewDateRange, domain.ViewMonth:
		return WriteRankingCSV(w, view.Ranking, bom)
	case domain.ViewSearchSymbol:
		return WriteRecordsCSV(w, HighSeries(view), bom)
	default:
		return WriteRecordsCSV(w, view.Stocks, bom)
	}
}

// HighSeries concatenates the history of every symbol in a symbol view.
func HighSeries(view domain.View) []domain.Record {
	out := make([]domain.Record, 0, view.Total)
	for _, h := range view.Highs {
		out = append(out, h.Series...)
	}
	return out
}

// CreateFile creates path and its parent directories.
func CreateFile(path string) (*os.File, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}
	slog.Debug("export file created", slog.String("path", path))
	return f, nil
}

func recordRow(r domain.Record) []string {
	return []string{
		r.Date.Format("2006-01-02"),
		r.Symbol,
		r.Sector,
		r.Industry,
		r.SeriesType,
		formatNullFloat(r.Price),
		formatNullFloat(r.LatestPrice),
		formatNullFloat(r.PercentChange),
		formatNullFloat(r.Returns),
		formatNullFloat(r.MarketCap),
		formatNullFloat(r.PERatio),
		formatNullFloat(r.ROE),
		formatNullFloat(r.ROCE),
		formatNullFloat(r.BookValue),
		formatNullFloat(r.DividendYield),
		formatNullInt(r.DaysSinceHigh),
		formatBool(r.IsHigh52W),
		formatBool(r.DateFallback),
	}
}

// formatFloat always uses two decimals so 13.4 appears as 13.40
func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', 2, 64)
}

func formatNullFloat(v null.Float) string {
	if !finite(v) {
		return ""
	}
	return formatFloat(v.Float64)
}

func formatNullInt(v null.Int) string {
	if !v.Valid {
		return ""
	}
	return strconv.FormatInt(v.Int64, 10)
}

func formatBool(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
