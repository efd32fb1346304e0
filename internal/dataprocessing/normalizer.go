package dataprocessing

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"trackhigh/pkg/contracts/domain"
)

// failedSectorMarker is written by the upstream scraper when a lookup failed.
const failedSectorMarker = "failed"

// NormalizeResult is the outcome of normalizing one feed document.
type NormalizeResult struct {
	Records []domain.Record
	Errors  []domain.RowError

	TotalRows     int
	DroppedRows   int // missing or failed sector
	RejectedRows  int // empty symbol or row-level failure
	DateFallbacks int
}

// NormalizerOption configures a Normalizer.
type NormalizerOption func(*Normalizer)

// WithClock overrides the load-time clock used as the date fallback.
func WithClock(now func() time.Time) NormalizerOption {
	return func(n *Normalizer) {
		if now != nil {
			n.now = now
		}
	}
}

// Normalizer converts raw feed rows into typed records.
type Normalizer struct {
	logger *slog.Logger
	now    func() time.Time
}

// NewNormalizer creates a Normalizer. A nil logger uses slog.Default.
func NewNormalizer(logger *slog.Logger, opts ...NormalizerOption) *Normalizer {
	if logger == nil {
		logger = slog.Default()
	}
	n := &Normalizer{
		logger: logger.With(slog.String("component", "normalizer")),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Normalize converts rows independently. A failing row never aborts the
// batch; it is excluded and reported in NormalizeResult.Errors.
func (n *Normalizer) Normalize(ctx context.Context, rows []RawRow) NormalizeResult {
	loadDay := domain.CalendarDay(n.now())
	result := NormalizeResult{
		Records:   make([]domain.Record, 0, len(rows)),
		TotalRows: len(rows),
	}

	for _, row := range rows {
		rec, rowErrs, outcome := n.normalizeRow(ctx, row, loadDay)
		result.Errors = append(result.Errors, rowErrs...)

		switch outcome {
		case rowKept:
			if rec.DateFallback {
				result.DateFallbacks++
			}
			result.Records = append(result.Records, rec)
		case rowDropped:
			result.DroppedRows++
		case rowRejected:
			result.RejectedRows++
		}
	}

	n.logger.InfoContext(ctx, "feed rows normalized",
		slog.Int("total_rows", result.TotalRows),
		slog.Int("records", len(result.Records)),
		slog.Int("dropped_rows", result.DroppedRows),
		slog.Int("rejected_rows", result.RejectedRows),
		slog.Int("date_fallbacks", result.DateFallbacks))

	return result
}

type rowOutcome int

const (
	rowKept rowOutcome = iota
	rowDropped
	rowRejected
)

func (n *Normalizer) normalizeRow(ctx context.Context, row RawRow, loadDay time.Time) (rec domain.Record, errs []domain.RowError, outcome rowOutcome) {
	defer func() {
		if p := recover(); p != nil {
			n.logger.ErrorContext(ctx, "row normalization panicked",
				slog.Int("line", row.Line),
				slog.Any("panic", p))
			errs = append(errs, domain.RowError{
				Line:   row.Line,
				Symbol: NormalizeSymbol(row.Get(ColSymbol)),
				Reason: fmt.Sprintf("row could not be normalized: %v", p),
			})
			rec, outcome = domain.Record{}, rowRejected
		}
	}()

	sector := strings.TrimSpace(row.Get(ColSector))
	if sector == "" || strings.EqualFold(sector, failedSectorMarker) {
		n.logger.DebugContext(ctx, "dropping row without usable sector",
			slog.Int("line", row.Line),
			slog.String("symbol", row.Get(ColSymbol)),
			slog.String("sector", sector))
		return domain.Record{}, nil, rowDropped
	}

	symbol := NormalizeSymbol(row.Get(ColSymbol))
	if symbol == "" {
		n.logger.WarnContext(ctx, "rejecting row without symbol", slog.Int("line", row.Line))
		return domain.Record{}, []domain.RowError{{
			Line:   row.Line,
			Field:  ColSymbol,
			Reason: "symbol is empty",
		}}, rowRejected
	}

	rec = domain.Record{
		Symbol:        symbol,
		Sector:        sector,
		Industry:      textOrNA(row.Get(ColIndustry)),
		SeriesType:    textOrNA(row.Get(ColSeriesType)),
		Price:         ParseNumeric(row.Get(ColLTP)),
		LatestPrice:   ParseNumeric(row.Get(ColLatestPrice)),
		PercentChange: ParseNumeric(row.Get(ColPercentChange)),
		MarketCap:     ParseMarketCap(row.Get(ColMarketCap)),
		PERatio:       ParseNumeric(row.Get(ColPERatio)),
		ROE:           ParseNumeric(row.Get(ColROE)),
		ROCE:          ParseNumeric(row.Get(ColROCE)),
		BookValue:     ParseNumeric(row.Get(ColBookValue)),
		DividendYield: ParseNumeric(row.Get(ColDividendYield)),
		DaysSinceHigh: ParseWholeNumber(row.Get(ColDaysSinceHigh)),
		IsHigh52W:     ParseFlag(row.Get(ColHigh52W)),
		About:         strings.TrimSpace(row.Get(ColAbout)),
	}
	rec.Returns = DeriveReturns(rec.Price, rec.LatestPrice)

	date, err := ParseDate(row.Get(ColDate))
	if err != nil {
		n.logger.WarnContext(ctx, "unparsable date, using load date",
			slog.Int("line", row.Line),
			slog.String("symbol", symbol),
			slog.String("raw_date", row.Get(ColDate)),
			slog.String("error", err.Error()))
		errs = append(errs, domain.RowError{
			Line:   row.Line,
			Symbol: symbol,
			Field:  ColDate,
			Reason: err.Error(),
		})
		date = loadDay
		rec.DateFallback = true
	}
	rec.Date = date

	return rec, errs, rowKept
}
