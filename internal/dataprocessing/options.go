package dataprocessing

import (
	"sort"
	"time"

	"trackhigh/pkg/contracts/domain"
)

// DateLayout is the wire format for calendar days.
const DateLayout = "2006-01-02"

// UniqueValues returns the sorted distinct values of column, excluding
// placeholders.
func UniqueValues(records []domain.Record, column domain.Column) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0)

	for _, r := range records {
		v := column.Value(r)
		if domain.IsPlaceholder(v) {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}

	sort.Strings(out)
	return out
}

// MonthOptions returns the distinct "January 2006" labels present in
// records, oldest first.
func MonthOptions(records []domain.Record) []string {
	seen := make(map[time.Time]struct{})
	months := make([]time.Time, 0)

	for _, r := range records {
		y, m, _ := r.Date.Date()
		first := time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
		if _, ok := seen[first]; ok {
			continue
		}
		seen[first] = struct{}{}
		months = append(months, first)
	}

	sort.Slice(months, func(i, j int) bool { return months[i].Before(months[j]) })

	out := make([]string, len(months))
	for i, m := range months {
		out[i] = domain.MonthLabel(m)
	}
	return out
}

// DateBounds returns the earliest and latest record dates.
func DateBounds(records []domain.Record) (minDate, maxDate time.Time, ok bool) {
	for i, r := range records {
		if i == 0 || r.Date.Before(minDate) {
			minDate = r.Date
		}
		if i == 0 || r.Date.After(maxDate) {
			maxDate = r.Date
		}
	}
	return minDate, maxDate, len(records) > 0
}

// DefaultFilterSpec is the selection shown right after a load: the latest
// day, with the range spanning the whole data set and no narrowing.
func DefaultFilterSpec(records []domain.Record) domain.FilterSpec {
	spec := domain.FilterSpec{
		ViewType:       domain.ViewSpecificDate,
		SelectedSector: domain.AllOption,
		SelectedSeries: domain.AllOption,
		SortBy:         domain.SortNone,
		RankBy:         domain.RankByReturns,
	}

	minDate, maxDate, ok := DateBounds(records)
	if !ok {
		return spec
	}

	selected, start, end := maxDate, minDate, maxDate
	spec.SelectedDate = &selected
	spec.StartDate = &start
	spec.EndDate = &end
	spec.SelectedMonth = domain.MonthLabel(maxDate)
	return spec
}

// ScopedOptions lists the filter control values for spec. Sector and series
// choices come from the records inside spec's time scope and are prefixed
// with "All". Symbols and months always cover the full set.
func ScopedOptions(records []domain.Record, spec domain.FilterSpec) domain.OptionSet {
	scoped := records
	if spec.ViewType != domain.ViewSearchSymbol {
		timeOnly := spec
		timeOnly.SelectedSector = ""
		timeOnly.SelectedSeries = ""
		scoped = Filter(records, timeOnly)
	}

	opts := domain.OptionSet{
		Sectors: append([]string{domain.AllOption}, UniqueValues(scoped, domain.ColumnSector)...),
		Series:  append([]string{domain.AllOption}, UniqueValues(scoped, domain.ColumnSeriesType)...),
		Symbols: UniqueValues(records, domain.ColumnSymbol),
		Months:  MonthOptions(records),
	}

	if minDate, maxDate, ok := DateBounds(records); ok {
		lo, hi := minDate.Format(DateLayout), maxDate.Format(DateLayout)
		opts.MinDate, opts.MaxDate = &lo, &hi
	}
	return opts
}
