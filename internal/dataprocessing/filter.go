package dataprocessing

import (
	"trackhigh/pkg/contracts/domain"
)

// Filter returns the records matching spec, preserving input order.
//
// The time-scope predicate for spec.ViewType is applied first, then the
// sector and series predicates. Options that do not apply, or that are
// unset, do not narrow the result. The input slice is never modified.
func Filter(records []domain.Record, spec domain.FilterSpec) []domain.Record {
	scope := scopePredicate(spec)

	out := make([]domain.Record, 0, len(records))
	for _, r := range records {
		if scope != nil && !scope(r) {
			continue
		}
		if spec.SectorActive() && r.Sector != spec.SelectedSector {
			continue
		}
		if spec.SeriesActive() && r.SeriesType != spec.SelectedSeries {
			continue
		}
		out = append(out, r)
	}
	return out
}

// scopePredicate returns nil when the view applies no scoping.
func scopePredicate(spec domain.FilterSpec) func(domain.Record) bool {
	switch spec.ViewType {
	case domain.ViewSpecificDate:
		if spec.SelectedDate == nil {
			return nil
		}
		day := *spec.SelectedDate
		return func(r domain.Record) bool {
			return domain.SameDay(r.Date, day)
		}

	case domain.ViewDateRange:
		if spec.StartDate == nil || spec.EndDate == nil {
			return nil
		}
		start := domain.CalendarDay(*spec.StartDate)
		end := domain.CalendarDay(*spec.EndDate)
		return func(r domain.Record) bool {
			d := r.Day()
			return !d.Before(start) && !d.After(end)
		}

	case domain.ViewMonth:
		if spec.SelectedMonth == "" {
			return nil
		}
		month := spec.SelectedMonth
		return func(r domain.Record) bool {
			return r.MonthLabel() == month
		}

	case domain.ViewSearchSymbol:
		if len(spec.SearchSymbols) == 0 {
			return nil
		}
		wanted := make(map[string]struct{}, len(spec.SearchSymbols))
		for _, s := range spec.SearchSymbols {
			wanted[NormalizeSymbol(s)] = struct{}{}
		}
		return func(r domain.Record) bool {
			_, ok := wanted[r.Symbol]
			return ok
		}
	}
	return nil
}
