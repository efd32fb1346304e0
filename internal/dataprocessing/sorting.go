package dataprocessing

import (
	"math"
	"sort"

	"trackhigh/pkg/contracts/domain"
)

// ApplySorting returns a sorted copy of records. The sort is stable, so
// records with equal keys keep their relative order. SortNone and unknown
// keys return an unsorted copy.
func ApplySorting(records []domain.Record, key domain.SortKey) []domain.Record {
	out := make([]domain.Record, len(records))
	copy(out, records)

	var less func(a, b domain.Record) bool
	switch key {
	case domain.SortReturnsDesc:
		less = func(a, b domain.Record) bool { return a.ChangeValue() > b.ChangeValue() }
	case domain.SortDaysSinceHighDesc:
		less = func(a, b domain.Record) bool {
			return a.DaysSinceHigh.ValueOrZero() > b.DaysSinceHigh.ValueOrZero()
		}
	case domain.SortMarketCapAsc:
		less = func(a, b domain.Record) bool {
			return a.MarketCap.ValueOrZero() < b.MarketCap.ValueOrZero()
		}
	case domain.SortPERatioAsc:
		less = func(a, b domain.Record) bool { return peKey(a) < peKey(b) }
	default:
		return out
	}

	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

// peKey sorts records without a P/E after every record that has one.
func peKey(r domain.Record) float64 {
	if !r.PERatio.Valid {
		return math.Inf(1)
	}
	return r.PERatio.Float64
}
