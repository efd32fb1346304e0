package services

import (
	"trackhigh/internal/dataprocessing"
	"trackhigh/pkg/contracts/domain"
)

// SelectView computes the dashboard view for spec over records.
//
// The specific-date view lists the latest record of each symbol after
// sorting. Range and month views rank symbols by occurrence. The symbol
// view returns the high history of every requested symbol, narrowed only
// by sector and series. SelectView is pure and does not modify records.
func SelectView(records []domain.Record, spec domain.FilterSpec) domain.View {
	spec = normalizeSpec(spec)

	if spec.ViewType == domain.ViewSearchSymbol {
		return symbolView(records, spec)
	}

	filtered := dataprocessing.Filter(records, spec)
	summary := dataprocessing.Summarize(filtered)

	view := domain.View{
		ViewType: spec.ViewType,
		Filter:   spec,
		Empty:    len(filtered) == 0,
		Total:    len(filtered),
		Summary:  &summary,
		Sectors:  dataprocessing.SectorDistribution(filtered),
	}

	switch spec.ViewType {
	case domain.ViewDateRange, domain.ViewMonth:
		view.Ranking = dataprocessing.RankOccurrences(filtered, spec.RankBy)
	default:
		view.Stocks = dataprocessing.LatestPerSymbol(dataprocessing.ApplySorting(filtered, spec.SortBy))
	}
	return view
}

func symbolView(records []domain.Record, spec domain.FilterSpec) domain.View {
	base := dataprocessing.Filter(records, domain.FilterSpec{
		SelectedSector: spec.SelectedSector,
		SelectedSeries: spec.SelectedSeries,
	})

	view := domain.View{
		ViewType: spec.ViewType,
		Filter:   spec,
		Highs:    make([]domain.StockHighs, 0, len(spec.SearchSymbols)),
	}

	matched := make([]domain.Record, 0)
	for _, symbol := range spec.SearchSymbols {
		h := dataprocessing.StockHighsFor(base, symbol)
		matched = append(matched, h.Series...)
		view.Highs = append(view.Highs, h)
	}

	summary := dataprocessing.Summarize(matched)
	view.Summary = &summary
	view.Sectors = dataprocessing.SectorDistribution(matched)
	view.Total = len(matched)
	view.Empty = len(matched) == 0
	return view
}

// normalizeSpec fills defaults and cleans the symbol list. Unknown view
// types fall back to the specific-date view.
func normalizeSpec(spec domain.FilterSpec) domain.FilterSpec {
	switch spec.ViewType {
	case domain.ViewSpecificDate, domain.ViewDateRange, domain.ViewMonth, domain.ViewSearchSymbol:
	default:
		spec.ViewType = domain.ViewSpecificDate
	}
	if spec.SortBy == "" {
		spec.SortBy = domain.SortNone
	}
	if spec.RankBy == "" {
		spec.RankBy = domain.RankByReturns
	}

	if len(spec.SearchSymbols) > 0 {
		seen := make(map[string]struct{}, len(spec.SearchSymbols))
		symbols := make([]string, 0, len(spec.SearchSymbols))
		for _, s := range spec.SearchSymbols {
			s = dataprocessing.NormalizeSymbol(s)
			if s == "" {
				continue
			}
			if _, dup := seen[s]; dup {
				continue
			}
			seen[s] = struct{}{}
			symbols = append(symbols, s)
		}
		spec.SearchSymbols = symbols
	}
	return spec
}
