package dataprocessing

import (
	"sort"

	"github.com/guregu/null/v6"

	"trackhigh/pkg/contracts/domain"
)

// Summarize computes the headline metrics of a record set. For an empty set
// the counts are zero and AverageChange is null.
func Summarize(records []domain.Record) domain.SummaryMetrics {
	if len(records) == 0 {
		return domain.SummaryMetrics{}
	}

	symbols := make(map[string]struct{})
	sectors := make(map[string]struct{})
	var total float64

	for _, r := range records {
		symbols[r.Symbol] = struct{}{}
		if !domain.IsPlaceholder(r.Sector) {
			sectors[r.Sector] = struct{}{}
		}
		total += r.ChangeValue()
	}

	return domain.SummaryMetrics{
		TotalStocks:   len(symbols),
		TotalSectors:  len(sectors),
		AverageChange: null.FloatFrom(total / float64(len(records))),
	}
}

// LatestPerSymbol keeps the most recent record of each symbol. When two
// records of a symbol share the latest date the earlier one in the input
// wins. Symbols appear in the order they are first seen, so a prior sort
// carries through.
func LatestPerSymbol(records []domain.Record) []domain.Record {
	index := make(map[string]int)
	out := make([]domain.Record, 0)

	for _, r := range records {
		i, seen := index[r.Symbol]
		if !seen {
			index[r.Symbol] = len(out)
			out = append(out, r)
			continue
		}
		if r.Date.After(out[i].Date) {
			out[i] = r
		}
	}
	return out
}

// RankOccurrences groups records by symbol, counting distinct days and the
// best change figure seen. Series and sector come from the symbol's first
// record. Ties keep discovery order.
func RankOccurrences(records []domain.Record, order domain.OccurrenceOrder) []domain.SymbolOccurrence {
	index := make(map[string]int)
	days := make([]map[int64]struct{}, 0)
	out := make([]domain.SymbolOccurrence, 0)

	for _, r := range records {
		i, seen := index[r.Symbol]
		if !seen {
			i = len(out)
			index[r.Symbol] = i
			out = append(out, domain.SymbolOccurrence{
				Symbol:     r.Symbol,
				SeriesType: r.SeriesType,
				Sector:     r.Sector,
				MaxReturns: r.ChangeValue(),
			})
			days = append(days, make(map[int64]struct{}))
		} else if v := r.ChangeValue(); v > out[i].MaxReturns {
			out[i].MaxReturns = v
		}
		days[i][r.Day().Unix()] = struct{}{}
	}

	for i := range out {
		out[i].Occurrences = len(days[i])
	}

	switch order {
	case domain.RankByOccurrences:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Occurrences > out[j].Occurrences })
	default:
		sort.SliceStable(out, func(i, j int) bool { return out[i].MaxReturns > out[j].MaxReturns })
	}
	return out
}

// StockHighsFor extracts one symbol's history sorted by date, the subset
// flagged as 52-week highs, and its highest LTP.
func StockHighsFor(records []domain.Record, symbol string) domain.StockHighs {
	symbol = NormalizeSymbol(symbol)
	result := domain.StockHighs{
		Symbol: symbol,
		Series: make([]domain.Record, 0),
		Highs:  make([]domain.Record, 0),
	}

	for _, r := range records {
		if r.Symbol == symbol {
			result.Series = append(result.Series, r)
		}
	}

	sort.SliceStable(result.Series, func(i, j int) bool {
		return result.Series[i].Date.Before(result.Series[j].Date)
	})

	for _, r := range result.Series {
		if r.IsHigh52W {
			result.Highs = append(result.Highs, r)
		}
		if r.Price.Valid && (!result.HighestPrice.Valid || r.Price.Float64 > result.HighestPrice.Float64) {
			result.HighestPrice = r.Price
		}
	}
	return result
}

// SectorDistribution counts records per sector in order of first
// appearance, skipping placeholder sectors.
func SectorDistribution(records []domain.Record) []domain.SectorCount {
	index := make(map[string]int)
	out := make([]domain.SectorCount, 0)

	for _, r := range records {
		if domain.IsPlaceholder(r.Sector) {
			continue
		}
		i, seen := index[r.Sector]
		if !seen {
			index[r.Sector] = len(out)
			out = append(out, domain.SectorCount{Sector: r.Sector, Count: 1})
			continue
		}
		out[i].Count++
	}
	return out
}
