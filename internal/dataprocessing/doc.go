// Package dataprocessing turns the raw snapshot feed into records and
// derives every dashboard projection from them.
//
// # Architecture
//
// The package has three layers:
//
//  1. Parsing and normalization (ParseCSV, Normalizer): CSV text to typed
//     domain.Record values, with per-row error reporting.
//  2. Filtering and sorting (Filter, ApplySorting): stable, side-effect free
//     narrowing and ordering of a record set.
//  3. Aggregation (Summarize, LatestPerSymbol, RankOccurrences,
//     StockHighsFor, SectorDistribution, UniqueValues, MonthOptions).
//
// Apart from the Normalizer, which logs, every function is pure and safe
// to call concurrently on a shared snapshot.
//
// # Usage
//
//	rows, _, err := dataprocessing.ParseCSV(body)
//	if err != nil {
//	    return err
//	}
//	result := dataprocessing.NewNormalizer(logger).Normalize(ctx, rows)
//	latest := dataprocessing.LatestPerSymbol(
//	    dataprocessing.ApplySorting(
//	        dataprocessing.Filter(result.Records, spec), spec.SortBy))
package dataprocessing
