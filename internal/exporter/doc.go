// Package exporter renders records and views for people and spreadsheets.
//
// The format helpers turn nullable numbers into dashboard text: rupee
// amounts scaled to B, Cr or L, signed percentages, and "N/A" for anything
// missing. StockCard bundles them with the Screener and TradingView links
// for one record.
//
// WriteViewCSV and WriteWorkbook export a computed view. CSV output can
// carry a UTF-8 BOM so Excel picks the right encoding.
//
// Example usage:
//
//	view, _ := dash.View(ctx, spec)
//	f, err := exporter.CreateFile("reports/highs.xlsx")
//	if err != nil {
//	    return err
//	}
//	defer f.Close()
//	return exporter.WriteWorkbook(f, view)
package exporter
