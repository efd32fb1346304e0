package exporter

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"trackhigh/pkg/contracts/domain"
)

// Workbook sheet names.
const (
	SheetSummary = "Summary"
	SheetStocks  = "Stocks"
	SheetRanking = "Ranking"
	SheetHighs   = "Highs"
	SheetSectors = "Sectors"
)

// WriteWorkbook writes view as an XLSX workbook: a summary sheet, the
// view's rows, and the sector distribution.
func WriteWorkbook(w io.Writer, view domain.View) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		return fmt.Errorf("rename summary sheet: %w", err)
	}
	if err := writeSummarySheet(f, view); err != nil {
		return err
	}

	switch view.ViewType {
	case domain.ViewDateRange, domain.ViewMonth:
		rows := make([][]interface{}, len(view.Ranking))
		for i, r := range view.Ranking {
			rows[i] = []interface{}{i + 1, r.Symbol, r.SeriesType, r.Sector, r.Occurrences, r.MaxReturns}
		}
		if err := writeSheet(f, SheetRanking, toRow(RankingHeaders), rows); err != nil {
			return err
		}
	case domain.ViewSearchSymbol:
		if err := writeSheet(f, SheetHighs, toRow(RecordHeaders), recordRows(HighSeries(view))); err != nil {
			return err
		}
	default:
		if err := writeSheet(f, SheetStocks, toRow(RecordHeaders), recordRows(view.Stocks)); err != nil {
			return err
		}
	}

	sectors := make([][]interface{}, len(view.Sectors))
	for i, s := range view.Sectors {
		sectors[i] = []interface{}{s.Sector, s.Count}
	}
	if err := writeSheet(f, SheetSectors, []interface{}{"Sector", "Count"}, sectors); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeSummarySheet(f *excelize.File, view domain.View) error {
	rows := [][]interface{}{
		{"View", string(view.ViewType)},
		{"Records", view.Total},
	}
	if view.Summary != nil {
		rows = append(rows,
			[]interface{}{"Stocks", view.Summary.TotalStocks},
			[]interface{}{"Sectors", view.Summary.TotalSectors},
			[]interface{}{"Average Change", FormatChange(view.Summary.AverageChange)},
		)
	}
	return setRows(f, SheetSummary, 1, rows)
}

func writeSheet(f *excelize.File, name string, header []interface{}, rows [][]interface{}) error {
	if _, err := f.NewSheet(name); err != nil {
		return fmt.Errorf("create sheet %s: %w", name, err)
	}
	return setRows(f, name, 1, append([][]interface{}{header}, rows...))
}

func setRows(f *excelize.File, sheet string, startRow int, rows [][]interface{}) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, startRow+i)
		if err != nil {
			return err
		}
		row := row
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, startRow+i, err)
		}
	}
	return nil
}

func toRow(headers []string) []interface{} {
	out := make([]interface{}, len(headers))
	for i, h := range headers {
		out[i] = h
	}
	return out
}

func recordRows(records []domain.Record) [][]interface{} {
	rows := make([][]interface{}, len(records))
	for i, r := range records {
		rows[i] = toRow(recordRow(r))
	}
	return rows
}
