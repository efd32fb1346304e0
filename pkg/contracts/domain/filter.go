package domain

import (
	"strings"
	"time"
)

// AllOption is the sentinel that disables the sector and series filters.
const AllOption = "All"

// ViewType selects how a FilterSpec scopes records in time.
type ViewType string

const (
	ViewSpecificDate ViewType = "specific_date"
	ViewDateRange    ViewType = "date_range"
	ViewMonth        ViewType = "month"
	ViewSearchSymbol ViewType = "search_symbol"
)

// ParseViewType accepts the API names and the dashboard labels.
func ParseViewType(s string) (ViewType, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "specific_date", "specific date":
		return ViewSpecificDate, true
	case "date_range", "date range":
		return ViewDateRange, true
	case "month", "month view":
		return ViewMonth, true
	case "search_symbol", "search symbol", "search stock":
		return ViewSearchSymbol, true
	}
	return "", false
}

// SortKey names an ordering applied to the specific-date stock list.
type SortKey string

const (
	SortNone              SortKey = "none"
	SortReturnsDesc       SortKey = "returns_desc"
	SortDaysSinceHighDesc SortKey = "days_since_high_desc"
	SortMarketCapAsc      SortKey = "mcap_asc"
	SortPERatioAsc        SortKey = "pe_asc"
)

var sortKeyLabels = map[string]SortKey{
	"none":                              SortNone,
	"returns (high to low)":             SortReturnsDesc,
	"days since high (highest first)":   SortDaysSinceHighDesc,
	"days since new high (high to low)": SortDaysSinceHighDesc,
	"mcap (low to high)":                SortMarketCapAsc,
	"p/e (low to high)":                 SortPERatioAsc,
}

// ParseSortKey maps a key or a dashboard label to a SortKey.
// Unknown values map to SortNone and ok=false.
func ParseSortKey(s string) (SortKey, bool) {
	v := strings.ToLower(strings.TrimSpace(s))
	switch SortKey(v) {
	case SortNone, SortReturnsDesc, SortDaysSinceHighDesc, SortMarketCapAsc, SortPERatioAsc:
		return SortKey(v), true
	}
	if k, ok := sortKeyLabels[v]; ok {
		return k, true
	}
	if v == "" {
		return SortNone, true
	}
	return SortNone, false
}

// OccurrenceOrder selects the ordering of an occurrence ranking.
type OccurrenceOrder string

const (
	RankByReturns     OccurrenceOrder = "returns"
	RankByOccurrences OccurrenceOrder = "occurrences"
)

// ParseOccurrenceOrder defaults to RankByReturns for empty input.
func ParseOccurrenceOrder(s string) (OccurrenceOrder, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "returns":
		return RankByReturns, true
	case "occurrences", "occurrence":
		return RankByOccurrences, true
	}
	return RankByReturns, false
}

// FilterSpec is the user's current selection. Fields that do not apply to
// the chosen ViewType are ignored.
type FilterSpec struct {
	ViewType       ViewType        `json:"view_type"`
	SelectedDate   *time.Time      `json:"selected_date,omitempty"`
	StartDate      *time.Time      `json:"start_date,omitempty"`
	EndDate        *time.Time      `json:"end_date,omitempty"`
	SelectedMonth  string          `json:"selected_month,omitempty"`
	SelectedSector string          `json:"selected_sector,omitempty"`
	SelectedSeries string          `json:"selected_series,omitempty"`
	SearchSymbols  []string        `json:"search_symbols,omitempty"`
	SortBy         SortKey         `json:"sort_by,omitempty"`
	RankBy         OccurrenceOrder `json:"rank_by,omitempty"`
}

// SectorActive reports whether the sector filter narrows the result.
func (f FilterSpec) SectorActive() bool {
	return f.SelectedSector != "" && f.SelectedSector != AllOption
}

// SeriesActive reports whether the series filter narrows the result.
func (f FilterSpec) SeriesActive() bool {
	return f.SelectedSeries != "" && f.SelectedSeries != AllOption
}
