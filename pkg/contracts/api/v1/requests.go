// Package api contains the request contracts of the dashboard API.
// Version v1 represents the current stable API version.
package api

import (
	"fmt"
	"strings"
	"time"

	"trackhigh/pkg/contracts/domain"
)

// DateLayout is the wire form of every date in requests.
const DateLayout = "2006-01-02"

// MaxSearchSymbols bounds the symbols of a search_symbol request.
const MaxSearchSymbols = 20

// FilterRequest is the JSON form of a filter selection. It is accepted by
// POST /api/view, POST /api/options, POST /api/export and the websocket
// "filter" message.
type FilterRequest struct {
	ViewType       string   `json:"view_type" validate:"required,viewtype"`
	SelectedDate   string   `json:"selected_date,omitempty" validate:"omitempty,isodate"`
	StartDate      string   `json:"start_date,omitempty" validate:"omitempty,isodate"`
	EndDate        string   `json:"end_date,omitempty" validate:"omitempty,isodate"`
	SelectedMonth  string   `json:"selected_month,omitempty" validate:"omitempty,monthlabel"`
	SelectedSector string   `json:"selected_sector,omitempty" validate:"omitempty,max=200"`
	SelectedSeries string   `json:"selected_series,omitempty" validate:"omitempty,max=20"`
	SearchSymbols  []string `json:"search_symbols,omitempty" validate:"max=20,dive,symbol"`
	SortBy         string   `json:"sort_by,omitempty" validate:"omitempty,sortkey"`
	RankBy         string   `json:"rank_by,omitempty" validate:"omitempty,rankby"`
}

// ToSpec converts the request into a FilterSpec. Empty dates stay nil.
func (r FilterRequest) ToSpec() (domain.FilterSpec, error) {
	viewType, ok := domain.ParseViewType(r.ViewType)
	if !ok {
		return domain.FilterSpec{}, fmt.Errorf("unknown view type %q", r.ViewType)
	}
	sortBy, ok := domain.ParseSortKey(r.SortBy)
	if !ok {
		return domain.FilterSpec{}, fmt.Errorf("unknown sort order %q", r.SortBy)
	}
	rankBy, ok := domain.ParseOccurrenceOrder(r.RankBy)
	if !ok {
		return domain.FilterSpec{}, fmt.Errorf("unknown ranking %q", r.RankBy)
	}

	spec := domain.FilterSpec{
		ViewType:       viewType,
		SelectedMonth:  strings.TrimSpace(r.SelectedMonth),
		SelectedSector: strings.TrimSpace(r.SelectedSector),
		SelectedSeries: strings.TrimSpace(r.SelectedSeries),
		SortBy:         sortBy,
		RankBy:         rankBy,
	}

	dates := []struct {
		name  string
		value string
		dst   **time.Time
	}{
		{"selected_date", r.SelectedDate, &spec.SelectedDate},
		{"start_date", r.StartDate, &spec.StartDate},
		{"end_date", r.EndDate, &spec.EndDate},
	}
	for _, d := range dates {
		if strings.TrimSpace(d.value) == "" {
			continue
		}
		t, err := time.Parse(DateLayout, strings.TrimSpace(d.value))
		if err != nil {
			return domain.FilterSpec{}, fmt.Errorf("%s: %w", d.name, err)
		}
		*d.dst = &t
	}

	for _, sym := range r.SearchSymbols {
		if sym = strings.ToUpper(strings.TrimSpace(sym)); sym != "" {
			spec.SearchSymbols = append(spec.SearchSymbols, sym)
		}
	}
	return spec, nil
}

// FromSpec renders a FilterSpec in request form, the inverse of ToSpec.
func FromSpec(spec domain.FilterSpec) FilterRequest {
	req := FilterRequest{
		ViewType:       string(spec.ViewType),
		SelectedMonth:  spec.SelectedMonth,
		SelectedSector: spec.SelectedSector,
		SelectedSeries: spec.SelectedSeries,
		SearchSymbols:  spec.SearchSymbols,
		SortBy:         string(spec.SortBy),
		RankBy:         string(spec.RankBy),
	}
	format := func(t *time.Time) string {
		if t == nil {
			return ""
		}
		return t.Format(DateLayout)
	}
	req.SelectedDate = format(spec.SelectedDate)
	req.StartDate = format(spec.StartDate)
	req.EndDate = format(spec.EndDate)
	return req
}

// SymbolSearchRequest holds the query parameters of GET /api/symbols.
type SymbolSearchRequest struct {
	Query string `json:"q" query:"q" validate:"max=50"`
	Limit int    `json:"limit" query:"limit" validate:"min=1,max=100"`
}

// ExportRequest selects the file format of POST /api/export.
type ExportRequest struct {
	Format string `json:"format" query:"format" validate:"required,oneof=csv xlsx"`
}
