package domain

import (
	"sort"

	"github.com/guregu/null/v6"
)

// SummaryMetrics holds the headline numbers of a filtered record set.
// AverageChange is null when the set is empty.
type SummaryMetrics struct {
	TotalStocks   int        `json:"total_stocks"`
	TotalSectors  int        `json:"total_sectors"`
	AverageChange null.Float `json:"average_change"`
}

// SymbolOccurrence is one row of an occurrence ranking.
type SymbolOccurrence struct {
	Symbol      string  `json:"symbol"`
	SeriesType  string  `json:"series_type"`
	Sector      string  `json:"sector"`
	Occurrences int     `json:"occurrences"`
	MaxReturns  float64 `json:"max_returns"`
}

// SectorCount is one bar of the sector distribution.
type SectorCount struct {
	Sector string `json:"sector"`
	Count  int    `json:"count"`
}

// StockHighs is the history of one symbol.
type StockHighs struct {
	Symbol       string     `json:"symbol"`
	Series       []Record   `json:"series"`
	Highs        []Record   `json:"highs"`
	HighestPrice null.Float `json:"highest_price"`
}

// HighPoints returns the number of 52-week-high snapshots.
func (s StockHighs) HighPoints() int {
	return len(s.Highs)
}

// Timeline returns the high snapshots newest first.
func (s StockHighs) Timeline() []Record {
	out := make([]Record, len(s.Highs))
	copy(out, s.Highs)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.After(out[j].Date)
	})
	return out
}

// OptionSet lists the selectable values for the filter controls.
type OptionSet struct {
	Sectors []string `json:"sectors"`
	Series  []string `json:"series"`
	Symbols []string `json:"symbols"`
	Months  []string `json:"months"`
	MinDate *string  `json:"min_date,omitempty"`
	MaxDate *string  `json:"max_date,omitempty"`
}

// View is the full output for one filter selection.
type View struct {
	ViewType ViewType        `json:"view_type"`
	Filter   FilterSpec      `json:"filter"`
	Empty    bool            `json:"empty"`
	Total    int             `json:"total_records"`
	Summary  *SummaryMetrics `json:"summary,omitempty"`
	Sectors  []SectorCount   `json:"sectors,omitempty"`

	// Stocks is set for the specific-date view.
	Stocks []Record `json:"stocks,omitempty"`

	// Ranking is set for the date-range and month views.
	Ranking []SymbolOccurrence `json:"ranking,omitempty"`

	// Highs is set for the symbol search view, one entry per requested symbol.
	Highs []StockHighs `json:"highs,omitempty"`
}
