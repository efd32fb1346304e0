package exporter

import (
	"trackhigh/pkg/contracts/domain"
)

// Card is a display-ready rendering of one record.
type Card struct {
	Symbol     string `json:"symbol"`
	SeriesType string `json:"series_type"`
	Sector     string `json:"sector"`
	Industry   string `json:"industry"`
	Date       string `json:"date"`

	Price         string `json:"ltp"`
	LatestPrice   string `json:"latest_price"`
	Change        string `json:"change"`
	ChangeUp      bool   `json:"change_up"`
	Returns       string `json:"returns"`
	ReturnsUp     bool   `json:"returns_up"`
	MarketCap     string `json:"market_cap"`
	DaysSinceHigh string `json:"days_since_high"`
	PERatio       string `json:"pe_ratio"`
	ROE           string `json:"roe"`
	ROCE          string `json:"roce"`
	IsHigh52W     bool   `json:"is_high_52w"`

	ScreenerURL    string `json:"screener_url"`
	TradingViewURL string `json:"tradingview_url"`
}

// StockCard formats r for display. A missing percent change shows as
// +0.00% so the trend arrow always has a direction.
func StockCard(r domain.Record) Card {
	change := r.PercentChange
	if !finite(change) {
		change.SetValid(0)
	}

	return Card{
		Symbol:     r.Symbol,
		SeriesType: orNotAvailable(r.SeriesType),
		Sector:     orNotAvailable(r.Sector),
		Industry:   orNotAvailable(r.Industry),
		Date:       FormatDate(r.Date),

		Price:         FormatCurrency(r.Price),
		LatestPrice:   FormatCurrency(r.LatestPrice),
		Change:        FormatChange(change),
		ChangeUp:      change.Float64 >= 0,
		Returns:       FormatChange(r.Returns),
		ReturnsUp:     !r.Returns.Valid || r.Returns.Float64 >= 0,
		MarketCap:     FormatCurrency(r.MarketCap),
		DaysSinceHigh: FormatCount(r.DaysSinceHigh, 2),
		PERatio:       FormatMetric(r.PERatio, 2),
		ROE:           FormatMetric(r.ROE, 2),
		ROCE:          FormatMetric(r.ROCE, 2),
		IsHigh52W:     r.IsHigh52W,

		ScreenerURL:    ScreenerURL(r.Symbol),
		TradingViewURL: TradingViewURL(r.Symbol),
	}
}

// StockCards formats records in order.
func StockCards(records []domain.Record) []Card {
	out := make([]Card, len(records))
	for i, r := range records {
		out[i] = StockCard(r)
	}
	return out
}
