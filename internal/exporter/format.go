package exporter

import (
	"math"
	"net/url"
	"strings"
	"time"

	"github.com/guregu/null/v6"
	"github.com/shopspring/decimal"
)

// NotAvailable is shown for missing or non-finite values.
const NotAvailable = "N/A"

// DisplayDateLayout renders dates as "01 Dec 24".
const DisplayDateLayout = "02 Jan 06"

const rupee = "₹"

var (
	billion = decimal.New(1, 9)
	crore   = decimal.New(1, 7)
	lakh    = decimal.New(1, 5)
)

func finite(v null.Float) bool {
	return v.Valid && !math.IsNaN(v.Float64) && !math.IsInf(v.Float64, 0)
}

// FormatCurrency renders an amount in rupees, scaled to billions, crores or
// lakhs when large enough. Smaller amounts use Indian digit grouping.
func FormatCurrency(v null.Float) string {
	if !finite(v) {
		return NotAvailable
	}

	d := decimal.NewFromFloat(v.Float64)
	switch {
	case d.GreaterThanOrEqual(billion):
		return rupee + d.Div(billion).StringFixed(2) + "B"
	case d.GreaterThanOrEqual(crore):
		return rupee + d.Div(crore).StringFixed(2) + "Cr"
	case d.GreaterThanOrEqual(lakh):
		return rupee + d.Div(lakh).StringFixed(2) + "L"
	}
	return rupee + groupIndian(d.StringFixed(2))
}

// groupIndian inserts separators the en-IN way: the last three integer
// digits, then groups of two.
func groupIndian(s string) string {
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	intPart, frac, _ := strings.Cut(s, ".")

	if len(intPart) > 3 {
		head, tail := intPart[:len(intPart)-3], intPart[len(intPart)-3:]
		var groups []string
		for len(head) > 2 {
			groups = append([]string{head[len(head)-2:]}, groups...)
			head = head[:len(head)-2]
		}
		if head != "" {
			groups = append([]string{head}, groups...)
		}
		intPart = strings.Join(append(groups, tail), ",")
	}

	if frac == "" {
		return sign + intPart
	}
	return sign + intPart + "." + frac
}

// FormatMetric renders v with a fixed number of decimals.
func FormatMetric(v null.Float, precision int32) string {
	if !finite(v) {
		return NotAvailable
	}
	return decimal.NewFromFloat(v.Float64).StringFixed(precision)
}

// FormatCount renders an integer metric the way FormatMetric renders floats.
func FormatCount(v null.Int, precision int32) string {
	if !v.Valid {
		return NotAvailable
	}
	return decimal.NewFromInt(v.Int64).StringFixed(precision)
}

// FormatChange renders a signed percentage such as "+10.00%" or "-3.10%".
func FormatChange(v null.Float) string {
	if !finite(v) {
		return NotAvailable
	}
	s := decimal.NewFromFloat(v.Float64).StringFixed(2)
	if !strings.HasPrefix(s, "-") {
		s = "+" + s
	}
	return s + "%"
}

// FormatDate renders t as "01 Dec 24".
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return NotAvailable
	}
	return t.Format(DisplayDateLayout)
}

// ScreenerURL links to the symbol's Screener company page.
func ScreenerURL(symbol string) string {
	return "https://www.screener.in/company/" + url.PathEscape(symbol)
}

// TradingViewURL links to the symbol's NSE chart on TradingView.
func TradingViewURL(symbol string) string {
	return "https://www.tradingview.com/chart/?symbol=NSE:" + url.QueryEscape(symbol)
}

func orNotAvailable(s string) string {
	if strings.TrimSpace(s) == "" {
		return NotAvailable
	}
	return s
}
