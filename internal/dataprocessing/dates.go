package dataprocessing

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"trackhigh/pkg/contracts/domain"
)

var shortMonths = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March,
	"apr": time.April, "may": time.May, "jun": time.June,
	"jul": time.July, "aug": time.August, "sep": time.September,
	"oct": time.October, "nov": time.November, "dec": time.December,
}

// fallbackLayouts are tried in order when the feed format does not match.
var fallbackLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"02-Jan-2006",
	"2-Jan-2006",
	"02 Jan 2006",
	"2 Jan 2006",
	"02 Jan 06",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 January 2006",
	"01/02/2006",
	"1/2/2006",
	"2006/01/02",
	"20060102",
}

// ParseDate parses a feed date into a calendar day at midnight UTC.
//
// The feed writes DD-Mon-YY ("01-Dec-24"), with two-digit years meaning
// 20YY. Other common layouts are accepted as a fallback. Impossible dates
// such as "31-Feb-24" are rejected rather than rolled into the next month.
func ParseDate(raw string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}

	if t, ok := parseFeedDate(s); ok {
		return t, nil
	}

	for _, layout := range fallbackLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return domain.CalendarDay(t), nil
		}
	}

	return time.Time{}, fmt.Errorf("unrecognized date %q", raw)
}

func parseFeedDate(s string) (time.Time, bool) {
	parts := strings.Split(s, "-")
	if len(parts) != 3 {
		return time.Time{}, false
	}

	day, err := strconv.Atoi(parts[0])
	if err != nil {
		return time.Time{}, false
	}

	month, ok := shortMonths[strings.ToLower(parts[1])]
	if !ok {
		return time.Time{}, false
	}

	year, err := strconv.Atoi(parts[2])
	if err != nil || year < 0 {
		return time.Time{}, false
	}
	switch len(parts[2]) {
	case 1, 2:
		year += 2000
	case 4:
	default:
		return time.Time{}, false
	}

	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	if t.Day() != day || t.Month() != month {
		return time.Time{}, false
	}
	return t, true
}
