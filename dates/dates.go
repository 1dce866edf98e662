// Package dates resolves read-date tokens into the DD/MM/YY form used by both
// the remote date pickers and the spreadsheet.
package dates

import (
	"fmt"
	"strings"
	"time"
)

// Layout is the wire format for read dates.
const Layout = "02/01/06"

// Resolve turns a date token into a DD/MM/YY string. "t"/"today" is now,
// "y"/"yesterday" is the day before; anything else is returned verbatim and
// assumed to already be DD/MM/YY.
func Resolve(token string, now time.Time) string {
	switch strings.ToLower(strings.TrimSpace(token)) {
	case "t", "today":
		return now.Format(Layout)
	case "y", "yesterday":
		return now.AddDate(0, 0, -1).Format(Layout)
	default:
		return strings.TrimSpace(token)
	}
}

// YearSheetName derives the 4-digit sheet name from a DD/MM/YY date.
func YearSheetName(dateRead string) string {
	return "20" + dateRead[len(dateRead)-2:]
}

// Parts holds the picker-facing pieces of a resolved date. Year is the full
// four digits; Month and Day are unpadded, matching the option values the
// remote pickers use.
type Parts struct {
	Year  string
	Month string
	Day   string
}

// Split breaks a DD/MM/YY date into picker parts.
func Split(dateRead string) (Parts, error) {
	if _, err := time.Parse(Layout, dateRead); err != nil {
		return Parts{}, fmt.Errorf("malformed date %q: %w", dateRead, err)
	}
	return Parts{
		Year:  "20" + dateRead[6:],
		Month: strings.TrimLeft(dateRead[3:5], "0"),
		Day:   strings.TrimLeft(dateRead[:2], "0"),
	}, nil
}

var monthNames = [12]string{
	"January", "February", "March", "April", "May", "June",
	"July", "August", "September", "October", "November", "December",
}

// MonthName returns the English month name for a 1-based month number, or ""
// when out of range.
func MonthName(month int) string {
	if month < 1 || month > 12 {
		return ""
	}
	return monthNames[month-1]
}
