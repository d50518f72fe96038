package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Date is a calendar date taken literally from a provider timestamp.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// IsZero reports whether the date was never set.
func (d Date) IsZero() bool { return d.Year == 0 && d.Month == 0 && d.Day == 0 }

// YearDay returns the day of the year, 1 through 366.
func (d Date) YearDay() int {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC).YearDay()
}

// Weekday returns the day of the week, Sunday = 0.
func (d Date) Weekday() time.Weekday {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC).Weekday()
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// ParseDate reads the YYYY-MM-DD prefix of an ISO-8601 date or timestamp.
// The components are used as written; no timezone conversion is applied, so
// "2021-06-21T23:30:00-05:00" is June 21 regardless of the host zone.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if len(s) < 10 || s[4] != '-' || s[7] != '-' {
		return Date{}, fmt.Errorf("parse date %q: expected YYYY-MM-DD prefix", s)
	}

	year, errY := strconv.Atoi(s[0:4])
	month, errM := strconv.Atoi(s[5:7])
	day, errD := strconv.Atoi(s[8:10])
	if errY != nil || errM != nil || errD != nil {
		return Date{}, fmt.Errorf("parse date %q: non-numeric component", s)
	}
	if month < 1 || month > 12 || day < 1 || day > daysIn(time.Month(month), year) {
		return Date{}, fmt.Errorf("parse date %q: out of range", s)
	}

	return Date{Year: year, Month: time.Month(month), Day: day}, nil
}

func daysIn(m time.Month, year int) int {
	return time.Date(year, m+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
