// Package dates provides timezone-free calendar date arithmetic.
//
// Every date in the scheduling core is a plain calendar day with no
// time-of-day or timezone component. Mixing UTC-derived and local-derived
// day boundaries is the classic source of off-by-one errors when comparing
// "today" against a phase range, so the rest of the codebase never handles
// time.Time directly for scheduling decisions.
package dates

import (
	"database/sql/driver"
	"fmt"
	"time"
)

// Date is a calendar date (year, month, day) with no time or zone.
// The zero value is not a valid date; use New, ParseISO, or Today.
type Date struct {
	year  int
	month time.Month
	day   int
}

// New constructs a Date from explicit components. Out-of-range components
// are normalized the same way time.Date normalizes them (e.g. Jan 32
// becomes Feb 1).
func New(year int, month time.Month, day int) Date {
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return Date{year: t.Year(), month: t.Month(), day: t.Day()}
}

// ParseISO parses a YYYY-MM-DD string into a Date. The shape is strict:
// exactly ten characters, digits in every date position, dashes at 4 and 7.
// Trailing garbage, short components, and alternate separators are all
// rejected rather than reinterpreted. The date is built from explicit
// components rather than a string-to-time constructor, so the result
// carries no implied timezone.
func ParseISO(s string) (Date, error) {
	if len(s) != 10 || s[4] != '-' || s[7] != '-' {
		return Date{}, fmt.Errorf("invalid date %q (expected YYYY-MM-DD)", s)
	}
	for i := 0; i < 10; i++ {
		if i == 4 || i == 7 {
			continue
		}
		if s[i] < '0' || s[i] > '9' {
			return Date{}, fmt.Errorf("invalid date %q (expected YYYY-MM-DD)", s)
		}
	}

	digits := func(part string) int {
		n := 0
		for i := 0; i < len(part); i++ {
			n = n*10 + int(part[i]-'0')
		}
		return n
	}
	year, month, day := digits(s[0:4]), digits(s[5:7]), digits(s[8:10])

	if month < 1 || month > 12 {
		return Date{}, fmt.Errorf("invalid date %q: month out of range", s)
	}
	d := New(year, time.Month(month), day)
	// Reject normalized overflow such as 2024-02-30.
	if d.day != day || d.month != time.Month(month) || d.year != year {
		return Date{}, fmt.Errorf("invalid date %q: day out of range", s)
	}
	return d, nil
}

// MustParseISO is ParseISO that panics on error. Intended for tests and
// compile-time-constant dates.
func MustParseISO(s string) Date {
	d, err := ParseISO(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Today returns the current calendar date in the local timezone.
func Today() Date {
	now := time.Now()
	return Date{year: now.Year(), month: now.Month(), day: now.Day()}
}

// FromTime truncates a time.Time to its calendar date in the time's own
// location.
func FromTime(t time.Time) Date {
	return Date{year: t.Year(), month: t.Month(), day: t.Day()}
}

// Year returns the year component.
func (d Date) Year() int { return d.year }

// Month returns the month component.
func (d Date) Month() time.Month { return d.month }

// Day returns the day-of-month component.
func (d Date) Day() int { return d.day }

// IsZero reports whether d is the zero value.
func (d Date) IsZero() bool {
	return d.year == 0 && d.month == 0 && d.day == 0
}

// time converts to a time.Time at UTC midnight for arithmetic only.
// UTC has no DST transitions, so day arithmetic is exact.
func (d Date) time() time.Time {
	return time.Date(d.year, d.month, d.day, 0, 0, 0, 0, time.UTC)
}

// AddDays returns the date shifted by n days. n may be negative.
func (d Date) AddDays(n int) Date {
	t := d.time().AddDate(0, 0, n)
	return Date{year: t.Year(), month: t.Month(), day: t.Day()}
}

// Before reports whether d is strictly earlier than other.
func (d Date) Before(other Date) bool {
	return d.time().Before(other.time())
}

// After reports whether d is strictly later than other.
func (d Date) After(other Date) bool {
	return d.time().After(other.time())
}

// Equal reports whether d and other are the same calendar day.
func (d Date) Equal(other Date) bool {
	return d == other
}

// Compare returns -1, 0, or 1 as d is before, equal to, or after other.
func (d Date) Compare(other Date) int {
	switch {
	case d.Before(other):
		return -1
	case d.After(other):
		return 1
	default:
		return 0
	}
}

// DaysUntil returns the signed number of days from d to other
// (positive when other is later).
func (d Date) DaysUntil(other Date) int {
	return int(other.time().Sub(d.time()) / (24 * time.Hour))
}

// String formats the date as YYYY-MM-DD.
func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.year, int(d.month), d.day)
}

// InvalidRangeError reports a date range whose end precedes its start.
type InvalidRangeError struct {
	Start Date
	End   Date
}

func (e *InvalidRangeError) Error() string {
	return fmt.Sprintf("invalid date range: end %s is before start %s", e.End, e.Start)
}

// InclusiveDayCount returns the number of calendar days in [start, end]
// counting both endpoints. A one-day range returns 1.
func InclusiveDayCount(start, end Date) (int, error) {
	if end.Before(start) {
		return 0, &InvalidRangeError{Start: start, End: end}
	}
	return start.DaysUntil(end) + 1, nil
}

// MarshalJSON encodes the date as a "YYYY-MM-DD" JSON string.
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

// UnmarshalJSON decodes a "YYYY-MM-DD" JSON string.
func (d *Date) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return fmt.Errorf("invalid date JSON: %s", s)
	}
	parsed, err := ParseISO(s[1 : len(s)-1])
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Value implements driver.Valuer, storing the date as TEXT.
func (d Date) Value() (driver.Value, error) {
	return d.String(), nil
}

// Scan implements sql.Scanner for TEXT columns written by Value.
func (d *Date) Scan(src interface{}) error {
	switch v := src.(type) {
	case string:
		parsed, err := ParseISO(v)
		if err != nil {
			return err
		}
		*d = parsed
		return nil
	case []byte:
		return d.Scan(string(v))
	case time.Time:
		*d = FromTime(v)
		return nil
	case nil:
		*d = Date{}
		return nil
	default:
		return fmt.Errorf("cannot scan %T into Date", src)
	}
}
