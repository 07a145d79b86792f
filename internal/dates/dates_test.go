package dates

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseISO(t *testing.T) {
	d, err := ParseISO("2024-01-05")
	require.NoError(t, err)
	assert.Equal(t, 2024, d.Year())
	assert.Equal(t, time.January, d.Month())
	assert.Equal(t, 5, d.Day())
}

func TestParseISORejectsInvalid(t *testing.T) {
	for _, s := range []string{
		"", "2024-13-01", "2024-02-30", "not-a-date", "2024/01/05",
		// Shape must be exact: no trailing garbage, no short components
		"2024-01-0599", "2024-01-05x", "2024-01-05 ", " 2024-01-05",
		"2024-01-05 extra", "24-1-5", "2024-1-05", "2024-01-5",
		"2024-01-0a", "2024.01.05",
	} {
		_, err := ParseISO(s)
		assert.Error(t, err, "expected error for %q", s)
	}
}

func TestParseISOKeepsLeadingZeros(t *testing.T) {
	d, err := ParseISO("0024-01-05")
	require.NoError(t, err)
	assert.Equal(t, 24, d.Year())
	assert.Equal(t, "0024-01-05", d.String())
}

func TestAddDays(t *testing.T) {
	d := MustParseISO("2024-01-10")
	assert.Equal(t, "2024-01-11", d.AddDays(1).String())
	assert.Equal(t, "2024-01-09", d.AddDays(-1).String())
	assert.Equal(t, "2024-02-09", d.AddDays(30).String())
	assert.Equal(t, "2023-12-31", d.AddDays(-10).String())
}

func TestAddDaysAcrossLeapDay(t *testing.T) {
	d := MustParseISO("2024-02-28")
	assert.Equal(t, "2024-02-29", d.AddDays(1).String())
	assert.Equal(t, "2024-03-01", d.AddDays(2).String())

	// Non-leap year skips Feb 29
	d = MustParseISO("2023-02-28")
	assert.Equal(t, "2023-03-01", d.AddDays(1).String())
}

func TestInclusiveDayCount(t *testing.T) {
	start := MustParseISO("2024-01-01")
	end := MustParseISO("2024-01-10")

	n, err := InclusiveDayCount(start, end)
	require.NoError(t, err)
	assert.Equal(t, 10, n)

	// Single-day range counts as one day
	n, err = InclusiveDayCount(start, start)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestInclusiveDayCountInvalidRange(t *testing.T) {
	start := MustParseISO("2024-01-10")
	end := MustParseISO("2024-01-01")

	_, err := InclusiveDayCount(start, end)
	require.Error(t, err)

	var rangeErr *InvalidRangeError
	require.ErrorAs(t, err, &rangeErr)
	assert.Equal(t, start, rangeErr.Start)
	assert.Equal(t, end, rangeErr.End)
}

func TestComparisons(t *testing.T) {
	a := MustParseISO("2024-01-01")
	b := MustParseISO("2024-01-02")

	assert.True(t, a.Before(b))
	assert.True(t, b.After(a))
	assert.True(t, a.Equal(a))
	assert.Equal(t, -1, a.Compare(b))
	assert.Equal(t, 1, b.Compare(a))
	assert.Equal(t, 0, a.Compare(a))
}

func TestDaysUntil(t *testing.T) {
	a := MustParseISO("2024-01-01")
	b := MustParseISO("2024-01-31")

	assert.Equal(t, 30, a.DaysUntil(b))
	assert.Equal(t, -30, b.DaysUntil(a))
	assert.Equal(t, 0, a.DaysUntil(a))
}

func TestJSONRoundTrip(t *testing.T) {
	d := MustParseISO("2024-06-15")

	data, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Equal(t, `"2024-06-15"`, string(data))

	var decoded Date
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, d, decoded)
}

func TestSQLValueScan(t *testing.T) {
	d := MustParseISO("2024-06-15")

	v, err := d.Value()
	require.NoError(t, err)
	assert.Equal(t, "2024-06-15", v)

	var scanned Date
	require.NoError(t, scanned.Scan("2024-06-15"))
	assert.Equal(t, d, scanned)

	require.NoError(t, scanned.Scan([]byte("2024-06-16")))
	assert.Equal(t, "2024-06-16", scanned.String())
}

func TestDateIsComparable(t *testing.T) {
	// Date is used as a map key by the freeze ledger
	seen := map[Date]bool{MustParseISO("2024-01-05"): true}
	assert.True(t, seen[MustParseISO("2024-01-05")])
}
