// Package timeframe_test contains tests for the timeframe package
package timeframe_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medinsight/internal/failures"
	"medinsight/internal/timeframe"
)

// MockTimeProvider implements the TimeProvider interface for testing
type MockTimeProvider struct {
	FixedTime time.Time
}

func (m *MockTimeProvider) Now(loc *time.Location) time.Time {
	return m.FixedTime.In(loc)
}

func TestParseTimestamp(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected time.Time
	}{
		{"RFC3339 with Z", "2024-03-15T10:20:30Z", time.Date(2024, 3, 15, 10, 20, 30, 0, time.UTC)},
		{"lowercase z", "2024-03-15T10:20:30z", time.Date(2024, 3, 15, 10, 20, 30, 0, time.UTC)},
		{"fractional seconds", "2024-03-15T10:20:30.123456Z", time.Date(2024, 3, 15, 10, 20, 30, 123456000, time.UTC)},
		{"positive offset", "2024-03-15T12:20:30+02:00", time.Date(2024, 3, 15, 10, 20, 30, 0, time.UTC)},
		{"compact offset", "2024-03-15T10:20:30+0000", time.Date(2024, 3, 15, 10, 20, 30, 0, time.UTC)},
		{"hour offset", "2024-03-15 10:20:30+00", time.Date(2024, 3, 15, 10, 20, 30, 0, time.UTC)},
		{"space separated with offset", "2024-03-15 05:20:30-05:00", time.Date(2024, 3, 15, 10, 20, 30, 0, time.UTC)},
		{"naive taken as UTC", "2024-03-15T10:20:30.5", time.Date(2024, 3, 15, 10, 20, 30, 500000000, time.UTC)},
		{"naive space separated", "2024-03-15 10:20:30", time.Date(2024, 3, 15, 10, 20, 30, 0, time.UTC)},
		{"date only", "2024-03-15", time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)},
		{"surrounding whitespace", "  2024-03-15T10:20:30Z\n", time.Date(2024, 3, 15, 10, 20, 30, 0, time.UTC)},
		{"offset crosses midnight", "2024-03-15T23:30:00-02:00", time.Date(2024, 3, 16, 1, 30, 0, 0, time.UTC)},
		{"space before offset", "2024-01-01T10:00:00 +00:00", time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)},
		{"space before Z", "2024-01-01 10:00:00 Z", time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)},
		{"space before compact offset", "2024-01-01 12:00:00.25 +0200", time.Date(2024, 1, 1, 10, 0, 0, 250000000, time.UTC)},
		{"space before hour offset", "2024-01-01T07:00:00 -03", time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := timeframe.ParseTimestamp(tc.input)
			require.NoError(t, err)
			assert.True(t, tc.expected.Equal(got), "expected %s, got %s", tc.expected, got)
			assert.Equal(t, time.UTC, got.Location())
		})
	}
}

func TestParseTimestampMalformed(t *testing.T) {
	for _, input := range []string{"", "   ", "not-a-date", "2024-13-45T10:00:00Z", "15/03/2024"} {
		_, err := timeframe.ParseTimestamp(input)
		assert.ErrorIs(t, err, failures.ErrMalformedRecord, "input %q", input)
	}
}

func TestDailyBucketsAreContiguous(t *testing.T) {
	start := time.Date(2024, 2, 27, 15, 0, 0, 0, time.UTC)
	end := time.Date(2024, 3, 2, 1, 0, 0, 0, time.UTC)

	buckets, err := timeframe.DailyBuckets(start, end)
	require.NoError(t, err)

	stats := buckets.Stats()
	dates := make([]string, len(stats))
	for i, s := range stats {
		dates[i] = s.Date
		assert.Zero(t, s.Count)
	}
	// 2024 is a leap year.
	assert.Equal(t, []string{"2024-02-27", "2024-02-28", "2024-02-29", "2024-03-01", "2024-03-02"}, dates)
	assert.Equal(t, timeframe.BucketSizeDay, buckets.Size())
}

func TestDailyBucketsSingleDay(t *testing.T) {
	day := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	buckets, err := timeframe.DailyBuckets(day, day)
	require.NoError(t, err)
	assert.Equal(t, []timeframe.DateStat{{Date: "2024-03-15", Count: 0}}, buckets.Stats())
}

func TestDailyBucketsInvertedRange(t *testing.T) {
	start := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	_, err := timeframe.DailyBuckets(start, start.AddDate(0, 0, -1))
	assert.ErrorIs(t, err, failures.ErrInvalidRange)

	_, err = timeframe.MonthlyBuckets(start, start.AddDate(0, -1, 0))
	assert.ErrorIs(t, err, failures.ErrInvalidRange)
}

func TestAssign(t *testing.T) {
	buckets, err := timeframe.DailyBuckets(
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC),
	)
	require.NoError(t, err)

	raw := []string{
		"2024-01-01T10:00:00Z",
		"2024-01-03T09:00:00Z",
		"2024-01-03T23:59:59Z",
		"2024-01-05T00:00:00Z",
		"garbage",
	}
	stats := timeframe.Assign(buckets, raw, timeframe.ParseTimestamp)

	assert.Equal(t, timeframe.AssignStats{Assigned: 3, OutOfRange: 1, Malformed: 1}, stats)
	assert.Equal(t, []timeframe.DateStat{
		{Date: "2024-01-01", Count: 1},
		{Date: "2024-01-02", Count: 0},
		{Date: "2024-01-03", Count: 2},
	}, buckets.Stats())
}

func TestMonthlyBuckets(t *testing.T) {
	buckets, err := timeframe.MonthlyBuckets(
		time.Date(2023, 11, 20, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 2, 3, 0, 0, 0, 0, time.UTC),
	)
	require.NoError(t, err)

	stats := timeframe.Assign(buckets, []string{"2023-11-01T00:00:00Z", "2024-01-31T23:00:00Z", "2024-01-02"}, timeframe.ParseTimestamp)
	assert.Equal(t, 3, stats.Assigned)
	assert.Equal(t, []timeframe.DateStat{
		{Date: "2023-11", Count: 1},
		{Date: "2023-12", Count: 0},
		{Date: "2024-01", Count: 2},
		{Date: "2024-02", Count: 0},
	}, buckets.Stats())
}

func TestHourlyBuckets(t *testing.T) {
	hours := timeframe.HourlyBuckets()
	raw := []string{
		"2024-01-01T14:00:00Z",
		"2024-01-02T14:30:00Z",
		"2024-01-03T14:59:59Z",
		"2024-01-01T09:00:00Z",
		"2024-01-01T16:00:00+02:00",
		"bad",
	}
	stats := timeframe.AssignHours(hours, raw, timeframe.ParseTimestamp)

	assert.Equal(t, 5, stats.Assigned)
	assert.Equal(t, 1, stats.Malformed)

	series := hours.Stats()
	require.Len(t, series, 24)
	for hour, s := range series {
		assert.Equal(t, hour, s.Hour)
	}
	assert.Equal(t, 4, series[14].Count)
	assert.Equal(t, 1, series[9].Count)
	assert.Equal(t, 0, series[0].Count)
}

func TestCalculateTrend(t *testing.T) {
	assert.Equal(t, 0.0, timeframe.CalculateTrend(nil))
	assert.Equal(t, 0.0, timeframe.CalculateTrend([]timeframe.DateStat{{Date: "2024-01-01", Count: 5}}))

	rising := []timeframe.DateStat{{Count: 1}, {Count: 3}, {Count: 5}, {Count: 7}}
	assert.InDelta(t, 2.0, timeframe.CalculateTrend(rising), 1e-9)

	flat := []timeframe.DateStat{{Count: 4}, {Count: 4}, {Count: 4}}
	assert.InDelta(t, 0.0, timeframe.CalculateTrend(flat), 1e-9)
}

func TestRangeParser(t *testing.T) {
	fixedTime := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	parser := timeframe.NewRangeParser(30, &MockTimeProvider{FixedTime: fixedTime})

	testCases := []struct {
		name         string
		from, to     string
		expectedFrom time.Time
		expectedTo   time.Time
		expectedDays int
		expectedErr  error
	}{
		{
			name:         "defaults to last 30 days",
			expectedFrom: time.Date(2024, 2, 14, 0, 0, 0, 0, time.UTC),
			expectedTo:   time.Date(2024, 3, 15, 23, 59, 59, 999999999, time.UTC),
			expectedDays: 31,
		},
		{
			name:         "explicit range",
			from:         "2024-03-01",
			to:           "2024-03-07",
			expectedFrom: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
			expectedTo:   time.Date(2024, 3, 7, 23, 59, 59, 999999999, time.UTC),
			expectedDays: 7,
		},
		{
			name:         "only from",
			from:         "2024-03-10",
			expectedFrom: time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC),
			expectedTo:   time.Date(2024, 3, 15, 23, 59, 59, 999999999, time.UTC),
			expectedDays: 6,
		},
		{
			name:        "inverted",
			from:        "2024-03-10",
			to:          "2024-03-01",
			expectedErr: failures.ErrInvalidRange,
		},
		{
			name:        "bad format",
			from:        "03/10/2024",
			expectedErr: failures.ErrInvalidRange,
		},
		{
			name:         "longest allowed range",
			from:         "2023-03-15",
			to:           "2024-03-14",
			expectedFrom: time.Date(2023, 3, 15, 0, 0, 0, 0, time.UTC),
			expectedTo:   time.Date(2024, 3, 14, 23, 59, 59, 999999999, time.UTC),
			expectedDays: 366,
		},
		{
			name:        "longer than allowed",
			from:        "2023-03-14",
			to:          "2024-03-14",
			expectedErr: failures.ErrInvalidRange,
		},
		{
			name:        "unbounded",
			from:        "0001-01-01",
			to:          "9999-12-31",
			expectedErr: failures.ErrInvalidRange,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r, err := parser.ParseRange(tc.from, tc.to)
			if tc.expectedErr != nil {
				assert.True(t, errors.Is(err, tc.expectedErr), "expected %v, got %v", tc.expectedErr, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expectedFrom, r.From)
			assert.Equal(t, tc.expectedTo, r.To)
			assert.Equal(t, tc.expectedDays, r.Days())
			assert.True(t, r.Contains(tc.expectedTo))
			assert.False(t, r.Contains(tc.expectedTo.Add(time.Nanosecond)))
		})
	}
}

func TestRangeParserMaxDays(t *testing.T) {
	fixedTime := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	parser := timeframe.NewRangeParser(30, &MockTimeProvider{FixedTime: fixedTime}).WithMaxDays(90)

	_, err := parser.ParseRange("2024-01-01", "2024-03-15")
	require.NoError(t, err)

	_, err = parser.ParseRange("2023-12-01", "2024-03-15")
	assert.ErrorIs(t, err, failures.ErrInvalidRange)
	assert.Contains(t, err.Error(), "at most 90")

	// A limit shorter than the default range would reject the default itself.
	short := timeframe.NewRangeParser(30, &MockTimeProvider{FixedTime: fixedTime}).WithMaxDays(7)
	r, err := short.ParseRange("", "")
	require.NoError(t, err)
	assert.Equal(t, 31, r.Days())
}
