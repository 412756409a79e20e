package timeframe

import (
	"strings"
	"time"

	"medinsight/internal/failures"
)

const (
	DateLayout  = "2006-01-02"
	MonthLayout = "2006-01"
)

// DateStat is one bucket of an ordered series. Date is YYYY-MM-DD for daily
// buckets and YYYY-MM for monthly buckets.
type DateStat struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// HourStat is one hour-of-day bucket.
type HourStat struct {
	Hour  int `json:"hour"`
	Count int `json:"count"`
}

type BucketSize string

const (
	BucketSizeDay   BucketSize = "day"
	BucketSizeMonth BucketSize = "month"
)

type TimeProvider interface {
	Now(loc *time.Location) time.Time
}

// DefaultTimeProvider uses the system clock.
type DefaultTimeProvider struct{}

func (p *DefaultTimeProvider) Now(loc *time.Location) time.Time {
	return time.Now().In(loc)
}

// Accepted timestamp layouts, tried in order after a trailing Z has been
// rewritten to +00:00. Fractional seconds are accepted by time.Parse even when
// the layout does not name them.
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02T15:04:05-0700",
	"2006-01-02 15:04:05-0700",
	"2006-01-02T15:04:05-07",
	"2006-01-02 15:04:05-07",
	"2006-01-02T15:04:05 Z07:00",
	"2006-01-02 15:04:05 Z07:00",
	"2006-01-02T15:04:05 -0700",
	"2006-01-02 15:04:05 -0700",
	"2006-01-02T15:04:05 -07",
	"2006-01-02 15:04:05 -07",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	DateLayout,
}

// ParseTimestamp normalizes an ISO-8601 style timestamp to UTC. Values without
// an offset are taken as UTC.
func ParseTimestamp(raw string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, failures.Malformed("empty timestamp")
	}
	if last := s[len(s)-1]; last == 'Z' || last == 'z' {
		s = s[:len(s)-1] + "+00:00"
	}

	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, failures.Malformed("unparsable timestamp %q", raw)
}

// StartOfDay truncates t to midnight UTC of its UTC calendar day.
func StartOfDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// EndOfDay returns the last instant of t's UTC calendar day.
func EndOfDay(t time.Time) time.Time {
	return StartOfDay(t).AddDate(0, 0, 1).Add(-time.Nanosecond)
}

func startOfMonth(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// Buckets is a contiguous, gap-filled series of calendar buckets in UTC.
// It is owned by a single computation and is not safe for concurrent use.
type Buckets struct {
	size   BucketSize
	keys   []string
	index  map[string]int
	counts []int
}

// DailyBuckets returns one zeroed bucket per UTC calendar day from start to end
// inclusive.
func DailyBuckets(start, end time.Time) (*Buckets, error) {
	if start.After(end) {
		return nil, failures.InvalidRange("start %s is after end %s", start.Format(time.RFC3339), end.Format(time.RFC3339))
	}

	b := newBuckets(BucketSizeDay)
	last := StartOfDay(end)
	for day := StartOfDay(start); !day.After(last); day = day.AddDate(0, 0, 1) {
		b.push(day.Format(DateLayout))
	}
	return b, nil
}

// MonthlyBuckets returns one zeroed bucket per UTC calendar month from start to
// end inclusive.
func MonthlyBuckets(start, end time.Time) (*Buckets, error) {
	if start.After(end) {
		return nil, failures.InvalidRange("start %s is after end %s", start.Format(time.RFC3339), end.Format(time.RFC3339))
	}

	b := newBuckets(BucketSizeMonth)
	last := startOfMonth(end)
	for month := startOfMonth(start); !month.After(last); month = month.AddDate(0, 1, 0) {
		b.push(month.Format(MonthLayout))
	}
	return b, nil
}

func newBuckets(size BucketSize) *Buckets {
	return &Buckets{size: size, index: make(map[string]int)}
}

func (b *Buckets) push(key string) {
	b.index[key] = len(b.keys)
	b.keys = append(b.keys, key)
	b.counts = append(b.counts, 0)
}

func (b *Buckets) keyOf(t time.Time) string {
	if b.size == BucketSizeMonth {
		return t.UTC().Format(MonthLayout)
	}
	return t.UTC().Format(DateLayout)
}

// Size reports the calendar unit of the buckets.
func (b *Buckets) Size() BucketSize { return b.size }

// Len is the number of buckets.
func (b *Buckets) Len() int { return len(b.keys) }

// Add increments the bucket containing t. It reports false when t falls
// outside the series.
func (b *Buckets) Add(t time.Time) bool {
	i, ok := b.index[b.keyOf(t)]
	if !ok {
		return false
	}
	b.counts[i]++
	return true
}

// Stats returns the buckets in ascending order.
func (b *Buckets) Stats() []DateStat {
	stats := make([]DateStat, len(b.keys))
	for i, key := range b.keys {
		stats[i] = DateStat{Date: key, Count: b.counts[i]}
	}
	return stats
}

// AssignStats reports what happened to each record passed to Assign.
type AssignStats struct {
	Assigned   int
	OutOfRange int
	Malformed  int
}

// Assign places every record into its bucket. Records outside the series are
// dropped and records whose timestamp does not parse are counted as malformed.
func Assign[T any](b *Buckets, items []T, timestampOf func(T) (time.Time, error)) AssignStats {
	var stats AssignStats
	for _, item := range items {
		t, err := timestampOf(item)
		if err != nil {
			stats.Malformed++
			continue
		}
		if b.Add(t) {
			stats.Assigned++
		} else {
			stats.OutOfRange++
		}
	}
	return stats
}

// HourBuckets counts records by UTC hour of day.
type HourBuckets [24]int

// HourlyBuckets returns 24 zeroed hour buckets.
func HourlyBuckets() *HourBuckets {
	return &HourBuckets{}
}

// Stats returns all 24 hours in order, zero-count hours included.
func (h *HourBuckets) Stats() []HourStat {
	stats := make([]HourStat, len(h))
	for hour, count := range h {
		stats[hour] = HourStat{Hour: hour, Count: count}
	}
	return stats
}

// AssignHours counts each parseable record under its UTC hour.
func AssignHours[T any](h *HourBuckets, items []T, timestampOf func(T) (time.Time, error)) AssignStats {
	var stats AssignStats
	for _, item := range items {
		t, err := timestampOf(item)
		if err != nil {
			stats.Malformed++
			continue
		}
		h[t.UTC().Hour()]++
		stats.Assigned++
	}
	return stats
}

// CalculateTrend returns the least-squares slope of the series counts against
// their position.
func CalculateTrend(points []DateStat) float64 {
	if len(points) < 2 {
		return 0
	}

	var sumX, sumY, sumXY, sumXX float64
	n := float64(len(points))

	for i, point := range points {
		x := float64(i)
		y := float64(point.Count)

		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}

	denominator := n*sumXX - sumX*sumX
	if denominator == 0 {
		return 0
	}
	return (n*sumXY - sumX*sumY) / denominator
}
