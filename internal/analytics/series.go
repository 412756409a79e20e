package analytics

import (
	"fmt"
	"time"

	"medinsight/internal/failures"
	"medinsight/internal/ranking"
	"medinsight/internal/records"
	"medinsight/internal/timeframe"
)

// DailySeries counts interactions per UTC day from start to end inclusive,
// zero-count days included.
func DailySeries(interactions []records.Interaction, start, end time.Time) ([]timeframe.DateStat, error) {
	buckets, err := timeframe.DailyBuckets(start, end)
	if err != nil {
		return nil, err
	}
	timeframe.Assign(buckets, interactions, records.Interaction.CreatedTime)
	return buckets.Stats(), nil
}

// MonthlySeries counts interactions per UTC calendar month.
func MonthlySeries(interactions []records.Interaction, start, end time.Time) ([]timeframe.DateStat, error) {
	buckets, err := timeframe.MonthlyBuckets(start, end)
	if err != nil {
		return nil, err
	}
	timeframe.Assign(buckets, interactions, records.Interaction.CreatedTime)
	return buckets.Stats(), nil
}

// GrowthSeries returns new accounts per day and the running total of those
// counts across the range. The running total starts at zero on the first day.
func GrowthSeries(accounts []records.Account, start, end time.Time) (daily, cumulative []timeframe.DateStat, err error) {
	buckets, err := timeframe.DailyBuckets(start, end)
	if err != nil {
		return nil, nil, err
	}
	timeframe.Assign(buckets, accounts, records.Account.CreatedTime)

	daily = buckets.Stats()
	cumulative = make([]timeframe.DateStat, len(daily))
	total := 0
	for i, day := range daily {
		total += day.Count
		cumulative[i] = timeframe.DateStat{Date: day.Date, Count: total}
	}
	return daily, cumulative, nil
}

// HourlyDistribution counts interactions by UTC hour of day. All 24 hours are
// present.
func HourlyDistribution(interactions []records.Interaction) []timeframe.HourStat {
	hours := timeframe.HourlyBuckets()
	timeframe.AssignHours(hours, interactions, records.Interaction.CreatedTime)
	return hours.Stats()
}

// RecordHolders returns the UTC day with the most interactions. Ties go to the
// earliest date.
func RecordHolders(interactions []records.Interaction) (day string, count int, err error) {
	perDay := make(map[string]int)
	for _, i := range interactions {
		t, err := i.CreatedTime()
		if err != nil {
			continue
		}
		perDay[t.Format(timeframe.DateLayout)]++
	}
	if len(perDay) == 0 {
		return "", 0, failures.Degenerate("no interaction with a valid timestamp")
	}

	for d, c := range perDay {
		if c > count || (c == count && d < day) {
			day, count = d, c
		}
	}
	return day, count, nil
}

// SeriesSummary describes an ordered series.
type SeriesSummary struct {
	Total   int                `json:"total"`
	Average float64            `json:"average"`
	Max     timeframe.DateStat `json:"max"`
	Min     timeframe.DateStat `json:"min"`
	Trend   float64            `json:"trend"`
}

// Summarize totals a series and finds its extremes. The average is taken over
// the number of buckets; the first bucket wins ties for max and min.
func Summarize(series []timeframe.DateStat) (SeriesSummary, error) {
	entries := make([]ranking.Entry[string], len(series))
	total := 0
	for i, point := range series {
		entries[i] = ranking.Entry[string]{Key: point.Date, Count: point.Count}
		total += point.Count
	}

	maxEntry, minEntry, err := ranking.Extremal(entries)
	if err != nil {
		return SeriesSummary{}, fmt.Errorf("error summarizing series: %w", err)
	}

	return SeriesSummary{
		Total:   total,
		Average: Round1(Ratio(float64(total), float64(len(series)))),
		Max:     timeframe.DateStat{Date: maxEntry.Key, Count: maxEntry.Count},
		Min:     timeframe.DateStat{Date: minEntry.Key, Count: minEntry.Count},
		Trend:   timeframe.CalculateTrend(series),
	}, nil
}

// SumLast sums the last n points of a series, or all of them when the series
// is shorter.
func SumLast(series []timeframe.DateStat, n int) int {
	if n < len(series) {
		series = series[len(series)-n:]
	}
	total := 0
	for _, point := range series {
		total += point.Count
	}
	return total
}
