// Package analytics computes aggregates over fetched records. Every function is
// pure: inputs are passed explicitly and nothing is retained between calls.
package analytics

import (
	"math"
	"time"

	"medinsight/internal/ranking"
	"medinsight/internal/records"
	"medinsight/internal/timeframe"
)

// CountByCategory counts every interaction exactly once. Missing and
// unrecognized categories are counted under records.CategoryUnknown.
func CountByCategory(interactions []records.Interaction) []ranking.Entry[records.Category] {
	counter := ranking.NewCounter[records.Category]()
	for _, i := range interactions {
		counter.Inc(i.CategoryOf())
	}
	return counter.Entries()
}

// FilterByCategory keeps the interactions of a single category.
func FilterByCategory(interactions []records.Interaction, category records.Category) []records.Interaction {
	filtered := make([]records.Interaction, 0, len(interactions))
	for _, i := range interactions {
		if i.CategoryOf() == category {
			filtered = append(filtered, i)
		}
	}
	return filtered
}

// Ratio returns num/den, or 0 when den is 0.
func Ratio(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}

// Percent returns num/den as a percentage rounded to one decimal, 0 when den is 0.
func Percent(num, den float64) float64 {
	return Round1(Ratio(num, den) * 100)
}

// Round1 rounds to one decimal place.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// PercentChange returns the change from previous to current in percent. It is
// nil when previous is not positive.
func PercentChange(current, previous float64) *float64 {
	if previous <= 0 {
		return nil
	}
	change := Round1((current/previous - 1) * 100)
	return &change
}

// CountSince counts items whose timestamp is at or after cutoff. Items with
// malformed timestamps are not counted.
func CountSince[T any](items []T, cutoff time.Time, timestampOf func(T) (time.Time, error)) int {
	count := 0
	for _, item := range items {
		t, err := timestampOf(item)
		if err != nil {
			continue
		}
		if !t.Before(cutoff) {
			count++
		}
	}
	return count
}

// CountOnDay counts items that fall on the UTC calendar day of day.
func CountOnDay[T any](items []T, day time.Time, timestampOf func(T) (time.Time, error)) int {
	start := timeframe.StartOfDay(day)
	end := start.AddDate(0, 0, 1)
	count := 0
	for _, item := range items {
		t, err := timestampOf(item)
		if err != nil {
			continue
		}
		if !t.Before(start) && t.Before(end) {
			count++
		}
	}
	return count
}

// CountDated counts the items whose timestamp parses.
func CountDated[T any](items []T, timestampOf func(T) (time.Time, error)) int {
	count := 0
	for _, item := range items {
		if _, err := timestampOf(item); err == nil {
			count++
		}
	}
	return count
}

// DistinctDays counts the UTC calendar days that hold at least one item.
func DistinctDays[T any](items []T, timestampOf func(T) (time.Time, error)) int {
	days := make(map[string]struct{})
	for _, item := range items {
		t, err := timestampOf(item)
		if err != nil {
			continue
		}
		days[t.Format(timeframe.DateLayout)] = struct{}{}
	}
	return len(days)
}

// Earliest returns the earliest parseable timestamp. ok is false when there is
// none.
func Earliest[T any](items []T, timestampOf func(T) (time.Time, error)) (earliest time.Time, ok bool) {
	for _, item := range items {
		t, err := timestampOf(item)
		if err != nil {
			continue
		}
		if !ok || t.Before(earliest) {
			earliest, ok = t, true
		}
	}
	return earliest, ok
}
