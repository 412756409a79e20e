package analytics

import (
	"time"

	"medinsight/internal/records"
	"medinsight/internal/timeframe"
)

const (
	MinRating = 1
	MaxRating = 5
)

// RatingCount is the number of feedback entries with a given rating.
type RatingCount struct {
	Rating int `json:"rating"`
	Count  int `json:"count"`
}

type FeedbackSummary struct {
	Total         int           `json:"total"`
	AverageRating float64       `json:"average_rating"`
	Distribution  []RatingCount `json:"distribution"`
	OutOfDomain   int           `json:"out_of_domain"`
	ThisMonth     int           `json:"this_month"`
}

// FeedbackStats summarizes feedback. Ratings outside 1..5 count towards Total
// and OutOfDomain but not the average or the distribution.
func FeedbackStats(feedback []records.Feedback, now time.Time) FeedbackSummary {
	summary := FeedbackSummary{Total: len(feedback)}

	counts := make([]int, MaxRating+1)
	sum, rated := 0, 0
	for _, f := range feedback {
		if f.Rating < MinRating || f.Rating > MaxRating {
			summary.OutOfDomain++
			continue
		}
		counts[f.Rating]++
		sum += f.Rating
		rated++
	}

	summary.Distribution = make([]RatingCount, 0, MaxRating)
	for rating := MinRating; rating <= MaxRating; rating++ {
		summary.Distribution = append(summary.Distribution, RatingCount{Rating: rating, Count: counts[rating]})
	}
	summary.AverageRating = Round1(Ratio(float64(sum), float64(rated)))

	monthKey := now.UTC().Format(timeframe.MonthLayout)
	for _, f := range feedback {
		t, err := f.CreatedTime()
		if err != nil {
			continue
		}
		if t.Format(timeframe.MonthLayout) == monthKey {
			summary.ThisMonth++
		}
	}
	return summary
}
