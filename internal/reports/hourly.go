package reports

import (
	"context"

	"medinsight/internal/analytics"
	"medinsight/internal/export"
	"medinsight/internal/ranking"
	"medinsight/internal/store"
	"medinsight/internal/timeframe"
)

type Hourly struct {
	Meta       Meta                 `json:"meta"`
	Hours      []timeframe.HourStat `json:"hours"`
	PeakHour   int                  `json:"peak_hour"`
	PeakCount  int                  `json:"peak_count"`
	LowHour    int                  `json:"low_hour"`
	LowCount   int                  `json:"low_count"`
	AvgPerHour float64              `json:"avg_per_hour"`
}

// Hourly distributes all interactions over the 24 UTC hours. Ties for peak and
// low go to the earliest hour.
func (a *Assembler) Hourly(ctx context.Context) (*Hourly, error) {
	b := a.begin(BundleHourly)
	h := &Hourly{Hours: analytics.HourlyDistribution(nil)}

	interactions, err := a.store.FetchInteractions(ctx, store.Filter{})
	if b.section("hours", err) != StatusOK {
		h.Meta = b.finish()
		return h, nil
	}

	h.Hours = analytics.HourlyDistribution(interactions)
	entries := make([]ranking.Entry[int], len(h.Hours))
	total := 0
	for i, hour := range h.Hours {
		entries[i] = ranking.Entry[int]{Key: hour.Hour, Count: hour.Count}
		total += hour.Count
	}

	peak, low, err := ranking.Extremal(entries)
	if b.section("hours", err) != StatusOK {
		h.Meta = b.finish()
		return h, nil
	}
	h.PeakHour, h.PeakCount = peak.Key, peak.Count
	h.LowHour, h.LowCount = low.Key, low.Count
	h.AvgPerHour = analytics.Round1(float64(total) / float64(len(h.Hours)))

	if total == 0 {
		b.set("hours", StatusNoData)
	}

	h.Meta = b.finish()
	return h, nil
}

func (h *Hourly) Table() export.Table {
	t := export.NewTable("Questions by hour (UTC)", "hour", "count")
	for _, hour := range h.Hours {
		t.Append(export.Int(hour.Hour), export.Int(hour.Count))
	}
	return t
}
