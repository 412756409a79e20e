package reports

import (
	"context"

	"medinsight/internal/analytics"
	"medinsight/internal/export"
	"medinsight/internal/failures"
	"medinsight/internal/ranking"
	"medinsight/internal/store"
)

type ActorRow struct {
	Rank         int     `json:"rank"`
	Actor        string  `json:"actor"`
	Count        int     `json:"count"`
	SharePercent float64 `json:"share_percent"`
}

type Actors struct {
	Meta       Meta       `json:"meta"`
	Limit      int        `json:"limit"`
	WindowDays *int       `json:"window_days"`
	Total      int        `json:"total"`
	Rows       []ActorRow `json:"rows"`
}

// Actors ranks actors by question count. A nil window considers all time.
func (a *Assembler) Actors(ctx context.Context, limit int, windowDays *int) (*Actors, error) {
	if err := checkActorParams(limit, windowDays); err != nil {
		return nil, err
	}

	b := a.begin(BundleActors)
	out := &Actors{Limit: limit, WindowDays: windowDays, Rows: []ActorRow{}}

	var filter store.Filter
	if windowDays != nil {
		from := a.now().AddDate(0, 0, -*windowDays)
		filter.From = &from
	}

	interactions, err := a.store.FetchInteractions(ctx, filter)
	if b.section("actors", err) != StatusOK {
		out.Meta = b.finish()
		return out, nil
	}

	counts := analytics.ActorCounts(interactions)
	top, err := ranking.TopK(counts, limit)
	if b.section("actors", err) != StatusOK {
		out.Meta = b.finish()
		return out, nil
	}
	if len(top) == 0 {
		b.set("actors", StatusNoData)
	}

	for _, e := range counts {
		out.Total += e.Count
	}
	for i, e := range top {
		out.Rows = append(out.Rows, ActorRow{
			Rank:         i + 1,
			Actor:        e.Key,
			Count:        e.Count,
			SharePercent: analytics.Percent(float64(e.Count), float64(out.Total)),
		})
	}

	out.Meta = b.finish()
	return out, nil
}

func checkActorParams(limit int, windowDays *int) error {
	if limit <= 0 {
		return failures.InvalidRange("limit must be positive, got %d", limit)
	}
	if windowDays != nil && *windowDays <= 0 {
		return failures.InvalidRange("window must be positive, got %d days", *windowDays)
	}
	return nil
}

func (a *Actors) Table() export.Table {
	t := export.NewTable("Top actors", "rank", "actor", "count", "share_percent")
	for _, r := range a.Rows {
		t.Append(export.Int(r.Rank), r.Actor, export.Int(r.Count), export.Float(r.SharePercent))
	}
	return t
}
