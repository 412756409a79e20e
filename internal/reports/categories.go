package reports

import (
	"context"

	"medinsight/internal/analytics"
	"medinsight/internal/export"
	"medinsight/internal/failures"
	"medinsight/internal/ranking"
	"medinsight/internal/records"
	"medinsight/internal/store"
)

type CategoryRow struct {
	Category     records.Category `json:"category"`
	Label        string           `json:"label"`
	Count        int              `json:"count"`
	SharePercent float64          `json:"share_percent"`
	AvgPerDay    float64          `json:"avg_per_day"`
}

type Categories struct {
	Meta   Meta          `json:"meta"`
	Filter string        `json:"filter,omitempty"`
	Total  int           `json:"total"`
	Days   int           `json:"days"`
	Rows   []CategoryRow `json:"rows"`
}

// Categories breaks interactions down by category, highest count first. The
// per-day average spans the days since the earliest interaction considered,
// at least one. An empty filter means every category.
func (a *Assembler) Categories(ctx context.Context, filter string) (*Categories, error) {
	var only records.Category
	if filter != "" {
		var ok bool
		if only, ok = records.ParseFilter(filter); !ok {
			return nil, failures.InvalidRange("unknown category %q", filter)
		}
	}

	b := a.begin(BundleCategories)
	c := &Categories{Filter: string(only), Rows: []CategoryRow{}}

	interactions, err := a.store.FetchInteractions(ctx, store.Filter{})
	if b.section("categories", err) != StatusOK {
		c.Meta = b.finish()
		return c, nil
	}
	if only != "" {
		interactions = analytics.FilterByCategory(interactions, only)
	}
	if len(interactions) == 0 {
		b.set("categories", StatusNoData)
		c.Meta = b.finish()
		return c, nil
	}

	c.Total = len(interactions)
	c.Days = 1
	if earliest, ok := analytics.Earliest(interactions, records.Interaction.CreatedTime); ok {
		c.Days = max(int(a.now().Sub(earliest).Hours()/24), 1)
	}

	counts := analytics.CountByCategory(interactions)
	sorted, err := ranking.TopK(counts, len(counts))
	if b.section("categories", err) != StatusOK {
		c.Meta = b.finish()
		return c, nil
	}

	for _, e := range sorted {
		c.Rows = append(c.Rows, CategoryRow{
			Category:     e.Key,
			Label:        e.Key.Label(),
			Count:        e.Count,
			SharePercent: analytics.Percent(float64(e.Count), float64(c.Total)),
			AvgPerDay:    analytics.Round1(analytics.Ratio(float64(e.Count), float64(c.Days))),
		})
	}

	c.Meta = b.finish()
	return c, nil
}

func (c *Categories) Table() export.Table {
	t := export.NewTable("Categories", "category", "label", "count", "share_percent", "avg_per_day")
	for _, r := range c.Rows {
		t.Append(string(r.Category), r.Label, export.Int(r.Count), export.Float(r.SharePercent), export.Float(r.AvgPerDay))
	}
	return t
}
