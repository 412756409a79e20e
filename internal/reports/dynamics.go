package reports

import (
	"context"

	"medinsight/internal/analytics"
	"medinsight/internal/export"
	"medinsight/internal/timeframe"
)

// GrowthSummary describes account growth over a range.
type GrowthSummary struct {
	AvgPerDay  float64  `json:"avg_per_day"`
	TotalNew   int      `json:"total_new"`
	GrowthRate *float64 `json:"growth_rate"`
	Last7Days  int      `json:"last_7_days"`
}

type Dynamics struct {
	Meta  Meta  `json:"meta"`
	Range Range `json:"range"`

	Questions        []timeframe.DateStat    `json:"questions"`
	QuestionsSummary analytics.SeriesSummary `json:"questions_summary"`

	NewAccounts        []timeframe.DateStat `json:"new_accounts"`
	CumulativeAccounts []timeframe.DateStat `json:"cumulative_accounts"`
	Growth             GrowthSummary        `json:"growth"`
}

// Dynamics returns the daily question series and account growth over r.
// Averages are taken over the number of days in the range.
func (a *Assembler) Dynamics(ctx context.Context, r timeframe.DateRange) (*Dynamics, error) {
	if err := checkRange(r); err != nil {
		return nil, err
	}

	b := a.begin(BundleDynamics)
	d := &Dynamics{Range: rangeOf(r)}

	// Zero-filled series stand in for any section that cannot be computed.
	empty, err := analytics.DailySeries(nil, r.From, r.To)
	if err != nil {
		return nil, err
	}
	d.Questions, d.NewAccounts, d.CumulativeAccounts = empty, empty, empty

	interactions, err := a.store.FetchInteractions(ctx, rangeFilter(r))
	if b.section("questions", err) == StatusOK {
		d.Questions, err = analytics.DailySeries(interactions, r.From, r.To)
		if err == nil {
			d.QuestionsSummary, err = analytics.Summarize(d.Questions)
		}
		if b.section("questions", err) == StatusOK && len(interactions) == 0 {
			b.set("questions", StatusNoData)
		}
	}

	accounts, err := a.store.FetchAccounts(ctx)
	if b.section("growth", err) == StatusOK {
		daily, cumulative, err := analytics.GrowthSeries(accounts, r.From, r.To)
		if b.section("growth", err) == StatusOK {
			d.NewAccounts, d.CumulativeAccounts = daily, cumulative
			d.Growth = summarizeGrowth(daily, cumulative)
			if d.Growth.TotalNew == 0 {
				b.set("growth", StatusNoData)
			}
		}
	}

	d.Meta = b.finish()
	return d, nil
}

func summarizeGrowth(daily, cumulative []timeframe.DateStat) GrowthSummary {
	g := GrowthSummary{Last7Days: analytics.SumLast(daily, 7)}
	for _, day := range daily {
		g.TotalNew += day.Count
	}
	g.AvgPerDay = analytics.Round1(analytics.Ratio(float64(g.TotalNew), float64(len(daily))))
	if len(cumulative) > 0 {
		first := float64(cumulative[0].Count)
		last := float64(cumulative[len(cumulative)-1].Count)
		g.GrowthRate = analytics.PercentChange(last, first)
	}
	return g
}

func (d *Dynamics) Table() export.Table {
	t := export.NewTable("Dynamics "+d.Range.From+" to "+d.Range.To, "date", "questions", "new_accounts", "cumulative_accounts")
	for i, q := range d.Questions {
		var newAccounts, cumulative int
		if i < len(d.NewAccounts) {
			newAccounts = d.NewAccounts[i].Count
			cumulative = d.CumulativeAccounts[i].Count
		}
		t.Append(q.Date, export.Int(q.Count), export.Int(newAccounts), export.Int(cumulative))
	}
	return t
}
