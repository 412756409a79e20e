package reports

import (
	"context"

	"medinsight/internal/analytics"
	"medinsight/internal/export"
	"medinsight/internal/timeframe"
)

type Monthly struct {
	Meta   Meta                 `json:"meta"`
	Range  Range                `json:"range"`
	Months []timeframe.DateStat `json:"months"`
	Total  int                  `json:"total"`
}

// Monthly counts interactions per calendar month of r.
func (a *Assembler) Monthly(ctx context.Context, r timeframe.DateRange) (*Monthly, error) {
	if err := checkRange(r); err != nil {
		return nil, err
	}

	b := a.begin(BundleMonthly)
	m := &Monthly{Range: rangeOf(r)}

	months, err := analytics.MonthlySeries(nil, r.From, r.To)
	if err != nil {
		return nil, err
	}
	m.Months = months

	interactions, err := a.store.FetchInteractions(ctx, rangeFilter(r))
	if b.section("months", err) == StatusOK {
		m.Months, err = analytics.MonthlySeries(interactions, r.From, r.To)
		if b.section("months", err) == StatusOK {
			for _, month := range m.Months {
				m.Total += month.Count
			}
			if m.Total == 0 {
				b.set("months", StatusNoData)
			}
		}
	}

	m.Meta = b.finish()
	return m, nil
}

func (m *Monthly) Table() export.Table {
	t := export.NewTable("Questions by month", "month", "count")
	for _, month := range m.Months {
		t.Append(month.Date, export.Int(month.Count))
	}
	return t
}
