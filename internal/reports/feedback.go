package reports

import (
	"context"

	"medinsight/internal/analytics"
	"medinsight/internal/export"
)

type Feedback struct {
	Meta    Meta                      `json:"meta"`
	Summary analytics.FeedbackSummary `json:"summary"`
}

// Feedback summarizes ratings left by accounts.
func (a *Assembler) Feedback(ctx context.Context) (*Feedback, error) {
	b := a.begin(BundleFeedback)
	f := &Feedback{Summary: analytics.FeedbackStats(nil, a.now())}

	entries, err := a.store.FetchFeedback(ctx)
	if b.section("feedback", err) == StatusOK {
		f.Summary = analytics.FeedbackStats(entries, a.now())
		if f.Summary.Total == 0 {
			b.set("feedback", StatusNoData)
		}
	}

	f.Meta = b.finish()
	return f, nil
}

func (f *Feedback) Table() export.Table {
	t := export.NewTable("Feedback", "metric", "value")
	t.Append("total", export.Int(f.Summary.Total))
	t.Append("average_rating", export.Float(f.Summary.AverageRating))
	t.Append("this_month", export.Int(f.Summary.ThisMonth))
	t.Append("out_of_domain", export.Int(f.Summary.OutOfDomain))
	for _, r := range f.Summary.Distribution {
		t.Append("rating_"+export.Int(r.Rating), export.Int(r.Count))
	}
	return t
}
