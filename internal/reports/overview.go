package reports

import (
	"context"

	"medinsight/internal/analytics"
	"medinsight/internal/export"
	"medinsight/internal/gauge"
	"medinsight/internal/records"
	"medinsight/internal/store"
	"medinsight/internal/timeframe"
)

type OverviewGauges struct {
	ActiveAccounts gauge.Gauge `json:"active_accounts"`
	TodayQuestions gauge.Gauge `json:"today_questions"`
	Categories     gauge.Gauge `json:"categories"`
	TodayMarks     gauge.Marks `json:"today_marks"`
	CategoryMarks  gauge.Marks `json:"category_marks"`
}

// Overview is the headline bundle. Totals and activity windows are measured
// against the whole store; QuestionsInRange is the only range-bound figure.
type Overview struct {
	Meta  Meta  `json:"meta"`
	Range Range `json:"range"`

	TotalAccounts int `json:"total_accounts"`
	NewAccounts7d int `json:"new_accounts_7d"`

	TotalQuestions     int      `json:"total_questions"`
	QuestionsInRange   int      `json:"questions_in_range"`
	TodayQuestions     int      `json:"today_questions"`
	AvgDailyQuestions  float64  `json:"avg_daily_questions"`
	TodayChangePercent *float64 `json:"today_change_percent"`
	Last7Days          int      `json:"last_7_days"`
	Last30Days         int      `json:"last_30_days"`
	AvgPerDay30d       float64  `json:"avg_per_day_30d"`
	CategoryCount      int      `json:"category_count"`
	BusiestDay         string   `json:"busiest_day"`
	BusiestDayCount    int      `json:"busiest_day_count"`

	ActiveActors7d         int     `json:"active_actors_7d"`
	ActiveActors30d        int     `json:"active_actors_30d"`
	AvgQuestionsPerAccount float64 `json:"avg_questions_per_account"`
	EngagementPercent      float64 `json:"engagement_percent"`
	RetentionPercent       float64 `json:"retention_percent"`

	Gauges OverviewGauges `json:"gauges"`
}

// Overview computes the headline figures.
func (a *Assembler) Overview(ctx context.Context, r timeframe.DateRange) (*Overview, error) {
	if err := checkRange(r); err != nil {
		return nil, err
	}

	b := a.begin(BundleOverview)
	now := a.now()
	o := &Overview{Range: rangeOf(r)}
	createdAt := records.Interaction.CreatedTime

	accounts, accountsErr := a.store.FetchAccounts(ctx)
	accountsStatus := b.section("accounts", accountsErr)
	if accountsStatus == StatusOK {
		o.TotalAccounts = len(accounts)
		o.NewAccounts7d = analytics.CountSince(accounts, now.AddDate(0, 0, -7), records.Account.CreatedTime)
		if len(accounts) == 0 {
			accountsStatus = StatusNoData
			b.set("accounts", accountsStatus)
		}
	}

	interactions, interactionsErr := a.store.FetchInteractions(ctx, store.Filter{})
	questionsStatus := b.section("questions", interactionsErr)
	if questionsStatus == StatusOK {
		o.TotalQuestions = len(interactions)
		o.QuestionsInRange = countInRange(interactions, r)
		o.TodayQuestions = analytics.CountOnDay(interactions, now, createdAt)

		// Only dated questions can be spread over the observed days.
		observedDays := max(analytics.DistinctDays(interactions, createdAt), 1)
		dated := analytics.CountDated(interactions, createdAt)
		o.AvgDailyQuestions = analytics.Round1(analytics.Ratio(float64(dated), float64(observedDays)))
		o.TodayChangePercent = analytics.PercentChange(float64(o.TodayQuestions), o.AvgDailyQuestions)

		o.Last7Days = analytics.CountSince(interactions, now.AddDate(0, 0, -7), createdAt)
		o.Last30Days = analytics.CountSince(interactions, now.AddDate(0, 0, -30), createdAt)
		o.AvgPerDay30d = analytics.Round1(float64(o.Last30Days) / 30)
		o.CategoryCount = len(analytics.CountByCategory(interactions))

		// Both windows are positive constants, so these cannot fail.
		o.ActiveActors7d, _ = analytics.ActiveActors(interactions, 7, now)
		o.ActiveActors30d, _ = analytics.ActiveActors(interactions, 30, now)

		if len(interactions) == 0 {
			questionsStatus = StatusNoData
			b.set("questions", questionsStatus)
			b.set("busiest_day", StatusNoData)
		} else {
			day, count, err := analytics.RecordHolders(interactions)
			if b.section("busiest_day", err) == StatusOK {
				o.BusiestDay, o.BusiestDayCount = day, count
			}
		}
	} else {
		b.set("busiest_day", questionsStatus)
	}

	switch {
	case accountsStatus == StatusUnavailable || questionsStatus == StatusUnavailable:
		b.set("engagement", StatusUnavailable)
	case accountsStatus == StatusNoData:
		b.set("engagement", StatusNoData)
	default:
		o.AvgQuestionsPerAccount = analytics.Round1(analytics.Ratio(float64(o.TotalQuestions), float64(o.TotalAccounts)))
		o.EngagementPercent = analytics.Percent(float64(o.ActiveActors7d), float64(o.TotalAccounts))
		o.RetentionPercent = analytics.Percent(float64(o.ActiveActors30d), float64(o.TotalAccounts))
		b.set("engagement", StatusOK)
	}

	o.Gauges = OverviewGauges{
		ActiveAccounts: gauge.Score(float64(o.ActiveActors7d), float64(o.TotalAccounts)),
		TodayQuestions: gauge.Score(float64(o.TodayQuestions), a.settings.DailyQuestionCeiling),
		Categories:     gauge.Score(float64(o.CategoryCount), a.settings.CategoryCeiling),
		TodayMarks:     gauge.Thresholds(a.settings.DailyQuestionCeiling),
		CategoryMarks:  gauge.Thresholds(a.settings.CategoryCeiling),
	}
	if questionsStatus == StatusUnavailable {
		b.set("gauges", StatusUnavailable)
	} else {
		b.set("gauges", StatusOK)
	}

	o.Meta = b.finish()
	return o, nil
}

func countInRange(interactions []records.Interaction, r timeframe.DateRange) int {
	count := 0
	for _, i := range interactions {
		t, err := i.CreatedTime()
		if err == nil && r.Contains(t) {
			count++
		}
	}
	return count
}

// Table lists the overview as metric/value rows.
func (o *Overview) Table() export.Table {
	t := export.NewTable("Overview "+o.Range.From+" to "+o.Range.To, "metric", "value")
	t.Append("total_accounts", export.Int(o.TotalAccounts))
	t.Append("new_accounts_7d", export.Int(o.NewAccounts7d))
	t.Append("total_questions", export.Int(o.TotalQuestions))
	t.Append("questions_in_range", export.Int(o.QuestionsInRange))
	t.Append("today_questions", export.Int(o.TodayQuestions))
	t.Append("avg_daily_questions", export.Float(o.AvgDailyQuestions))
	t.Append("today_change_percent", export.OptionalFloat(o.TodayChangePercent))
	t.Append("last_7_days", export.Int(o.Last7Days))
	t.Append("last_30_days", export.Int(o.Last30Days))
	t.Append("avg_per_day_30d", export.Float(o.AvgPerDay30d))
	t.Append("category_count", export.Int(o.CategoryCount))
	t.Append("busiest_day", o.BusiestDay)
	t.Append("busiest_day_count", export.Int(o.BusiestDayCount))
	t.Append("active_actors_7d", export.Int(o.ActiveActors7d))
	t.Append("active_actors_30d", export.Int(o.ActiveActors30d))
	t.Append("avg_questions_per_account", export.Float(o.AvgQuestionsPerAccount))
	t.Append("engagement_percent", export.Float(o.EngagementPercent))
	t.Append("retention_percent", export.Float(o.RetentionPercent))
	t.Append("today_questions_band", string(o.Gauges.TodayQuestions.Band))
	return t
}
