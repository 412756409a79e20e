package jobs

import (
	"context"
	"fmt"
	"log/slog"

	"medinsight/internal/reports"
	"medinsight/internal/timeframe"
)

const DigestJobName = "daily_digest"

// DigestJob logs a summary of the day's usage.
type DigestJob struct {
	assembler *reports.Assembler
	ranges    *timeframe.RangeParser
	logger    *slog.Logger
	spec      string
}

func NewDigestJob(assembler *reports.Assembler, ranges *timeframe.RangeParser, logger *slog.Logger, spec string) *DigestJob {
	return &DigestJob{
		assembler: assembler,
		ranges:    ranges,
		logger:    logger,
		spec:      spec,
	}
}

func (j *DigestJob) Name() string { return DigestJobName }
func (j *DigestJob) Spec() string { return j.spec }

// Run builds today's overview and category breakdown and logs them.
func (j *DigestJob) Run(ctx context.Context) error {
	today := j.ranges.Now().Format(timeframe.DateLayout)
	r, err := j.ranges.ParseRange(today, today)
	if err != nil {
		return fmt.Errorf("failed to build digest range: %w", err)
	}

	overview, err := j.assembler.Overview(ctx, r)
	if err != nil {
		return fmt.Errorf("failed to build digest overview: %w", err)
	}
	categories, err := j.assembler.Categories(ctx, "")
	if err != nil {
		return fmt.Errorf("failed to build digest categories: %w", err)
	}

	attrs := []any{
		slog.String("date", today),
		slog.String("report_id", overview.Meta.ID),
		slog.Int("total_accounts", overview.TotalAccounts),
		slog.Int("new_accounts_7d", overview.NewAccounts7d),
		slog.Int("total_questions", overview.TotalQuestions),
		slog.Int("today_questions", overview.TodayQuestions),
		slog.Int("active_accounts_7d", overview.ActiveActors7d),
		slog.String("busiest_day", overview.BusiestDay),
	}
	for _, row := range categories.Rows {
		attrs = append(attrs, slog.Int("category_"+string(row.Category), row.Count))
	}

	if overview.Meta.Degraded() || categories.Meta.Degraded() {
		j.logger.Warn("Daily digest (degraded)", attrs...)
		return nil
	}
	j.logger.Info("Daily digest", attrs...)
	return nil
}
