package reports

import (
	"context"
	"fmt"

	"medinsight/internal/export"
	"medinsight/internal/failures"
	"medinsight/internal/pkg/async"
	"medinsight/internal/records"
	"medinsight/internal/timeframe"
)

// Params carries the parameters of every bundle. Each bundle reads only the
// fields it needs.
type Params struct {
	Range      timeframe.DateRange
	Category   string
	Limit      *int
	WindowDays *int
}

// TopK resolves the actor limit, falling back to def when none was given.
func (p Params) TopK(def int) int {
	if p.Limit == nil {
		return def
	}
	return *p.Limit
}

// Dashboard composes every bundle. A bundle that could not be built is nil and
// its section is unavailable.
type Dashboard struct {
	Meta       Meta        `json:"meta"`
	Overview   *Overview   `json:"overview"`
	Categories *Categories `json:"categories"`
	Dynamics   *Dynamics   `json:"dynamics"`
	Actors     *Actors     `json:"actors"`
	Hourly     *Hourly     `json:"hourly"`
	Feedback   *Feedback   `json:"feedback"`
	Monthly    *Monthly    `json:"monthly"`
}

// Dashboard builds the bundles concurrently. Each bundle takes its own
// snapshot, so the bundles share no state while they run.
func (a *Assembler) Dashboard(ctx context.Context, p Params) (*Dashboard, error) {
	if err := checkRange(p.Range); err != nil {
		return nil, err
	}
	limit := p.TopK(a.settings.DefaultTopK)
	if err := checkActorParams(limit, p.WindowDays); err != nil {
		return nil, err
	}
	if _, ok := records.ParseFilter(p.Category); p.Category != "" && !ok {
		return nil, failures.InvalidRange("unknown category %q", p.Category)
	}

	b := a.begin(BundleDashboard)

	tasks := []async.Task{
		{Name: BundleOverview, Execute: func(ctx context.Context) (any, error) { return a.Overview(ctx, p.Range) }},
		{Name: BundleCategories, Execute: func(ctx context.Context) (any, error) { return a.Categories(ctx, p.Category) }},
		{Name: BundleDynamics, Execute: func(ctx context.Context) (any, error) { return a.Dynamics(ctx, p.Range) }},
		{Name: BundleActors, Execute: func(ctx context.Context) (any, error) { return a.Actors(ctx, limit, p.WindowDays) }},
		{Name: BundleHourly, Execute: func(ctx context.Context) (any, error) { return a.Hourly(ctx) }},
		{Name: BundleFeedback, Execute: func(ctx context.Context) (any, error) { return a.Feedback(ctx) }},
		{Name: BundleMonthly, Execute: func(ctx context.Context) (any, error) { return a.Monthly(ctx, p.Range) }},
	}

	results := a.pool.Execute(ctx, tasks)

	d := &Dashboard{}
	for _, task := range tasks {
		result, ok := results[task.Name]
		if !ok {
			b.section(task.Name, fmt.Errorf("bundle %s did not complete: %w", task.Name, failures.ErrStoreUnavailable))
			continue
		}
		if result.Err != nil {
			b.section(task.Name, result.Err)
			continue
		}

		var meta Meta
		switch v := result.Data.(type) {
		case *Overview:
			d.Overview, meta = v, v.Meta
		case *Categories:
			d.Categories, meta = v, v.Meta
		case *Dynamics:
			d.Dynamics, meta = v, v.Meta
		case *Actors:
			d.Actors, meta = v, v.Meta
		case *Hourly:
			d.Hourly, meta = v, v.Meta
		case *Feedback:
			d.Feedback, meta = v, v.Meta
		case *Monthly:
			d.Monthly, meta = v, v.Meta
		}
		b.set(task.Name, worstStatus(meta.Sections))
	}

	d.Meta = b.finish()
	return d, nil
}

// worstStatus folds section statuses: unavailable over degenerate over no data
// over ok.
func worstStatus(sections map[string]Status) Status {
	rank := map[Status]int{StatusOK: 0, StatusNoData: 1, StatusDegenerate: 2, StatusUnavailable: 3}
	worst := StatusOK
	for _, s := range sections {
		if rank[s] > rank[worst] {
			worst = s
		}
	}
	return worst
}

// Table lists the status of every composed bundle.
func (d *Dashboard) Table() export.Table {
	t := export.NewTable("Dashboard", "bundle", "status", "generated_at")
	for _, name := range Bundles {
		status, ok := d.Meta.Sections[name]
		if !ok {
			continue
		}
		t.Append(name, string(status), d.Meta.GeneratedAt)
	}
	return t
}
