package reports

import (
	"context"
	"errors"
	"fmt"

	"medinsight/internal/export"
)

// ErrUnknownBundle is returned by Build for a name not in Bundles.
var ErrUnknownBundle = errors.New("unknown bundle")

// Bundle is implemented by every report.
type Bundle interface {
	export.Tabular
	Metadata() Meta
}

func (o *Overview) Metadata() Meta   { return o.Meta }
func (c *Categories) Metadata() Meta { return c.Meta }
func (d *Dynamics) Metadata() Meta   { return d.Meta }
func (a *Actors) Metadata() Meta     { return a.Meta }
func (h *Hourly) Metadata() Meta     { return h.Meta }
func (f *Feedback) Metadata() Meta   { return f.Meta }
func (m *Monthly) Metadata() Meta    { return m.Meta }
func (d *Dashboard) Metadata() Meta  { return d.Meta }

// Build assembles a bundle by name.
func (a *Assembler) Build(ctx context.Context, name string, p Params) (Bundle, error) {
	switch name {
	case BundleOverview:
		return nilable(a.Overview(ctx, p.Range))
	case BundleCategories:
		return nilable(a.Categories(ctx, p.Category))
	case BundleDynamics:
		return nilable(a.Dynamics(ctx, p.Range))
	case BundleActors:
		return nilable(a.Actors(ctx, p.TopK(a.settings.DefaultTopK), p.WindowDays))
	case BundleHourly:
		return nilable(a.Hourly(ctx))
	case BundleFeedback:
		return nilable(a.Feedback(ctx))
	case BundleMonthly:
		return nilable(a.Monthly(ctx, p.Range))
	case BundleDashboard:
		return nilable(a.Dashboard(ctx, p))
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBundle, name)
	}
}

// nilable keeps a typed nil pointer from turning into a non-nil Bundle.
func nilable[T Bundle](b T, err error) (Bundle, error) {
	if err != nil {
		return nil, err
	}
	return b, nil
}
