// Package reports assembles the bundles shown on the analytics dashboard.
//
// Each bundle fetches its own snapshot from the store and recomputes every
// figure from scratch. Store and record failures never escape a bundle: the
// affected section falls back to zero values and its Status says why. Only
// usage errors (failures.ErrInvalidRange) are returned, before anything is
// fetched.
package reports

import (
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"medinsight/internal/failures"
	"medinsight/internal/metrics"
	"medinsight/internal/pkg/async"
	"medinsight/internal/store"
	"medinsight/internal/timeframe"
)

// Bundle names as exposed at the presentation boundary.
const (
	BundleOverview   = "overview"
	BundleCategories = "categories"
	BundleDynamics   = "dynamics"
	BundleActors     = "actors"
	BundleHourly     = "hourly"
	BundleFeedback   = "feedback"
	BundleMonthly    = "monthly"
	BundleDashboard  = "dashboard"
)

// Bundles lists every bundle name in display order.
var Bundles = []string{
	BundleOverview, BundleCategories, BundleDynamics, BundleActors,
	BundleHourly, BundleFeedback, BundleMonthly, BundleDashboard,
}

// Status describes how a section of a bundle was computed.
type Status string

const (
	StatusOK          Status = "ok"
	StatusNoData      Status = "no_data"
	StatusUnavailable Status = "unavailable"
	StatusDegenerate  Status = "degenerate"
)

// Meta identifies a computed bundle.
type Meta struct {
	ID          string            `json:"id"`
	Bundle      string            `json:"bundle"`
	GeneratedAt string            `json:"generated_at"`
	Sections    map[string]Status `json:"sections"`
}

// Degraded reports whether any section failed to compute normally.
func (m Meta) Degraded() bool {
	for _, s := range m.Sections {
		if s == StatusUnavailable || s == StatusDegenerate {
			return true
		}
	}
	return false
}

// Range is a date range as shown to callers.
type Range struct {
	From string `json:"from"`
	To   string `json:"to"`
	Days int    `json:"days"`
}

func rangeOf(r timeframe.DateRange) Range {
	return Range{
		From: r.From.Format(timeframe.DateLayout),
		To:   r.To.Format(timeframe.DateLayout),
		Days: r.Days(),
	}
}

// Settings are the tunables of report assembly.
type Settings struct {
	DailyQuestionCeiling float64
	CategoryCeiling      float64
	DefaultTopK          int
	Workers              int
}

// DefaultSettings mirrors the configuration defaults.
func DefaultSettings() Settings {
	return Settings{
		DailyQuestionCeiling: 500,
		CategoryCeiling:      20,
		DefaultTopK:          10,
		Workers:              4,
	}
}

// Assembler builds report bundles from a Store.
type Assembler struct {
	store    store.Store
	clock    timeframe.TimeProvider
	logger   *slog.Logger
	settings Settings
	pool     *async.Pool
}

// NewAssembler creates an assembler. The clock defaults to the system clock.
func NewAssembler(s store.Store, logger *slog.Logger, settings Settings, clock ...timeframe.TimeProvider) *Assembler {
	var provider timeframe.TimeProvider = &timeframe.DefaultTimeProvider{}
	if len(clock) > 0 && clock[0] != nil {
		provider = clock[0]
	}
	if settings.DefaultTopK <= 0 {
		settings.DefaultTopK = DefaultSettings().DefaultTopK
	}
	if settings.Workers <= 0 {
		settings.Workers = DefaultSettings().Workers
	}

	return &Assembler{
		store:    s,
		clock:    provider,
		logger:   logger,
		settings: settings,
		pool:     async.NewPool(settings.Workers),
	}
}

// Settings returns the assembler's tunables.
func (a *Assembler) Settings() Settings {
	return a.settings
}

func (a *Assembler) now() time.Time {
	return a.clock.Now(time.UTC)
}

// build tracks the sections of one bundle while it is being computed.
type build struct {
	assembler *Assembler
	meta      Meta
	started   time.Time
}

func (a *Assembler) begin(bundle string) *build {
	return &build{
		assembler: a,
		started:   time.Now(),
		meta: Meta{
			ID:          uuid.NewString(),
			Bundle:      bundle,
			GeneratedAt: a.now().Format(time.RFC3339),
			Sections:    make(map[string]Status),
		},
	}
}

// section records the outcome of a section and logs absorbed failures.
func (b *build) section(name string, err error) Status {
	status := statusFor(err)
	b.set(name, status)
	if err != nil {
		b.assembler.logger.Warn("Report section degraded",
			slog.String("bundle", b.meta.Bundle),
			slog.String("section", name),
			slog.String("status", string(status)),
			slog.Any("error", err))
	}
	return status
}

func (b *build) set(name string, status Status) {
	b.meta.Sections[name] = status
}

func (b *build) finish() Meta {
	for name, status := range b.meta.Sections {
		metrics.RecordSection(b.meta.Bundle, name, string(status))
	}
	metrics.RecordReport(b.meta.Bundle, time.Since(b.started))
	return b.meta
}

func statusFor(err error) Status {
	switch {
	case err == nil:
		return StatusOK
	case errors.Is(err, failures.ErrDegenerateInput), errors.Is(err, failures.ErrMalformedRecord):
		return StatusDegenerate
	default:
		return StatusUnavailable
	}
}

func checkRange(r timeframe.DateRange) error {
	if r.From.IsZero() || r.To.IsZero() {
		return failures.InvalidRange("date range is not set")
	}
	if r.From.After(r.To) {
		return failures.InvalidRange("from %s is after to %s", r.From.Format(timeframe.DateLayout), r.To.Format(timeframe.DateLayout))
	}
	return nil
}

func rangeFilter(r timeframe.DateRange) store.Filter {
	from, to := r.From, r.To
	return store.Filter{From: &from, To: &to}
}
