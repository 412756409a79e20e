// Package store reads accounts, interactions and feedback from the event store.
//
// Every fetch is bounded by a timeout and guarded by a circuit breaker. Any
// failure is reported as a *failures.StoreError, which matches
// failures.ErrStoreUnavailable, together with an empty result.
package store

import (
	"context"
	"errors"
	"log/slog"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"gorm.io/gorm"

	"medinsight/internal/failures"
	"medinsight/internal/metrics"
	"medinsight/internal/records"
)

const (
	CollectionAccounts     = "users"
	CollectionInteractions = "questions"
	CollectionFeedback     = "feedback"
)

// Filter narrows an interaction fetch. Nil fields do not filter. From and To
// are inclusive instants.
type Filter struct {
	From      *time.Time
	To        *time.Time
	AccountID *uint
}

// Store is the read side of the event store.
type Store interface {
	FetchAccounts(ctx context.Context) ([]records.Account, error)
	FetchInteractions(ctx context.Context, filter Filter) ([]records.Interaction, error)
	FetchFeedback(ctx context.Context) ([]records.Feedback, error)
}

// Options tunes the fetch guards.
type Options struct {
	Timeout          time.Duration
	FailureThreshold uint32
	OpenTimeout      time.Duration
}

// DefaultOptions matches the configuration defaults.
func DefaultOptions() Options {
	return Options{
		Timeout:          5 * time.Second,
		FailureThreshold: 5,
		OpenTimeout:      30 * time.Second,
	}
}

// GormStore implements Store over a gorm connection.
type GormStore struct {
	db      *gorm.DB
	logger  *slog.Logger
	timeout time.Duration
	breaker *gobreaker.CircuitBreaker[any]
}

var _ Store = (*GormStore)(nil)

// NewGormStore creates a store reading from db.
func NewGormStore(db *gorm.DB, logger *slog.Logger, opts Options) *GormStore {
	defaults := DefaultOptions()
	if opts.Timeout <= 0 {
		opts.Timeout = defaults.Timeout
	}
	if opts.FailureThreshold == 0 {
		opts.FailureThreshold = defaults.FailureThreshold
	}
	if opts.OpenTimeout <= 0 {
		opts.OpenTimeout = defaults.OpenTimeout
	}

	return &GormStore{
		db:      db,
		logger:  logger,
		timeout: opts.Timeout,
		breaker: newBreaker("event_store", opts, logger),
	}
}

// FetchAccounts returns every account.
func (s *GormStore) FetchAccounts(ctx context.Context) ([]records.Account, error) {
	return fetch(ctx, s, CollectionAccounts, func(db *gorm.DB) ([]records.Account, error) {
		var accounts []records.Account
		err := db.Find(&accounts).Error
		return accounts, err
	})
}

// FetchInteractions returns the interactions matching filter. The account
// condition runs in SQL; the time bounds are applied after each timestamp has
// been normalized, since stored text with mixed offsets does not compare
// correctly as strings. Rows with malformed timestamps never satisfy a time
// bound.
func (s *GormStore) FetchInteractions(ctx context.Context, filter Filter) ([]records.Interaction, error) {
	interactions, err := fetch(ctx, s, CollectionInteractions, func(db *gorm.DB) ([]records.Interaction, error) {
		query := db.Model(&records.Interaction{})
		if filter.AccountID != nil {
			query = query.Where("user_id = ?", *filter.AccountID)
		}
		var rows []records.Interaction
		err := query.Find(&rows).Error
		return rows, err
	})
	if err != nil {
		return interactions, err
	}

	var malformed int
	interactions, malformed = applyTimeBounds(interactions, filter)
	if malformed > 0 {
		metrics.RecordMalformed(CollectionInteractions, malformed)
		s.logger.Debug("Skipped interactions with malformed timestamps",
			slog.Int("count", malformed))
	}
	return interactions, nil
}

// FetchFeedback returns every feedback entry.
func (s *GormStore) FetchFeedback(ctx context.Context) ([]records.Feedback, error) {
	return fetch(ctx, s, CollectionFeedback, func(db *gorm.DB) ([]records.Feedback, error) {
		var feedback []records.Feedback
		err := db.Find(&feedback).Error
		return feedback, err
	})
}

// BreakerState reports the circuit breaker state for health checks.
func (s *GormStore) BreakerState() string {
	return s.breaker.State().String()
}

func fetch[T any](ctx context.Context, s *GormStore, collection string, query func(*gorm.DB) ([]T, error)) ([]T, error) {
	start := time.Now()

	// A caller that already gave up says nothing about the store's health.
	if err := ctx.Err(); err != nil {
		metrics.RecordStoreFetch(collection, time.Since(start), err)
		s.logger.Debug("Event store fetch skipped",
			slog.String("collection", collection),
			slog.Any("error", err))
		return []T{}, &failures.StoreError{Collection: collection, Cause: err}
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	result, err := s.breaker.Execute(func() (any, error) {
		return query(s.db.WithContext(ctx))
	})
	metrics.RecordStoreFetch(collection, time.Since(start), err)

	if err != nil {
		s.logger.Warn("Event store fetch failed",
			slog.String("collection", collection),
			slog.Duration("elapsed", time.Since(start)),
			slog.Any("error", err))
		return []T{}, &failures.StoreError{Collection: collection, Cause: err}
	}

	rows, _ := result.([]T)
	if rows == nil {
		rows = []T{}
	}
	s.logger.Debug("Event store fetch",
		slog.String("collection", collection),
		slog.Int("rows", len(rows)),
		slog.Duration("elapsed", time.Since(start)))
	return rows, nil
}

func applyTimeBounds(interactions []records.Interaction, filter Filter) ([]records.Interaction, int) {
	malformed := 0
	kept := interactions[:0]
	for _, i := range interactions {
		if filter.From == nil && filter.To == nil {
			kept = append(kept, i)
			continue
		}
		t, err := i.CreatedTime()
		if err != nil {
			malformed++
			continue
		}
		if filter.From != nil && t.Before(*filter.From) {
			continue
		}
		if filter.To != nil && t.After(*filter.To) {
			continue
		}
		kept = append(kept, i)
	}
	return kept, malformed
}

// IsUnavailable reports whether err came from a failed fetch.
func IsUnavailable(err error) bool {
	return errors.Is(err, failures.ErrStoreUnavailable)
}
