package reports_test

import (
	"context"
	"sync/atomic"
	"time"

	"medinsight/internal/records"
	"medinsight/internal/reports"
	"medinsight/internal/store"
	"medinsight/internal/testsupport"
)

var fixedNow = time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

// fakeStore serves fixed records and can fail per collection.
type fakeStore struct {
	accounts        []records.Account
	interactions    []records.Interaction
	feedback        []records.Feedback
	accountsErr     error
	interactionsErr error
	feedbackErr     error
	calls           atomic.Int32
}

var _ store.Store = (*fakeStore)(nil)

func (f *fakeStore) FetchAccounts(ctx context.Context) ([]records.Account, error) {
	f.calls.Add(1)
	if f.accountsErr != nil {
		return []records.Account{}, f.accountsErr
	}
	return append([]records.Account(nil), f.accounts...), nil
}

func (f *fakeStore) FetchInteractions(ctx context.Context, filter store.Filter) ([]records.Interaction, error) {
	f.calls.Add(1)
	if f.interactionsErr != nil {
		return []records.Interaction{}, f.interactionsErr
	}
	out := []records.Interaction{}
	for _, i := range f.interactions {
		if filter.From == nil && filter.To == nil {
			out = append(out, i)
			continue
		}
		t, err := i.CreatedTime()
		if err != nil {
			continue
		}
		if filter.From != nil && t.Before(*filter.From) {
			continue
		}
		if filter.To != nil && t.After(*filter.To) {
			continue
		}
		out = append(out, i)
	}
	return out, nil
}

func (f *fakeStore) FetchFeedback(ctx context.Context) ([]records.Feedback, error) {
	f.calls.Add(1)
	if f.feedbackErr != nil {
		return []records.Feedback{}, f.feedbackErr
	}
	return append([]records.Feedback(nil), f.feedback...), nil
}

func sampleAccounts() []records.Account {
	return []records.Account{
		testsupport.NewAccount("alice", "2024-03-01T09:00:00Z"),
		testsupport.NewAccount("bob", "2024-03-10T09:00:00Z"),
		testsupport.NewAccount("carol", "2024-03-14T09:00:00Z"),
		testsupport.NewAccount("dave", "2024-02-01T09:00:00Z"),
	}
}

func sampleInteractions() []records.Interaction {
	actor, category := testsupport.WithActor, testsupport.WithCategory
	return []records.Interaction{
		testsupport.NewInteraction("2024-03-15T08:00:00Z", actor("alice"), category("medical")),
		testsupport.NewInteraction("2024-03-15T09:30:00Z", actor("alice"), category("medication")),
		testsupport.NewInteraction("2024-03-14T14:00:00Z", actor("bob"), category("medical")),
		testsupport.NewInteraction("2024-03-10T14:00:00Z", actor("bob"), category("psychology")),
		testsupport.NewInteraction("2024-03-01T14:00:00Z", actor("carol"), category("medical")),
		testsupport.NewInteraction("2024-02-20T10:00:00Z"),
		testsupport.NewInteraction("garbage", actor("alice"), category("medical")),
	}
}

func sampleStore() *fakeStore {
	return &fakeStore{accounts: sampleAccounts(), interactions: sampleInteractions()}
}

func newAssembler(s store.Store) *reports.Assembler {
	return reports.NewAssembler(s, testsupport.GetLogger(), reports.DefaultSettings(), &testsupport.FixedClock{FixedTime: fixedNow})
}
