package analytics

import (
	"time"

	"medinsight/internal/failures"
	"medinsight/internal/ranking"
	"medinsight/internal/records"
)

// ActiveActors counts distinct actors with at least one interaction in the
// windowDays days before now. Interactions without an actor are ignored.
func ActiveActors(interactions []records.Interaction, windowDays int, now time.Time) (int, error) {
	if windowDays <= 0 {
		return 0, failures.InvalidRange("window must be positive, got %d days", windowDays)
	}

	cutoff := now.AddDate(0, 0, -windowDays)
	actors := make(map[string]struct{})
	for _, i := range interactions {
		actor, ok := i.Actor()
		if !ok {
			continue
		}
		t, err := i.CreatedTime()
		if err != nil || t.Before(cutoff) {
			continue
		}
		actors[actor] = struct{}{}
	}
	return len(actors), nil
}

// ActorCounts counts interactions per actor in first-seen order.
func ActorCounts(interactions []records.Interaction) []ranking.Entry[string] {
	counter := ranking.NewCounter[string]()
	for _, i := range interactions {
		if actor, ok := i.Actor(); ok {
			counter.Inc(actor)
		}
	}
	return counter.Entries()
}
