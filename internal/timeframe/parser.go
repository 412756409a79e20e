package timeframe

import (
	"fmt"
	"time"

	"medinsight/internal/failures"
)

// DefaultRangeDays is how far back a range reaches when no start date is given.
const DefaultRangeDays = 30

// MaxRangeDays caps how many days a parsed range may span.
const MaxRangeDays = 366

// DateRange is an inclusive range of whole UTC days.
type DateRange struct {
	From time.Time
	To   time.Time
}

// NewDateRange widens from and to to whole UTC days.
func NewDateRange(from, to time.Time) (DateRange, error) {
	if from.After(to) {
		return DateRange{}, failures.InvalidRange("from %s is after to %s", from.Format(DateLayout), to.Format(DateLayout))
	}
	return DateRange{From: StartOfDay(from), To: EndOfDay(to)}, nil
}

// Days is the number of calendar days covered.
func (r DateRange) Days() int {
	return int(StartOfDay(r.To).Sub(r.From).Hours()/24) + 1
}

// Contains reports whether t falls inside the range.
func (r DateRange) Contains(t time.Time) bool {
	return !t.Before(r.From) && !t.After(r.To)
}

type RangeParser struct {
	timeProvider TimeProvider
	defaultDays  int
	maxDays      int
}

// NewRangeParser builds a parser that defaults to the last defaultDays days.
func NewRangeParser(defaultDays int, timeProvider ...TimeProvider) *RangeParser {
	var provider TimeProvider = &DefaultTimeProvider{}
	if len(timeProvider) > 0 && timeProvider[0] != nil {
		provider = timeProvider[0]
	}
	if defaultDays <= 0 {
		defaultDays = DefaultRangeDays
	}

	return &RangeParser{
		timeProvider: provider,
		defaultDays:  defaultDays,
		maxDays:      max(MaxRangeDays, defaultDays+1),
	}
}

// WithMaxDays sets the longest range ParseRange accepts. Values that cannot
// hold the default range are ignored.
func (p *RangeParser) WithMaxDays(days int) *RangeParser {
	if days > p.defaultDays {
		p.maxDays = days
	}
	return p
}

// ParseRange parses YYYY-MM-DD bounds. An empty from defaults to today minus
// the default days and an empty to defaults to today. Ranges longer than the
// maximum are rejected.
func (p *RangeParser) ParseRange(fromDate, toDate string) (DateRange, error) {
	now := p.timeProvider.Now(time.UTC)

	from, err := parseDateWithDefault(fromDate, now.AddDate(0, 0, -p.defaultDays))
	if err != nil {
		return DateRange{}, fmt.Errorf("invalid 'from' date: %w", err)
	}

	to, err := parseDateWithDefault(toDate, now)
	if err != nil {
		return DateRange{}, fmt.Errorf("invalid 'to' date: %w", err)
	}

	r, err := NewDateRange(from, to)
	if err != nil {
		return DateRange{}, err
	}
	if days := r.Days(); days > p.maxDays {
		return DateRange{}, failures.InvalidRange("range spans %d days, at most %d allowed", days, p.maxDays)
	}
	return r, nil
}

// Now exposes the parser's clock in UTC.
func (p *RangeParser) Now() time.Time {
	return p.timeProvider.Now(time.UTC)
}

func parseDateWithDefault(dateStr string, defaultDate time.Time) (time.Time, error) {
	if dateStr == "" {
		return defaultDate, nil
	}

	date, err := time.ParseInLocation(DateLayout, dateStr, time.UTC)
	if err != nil {
		return time.Time{}, failures.InvalidRange("%q is not a YYYY-MM-DD date", dateStr)
	}
	return date, nil
}
