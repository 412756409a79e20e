// Package records holds the entities read by the analytics engine.
//
// Timestamps stay as raw text because the hosted store hands them back as
// strings and legacy rows are not guaranteed to parse. Callers go through the
// typed accessors, which report failures.ErrMalformedRecord.
package records

import (
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"medinsight/internal/timeframe"
)

// Category is the subject area of an interaction.
type Category string

const (
	CategoryMedical    Category = "medical"
	CategoryMedication Category = "medication"
	CategoryPsychology Category = "psychology"
	CategoryUnknown    Category = "unknown"
)

// KnownCategories lists the recognized categories in display order.
var KnownCategories = []Category{CategoryMedical, CategoryMedication, CategoryPsychology}

// ParseCategory maps free text to a Category. Anything unrecognized, including
// an empty value, becomes CategoryUnknown.
func ParseCategory(raw string) Category {
	switch c := Category(strings.ToLower(strings.TrimSpace(raw))); c {
	case CategoryMedical, CategoryMedication, CategoryPsychology:
		return c
	default:
		return CategoryUnknown
	}
}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	return ParseCategory(string(c)) == c && c != CategoryUnknown
}

// ParseFilter reads a category filter. Unlike ParseCategory it only accepts
// a category name, so "unknown" selects uncategorized interactions and
// anything unrecognized is rejected.
func ParseFilter(raw string) (Category, bool) {
	c := Category(strings.ToLower(strings.TrimSpace(raw)))
	return c, c == CategoryUnknown || c.Valid()
}

// Label returns the title-cased display name.
func (c Category) Label() string {
	return cases.Title(language.English).String(string(c))
}

// Account is a registered user of the assistant.
type Account struct {
	ID           uint   `gorm:"primaryKey"`
	Username     string `gorm:"uniqueIndex;not null"`
	Email        string `gorm:"uniqueIndex;not null"`
	PasswordHash string `gorm:"column:password_hash;not null"`
	RegisteredAt string `gorm:"column:created_at;index"`
	IsAdmin      bool   `gorm:"column:is_admin;default:false"`
}

func (Account) TableName() string { return "users" }

// CreatedTime parses RegisteredAt.
func (a Account) CreatedTime() (time.Time, error) {
	return timeframe.ParseTimestamp(a.RegisteredAt)
}

// Interaction is one question asked by an actor and the answer it received.
type Interaction struct {
	ID        uint    `gorm:"primaryKey"`
	AccountID *uint   `gorm:"column:user_id;index"`
	Username  *string `gorm:"column:username"`
	Question  string  `gorm:"type:text"`
	Answer    string  `gorm:"type:text"`
	Category  *string `gorm:"column:category;index"`
	Timestamp string  `gorm:"column:timestamp;index"`
}

func (Interaction) TableName() string { return "questions" }

// CreatedTime parses Timestamp.
func (i Interaction) CreatedTime() (time.Time, error) {
	return timeframe.ParseTimestamp(i.Timestamp)
}

// CategoryOf returns the normalized category, CategoryUnknown when missing.
func (i Interaction) CategoryOf() Category {
	if i.Category == nil {
		return CategoryUnknown
	}
	return ParseCategory(*i.Category)
}

// Actor identifies who asked the question: the username when present, else the
// account id. ok is false when neither is set.
func (i Interaction) Actor() (actor string, ok bool) {
	if i.Username != nil && strings.TrimSpace(*i.Username) != "" {
		return *i.Username, true
	}
	if i.AccountID != nil {
		return "account:" + strconv.FormatUint(uint64(*i.AccountID), 10), true
	}
	return "", false
}

// Feedback is a rating left by an account.
type Feedback struct {
	ID         uint  `gorm:"primaryKey"`
	AccountID  *uint `gorm:"column:user_id;index"`
	Rating     int   `gorm:"not null"`
	Comment    string
	Suggestion string
	Timestamp  string `gorm:"column:timestamp;index"`
}

func (Feedback) TableName() string { return "feedback" }

// CreatedTime parses Timestamp.
func (f Feedback) CreatedTime() (time.Time, error) {
	return timeframe.ParseTimestamp(f.Timestamp)
}

// Models returns every entity for migrations.
func Models() []any {
	return []any{&Account{}, &Interaction{}, &Feedback{}}
}
