package testsupport

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"medinsight/internal/records"
)

// testDBCache caches test databases by root test name so repeated calls within
// the same test share one database
var testDBCache = make(map[string]*gorm.DB)
var testDBCacheMu sync.Mutex

// SetupTestDB creates an in-memory sqlite database with every model migrated.
// Subtests share the database of their root test.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	rootName := t.Name()
	if idx := strings.Index(rootName, "/"); idx > 0 {
		rootName = rootName[:idx]
	}

	testDBCacheMu.Lock()
	if db, exists := testDBCache[rootName]; exists {
		testDBCacheMu.Unlock()
		return db
	}
	testDBCacheMu.Unlock()

	// cache=shared allows multiple connections to the same database
	dsn := fmt.Sprintf("file:test_%s_%d?mode=memory&cache=shared", rootName, time.Now().UnixNano())

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("testsupport: failed to open test database: %v", err)
	}

	if err := db.AutoMigrate(records.Models()...); err != nil {
		t.Fatalf("testsupport: failed to migrate models: %v", err)
	}

	testDBCacheMu.Lock()
	testDBCache[rootName] = db
	testDBCacheMu.Unlock()

	t.Cleanup(func() {
		testDBCacheMu.Lock()
		delete(testDBCache, rootName)
		testDBCacheMu.Unlock()
		sqlDB, err := db.DB()
		if err == nil {
			sqlDB.Close()
		}
	})

	return db
}

// CleanAllTables clears every entity table
func CleanAllTables(db *gorm.DB) {
	db.Transaction(func(tx *gorm.DB) error {
		for _, table := range []string{"questions", "feedback", "users"} {
			tx.Exec("DELETE FROM " + table)
		}
		return nil
	})
}

// GetLogger returns a test logger
func GetLogger() *slog.Logger {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError})
	return slog.New(handler)
}

// FixedClock implements timeframe.TimeProvider with a frozen instant
type FixedClock struct {
	FixedTime time.Time
}

func (c *FixedClock) Now(loc *time.Location) time.Time {
	return c.FixedTime.In(loc)
}

// Ptr returns a pointer to v
func Ptr[T any](v T) *T { return &v }

// Stamp formats t the way the store writes timestamps
func Stamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

type InteractionOption func(*records.Interaction)

func WithActor(username string) InteractionOption {
	return func(i *records.Interaction) { i.Username = &username }
}

func WithAccount(id uint) InteractionOption {
	return func(i *records.Interaction) { i.AccountID = &id }
}

func WithCategory(category string) InteractionOption {
	return func(i *records.Interaction) { i.Category = &category }
}

// NewInteraction builds an interaction with the given raw timestamp
func NewInteraction(timestamp string, opts ...InteractionOption) records.Interaction {
	i := records.Interaction{
		Question:  "What is a normal resting heart rate?",
		Answer:    "Between 60 and 100 beats per minute for most adults.",
		Timestamp: timestamp,
	}
	for _, opt := range opts {
		opt(&i)
	}
	return i
}

// NewAccount builds an account registered at the given raw timestamp
func NewAccount(username, registeredAt string) records.Account {
	return records.Account{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "not-a-real-hash",
		RegisteredAt: registeredAt,
	}
}

// NewFeedback builds a feedback entry
func NewFeedback(rating int, timestamp string) records.Feedback {
	return records.Feedback{Rating: rating, Comment: "helpful", Timestamp: timestamp}
}

// CreateTestAccountForAuth creates an account with a properly hashed password
func CreateTestAccountForAuth(t *testing.T, db *gorm.DB, username, password string) *records.Account {
	t.Helper()

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)

	account := NewAccount(username, Stamp(time.Now()))
	account.PasswordHash = string(hashedPassword)
	require.NoError(t, db.Create(&account).Error)
	return &account
}

// Insert writes records to the database
func Insert[T any](t *testing.T, db *gorm.DB, items ...T) {
	t.Helper()
	for i := range items {
		require.NoError(t, db.Create(&items[i]).Error)
	}
}
