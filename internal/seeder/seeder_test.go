package seeder_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"medinsight/internal/records"
	"medinsight/internal/seeder"
	"medinsight/internal/testsupport"
)

var seedNow = time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

func TestRunSeedsDemoData(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	s := seeder.NewSeeder(db, testsupport.GetLogger(), 120, 42, &testsupport.FixedClock{FixedTime: seedNow})

	require.NoError(t, s.Run(context.Background()))

	var admin records.Account
	require.NoError(t, db.Where("username = ?", "admin").First(&admin).Error)
	assert.True(t, admin.IsAdmin)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte("password")))

	var accounts, questions int64
	require.NoError(t, db.Model(&records.Account{}).Count(&accounts).Error)
	require.NoError(t, db.Model(&records.Interaction{}).Count(&questions).Error)
	assert.Equal(t, int64(26), accounts)
	assert.Equal(t, int64(120), questions)

	var interactions []records.Interaction
	require.NoError(t, db.Find(&interactions).Error)
	for _, i := range interactions {
		created, err := i.CreatedTime()
		require.NoError(t, err)
		assert.False(t, created.After(seedNow), "question dated in the future: %s", i.Timestamp)
		assert.False(t, created.Before(seedNow.AddDate(0, 0, -61)), "question dated too early: %s", i.Timestamp)
		if i.Category != nil {
			assert.True(t, records.Category(*i.Category).Valid())
		}
	}
}

func TestRunIsRepeatable(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	clock := &testsupport.FixedClock{FixedTime: seedNow}

	require.NoError(t, seeder.NewSeeder(db, testsupport.GetLogger(), 10, 1, clock).Run(context.Background()))
	require.NoError(t, seeder.NewSeeder(db, testsupport.GetLogger(), 10, 2, clock).Run(context.Background()))

	var accounts, questions int64
	require.NoError(t, db.Model(&records.Account{}).Count(&accounts).Error)
	require.NoError(t, db.Model(&records.Interaction{}).Count(&questions).Error)
	assert.Equal(t, int64(26), accounts, "accounts are not duplicated")
	assert.Equal(t, int64(20), questions)
}

func TestRunStopsWhenCancelled(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := seeder.NewSeeder(db, testsupport.GetLogger(), 10, 1).Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

const fixtureYAML = `
accounts:
  - username: alice
    registered_at: "2024-03-01T09:00:00Z"
  - username: bob
    email: bob@clinic.test
    password: hunter2
    registered_at: "2024-03-10T09:00:00Z"
questions:
  - username: alice
    category: medical
    question: Is a resting heart rate of 55 normal?
    timestamp: "2024-03-15T08:00:00Z"
  - username: guest
    question: Can I take aspirin daily?
    timestamp: "not a date"
feedback:
  - username: bob
    rating: 4
    comment: Clear answer
    timestamp: "2024-03-12T10:00:00Z"
`

func TestLoadFixtures(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	s := seeder.NewSeeder(db, testsupport.GetLogger(), 0, 1)

	require.NoError(t, s.LoadFixtures(context.Background(), strings.NewReader(fixtureYAML)))

	var bob records.Account
	require.NoError(t, db.Where("username = ?", "bob").First(&bob).Error)
	assert.Equal(t, "bob@clinic.test", bob.Email)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(bob.PasswordHash), []byte("hunter2")))

	var questions []records.Interaction
	require.NoError(t, db.Order("id").Find(&questions).Error)
	require.Len(t, questions, 2)
	require.NotNil(t, questions[0].AccountID)
	assert.Equal(t, records.CategoryMedical, questions[0].CategoryOf())
	assert.Nil(t, questions[1].AccountID, "unknown usernames keep no account id")
	assert.Equal(t, "not a date", questions[1].Timestamp)

	var feedback []records.Feedback
	require.NoError(t, db.Find(&feedback).Error)
	require.Len(t, feedback, 1)
	require.NotNil(t, feedback[0].AccountID)
	assert.Equal(t, bob.ID, *feedback[0].AccountID)
}

func TestLoadFixturesRollsBackOnError(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	s := seeder.NewSeeder(db, testsupport.GetLogger(), 0, 1)

	duplicate := `
accounts:
  - username: alice
  - username: alice
`
	require.Error(t, s.LoadFixtures(context.Background(), strings.NewReader(duplicate)))

	var accounts int64
	require.NoError(t, db.Model(&records.Account{}).Count(&accounts).Error)
	assert.Zero(t, accounts)
}

func TestLoadFixturesRejectsInvalidYAML(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	err := seeder.NewSeeder(db, testsupport.GetLogger(), 0, 1).LoadFixtures(context.Background(), strings.NewReader("accounts: [unclosed"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode fixtures")
}
