// Package seeder fills the event store with demo data or YAML fixtures.
package seeder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"medinsight/internal/analytics"
	"medinsight/internal/records"
	"medinsight/internal/timeframe"
)

const (
	adminUsername = "admin"
	adminEmail    = "admin@example.com"
	adminPassword = "password"

	demoAccounts = 25
	demoDays     = 60
	batchSize    = 200
)

// Seeder writes demo accounts, questions and feedback.
type Seeder struct {
	DB            *gorm.DB
	Logger        *slog.Logger
	QuestionCount int

	clock timeframe.TimeProvider
	rng   *rand.Rand
}

// NewSeeder creates a new seeder instance. The seed makes runs reproducible.
func NewSeeder(db *gorm.DB, logger *slog.Logger, questionCount int, seed uint64, clock ...timeframe.TimeProvider) *Seeder {
	if logger == nil {
		logger = slog.Default()
	}
	var provider timeframe.TimeProvider = &timeframe.DefaultTimeProvider{}
	if len(clock) > 0 && clock[0] != nil {
		provider = clock[0]
	}
	return &Seeder{
		DB:            db,
		Logger:        logger,
		QuestionCount: questionCount,
		clock:         provider,
		rng:           rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

// Run executes the seeding process
func (s *Seeder) Run(ctx context.Context) error {
	start := time.Now()
	s.Logger.Info("Starting database seeding...", slog.Int("questionCount", s.QuestionCount))

	if _, err := s.seedAdmin(); err != nil {
		return fmt.Errorf("failed to seed admin: %w", err)
	}

	accounts, err := s.seedAccounts(ctx)
	if err != nil {
		return fmt.Errorf("failed to seed accounts: %w", err)
	}

	if err := s.seedInteractions(ctx, accounts); err != nil {
		return fmt.Errorf("failed to seed questions: %w", err)
	}

	if err := s.seedFeedback(ctx, accounts); err != nil {
		return fmt.Errorf("failed to seed feedback: %w", err)
	}

	s.Logger.Info("Seeding completed successfully", slog.Duration("elapsed", time.Since(start)))
	return nil
}

// seedAdmin ensures the default admin account exists
func (s *Seeder) seedAdmin() (*records.Account, error) {
	var admin records.Account
	err := s.DB.Where("username = ?", adminUsername).First(&admin).Error
	if err == nil {
		s.Logger.Info("Admin account already exists", slog.String("username", admin.Username))
		return &admin, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check for existing admin: %w", err)
	}

	hash, err := hashPassword(adminPassword)
	if err != nil {
		return nil, err
	}
	admin = records.Account{
		Username:     adminUsername,
		Email:        adminEmail,
		PasswordHash: hash,
		RegisteredAt: stamp(s.clock.Now(time.UTC)),
		IsAdmin:      true,
	}
	if err := s.DB.Create(&admin).Error; err != nil {
		return nil, fmt.Errorf("failed to create admin: %w", err)
	}

	s.Logger.Info("Admin account created successfully", slog.Uint64("id", uint64(admin.ID)))
	return &admin, nil
}

// seedAccounts creates the demo accounts that do not exist yet and returns
// all of them.
func (s *Seeder) seedAccounts(ctx context.Context) ([]records.Account, error) {
	names := make([]string, demoAccounts)
	for i := range names {
		names[i] = fmt.Sprintf("demo%02d", i+1)
	}

	var existing []records.Account
	if err := s.DB.WithContext(ctx).Where("username IN ?", names).Find(&existing).Error; err != nil {
		return nil, fmt.Errorf("failed to load existing accounts: %w", err)
	}
	known := make(map[string]bool, len(existing))
	for _, a := range existing {
		known[a.Username] = true
	}

	// One hash for every demo account keeps seeding fast.
	hash, err := hashPassword(adminPassword)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now(time.UTC)
	created := make([]records.Account, 0, demoAccounts)
	for _, username := range names {
		if known[username] {
			continue
		}
		created = append(created, records.Account{
			Username:     username,
			Email:        username + "@example.com",
			PasswordHash: hash,
			RegisteredAt: stamp(s.randomTimeBefore(now, demoDays)),
		})
	}

	if len(created) > 0 {
		if err := s.DB.WithContext(ctx).CreateInBatches(&created, batchSize).Error; err != nil {
			return nil, err
		}
	}

	s.Logger.Info("Seeded accounts",
		slog.Int("created", len(created)),
		slog.Int("existing", len(existing)))
	return append(existing, created...), nil
}

var demoQuestions = map[records.Category][]string{
	records.CategoryMedical: {
		"What is a normal resting heart rate?",
		"How long does a common cold usually last?",
		"When should a fever be checked by a doctor?",
	},
	records.CategoryMedication: {
		"Can ibuprofen be taken with paracetamol?",
		"What should I do if I miss a dose of antibiotics?",
		"Does this medication interact with alcohol?",
	},
	records.CategoryPsychology: {
		"How can I manage anxiety before exams?",
		"What are common signs of burnout?",
		"How much sleep helps with stress?",
	},
}

func (s *Seeder) seedInteractions(ctx context.Context, accounts []records.Account) error {
	now := s.clock.Now(time.UTC)
	categories := records.KnownCategories
	interactions := make([]records.Interaction, 0, s.QuestionCount)

	for range s.QuestionCount {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		i := records.Interaction{
			Answer:    "This is general information, not a diagnosis.",
			Timestamp: stamp(s.randomTimeBefore(now, demoDays)),
		}

		category := categories[s.rng.IntN(len(categories))]
		questions := demoQuestions[category]
		i.Question = questions[s.rng.IntN(len(questions))]
		// About one in ten questions was never classified.
		if s.rng.IntN(10) > 0 {
			c := string(category)
			i.Category = &c
		}

		// About one in twenty questions was asked anonymously.
		if s.rng.IntN(20) > 0 {
			account := accounts[s.rng.IntN(len(accounts))]
			id, username := account.ID, account.Username
			i.AccountID, i.Username = &id, &username
		}

		interactions = append(interactions, i)
	}

	if len(interactions) == 0 {
		return nil
	}
	if err := s.DB.WithContext(ctx).CreateInBatches(&interactions, batchSize).Error; err != nil {
		return err
	}

	s.Logger.Info("Seeded questions", slog.Int("count", len(interactions)))
	return nil
}

func (s *Seeder) seedFeedback(ctx context.Context, accounts []records.Account) error {
	now := s.clock.Now(time.UTC)
	feedback := make([]records.Feedback, 0, len(accounts))

	for _, account := range accounts {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if s.rng.IntN(2) == 0 {
			continue
		}
		id := account.ID
		feedback = append(feedback, records.Feedback{
			AccountID: &id,
			Rating:    analytics.MinRating + s.rng.IntN(analytics.MaxRating-analytics.MinRating+1),
			Comment:   "Helpful answers.",
			Timestamp: stamp(s.randomTimeBefore(now, demoDays)),
		})
	}

	if len(feedback) == 0 {
		return nil
	}
	if err := s.DB.WithContext(ctx).CreateInBatches(&feedback, batchSize).Error; err != nil {
		return err
	}

	s.Logger.Info("Seeded feedback", slog.Int("count", len(feedback)))
	return nil
}

// randomTimeBefore picks a time within the days before now, weighted towards
// daytime hours.
func (s *Seeder) randomTimeBefore(now time.Time, days int) time.Time {
	day := timeframe.StartOfDay(now).AddDate(0, 0, -s.rng.IntN(days))
	hour := 8 + s.rng.IntN(14)
	if s.rng.IntN(5) == 0 {
		hour = s.rng.IntN(24)
	}
	t := day.Add(time.Duration(hour)*time.Hour + time.Duration(s.rng.IntN(3600))*time.Second)
	if t.After(now) {
		return now
	}
	return t
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

func stamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
