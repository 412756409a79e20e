package seeder

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"
	"gorm.io/gorm"

	"medinsight/internal/records"
)

// Fixtures is the YAML layout accepted by LoadFixtures. Questions and
// feedback refer to accounts by username; timestamps are stored verbatim so
// fixtures can carry malformed values on purpose.
type Fixtures struct {
	Accounts []struct {
		Username     string `yaml:"username"`
		Email        string `yaml:"email"`
		Password     string `yaml:"password"`
		RegisteredAt string `yaml:"registered_at"`
	} `yaml:"accounts"`
	Questions []struct {
		Username  string `yaml:"username"`
		Category  string `yaml:"category"`
		Question  string `yaml:"question"`
		Answer    string `yaml:"answer"`
		Timestamp string `yaml:"timestamp"`
	} `yaml:"questions"`
	Feedback []struct {
		Username  string `yaml:"username"`
		Rating    int    `yaml:"rating"`
		Comment   string `yaml:"comment"`
		Timestamp string `yaml:"timestamp"`
	} `yaml:"feedback"`
}

// LoadFixtureFile reads fixtures from path and writes them in one transaction.
func (s *Seeder) LoadFixtureFile(ctx context.Context, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open fixtures: %w", err)
	}
	defer f.Close()
	return s.LoadFixtures(ctx, f)
}

// LoadFixtures decodes YAML fixtures from r and writes them in one transaction.
func (s *Seeder) LoadFixtures(ctx context.Context, r io.Reader) error {
	var fx Fixtures
	if err := yaml.NewDecoder(r).Decode(&fx); err != nil {
		return fmt.Errorf("failed to decode fixtures: %w", err)
	}

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ids := make(map[string]uint, len(fx.Accounts))
		for _, a := range fx.Accounts {
			password := a.Password
			if password == "" {
				password = adminPassword
			}
			hash, err := hashPassword(password)
			if err != nil {
				return err
			}
			email := a.Email
			if email == "" {
				email = a.Username + "@example.com"
			}
			account := records.Account{
				Username:     a.Username,
				Email:        email,
				PasswordHash: hash,
				RegisteredAt: a.RegisteredAt,
			}
			if err := tx.Create(&account).Error; err != nil {
				return fmt.Errorf("failed to create account %s: %w", a.Username, err)
			}
			ids[a.Username] = account.ID
		}

		for _, q := range fx.Questions {
			i := records.Interaction{Question: q.Question, Answer: q.Answer, Timestamp: q.Timestamp}
			if q.Username != "" {
				username := q.Username
				i.Username = &username
				if id, ok := ids[username]; ok {
					i.AccountID = &id
				}
			}
			if q.Category != "" {
				category := q.Category
				i.Category = &category
			}
			if err := tx.Create(&i).Error; err != nil {
				return fmt.Errorf("failed to create question: %w", err)
			}
		}

		for _, fb := range fx.Feedback {
			entry := records.Feedback{Rating: fb.Rating, Comment: fb.Comment, Timestamp: fb.Timestamp}
			if id, ok := ids[fb.Username]; ok {
				entry.AccountID = &id
			}
			if err := tx.Create(&entry).Error; err != nil {
				return fmt.Errorf("failed to create feedback: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.Logger.Info("Loaded fixtures",
		slog.Int("accounts", len(fx.Accounts)),
		slog.Int("questions", len(fx.Questions)),
		slog.Int("feedback", len(fx.Feedback)))
	return nil
}
