package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"strings"
	"syscall"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/term"

	"medinsight/internal"
	"medinsight/internal/export"
	"medinsight/internal/jobs"
	"medinsight/internal/records"
	"medinsight/internal/reports"
	"medinsight/internal/seeder"
	"medinsight/internal/store"
)

const minPasswordLength = 8

var errNoApp = errors.New("app initialization failed")

// MigrateCommand runs database migrations
type MigrateCommand struct{}

func (c *MigrateCommand) Name() string        { return "migrate" }
func (c *MigrateCommand) Description() string { return "Runs database migrations" }

func (c *MigrateCommand) Execute(ctx context.Context, app *internal.Application, args []string) error {
	if app == nil {
		return errNoApp
	}

	log.Println("Running database migrations...")
	if err := app.DBManager.MigrateDatabase(); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	log.Println("Migrations completed successfully")
	return nil
}

// SeedCommand populates the DB with demo data
type SeedCommand struct{}

func (c *SeedCommand) Name() string        { return "seed" }
func (c *SeedCommand) Description() string { return "Seeds the database with demo data" }

func (c *SeedCommand) Execute(ctx context.Context, app *internal.Application, args []string) error {
	fs := flag.NewFlagSet("seed", flag.ContinueOnError)
	questions := fs.Int("questions", 2000, "number of questions to generate")
	seed := fs.Uint64("seed", 1, "random seed")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if app == nil {
		return errNoApp
	}

	return seeder.NewSeeder(app.DBManager.GetConnection(), app.Logger, *questions, *seed).Run(ctx)
}

// LoadFixturesCommand loads a YAML fixture file
type LoadFixturesCommand struct{}

func (c *LoadFixturesCommand) Name() string        { return "load-fixtures" }
func (c *LoadFixturesCommand) Description() string { return "Loads accounts, questions and feedback from a YAML file" }

func (c *LoadFixturesCommand) Execute(ctx context.Context, app *internal.Application, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: %s <file.yaml>", c.Name())
	}
	if app == nil {
		return errNoApp
	}

	return seeder.NewSeeder(app.DBManager.GetConnection(), app.Logger, 0, 1).LoadFixtureFile(ctx, args[0])
}

// reportRequest is what report and export parse from their arguments.
type reportRequest struct {
	bundle string
	params reports.Params
	format string
}

func parseReportArgs(name string, app *internal.Application, args []string) (reportRequest, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	from := fs.String("from", "", "first day, YYYY-MM-DD")
	to := fs.String("to", "", "last day, YYYY-MM-DD")
	category := fs.String("category", "", "restrict categories to one category")
	limit := fs.Int("limit", 0, "number of top actors (default from config)")
	window := fs.Int("window", 0, "actor window in days (default all time)")
	format := fs.String("format", "auto", "export format: csv, text or auto")
	if err := fs.Parse(args); err != nil {
		return reportRequest{}, err
	}
	if fs.NArg() != 1 {
		return reportRequest{}, fmt.Errorf("usage: %s [flags] <%s>", name, strings.Join(reports.Bundles, "|"))
	}

	r, err := app.Ranges.ParseRange(*from, *to)
	if err != nil {
		return reportRequest{}, err
	}

	req := reportRequest{
		bundle: fs.Arg(0),
		format: *format,
		params: reports.Params{Range: r, Category: *category},
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "limit":
			req.params.Limit = limit
		case "window":
			req.params.WindowDays = window
		}
	})
	return req, nil
}

// ReportCommand prints a bundle as JSON
type ReportCommand struct{}

func (c *ReportCommand) Name() string        { return "report" }
func (c *ReportCommand) Description() string { return "Prints a report bundle as JSON" }

func (c *ReportCommand) Execute(ctx context.Context, app *internal.Application, args []string) error {
	if app == nil {
		return errNoApp
	}

	req, err := parseReportArgs(c.Name(), app, args)
	if err != nil {
		return err
	}

	bundle, err := app.Assembler.Build(ctx, req.bundle, req.params)
	if err != nil {
		return err
	}
	return export.WriteJSON(stdout, bundle)
}

// ExportCommand writes a bundle as CSV or as an aligned table
type ExportCommand struct{}

func (c *ExportCommand) Name() string { return "export" }
func (c *ExportCommand) Description() string {
	return "Exports a report bundle as CSV, or as a table on a terminal"
}

func (c *ExportCommand) Execute(ctx context.Context, app *internal.Application, args []string) error {
	if app == nil {
		return errNoApp
	}

	req, err := parseReportArgs(c.Name(), app, args)
	if err != nil {
		return err
	}

	format := req.format
	if format == "auto" {
		format = "csv"
		if stdoutIsTerminal() {
			format = "text"
		}
	}

	bundle, err := app.Assembler.Build(ctx, req.bundle, req.params)
	if err != nil {
		return err
	}

	switch format {
	case "csv":
		return export.WriteCSV(stdout, bundle.Table())
	case "text":
		return export.WriteText(stdout, bundle.Table())
	default:
		return fmt.Errorf("unknown format %q, expected csv, text or auto", format)
	}
}

// DigestCommand runs the daily digest immediately
type DigestCommand struct{}

func (c *DigestCommand) Name() string        { return "digest" }
func (c *DigestCommand) Description() string { return "Logs the daily digest now" }

func (c *DigestCommand) Execute(ctx context.Context, app *internal.Application, args []string) error {
	if app == nil {
		return errNoApp
	}
	return app.Scheduler.RunNow(jobs.DigestJobName)
}

// ChangePasswordCommand updates an account password
type ChangePasswordCommand struct{}

func (c *ChangePasswordCommand) Name() string        { return "change-password" }
func (c *ChangePasswordCommand) Description() string { return "Changes the password of an account" }

func (c *ChangePasswordCommand) Execute(ctx context.Context, app *internal.Application, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: %s <username> [password]", c.Name())
	}
	if app == nil {
		return errNoApp
	}

	db := app.DBManager.GetConnection().WithContext(ctx)
	var account records.Account
	if err := db.Where("username = ?", args[0]).First(&account).Error; err != nil {
		return fmt.Errorf("account lookup failed: %w", err)
	}

	password := ""
	if len(args) >= 2 {
		password = args[1]
	} else {
		var err error
		if password, err = readPassword(); err != nil {
			return err
		}
	}
	if err := validatePassword(password); err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := db.Model(&account).Update("password_hash", string(hash)).Error; err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	fmt.Fprintln(stdout, "Password updated successfully")
	return nil
}

func readPassword() (string, error) {
	fmt.Print("Enter new password: ")
	first, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}

	fmt.Print("Confirm new password: ")
	second, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}

	if strings.TrimSpace(string(first)) != strings.TrimSpace(string(second)) {
		return "", errors.New("passwords do not match")
	}
	return strings.TrimSpace(string(first)), nil
}

func validatePassword(password string) error {
	if len(password) < minPasswordLength {
		return fmt.Errorf("password must be at least %d characters", minPasswordLength)
	}
	return nil
}

// StatusCommand implements a command to check the system status
type StatusCommand struct{}

func (c *StatusCommand) Name() string        { return "status" }
func (c *StatusCommand) Description() string { return "Shows the current system status" }

func (c *StatusCommand) Execute(ctx context.Context, app *internal.Application, args []string) error {
	if app == nil {
		return errNoApp
	}

	db := app.DBManager.GetConnection().WithContext(ctx)
	status := export.NewTable("System status", "item", "value")

	collections := []struct {
		name  string
		model any
	}{
		{store.CollectionAccounts, &records.Account{}},
		{store.CollectionInteractions, &records.Interaction{}},
		{store.CollectionFeedback, &records.Feedback{}},
	}
	for _, col := range collections {
		var count int64
		if err := db.Model(col.model).Count(&count).Error; err != nil {
			return fmt.Errorf("database error: %w", err)
		}
		status.Append(col.name, export.Int(int(count)))
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get SQL DB: %w", err)
	}
	stats := sqlDB.Stats()
	status.Append("open_connections", export.Int(stats.OpenConnections))
	status.Append("in_use", export.Int(stats.InUse))
	status.Append("idle", export.Int(stats.Idle))
	status.Append("breaker", app.Store.BreakerState())

	return export.WriteText(stdout, status)
}

// HelpCommand implements a command to show usage information
type HelpCommand struct{}

func (c *HelpCommand) Name() string        { return "help" }
func (c *HelpCommand) Description() string { return "Shows usage information" }

func (c *HelpCommand) Execute(ctx context.Context, app *internal.Application, args []string) error {
	printUsage(stdout)
	return nil
}
