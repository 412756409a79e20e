package main

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"medinsight/internal"
	"medinsight/internal/config"
	"medinsight/internal/database"
	"medinsight/internal/failures"
	"medinsight/internal/records"
	"medinsight/internal/reports"
	"medinsight/internal/testsupport"
)

func newTestApp(t *testing.T) *internal.Application {
	t.Helper()
	db := testsupport.SetupTestDB(t)
	testsupport.Insert(t, db, testsupport.NewAccount("alice", "2024-03-01T09:00:00Z"))
	testsupport.Insert(t, db,
		testsupport.NewInteraction("2024-03-15T08:00:00Z", testsupport.WithActor("alice"), testsupport.WithCategory("medical")),
		testsupport.NewInteraction("2024-03-14T08:00:00Z", testsupport.WithActor("alice"), testsupport.WithCategory("medication")),
	)

	cfg := &config.Config{
		AppName:          "medinsight",
		Environment:      config.Test,
		DigestCron:       "0 21 * * *",
		DefaultTopK:      10,
		DefaultRangeDays: 30,
	}
	logger := testsupport.GetLogger()
	clock := &testsupport.FixedClock{FixedTime: time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)}
	return internal.NewAppWithDB(cfg, logger, database.NewDBManagerWithConnection(db, logger), clock)
}

func captureStdout(t *testing.T, terminal bool) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prevOut, prevTerminal := stdout, stdoutIsTerminal
	stdout = &buf
	stdoutIsTerminal = func() bool { return terminal }
	t.Cleanup(func() { stdout, stdoutIsTerminal = prevOut, prevTerminal })
	return &buf
}

func TestParseArgs(t *testing.T) {
	name, args := parseArgs(nil)
	assert.Equal(t, "help", name)
	assert.Empty(t, args)

	name, args = parseArgs([]string{"report", "-from", "2024-03-01", "overview"})
	assert.Equal(t, "report", name)
	assert.Equal(t, []string{"-from", "2024-03-01", "overview"}, args)
}

func TestFindCommand(t *testing.T) {
	for _, cmd := range commands {
		assert.Same(t, cmd, findCommand(cmd.Name()))
	}
	assert.Nil(t, findCommand("nope"))
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{"valid 8 chars", "12345678", false},
		{"valid longer", "securepassword123", false},
		{"too short", "1234567", true},
		{"empty", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validatePassword(tt.password)
			assert.Equal(t, tt.wantErr, err != nil, "validatePassword(%q) error = %v", tt.password, err)
		})
	}
}

func TestParseReportArgs(t *testing.T) {
	app := newTestApp(t)

	req, err := parseReportArgs("report", app, []string{"-from", "2024-03-10", "-to", "2024-03-15", "-limit", "3", "dynamics"})
	require.NoError(t, err)
	assert.Equal(t, "dynamics", req.bundle)
	assert.Equal(t, 6, req.params.Range.Days())
	require.NotNil(t, req.params.Limit)
	assert.Equal(t, 3, *req.params.Limit)
	assert.Nil(t, req.params.WindowDays)
	assert.Equal(t, "auto", req.format)

	req, err = parseReportArgs("report", app, []string{"-window", "0", "actors"})
	require.NoError(t, err)
	require.NotNil(t, req.params.WindowDays)
	assert.Equal(t, 0, *req.params.WindowDays, "an explicit zero is kept so the report rejects it")

	_, err = parseReportArgs("report", app, []string{"-from", "2024-03-15", "-to", "2024-03-01", "overview"})
	assert.ErrorIs(t, err, failures.ErrInvalidRange)

	_, err = parseReportArgs("report", app, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "usage")
}

func TestReportCommandPrintsJSON(t *testing.T) {
	app := newTestApp(t)
	out := captureStdout(t, false)

	require.NoError(t, (&ReportCommand{}).Execute(context.Background(), app, []string{"categories"}))

	var categories reports.Categories
	require.NoError(t, json.Unmarshal(out.Bytes(), &categories))
	assert.Equal(t, 2, categories.Total)
	require.Len(t, categories.Rows, 2)
	assert.Equal(t, records.CategoryMedical, categories.Rows[0].Category)
}

func TestReportCommandUnknownBundle(t *testing.T) {
	app := newTestApp(t)
	captureStdout(t, false)

	err := (&ReportCommand{}).Execute(context.Background(), app, []string{"weekly"})
	assert.ErrorIs(t, err, reports.ErrUnknownBundle)
}

func TestExportCommandFormats(t *testing.T) {
	app := newTestApp(t)

	out := captureStdout(t, false)
	require.NoError(t, (&ExportCommand{}).Execute(context.Background(), app, []string{"monthly"}))
	assert.True(t, strings.HasPrefix(out.String(), "\xEF\xBB\xBFmonth,count\n"), out.String())

	out = captureStdout(t, true)
	require.NoError(t, (&ExportCommand{}).Execute(context.Background(), app, []string{"monthly"}))
	assert.NotContains(t, out.String(), ",")
	assert.Contains(t, out.String(), "month")

	captureStdout(t, false)
	err := (&ExportCommand{}).Execute(context.Background(), app, []string{"-format", "xml", "monthly"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown format")
}

func TestChangePasswordCommand(t *testing.T) {
	app := newTestApp(t)
	out := captureStdout(t, false)

	cmd := &ChangePasswordCommand{}
	require.NoError(t, cmd.Execute(context.Background(), app, []string{"alice", "correct-horse"}))
	assert.Contains(t, out.String(), "Password updated")

	var alice records.Account
	require.NoError(t, app.DBManager.GetConnection().Where("username = ?", "alice").First(&alice).Error)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(alice.PasswordHash), []byte("correct-horse")))

	assert.Error(t, cmd.Execute(context.Background(), app, []string{"alice", "short"}))
	assert.Error(t, cmd.Execute(context.Background(), app, []string{"mallory", "long-enough"}))
}

func TestStatusCommand(t *testing.T) {
	app := newTestApp(t)
	out := captureStdout(t, false)

	require.NoError(t, (&StatusCommand{}).Execute(context.Background(), app, nil))
	assert.Contains(t, out.String(), "questions")
	assert.Contains(t, out.String(), "closed")
}

func TestCommandsRequireApp(t *testing.T) {
	for _, cmd := range commands {
		if _, ok := cmd.(*HelpCommand); ok {
			continue
		}
		t.Run(cmd.Name(), func(t *testing.T) {
			assert.Error(t, cmd.Execute(context.Background(), nil, []string{"x"}))
		})
	}
}

func TestHelpCommand(t *testing.T) {
	out := captureStdout(t, false)
	require.NoError(t, (&HelpCommand{}).Execute(context.Background(), nil, nil))
	for _, cmd := range commands {
		assert.Contains(t, out.String(), cmd.Name())
	}
}
