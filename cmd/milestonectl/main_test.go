package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"milestonenotifier/internal/domain/auth"
	"milestonenotifier/internal/domain/users"
	"milestonenotifier/internal/platform/sqlitedb"
)

func setupDatabase(t *testing.T, customers int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "milestones.db")
	conn, err := sqlitedb.Open(context.Background(), path)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	defer conn.Close()

	store := users.NewSQLiteStore(conn)
	for i := 0; i < customers; i++ {
		_, err := store.CreateUser(context.Background(), users.User{
			Email:        "c" + strings.Repeat("x", i) + "@example.com",
			PasswordHash: "x",
			Role:         auth.RoleCustomer,
			Status:       users.StatusActive,
		})
		if err != nil {
			t.Fatalf("create user: %v", err)
		}
	}
	return "sqlite:" + path
}

func runCLI(t *testing.T, databaseURL string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("INBOX_ENABLED", "true")
	t.Setenv("APP_ENV", "test")
	cmd := newRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append([]string{"--database-url", databaseURL}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func requireContains(t *testing.T, out, want string) {
	t.Helper()
	if !strings.Contains(out, want) {
		t.Fatalf("expected output to contain %q, got:\n%s", want, out)
	}
}

func TestCountShowsNextMilestone(t *testing.T) {
	dbURL := setupDatabase(t, 3)

	out, err := runCLI(t, dbURL, "count")
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	requireContains(t, out, "Customers: 3")
	requireContains(t, out, "Next milestone: 10 (7 to go)")
}

func TestEvaluateNotesAndDeactivate(t *testing.T) {
	dbURL := setupDatabase(t, 1)

	out, err := runCLI(t, dbURL, "evaluate")
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	requireContains(t, out, `Created first-customer note "First Customer"`)

	out, err = runCLI(t, dbURL, "evaluate")
	if err != nil {
		t.Fatalf("evaluate again: %v", err)
	}
	requireContains(t, out, "No change at 1 customers")

	out, err = runCLI(t, dbURL, "evaluate", "--count", "5000")
	if err != nil {
		t.Fatalf("evaluate 5000: %v", err)
	}
	requireContains(t, out, "Congratulations on reaching 5,000 customers")

	out, err = runCLI(t, dbURL, "notes")
	if err != nil {
		t.Fatalf("notes: %v", err)
	}
	requireContains(t, out, "first-customer")
	requireContains(t, out, "other-milestone")
	requireContains(t, out, "5,000")

	out, err = runCLI(t, dbURL, "notes", "--name", "tenth-customer")
	if err != nil {
		t.Fatalf("notes --name: %v", err)
	}
	requireContains(t, out, "No milestone notes")

	out, err = runCLI(t, dbURL, "deactivate")
	if err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	requireContains(t, out, "Removed 2 milestone notes")
}

func TestActivateFailsWithoutInbox(t *testing.T) {
	dbURL := setupDatabase(t, 0)
	t.Setenv("INBOX_ENABLED", "false")

	cmd := newRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--database-url", dbURL, "activate"})
	err := cmd.Execute()
	if err == nil || !strings.Contains(err.Error(), "missing dependency") {
		t.Fatalf("expected missing dependency error, got %v", err)
	}
}

func TestRenderTablePadsRows(t *testing.T) {
	out := renderTable([]string{"A", "B"}, [][]string{{"1"}}, []columnAlignment{alignLeft, alignRight})
	requireContains(t, out, "A")
	requireContains(t, out, "1")
}
