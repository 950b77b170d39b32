package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/yungbote/eigo-backend/internal/app"
	"github.com/yungbote/eigo-backend/internal/domain/account"
	domainagg "github.com/yungbote/eigo-backend/internal/domain/aggregates"
)

// sqliteFlags points both the environment and the command flags at a fresh
// sqlite file.
func sqliteFlags(t *testing.T) []string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "eigo.db")
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("APP_ENV", "test")
	t.Setenv("LOG_MODE", "test")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("SQLITE_PATH", path)
	return []string{"--db-driver", "sqlite", "--sqlite-path", path}
}

func openApp(t *testing.T) *app.App {
	t.Helper()
	cfg, err := app.LoadConfig(nil)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	a, err := app.Open(cfg)
	if err != nil {
		t.Fatalf("app.Open: %v", err)
	}
	t.Cleanup(a.Close)
	return a
}

func TestRunUsageAndUnknownCommand(t *testing.T) {
	var out bytes.Buffer
	if err := run(context.Background(), nil, &out); err != nil {
		t.Fatalf("usage: %v", err)
	}
	if !strings.Contains(out.String(), "migrate") {
		t.Fatalf("usage text missing commands: %q", out.String())
	}
	if err := run(context.Background(), []string{"frobnicate"}, &out); err == nil {
		t.Fatalf("expected unknown command error")
	}
}

func TestRunMigrateAndImport(t *testing.T) {
	flags := sqliteFlags(t)
	ctx := context.Background()

	var out bytes.Buffer
	if err := run(ctx, append([]string{"migrate"}, flags...), &out); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	a := openApp(t)
	m, err := a.Services.Hierarchy.CreateMaterial(ctx, "NEW HORIZON 1", "")
	if err != nil {
		t.Fatalf("CreateMaterial: %v", err)
	}
	ch, err := a.Services.Hierarchy.CreateChapter(ctx, m.ID, nil, "Ch1", "")
	if err != nil {
		t.Fatalf("CreateChapter: %v", err)
	}
	u, err := a.Services.Hierarchy.CreateUnit(ctx, ch.ID, "Unit 1", "")
	if err != nil {
		t.Fatalf("CreateUnit: %v", err)
	}
	a.Close()

	file := filepath.Join(t.TempDir(), "questions.csv")
	csv := "japanese,answers\n私は学生です。,I am a student.|I'm a student.\nこれはペンです。,This is a pen.\n"
	if err := os.WriteFile(file, []byte(csv), 0o600); err != nil {
		t.Fatalf("write csv: %v", err)
	}

	out.Reset()
	args := append([]string{"import", "--unit", u.ID.String(), "--file", file}, flags...)
	if err := run(ctx, args, &out); err != nil {
		t.Fatalf("import: %v", err)
	}
	if !strings.Contains(out.String(), "imported 2 questions (3 answers)") {
		t.Fatalf("unexpected output %q", out.String())
	}

	bad := filepath.Join(t.TempDir(), "questions.txt")
	if err := os.WriteFile(bad, []byte(csv), 0o600); err != nil {
		t.Fatalf("write txt: %v", err)
	}
	args = append([]string{"import", "--unit", u.ID.String(), "--file", bad}, flags...)
	if err := run(ctx, args, &out); err == nil || !strings.Contains(err.Error(), "--format") {
		t.Fatalf("expected a format error, got %v", err)
	}
}

func TestRunPromote(t *testing.T) {
	flags := sqliteFlags(t)
	ctx := context.Background()

	var out bytes.Buffer
	err := run(ctx, append([]string{"promote", "--email", "nobody@example.com"}, flags...), &out)
	if !domainagg.IsCode(err, domainagg.CodeNotFound) {
		t.Fatalf("expected NOT_FOUND for an unknown email, got %v", err)
	}

	a := openApp(t)
	if _, err := a.Services.Accounts.FindOrCreate(ctx, account.ProviderGoogle, "sub-1", account.Profile{Email: "Teacher@Example.com"}); err != nil {
		t.Fatalf("FindOrCreate: %v", err)
	}
	a.Close()

	out.Reset()
	if err := run(ctx, append([]string{"promote", "--email", "teacher@example.com"}, flags...), &out); err != nil {
		t.Fatalf("promote: %v", err)
	}
	if !strings.Contains(out.String(), "teacher@example.com is now admin") {
		t.Fatalf("unexpected output %q", out.String())
	}

	if err := run(ctx, append([]string{"promote", "--email", "teacher@example.com", "--role", "owner"}, flags...), &out); err == nil {
		t.Fatalf("expected an invalid role error")
	}
}
