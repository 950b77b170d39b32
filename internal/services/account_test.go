package services

import (
	"encoding/json"
	"testing"

	"github.com/yungbote/eigo-backend/internal/domain/account"
	domainagg "github.com/yungbote/eigo-backend/internal/domain/aggregates"
)

func TestFindOrCreateIsIdempotent(t *testing.T) {
	env := newTestEnv(t)

	first, err := env.accounts.FindOrCreate(bg, account.ProviderGoogle, "sub-1", profile("learner@example.com"))
	if err != nil {
		t.Fatalf("FindOrCreate: %v", err)
	}
	if first.Role != account.RoleUser {
		t.Fatalf("new accounts must be learners, got %s", first.Role)
	}
	second, err := env.accounts.FindOrCreate(bg, account.ProviderGoogle, "sub-1", profile("learner@example.com"))
	if err != nil {
		t.Fatalf("FindOrCreate again: %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("expected the same account, got %s and %s", first.ID, second.ID)
	}
	var n int64
	env.db.Table("accounts").Count(&n)
	if n != 1 {
		t.Fatalf("expected exactly one account row, got %d", n)
	}
}

func TestFindOrCreateRefreshesProfile(t *testing.T) {
	env := newTestEnv(t)
	p := profile("learner@example.com")
	p.EmailVerified = false
	first, err := env.accounts.FindOrCreate(bg, account.ProviderGoogle, "sub-1", p)
	if err != nil {
		t.Fatalf("FindOrCreate: %v", err)
	}
	if first.EmailVerified {
		t.Fatalf("expected an unverified account")
	}

	p.EmailVerified = true
	p.FirstName = "Aki"
	p.Picture = "https://example.com/aki.png"
	if _, err := env.accounts.FindOrCreate(bg, account.ProviderGoogle, "sub-1", p); err != nil {
		t.Fatalf("FindOrCreate again: %v", err)
	}
	stored, err := env.accounts.GetByID(bg, first.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if !stored.EmailVerified || stored.FirstName != "Aki" {
		t.Fatalf("login did not refresh the account: %+v", stored)
	}
	var snap account.Profile
	if err := json.Unmarshal(stored.Profile, &snap); err != nil || snap.Picture != p.Picture {
		t.Fatalf("stored profile not refreshed: %+v err=%v", snap, err)
	}
}

func TestFindOrCreateEmailConflict(t *testing.T) {
	env := newTestEnv(t)
	if _, err := env.accounts.FindOrCreate(bg, account.ProviderGoogle, "sub-a", profile("shared@example.com")); err != nil {
		t.Fatalf("FindOrCreate: %v", err)
	}
	_, err := env.accounts.FindOrCreate(bg, account.ProviderGoogle, "sub-b", profile("Shared@Example.com"))
	if !domainagg.IsCode(err, domainagg.CodeConflict) {
		t.Fatalf("expected CONFLICT, got %v", err)
	}
}

func TestPromoteAndSeedAdmins(t *testing.T) {
	env := newTestEnv(t)
	a, _ := env.accounts.FindOrCreate(bg, account.ProviderGoogle, "sub-admin", profile("teacher@example.com"))

	n, err := env.accounts.SeedAdmins(bg, []string{"teacher@example.com", "nobody@example.com", " "})
	if err != nil {
		t.Fatalf("SeedAdmins: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected one promotion, got %d", n)
	}
	got, err := env.accounts.GetByID(bg, a.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if !got.IsAdmin() {
		t.Fatalf("expected admin role")
	}

	if _, err := env.accounts.Promote(bg, "teacher@example.com", "owner"); !domainagg.IsCode(err, domainagg.CodeValidation) {
		t.Fatalf("expected VALIDATION_ERROR for unknown role, got %v", err)
	}
	demoted, err := env.accounts.Promote(bg, "teacher@example.com", account.RoleUser)
	if err != nil || demoted.Role != account.RoleUser {
		t.Fatalf("Promote to user: err=%v role=%v", err, demoted)
	}
}
