package account

import (
	"encoding/json"
	"testing"

	"github.com/yungbote/eigo-backend/internal/domain/aggregates"
)

func TestNewAccountDefaultsToUser(t *testing.T) {
	a, err := NewAccount(ProviderGoogle, "sub-1", Profile{Email: " Learner@Example.com ", FirstName: "Aki", EmailVerified: true})
	if err != nil {
		t.Fatalf("NewAccount: %v", err)
	}
	if a.Role != RoleUser {
		t.Fatalf("expected role user, got %s", a.Role)
	}
	if a.Email != "learner@example.com" {
		t.Fatalf("email not normalized: %q", a.Email)
	}
	var p Profile
	if err := json.Unmarshal(a.Profile, &p); err != nil {
		t.Fatalf("profile json: %v", err)
	}
	if p.FirstName != "Aki" || !p.EmailVerified {
		t.Fatalf("unexpected profile snapshot %+v", p)
	}
}

func TestNewAccountRequiresSubject(t *testing.T) {
	_, err := NewAccount(ProviderGoogle, "", Profile{Email: "a@b.co"})
	agg, ok := aggregates.As(err)
	if !ok || agg.Field != "ProviderAccountID" {
		t.Fatalf("expected validation on provider account id, got %v", err)
	}
}

func TestNewAccountRequiresEmail(t *testing.T) {
	_, err := NewAccount(ProviderGoogle, "sub", Profile{Email: "not-an-email"})
	agg, ok := aggregates.As(err)
	if !ok || agg.Field != "email" {
		t.Fatalf("expected validation on email, got %v", err)
	}
}

func TestParseRole(t *testing.T) {
	if r, ok := ParseRole(" ADMIN "); !ok || r != RoleAdmin {
		t.Fatalf("expected admin, got %q %v", r, ok)
	}
	if _, ok := ParseRole("owner"); ok {
		t.Fatalf("owner is not a role")
	}
}

func TestRefreshReportsChangedColumns(t *testing.T) {
	p := Profile{Email: "learner@example.com", FirstName: "Aki"}
	a, err := NewAccount(ProviderGoogle, "sub-1", p)
	if err != nil {
		t.Fatalf("NewAccount: %v", err)
	}
	if updates, err := a.Refresh(p); err != nil || len(updates) != 0 {
		t.Fatalf("same profile: updates=%v err=%v", updates, err)
	}

	p.EmailVerified = true
	p.Picture = "https://example.com/a.png"
	p.Email = "Other@Example.com"
	updates, err := a.Refresh(p)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if updates["email_verified"] != true || !a.EmailVerified {
		t.Fatalf("email_verified not refreshed: %v", updates)
	}
	if _, ok := updates["profile"]; !ok {
		t.Fatalf("profile not refreshed: %v", updates)
	}
	if _, ok := updates["email"]; ok || a.Email != "learner@example.com" {
		t.Fatalf("email must not change on refresh: %v %q", updates, a.Email)
	}
	var snap Profile
	if err := json.Unmarshal(a.Profile, &snap); err != nil || snap.Picture != p.Picture {
		t.Fatalf("unexpected snapshot %+v err=%v", snap, err)
	}
}
