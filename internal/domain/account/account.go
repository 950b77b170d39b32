package account

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/yungbote/eigo-backend/internal/domain/aggregates"
	"github.com/yungbote/eigo-backend/internal/pkg/validate"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

func ParseRole(s string) (Role, bool) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleUser:
		return RoleUser, true
	case RoleAdmin:
		return RoleAdmin, true
	default:
		return "", false
	}
}

const ProviderGoogle = "google"

type Account struct {
	ID                uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Email             string         `gorm:"not null;column:email;uniqueIndex:idx_account_email" json:"email" validate:"required,email,max=320"`
	FirstName         string         `gorm:"column:first_name" json:"first_name" validate:"max=200"`
	LastName          string         `gorm:"column:last_name" json:"last_name" validate:"max=200"`
	Role              Role           `gorm:"not null;column:role" json:"role" validate:"oneof=user admin"`
	Provider          string         `gorm:"not null;column:provider;uniqueIndex:idx_account_identity,priority:1" json:"provider" validate:"notblank"`
	ProviderAccountID string         `gorm:"not null;column:provider_account_id;uniqueIndex:idx_account_identity,priority:2" json:"-" validate:"notblank"`
	EmailVerified     bool           `gorm:"not null;default:false;column:email_verified" json:"email_verified"`
	Profile           datatypes.JSON `gorm:"column:profile" json:"-"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Account) TableName() string { return "accounts" }

func (a Account) IsAdmin() bool { return a.Role == RoleAdmin }

// Profile is the verified identity snapshot an account is created from.
type Profile struct {
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	FirstName     string `json:"given_name,omitempty"`
	LastName      string `json:"family_name,omitempty"`
	Picture       string `json:"picture,omitempty"`
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NewAccount builds a learner account for a provider identity. Admin is never
// assigned here.
func NewAccount(provider, providerAccountID string, p Profile) (Account, error) {
	const op = "account.NewAccount"
	p.Email = NormalizeEmail(p.Email)
	a := Account{
		ID:                uuid.New(),
		Email:             p.Email,
		FirstName:         strings.TrimSpace(p.FirstName),
		LastName:          strings.TrimSpace(p.LastName),
		Role:              RoleUser,
		Provider:          strings.TrimSpace(provider),
		ProviderAccountID: strings.TrimSpace(providerAccountID),
		EmailVerified:     p.EmailVerified,
	}
	if err := validate.Struct(op, a); err != nil {
		return Account{}, err
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return Account{}, aggregates.Wrap(aggregates.CodeInternal, op, err)
	}
	a.Profile = datatypes.JSON(raw)
	return a, nil
}

// Refresh applies a newer identity snapshot to a and returns the changed
// columns. Email and role are left alone.
func (a *Account) Refresh(p Profile) (map[string]interface{}, error) {
	p.Email = NormalizeEmail(p.Email)
	raw, err := json.Marshal(p)
	if err != nil {
		return nil, aggregates.Wrap(aggregates.CodeInternal, "account.Refresh", err)
	}
	updates := map[string]interface{}{}
	if first := strings.TrimSpace(p.FirstName); first != a.FirstName {
		a.FirstName = first
		updates["first_name"] = first
	}
	if last := strings.TrimSpace(p.LastName); last != a.LastName {
		a.LastName = last
		updates["last_name"] = last
	}
	if p.EmailVerified != a.EmailVerified {
		a.EmailVerified = p.EmailVerified
		updates["email_verified"] = p.EmailVerified
	}
	var prev Profile
	if err := json.Unmarshal(a.Profile, &prev); err != nil || prev != p {
		a.Profile = datatypes.JSON(raw)
		updates["profile"] = a.Profile
	}
	return updates, nil
}
