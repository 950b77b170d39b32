package account

import (
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	domain "github.com/yungbote/eigo-backend/internal/domain/account"
	"github.com/yungbote/eigo-backend/internal/pkg/dbctx"
	"github.com/yungbote/eigo-backend/internal/pkg/logger"
)

type AccountRepo interface {
	Create(dbc dbctx.Context, accounts []*domain.Account) ([]*domain.Account, error)
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*domain.Account, error)
	GetByProviderAccount(dbc dbctx.Context, provider, providerAccountID string) (*domain.Account, error)
	GetByEmail(dbc dbctx.Context, email string) (*domain.Account, error)
	UpdateRole(dbc dbctx.Context, id uuid.UUID, role domain.Role) error
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
}

type accountRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAccountRepo(db *gorm.DB, baseLog *logger.Logger) AccountRepo {
	return &accountRepo{
		db:  db,
		log: baseLog.With("repo", "AccountRepo"),
	}
}

func (r *accountRepo) Create(dbc dbctx.Context, accounts []*domain.Account) ([]*domain.Account, error) {
	if len(accounts) == 0 {
		return accounts, nil
	}
	for _, a := range accounts {
		if a.ID == uuid.Nil {
			a.ID = uuid.New()
		}
	}
	if err := dbc.DB(r.db).Create(&accounts).Error; err != nil {
		return nil, err
	}
	return accounts, nil
}

func (r *accountRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*domain.Account, error) {
	var out []*domain.Account
	if len(ids) == 0 {
		return out, nil
	}
	if err := dbc.DB(r.db).Where("id IN ?", ids).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// GetByProviderAccount returns nil, nil when no account has the identity.
func (r *accountRepo) GetByProviderAccount(dbc dbctx.Context, provider, providerAccountID string) (*domain.Account, error) {
	var out []*domain.Account
	if err := dbc.DB(r.db).
		Where("provider = ? AND provider_account_id = ?", strings.TrimSpace(provider), strings.TrimSpace(providerAccountID)).
		Limit(1).
		Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

// GetByEmail returns nil, nil when the email is unused.
func (r *accountRepo) GetByEmail(dbc dbctx.Context, email string) (*domain.Account, error) {
	var out []*domain.Account
	if err := dbc.DB(r.db).Where("email = ?", domain.NormalizeEmail(email)).Limit(1).Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

func (r *accountRepo) UpdateRole(dbc dbctx.Context, id uuid.UUID, role domain.Role) error {
	return r.UpdateFields(dbc, id, map[string]interface{}{"role": role})
}

func (r *accountRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return nil
	}
	res := dbc.DB(r.db).Model(&domain.Account{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
