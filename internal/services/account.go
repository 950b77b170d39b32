package services

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/eigo-backend/internal/data/aggregates"
	"github.com/yungbote/eigo-backend/internal/data/repos"
	"github.com/yungbote/eigo-backend/internal/domain/account"
	domainagg "github.com/yungbote/eigo-backend/internal/domain/aggregates"
	"github.com/yungbote/eigo-backend/internal/pkg/dbctx"
	"github.com/yungbote/eigo-backend/internal/pkg/logger"
)

type AccountService interface {
	// FindOrCreate returns the account of a provider identity, creating a learner
	// account the first time it is seen.
	FindOrCreate(ctx context.Context, provider, providerAccountID string, p account.Profile) (*account.Account, error)
	GetByID(ctx context.Context, id uuid.UUID) (*account.Account, error)
	GetByProviderAccount(ctx context.Context, provider, providerAccountID string) (*account.Account, error)
	// Promote sets the role of an existing account by email.
	Promote(ctx context.Context, email string, role account.Role) (*account.Account, error)
	// SeedAdmins promotes every listed email that already has an account.
	SeedAdmins(ctx context.Context, emails []string) (int, error)
}

type accountService struct {
	db    *gorm.DB
	log   *logger.Logger
	tx    aggregates.TxRunner
	repos repos.Set
}

func NewAccountService(db *gorm.DB, log *logger.Logger, tx aggregates.TxRunner, rs repos.Set) AccountService {
	return &accountService{
		db:    db,
		log:   log.With("service", "AccountService"),
		tx:    tx,
		repos: rs,
	}
}

func (s *accountService) FindOrCreate(ctx context.Context, provider, providerAccountID string, p account.Profile) (*account.Account, error) {
	const op = "account.FindOrCreate"
	if existing, err := s.repos.Account.GetByProviderAccount(dbctx.New(ctx), provider, providerAccountID); err != nil {
		return nil, aggregates.MapError(op, err)
	} else if existing != nil {
		return s.refresh(ctx, op, existing, p)
	}

	fresh, err := account.NewAccount(provider, providerAccountID, p)
	if err != nil {
		return nil, err
	}
	err = s.tx.InTx(ctx, func(dbc dbctx.Context) error {
		byEmail, err := s.repos.Account.GetByEmail(dbc, fresh.Email)
		if err != nil {
			return err
		}
		if byEmail != nil && (byEmail.Provider != fresh.Provider || byEmail.ProviderAccountID != fresh.ProviderAccountID) {
			return domainagg.NewError(domainagg.CodeConflict, op, "email already belongs to another identity", nil)
		}
		_, err = s.repos.Account.Create(dbc, []*account.Account{&fresh})
		return err
	})
	if err == nil {
		s.log.Info("account created", "account_id", fresh.ID, "provider", fresh.Provider)
		return &fresh, nil
	}

	// A concurrent login may have inserted the same identity first.
	if aggregates.IsUniqueViolation(err) || domainagg.IsCode(err, domainagg.CodeConflict) {
		existing, rerr := s.repos.Account.GetByProviderAccount(dbctx.New(ctx), provider, providerAccountID)
		if rerr == nil && existing != nil {
			return existing, nil
		}
		if domainagg.IsCode(err, domainagg.CodeConflict) {
			return nil, err
		}
		return nil, domainagg.NewError(domainagg.CodeConflict, op, "email already belongs to another identity", err)
	}
	return nil, aggregates.MapError(op, err)
}

// refresh stores the latest profile and verification flag of a returning login.
func (s *accountService) refresh(ctx context.Context, op string, a *account.Account, p account.Profile) (*account.Account, error) {
	updates, err := a.Refresh(p)
	if err != nil {
		return nil, err
	}
	if len(updates) == 0 {
		return a, nil
	}
	if err := s.repos.Account.UpdateFields(dbctx.New(ctx), a.ID, updates); err != nil {
		return nil, aggregates.MapError(op, err)
	}
	s.log.Debug("account profile refreshed", "account_id", a.ID)
	return a, nil
}

func (s *accountService) GetByID(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	const op = "account.GetByID"
	rows, err := s.repos.Account.GetByIDs(dbctx.New(ctx), []uuid.UUID{id})
	if err != nil {
		return nil, aggregates.MapError(op, err)
	}
	if len(rows) == 0 {
		return nil, domainagg.NotFound(op, "account")
	}
	return rows[0], nil
}

func (s *accountService) GetByProviderAccount(ctx context.Context, provider, providerAccountID string) (*account.Account, error) {
	const op = "account.GetByProviderAccount"
	a, err := s.repos.Account.GetByProviderAccount(dbctx.New(ctx), provider, providerAccountID)
	if err != nil {
		return nil, aggregates.MapError(op, err)
	}
	if a == nil {
		return nil, domainagg.NotFound(op, "account")
	}
	return a, nil
}

func (s *accountService) Promote(ctx context.Context, email string, role account.Role) (*account.Account, error) {
	const op = "account.Promote"
	if _, ok := account.ParseRole(string(role)); !ok {
		return nil, domainagg.Validation(op, "role", "role must be one of [user admin]")
	}
	var out *account.Account
	err := s.tx.InTx(ctx, func(dbc dbctx.Context) error {
		a, err := s.repos.Account.GetByEmail(dbc, email)
		if err != nil {
			return err
		}
		if a == nil {
			return domainagg.NotFound(op, "account")
		}
		if a.Role != role {
			if err := s.repos.Account.UpdateRole(dbc, a.ID, role); err != nil {
				return err
			}
			a.Role = role
		}
		out = a
		return nil
	})
	if err != nil {
		return nil, aggregates.MapError(op, err)
	}
	s.log.Info("account role set", "account_id", out.ID, "role", out.Role)
	return out, nil
}

func (s *accountService) SeedAdmins(ctx context.Context, emails []string) (int, error) {
	n := 0
	for _, email := range emails {
		email = strings.TrimSpace(email)
		if email == "" {
			continue
		}
		_, err := s.Promote(ctx, email, account.RoleAdmin)
		if domainagg.IsCode(err, domainagg.CodeNotFound) {
			s.log.Debug("admin email has no account yet", "email", email)
			continue
		}
		if err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}
