package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/yungbote/eigo-backend/internal/domain/account"
	domainagg "github.com/yungbote/eigo-backend/internal/domain/aggregates"
	"github.com/yungbote/eigo-backend/internal/pkg/logger"
	"github.com/yungbote/eigo-backend/internal/platform/oidc"
	"github.com/yungbote/eigo-backend/internal/platform/redislock"
)

// Session is the token pair stored in the learner's cookies.
type Session struct {
	IDToken      string
	RefreshToken string
	Expiry       time.Time
}

type AuthService interface {
	AuthURL(state string) string
	// Login completes the code flow and returns the session and its account.
	Login(ctx context.Context, code string) (*Session, *account.Account, error)
	// Authenticate resolves an id_token to a known account. Expired tokens
	// yield UNAUTHORIZED wrapping oidc.ErrTokenExpired.
	Authenticate(ctx context.Context, idToken string) (*account.Account, error)
	Refresh(ctx context.Context, refreshToken string) (*Session, error)
}

const refreshTimeout = 15 * time.Second

type authService struct {
	log      *logger.Logger
	provider oidc.Provider
	verifier oidc.Verifier
	accounts AccountService
	locks    *redislock.Locker

	refreshGroup singleflight.Group
}

// NewAuthService wires the code flow. locks may be nil, in which case refreshes
// are only serialized within this process.
func NewAuthService(log *logger.Logger, provider oidc.Provider, verifier oidc.Verifier, accounts AccountService, locks *redislock.Locker) AuthService {
	return &authService{
		log:      log.With("service", "AuthService"),
		provider: provider,
		verifier: verifier,
		accounts: accounts,
		locks:    locks,
	}
}

func (s *authService) AuthURL(state string) string {
	return s.provider.AuthCodeURL(state)
}

func (s *authService) Login(ctx context.Context, code string) (*Session, *account.Account, error) {
	const op = "auth.Login"
	if strings.TrimSpace(code) == "" {
		return nil, nil, domainagg.Validation(op, "code", "authorization code is required")
	}
	tokens, err := s.provider.Exchange(ctx, code)
	if err != nil {
		s.log.Warn("code exchange failed", "error", err)
		return nil, nil, domainagg.NewError(domainagg.CodeUnauthorized, op, "sign-in failed", err)
	}
	id, err := s.verifier.Verify(ctx, tokens.IDToken)
	if err != nil {
		s.log.Warn("id_token rejected at login", "error", err)
		return nil, nil, domainagg.NewError(domainagg.CodeUnauthorized, op, "sign-in failed", err)
	}
	acct, err := s.accounts.FindOrCreate(ctx, account.ProviderGoogle, id.Subject, profileOf(id))
	if err != nil {
		return nil, nil, err
	}
	s.log.Info("login", "account_id", acct.ID, "role", acct.Role)
	return sessionOf(tokens, id), acct, nil
}

func (s *authService) Authenticate(ctx context.Context, idToken string) (*account.Account, error) {
	const op = "auth.Authenticate"
	if strings.TrimSpace(idToken) == "" {
		return nil, domainagg.NewError(domainagg.CodeUnauthorized, op, "not signed in", nil)
	}
	id, err := s.verifier.Verify(ctx, idToken)
	if err != nil {
		msg := "invalid session"
		if errors.Is(err, oidc.ErrTokenExpired) {
			msg = "session expired"
		}
		return nil, domainagg.NewError(domainagg.CodeUnauthorized, op, msg, err)
	}
	acct, err := s.accounts.GetByProviderAccount(ctx, account.ProviderGoogle, id.Subject)
	if err != nil {
		if domainagg.IsCode(err, domainagg.CodeNotFound) {
			return nil, domainagg.NewError(domainagg.CodeUnauthorized, op, "unknown account", nil)
		}
		return nil, err
	}
	return acct, nil
}

// Refresh is collapsed per refresh token within the process and, when a
// redis locker is configured, serialized across instances.
func (s *authService) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	const op = "auth.Refresh"
	if strings.TrimSpace(refreshToken) == "" {
		return nil, domainagg.NewError(domainagg.CodeUnauthorized, op, "not signed in", nil)
	}
	key := refreshKey(refreshToken)
	ch := s.refreshGroup.DoChan(key, func() (interface{}, error) {
		// Detached from the first caller: the others wait on the same result.
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), refreshTimeout)
		defer cancel()
		return s.refresh(rctx, op, key, refreshToken)
	})
	select {
	case <-ctx.Done():
		return nil, domainagg.Wrap(domainagg.CodeUnauthorized, op, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			s.log.Debug("refresh shared", "session_id", key)
		}
		sess := *(res.Val.(*Session))
		return &sess, nil
	}
}

func (s *authService) refresh(ctx context.Context, op, key, refreshToken string) (*Session, error) {
	if s.locks != nil {
		lk, err := s.locks.Acquire(ctx, "refresh:"+key, 10*time.Second, 5*time.Second)
		if err != nil {
			// Proceed unlocked; Google refresh tokens are reusable.
			s.log.Warn("refresh lock unavailable", "session_id", key, "error", err)
		} else {
			defer func() {
				if err := lk.Release(context.WithoutCancel(ctx)); err != nil {
					s.log.Warn("refresh lock release failed", "error", err)
				}
			}()
		}
	}
	tokens, err := s.provider.Refresh(ctx, refreshToken)
	if err != nil {
		s.log.Warn("token refresh failed", "session_id", key, "error", err)
		return nil, domainagg.NewError(domainagg.CodeUnauthorized, op, "session expired", err)
	}
	id, err := s.verifier.Verify(ctx, tokens.IDToken)
	if err != nil {
		return nil, domainagg.NewError(domainagg.CodeUnauthorized, op, "session expired", err)
	}
	return sessionOf(tokens, id), nil
}

func refreshKey(refreshToken string) string {
	sum := sha256.Sum256([]byte(refreshToken))
	return hex.EncodeToString(sum[:])
}

func sessionOf(t *oidc.Tokens, id *oidc.Identity) *Session {
	exp := id.Expiry
	if exp.IsZero() {
		exp = t.Expiry
	}
	return &Session{IDToken: t.IDToken, RefreshToken: t.RefreshToken, Expiry: exp}
}

func profileOf(id *oidc.Identity) account.Profile {
	return account.Profile{
		Email:         id.Email,
		EmailVerified: id.EmailVerified,
		FirstName:     id.FirstName,
		LastName:      id.LastName,
		Picture:       id.Picture,
	}
}
