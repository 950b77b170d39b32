package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/eigo-backend/internal/domain/account"
	domainagg "github.com/yungbote/eigo-backend/internal/domain/aggregates"
	"github.com/yungbote/eigo-backend/internal/pkg/ctxutil"
	"github.com/yungbote/eigo-backend/internal/pkg/logger"
	"github.com/yungbote/eigo-backend/internal/platform/oidc"
	"github.com/yungbote/eigo-backend/internal/services"
)

type fakeAuth struct {
	accounts  map[string]*account.Account
	refreshed int
}

func (f *fakeAuth) AuthURL(state string) string { return "" }

func (f *fakeAuth) Login(ctx context.Context, code string) (*services.Session, *account.Account, error) {
	return nil, nil, nil
}

func (f *fakeAuth) Authenticate(ctx context.Context, idToken string) (*account.Account, error) {
	if idToken == "stale" {
		return nil, domainagg.NewError(domainagg.CodeUnauthorized, "test", "session expired", oidc.ErrTokenExpired)
	}
	if a, ok := f.accounts[idToken]; ok {
		return a, nil
	}
	return nil, domainagg.NewError(domainagg.CodeUnauthorized, "test", "invalid session", nil)
}

func (f *fakeAuth) Refresh(ctx context.Context, refreshToken string) (*services.Session, error) {
	f.refreshed++
	if refreshToken != "good-refresh" {
		return nil, domainagg.NewError(domainagg.CodeUnauthorized, "test", "session expired", nil)
	}
	return &services.Session{IDToken: "learner", RefreshToken: refreshToken, Expiry: time.Now().Add(time.Hour)}, nil
}

func newAuthRouter(t *testing.T) (*gin.Engine, *fakeAuth) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	fa := &fakeAuth{accounts: map[string]*account.Account{
		"learner": {ID: uuid.New(), Email: "learner@example.com", Role: account.RoleUser},
		"admin":   {ID: uuid.New(), Email: "admin@example.com", Role: account.RoleAdmin},
	}}
	mw := NewAuthMiddleware(logger.Nop(), fa, NewSessionCookies(false, ""))
	r := gin.New()
	authed := r.Group("/", mw.RequireAuth())
	authed.GET("/me", func(c *gin.Context) {
		rd := ctxutil.GetRequestData(c.Request.Context())
		c.String(http.StatusOK, rd.Email+"|"+CurrentAccount(c).Email)
	})
	authed.GET("/admin", mw.RequireAdmin(), func(c *gin.Context) { c.Status(http.StatusNoContent) })
	return r, fa
}

func do(r *gin.Engine, path string, cookies map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for k, v := range cookies {
		req.AddCookie(&http.Cookie{Name: k, Value: v})
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestRequireAuth(t *testing.T) {
	r, _ := newAuthRouter(t)

	if rec := do(r, "/me", nil); rec.Code != http.StatusUnauthorized || !strings.Contains(rec.Body.String(), "UNAUTHORIZED") {
		t.Fatalf("no cookie: got %d %s", rec.Code, rec.Body.String())
	}
	rec := do(r, "/me", map[string]string{IDTokenCookie: "learner"})
	if rec.Code != http.StatusOK || rec.Body.String() != "learner@example.com|learner@example.com" {
		t.Fatalf("valid cookie: got %d %s", rec.Code, rec.Body.String())
	}

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer admin")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("bearer token: got %d", rec.Code)
	}
}

func TestRequireAuthRefreshesExpiredSession(t *testing.T) {
	r, fa := newAuthRouter(t)

	rec := do(r, "/me", map[string]string{IDTokenCookie: "stale", RefreshTokenCookie: "good-refresh"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected refresh to recover the session, got %d %s", rec.Code, rec.Body.String())
	}
	if fa.refreshed != 1 {
		t.Fatalf("expected one refresh, got %d", fa.refreshed)
	}
	setCookies := strings.Join(rec.Header().Values("Set-Cookie"), "\n")
	if !strings.Contains(setCookies, IDTokenCookie+"=learner") || !strings.Contains(setCookies, "HttpOnly") {
		t.Fatalf("expected refreshed id_token cookie, got %q", setCookies)
	}

	// a bad refresh clears the cookies
	rec = do(r, "/me", map[string]string{IDTokenCookie: "stale", RefreshTokenCookie: "revoked"})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 on failed refresh, got %d", rec.Code)
	}
	if !strings.Contains(strings.Join(rec.Header().Values("Set-Cookie"), "\n"), "Max-Age=0") {
		t.Fatalf("expected cookies to be cleared")
	}

	// an invalid (not expired) token does not trigger a refresh
	before := fa.refreshed
	if rec := do(r, "/me", map[string]string{IDTokenCookie: "forged", RefreshTokenCookie: "good-refresh"}); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for invalid token, got %d", rec.Code)
	}
	if fa.refreshed != before {
		t.Fatalf("invalid token should not be refreshed")
	}
}

func TestRequireAdmin(t *testing.T) {
	r, _ := newAuthRouter(t)

	rec := do(r, "/admin", map[string]string{IDTokenCookie: "learner"})
	if rec.Code != http.StatusForbidden || !strings.Contains(rec.Body.String(), "FORBIDDEN") {
		t.Fatalf("learner on admin route: got %d %s", rec.Code, rec.Body.String())
	}
	if rec := do(r, "/admin", map[string]string{IDTokenCookie: "admin"}); rec.Code != http.StatusNoContent {
		t.Fatalf("admin on admin route: got %d", rec.Code)
	}
}
