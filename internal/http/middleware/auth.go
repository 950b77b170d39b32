package middleware

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/eigo-backend/internal/domain/account"
	domainagg "github.com/yungbote/eigo-backend/internal/domain/aggregates"
	"github.com/yungbote/eigo-backend/internal/http/response"
	"github.com/yungbote/eigo-backend/internal/pkg/ctxutil"
	"github.com/yungbote/eigo-backend/internal/pkg/logger"
	"github.com/yungbote/eigo-backend/internal/platform/oidc"
	"github.com/yungbote/eigo-backend/internal/services"
)

// AccountKey is the gin context key holding the authenticated *account.Account.
const AccountKey = "account"

type AuthMiddleware struct {
	log     *logger.Logger
	auth    services.AuthService
	cookies *SessionCookies
}

func NewAuthMiddleware(log *logger.Logger, auth services.AuthService, cookies *SessionCookies) *AuthMiddleware {
	return &AuthMiddleware{log: log.With("middleware", "AuthMiddleware"), auth: auth, cookies: cookies}
}

// RequireAuth resolves the session cookie to an account. An expired or missing
// id_token is refreshed once when a refresh cookie is present.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		idToken, refreshToken := m.cookies.Read(c)

		acct, err := m.auth.Authenticate(ctx, idToken)
		if err != nil && refreshToken != "" && (idToken == "" || errors.Is(err, oidc.ErrTokenExpired)) {
			sess, rerr := m.auth.Refresh(ctx, refreshToken)
			if rerr != nil {
				m.cookies.Clear(c)
				err = rerr
			} else {
				m.cookies.Set(c, sess)
				idToken, refreshToken = sess.IDToken, sess.RefreshToken
				acct, err = m.auth.Authenticate(ctx, idToken)
			}
		}
		if err != nil {
			response.RespondErr(c, m.log, err)
			return
		}

		rd := &ctxutil.RequestData{
			IDToken:      idToken,
			RefreshToken: refreshToken,
			AccountID:    acct.ID,
			Email:        acct.Email,
			Role:         string(acct.Role),
		}
		c.Request = c.Request.WithContext(ctxutil.WithRequestData(ctx, rd))
		c.Set(AccountKey, acct)
		c.Next()
	}
}

// RequireAdmin must run after RequireAuth.
func (m *AuthMiddleware) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		rd := ctxutil.GetRequestData(c.Request.Context())
		if !rd.IsAdmin() {
			response.RespondErr(c, m.log, domainagg.NewError(domainagg.CodeForbidden, "auth.RequireAdmin", "admin role required", nil))
			return
		}
		c.Next()
	}
}

// CurrentAccount returns the account stored by RequireAuth.
func CurrentAccount(c *gin.Context) *account.Account {
	v, ok := c.Get(AccountKey)
	if !ok {
		return nil
	}
	acct, _ := v.(*account.Account)
	return acct
}
