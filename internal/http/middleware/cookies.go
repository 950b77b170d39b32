package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/eigo-backend/internal/services"
)

const (
	IDTokenCookie      = "id_token"
	RefreshTokenCookie = "refresh_token"
)

// SessionCookies writes the token pair as HttpOnly, SameSite=Lax cookies.
type SessionCookies struct {
	Secure        bool
	Domain        string
	RefreshMaxAge time.Duration
	now           func() time.Time
}

func NewSessionCookies(secure bool, domain string) *SessionCookies {
	return &SessionCookies{Secure: secure, Domain: domain, RefreshMaxAge: 30 * 24 * time.Hour, now: time.Now}
}

func (s *SessionCookies) Set(c *gin.Context, sess *services.Session) {
	maxAge := int(time.Hour.Seconds())
	if !sess.Expiry.IsZero() {
		if d := int(sess.Expiry.Sub(s.now()).Seconds()); d > 0 {
			maxAge = d
		}
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(IDTokenCookie, sess.IDToken, maxAge, "/", s.Domain, s.Secure, true)
	if sess.RefreshToken != "" {
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(RefreshTokenCookie, sess.RefreshToken, int(s.RefreshMaxAge.Seconds()), "/", s.Domain, s.Secure, true)
	}
}

func (s *SessionCookies) Clear(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(IDTokenCookie, "", -1, "/", s.Domain, s.Secure, true)
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(RefreshTokenCookie, "", -1, "/", s.Domain, s.Secure, true)
}

// Read returns the id_token (cookie, else Bearer header) and the refresh token.
func (s *SessionCookies) Read(c *gin.Context) (idToken, refreshToken string) {
	idToken, _ = c.Cookie(IDTokenCookie)
	if idToken == "" {
		idToken = bearerToken(c)
	}
	refreshToken, _ = c.Cookie(RefreshTokenCookie)
	return idToken, refreshToken
}

func bearerToken(c *gin.Context) string {
	h := c.GetHeader("Authorization")
	if len(h) > 7 && (h[:7] == "Bearer " || h[:7] == "bearer ") {
		return h[7:]
	}
	return ""
}
