package handlers

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"github.com/yungbote/eigo-backend/internal/http/middleware"
	"github.com/yungbote/eigo-backend/internal/http/response"
	"github.com/yungbote/eigo-backend/internal/pkg/logger"
	"github.com/yungbote/eigo-backend/internal/services"
)

// OAuthSessionName is the signed cookie session that carries the OAuth state.
const OAuthSessionName = "eigo_oauth"

const stateKey = "oauth_state"

type AuthHandler struct {
	log         *logger.Logger
	auth        services.AuthService
	cookies     *middleware.SessionCookies
	frontendURL string
}

func NewAuthHandler(log *logger.Logger, auth services.AuthService, cookies *middleware.SessionCookies, frontendURL string) *AuthHandler {
	return &AuthHandler{
		log:         log.With("handler", "AuthHandler"),
		auth:        auth,
		cookies:     cookies,
		frontendURL: strings.TrimRight(frontendURL, "/"),
	}
}

// GET /auth/google/login
func (h *AuthHandler) GoogleLogin(c *gin.Context) {
	state, err := newState()
	if err != nil {
		response.RespondErr(c, h.log, err)
		return
	}
	sess := sessions.Default(c)
	sess.Set(stateKey, state)
	if err := sess.Save(); err != nil {
		response.RespondErr(c, h.log, err)
		return
	}
	c.Redirect(http.StatusFound, h.auth.AuthURL(state))
}

// GET /auth/google/callback
func (h *AuthHandler) GoogleCallback(c *gin.Context) {
	sess := sessions.Default(c)
	want, _ := sess.Get(stateKey).(string)
	sess.Delete(stateKey)
	_ = sess.Save()

	if e := c.Query("error"); e != "" {
		h.redirectWithError(c, e)
		return
	}
	got := c.Query("state")
	if want == "" || subtle.ConstantTimeCompare([]byte(want), []byte(got)) != 1 {
		h.log.Warn("oauth state mismatch")
		h.redirectWithError(c, "state_mismatch")
		return
	}

	session, acct, err := h.auth.Login(c.Request.Context(), c.Query("code"))
	if err != nil {
		h.log.Warn("login failed", "error", err)
		h.redirectWithError(c, "login_failed")
		return
	}
	h.cookies.Set(c, session)
	target := h.frontendURL + "/"
	if acct.IsAdmin() {
		target = h.frontendURL + "/admin"
	}
	c.Redirect(http.StatusFound, target)
}

// POST /auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	h.cookies.Clear(c)
	response.RespondNoContent(c)
}

func (h *AuthHandler) redirectWithError(c *gin.Context, code string) {
	c.Redirect(http.StatusFound, h.frontendURL+"/login?error="+url.QueryEscape(code))
}

func newState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
