package oidc

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rsa"
	"encoding/base64"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/yungbote/eigo-backend/internal/pkg/httpx"
)

const (
	GoogleDiscoveryURL = "https://accounts.google.com/.well-known/openid-configuration"
	ProviderGoogle     = "google"
)

var GoogleIssuers = []string{"accounts.google.com", "https://accounts.google.com"}

var (
	// ErrInvalidToken covers every verification failure except expiry.
	ErrInvalidToken = errors.New("oidc: invalid id_token")
	ErrTokenExpired = errors.New("oidc: id_token expired")
)

// Identity is the verified subset of ID-token claims.
type Identity struct {
	Provider      string
	Subject       string
	Email         string
	EmailVerified bool
	FirstName     string
	LastName      string
	Picture       string
	Expiry        time.Time
}

type Verifier interface {
	Verify(ctx context.Context, idToken string) (*Identity, error)
}

type VerifierOption func(*verifier)

func WithDiscoveryURL(u string) VerifierOption { return func(v *verifier) { v.discoveryURL = u } }

// WithJWKSURL skips discovery.
func WithJWKSURL(u string) VerifierOption {
	return func(v *verifier) { v.jwks.setURL(u) }
}

func WithIssuers(iss ...string) VerifierOption {
	return func(v *verifier) { v.allowedIss = iss }
}

func WithClock(now func() time.Time) VerifierOption {
	return func(v *verifier) { v.now = now }
}

type verifier struct {
	provider     string
	httpClient   *http.Client
	discoveryURL string
	allowedIss   []string
	audience     string
	algAllow     []string
	now          func() time.Time

	jwks *jwksCache
}

// NewGoogleVerifier verifies Google ID tokens issued to clientID.
func NewGoogleVerifier(httpClient *http.Client, clientID string, opts ...VerifierOption) (Verifier, error) {
	if strings.TrimSpace(clientID) == "" {
		return nil, fmt.Errorf("GOOGLE_CLIENT_ID is required")
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	v := &verifier{
		provider:     ProviderGoogle,
		httpClient:   httpClient,
		discoveryURL: GoogleDiscoveryURL,
		allowedIss:   GoogleIssuers,
		audience:     clientID,
		algAllow:     []string{"RS256"},
		now:          time.Now,
		jwks:         newJWKSCache(httpClient),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v, nil
}

type discovery struct {
	Issuer  string `json:"issuer"`
	JWKSURI string `json:"jwks_uri"`
}

// ensureDiscovery resolves the JWKS location once; failures are retried on the next call.
func (v *verifier) ensureDiscovery(ctx context.Context) error {
	if v.jwks.url() != "" {
		return nil
	}
	var d discovery
	if err := httpx.GetJSON(ctx, v.httpClient, v.discoveryURL, 3, &d); err != nil {
		return fmt.Errorf("oidc discovery: %w", err)
	}
	if strings.TrimSpace(d.JWKSURI) == "" {
		return fmt.Errorf("oidc discovery: missing jwks_uri")
	}
	v.jwks.setURL(d.JWKSURI)
	return nil
}

func (v *verifier) Verify(ctx context.Context, idToken string) (*Identity, error) {
	if strings.TrimSpace(idToken) == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidToken)
	}
	if err := v.ensureDiscovery(ctx); err != nil {
		return nil, err
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods(v.algAllow),
		jwt.WithAudience(v.audience),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithLeeway(30*time.Second),
		jwt.WithTimeFunc(v.now),
	)
	claims := jwt.MapClaims{}
	_, err := parser.ParseWithClaims(idToken, claims, func(t *jwt.Token) (any, error) {
		kid, _ := t.Header["kid"].(string)
		if strings.TrimSpace(kid) == "" {
			return nil, fmt.Errorf("missing kid")
		}
		return v.jwks.getKey(ctx, kid)
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	iss, _ := claims.GetIssuer()
	if !containsIssuer(v.allowedIss, iss) {
		return nil, fmt.Errorf("%w: issuer mismatch %q", ErrInvalidToken, iss)
	}
	sub, _ := claims.GetSubject()
	if strings.TrimSpace(sub) == "" {
		return nil, fmt.Errorf("%w: missing sub", ErrInvalidToken)
	}
	return claimsToIdentity(v.provider, claims), nil
}

func containsIssuer(list []string, iss string) bool {
	for _, v := range list {
		if v == iss {
			return true
		}
	}
	return false
}

func claimsToIdentity(provider string, c jwt.MapClaims) *Identity {
	out := &Identity{Provider: provider}
	out.Subject, _ = c["sub"].(string)
	out.Email, _ = c["email"].(string)
	out.EmailVerified = parseBool(c["email_verified"])
	out.FirstName, _ = c["given_name"].(string)
	out.LastName, _ = c["family_name"].(string)
	out.Picture, _ = c["picture"].(string)
	if exp, err := c.GetExpirationTime(); err == nil && exp != nil {
		out.Expiry = exp.Time.UTC()
	}
	return out
}

func parseBool(v any) bool {
	switch x := v.(type) {
	case bool:
		return x
	case string:
		return strings.EqualFold(x, "true") || x == "1"
	case float64:
		return x != 0
	default:
		return false
	}
}

// ----- JWKS cache (RSA + EC) -----

type jwksCache struct {
	httpClient *http.Client

	mu        sync.RWMutex
	jwksURL   string
	keys      map[string]any
	fetchedAt time.Time
	ttl       time.Duration
}

func newJWKSCache(httpClient *http.Client) *jwksCache {
	return &jwksCache{
		httpClient: httpClient,
		keys:       map[string]any{},
		ttl:        6 * time.Hour,
	}
}

func (j *jwksCache) setURL(u string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.jwksURL = u
}

func (j *jwksCache) url() string {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.jwksURL
}

type jwkSet struct {
	Keys []jwk `json:"keys"`
}

type jwk struct {
	Kty string `json:"kty"`
	Kid string `json:"kid"`
	Use string `json:"use"`
	Alg string `json:"alg"`

	N string `json:"n"`
	E string `json:"e"`

	Crv string `json:"crv"`
	X   string `json:"x"`
	Y   string `json:"y"`
}

// getKey serves from cache and refetches on a miss (key rotation) or when stale.
func (j *jwksCache) getKey(ctx context.Context, kid string) (any, error) {
	j.mu.RLock()
	key := j.keys[kid]
	stale := time.Since(j.fetchedAt) > j.ttl
	u := j.jwksURL
	j.mu.RUnlock()

	if key != nil && !stale {
		return key, nil
	}
	if strings.TrimSpace(u) == "" {
		return nil, errors.New("jwks url not set")
	}
	if err := j.refresh(ctx, u); err != nil {
		if key != nil {
			return key, nil
		}
		return nil, err
	}

	j.mu.RLock()
	defer j.mu.RUnlock()
	key = j.keys[kid]
	if key == nil {
		return nil, fmt.Errorf("kid not found in jwks: %s", kid)
	}
	return key, nil
}

func (j *jwksCache) refresh(ctx context.Context, u string) error {
	var set jwkSet
	if err := httpx.GetJSON(ctx, j.httpClient, u, 3, &set); err != nil {
		return fmt.Errorf("jwks fetch: %w", err)
	}

	next := map[string]any{}
	for _, k := range set.Keys {
		if strings.TrimSpace(k.Kid) == "" {
			continue
		}
		switch k.Kty {
		case "RSA":
			if pub, err := rsaFromModExp(k.N, k.E); err == nil {
				next[k.Kid] = pub
			}
		case "EC":
			if pub, err := ecdsaFromXY(k.Crv, k.X, k.Y); err == nil {
				next[k.Kid] = pub
			}
		}
	}
	if len(next) == 0 {
		return fmt.Errorf("jwks contained no usable keys")
	}

	j.mu.Lock()
	j.keys = next
	j.fetchedAt = time.Now()
	j.mu.Unlock()
	return nil
}

func rsaFromModExp(nB64, eB64 string) (*rsa.PublicKey, error) {
	nb, err := base64.RawURLEncoding.DecodeString(nB64)
	if err != nil {
		return nil, err
	}
	eb, err := base64.RawURLEncoding.DecodeString(eB64)
	if err != nil {
		return nil, err
	}
	e := 0
	for _, b := range eb {
		e = e<<8 + int(b)
	}
	if e == 0 {
		return nil, fmt.Errorf("invalid exponent")
	}
	return &rsa.PublicKey{N: new(big.Int).SetBytes(nb), E: e}, nil
}

func ecdsaFromXY(crv, xB64, yB64 string) (*ecdsa.PublicKey, error) {
	if crv != "P-256" {
		return nil, fmt.Errorf("unsupported curve: %s", crv)
	}
	xb, err := base64.RawURLEncoding.DecodeString(xB64)
	if err != nil {
		return nil, err
	}
	yb, err := base64.RawURLEncoding.DecodeString(yB64)
	if err != nil {
		return nil, err
	}
	x := new(big.Int).SetBytes(xb)
	y := new(big.Int).SetBytes(yb)
	curve := elliptic.P256()
	if !curve.IsOnCurve(x, y) {
		return nil, fmt.Errorf("invalid EC point")
	}
	return &ecdsa.PublicKey{Curve: curve, X: x, Y: y}, nil
}
