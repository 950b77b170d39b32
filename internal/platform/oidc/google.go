package oidc

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// Tokens is what the session cookies carry.
type Tokens struct {
	IDToken      string
	RefreshToken string
	Expiry       time.Time
}

// Provider drives the authorization code flow.
type Provider interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*Tokens, error)
	Refresh(ctx context.Context, refreshToken string) (*Tokens, error)
}

var ErrNoIDToken = errors.New("oidc: token response has no id_token")

type GoogleConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	// Endpoint overrides google.Endpoint.
	Endpoint   *oauth2.Endpoint
	HTTPClient *http.Client
}

type googleProvider struct {
	cfg        *oauth2.Config
	httpClient *http.Client
}

func NewGoogleProvider(c GoogleConfig) (Provider, error) {
	if strings.TrimSpace(c.ClientID) == "" || strings.TrimSpace(c.ClientSecret) == "" {
		return nil, fmt.Errorf("GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET are required")
	}
	if strings.TrimSpace(c.RedirectURL) == "" {
		return nil, fmt.Errorf("GOOGLE_REDIRECT_URL is required")
	}
	endpoint := google.Endpoint
	if c.Endpoint != nil {
		endpoint = *c.Endpoint
	}
	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &googleProvider{
		cfg: &oauth2.Config{
			ClientID:     c.ClientID,
			ClientSecret: c.ClientSecret,
			RedirectURL:  c.RedirectURL,
			Endpoint:     endpoint,
			Scopes:       []string{"openid", "email", "profile"},
		},
		httpClient: httpClient,
	}, nil
}

func (p *googleProvider) ctx(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)
}

// AuthCodeURL asks for offline access so the callback receives a refresh token.
func (p *googleProvider) AuthCodeURL(state string) string {
	return p.cfg.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.SetAuthURLParam("prompt", "consent"))
}

func (p *googleProvider) Exchange(ctx context.Context, code string) (*Tokens, error) {
	if strings.TrimSpace(code) == "" {
		return nil, fmt.Errorf("oauth exchange: empty code")
	}
	tok, err := p.cfg.Exchange(p.ctx(ctx), code)
	if err != nil {
		return nil, fmt.Errorf("oauth exchange: %w", err)
	}
	return fromOAuth(tok, "")
}

// Refresh keeps the old refresh token when the response does not rotate it.
func (p *googleProvider) Refresh(ctx context.Context, refreshToken string) (*Tokens, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return nil, fmt.Errorf("oauth refresh: empty refresh token")
	}
	src := p.cfg.TokenSource(p.ctx(ctx), &oauth2.Token{RefreshToken: refreshToken})
	tok, err := src.Token()
	if err != nil {
		return nil, fmt.Errorf("oauth refresh: %w", err)
	}
	return fromOAuth(tok, refreshToken)
}

func fromOAuth(tok *oauth2.Token, fallbackRefresh string) (*Tokens, error) {
	idToken, _ := tok.Extra("id_token").(string)
	if idToken == "" {
		return nil, ErrNoIDToken
	}
	out := &Tokens{IDToken: idToken, RefreshToken: tok.RefreshToken, Expiry: tok.Expiry}
	if out.RefreshToken == "" {
		out.RefreshToken = fallbackRefresh
	}
	return out, nil
}
