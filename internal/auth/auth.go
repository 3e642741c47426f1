package auth

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/privasee/privasee/internal/model"
	"github.com/privasee/privasee/internal/transport"
)

// Scopes requested at consent.
var Scopes = []string{
	"https://www.googleapis.com/auth/photoslibrary.readonly",
	"https://www.googleapis.com/auth/userinfo.email",
	"https://www.googleapis.com/auth/userinfo.profile",
	"openid",
}

// DefaultTokenInfoURL validates id tokens.
const DefaultTokenInfoURL = "https://oauth2.googleapis.com/tokeninfo"

var (
	// ErrNotConfigured is returned when client id or secret are missing.
	ErrNotConfigured = errors.New("oauth client is not configured")

	// ErrMissingCode is returned by Exchange for an empty code.
	ErrMissingCode = errors.New("missing authorization code")

	// ErrInvalidIDToken is returned when an id token cannot be verified.
	ErrInvalidIDToken = errors.New("invalid id token")
)

// Tokens is the result of a code exchange.
type Tokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	IDToken      string `json:"id_token,omitempty"`
	TokenType    string `json:"token_type"`
	Scope        string `json:"scope,omitempty"`
	// ExpiryDate is the expiry in Unix milliseconds.
	ExpiryDate int64  `json:"expiry_date,omitempty"`
	UserName   string `json:"user_name"`
}

// Session returns the credential context for a scan.
func (t Tokens) Session() model.Session {
	return model.Session{AccessToken: t.AccessToken, UserName: t.UserName}
}

// Provider wraps the OAuth2 configuration for Google.
type Provider struct {
	cfg          *oauth2.Config
	tokenInfoURL string
	httpClient   *http.Client
	api          *transport.Client
	logger       *slog.Logger
}

// Option configures a Provider.
type Option func(*Provider)

// WithEndpoint overrides the OAuth2 endpoint.
func WithEndpoint(ep oauth2.Endpoint) Option {
	return func(p *Provider) {
		p.cfg.Endpoint = ep
	}
}

// WithTokenInfoURL overrides the id token validation endpoint.
func WithTokenInfoURL(u string) Option {
	return func(p *Provider) {
		if u != "" {
			p.tokenInfoURL = u
		}
	}
}

// WithHTTPClient sets the client used for token requests.
func WithHTTPClient(c *http.Client) Option {
	return func(p *Provider) {
		if c != nil {
			p.httpClient = c
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Provider) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// NewProvider creates a Provider for the given OAuth client.
func NewProvider(clientID, clientSecret, redirectURL string, opts ...Option) (*Provider, error) {
	if clientID == "" || clientSecret == "" {
		return nil, ErrNotConfigured
	}
	p := &Provider{
		cfg: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       Scopes,
			Endpoint:     google.Endpoint,
		},
		tokenInfoURL: DefaultTokenInfoURL,
		httpClient:   &http.Client{Timeout: transport.DefaultTimeout},
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.api = transport.New(
		transport.WithHTTPClient(p.httpClient),
		transport.WithLogger(p.logger),
		transport.WithLogPrefix("auth"),
	)
	return p, nil
}

// AuthURL returns the consent page URL with offline access and forced consent.
func (p *Provider) AuthURL(state string) string {
	return p.cfg.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

// Exchange trades an authorization code for tokens.
func (p *Provider) Exchange(ctx context.Context, code string) (Tokens, error) {
	if strings.TrimSpace(code) == "" {
		return Tokens{}, ErrMissingCode
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)
	tok, err := p.cfg.Exchange(ctx, code)
	if err != nil {
		p.logger.Warn("token exchange failed", "error", err)
		return Tokens{}, fmt.Errorf("exchange code: %w", err)
	}

	out := Tokens{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenType:    tok.TokenType,
	}
	if !tok.Expiry.IsZero() {
		out.ExpiryDate = tok.Expiry.UnixMilli()
	}
	if id, ok := tok.Extra("id_token").(string); ok {
		out.IDToken = id
	}
	if scope, ok := tok.Extra("scope").(string); ok {
		out.Scope = scope
	}
	out.UserName = UserNameFromIDToken(out.IDToken)
	return out, nil
}

// VerifyIDToken validates idToken with the token info endpoint and checks
// that it was issued to this client. It returns the token claims.
func (p *Provider) VerifyIDToken(ctx context.Context, idToken string) (map[string]any, error) {
	if strings.TrimSpace(idToken) == "" {
		return nil, fmt.Errorf("%w: empty token", ErrInvalidIDToken)
	}
	u := p.tokenInfoURL + "?" + url.Values{"id_token": {idToken}}.Encode()

	var claims map[string]any
	if err := p.api.GetJSON(ctx, u, nil, &claims); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidIDToken, err)
	}
	if aud, _ := claims["aud"].(string); aud != p.cfg.ClientID {
		return nil, fmt.Errorf("%w: audience mismatch", ErrInvalidIDToken)
	}
	if exp, ok := claims["exp"].(string); ok {
		var sec int64
		if _, err := fmt.Sscan(exp, &sec); err == nil && time.Unix(sec, 0).Before(time.Now()) {
			return nil, fmt.Errorf("%w: expired", ErrInvalidIDToken)
		}
	}
	return claims, nil
}

// UserNameFromIDToken reads the name claim of a JWT without verifying it.
// It returns model.DefaultUserName when the token or claim is missing.
func UserNameFromIDToken(idToken string) string {
	parts := strings.Split(idToken, ".")
	if len(parts) != 3 {
		return model.DefaultUserName
	}
	payload, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(parts[1], "="))
	if err != nil {
		return model.DefaultUserName
	}
	var claims struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(payload, &claims); err != nil || strings.TrimSpace(claims.Name) == "" {
		return model.DefaultUserName
	}
	return claims.Name
}
