// Package sso implements the authorization-code login flow against the
// company identity provider.
package sso

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Cookie names and lifetime for the in-flight login state. Both cookies are
// single use: the callback clears them whether or not validation passes.
const (
	StateCookie   = "sso_state"
	NonceCookie   = "sso_nonce"
	FlowCookieTTL = 10 * time.Minute
)

// ProviderID labels identities issued by the company identity provider.
const ProviderID = "company-sso"

var (
	// ErrStateMismatch means the callback state does not match the cookie.
	// Treated as a CSRF attempt; no code exchange happens.
	ErrStateMismatch = errors.New("invalid state parameter")
	// ErrNonceMismatch means the id_token nonce does not match the cookie.
	// Treated as a replay attempt.
	ErrNonceMismatch = errors.New("invalid nonce")
	// ErrMissingParams means the callback lacks code or state.
	ErrMissingParams = errors.New("missing authorization code or state")
	// ErrNotConfigured means the provider settings are absent.
	ErrNotConfigured = errors.New("sso is not configured")
)

// ProviderError carries an error the identity provider sent back on the
// callback redirect.
type ProviderError struct {
	Code        string
	Description string
}

func (e *ProviderError) Error() string {
	if e.Description != "" {
		return fmt.Sprintf("sso login failed: %s", e.Description)
	}
	return fmt.Sprintf("sso login failed: %s", e.Code)
}

// Config holds the registered client settings for the identity provider.
type Config struct {
	ClientID     string
	ClientSecret string
	IssuerURL    string
	RedirectURI  string
}

func (c Config) configured() bool {
	return c.ClientID != "" && c.IssuerURL != ""
}

// Flow is one in-flight login attempt. State and Nonce go into cookies;
// AuthURL is where the browser is sent.
type Flow struct {
	State   string
	Nonce   string
	AuthURL string
}

// Identity is what the provider asserts about the user, taken from the
// id_token payload.
type Identity struct {
	Subject           string `json:"sub"`
	Email             string `json:"email"`
	Name              string `json:"name"`
	PreferredUsername string `json:"preferred_username"`
	Nonce             string `json:"nonce"`
}

// DisplayName picks the best available human-readable name.
func (id *Identity) DisplayName() string {
	switch {
	case id.Name != "":
		return id.Name
	case id.PreferredUsername != "":
		return id.PreferredUsername
	default:
		return id.Email
	}
}

// CallbackParams are the query parameters the provider redirects back with.
type CallbackParams struct {
	Code             string
	State            string
	Error            string
	ErrorDescription string
}

// Authenticator drives the login flow: Begin builds the redirect, Validate
// checks the callback, Exchange turns the code into an Identity.
type Authenticator struct {
	cfg      Config
	http     *http.Client
	randomID func() string
}

func NewAuthenticator(cfg Config, timeout time.Duration) *Authenticator {
	return &Authenticator{
		cfg:      cfg,
		http:     &http.Client{Timeout: timeout},
		randomID: uuid.NewString,
	}
}

// Begin starts a login attempt with fresh state and nonce values.
func (a *Authenticator) Begin() (*Flow, error) {
	if !a.cfg.configured() {
		return nil, ErrNotConfigured
	}

	state := a.randomID()
	nonce := a.randomID()

	q := url.Values{}
	q.Set("client_id", a.cfg.ClientID)
	q.Set("response_type", "code")
	q.Set("redirect_uri", a.cfg.RedirectURI)
	q.Set("scope", "openid profile email")
	q.Set("state", state)
	q.Set("nonce", nonce)

	return &Flow{
		State:   state,
		Nonce:   nonce,
		AuthURL: a.cfg.IssuerURL + "/authorize?" + q.Encode(),
	}, nil
}

// Validate checks the callback parameters against the state cookie. It must
// pass before any code exchange; a state mismatch means the callback was not
// initiated by this session.
func (a *Authenticator) Validate(p CallbackParams, cookieState string) error {
	if p.Error != "" {
		return &ProviderError{Code: p.Error, Description: p.ErrorDescription}
	}
	if p.Code == "" || p.State == "" {
		return ErrMissingParams
	}
	if p.State != cookieState {
		return ErrStateMismatch
	}
	return nil
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	IDToken     string `json:"id_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// Exchange trades the authorization code for tokens and decodes the id_token
// into an Identity. The payload is decoded without signature verification:
// the token arrives over the direct TLS channel to the provider's token
// endpoint, not through the browser.
func (a *Authenticator) Exchange(ctx context.Context, code string) (*Identity, error) {
	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("client_id", a.cfg.ClientID)
	form.Set("client_secret", a.cfg.ClientSecret)
	form.Set("code", code)
	form.Set("redirect_uri", a.cfg.RedirectURI)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.cfg.IssuerURL+"/token", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := a.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token exchange: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read token response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("token exchange failed (status %d)", resp.StatusCode)
	}

	var tr tokenResponse
	if err := json.Unmarshal(raw, &tr); err != nil {
		return nil, fmt.Errorf("decode token response: %w", err)
	}
	if tr.IDToken == "" {
		return nil, errors.New("token response missing id_token")
	}

	return decodeIDToken(tr.IDToken)
}

// VerifyNonce compares the id_token nonce against the cookie value. The check
// is skipped when no nonce cookie survived the redirect.
func (a *Authenticator) VerifyNonce(id *Identity, cookieNonce string) error {
	if cookieNonce != "" && id.Nonce != cookieNonce {
		return ErrNonceMismatch
	}
	return nil
}

// decodeIDToken extracts the claims payload from a compact JWT without
// verifying the signature.
func decodeIDToken(token string) (*Identity, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return nil, errors.New("invalid id_token format")
	}
	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return nil, fmt.Errorf("decode id_token payload: %w", err)
	}
	var id Identity
	if err := json.Unmarshal(payload, &id); err != nil {
		return nil, fmt.Errorf("parse id_token claims: %w", err)
	}
	if id.Subject == "" {
		return nil, errors.New("id_token missing sub claim")
	}
	return &id, nil
}
