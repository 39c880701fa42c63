package hospital

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// DefaultTokenTTL is assumed when the upstream login response carries no
// expiry hint.
const DefaultTokenTTL = 12 * time.Hour

// Credentials identify one upstream hospital system. The base URL comes from
// the organization's settings; username and password are process-wide.
type Credentials struct {
	BaseURL  string
	Username string
	Password string
}

// Paramedic is a practitioner record as the upstream hospital system returns it.
type Paramedic struct {
	ParamedicID   int    `json:"ParamedicID"`
	ParamedicCode string `json:"ParamedicCode"`
	Name          string `json:"Name"`
	LicenseNo     string `json:"LicenseNo"`
}

// PatientRegistration is one visit/registration row from the upstream system.
type PatientRegistration struct {
	RegistrationNo      string `json:"RegistrationNo"`
	RegistrationDate    string `json:"RegistrationDate"`
	ServiceUnitCode     string `json:"ServiceUnitCode"`
	ServiceUnitName     string `json:"ServiceUnitName"`
	BusinessPartnerCode string `json:"BusinessPartnerCode"`
	BusinessPartnerName string `json:"BusinessPartnerName"`
	MedicalNo           string `json:"MedicalNo"`
	PatientName         string `json:"PatientName"`
	PatientAddress      string `json:"PatientAddress"`
	NoTelp              string `json:"NoTelp"`
	ParamedicCode       string `json:"ParamedicCode"`
	ParamedicName       string `json:"ParamedicName"`
}

// Page is the paginated envelope the upstream system wraps list responses in.
type Page[T any] struct {
	Data       []T `json:"data"`
	Total      int `json:"total"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalPages int `json:"totalPages"`
}

// Client talks to one upstream hospital system. It logs in lazily, shares
// tokens through the cache, and retries exactly once on 401.
type Client struct {
	creds Credentials
	cache TokenCache
	http  *http.Client
}

// NewClient builds a Client. The cache may be shared across clients; tokens
// are keyed by base URL.
func NewClient(creds Credentials, cache TokenCache, timeout time.Duration) *Client {
	return &Client{
		creds: creds,
		cache: cache,
		http:  &http.Client{Timeout: timeout},
	}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// loginResponse covers the token field variants seen across upstream
// deployments. Extraction order: token, accessToken, data.token.
type loginResponse struct {
	Token       string `json:"token"`
	AccessToken string `json:"accessToken"`
	ExpiresIn   int64  `json:"expiresIn"`
	ExpiresInS  int64  `json:"expires_in"`
	Data        struct {
		Token string `json:"token"`
	} `json:"data"`
}

func (r *loginResponse) token() string {
	switch {
	case r.Token != "":
		return r.Token
	case r.AccessToken != "":
		return r.AccessToken
	default:
		return r.Data.Token
	}
}

func (r *loginResponse) ttl() time.Duration {
	if r.ExpiresIn > 0 {
		return time.Duration(r.ExpiresIn) * time.Second
	}
	if r.ExpiresInS > 0 {
		return time.Duration(r.ExpiresInS) * time.Second
	}
	return DefaultTokenTTL
}

// login authenticates against the upstream system and caches the token.
func (c *Client) login(ctx context.Context) (string, error) {
	log.Debug().Str("base_url", c.creds.BaseURL).Msg("authenticating with hospital api")

	body, err := json.Marshal(loginRequest{Username: c.creds.Username, Password: c.creds.Password})
	if err != nil {
		return "", fmt.Errorf("encode login request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.creds.BaseURL+"/auth/login", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("hospital api login: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read login response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &AuthError{Status: resp.StatusCode, Body: truncateBody(string(raw))}
	}

	var lr loginResponse
	if err := json.Unmarshal(raw, &lr); err != nil {
		return "", fmt.Errorf("decode login response: %w", err)
	}

	token := lr.token()
	if token == "" {
		return "", &AuthError{Status: resp.StatusCode, Body: "authentication succeeded but no token received"}
	}

	c.cache.Put(c.creds.BaseURL, token, lr.ttl())
	return token, nil
}

// getToken returns a cached token or logs in for a fresh one.
func (c *Client) getToken(ctx context.Context) (string, error) {
	if token, ok := c.cache.Get(c.creds.BaseURL); ok {
		return token, nil
	}
	return c.login(ctx)
}

// get performs an authenticated GET against the upstream system. On 401 it
// drops the cached token, logs in again, and retries the request exactly
// once; a second 401 surfaces as an AuthError.
func (c *Client) get(ctx context.Context, endpoint string) ([]byte, error) {
	token, err := c.getToken(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := c.doGet(ctx, endpoint, token)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusUnauthorized {
		resp.Body.Close()
		log.Warn().Str("base_url", c.creds.BaseURL).Msg("hospital api token rejected, re-authenticating")
		c.cache.Invalidate(c.creds.BaseURL)

		token, err = c.login(ctx)
		if err != nil {
			return nil, err
		}
		resp, err = c.doGet(ctx, endpoint, token)
		if err != nil {
			return nil, err
		}
	}
	defer resp.Body.Close()

	raw, readErr := io.ReadAll(resp.Body)

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, &AuthError{Status: resp.StatusCode, Body: truncateBody(string(raw))}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &RequestError{
			Status: resp.StatusCode,
			Reason: http.StatusText(resp.StatusCode),
			Body:   truncateBody(string(raw)),
		}
	}
	if readErr != nil {
		return nil, fmt.Errorf("read hospital api response: %w", readErr)
	}
	return raw, nil
}

func (c *Client) doGet(ctx context.Context, endpoint, token string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.creds.BaseURL+endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build hospital api request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("hospital api request: %w", err)
	}
	return resp, nil
}

func getPage[T any](ctx context.Context, c *Client, endpoint string) (*Page[T], error) {
	raw, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, err
	}
	var page Page[T]
	if err := json.Unmarshal(raw, &page); err != nil {
		return nil, fmt.Errorf("decode hospital api response: %w", err)
	}
	return &page, nil
}

// ListParamedics fetches a page of practitioners, optionally filtered by a
// search term.
func (c *Client) ListParamedics(ctx context.Context, page, limit int, search string) (*Page[Paramedic], error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("limit", strconv.Itoa(limit))
	if strings.TrimSpace(search) != "" {
		q.Set("search", search)
	}
	return getPage[Paramedic](ctx, c, "/paramedic/list?"+q.Encode())
}

// SearchRegistrations searches patient registrations by name, medical record
// number, or registration number.
func (c *Client) SearchRegistrations(ctx context.Context, query string, page, limit int) (*Page[PatientRegistration], error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("limit", strconv.Itoa(limit))
	q.Set("search", query)
	return getPage[PatientRegistration](ctx, c, "/registration/list?"+q.Encode())
}

// PatientRegistrations fetches all registrations for one patient. The
// upstream system has no dedicated endpoint; searching by medical record
// number returns that patient's visits.
func (c *Client) PatientRegistrations(ctx context.Context, mrNumber string, page, limit int) (*Page[PatientRegistration], error) {
	return c.SearchRegistrations(ctx, mrNumber, page, limit)
}
