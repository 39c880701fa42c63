package account

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/ripac/ripac/internal/domain/audit"
	"github.com/ripac/ripac/internal/platform/auth"
	"github.com/ripac/ripac/internal/platform/sso"
)

func newHandlerFixture(t *testing.T, issuerURL string) (*fixture, *Handler) {
	t.Helper()
	f := newFixture()
	codec := auth.NewSessionCodec([]byte("0123456789abcdef0123456789abcdef"), time.Hour)
	authn := sso.NewAuthenticator(sso.Config{
		ClientID:     "ripac",
		ClientSecret: "s3cret",
		IssuerURL:    issuerURL,
		RedirectURI:  "https://ripac.example.com/api/auth/sso/callback",
	}, 5*time.Second)
	rec := audit.NewRecorder(nil)
	h := NewHandler(f.svc, codec, authn, rec, false, time.Hour)
	return f, h
}

func TestLoginHandler_InvalidCredentials(t *testing.T) {
	f, h := newHandlerFixture(t, "https://sso.example.com")
	f.addUser(t, "ani@example.com", "rahasia", true)

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/auth/login",
		strings.NewReader(`{"email":"ani@example.com","password":"salah"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	c := e.NewContext(req, httptest.NewRecorder())

	err := h.Login(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", err)
	}
}

func TestLoginHandler_SetsSessionCookie(t *testing.T) {
	f, h := newHandlerFixture(t, "https://sso.example.com")
	u := f.addUser(t, "ani@example.com", "rahasia", true)
	f.addMembership(u.ID, "RSIA", "rsia")

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/auth/login",
		strings.NewReader(`{"email":"ani@example.com","password":"rahasia"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.Login(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var sessionCookie *http.Cookie
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == auth.SessionCookieName {
			sessionCookie = ck
		}
	}
	if sessionCookie == nil {
		t.Fatal("expected session cookie to be set")
	}
	if !sessionCookie.HttpOnly {
		t.Error("session cookie must be http-only")
	}

	var body map[string]json.RawMessage
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if _, ok := body["user"]; !ok {
		t.Error("expected user in response")
	}
}

func TestSSOCallback_StateMismatchSkipsExchange(t *testing.T) {
	exchanges := 0
	idp := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/token" {
			exchanges++
		}
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer idp.Close()

	_, h := newHandlerFixture(t, idp.URL)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/auth/sso/callback?code=c&state=forged", nil)
	req.AddCookie(&http.Cookie{Name: sso.StateCookie, Value: "real-state"})
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := h.SSOCallback(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
	if exchanges != 0 {
		t.Error("state mismatch must reject before any code exchange")
	}
}

func TestSSOCallback_ClearsFlowCookies(t *testing.T) {
	_, h := newHandlerFixture(t, "https://sso.example.com")

	e := echo.New()
	// Provider-reported error still clears the single-use cookies.
	req := httptest.NewRequest(http.MethodGet, "/auth/sso/callback?error=access_denied", nil)
	req.AddCookie(&http.Cookie{Name: sso.StateCookie, Value: "s"})
	req.AddCookie(&http.Cookie{Name: sso.NonceCookie, Value: "n"})
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	_ = h.SSOCallback(c)

	cleared := map[string]bool{}
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == sso.StateCookie || ck.Name == sso.NonceCookie {
			if ck.MaxAge < 0 {
				cleared[ck.Name] = true
			}
		}
	}
	if !cleared[sso.StateCookie] || !cleared[sso.NonceCookie] {
		t.Errorf("expected both flow cookies cleared, got %v", cleared)
	}
}

func TestBeginSSO_SetsCookiesAndRedirects(t *testing.T) {
	_, h := newHandlerFixture(t, "https://sso.example.com")

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/auth/sso", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.BeginSSO(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusFound {
		t.Errorf("expected redirect, got %d", rec.Code)
	}
	location := rec.Header().Get("Location")
	if !strings.HasPrefix(location, "https://sso.example.com/authorize?") {
		t.Errorf("unexpected redirect target %q", location)
	}

	names := map[string]bool{}
	for _, ck := range rec.Result().Cookies() {
		names[ck.Name] = ck.HttpOnly
	}
	if !names[sso.StateCookie] || !names[sso.NonceCookie] {
		t.Errorf("expected http-only state and nonce cookies, got %v", names)
	}
}

func TestLogout_ClearsSessionCookie(t *testing.T) {
	f, h := newHandlerFixture(t, "https://sso.example.com")
	u := f.addUser(t, "ani@example.com", "rahasia", true)

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	req = req.WithContext(auth.ContextWithSession(req.Context(), &auth.Session{UserID: u.ID}))
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.Logout(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var cleared bool
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == auth.SessionCookieName && ck.MaxAge < 0 {
			cleared = true
		}
	}
	if !cleared {
		t.Error("expected session cookie to be cleared")
	}
}

func TestSwitchOrgHandler_Forbidden(t *testing.T) {
	f, h := newHandlerFixture(t, "https://sso.example.com")
	u := f.addUser(t, "ani@example.com", "rahasia", true)

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/auth/switch-org",
		strings.NewReader(`{"organizationId":"5e0cf1f6-5e7d-4f1a-9d7a-111111111111"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req = req.WithContext(auth.ContextWithSession(req.Context(), &auth.Session{UserID: u.ID}))
	c := e.NewContext(req, httptest.NewRecorder())

	err := h.SwitchOrganization(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %v", err)
	}
}
