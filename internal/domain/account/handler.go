package account

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/ripac/ripac/internal/domain/audit"
	"github.com/ripac/ripac/internal/platform/auth"
	"github.com/ripac/ripac/internal/platform/sso"
)

type Handler struct {
	svc        *Service
	codec      *auth.SessionCodec
	authn      *sso.Authenticator
	audit      *audit.Recorder
	secure     bool
	sessionTTL time.Duration
}

func NewHandler(svc *Service, codec *auth.SessionCodec, authn *sso.Authenticator, rec *audit.Recorder, secure bool, sessionTTL time.Duration) *Handler {
	return &Handler{svc: svc, codec: codec, authn: authn, audit: rec, secure: secure, sessionTTL: sessionTTL}
}

// RegisterRoutes mounts the authentication API. public is unauthenticated;
// authed must carry RequireSession.
func (h *Handler) RegisterRoutes(public, authed *echo.Group) {
	public.POST("/auth/login", h.Login)
	public.GET("/auth/sso", h.BeginSSO)
	public.GET("/auth/sso/callback", h.SSOCallback)

	authed.GET("/auth/me", h.Me)
	authed.POST("/auth/logout", h.Logout)
	authed.POST("/auth/switch-org", h.SwitchOrganization)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.Email == "" || req.Password == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "email and password are required")
	}

	session, profile, err := h.svc.Login(c.Request().Context(), req.Email, req.Password)
	switch {
	case errors.Is(err, ErrInvalidCredentials):
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid email or password")
	case errors.Is(err, ErrSSOOnly):
		return echo.NewHTTPError(http.StatusUnauthorized, "this account uses sso login, use the sso login button")
	case errors.Is(err, ErrInactive):
		return echo.NewHTTPError(http.StatusForbidden, "your account has been deactivated, contact an administrator")
	case err != nil:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if err := h.issueSession(c, session); err != nil {
		return err
	}

	h.audit.RecordRequest(c, &audit.Entry{
		UserID:         &session.UserID,
		OrganizationID: session.CurrentOrganizationID,
		Action:         audit.ActionLogin,
		EntityType:     "user",
		EntityID:       &session.UserID,
	})

	return c.JSON(http.StatusOK, map[string]interface{}{
		"user":    profile,
		"message": "Login successful",
	})
}

func (h *Handler) Me(c echo.Context) error {
	session := auth.SessionFromContext(c.Request().Context())
	profile, err := h.svc.Profile(c.Request().Context(), session.UserID)
	if errors.Is(err, ErrNotFound) {
		return echo.NewHTTPError(http.StatusUnauthorized, "user not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"user":                    profile,
		"currentOrganizationId":   session.CurrentOrganizationID,
		"currentOrganizationSlug": session.CurrentOrganizationSlug,
	})
}

func (h *Handler) Logout(c echo.Context) error {
	session := auth.SessionFromContext(c.Request().Context())

	h.audit.RecordRequest(c, &audit.Entry{
		UserID:         &session.UserID,
		OrganizationID: session.CurrentOrganizationID,
		Action:         audit.ActionLogout,
		EntityType:     "user",
		EntityID:       &session.UserID,
	})

	auth.ClearSessionCookie(c, h.secure)
	return c.JSON(http.StatusOK, map[string]string{"message": "Logged out"})
}

type switchOrgRequest struct {
	OrganizationID uuid.UUID `json:"organizationId"`
}

func (h *Handler) SwitchOrganization(c echo.Context) error {
	session := auth.SessionFromContext(c.Request().Context())

	var req switchOrgRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.OrganizationID == uuid.Nil {
		return echo.NewHTTPError(http.StatusBadRequest, "organizationId is required")
	}

	next, err := h.svc.SwitchOrganization(c.Request().Context(), session, req.OrganizationID)
	switch {
	case errors.Is(err, ErrNotMember):
		return echo.NewHTTPError(http.StatusForbidden, "you do not have access to this organization")
	case errors.Is(err, ErrOrgNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "organization not found")
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusUnauthorized, "user not found")
	case err != nil:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if err := h.issueSession(c, next); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"message":                 "Organization switched successfully",
		"currentOrganizationId":   next.CurrentOrganizationID,
		"currentOrganizationSlug": next.CurrentOrganizationSlug,
	})
}

// BeginSSO starts the provider login flow: fresh state and nonce cookies,
// then a redirect to the authorization endpoint.
func (h *Handler) BeginSSO(c echo.Context) error {
	flow, err := h.authn.Begin()
	if errors.Is(err, sso.ErrNotConfigured) {
		return echo.NewHTTPError(http.StatusInternalServerError, "sso is not configured")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	auth.SetFlowCookie(c, sso.StateCookie, flow.State, sso.FlowCookieTTL, h.secure)
	auth.SetFlowCookie(c, sso.NonceCookie, flow.Nonce, sso.FlowCookieTTL, h.secure)

	return c.Redirect(http.StatusFound, flow.AuthURL)
}

// SSOCallback completes the provider login flow. The state and nonce cookies
// are single use and cleared before any validation outcome is returned.
func (h *Handler) SSOCallback(c echo.Context) error {
	params := sso.CallbackParams{
		Code:             c.QueryParam("code"),
		State:            c.QueryParam("state"),
		Error:            c.QueryParam("error"),
		ErrorDescription: c.QueryParam("error_description"),
	}
	cookieState := auth.FlowCookieValue(c, sso.StateCookie)
	cookieNonce := auth.FlowCookieValue(c, sso.NonceCookie)

	auth.ClearFlowCookie(c, sso.StateCookie, h.secure)
	auth.ClearFlowCookie(c, sso.NonceCookie, h.secure)

	if err := h.authn.Validate(params, cookieState); err != nil {
		log.Warn().Err(err).Msg("sso callback rejected")
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	identity, err := h.authn.Exchange(c.Request().Context(), params.Code)
	if err != nil {
		log.Error().Err(err).Msg("sso token exchange failed")
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to complete sso login, please try again")
	}

	if err := h.authn.VerifyNonce(identity, cookieNonce); err != nil {
		log.Warn().Err(err).Msg("sso nonce verification failed")
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	session, profile, err := h.svc.CompleteSSOLogin(c.Request().Context(), identity)
	if errors.Is(err, ErrInactive) {
		return echo.NewHTTPError(http.StatusForbidden, "your account has been deactivated, contact an administrator")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if err := h.issueSession(c, session); err != nil {
		return err
	}

	h.audit.RecordRequest(c, &audit.Entry{
		UserID:         &session.UserID,
		OrganizationID: session.CurrentOrganizationID,
		Action:         audit.ActionLogin,
		EntityType:     "user",
		EntityID:       &session.UserID,
		Changes:        &audit.Changes{After: map[string]interface{}{"method": "sso"}},
	})

	if len(profile.Organizations) > 0 {
		return c.Redirect(http.StatusFound, "/org/"+profile.Organizations[0].Slug)
	}
	return c.Redirect(http.StatusFound, "/")
}

func (h *Handler) issueSession(c echo.Context, s *auth.Session) error {
	token, err := h.codec.Encode(s)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to issue session")
	}
	auth.SetSessionCookie(c, token, h.sessionTTL, h.secure)
	return nil
}
