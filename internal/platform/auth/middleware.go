package auth

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
)

type contextKey string

const sessionKey contextKey = "session"

// RequireSession returns middleware that authenticates requests via the
// session cookie. Requests without a valid session get 401.
func RequireSession(codec *SessionCodec) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cookie, err := c.Cookie(SessionCookieName)
			if err != nil || cookie.Value == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
			}

			session, err := codec.Decode(cookie.Value)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
			}

			ctx := context.WithValue(c.Request().Context(), sessionKey, session)
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}

// RequireSuperadmin returns middleware that rejects non-superadmin sessions.
// It must run after RequireSession.
func RequireSuperadmin() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			session := SessionFromContext(c.Request().Context())
			if session == nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
			}
			if !session.IsSuperadmin {
				return echo.NewHTTPError(http.StatusForbidden, "superadmin access required")
			}
			return next(c)
		}
	}
}

// RequireOrganization returns middleware that rejects sessions without a
// selected organization. It must run after RequireSession.
func RequireOrganization() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			session := SessionFromContext(c.Request().Context())
			if session == nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
			}
			if session.CurrentOrganizationID == nil {
				return echo.NewHTTPError(http.StatusBadRequest, "no organization selected")
			}
			return next(c)
		}
	}
}

// SessionFromContext retrieves the authenticated session, or nil.
func SessionFromContext(ctx context.Context) *Session {
	s, _ := ctx.Value(sessionKey).(*Session)
	return s
}

// ContextWithSession injects a session, primarily for tests.
func ContextWithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionKey, s)
}
