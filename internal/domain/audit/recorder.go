package audit

import (
	"context"
	"net"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// Recorder writes audit entries. A failed write must never fail the request
// it describes; errors are logged and swallowed.
type Recorder struct {
	repo Repository
}

func NewRecorder(repo Repository) *Recorder {
	return &Recorder{repo: repo}
}

// Record persists an entry, best effort.
func (r *Recorder) Record(ctx context.Context, e *Entry) {
	if r == nil || r.repo == nil {
		return
	}
	if err := r.repo.Insert(ctx, e); err != nil {
		log.Warn().Err(err).
			Str("action", e.Action).
			Str("entity_type", e.EntityType).
			Msg("failed to write audit log")
	}
}

// RecordRequest persists an entry enriched with the request's client address
// and user agent.
func (r *Recorder) RecordRequest(c echo.Context, e *Entry) {
	e.IPAddress = ClientIP(c)
	e.UserAgent = c.Request().UserAgent()
	r.Record(c.Request().Context(), e)
}

// ClientIP resolves the originating client address, preferring proxy headers.
func ClientIP(c echo.Context) string {
	if xff := c.Request().Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		return strings.TrimSpace(parts[0])
	}
	if rip := c.Request().Header.Get("X-Real-IP"); rip != "" {
		return rip
	}
	host, _, err := net.SplitHostPort(c.Request().RemoteAddr)
	if err != nil {
		return c.Request().RemoteAddr
	}
	return host
}
