package audit

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ripac/ripac/internal/platform/auth"
	"github.com/ripac/ripac/pkg/pagination"
)

type Handler struct {
	repo Repository
}

func NewHandler(repo Repository) *Handler {
	return &Handler{repo: repo}
}

// RegisterRoutes mounts the audit trail listing. The group must require a
// session with a selected organization.
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/audit-logs", h.List)
}

func (h *Handler) List(c echo.Context) error {
	session := auth.SessionFromContext(c.Request().Context())
	p := pagination.FromContext(c)

	entries, total, err := h.repo.ListByOrganization(c.Request().Context(),
		*session.CurrentOrganizationID, p.Limit, p.Offset())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(entries, total, p))
}
