package external

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/ripac/ripac/internal/domain/audit"
	"github.com/ripac/ripac/internal/domain/org"
	"github.com/ripac/ripac/internal/platform/auth"
	"github.com/ripac/ripac/internal/platform/hospital"
	"github.com/ripac/ripac/pkg/pagination"
)

type Handler struct {
	svc   *Service
	audit *audit.Recorder
}

func NewHandler(svc *Service, rec *audit.Recorder) *Handler {
	return &Handler{svc: svc, audit: rec}
}

// RegisterRoutes mounts the hospital integration API. The group must require
// a session with a selected organization.
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/external/status", h.Status)
	g.GET("/external/paramedics/search", h.SearchParamedics)
	g.POST("/external/paramedics/import", h.ImportParamedic)
	g.GET("/external/patients/search", h.SearchPatients)
	g.POST("/external/patients/import", h.ImportPatient)
}

func orgFromSession(c echo.Context) uuid.UUID {
	return *auth.SessionFromContext(c.Request().Context()).CurrentOrganizationID
}

func (h *Handler) Status(c echo.Context) error {
	st, err := h.svc.Status(c.Request().Context(), orgFromSession(c))
	if errors.Is(err, org.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "organization not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, st)
}

func (h *Handler) SearchParamedics(c echo.Context) error {
	p := pagination.FromContext(c)
	page, err := h.svc.SearchParamedics(c.Request().Context(), orgFromSession(c),
		p.Page, p.Limit, c.QueryParam("q"))
	if err != nil {
		return hospitalHTTPError(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success":    true,
		"data":       page.Data,
		"total":      page.Total,
		"page":       page.Page,
		"limit":      page.Limit,
		"totalPages": page.TotalPages,
	})
}

type importParamedicRequest struct {
	ParamedicCode string `json:"paramedicCode"`
	Name          string `json:"name"`
}

func (h *Handler) ImportParamedic(c echo.Context) error {
	var req importParamedicRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	doctor, created, err := h.svc.ImportParamedic(c.Request().Context(), orgFromSession(c),
		req.ParamedicCode, req.Name)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	h.recordImport(c, "doctor", doctor.ID, created)

	message := "Doctor updated"
	if created {
		message = "Doctor imported"
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"message": message,
		"doctor":  doctor,
	})
}

func (h *Handler) SearchPatients(c echo.Context) error {
	query := c.QueryParam("q")
	if len(query) < 2 {
		return echo.NewHTTPError(http.StatusBadRequest, "search query must be at least 2 characters")
	}
	p := pagination.FromContext(c)

	result, err := h.svc.SearchPatients(c.Request().Context(), orgFromSession(c), query, p.Page, p.Limit)
	if errors.Is(err, org.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "organization not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, result)
}

func (h *Handler) ImportPatient(c echo.Context) error {
	var req ImportPatientInput
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	result, err := h.svc.ImportPatient(c.Request().Context(), orgFromSession(c), req)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	h.recordImport(c, "patient", result.Patient.ID, result.PatientCreated)

	message := "Patient updated"
	if result.PatientCreated {
		message = "Patient imported"
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"message": message,
		"patient": result.Patient,
		"doctor":  result.Doctor,
	})
}

func (h *Handler) recordImport(c echo.Context, entityType string, entityID uuid.UUID, created bool) {
	session := auth.SessionFromContext(c.Request().Context())
	action := audit.ActionUpdate
	if created {
		action = audit.ActionCreate
	}
	h.audit.RecordRequest(c, &audit.Entry{
		UserID:         &session.UserID,
		OrganizationID: session.CurrentOrganizationID,
		Action:         action,
		EntityType:     entityType,
		EntityID:       &entityID,
		Changes:        &audit.Changes{After: map[string]interface{}{"source": "hospital-api"}},
	})
}

// hospitalHTTPError maps integration failures onto response codes: missing
// configuration is the caller's problem, upstream failures are a bad gateway.
func hospitalHTTPError(err error) error {
	switch {
	case errors.Is(err, org.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "organization not found")
	case errors.Is(err, hospital.ErrNotConfigured):
		return echo.NewHTTPError(http.StatusBadRequest, "hospital api not configured for this organization")
	default:
		var authErr *hospital.AuthError
		var reqErr *hospital.RequestError
		if errors.As(err, &authErr) || errors.As(err, &reqErr) {
			return echo.NewHTTPError(http.StatusBadGateway, "hospital api error: "+err.Error())
		}
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}
}
