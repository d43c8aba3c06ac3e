package enrollment

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/rehab/rehab/internal/platform/apperr"
	"github.com/rehab/rehab/internal/platform/auth"
	"github.com/rehab/rehab/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	staff := auth.RequireRole(auth.RoleAdmin, auth.RoleClinician)

	g := api.Group("/enrollments", staff)
	g.POST("", h.EnrollPatient)
	g.GET("/:id", h.GetEnrollment)
	g.POST("/:id/drop", h.DropEnrollment)

	api.GET("/programs/:id/enrollments", h.ListProgramEnrollments, staff)
	api.GET("/patients/:id/enrollments", h.ListPatientEnrollments, staff)
	api.PUT("/patients/:id/category", h.AssignCategory, staff)
	api.GET("/patients/:id/category", h.GetPatientCategory, staff)
}

type enrollRequest struct {
	PatientID uuid.UUID `json:"patient_id" validate:"required"`
	ProgramID uuid.UUID `json:"program_id" validate:"required"`
}

func (h *Handler) EnrollPatient(c echo.Context) error {
	var req enrollRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	e, err := h.svc.EnrollPatient(c.Request().Context(), req.PatientID, req.ProgramID)
	if err != nil {
		return echo.NewHTTPError(apperr.HTTPStatus(err), apperr.MessageOf(err))
	}
	return c.JSON(http.StatusCreated, e)
}

func (h *Handler) GetEnrollment(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	e, err := h.svc.GetEnrollment(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(apperr.HTTPStatus(err), apperr.MessageOf(err))
	}
	return c.JSON(http.StatusOK, e)
}

func (h *Handler) DropEnrollment(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.DropEnrollment(c.Request().Context(), id); err != nil {
		return echo.NewHTTPError(apperr.HTTPStatus(err), apperr.MessageOf(err))
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) ListProgramEnrollments(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListProgramEnrollments(c.Request().Context(), id, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(apperr.HTTPStatus(err), apperr.MessageOf(err))
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

type assignCategoryRequest struct {
	CategoryID uuid.UUID `json:"category_id" validate:"required"`
}

func (h *Handler) AssignCategory(c echo.Context) error {
	patientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req assignCategoryRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	created, err := h.svc.AssignCategory(c.Request().Context(), patientID, req.CategoryID)
	if err != nil {
		return echo.NewHTTPError(apperr.HTTPStatus(err), apperr.MessageOf(err))
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"category_id":         req.CategoryID,
		"created_enrollments": created,
	})
}

func (h *Handler) GetPatientCategory(c echo.Context) error {
	patientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	pc, err := h.svc.AssignedCategory(c.Request().Context(), patientID)
	if err != nil {
		return echo.NewHTTPError(apperr.HTTPStatus(err), apperr.MessageOf(err))
	}
	if pc == nil {
		return echo.NewHTTPError(http.StatusNotFound, "patient has no category")
	}
	return c.JSON(http.StatusOK, pc)
}

func (h *Handler) ListPatientEnrollments(c echo.Context) error {
	patientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	items, err := h.svc.ListPatientEnrollments(c.Request().Context(), patientID)
	if err != nil {
		return echo.NewHTTPError(apperr.HTTPStatus(err), apperr.MessageOf(err))
	}
	return c.JSON(http.StatusOK, items)
}
