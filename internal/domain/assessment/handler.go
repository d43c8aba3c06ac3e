package assessment

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/rehab/rehab/internal/platform/apperr"
	"github.com/rehab/rehab/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/my/assessments/:id/questions", h.MyAssessmentQuestions)
	api.POST("/my/assessments/:id/attempts", h.SubmitAttempt)
	api.GET("/my/assessments/:id/attempts", h.MyAttempts)
	api.GET("/my/attempts/:id", h.GetAttempt)

	staff := auth.RequireRole(auth.RoleAdmin, auth.RoleClinician)
	api.GET("/attempts/:id", h.GetAttemptForReview, staff)
}

func (h *Handler) principal(c echo.Context) (uuid.UUID, error) {
	p, err := auth.PrincipalFromContext(c.Request().Context())
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(apperr.HTTPStatus(err), apperr.MessageOf(err))
	}
	return p.ID, nil
}

func (h *Handler) MyAssessmentQuestions(c echo.Context) error {
	patientID, err := h.principal(c)
	if err != nil {
		return err
	}
	assessmentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	items, err := h.svc.Questions(c.Request().Context(), patientID, assessmentID)
	if err != nil {
		return echo.NewHTTPError(apperr.HTTPStatus(err), apperr.MessageOf(err))
	}
	return c.JSON(http.StatusOK, items)
}

type submitRequest struct {
	Answers []Answer `json:"answers" validate:"required,min=1"`
}

func (h *Handler) SubmitAttempt(c echo.Context) error {
	patientID, err := h.principal(c)
	if err != nil {
		return err
	}
	assessmentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req submitRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	result, err := h.svc.SubmitAttempt(c.Request().Context(), patientID, assessmentID, req.Answers)
	if err != nil {
		return echo.NewHTTPError(apperr.HTTPStatus(err), apperr.MessageOf(err))
	}
	return c.JSON(http.StatusCreated, result)
}

func (h *Handler) MyAttempts(c echo.Context) error {
	patientID, err := h.principal(c)
	if err != nil {
		return err
	}
	assessmentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	items, err := h.svc.ListAttempts(c.Request().Context(), patientID, assessmentID)
	if err != nil {
		return echo.NewHTTPError(apperr.HTTPStatus(err), apperr.MessageOf(err))
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) GetAttempt(c echo.Context) error {
	patientID, err := h.principal(c)
	if err != nil {
		return err
	}
	attemptID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	result, err := h.svc.GetAttempt(c.Request().Context(), patientID, attemptID)
	if err != nil {
		return echo.NewHTTPError(apperr.HTTPStatus(err), apperr.MessageOf(err))
	}
	return c.JSON(http.StatusOK, result)
}

// GetAttemptForReview is the staff view of an attempt; text responses awaiting
// manual review are read here.
func (h *Handler) GetAttemptForReview(c echo.Context) error {
	attemptID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	result, err := h.svc.GetAttemptForReview(c.Request().Context(), attemptID)
	if err != nil {
		return echo.NewHTTPError(apperr.HTTPStatus(err), apperr.MessageOf(err))
	}
	return c.JSON(http.StatusOK, result)
}
