package progress

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

// RegisterRoutes mounts the patient self-service progress surface.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/my/programs", h.MyPrograms)
	api.GET("/my/programs/:id/modules", h.MyProgramModules)
	api.GET("/my/programs/:id/completion", h.MyProgramCompletion)
	api.GET("/my/modules/:id/content", h.MyModuleContent)
	api.POST("/my/modules/:id/access", h.AccessModule)
	api.POST("/my/modules/:id/complete", h.CompleteModule)
}

func (h *Handler) principal(c echo.Context) (uuid.UUID, error) {
	p, err := auth.PrincipalFromContext(c.Request().Context())
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(apperr.HTTPStatus(err), apperr.MessageOf(err))
	}
	return p.ID, nil
}

// MyPrograms lists the caller's enrolled programs with completion summaries,
// optionally narrowed by a ?category= filter ("all" means the caller's own
// category).
func (h *Handler) MyPrograms(c echo.Context) error {
	patientID, err := h.principal(c)
	if err != nil {
		return err
	}
	items, err := h.svc.ListMyPrograms(c.Request().Context(), patientID, c.QueryParam("category"))
	if err != nil {
		return echo.NewHTTPError(apperr.HTTPStatus(err), apperr.MessageOf(err))
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) MyProgramModules(c echo.Context) error {
	patientID, err := h.principal(c)
	if err != nil {
		return err
	}
	programID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	items, err := h.svc.ListProgramModules(c.Request().Context(), patientID, programID)
	if err != nil {
		return echo.NewHTTPError(apperr.HTTPStatus(err), apperr.MessageOf(err))
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) MyProgramCompletion(c echo.Context) error {
	patientID, err := h.principal(c)
	if err != nil {
		return err
	}
	programID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	completion, err := h.svc.ProgramCompletion(c.Request().Context(), patientID, programID)
	if err != nil {
		return echo.NewHTTPError(apperr.HTTPStatus(err), apperr.MessageOf(err))
	}
	return c.JSON(http.StatusOK, completion)
}

func (h *Handler) MyModuleContent(c echo.Context) error {
	patientID, err := h.principal(c)
	if err != nil {
		return err
	}
	moduleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	items, err := h.svc.ListModuleContent(c.Request().Context(), patientID, moduleID)
	if err != nil {
		return echo.NewHTTPError(apperr.HTTPStatus(err), apperr.MessageOf(err))
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) AccessModule(c echo.Context) error {
	patientID, err := h.principal(c)
	if err != nil {
		return err
	}
	moduleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	mp, err := h.svc.RecordModuleAccess(c.Request().Context(), patientID, moduleID)
	if err != nil {
		return echo.NewHTTPError(apperr.HTTPStatus(err), apperr.MessageOf(err))
	}
	return c.JSON(http.StatusOK, mp)
}

type completeRequest struct {
	TimeSpentSeconds int `json:"time_spent_seconds"`
}

func (h *Handler) CompleteModule(c echo.Context) error {
	patientID, err := h.principal(c)
	if err != nil {
		return err
	}
	moduleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	// The body is optional; completing without reporting time is fine.
	var req completeRequest
	if c.Request().ContentLength > 0 {
		if err := c.Bind(&req); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
	}
	mp, err := h.svc.CompleteModule(c.Request().Context(), patientID, moduleID, req.TimeSpentSeconds)
	if err != nil {
		return echo.NewHTTPError(apperr.HTTPStatus(err), apperr.MessageOf(err))
	}
	return c.JSON(http.StatusOK, mp)
}
