package catalog

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

// RegisterRoutes mounts the catalog admin surface. All routes require a
// clinical or admin role; patient-facing reads live under /my in the
// enrollment and progress handlers.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	staff := auth.RequireRole(auth.RoleAdmin, auth.RoleClinician)

	cat := api.Group("/categories", staff)
	cat.POST("", h.CreateCategory)
	cat.GET("", h.ListCategories)
	cat.GET("/:id", h.GetCategory)
	cat.PUT("/:id", h.UpdateCategory)
	cat.GET("/:id/programs", h.ListCategoryPrograms)

	prog := api.Group("/programs", staff)
	prog.POST("", h.CreateProgram)
	prog.GET("", h.ListPrograms)
	prog.GET("/:id", h.GetProgram)
	prog.PUT("/:id", h.UpdateProgram)
	prog.GET("/:id/modules", h.ListProgramModules)

	mod := api.Group("/modules", staff)
	mod.POST("", h.CreateModule)
	mod.GET("/:id", h.GetModule)
	mod.PUT("/:id", h.UpdateModule)
	mod.GET("/:id/content", h.ListModuleContent)
	mod.GET("/:id/assessments", h.ListModuleAssessments)

	con := api.Group("/content", staff)
	con.POST("", h.CreateContent)
	con.GET("/:id", h.GetContent)
	con.PUT("/:id", h.UpdateContent)
	con.DELETE("/:id", h.DeleteContent)

	asm := api.Group("/assessments", staff)
	asm.POST("", h.CreateAssessment)
	asm.GET("/:id", h.GetAssessment)
	asm.PUT("/:id", h.UpdateAssessment)
	asm.GET("/:id/questions", h.ListQuestions)

	q := api.Group("/questions", staff)
	q.POST("", h.CreateQuestion)
	q.GET("/:id", h.GetQuestion)
	q.PUT("/:id", h.UpdateQuestion)
	q.DELETE("/:id", h.DeleteQuestion)
	q.GET("/:id/options", h.ListOptions)
	q.POST("/:id/options", h.CreateOption)

	api.DELETE("/options/:id", h.DeleteOption, staff)
}

func pathID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return id, nil
}

func (h *Handler) CreateCategory(c echo.Context) error {
	var cat Category
	if err := c.Bind(&cat); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.CreateCategory(c.Request().Context(), &cat); err != nil {
		return echo.NewHTTPError(apperr.HTTPStatus(err), apperr.MessageOf(err))
	}
	return c.JSON(http.StatusCreated, cat)
}

func (h *Handler) GetCategory(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	cat, err := h.svc.GetCategory(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(apperr.HTTPStatus(err), apperr.MessageOf(err))
	}
	return c.JSON(http.StatusOK, cat)
}

func (h *Handler) UpdateCategory(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var cat Category
	if err := c.Bind(&cat); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	cat.ID = id
	if err := h.svc.UpdateCategory(c.Request().Context(), &cat); err != nil {
		return echo.NewHTTPError(apperr.HTTPStatus(err), apperr.MessageOf(err))
	}
	return c.JSON(http.StatusOK, cat)
}

func (h *Handler) ListCategories(c echo.Context) error {
	pg := pagination.FromContext(c)
	includeInactive := c.QueryParam("include_inactive") == "true"
	items, total, err := h.svc.ListCategories(c.Request().Context(), includeInactive, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(apperr.HTTPStatus(err), apperr.MessageOf(err))
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) ListCategoryPrograms(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	items, err := h.svc.ListProgramsByCategory(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(apperr.HTTPStatus(err), apperr.MessageOf(err))
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) CreateProgram(c echo.Context) error {
	var p TreatmentProgram
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.CreateProgram(c.Request().Context(), &p); err != nil {
		return echo.NewHTTPError(apperr.HTTPStatus(err), apperr.MessageOf(err))
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *Handler) GetProgram(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	p, err := h.svc.GetProgram(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(apperr.HTTPStatus(err), apperr.MessageOf(err))
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) UpdateProgram(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var p TreatmentProgram
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	p.ID = id
	if err := h.svc.UpdateProgram(c.Request().Context(), &p); err != nil {
		return echo.NewHTTPError(apperr.HTTPStatus(err), apperr.MessageOf(err))
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) ListPrograms(c echo.Context) error {
	pg := pagination.FromContext(c)
	includeInactive := c.QueryParam("include_inactive") == "true"
	items, total, err := h.svc.ListPrograms(c.Request().Context(), includeInactive, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(apperr.HTTPStatus(err), apperr.MessageOf(err))
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) ListProgramModules(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	items, err := h.svc.ListModulesByProgram(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(apperr.HTTPStatus(err), apperr.MessageOf(err))
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) CreateModule(c echo.Context) error {
	var m LearningModule
	if err := c.Bind(&m); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.CreateModule(c.Request().Context(), &m); err != nil {
		return echo.NewHTTPError(apperr.HTTPStatus(err), apperr.MessageOf(err))
	}
	return c.JSON(http.StatusCreated, m)
}

func (h *Handler) GetModule(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	m, err := h.svc.GetModule(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(apperr.HTTPStatus(err), apperr.MessageOf(err))
	}
	return c.JSON(http.StatusOK, m)
}

func (h *Handler) UpdateModule(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var m LearningModule
	if err := c.Bind(&m); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	m.ID = id
	if err := h.svc.UpdateModule(c.Request().Context(), &m); err != nil {
		return echo.NewHTTPError(apperr.HTTPStatus(err), apperr.MessageOf(err))
	}
	return c.JSON(http.StatusOK, m)
}

func (h *Handler) ListModuleContent(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	items, err := h.svc.ListContentByModule(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(apperr.HTTPStatus(err), apperr.MessageOf(err))
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) ListModuleAssessments(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	items, err := h.svc.ListAssessmentsByModule(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(apperr.HTTPStatus(err), apperr.MessageOf(err))
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) CreateContent(c echo.Context) error {
	var ci ContentItem
	if err := c.Bind(&ci); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.CreateContent(c.Request().Context(), &ci); err != nil {
		return echo.NewHTTPError(apperr.HTTPStatus(err), apperr.MessageOf(err))
	}
	return c.JSON(http.StatusCreated, ci)
}

func (h *Handler) GetContent(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	ci, err := h.svc.GetContent(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(apperr.HTTPStatus(err), apperr.MessageOf(err))
	}
	return c.JSON(http.StatusOK, ci)
}

func (h *Handler) UpdateContent(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var ci ContentItem
	if err := c.Bind(&ci); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	ci.ID = id
	if err := h.svc.UpdateContent(c.Request().Context(), &ci); err != nil {
		return echo.NewHTTPError(apperr.HTTPStatus(err), apperr.MessageOf(err))
	}
	return c.JSON(http.StatusOK, ci)
}

func (h *Handler) DeleteContent(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := h.svc.DeleteContent(c.Request().Context(), id); err != nil {
		return echo.NewHTTPError(apperr.HTTPStatus(err), apperr.MessageOf(err))
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) CreateAssessment(c echo.Context) error {
	var a Assessment
	if err := c.Bind(&a); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.CreateAssessment(c.Request().Context(), &a); err != nil {
		return echo.NewHTTPError(apperr.HTTPStatus(err), apperr.MessageOf(err))
	}
	return c.JSON(http.StatusCreated, a)
}

func (h *Handler) GetAssessment(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	a, err := h.svc.GetAssessment(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(apperr.HTTPStatus(err), apperr.MessageOf(err))
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) UpdateAssessment(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var a Assessment
	if err := c.Bind(&a); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	a.ID = id
	if err := h.svc.UpdateAssessment(c.Request().Context(), &a); err != nil {
		return echo.NewHTTPError(apperr.HTTPStatus(err), apperr.MessageOf(err))
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) CreateQuestion(c echo.Context) error {
	var q Question
	if err := c.Bind(&q); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.CreateQuestion(c.Request().Context(), &q); err != nil {
		return echo.NewHTTPError(apperr.HTTPStatus(err), apperr.MessageOf(err))
	}
	return c.JSON(http.StatusCreated, q)
}

func (h *Handler) GetQuestion(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	q, err := h.svc.GetQuestion(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(apperr.HTTPStatus(err), apperr.MessageOf(err))
	}
	return c.JSON(http.StatusOK, q)
}

func (h *Handler) UpdateQuestion(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var q Question
	if err := c.Bind(&q); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	q.ID = id
	if err := h.svc.UpdateQuestion(c.Request().Context(), &q); err != nil {
		return echo.NewHTTPError(apperr.HTTPStatus(err), apperr.MessageOf(err))
	}
	return c.JSON(http.StatusOK, q)
}

func (h *Handler) DeleteQuestion(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := h.svc.DeleteQuestion(c.Request().Context(), id); err != nil {
		return echo.NewHTTPError(apperr.HTTPStatus(err), apperr.MessageOf(err))
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) ListQuestions(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	items, err := h.svc.ListQuestions(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(apperr.HTTPStatus(err), apperr.MessageOf(err))
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) CreateOption(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var o QuestionOption
	if err := c.Bind(&o); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	o.QuestionID = id
	if err := h.svc.CreateOption(c.Request().Context(), &o); err != nil {
		return echo.NewHTTPError(apperr.HTTPStatus(err), apperr.MessageOf(err))
	}
	return c.JSON(http.StatusCreated, o)
}

func (h *Handler) DeleteOption(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := h.svc.DeleteOption(c.Request().Context(), id); err != nil {
		return echo.NewHTTPError(apperr.HTTPStatus(err), apperr.MessageOf(err))
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) ListOptions(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	items, err := h.svc.ListOptions(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(apperr.HTTPStatus(err), apperr.MessageOf(err))
	}
	return c.JSON(http.StatusOK, items)
}
