package subject

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/docport/docport/internal/platform/auth"
	"github.com/docport/docport/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	readGroup := api.Group("", auth.RequireRole("admin", "physician", "nurse"))
	readGroup.GET("/subjects", h.List)
	readGroup.GET("/subjects/:id", h.Get)
	readGroup.GET("/subjects/by-external-id/:identifier", h.ResolveByExternalID)

	writeGroup := api.Group("", auth.RequireRole("admin"))
	writeGroup.POST("/subjects", h.Create)
	writeGroup.PUT("/subjects/:id", h.Update)
	writeGroup.DELETE("/subjects/:id", h.Delete)
}

func (h *Handler) Create(c echo.Context) error {
	var subj Subject
	if err := c.Bind(&subj); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.Create(c.Request().Context(), &subj); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, subj)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	subj, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "subject not found")
	}
	return c.JSON(http.StatusOK, subj)
}

// ResolveByExternalID serves the capture workflow's lookup step. The
// response envelope carries the read-only snapshot under "subject";
// unknown identifiers return 404 so clients can distinguish not-found
// from transport failures.
func (h *Handler) ResolveByExternalID(c echo.Context) error {
	subj, err := h.svc.ResolveByExternalID(c.Request().Context(), c.Param("identifier"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "no subject for this identifier")
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"subject": subj.ToSnapshot()})
}

func (h *Handler) Update(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var subj Subject
	if err := c.Bind(&subj); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	subj.ID = id
	if err := h.svc.Update(c.Request().Context(), &subj); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, subj)
}

func (h *Handler) Delete(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.Delete(c.Request().Context(), id); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) List(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.List(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}
