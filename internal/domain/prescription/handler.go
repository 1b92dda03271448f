package prescription

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/docport/docport/internal/platform/auth"
	"github.com/docport/docport/internal/platform/blobstore"
	"github.com/docport/docport/pkg/pagination"
)

type Handler struct {
	svc   *Service
	blobs blobstore.BlobStore
}

func NewHandler(svc *Service, blobs blobstore.BlobStore) *Handler {
	return &Handler{svc: svc, blobs: blobs}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	clinical := api.Group("", auth.RequireRole("admin", "physician"))
	clinical.POST("/prescriptions", h.Create)
	clinical.DELETE("/prescriptions/:id", h.Delete)

	readGroup := api.Group("", auth.RequireRole("admin", "physician", "nurse"))
	readGroup.GET("/prescriptions", h.List)
	readGroup.GET("/prescriptions/:id", h.Get)
	readGroup.GET("/prescriptions/:id/artifact", h.DownloadArtifact)
	readGroup.GET("/prescription-themes", h.Themes)
}

// Create accepts the multipart submission produced by the capture workflow:
// scalar form fields plus a single file part named "artifact". The artifact
// is stored first so a failed insert never leaves a dangling record.
func (h *Handler) Create(c echo.Context) error {
	fileHeader, err := c.FormFile("artifact")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "artifact file part is required")
	}
	file, err := fileHeader.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "could not read artifact")
	}
	defer file.Close()

	userID := auth.UserIDFromContext(c)
	category := "prescription"
	if c.FormValue("kind") == KindDiagnosisCard {
		category = "diagnosis-card"
	}
	meta, err := h.blobs.Upload(c.Request().Context(), blobstore.BlobMetadata{
		FileName:    fileHeader.Filename,
		ContentType: fileHeader.Header.Get("Content-Type"),
		SubjectID:   c.FormValue("subject_id"),
		Category:    category,
		CreatedBy:   userID,
	}, file)
	if err != nil {
		if errors.Is(err, blobstore.ErrFileTooLarge) || errors.Is(err, blobstore.ErrInvalidContentType) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "artifact storage failed")
	}

	rec, err := h.svc.Create(c.Request().Context(), CreateInput{
		SubjectID:     c.FormValue("subject_id"),
		DoctorID:      c.FormValue("doctor_id"),
		AppointmentID: c.FormValue("appointment_id"),
		Kind:          c.FormValue("kind"),
		Diagnosis:     c.FormValue("diagnosis"),
		Notes:         c.FormValue("notes"),
		ExpiryDate:    c.FormValue("expiry_date"),
		SignatureType: c.FormValue("signature_type"),
		SignatureData: c.FormValue("signature_data"),
		DrugListJSON:  c.FormValue("drug_list"),
		PatientJSON:   c.FormValue("patient_info"),
		ArtifactID:    meta.ID,
		CreatedBy:     userID,
	})
	if err != nil {
		// The stored artifact is orphaned on validation failure; remove it.
		_ = h.blobs.Delete(c.Request().Context(), meta.ID)
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	return c.JSON(http.StatusCreated, map[string]interface{}{
		"message": "prescription recorded",
		"record":  rec,
	})
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	rec, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "prescription not found")
	}
	return c.JSON(http.StatusOK, rec)
}

func (h *Handler) DownloadArtifact(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	rec, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "prescription not found")
	}
	body, meta, err := h.blobs.Download(c.Request().Context(), rec.ArtifactID)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "artifact not found")
	}
	defer body.Close()
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+meta.FileName+`"`)
	return c.Stream(http.StatusOK, meta.ContentType, body)
}

func (h *Handler) Delete(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	rec, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "prescription not found")
	}
	if err := h.svc.Delete(c.Request().Context(), id); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	_ = h.blobs.Delete(c.Request().Context(), rec.ArtifactID)
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) List(c echo.Context) error {
	pg := pagination.FromContext(c)
	if raw := c.QueryParam("subject_id"); raw != "" {
		subjectID, err := uuid.Parse(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid subject_id")
		}
		items, total, err := h.svc.ListBySubject(c.Request().Context(), subjectID, pg.Limit, pg.Offset)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
	}
	items, total, err := h.svc.List(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) Themes(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"themes": h.svc.Themes(c.Request().Context()),
	})
}
