package report

import (
	"mime/multipart"
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
	clinical := api.Group("", auth.RequireRole("admin", "physician", "nurse"))
	clinical.POST("/reports/lab", h.Upload)
	clinical.GET("/reports/lab", h.ListBySubject)
	clinical.GET("/reports/lab/:id/artifact", h.DownloadArtifact)

	admin := api.Group("", auth.RequireRole("admin"))
	admin.DELETE("/reports/lab/:id", h.Delete)
}

// Upload accepts a multipart batch under the "files" field plus subject_id
// and category scalars. Storage and the database batch are all-or-nothing:
// a failure on any file rolls back the already-stored blobs.
func (h *Handler) Upload(c echo.Context) error {
	subjectID, err := uuid.Parse(c.FormValue("subject_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "subject_id is required")
	}
	form, err := c.MultipartForm()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "multipart form is required")
	}
	files := form.File["files"]
	if len(files) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "at least one file is required")
	}

	userID := auth.UserIDFromContext(c)
	category := NormalizeCategory(c.FormValue("category"))

	var stored []string
	rollback := func() {
		for _, id := range stored {
			_ = h.blobs.Delete(c.Request().Context(), id)
		}
	}

	reports := make([]*LabReport, 0, len(files))
	for _, fh := range files {
		meta, err := h.storeFile(c, fh, subjectID.String(), category, userID)
		if err != nil {
			rollback()
			return err
		}
		stored = append(stored, meta.ID)
		reports = append(reports, &LabReport{
			SubjectID:  subjectID,
			Category:   category,
			FileName:   fh.Filename,
			ArtifactID: meta.ID,
			UploadedBy: userID,
		})
	}

	if err := h.svc.RecordBatch(c.Request().Context(), reports); err != nil {
		rollback()
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	return c.JSON(http.StatusCreated, map[string]interface{}{
		"message": "lab reports uploaded",
		"record":  reports,
	})
}

func (h *Handler) storeFile(c echo.Context, fh *multipart.FileHeader, subjectID, category, userID string) (*blobstore.BlobMetadata, error) {
	file, err := fh.Open()
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "could not read "+fh.Filename)
	}
	defer file.Close()
	meta, err := h.blobs.Upload(c.Request().Context(), blobstore.BlobMetadata{
		FileName:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		SubjectID:   subjectID,
		Category:    category,
		CreatedBy:   userID,
	}, file)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, fh.Filename+": "+err.Error())
	}
	return meta, nil
}

func (h *Handler) ListBySubject(c echo.Context) error {
	subjectID, err := uuid.Parse(c.QueryParam("subject_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "subject_id is required")
	}
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListBySubject(c.Request().Context(), subjectID, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) DownloadArtifact(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	rep, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "lab report not found")
	}
	body, meta, err := h.blobs.Download(c.Request().Context(), rep.ArtifactID)
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
	rep, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "lab report not found")
	}
	if err := h.svc.Delete(c.Request().Context(), id); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	_ = h.blobs.Delete(c.Request().Context(), rep.ArtifactID)
	return c.NoContent(http.StatusNoContent)
}
