package documents

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"scholarship-backend/internal/shared/metrics"
	"scholarship-backend/internal/shared/server/middleware"
	"scholarship-backend/internal/shared/server/respond"
	"scholarship-backend/internal/shared/storage/object"
)

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches document routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/applications/:id/documents", h.upload)
	rg.GET("/applications/:id/documents", h.listByApplication)
	rg.GET("/documents", h.listOwn)
	rg.GET("/documents/:id", h.get)
	rg.GET("/documents/:id/url", h.downloadURL)
	rg.GET("/documents/:id/content", h.content)
	rg.DELETE("/documents/:id", h.remove)
}

// RegisterAdminRoutes attaches admin-only decision routes.
func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	rg.PATCH("/documents/:id/verify", h.verify)
	rg.PATCH("/documents/:id/reject", h.reject)
}

func (h *Handler) upload(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	applicationID := c.Param("id")
	started := time.Now()

	ceiling := h.Svc.MaxUploadBytes
	if ceiling <= 0 {
		ceiling = defaultMaxUploadBytes
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, ceiling)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "file is required", nil)
		return
	}
	docType := c.PostForm("documentType")
	description := c.PostForm("description")

	file, err := fileHeader.Open()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read file", nil)
		return
	}
	defer file.Close()

	mimeType := fileHeader.Header.Get("Content-Type")

	doc, err := h.Svc.Upload(c.Request.Context(), userID, applicationID, docType, fileHeader.Filename, mimeType, description, file)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "application not found", nil)
		case errors.Is(err, ErrForbidden):
			respond.Error(c, http.StatusForbidden, "forbidden", "not your application", nil)
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "validation_error", "file must be a non-empty pdf or image within the size limit, with a valid documentType", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "storage_error", "failed to store document", nil)
		}
		return
	}

	metrics.ObserveUploadSeconds(time.Since(started).Seconds())
	c.Set("documentId", doc.ID)
	c.Set("applicationId", doc.ApplicationID)
	respond.JSON(c, http.StatusCreated, toResponse(doc))
}

func (h *Handler) listByApplication(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	docs, err := h.Svc.ListByApplication(c.Request.Context(), c.Param("id"), userID, middleware.IsAdmin(c))
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "application not found", nil)
		case errors.Is(err, ErrForbidden):
			respond.Error(c, http.StatusForbidden, "forbidden", "not your application", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list documents", nil)
		}
		return
	}

	resp := make([]DocumentResponse, 0, len(docs))
	for _, doc := range docs {
		resp = append(resp, toResponse(doc))
	}
	respond.JSON(c, http.StatusOK, resp)
}

func (h *Handler) listOwn(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	limit := 20
	offset := 0
	if v := c.Query("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			limit = parsed
		}
	}
	if v := c.Query("offset"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			offset = parsed
		}
	}

	docs, err := h.Svc.ListByOwner(c.Request.Context(), userID, limit, offset)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list documents", nil)
		return
	}

	resp := make([]DocumentResponse, 0, len(docs))
	for _, doc := range docs {
		resp = append(resp, toResponse(doc))
	}
	respond.JSON(c, http.StatusOK, resp)
}

func (h *Handler) get(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	doc, err := h.Svc.Get(c.Request.Context(), c.Param("id"), userID, middleware.IsAdmin(c))
	if err != nil {
		h.respondDocumentError(c, err)
		return
	}
	respond.JSON(c, http.StatusOK, toResponse(doc))
}

func (h *Handler) downloadURL(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	url, err := h.Svc.DownloadURL(c.Request.Context(), c.Param("id"), userID, middleware.IsAdmin(c))
	if err != nil {
		if errors.Is(err, object.ErrPresignUnsupported) {
			respond.Error(c, http.StatusNotImplemented, "presign_unsupported", "signed urls are not available; use the content endpoint", nil)
			return
		}
		h.respondDocumentError(c, err)
		return
	}
	respond.JSON(c, http.StatusOK, gin.H{"url": url})
}

func (h *Handler) content(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	doc, rc, err := h.Svc.OpenContent(c.Request.Context(), c.Param("id"), userID, middleware.IsAdmin(c))
	if err != nil {
		h.respondDocumentError(c, err)
		return
	}
	defer rc.Close()

	c.Header("Content-Type", doc.MimeType)
	c.Header("Content-Disposition", `attachment; filename="`+doc.OriginalFileName+`"`)
	c.Status(http.StatusOK)
	_, _ = io.Copy(c.Writer, rc)
}

func (h *Handler) remove(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	if err := h.Svc.Delete(c.Request.Context(), c.Param("id"), userID, middleware.IsAdmin(c)); err != nil {
		h.respondDocumentError(c, err)
		return
	}
	respond.NoContent(c)
}

func (h *Handler) verify(c *gin.Context) {
	h.decide(c, "verify", "")
}

type rejectRequest struct {
	RejectionReason string `json:"rejectionReason"`
}

func (h *Handler) reject(c *gin.Context) {
	var req rejectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	h.decide(c, "reject", req.RejectionReason)
}

func (h *Handler) decide(c *gin.Context, decision, rejectionReason string) {
	adminID := middleware.UserIDFromContext(c)
	id := c.Param("id")

	doc, appStatus, err := h.Svc.Decide(c.Request.Context(), id, decision, rejectionReason, adminID)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "document not found", nil)
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "validation_error", "rejections require a rejectionReason", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to record decision", nil)
		}
		return
	}

	c.Set("documentId", doc.ID)
	c.Set("applicationId", doc.ApplicationID)
	respond.JSON(c, http.StatusOK, gin.H{
		"document":          toResponse(doc),
		"applicationStatus": appStatus,
	})
}

func (h *Handler) respondDocumentError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "document not found", nil)
	case errors.Is(err, ErrForbidden):
		respond.Error(c, http.StatusForbidden, "forbidden", "not your document", nil)
	case errors.Is(err, ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request", nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to fetch document", nil)
	}
}
