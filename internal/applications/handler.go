package applications

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"scholarship-backend/internal/shared/server/middleware"
	"scholarship-backend/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches application routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/applications", h.create)
	rg.GET("/applications", h.list)
	rg.GET("/applications/:id", h.get)
	rg.POST("/applications/:id/submit", h.submit)
}

// RegisterAdminRoutes attaches admin-only application routes.
func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	rg.PATCH("/applications/:id/status", h.review)
}

type createRequest struct {
	ScholarshipID string `json:"scholarshipId"`
}

func (h *Handler) create(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	app, err := h.Svc.Create(c.Request.Context(), userID, req.ScholarshipID)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "validation_error", "scholarshipId is required", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to create application", nil)
		}
		return
	}

	c.Set("applicationId", app.ID)
	respond.JSON(c, http.StatusCreated, toResponse(app))
}

func (h *Handler) list(c *gin.Context) {
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

	apps, err := h.Svc.ListByStudent(c.Request.Context(), userID, limit, offset)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list applications", nil)
		return
	}

	resp := make([]ApplicationResponse, 0, len(apps))
	for _, app := range apps {
		resp = append(resp, toResponse(app))
	}
	respond.JSON(c, http.StatusOK, resp)
}

func (h *Handler) get(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	app, err := h.Svc.Get(c.Request.Context(), c.Param("id"), userID, middleware.IsAdmin(c))
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "application not found", nil)
		case errors.Is(err, ErrForbidden):
			respond.Error(c, http.StatusForbidden, "forbidden", "not your application", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to fetch application", nil)
		}
		return
	}

	respond.JSON(c, http.StatusOK, toResponse(app))
}

func (h *Handler) submit(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	id := c.Param("id")

	app, err := h.Svc.Submit(c.Request.Context(), id, userID)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "application not found", nil)
		case errors.Is(err, ErrForbidden):
			respond.Error(c, http.StatusForbidden, "forbidden", "not your application", nil)
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "validation_error", "application must be a draft with at least one document", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to submit application", nil)
		}
		return
	}

	c.Set("applicationId", app.ID)
	c.Set("statusTransition", StatusDraft+"->"+StatusSubmitted)
	respond.JSON(c, http.StatusOK, toResponse(app))
}

type reviewRequest struct {
	Status          string `json:"status"`
	RejectionReason string `json:"rejectionReason"`
}

func (h *Handler) review(c *gin.Context) {
	adminID := middleware.UserIDFromContext(c)
	id := c.Param("id")

	var req reviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	app, err := h.Svc.Review(c.Request.Context(), id, req.Status, adminID, req.RejectionReason)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "application not found", nil)
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "validation_error", "status must be under_review, approved, or rejected; rejections need a reason", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to review application", nil)
		}
		return
	}

	c.Set("applicationId", app.ID)
	respond.JSON(c, http.StatusOK, toResponse(app))
}
