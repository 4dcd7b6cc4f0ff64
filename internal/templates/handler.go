package templates

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/ib-outreach/backend/internal/auth"
	"github.com/ib-outreach/backend/internal/models"
	"github.com/ib-outreach/backend/pkg/response"
)

// Handler serves template CRUD endpoints.
type Handler struct {
	repo   *Repository
	logger *zap.Logger
}

// NewHandler creates a template handler.
func NewHandler(repo *Repository, logger *zap.Logger) *Handler {
	return &Handler{repo: repo, logger: logger}
}

// TemplateRequest is the create/update payload.
type TemplateRequest struct {
	Name     string `json:"name" binding:"required"`
	Subject  string `json:"subject"`
	Body     string `json:"body"`
	Category string `json:"category"`
}

// Create handles POST /api/templates.
func (h *Handler) Create(c *gin.Context) {
	userID := c.MustGet(auth.ContextUserID).(uuid.UUID)

	var req TemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "name is required")
		return
	}

	t := &models.Template{
		UserID:   userID,
		Name:     req.Name,
		Subject:  req.Subject,
		Body:     req.Body,
		Category: req.Category,
	}
	if err := h.repo.Create(c.Request.Context(), t); err != nil {
		h.logger.Error("create template", zap.Error(err))
		response.Internal(c, "failed to create template")
		return
	}
	t.Variables = ExtractVariables(t.Subject + " " + t.Body)
	response.Created(c, t)
}

// List handles GET /api/templates.
func (h *Handler) List(c *gin.Context) {
	userID := c.MustGet(auth.ContextUserID).(uuid.UUID)

	list, err := h.repo.List(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("list templates", zap.Error(err))
		response.Internal(c, "failed to list templates")
		return
	}
	for i := range list {
		list[i].Variables = ExtractVariables(list[i].Subject + " " + list[i].Body)
	}
	response.OK(c, list)
}

// Get handles GET /api/templates/:id.
func (h *Handler) Get(c *gin.Context) {
	userID := c.MustGet(auth.ContextUserID).(uuid.UUID)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid template id")
		return
	}

	t, err := h.repo.GetByID(c.Request.Context(), userID, id)
	if err == pgx.ErrNoRows {
		response.NotFound(c, "template not found")
		return
	}
	if err != nil {
		h.logger.Error("get template", zap.Error(err))
		response.Internal(c, "failed to get template")
		return
	}
	t.Variables = ExtractVariables(t.Subject + " " + t.Body)
	response.OK(c, t)
}

// Update handles PUT /api/templates/:id.
func (h *Handler) Update(c *gin.Context) {
	userID := c.MustGet(auth.ContextUserID).(uuid.UUID)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid template id")
		return
	}

	var req TemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "name is required")
		return
	}

	t := &models.Template{
		ID:       id,
		Name:     req.Name,
		Subject:  req.Subject,
		Body:     req.Body,
		Category: req.Category,
	}
	ok, err := h.repo.Update(c.Request.Context(), userID, t)
	if err != nil {
		h.logger.Error("update template", zap.Error(err))
		response.Internal(c, "failed to update template")
		return
	}
	if !ok {
		response.NotFound(c, "template not found")
		return
	}

	updated, err := h.repo.GetByID(c.Request.Context(), userID, id)
	if err != nil {
		h.logger.Error("reload template", zap.Error(err))
		response.Internal(c, "failed to update template")
		return
	}
	updated.Variables = ExtractVariables(updated.Subject + " " + updated.Body)
	response.OK(c, updated)
}

// Delete handles DELETE /api/templates/:id.
func (h *Handler) Delete(c *gin.Context) {
	userID := c.MustGet(auth.ContextUserID).(uuid.UUID)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid template id")
		return
	}

	ok, err := h.repo.Delete(c.Request.Context(), userID, id)
	if err != nil {
		h.logger.Error("delete template", zap.Error(err))
		response.Internal(c, "failed to delete template")
		return
	}
	if !ok {
		response.NotFound(c, "template not found")
		return
	}
	response.OK(c, gin.H{"deleted": true})
}
