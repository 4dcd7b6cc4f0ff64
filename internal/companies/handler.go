package companies

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ib-outreach/backend/internal/auth"
	"github.com/ib-outreach/backend/internal/models"
	"github.com/ib-outreach/backend/pkg/response"
)

// CompanyRequest is the body for POST and PUT /api/companies.
type CompanyRequest struct {
	Name     string `json:"name" binding:"required"`
	Industry string `json:"industry"`
	Location string `json:"location"`
	Website  string `json:"website"`
	Notes    string `json:"notes"`
}

// Handler handles company HTTP endpoints.
type Handler struct {
	repo *Repository
}

// NewHandler creates a company handler.
func NewHandler(repo *Repository) *Handler {
	return &Handler{repo: repo}
}

// List handles GET /api/companies.
func (h *Handler) List(c *gin.Context) {
	userID := c.MustGet(auth.ContextUserID).(uuid.UUID)
	list, err := h.repo.List(c.Request.Context(), userID)
	if err != nil {
		response.Internal(c, "failed to list companies")
		return
	}
	response.OK(c, list)
}

// Create handles POST /api/companies.
func (h *Handler) Create(c *gin.Context) {
	var req CompanyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	userID := c.MustGet(auth.ContextUserID).(uuid.UUID)

	co := &models.Company{
		UserID:   userID,
		Name:     req.Name,
		Industry: req.Industry,
		Location: req.Location,
		Website:  req.Website,
		Notes:    req.Notes,
	}
	if err := h.repo.Create(c.Request.Context(), co); err != nil {
		response.Internal(c, "failed to create company")
		return
	}
	response.Created(c, co)
}

// GetByID handles GET /api/companies/:id.
func (h *Handler) GetByID(c *gin.Context) {
	userID := c.MustGet(auth.ContextUserID).(uuid.UUID)
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid company id")
		return
	}
	co, err := h.repo.GetByID(c.Request.Context(), userID, id)
	if err != nil {
		response.NotFound(c, "company not found")
		return
	}
	response.OK(c, co)
}

// Update handles PUT /api/companies/:id.
func (h *Handler) Update(c *gin.Context) {
	userID := c.MustGet(auth.ContextUserID).(uuid.UUID)
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid company id")
		return
	}
	var req CompanyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	co := &models.Company{
		ID:       id,
		UserID:   userID,
		Name:     req.Name,
		Industry: req.Industry,
		Location: req.Location,
		Website:  req.Website,
		Notes:    req.Notes,
	}
	ok, err := h.repo.Update(c.Request.Context(), userID, co)
	if err != nil {
		response.Internal(c, "failed to update company")
		return
	}
	if !ok {
		response.NotFound(c, "company not found")
		return
	}
	updated, err := h.repo.GetByID(c.Request.Context(), userID, id)
	if err != nil {
		response.Internal(c, "failed to load company")
		return
	}
	response.OK(c, updated)
}

// Delete handles DELETE /api/companies/:id.
func (h *Handler) Delete(c *gin.Context) {
	userID := c.MustGet(auth.ContextUserID).(uuid.UUID)
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid company id")
		return
	}
	ok, err := h.repo.Delete(c.Request.Context(), userID, id)
	if err != nil {
		response.Internal(c, "failed to delete company")
		return
	}
	if !ok {
		response.NotFound(c, "company not found")
		return
	}
	response.OK(c, gin.H{"deleted": true})
}
