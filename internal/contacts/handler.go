package contacts

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ib-outreach/backend/internal/auth"
	"github.com/ib-outreach/backend/internal/models"
	"github.com/ib-outreach/backend/pkg/response"
)

// ContactRequest is the body for POST and PUT /api/contacts.
type ContactRequest struct {
	CompanyID *string `json:"company_id"`
	Name      string  `json:"name" binding:"required"`
	Email     string  `json:"email" binding:"required,email"`
	Title     string  `json:"title"`
	Group     string  `json:"group"`
	LinkedIn  string  `json:"linkedin"`
	Status    string  `json:"status"`
	Notes     string  `json:"notes"`
}

// InteractionRequest is the body for POST /api/contacts/:id/interactions.
type InteractionRequest struct {
	Kind       string  `json:"kind" binding:"required,oneof=email call note"`
	Summary    string  `json:"summary" binding:"required"`
	OccurredAt *string `json:"occurred_at"` // RFC3339; defaults to now
}

// Handler handles contact HTTP endpoints.
type Handler struct {
	repo *Repository
}

// NewHandler creates a contact handler.
func NewHandler(repo *Repository) *Handler {
	return &Handler{repo: repo}
}

func parseOptionalUUID(s *string) (*uuid.UUID, bool) {
	if s == nil || *s == "" {
		return nil, true
	}
	id, err := uuid.Parse(*s)
	if err != nil {
		return nil, false
	}
	return &id, true
}

// List handles GET /api/contacts. Accepts ?company_id= to filter.
func (h *Handler) List(c *gin.Context) {
	userID := c.MustGet(auth.ContextUserID).(uuid.UUID)

	var companyID *uuid.UUID
	if v := c.Query("company_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			response.BadRequest(c, "invalid company_id")
			return
		}
		companyID = &id
	}

	list, err := h.repo.List(c.Request.Context(), userID, companyID)
	if err != nil {
		response.Internal(c, "failed to list contacts")
		return
	}
	response.OK(c, list)
}

// Create handles POST /api/contacts.
func (h *Handler) Create(c *gin.Context) {
	var req ContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	userID := c.MustGet(auth.ContextUserID).(uuid.UUID)

	companyID, ok := parseOptionalUUID(req.CompanyID)
	if !ok {
		response.BadRequest(c, "invalid company_id")
		return
	}

	ct := &models.Contact{
		UserID:    userID,
		CompanyID: companyID,
		Name:      req.Name,
		Email:     req.Email,
		Title:     req.Title,
		Group:     req.Group,
		LinkedIn:  req.LinkedIn,
		Notes:     req.Notes,
	}
	if err := h.repo.Create(c.Request.Context(), ct); err != nil {
		response.Internal(c, "failed to create contact")
		return
	}
	response.Created(c, ct)
}

// GetByID handles GET /api/contacts/:id.
func (h *Handler) GetByID(c *gin.Context) {
	userID := c.MustGet(auth.ContextUserID).(uuid.UUID)
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid contact id")
		return
	}
	ct, err := h.repo.GetByID(c.Request.Context(), userID, id)
	if err != nil {
		response.NotFound(c, "contact not found")
		return
	}
	response.OK(c, ct)
}

// Update handles PUT /api/contacts/:id.
func (h *Handler) Update(c *gin.Context) {
	userID := c.MustGet(auth.ContextUserID).(uuid.UUID)
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid contact id")
		return
	}
	var req ContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	companyID, ok := parseOptionalUUID(req.CompanyID)
	if !ok {
		response.BadRequest(c, "invalid company_id")
		return
	}

	status := req.Status
	if status == "" {
		existing, err := h.repo.GetByID(c.Request.Context(), userID, id)
		if err != nil {
			response.NotFound(c, "contact not found")
			return
		}
		status = existing.Status
	}

	ct := &models.Contact{
		ID:        id,
		UserID:    userID,
		CompanyID: companyID,
		Name:      req.Name,
		Email:     req.Email,
		Title:     req.Title,
		Group:     req.Group,
		LinkedIn:  req.LinkedIn,
		Status:    status,
		Notes:     req.Notes,
	}
	updated, err := h.repo.Update(c.Request.Context(), userID, ct)
	if err != nil {
		response.Internal(c, "failed to update contact")
		return
	}
	if !updated {
		response.NotFound(c, "contact not found")
		return
	}
	fresh, err := h.repo.GetByID(c.Request.Context(), userID, id)
	if err != nil {
		response.Internal(c, "failed to load contact")
		return
	}
	response.OK(c, fresh)
}

// Delete handles DELETE /api/contacts/:id.
func (h *Handler) Delete(c *gin.Context) {
	userID := c.MustGet(auth.ContextUserID).(uuid.UUID)
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid contact id")
		return
	}
	ok, err := h.repo.Delete(c.Request.Context(), userID, id)
	if err != nil {
		response.Internal(c, "failed to delete contact")
		return
	}
	if !ok {
		response.NotFound(c, "contact not found")
		return
	}
	response.OK(c, gin.H{"deleted": true})
}

// ListInteractions handles GET /api/contacts/:id/interactions.
func (h *Handler) ListInteractions(c *gin.Context) {
	userID := c.MustGet(auth.ContextUserID).(uuid.UUID)
	contactID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid contact id")
		return
	}
	list, err := h.repo.ListInteractions(c.Request.Context(), userID, contactID)
	if err != nil {
		response.Internal(c, "failed to list interactions")
		return
	}
	response.OK(c, list)
}

// AddInteraction handles POST /api/contacts/:id/interactions.
func (h *Handler) AddInteraction(c *gin.Context) {
	userID := c.MustGet(auth.ContextUserID).(uuid.UUID)
	contactID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid contact id")
		return
	}
	var req InteractionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	// Scope check so interactions can't be attached to another user's contact.
	if _, err := h.repo.GetByID(c.Request.Context(), userID, contactID); err != nil {
		response.NotFound(c, "contact not found")
		return
	}

	occurredAt := time.Now()
	if req.OccurredAt != nil {
		t, err := time.Parse(time.RFC3339, *req.OccurredAt)
		if err != nil {
			response.BadRequest(c, "invalid occurred_at")
			return
		}
		occurredAt = t
	}

	in := &models.Interaction{
		UserID:     userID,
		ContactID:  contactID,
		Kind:       req.Kind,
		Summary:    req.Summary,
		OccurredAt: occurredAt,
	}
	if err := h.repo.AddInteraction(c.Request.Context(), in); err != nil {
		response.Internal(c, "failed to record interaction")
		return
	}
	response.Created(c, in)
}
