package profile

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ib-outreach/backend/internal/auth"
	"github.com/ib-outreach/backend/pkg/response"
	"github.com/ib-outreach/backend/pkg/storage"
)

// Handler serves signature and resume endpoints.
type Handler struct {
	repo   *Repository
	s3     *storage.S3
	logger *zap.Logger
}

// NewHandler creates a profile handler. s3 may be nil; resume endpoints
// then report storage as unavailable.
func NewHandler(repo *Repository, s3 *storage.S3, logger *zap.Logger) *Handler {
	return &Handler{repo: repo, s3: s3, logger: logger}
}

// GetSignature handles GET /api/profile/signature.
func (h *Handler) GetSignature(c *gin.Context) {
	userID := c.MustGet(auth.ContextUserID).(uuid.UUID)

	sig, err := h.repo.GetSignature(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("get signature", zap.Error(err))
		response.Internal(c, "failed to load signature")
		return
	}
	response.OK(c, gin.H{"signature_html": sig})
}

// SignatureRequest is the signature update payload.
type SignatureRequest struct {
	SignatureHTML string `json:"signature_html"`
}

// UpdateSignature handles PUT /api/profile/signature. An empty signature
// clears it.
func (h *Handler) UpdateSignature(c *gin.Context) {
	userID := c.MustGet(auth.ContextUserID).(uuid.UUID)

	var req SignatureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid signature payload")
		return
	}

	if err := h.repo.SetSignature(c.Request.Context(), userID, req.SignatureHTML); err != nil {
		h.logger.Error("update signature", zap.Error(err))
		response.Internal(c, "failed to update signature")
		return
	}
	response.OK(c, gin.H{"signature_html": req.SignatureHTML})
}

// UploadResume handles POST /api/profile/resume. Accepts a multipart form
// with a "resume" file field; pdf, doc and docx up to 5MB.
func (h *Handler) UploadResume(c *gin.Context) {
	userID := c.MustGet(auth.ContextUserID).(uuid.UUID)

	if h.s3 == nil {
		response.Internal(c, "resume storage not configured")
		return
	}

	file, err := c.FormFile("resume")
	if err != nil {
		response.BadRequest(c, "resume file is required")
		return
	}
	if file.Size > storage.MaxResumeSize {
		response.BadRequest(c, "resume exceeds 5MB limit")
		return
	}
	contentType := file.Header.Get("Content-Type")
	if !storage.ValidateResumeType(contentType, file.Filename) {
		response.BadRequest(c, "resume must be a pdf, doc or docx file")
		return
	}

	src, err := file.Open()
	if err != nil {
		h.logger.Error("open resume upload", zap.Error(err))
		response.Internal(c, "failed to read resume")
		return
	}
	defer src.Close()

	ctx := c.Request.Context()
	key := storage.ResumeKey(userID.String(), file.Filename)
	if err := h.s3.UploadResume(ctx, key, contentType, src); err != nil {
		h.logger.Error("upload resume", zap.Error(err))
		response.Internal(c, "failed to store resume")
		return
	}

	info := ResumeInfo{Key: key, Filename: file.Filename, Mimetype: contentType}
	if err := h.repo.SetResumeInfo(ctx, userID, info); err != nil {
		h.logger.Error("save resume info", zap.Error(err))
		response.Internal(c, "failed to save resume info")
		return
	}
	response.OK(c, gin.H{"filename": info.Filename, "mimetype": info.Mimetype})
}

// GetResumeInfo handles GET /api/profile/resume/info.
func (h *Handler) GetResumeInfo(c *gin.Context) {
	userID := c.MustGet(auth.ContextUserID).(uuid.UUID)

	info, err := h.repo.GetResumeInfo(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("get resume info", zap.Error(err))
		response.Internal(c, "failed to load resume info")
		return
	}
	if info.Key == "" {
		response.OK(c, gin.H{"has_resume": false})
		return
	}
	response.OK(c, gin.H{"has_resume": true, "filename": info.Filename, "mimetype": info.Mimetype})
}

// DownloadResume handles GET /api/profile/resume/download.
func (h *Handler) DownloadResume(c *gin.Context) {
	userID := c.MustGet(auth.ContextUserID).(uuid.UUID)

	if h.s3 == nil {
		response.Internal(c, "resume storage not configured")
		return
	}

	ctx := c.Request.Context()
	info, err := h.repo.GetResumeInfo(ctx, userID)
	if err != nil {
		h.logger.Error("get resume info", zap.Error(err))
		response.Internal(c, "failed to load resume info")
		return
	}
	if info.Key == "" {
		response.NotFound(c, "no resume on file")
		return
	}

	data, err := h.s3.DownloadResume(ctx, info.Key)
	if err != nil {
		h.logger.Error("download resume", zap.Error(err))
		response.Internal(c, "failed to download resume")
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+info.Filename+`"`)
	c.Data(200, info.Mimetype, data)
}

// DeleteResume handles DELETE /api/profile/resume.
func (h *Handler) DeleteResume(c *gin.Context) {
	userID := c.MustGet(auth.ContextUserID).(uuid.UUID)

	ctx := c.Request.Context()
	info, err := h.repo.GetResumeInfo(ctx, userID)
	if err != nil {
		h.logger.Error("get resume info", zap.Error(err))
		response.Internal(c, "failed to load resume info")
		return
	}
	if info.Key == "" {
		response.NotFound(c, "no resume on file")
		return
	}

	if h.s3 != nil {
		if err := h.s3.DeleteResume(ctx, info.Key); err != nil {
			h.logger.Warn("delete resume object", zap.String("key", info.Key), zap.Error(err))
		}
	}
	if err := h.repo.ClearResumeInfo(ctx, userID); err != nil {
		h.logger.Error("clear resume info", zap.Error(err))
		response.Internal(c, "failed to delete resume")
		return
	}
	response.OK(c, gin.H{"deleted": true})
}
