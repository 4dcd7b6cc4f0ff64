package profile

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/ib-outreach/backend/internal/mail"
	"github.com/ib-outreach/backend/pkg/storage"
)

// ErrNoResume means the user has not uploaded a resume.
var ErrNoResume = errors.New("no resume on file")

// Source resolves signatures and resume attachments for outgoing mail.
type Source struct {
	repo *Repository
	s3   *storage.S3
}

// NewSource creates a profile source. s3 may be nil; resume attachments
// are then unavailable.
func NewSource(repo *Repository, s3 *storage.S3) *Source {
	return &Source{repo: repo, s3: s3}
}

// Signature returns the user's signature HTML, empty when unset.
func (s *Source) Signature(ctx context.Context, userID uuid.UUID) (string, error) {
	return s.repo.GetSignature(ctx, userID)
}

// ResumeAttachment downloads the user's resume as a mail attachment.
func (s *Source) ResumeAttachment(ctx context.Context, userID uuid.UUID) (*mail.Attachment, error) {
	if s.s3 == nil {
		return nil, errors.New("resume storage not configured")
	}
	info, err := s.repo.GetResumeInfo(ctx, userID)
	if err != nil {
		return nil, err
	}
	if info.Key == "" {
		return nil, ErrNoResume
	}
	data, err := s.s3.DownloadResume(ctx, info.Key)
	if err != nil {
		return nil, err
	}
	return &mail.Attachment{
		Filename: info.Filename,
		Mimetype: info.Mimetype,
		Data:     data,
	}, nil
}
