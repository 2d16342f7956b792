package applications

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"scholarship-backend/internal/shared/metrics"
	"scholarship-backend/internal/shared/telemetry"
)

// DocumentCounter reports how many documents an application has. Satisfied
// by the document repositories.
type DocumentCounter interface {
	CountByApplication(ctx context.Context, applicationID string) (int, error)
}

// Service contains business logic for applications.
type Service struct {
	Repo      Repo
	Documents DocumentCounter
}

// Create opens a new draft application for a student.
func (s *Service) Create(ctx context.Context, studentID, scholarshipID string) (Application, error) {
	scholarshipID = strings.TrimSpace(scholarshipID)
	if studentID == "" || scholarshipID == "" {
		return Application{}, ErrInvalidInput
	}

	app := Application{
		ID:            uuid.NewString(),
		StudentID:     studentID,
		ScholarshipID: scholarshipID,
		Status:        StatusDraft,
		CreatedAt:     time.Now().UTC(),
	}
	if err := s.Repo.Create(ctx, app); err != nil {
		return Application{}, err
	}
	return app, nil
}

// Get returns an application, enforcing that only the owning student or an
// admin may read it.
func (s *Service) Get(ctx context.Context, id, requesterID string, isAdmin bool) (Application, error) {
	app, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return Application{}, err
	}
	if !isAdmin && app.StudentID != requesterID {
		return Application{}, ErrForbidden
	}
	return app, nil
}

// ListByStudent lists a student's own applications.
func (s *Service) ListByStudent(ctx context.Context, studentID string, limit, offset int) ([]Application, error) {
	if studentID == "" {
		return nil, ErrInvalidInput
	}
	return s.Repo.ListByStudent(ctx, studentID, limit, offset)
}

// Submit moves a draft application to submitted. An application needs at
// least one uploaded document before it can be submitted.
func (s *Service) Submit(ctx context.Context, id, studentID string) (Application, error) {
	app, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return Application{}, err
	}
	if app.StudentID != studentID {
		return Application{}, ErrForbidden
	}
	if app.Status != StatusDraft {
		return Application{}, ErrInvalidInput
	}

	if s.Documents != nil {
		count, err := s.Documents.CountByApplication(ctx, id)
		if err != nil {
			return Application{}, err
		}
		if count == 0 {
			return Application{}, ErrInvalidInput
		}
	}

	now := time.Now().UTC()
	applied, err := s.Repo.MarkSubmitted(ctx, id, now)
	if err != nil {
		return Application{}, err
	}
	if !applied {
		// Lost a race with another submit.
		return Application{}, ErrInvalidInput
	}

	metrics.IncTransition()
	telemetry.Info("application.submitted", map[string]any{
		"applicationId": id,
		"studentId":     studentID,
	})

	return s.Repo.GetByID(ctx, id)
}

// Review records an admin decision on an application. Rejections require a
// reason.
func (s *Service) Review(ctx context.Context, id, status, reviewedBy, rejectionReason string) (Application, error) {
	if !ValidReviewStatus(status) {
		return Application{}, ErrInvalidInput
	}
	rejectionReason = strings.TrimSpace(rejectionReason)
	if status == StatusRejected && rejectionReason == "" {
		return Application{}, ErrInvalidInput
	}

	if _, err := s.Repo.GetByID(ctx, id); err != nil {
		return Application{}, err
	}

	now := time.Now().UTC()
	if err := s.Repo.SetReview(ctx, id, status, reviewedBy, rejectionReason, now); err != nil {
		return Application{}, err
	}

	telemetry.Info("application.reviewed", map[string]any{
		"applicationId": id,
		"status":        status,
		"reviewedBy":    reviewedBy,
	})

	return s.Repo.GetByID(ctx, id)
}

// Owns reports whether studentID owns the application.
func (s *Service) Owns(ctx context.Context, id, studentID string) (bool, error) {
	app, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return false, err
	}
	return app.StudentID == studentID, nil
}
