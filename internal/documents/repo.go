package documents

import (
	"context"
	"time"

	"scholarship-backend/internal/analysis"
)

// Repo defines persistence operations for documents.
//
// AttachAnalysis is write-once: a result is only stored when no result is
// already attached, so the analysis payload can never be mutated after the
// fact.
type Repo interface {
	Create(ctx context.Context, doc Document) error
	GetByID(ctx context.Context, id string) (Document, error)
	UpdateDecision(ctx context.Context, id, status, rejectionReason, verifiedBy string, at time.Time) error
	AttachAnalysis(ctx context.Context, id string, result analysis.Result) error
	Delete(ctx context.Context, id string) error
	ListByApplication(ctx context.Context, applicationID string) ([]Document, error)
	ListByOwner(ctx context.Context, ownerID string, limit, offset int) ([]Document, error)
	CountByApplication(ctx context.Context, applicationID string) (int, error)
}
