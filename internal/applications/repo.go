package applications

import (
	"context"
	"time"
)

// Repo defines persistence operations for applications.
//
// ConditionalTransition must be atomic: a compare-and-set on the current
// status, never a read followed by a separate write. Concurrent document
// decisions rely on it to avoid lost submitted -> under_review transitions.
type Repo interface {
	Create(ctx context.Context, app Application) error
	GetByID(ctx context.Context, id string) (Application, error)
	GetStatus(ctx context.Context, id string) (string, error)
	ListByStudent(ctx context.Context, studentID string, limit, offset int) ([]Application, error)
	ConditionalTransition(ctx context.Context, id, fromStatus, toStatus string) (bool, error)
	MarkSubmitted(ctx context.Context, id string, at time.Time) (bool, error)
	SetReview(ctx context.Context, id, status, reviewedBy, rejectionReason string, at time.Time) error
}
