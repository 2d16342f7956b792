package applications

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu   sync.Mutex
	data map[string]Application
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		data: make(map[string]Application),
	}
}

// Create stores a new application.
func (r *MemoryRepo) Create(ctx context.Context, app Application) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[app.ID] = app
	return nil
}

// GetByID returns an application by ID.
func (r *MemoryRepo) GetByID(ctx context.Context, id string) (Application, error) {
	if err := ctx.Err(); err != nil {
		return Application{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	app, ok := r.data[id]
	if !ok {
		return Application{}, ErrNotFound
	}
	return app, nil
}

// GetStatus returns just the status of an application.
func (r *MemoryRepo) GetStatus(ctx context.Context, id string) (string, error) {
	app, err := r.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	return app.Status, nil
}

// ListByStudent returns a student's applications, newest first.
func (r *MemoryRepo) ListByStudent(ctx context.Context, studentID string, limit, offset int) ([]Application, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = 20
	}

	r.mu.Lock()
	var apps []Application
	for _, app := range r.data {
		if app.StudentID == studentID {
			apps = append(apps, app)
		}
	}
	r.mu.Unlock()

	sort.Slice(apps, func(i, j int) bool {
		return apps[i].CreatedAt.After(apps[j].CreatedAt)
	})

	if offset >= len(apps) {
		return []Application{}, nil
	}
	end := len(apps)
	if offset+limit < end {
		end = offset + limit
	}
	return apps[offset:end], nil
}

// ConditionalTransition applies fromStatus -> toStatus as a compare-and-set
// under the repo mutex, reporting whether the write was applied.
func (r *MemoryRepo) ConditionalTransition(ctx context.Context, id, fromStatus, toStatus string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	app, ok := r.data[id]
	if !ok {
		return false, ErrNotFound
	}
	if app.Status != fromStatus {
		return false, nil
	}
	app.Status = toStatus
	r.data[id] = app
	return true, nil
}

// MarkSubmitted moves draft -> submitted and stamps the submission time.
func (r *MemoryRepo) MarkSubmitted(ctx context.Context, id string, at time.Time) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	app, ok := r.data[id]
	if !ok {
		return false, ErrNotFound
	}
	if app.Status != StatusDraft {
		return false, nil
	}
	app.Status = StatusSubmitted
	app.SubmittedAt = &at
	r.data[id] = app
	return true, nil
}

// SetReview records an admin review decision.
func (r *MemoryRepo) SetReview(ctx context.Context, id, status, reviewedBy, rejectionReason string, at time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	app, ok := r.data[id]
	if !ok {
		return ErrNotFound
	}
	app.Status = status
	app.ReviewedBy = reviewedBy
	app.ReviewedAt = &at
	if status == StatusRejected {
		app.RejectionReason = rejectionReason
	} else {
		app.RejectionReason = ""
	}
	r.data[id] = app
	return nil
}

var _ Repo = (*MemoryRepo)(nil)
