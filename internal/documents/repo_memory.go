package documents

import (
	"context"
	"sort"
	"sync"
	"time"

	"scholarship-backend/internal/analysis"
)

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu   sync.Mutex
	data map[string]Document
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		data: make(map[string]Document),
	}
}

// Create stores a new document record.
func (r *MemoryRepo) Create(ctx context.Context, doc Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[doc.ID] = doc
	return nil
}

// GetByID returns a document by ID.
func (r *MemoryRepo) GetByID(ctx context.Context, id string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.data[id]
	if !ok {
		return Document{}, ErrNotFound
	}
	return doc, nil
}

// UpdateDecision applies a verification decision to a document.
func (r *MemoryRepo) UpdateDecision(ctx context.Context, id, status, rejectionReason, verifiedBy string, at time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.data[id]
	if !ok {
		return ErrNotFound
	}
	doc.VerificationStatus = status
	doc.RejectionReason = rejectionReason
	doc.VerifiedBy = verifiedBy
	doc.VerifiedAt = &at
	r.data[id] = doc
	return nil
}

// AttachAnalysis stores an analysis result unless one is already present.
func (r *MemoryRepo) AttachAnalysis(ctx context.Context, id string, result analysis.Result) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.data[id]
	if !ok {
		return ErrNotFound
	}
	if doc.AnalysisResult != nil {
		return nil
	}
	doc.AnalysisResult = &result
	r.data[id] = doc
	return nil
}

// Delete removes a document record.
func (r *MemoryRepo) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.data[id]; !ok {
		return ErrNotFound
	}
	delete(r.data, id)
	return nil
}

// ListByApplication returns an application's documents, oldest first.
func (r *MemoryRepo) ListByApplication(ctx context.Context, applicationID string) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	var docs []Document
	for _, doc := range r.data {
		if doc.ApplicationID == applicationID {
			docs = append(docs, doc)
		}
	}
	r.mu.Unlock()

	sort.Slice(docs, func(i, j int) bool {
		return docs[i].UploadedAt.Before(docs[j].UploadedAt)
	})
	return docs, nil
}

// ListByOwner returns an owner's documents, newest first.
func (r *MemoryRepo) ListByOwner(ctx context.Context, ownerID string, limit, offset int) ([]Document, error) {
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
	var docs []Document
	for _, doc := range r.data {
		if doc.OwnerID == ownerID {
			docs = append(docs, doc)
		}
	}
	r.mu.Unlock()

	sort.Slice(docs, func(i, j int) bool {
		return docs[i].UploadedAt.After(docs[j].UploadedAt)
	})

	if offset >= len(docs) {
		return []Document{}, nil
	}
	end := len(docs)
	if offset+limit < end {
		end = offset + limit
	}
	return docs[offset:end], nil
}

// CountByApplication counts an application's documents.
func (r *MemoryRepo) CountByApplication(ctx context.Context, applicationID string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, doc := range r.data {
		if doc.ApplicationID == applicationID {
			count++
		}
	}
	return count, nil
}

var _ Repo = (*MemoryRepo)(nil)
