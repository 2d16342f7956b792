package documents

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"scholarship-backend/internal/analysis"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// Create inserts a new document record.
func (r *PGRepo) Create(ctx context.Context, doc Document) error {
	const query = `
INSERT INTO documents (
	id, application_id, owner_id, document_type, original_file_name, mime_type,
	size_bytes, storage_key, description, verification_status, uploaded_at
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := r.DB.ExecContext(ctx, query,
		doc.ID,
		doc.ApplicationID,
		doc.OwnerID,
		doc.DocumentType,
		doc.OriginalFileName,
		doc.MimeType,
		doc.SizeBytes,
		doc.StorageKey,
		doc.Description,
		doc.VerificationStatus,
		doc.UploadedAt,
	)
	return err
}

// GetByID returns a document by ID.
func (r *PGRepo) GetByID(ctx context.Context, id string) (Document, error) {
	const query = selectColumns + `
FROM documents
WHERE id = $1
LIMIT 1`
	doc, err := scanDocument(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Document{}, ErrNotFound
		}
		return Document{}, err
	}
	return doc, nil
}

// UpdateDecision applies a verification decision to a document.
func (r *PGRepo) UpdateDecision(ctx context.Context, id, status, rejectionReason, verifiedBy string, at time.Time) error {
	const query = `
UPDATE documents
SET verification_status = $1,
    rejection_reason = NULLIF($2, ''),
    verified_by = $3,
    verified_at = $4
WHERE id = $5`
	res, err := r.DB.ExecContext(ctx, query, status, rejectionReason, verifiedBy, at, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// AttachAnalysis stores an analysis result unless one is already present.
func (r *PGRepo) AttachAnalysis(ctx context.Context, id string, result analysis.Result) error {
	const query = `
UPDATE documents
SET analysis_result = $1::jsonb
WHERE id = $2 AND analysis_result IS NULL`
	payload, err := json.Marshal(result)
	if err != nil {
		return err
	}
	_, err = r.DB.ExecContext(ctx, query, payload, id)
	return err
}

// Delete removes a document record.
func (r *PGRepo) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListByApplication returns an application's documents, oldest first.
func (r *PGRepo) ListByApplication(ctx context.Context, applicationID string) ([]Document, error) {
	const query = selectColumns + `
FROM documents
WHERE application_id = $1
ORDER BY uploaded_at ASC`

	rows, err := r.DB.QueryContext(ctx, query, applicationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, rows.Err()
}

// ListByOwner returns an owner's documents, newest first.
func (r *PGRepo) ListByOwner(ctx context.Context, ownerID string, limit, offset int) ([]Document, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	const query = selectColumns + `
FROM documents
WHERE owner_id = $1
ORDER BY uploaded_at DESC
LIMIT $2 OFFSET $3`

	rows, err := r.DB.QueryContext(ctx, query, ownerID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, rows.Err()
}

// CountByApplication counts an application's documents.
func (r *PGRepo) CountByApplication(ctx context.Context, applicationID string) (int, error) {
	var count int
	err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents WHERE application_id = $1`, applicationID).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}

var _ Repo = (*PGRepo)(nil)

const selectColumns = `
SELECT id, application_id, owner_id, document_type, original_file_name, mime_type,
       size_bytes, storage_key, description, verification_status, rejection_reason,
       analysis_result, uploaded_at, verified_at, verified_by`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (Document, error) {
	var doc Document
	var description sql.NullString
	var rejectionReason sql.NullString
	var analysisResult sql.NullString
	var verifiedAt sql.NullTime
	var verifiedBy sql.NullString
	if err := row.Scan(
		&doc.ID,
		&doc.ApplicationID,
		&doc.OwnerID,
		&doc.DocumentType,
		&doc.OriginalFileName,
		&doc.MimeType,
		&doc.SizeBytes,
		&doc.StorageKey,
		&description,
		&doc.VerificationStatus,
		&rejectionReason,
		&analysisResult,
		&doc.UploadedAt,
		&verifiedAt,
		&verifiedBy,
	); err != nil {
		return Document{}, err
	}
	if description.Valid {
		doc.Description = description.String
	}
	if rejectionReason.Valid {
		doc.RejectionReason = rejectionReason.String
	}
	if analysisResult.Valid {
		var result analysis.Result
		if err := json.Unmarshal([]byte(analysisResult.String), &result); err == nil {
			doc.AnalysisResult = &result
		}
	}
	if verifiedAt.Valid {
		doc.VerifiedAt = &verifiedAt.Time
	}
	if verifiedBy.Valid {
		doc.VerifiedBy = verifiedBy.String
	}
	return doc, nil
}
