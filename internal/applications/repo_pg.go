package applications

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// Create inserts a new application.
func (r *PGRepo) Create(ctx context.Context, app Application) error {
	const query = `
INSERT INTO applications (id, student_id, scholarship_id, status, created_at)
VALUES ($1, $2, $3, $4, $5)`
	_, err := r.DB.ExecContext(ctx, query,
		app.ID,
		app.StudentID,
		app.ScholarshipID,
		app.Status,
		app.CreatedAt,
	)
	return err
}

// GetByID returns an application by ID.
func (r *PGRepo) GetByID(ctx context.Context, id string) (Application, error) {
	const query = `
SELECT id, student_id, scholarship_id, status, rejection_reason, submitted_at, reviewed_at, reviewed_by, created_at
FROM applications
WHERE id = $1
LIMIT 1`
	app, err := scanApplication(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Application{}, ErrNotFound
		}
		return Application{}, err
	}
	return app, nil
}

// GetStatus returns just the status of an application.
func (r *PGRepo) GetStatus(ctx context.Context, id string) (string, error) {
	const query = `SELECT status FROM applications WHERE id = $1 LIMIT 1`
	var status string
	if err := r.DB.QueryRowContext(ctx, query, id).Scan(&status); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", err
	}
	return status, nil
}

// ListByStudent lists a student's applications ordered newest-first.
func (r *PGRepo) ListByStudent(ctx context.Context, studentID string, limit, offset int) ([]Application, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	const query = `
SELECT id, student_id, scholarship_id, status, rejection_reason, submitted_at, reviewed_at, reviewed_by, created_at
FROM applications
WHERE student_id = $1
ORDER BY created_at DESC
LIMIT $2 OFFSET $3`

	rows, err := r.DB.QueryContext(ctx, query, studentID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Application
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, app)
	}
	return out, rows.Err()
}

// ConditionalTransition applies fromStatus -> toStatus as a single
// conditional UPDATE, reporting whether a row was changed.
func (r *PGRepo) ConditionalTransition(ctx context.Context, id, fromStatus, toStatus string) (bool, error) {
	const query = `
UPDATE applications
SET status = $1
WHERE id = $2 AND status = $3`
	res, err := r.DB.ExecContext(ctx, query, toStatus, id, fromStatus)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// MarkSubmitted moves draft -> submitted and stamps the submission time.
func (r *PGRepo) MarkSubmitted(ctx context.Context, id string, at time.Time) (bool, error) {
	const query = `
UPDATE applications
SET status = 'submitted',
    submitted_at = $1
WHERE id = $2 AND status = 'draft'`
	res, err := r.DB.ExecContext(ctx, query, at, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// SetReview records an admin review decision.
func (r *PGRepo) SetReview(ctx context.Context, id, status, reviewedBy, rejectionReason string, at time.Time) error {
	const query = `
UPDATE applications
SET status = $1,
    reviewed_by = $2,
    reviewed_at = $3,
    rejection_reason = NULLIF($4, '')
WHERE id = $5`
	res, err := r.DB.ExecContext(ctx, query, status, reviewedBy, at, rejectionReason, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

var _ Repo = (*PGRepo)(nil)

type rowScanner interface {
	Scan(dest ...any) error
}

func scanApplication(row rowScanner) (Application, error) {
	var app Application
	var rejectionReason sql.NullString
	var submittedAt sql.NullTime
	var reviewedAt sql.NullTime
	var reviewedBy sql.NullString
	if err := row.Scan(
		&app.ID,
		&app.StudentID,
		&app.ScholarshipID,
		&app.Status,
		&rejectionReason,
		&submittedAt,
		&reviewedAt,
		&reviewedBy,
		&app.CreatedAt,
	); err != nil {
		return Application{}, err
	}
	if rejectionReason.Valid {
		app.RejectionReason = rejectionReason.String
	}
	if submittedAt.Valid {
		app.SubmittedAt = &submittedAt.Time
	}
	if reviewedAt.Valid {
		app.ReviewedAt = &reviewedAt.Time
	}
	if reviewedBy.Valid {
		app.ReviewedBy = reviewedBy.String
	}
	return app, nil
}
