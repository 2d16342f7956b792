package applications

import "time"

// Application statuses. The verification workflow only ever writes the
// submitted -> under_review transition; review decisions write the rest.
const (
	StatusDraft       = "draft"
	StatusSubmitted   = "submitted"
	StatusUnderReview = "under_review"
	StatusApproved    = "approved"
	StatusRejected    = "rejected"
)

// Application represents a scholarship application owned by a student.
type Application struct {
	ID              string
	StudentID       string
	ScholarshipID   string
	Status          string
	RejectionReason string
	SubmittedAt     *time.Time
	ReviewedAt      *time.Time
	ReviewedBy      string
	CreatedAt       time.Time
}

// ValidReviewStatus reports whether status is one an admin may set directly.
func ValidReviewStatus(status string) bool {
	switch status {
	case StatusUnderReview, StatusApproved, StatusRejected:
		return true
	default:
		return false
	}
}
