package applications

import "time"

// ApplicationResponse is the outward-facing representation of an application.
type ApplicationResponse struct {
	ApplicationID   string     `json:"applicationId"`
	StudentID       string     `json:"studentId"`
	ScholarshipID   string     `json:"scholarshipId"`
	Status          string     `json:"status"`
	RejectionReason string     `json:"rejectionReason,omitempty"`
	SubmittedAt     *time.Time `json:"submittedAt,omitempty"`
	ReviewedAt      *time.Time `json:"reviewedAt,omitempty"`
	ReviewedBy      string     `json:"reviewedBy,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
}

func toResponse(app Application) ApplicationResponse {
	return ApplicationResponse{
		ApplicationID:   app.ID,
		StudentID:       app.StudentID,
		ScholarshipID:   app.ScholarshipID,
		Status:          app.Status,
		RejectionReason: app.RejectionReason,
		SubmittedAt:     app.SubmittedAt,
		ReviewedAt:      app.ReviewedAt,
		ReviewedBy:      app.ReviewedBy,
		CreatedAt:       app.CreatedAt,
	}
}
