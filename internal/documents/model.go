package documents

import (
	"strings"
	"time"

	"scholarship-backend/internal/analysis"
)

// Document types accepted at upload. The set is closed; anything else is
// rejected before any storage write.
const (
	TypeIdentity = "identity"
	TypeAcademic = "academic"
	TypeIncome   = "income"
	TypeOther    = "other"
)

// Verification statuses. Only admin decisions move a document out of pending,
// and decisions may be corrected in either direction.
const (
	StatusPending  = "pending"
	StatusVerified = "verified"
	StatusRejected = "rejected"
)

// Document represents one uploaded file's metadata and verification state,
// owned by an application.
type Document struct {
	ID                 string
	ApplicationID      string
	OwnerID            string
	DocumentType       string
	OriginalFileName   string
	MimeType           string
	SizeBytes          int64
	StorageKey         string
	Description        string
	VerificationStatus string
	RejectionReason    string
	AnalysisResult     *analysis.Result
	UploadedAt         time.Time
	VerifiedAt         *time.Time
	VerifiedBy         string
}

// ValidDocumentType reports whether t is in the closed category set.
func ValidDocumentType(t string) bool {
	switch t {
	case TypeIdentity, TypeAcademic, TypeIncome, TypeOther:
		return true
	default:
		return false
	}
}

// ValidMimeType accepts PDFs and images.
func ValidMimeType(mimeType string) bool {
	if mimeType == "application/pdf" {
		return true
	}
	return strings.HasPrefix(mimeType, "image/")
}
