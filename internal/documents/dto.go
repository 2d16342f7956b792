package documents

import (
	"time"

	"scholarship-backend/internal/analysis"
)

// DocumentResponse is the outward-facing representation of a document.
type DocumentResponse struct {
	DocumentID         string           `json:"documentId"`
	ApplicationID      string           `json:"applicationId"`
	DocumentType       string           `json:"documentType"`
	FileName           string           `json:"fileName"`
	MimeType           string           `json:"mimeType"`
	SizeBytes          int64            `json:"sizeBytes"`
	Description        string           `json:"description,omitempty"`
	VerificationStatus string           `json:"verificationStatus"`
	RejectionReason    string           `json:"rejectionReason,omitempty"`
	AnalysisResult     *analysis.Result `json:"analysisResult,omitempty"`
	UploadedAt         time.Time        `json:"uploadedAt"`
	VerifiedAt         *time.Time       `json:"verifiedAt,omitempty"`
	VerifiedBy         string           `json:"verifiedBy,omitempty"`
}

func toResponse(doc Document) DocumentResponse {
	return DocumentResponse{
		DocumentID:         doc.ID,
		ApplicationID:      doc.ApplicationID,
		DocumentType:       doc.DocumentType,
		FileName:           doc.OriginalFileName,
		MimeType:           doc.MimeType,
		SizeBytes:          doc.SizeBytes,
		Description:        doc.Description,
		VerificationStatus: doc.VerificationStatus,
		RejectionReason:    doc.RejectionReason,
		AnalysisResult:     doc.AnalysisResult,
		UploadedAt:         doc.UploadedAt,
		VerifiedAt:         doc.VerifiedAt,
		VerifiedBy:         doc.VerifiedBy,
	}
}
