package documents

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"scholarship-backend/internal/analysis"
	"scholarship-backend/internal/applications"
	"scholarship-backend/internal/shared/metrics"
	"scholarship-backend/internal/shared/storage/object"
	"scholarship-backend/internal/shared/telemetry"
)

const defaultMaxUploadBytes = 10 << 20 // 10MB

// presignTTL bounds how long an analysis provider or downloader can fetch a
// blob by signed URL.
const presignTTL = 15 * time.Minute

// Service contains the document verification workflow: upload orchestration,
// admin decisions, the aggregate application-status recompute, and deletion.
type Service struct {
	Repo            Repo
	Apps            applications.Repo
	Blobs           object.BlobStore
	Provider        analysis.Provider
	AnalysisTimeout time.Duration
	MaxUploadBytes  int64
}

// Upload validates the file, stores the bytes, records the document, and
// attaches an analysis result when a provider is configured. Analysis is
// best-effort: its failure never fails the upload.
func (s *Service) Upload(ctx context.Context, ownerID, applicationID, docType, fileName, mimeType, description string, r io.Reader) (Document, error) {
	app, err := s.Apps.GetByID(ctx, applicationID)
	if err != nil {
		if errors.Is(err, applications.ErrNotFound) {
			return Document{}, ErrNotFound
		}
		return Document{}, fmt.Errorf("%w: load application: %v", ErrStorage, err)
	}
	if app.StudentID != ownerID {
		return Document{}, ErrForbidden
	}

	// All validation happens before any storage write.
	if strings.TrimSpace(fileName) == "" {
		return Document{}, ErrInvalidInput
	}
	if !ValidDocumentType(docType) {
		return Document{}, ErrInvalidInput
	}
	if !ValidMimeType(mimeType) {
		return Document{}, ErrInvalidInput
	}

	ceiling := s.MaxUploadBytes
	if ceiling <= 0 {
		ceiling = defaultMaxUploadBytes
	}
	data, err := io.ReadAll(io.LimitReader(r, ceiling+1))
	if err != nil {
		return Document{}, fmt.Errorf("%w: read upload: %v", ErrStorage, err)
	}
	if len(data) == 0 {
		return Document{}, ErrInvalidInput
	}
	if int64(len(data)) > ceiling {
		return Document{}, ErrInvalidInput
	}

	storageKey, size, sniffedMime, err := s.Blobs.Put(ctx, ownerID, fileName, bytes.NewReader(data))
	if err != nil {
		return Document{}, fmt.Errorf("%w: store blob: %v", ErrStorage, err)
	}

	doc := Document{
		ID:                 uuid.NewString(),
		ApplicationID:      applicationID,
		OwnerID:            ownerID,
		DocumentType:       docType,
		OriginalFileName:   fileName,
		MimeType:           sniffedMime,
		SizeBytes:          size,
		StorageKey:         storageKey,
		Description:        strings.TrimSpace(description),
		VerificationStatus: StatusPending,
		UploadedAt:         time.Now().UTC(),
	}

	if err := s.Repo.Create(ctx, doc); err != nil {
		// One cleanup attempt for the orphaned blob; the record failure is
		// what the caller sees either way.
		if delErr := s.Blobs.Delete(ctx, storageKey); delErr != nil {
			telemetry.Warn("document.blob_cleanup_failed", map[string]any{
				"storageKey": storageKey,
				"err":        delErr.Error(),
			})
		}
		return Document{}, fmt.Errorf("%w: create record: %v", ErrStorage, err)
	}

	metrics.IncUpload()
	telemetry.Info("document.uploaded", map[string]any{
		"documentId":    doc.ID,
		"applicationId": applicationID,
		"documentType":  docType,
		"sizeBytes":     doc.SizeBytes,
	})

	in := analysis.Input{Bytes: data, MimeType: doc.MimeType}
	if s.Provider != nil {
		if url, err := s.Blobs.PresignGet(ctx, storageKey, presignTTL); err == nil {
			in.SignedURL = url
		}
	}
	outcome := analysis.Run(ctx, s.Provider, in, s.AnalysisTimeout)
	if outcome.Attached() {
		if err := s.Repo.AttachAnalysis(ctx, doc.ID, outcome.Result); err != nil {
			telemetry.Warn("document.analysis_attach_failed", map[string]any{
				"documentId": doc.ID,
				"err":        err.Error(),
			})
		} else {
			result := outcome.Result
			doc.AnalysisResult = &result
		}
	}

	return doc, nil
}

// Decide applies an admin verification decision and recomputes the owning
// application's status. The recompute is best-effort: the decision stands
// even when the rollup fails.
func (s *Service) Decide(ctx context.Context, documentID, decision, rejectionReason, decidedBy string) (Document, string, error) {
	doc, err := s.Repo.GetByID(ctx, documentID)
	if err != nil {
		return Document{}, "", err
	}

	var status string
	switch decision {
	case "verify":
		status = StatusVerified
		rejectionReason = ""
	case "reject":
		status = StatusRejected
		rejectionReason = strings.TrimSpace(rejectionReason)
		if rejectionReason == "" {
			return Document{}, "", ErrInvalidInput
		}
	default:
		return Document{}, "", ErrInvalidInput
	}

	now := time.Now().UTC()
	if err := s.Repo.UpdateDecision(ctx, documentID, status, rejectionReason, decidedBy, now); err != nil {
		return Document{}, "", err
	}

	metrics.IncDecision(status)
	telemetry.Info("document.decision", map[string]any{
		"documentId":    documentID,
		"applicationId": doc.ApplicationID,
		"status":        status,
		"decidedBy":     decidedBy,
	})

	appStatus := s.recompute(ctx, doc.ApplicationID)

	// Status promotion is one-way: a rejection after the application reached
	// under_review does not demote it. Leave a trace for reviewers.
	if status == StatusRejected && appStatus == applications.StatusUnderReview {
		telemetry.Warn("application.rejected_document_after_review_started", map[string]any{
			"applicationId": doc.ApplicationID,
			"documentId":    documentID,
		})
	}

	updated, err := s.Repo.GetByID(ctx, documentID)
	if err != nil {
		return Document{}, "", err
	}
	return updated, appStatus, nil
}

// recompute promotes the owning application submitted -> under_review when
// every document (at least one) is verified. Failures are logged, never
// surfaced; the returned status is best-effort and may be empty.
func (s *Service) recompute(ctx context.Context, applicationID string) string {
	docs, err := s.Repo.ListByApplication(ctx, applicationID)
	if err != nil {
		telemetry.Warn("application.recompute_failed", map[string]any{
			"applicationId": applicationID,
			"err":           err.Error(),
		})
		return ""
	}

	allVerified := len(docs) > 0
	for _, doc := range docs {
		if doc.VerificationStatus != StatusVerified {
			allVerified = false
			break
		}
	}

	status, err := s.Apps.GetStatus(ctx, applicationID)
	if err != nil {
		telemetry.Warn("application.recompute_failed", map[string]any{
			"applicationId": applicationID,
			"err":           err.Error(),
		})
		return ""
	}

	if !allVerified || status != applications.StatusSubmitted {
		return status
	}

	applied, err := s.Apps.ConditionalTransition(ctx, applicationID, applications.StatusSubmitted, applications.StatusUnderReview)
	if err != nil {
		telemetry.Warn("application.recompute_failed", map[string]any{
			"applicationId": applicationID,
			"err":           err.Error(),
		})
		return status
	}
	if applied {
		metrics.IncTransition()
		telemetry.Info("application.status", map[string]any{
			"applicationId": applicationID,
			"from":          applications.StatusSubmitted,
			"to":            applications.StatusUnderReview,
		})
		return applications.StatusUnderReview
	}

	// Lost the compare-and-set; a concurrent caller moved the application.
	if current, err := s.Apps.GetStatus(ctx, applicationID); err == nil {
		return current
	}
	return applications.StatusUnderReview
}

// Delete removes a document. The blob delete is best-effort; the record
// delete is authoritative.
func (s *Service) Delete(ctx context.Context, documentID, requestedBy string, isAdmin bool) error {
	doc, err := s.Repo.GetByID(ctx, documentID)
	if err != nil {
		return err
	}
	if !isAdmin && doc.OwnerID != requestedBy {
		return ErrForbidden
	}

	if err := s.Blobs.Delete(ctx, doc.StorageKey); err != nil {
		telemetry.Warn("document.blob_delete_failed", map[string]any{
			"documentId": documentID,
			"storageKey": doc.StorageKey,
			"err":        err.Error(),
		})
	}

	if err := s.Repo.Delete(ctx, documentID); err != nil {
		return err
	}

	telemetry.Info("document.deleted", map[string]any{
		"documentId":    documentID,
		"applicationId": doc.ApplicationID,
	})
	return nil
}

// Get returns a document, visible to its owner or an admin.
func (s *Service) Get(ctx context.Context, documentID, requesterID string, isAdmin bool) (Document, error) {
	doc, err := s.Repo.GetByID(ctx, documentID)
	if err != nil {
		return Document{}, err
	}
	if !isAdmin && doc.OwnerID != requesterID {
		return Document{}, ErrForbidden
	}
	return doc, nil
}

// ListByApplication returns an application's documents, visible to the owning
// student or an admin.
func (s *Service) ListByApplication(ctx context.Context, applicationID, requesterID string, isAdmin bool) ([]Document, error) {
	app, err := s.Apps.GetByID(ctx, applicationID)
	if err != nil {
		if errors.Is(err, applications.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !isAdmin && app.StudentID != requesterID {
		return nil, ErrForbidden
	}
	return s.Repo.ListByApplication(ctx, applicationID)
}

// ListByOwner returns the requester's own documents.
func (s *Service) ListByOwner(ctx context.Context, ownerID string, limit, offset int) ([]Document, error) {
	if ownerID == "" {
		return nil, ErrInvalidInput
	}
	return s.Repo.ListByOwner(ctx, ownerID, limit, offset)
}

// DownloadURL mints a short-lived signed URL for the document's bytes.
// Stores without presign support return object.ErrPresignUnsupported.
func (s *Service) DownloadURL(ctx context.Context, documentID, requesterID string, isAdmin bool) (string, error) {
	doc, err := s.Get(ctx, documentID, requesterID, isAdmin)
	if err != nil {
		return "", err
	}
	return s.Blobs.PresignGet(ctx, doc.StorageKey, presignTTL)
}

// OpenContent streams the document's bytes for stores without signed URLs.
func (s *Service) OpenContent(ctx context.Context, documentID, requesterID string, isAdmin bool) (Document, io.ReadCloser, error) {
	doc, err := s.Get(ctx, documentID, requesterID, isAdmin)
	if err != nil {
		return Document{}, nil, err
	}
	rc, err := s.Blobs.Open(ctx, doc.StorageKey)
	if err != nil {
		return Document{}, nil, fmt.Errorf("%w: open blob: %v", ErrStorage, err)
	}
	return doc, rc, nil
}
