package applications

import (
	"context"
	"errors"
	"sync"
	"testing"
)

type stubCounter struct {
	count int
	err   error
}

func (s *stubCounter) CountByApplication(ctx context.Context, applicationID string) (int, error) {
	return s.count, s.err
}

func newTestService(count int) (*Service, *MemoryRepo) {
	repo := NewMemoryRepo()
	svc := &Service{Repo: repo, Documents: &stubCounter{count: count}}
	return svc, repo
}

func TestCreateRequiresScholarshipID(t *testing.T) {
	svc, _ := newTestService(0)

	if _, err := svc.Create(context.Background(), "student-1", "  "); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}

	app, err := svc.Create(context.Background(), "student-1", "sch-1")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if app.Status != StatusDraft {
		t.Fatalf("status = %q, want %q", app.Status, StatusDraft)
	}
	if app.ID == "" {
		t.Fatal("expected generated id")
	}
}

func TestGetEnforcesOwnership(t *testing.T) {
	svc, _ := newTestService(0)
	app, err := svc.Create(context.Background(), "student-1", "sch-1")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, err := svc.Get(context.Background(), app.ID, "student-2", false); !errors.Is(err, ErrForbidden) {
		t.Fatalf("err = %v, want ErrForbidden", err)
	}
	if _, err := svc.Get(context.Background(), app.ID, "student-2", true); err != nil {
		t.Fatalf("admin Get: %v", err)
	}
	if _, err := svc.Get(context.Background(), app.ID, "student-1", false); err != nil {
		t.Fatalf("owner Get: %v", err)
	}
}

func TestSubmitRequiresAtLeastOneDocument(t *testing.T) {
	svc, _ := newTestService(0)
	app, err := svc.Create(context.Background(), "student-1", "sch-1")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, err := svc.Submit(context.Background(), app.ID, "student-1"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}

	svc.Documents = &stubCounter{count: 1}
	submitted, err := svc.Submit(context.Background(), app.ID, "student-1")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if submitted.Status != StatusSubmitted {
		t.Fatalf("status = %q, want %q", submitted.Status, StatusSubmitted)
	}
	if submitted.SubmittedAt == nil {
		t.Fatal("expected submittedAt to be stamped")
	}

	// Submitting twice is rejected.
	if _, err := svc.Submit(context.Background(), app.ID, "student-1"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("second submit err = %v, want ErrInvalidInput", err)
	}
}

func TestSubmitRejectsNonOwner(t *testing.T) {
	svc, _ := newTestService(1)
	app, err := svc.Create(context.Background(), "student-1", "sch-1")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, err := svc.Submit(context.Background(), app.ID, "student-2"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("err = %v, want ErrForbidden", err)
	}
}

func TestReviewRequiresReasonForRejection(t *testing.T) {
	svc, _ := newTestService(1)
	app, err := svc.Create(context.Background(), "student-1", "sch-1")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, err := svc.Review(context.Background(), app.ID, StatusRejected, "admin-1", ""); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}

	reviewed, err := svc.Review(context.Background(), app.ID, StatusRejected, "admin-1", "incomplete documents")
	if err != nil {
		t.Fatalf("Review: %v", err)
	}
	if reviewed.RejectionReason != "incomplete documents" {
		t.Fatalf("rejectionReason = %q", reviewed.RejectionReason)
	}
	if reviewed.ReviewedBy != "admin-1" {
		t.Fatalf("reviewedBy = %q", reviewed.ReviewedBy)
	}
	if reviewed.ReviewedAt == nil {
		t.Fatal("expected reviewedAt to be stamped")
	}
}

func TestReviewRejectsUnknownStatus(t *testing.T) {
	svc, _ := newTestService(1)
	app, err := svc.Create(context.Background(), "student-1", "sch-1")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, err := svc.Review(context.Background(), app.ID, "draft", "admin-1", ""); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
}

func TestReviewClearsReasonOnApproval(t *testing.T) {
	svc, _ := newTestService(1)
	app, err := svc.Create(context.Background(), "student-1", "sch-1")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, err := svc.Review(context.Background(), app.ID, StatusRejected, "admin-1", "blurry"); err != nil {
		t.Fatalf("Review reject: %v", err)
	}
	approved, err := svc.Review(context.Background(), app.ID, StatusApproved, "admin-1", "")
	if err != nil {
		t.Fatalf("Review approve: %v", err)
	}
	if approved.RejectionReason != "" {
		t.Fatalf("rejectionReason = %q, want empty after approval", approved.RejectionReason)
	}
}

func TestConditionalTransitionIsCompareAndSet(t *testing.T) {
	repo := NewMemoryRepo()
	svc := &Service{Repo: repo, Documents: &stubCounter{count: 1}}

	app, err := svc.Create(context.Background(), "student-1", "sch-1")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := svc.Submit(context.Background(), app.ID, "student-1"); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	// Many writers race the same transition; exactly one wins.
	var wg sync.WaitGroup
	wins := make(chan bool, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			applied, err := repo.ConditionalTransition(context.Background(), app.ID, StatusSubmitted, StatusUnderReview)
			if err != nil {
				t.Errorf("ConditionalTransition: %v", err)
				return
			}
			wins <- applied
		}()
	}
	wg.Wait()
	close(wins)

	applied := 0
	for win := range wins {
		if win {
			applied++
		}
	}
	if applied != 1 {
		t.Fatalf("applied = %d, want exactly 1", applied)
	}

	status, err := repo.GetStatus(context.Background(), app.ID)
	if err != nil {
		t.Fatalf("GetStatus: %v", err)
	}
	if status != StatusUnderReview {
		t.Fatalf("status = %q, want %q", status, StatusUnderReview)
	}
}

func TestConditionalTransitionUnknownApplication(t *testing.T) {
	repo := NewMemoryRepo()
	if _, err := repo.ConditionalTransition(context.Background(), "missing", StatusSubmitted, StatusUnderReview); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}
