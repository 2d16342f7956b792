package analysis

import (
	"context"
	"errors"
	"testing"
	"time"
)

type stubProvider struct {
	result Result
	err    error
	calls  int
}

func (s *stubProvider) Analyze(ctx context.Context, in Input) (Result, error) {
	s.calls++
	if s.err != nil {
		return Result{}, s.err
	}
	return s.result, nil
}

func TestRunSkipsWithoutProvider(t *testing.T) {
	out := Run(context.Background(), nil, Input{MimeType: "application/pdf"}, time.Second)
	if out.Kind != OutcomeSkipped {
		t.Fatalf("expected skipped, got %s", out.Kind)
	}
	if out.Attached() {
		t.Fatalf("skipped outcome must not report attached")
	}
}

func TestRunClassifiesFailure(t *testing.T) {
	p := &stubProvider{err: errors.New("boom")}
	out := Run(context.Background(), p, Input{MimeType: "application/pdf"}, time.Second)
	if out.Kind != OutcomeFailed {
		t.Fatalf("expected failed, got %s", out.Kind)
	}
	if out.Err == nil {
		t.Fatalf("expected error preserved on failed outcome")
	}
}

func TestRunAttachesAndClampsConfidence(t *testing.T) {
	p := &stubProvider{result: Result{Confidence: 1.7, RawText: "hello"}}
	out := Run(context.Background(), p, Input{MimeType: "application/pdf"}, time.Second)
	if !out.Attached() {
		t.Fatalf("expected attached, got %s", out.Kind)
	}
	if out.Result.Confidence != 1 {
		t.Fatalf("expected confidence clamped to 1, got %f", out.Result.Confidence)
	}
	if out.Result.RawText != "hello" {
		t.Fatalf("expected raw text preserved, got %q", out.Result.RawText)
	}
}

type slowProvider struct{}

func (slowProvider) Analyze(ctx context.Context, in Input) (Result, error) {
	select {
	case <-ctx.Done():
		return Result{}, ctx.Err()
	case <-time.After(5 * time.Second):
		return Result{RawText: "too late"}, nil
	}
}

func TestRunBoundsProviderTime(t *testing.T) {
	start := time.Now()
	out := Run(context.Background(), slowProvider{}, Input{}, 20*time.Millisecond)
	if out.Kind != OutcomeFailed {
		t.Fatalf("expected failed outcome on timeout, got %s", out.Kind)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("provider was not bounded, took %s", elapsed)
	}
}

func TestBreakerOpensAfterFailures(t *testing.T) {
	p := &stubProvider{err: errors.New("remote down")}
	wrapped := WithBreaker("test", p)

	for i := 0; i < 5; i++ {
		_, _ = wrapped.Analyze(context.Background(), Input{})
	}

	callsBefore := p.calls
	_, err := wrapped.Analyze(context.Background(), Input{})
	if err == nil {
		t.Fatalf("expected error from open breaker")
	}
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable wrap, got %v", err)
	}
	if p.calls != callsBefore {
		t.Fatalf("expected open breaker to short-circuit, inner called %d more times", p.calls-callsBefore)
	}
}
