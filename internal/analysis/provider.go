package analysis

import (
	"context"
	"errors"
	"time"

	"scholarship-backend/internal/shared/metrics"
	"scholarship-backend/internal/shared/telemetry"
)

// Result is the normalized payload extracted from a document.
type Result struct {
	Confidence      float64           `json:"confidence"`
	ExtractedFields map[string]string `json:"extractedFields,omitempty"`
	RawText         string            `json:"rawText,omitempty"`
}

// Input carries the stored document to analyze. Bytes are always present;
// SignedURL is set when the blob store supports presigned GETs, for providers
// that fetch the document themselves.
type Input struct {
	Bytes     []byte
	MimeType  string
	SignedURL string
}

// Provider extracts structured data from a document.
type Provider interface {
	Analyze(ctx context.Context, in Input) (Result, error)
}

// ErrUnavailable marks a provider failure that callers must treat as
// best-effort: logged, never surfaced to the uploader.
var ErrUnavailable = errors.New("analysis unavailable")

// Outcome states for a single analysis attempt.
const (
	OutcomeAttached = "attached"
	OutcomeSkipped  = "skipped"
	OutcomeFailed   = "failed"
)

// Outcome makes the best-effort contract explicit: analysis either attached a
// result, was skipped because no provider is configured, or failed and was
// logged and ignored.
type Outcome struct {
	Kind   string
	Result Result
	Err    error
}

// Attached reports whether a result was produced.
func (o Outcome) Attached() bool {
	return o.Kind == OutcomeAttached
}

// Run invokes the provider with a bounded timeout and classifies the result.
// A nil provider yields a skipped outcome; errors yield a failed outcome and
// are never returned to the caller.
func Run(ctx context.Context, p Provider, in Input, timeout time.Duration) Outcome {
	if p == nil {
		metrics.IncAnalysisOutcome(OutcomeSkipped)
		return Outcome{Kind: OutcomeSkipped}
	}

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	result, err := p.Analyze(ctx, in)
	if err != nil {
		metrics.IncAnalysisOutcome(OutcomeFailed)
		telemetry.Warn("analysis.failed", map[string]any{
			"mime_type": in.MimeType,
			"err":       err.Error(),
		})
		return Outcome{Kind: OutcomeFailed, Err: err}
	}

	result.Confidence = clampConfidence(result.Confidence)
	metrics.IncAnalysisOutcome(OutcomeAttached)
	return Outcome{Kind: OutcomeAttached, Result: result}
}

func clampConfidence(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
