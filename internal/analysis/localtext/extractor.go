package localtext

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"

	"scholarship-backend/internal/analysis"
)

const mimePDF = "application/pdf"

// Extractor is a local analysis provider that pulls plain text out of PDF
// documents. It attaches no extracted fields; confidence is a fixed
// conservative value since no model is involved.
type Extractor struct{}

// New constructs an Extractor.
func New() *Extractor {
	return &Extractor{}
}

const extractedConfidence = 0.5

// Analyze extracts plain text from a PDF payload. Image uploads carry no
// extractable text and report unavailability.
func (e *Extractor) Analyze(ctx context.Context, in analysis.Input) (analysis.Result, error) {
	if err := ctx.Err(); err != nil {
		return analysis.Result{}, err
	}
	if in.MimeType != mimePDF {
		return analysis.Result{}, fmt.Errorf("%w: no local extraction for %s", analysis.ErrUnavailable, in.MimeType)
	}

	text, err := extractPDF(in.Bytes)
	if err != nil {
		return analysis.Result{}, fmt.Errorf("%w: pdf extract: %v", analysis.ErrUnavailable, err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return analysis.Result{}, fmt.Errorf("%w: pdf contains no text", analysis.ErrUnavailable)
	}

	return analysis.Result{
		Confidence: extractedConfidence,
		RawText:    text,
	}, nil
}

func extractPDF(data []byte) (string, error) {
	reader := bytes.NewReader(data)
	pdfReader, err := pdf.NewReader(reader, int64(len(data)))
	if err != nil {
		return "", err
	}
	plain, err := pdfReader.GetPlainText()
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", err
	}
	return buf.String(), nil
}

var _ analysis.Provider = (*Extractor)(nil)
