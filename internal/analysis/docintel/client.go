package docintel

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"scholarship-backend/internal/analysis"
)

const (
	apiVersion   = "2024-02-29-preview"
	modelID      = "prebuilt-document"
	pollInterval = 2 * time.Second
)

// Client implements analysis.Provider against an Azure Document
// Intelligence-style REST API: submit an analyze request, then poll the
// returned operation until it settles.
type Client struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
}

// NewClient constructs a document-intelligence client.
func NewClient(endpoint, apiKey string) (*Client, error) {
	if strings.TrimSpace(endpoint) == "" {
		return nil, fmt.Errorf("DOCINTEL_ENDPOINT is required")
	}
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("DOCINTEL_API_KEY is required")
	}
	return &Client{
		endpoint:   strings.TrimRight(strings.TrimSpace(endpoint), "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{},
	}, nil
}

type urlSourceRequest struct {
	URLSource string `json:"urlSource"`
}

type analyzeOperation struct {
	Status        string `json:"status"`
	AnalyzeResult *struct {
		Content       string `json:"content"`
		KeyValuePairs []struct {
			Key *struct {
				Content string `json:"content"`
			} `json:"key"`
			Value *struct {
				Content string `json:"content"`
			} `json:"value"`
			Confidence float64 `json:"confidence"`
		} `json:"keyValuePairs"`
	} `json:"analyzeResult"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Analyze submits the document and polls until the operation settles.
// The signed URL is preferred when present; otherwise raw bytes are posted.
func (c *Client) Analyze(ctx context.Context, in analysis.Input) (analysis.Result, error) {
	opURL, err := c.submit(ctx, in)
	if err != nil {
		return analysis.Result{}, err
	}
	op, err := c.poll(ctx, opURL)
	if err != nil {
		return analysis.Result{}, err
	}
	return normalize(op), nil
}

func (c *Client) submit(ctx context.Context, in analysis.Input) (string, error) {
	analyzeURL := fmt.Sprintf("%s/documentintelligence/documentModels/%s:analyze?api-version=%s", c.endpoint, modelID, apiVersion)

	var body io.Reader
	contentType := ""
	if in.SignedURL != "" {
		payload, err := json.Marshal(urlSourceRequest{URLSource: in.SignedURL})
		if err != nil {
			return "", err
		}
		body = bytes.NewReader(payload)
		contentType = "application/json"
	} else {
		body = bytes.NewReader(in.Bytes)
		contentType = "application/octet-stream"
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, analyzeURL, body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Ocp-Apim-Subscription-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("docintel submit: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusAccepted {
		return "", fmt.Errorf("docintel submit: unexpected status %d", resp.StatusCode)
	}

	opURL := resp.Header.Get("Operation-Location")
	if opURL == "" {
		return "", fmt.Errorf("docintel submit: missing Operation-Location header")
	}
	return opURL, nil
}

func (c *Client) poll(ctx context.Context, opURL string) (analyzeOperation, error) {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		op, err := c.fetchOperation(ctx, opURL)
		if err != nil {
			return analyzeOperation{}, err
		}
		switch op.Status {
		case "succeeded":
			return op, nil
		case "failed":
			msg := "unknown"
			if op.Error != nil {
				msg = op.Error.Message
			}
			return analyzeOperation{}, fmt.Errorf("docintel analyze failed: %s", msg)
		}

		select {
		case <-ctx.Done():
			return analyzeOperation{}, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (c *Client) fetchOperation(ctx context.Context, opURL string) (analyzeOperation, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, opURL, nil)
	if err != nil {
		return analyzeOperation{}, err
	}
	req.Header.Set("Ocp-Apim-Subscription-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return analyzeOperation{}, fmt.Errorf("docintel poll: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return analyzeOperation{}, fmt.Errorf("docintel poll: unexpected status %d", resp.StatusCode)
	}

	var op analyzeOperation
	if err := json.NewDecoder(resp.Body).Decode(&op); err != nil {
		return analyzeOperation{}, fmt.Errorf("docintel poll: decode: %w", err)
	}
	return op, nil
}

func normalize(op analyzeOperation) analysis.Result {
	result := analysis.Result{}
	if op.AnalyzeResult == nil {
		return result
	}
	result.RawText = op.AnalyzeResult.Content

	if len(op.AnalyzeResult.KeyValuePairs) > 0 {
		fields := make(map[string]string, len(op.AnalyzeResult.KeyValuePairs))
		sum := 0.0
		counted := 0
		for _, kvp := range op.AnalyzeResult.KeyValuePairs {
			if kvp.Key == nil || kvp.Value == nil {
				continue
			}
			key := strings.TrimSpace(kvp.Key.Content)
			if key == "" {
				continue
			}
			fields[key] = strings.TrimSpace(kvp.Value.Content)
			sum += kvp.Confidence
			counted++
		}
		result.ExtractedFields = fields
		if counted > 0 {
			result.Confidence = sum / float64(counted)
		}
	}
	return result
}

var _ analysis.Provider = (*Client)(nil)
