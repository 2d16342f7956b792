package documents_test

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/gin-gonic/gin"

	"scholarship-backend/internal/bootstrap"
	"scholarship-backend/internal/shared/auth"
	"scholarship-backend/internal/shared/config"
)

func buildTestApp(t *testing.T) *bootstrap.App {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.Config{
		Port:            "0",
		CORSAllowOrigin: []string{"http://localhost:5173"},
		LocalStoreDir:   t.TempDir(),
		Env:             "dev",
		ObjectStoreType: "local",
	}

	app, err := bootstrap.Build(cfg)
	if err != nil {
		t.Fatalf("bootstrap build: %v", err)
	}
	return app
}

func bearer(t *testing.T, sub, role string) string {
	t.Helper()
	token, err := auth.SignJWT(auth.Claims{Sub: sub, Role: role})
	if err != nil {
		t.Fatalf("sign jwt: %v", err)
	}
	return "Bearer " + token
}

func doJSON(t *testing.T, router *gin.Engine, method, path, authz string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", authz)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func uploadPDF(t *testing.T, router *gin.Engine, applicationID, authz string, size int) *httptest.ResponseRecorder {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="file"; filename="passport.pdf"`)
	header.Set("Content-Type", "application/pdf")
	part, err := writer.CreatePart(header)
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	payload := make([]byte, size)
	copy(payload, "%PDF-1.4")
	if _, err := part.Write(payload); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if err := writer.WriteField("documentType", "identity"); err != nil {
		t.Fatalf("write field: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/applications/"+applicationID+"/documents", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", authz)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func TestVerificationWorkflowEndToEnd(t *testing.T) {
	app := buildTestApp(t)
	router := app.Router

	student := bearer(t, "student-1", auth.RoleStudent)
	admin := bearer(t, "admin-1", auth.RoleAdmin)

	// Student opens an application.
	resp := doJSON(t, router, http.MethodPost, "/api/v1/applications", student, map[string]string{"scholarshipId": "sch-1"})
	if resp.Code != http.StatusCreated {
		t.Fatalf("create application status = %d, body %s", resp.Code, resp.Body.String())
	}
	var created struct {
		ApplicationID string `json:"applicationId"`
		Status        string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("decode application: %v", err)
	}
	if created.Status != "draft" {
		t.Fatalf("application status = %q, want draft", created.Status)
	}

	// Upload a 2MB identity PDF; no analysis provider is configured.
	resp = uploadPDF(t, router, created.ApplicationID, student, 2<<20)
	if resp.Code != http.StatusCreated {
		t.Fatalf("upload status = %d, body %s", resp.Code, resp.Body.String())
	}
	var doc struct {
		DocumentID         string          `json:"documentId"`
		VerificationStatus string          `json:"verificationStatus"`
		AnalysisResult     json.RawMessage `json:"analysisResult"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		t.Fatalf("decode document: %v", err)
	}
	if doc.VerificationStatus != "pending" {
		t.Fatalf("verificationStatus = %q, want pending", doc.VerificationStatus)
	}
	if len(doc.AnalysisResult) != 0 {
		t.Fatalf("analysisResult = %s, want absent", doc.AnalysisResult)
	}

	// Submit the application.
	resp = doJSON(t, router, http.MethodPost, "/api/v1/applications/"+created.ApplicationID+"/submit", student, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("submit status = %d, body %s", resp.Code, resp.Body.String())
	}

	// Students cannot decide.
	resp = doJSON(t, router, http.MethodPatch, "/api/v1/admin/documents/"+doc.DocumentID+"/verify", student, nil)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("student verify status = %d, want 403", resp.Code)
	}

	// Admin rejects with a reason; the application stays submitted.
	resp = doJSON(t, router, http.MethodPatch, "/api/v1/admin/documents/"+doc.DocumentID+"/reject", admin, map[string]string{"rejectionReason": "blurry scan"})
	if resp.Code != http.StatusOK {
		t.Fatalf("reject status = %d, body %s", resp.Code, resp.Body.String())
	}
	var decision struct {
		Document struct {
			VerificationStatus string `json:"verificationStatus"`
			RejectionReason    string `json:"rejectionReason"`
		} `json:"document"`
		ApplicationStatus string `json:"applicationStatus"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decision); err != nil {
		t.Fatalf("decode decision: %v", err)
	}
	if decision.Document.VerificationStatus != "rejected" {
		t.Fatalf("verificationStatus = %q, want rejected", decision.Document.VerificationStatus)
	}
	if decision.Document.RejectionReason != "blurry scan" {
		t.Fatalf("rejectionReason = %q", decision.Document.RejectionReason)
	}
	if decision.ApplicationStatus != "submitted" {
		t.Fatalf("applicationStatus = %q, want submitted", decision.ApplicationStatus)
	}

	// Rejecting without a reason fails.
	resp = doJSON(t, router, http.MethodPatch, "/api/v1/admin/documents/"+doc.DocumentID+"/reject", admin, map[string]string{})
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("reject without reason status = %d, want 400", resp.Code)
	}

	// Admin verifies the only document; the application moves to under_review.
	resp = doJSON(t, router, http.MethodPatch, "/api/v1/admin/documents/"+doc.DocumentID+"/verify", admin, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("verify status = %d, body %s", resp.Code, resp.Body.String())
	}
	if err := json.NewDecoder(resp.Body).Decode(&decision); err != nil {
		t.Fatalf("decode decision: %v", err)
	}
	if decision.Document.VerificationStatus != "verified" {
		t.Fatalf("verificationStatus = %q, want verified", decision.Document.VerificationStatus)
	}
	if decision.Document.RejectionReason != "" {
		t.Fatalf("rejectionReason = %q, want cleared", decision.Document.RejectionReason)
	}
	if decision.ApplicationStatus != "under_review" {
		t.Fatalf("applicationStatus = %q, want under_review", decision.ApplicationStatus)
	}

	// The application reflects the promotion.
	resp = doJSON(t, router, http.MethodGet, "/api/v1/applications/"+created.ApplicationID, student, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("get application status = %d", resp.Code)
	}
	var fetched struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&fetched); err != nil {
		t.Fatalf("decode application: %v", err)
	}
	if fetched.Status != "under_review" {
		t.Fatalf("status = %q, want under_review", fetched.Status)
	}
}

func TestUploadRejectsUnknownDocumentType(t *testing.T) {
	app := buildTestApp(t)
	router := app.Router
	student := bearer(t, "student-1", auth.RoleStudent)

	resp := doJSON(t, router, http.MethodPost, "/api/v1/applications", student, map[string]string{"scholarshipId": "sch-1"})
	if resp.Code != http.StatusCreated {
		t.Fatalf("create application status = %d", resp.Code)
	}
	var created struct {
		ApplicationID string `json:"applicationId"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("decode application: %v", err)
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="file"; filename="notes.pdf"`)
	header.Set("Content-Type", "application/pdf")
	part, err := writer.CreatePart(header)
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	if _, err := part.Write([]byte("%PDF-1.4 test")); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if err := writer.WriteField("documentType", "passport"); err != nil {
		t.Fatalf("write field: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/applications/"+created.ApplicationID+"/documents", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", student)
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("upload status = %d, want 400", resp.Code)
	}
}

func TestDocumentRoutesRequireAuth(t *testing.T) {
	app := buildTestApp(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/documents", nil)
	resp := httptest.NewRecorder()
	app.Router.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.Code)
	}
}
