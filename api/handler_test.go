package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/lipiai/document-translation-service/internal/models"
)

type fakeProcessor struct {
	result *models.PipelineResult
	err    error
	calls  int
	got    string
}

func (f *fakeProcessor) Process(ctx context.Context, data []byte, filename string) (*models.PipelineResult, error) {
	f.calls++
	f.got = filename
	return f.result, f.err
}

func (f *fakeProcessor) Model() string { return "google/gemini-2.0-flash-001" }

type fakeTesseract struct{ err error }

func (f fakeTesseract) Version() (string, error) { return "tesseract 5.3.0", f.err }

type fakeRenderer bool

func (f fakeRenderer) Available() bool { return bool(f) }

func testConfig() *models.Config {
	c := &models.Config{}
	c.ApplyDefaults()
	return c
}

func newTestServer(p Processor, tess VersionChecker, renderer AvailabilityChecker) http.Handler {
	return CORS(NewHandler(testConfig(), p, nil, tess, renderer).SetupRoutes())
}

func multipartBody(t *testing.T, field, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, filename)
	if err != nil {
		t.Fatal(err)
	}
	fw.Write(content)
	mw.Close()
	return &buf, mw.FormDataContentType()
}

func okResult() *models.PipelineResult {
	return &models.PipelineResult{
		Filename:       "scan.png",
		Kind:           models.KindImage,
		ExtractedText:  "म नेवार हुँ",
		TranslatedText: "म नेवार हुँ",
		Model:          "google/gemini-2.0-flash-001",
		PageCount:      1,
		Pages:          []models.PageResult{{Index: 1, Extracted: "म नेवार हुँ", Translated: "म नेवार हुँ"}},
		Timings: models.StageTimings{
			Load:        10 * time.Millisecond,
			Recognition: 1234 * time.Millisecond,
			Translation: 2346 * time.Millisecond,
			Total:       3589 * time.Millisecond,
		},
	}
}

func TestUploadSuccess(t *testing.T) {
	proc := &fakeProcessor{result: okResult()}
	srv := newTestServer(proc, nil, nil)

	body, ct := multipartBody(t, "file", "scan.png", []byte("png bytes"))
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", ct)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
	var resp UploadResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Kind != "" {
		t.Fatalf("kind = %q on a clean run", resp.Kind)
	}
	if resp.Message != "Document processed successfully" || resp.TranslatedText != "म नेवार हुँ" {
		t.Fatalf("unexpected response %+v", resp)
	}
	if resp.DocumentID != "" {
		t.Fatalf("document id without database: %q", resp.DocumentID)
	}
	if resp.Timing.OCRProcessing != 1.24 || resp.Timing.LLMResponse != 2.35 {
		t.Fatalf("timing = %+v", resp.Timing)
	}
	if resp.DegradedPages == nil || len(resp.DegradedPages) != 0 {
		t.Fatalf("degraded_pages = %v", resp.DegradedPages)
	}
	if proc.got != "scan.png" {
		t.Fatalf("pipeline got filename %q", proc.got)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatal("missing CORS header")
	}
}

func TestUploadAcceptsImageField(t *testing.T) {
	proc := &fakeProcessor{result: okResult()}
	srv := newTestServer(proc, nil, nil)

	body, ct := multipartBody(t, "image", "scan.jpg", []byte("jpg"))
	req := httptest.NewRequest(http.MethodPost, "/api/documents", body)
	req.Header.Set("Content-Type", ct)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK || proc.calls != 1 {
		t.Fatalf("status = %d calls = %d", rec.Code, proc.calls)
	}
}

func TestUploadDegradedMessage(t *testing.T) {
	res := okResult()
	res.DegradedPages = []int{1}
	srv := newTestServer(&fakeProcessor{result: res}, nil, nil)

	body, ct := multipartBody(t, "file", "scan.png", []byte("x"))
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", ct)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	var resp UploadResponse
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if rec.Code != http.StatusOK || len(resp.DegradedPages) != 1 || resp.Message == "Document processed successfully" {
		t.Fatalf("status=%d resp=%+v", rec.Code, resp)
	}
	if resp.Kind != models.KindTranslationDegraded {
		t.Fatalf("kind = %q, want %q", resp.Kind, models.KindTranslationDegraded)
	}
}

func TestUploadRejectsUnsupportedType(t *testing.T) {
	proc := &fakeProcessor{result: okResult()}
	srv := newTestServer(proc, nil, nil)

	body, ct := multipartBody(t, "file", "report.docx", []byte("x"))
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", ct)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp ErrorResponse
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Kind != models.KindUnsupportedType {
		t.Fatalf("kind = %q", resp.Kind)
	}
	if proc.calls != 0 {
		t.Fatal("pipeline must not run for unsupported files")
	}
}

func TestUploadMissingFile(t *testing.T) {
	srv := newTestServer(&fakeProcessor{}, nil, nil)
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	mw.WriteField("note", "no file")
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestUploadTooLarge(t *testing.T) {
	cfg := testConfig()
	cfg.MaxUploadMB = 1
	srv := NewHandler(cfg, &fakeProcessor{}, nil, nil, nil).SetupRoutes()

	body, ct := multipartBody(t, "file", "big.png", make([]byte, 2<<20))
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", ct)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestUploadPipelineErrors(t *testing.T) {
	tests := []struct {
		err        error
		wantStatus int
		wantPage   int
	}{
		{&models.PipelineError{Kind: models.KindRecognitionFailed, PageIndex: 2, Err: errors.New("boom")}, http.StatusUnprocessableEntity, 2},
		{&models.PipelineError{Kind: models.KindConversionFailed, Err: errors.New("no pdftoppm")}, http.StatusUnprocessableEntity, 0},
		{&models.PipelineError{Kind: models.KindUnreadableFile, Err: errors.New("bad")}, http.StatusUnprocessableEntity, 0},
		{&models.PipelineError{Kind: models.KindInternal, Err: errors.New("bug")}, http.StatusInternalServerError, 0},
	}
	for _, tt := range tests {
		srv := newTestServer(&fakeProcessor{err: tt.err}, nil, nil)
		body, ct := multipartBody(t, "file", "doc.pdf", []byte("%PDF"))
		req := httptest.NewRequest(http.MethodPost, "/upload", body)
		req.Header.Set("Content-Type", ct)
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, req)

		if rec.Code != tt.wantStatus {
			t.Errorf("%v: status = %d, want %d", tt.err, rec.Code, tt.wantStatus)
			continue
		}
		var resp ErrorResponse
		json.Unmarshal(rec.Body.Bytes(), &resp)
		if resp.Page != tt.wantPage {
			t.Errorf("%v: page = %d, want %d", tt.err, resp.Page, tt.wantPage)
		}
	}
}

func TestHealth(t *testing.T) {
	tests := []struct {
		name       string
		tess       VersionChecker
		renderer   AvailabilityChecker
		wantStatus int
		wantState  string
	}{
		{"healthy", fakeTesseract{}, fakeRenderer(true), http.StatusOK, "healthy"},
		{"no renderer", fakeTesseract{}, fakeRenderer(false), http.StatusOK, "degraded"},
		{"no tesseract", fakeTesseract{err: errors.New("missing")}, fakeRenderer(true), http.StatusServiceUnavailable, "unhealthy"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(&fakeProcessor{}, tt.tess, tt.renderer)
			rec := httptest.NewRecorder()
			srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d", rec.Code)
			}
			var resp HealthResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if resp.Status != tt.wantState || resp.AI["model"] != "google/gemini-2.0-flash-001" {
				t.Fatalf("unexpected %+v", resp)
			}
			if resp.Database.Available {
				t.Fatal("database should be unavailable in tests")
			}
		})
	}
}

func TestRoot(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestServer(&fakeProcessor{}, nil, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	var resp map[string]string
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if rec.Code != http.StatusOK || resp["status"] != "running" {
		t.Fatalf("status=%d body=%v", rec.Code, resp)
	}
}

func TestCORSPreflight(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestServer(&fakeProcessor{}, nil, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/upload", nil))
	if rec.Code != http.StatusNoContent || rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatalf("status=%d headers=%v", rec.Code, rec.Header())
	}
}

func TestDocumentRoutesNeedDatabase(t *testing.T) {
	srv := newTestServer(&fakeProcessor{}, nil, nil)
	for _, r := range []struct{ method, path string }{
		{http.MethodGet, "/api/documents"},
		{http.MethodGet, "/api/documents/9b2d1c3e-8f1a-4c55-9e2b-1a2b3c4d5e6f"},
		{http.MethodGet, "/api/documents/9b2d1c3e-8f1a-4c55-9e2b-1a2b3c4d5e6f/file"},
		{http.MethodDelete, "/api/documents/9b2d1c3e-8f1a-4c55-9e2b-1a2b3c4d5e6f"},
	} {
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, httptest.NewRequest(r.method, r.path, nil))
		if rec.Code != http.StatusServiceUnavailable {
			t.Errorf("%s %s: status = %d", r.method, r.path, rec.Code)
		}
	}
}

func TestStatusForKind(t *testing.T) {
	if StatusForKind(models.KindUnsupportedType) != http.StatusBadRequest {
		t.Fatal("UnsupportedType should be 400")
	}
	if StatusForKind(models.KindInvalidImage) != http.StatusUnprocessableEntity {
		t.Fatal("InvalidImage should be 422")
	}
}
