package api

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/lipiai/document-translation-service/internal/db"
	"github.com/lipiai/document-translation-service/internal/models"
	"github.com/lipiai/document-translation-service/internal/ocr"
	"github.com/lipiai/document-translation-service/internal/storage"
)

const presignExpiry = 24 * time.Hour

// Timing is reported in seconds rounded to two places
type Timing struct {
	FileUpload     float64 `json:"file_upload_seconds"`
	OCRProcessing  float64 `json:"ocr_processing_seconds"`
	LLMResponse    float64 `json:"llm_api_response_seconds"`
	TotalProcessed float64 `json:"total_processing_seconds"`
}

// UploadResponse is returned by POST /upload. The IDs are empty when no
// database is configured.
type UploadResponse struct {
	Message        string              `json:"message"`
	Kind           models.ErrorKind    `json:"kind,omitempty"` // TranslationDegraded when a page kept its original text
	DocumentID     string              `json:"document_id,omitempty"`
	OCRResultID    string              `json:"ocr_result_id,omitempty"`
	TranslationID  string              `json:"translation_id,omitempty"`
	ExtractedText  string              `json:"extracted_text"`
	TranslatedText string              `json:"translated_text"`
	ModelUsed      string              `json:"model_used"`
	PageCount      int                 `json:"page_count"`
	Pages          []models.PageResult `json:"pages"`
	DegradedPages  []int               `json:"degraded_pages"`
	FileURL        string              `json:"file_url,omitempty"`
	Timing         Timing              `json:"timing"`
}

// ErrorResponse carries the pipeline error kind to the client
type ErrorResponse struct {
	Error      string           `json:"error"`
	Kind       models.ErrorKind `json:"kind,omitempty"`
	Page       int              `json:"page,omitempty"`
	DocumentID string           `json:"document_id,omitempty"`
}

func seconds(d time.Duration) float64 {
	return decimal.NewFromFloat(d.Seconds()).Round(2).InexactFloat64()
}

// StatusForKind maps a pipeline error kind to an HTTP status
func StatusForKind(kind models.ErrorKind) int {
	switch kind {
	case models.KindUnsupportedType:
		return http.StatusBadRequest
	case models.KindUnreadableFile, models.KindInvalidImage,
		models.KindConversionFailed, models.KindRecognitionFailed:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// Upload stores, recognizes and translates one document
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()

	maxBytes := int64(h.config.MaxUploadMB) << 20
	if r.ContentLength > maxBytes {
		h.sendError(w, http.StatusRequestEntityTooLarge,
			fmt.Sprintf("file exceeds %d MB", h.config.MaxUploadMB))
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.sendError(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("file exceeds %d MB", h.config.MaxUploadMB))
			return
		}
		h.sendError(w, http.StatusBadRequest, "invalid form data")
		return
	}

	// accept both "file" and "image" field names
	file, header, err := r.FormFile("file")
	if err != nil {
		file, header, err = r.FormFile("image")
		if err != nil {
			h.sendError(w, http.StatusBadRequest, "No file provided (use 'file' or 'image' field)")
			return
		}
	}
	defer file.Close()

	filename := filepath.Base(header.Filename)
	ext := strings.ToLower(filepath.Ext(filename))
	if _, err := ocr.DetectKind(filename); err != nil {
		h.sendJSON(w, http.StatusBadRequest, ErrorResponse{
			Error: fmt.Sprintf("Unsupported file type '%s'. Accepted: %s",
				ext, strings.Join(ocr.SupportedExtensions(), ", ")),
			Kind: models.KindUnsupportedType,
		})
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		h.sendError(w, http.StatusInternalServerError, "Failed to read file")
		return
	}

	entry := log.WithFields(logrus.Fields{"file": filename, "bytes": len(data)})

	// 1. store the original and record the document
	uploadStart := time.Now()
	docID := uuid.New()
	var storedPath string
	if h.store != nil {
		objectName := storage.ObjectName(uploadStart, docID, ext)
		storedPath, err = h.store.Upload(ctx, objectName, bytes.NewReader(data), int64(len(data)), storage.ContentTypeFor(ext))
		if err != nil {
			// storage is optional, processing continues
			entry.WithError(err).Warn("failed to store original")
			storedPath = ""
		}
	}

	var doc *db.Document
	if db.Enabled() {
		doc = &db.Document{ID: docID, OriginalFilename: filename, StoredPath: storedPath, Status: db.StatusProcessing}
		if err := db.CreateDocument(ctx, doc); err != nil {
			entry.WithError(err).Warn("failed to record document")
			doc = nil
		}
	}
	uploadDuration := time.Since(uploadStart)

	// 2. OCR and translation
	result, err := h.pipeline.Process(ctx, data, filename)
	if err != nil {
		kind := models.ClassifyError(err)
		resp := ErrorResponse{Error: err.Error(), Kind: kind}
		var perr *models.PipelineError
		if errors.As(err, &perr) {
			resp.Page = perr.PageIndex
		}
		if doc != nil {
			resp.DocumentID = doc.ID.String()
			if uerr := db.UpdateDocumentStatus(ctx, doc.ID, db.StatusFailed, err.Error()); uerr != nil {
				entry.WithError(uerr).Warn("failed to mark document as failed")
			}
		}
		entry.WithError(err).WithField("kind", kind).Error("document processing failed")
		h.sendJSON(w, StatusForKind(kind), resp)
		return
	}

	resp := UploadResponse{
		Message:        "Document processed successfully",
		ExtractedText:  result.ExtractedText,
		TranslatedText: result.TranslatedText,
		ModelUsed:      result.Model,
		PageCount:      result.PageCount,
		Pages:          result.Pages,
		DegradedPages:  result.DegradedPages,
	}
	if resp.DegradedPages == nil {
		resp.DegradedPages = []int{}
	}
	if result.Degraded() {
		resp.Message = "Document processed; some pages could not be translated"
		resp.Kind = models.KindTranslationDegraded
	}

	// 3. persist results
	if doc != nil {
		ocrResult := &db.OCRResult{DocumentID: doc.ID, ExtractedText: result.ExtractedText, PageCount: result.PageCount}
		translation := &db.Translation{
			DocumentID:     doc.ID,
			TranslatedText: result.TranslatedText,
			ModelUsed:      result.Model,
			DegradedPages:  toInt32(result.DegradedPages),
		}
		if err := db.SaveResults(ctx, ocrResult, translation); err != nil {
			entry.WithError(err).Warn("failed to save results")
		} else {
			resp.DocumentID = doc.ID.String()
			resp.OCRResultID = ocrResult.ID.String()
			resp.TranslationID = translation.ID.String()
			if storedPath != "" {
				resp.FileURL = fmt.Sprintf("/api/documents/%s/file", doc.ID)
			}
		}
	}

	total := time.Since(start)
	resp.Timing = Timing{
		FileUpload:     seconds(uploadDuration),
		OCRProcessing:  seconds(result.Timings.Load + result.Timings.Recognition),
		LLMResponse:    seconds(result.Timings.Translation),
		TotalProcessed: seconds(total),
	}

	entry.WithFields(logrus.Fields{
		"total":  resp.Timing.TotalProcessed,
		"upload": resp.Timing.FileUpload,
		"ocr":    resp.Timing.OCRProcessing,
		"llm":    resp.Timing.LLMResponse,
	}).Info("PERFORMANCE")

	h.sendJSON(w, http.StatusOK, resp)
}

func toInt32(xs []int) []int32 {
	out := make([]int32, len(xs))
	for i, x := range xs {
		out[i] = int32(x)
	}
	return out
}

// ListDocuments returns recorded documents, newest first
func (h *Handler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	if !db.Enabled() {
		h.sendError(w, http.StatusServiceUnavailable, "database not available")
		return
	}

	page := 1
	limit := 20
	if p := r.URL.Query().Get("page"); p != "" {
		if val, err := strconv.Atoi(p); err == nil && val > 0 {
			page = val
		}
	}
	if l := r.URL.Query().Get("limit"); l != "" {
		if val, err := strconv.Atoi(l); err == nil && val > 0 && val <= 100 {
			limit = val
		}
	}
	offset := (page - 1) * limit

	docs, total, err := db.GetDocuments(r.Context(), limit, offset)
	if err != nil {
		h.sendError(w, http.StatusInternalServerError, fmt.Sprintf("failed to get documents: %v", err))
		return
	}

	h.sendJSON(w, http.StatusOK, map[string]any{
		"documents":   docs,
		"total":       total,
		"page":        page,
		"limit":       limit,
		"total_pages": (total + limit - 1) / limit,
	})
}

// GetDocument returns a document with its text and translation
func (h *Handler) GetDocument(w http.ResponseWriter, r *http.Request) {
	id, ok := h.documentID(w, r)
	if !ok {
		return
	}
	detail, err := db.GetDocumentDetail(r.Context(), id)
	if errors.Is(err, db.ErrNotFound) {
		h.sendError(w, http.StatusNotFound, "document not found")
		return
	}
	if err != nil {
		h.sendError(w, http.StatusInternalServerError, fmt.Sprintf("failed to get document: %v", err))
		return
	}
	h.sendJSON(w, http.StatusOK, detail)
}

// GetDocumentFile redirects to a presigned URL of the stored original
func (h *Handler) GetDocumentFile(w http.ResponseWriter, r *http.Request) {
	id, ok := h.documentID(w, r)
	if !ok {
		return
	}
	if h.store == nil {
		h.sendError(w, http.StatusServiceUnavailable, "storage not available")
		return
	}
	doc, err := db.GetDocument(r.Context(), id)
	if errors.Is(err, db.ErrNotFound) || (err == nil && doc.StoredPath == "") {
		h.sendError(w, http.StatusNotFound, "file not found")
		return
	}
	if err != nil {
		h.sendError(w, http.StatusInternalServerError, err.Error())
		return
	}
	url, err := h.store.PresignedURL(r.Context(), doc.StoredPath, presignExpiry)
	if err != nil {
		h.sendError(w, http.StatusInternalServerError, "failed to generate file URL")
		return
	}
	http.Redirect(w, r, url, http.StatusFound)
}

// DeleteDocument removes the document rows and its stored original
func (h *Handler) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	id, ok := h.documentID(w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	doc, err := db.GetDocument(ctx, id)
	if errors.Is(err, db.ErrNotFound) {
		h.sendError(w, http.StatusNotFound, "document not found")
		return
	}
	if err != nil {
		h.sendError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if h.store != nil && doc.StoredPath != "" {
		if err := h.store.Delete(ctx, doc.StoredPath); err != nil {
			log.WithError(err).WithField("document", id).Warn("failed to delete stored file")
		}
	}
	if err := db.DeleteDocument(ctx, id); err != nil {
		h.sendError(w, http.StatusInternalServerError, "failed to delete document")
		return
	}
	h.sendJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "document deleted",
	})
}

// documentID parses {id} and checks the database is available
func (h *Handler) documentID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	if !db.Enabled() {
		h.sendError(w, http.StatusServiceUnavailable, "database not available")
		return uuid.Nil, false
	}
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		h.sendError(w, http.StatusBadRequest, "invalid document id")
		return uuid.Nil, false
	}
	return id, true
}
