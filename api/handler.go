package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/lipiai/document-translation-service/internal/db"
	"github.com/lipiai/document-translation-service/internal/models"
	"github.com/lipiai/document-translation-service/internal/storage"
)

const Version = "1.0.0"

var log = logrus.WithField("component", "api")

// Processor runs the document pipeline
type Processor interface {
	Process(ctx context.Context, data []byte, filename string) (*models.PipelineResult, error)
	Model() string
}

// VersionChecker reports the OCR engine version
type VersionChecker interface {
	Version() (string, error)
}

// AvailabilityChecker reports whether an external tool can be run
type AvailabilityChecker interface {
	Available() bool
}

// Handler handles HTTP requests for document processing
type Handler struct {
	config    *models.Config
	pipeline  Processor
	store     storage.Store
	tesseract VersionChecker
	renderer  AvailabilityChecker
}

// NewHandler creates a new API handler. store, tesseract and renderer may be nil.
func NewHandler(config *models.Config, pipeline Processor, store storage.Store, tesseract VersionChecker, renderer AvailabilityChecker) *Handler {
	return &Handler{
		config:    config,
		pipeline:  pipeline,
		store:     store,
		tesseract: tesseract,
		renderer:  renderer,
	}
}

// SetupRoutes configures the HTTP routes
func (h *Handler) SetupRoutes() *mux.Router {
	router := mux.NewRouter()

	router.HandleFunc("/", h.Root).Methods("GET")
	router.HandleFunc("/health", h.Health).Methods("GET")

	router.HandleFunc("/upload", h.Upload).Methods("POST")
	router.HandleFunc("/api/documents", h.Upload).Methods("POST")
	router.HandleFunc("/api/documents", h.ListDocuments).Methods("GET")
	router.HandleFunc("/api/documents/{id}", h.GetDocument).Methods("GET")
	router.HandleFunc("/api/documents/{id}/file", h.GetDocumentFile).Methods("GET")
	router.HandleFunc("/api/documents/{id}", h.DeleteDocument).Methods("DELETE")

	return router
}

// CORS allows every origin, as browser uploads come from a separate frontend
func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "*")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Root is the liveness endpoint
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	h.sendJSON(w, http.StatusOK, map[string]string{
		"status":  "running",
		"message": "OCR & Translation API is live",
	})
}

// HealthResponse represents the health check response structure
type HealthResponse struct {
	Status    string            `json:"status"`
	Version   string            `json:"version"`
	Timestamp string            `json:"timestamp"`
	Uptime    string            `json:"uptime"`
	Memory    MemoryStats       `json:"memory"`
	Tesseract ServiceStatus     `json:"tesseract"`
	Renderer  ServiceStatus     `json:"pdfRenderer"`
	Database  ServiceStatus     `json:"database"`
	Storage   ServiceStatus     `json:"storage"`
	AI        map[string]string `json:"ai"`
}

// MemoryStats represents memory usage statistics
type MemoryStats struct {
	Allocated string `json:"allocated"`
	Total     string `json:"total"`
	System    string `json:"system"`
}

// ServiceStatus represents the status of a service dependency
type ServiceStatus struct {
	Available bool   `json:"available"`
	Version   string `json:"version,omitempty"`
	Error     string `json:"error,omitempty"`
}

var startTime = time.Now()

// Health reports the state of every dependency. Only a missing OCR engine
// makes it 503; without the PDF renderer images are still processed.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	tesseractStatus := h.checkTesseract()
	rendererStatus := h.checkRenderer()

	response := HealthResponse{
		Status:    "healthy",
		Version:   Version,
		Timestamp: time.Now().Format(time.RFC3339),
		Uptime:    time.Since(startTime).String(),
		Memory: MemoryStats{
			Allocated: fmt.Sprintf("%.2f MB", float64(m.Alloc)/1024/1024),
			Total:     fmt.Sprintf("%.2f MB", float64(m.TotalAlloc)/1024/1024),
			System:    fmt.Sprintf("%.2f MB", float64(m.Sys)/1024/1024),
		},
		Tesseract: tesseractStatus,
		Renderer:  rendererStatus,
		Database:  h.checkDatabase(r.Context()),
		Storage:   h.checkStorage(r.Context()),
		AI: map[string]string{
			"provider":  h.config.AI.Provider,
			"model":     h.pipeline.Model(),
			"ocrEngine": h.config.OCR.Engine,
		},
	}

	status := http.StatusOK
	switch {
	case !tesseractStatus.Available:
		response.Status = "unhealthy"
		status = http.StatusServiceUnavailable
	case !rendererStatus.Available:
		response.Status = "degraded"
	}
	h.sendJSON(w, status, response)
}

func (h *Handler) checkTesseract() ServiceStatus {
	if h.tesseract == nil {
		return ServiceStatus{Available: true, Version: h.config.OCR.Engine}
	}
	version, err := h.tesseract.Version()
	if err != nil {
		return ServiceStatus{Available: false, Error: "tesseract not found or not executable"}
	}
	return ServiceStatus{Available: true, Version: version}
}

func (h *Handler) checkRenderer() ServiceStatus {
	if h.renderer == nil || h.renderer.Available() {
		return ServiceStatus{Available: true, Version: h.config.PDF.Renderer}
	}
	return ServiceStatus{Available: false, Error: "pdftoppm not found or not executable"}
}

func (h *Handler) checkDatabase(ctx context.Context) ServiceStatus {
	if !db.Enabled() {
		return ServiceStatus{Available: false, Error: "database pool not initialized"}
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := db.Ping(ctx); err != nil {
		return ServiceStatus{Available: false, Error: err.Error()}
	}
	return ServiceStatus{Available: true, Version: "PostgreSQL"}
}

func (h *Handler) checkStorage(ctx context.Context) ServiceStatus {
	if h.store == nil {
		return ServiceStatus{Available: false, Error: "storage not configured"}
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := h.store.Ping(ctx); err != nil {
		return ServiceStatus{Available: false, Version: h.store.Name(), Error: err.Error()}
	}
	return ServiceStatus{Available: true, Version: h.store.Name()}
}

func (h *Handler) sendJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.WithError(err).Warn("failed to encode response")
	}
}

// sendError sends an error response
func (h *Handler) sendError(w http.ResponseWriter, statusCode int, message string) {
	h.sendJSON(w, statusCode, map[string]string{"error": message})
}
