package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/lipiai/document-translation-service/api"
	"github.com/lipiai/document-translation-service/internal/ai"
	"github.com/lipiai/document-translation-service/internal/db"
	"github.com/lipiai/document-translation-service/internal/models"
	"github.com/lipiai/document-translation-service/internal/ocr"
	"github.com/lipiai/document-translation-service/internal/pipeline"
	"github.com/lipiai/document-translation-service/internal/storage"
)

var log = logrus.WithField("component", "server")

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML config file")
	flag.Parse()

	config, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	setupLogging(config.Log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize database connection pool
	if err := db.Init(ctx); err != nil {
		if !errors.Is(err, db.ErrNotConfigured) {
			log.WithError(err).Warn("Database not available")
		}
		log.Info("Running without persistence")
	} else {
		defer db.Close()
		if err := db.EnsureSchema(ctx); err != nil {
			log.Fatalf("Failed to create schema: %v", err)
		}
	}

	// Initialize object storage
	var store storage.Store
	if config.Storage.Backend != "none" {
		store, err = storage.New(ctx, config.Storage.Backend, config.Storage.Bucket)
		if err != nil {
			log.WithError(err).Warn("Object storage not available, originals will not be stored")
			store = nil
		}
	}

	pipe, engine, rasterizer, err := buildPipeline(ctx, config)
	if err != nil {
		log.Fatalf("Failed to build pipeline: %v", err)
	}

	var tesseract api.VersionChecker
	if v, ok := engine.(api.VersionChecker); ok {
		tesseract = v
	}
	handler := api.NewHandler(config, pipe, store, tesseract, rasterizer)
	router := api.CORS(handler.SetupRoutes())

	addr := fmt.Sprintf("%s:%d", config.Host, config.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	log.WithFields(logrus.Fields{
		"addr":      addr,
		"version":   api.Version,
		"ocrEngine": engine.Name(),
		"provider":  config.AI.Provider,
		"model":     pipe.Model(),
		"database":  db.Enabled(),
		"storage":   store != nil,
	}).Info("Starting document translation service")
	log.Infof("  POST http://%s/upload                  - Upload and translate a document", addr)
	log.Infof("  GET  http://%s/api/documents           - List documents", addr)
	log.Infof("  GET  http://%s/api/documents/{id}      - Get document with results", addr)
	log.Infof("  GET  http://%s/api/documents/{id}/file - Download original", addr)
	log.Infof("  DELETE http://%s/api/documents/{id}    - Delete document", addr)
	log.Infof("  GET  http://%s/health                  - Health check", addr)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Error("graceful shutdown failed")
		}
	}()

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("Server failed: %v", err)
	}
}

// buildPipeline wires the three stages from configuration
func buildPipeline(ctx context.Context, config *models.Config) (*pipeline.Pipeline, ocr.Engine, *ocr.PopplerRasterizer, error) {
	engine, err := ocr.NewEngine(config.OCR.Engine)
	if err != nil {
		return nil, nil, nil, err
	}
	rasterizer := ocr.NewPopplerRasterizer(config.PDF.Renderer, config.PDF.DPI)
	if !rasterizer.Available() {
		log.WithField("renderer", rasterizer.Binary).Warn("PDF renderer not found, PDF uploads will fail")
	}

	recognizer := ocr.NewRecognizer(engine, ocr.NewPreprocessor(config.OCR.MaxSide), ocr.RecognitionConfig{
		Languages:   config.OCR.Languages,
		PageSegMode: ocr.PageSegMode(config.OCR.PageSegMode),
		Workers:     config.OCR.Workers,
	})

	provider, err := ai.NewProvider(ctx, config.AI)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to create AI provider: %w", err)
	}
	translator := ai.NewTranslator(provider,
		ai.WithMaxConcurrency(config.AI.MaxConcurrency),
		ai.WithTemperature(config.AI.Temperature),
	)

	return pipeline.New(ocr.NewPageSource(rasterizer), recognizer, translator), engine, rasterizer, nil
}

func setupLogging(cfg models.LogConfig) {
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
	if cfg.Format == "json" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
}
