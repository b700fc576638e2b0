package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/lipiai/document-translation-service/internal/models"
)

// loadConfig reads the YAML file, applies environment overrides and fills
// defaults. A missing file is not an error.
func loadConfig(path string) (*models.Config, error) {
	var config models.Config

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		log.WithField("path", path).Info("config file not found, using defaults")
	case err != nil:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	default:
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if err := applyEnv(&config); err != nil {
		return nil, err
	}
	config.ApplyDefaults()
	return &config, nil
}

// applyEnv overrides config values with environment variables if present
func applyEnv(config *models.Config) error {
	if port := os.Getenv("PORT"); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			return fmt.Errorf("invalid PORT %q: %w", port, err)
		}
		config.Port = p
	}
	if host := os.Getenv("HOST"); host != "" {
		config.Host = host
	}

	if provider := os.Getenv("AI_PROVIDER"); provider != "" {
		config.AI.Provider = provider
	}
	// OPENROUTER_KEY wins over OPENAI_API_KEY
	if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" {
		config.AI.OpenAI.APIKey = apiKey
	}
	if apiKey := os.Getenv("OPENROUTER_KEY"); apiKey != "" {
		config.AI.OpenAI.APIKey = apiKey
	}
	if baseURL := os.Getenv("OPENAI_BASE_URL"); baseURL != "" {
		config.AI.OpenAI.BaseURL = baseURL
	}
	if apiKey := os.Getenv("GEMINI_API_KEY"); apiKey != "" {
		config.AI.Gemini.APIKey = apiKey
	}
	if project := os.Getenv("VERTEX_PROJECT_ID"); project != "" {
		config.AI.Vertex.ProjectID = project
	}
	if region := os.Getenv("VERTEX_REGION"); region != "" {
		config.AI.Vertex.Region = region
	}
	if baseURL := os.Getenv("OLLAMA_BASE_URL"); baseURL != "" {
		config.AI.Ollama.BaseURL = baseURL
	}
	// AI_MODEL applies to whichever provider is selected
	if model := os.Getenv("AI_MODEL"); model != "" {
		switch strings.ToLower(config.AI.Provider) {
		case "gemini":
			config.AI.Gemini.Model = model
		case "vertex":
			config.AI.Vertex.Model = model
		case "ollama":
			config.AI.Ollama.Model = model
		default:
			config.AI.OpenAI.Model = model
		}
	}

	if langs := os.Getenv("OCR_LANGUAGES"); langs != "" {
		config.OCR.Languages = splitList(langs)
	}
	if psm := os.Getenv("OCR_PSM"); psm != "" {
		v, err := strconv.Atoi(psm)
		if err != nil {
			return fmt.Errorf("invalid OCR_PSM %q: %w", psm, err)
		}
		config.OCR.PageSegMode = v
	}
	if workers := os.Getenv("OCR_WORKERS"); workers != "" {
		v, err := strconv.Atoi(workers)
		if err != nil {
			return fmt.Errorf("invalid OCR_WORKERS %q: %w", workers, err)
		}
		config.OCR.Workers = v
	}
	if engine := os.Getenv("OCR_ENGINE"); engine != "" {
		config.OCR.Engine = engine
	}
	if renderer := os.Getenv("PDF_RENDERER"); renderer != "" {
		config.PDF.Renderer = renderer
	}
	if dpi := os.Getenv("PDF_DPI"); dpi != "" {
		v, err := strconv.Atoi(dpi)
		if err != nil {
			return fmt.Errorf("invalid PDF_DPI %q: %w", dpi, err)
		}
		config.PDF.DPI = v
	}

	if backend := os.Getenv("STORAGE_BACKEND"); backend != "" {
		config.Storage.Backend = backend
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		config.Log.Level = level
	}
	if format := os.Getenv("LOG_FORMAT"); format != "" {
		config.Log.Format = format
	}
	return nil
}

// splitList accepts "nep+hin+eng" as well as "nep,hin,eng"
func splitList(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == '+' || r == ',' || r == ' '
	})
	return fields
}
