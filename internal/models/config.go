package models

import "strings"

// Config represents the service configuration
type Config struct {
	// Server config
	Port int    `yaml:"port"`
	Host string `yaml:"host"`

	// Upload limit in megabytes
	MaxUploadMB int `yaml:"max_upload_mb"`

	OCR     OCRConfig     `yaml:"ocr"`
	PDF     PDFConfig     `yaml:"pdf"`
	AI      AIConfig      `yaml:"ai"`
	Storage StorageConfig `yaml:"storage"`
	Log     LogConfig     `yaml:"log"`
}

// OCRConfig represents OCR-specific configuration
type OCRConfig struct {
	Engine      string   `yaml:"engine"`        // "tesseract" (CLI) or "gosseract"
	Languages   []string `yaml:"languages"`     // default: nep, hin, eng
	PageSegMode int      `yaml:"page_seg_mode"` // default: 6
	Workers     int      `yaml:"workers"`       // parallel pages, default 1
	MaxSide     int      `yaml:"max_side"`      // resize cap in px, default 2500
}

// PDFConfig controls PDF rasterization
type PDFConfig struct {
	Renderer string `yaml:"renderer"` // path or name of pdftoppm
	DPI      int    `yaml:"dpi"`
}

// AIConfig represents translation provider configuration
type AIConfig struct {
	// Provider used for every request
	Provider string `yaml:"provider"` // "openai", "gemini", "vertex", "ollama"

	Temperature    float32 `yaml:"temperature"`
	MaxConcurrency int     `yaml:"max_concurrency"`

	OpenAI OpenAIConfig `yaml:"openai"`
	Gemini GeminiConfig `yaml:"gemini"`
	Vertex VertexConfig `yaml:"vertex"`
	Ollama OllamaConfig `yaml:"ollama"`
}

// OpenAIConfig for OpenAI-compatible endpoints (OpenRouter by default)
type OpenAIConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url,omitempty"`
	Model   string `yaml:"model"`
}

// GeminiConfig for the Google Gemini API
type GeminiConfig struct {
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"`
}

// VertexConfig for Gemini models served by Vertex AI
type VertexConfig struct {
	ProjectID string `yaml:"project_id"`
	Region    string `yaml:"region"`
	Model     string `yaml:"model"`
}

// OllamaConfig for local Ollama
type OllamaConfig struct {
	BaseURL string `yaml:"base_url"` // Default: "http://localhost:11434"
	Model   string `yaml:"model"`
}

// StorageConfig selects where uploaded originals are kept
type StorageConfig struct {
	Backend string `yaml:"backend"` // "minio", "gcs" or "none"
	Bucket  string `yaml:"bucket"`
}

// LogConfig controls logrus output
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "text" or "json"
}

// ApplyDefaults fills every unset field
func (c *Config) ApplyDefaults() {
	if c.Port == 0 {
		c.Port = 8000
	}
	if c.Host == "" {
		c.Host = "0.0.0.0"
	}
	if c.MaxUploadMB <= 0 {
		c.MaxUploadMB = 50
	}

	if c.OCR.Engine == "" {
		c.OCR.Engine = "tesseract"
	}
	if len(c.OCR.Languages) == 0 {
		c.OCR.Languages = []string{"nep", "hin", "eng"}
	}
	if c.OCR.PageSegMode == 0 {
		c.OCR.PageSegMode = 6
	}
	if c.OCR.Workers <= 0 {
		c.OCR.Workers = 1
	}
	if c.OCR.MaxSide <= 0 {
		c.OCR.MaxSide = 2500
	}

	if c.PDF.Renderer == "" {
		c.PDF.Renderer = "pdftoppm"
	}
	if c.PDF.DPI <= 0 {
		c.PDF.DPI = 200
	}

	if c.AI.Provider == "" {
		c.AI.Provider = "openai"
	}
	c.AI.Provider = strings.ToLower(c.AI.Provider)
	if c.AI.Temperature == 0 {
		c.AI.Temperature = 0.1
	}
	// never more than 5 remote calls in flight per document
	if c.AI.MaxConcurrency <= 0 || c.AI.MaxConcurrency > 5 {
		c.AI.MaxConcurrency = 5
	}
	if c.AI.OpenAI.BaseURL == "" {
		c.AI.OpenAI.BaseURL = "https://openrouter.ai/api/v1"
	}
	if c.AI.OpenAI.Model == "" {
		c.AI.OpenAI.Model = "google/gemini-2.0-flash-001"
	}
	if c.AI.Gemini.Model == "" {
		c.AI.Gemini.Model = "gemini-2.0-flash"
	}
	if c.AI.Vertex.Region == "" {
		c.AI.Vertex.Region = "us-central1"
	}
	if c.AI.Vertex.Model == "" {
		c.AI.Vertex.Model = "gemini-2.0-flash-001"
	}
	if c.AI.Ollama.BaseURL == "" {
		c.AI.Ollama.BaseURL = "http://localhost:11434"
	}
	if c.AI.Ollama.Model == "" {
		c.AI.Ollama.Model = "llama3.1"
	}

	if c.Storage.Backend == "" {
		c.Storage.Backend = "minio"
	}
	if c.Storage.Bucket == "" {
		c.Storage.Bucket = "documents"
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}
