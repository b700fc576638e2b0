package main

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"PORT", "HOST", "AI_PROVIDER", "AI_MODEL", "OPENAI_API_KEY", "OPENROUTER_KEY",
		"OPENAI_BASE_URL", "GEMINI_API_KEY", "VERTEX_PROJECT_ID", "VERTEX_REGION",
		"OLLAMA_BASE_URL", "OCR_LANGUAGES", "OCR_PSM", "OCR_WORKERS", "OCR_ENGINE",
		"PDF_RENDERER", "PDF_DPI", "STORAGE_BACKEND", "LOG_LEVEL", "LOG_FORMAT",
	} {
		t.Setenv(k, "")
	}
}

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := loadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != 8000 || cfg.AI.Provider != "openai" || cfg.OCR.PageSegMode != 6 {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
}

func TestLoadConfigFileAndEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
port: 9000
ai:
  provider: gemini
  gemini:
    model: gemini-1.5-pro
ocr:
  languages: [nep, eng]
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PORT", "8081")
	t.Setenv("OPENAI_API_KEY", "sk-openai")
	t.Setenv("OPENROUTER_KEY", "sk-or")
	t.Setenv("AI_MODEL", "gemini-2.0-flash")
	t.Setenv("OCR_LANGUAGES", "nep+hin+eng")
	t.Setenv("OCR_WORKERS", "3")

	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != 8081 {
		t.Fatalf("port = %d", cfg.Port)
	}
	if cfg.AI.OpenAI.APIKey != "sk-or" {
		t.Fatalf("OPENROUTER_KEY should win, got %q", cfg.AI.OpenAI.APIKey)
	}
	if cfg.AI.Gemini.Model != "gemini-2.0-flash" {
		t.Fatalf("AI_MODEL not applied to gemini: %q", cfg.AI.Gemini.Model)
	}
	if !reflect.DeepEqual(cfg.OCR.Languages, []string{"nep", "hin", "eng"}) || cfg.OCR.Workers != 3 {
		t.Fatalf("ocr = %+v", cfg.OCR)
	}
}

func TestLoadConfigInvalidValues(t *testing.T) {
	clearEnv(t)
	t.Setenv("PDF_DPI", "high")
	if _, err := loadConfig(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for invalid PDF_DPI")
	}

	clearEnv(t)
	path := filepath.Join(t.TempDir(), "bad.yaml")
	os.WriteFile(path, []byte("port: [nope"), 0o600)
	if _, err := loadConfig(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestSplitList(t *testing.T) {
	if got := splitList("nep, hin,eng"); !reflect.DeepEqual(got, []string{"nep", "hin", "eng"}) {
		t.Fatalf("got %v", got)
	}
}
