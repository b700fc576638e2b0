package models

import (
	"errors"
	"fmt"
	"testing"
)

func TestClassifyError(t *testing.T) {
	tests := []struct {
		err  error
		want ErrorKind
	}{
		{nil, ""},
		{fmt.Errorf("wrap: %w", ErrUnsupportedType), KindUnsupportedType},
		{fmt.Errorf("wrap: %w", ErrUnreadableFile), KindUnreadableFile},
		{fmt.Errorf("wrap: %w", ErrInvalidImage), KindInvalidImage},
		{fmt.Errorf("outer: %w", fmt.Errorf("%w: exit 1", ErrConversionFailed)), KindConversionFailed},
		{&RecognitionError{Page: 2, Err: errors.New("x")}, KindRecognitionFailed},
		{&PipelineError{Kind: KindTranslationDegraded, Err: errors.New("x")}, KindTranslationDegraded},
		{errors.New("other"), KindInternal},
	}
	for _, tt := range tests {
		if got := ClassifyError(tt.err); got != tt.want {
			t.Errorf("ClassifyError(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestRecognitionErrorUnwraps(t *testing.T) {
	cause := errors.New("tesseract exited")
	err := fmt.Errorf("stage: %w", &RecognitionError{Page: 4, Err: cause})
	if !errors.Is(err, cause) || !errors.Is(err, ErrRecognitionFailed) {
		t.Fatalf("errors.Is failed for %v", err)
	}
	if err.Error() != "stage: recognition failed on page 4: tesseract exited" {
		t.Fatalf("message = %q", err.Error())
	}
}

func TestPipelineErrorMessage(t *testing.T) {
	err := &PipelineError{Kind: KindRecognitionFailed, PageIndex: 2, Err: errors.New("boom")}
	if err.Error() != "RecognitionFailed (page 2): boom" {
		t.Fatalf("message = %q", err.Error())
	}
	err = &PipelineError{Kind: KindConversionFailed, Err: errors.New("no renderer")}
	if err.Error() != "ConversionFailed: no renderer" {
		t.Fatalf("message = %q", err.Error())
	}
}

func TestApplyDefaults(t *testing.T) {
	var c Config
	c.AI.Provider = "Gemini"
	c.ApplyDefaults()
	if c.Port != 8000 || c.MaxUploadMB != 50 || c.AI.MaxConcurrency != 5 || c.PDF.DPI != 200 {
		t.Fatalf("unexpected defaults %+v", c)
	}
	if c.AI.Provider != "gemini" || c.AI.Temperature != 0.1 {
		t.Fatalf("ai defaults %+v", c.AI)
	}
	if len(c.OCR.Languages) != 3 || c.OCR.PageSegMode != 6 || c.OCR.MaxSide != 2500 {
		t.Fatalf("ocr defaults %+v", c.OCR)
	}
	if c.AI.OpenAI.BaseURL != "https://openrouter.ai/api/v1" || c.AI.OpenAI.Model != "google/gemini-2.0-flash-001" {
		t.Fatalf("openai defaults %+v", c.AI.OpenAI)
	}
}

func TestApplyDefaultsClampsConcurrency(t *testing.T) {
	var c Config
	c.AI.MaxConcurrency = 10
	c.ApplyDefaults()
	if c.AI.MaxConcurrency != 5 {
		t.Fatalf("max concurrency = %d, want 5", c.AI.MaxConcurrency)
	}

	c.AI.MaxConcurrency = 3
	c.ApplyDefaults()
	if c.AI.MaxConcurrency != 3 {
		t.Fatalf("max concurrency = %d, want 3", c.AI.MaxConcurrency)
	}
}

func TestPipelineResultDegraded(t *testing.T) {
	r := &PipelineResult{}
	if r.Degraded() {
		t.Fatal("empty result should not be degraded")
	}
	r.DegradedPages = []int{1}
	if !r.Degraded() {
		t.Fatal("expected degraded")
	}
}
