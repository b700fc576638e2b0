package ocr

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// PageSegMode is the Tesseract page segmentation mode
type PageSegMode int

const (
	PSMSingleBlock PageSegMode = 6 // Single uniform block of text
)

// DefaultLanguages covers Nepali, Hindi and English so mixed Devanagari and
// Latin pages resolve correctly.
var DefaultLanguages = []string{"nep", "hin", "eng"}

// ErrGosseractNotEnabled is returned when the cgo engine was not compiled in
var ErrGosseractNotEnabled = errors.New("gosseract engine not enabled; rebuild with -tags gosseract")

// Engine converts an encoded page image into text
type Engine interface {
	Name() string
	RecognizeText(ctx context.Context, image []byte, languages []string, psm PageSegMode) (string, error)
}

// NewEngine creates the engine selected in configuration
func NewEngine(name string) (Engine, error) {
	switch strings.ToLower(name) {
	case "", "tesseract":
		return NewTesseractCLI(""), nil
	case "gosseract":
		return newGosseractEngine()
	default:
		return nil, fmt.Errorf("unsupported OCR engine: %s", name)
	}
}

func languageString(languages []string) string {
	if len(languages) == 0 {
		languages = DefaultLanguages
	}
	return strings.Join(languages, "+")
}
