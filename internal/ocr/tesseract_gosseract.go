//go:build gosseract

package ocr

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/otiai10/gosseract/v2"
)

var threadLimitOnce sync.Once

// GosseractEngine drives libtesseract through cgo. A client is created per
// call because gosseract clients must not be shared between goroutines.
type GosseractEngine struct {
	clientFactory func() *gosseract.Client
}

func newGosseractEngine() (Engine, error) {
	threadLimitOnce.Do(func() {
		if os.Getenv("OMP_THREAD_LIMIT") == "" {
			os.Setenv("OMP_THREAD_LIMIT", "1")
		}
	})
	return &GosseractEngine{clientFactory: gosseract.NewClient}, nil
}

func (e *GosseractEngine) Name() string { return "gosseract" }

// RecognizeText runs libtesseract on one encoded image
func (e *GosseractEngine) RecognizeText(ctx context.Context, image []byte, languages []string, psm PageSegMode) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	c := e.clientFactory()
	defer c.Close()

	if len(languages) == 0 {
		languages = DefaultLanguages
	}
	if err := c.SetLanguage(languages...); err != nil {
		return "", fmt.Errorf("set languages: %w", err)
	}
	if err := c.SetPageSegMode(gosseract.PageSegMode(psm)); err != nil {
		return "", fmt.Errorf("set page segmentation mode: %w", err)
	}
	if err := c.SetImageFromBytes(image); err != nil {
		return "", fmt.Errorf("set image: %w", err)
	}
	text, err := c.Text()
	if err != nil {
		return "", fmt.Errorf("recognize text: %w", err)
	}
	return text, nil
}
