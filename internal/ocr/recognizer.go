package ocr

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/lipiai/document-translation-service/internal/models"
)

// RecognitionConfig is fixed at construction and shared read-only by all calls
type RecognitionConfig struct {
	Languages   []string
	PageSegMode PageSegMode
	// Workers > 1 recognizes pages in parallel. The default is sequential.
	Workers int
}

// DefaultRecognitionConfig returns nep+hin+eng, single block, one worker
func DefaultRecognitionConfig() RecognitionConfig {
	return RecognitionConfig{
		Languages:   append([]string(nil), DefaultLanguages...),
		PageSegMode: PSMSingleBlock,
		Workers:     1,
	}
}

// Recognizer runs normalization and text extraction over a page sequence
type Recognizer struct {
	engine       Engine
	preprocessor *Preprocessor
	config       RecognitionConfig
}

// NewRecognizer creates a recognition stage
func NewRecognizer(engine Engine, preprocessor *Preprocessor, config RecognitionConfig) *Recognizer {
	if preprocessor == nil {
		preprocessor = NewPreprocessor(DefaultMaxSide)
	}
	if len(config.Languages) == 0 {
		config.Languages = append([]string(nil), DefaultLanguages...)
	}
	if config.PageSegMode == 0 {
		config.PageSegMode = PSMSingleBlock
	}
	if config.Workers <= 0 {
		config.Workers = 1
	}
	return &Recognizer{
		engine:       engine,
		preprocessor: preprocessor,
		config:       config,
	}
}

// Config returns the recognition configuration in use
func (r *Recognizer) Config() RecognitionConfig { return r.config }

// Recognize returns one PageText per page in page order. The first failing
// page fails the whole document.
func (r *Recognizer) Recognize(ctx context.Context, pages []models.Page) ([]models.PageText, error) {
	texts := make([]models.PageText, len(pages))

	if r.config.Workers == 1 || len(pages) < 2 {
		for i, page := range pages {
			log.WithFields(logrus.Fields{"page": page.Index, "of": len(pages)}).Info("running OCR on page")
			text, err := r.recognizePage(ctx, page)
			if err != nil {
				return nil, err
			}
			texts[i] = models.PageText{Index: page.Index, Text: text}
		}
		return texts, nil
	}

	eg, gctx := errgroup.WithContext(ctx)
	eg.SetLimit(r.config.Workers)
	for i, page := range pages {
		eg.Go(func() error {
			text, err := r.recognizePage(gctx, page)
			if err != nil {
				return err
			}
			texts[i] = models.PageText{Index: page.Index, Text: text}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return texts, nil
}

// recognizePage normalizes and recognizes a single page. Only the ends of the
// text are trimmed; inner line structure is kept for translation.
func (r *Recognizer) recognizePage(ctx context.Context, page models.Page) (string, error) {
	if page.Image == nil {
		return "", &models.RecognitionError{Page: page.Index, Err: fmt.Errorf("%w: page has no image", models.ErrInvalidImage)}
	}
	normalized, err := EncodePNG(r.preprocessor.Normalize(page.Image))
	if err != nil {
		return "", &models.RecognitionError{Page: page.Index, Err: err}
	}
	text, err := r.engine.RecognizeText(ctx, normalized, r.config.Languages, r.config.PageSegMode)
	if err != nil {
		log.WithFields(logrus.Fields{"page": page.Index, "engine": r.engine.Name()}).WithError(err).Error("recognition failed")
		return "", &models.RecognitionError{Page: page.Index, Err: err}
	}
	text = strings.TrimSpace(text)
	log.WithFields(logrus.Fields{"page": page.Index, "chars": len(text)}).Debug("extracted text")
	return text, nil
}
