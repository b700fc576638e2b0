package pipeline

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/lipiai/document-translation-service/internal/ai"
	"github.com/lipiai/document-translation-service/internal/models"
	"github.com/lipiai/document-translation-service/internal/ocr"
)

var log = logrus.WithField("component", "pipeline")

// PageLoader turns a document into ordered page images
type PageLoader interface {
	Load(ctx context.Context, doc models.Document) ([]models.Page, error)
}

// TextRecognizer extracts text from ordered pages
type TextRecognizer interface {
	Recognize(ctx context.Context, pages []models.Page) ([]models.PageText, error)
}

// PageTranslator translates ordered page texts
type PageTranslator interface {
	Translate(ctx context.Context, pages []models.PageText) (*ai.TranslationResult, error)
	Model() string
}

// Pipeline runs load, recognition and translation for one document per call.
// It holds no per-request state.
type Pipeline struct {
	source     PageLoader
	recognizer TextRecognizer
	translator PageTranslator
	now        func() time.Time
}

// New creates a pipeline from its three stages
func New(source PageLoader, recognizer TextRecognizer, translator PageTranslator) *Pipeline {
	return &Pipeline{
		source:     source,
		recognizer: recognizer,
		translator: translator,
		now:        time.Now,
	}
}

// Model returns the translation model identifier
func (p *Pipeline) Model() string { return p.translator.Model() }

// Process runs the full pipeline. Every error returned is a *models.PipelineError.
func (p *Pipeline) Process(ctx context.Context, data []byte, filename string) (*models.PipelineResult, error) {
	start := p.now()

	kind, err := ocr.DetectKind(filename)
	if err != nil {
		return nil, &models.PipelineError{Kind: models.KindUnsupportedType, Err: err}
	}
	entry := log.WithFields(logrus.Fields{"file": filename, "kind": kind})

	doc := models.Document{Filename: filename, Kind: kind, Data: data}
	pages, err := p.source.Load(ctx, doc)
	if err != nil {
		return nil, stageError(err)
	}
	loaded := p.now()
	entry.WithField("pages", len(pages)).Info("document loaded")

	texts, err := p.recognizer.Recognize(ctx, pages)
	if err != nil {
		return nil, stageError(err)
	}
	if len(texts) != len(pages) {
		return nil, &models.PipelineError{
			Kind: models.KindInternal,
			Err:  errors.New("recognition returned a different number of pages"),
		}
	}
	recognized := p.now()

	translation, err := p.translator.Translate(ctx, texts)
	if err != nil {
		return nil, stageError(err)
	}
	translated := p.now()

	result := &models.PipelineResult{
		Filename:       filename,
		Kind:           kind,
		TranslatedText: translation.Text,
		Model:          translation.Model,
		PageCount:      len(pages),
		Pages:          make([]models.PageResult, len(texts)),
		DegradedPages:  translation.Degraded,
		Timings: models.StageTimings{
			Load:        loaded.Sub(start),
			Recognition: recognized.Sub(loaded),
			Translation: translated.Sub(recognized),
			Total:       translated.Sub(start),
		},
	}

	extracted := make([]string, len(texts))
	for i, t := range texts {
		extracted[i] = t.Text
		pr := models.PageResult{Index: t.Index, Extracted: t.Text, Translated: t.Text}
		if i < len(translation.Pages) {
			pr.Translated = translation.Pages[i].Text
			pr.Degraded = translation.Pages[i].Degraded
		}
		result.Pages[i] = pr
	}
	result.ExtractedText = strings.Join(extracted, models.PageSeparator)

	fields := logrus.Fields{
		"pages":        result.PageCount,
		"remote_calls": translation.RemoteCalls,
		"total":        result.Timings.Total,
	}
	if result.Degraded() {
		entry.WithFields(fields).WithField("degraded_pages", result.DegradedPages).Warn("document processed with untranslated pages")
	} else {
		entry.WithFields(fields).Info("document processed")
	}
	return result, nil
}

// stageError maps a stage failure onto the pipeline taxonomy
func stageError(err error) *models.PipelineError {
	var perr *models.PipelineError
	if errors.As(err, &perr) {
		return perr
	}
	var rerr *models.RecognitionError
	if errors.As(err, &rerr) {
		return &models.PipelineError{Kind: models.KindRecognitionFailed, PageIndex: rerr.Page, Err: err}
	}
	return &models.PipelineError{Kind: models.ClassifyError(err), Err: err}
}
