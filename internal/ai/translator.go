package ai

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/lipiai/document-translation-service/internal/models"
)

var log = logrus.WithField("component", "translator")

// DefaultMaxConcurrency caps in-flight remote calls per document
const DefaultMaxConcurrency = 5

// TranslationResult holds the reassembled output of one document
type TranslationResult struct {
	Pages       []models.TranslatedPageText
	Text        string
	Model       string
	Degraded    []int
	RemoteCalls int
}

// Translator sends page texts to a language model. Its fields are set once
// and never mutated, so one Translator serves concurrent documents.
type Translator struct {
	provider       Provider
	instruction    string
	maxConcurrency int
	temperature    float32
}

// Option configures a Translator
type Option func(*Translator)

// WithMaxConcurrency lowers the concurrency cap. Values above
// DefaultMaxConcurrency are clamped to it.
func WithMaxConcurrency(n int) Option {
	return func(t *Translator) {
		if n > 0 {
			t.maxConcurrency = min(n, DefaultMaxConcurrency)
		}
	}
}

// WithTemperature sets the sampling temperature
func WithTemperature(temp float32) Option {
	return func(t *Translator) { t.temperature = temp }
}

// NewTranslator creates a translation stage over the given provider
func NewTranslator(provider Provider, opts ...Option) *Translator {
	t := &Translator{
		provider:       provider,
		instruction:    NepaliInstruction,
		maxConcurrency: DefaultMaxConcurrency,
		temperature:    0.1,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Model returns the configured model identifier
func (t *Translator) Model() string { return t.provider.Model() }

type pageJob struct {
	slot int
	page models.PageText
}

// Translate translates every non-empty page and joins the results in page
// order. A failed page keeps its original text and is reported as degraded;
// the call itself only fails if ctx is done before any work starts.
func (t *Translator) Translate(ctx context.Context, pages []models.PageText) (*TranslationResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	model := t.provider.Model()
	results := make([]models.TranslatedPageText, len(pages))

	var pending []pageJob
	for i, p := range pages {
		if strings.TrimSpace(p.Text) == "" {
			results[i] = models.TranslatedPageText{Index: p.Index, Text: "", Model: model}
			continue
		}
		pending = append(pending, pageJob{slot: i, page: p})
	}

	var calls atomic.Int64
	if len(pending) > 0 {
		workers := min(len(pending), t.maxConcurrency)
		jobs := make(chan pageJob)
		var wg sync.WaitGroup
		for w := 0; w < workers; w++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for job := range jobs {
					calls.Add(1)
					results[job.slot] = t.translatePage(ctx, job.page, model)
				}
			}()
		}
		for _, job := range pending {
			jobs <- job
		}
		close(jobs)
		wg.Wait()
	}

	out := &TranslationResult{
		Pages:       results,
		Model:       model,
		RemoteCalls: int(calls.Load()),
	}
	texts := make([]string, len(results))
	for i, r := range results {
		texts[i] = r.Text
		if r.Degraded {
			out.Degraded = append(out.Degraded, r.Index)
		}
	}
	out.Text = strings.Join(texts, models.PageSeparator)
	return out, nil
}

func (t *Translator) translatePage(ctx context.Context, page models.PageText, model string) models.TranslatedPageText {
	entry := log.WithFields(logrus.Fields{"page": page.Index, "model": model})
	translated, err := t.provider.Complete(ctx, ChatRequest{
		Model:       model,
		Messages:    BuildMessages(t.instruction, page.Text, model),
		Temperature: t.temperature,
	})
	if err != nil {
		entry.WithError(err).Warn("translation failed, keeping original text")
		return models.TranslatedPageText{Index: page.Index, Text: page.Text, Model: model, Degraded: true}
	}
	translated = strings.TrimSpace(translated)
	if translated == "" {
		entry.Warn("empty translation, keeping original text")
		return models.TranslatedPageText{Index: page.Index, Text: page.Text, Model: model, Degraded: true}
	}
	entry.Debug("page translated")
	return models.TranslatedPageText{Index: page.Index, Text: translated, Model: model}
}
