package models

import (
	"image"
	"time"
)

// DocumentKind is the declared kind of an uploaded document
type DocumentKind string

const (
	KindImage DocumentKind = "image"
	KindPDF   DocumentKind = "pdf"
)

// Document is an uploaded file as seen by the pipeline. It only lives for one
// Process call.
type Document struct {
	Filename string
	Kind     DocumentKind
	Data     []byte
}

// Page is one rendered page of a document. Index is 1-based.
type Page struct {
	Index int
	Image image.Image
}

// PageText is the recognized text of a single page
type PageText struct {
	Index int    `json:"page"`
	Text  string `json:"text"`
}

// TranslatedPageText is the translation of a single page.
// Degraded is set when the remote call failed and Text holds the original.
type TranslatedPageText struct {
	Index    int    `json:"page"`
	Text     string `json:"text"`
	Model    string `json:"model"`
	Degraded bool   `json:"degraded,omitempty"`
}

// PageResult pairs the extracted and translated text of a page
type PageResult struct {
	Index      int    `json:"page"`
	Extracted  string `json:"extracted_text"`
	Translated string `json:"translated_text"`
	Degraded   bool   `json:"degraded,omitempty"`
}

// StageTimings holds wall-clock durations of the pipeline stages
type StageTimings struct {
	Load        time.Duration `json:"load"`
	Recognition time.Duration `json:"recognition"`
	Translation time.Duration `json:"translation"`
	Total       time.Duration `json:"total"`
}

// PipelineResult is the output of one pipeline run
type PipelineResult struct {
	Filename       string       `json:"filename"`
	Kind           DocumentKind `json:"kind"`
	ExtractedText  string       `json:"extracted_text"`
	TranslatedText string       `json:"translated_text"`
	Model          string       `json:"model_used"`
	PageCount      int          `json:"page_count"`
	Pages          []PageResult `json:"pages"`
	DegradedPages  []int        `json:"degraded_pages,omitempty"`
	Timings        StageTimings `json:"timings"`
}

// Degraded reports whether at least one page fell back to its original text
func (r *PipelineResult) Degraded() bool {
	return len(r.DegradedPages) > 0
}

// PageSeparator joins page texts in both the extracted and the translated output
const PageSeparator = "\n\n"
