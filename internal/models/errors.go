package models

import (
	"errors"
	"fmt"
)

// Sentinel errors of the document pipeline
var (
	ErrUnsupportedType   = errors.New("unsupported file type")
	ErrUnreadableFile    = errors.New("unreadable file")
	ErrInvalidImage      = errors.New("invalid image")
	ErrConversionFailed  = errors.New("pdf conversion failed")
	ErrRecognitionFailed = errors.New("recognition failed")
)

// ErrorKind classifies pipeline failures for callers
type ErrorKind string

const (
	KindUnsupportedType     ErrorKind = "UnsupportedType"
	KindUnreadableFile      ErrorKind = "UnreadableFile"
	KindInvalidImage        ErrorKind = "InvalidImage"
	KindConversionFailed    ErrorKind = "ConversionFailed"
	KindRecognitionFailed   ErrorKind = "RecognitionFailed"
	KindTranslationDegraded ErrorKind = "TranslationDegraded"
	KindInternal            ErrorKind = "Internal"
)

// RecognitionError reports the page whose recognition failed
type RecognitionError struct {
	Page int
	Err  error
}

func (e *RecognitionError) Error() string {
	return fmt.Sprintf("recognition failed on page %d: %v", e.Page, e.Err)
}

func (e *RecognitionError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrRecognitionFailed) match any page failure
func (e *RecognitionError) Is(target error) bool {
	return target == ErrRecognitionFailed
}

// PipelineError is the single error type returned by the pipeline
type PipelineError struct {
	Kind      ErrorKind
	PageIndex int // set for RecognitionFailed
	Err       error
}

func (e *PipelineError) Error() string {
	if e.PageIndex > 0 {
		return fmt.Sprintf("%s (page %d): %v", e.Kind, e.PageIndex, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *PipelineError) Unwrap() error { return e.Err }

// ClassifyError maps a stage error onto an ErrorKind
func ClassifyError(err error) ErrorKind {
	var perr *PipelineError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &perr):
		return perr.Kind
	case errors.Is(err, ErrUnsupportedType):
		return KindUnsupportedType
	case errors.Is(err, ErrInvalidImage):
		return KindInvalidImage
	case errors.Is(err, ErrUnreadableFile):
		return KindUnreadableFile
	case errors.Is(err, ErrConversionFailed):
		return KindConversionFailed
	case errors.Is(err, ErrRecognitionFailed):
		return KindRecognitionFailed
	default:
		return KindInternal
	}
}
