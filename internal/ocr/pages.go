package ocr

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/lipiai/document-translation-service/internal/models"
)

var imageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".bmp":  true,
	".tiff": true,
	".tif":  true,
}

const pdfExtension = ".pdf"

// SupportedExtensions returns the accepted file extensions, sorted
func SupportedExtensions() []string {
	exts := make([]string, 0, len(imageExtensions)+1)
	for ext := range imageExtensions {
		exts = append(exts, ext)
	}
	exts = append(exts, pdfExtension)
	sort.Strings(exts)
	return exts
}

// DetectKind maps a filename to a document kind by its extension
func DetectKind(filename string) (models.DocumentKind, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch {
	case ext == pdfExtension:
		return models.KindPDF, nil
	case imageExtensions[ext]:
		return models.KindImage, nil
	case ext == "":
		return "", fmt.Errorf("%w: %q has no extension (supported: %s)",
			models.ErrUnsupportedType, filename, strings.Join(SupportedExtensions(), ", "))
	default:
		return "", fmt.Errorf("%w: %q (supported: %s)",
			models.ErrUnsupportedType, ext, strings.Join(SupportedExtensions(), ", "))
	}
}

// PageSource turns a document into its ordered page images
type PageSource struct {
	rasterizer Rasterizer
	countPages func([]byte) (int, error)
}

// NewPageSource creates a page source that renders PDFs with r
func NewPageSource(r Rasterizer) *PageSource {
	return &PageSource{
		rasterizer: r,
		countPages: countPDFPages,
	}
}

// Load decodes an image into one page, or rasterizes every page of a PDF
func (s *PageSource) Load(ctx context.Context, doc models.Document) ([]models.Page, error) {
	switch doc.Kind {
	case models.KindImage:
		img, _, err := image.Decode(bytes.NewReader(doc.Data))
		if err != nil {
			return nil, fmt.Errorf("%w: failed to read image file %s: %v", models.ErrUnreadableFile, doc.Filename, err)
		}
		log.WithField("file", doc.Filename).Info("processing image")
		return []models.Page{{Index: 1, Image: img}}, nil

	case models.KindPDF:
		return s.loadPDF(ctx, doc)

	default:
		return nil, fmt.Errorf("%w: kind %q", models.ErrUnsupportedType, doc.Kind)
	}
}

func (s *PageSource) loadPDF(ctx context.Context, doc models.Document) ([]models.Page, error) {
	logCtx := log.WithField("file", doc.Filename)
	logCtx.Info("processing PDF")

	if s.rasterizer == nil {
		return nil, fmt.Errorf("%w: no PDF renderer configured", models.ErrConversionFailed)
	}

	// The structural count is a cross-check only; poppler accepts files pdfcpu rejects.
	expected := 0
	if s.countPages != nil {
		n, err := s.countPages(doc.Data)
		if err != nil {
			logCtx.WithError(err).Warn("could not read PDF page count, relying on renderer")
		} else {
			expected = n
		}
	}

	images, err := s.rasterizer.Rasterize(ctx, doc.Data)
	if err != nil {
		if !errors.Is(err, models.ErrConversionFailed) {
			err = fmt.Errorf("%w: %v", models.ErrConversionFailed, err)
		}
		return nil, fmt.Errorf("failed to convert PDF to images: %w", err)
	}
	if len(images) == 0 {
		return nil, fmt.Errorf("%w: no pages rendered", models.ErrConversionFailed)
	}
	if expected > 0 && len(images) != expected {
		return nil, fmt.Errorf("%w: rendered %d of %d pages", models.ErrConversionFailed, len(images), expected)
	}

	pages := make([]models.Page, len(images))
	for i, img := range images {
		if img == nil {
			return nil, fmt.Errorf("%w: page %d is empty", models.ErrConversionFailed, i+1)
		}
		pages[i] = models.Page{Index: i + 1, Image: img}
	}
	logCtx.WithFields(logrus.Fields{"pages": len(pages)}).Info("PDF pages ready")
	return pages, nil
}
