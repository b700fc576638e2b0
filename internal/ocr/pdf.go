package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/sirupsen/logrus"

	"github.com/lipiai/document-translation-service/internal/models"
)

// Rasterizer renders every page of a PDF, in page order
type Rasterizer interface {
	Rasterize(ctx context.Context, pdf []byte) ([]image.Image, error)
}

// PopplerRasterizer renders pages with poppler's pdftoppm
type PopplerRasterizer struct {
	Binary string
	DPI    int
}

// NewPopplerRasterizer creates a rasterizer. Empty binary means "pdftoppm" on PATH.
func NewPopplerRasterizer(binary string, dpi int) *PopplerRasterizer {
	if binary == "" {
		binary = "pdftoppm"
	}
	if dpi <= 0 {
		dpi = 200
	}
	return &PopplerRasterizer{Binary: binary, DPI: dpi}
}

// Available reports whether the renderer binary can be found
func (r *PopplerRasterizer) Available() bool {
	_, err := exec.LookPath(r.Binary)
	return err == nil
}

// Rasterize writes the PDF to a temp dir, runs pdftoppm and decodes the pages.
// Any failure fails the whole document.
func (r *PopplerRasterizer) Rasterize(ctx context.Context, pdf []byte) ([]image.Image, error) {
	bin, err := exec.LookPath(r.Binary)
	if err != nil {
		return nil, fmt.Errorf("%w: renderer %q not found: %v", models.ErrConversionFailed, r.Binary, err)
	}

	tmpDir, err := os.MkdirTemp("", "pdf-pages-*")
	if err != nil {
		return nil, fmt.Errorf("%w: create temp dir: %v", models.ErrConversionFailed, err)
	}
	defer os.RemoveAll(tmpDir)

	inputFile := filepath.Join(tmpDir, "input.pdf")
	if err := os.WriteFile(inputFile, pdf, 0o600); err != nil {
		return nil, fmt.Errorf("%w: write input: %v", models.ErrConversionFailed, err)
	}

	prefix := filepath.Join(tmpDir, "page")
	cmd := exec.CommandContext(ctx, bin, "-r", strconv.Itoa(r.DPI), "-png", inputFile, prefix)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%w: %s: %v: %s", models.ErrConversionFailed, r.Binary, err, strings.TrimSpace(stderr.String()))
	}

	files, err := renderedPages(prefix)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: renderer produced no pages", models.ErrConversionFailed)
	}

	images := make([]image.Image, 0, len(files))
	for i, f := range files {
		data, err := os.ReadFile(f)
		if err != nil {
			return nil, fmt.Errorf("%w: read page %d: %v", models.ErrConversionFailed, i+1, err)
		}
		img, _, err := image.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("%w: decode page %d: %v", models.ErrConversionFailed, i+1, err)
		}
		images = append(images, img)
	}

	log.WithFields(logrus.Fields{"pages": len(images), "dpi": r.DPI}).Info("converted PDF to page images")
	return images, nil
}

// renderedPages lists pdftoppm output ordered by page number. pdftoppm pads
// the number depending on the page count, so sort numerically.
func renderedPages(prefix string) ([]string, error) {
	files, err := filepath.Glob(prefix + "-*.png")
	if err != nil {
		return nil, fmt.Errorf("%w: list pages: %v", models.ErrConversionFailed, err)
	}
	num := func(path string) int {
		s := strings.TrimSuffix(strings.TrimPrefix(path, prefix+"-"), ".png")
		n, _ := strconv.Atoi(s)
		return n
	}
	sort.Slice(files, func(i, j int) bool { return num(files[i]) < num(files[j]) })
	return files, nil
}

// countPDFPages reads the page count from the document structure
func countPDFPages(pdf []byte) (int, error) {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return api.PageCount(bytes.NewReader(pdf), conf)
}
