package ocr

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	"image/png"
	"math"

	"github.com/sirupsen/logrus"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"

	"github.com/lipiai/document-translation-service/internal/models"
)

const (
	// DefaultMaxSide is the longest side allowed before downscaling
	DefaultMaxSide = 2500

	blurKernelSize     = 1
	thresholdBlockSize = 11
	thresholdC         = 2
	thresholdMax       = 255
)

var log = logrus.WithField("component", "ocr")

// areaKernel is a box filter. x/image/draw widens the support by the scale
// factor when shrinking, so every destination pixel averages its source area.
var areaKernel = &draw.Kernel{
	Support: 0.5,
	At:      func(t float64) float64 { return 1 },
}

// Preprocessor normalizes page images for recognition of Devanagari and
// Latin text: resize -> grayscale -> blur -> adaptive threshold.
type Preprocessor struct {
	maxSide int
}

// NewPreprocessor creates a new image preprocessor. maxSide <= 0 uses DefaultMaxSide.
func NewPreprocessor(maxSide int) *Preprocessor {
	if maxSide <= 0 {
		maxSide = DefaultMaxSide
	}
	return &Preprocessor{maxSide: maxSide}
}

// NormalizeBytes decodes an encoded image, normalizes it and returns PNG bytes
func (p *Preprocessor) NormalizeBytes(imageData []byte) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(imageData))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrInvalidImage, err)
	}
	return EncodePNG(p.Normalize(img))
}

// Normalize applies the full pipeline to a decoded image
func (p *Preprocessor) Normalize(img image.Image) *image.Gray {
	resized := p.Resize(img)
	gray := Grayscale(resized)
	blurred := gaussianBlur(gray, blurKernelSize)
	out := AdaptiveThreshold(blurred, thresholdBlockSize, thresholdC)

	b := img.Bounds()
	log.WithFields(logrus.Fields{
		"in":  fmt.Sprintf("%dx%d", b.Dx(), b.Dy()),
		"out": fmt.Sprintf("%dx%d", out.Bounds().Dx(), out.Bounds().Dy()),
	}).Debug("image normalized")
	return out
}

// Resize downscales img so that its longer side is at most maxSide
func (p *Preprocessor) Resize(img image.Image) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	longest := w
	if h > longest {
		longest = h
	}
	if longest <= p.maxSide {
		return img
	}

	scale := float64(p.maxSide) / float64(longest)
	nw := int(math.Round(float64(w) * scale))
	nh := int(math.Round(float64(h) * scale))
	if nw < 1 {
		nw = 1
	}
	if nh < 1 {
		nh = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	areaKernel.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

// Grayscale converts img to an 8-bit single channel image
func Grayscale(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok && g.Bounds().Min == (image.Point{}) {
		return g
	}
	b := img.Bounds()
	gray := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			gray.Set(x, y, color.GrayModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)))
		}
	}
	return gray
}

// AdaptiveThreshold binarizes src against a Gaussian-weighted local mean.
// A pixel becomes white when it is brighter than mean - c.
func AdaptiveThreshold(src *image.Gray, blockSize int, c float64) *image.Gray {
	mean := gaussianBlur(src, blockSize)
	w, h := src.Bounds().Dx(), src.Bounds().Dy()
	dst := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		srow := src.Pix[y*src.Stride : y*src.Stride+w]
		mrow := mean.Pix[y*mean.Stride : y*mean.Stride+w]
		drow := dst.Pix[y*dst.Stride : y*dst.Stride+w]
		for x := range srow {
			if float64(srow[x]) > float64(mrow[x])-c {
				drow[x] = thresholdMax
			}
		}
	}
	return dst
}

// gaussianBlur runs a separable Gaussian filter with replicated borders.
// ksize 1 is the identity.
func gaussianBlur(src *image.Gray, ksize int) *image.Gray {
	w, h := src.Bounds().Dx(), src.Bounds().Dy()
	dst := image.NewGray(image.Rect(0, 0, w, h))
	if ksize <= 1 {
		for y := 0; y < h; y++ {
			copy(dst.Pix[y*dst.Stride:y*dst.Stride+w], src.Pix[y*src.Stride:y*src.Stride+w])
		}
		return dst
	}

	kernel := gaussianKernel(ksize)
	r := ksize / 2
	tmp := make([]float64, w*h)

	for y := 0; y < h; y++ {
		row := src.Pix[y*src.Stride : y*src.Stride+w]
		for x := 0; x < w; x++ {
			var sum float64
			for k := -r; k <= r; k++ {
				sum += kernel[k+r] * float64(row[clamp(x+k, w)])
			}
			tmp[y*w+x] = sum
		}
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var sum float64
			for k := -r; k <= r; k++ {
				sum += kernel[k+r] * tmp[clamp(y+k, h)*w+x]
			}
			dst.Pix[y*dst.Stride+x] = uint8(math.Min(255, math.Max(0, math.Round(sum))))
		}
	}
	return dst
}

// gaussianKernel returns a normalized 1-D kernel. Sigma is derived from the
// size the same way OpenCV does when none is given.
func gaussianKernel(ksize int) []float64 {
	sigma := 0.3*((float64(ksize)-1)*0.5-1) + 0.8
	r := ksize / 2
	k := make([]float64, ksize)
	var sum float64
	for i := range k {
		d := float64(i - r)
		k[i] = math.Exp(-(d * d) / (2 * sigma * sigma))
		sum += k[i]
	}
	for i := range k {
		k[i] /= sum
	}
	return k
}

func clamp(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

// EncodePNG encodes img as PNG
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}
