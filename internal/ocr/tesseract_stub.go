//go:build !gosseract

package ocr

func newGosseractEngine() (Engine, error) {
	return nil, ErrGosseractNotEnabled
}
