//go:build !cgo

package ocr

import (
	"errors"
	"image"
)

// ReadLabels is unavailable without cgo.
func (r *Reader) ReadLabels(img image.Image) ([]Label, error) {
	_ = img
	return nil, errors.New("OCR requires a cgo build with Tesseract installed")
}
