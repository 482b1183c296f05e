//go:build cgo

package ocr

import (
	"bytes"
	"fmt"
	"image"
	"image/png"

	"github.com/otiai10/gosseract/v2"
)

// ReadLabels runs Tesseract over img and returns the template labels found,
// one per text line. The whole page text is searched when line boxes are
// unavailable.
func (r *Reader) ReadLabels(img image.Image) ([]Label, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode image for OCR: %w", err)
	}

	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(r.language); err != nil {
		return nil, fmt.Errorf("failed to set language: %w", err)
	}
	if err := client.SetImageFromBytes(buf.Bytes()); err != nil {
		return nil, fmt.Errorf("failed to set image: %w", err)
	}

	offset := img.Bounds().Min

	// Line boxes give each label a location on the page
	boxes, err := client.GetBoundingBoxes(gosseract.RIL_TEXTLINE)
	if err == nil {
		labels := make([]Label, 0)
		for _, box := range boxes {
			for _, text := range ParseLabels(box.Word) {
				labels = append(labels, Label{
					Text:       text,
					Confidence: float64(box.Confidence) / 100.0,
					Bounds:     box.Box.Add(offset),
				})
			}
		}
		if len(labels) > 0 {
			return labels, nil
		}
	}

	text, err := client.Text()
	if err != nil {
		return nil, fmt.Errorf("OCR failed: %w", err)
	}

	found := ParseLabels(text)
	labels := make([]Label, 0, len(found))
	for _, t := range found {
		labels = append(labels, Label{Text: t})
	}
	return labels, nil
}
