package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/png"

	"github.com/disintegration/imaging"
)

// EncodedImage contains an image encoded as base64 PNG.
type EncodedImage struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

// CropOnWhite copies rect out of img onto a white canvas of exactly rect's size.
//
// rect is given in img's coordinate space. Parts of rect that fall outside img
// stay white. An empty rect is an error.
func CropOnWhite(img image.Image, rect image.Rectangle) (*image.NRGBA, error) {
	if rect.Dx() <= 0 || rect.Dy() <= 0 {
		return nil, fmt.Errorf("invalid crop region %v: width and height must be positive", rect)
	}

	canvas := imaging.New(rect.Dx(), rect.Dy(), color.White)
	inside := rect.Intersect(img.Bounds())
	if inside.Empty() {
		return canvas, nil
	}

	region := imaging.Crop(img, inside)
	return imaging.Paste(canvas, region, inside.Min.Sub(rect.Min)), nil
}

// Preview scales img by scale using nearest-neighbour sampling.
// A scale of 1 or more returns a copy at the original size.
func Preview(img image.Image, scale float64) *image.NRGBA {
	if scale >= 1 || scale <= 0 {
		return imaging.Clone(img)
	}
	b := img.Bounds()
	w := int(float64(b.Dx()) * scale)
	h := int(float64(b.Dy()) * scale)
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	return imaging.Resize(img, w, h, imaging.NearestNeighbor)
}

// EncodePNG encodes img as base64 PNG, optionally scaling it first.
func EncodePNG(img image.Image, scale float64) (*EncodedImage, error) {
	if scale != 1.0 && scale > 0 {
		newWidth := int(float64(img.Bounds().Dx()) * scale)
		newHeight := int(float64(img.Bounds().Dy()) * scale)
		if newWidth > 0 && newHeight > 0 {
			img = imaging.Resize(img, newWidth, newHeight, imaging.Lanczos)
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}

	return &EncodedImage{
		Width:       img.Bounds().Dx(),
		Height:      img.Bounds().Dy(),
		ImageBase64: base64.StdEncoding.EncodeToString(buf.Bytes()),
		MimeType:    "image/png",
	}, nil
}
