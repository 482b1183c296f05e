package imaging

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"

	apperrors "github.com/ironsheep/omr-sheet-mcp/internal/errors"
)

// Raster is an exclusively owned, opaque RGB pixel buffer.
//
// Any input is normalized on construction: transparent areas are flattened onto
// white and the bounds are moved to the origin. The zero value is not usable;
// construct with NewRaster or Adopt.
type Raster struct {
	img      *image.NRGBA
	released bool
}

// NewRaster copies src into a new opaque buffer anchored at (0,0).
func NewRaster(src image.Image) *Raster {
	return &Raster{img: Normalize(src)}
}

// Adopt takes ownership of an already normalized buffer without copying.
// The caller must not use img afterwards.
func Adopt(img *image.NRGBA) *Raster {
	return &Raster{img: img}
}

// Normalize flattens src onto an opaque white canvas of the same size.
func Normalize(src image.Image) *image.NRGBA {
	b := src.Bounds()
	canvas := imaging.New(b.Dx(), b.Dy(), color.White)
	return imaging.Overlay(canvas, src, image.Pt(0, 0), 1.0)
}

// Image returns the underlying buffer. The Raster keeps ownership.
func (r *Raster) Image() (*image.NRGBA, error) {
	if r == nil || r.released {
		return nil, apperrors.NewResourceMisuseError("raster used after release", nil)
	}
	return r.img, nil
}

// Size returns width and height of the buffer.
func (r *Raster) Size() (int, int, error) {
	img, err := r.Image()
	if err != nil {
		return 0, 0, err
	}
	b := img.Bounds()
	return b.Dx(), b.Dy(), nil
}

// Release drops the buffer. Releasing twice is reported as resource misuse.
func (r *Raster) Release() error {
	if r == nil || r.released {
		return apperrors.NewResourceMisuseError("raster released twice", nil)
	}
	r.img = nil
	r.released = true
	return nil
}

// Released reports whether Release has been called.
func (r *Raster) Released() bool {
	return r == nil || r.released
}
