package imaging

import (
	"fmt"
	"image"

	"github.com/anthonynsimon/bild/transform"
	"github.com/disintegration/imaging"
)

// Rotate rotates img around its center by degrees, clockwise for positive
// values. The canvas grows to fit the rotated content and the exposed corners
// are painted white.
func Rotate(img image.Image, degrees float64) *image.NRGBA {
	if degrees == 0 {
		return Normalize(img)
	}
	rotated := transform.Rotate(img, degrees, &transform.RotationOptions{ResizeBounds: true})
	return Normalize(rotated)
}

// Orient applies a quarter-turn counter-clockwise rotation to a page, used when
// the scanner delivers pages sideways. Only 0, 90, 180 and 270 are accepted.
func Orient(img image.Image, degrees int) (*image.NRGBA, error) {
	switch degrees {
	case 0:
		return Normalize(img), nil
	case 90:
		return imaging.Rotate90(img), nil
	case 180:
		return imaging.Rotate180(img), nil
	case 270:
		return imaging.Rotate270(img), nil
	default:
		return nil, fmt.Errorf("unsupported page orientation: %d degrees", degrees)
	}
}
