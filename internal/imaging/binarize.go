package imaging

import (
	"image"

	"github.com/anthonynsimon/bild/effect"
	"github.com/anthonynsimon/bild/segment"
)

// DefaultThreshold is the near-white cutoff used to separate print from paper.
const DefaultThreshold uint8 = 240

// Binarize converts img into a two-level mask where print is foreground.
//
// Pixels whose luminance is below threshold become 255 (foreground) and all
// others become 0. The result is anchored at (0,0) and has the same size as img.
// Binarize is deterministic and does not modify img.
func Binarize(img image.Image, threshold uint8) *image.Gray {
	gray := effect.Grayscale(img)
	levels := segment.Threshold(gray, threshold)
	return redChannel(effect.Invert(levels))
}

// Grayscale returns the luminance image of img.
func Grayscale(img image.Image) *image.Gray {
	return redChannel(effect.Grayscale(img))
}

// redChannel repacks a gray-valued RGBA image into an image.Gray anchored
// at (0,0).
func redChannel(src *image.RGBA) *image.Gray {
	b := src.Bounds()
	out := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		row := src.Pix[src.PixOffset(b.Min.X, b.Min.Y+y):]
		dst := out.Pix[y*out.Stride : y*out.Stride+b.Dx()]
		for x := range dst {
			dst[x] = row[x*4]
		}
	}
	return out
}

// IsForeground reports whether the mask pixel at (x, y) is print.
// Coordinates outside the mask are background.
func IsForeground(mask *image.Gray, x, y int) bool {
	if !(image.Point{X: x, Y: y}.In(mask.Rect)) {
		return false
	}
	return mask.Pix[mask.PixOffset(x, y)] > 127
}
