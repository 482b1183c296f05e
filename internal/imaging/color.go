package imaging

import (
	"image"
	"math"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// Lightness returns the CIE L* lightness (0 = black, 100 = white) of the pixel
// at (x, y). Coordinates outside img report white, matching the sheet background.
func Lightness(img image.Image, x, y int) float64 {
	if !(image.Point{X: x, Y: y}.In(img.Bounds())) {
		return 100
	}
	c, ok := colorful.MakeColor(img.At(x, y))
	if !ok {
		// fully transparent
		return 100
	}
	l, _, _ := c.Lab()
	return l * 100
}

// MeanLightness averages Lightness over rect, sampling every step pixels.
// Returns 100 when rect does not overlap img.
func MeanLightness(img image.Image, rect image.Rectangle, step int) float64 {
	if step < 1 {
		step = 1
	}
	rect = rect.Intersect(img.Bounds())
	if rect.Empty() {
		return 100
	}

	var sum float64
	var n int
	for y := rect.Min.Y; y < rect.Max.Y; y += step {
		for x := rect.Min.X; x < rect.Max.X; x += step {
			sum += Lightness(img, x, y)
			n++
		}
	}
	return sum / float64(n)
}

// ContrastReport summarizes paper and ink lightness on a scanned page.
type ContrastReport struct {
	// Paper is the median L* of the page, dominated by unprinted stock.
	Paper float64 `json:"paper_lightness"`

	// Ink is the mean L* sampled inside the fiducial markers.
	Ink float64 `json:"ink_lightness"`

	// Contrast is Paper - Ink, in L* units.
	Contrast float64 `json:"contrast"`
}

// PaperLightness estimates the paper colour as the median L* over a coarse grid.
func PaperLightness(img image.Image, step int) float64 {
	if step < 1 {
		step = 1
	}
	b := img.Bounds()
	var histogram [101]int
	var n int
	for y := b.Min.Y; y < b.Max.Y; y += step {
		for x := b.Min.X; x < b.Max.X; x += step {
			l := int(math.Round(Lightness(img, x, y)))
			if l < 0 {
				l = 0
			}
			if l > 100 {
				l = 100
			}
			histogram[l]++
			n++
		}
	}
	if n == 0 {
		return 100
	}

	half := (n + 1) / 2
	var seen int
	for l, count := range histogram {
		seen += count
		if seen >= half {
			return float64(l)
		}
	}
	return 100
}

// NewContrastReport combines a paper estimate with ink samples.
func NewContrastReport(paper float64, inks []float64) ContrastReport {
	if len(inks) == 0 {
		return ContrastReport{Paper: round1(paper), Ink: round1(paper)}
	}
	var sum float64
	for _, v := range inks {
		sum += v
	}
	ink := sum / float64(len(inks))
	return ContrastReport{
		Paper:    round1(paper),
		Ink:      round1(ink),
		Contrast: round1(paper - ink),
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
