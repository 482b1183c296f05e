package sheet

import (
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ironsheep/omr-sheet-mcp/internal/barcode"
	"github.com/ironsheep/omr-sheet-mcp/internal/detection"
	"github.com/ironsheep/omr-sheet-mcp/internal/ocr"
)

const (
	pageSize     = 1000
	markerRadius = 45
	markerInset  = 150
)

// createTestImage creates a solid color test image
func createTestImage(width, height int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

// fillDisk paints a filled black circle
func fillDisk(img *image.RGBA, cx, cy, radius int) {
	for y := cy - radius; y <= cy+radius; y++ {
		for x := cx - radius; x <= cx+radius; x++ {
			dx, dy := x-cx, y-cy
			if dx*dx+dy*dy <= radius*radius {
				img.Set(x, y, color.Black)
			}
		}
	}
}

// markerCenters returns the four fiducial centers turned clockwise by
// degrees around the page center.
func markerCenters(degrees float64) []image.Point {
	corners := []image.Point{
		{X: markerInset, Y: markerInset},
		{X: pageSize - markerInset, Y: markerInset},
		{X: markerInset, Y: pageSize - markerInset},
		{X: pageSize - markerInset, Y: pageSize - markerInset},
	}

	theta := degrees * math.Pi / 180
	c := float64(pageSize) / 2
	out := make([]image.Point, len(corners))
	for i, p := range corners {
		dx, dy := float64(p.X)-c, float64(p.Y)-c
		out[i] = image.Point{
			X: int(math.Round(c + dx*math.Cos(theta) - dy*math.Sin(theta))),
			Y: int(math.Round(c + dx*math.Sin(theta) + dy*math.Cos(theta))),
		}
	}
	return out
}

// createSheetImage draws a blank answer sheet with fiducials
func createSheetImage(centers []image.Point) *image.RGBA {
	img := createTestImage(pageSize, pageSize, color.White)
	for _, c := range centers {
		fillDisk(img, c.X, c.Y, markerRadius)
	}
	return img
}

// stubDecoder returns canned symbols, one slice per call; the last slice
// repeats once the list runs out.
type stubDecoder struct {
	calls   int
	answers [][]barcode.Symbol
}

func (d *stubDecoder) DecodeAll(img image.Image, thorough bool) ([]barcode.Symbol, error) {
	d.calls++
	if len(d.answers) == 0 {
		return nil, nil
	}
	i := d.calls - 1
	if i >= len(d.answers) {
		i = len(d.answers) - 1
	}
	return d.answers[i], nil
}

// stubLocator fails every call after the first n
type stubLocator struct {
	inner detection.Locator
	n     int
	calls int
}

func (l *stubLocator) Locate(img image.Image) (detection.Detection, error) {
	l.calls++
	if l.calls > l.n {
		return detection.Detection{Passes: 6, RadiusThreshold: 37}, nil
	}
	return l.inner.Locate(img)
}

type stubLabels struct {
	labels []ocr.Label
	calls  *int
}

func (s stubLabels) ReadLabels(img image.Image) ([]ocr.Label, error) {
	if s.calls != nil {
		*s.calls++
	}
	return s.labels, nil
}

func newTestPipeline(t *testing.T, decoder BarcodeReader) *Pipeline {
	t.Helper()
	locator, err := detection.NewDetector(detection.DefaultSweepConfig())
	require.NoError(t, err)
	if decoder == nil {
		decoder = &stubDecoder{}
	}
	return &Pipeline{Locator: locator, Decoder: decoder, Thorough: true}
}

func symbols(texts ...string) []barcode.Symbol {
	out := make([]barcode.Symbol, len(texts))
	for i, t := range texts {
		out[i] = barcode.Symbol{Text: t, Format: "CODE_128"}
	}
	return out
}
