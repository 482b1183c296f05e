package batch

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ironsheep/omr-sheet-mcp/internal/barcode"
	"github.com/ironsheep/omr-sheet-mcp/internal/detection"
	"github.com/ironsheep/omr-sheet-mcp/internal/sheet"
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

// createSheetImage draws four 45px fiducials 100px in from each corner
func createSheetImage(width, height int) *image.RGBA {
	img := createTestImage(width, height, color.White)
	for _, c := range []image.Point{
		{X: 100, Y: 100}, {X: width - 100, Y: 100},
		{X: 100, Y: height - 100}, {X: width - 100, Y: height - 100},
	} {
		for y := c.Y - 45; y <= c.Y+45; y++ {
			for x := c.X - 45; x <= c.X+45; x++ {
				dx, dy := x-c.X, y-c.Y
				if dx*dx+dy*dy <= 45*45 {
					img.Set(x, y, color.Black)
				}
			}
		}
	}
	return img
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// stubDecoder reports a template on every page and panics on pages of
// panicWidth pixels.
type stubDecoder struct {
	panicWidth int
}

func (d stubDecoder) DecodeAll(img image.Image, thorough bool) ([]barcode.Symbol, error) {
	if d.panicWidth != 0 && img.Bounds().Dx() == d.panicWidth {
		panic("decoder exploded")
	}
	return []barcode.Symbol{{Text: "OMR:ID:ENGLISH101:P1"}}, nil
}

func newTestPipeline(t *testing.T, decoder sheet.BarcodeReader) *sheet.Pipeline {
	t.Helper()
	locator, err := detection.NewDetector(detection.DefaultSweepConfig())
	require.NoError(t, err)
	return &sheet.Pipeline{Locator: locator, Decoder: decoder, Thorough: true}
}

// feed sends jobs on a closed-when-done channel
func feed(jobs ...Job) <-chan Job {
	ch := make(chan Job)
	go func() {
		defer close(ch)
		for _, j := range jobs {
			ch <- j
		}
	}()
	return ch
}
