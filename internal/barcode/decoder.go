package barcode

import (
	"image"
	"math"

	"github.com/disintegration/imaging"
	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/multi"
	"github.com/makiuchi-d/gozxing/oned"
	"github.com/sirupsen/logrus"

	apperrors "github.com/ironsheep/omr-sheet-mcp/internal/errors"
	"github.com/ironsheep/omr-sheet-mcp/internal/logger"
)

// Symbol is one decoded barcode.
type Symbol struct {
	Text   string          `json:"text"`
	Format string          `json:"format"`
	Bounds image.Rectangle `json:"bounds"`

	// Rotation is the counter-clockwise quarter turn, in degrees, under which
	// the symbol was read. Bounds are always in source image coordinates.
	Rotation int `json:"rotation"`
}

// Decoder reads every Code 128 symbol on a page.
type Decoder struct {
	reader multi.MultipleBarcodeReader
}

// NewDecoder creates a Code 128 decoder that reads every symbol on a page.
func NewDecoder() *Decoder {
	return &Decoder{reader: newRegionReader(oned.NewCode128Reader())}
}

// DecodeAll returns all symbols found on img, deduplicated by text.
//
// With thorough set the decoder uses the TRY_HARDER hint and, when the upright
// page yields nothing, retries the page turned by 90, 180 and 270 degrees.
// An empty result is not an error.
func (d *Decoder) DecodeAll(img image.Image, thorough bool) ([]Symbol, error) {
	hints := map[gozxing.DecodeHintType]interface{}{
		gozxing.DecodeHintType_POSSIBLE_FORMATS: []gozxing.BarcodeFormat{gozxing.BarcodeFormat_CODE_128},
	}
	if thorough {
		hints[gozxing.DecodeHintType_TRY_HARDER] = true
	}

	rotations := []int{0}
	if thorough {
		rotations = append(rotations, 90, 180, 270)
	}

	bounds := img.Bounds()
	seen := make(map[string]bool)
	symbols := make([]Symbol, 0)

	for _, rotation := range rotations {
		results, err := d.decode(turn(img, rotation), hints)
		if err != nil {
			return nil, err
		}
		for _, r := range results {
			if seen[r.GetText()] {
				continue
			}
			seen[r.GetText()] = true
			symbols = append(symbols, Symbol{
				Text:     r.GetText(),
				Format:   r.GetBarcodeFormat().String(),
				Bounds:   symbolBounds(r.GetResultPoints(), rotation, bounds),
				Rotation: rotation,
			})
		}
		if len(symbols) > 0 {
			break
		}
	}

	logger.WithFields(logrus.Fields{
		"symbols":  len(symbols),
		"thorough": thorough,
	}).Debug("Barcode decode finished")

	return symbols, nil
}

func (d *Decoder) decode(img image.Image, hints map[gozxing.DecodeHintType]interface{}) ([]*gozxing.Result, error) {
	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return nil, apperrors.NewInvalidInputError("failed to prepare image for barcode decoding", err)
	}

	results, err := d.reader.DecodeMultiple(bmp, hints)
	if err != nil {
		// gozxing reports "nothing here" as an error
		logger.WithError(err).Debug("No barcode in orientation")
		return nil, nil
	}
	return results, nil
}

// turn rotates img counter-clockwise by a multiple of 90 degrees.
func turn(img image.Image, degrees int) image.Image {
	switch degrees {
	case 90:
		return imaging.Rotate90(img)
	case 180:
		return imaging.Rotate180(img)
	case 270:
		return imaging.Rotate270(img)
	default:
		return img
	}
}

// symbolBounds maps result points read under rotation back to the source
// image and returns their bounding box.
func symbolBounds(points []gozxing.ResultPoint, rotation int, src image.Rectangle) image.Rectangle {
	if len(points) == 0 {
		return image.Rectangle{}
	}

	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range points {
		x, y := unturn(p.GetX(), p.GetY(), rotation, src.Dx(), src.Dy())
		minX, maxX = math.Min(minX, x), math.Max(maxX, x)
		minY, maxY = math.Min(minY, y), math.Max(maxY, y)
	}

	return image.Rect(int(minX), int(minY), int(math.Ceil(maxX))+1, int(math.Ceil(maxY))+1).
		Add(src.Min)
}

// unturn inverts turn for a single point of a w x h source image.
func unturn(u, v float64, rotation, w, h int) (float64, float64) {
	switch rotation {
	case 90:
		return float64(w-1) - v, u
	case 180:
		return float64(w-1) - u, float64(h-1) - v
	case 270:
		return v, float64(h-1) - u
	default:
		return u, v
	}
}
