package barcode

import (
	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/multi"
)

const (
	// minRegionToRecurse is the smallest leftover strip, in pixels, that is
	// searched for further symbols.
	minRegionToRecurse = 100
	maxRecursionDepth  = 4
)

// regionReader finds several symbols on one bitmap with a single-symbol
// reader. After each hit it searches the strips left of, above, right of and
// below the symbol's result points, and maps results back to the full
// bitmap.
type regionReader struct {
	delegate gozxing.Reader
}

var _ multi.MultipleBarcodeReader = (*regionReader)(nil)

func newRegionReader(delegate gozxing.Reader) *regionReader {
	return &regionReader{delegate: delegate}
}

func (r *regionReader) DecodeMultipleWithoutHint(img *gozxing.BinaryBitmap) ([]*gozxing.Result, error) {
	return r.DecodeMultiple(img, nil)
}

// DecodeMultiple returns every distinct symbol found, or a NotFoundException
// when there is none.
func (r *regionReader) DecodeMultiple(img *gozxing.BinaryBitmap, hints map[gozxing.DecodeHintType]interface{}) ([]*gozxing.Result, error) {
	var results []*gozxing.Result
	r.decodeRegion(img, hints, &results, 0, 0, 0)
	if len(results) == 0 {
		return nil, gozxing.NewNotFoundException()
	}
	return results, nil
}

func (r *regionReader) decodeRegion(img *gozxing.BinaryBitmap, hints map[gozxing.DecodeHintType]interface{},
	results *[]*gozxing.Result, xOffset, yOffset, depth int) {

	if depth > maxRecursionDepth {
		return
	}

	result, err := r.delegate.Decode(img, hints)
	if err != nil {
		return
	}

	known := false
	for _, existing := range *results {
		if existing.GetText() == result.GetText() {
			known = true
			break
		}
	}
	if !known {
		*results = append(*results, translate(result, xOffset, yOffset))
	}

	points := result.GetResultPoints()
	if len(points) == 0 {
		return
	}

	width, height := img.GetWidth(), img.GetHeight()
	minX, minY := float64(width), float64(height)
	maxX, maxY := 0.0, 0.0
	for _, p := range points {
		if p == nil {
			continue
		}
		minX, maxX = min(minX, p.GetX()), max(maxX, p.GetX())
		minY, maxY = min(minY, p.GetY()), max(maxY, p.GetY())
	}

	if !img.IsCropSupported() {
		return
	}
	recurse := func(left, top, w, h, dx, dy int) {
		sub, err := img.Crop(left, top, w, h)
		if err != nil {
			return
		}
		r.decodeRegion(sub, hints, results, xOffset+dx, yOffset+dy, depth+1)
	}

	if minX > minRegionToRecurse {
		recurse(0, 0, int(minX), height, 0, 0)
	}
	if minY > minRegionToRecurse {
		recurse(0, 0, width, int(minY), 0, 0)
	}
	if maxX < float64(width-minRegionToRecurse) {
		recurse(int(maxX), 0, width-int(maxX), height, int(maxX), 0)
	}
	if maxY < float64(height-minRegionToRecurse) {
		recurse(0, int(maxY), width, height-int(maxY), 0, int(maxY))
	}
}

// translate returns result with its points moved by the region offset.
func translate(result *gozxing.Result, xOffset, yOffset int) *gozxing.Result {
	points := result.GetResultPoints()
	if len(points) == 0 || (xOffset == 0 && yOffset == 0) {
		return result
	}

	moved := make([]gozxing.ResultPoint, 0, len(points))
	for _, p := range points {
		if p == nil {
			continue
		}
		moved = append(moved, gozxing.NewResultPoint(p.GetX()+float64(xOffset), p.GetY()+float64(yOffset)))
	}

	out := gozxing.NewResultWithNumBits(result.GetText(), result.GetRawBytes(), result.GetNumBits(),
		moved, result.GetBarcodeFormat(), result.GetTimestamp())
	out.PutAllMetadata(result.GetResultMetadata())
	return out
}
