package detection

import (
	"fmt"
	"image"

	apperrors "github.com/ironsheep/omr-sheet-mcp/internal/errors"
	"github.com/ironsheep/omr-sheet-mcp/internal/imaging"
)

// MarkerCount is the number of fiducials printed on every sheet.
const MarkerCount = 4

// FiducialMarker is a circular reference mark found on the page.
type FiducialMarker struct {
	Center Point2D `json:"center"`
	Radius float64 `json:"radius"`
	Bounds Bounds  `json:"bounds"`
}

// SweepConfig bounds the adaptive radius search.
type SweepConfig struct {
	// Threshold is the binarization cutoff (see imaging.Binarize).
	Threshold uint8

	// MinBlobWidth and MinBlobHeight filter speckle before shape fitting.
	MinBlobWidth  int
	MinBlobHeight int

	// RadiusMax is the first (strictest) radius threshold tried.
	RadiusMax int
	// RadiusMin is the last radius threshold tried.
	RadiusMin int
}

// DefaultSweepConfig returns the settings tuned for 300 dpi answer sheets.
func DefaultSweepConfig() SweepConfig {
	return SweepConfig{
		Threshold:     imaging.DefaultThreshold,
		MinBlobWidth:  30,
		MinBlobHeight: 30,
		RadiusMax:     42,
		RadiusMin:     37,
	}
}

// Detection is the outcome of a fiducial search.
type Detection struct {
	// Markers holds the qualifying markers at the threshold where the sweep
	// stopped. It has exactly MarkerCount entries when Found is true.
	Markers []FiducialMarker `json:"markers"`

	// Circles is the number of round blobs regardless of radius.
	Circles int `json:"circles"`

	// RadiusThreshold is the last threshold tried.
	RadiusThreshold int `json:"radius_threshold"`

	// Passes is the number of thresholds tried.
	Passes int `json:"passes"`
}

// Found reports whether exactly four markers qualified.
func (d Detection) Found() bool {
	return len(d.Markers) == MarkerCount
}

// Locator finds fiducial markers on a page.
type Locator interface {
	Locate(img image.Image) (Detection, error)
}

// Detector is the blob-based Locator.
type Detector struct {
	cfg     SweepConfig
	checker ShapeChecker
}

// NewDetector creates a blob detector. The sweep bounds must satisfy
// 0 < RadiusMin <= RadiusMax.
func NewDetector(cfg SweepConfig) (*Detector, error) {
	if cfg.RadiusMin <= 0 || cfg.RadiusMax < cfg.RadiusMin {
		return nil, apperrors.NewInvalidInputError(
			fmt.Sprintf("invalid radius sweep %d..%d", cfg.RadiusMax, cfg.RadiusMin), nil)
	}
	return &Detector{cfg: cfg, checker: DefaultShapeChecker()}, nil
}

// Config returns the sweep configuration.
func (d *Detector) Config() SweepConfig {
	return d.cfg
}

// Locate binarizes img and runs DetectFiducials on the mask.
func (d *Detector) Locate(img image.Image) (Detection, error) {
	mask := imaging.Binarize(img, d.cfg.Threshold)
	return d.DetectFiducials(mask), nil
}

// DetectFiducials finds circular markers in a binary mask.
//
// # Algorithm
//
//  1. Extract blobs at least MinBlobWidth x MinBlobHeight
//  2. Fit each blob's edge points to a circle once; keep the round ones
//  3. For threshold = RadiusMax down to RadiusMin: select circles with
//     radius >= threshold, stop as soon as exactly four qualify
//
// The candidate list is computed once, so the sweep costs at most
// RadiusMax-RadiusMin+1 passes over the same small slice.
func (d *Detector) DetectFiducials(mask *image.Gray) Detection {
	blobs := FindBlobs(mask, d.cfg.MinBlobWidth, d.cfg.MinBlobHeight)

	circles := make([]FiducialMarker, 0, len(blobs))
	for _, b := range blobs {
		center, radius, ok := d.checker.IsCircle(b.EdgePoints)
		if !ok {
			continue
		}
		circles = append(circles, FiducialMarker{Center: center, Radius: radius, Bounds: b.Bounds})
	}

	return sweep(circles, d.cfg.RadiusMax, d.cfg.RadiusMin)
}

// sweep applies the decreasing radius threshold to a fixed candidate list.
func sweep(circles []FiducialMarker, radiusMax, radiusMin int) Detection {
	det := Detection{Circles: len(circles)}

	for threshold := radiusMax; threshold >= radiusMin; threshold-- {
		det.Passes++
		det.RadiusThreshold = threshold

		selected := make([]FiducialMarker, 0, MarkerCount)
		for _, c := range circles {
			if c.Radius >= float64(threshold) {
				selected = append(selected, c)
			}
		}
		det.Markers = selected
		if len(selected) == MarkerCount {
			break
		}
	}

	return det
}
