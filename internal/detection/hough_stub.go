//go:build !gocv
// +build !gocv

package detection

import (
	"image"

	apperrors "github.com/ironsheep/omr-sheet-mcp/internal/errors"
)

// HoughLocator is unavailable without the gocv build tag.
type HoughLocator struct {
	cfg SweepConfig
}

// NewHoughLocator returns an error if the build lacks the gocv tag.
func NewHoughLocator(cfg SweepConfig) (*HoughLocator, error) {
	_ = cfg
	return nil, apperrors.NewInvalidInputError("hough fiducial backend requires the gocv build tag", nil)
}

// Locate always fails in builds without OpenCV.
func (h *HoughLocator) Locate(img image.Image) (Detection, error) {
	_ = img
	return Detection{}, apperrors.NewInvalidInputError("gocv build tag is not enabled", nil)
}
