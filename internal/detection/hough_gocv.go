//go:build gocv
// +build gocv

package detection

import (
	"image"

	"gocv.io/x/gocv"

	apperrors "github.com/ironsheep/omr-sheet-mcp/internal/errors"
)

// HoughLocator finds fiducials with OpenCV's Hough circle transform and then
// applies the same radius sweep as Detector.
type HoughLocator struct {
	cfg SweepConfig
}

// NewHoughLocator creates an OpenCV-backed Locator.
func NewHoughLocator(cfg SweepConfig) (*HoughLocator, error) {
	if _, err := NewDetector(cfg); err != nil {
		return nil, err
	}
	return &HoughLocator{cfg: cfg}, nil
}

// Locate runs HoughCircles on a median-blurred grayscale copy of img.
func (h *HoughLocator) Locate(img image.Image) (Detection, error) {
	mat, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return Detection{}, apperrors.NewInvalidInputError("failed to convert image for OpenCV", err)
	}
	defer mat.Close()

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(mat, &gray, gocv.ColorBGRToGray)

	blur := gocv.NewMat()
	defer blur.Close()
	gocv.MedianBlur(gray, &blur, 5)

	circles := gocv.NewMat()
	defer circles.Close()
	gocv.HoughCirclesWithParams(blur, &circles, gocv.HoughGradient, 1,
		float64(2*h.cfg.RadiusMin), 100, 30, h.cfg.RadiusMin, 3*h.cfg.RadiusMax)

	candidates := make([]FiducialMarker, 0, circles.Cols())
	for i := 0; i < circles.Cols(); i++ {
		v := circles.GetVecfAt(0, i)
		cx, cy, r := float64(v[0]), float64(v[1]), float64(v[2])
		candidates = append(candidates, FiducialMarker{
			Center: Point2D{X: cx, Y: cy},
			Radius: r,
			Bounds: Bounds{X1: int(cx - r), Y1: int(cy - r), X2: int(cx + r + 1), Y2: int(cy + r + 1)},
		})
	}

	return sweep(candidates, h.cfg.RadiusMax, h.cfg.RadiusMin), nil
}
