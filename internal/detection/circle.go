package detection

import "math"

// ShapeChecker classifies blob outlines as circles.
//
// A set of edge points is a circle when the mean absolute difference between
// each point's distance from the fitted center and the fitted radius stays under
// max(MinAcceptableDistortion, RelativeDistortionLimit * mean blob size).
type ShapeChecker struct {
	// MinAcceptableDistortion is the absolute tolerance in pixels, used for
	// small blobs where the relative limit would be too strict.
	MinAcceptableDistortion float64

	// RelativeDistortionLimit is the tolerance as a fraction of blob size.
	RelativeDistortionLimit float64
}

// DefaultShapeChecker returns the tolerances used for printed fiducials.
func DefaultShapeChecker() ShapeChecker {
	return ShapeChecker{
		MinAcceptableDistortion: 0.5,
		RelativeDistortionLimit: 0.03,
	}
}

// IsCircle fits edge points to a circle and reports whether they are round.
//
// The circle is fitted from the bounding box of the points: the center is the
// middle of the box and the radius is a quarter of width plus height. At least
// eight points are required.
func (s ShapeChecker) IsCircle(edgePoints []Point2D) (center Point2D, radius float64, ok bool) {
	if len(edgePoints) < 8 {
		return Point2D{}, 0, false
	}

	minX, minY := edgePoints[0].X, edgePoints[0].Y
	maxX, maxY := minX, minY
	for _, p := range edgePoints[1:] {
		minX = math.Min(minX, p.X)
		maxX = math.Max(maxX, p.X)
		minY = math.Min(minY, p.Y)
		maxY = math.Max(maxY, p.Y)
	}

	sizeX, sizeY := maxX-minX, maxY-minY
	center = Point2D{X: minX + sizeX/2, Y: minY + sizeY/2}
	radius = (sizeX + sizeY) / 4

	var deviation float64
	for _, p := range edgePoints {
		deviation += math.Abs(center.Distance(p) - radius)
	}
	deviation /= float64(len(edgePoints))

	limit := math.Max(s.MinAcceptableDistortion, s.RelativeDistortionLimit*(sizeX+sizeY)/2)
	return center, radius, deviation <= limit
}
