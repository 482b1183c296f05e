package detection

import (
	"fmt"
	"image"
	"math"

	apperrors "github.com/ironsheep/omr-sheet-mcp/internal/errors"
)

// CornerSet holds the four fiducial centers by position.
type CornerSet struct {
	TopLeft     Point2D `json:"top_left"`
	TopRight    Point2D `json:"top_right"`
	BottomLeft  Point2D `json:"bottom_left"`
	BottomRight Point2D `json:"bottom_right"`
}

// Validate checks the ordering invariant: top markers strictly above their
// bottom counterparts and left markers strictly left of right markers.
func (c CornerSet) Validate() error {
	if !(c.TopLeft.Y < c.BottomLeft.Y) || !(c.TopRight.Y < c.BottomRight.Y) {
		return apperrors.NewGeometryNotFoundError("top corners are not above bottom corners", nil)
	}
	if !(c.TopLeft.X < c.TopRight.X) || !(c.BottomLeft.X < c.BottomRight.X) {
		return apperrors.NewGeometryNotFoundError("left corners are not left of right corners", nil)
	}
	return nil
}

// FormArea returns the corners clockwise from the top-left.
func (c CornerSet) FormArea() []Point2D {
	return []Point2D{c.TopLeft, c.TopRight, c.BottomRight, c.BottomLeft}
}

// CropRect is the axis-aligned rectangle from the top-left corner to the
// furthest right and bottom extents of the other corners.
func (c CornerSet) CropRect() image.Rectangle {
	right := math.Max(c.TopRight.X, c.BottomRight.X)
	bottom := math.Max(c.BottomLeft.Y, c.BottomRight.Y)
	return image.Rect(int(c.TopLeft.X), int(c.TopLeft.Y), int(right), int(bottom))
}

// AssignCorners partitions exactly four markers into a CornerSet.
//
// The markers are split at the midpoint of their x range: those strictly left
// of it are the left pair, those strictly right are the right pair. Within a
// pair the smaller y is the top. Returns a geometry_not_found error when the
// count is not four, when the split is not two and two, or when a pair shares
// a y coordinate.
func AssignCorners(markers []FiducialMarker) (CornerSet, error) {
	if len(markers) != MarkerCount {
		return CornerSet{}, apperrors.NewGeometryNotFoundError(
			fmt.Sprintf("expected %d fiducials, found %d", MarkerCount, len(markers)), nil)
	}

	minX, maxX := markers[0].Center.X, markers[0].Center.X
	for _, m := range markers[1:] {
		minX = math.Min(minX, m.Center.X)
		maxX = math.Max(maxX, m.Center.X)
	}
	mid := minX + (maxX-minX)/2

	var left, right []Point2D
	for _, m := range markers {
		switch {
		case m.Center.X < mid:
			left = append(left, m.Center)
		case m.Center.X > mid:
			right = append(right, m.Center)
		}
	}
	if len(left) != 2 || len(right) != 2 {
		return CornerSet{}, apperrors.NewGeometryNotFoundError(
			fmt.Sprintf("fiducials split %d left / %d right of x=%.1f", len(left), len(right), mid), nil)
	}

	var corners CornerSet
	var ok bool
	if corners.TopLeft, corners.BottomLeft, ok = orderVertically(left[0], left[1]); !ok {
		return CornerSet{}, apperrors.NewGeometryNotFoundError("left fiducials share a row", nil)
	}
	if corners.TopRight, corners.BottomRight, ok = orderVertically(right[0], right[1]); !ok {
		return CornerSet{}, apperrors.NewGeometryNotFoundError("right fiducials share a row", nil)
	}

	return corners, corners.Validate()
}

// orderVertically returns (top, bottom); ok is false on a tie.
func orderVertically(a, b Point2D) (Point2D, Point2D, bool) {
	switch {
	case a.Y < b.Y:
		return a, b, true
	case b.Y < a.Y:
		return b, a, true
	default:
		return a, b, false
	}
}
