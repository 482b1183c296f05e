package detection

import (
	"fmt"
	"math"
)

// Point2D is a location in image pixel space.
type Point2D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (p Point2D) String() string {
	return fmt.Sprintf("(%.1f,%.1f)", p.X, p.Y)
}

// Distance returns the Euclidean distance between p and q.
func (p Point2D) Distance(q Point2D) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

// Bounds represents a rectangular bounding box in pixel coordinates.
//
// The coordinate convention follows standard image bounds:
//   - (X1, Y1) is the top-left corner (inclusive)
//   - (X2, Y2) is the bottom-right corner (exclusive)
type Bounds struct {
	X1 int `json:"x1"` // Left edge (inclusive)
	Y1 int `json:"y1"` // Top edge (inclusive)
	X2 int `json:"x2"` // Right edge
	Y2 int `json:"y2"` // Bottom edge
}

// Width is X2 - X1.
func (b Bounds) Width() int { return b.X2 - b.X1 }

// Height is Y2 - Y1.
func (b Bounds) Height() int { return b.Y2 - b.Y1 }

// SkewAngle returns the tilt of the sheet's top edge in degrees.
//
// The angle is the one-argument arctangent of the slope between the top-left
// and top-right corners: atan(dy/dx) * 180/pi. Positive values mean the right
// side sits lower than the left, i.e. the page is turned clockwise. For a
// validated CornerSet dx is always positive, where this equals the
// two-argument form.
func SkewAngle(c CornerSet) float64 {
	dy := c.TopRight.Y - c.TopLeft.Y
	dx := c.TopRight.X - c.TopLeft.X
	return math.Atan(dy/dx) * (180 / math.Pi)
}
