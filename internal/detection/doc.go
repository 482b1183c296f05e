// Package detection locates the fiducial markers of an answer sheet and derives
// the sheet geometry from them.
//
// # Pipeline
//
// The default locator follows a fixed pipeline:
//
//  1. Binarization: the page is reduced to an inverted two-level mask so that
//     print is foreground (see imaging.Binarize)
//  2. Blob extraction: 8-connected flood fill groups foreground pixels; blobs
//     smaller than the minimum bounding box are dropped as scanner speckle
//  3. Circle check: the edge points of each blob are fitted to a circle and the
//     mean deviation from that circle is compared to a tolerance
//  4. Radius sweep: circles are accepted only when their radius reaches the
//     current threshold; the threshold steps down from RadiusMax to RadiusMin
//     until exactly four markers qualify
//
// The sweep is bounded: it makes at most RadiusMax-RadiusMin+1 passes over the
// same candidate list. More or fewer than four markers at every threshold is a
// detection failure. No tie-break is attempted when stray circular blobs exceed
// the threshold.
//
// # Corner Assignment
//
// AssignCorners splits four markers at the horizontal midpoint of their x range
// and orders each side by y. The split fails, and is reported as
// geometry_not_found, when the markers do not fall two per side or when two
// markers on one side share a y coordinate. Markers sitting close to the
// midline are the documented failure mode of this heuristic.
//
// # Coordinate System
//
// All coordinates use the standard image convention:
//   - Origin (0, 0) at top-left corner
//   - X increases rightward
//   - Y increases downward
//   - Bounding boxes use inclusive top-left and exclusive bottom-right
//
// # Alternative Locator
//
// Building with the gocv tag enables HoughLocator, which finds circles with
// OpenCV's Hough gradient method and applies the same radius sweep. Without the
// tag HoughLocator reports that it is unavailable.
package detection
