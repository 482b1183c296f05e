// Package imaging provides the raster primitives used by the sheet pipeline.
//
// This package owns the pixel-level work that the rest of the system builds on:
// decoding scanner output, normalizing it into an owned 24-bit RGB buffer,
// binarizing it for shape search, rotating and cropping it during
// rectification, and measuring print contrast.
//
// # Coordinate System
//
// All pixel coordinates in this package are 0-based:
//   - X: horizontal position (0 = leftmost pixel)
//   - Y: vertical position (0 = topmost pixel)
//   - For regions, Min is inclusive and Max is exclusive
//
// Rasters produced by this package always have their bounds anchored at (0,0).
//
// # Ownership
//
// A Raster is owned by exactly one holder at a time. Release marks the buffer as
// gone; any later access through the Raster reports a resource_misuse error
// rather than silently returning stale pixels. Functions that take a plain
// image.Image never retain it.
//
// # Thread Safety
//
// The ImageCache type is safe for concurrent use. The remaining functions are
// stateless and can be called concurrently on different images. A Raster is not
// synchronized; it must not be shared between goroutines without handing over
// ownership.
//
// # Binarization
//
// Binarize follows the classic fixed-threshold pipeline:
//
//  1. Grayscale conversion (bild effect.Grayscale)
//  2. Threshold at a near-white cutoff (bild segment.Threshold)
//  3. Inversion so that print becomes foreground (bild effect.Invert)
//
// The threshold is not adaptive. The default of 240 keeps typical print on white
// stock while discarding light scanner noise.
//
// # Rotation and Cropping
//
// Rotate expands the canvas so that nothing is clipped and paints the exposed
// corners white, so that later binarization does not mistake them for ink.
// CropOnWhite copies a region onto a white canvas of the requested size; any
// part of the region outside the source stays white.
//
// Overlay draws detected markers and the form outline on a copy of a page for
// visual inspection.
package imaging
