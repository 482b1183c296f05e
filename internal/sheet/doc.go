// Package sheet holds the per-page state of a scanned answer sheet and the
// pipeline that analyzes and rectifies it.
//
// A Sheet moves through create → Analyze → Rectify → Close. Analyze decodes
// the template barcode, binarizes the page and looks for the four corner
// fiducials. Rectify measures the skew of the top edge, rotates the page
// upright on an enlarged white canvas, analyzes the rotated page again and
// crops it to the fiducial rectangle.
//
// Failing to find the fiducials or the barcode is sheet state, reported by
// Scannable, Reason and Template. Methods only return errors for faults:
// use after Close, or a rectification that could not commit.
//
// A Sheet owns its pixel buffer and is not safe for concurrent use.
package sheet
