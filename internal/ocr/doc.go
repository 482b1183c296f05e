// Package ocr reads the human-readable "OMR:" label printed next to the
// template barcode, using Tesseract through gosseract/v2.
//
// The label is a fallback for sheets where the barcode is damaged or
// smudged: the pipeline only consults it when no template symbol decodes.
//
// # Prerequisites
//
// Tesseract and its language data must be installed on the system:
//   - Ubuntu/Debian: apt-get install tesseract-ocr tesseract-ocr-eng
//   - macOS: brew install tesseract
//
// Builds without cgo get a Reader whose ReadLabels always fails; the
// label parsing helpers work everywhere.
package ocr
