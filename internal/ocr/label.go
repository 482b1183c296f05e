package ocr

import (
	"image"
	"regexp"
	"strings"
)

// DefaultLanguage is the Tesseract language used when none is configured.
const DefaultLanguage = "eng"

// Label is a marker line recognised in printed text.
type Label struct {
	// Text is the normalized label, e.g. "OMR:ID:ENGLISH101:P1".
	Text string `json:"text"`

	// Confidence is the OCR confidence score (0.0 to 1.0), zero when the
	// engine did not report one for the line.
	Confidence float64 `json:"confidence"`

	// Bounds is the text line box in source image coordinates.
	Bounds image.Rectangle `json:"bounds"`
}

// Tesseract tends to add spaces around colons; they are tolerated here and
// removed by normalizeLabel.
var labelPattern = regexp.MustCompile(`OMR\s*:\s*(?:ID|TL)\s*:\s*[A-Za-z0-9_.\-]+(?:\s*:\s*[A-Za-z0-9_.\-]*)*`)

var spaceAroundColon = regexp.MustCompile(`\s*:\s*`)

// ParseLabels extracts every template label from OCR output in reading order.
func ParseLabels(text string) []string {
	matches := labelPattern.FindAllString(text, -1)
	labels := make([]string, 0, len(matches))
	for _, m := range matches {
		labels = append(labels, normalizeLabel(m))
	}
	return labels
}

func normalizeLabel(s string) string {
	s = spaceAroundColon.ReplaceAllString(strings.TrimSpace(s), ":")
	return strings.TrimRight(s, ":")
}

// Reader performs label OCR with a fixed language.
type Reader struct {
	language string
}

// NewReader creates a Reader. An empty language selects DefaultLanguage.
func NewReader(language string) *Reader {
	if language == "" {
		language = DefaultLanguage
	}
	return &Reader{language: language}
}

// Language returns the Tesseract language code.
func (r *Reader) Language() string {
	return r.language
}
