package barcode

import (
	"strings"

	apperrors "github.com/ironsheep/omr-sheet-mcp/internal/errors"
)

// MarkerPrefix starts every symbol the pipeline cares about.
const MarkerPrefix = "OMR:"

const separator = ":"

// Template sub-types.
const (
	SubTypeID       = "ID"
	SubTypeTemplate = "TL"
)

// TemplateIdentity names the answer template a sheet was printed from.
type TemplateIdentity struct {
	Name       string   `json:"name"`
	Parameters []string `json:"parameters"`
	SubType    string   `json:"sub_type"`
	Raw        string   `json:"raw"`
}

// IsMarker reports whether text carries the OMR marker prefix.
func IsMarker(text string) bool {
	return strings.HasPrefix(text, MarkerPrefix)
}

// ParseTemplate splits a marker symbol into a TemplateIdentity. It returns
// false for non-marker text, for sub-types other than ID and TL, and when the
// template name is missing.
func ParseTemplate(text string) (TemplateIdentity, bool) {
	if !IsMarker(text) {
		return TemplateIdentity{}, false
	}

	parts := strings.Split(text, separator)
	if len(parts) < 3 {
		return TemplateIdentity{}, false
	}
	switch parts[1] {
	case SubTypeID, SubTypeTemplate:
	default:
		return TemplateIdentity{}, false
	}
	if parts[2] == "" {
		return TemplateIdentity{}, false
	}

	params := make([]string, len(parts)-3)
	copy(params, parts[3:])

	return TemplateIdentity{
		Name:       parts[2],
		Parameters: params,
		SubType:    parts[1],
		Raw:        text,
	}, true
}

// MarkerCodes returns the text of every marker symbol in decode order.
func MarkerCodes(symbols []Symbol) []string {
	codes := make([]string, 0, len(symbols))
	for _, s := range symbols {
		if IsMarker(s.Text) {
			codes = append(codes, s.Text)
		}
	}
	return codes
}

// FindTemplate returns the identity from the first template marker symbol.
// Template markers without a name identify nothing and are passed over.
// A decode_absent error is returned when no symbol identifies a template.
func FindTemplate(symbols []Symbol) (TemplateIdentity, error) {
	for _, s := range symbols {
		if id, ok := ParseTemplate(s.Text); ok {
			return id, nil
		}
	}
	return TemplateIdentity{}, apperrors.NewDecodeAbsentError("no template marker symbol decoded", nil)
}
