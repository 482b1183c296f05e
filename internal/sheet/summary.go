package sheet

import (
	"github.com/ironsheep/omr-sheet-mcp/internal/barcode"
	"github.com/ironsheep/omr-sheet-mcp/internal/detection"
	"github.com/ironsheep/omr-sheet-mcp/internal/imaging"
)

// Summary is a JSON-friendly snapshot of a Sheet.
type Summary struct {
	Name      string `json:"name"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	Analyzed  bool   `json:"analyzed"`
	Scannable bool   `json:"scannable"`
	Rectified bool   `json:"rectified"`
	Reason    string `json:"reason,omitempty"`

	Corners         *detection.CornerSet       `json:"corners,omitempty"`
	FormArea        []detection.Point2D        `json:"form_area,omitempty"`
	Markers         []detection.FiducialMarker `json:"markers"`
	RadiusThreshold int                        `json:"radius_threshold"`
	SweepPasses     int                        `json:"sweep_passes"`
	SkewAngle       float64                    `json:"skew_angle"`

	Template       *barcode.TemplateIdentity `json:"template,omitempty"`
	TemplateSource string                    `json:"template_source,omitempty"`
	MarkerCodes    []string                  `json:"marker_codes"`

	Contrast imaging.ContrastReport `json:"contrast"`
}

// Summarize captures the current state of s. Width and Height are zero once
// the sheet is closed.
func (s *Sheet) Summarize() Summary {
	sum := Summary{
		Name:            s.name,
		Analyzed:        s.analyzed,
		Scannable:       s.scannable,
		Rectified:       s.rectified,
		Markers:         s.detection.Markers,
		RadiusThreshold: s.detection.RadiusThreshold,
		SweepPasses:     s.detection.Passes,
		SkewAngle:       s.skew,
		Template:        s.template,
		TemplateSource:  s.templateSource,
		MarkerCodes:     s.MarkerCodes(),
		Contrast:        s.contrast,
	}
	if sum.Markers == nil {
		sum.Markers = []detection.FiducialMarker{}
	}
	if s.reason != nil {
		sum.Reason = s.reason.Error()
	}
	if w, h, err := s.raster.Size(); err == nil {
		sum.Width, sum.Height = w, h
	}
	if corners, err := s.Corners(); err == nil {
		sum.Corners = &corners
		sum.FormArea = corners.FormArea()
	}
	return sum
}
