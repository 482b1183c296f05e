package sheet

import (
	"image"

	"github.com/sirupsen/logrus"

	"github.com/ironsheep/omr-sheet-mcp/internal/barcode"
	"github.com/ironsheep/omr-sheet-mcp/internal/config"
	"github.com/ironsheep/omr-sheet-mcp/internal/detection"
	apperrors "github.com/ironsheep/omr-sheet-mcp/internal/errors"
	"github.com/ironsheep/omr-sheet-mcp/internal/imaging"
	"github.com/ironsheep/omr-sheet-mcp/internal/logger"
	"github.com/ironsheep/omr-sheet-mcp/internal/ocr"
)

// BarcodeReader decodes every barcode symbol on a page.
type BarcodeReader interface {
	DecodeAll(img image.Image, thorough bool) ([]barcode.Symbol, error)
}

// LabelReader recognises printed template labels.
type LabelReader interface {
	ReadLabels(img image.Image) ([]ocr.Label, error)
}

// Template sources.
const (
	SourceBarcode = "barcode"
	SourceLabel   = "label"
)

// Pipeline bundles the collaborators shared by all sheets. It is safe for
// concurrent use as long as its collaborators are.
type Pipeline struct {
	Locator detection.Locator
	Decoder BarcodeReader

	// Labels is consulted only when no template barcode decodes. Nil
	// disables the OCR fallback.
	Labels LabelReader

	// Thorough is the default effort passed to the decoder.
	Thorough bool
}

// NewPipeline builds a Pipeline from configuration.
func NewPipeline(cfg *config.Config) (*Pipeline, error) {
	sweep := detection.SweepConfig{
		Threshold:     cfg.Threshold,
		MinBlobWidth:  cfg.MinBlobSize,
		MinBlobHeight: cfg.MinBlobSize,
		RadiusMax:     cfg.RadiusMax,
		RadiusMin:     cfg.RadiusMin,
	}

	p := &Pipeline{
		Decoder:  barcode.NewDecoder(),
		Thorough: cfg.Thorough,
	}

	switch cfg.FiducialBackend {
	case "hough":
		locator, err := detection.NewHoughLocator(sweep)
		if err != nil {
			return nil, err
		}
		p.Locator = locator
	default:
		locator, err := detection.NewDetector(sweep)
		if err != nil {
			return nil, err
		}
		p.Locator = locator
	}

	if cfg.OCRFallback {
		p.Labels = ocr.NewReader(cfg.OCRLanguage)
	}

	return p, nil
}

// analysis is the result of one pass over an image. It is committed to a
// Sheet only once the caller decides to keep it.
type analysis struct {
	symbols        []barcode.Symbol
	template       *barcode.TemplateIdentity
	templateSource string

	detection detection.Detection
	corners   detection.CornerSet
	scannable bool
	reason    error

	contrast imaging.ContrastReport
}

// analyze runs barcode decoding and fiducial detection on img.
func (p *Pipeline) analyze(name string, img image.Image, thorough bool) (*analysis, error) {
	a := &analysis{}
	log := logger.WithField("sheet", name)

	symbols, err := p.Decoder.DecodeAll(img, thorough)
	if err != nil {
		return nil, err
	}
	a.symbols = symbols

	det, err := p.Locator.Locate(img)
	if err != nil {
		return nil, err
	}
	a.detection = det

	log.WithFields(logrus.Fields{
		"threshold": det.RadiusThreshold,
		"passes":    det.Passes,
		"circles":   det.Circles,
		"markers":   len(det.Markers),
	}).Debug("Fiducial sweep finished")

	if !det.Found() {
		a.reason = apperrors.NewGeometryNotFoundError("fiducial sweep did not settle on four markers", nil)
	} else if corners, err := detection.AssignCorners(det.Markers); err != nil {
		a.reason = err
	} else {
		a.corners = corners
		a.scannable = true
	}

	// the template is only resolved for a sheet that can be rectified
	if a.scannable {
		p.resolveTemplate(a, name, img)
	}

	a.contrast = contrastOf(img, det.Markers)
	return a, nil
}

// resolveTemplate fills in the template from the decoded symbols, falling
// back to the printed label when a label reader is configured.
func (p *Pipeline) resolveTemplate(a *analysis, name string, img image.Image) {
	if id, err := barcode.FindTemplate(a.symbols); err == nil {
		a.template = &id
		a.templateSource = SourceBarcode
		return
	}
	if p.Labels == nil {
		return
	}
	if a.template = p.readLabel(name, img); a.template != nil {
		a.templateSource = SourceLabel
	}
}

// readLabel returns the first template label recognised on img, or nil.
// OCR errors are logged and treated as no label.
func (p *Pipeline) readLabel(name string, img image.Image) *barcode.TemplateIdentity {
	labels, err := p.Labels.ReadLabels(img)
	if err != nil {
		logger.WithError(err).WithField("sheet", name).Warn("Template label OCR failed")
		return nil
	}
	for _, l := range labels {
		if id, ok := barcode.ParseTemplate(l.Text); ok {
			return &id
		}
	}
	return nil
}

// contrastOf samples paper lightness on a coarse grid and ink lightness in
// the inner square of each marker.
func contrastOf(img image.Image, markers []detection.FiducialMarker) imaging.ContrastReport {
	inks := make([]float64, 0, len(markers))
	for _, m := range markers {
		half := m.Radius / 2
		rect := image.Rect(
			int(m.Center.X-half), int(m.Center.Y-half),
			int(m.Center.X+half)+1, int(m.Center.Y+half)+1,
		)
		inks = append(inks, imaging.MeanLightness(img, rect, 2))
	}
	return imaging.NewContrastReport(imaging.PaperLightness(img, 8), inks)
}
