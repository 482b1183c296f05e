package sheet

import (
	"image"
	"math"
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/ironsheep/omr-sheet-mcp/internal/barcode"
	"github.com/ironsheep/omr-sheet-mcp/internal/detection"
	apperrors "github.com/ironsheep/omr-sheet-mcp/internal/errors"
	"github.com/ironsheep/omr-sheet-mcp/internal/imaging"
	"github.com/ironsheep/omr-sheet-mcp/internal/logger"
)

// Sheet is one scanned page and everything learned about it so far.
type Sheet struct {
	name     string
	pipeline *Pipeline
	raster   *imaging.Raster
	thorough bool

	symbols        []barcode.Symbol
	template       *barcode.TemplateIdentity
	templateSource string

	detection detection.Detection
	corners   detection.CornerSet
	skew      float64
	contrast  imaging.ContrastReport
	reason    error

	analyzed  bool
	scannable bool
	rectified bool
	closed    bool
}

// NewSheet copies img into a new Sheet. The caller keeps ownership of img.
func (p *Pipeline) NewSheet(name string, img image.Image) *Sheet {
	return &Sheet{
		name:     name,
		pipeline: p,
		raster:   imaging.NewRaster(img),
		thorough: p.Thorough,
	}
}

// Name returns the label given at creation.
func (s *Sheet) Name() string { return s.name }

// Analyzed reports whether the current image has been analyzed.
func (s *Sheet) Analyzed() bool { return s.analyzed }

// Scannable reports whether four fiducials were assigned to corners.
func (s *Sheet) Scannable() bool { return s.scannable }

// Rectified reports whether the working image has been deskewed and cropped.
func (s *Sheet) Rectified() bool { return s.rectified }

// Reason explains why the sheet is not scannable, or nil.
func (s *Sheet) Reason() error { return s.reason }

// SkewAngle is the angle in degrees removed by Rectify.
func (s *Sheet) SkewAngle() float64 { return s.skew }

// Template returns the template identity, or nil when none was decoded.
func (s *Sheet) Template() *barcode.TemplateIdentity { return s.template }

// TemplateSource tells whether the template came from the barcode or the
// printed label. Empty when there is no template.
func (s *Sheet) TemplateSource() string { return s.templateSource }

// MarkerCodes returns every decoded "OMR:" symbol.
func (s *Sheet) MarkerCodes() []string { return barcode.MarkerCodes(s.symbols) }

// Symbols returns every decoded barcode.
func (s *Sheet) Symbols() []barcode.Symbol { return s.symbols }

// Detection returns the result of the last fiducial sweep.
func (s *Sheet) Detection() detection.Detection { return s.detection }

// Contrast returns the paper and ink lightness of the current image.
func (s *Sheet) Contrast() imaging.ContrastReport { return s.contrast }

// Corners returns the corner assignment of a scannable sheet.
func (s *Sheet) Corners() (detection.CornerSet, error) {
	if err := s.checkOpen(); err != nil {
		return detection.CornerSet{}, err
	}
	if !s.scannable {
		return detection.CornerSet{}, s.notScannable()
	}
	return s.corners, nil
}

// FormArea returns the corners clockwise from the top-left.
func (s *Sheet) FormArea() ([]detection.Point2D, error) {
	corners, err := s.Corners()
	if err != nil {
		return nil, err
	}
	return corners.FormArea(), nil
}

// Image returns the working image. The Sheet keeps ownership; the buffer is
// invalid after Rectify or Close.
func (s *Sheet) Image() (*image.NRGBA, error) {
	return s.raster.Image()
}

// Grayscale returns a grayscale copy of a scannable sheet's working image.
func (s *Sheet) Grayscale() (*image.Gray, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	if !s.scannable {
		return nil, s.notScannable()
	}
	img, err := s.raster.Image()
	if err != nil {
		return nil, err
	}
	return imaging.Grayscale(img), nil
}

// Preview returns a scaled copy of the working image.
func (s *Sheet) Preview(scale float64) (*image.NRGBA, error) {
	img, err := s.raster.Image()
	if err != nil {
		return nil, err
	}
	return imaging.Preview(img, scale), nil
}

// Overlay draws the detected fiducials, numbered in detection order, and
// the form area outline when the sheet is scannable.
func (s *Sheet) Overlay(colorHex string) (*image.RGBA, error) {
	img, err := s.raster.Image()
	if err != nil {
		return nil, err
	}

	marks := make([]imaging.Mark, 0, len(s.detection.Markers))
	for i, m := range s.detection.Markers {
		marks = append(marks, imaging.Mark{
			X:      m.Center.X,
			Y:      m.Center.Y,
			Radius: m.Radius,
			Label:  strconv.Itoa(i + 1),
		})
	}

	var outline []image.Point
	if area, err := s.FormArea(); err == nil {
		for _, p := range area {
			outline = append(outline, image.Pt(int(math.Round(p.X)), int(math.Round(p.Y))))
		}
	}
	return imaging.Overlay(img, marks, outline, colorHex), nil
}

// Analyze decodes the barcode and locates the fiducials. It does nothing when
// the current image is already analyzed. Not finding four fiducials leaves
// the sheet not scannable without returning an error.
func (s *Sheet) Analyze(thorough bool) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	if s.analyzed {
		return nil
	}

	img, err := s.raster.Image()
	if err != nil {
		return err
	}
	s.thorough = thorough

	a, err := s.pipeline.analyze(s.name, img, thorough)
	if err != nil {
		return err
	}
	s.commit(a, image.Point{})

	logger.WithFields(logrus.Fields{
		"sheet":     s.name,
		"scannable": s.scannable,
		"template":  s.templateName(),
	}).Debug("Sheet analyzed")

	return nil
}

// Rectify rotates the sheet upright, analyzes it again and crops it to the
// fiducial rectangle. The new image replaces the old one only when the second
// analysis finds all four fiducials; otherwise the sheet becomes not
// scannable, keeps its image and the detection made on it, and a
// rectification_aborted error is returned.
//
// Rectify analyzes the sheet first when needed and does nothing on a sheet
// that is already rectified.
func (s *Sheet) Rectify() error {
	if err := s.Analyze(s.thorough); err != nil {
		return err
	}
	if s.rectified {
		return nil
	}
	if !s.scannable {
		return apperrors.NewRectificationError("sheet is not scannable", s.reason)
	}

	img, err := s.raster.Image()
	if err != nil {
		return err
	}

	angle := detection.SkewAngle(s.corners)
	rotated := imaging.Rotate(img, -angle)
	s.analyzed = false

	log := logger.WithFields(logrus.Fields{"sheet": s.name, "angle": angle})
	log.Debug("Sheet rotated")

	a, err := s.pipeline.analyze(s.name, rotated, s.thorough)
	if err != nil {
		return err
	}
	s.analyzed = true

	if !a.scannable {
		s.scannable = false
		s.corners = detection.CornerSet{}
		s.reason = a.reason
		log.WithError(a.reason).Info("Fiducials lost after rotation")
		return apperrors.NewRectificationError("fiducials not found after rotation", a.reason)
	}

	rect := a.corners.CropRect()
	cropped, err := imaging.CropOnWhite(rotated, rect)
	if err != nil {
		s.scannable = false
		s.reason = apperrors.NewGeometryNotFoundError("fiducial rectangle is empty", err)
		return apperrors.NewRectificationError("cannot crop to fiducial rectangle", err)
	}

	if err := s.raster.Release(); err != nil {
		return err
	}
	s.raster = imaging.Adopt(cropped)
	s.commit(a, rect.Min)
	s.skew = angle
	s.rectified = true

	log.WithField("size", cropped.Bounds().Size().String()).Debug("Sheet rectified")
	return nil
}

// Close releases the pixel buffer. Closing twice is resource misuse.
func (s *Sheet) Close() error {
	if s.closed {
		return apperrors.NewResourceMisuseError("sheet closed twice", nil)
	}
	s.closed = true
	return s.raster.Release()
}

// Closed reports whether Close has been called.
func (s *Sheet) Closed() bool { return s.closed }

// commit stores a into the sheet. Geometry is translated by -origin so it
// matches an image cropped at origin. Symbols and template from an earlier
// pass are kept when a found none.
func (s *Sheet) commit(a *analysis, origin image.Point) {
	s.analyzed = true
	if len(a.symbols) > 0 {
		s.symbols = a.symbols
	}
	if a.template != nil {
		s.template = a.template
		s.templateSource = a.templateSource
	}

	s.detection = shiftDetection(a.detection, origin)
	s.scannable = a.scannable
	s.reason = a.reason
	s.contrast = a.contrast
	if a.scannable {
		s.corners = shiftCorners(a.corners, origin)
	} else {
		s.corners = detection.CornerSet{}
	}
}

func (s *Sheet) checkOpen() error {
	if s.closed {
		return apperrors.NewResourceMisuseError("sheet used after close", nil)
	}
	return nil
}

func (s *Sheet) notScannable() error {
	if s.reason != nil {
		return s.reason
	}
	return apperrors.NewGeometryNotFoundError("sheet is not scannable", nil)
}

func (s *Sheet) templateName() string {
	if s.template == nil {
		return ""
	}
	return s.template.Name
}

func shiftPoint(p detection.Point2D, origin image.Point) detection.Point2D {
	return detection.Point2D{X: p.X - float64(origin.X), Y: p.Y - float64(origin.Y)}
}

func shiftCorners(c detection.CornerSet, origin image.Point) detection.CornerSet {
	return detection.CornerSet{
		TopLeft:     shiftPoint(c.TopLeft, origin),
		TopRight:    shiftPoint(c.TopRight, origin),
		BottomLeft:  shiftPoint(c.BottomLeft, origin),
		BottomRight: shiftPoint(c.BottomRight, origin),
	}
}

func shiftDetection(d detection.Detection, origin image.Point) detection.Detection {
	if origin == (image.Point{}) {
		return d
	}
	markers := make([]detection.FiducialMarker, len(d.Markers))
	for i, m := range d.Markers {
		m.Center = shiftPoint(m.Center, origin)
		m.Bounds.X1 -= origin.X
		m.Bounds.X2 -= origin.X
		m.Bounds.Y1 -= origin.Y
		m.Bounds.Y2 -= origin.Y
		markers[i] = m
	}
	d.Markers = markers
	return d
}
