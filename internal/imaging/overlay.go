package imaging

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"
	"strconv"
)

// DefaultOverlayColor is used when no color or an invalid one is given.
var DefaultOverlayColor = color.RGBA{255, 0, 0, 255}

// Mark is a circle drawn by Overlay, with an optional numeric label.
type Mark struct {
	X, Y   float64
	Radius float64
	Label  string
}

// Overlay copies img and draws each mark as a circle outline and the
// outline as a closed polygon. Labels use a small built-in digit font.
func Overlay(img image.Image, marks []Mark, outline []image.Point, colorHex string) *image.RGBA {
	c, err := parseHexColor(colorHex)
	if err != nil {
		c = DefaultOverlayColor
	}

	bounds := img.Bounds()
	result := image.NewRGBA(bounds)
	draw.Draw(result, bounds, img, bounds.Min, draw.Src)

	for i := range outline {
		next := outline[(i+1)%len(outline)]
		drawLine(result, outline[i], next, c)
	}

	labelColor := color.RGBA{255, 255, 255, 255}
	for _, m := range marks {
		drawCircle(result, m.X, m.Y, m.Radius, c)
		if m.Label != "" {
			drawLabel(result, int(m.X)+2, int(m.Y)+2, m.Label, labelColor, c)
		}
	}
	return result
}

func drawCircle(img *image.RGBA, cx, cy, r float64, c color.RGBA) {
	if r <= 0 {
		return
	}
	steps := int(2*math.Pi*r) + 1
	for i := 0; i < steps; i++ {
		a := 2 * math.Pi * float64(i) / float64(steps)
		img.Set(int(math.Round(cx+r*math.Cos(a))), int(math.Round(cy+r*math.Sin(a))), c)
	}
}

func drawLine(img *image.RGBA, from, to image.Point, c color.RGBA) {
	dx, dy := to.X-from.X, to.Y-from.Y
	steps := max(abs(dx), abs(dy))
	if steps == 0 {
		img.Set(from.X, from.Y, c)
		return
	}
	for i := 0; i <= steps; i++ {
		x := from.X + int(math.Round(float64(dx*i)/float64(steps)))
		y := from.Y + int(math.Round(float64(dy*i)/float64(steps)))
		img.Set(x, y, c)
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// parseHexColor parses a hex color string like "#FF0000" or "#FF000080"
func parseHexColor(hex string) (color.RGBA, error) {
	if len(hex) == 0 {
		return color.RGBA{}, fmt.Errorf("empty color string")
	}
	if hex[0] == '#' {
		hex = hex[1:]
	}

	var r, g, b, a uint8 = 0, 0, 0, 255

	switch len(hex) {
	case 6:
		val, err := strconv.ParseUint(hex, 16, 32)
		if err != nil {
			return color.RGBA{}, err
		}
		r = uint8(val >> 16)
		g = uint8(val >> 8)
		b = uint8(val)
	case 8:
		val, err := strconv.ParseUint(hex, 16, 32)
		if err != nil {
			return color.RGBA{}, err
		}
		r = uint8(val >> 24)
		g = uint8(val >> 16)
		b = uint8(val >> 8)
		a = uint8(val)
	default:
		return color.RGBA{}, fmt.Errorf("invalid hex color length")
	}

	return color.RGBA{R: r, G: g, B: b, A: a}, nil
}

// digits is a 3x5 pixel font
var digits = map[rune][]string{
	'0': {"111", "101", "101", "101", "111"},
	'1': {"010", "110", "010", "010", "111"},
	'2': {"111", "001", "111", "100", "111"},
	'3': {"111", "001", "111", "001", "111"},
	'4': {"101", "101", "111", "001", "001"},
	'5': {"111", "100", "111", "001", "111"},
	'6': {"111", "100", "111", "101", "111"},
	'7': {"111", "001", "001", "001", "001"},
	'8': {"111", "101", "111", "101", "111"},
	'9': {"111", "101", "111", "001", "111"},
}

// drawLabel draws text on a filled background box. Characters outside the
// font advance the cursor without drawing.
func drawLabel(img *image.RGBA, x, y int, text string, fg, bg color.RGBA) {
	bounds := img.Bounds()
	const charWidth, labelHeight = 4, 7

	for dy := -1; dy < labelHeight; dy++ {
		for dx := -1; dx < len(text)*charWidth; dx++ {
			if p := (image.Point{X: x + dx, Y: y + dy}); p.In(bounds) {
				img.Set(p.X, p.Y, bg)
			}
		}
	}

	cx := x
	for _, ch := range text {
		for row, line := range digits[ch] {
			for col, pixel := range line {
				if p := (image.Point{X: cx + col, Y: y + row}); pixel == '1' && p.In(bounds) {
					img.Set(p.X, p.Y, fg)
				}
			}
		}
		cx += charWidth
	}
}
