package detection

import (
	"image"
	"image/color"
)

// createTestImage creates a solid color test image
func createTestImage(width, height int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

// fillDisk paints a filled circle
func fillDisk(img *image.RGBA, cx, cy, radius int) {
	for y := cy - radius; y <= cy+radius; y++ {
		for x := cx - radius; x <= cx+radius; x++ {
			dx, dy := x-cx, y-cy
			if dx*dx+dy*dy <= radius*radius {
				img.Set(x, y, color.Black)
			}
		}
	}
}

// fillSquare paints a filled square centered on (cx, cy)
func fillSquare(img *image.RGBA, cx, cy, half int) {
	for y := cy - half; y <= cy+half; y++ {
		for x := cx - half; x <= cx+half; x++ {
			img.Set(x, y, color.Black)
		}
	}
}

// createSheet draws disks of the given radius on a white page
func createSheet(width, height, radius int, centers ...image.Point) *image.RGBA {
	img := createTestImage(width, height, color.White)
	for _, c := range centers {
		fillDisk(img, c.X, c.Y, radius)
	}
	return img
}

func markersAt(points ...Point2D) []FiducialMarker {
	markers := make([]FiducialMarker, len(points))
	for i, p := range points {
		markers[i] = FiducialMarker{Center: p, Radius: 45}
	}
	return markers
}
