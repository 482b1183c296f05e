package detection

import (
	"image"
)

// Blob is a connected group of foreground pixels.
type Blob struct {
	// Bounds is the bounding box of the blob in mask coordinates.
	Bounds Bounds `json:"bounds"`

	// Area is the number of pixels in the blob.
	Area int `json:"area"`

	// EdgePoints are the outermost pixels of each row (left and right) and of
	// each column (top and bottom). Used for shape fitting.
	EdgePoints []Point2D `json:"-"`
}

// FindBlobs extracts connected components from a binary mask.
//
// Parameters:
//   - mask: Binary mask where values above 127 are foreground.
//   - minWidth, minHeight: Minimum bounding box size. Blobs narrower than
//     minWidth or shorter than minHeight are discarded as speckle.
//
// Blobs are returned in raster order of their first pixel (top to bottom, left
// to right). Connectivity is 8-connected (includes diagonals).
func FindBlobs(mask *image.Gray, minWidth, minHeight int) []Blob {
	bounds := mask.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	foreground := make([]bool, width*height)
	for y := 0; y < height; y++ {
		row := mask.Pix[y*mask.Stride : y*mask.Stride+width]
		for x, v := range row {
			foreground[y*width+x] = v > 127
		}
	}

	visited := make([]bool, width*height)
	blobs := make([]Blob, 0)

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			idx := y*width + x
			if !foreground[idx] || visited[idx] {
				continue
			}
			pixels := floodFill(foreground, visited, x, y, width, height)
			blob := newBlob(pixels)
			if blob.Bounds.Width() < minWidth || blob.Bounds.Height() < minHeight {
				continue
			}
			blob.Bounds.X1 += bounds.Min.X
			blob.Bounds.X2 += bounds.Min.X
			blob.Bounds.Y1 += bounds.Min.Y
			blob.Bounds.Y2 += bounds.Min.Y
			for i := range blob.EdgePoints {
				blob.EdgePoints[i].X += float64(bounds.Min.X)
				blob.EdgePoints[i].Y += float64(bounds.Min.Y)
			}
			blobs = append(blobs, blob)
		}
	}

	return blobs
}

// floodFill performs iterative flood-fill from a starting point.
//
// Uses a stack-based approach (not recursive) to avoid stack overflow
// on large blobs. Marks visited pixels and returns them.
// Uses 8-connectivity (includes diagonal neighbors).
func floodFill(foreground, visited []bool, startX, startY, width, height int) []image.Point {
	pixels := make([]image.Point, 0, 64)
	stack := []image.Point{{X: startX, Y: startY}}

	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if p.X < 0 || p.X >= width || p.Y < 0 || p.Y >= height {
			continue
		}
		idx := p.Y*width + p.X
		if visited[idx] || !foreground[idx] {
			continue
		}

		visited[idx] = true
		pixels = append(pixels, p)

		// 8-connected neighbors
		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				if dx == 0 && dy == 0 {
					continue
				}
				stack = append(stack, image.Point{X: p.X + dx, Y: p.Y + dy})
			}
		}
	}

	return pixels
}

// newBlob computes bounds and edge points for a set of pixels.
func newBlob(pixels []image.Point) Blob {
	minX, minY := pixels[0].X, pixels[0].Y
	maxX, maxY := minX, minY
	for _, p := range pixels {
		if p.X < minX {
			minX = p.X
		}
		if p.X > maxX {
			maxX = p.X
		}
		if p.Y < minY {
			minY = p.Y
		}
		if p.Y > maxY {
			maxY = p.Y
		}
	}

	w := maxX - minX + 1
	h := maxY - minY + 1

	// Per-row horizontal extremes and per-column vertical extremes
	rowMin := make([]int, h)
	rowMax := make([]int, h)
	colMin := make([]int, w)
	colMax := make([]int, w)
	for i := range rowMin {
		rowMin[i], rowMax[i] = -1, -1
	}
	for i := range colMin {
		colMin[i], colMax[i] = -1, -1
	}
	for _, p := range pixels {
		ry, cx := p.Y-minY, p.X-minX
		if rowMin[ry] < 0 || p.X < rowMin[ry] {
			rowMin[ry] = p.X
		}
		if p.X > rowMax[ry] {
			rowMax[ry] = p.X
		}
		if colMin[cx] < 0 || p.Y < colMin[cx] {
			colMin[cx] = p.Y
		}
		if p.Y > colMax[cx] {
			colMax[cx] = p.Y
		}
	}

	edges := make([]Point2D, 0, 2*(w+h))
	for ry := 0; ry < h; ry++ {
		if rowMin[ry] < 0 {
			continue
		}
		y := float64(ry + minY)
		edges = append(edges, Point2D{X: float64(rowMin[ry]), Y: y})
		if rowMax[ry] != rowMin[ry] {
			edges = append(edges, Point2D{X: float64(rowMax[ry]), Y: y})
		}
	}
	for cx := 0; cx < w; cx++ {
		if colMin[cx] < 0 {
			continue
		}
		x := float64(cx + minX)
		edges = append(edges, Point2D{X: x, Y: float64(colMin[cx])})
		if colMax[cx] != colMin[cx] {
			edges = append(edges, Point2D{X: x, Y: float64(colMax[cx])})
		}
	}

	return Blob{
		Bounds:     Bounds{X1: minX, Y1: minY, X2: maxX + 1, Y2: maxY + 1},
		Area:       len(pixels),
		EdgePoints: edges,
	}
}
