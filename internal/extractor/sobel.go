package extractor

import (
	"image"
	"math"
)

// sobelGradient returns the Sobel gradient magnitude at (x, y) of a
// grayscale image, used both for card localization and the blur-score
// sharpness estimate.
func sobelGradient(img image.Image, x, y int) float64 {
	bounds := img.Bounds()
	get := func(dx, dy int) float64 {
		px := x + dx
		py := y + dy
		if px < bounds.Min.X {
			px = bounds.Min.X
		}
		if px >= bounds.Max.X {
			px = bounds.Max.X - 1
		}
		if py < bounds.Min.Y {
			py = bounds.Min.Y
		}
		if py >= bounds.Max.Y {
			py = bounds.Max.Y - 1
		}
		r, _, _, _ := img.At(px, py).RGBA()
		return float64(r >> 8)
	}

	gx := -get(-1, -1) - 2*get(-1, 0) - get(-1, 1) + get(1, -1) + 2*get(1, 0) + get(1, 1)
	gy := -get(-1, -1) - 2*get(0, -1) - get(1, -1) + get(-1, 1) + 2*get(0, 1) + get(1, 1)
	return math.Sqrt(gx*gx + gy*gy)
}

// sobelBoundingBox finds the smallest rectangle containing the
// strongest-gradient region of img, approximating a card's edges.
func sobelBoundingBox(img image.Image) (minX, minY, maxX, maxY int) {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	step := maxInt(1, w/200)

	var total, count float64
	gradients := make(map[[2]int]float64)
	for y := bounds.Min.Y; y < bounds.Max.Y; y += step {
		for x := bounds.Min.X; x < bounds.Max.X; x += step {
			g := sobelGradient(img, x, y)
			gradients[[2]int{x, y}] = g
			total += g
			count++
		}
	}
	if count == 0 {
		return bounds.Min.X, bounds.Min.Y, bounds.Max.X, bounds.Max.Y
	}
	threshold := (total / count) * 1.5

	minX, minY = bounds.Max.X, bounds.Max.Y
	maxX, maxY = bounds.Min.X, bounds.Min.Y
	found := false
	for pt, g := range gradients {
		if g < threshold {
			continue
		}
		found = true
		if pt[0] < minX {
			minX = pt[0]
		}
		if pt[0] > maxX {
			maxX = pt[0]
		}
		if pt[1] < minY {
			minY = pt[1]
		}
		if pt[1] > maxY {
			maxY = pt[1]
		}
	}
	if !found {
		return bounds.Min.X, bounds.Min.Y, bounds.Max.X, bounds.Max.Y
	}
	_ = h
	return minX, minY, maxX, maxY
}

// sobelSharpness averages gradient magnitude across a sparse sample of
// pixels and normalizes to [0,1] as a blur-score proxy (higher = sharper).
func sobelSharpness(img image.Image) float64 {
	bounds := img.Bounds()
	step := maxInt(1, bounds.Dx()/100)

	var total, count float64
	for y := bounds.Min.Y + step; y < bounds.Max.Y-step; y += step {
		for x := bounds.Min.X + step; x < bounds.Max.X-step; x += step {
			total += sobelGradient(img, x, y)
			count++
		}
	}
	if count == 0 {
		return 0
	}
	avg := total / count
	normalized := avg / 400.0
	if normalized > 1 {
		normalized = 1
	}
	return normalized
}
