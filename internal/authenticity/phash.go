// Package authenticity implements the Authenticity Scorer stage:
// perceptual hashing, the five confidence signals, and the LLM-backed
// final judgment with its weighted-average fallback. The DCT-based
// phash is grounded on the same disintegration/imaging resize/grayscale
// primitives the teacher's internal/processor package uses for image
// preprocessing, extended with a 2D DCT the teacher has no equivalent
// of.
package authenticity

import (
	"fmt"
	"image"
	"math"
	"sort"

	"github.com/disintegration/imaging"
)

const phashSize = 32
const dctBlock = 8

// PerceptualHash resizes img to 32x32 grayscale, applies a 2D DCT, and
// thresholds the top-left 8x8 AC coefficients (excluding DC) against
// their median, emitting a 16-hex-character 64-bit hash, per spec.md
// §4.4.
func PerceptualHash(img image.Image) string {
	small := imaging.Resize(imaging.Grayscale(img), phashSize, phashSize, imaging.Lanczos)

	pixels := make([][]float64, phashSize)
	for y := 0; y < phashSize; y++ {
		pixels[y] = make([]float64, phashSize)
		for x := 0; x < phashSize; x++ {
			r, _, _, _ := small.At(x, y).RGBA()
			pixels[y][x] = float64(r >> 8)
		}
	}

	dct := dct2D(pixels)

	coeffs := make([]float64, 0, dctBlock*dctBlock-1)
	for y := 0; y < dctBlock; y++ {
		for x := 0; x < dctBlock; x++ {
			if x == 0 && y == 0 {
				continue // exclude DC term
			}
			coeffs = append(coeffs, dct[y][x])
		}
	}

	median := medianOf(coeffs)

	var hash uint64
	for i, c := range coeffs {
		if c > median {
			hash |= 1 << uint(i)
		}
	}
	return fmt.Sprintf("%016x", hash)
}

// dct2D applies a separable 2D Discrete Cosine Transform (type II) to
// pixels, returning the full NxN coefficient matrix.
func dct2D(pixels [][]float64) [][]float64 {
	n := len(pixels)
	out := make([][]float64, n)
	for i := range out {
		out[i] = make([]float64, n)
	}

	for u := 0; u < n; u++ {
		for v := 0; v < n; v++ {
			var sum float64
			for x := 0; x < n; x++ {
				for y := 0; y < n; y++ {
					sum += pixels[x][y] *
						math.Cos(math.Pi/float64(n)*(float64(x)+0.5)*float64(u)) *
						math.Cos(math.Pi/float64(n)*(float64(y)+0.5)*float64(v))
				}
			}
			cu := alpha(u, n)
			cv := alpha(v, n)
			out[u][v] = cu * cv * sum
		}
	}
	return out
}

func alpha(k, n int) float64 {
	if k == 0 {
		return math.Sqrt(1.0 / float64(n))
	}
	return math.Sqrt(2.0 / float64(n))
}

func medianOf(values []float64) float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}

// HammingDistance counts differing bits between two 16-hex-character
// hashes, returning -1 if either is malformed.
func HammingDistance(a, b string) int {
	var ai, bi uint64
	if _, err := fmt.Sscanf(a, "%016x", &ai); err != nil {
		return -1
	}
	if _, err := fmt.Sscanf(b, "%016x", &bi); err != nil {
		return -1
	}
	x := ai ^ bi
	count := 0
	for x != 0 {
		count++
		x &= x - 1
	}
	return count
}
