//go:build !gocv

package imaging

import (
	"fmt"
	"math"
)

// adaptiveThreshold binarizes src using the mean of a block×block
// neighbourhood with replicated borders. A pixel becomes 255 when it
// exceeds the rounded local mean by more than -c, else 0. This matches
// OpenCV's ADAPTIVE_THRESH_MEAN_C with THRESH_BINARY on 8-bit input.
func adaptiveThreshold(src []uint8, width, height, block int, c float64) ([]uint8, error) {
	if len(src) != width*height {
		return nil, fmt.Errorf("buffer has %d pixels, want %d", len(src), width*height)
	}
	if block < 3 || block%2 == 0 {
		return nil, fmt.Errorf("block size must be odd and >= 3, got %d", block)
	}

	radius := block / 2
	scale := 1 / float64(block*block)
	// OpenCV rounds the delta towards the binary side before comparing.
	limit := -int(math.Ceil(c))

	dst := make([]uint8, len(src))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			sum := 0
			for dy := -radius; dy <= radius; dy++ {
				row := clampInt(y+dy, 0, height-1) * width
				for dx := -radius; dx <= radius; dx++ {
					sum += int(src[row+clampInt(x+dx, 0, width-1)])
				}
			}
			mean := int(math.RoundToEven(float64(sum) * scale))
			if int(src[y*width+x])-mean > limit {
				dst[y*width+x] = 255
			}
		}
	}
	return dst, nil
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
