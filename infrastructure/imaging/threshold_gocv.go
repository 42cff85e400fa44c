//go:build gocv
// +build gocv

package imaging

import (
	"errors"
	"fmt"

	"gocv.io/x/gocv"
)

// adaptiveThreshold binarizes src with OpenCV's mean adaptive threshold.
func adaptiveThreshold(src []uint8, width, height, block int, c float64) ([]uint8, error) {
	if len(src) != width*height {
		return nil, fmt.Errorf("buffer has %d pixels, want %d", len(src), width*height)
	}

	mat, err := gocv.NewMatFromBytes(height, width, gocv.MatTypeCV8U, src)
	if err != nil {
		return nil, fmt.Errorf("wrap pixels: %w", err)
	}
	defer mat.Close()

	dst := gocv.NewMat()
	defer dst.Close()

	gocv.AdaptiveThreshold(mat, &dst, 255, gocv.AdaptiveThresholdMean, gocv.ThresholdBinary, block, float32(c))
	if dst.Empty() {
		return nil, errors.New("empty threshold result")
	}

	out := make([]uint8, width*height)
	copy(out, dst.ToBytes())
	return out, nil
}
