// Package recognition defines the tensor and prediction types and the
// service that turns an image into a digit prediction.
package recognition

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

const (
	// ImageSize is the side length of the network input.
	ImageSize = 28
	// NumClasses is the number of digit classes.
	NumClasses = 10
	// SumTolerance bounds how far probabilities may drift from summing to 1.
	SumTolerance = 1e-3
)

// Common errors for recognition operations.
var (
	ErrClassifierUnavailable = errors.New("classifier unavailable")
	ErrInvalidTensor         = errors.New("invalid tensor")
	ErrInvalidProbabilities  = errors.New("invalid probability vector")
)

// Tensor is a normalized single-item batch of shape 1×28×28, row-major,
// with every value in [0, 1].
type Tensor struct {
	Data []float32
}

// NewTensor wraps data after checking its length and range.
func NewTensor(data []float32) (*Tensor, error) {
	if len(data) != ImageSize*ImageSize {
		return nil, fmt.Errorf("%w: got %d values, want %d", ErrInvalidTensor, len(data), ImageSize*ImageSize)
	}
	for i, v := range data {
		if v < 0 || v > 1 || math.IsNaN(float64(v)) {
			return nil, fmt.Errorf("%w: value %v at %d outside [0,1]", ErrInvalidTensor, v, i)
		}
	}
	return &Tensor{Data: data}, nil
}

// Shape returns the tensor shape (batch, rows, cols).
func (t *Tensor) Shape() [3]int {
	return [3]int{1, ImageSize, ImageSize}
}

// At returns the value at row r, column c.
func (t *Tensor) At(r, c int) float32 {
	return t.Data[r*ImageSize+c]
}

// Float64s returns a float64 copy of the data.
func (t *Tensor) Float64s() []float64 {
	out := make([]float64, len(t.Data))
	for i, v := range t.Data {
		out[i] = float64(v)
	}
	return out
}

// Prediction is the classifier output for one tensor.
type Prediction struct {
	// Digit is the index of the highest probability; ties go to the lowest index.
	Digit int

	// Probabilities holds one softmax value per digit.
	Probabilities [NumClasses]float64
}

// NewPrediction builds a Prediction from a probability vector.
func NewPrediction(probs []float64) (*Prediction, error) {
	if len(probs) != NumClasses {
		return nil, fmt.Errorf("%w: got %d values, want %d", ErrInvalidProbabilities, len(probs), NumClasses)
	}
	for i, p := range probs {
		if math.IsNaN(p) || math.IsInf(p, 0) || p < 0 {
			return nil, fmt.Errorf("%w: value %v at %d", ErrInvalidProbabilities, p, i)
		}
	}

	p := &Prediction{Digit: floats.MaxIdx(probs)}
	copy(p.Probabilities[:], probs)
	return p, nil
}

// Confidence returns the probability of the predicted digit.
func (p *Prediction) Confidence() float64 {
	return p.Probabilities[p.Digit]
}

// Sum returns the sum of all probabilities.
func (p *Prediction) Sum() float64 {
	return floats.Sum(p.Probabilities[:])
}

// IsNormalized reports whether the probabilities sum to 1 within SumTolerance.
func (p *Prediction) IsNormalized() bool {
	return math.Abs(p.Sum()-1) <= SumTolerance
}

// ReportLines renders the prediction report shown to users.
func (p *Prediction) ReportLines() []string {
	lines := make([]string, 0, 3+NumClasses)
	lines = append(lines,
		fmt.Sprintf("Predicted Digit: %d", p.Digit),
		fmt.Sprintf("Confidence Level: %.2f%%", p.Confidence()*100),
		"Probabilities for each digit:",
	)
	for i, v := range p.Probabilities {
		lines = append(lines, fmt.Sprintf("Digit %d: %.4f", i, v))
	}
	return lines
}

// Softmax converts raw scores into a probability distribution.
func Softmax(scores []float64) []float64 {
	out := make([]float64, len(scores))
	if len(scores) == 0 {
		return out
	}
	m := floats.Max(scores)
	for i, s := range scores {
		out[i] = math.Exp(s - m)
	}
	floats.Scale(1/floats.Sum(out), out)
	return out
}
