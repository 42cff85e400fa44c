package network

import (
	"fmt"
	"sync"

	G "gorgonia.org/gorgonia"

	"digitlens-go/domain/recognition"
)

// Predictor runs the forward graph only.
type Predictor struct {
	mu sync.Mutex
	m  *model
	vm G.VM
}

// NewPredictor builds an inference graph that evaluates up to batch images
// per call. Params must match Layout.
func NewPredictor(batch int, params []Param) (*Predictor, error) {
	if params == nil {
		return nil, fmt.Errorf("%w: no weights supplied", ErrParamMismatch)
	}
	m, err := build(batch, params)
	if err != nil {
		return nil, err
	}
	return &Predictor{m: m, vm: G.NewTapeMachine(m.g)}, nil
}

// BatchSize returns the number of images the graph holds per run.
func (p *Predictor) BatchSize() int {
	return p.m.batch
}

// Forward returns one probability row per image. images holds n flattened
// 28×28 images with n ≤ BatchSize; unused slots are zero-filled.
func (p *Predictor) Forward(images []float64) ([][]float64, error) {
	pixels := recognition.ImageSize * recognition.ImageSize
	if len(images) == 0 || len(images)%pixels != 0 {
		return nil, fmt.Errorf("input of %d values is not a whole number of images", len(images))
	}
	n := len(images) / pixels
	if n > p.m.batch {
		return nil, fmt.Errorf("got %d images, graph holds %d", n, p.m.batch)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	data := make([]float64, p.m.batch*pixels)
	copy(data, images)
	if err := p.m.setInput(data); err != nil {
		return nil, err
	}
	defer p.vm.Reset()
	if err := p.vm.RunAll(); err != nil {
		return nil, fmt.Errorf("forward pass: %w", err)
	}
	rows, err := p.m.outputs()
	if err != nil {
		return nil, err
	}
	return rows[:n], nil
}

// Close releases the tape machine.
func (p *Predictor) Close() error {
	return p.vm.Close()
}
