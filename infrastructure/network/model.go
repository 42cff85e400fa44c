// Package network defines the digit CNN on a gorgonia expression graph.
//
// The architecture is fixed:
//
//	conv 3×3×32 relu → maxpool 2 → conv 3×3×64 relu → maxpool 2 → dense 10 softmax
//
// Tensors use NCHW layout. Weights travel as a flat []Param so they can be
// persisted independently of the graph.
package network

import (
	"errors"
	"fmt"

	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"

	"digitlens-go/domain/recognition"
)

// FlatFeatures is the length of the vector fed to the dense layer.
const FlatFeatures = 64 * 5 * 5

// ErrParamMismatch is returned when supplied weights do not fit the layout.
var ErrParamMismatch = errors.New("parameter does not match network layout")

// Param is a named weight tensor.
type Param struct {
	Name  string
	Shape []int
	Data  []float64
}

// Size returns the number of elements Shape describes.
func (p Param) Size() int {
	n := 1
	for _, d := range p.Shape {
		n *= d
	}
	return n
}

type paramSpec struct {
	name  string
	shape []int
	bias  bool
}

var layout = []paramSpec{
	{name: "conv1_kernel", shape: []int{32, 1, 3, 3}},
	{name: "conv1_bias", shape: []int{1, 32, 1, 1}, bias: true},
	{name: "conv2_kernel", shape: []int{64, 32, 3, 3}},
	{name: "conv2_bias", shape: []int{1, 64, 1, 1}, bias: true},
	{name: "dense_kernel", shape: []int{FlatFeatures, 10}},
	{name: "dense_bias", shape: []int{1, 10}, bias: true},
}

// Layout returns the parameter names and shapes in graph order.
func Layout() []Param {
	out := make([]Param, len(layout))
	for i, spec := range layout {
		out[i] = Param{Name: spec.name, Shape: append([]int(nil), spec.shape...)}
	}
	return out
}

// ValidateParams checks names, shapes and lengths against Layout.
func ValidateParams(params []Param) error {
	if len(params) != len(layout) {
		return fmt.Errorf("%w: got %d tensors, want %d", ErrParamMismatch, len(params), len(layout))
	}
	for i, spec := range layout {
		p := params[i]
		if p.Name != spec.name {
			return fmt.Errorf("%w: tensor %d is %q, want %q", ErrParamMismatch, i, p.Name, spec.name)
		}
		if !sameShape(p.Shape, spec.shape) {
			return fmt.Errorf("%w: %s has shape %v, want %v", ErrParamMismatch, p.Name, p.Shape, spec.shape)
		}
		if len(p.Data) != p.Size() {
			return fmt.Errorf("%w: %s has %d values, want %d", ErrParamMismatch, p.Name, len(p.Data), p.Size())
		}
	}
	return nil
}

// model is the forward graph for a fixed batch size.
type model struct {
	g          *G.ExprGraph
	x          *G.Node
	out        *G.Node
	learnables G.Nodes
	batch      int
}

// build constructs the forward graph. With nil params the kernels are
// Glorot-uniform initialised and biases start at zero.
func build(batch int, params []Param) (*model, error) {
	if batch < 1 {
		return nil, fmt.Errorf("batch size must be positive, got %d", batch)
	}
	if params != nil {
		if err := ValidateParams(params); err != nil {
			return nil, err
		}
	}

	g := G.NewGraph()
	m := &model{g: g, batch: batch}
	m.x = G.NewTensor(g, tensor.Float64, 4,
		G.WithShape(batch, 1, recognition.ImageSize, recognition.ImageSize),
		G.WithName("x"))

	for i, spec := range layout {
		opts := []G.NodeConsOpt{G.WithShape(spec.shape...), G.WithName(spec.name)}
		switch {
		case params != nil:
			backing := append([]float64(nil), params[i].Data...)
			opts = append(opts, G.WithValue(tensor.New(tensor.WithShape(spec.shape...), tensor.WithBacking(backing))))
		case spec.bias:
			opts = append(opts, G.WithInit(G.Zeroes()))
		default:
			opts = append(opts, G.WithInit(G.GlorotU(1)))
		}
		m.learnables = append(m.learnables, G.NewTensor(g, tensor.Float64, len(spec.shape), opts...))
	}

	out, err := m.forward()
	if err != nil {
		return nil, err
	}
	m.out = out
	return m, nil
}

func (m *model) forward() (*G.Node, error) {
	w1, b1, w2, b2, wd, bd := m.learnables[0], m.learnables[1], m.learnables[2], m.learnables[3], m.learnables[4], m.learnables[5]

	h, err := convBlock(m.x, w1, b1)
	if err != nil {
		return nil, fmt.Errorf("layer 1: %w", err)
	}
	if h, err = convBlock(h, w2, b2); err != nil {
		return nil, fmt.Errorf("layer 2: %w", err)
	}

	if h, err = G.Reshape(h, tensor.Shape{m.batch, FlatFeatures}); err != nil {
		return nil, fmt.Errorf("flatten: %w", err)
	}
	if h, err = G.Mul(h, wd); err != nil {
		return nil, fmt.Errorf("dense: %w", err)
	}
	if h, err = G.BroadcastAdd(h, bd, nil, []byte{0}); err != nil {
		return nil, fmt.Errorf("dense bias: %w", err)
	}
	out, err := G.SoftMax(h)
	if err != nil {
		return nil, fmt.Errorf("softmax: %w", err)
	}
	return out, nil
}

// convBlock is a valid 3×3 convolution with bias, relu and 2×2 max pooling.
func convBlock(x, w, b *G.Node) (*G.Node, error) {
	c, err := G.Conv2d(x, w, tensor.Shape{3, 3}, []int{0, 0}, []int{1, 1}, []int{1, 1})
	if err != nil {
		return nil, err
	}
	if c, err = G.BroadcastAdd(c, b, nil, []byte{0, 2, 3}); err != nil {
		return nil, err
	}
	if c, err = G.Rectify(c); err != nil {
		return nil, err
	}
	return G.MaxPool2D(c, tensor.Shape{2, 2}, []int{0, 0}, []int{2, 2})
}

// setInput binds a flat NCHW batch to the input node.
func (m *model) setInput(data []float64) error {
	want := m.batch * recognition.ImageSize * recognition.ImageSize
	if len(data) != want {
		return fmt.Errorf("input has %d values, want %d", len(data), want)
	}
	t := tensor.New(tensor.WithShape(m.batch, 1, recognition.ImageSize, recognition.ImageSize), tensor.WithBacking(data))
	return G.Let(m.x, t)
}

// outputs copies the softmax rows from the last run.
func (m *model) outputs() ([][]float64, error) {
	v := m.out.Value()
	if v == nil {
		return nil, errors.New("graph has not been run")
	}
	flat, ok := v.Data().([]float64)
	if !ok {
		return nil, fmt.Errorf("unexpected output type %T", v.Data())
	}
	rows := make([][]float64, m.batch)
	for i := range rows {
		rows[i] = append([]float64(nil), flat[i*recognition.NumClasses:(i+1)*recognition.NumClasses]...)
	}
	return rows, nil
}

// params snapshots the current learnable values.
func (m *model) params() []Param {
	out := make([]Param, len(layout))
	for i, spec := range layout {
		data := m.learnables[i].Value().Data().([]float64)
		out[i] = Param{
			Name:  spec.name,
			Shape: append([]int(nil), spec.shape...),
			Data:  append([]float64(nil), data...),
		}
	}
	return out
}

func sameShape(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
