package network

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"

	"digitlens-go/domain/recognition"
)

// StepResult reports the metrics of one optimisation step.
type StepResult struct {
	Loss     float64
	Correct  int
	Examples int
}

// Trainer owns a training graph with categorical cross-entropy loss and
// an Adam solver.
type Trainer struct {
	m      *model
	y      *G.Node
	cost   *G.Node
	vm     G.VM
	solver G.Solver
}

// TrainerConfig holds optimiser settings.
type TrainerConfig struct {
	BatchSize    int
	LearningRate float64
	Epsilon      float64
}

// DefaultTrainerConfig mirrors the Keras Adam defaults with batch 32.
func DefaultTrainerConfig() TrainerConfig {
	return TrainerConfig{BatchSize: 32, LearningRate: 0.001, Epsilon: 1e-7}
}

// NewTrainer builds a training graph. Nil params start from a fresh
// initialisation.
func NewTrainer(cfg TrainerConfig, params []Param) (*Trainer, error) {
	m, err := build(cfg.BatchSize, params)
	if err != nil {
		return nil, err
	}

	y := G.NewMatrix(m.g, tensor.Float64, G.WithShape(cfg.BatchSize, recognition.NumClasses), G.WithName("y"))

	logp, err := G.Log(m.out)
	if err != nil {
		return nil, err
	}
	picked, err := G.HadamardProd(logp, y)
	if err != nil {
		return nil, err
	}
	perExample, err := G.Sum(picked, 1)
	if err != nil {
		return nil, err
	}
	mean, err := G.Mean(perExample)
	if err != nil {
		return nil, err
	}
	cost, err := G.Neg(mean)
	if err != nil {
		return nil, err
	}
	if _, err := G.Grad(cost, m.learnables...); err != nil {
		return nil, fmt.Errorf("gradient: %w", err)
	}

	return &Trainer{
		m:      m,
		y:      y,
		cost:   cost,
		vm:     G.NewTapeMachine(m.g, G.BindDualValues(m.learnables...)),
		solver: G.NewAdamSolver(G.WithLearnRate(cfg.LearningRate), G.WithEps(cfg.Epsilon)),
	}, nil
}

// BatchSize returns the fixed batch size of the graph.
func (t *Trainer) BatchSize() int {
	return t.m.batch
}

// Step runs forward and backward passes on one full batch and applies the
// Adam update. images is flat NCHW; labels is one-hot, batch×10.
func (t *Trainer) Step(images, labels []float64) (StepResult, error) {
	if len(labels) != t.m.batch*recognition.NumClasses {
		return StepResult{}, fmt.Errorf("labels have %d values, want %d", len(labels), t.m.batch*recognition.NumClasses)
	}
	if err := t.m.setInput(images); err != nil {
		return StepResult{}, err
	}
	yT := tensor.New(tensor.WithShape(t.m.batch, recognition.NumClasses), tensor.WithBacking(labels))
	if err := G.Let(t.y, yT); err != nil {
		return StepResult{}, err
	}

	defer t.vm.Reset()
	if err := t.vm.RunAll(); err != nil {
		return StepResult{}, fmt.Errorf("training pass: %w", err)
	}

	res := StepResult{Examples: t.m.batch}
	if loss, ok := t.cost.Value().Data().(float64); ok {
		res.Loss = loss
	}
	rows, err := t.m.outputs()
	if err != nil {
		return StepResult{}, err
	}
	res.Correct = CountCorrect(rows, labels)

	if err := t.solver.Step(G.NodesToValueGrads(t.m.learnables)); err != nil {
		return StepResult{}, fmt.Errorf("solver step: %w", err)
	}
	return res, nil
}

// Params snapshots the current weights.
func (t *Trainer) Params() []Param {
	return t.m.params()
}

// Close releases the tape machine.
func (t *Trainer) Close() error {
	return t.vm.Close()
}

// CountCorrect counts rows whose argmax matches the one-hot label row.
func CountCorrect(rows [][]float64, oneHot []float64) int {
	correct := 0
	for i, row := range rows {
		label := oneHot[i*recognition.NumClasses : (i+1)*recognition.NumClasses]
		if floats.MaxIdx(row) == floats.MaxIdx(label) {
			correct++
		}
	}
	return correct
}
