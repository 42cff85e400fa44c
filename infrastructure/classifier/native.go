// Package classifier provides recognition.Classifier backends.
package classifier

import (
	"context"
	"fmt"
	"log/slog"

	"digitlens-go/domain/recognition"
	"digitlens-go/infrastructure/network"
	"digitlens-go/infrastructure/weights"
)

// Native evaluates the CNN graph with weights from an HDF5 artifact.
type Native struct {
	predictor *network.Predictor
	logger    *slog.Logger
}

// NewNative loads the weights at path and builds a batch-1 graph.
func NewNative(path string, logger *slog.Logger) (*Native, error) {
	if logger == nil {
		logger = slog.Default()
	}
	params, err := weights.Load(path)
	if err != nil {
		return nil, err
	}
	return NewNativeFromParams(params, logger)
}

// NewNativeFromParams builds a classifier from in-memory weights.
func NewNativeFromParams(params []network.Param, logger *slog.Logger) (*Native, error) {
	if logger == nil {
		logger = slog.Default()
	}
	p, err := network.NewPredictor(1, params)
	if err != nil {
		return nil, fmt.Errorf("build network: %w", err)
	}
	return &Native{predictor: p, logger: logger}, nil
}

// Classify runs one forward pass.
func (n *Native) Classify(ctx context.Context, t *recognition.Tensor) (*recognition.Prediction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if t == nil {
		return nil, recognition.ErrInvalidTensor
	}
	rows, err := n.predictor.Forward(t.Float64s())
	if err != nil {
		return nil, err
	}
	pred, err := recognition.NewPrediction(rows[0])
	if err != nil {
		return nil, err
	}
	n.logger.Debug("Native classification", "digit", pred.Digit, "confidence", pred.Confidence())
	return pred, nil
}

// Close releases the graph.
func (n *Native) Close() error {
	return n.predictor.Close()
}

var _ recognition.Classifier = (*Native)(nil)
