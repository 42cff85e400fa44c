package classifier

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"digitlens-go/domain/recognition"
)

// ONNXConfig describes an exported model's interface.
type ONNXConfig struct {
	// LibraryPath points at the onnxruntime shared library. Empty uses the
	// platform default lookup.
	LibraryPath string
	InputName   string
	OutputName  string
	InputShape  []int64
}

// DefaultONNXConfig matches a Keras model exported with tf2onnx.
func DefaultONNXConfig() ONNXConfig {
	return ONNXConfig{
		InputName:  "input",
		OutputName: "output",
		InputShape: []int64{1, recognition.ImageSize, recognition.ImageSize, 1},
	}
}

// ONNX runs an exported model through ONNX Runtime.
type ONNX struct {
	mu           sync.Mutex
	session      *ort.AdvancedSession
	inputTensor  *ort.Tensor[float32]
	outputTensor *ort.Tensor[float32]
	ownsEnv      bool
	logger       *slog.Logger
}

// NewONNX creates a session for the model at path.
func NewONNX(path string, cfg ONNXConfig, logger *slog.Logger) (*ONNX, error) {
	if logger == nil {
		logger = slog.Default()
	}
	size := int64(1)
	for _, d := range cfg.InputShape {
		size *= d
	}
	if size != recognition.ImageSize*recognition.ImageSize {
		return nil, fmt.Errorf("input shape %v does not hold one 28x28 image", cfg.InputShape)
	}

	ownsEnv := false
	if !ort.IsInitialized() {
		if cfg.LibraryPath != "" {
			ort.SetSharedLibraryPath(cfg.LibraryPath)
		}
		if err := ort.InitializeEnvironment(); err != nil {
			return nil, fmt.Errorf("failed to initialize ONNX environment: %w", err)
		}
		ownsEnv = true
	}

	c := &ONNX{ownsEnv: ownsEnv, logger: logger}

	var err error
	c.inputTensor, err = ort.NewEmptyTensor[float32](ort.NewShape(cfg.InputShape...))
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to create input tensor: %w", err)
	}
	c.outputTensor, err = ort.NewEmptyTensor[float32](ort.NewShape(1, recognition.NumClasses))
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to create output tensor: %w", err)
	}

	c.session, err = ort.NewAdvancedSession(path,
		[]string{cfg.InputName}, []string{cfg.OutputName},
		[]ort.ArbitraryTensor{c.inputTensor}, []ort.ArbitraryTensor{c.outputTensor},
		nil)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to create ONNX session: %w", err)
	}
	return c, nil
}

// Classify runs the session once. Raw logits are normalised with softmax.
func (c *ONNX) Classify(ctx context.Context, t *recognition.Tensor) (*recognition.Prediction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if t == nil {
		return nil, recognition.ErrInvalidTensor
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	copy(c.inputTensor.GetData(), t.Data)
	if err := c.session.Run(); err != nil {
		return nil, fmt.Errorf("inference failed: %w", err)
	}

	out := c.outputTensor.GetData()
	scores := make([]float64, len(out))
	for i, v := range out {
		scores[i] = float64(v)
	}
	if !isDistribution(scores) {
		scores = recognition.Softmax(scores)
	}
	return recognition.NewPrediction(scores)
}

// Close destroys the session and tensors.
func (c *ONNX) Close() error {
	if c.inputTensor != nil {
		c.inputTensor.Destroy()
	}
	if c.outputTensor != nil {
		c.outputTensor.Destroy()
	}
	if c.session != nil {
		c.session.Destroy()
	}
	if c.ownsEnv {
		return ort.DestroyEnvironment()
	}
	return nil
}

func isDistribution(scores []float64) bool {
	sum := 0.0
	for _, v := range scores {
		if v < 0 || v > 1 {
			return false
		}
		sum += v
	}
	return sum > 1-recognition.SumTolerance && sum < 1+recognition.SumTolerance
}

var _ recognition.Classifier = (*ONNX)(nil)
