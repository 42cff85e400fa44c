// Package training runs the offline fit loop that produces the weights
// artifact.
package training

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"math/rand"
	"os"
	"time"

	"github.com/cheggaaa/pb/v3"
	"github.com/google/uuid"

	"digitlens-go/core/event"
	"digitlens-go/core/eventbus"
	"digitlens-go/domain/recognition"
	"digitlens-go/infrastructure/mnist"
	"digitlens-go/infrastructure/network"
	"digitlens-go/infrastructure/weights"
)

// Config holds the fit loop settings.
type Config struct {
	Epochs          int
	BatchSize       int
	ValidationBatch int
	LearningRate    float64
	Seed            int64
	Augment         bool
	Augmentation    mnist.AugmentConfig
	OutputPath      string

	// Progress receives the progress bar. Nil disables it.
	Progress io.Writer
}

// DefaultConfig returns the standard training setup.
func DefaultConfig() *Config {
	return &Config{
		Epochs:          10,
		BatchSize:       32,
		ValidationBatch: 100,
		LearningRate:    0.001,
		Seed:            1,
		Augment:         true,
		Augmentation:    mnist.DefaultAugmentConfig(),
		OutputPath:      "mnist_model.h5",
		Progress:        os.Stderr,
	}
}

// EpochMetrics are the averaged results of one epoch.
type EpochMetrics struct {
	Epoch       int
	Loss        float64
	Accuracy    float64
	ValLoss     float64
	ValAccuracy float64
	Duration    time.Duration
}

// Result summarises a finished run.
type Result struct {
	RunID  string
	Epochs []EpochMetrics
	Params []network.Param
}

// SaveFunc persists trained weights.
type SaveFunc func(path string, params []network.Param) error

// Trainer fits the CNN on a dataset.
type Trainer struct {
	cfg    *Config
	save   SaveFunc
	events eventbus.EventBus
	logger *slog.Logger
}

// NewTrainer creates a trainer. A nil config uses DefaultConfig.
func NewTrainer(cfg *Config, logger *slog.Logger) *Trainer {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Trainer{cfg: cfg, save: weights.Save, logger: logger}
}

// WithSaver replaces the artifact writer.
func (t *Trainer) WithSaver(save SaveFunc) *Trainer {
	t.save = save
	return t
}

// WithEvents publishes run progress on bus.
func (t *Trainer) WithEvents(bus eventbus.EventBus) *Trainer {
	t.events = bus
	return t
}

func (t *Trainer) publish(e event.Event) {
	if t.events != nil {
		t.events.Publish(e)
	}
}

// Run trains for the configured number of epochs, validating on test after
// each, and saves the final weights to OutputPath.
func (t *Trainer) Run(ctx context.Context, train, test *mnist.Dataset) (*Result, error) {
	runID := uuid.NewString()
	result, err := t.run(ctx, runID, train, test)
	t.publish(event.NewTrainingFinished(runID, t.cfg.OutputPath, err))
	return result, err
}

func (t *Trainer) run(ctx context.Context, runID string, train, test *mnist.Dataset) (*Result, error) {
	if train == nil || train.Len() == 0 {
		return nil, errors.New("empty training set")
	}
	if t.cfg.Epochs < 1 {
		return nil, fmt.Errorf("epochs must be positive, got %d", t.cfg.Epochs)
	}
	if train.Len() < t.cfg.BatchSize {
		return nil, fmt.Errorf("training set of %d is smaller than one batch of %d", train.Len(), t.cfg.BatchSize)
	}

	logger := t.logger.With("run_id", runID)
	logger.Info("Training started",
		"examples", train.Len(),
		"epochs", t.cfg.Epochs,
		"batch_size", t.cfg.BatchSize,
		"augment", t.cfg.Augment)

	stepper, err := network.NewTrainer(network.TrainerConfig{
		BatchSize:    t.cfg.BatchSize,
		LearningRate: t.cfg.LearningRate,
		Epsilon:      network.DefaultTrainerConfig().Epsilon,
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("build training graph: %w", err)
	}
	defer stepper.Close()
	t.publish(event.NewTrainingStarted(runID, train.Len(), t.cfg.Epochs, t.cfg.BatchSize))

	var aug *mnist.Augmenter
	if t.cfg.Augment {
		aug = mnist.NewAugmenter(t.cfg.Augmentation, t.cfg.Seed)
	}
	rng := rand.New(rand.NewSource(t.cfg.Seed))

	result := &Result{RunID: runID}
	for epoch := 1; epoch <= t.cfg.Epochs; epoch++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		m, err := t.runEpoch(ctx, stepper, train, aug, rng, epoch)
		if err != nil {
			return nil, fmt.Errorf("epoch %d: %w", epoch, err)
		}

		if test != nil && test.Len() > 0 {
			m.ValLoss, m.ValAccuracy, err = t.validate(stepper.Params(), test)
			if err != nil {
				return nil, fmt.Errorf("epoch %d validation: %w", epoch, err)
			}
		}

		logger.Info("Epoch finished",
			"epoch", epoch,
			"loss", m.Loss,
			"accuracy", m.Accuracy,
			"val_loss", m.ValLoss,
			"val_accuracy", m.ValAccuracy,
			"duration", m.Duration)
		result.Epochs = append(result.Epochs, m)

		done := event.NewEpochFinished(runID, epoch, t.cfg.Epochs)
		done.Loss, done.Accuracy = m.Loss, m.Accuracy
		done.ValLoss, done.ValAccuracy = m.ValLoss, m.ValAccuracy
		done.Duration = m.Duration
		t.publish(done)
	}

	result.Params = stepper.Params()
	if t.cfg.OutputPath != "" {
		if err := t.save(t.cfg.OutputPath, result.Params); err != nil {
			return nil, fmt.Errorf("save weights: %w", err)
		}
		logger.Info("Weights saved", "path", t.cfg.OutputPath)
	}
	return result, nil
}

func (t *Trainer) runEpoch(ctx context.Context, stepper *network.Trainer, train *mnist.Dataset, aug *mnist.Augmenter, rng *rand.Rand, epoch int) (EpochMetrics, error) {
	start := time.Now()
	bs := t.cfg.BatchSize
	order := rng.Perm(train.Len())
	batches := Batches(len(order), bs)

	var bar *pb.ProgressBar
	if t.cfg.Progress != nil {
		bar = pb.Full.New(len(batches)).
			Set("prefix", fmt.Sprintf("epoch %d/%d ", epoch, t.cfg.Epochs)).
			SetWriter(t.cfg.Progress).
			Start()
		defer bar.Finish()
	}

	images := make([]float64, bs*recognition.ImageSize*recognition.ImageSize)
	labels := make([]float64, bs*recognition.NumClasses)

	var lossSum float64
	var correct, seen int
	for _, b := range batches {
		if err := ctx.Err(); err != nil {
			return EpochMetrics{}, err
		}
		train.Fill(order[b.Start:b.End], aug, images, labels)
		res, err := stepper.Step(images, labels)
		if err != nil {
			return EpochMetrics{}, err
		}
		lossSum += res.Loss * float64(res.Examples)
		correct += res.Correct
		seen += res.Examples
		if bar != nil {
			bar.Increment()
		}
	}

	return EpochMetrics{
		Epoch:    epoch,
		Loss:     lossSum / float64(seen),
		Accuracy: float64(correct) / float64(seen),
		Duration: time.Since(start),
	}, nil
}

// validate evaluates a snapshot of the weights on ds without augmentation.
func (t *Trainer) validate(params []network.Param, ds *mnist.Dataset) (loss, accuracy float64, err error) {
	batch := t.cfg.ValidationBatch
	if batch < 1 {
		batch = 100
	}
	pred, err := network.NewPredictor(batch, params)
	if err != nil {
		return 0, 0, err
	}
	defer pred.Close()

	images := make([]float64, batch*recognition.ImageSize*recognition.ImageSize)
	labels := make([]float64, batch*recognition.NumClasses)
	idx := make([]int, 0, batch)

	var lossSum float64
	var correct int
	for start := 0; start < ds.Len(); start += batch {
		end := min(start+batch, ds.Len())
		idx = idx[:0]
		for k := start; k < end; k++ {
			idx = append(idx, k)
		}
		n := len(idx)
		ds.Fill(idx, nil, images, labels)

		rows, err := pred.Forward(images[:n*recognition.ImageSize*recognition.ImageSize])
		if err != nil {
			return 0, 0, err
		}
		correct += network.CountCorrect(rows, labels)
		for i, row := range rows {
			p := row[int(ds.Labels[idx[i]])]
			lossSum -= math.Log(math.Max(p, 1e-12))
		}
	}
	return lossSum / float64(ds.Len()), float64(correct) / float64(ds.Len()), nil
}

// Batch is a half-open index range.
type Batch struct {
	Start, End int
}

// Batches splits n examples into full batches of size. A trailing partial
// batch is dropped because the graph has a fixed batch dimension.
func Batches(n, size int) []Batch {
	if size < 1 {
		return nil
	}
	out := make([]Batch, 0, n/size)
	for start := 0; start+size <= n; start += size {
		out = append(out, Batch{Start: start, End: start + size})
	}
	return out
}
