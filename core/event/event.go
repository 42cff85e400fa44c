// Package event defines the events published while a training run progresses.
package event

import (
	"fmt"
	"time"
)

// Event is the base interface for all events.
type Event interface {
	// EventName returns the name of the event for logging/debugging
	EventName() string
}

// RunEvent is an event that belongs to a specific training run.
type RunEvent interface {
	Event
	// RunID returns the source run ID
	RunID() string
}

// baseRunEvent provides common implementation for run events.
type baseRunEvent struct {
	runID string
}

func (e *baseRunEvent) RunID() string {
	return e.runID
}

// TrainingStarted is published once the training graph is built.
type TrainingStarted struct {
	baseRunEvent
	Examples  int
	Epochs    int
	BatchSize int
}

func NewTrainingStarted(runID string, examples, epochs, batchSize int) *TrainingStarted {
	return &TrainingStarted{
		baseRunEvent: baseRunEvent{runID: runID},
		Examples:     examples,
		Epochs:       epochs,
		BatchSize:    batchSize,
	}
}

func (e *TrainingStarted) EventName() string {
	return "TrainingStarted"
}

// EpochFinished is published after each epoch and its validation pass.
type EpochFinished struct {
	baseRunEvent
	Epoch       int
	Epochs      int
	Loss        float64
	Accuracy    float64
	ValLoss     float64
	ValAccuracy float64
	Duration    time.Duration
}

func NewEpochFinished(runID string, epoch, epochs int) *EpochFinished {
	return &EpochFinished{
		baseRunEvent: baseRunEvent{runID: runID},
		Epoch:        epoch,
		Epochs:       epochs,
	}
}

func (e *EpochFinished) EventName() string {
	return "EpochFinished"
}

// Summary renders the epoch as a single progress line.
func (e *EpochFinished) Summary() string {
	return fmt.Sprintf("Epoch %d/%d - %s - loss: %.4f - accuracy: %.4f - val_loss: %.4f - val_accuracy: %.4f",
		e.Epoch, e.Epochs, e.Duration.Round(time.Second), e.Loss, e.Accuracy, e.ValLoss, e.ValAccuracy)
}

// TrainingFinished is published when the run ends. Error is nil when the
// weights were written to OutputPath.
type TrainingFinished struct {
	baseRunEvent
	OutputPath string
	Error      error
}

func NewTrainingFinished(runID, outputPath string, err error) *TrainingFinished {
	return &TrainingFinished{
		baseRunEvent: baseRunEvent{runID: runID},
		OutputPath:   outputPath,
		Error:        err,
	}
}

func (e *TrainingFinished) EventName() string {
	return "TrainingFinished"
}
