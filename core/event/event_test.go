package event

import (
	"errors"
	"testing"
	"time"
)

func TestEvent_Names(t *testing.T) {
	tests := []struct {
		event    Event
		expected string
	}{
		{NewTrainingStarted("r1", 60000, 10, 32), "TrainingStarted"},
		{NewEpochFinished("r1", 1, 10), "EpochFinished"},
		{NewTrainingFinished("r1", "mnist_model.h5", nil), "TrainingFinished"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := tt.event.EventName(); got != tt.expected {
				t.Errorf("EventName() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestRunEvent_RunID(t *testing.T) {
	tests := []struct {
		name     string
		event    RunEvent
		expected string
	}{
		{"TrainingStarted", NewTrainingStarted("run-123", 1, 1, 1), "run-123"},
		{"EpochFinished", NewEpochFinished("run-456", 2, 3), "run-456"},
		{"TrainingFinished", NewTrainingFinished("run-789", "", errors.New("boom")), "run-789"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.event.RunID(); got != tt.expected {
				t.Errorf("RunID() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestEpochFinished_Summary(t *testing.T) {
	e := NewEpochFinished("r", 3, 10)
	e.Duration = 61*time.Second + 400*time.Millisecond
	e.Loss = 0.12345
	e.Accuracy = 0.9612
	e.ValLoss = 0.05
	e.ValAccuracy = 0.98765

	want := "Epoch 3/10 - 1m1s - loss: 0.1235 - accuracy: 0.9612 - val_loss: 0.0500 - val_accuracy: 0.9877"
	if got := e.Summary(); got != want {
		t.Errorf("Summary() = %q, want %q", got, want)
	}
}

func TestTrainingFinished_Error(t *testing.T) {
	err := errors.New("disk full")
	e := NewTrainingFinished("r", "out.h5", err)
	if !errors.Is(e.Error, err) {
		t.Errorf("Error = %v, want %v", e.Error, err)
	}
	if e.OutputPath != "out.h5" {
		t.Errorf("OutputPath = %q, want out.h5", e.OutputPath)
	}
}
