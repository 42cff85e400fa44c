// Package main trains the digit classifier on MNIST and writes the weights
// artifact loaded by the desktop app.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"digitlens-go/application/training"
	"digitlens-go/core/event"
	"digitlens-go/core/eventbus"
	"digitlens-go/infrastructure/classifier"
	"digitlens-go/infrastructure/config"
	"digitlens-go/infrastructure/logging"
	"digitlens-go/infrastructure/mnist"
	"digitlens-go/resources"
)

func main() {
	if err := run(); err != nil {
		logging.L().Error("Training failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(resources.DefaultConfig, config.FileName)
	if err != nil {
		return err
	}

	logCfg, err := cfg.Logging(logging.AppName + "-train")
	if err != nil {
		return err
	}
	logger, closeLog, err := logging.Setup(logCfg)
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer closeLog()

	backend, err := classifier.ResolveBackend(cfg.Classifier())
	if err != nil {
		return err
	}
	if backend != classifier.BackendNative {
		return fmt.Errorf("model.path %q: training writes HDF5 weights, not %s", cfg.Model.Path, backend)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	loader := mnist.NewLoader(cfg.MNIST.CacheDir, cfg.MNIST.Mirror, cfg.MNIST.Verify, logger)
	train, err := loader.Train(ctx)
	if err != nil {
		return fmt.Errorf("load training set: %w", err)
	}
	test, err := loader.Test(ctx)
	if err != nil {
		return fmt.Errorf("load test set: %w", err)
	}
	logger.Info("MNIST loaded", "train", train.Len(), "test", test.Len(), "dir", loader.Dir)

	tc := training.DefaultConfig()
	tc.Epochs = cfg.Training.Epochs
	tc.BatchSize = cfg.Training.BatchSize
	if cfg.Training.ValidationBatch > 0 {
		tc.ValidationBatch = cfg.Training.ValidationBatch
	}
	tc.LearningRate = cfg.Training.LearningRate
	tc.Seed = cfg.Training.Seed
	tc.Augment = cfg.Training.Augment
	tc.Augmentation = cfg.Augment()
	tc.OutputPath = cfg.Model.Path

	bus := eventbus.New(tc.Epochs+2, logger)
	bus.Subscribe(func(e event.Event) {
		if ef, ok := e.(*event.EpochFinished); ok {
			fmt.Println(ef.Summary())
		}
	})

	result, err := training.NewTrainer(tc, logger).WithEvents(bus).Run(ctx, train, test)
	bus.Close()
	if err != nil {
		return err
	}

	last := result.Epochs[len(result.Epochs)-1]
	logger.Info("Training complete",
		"run_id", result.RunID,
		"val_accuracy", last.ValAccuracy,
		"output", tc.OutputPath)
	return nil
}
