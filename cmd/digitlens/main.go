// Package main is the entry point for the digit recognizer desktop app.
package main

import (
	"os"

	"fyne.io/fyne/v2/app"

	"digitlens-go/application"
	"digitlens-go/domain/recognition"
	"digitlens-go/infrastructure/classifier"
	"digitlens-go/infrastructure/config"
	"digitlens-go/infrastructure/imaging"
	"digitlens-go/infrastructure/logging"
	"digitlens-go/presentation"
	"digitlens-go/resources"
)

func main() {
	cfg, err := config.Load(resources.DefaultConfig, config.FileName)
	if err != nil {
		os.Stderr.WriteString("Failed to load configuration: " + err.Error() + "\n")
		os.Exit(1)
	}

	// Initialize logging (dev: console only, prod: rotating file)
	logCfg, err := cfg.Logging(logging.AppName)
	if err != nil {
		os.Stderr.WriteString("Invalid log configuration: " + err.Error() + "\n")
		os.Exit(1)
	}
	logger, closeLog, err := logging.Setup(logCfg)
	if err != nil {
		os.Stderr.WriteString("Failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer closeLog()

	logger.Info("Starting digit recognizer")

	pre, err := imaging.NewPreprocessor(cfg.Preprocessor(), logger)
	if err != nil {
		logger.Error("Invalid preprocessing configuration", "error", err)
		os.Exit(1)
	}

	// A missing model is not fatal: the shell still opens and every
	// prediction reports the classifier as unavailable.
	model, err := classifier.Open(cfg.Classifier(), logger)
	if err != nil {
		logger.Error("Failed to load model", "path", cfg.Model.Path, "error", err)
	}
	recognizer := recognition.NewService(pre, model)
	defer recognizer.Close()

	shell := application.NewShell(&application.ShellConfig{
		Recognizer:  recognizer,
		PreviewSize: cfg.UI.PreviewSize,
		Logger:      logger,
	})

	fyneApp := app.New()
	fyneApp.SetIcon(resources.GetAppIcon())

	mainWindow := presentation.NewMainWindow(&presentation.MainWindowConfig{
		App:      fyneApp,
		Shell:    shell,
		AllFiles: cfg.UI.AllFiles,
		Logger:   logger,
	})

	mainWindow.Show()
	fyneApp.Run()

	logger.Info("Application shutdown complete")
}
