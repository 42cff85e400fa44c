package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"digitlens-go/resources"
)

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse(resources.DefaultConfig)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if cfg.Model.Path != "mnist_model.h5" {
		t.Errorf("Model.Path = %q, want mnist_model.h5", cfg.Model.Path)
	}
	if cfg.Model.Backend != "auto" {
		t.Errorf("Model.Backend = %q, want auto", cfg.Model.Backend)
	}
	if cfg.Preprocess.BlockSize != 15 || cfg.Preprocess.Offset != -2 {
		t.Errorf("Preprocess = %+v, want block 15 offset -2", cfg.Preprocess)
	}
	if cfg.Training.Epochs != 10 || cfg.Training.BatchSize != 32 {
		t.Errorf("Training = %d epochs batch %d, want 10/32", cfg.Training.Epochs, cfg.Training.BatchSize)
	}
	if cfg.Training.Augmentation.RotationDegrees != 10 || !cfg.Training.Augmentation.HorizontalFlip {
		t.Errorf("Augmentation = %+v", cfg.Training.Augmentation)
	}
	if got := cfg.Model.ONNX.InputShape; len(got) != 4 || got[3] != 1 {
		t.Errorf("ONNX.InputShape = %v, want [1 28 28 1]", got)
	}
	if cfg.MongoDB.ConnectTimeout != 10*time.Second {
		t.Errorf("MongoDB.ConnectTimeout = %v, want 10s", cfg.MongoDB.ConnectTimeout)
	}
	if cfg.UI.AllFiles {
		t.Error("UI.AllFiles should default to false")
	}
}

func TestParse_Override(t *testing.T) {
	override := []byte(`
model:
  path: exported.onnx
ui:
  all_files: true
training:
  epochs: 2
`)
	cfg, err := Parse(resources.DefaultConfig, override)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if cfg.Model.Path != "exported.onnx" {
		t.Errorf("Model.Path = %q, want exported.onnx", cfg.Model.Path)
	}
	if cfg.Model.Backend != "auto" {
		t.Errorf("Model.Backend = %q, override should keep auto", cfg.Model.Backend)
	}
	if !cfg.UI.AllFiles {
		t.Error("UI.AllFiles = false, want true")
	}
	if cfg.Training.Epochs != 2 || cfg.Training.BatchSize != 32 {
		t.Errorf("Training = %d/%d, want 2/32", cfg.Training.Epochs, cfg.Training.BatchSize)
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name     string
		override string
	}{
		{"unknown key", "modle:\n  path: x\n"},
		{"bad backend", "model:\n  backend: tflite\n"},
		{"even block", "preprocess:\n  block_size: 14\n"},
		{"zero epochs", "training:\n  epochs: 0\n"},
		{"not yaml", "model: [unclosed\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse(resources.DefaultConfig, []byte(tt.override)); err == nil {
				t.Errorf("Parse(%q) should fail", tt.override)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	cfg, err := Load(resources.DefaultConfig, filepath.Join(dir, FileName))
	if err != nil {
		t.Fatalf("Load() without file error = %v", err)
	}
	if cfg.Bot.HistoryLimit != 10 {
		t.Errorf("Bot.HistoryLimit = %d, want 10", cfg.Bot.HistoryLimit)
	}

	path := filepath.Join(dir, FileName)
	if err := os.WriteFile(path, []byte("bot:\n  history_limit: 3\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err = Load(resources.DefaultConfig, path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Bot.HistoryLimit != 3 {
		t.Errorf("Bot.HistoryLimit = %d, want 3", cfg.Bot.HistoryLimit)
	}
}

func TestConfig_Conversions(t *testing.T) {
	cfg, err := Parse(resources.DefaultConfig, []byte("log:\n  level: debug\nmongodb:\n  uri: mongodb://db:27017\n"))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	lc, err := cfg.Logging("digitlens-bot")
	if err != nil {
		t.Fatalf("Logging() error = %v", err)
	}
	if lc.Level != slog.LevelDebug || lc.Name != "digitlens-bot" {
		t.Errorf("Logging() = level %v name %q", lc.Level, lc.Name)
	}

	if pc := cfg.Preprocessor(); pc.BlockSize != 15 || pc.Offset != -2 {
		t.Errorf("Preprocessor() = %+v", pc)
	}
	if cc := cfg.Classifier(); cc.Path != "mnist_model.h5" || cc.ONNX.InputName != "input" {
		t.Errorf("Classifier() = %+v", cc)
	}
	if ac := cfg.Augment(); ac.Zoom != 0.1 || !ac.HorizontalFlip {
		t.Errorf("Augment() = %+v", ac)
	}

	if mc := cfg.Mongo(""); mc.URI != "mongodb://db:27017" || mc.Database != "digitlens" {
		t.Errorf("Mongo(\"\") = %+v", mc)
	}
	if mc := cfg.Mongo("mongodb://env:27017"); mc.URI != "mongodb://env:27017" {
		t.Errorf("Mongo(env) URI = %q", mc.URI)
	}

	cfg.Log.Level = "loud"
	if _, err := cfg.Logging(""); err == nil {
		t.Error("Logging() should reject an unknown level")
	}
}
