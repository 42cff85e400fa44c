package classifier

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"digitlens-go/domain/recognition"
)

// Backend names.
const (
	BackendAuto   = "auto"
	BackendNative = "native"
	BackendONNX   = "onnx"
)

// Config selects and locates the model artifact.
type Config struct {
	Backend string
	Path    string
	ONNX    ONNXConfig
}

// ResolveBackend maps "auto" (or empty) to a concrete backend by file
// extension.
func ResolveBackend(cfg Config) (string, error) {
	switch strings.ToLower(cfg.Backend) {
	case "", BackendAuto:
		if strings.EqualFold(filepath.Ext(cfg.Path), ".onnx") {
			return BackendONNX, nil
		}
		return BackendNative, nil
	case BackendNative:
		return BackendNative, nil
	case BackendONNX:
		return BackendONNX, nil
	default:
		return "", fmt.Errorf("unknown classifier backend %q", cfg.Backend)
	}
}

// Open loads the configured classifier.
func Open(cfg Config, logger *slog.Logger) (recognition.Classifier, error) {
	if logger == nil {
		logger = slog.Default()
	}
	backend, err := ResolveBackend(cfg)
	if err != nil {
		return nil, err
	}

	logger.Info("Loading classifier", "backend", backend, "path", cfg.Path)
	switch backend {
	case BackendONNX:
		onnxCfg := cfg.ONNX
		defaults := DefaultONNXConfig()
		if onnxCfg.InputName == "" {
			onnxCfg.InputName = defaults.InputName
		}
		if onnxCfg.OutputName == "" {
			onnxCfg.OutputName = defaults.OutputName
		}
		if len(onnxCfg.InputShape) == 0 {
			onnxCfg.InputShape = defaults.InputShape
		}
		c, err := NewONNX(cfg.Path, onnxCfg, logger)
		if err != nil {
			return nil, err
		}
		return c, nil
	default:
		c, err := NewNative(cfg.Path, logger)
		if err != nil {
			return nil, err
		}
		return c, nil
	}
}
