// Package config loads the YAML configuration shared by all binaries.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// FileName is the optional override file looked up in the working directory.
const FileName = "digitlens.yaml"

// Config is the root configuration document.
type Config struct {
	Log        LogConfig        `yaml:"log"`
	Model      ModelConfig      `yaml:"model"`
	Preprocess PreprocessConfig `yaml:"preprocess"`
	UI         UIConfig         `yaml:"ui"`
	Training   TrainingConfig   `yaml:"training"`
	MNIST      MNISTConfig      `yaml:"mnist"`
	Bot        BotConfig        `yaml:"bot"`
	MongoDB    MongoDBConfig    `yaml:"mongodb"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

type ModelConfig struct {
	Backend string     `yaml:"backend"`
	Path    string     `yaml:"path"`
	ONNX    ONNXConfig `yaml:"onnx"`
}

type ONNXConfig struct {
	LibraryPath string  `yaml:"library_path"`
	InputName   string  `yaml:"input_name"`
	OutputName  string  `yaml:"output_name"`
	InputShape  []int64 `yaml:"input_shape"`
}

type PreprocessConfig struct {
	BlockSize int     `yaml:"block_size"`
	Offset    float64 `yaml:"offset"`
}

type UIConfig struct {
	AllFiles    bool `yaml:"all_files"`
	PreviewSize int  `yaml:"preview_size"`
}

type TrainingConfig struct {
	Epochs          int                `yaml:"epochs"`
	BatchSize       int                `yaml:"batch_size"`
	ValidationBatch int                `yaml:"validation_batch"`
	LearningRate    float64            `yaml:"learning_rate"`
	Seed            int64              `yaml:"seed"`
	Augment         bool               `yaml:"augment"`
	Augmentation    AugmentationConfig `yaml:"augmentation"`
}

type AugmentationConfig struct {
	RotationDegrees float64 `yaml:"rotation_degrees"`
	WidthShift      float64 `yaml:"width_shift"`
	HeightShift     float64 `yaml:"height_shift"`
	ShearDegrees    float64 `yaml:"shear_degrees"`
	Zoom            float64 `yaml:"zoom"`
	HorizontalFlip  bool    `yaml:"horizontal_flip"`
}

type MNISTConfig struct {
	CacheDir string `yaml:"cache_dir"`
	Mirror   string `yaml:"mirror"`
	Verify   bool   `yaml:"verify"`
}

type BotConfig struct {
	HistoryLimit int `yaml:"history_limit"`
}

type MongoDBConfig struct {
	URI            string        `yaml:"uri"`
	Database       string        `yaml:"database"`
	Collection     string        `yaml:"collection"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
	PingTimeout    time.Duration `yaml:"ping_timeout"`
}

// Parse decodes defaults and then overlays each override on top of it.
// Keys missing from an override keep their previous value.
func Parse(defaults []byte, overrides ...[]byte) (*Config, error) {
	var cfg Config
	if err := decode(defaults, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse default config: %w", err)
	}
	for i, o := range overrides {
		if len(bytes.TrimSpace(o)) == 0 {
			continue
		}
		if err := decode(o, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config override %d: %w", i, err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Load parses defaults and overlays the file at path when it exists.
func Load(defaults []byte, path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Parse(defaults)
		}
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	cfg, err := Parse(defaults, data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func decode(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	return dec.Decode(cfg)
}

// Validate rejects values no component can work with.
func (c *Config) Validate() error {
	switch c.Model.Backend {
	case "", "auto", "native", "onnx":
	default:
		return fmt.Errorf("model.backend: unknown backend %q", c.Model.Backend)
	}
	if c.Model.Path == "" {
		return errors.New("model.path must not be empty")
	}
	if c.Preprocess.BlockSize < 3 || c.Preprocess.BlockSize%2 == 0 {
		return fmt.Errorf("preprocess.block_size must be odd and >= 3, got %d", c.Preprocess.BlockSize)
	}
	if c.UI.PreviewSize <= 0 {
		return fmt.Errorf("ui.preview_size must be positive, got %d", c.UI.PreviewSize)
	}
	if c.Training.Epochs < 1 || c.Training.BatchSize < 1 {
		return fmt.Errorf("training needs positive epochs and batch_size, got %d and %d", c.Training.Epochs, c.Training.BatchSize)
	}
	if c.Bot.HistoryLimit < 1 {
		return fmt.Errorf("bot.history_limit must be positive, got %d", c.Bot.HistoryLimit)
	}
	return nil
}
