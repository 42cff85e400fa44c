package config

import (
	"digitlens-go/infrastructure/classifier"
	"digitlens-go/infrastructure/imaging"
	"digitlens-go/infrastructure/logging"
	"digitlens-go/infrastructure/mnist"
	"digitlens-go/infrastructure/repository"
)

// Logging returns the logging setup for the binary called name.
func (c *Config) Logging(name string) (*logging.Config, error) {
	lc := logging.DefaultConfig()
	if name != "" {
		lc.Name = name
	}
	if c.Log.Level != "" {
		level, err := logging.ParseLevel(c.Log.Level)
		if err != nil {
			return nil, err
		}
		lc.Level = level
	}
	return lc, nil
}

// Preprocessor returns the imaging parameters.
func (c *Config) Preprocessor() *imaging.Config {
	pc := imaging.DefaultConfig()
	pc.BlockSize = c.Preprocess.BlockSize
	pc.Offset = c.Preprocess.Offset
	return pc
}

// Classifier returns the model backend selection.
func (c *Config) Classifier() classifier.Config {
	return classifier.Config{
		Backend: c.Model.Backend,
		Path:    c.Model.Path,
		ONNX: classifier.ONNXConfig{
			LibraryPath: c.Model.ONNX.LibraryPath,
			InputName:   c.Model.ONNX.InputName,
			OutputName:  c.Model.ONNX.OutputName,
			InputShape:  c.Model.ONNX.InputShape,
		},
	}
}

// Augment returns the training augmentation ranges.
func (c *Config) Augment() mnist.AugmentConfig {
	a := c.Training.Augmentation
	return mnist.AugmentConfig{
		RotationDegrees: a.RotationDegrees,
		WidthShift:      a.WidthShift,
		HeightShift:     a.HeightShift,
		ShearDegrees:    a.ShearDegrees,
		Zoom:            a.Zoom,
		HorizontalFlip:  a.HorizontalFlip,
	}
}

// Mongo returns the connection settings. A non-empty uri overrides the
// configured one.
func (c *Config) Mongo(uri string) *repository.MongoDBConfig {
	mc := repository.DefaultMongoDBConfig()
	if c.MongoDB.URI != "" {
		mc.URI = c.MongoDB.URI
	}
	if uri != "" {
		mc.URI = uri
	}
	if c.MongoDB.Database != "" {
		mc.Database = c.MongoDB.Database
	}
	if c.MongoDB.ConnectTimeout > 0 {
		mc.ConnectTimeout = c.MongoDB.ConnectTimeout
	}
	if c.MongoDB.PingTimeout > 0 {
		mc.PingTimeout = c.MongoDB.PingTimeout
	}
	return mc
}
