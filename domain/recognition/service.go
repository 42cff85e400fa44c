package recognition

import (
	"context"
	"fmt"
	"image"
)

// Classifier maps a normalized tensor to a prediction.
// Implementations own their weights for the whole process lifetime.
type Classifier interface {
	// Classify runs inference on a single tensor.
	Classify(ctx context.Context, t *Tensor) (*Prediction, error)

	// Close releases runtime resources.
	Close() error
}

// Preprocessor turns images into network input.
type Preprocessor interface {
	// Load reads and decodes an image file.
	Load(path string) (image.Image, error)

	// Normalize converts an image into a 1×28×28 tensor.
	Normalize(img image.Image) (*Tensor, error)
}

// Service glues a Preprocessor to an optional Classifier.
type Service struct {
	pre        Preprocessor
	classifier Classifier
}

// NewService creates a recognition service. A nil classifier makes every
// recognition request fail with ErrClassifierUnavailable.
func NewService(pre Preprocessor, classifier Classifier) *Service {
	return &Service{pre: pre, classifier: classifier}
}

// Available reports whether a classifier is loaded.
func (s *Service) Available() bool {
	return s.classifier != nil
}

// Preprocessor returns the configured preprocessor.
func (s *Service) Preprocessor() Preprocessor {
	return s.pre
}

// Recognize predicts the digit shown in img.
func (s *Service) Recognize(ctx context.Context, img image.Image) (*Prediction, error) {
	if s.classifier == nil {
		return nil, ErrClassifierUnavailable
	}

	t, err := s.pre.Normalize(img)
	if err != nil {
		return nil, fmt.Errorf("preprocess: %w", err)
	}

	p, err := s.classifier.Classify(ctx, t)
	if err != nil {
		return nil, fmt.Errorf("classify: %w", err)
	}
	return p, nil
}

// RecognizeFile loads the image at path and predicts its digit.
func (s *Service) RecognizeFile(ctx context.Context, path string) (*Prediction, error) {
	if s.classifier == nil {
		return nil, ErrClassifierUnavailable
	}

	img, err := s.pre.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load image: %w", err)
	}
	return s.Recognize(ctx, img)
}

// Close releases the classifier, if any.
func (s *Service) Close() error {
	if s.classifier == nil {
		return nil
	}
	return s.classifier.Close()
}
