// Package application holds the UI-independent state of the desktop shell.
package application

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"sync"

	"digitlens-go/core/state"
	"digitlens-go/domain/recognition"
	"digitlens-go/infrastructure/imaging"
)

// DefaultPreviewSize is the side of the square preview in pixels.
const DefaultPreviewSize = 280

// Shell owns everything the pages display: the current screen, the scroll
// offset and the last successful recognition.
type Shell struct {
	mu sync.RWMutex

	screen *state.Machine
	scroll *state.Scroll

	recognizer  *recognition.Service
	previewSize int
	logger      *slog.Logger

	// Replaced together by a successful OpenImage
	preview    image.Image
	prediction *recognition.Prediction
	path       string
}

// ShellConfig holds the dependencies of a Shell.
type ShellConfig struct {
	Recognizer  *recognition.Service
	PreviewSize int
	Geometry    state.Geometry
	Logger      *slog.Logger
}

// NewShell creates a shell on the intro screen.
func NewShell(cfg *ShellConfig) *Shell {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.PreviewSize <= 0 {
		cfg.PreviewSize = DefaultPreviewSize
	}
	if cfg.Geometry == (state.Geometry{}) {
		cfg.Geometry = state.DefaultGeometry()
	}
	return &Shell{
		screen:      state.NewMachine(),
		scroll:      state.NewScroll(cfg.Geometry),
		recognizer:  cfg.Recognizer,
		previewSize: cfg.PreviewSize,
		logger:      cfg.Logger,
	}
}

// Screen returns the page being shown.
func (s *Shell) Screen() state.Screen {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.screen.Current()
}

// Start leaves the intro page. It succeeds exactly once.
func (s *Shell) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.screen.Transition(state.ScreenMain); err != nil {
		s.logger.Warn("Start rejected", "error", err)
		return err
	}
	s.logger.Info("Main page opened")
	return nil
}

// ModelAvailable reports whether predictions can be produced.
func (s *Shell) ModelAvailable() bool {
	return s.recognizer != nil && s.recognizer.Available()
}

// OpenImage loads path, renders its preview and recognizes the digit.
// On failure the error is logged and returned, and the previous preview,
// prediction and path are kept.
func (s *Shell) OpenImage(ctx context.Context, path string) error {
	if err := s.openImage(ctx, path); err != nil {
		s.logger.Error("Failed to process image", "path", path, "error", err)
		return err
	}
	return nil
}

func (s *Shell) openImage(ctx context.Context, path string) error {
	if cur := s.Screen(); !cur.CanOpenImage() {
		return fmt.Errorf("cannot open an image on the %s page", cur)
	}
	if s.recognizer == nil {
		return recognition.ErrClassifierUnavailable
	}

	img, err := s.recognizer.Preprocessor().Load(path)
	if err != nil {
		return fmt.Errorf("load image: %w", err)
	}
	pred, err := s.recognizer.Recognize(ctx, img)
	if err != nil {
		return err
	}
	preview := imaging.Preview(img, s.previewSize, s.previewSize)

	s.mu.Lock()
	s.preview, s.prediction, s.path = preview, pred, path
	s.mu.Unlock()

	s.logger.Info("Image recognized", "path", path, "digit", pred.Digit, "confidence", pred.Confidence())
	return nil
}

// Report returns the prediction panel lines, or nil before the first
// successful recognition.
func (s *Shell) Report() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.prediction == nil {
		return nil
	}
	return s.prediction.ReportLines()
}

// Preview returns the current preview image, or nil.
func (s *Shell) Preview() image.Image {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.preview
}

// Prediction returns the current prediction, or nil.
func (s *Shell) Prediction() *recognition.Prediction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.prediction
}

// Path returns the source file of the current prediction.
func (s *Shell) Path() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.path
}

// ScrollOffset returns the current scroll offset.
func (s *Shell) ScrollOffset() float32 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.scroll.Offset()
}

// ScrollGeometry returns the geometry of the scroll area.
func (s *Shell) ScrollGeometry() state.Geometry {
	return s.scroll.Geometry()
}

// Wheel applies a mouse wheel gesture and returns the new offset.
func (s *Shell) Wheel(notches float32) float32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scroll.Wheel(notches)
}

// DragTo moves the handle to the pointer's absolute y and returns the new
// offset.
func (s *Shell) DragTo(y float32) float32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scroll.DragTo(y)
}
