// Package imaging converts user images into classifier input and previews.
package imaging

import (
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"log/slog"
	"os"

	"github.com/nfnt/resize"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"digitlens-go/domain/recognition"
)

// ErrDecode is returned when a file cannot be decoded as an image.
var ErrDecode = errors.New("failed to decode image")

// Config holds preprocessing parameters.
type Config struct {
	// Size is the side of the square network input.
	Size int
	// BlockSize is the neighbourhood used for the local mean. Must be odd.
	BlockSize int
	// Offset is subtracted from the local mean to get the threshold.
	Offset float64
}

// DefaultConfig returns the parameters the classifier was trained for.
func DefaultConfig() *Config {
	return &Config{
		Size:      recognition.ImageSize,
		BlockSize: 15,
		Offset:    -2,
	}
}

// Preprocessor implements recognition.Preprocessor.
type Preprocessor struct {
	config *Config
	logger *slog.Logger
}

// NewPreprocessor creates a preprocessor. A nil config uses DefaultConfig.
func NewPreprocessor(cfg *Config, logger *slog.Logger) (*Preprocessor, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Size != recognition.ImageSize {
		return nil, fmt.Errorf("unsupported input size %d, classifier expects %d", cfg.Size, recognition.ImageSize)
	}
	if cfg.BlockSize < 3 || cfg.BlockSize%2 == 0 {
		return nil, fmt.Errorf("block size must be odd and >= 3, got %d", cfg.BlockSize)
	}
	return &Preprocessor{config: cfg, logger: logger}, nil
}

// Load opens and decodes an image file. The file is closed before returning.
func (p *Preprocessor) Load(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	img, err := p.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return img, nil
}

// Decode decodes an image from r.
func (p *Preprocessor) Decode(r io.Reader) (image.Image, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	b := img.Bounds()
	if b.Empty() {
		return nil, fmt.Errorf("%w: empty image", ErrDecode)
	}
	p.logger.Debug("Image decoded", "format", format, "width", b.Dx(), "height", b.Dy())
	return img, nil
}

// Normalize converts img into a 1×28×28 tensor: grayscale, Lanczos3
// resize, mean adaptive threshold, scale to [0,1].
func (p *Preprocessor) Normalize(img image.Image) (*recognition.Tensor, error) {
	if img == nil {
		return nil, fmt.Errorf("%w: nil image", ErrDecode)
	}

	size := p.config.Size
	small := toGray(resize.Resize(uint(size), uint(size), toGray(img), resize.Lanczos3))

	binary, err := adaptiveThreshold(packGray(small), size, size, p.config.BlockSize, p.config.Offset)
	if err != nil {
		return nil, fmt.Errorf("threshold: %w", err)
	}

	data := make([]float32, len(binary))
	for i, v := range binary {
		data[i] = float32(v) / 255
	}
	return recognition.NewTensor(data)
}

// Preprocess loads the file at path and normalizes it.
func (p *Preprocessor) Preprocess(path string) (*recognition.Tensor, error) {
	img, err := p.Load(path)
	if err != nil {
		return nil, err
	}
	return p.Normalize(img)
}

// Preview returns img scaled to width×height with a Lanczos3 filter.
func Preview(img image.Image, width, height int) image.Image {
	return resize.Resize(uint(width), uint(height), img, resize.Lanczos3)
}

// toGray converts img to 8-bit luma. *image.Gray inputs are returned as is.
func toGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok {
		return g
	}
	b := img.Bounds()
	gray := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(gray, gray.Bounds(), img, b.Min, draw.Src)
	return gray
}

// packGray copies the pixels of g into a tightly packed row-major slice.
func packGray(g *image.Gray) []uint8 {
	b := g.Bounds()
	w, h := b.Dx(), b.Dy()
	out := make([]uint8, w*h)
	for y := 0; y < h; y++ {
		start := (y+b.Min.Y-g.Rect.Min.Y)*g.Stride + (b.Min.X - g.Rect.Min.X)
		copy(out[y*w:(y+1)*w], g.Pix[start:start+w])
	}
	return out
}

var _ recognition.Preprocessor = (*Preprocessor)(nil)
