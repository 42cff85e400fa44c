package imaging

import (
	"errors"
	"image"
	"image/color"
	"image/png"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"digitlens-go/domain/recognition"
)

// drawSeven paints a thick white "7" on black, the way MNIST digits look.
func drawSeven(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{A: 255})
		}
	}
	white := color.RGBA{R: 250, G: 250, B: 250, A: 255}
	stroke := w / 10
	// top bar
	for y := h / 5; y < h/5+stroke; y++ {
		for x := w / 4; x < 3*w/4; x++ {
			img.Set(x, y, white)
		}
	}
	// diagonal
	for y := h / 5; y < 4*h/5; y++ {
		cx := 3*w/4 - (y-h/5)*(w/3)/(3*h/5)
		for x := cx - stroke; x < cx; x++ {
			img.Set(x, y, white)
		}
	}
	return img
}

func writePNG(t *testing.T, img image.Image) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "digit.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())
	return path
}

func newTestPreprocessor(t *testing.T) *Preprocessor {
	t.Helper()
	p, err := NewPreprocessor(nil, nil)
	require.NoError(t, err)
	return p
}

func TestPreprocess_ShapeAndRange(t *testing.T) {
	p := newTestPreprocessor(t)
	path := writePNG(t, drawSeven(200, 160))

	tensor, err := p.Preprocess(path)
	require.NoError(t, err)
	require.Equal(t, [3]int{1, 28, 28}, tensor.Shape())
	require.Len(t, tensor.Data, recognition.ImageSize*recognition.ImageSize)

	ink := 0
	for _, v := range tensor.Data {
		require.True(t, v == 0 || v == 1, "binarized value %v", v)
		if v == 1 {
			ink++
		}
	}
	require.Greater(t, ink, 0, "stroke pixels survive thresholding")
	require.Less(t, ink, len(tensor.Data)/2, "background stays dark")
}

func TestPreprocess_Deterministic(t *testing.T) {
	p := newTestPreprocessor(t)
	path := writePNG(t, drawSeven(97, 131))

	first, err := p.Preprocess(path)
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		again, err := p.Preprocess(path)
		require.NoError(t, err)
		require.Equal(t, first.Data, again.Data)
	}
}

func TestPreprocess_SmallAndGrayInputs(t *testing.T) {
	p := newTestPreprocessor(t)

	tiny := image.NewGray(image.Rect(0, 0, 3, 5))
	tiny.SetGray(1, 2, color.Gray{Y: 255})
	tensor, err := p.Normalize(tiny)
	require.NoError(t, err)
	require.Len(t, tensor.Data, 28*28)

	offset := image.NewRGBA(image.Rect(10, 10, 60, 60))
	tensor, err = p.Normalize(offset)
	require.NoError(t, err)
	for _, v := range tensor.Data {
		require.Zero(t, v, "uniform image has no ink")
	}
}

func TestPreprocess_CorruptFile(t *testing.T) {
	p := newTestPreprocessor(t)
	path := filepath.Join(t.TempDir(), "broken.png")
	require.NoError(t, os.WriteFile(path, []byte("definitely not an image"), 0o644))

	_, err := p.Preprocess(path)
	require.ErrorIs(t, err, ErrDecode)
}

func TestPreprocess_MissingFile(t *testing.T) {
	p := newTestPreprocessor(t)
	_, err := p.Preprocess(filepath.Join(t.TempDir(), "missing.png"))
	require.True(t, errors.Is(err, fs.ErrNotExist), "error = %v", err)
}

func TestDecode_Reader(t *testing.T) {
	p := newTestPreprocessor(t)
	_, err := p.Decode(strings.NewReader("GIF89a but not really"))
	require.ErrorIs(t, err, ErrDecode)
}

func TestNewPreprocessor_Validation(t *testing.T) {
	_, err := NewPreprocessor(&Config{Size: 32, BlockSize: 15, Offset: -2}, nil)
	require.Error(t, err)

	_, err = NewPreprocessor(&Config{Size: 28, BlockSize: 14, Offset: -2}, nil)
	require.Error(t, err)
}

func TestPreview_Size(t *testing.T) {
	img := Preview(drawSeven(640, 480), 280, 280)
	require.Equal(t, 280, img.Bounds().Dx())
	require.Equal(t, 280, img.Bounds().Dy())
}
