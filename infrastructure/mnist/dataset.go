// Package mnist fetches, verifies and parses the MNIST IDX files, and
// produces augmented training batches.
package mnist

import (
	"bufio"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"digitlens-go/domain/recognition"
)

// DefaultMirror serves the original IDX gzip files.
const DefaultMirror = "https://storage.googleapis.com/cvdf-datasets/mnist/"

const (
	imageMagic = 0x00000803
	labelMagic = 0x00000801

	// maxExamples is the size of the training split, the largest one.
	maxExamples = 60000
)

// ErrChecksum is returned when a file does not match its digest.
var ErrChecksum = errors.New("mnist file checksum mismatch")

// File names one IDX archive and its SHA-256 digest.
type File struct {
	Name   string
	SHA256 string
}

// The four archives of the dataset.
var (
	TrainImages = File{"train-images-idx3-ubyte.gz", "440fcabf73cc546fa21475e81ea370265605f56be210a4024d2ca8f203523609"}
	TrainLabels = File{"train-labels-idx1-ubyte.gz", "3552534a0a558bbed6aed32b30c495cca23d567ec52cac8be1a0730e8010255c"}
	TestImages  = File{"t10k-images-idx3-ubyte.gz", "8d422c7b0a1c1c79245a5bcf07fe86e33eeafee792b84584aec276f5a2dbc4e6"}
	TestLabels  = File{"t10k-labels-idx1-ubyte.gz", "f7ae60f92e00ec6debd23a6088c31dbd2371eca3ffa0defaefb259924204aec6"}
)

// Dataset is a set of 28×28 8-bit images with digit labels.
type Dataset struct {
	Images [][]uint8
	Labels []uint8
}

// Len returns the number of examples.
func (d *Dataset) Len() int {
	return len(d.Labels)
}

// Fill writes the examples at idx into images (flat N×1×28×28, scaled to
// [0,1]) and labels (one-hot N×10). A non-nil aug transforms each image.
func (d *Dataset) Fill(idx []int, aug *Augmenter, images, labels []float64) {
	const pixels = recognition.ImageSize * recognition.ImageSize
	for i := range labels[:len(idx)*recognition.NumClasses] {
		labels[i] = 0
	}
	for n, k := range idx {
		dst := images[n*pixels : (n+1)*pixels]
		for p, v := range d.Images[k] {
			dst[p] = float64(v) / 255
		}
		if aug != nil {
			aug.Apply(dst)
		}
		labels[n*recognition.NumClasses+int(d.Labels[k])] = 1
	}
}

// Loader locates the archives in a cache directory, downloading missing
// ones from a mirror.
type Loader struct {
	Dir    string
	Mirror string
	Verify bool
	Client *http.Client
	Logger *slog.Logger
}

// NewLoader returns a loader with defaults for empty fields.
func NewLoader(dir, mirror string, verify bool, logger *slog.Logger) *Loader {
	if dir == "" {
		dir = filepath.Join(os.TempDir(), "mnist")
	}
	if mirror == "" {
		mirror = DefaultMirror
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{Dir: dir, Mirror: mirror, Verify: verify, Client: http.DefaultClient, Logger: logger}
}

// Train loads the 60000-example training split.
func (l *Loader) Train(ctx context.Context) (*Dataset, error) {
	return l.load(ctx, TrainImages, TrainLabels)
}

// Test loads the 10000-example test split.
func (l *Loader) Test(ctx context.Context) (*Dataset, error) {
	return l.load(ctx, TestImages, TestLabels)
}

func (l *Loader) load(ctx context.Context, imgFile, lblFile File) (*Dataset, error) {
	imgPath, err := l.Ensure(ctx, imgFile)
	if err != nil {
		return nil, err
	}
	lblPath, err := l.Ensure(ctx, lblFile)
	if err != nil {
		return nil, err
	}

	var ds Dataset
	if err := readGzip(imgPath, func(r io.Reader) error {
		ds.Images, err = ParseImages(r)
		return err
	}); err != nil {
		return nil, fmt.Errorf("%s: %w", imgFile.Name, err)
	}
	if err := readGzip(lblPath, func(r io.Reader) error {
		ds.Labels, err = ParseLabels(r)
		return err
	}); err != nil {
		return nil, fmt.Errorf("%s: %w", lblFile.Name, err)
	}
	if len(ds.Images) != len(ds.Labels) {
		return nil, fmt.Errorf("%d images but %d labels", len(ds.Images), len(ds.Labels))
	}
	l.Logger.Info("MNIST split loaded", "images", imgFile.Name, "count", ds.Len())
	return &ds, nil
}

// Ensure returns the local path of f, downloading it when absent. With
// verification on, a download is checked before it enters the cache and a
// cached file that fails the check is fetched again once.
func (l *Loader) Ensure(ctx context.Context, f File) (string, error) {
	path := filepath.Join(l.Dir, f.Name)
	_, err := os.Stat(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		if err := l.download(ctx, f, path); err != nil {
			return "", err
		}
		return path, nil
	case err != nil:
		return "", err
	}

	if !l.Verify {
		return path, nil
	}
	err = verify(path, f.SHA256)
	switch {
	case err == nil:
		return path, nil
	case !errors.Is(err, ErrChecksum):
		return "", err
	}
	l.Logger.Warn("Cached MNIST file is corrupt, downloading again", "path", path, "error", err)
	if err := os.Remove(path); err != nil {
		return "", err
	}
	if err := l.download(ctx, f, path); err != nil {
		return "", err
	}
	return path, nil
}

func (l *Loader) download(ctx context.Context, f File, path string) error {
	if err := os.MkdirAll(l.Dir, 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}

	url := l.Mirror + f.Name
	l.Logger.Info("Downloading MNIST file", "url", url)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := l.Client.Do(req)
	if err != nil {
		return fmt.Errorf("download %s: %w", f.Name, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download %s: unexpected status %s", f.Name, resp.Status)
	}

	tmp, err := os.CreateTemp(l.Dir, f.Name+".*.part")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", f.Name, err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if l.Verify {
		if err := verify(tmp.Name(), f.SHA256); err != nil {
			return fmt.Errorf("download %s: %w", f.Name, err)
		}
	}
	return os.Rename(tmp.Name(), path)
}

func verify(path, want string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return fmt.Errorf("hash %s: %w", path, err)
	}
	if got := fmt.Sprintf("%x", h.Sum(nil)); got != want {
		return fmt.Errorf("%w: %s has %s", ErrChecksum, path, got)
	}
	return nil
}

func readGzip(path string, fn func(io.Reader) error) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	zr, err := gzip.NewReader(f)
	if err != nil {
		return err
	}
	defer zr.Close()
	return fn(bufio.NewReader(zr))
}

// ParseImages reads an uncompressed IDX3 image file.
func ParseImages(r io.Reader) ([][]uint8, error) {
	var header [4]uint32
	if err := binary.Read(r, binary.BigEndian, &header); err != nil {
		return nil, fmt.Errorf("read image header: %w", err)
	}
	if header[0] != imageMagic {
		return nil, fmt.Errorf("bad image magic %#08x", header[0])
	}
	count, rows, cols := int(header[1]), int(header[2]), int(header[3])
	if rows != recognition.ImageSize || cols != recognition.ImageSize {
		return nil, fmt.Errorf("images are %dx%d, want 28x28", rows, cols)
	}
	if count > maxExamples {
		return nil, fmt.Errorf("image count %d exceeds %d", count, maxExamples)
	}

	images := make([][]uint8, count)
	for i := range images {
		images[i] = make([]uint8, rows*cols)
		if _, err := io.ReadFull(r, images[i]); err != nil {
			return nil, fmt.Errorf("read image %d: %w", i, err)
		}
	}
	return images, nil
}

// ParseLabels reads an uncompressed IDX1 label file.
func ParseLabels(r io.Reader) ([]uint8, error) {
	var header [2]uint32
	if err := binary.Read(r, binary.BigEndian, &header); err != nil {
		return nil, fmt.Errorf("read label header: %w", err)
	}
	if header[0] != labelMagic {
		return nil, fmt.Errorf("bad label magic %#08x", header[0])
	}

	if header[1] > maxExamples {
		return nil, fmt.Errorf("label count %d exceeds %d", header[1], maxExamples)
	}

	labels := make([]uint8, header[1])
	if _, err := io.ReadFull(r, labels); err != nil {
		return nil, fmt.Errorf("read labels: %w", err)
	}
	for i, l := range labels {
		if int(l) >= recognition.NumClasses {
			return nil, fmt.Errorf("label %d out of range: %d", i, l)
		}
	}
	return labels, nil
}
