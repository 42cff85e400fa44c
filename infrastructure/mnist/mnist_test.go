package mnist

import (
	"bytes"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/image/math/f64"

	"digitlens-go/domain/recognition"
)

const pixels = recognition.ImageSize * recognition.ImageSize

func idxImages(images ...[]uint8) []byte {
	var buf bytes.Buffer
	binary.Write(&buf, binary.BigEndian, [4]uint32{imageMagic, uint32(len(images)), 28, 28})
	for _, img := range images {
		buf.Write(img)
	}
	return buf.Bytes()
}

func idxLabels(labels ...uint8) []byte {
	var buf bytes.Buffer
	binary.Write(&buf, binary.BigEndian, [2]uint32{labelMagic, uint32(len(labels))})
	buf.Write(labels)
	return buf.Bytes()
}

func gz(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write(data)
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func digest(data []byte) string {
	return fmt.Sprintf("%x", sha256.Sum256(data))
}

func filled(v uint8) []uint8 {
	img := make([]uint8, pixels)
	for i := range img {
		img[i] = v
	}
	return img
}

func TestParseImages(t *testing.T) {
	images, err := ParseImages(bytes.NewReader(idxImages(filled(1), filled(2))))
	require.NoError(t, err)
	require.Len(t, images, 2)
	require.Equal(t, uint8(2), images[1][pixels-1])

	_, err = ParseImages(bytes.NewReader(idxLabels(1)))
	require.Error(t, err)

	truncated := idxImages(filled(1))[:100]
	_, err = ParseImages(bytes.NewReader(truncated))
	require.Error(t, err)

	var huge bytes.Buffer
	binary.Write(&huge, binary.BigEndian, [4]uint32{imageMagic, 1 << 30, 28, 28})
	_, err = ParseImages(&huge)
	require.ErrorContains(t, err, "exceeds")
}

func TestParseLabels(t *testing.T) {
	labels, err := ParseLabels(bytes.NewReader(idxLabels(7, 0, 9)))
	require.NoError(t, err)
	require.Equal(t, []uint8{7, 0, 9}, labels)

	_, err = ParseLabels(bytes.NewReader(idxLabels(10)))
	require.Error(t, err)

	var huge bytes.Buffer
	binary.Write(&huge, binary.BigEndian, [2]uint32{labelMagic, 1 << 31})
	_, err = ParseLabels(&huge)
	require.ErrorContains(t, err, "exceeds")
}

func TestLoader_DownloadsAndCaches(t *testing.T) {
	images := gz(t, idxImages(filled(255), filled(0)))
	labels := gz(t, idxLabels(3, 8))
	served := map[string][]byte{
		TestImages.Name: images,
		TestLabels.Name: labels,
	}
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		data, ok := served[filepath.Base(r.URL.Path)]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Write(data)
	}))
	defer srv.Close()

	dir := t.TempDir()
	l := NewLoader(dir, srv.URL+"/", false, nil)

	ds, err := l.Test(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, ds.Len())
	require.Equal(t, uint8(8), ds.Labels[1])
	require.Equal(t, int32(2), hits.Load())

	_, err = l.Test(context.Background())
	require.NoError(t, err)
	require.Equal(t, int32(2), hits.Load(), "second load is served from the cache")

	_, err = l.Train(context.Background())
	require.Error(t, err)
}

// flakyMirror serves bad bytes for the first n requests and data after.
func flakyMirror(t *testing.T, data []byte, n int32) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) <= n {
			w.Write([]byte("truncated"))
			return
		}
		w.Write(data)
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func TestLoader_Checksum(t *testing.T) {
	dir := t.TempDir()
	data := gz(t, idxLabels(1, 2, 3))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "labels.gz"), data, 0o644))
	srv, hits := flakyMirror(t, data, 0)

	l := NewLoader(dir, srv.URL+"/", true, nil)
	path, err := l.Ensure(context.Background(), File{Name: "labels.gz", SHA256: digest(data)})
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "labels.gz"), path)
	require.Zero(t, hits.Load())

	_, err = l.Ensure(context.Background(), File{Name: "labels.gz", SHA256: digest([]byte("other"))})
	require.ErrorIs(t, err, ErrChecksum)
	require.Equal(t, int32(1), hits.Load())
}

func TestLoader_BadDownloadIsNotCached(t *testing.T) {
	dir := t.TempDir()
	data := gz(t, idxLabels(4, 5))
	f := File{Name: "labels.gz", SHA256: digest(data)}
	srv, hits := flakyMirror(t, data, 1)
	l := NewLoader(dir, srv.URL+"/", true, nil)

	_, err := l.Ensure(context.Background(), f)
	require.ErrorIs(t, err, ErrChecksum)
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Empty(t, entries, "nothing is left in the cache")

	path, err := l.Ensure(context.Background(), f)
	require.NoError(t, err)
	require.Equal(t, int32(2), hits.Load())
	got, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, data, got)
}

func TestLoader_CorruptCacheIsRefetched(t *testing.T) {
	dir := t.TempDir()
	data := gz(t, idxLabels(6))
	path := filepath.Join(dir, "labels.gz")
	require.NoError(t, os.WriteFile(path, data[:len(data)/2], 0o644))
	srv, hits := flakyMirror(t, data, 0)

	l := NewLoader(dir, srv.URL+"/", true, nil)
	got, err := l.Ensure(context.Background(), File{Name: "labels.gz", SHA256: digest(data)})
	require.NoError(t, err)
	require.Equal(t, path, got)
	require.Equal(t, int32(1), hits.Load())

	cached, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, data, cached)
}

func TestDataset_Fill(t *testing.T) {
	ds := &Dataset{
		Images: [][]uint8{filled(255), filled(51)},
		Labels: []uint8{4, 9},
	}
	images := make([]float64, 2*pixels)
	labels := make([]float64, 2*recognition.NumClasses)
	labels[0] = 1

	ds.Fill([]int{1, 0}, nil, images, labels)
	require.InDelta(t, 0.2, images[0], 1e-12)
	require.Equal(t, 1.0, images[pixels])
	require.Equal(t, 1.0, labels[9])
	require.Equal(t, 1.0, labels[recognition.NumClasses+4])
	require.Zero(t, labels[0])
}

func TestAugmenter_Identity(t *testing.T) {
	a := NewAugmenter(AugmentConfig{}, 1)
	img := make([]float64, pixels)
	for i := range img {
		img[i] = float64(i%17) / 16
	}
	want := append([]float64(nil), img...)

	a.Apply(img)
	for i := range img {
		require.InDelta(t, want[i], img[i], 1e-4)
	}
}

func TestInvert(t *testing.T) {
	m := f64.Aff3{0.9, -0.2, 3, 0.1, 1.1, -2}
	inv := invert(m)

	x, y := 5.0, 7.0
	sx := m[0]*x + m[1]*y + m[2]
	sy := m[3]*x + m[4]*y + m[5]
	require.InDelta(t, x, inv[0]*sx+inv[1]*sy+inv[2], 1e-9)
	require.InDelta(t, y, inv[3]*sx+inv[4]*sy+inv[5], 1e-9)
}

func TestAugmenter_FlipOnly(t *testing.T) {
	a := NewAugmenter(AugmentConfig{HorizontalFlip: true}, 7)
	base := make([]float64, pixels)
	base[3] = 1 // row 0, column 3

	flipped, kept := 0, 0
	for i := 0; i < 64; i++ {
		img := append([]float64(nil), base...)
		a.Apply(img)
		switch {
		case img[3] == 1:
			kept++
		case img[recognition.ImageSize-1-3] == 1:
			flipped++
		default:
			t.Fatalf("flip produced an unexpected image")
		}
	}
	require.Greater(t, flipped, 0)
	require.Greater(t, kept, 0)
}

func TestAugmenter_DefaultKeepsRange(t *testing.T) {
	a := NewAugmenter(DefaultAugmentConfig(), 42)
	img := make([]float64, pixels)
	for r := 8; r < 20; r++ {
		img[r*recognition.ImageSize+14] = 1
	}
	for i := 0; i < 20; i++ {
		out := append([]float64(nil), img...)
		a.Apply(out)
		for _, v := range out {
			require.GreaterOrEqual(t, v, -1e-12)
			require.LessOrEqual(t, v, 1+1e-12)
		}
	}
}
