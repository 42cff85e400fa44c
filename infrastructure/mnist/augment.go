package mnist

import (
	"image"
	"image/color"
	"math"
	"math/rand"

	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"

	"digitlens-go/domain/recognition"
)

// AugmentConfig holds the random transform ranges.
type AugmentConfig struct {
	RotationDegrees float64 // uniform in ±RotationDegrees
	WidthShift      float64 // fraction of the width
	HeightShift     float64 // fraction of the height
	ShearDegrees    float64
	Zoom            float64 // per-axis scale in [1-Zoom, 1+Zoom]
	HorizontalFlip  bool    // mirror with probability 0.5
}

// DefaultAugmentConfig returns the ranges used for training.
func DefaultAugmentConfig() AugmentConfig {
	return AugmentConfig{
		RotationDegrees: 10,
		WidthShift:      0.1,
		HeightShift:     0.1,
		ShearDegrees:    0.1,
		Zoom:            0.1,
		HorizontalFlip:  true,
	}
}

// Augmenter applies a random affine transform to 28×28 images. Samples
// outside the image take the nearest edge value. Not safe for concurrent
// use.
type Augmenter struct {
	cfg AugmentConfig
	rng *rand.Rand
	src *image.Gray16
	dst *image.Gray16
}

// edge is the width of the replicated border around the source image.
const edge = recognition.ImageSize

// NewAugmenter creates an augmenter drawing from a seeded source.
func NewAugmenter(cfg AugmentConfig, seed int64) *Augmenter {
	const size = recognition.ImageSize
	return &Augmenter{
		cfg: cfg,
		rng: rand.New(rand.NewSource(seed)),
		src: image.NewGray16(image.Rect(-edge, -edge, size+edge, size+edge)),
		dst: image.NewGray16(image.Rect(0, 0, size, size)),
	}
}

func (a *Augmenter) uniform(limit float64) float64 {
	if limit == 0 {
		return 0
	}
	return (a.rng.Float64()*2 - 1) * limit
}

// Apply transforms img in place.
func (a *Augmenter) Apply(img []float64) {
	const size = recognition.ImageSize

	theta := a.uniform(a.cfg.RotationDegrees) * math.Pi / 180
	shear := a.uniform(a.cfg.ShearDegrees) * math.Pi / 180
	tr := a.uniform(a.cfg.HeightShift) * size
	tc := a.uniform(a.cfg.WidthShift) * size
	zr := 1 + a.uniform(a.cfg.Zoom)
	zc := 1 + a.uniform(a.cfg.Zoom)
	flip := a.cfg.HorizontalFlip && a.rng.Float64() < 0.5

	// rotation · shift · shear · zoom in (row, col) order, mapping output
	// coordinates to input ones; the shift is rotated but not sheared
	cos, sin := math.Cos(theta), math.Sin(theta)
	shSin, shCos := math.Sin(shear), math.Cos(shear)
	m00 := cos * zr
	m01 := (-cos*shSin - sin*shCos) * zc
	m10 := sin * zr
	m11 := (cos*shCos - sin*shSin) * zc
	sr := cos*tr - sin*tc
	sc := sin*tr + cos*tc

	a.load(img)

	// the same map in (x, y) about the image centre
	const c = float64(size) / 2
	d2s := f64.Aff3{
		m11, m10, c + sc - c*(m11+m10),
		m01, m00, c + sr - c*(m01+m00),
	}
	draw.Draw(a.dst, a.dst.Bounds(), image.Transparent, image.Point{}, draw.Src)
	draw.BiLinear.Transform(a.dst, invert(d2s), a.src, a.src.Bounds(), draw.Src, nil)

	for r := 0; r < size; r++ {
		for col := 0; col < size; col++ {
			v := float64(a.dst.Gray16At(col, r).Y) / 0xffff
			if flip {
				img[r*size+size-1-col] = v
			} else {
				img[r*size+col] = v
			}
		}
	}
}

// load copies img into the source, replicating the edge pixels outward.
func (a *Augmenter) load(img []float64) {
	const size = recognition.ImageSize
	b := a.src.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		r := min(max(y, 0), size-1)
		for x := b.Min.X; x < b.Max.X; x++ {
			col := min(max(x, 0), size-1)
			v := math.Round(math.Max(0, math.Min(img[r*size+col], 1)) * 0xffff)
			a.src.SetGray16(x, y, color.Gray16{Y: uint16(v)})
		}
	}
}

// invert returns the inverse of an affine map.
func invert(m f64.Aff3) f64.Aff3 {
	det := m[0]*m[4] - m[1]*m[3]
	return f64.Aff3{
		m[4] / det, -m[1] / det, (m[1]*m[5] - m[4]*m[2]) / det,
		-m[3] / det, m[0] / det, (m[3]*m[2] - m[0]*m[5]) / det,
	}
}
