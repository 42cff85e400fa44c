package state

// Geometry of the scrollable area on the main page, in pixels.
type Geometry struct {
	// ContentHeight is the height of the scrolled content (the preview).
	ContentHeight float32
	// ViewportHeight is the visible height of the scroll track.
	ViewportHeight float32
	// TrackTop is the y coordinate of the top of the scroll track.
	TrackTop float32
	// HandleHeight is the height of the draggable handle.
	HandleHeight float32
	// WheelStep is the distance moved per wheel notch.
	WheelStep float32
}

// DefaultGeometry mirrors the main page layout: a 280px preview inside a
// 280px track, so the scroll range collapses to [0, 0].
func DefaultGeometry() Geometry {
	return Geometry{
		ContentHeight:  280,
		ViewportHeight: 280,
		TrackTop:       150,
		HandleHeight:   30,
		WheelStep:      30,
	}
}

// Scroll tracks a vertical scroll offset that never leaves [Min, Max].
type Scroll struct {
	geometry Geometry
	offset   float32
}

// NewScroll creates a scroll state at offset zero.
func NewScroll(g Geometry) *Scroll {
	return &Scroll{geometry: g}
}

// Geometry returns the geometry the scroll state was built with.
func (s *Scroll) Geometry() Geometry {
	return s.geometry
}

// Min returns the lowest valid offset.
func (s *Scroll) Min() float32 {
	return 0
}

// Max returns the highest valid offset.
func (s *Scroll) Max() float32 {
	m := s.geometry.ContentHeight - s.geometry.ViewportHeight
	if m < 0 {
		return 0
	}
	return m
}

// Offset returns the current offset.
func (s *Scroll) Offset() float32 {
	return s.offset
}

// HandleOffset returns the handle position relative to the track top.
// It is always equal to Offset.
func (s *Scroll) HandleOffset() float32 {
	return s.offset
}

// Set moves to offset, clamped to the valid range, and returns the result.
func (s *Scroll) Set(offset float32) float32 {
	s.offset = s.clamp(offset)
	return s.offset
}

// Wheel applies a wheel gesture. Positive notches scroll up.
func (s *Scroll) Wheel(notches float32) float32 {
	return s.Set(s.offset - notches*s.geometry.WheelStep)
}

// DragTo centres the handle on the absolute y coordinate of the pointer.
func (s *Scroll) DragTo(y float32) float32 {
	return s.Set(y - s.geometry.TrackTop - s.geometry.HandleHeight/2)
}

// Reset returns to offset zero.
func (s *Scroll) Reset() {
	s.offset = 0
}

func (s *Scroll) clamp(v float32) float32 {
	if v < s.Min() {
		return s.Min()
	}
	if v > s.Max() {
		return s.Max()
	}
	return v
}
