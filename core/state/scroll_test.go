package state

import "testing"

func TestScroll_DefaultRangeIsZero(t *testing.T) {
	s := NewScroll(DefaultGeometry())

	if s.Min() != 0 || s.Max() != 0 {
		t.Fatalf("range = [%v, %v], want [0, 0]", s.Min(), s.Max())
	}

	tests := []struct {
		name string
		op   func() float32
	}{
		{"wheel up", func() float32 { return s.Wheel(1) }},
		{"wheel down", func() float32 { return s.Wheel(-3) }},
		{"drag below track", func() float32 { return s.DragTo(400) }},
		{"drag above track", func() float32 { return s.DragTo(10) }},
		{"set large", func() float32 { return s.Set(1e6) }},
		{"set negative", func() float32 { return s.Set(-50) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.op(); got != 0 {
				t.Errorf("offset = %v, want 0", got)
			}
			if s.HandleOffset() != s.Offset() {
				t.Errorf("handle %v != offset %v", s.HandleOffset(), s.Offset())
			}
		})
	}
}

func TestScroll_TallerContent(t *testing.T) {
	g := DefaultGeometry()
	g.ContentHeight = 400
	s := NewScroll(g)

	if s.Max() != 120 {
		t.Fatalf("Max() = %v, want 120", s.Max())
	}

	// Wheel down by two notches: offset grows by 2*30.
	if got := s.Wheel(-2); got != 60 {
		t.Errorf("Wheel(-2) = %v, want 60", got)
	}
	if got := s.Wheel(-10); got != 120 {
		t.Errorf("Wheel(-10) = %v, want 120 (clamped)", got)
	}
	if got := s.Wheel(1); got != 90 {
		t.Errorf("Wheel(1) = %v, want 90", got)
	}

	// Pointer at track top + 15 + 40 centres the handle at offset 40.
	if got := s.DragTo(g.TrackTop + 15 + 40); got != 40 {
		t.Errorf("DragTo() = %v, want 40", got)
	}
	if s.HandleOffset() != 40 {
		t.Errorf("HandleOffset() = %v, want 40", s.HandleOffset())
	}

	s.Reset()
	if s.Offset() != 0 {
		t.Errorf("Offset() after Reset = %v, want 0", s.Offset())
	}
}

func TestScroll_ContentShorterThanViewport(t *testing.T) {
	g := DefaultGeometry()
	g.ContentHeight = 100
	s := NewScroll(g)

	if s.Max() != 0 {
		t.Errorf("Max() = %v, want 0", s.Max())
	}
	if got := s.Wheel(-5); got != 0 {
		t.Errorf("Wheel(-5) = %v, want 0", got)
	}
}
