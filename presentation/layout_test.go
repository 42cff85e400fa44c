package presentation

import (
	"reflect"
	"testing"

	"fyne.io/fyne/v2"
)

func TestWrapText(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		width int
		want  []string
	}{
		{"empty", "", 10, nil},
		{"fits", "hello world", 11, []string{"hello world"}},
		{"breaks", "hello world", 10, []string{"hello", "world"}},
		{"long word", "a verylongword b", 5, []string{"a", "verylongword", "b"}},
		{"extra spaces", "  one   two  ", 20, []string{"one two"}},
		{
			"welcome",
			"This application uses a trained neural network to recognize handwritten digits from images.",
			50,
			[]string{
				"This application uses a trained neural network to",
				"recognize handwritten digits from images.",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := wrapText(tt.text, tt.width)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("wrapText() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWelcomeLines_FitWidth(t *testing.T) {
	lines := welcomeLines()
	if len(lines) != 4 {
		t.Errorf("welcomeLines() returned %d lines, want 4", len(lines))
	}
	for _, l := range lines {
		if len(l) > introWrapAt {
			t.Errorf("line %q is longer than %d", l, introWrapAt)
		}
	}
}

func TestLayoutPositions(t *testing.T) {
	if got := centredButtonPos(buttonY); got != fyne.NewPos(320, 100) {
		t.Errorf("centredButtonPos() = %v, want (320, 100)", got)
	}
	if got := previewPos(0); got != fyne.NewPos(50, 150) {
		t.Errorf("previewPos(0) = %v, want (50, 150)", got)
	}
	if got := previewPos(10); got != fyne.NewPos(50, 160) {
		t.Errorf("previewPos(10) = %v, want (50, 160)", got)
	}
	if got := reportLinePos(0, 0); got != fyne.NewPos(350, 150) {
		t.Errorf("reportLinePos(0, 0) = %v, want (350, 150)", got)
	}
	if got := reportLinePos(2, 5); got != fyne.NewPos(350, 195) {
		t.Errorf("reportLinePos(2, 5) = %v, want (350, 195)", got)
	}
	if got := handlePos(12); got != fyne.NewPos(0, 12) {
		t.Errorf("handlePos(12) = %v, want (0, 12)", got)
	}
	if trackX+trackWidth != windowWidth {
		t.Errorf("scroll track ends at %d, want window edge %d", trackX+trackWidth, windowWidth)
	}
	if last := reportLinePos(reportLines-1, 0); last.Y+reportLineH > windowHeight {
		t.Errorf("report overflows the window: last line at %v", last)
	}
}

func TestLayoutPositions_MoveTogether(t *testing.T) {
	for _, offset := range []float32{0, 25, 120} {
		preview := previewPos(offset).Y - previewPos(0).Y
		report := reportLinePos(3, offset).Y - reportLinePos(3, 0).Y
		handle := handlePos(offset).Y - handlePos(0).Y
		if preview != offset || report != offset || handle != offset {
			t.Errorf("offset %v moved preview %v, report %v, handle %v", offset, preview, report, handle)
		}
	}
}

func TestWheelNotches(t *testing.T) {
	tests := []struct {
		dy   float32
		want float32
	}{
		{0, 0},
		{3.5, 1},
		{-12, -1},
	}
	for _, tt := range tests {
		if got := wheelNotches(tt.dy); got != tt.want {
			t.Errorf("wheelNotches(%v) = %v, want %v", tt.dy, got, tt.want)
		}
	}
}

func TestImageFilter(t *testing.T) {
	if imageFilter(true) != nil {
		t.Error("imageFilter(true) should allow all files")
	}
	if imageFilter(false) == nil {
		t.Fatal("imageFilter(false) returned nil")
	}
	if len(imageExtensions) != 8 {
		t.Errorf("imageExtensions has %d entries, want 8", len(imageExtensions))
	}
}
