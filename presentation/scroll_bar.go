package presentation

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
)

// scrollBar is the vertical track on the right of the main page. Taps and
// drags report the pointer's window y coordinate.
type scrollBar struct {
	widget.BaseWidget
	track  *canvas.Rectangle
	handle *canvas.Rectangle
	onMove func(y float32)
}

func newScrollBar(onMove func(y float32)) *scrollBar {
	s := &scrollBar{
		track:  canvas.NewRectangle(borderColor),
		handle: canvas.NewRectangle(buttonColor),
		onMove: onMove,
	}
	s.track.Resize(fyne.NewSize(trackWidth, trackHeight))
	s.handle.Resize(fyne.NewSize(trackWidth, handleHeight))
	s.ExtendBaseWidget(s)
	return s
}

// CreateRenderer implements fyne.Widget.
func (s *scrollBar) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(container.NewWithoutLayout(s.track, s.handle))
}

// SetOffset moves the handle to the given scroll offset.
func (s *scrollBar) SetOffset(offset float32) {
	s.handle.Move(handlePos(offset))
	s.handle.Refresh()
}

// Tapped jumps the handle to the tapped position.
func (s *scrollBar) Tapped(e *fyne.PointEvent) {
	s.move(e.Position.Y)
}

// Dragged follows the pointer while the handle is dragged.
func (s *scrollBar) Dragged(e *fyne.DragEvent) {
	s.move(e.Position.Y)
}

// DragEnd implements fyne.Draggable.
func (s *scrollBar) DragEnd() {}

// MinSize returns the track size.
func (s *scrollBar) MinSize() fyne.Size {
	return fyne.NewSize(trackWidth, trackHeight)
}

func (s *scrollBar) move(localY float32) {
	if s.onMove != nil {
		s.onMove(contentY + localY)
	}
}
