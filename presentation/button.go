package presentation

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
)

// flatButton is a solid coloured button with centred white text.
type flatButton struct {
	widget.BaseWidget
	background *canvas.Rectangle
	label      *canvas.Text
	onTapped   func()
}

func newFlatButton(text string, onTapped func()) *flatButton {
	b := &flatButton{
		background: canvas.NewRectangle(buttonColor),
		label:      canvas.NewText(text, buttonTextColor),
		onTapped:   onTapped,
	}
	b.label.Alignment = fyne.TextAlignCenter
	b.label.TextSize = reportSize
	b.ExtendBaseWidget(b)
	return b
}

// CreateRenderer implements fyne.Widget.
func (b *flatButton) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(container.NewStack(b.background, container.NewCenter(b.label)))
}

// Tapped implements fyne.Tappable.
func (b *flatButton) Tapped(*fyne.PointEvent) {
	if b.onTapped != nil {
		b.onTapped()
	}
}

// MinSize returns the fixed button size.
func (b *flatButton) MinSize() fyne.Size {
	return fyne.NewSize(buttonWidth, buttonHeight)
}
