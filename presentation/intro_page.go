package presentation

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
)

var welcomeParagraphs = []string{
	"Welcome to Handwritten Digit Recognizer!",
	"This application uses a trained neural network to recognize handwritten digits from images.",
	"Click the 'Start' button to begin.",
}

// IntroPage shows the welcome text and the Start button.
type IntroPage struct {
	content *fyne.Container
}

// NewIntroPage builds the page. onStart runs when Start is clicked.
func NewIntroPage(onStart func()) *IntroPage {
	objects := []fyne.CanvasObject{fullPageBackground()}

	lines := welcomeLines()
	top := float32(windowHeight/2-50) - float32(len(lines)*introLineH)
	for i, line := range lines {
		objects = append(objects, centredText(line, introSize, top+float32(i*introLineH)))
	}

	start := newFlatButton("Start", onStart)
	start.Resize(fyne.NewSize(buttonWidth, buttonHeight))
	start.Move(centredButtonPos(windowHeight/2 + 50))
	objects = append(objects, start)

	return &IntroPage{content: container.NewWithoutLayout(objects...)}
}

// Content returns the page's canvas object.
func (p *IntroPage) Content() fyne.CanvasObject {
	return p.content
}

// welcomeLines wraps every paragraph of the welcome text.
func welcomeLines() []string {
	var lines []string
	for _, p := range welcomeParagraphs {
		lines = append(lines, wrapText(p, introWrapAt)...)
	}
	return lines
}

func fullPageBackground() *canvas.Rectangle {
	bg := canvas.NewRectangle(backgroundColor)
	bg.Resize(fyne.NewSize(windowWidth, windowHeight))
	return bg
}

// centredText spans the window width so that centre alignment centres it.
func centredText(text string, size, y float32) *canvas.Text {
	t := canvas.NewText(text, textColor)
	t.TextSize = size
	t.Alignment = fyne.TextAlignCenter
	t.Resize(fyne.NewSize(windowWidth, size*1.4))
	t.Move(fyne.NewPos(0, y))
	return t
}
