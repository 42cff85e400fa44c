package presentation

import (
	"context"
	"image/color"
	"log/slog"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"

	"digitlens-go/application"
	"digitlens-go/domain/recognition"
)

const (
	reportLines      = 3 + recognition.NumClasses
	msgModelMissing  = "Model not loaded: predictions are unavailable."
	msgNothingOpened = "Open an image of a handwritten digit."
)

// MainPage shows the Open Image button, the preview, the report and the
// scrollbar.
type MainPage struct {
	shell    *application.Shell
	parent   fyne.Window
	allFiles bool
	logger   *slog.Logger

	preview *canvas.Image
	border  *canvas.Rectangle
	report  []*canvas.Text
	bar     *scrollBar
	content *fyne.Container
}

// MainPageConfig holds configuration for MainPage.
type MainPageConfig struct {
	Shell    *application.Shell
	Parent   fyne.Window
	AllFiles bool
	Logger   *slog.Logger
}

// NewMainPage builds the page.
func NewMainPage(cfg *MainPageConfig) *MainPage {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	p := &MainPage{
		shell:    cfg.Shell,
		parent:   cfg.Parent,
		allFiles: cfg.AllFiles,
		logger:   cfg.Logger,
	}
	p.init()
	p.Refresh()
	return p
}

func (p *MainPage) init() {
	wheel := newWheelArea(p.onWheel)
	wheel.Resize(fyne.NewSize(windowWidth, windowHeight))

	title := centredText("Digit Recognition", titleSize, titleY-titleSize/2)

	open := newFlatButton("Open Image", p.showFileDialog)
	open.Resize(fyne.NewSize(buttonWidth, buttonHeight))
	open.Move(centredButtonPos(buttonY))

	p.border = canvas.NewRectangle(color.Transparent)
	p.border.StrokeColor = borderColor
	p.border.StrokeWidth = borderWidth
	p.border.Resize(fyne.NewSize(previewSize+2*borderWidth, previewSize+2*borderWidth))

	p.preview = canvas.NewImageFromImage(nil)
	p.preview.FillMode = canvas.ImageFillStretch
	p.preview.ScaleMode = canvas.ImageScaleSmooth
	p.preview.Resize(fyne.NewSize(previewSize, previewSize))

	objects := []fyne.CanvasObject{fullPageBackground(), wheel, title, open, p.border, p.preview}
	p.report = make([]*canvas.Text, reportLines)
	for i := range p.report {
		t := canvas.NewText("", textColor)
		t.TextSize = reportSize
		p.report[i] = t
		objects = append(objects, t)
	}

	p.bar = newScrollBar(p.onDrag)
	p.bar.Resize(fyne.NewSize(trackWidth, trackHeight))
	p.bar.Move(fyne.NewPos(trackX, contentY))
	objects = append(objects, p.bar)

	p.content = container.NewWithoutLayout(objects...)
}

// Content returns the page's canvas object.
func (p *MainPage) Content() fyne.CanvasObject {
	return p.content
}

// Refresh redraws the page from the shell state.
func (p *MainPage) Refresh() {
	offset := p.shell.ScrollOffset()

	pos := previewPos(offset)
	p.preview.Image = p.shell.Preview()
	p.preview.Move(pos)
	p.preview.Refresh()
	p.border.Move(pos.SubtractXY(borderWidth, borderWidth))
	p.border.Refresh()

	lines := p.shell.Report()
	if lines == nil {
		lines = []string{msgNothingOpened}
		if !p.shell.ModelAvailable() {
			lines = []string{msgModelMissing}
		}
	}
	for i, t := range p.report {
		t.Text = ""
		if i < len(lines) {
			t.Text = lines[i]
		}
		t.Move(reportLinePos(i, offset))
		t.Refresh()
	}

	p.bar.SetOffset(offset)
}

func (p *MainPage) showFileDialog() {
	d := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil {
			p.logger.Error("File dialog failed", "error", err)
			dialog.ShowError(err, p.parent)
			return
		}
		if reader == nil {
			// cancelled
			return
		}
		path := reader.URI().Path()
		reader.Close()
		p.logger.Debug("Image selected", "path", path)
		p.openImage(path)
	}, p.parent)
	d.SetFilter(imageFilter(p.allFiles))
	d.Resize(fyne.NewSize(windowWidth-40, windowHeight-40))
	d.Show()
}

func (p *MainPage) openImage(path string) {
	// the shell logs the failure and keeps the previous prediction
	if err := p.shell.OpenImage(context.Background(), path); err != nil {
		dialog.ShowError(err, p.parent)
	}
	p.Refresh()
}

func (p *MainPage) onWheel(notches float32) {
	p.shell.Wheel(notches)
	p.Refresh()
}

func (p *MainPage) onDrag(y float32) {
	p.shell.DragTo(y)
	p.Refresh()
}

// wheelArea is a transparent full-page widget that receives wheel events.
type wheelArea struct {
	widget.BaseWidget
	onWheel func(notches float32)
}

func newWheelArea(onWheel func(notches float32)) *wheelArea {
	w := &wheelArea{onWheel: onWheel}
	w.ExtendBaseWidget(w)
	return w
}

// CreateRenderer implements fyne.Widget.
func (w *wheelArea) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(canvas.NewRectangle(color.Transparent))
}

// Scrolled implements fyne.Scrollable.
func (w *wheelArea) Scrolled(e *fyne.ScrollEvent) {
	if n := wheelNotches(e.Scrolled.DY); n != 0 && w.onWheel != nil {
		w.onWheel(n)
	}
}
