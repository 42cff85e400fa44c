// Package presentation draws the desktop shell with Fyne.
package presentation

import (
	"log/slog"

	"fyne.io/fyne/v2"

	"digitlens-go/application"
)

// WindowTitle is the title of the main window.
const WindowTitle = "Handwritten Digit Recognizer"

// MainWindow is the fixed-size application window hosting the two pages.
type MainWindow struct {
	window fyne.Window
	shell  *application.Shell
	logger *slog.Logger

	intro *IntroPage
	main  *MainPage
}

// MainWindowConfig holds configuration for MainWindow.
type MainWindowConfig struct {
	App      fyne.App
	Shell    *application.Shell
	AllFiles bool
	Logger   *slog.Logger
}

// NewMainWindow creates the window showing the intro page.
func NewMainWindow(cfg *MainWindowConfig) *MainWindow {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	w := &MainWindow{
		window: cfg.App.NewWindow(WindowTitle),
		shell:  cfg.Shell,
		logger: cfg.Logger,
	}

	w.intro = NewIntroPage(w.start)
	w.main = NewMainPage(&MainPageConfig{
		Shell:    cfg.Shell,
		Parent:   w.window,
		AllFiles: cfg.AllFiles,
		Logger:   cfg.Logger,
	})

	w.window.SetPadded(false)
	w.window.SetFixedSize(true)
	w.window.Resize(fyne.NewSize(windowWidth, windowHeight))
	w.window.SetContent(w.intro.Content())

	w.window.SetOnClosed(func() {
		w.logger.Info("Window closed")
		cfg.App.Quit()
	})

	return w
}

func (w *MainWindow) start() {
	if err := w.shell.Start(); err != nil {
		return
	}
	w.main.Refresh()
	w.window.SetContent(w.main.Content())
}

// Show displays the window.
func (w *MainWindow) Show() {
	w.window.Show()
}

// Window returns the underlying fyne window.
func (w *MainWindow) Window() fyne.Window {
	return w.window
}
