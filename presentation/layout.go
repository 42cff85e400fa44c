package presentation

import (
	"image/color"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/storage"
)

// Window geometry. Every page uses absolute positions inside this area.
const (
	windowWidth  = 800
	windowHeight = 600

	buttonWidth  = 160
	buttonHeight = 40

	titleY   = 50
	buttonY  = 100
	contentY = 150

	previewX     = 50
	previewSize  = 280
	borderWidth  = 2
	reportX      = 350
	reportLineH  = 20
	reportSize   = 16
	titleSize    = 32
	introSize    = 20
	introLineH   = 32
	introWrapAt  = 50
	trackX       = 785
	trackWidth   = 15
	trackHeight  = 280
	handleHeight = 30
	wheelNotch   = 1
)

var (
	backgroundColor = color.NRGBA{R: 220, G: 220, B: 220, A: 255}
	textColor       = color.NRGBA{R: 120, G: 20, B: 70, A: 255}
	buttonColor     = color.NRGBA{R: 10, G: 150, B: 170, A: 255}
	borderColor     = color.NRGBA{R: 100, G: 100, B: 100, A: 255}
	buttonTextColor = color.White
)

// imageExtensions are offered by the file dialog unless all files are allowed.
var imageExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".bmp", ".tif", ".tiff", ".webp"}

// imageFilter returns the dialog filter, or nil to show every file.
func imageFilter(allFiles bool) storage.FileFilter {
	if allFiles {
		return nil
	}
	return storage.NewExtensionFileFilter(imageExtensions)
}

// wrapText splits text into lines of at most width characters, breaking
// greedily at spaces. A single word longer than width gets its own line.
func wrapText(text string, width int) []string {
	var lines []string
	var line string
	for _, word := range strings.Fields(text) {
		switch {
		case line == "":
			line = word
		case len(line)+1+len(word) <= width:
			line += " " + word
		default:
			lines = append(lines, line)
			line = word
		}
	}
	if line != "" {
		lines = append(lines, line)
	}
	return lines
}

// centredButtonPos returns the top-left corner of a button centred horizontally.
func centredButtonPos(y float32) fyne.Position {
	return fyne.NewPos(windowWidth/2-buttonWidth/2, y)
}

// previewPos is where the preview image is drawn for a scroll offset.
// The preview, the report and the handle all move down by the offset.
func previewPos(offset float32) fyne.Position {
	return fyne.NewPos(previewX, contentY+offset)
}

// reportLinePos is where the i-th report line is drawn for a scroll offset.
func reportLinePos(i int, offset float32) fyne.Position {
	return fyne.NewPos(reportX, contentY+float32(i*reportLineH)+offset)
}

// handlePos is where the scroll handle is drawn, relative to the track.
func handlePos(offset float32) fyne.Position {
	return fyne.NewPos(0, offset)
}

// wheelNotches converts a scroll event delta into whole notches. Positive
// deltas scroll up.
func wheelNotches(dy float32) float32 {
	switch {
	case dy > 0:
		return wheelNotch
	case dy < 0:
		return -wheelNotch
	default:
		return 0
	}
}
