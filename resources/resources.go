// Package resources embeds static assets shipped with the binaries.
package resources

import (
	_ "embed"

	"fyne.io/fyne/v2"
)

//go:embed icons/app_256.png
var iconData []byte

// GetAppIcon returns the window and dock icon.
func GetAppIcon() fyne.Resource {
	return &fyne.StaticResource{
		StaticName:    "app_256.png",
		StaticContent: iconData,
	}
}

// DefaultConfig is the built-in YAML configuration.
//
//go:embed defaults.yaml
var DefaultConfig []byte
