// ABOUTME: Build identity constants
// ABOUTME: Product name and version reported in logs and the TUI
package version

const (
	Product      = "Clipdeck"
	Version      = "0.1.0"
	Manufacturer = "Clipdeck"
)
