package display

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

const banner = `      _ _                     _ _   _
  ___| (_)_ __  ___ _ __ ___ (_) |_| |__
 / __| | | '_ \/ __| '_ ` + "`" + ` _ \| | __| '_ \
| (__| | | |_) \__ \ | | | | | | |_| | | |
 \___|_|_| .__/|___/_| |_| |_|_|\__|_| |_|
         |_|`

// PrintBanner writes the ASCII art banner and version line to w, styled
// when color is true.
func PrintBanner(w io.Writer, version string, color bool) {
	art, ver := banner, "v"+version
	if color {
		art = TitleStyle.Render(art)
		ver = InfoStyle.Render(ver)
	}
	fmt.Fprintln(w, art)
	fmt.Fprintln(w, ver)
	fmt.Fprintln(w)
}

// Color palette.
const (
	colorPrimary = "#7D56F4"
	colorSuccess = "#04B575"
	colorError   = "#FF5F56"
	colorInfo    = "#626262"
	colorBorder  = "#874BFD"
)

// Styles shared by the banner and the result table.
var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(colorPrimary))

	SuccessStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorSuccess))

	ErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorError))

	InfoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorInfo))

	BorderStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorBorder))
)
