package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
)

// Palette shared by the lookup table, the column picker and the auth flow.
var (
	colorAccent = lipgloss.Color("36")  // teal: titles, counts, client IDs
	colorOK     = lipgloss.Color("35")  // green: valid sessions, done
	colorWarn   = lipgloss.Color("220") // amber: expiring tokens
	colorFail   = lipgloss.Color("167") // red: failed lookups
	colorURL    = lipgloss.Color("75")
	colorValue  = lipgloss.Color("255")
	colorLabel  = lipgloss.Color("245")
	colorMuted  = lipgloss.Color("240")
)

var (
	StyleTitle     = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	StyleHighlight = lipgloss.NewStyle().Foreground(colorAccent)
	StyleNumber    = lipgloss.NewStyle().Foreground(colorAccent)
	StyleLink      = lipgloss.NewStyle().Foreground(colorURL).Underline(true)
	StyleDim       = lipgloss.NewStyle().Foreground(colorMuted)
	StyleSuccess   = lipgloss.NewStyle().Foreground(colorOK)
	StyleWarning   = lipgloss.NewStyle().Foreground(colorWarn)

	styleValue       = lipgloss.NewStyle().Foreground(colorValue)
	styleLabel       = lipgloss.NewStyle().Foreground(colorLabel).Width(12)
	styleIconSuccess = lipgloss.NewStyle().Foreground(colorOK)
	styleIconError   = lipgloss.NewStyle().Foreground(colorFail)
	styleIconWarning = lipgloss.NewStyle().Foreground(colorWarn)
	styleIconInfo    = lipgloss.NewStyle().Foreground(colorLabel)
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorAccent)
	styleCommand     = lipgloss.NewStyle().Foreground(colorURL)
)

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconWarning = "!"
	iconInfo    = "›"
)

// statusLine renders "<icon> msg" the way every status message is shown.
func statusLine(icon lipgloss.Style, glyph, msg string) string {
	return icon.Render(glyph) + " " + msg
}

// uiOut receives status output. Lookup results go to the command's writer.
var uiOut io.Writer = os.Stdout

func printSuccess(format string, args ...any) {
	fmt.Fprintln(uiOut, statusLine(styleIconSuccess, iconSuccess, fmt.Sprintf(format, args...)))
}

func printWarning(format string, args ...any) {
	fmt.Fprintln(uiOut, statusLine(styleIconWarning, iconWarning, StyleWarning.Render(fmt.Sprintf(format, args...))))
}

func printInfo(format string, args ...any) {
	fmt.Fprintln(uiOut, statusLine(styleIconInfo, iconInfo, fmt.Sprintf(format, args...)))
}

// printDetail prints an indented, dimmed line under a status message.
func printDetail(format string, args ...any) {
	fmt.Fprintln(uiOut, "  "+StyleDim.Render(fmt.Sprintf(format, args...)))
}

// printKeyValue prints a label padded to a fixed column, as in "auth status".
func printKeyValue(key, value string) {
	fmt.Fprintln(uiOut, styleLabel.Render(key)+" "+styleValue.Render(value))
}

func printNextStep(description, cmd string) {
	fmt.Fprintln(uiOut, StyleDim.Render(description+":")+" "+styleCommand.Render(cmd))
}

// printInline prints a dim prompt without a trailing newline.
func printInline(format string, args ...any) {
	fmt.Fprint(uiOut, StyleDim.Render(fmt.Sprintf(format, args...)))
}

func printNewline() {
	fmt.Fprintln(uiOut)
}
