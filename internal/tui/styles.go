// Package tui provides the terminal chat screen for mybot.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/diogo/mybot/internal/errors"
	"github.com/diogo/mybot/internal/render"
)

// Color variables (updated from theme)
var (
	colorBorder lipgloss.Color
	colorTitle  lipgloss.Color

	colorUser      lipgloss.Color
	colorAssistant lipgloss.Color
	colorSystem    lipgloss.Color
	colorRecording lipgloss.Color
	colorWarning   lipgloss.Color
	colorError     lipgloss.Color

	colorText    lipgloss.Color
	colorTextDim lipgloss.Color
)

// Style variables (rebuilt when theme changes)
var (
	headerStyle   lipgloss.Style
	titleStyle    lipgloss.Style
	subtitleStyle lipgloss.Style
	hintStyle     lipgloss.Style

	messagesAreaStyle lipgloss.Style

	userBubbleStyle      lipgloss.Style
	userLabelStyle       lipgloss.Style
	assistantBubbleStyle lipgloss.Style
	assistantLabelStyle  lipgloss.Style
	systemNoteStyle      lipgloss.Style

	inputPanelStyle lipgloss.Style
	inputLabelStyle lipgloss.Style
	loadingStyle    lipgloss.Style
	recordingStyle  lipgloss.Style

	statusBarStyle  lipgloss.Style
	statusKeyStyle  lipgloss.Style
	statusDescStyle lipgloss.Style

	errorStyle lipgloss.Style
	alertStyle lipgloss.Style

	welcomeStyle      lipgloss.Style
	welcomeTitleStyle lipgloss.Style
)

// Gradient colors for the waiting animation (fixed colors)
var gradientColors = []lipgloss.Color{
	lipgloss.Color("#ff6b6b"),
	lipgloss.Color("#feca57"),
	lipgloss.Color("#48dbfb"),
	lipgloss.Color("#ff9ff3"),
	lipgloss.Color("#54a0ff"),
	lipgloss.Color("#1dd1a1"),
}

func init() {
	UpdateTheme()
}

// UpdateTheme refreshes all styles based on the current TUI theme
func UpdateTheme() {
	theme := render.GetTUITheme()

	colorBorder = theme.Border
	colorTitle = theme.Title
	colorUser = theme.User
	colorAssistant = theme.Assistant
	colorSystem = theme.System
	colorRecording = theme.Recording
	colorWarning = theme.Warning
	colorError = theme.Error
	colorText = theme.Text
	colorTextDim = theme.TextDim

	rebuildStyles()
}

func rebuildStyles() {
	headerStyle = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(colorBorder).
		Padding(0, 2).
		MarginBottom(1)

	titleStyle = lipgloss.NewStyle().
		Foreground(colorTitle).
		Bold(true)

	subtitleStyle = lipgloss.NewStyle().
		Foreground(colorTextDim)

	hintStyle = lipgloss.NewStyle().
		Foreground(colorTextDim).
		Italic(true)

	messagesAreaStyle = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(colorBorder).
		Padding(0, 1)

	userBubbleStyle = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(colorUser).
		Foreground(colorText).
		Padding(0, 1).
		MarginLeft(4)

	userLabelStyle = lipgloss.NewStyle().
		Foreground(colorUser).
		Bold(true).
		MarginLeft(4)

	assistantBubbleStyle = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(colorAssistant).
		Foreground(colorText).
		Padding(0, 1).
		MarginRight(4)

	assistantLabelStyle = lipgloss.NewStyle().
		Foreground(colorAssistant).
		Bold(true)

	// Upload results and other local notes
	systemNoteStyle = lipgloss.NewStyle().
		Foreground(colorSystem).
		Italic(true).
		MarginLeft(2)

	inputPanelStyle = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(colorBorder).
		Padding(0, 1)

	inputLabelStyle = lipgloss.NewStyle().
		Foreground(colorTitle).
		Bold(true).
		MarginRight(1)

	loadingStyle = lipgloss.NewStyle().
		Foreground(colorAssistant).
		Bold(true)

	recordingStyle = lipgloss.NewStyle().
		Foreground(colorRecording).
		Bold(true)

	statusBarStyle = lipgloss.NewStyle().
		Foreground(colorTextDim)

	statusKeyStyle = lipgloss.NewStyle().
		Foreground(colorText).
		Bold(true)

	statusDescStyle = lipgloss.NewStyle().
		Foreground(colorTextDim)

	errorStyle = lipgloss.NewStyle().
		Foreground(colorError).
		Bold(true)

	alertStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorWarning).
		Foreground(colorText).
		Padding(0, 2)

	welcomeStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorTitle).
		Padding(1, 2).
		Align(lipgloss.Center)

	welcomeTitleStyle = lipgloss.NewStyle().
		Foreground(colorTitle).
		Bold(true).
		MarginBottom(1)
}

// errorDetails lists status, endpoint and a hint, one indented line each
func errorDetails(err error) string {
	if err == nil {
		return ""
	}

	var lines []string
	if status := errors.GetHTTPStatus(err); status > 0 {
		lines = append(lines, fmt.Sprintf("HTTP Status: %d", status))
	}
	if endpoint := errors.GetEndpoint(err); endpoint != "" {
		lines = append(lines, "Endpoint: "+endpoint)
	}
	switch {
	case errors.IsNetworkError(err):
		lines = append(lines, "Hint: Check that the assistant service is running")
	case errors.IsUploadError(err):
		lines = append(lines, "Hint: Check the file exists and is a PDF, TXT, DOC or DOCX")
	case errors.IsTranscriptionError(err):
		lines = append(lines, "Hint: Try recording again, closer to the microphone")
	case errors.IsSynthesisError(err):
		lines = append(lines, "Hint: The speech service may be unavailable")
	}
	if len(lines) == 0 {
		return ""
	}

	dim := lipgloss.NewStyle().Foreground(colorTextDim)
	return dim.Render("\n  " + strings.Join(lines, "\n  "))
}
