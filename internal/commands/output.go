package commands

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	apierrors "github.com/diogo/mybot/internal/errors"
)

var (
	colorText     = lipgloss.Color("#c0caf5")
	colorTextDim  = lipgloss.Color("#565f89")
	colorSuccess  = lipgloss.Color("#9ece6a")
	colorWarning  = lipgloss.Color("#e0af68")
	colorError    = lipgloss.Color("#f7768e")
	colorPrimary  = lipgloss.Color("#7aa2f7")
)

// Styles matching the chat TUI
var (
	assistantLabelStyle = lipgloss.NewStyle().
				Foreground(colorPrimary).
				Bold(true).
				MarginBottom(0)

	assistantBubbleStyle = lipgloss.NewStyle().
				BorderStyle(lipgloss.RoundedBorder()).
				BorderForeground(colorPrimary).
				Foreground(colorText).
				Padding(0, 1).
				MarginTop(1).
				MarginBottom(1)
)

// writeClipboard is replaced in tests
var writeClipboard = clipboard.WriteAll

// isTerminal reports whether w is a terminal
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// getTerminalWidth returns the width of w or a default value
func getTerminalWidth(w io.Writer) int {
	f, ok := w.(*os.File)
	if !ok {
		return 80
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil || width <= 0 {
		return 80 // default width
	}
	return width
}

// hasPipedInput reports whether r carries data that is not a terminal
func hasPipedInput(r io.Reader) bool {
	if r == nil {
		return false
	}
	f, ok := r.(*os.File)
	if !ok {
		return true
	}
	stat, err := f.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}

func successLine(message string) string {
	checkmark := lipgloss.NewStyle().Foreground(colorSuccess).Bold(true).Render("✓")
	return checkmark + " " + lipgloss.NewStyle().Foreground(colorSuccess).Render(message)
}

func warningLine(message string) string {
	return lipgloss.NewStyle().Foreground(colorWarning).Render("⚠ " + message)
}

// copyToClipboard copies text and reports the outcome on w. Failure is only
// a warning.
func copyToClipboard(w io.Writer, text string) {
	if err := writeClipboard(text); err != nil {
		fmt.Fprintln(w, warningLine(fmt.Sprintf("Failed to copy to clipboard: %v", err)))
		return
	}
	fmt.Fprintln(w, successLine("Copied to clipboard"))
}

// writeOutputFile saves data to path
func writeOutputFile(path string, data []byte) error {
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	return nil
}

// formatErrorMessage formats an error with additional context from structured errors
func formatErrorMessage(err error, context string) string {
	if err == nil {
		return ""
	}

	errorStyle := lipgloss.NewStyle().Foreground(colorError)
	dimStyle := lipgloss.NewStyle().Foreground(colorTextDim)

	var sb strings.Builder
	sb.WriteString(errorStyle.Render(fmt.Sprintf("✗ %s: %s", context, apierrors.Detail(err))))

	if status := apierrors.GetHTTPStatus(err); status > 0 {
		sb.WriteString(dimStyle.Render(fmt.Sprintf("\n  HTTP Status: %d", status)))
	}

	if endpoint := apierrors.GetEndpoint(err); endpoint != "" {
		sb.WriteString(dimStyle.Render(fmt.Sprintf("\n  Endpoint: %s", endpoint)))
	}

	switch {
	case apierrors.IsNetworkError(err):
		sb.WriteString(dimStyle.Render("\n  Hint: Check that the assistant service is running (mybot config show)"))
	case apierrors.IsUploadError(err):
		sb.WriteString(dimStyle.Render("\n  Hint: Only PDF, TXT, DOC and DOCX files can be uploaded"))
	case apierrors.IsTranscriptionError(err):
		sb.WriteString(dimStyle.Render("\n  Hint: Check the recording is a supported audio file"))
	case apierrors.IsSynthesisError(err):
		sb.WriteString(dimStyle.Render("\n  Hint: The service could not produce speech for this text"))
	}

	return sb.String()
}
