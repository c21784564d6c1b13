package commands

import (
	"fmt"
	"io"
	"sync"
	"time"

	bspinner "github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/lipgloss"
)

// spinnerFrames reuses the chat screen's spinner animation
var spinnerFrames = bspinner.Points

var (
	spinnerStyle  = lipgloss.NewStyle().Foreground(colorPrimary).Bold(true)
	spinnerText   = lipgloss.NewStyle().Foreground(colorText)
	spinnerMuted  = lipgloss.NewStyle().Foreground(colorTextDim)
	hideCursor    = "\033[?25l"
	restoreCursor = "\r\033[K\033[?25h"
)

// spinner draws a one-line progress indicator with the time spent waiting.
// It is only used when out is a terminal.
type spinner struct {
	out     io.Writer
	started time.Time

	mu      sync.Mutex
	message string

	quit     chan struct{}
	finished chan struct{}
	once     sync.Once
}

func newSpinner(out io.Writer, message string) *spinner {
	return &spinner{
		out:      out,
		message:  message,
		quit:     make(chan struct{}),
		finished: make(chan struct{}),
	}
}

func (s *spinner) start() {
	s.started = time.Now()
	go s.loop()
}

func (s *spinner) loop() {
	defer close(s.finished)

	ticker := time.NewTicker(spinnerFrames.FPS)
	defer ticker.Stop()

	fmt.Fprint(s.out, hideCursor)
	for frame := 0; ; frame++ {
		s.draw(frame)
		select {
		case <-s.quit:
			fmt.Fprint(s.out, restoreCursor)
			return
		case <-ticker.C:
		}
	}
}

func (s *spinner) setMessage(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.message = message
}

func (s *spinner) draw(frame int) {
	s.mu.Lock()
	message := s.message
	s.mu.Unlock()

	glyph := spinnerFrames.Frames[frame%len(spinnerFrames.Frames)]
	elapsed := time.Since(s.started).Truncate(time.Second)

	fmt.Fprintf(s.out, "\r\033[K%s %s %s",
		spinnerStyle.Render(glyph),
		spinnerText.Render(message),
		spinnerMuted.Render(elapsed.String()))
}

// halt stops the animation and waits for the line to be cleared.
// Safe to call more than once.
func (s *spinner) halt() {
	s.once.Do(func() { close(s.quit) })
	<-s.finished
}

func (s *spinner) stopWithSuccess(message string) {
	s.halt()
	fmt.Fprintln(s.out, successLine(message))
}

func (s *spinner) stopWithError() {
	s.halt()
}
