package tui

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/diogo/mybot/internal/chat"
	"github.com/diogo/mybot/internal/config"
	apierrors "github.com/diogo/mybot/internal/errors"
	"github.com/diogo/mybot/internal/logging"
	"github.com/diogo/mybot/internal/models"
	"github.com/diogo/mybot/internal/render"
	"github.com/diogo/mybot/internal/stream"
)

// writeClipboard is replaced in tests
var writeClipboard = clipboard.WriteAll

// Animation tick message
type animationTickMsg time.Time

// Message types for the TUI
type (
	// streamUpdateMsg signals that the trailing reply changed. The text
	// itself is read back from the conversation.
	streamUpdateMsg struct{}
	streamDoneMsg   struct {
		result stream.Result
		err    error
	}
	uploadDoneMsg struct {
		result *models.UploadResult
		err    error
	}
	transcriptMsg struct {
		text string
		err  error
	}
	speechMsg struct {
		location string
		played   bool
		err      error
	}
)

// Options configures the chat screen
type Options struct {
	BaseURL  string
	Markdown config.MarkdownConfig
	// AutoPlay plays synthesized speech as soon as it is ready
	AutoPlay bool
	Logger   *log.Logger
}

// Model represents the TUI state
type Model struct {
	session *chat.Session
	opts    Options
	logger  *log.Logger

	ctx    context.Context
	cancel context.CancelFunc

	// UI components
	viewport viewport.Model
	textarea textarea.Model
	spinner  spinner.Model

	// State
	ready          bool
	width          int
	height         int
	streaming      bool
	streamCh       chan tea.Msg
	uploading      bool
	transcribing   bool
	speaking       bool
	alert          string
	alertErr       error
	animationFrame int
}

// NewChatModel creates a new chat TUI model around session
func NewChatModel(session *chat.Session, opts Options) Model {
	ta := textarea.New()
	ta.Placeholder = "Ask a question, or type /attach <file> ..."
	ta.CharLimit = 4000
	ta.ShowLineNumbers = false
	ta.SetHeight(2)
	ta.Focus()

	ta.FocusedStyle.CursorLine = lipgloss.NewStyle()
	ta.FocusedStyle.Base = lipgloss.NewStyle().Foreground(colorText)
	ta.FocusedStyle.Placeholder = lipgloss.NewStyle().Foreground(colorTextDim)
	ta.BlurredStyle = ta.FocusedStyle

	s := spinner.New()
	s.Spinner = spinner.Points
	s.Style = loadingStyle

	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	ctx, cancel := context.WithCancel(context.Background())

	return Model{
		session:  session,
		opts:     opts,
		logger:   logger,
		ctx:      ctx,
		cancel:   cancel,
		textarea: ta,
		spinner:  s,
	}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return textarea.Blink
}

// animationTick returns a command that ticks the waiting animation
func animationTick() tea.Cmd {
	return tea.Tick(120*time.Millisecond, func(t time.Time) tea.Msg {
		return animationTickMsg(t)
	})
}

// waitForStream delivers the next message of a running stream
func waitForStream(ch <-chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-ch
		if !ok {
			return nil
		}
		return msg
	}
}

// busy reports whether a background operation is running
func (m Model) busy() bool {
	return m.streaming || m.uploading || m.transcribing || m.speaking
}

// inputDisabled reports whether typing and submitting are blocked
func (m Model) inputDisabled() bool {
	return m.streaming || m.transcribing
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var (
		tiCmd tea.Cmd
		vpCmd tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		headerHeight := 4
		inputHeight := 5
		statusHeight := 1
		padding := 2

		viewportHeight := msg.Height - headerHeight - inputHeight - statusHeight - padding
		if viewportHeight < 3 {
			viewportHeight = 3
		}

		if !m.ready {
			m.viewport = viewport.New(msg.Width-4, viewportHeight)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width - 4
			m.viewport.Height = viewportHeight
		}
		m.textarea.SetWidth(msg.Width - 6)
		m.updateViewport()

	case tea.KeyMsg:
		// The alert swallows the next key, except a hard quit.
		if m.alert != "" && msg.Type != tea.KeyCtrlC {
			m.alert, m.alertErr = "", nil
			return m, nil
		}

		switch msg.String() {
		case "ctrl+c", "esc":
			return m.quit()
		case "enter":
			return m.submit()
		case "ctrl+r":
			return m.toggleRecording()
		case "ctrl+t":
			return m.speak()
		case "ctrl+y":
			return m.copyLastReply()
		}

		if m.inputDisabled() {
			return m, nil
		}

	case streamUpdateMsg:
		m.updateViewport()
		return m, waitForStream(m.streamCh)

	case streamDoneMsg:
		m.streaming = false
		m.streamCh = nil
		if msg.err != nil {
			m.logger.Debug("stream finished with error", "err", msg.err)
		}
		m.textarea.Focus()
		m.updateViewport()
		return m, nil

	case uploadDoneMsg:
		m.uploading = false
		if msg.err != nil {
			m.setAlert("Upload failed", msg.err)
		} else {
			m.session.Conversation().AppendSystem("Uploaded: " + msg.result.Summary())
		}
		m.updateViewport()
		return m, nil

	case transcriptMsg:
		m.transcribing = false
		m.textarea.Focus()
		if msg.err != nil {
			m.setAlert("Voice input failed", msg.err)
		} else {
			m.textarea.SetValue(m.session.Conversation().Input())
		}
		m.updateViewport()
		return m, nil

	case speechMsg:
		m.speaking = false
		switch {
		case msg.err != nil:
			m.setAlert("Voice output failed", msg.err)
		case !msg.played:
			m.session.Conversation().AppendSystem("Speech saved to " + msg.location)
		}
		m.updateViewport()
		return m, nil

	case animationTickMsg:
		if m.busy() {
			m.animationFrame++
			m.updateViewport()
			return m, animationTick()
		}
		return m, nil

	case spinner.TickMsg:
		if m.busy() {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil
	}

	if !m.inputDisabled() {
		m.textarea, tiCmd = m.textarea.Update(msg)
		m.session.Conversation().SetInput(m.textarea.Value())
	}
	m.viewport, vpCmd = m.viewport.Update(msg)

	return m, tea.Batch(tiCmd, vpCmd)
}

// quit cancels running work and releases voice resources
func (m Model) quit() (tea.Model, tea.Cmd) {
	m.cancel()
	m.session.Close()
	return m, tea.Quit
}

// submit sends the input as a query, or runs it as a slash command
func (m Model) submit() (tea.Model, tea.Cmd) {
	if m.inputDisabled() {
		return m, nil
	}

	input := strings.TrimSpace(m.textarea.Value())
	if input == "" {
		return m, nil
	}
	if strings.HasPrefix(input, "/") {
		return m.runCommand(input)
	}

	token, err := m.session.Conversation().Submit(input)
	if err != nil {
		m.setAlert("Cannot send", err)
		return m, nil
	}

	m.textarea.Reset()
	m.textarea.Blur()
	m.streaming = true
	m.animationFrame = 0
	m.streamCh = m.startStream(token, input)
	m.updateViewport()

	return m, tea.Batch(waitForStream(m.streamCh), m.spinner.Tick, animationTick())
}

// startStream runs the query on a goroutine. Updates are coalesced: a
// pending update already tells the UI to re-read the conversation.
func (m Model) startStream(token, prompt string) chan tea.Msg {
	ch := make(chan tea.Msg, 1)
	session := m.session
	ctx := m.ctx

	go func() {
		defer close(ch)
		result, err := session.Stream(ctx, token, prompt, func(string) {
			select {
			case ch <- streamUpdateMsg{}:
			default:
			}
		})
		select {
		case ch <- streamDoneMsg{result: result, err: err}:
		case <-ctx.Done():
		}
	}()

	return ch
}

// runCommand executes a slash command typed into the input
func (m Model) runCommand(line string) (tea.Model, tea.Cmd) {
	fields := strings.Fields(line)
	name, args := strings.ToLower(fields[0]), fields[1:]

	m.textarea.Reset()
	m.session.Conversation().SetInput("")
	conv := m.session.Conversation()

	switch name {
	case "/exit", "/quit":
		return m.quit()

	case "/attach":
		if len(args) == 0 {
			m.alert = "Usage: /attach <file> [file...]"
			break
		}
		if err := m.session.Select(args...); err != nil {
			m.setAlert("Cannot attach", err)
			break
		}
		conv.AppendSystem("Selected for upload: " + strings.Join(baseNames(m.session.Selection()), ", "))

	case "/detach":
		m.session.ClearSelection()
		conv.AppendSystem("Upload selection cleared")

	case "/upload":
		if m.uploading {
			break
		}
		m.uploading = true
		m.updateViewport()
		return m, tea.Batch(m.uploadCmd(), m.spinner.Tick)

	case "/record":
		return m.toggleRecording()

	case "/speak":
		return m.speak()

	case "/copy":
		return m.copyLastReply()

	default:
		m.alert = fmt.Sprintf("Unknown command %s. Try /attach, /detach, /upload, /record, /speak, /copy or /exit", name)
	}

	m.updateViewport()
	return m, nil
}

func (m Model) uploadCmd() tea.Cmd {
	session := m.session
	ctx := m.ctx
	return func() tea.Msg {
		result, err := session.UploadSelection(ctx)
		return uploadDoneMsg{result: result, err: err}
	}
}

// toggleRecording starts a capture, or stops it and transcribes it in the
// background.
func (m Model) toggleRecording() (tea.Model, tea.Cmd) {
	if !m.session.VoiceInputEnabled() {
		m.setAlert("Voice input unavailable", apierrors.ErrVoiceDisabled)
		return m, nil
	}
	if m.transcribing || m.streaming {
		return m, nil
	}

	if m.session.Recording() {
		m.transcribing = true
		m.textarea.Blur()
		return m, tea.Batch(m.transcribeCmd(), m.spinner.Tick)
	}

	if err := m.session.StartRecording(m.ctx); err != nil {
		m.setAlert("Could not start recording", err)
	}
	return m, nil
}

// speak synthesizes the newest reply and plays it when configured to
func (m Model) speak() (tea.Model, tea.Cmd) {
	if !m.session.VoiceOutputEnabled() {
		m.setAlert("Voice output unavailable", apierrors.ErrVoiceDisabled)
		return m, nil
	}
	if m.speaking || m.streaming {
		return m, nil
	}
	if _, ok := m.session.Conversation().LastAssistantText(); !ok {
		m.setAlert("Voice output", apierrors.ErrNothingToSpeak)
		return m, nil
	}

	m.speaking = true
	return m, tea.Batch(m.speakCmd(), m.spinner.Tick)
}

// transcribeCmd stops the capture and transcribes it
func (m Model) transcribeCmd() tea.Cmd {
	session := m.session
	ctx := m.ctx
	return func() tea.Msg {
		text, err := session.StopRecording(ctx)
		return transcriptMsg{text: text, err: err}
	}
}

func (m Model) speakCmd() tea.Cmd {
	session := m.session
	ctx := m.ctx
	autoPlay := m.opts.AutoPlay

	return func() tea.Msg {
		res, err := session.Speak(ctx)
		if err != nil {
			return speechMsg{err: err}
		}
		if !autoPlay || !session.CanPlay() {
			return speechMsg{location: res.Location()}
		}
		if err := session.Play(ctx); err != nil {
			return speechMsg{location: res.Location(), err: err}
		}
		return speechMsg{location: res.Location(), played: true}
	}
}

// copyLastReply copies the newest assistant reply to the clipboard
func (m Model) copyLastReply() (tea.Model, tea.Cmd) {
	text, ok := m.session.Conversation().LastAssistantText()
	if !ok {
		m.alert = "Nothing to copy yet"
		return m, nil
	}
	if err := writeClipboard(text); err != nil {
		m.setAlert("Copy failed", err)
		return m, nil
	}
	m.session.Conversation().AppendSystem("Copied the last reply to the clipboard")
	m.updateViewport()
	return m, nil
}

// View renders the TUI
func (m Model) View() string {
	if !m.ready {
		return "\n  Initializing..."
	}

	header := m.renderHeader()

	messagesPanel := messagesAreaStyle.
		Width(m.width - 2).
		Render(m.viewport.View())

	inputPanel := inputPanelStyle.
		Width(m.width - 2).
		Render(m.renderInput())

	sections := []string{header, messagesPanel}
	if m.alert != "" {
		sections = append(sections, m.renderAlert())
	}
	sections = append(sections, inputPanel, m.renderStatusBar())

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderHeader() string {
	title := titleStyle.Render("✦ mybot")

	parts := []string{title}
	if m.opts.BaseURL != "" {
		parts = append(parts, subtitleStyle.Render(m.opts.BaseURL))
	}
	if n := len(m.session.Selection()); n > 0 {
		parts = append(parts, hintStyle.Render(fmt.Sprintf("%d file(s) selected", n)))
	}
	if m.session.Recording() {
		parts = append(parts, recordingStyle.Render("● REC"))
	}

	return headerStyle.
		Width(m.width - 2).
		Render(strings.Join(parts, subtitleStyle.Render("  │  ")))
}

func (m Model) renderInput() string {
	switch {
	case m.transcribing:
		return loadingStyle.Render(m.spinner.View() + " Transcribing...")
	case m.streaming:
		return hintStyle.Render("Waiting for the answer...")
	case m.session.Recording():
		return recordingStyle.Render("● Recording... press Ctrl+R to stop")
	}
	return inputLabelStyle.Render("›") + m.textarea.View()
}

func (m Model) renderAlert() string {
	width := m.width - 8
	if width < 30 {
		width = 30
	}
	body := m.alert + errorDetails(m.alertErr) + "\n" + hintStyle.Render("press any key to dismiss")
	return alertStyle.Width(width).Render(body)
}

// renderWelcome renders the empty-conversation screen
func (m Model) renderWelcome() string {
	width := m.viewport.Width - 4
	if width < 20 {
		width = 20
	}

	lines := []string{
		welcomeTitleStyle.Render("Welcome to mybot"),
		subtitleStyle.Render("Ask about your documents. Attach files with /attach, then /upload."),
	}
	if m.session.VoiceInputEnabled() {
		lines = append(lines, subtitleStyle.Render("Press Ctrl+R to dictate a question."))
	}
	return welcomeStyle.Width(width).Render(strings.Join(lines, "\n"))
}

// renderLoadingAnimation renders a colored wave while the reply is empty
func (m Model) renderLoadingAnimation() string {
	const dots = 5
	var sb strings.Builder
	for i := 0; i < dots; i++ {
		color := gradientColors[(m.animationFrame+i)%len(gradientColors)]
		sb.WriteString(lipgloss.NewStyle().Foreground(color).Render("●"))
		sb.WriteString(" ")
	}
	return sb.String() + loadingStyle.Render(m.spinner.View()+" Thinking")
}

// renderStatusBar renders the keyboard shortcuts
func (m Model) renderStatusBar() string {
	shortcut := func(key, desc string) string {
		return statusKeyStyle.Render(key) + statusDescStyle.Render(" "+desc)
	}

	items := []string{shortcut("Enter", "Send")}
	if m.session.VoiceInputEnabled() {
		label := "Record"
		if m.session.Recording() {
			label = "Stop"
		}
		items = append(items, shortcut("Ctrl+R", label))
	}
	if m.session.VoiceOutputEnabled() {
		items = append(items, shortcut("Ctrl+T", "Speak"))
	}
	items = append(items, shortcut("Ctrl+Y", "Copy"), shortcut("Esc", "Quit"))

	status := strings.Join(items, statusDescStyle.Render("  │  "))
	if m.uploading {
		status = loadingStyle.Render(m.spinner.View()+" Uploading...") + "  " + status
	}
	if m.speaking {
		status = loadingStyle.Render(m.spinner.View()+" Speaking...") + "  " + status
	}
	return statusBarStyle.Render(status)
}

// updateViewport rebuilds the conversation shown in the viewport
func (m *Model) updateViewport() {
	if !m.ready {
		return
	}

	messages := m.session.Conversation().Messages()
	if len(messages) == 0 {
		m.viewport.SetContent(m.renderWelcome())
		return
	}

	bubbleWidth := m.viewport.Width - 8
	if bubbleWidth < 20 {
		bubbleWidth = 20
	}
	mdOpts := render.OptionsFromConfig(m.opts.Markdown, bubbleWidth-4)

	var content strings.Builder
	for i, msg := range messages {
		if i > 0 {
			content.WriteString("\n")
		}

		switch msg.Role {
		case models.RoleUser:
			content.WriteString(userLabelStyle.Render("You"))
			content.WriteString("\n")
			content.WriteString(userBubbleStyle.Width(bubbleWidth).Render(msg.Text))

		case models.RoleAssistant:
			content.WriteString(assistantLabelStyle.Render("Assistant"))
			content.WriteString("\n")

			var body string
			switch {
			case msg.Text == "" && m.streaming && i == len(messages)-1:
				body = m.renderLoadingAnimation()
			case strings.HasPrefix(msg.Text, models.ErrorPrefix):
				body = errorStyle.Render(msg.Text)
			default:
				body = render.StreamingMarkdown(msg.Text, mdOpts)
			}
			content.WriteString(assistantBubbleStyle.Width(bubbleWidth).Render(body))

		case models.RoleSystem:
			content.WriteString(systemNoteStyle.Render("• " + msg.Text))
		}
		content.WriteString("\n")
	}

	m.viewport.SetContent(content.String())
	m.viewport.GotoBottom()
}

// setAlert shows err under prefix until the next key press
func (m *Model) setAlert(prefix string, err error) {
	m.alert = alertText(prefix, err)
	m.alertErr = err
}

// alertText formats err for the alert overlay
func alertText(prefix string, err error) string {
	if errors.Is(err, context.Canceled) {
		return prefix + ": cancelled"
	}
	return prefix + ": " + apierrors.Detail(err)
}

func baseNames(paths []string) []string {
	names := make([]string, len(paths))
	for i, p := range paths {
		names[i] = filepath.Base(p)
	}
	return names
}

// RunChat starts the chat TUI
func RunChat(session *chat.Session, opts Options) error {
	m := NewChatModel(session, opts)

	p := tea.NewProgram(
		m,
		tea.WithAltScreen(),
	)

	_, err := p.Run()
	m.cancel()
	return err
}
