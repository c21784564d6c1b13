package chat

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/diogo/mybot/internal/api"
	apierrors "github.com/diogo/mybot/internal/errors"
	"github.com/diogo/mybot/internal/logging"
	"github.com/diogo/mybot/internal/models"
	"github.com/diogo/mybot/internal/stream"
	"github.com/diogo/mybot/internal/voice"
)

// Session drives one conversation against the assistant service
type Session struct {
	client   api.ClientInterface
	conv     *Conversation
	recorder voice.Recorder
	playback *voice.PlaybackManager
	logger   *log.Logger

	mu           sync.Mutex
	selection    []string
	recording    voice.Recording
	transcribing bool
}

// SessionOption configures a Session
type SessionOption func(*Session)

// WithRecorder enables voice capture
func WithRecorder(recorder voice.Recorder) SessionOption {
	return func(s *Session) {
		s.recorder = recorder
	}
}

// WithPlayback enables speech playback
func WithPlayback(playback *voice.PlaybackManager) SessionOption {
	return func(s *Session) {
		s.playback = playback
	}
}

// WithLogger sets the session logger
func WithLogger(logger *log.Logger) SessionOption {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewSession creates a Session with an empty conversation
func NewSession(client api.ClientInterface, opts ...SessionOption) *Session {
	s := &Session{
		client: client,
		conv:   NewConversation(),
		logger: logging.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Conversation returns the session's conversation state
func (s *Session) Conversation() *Conversation {
	return s.conv
}

// Send submits prompt and streams the reply into the conversation.
// onUpdate, if set, receives every republished reply text.
func (s *Session) Send(ctx context.Context, prompt string, onUpdate stream.UpdateFunc) (stream.Result, error) {
	token, err := s.conv.Submit(prompt)
	if err != nil {
		return stream.Result{}, err
	}
	return s.Stream(ctx, token, prompt, onUpdate)
}

// Stream asks the service for prompt and folds the answer into the trailing
// assistant message authorized by token. The submission is completed when
// Stream returns. Transport failures replace the reply with "Error: ...".
func (s *Session) Stream(ctx context.Context, token, prompt string, onUpdate stream.UpdateFunc) (stream.Result, error) {
	defer func() {
		_ = s.conv.Complete(token)
	}()

	publish := func(text string) {
		if err := s.conv.UpdateTrailing(token, text); err != nil {
			s.logger.Debug("dropping update for finished submission", "err", err)
			return
		}
		if onUpdate != nil {
			onUpdate(text)
		}
	}

	s.logger.Info("query submitted", "chars", len(prompt))

	body, err := s.client.Ask(ctx, prompt)
	if err != nil {
		s.logger.Error("query failed", "err", err)
		text := models.ErrorText(apierrors.Detail(err))
		publish(text)
		return stream.Result{Text: text}, err
	}
	defer body.Close()

	assembler := stream.NewAssembler(stream.WithUpdate(publish), stream.WithLogger(s.logger))
	result, err := assembler.Run(ctx, body)
	if err != nil {
		s.logger.Error("answer stream failed", "err", err)
		result.Text = models.ErrorText(apierrors.Detail(err))
		publish(result.Text)
		return result, err
	}

	s.logger.Info("answer complete",
		"records", result.Records, "invalid", result.Invalid, "chars", len(result.Text))
	return result, nil
}

// Select adds documents to the upload selection. Nothing is added unless
// every path is an existing, supported document.
func (s *Session) Select(paths ...string) error {
	checked := make([]string, 0, len(paths))
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return apierrors.NewUploadFileError(models.EndpointUploadFiles, path, err)
		}
		if info.IsDir() {
			return apierrors.NewUploadFileError(models.EndpointUploadFiles, path, fmt.Errorf("is a directory"))
		}
		if !api.IsSupportedDocument(path) {
			return apierrors.NewUploadFileError(models.EndpointUploadFiles, path,
				fmt.Errorf("unsupported document type (accepted: %v)", models.DocumentExtensions()))
		}
		checked = append(checked, path)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, path := range checked {
		if !contains(s.selection, path) {
			s.selection = append(s.selection, path)
		}
	}
	return nil
}

// ClearSelection empties the upload selection
func (s *Session) ClearSelection() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selection = nil
}

// Selection returns a copy of the upload selection
func (s *Session) Selection() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.selection...)
}

// UploadSelection uploads the selected documents. The selection is cleared
// afterwards whatever the outcome. An empty selection fails locally with
// ErrNoFiles.
func (s *Session) UploadSelection(ctx context.Context) (*models.UploadResult, error) {
	paths := s.Selection()
	defer s.ClearSelection()

	if len(paths) == 0 {
		return nil, apierrors.ErrNoFiles
	}

	result, err := s.client.UploadFiles(ctx, paths)
	if err != nil {
		s.logger.Error("upload failed", "files", len(paths), "err", err)
		return nil, err
	}
	s.logger.Info("upload complete", "files", result.Summary())
	return result, nil
}

// VoiceInputEnabled reports whether recording is available
func (s *Session) VoiceInputEnabled() bool {
	return s.recorder != nil
}

// VoiceOutputEnabled reports whether speech playback is available
func (s *Session) VoiceOutputEnabled() bool {
	return s.playback != nil
}

// Recording reports whether a capture is in progress
func (s *Session) Recording() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.recording != nil
}

// Transcribing reports whether a stopped capture is being transcribed
func (s *Session) Transcribing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transcribing
}

// StartRecording begins a capture
func (s *Session) StartRecording(ctx context.Context) error {
	if s.recorder == nil {
		return apierrors.ErrVoiceDisabled
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.recording != nil || s.transcribing {
		return apierrors.ErrRecordingActive
	}

	rec, err := s.recorder.Start(ctx)
	if err != nil {
		return err
	}
	s.recording = rec
	s.logger.Info("recording started")
	return nil
}

// StopRecording ends the capture, transcribes it and places the transcript
// into the input. It never submits.
func (s *Session) StopRecording(ctx context.Context) (string, error) {
	s.mu.Lock()
	rec := s.recording
	if rec == nil {
		s.mu.Unlock()
		return "", apierrors.ErrNotRecording
	}
	s.recording = nil
	s.transcribing = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.transcribing = false
		s.mu.Unlock()
	}()

	clip, err := rec.Stop()
	if err != nil {
		s.logger.Error("recording failed", "err", err)
		return "", err
	}

	result, err := s.client.Transcribe(ctx, clip)
	if err != nil {
		s.logger.Error("transcription failed", "err", err)
		return "", err
	}

	s.conv.SetInput(result.Transcript)
	s.logger.Info("transcript placed in input", "chars", len(result.Transcript))
	return result.Transcript, nil
}

// ToggleRecording starts a capture, or stops and transcribes the current
// one. started reports which happened.
func (s *Session) ToggleRecording(ctx context.Context) (transcript string, started bool, err error) {
	if s.Recording() {
		transcript, err = s.StopRecording(ctx)
		return transcript, false, err
	}
	return "", true, s.StartRecording(ctx)
}

// AbortRecording abandons the current capture, if any
func (s *Session) AbortRecording() {
	s.mu.Lock()
	rec := s.recording
	s.recording = nil
	s.mu.Unlock()

	if rec != nil {
		if err := rec.Abort(); err != nil {
			s.logger.Warn("failed to abort recording", "err", err)
		}
	}
}

// Speak synthesizes the newest assistant reply and makes it the current
// playback resource.
func (s *Session) Speak(ctx context.Context) (voice.Resource, error) {
	text, ok := s.conv.LastAssistantText()
	if !ok {
		return nil, apierrors.ErrNothingToSpeak
	}
	return s.SpeakText(ctx, text)
}

// SpeakText synthesizes text and makes it the current playback resource
func (s *Session) SpeakText(ctx context.Context, text string) (voice.Resource, error) {
	if s.playback == nil {
		return nil, apierrors.ErrVoiceDisabled
	}

	clip, err := s.client.Synthesize(ctx, text)
	if err != nil {
		s.logger.Error("speech synthesis failed", "err", err)
		return nil, err
	}

	res, err := s.playback.Present(clip)
	if err != nil {
		return nil, err
	}
	s.logger.Info("speech ready", "location", res.Location(), "bytes", clip.Size())
	return res, nil
}

// Play plays the current speech resource
func (s *Session) Play(ctx context.Context) error {
	if s.playback == nil {
		return apierrors.ErrVoiceDisabled
	}
	return s.playback.Play(ctx)
}

// CanPlay reports whether speech can be played, not just saved
func (s *Session) CanPlay() bool {
	return s.playback != nil && s.playback.CanPlay()
}

// Close abandons any capture and releases playback resources
func (s *Session) Close() {
	s.AbortRecording()
	if s.playback != nil {
		s.playback.Close()
	}
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
