package chat

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/diogo/mybot/internal/api"
	apierrors "github.com/diogo/mybot/internal/errors"
	"github.com/diogo/mybot/internal/models"
	"github.com/diogo/mybot/internal/voice"
)

// failingReader yields data and then a read error
type failingReader struct {
	data string
	err  error
	done bool
}

func (r *failingReader) Read(p []byte) (int, error) {
	if !r.done {
		r.done = true
		return copy(p, r.data), nil
	}
	return 0, r.err
}

func (r *failingReader) Close() error { return nil }

func newVoiceSession(client api.ClientInterface) (*Session, *voice.MockRecorder, *voice.MockStore, *voice.MockPlayer) {
	recorder := &voice.MockRecorder{}
	store := &voice.MockStore{}
	player := &voice.MockPlayer{}
	s := NewSession(client,
		WithRecorder(recorder),
		WithPlayback(voice.NewPlaybackManager(store, player, nil)),
	)
	return s, recorder, store, player
}

func TestSession_Send(t *testing.T) {
	client := &api.MockClient{AskBody: "{\"content\":\"Hel\"}\n{\"content\":\"lo\"}\n{\"done\":true}\n"}
	s := NewSession(client)

	var updates []string
	result, err := s.Send(context.Background(), "greet me", func(text string) {
		updates = append(updates, text)
	})
	if err != nil {
		t.Fatalf("Send() error: %v", err)
	}
	if result.Text != "Hello" {
		t.Errorf("Text = %q", result.Text)
	}
	if len(updates) != 2 || updates[1] != "Hello" {
		t.Errorf("updates = %q", updates)
	}
	if client.LastQuery != "greet me" {
		t.Errorf("query = %q", client.LastQuery)
	}

	msgs := s.Conversation().Messages()
	if len(msgs) != 2 || msgs[1].Text != "Hello" {
		t.Errorf("messages = %+v", msgs)
	}
	if s.Conversation().InFlight() {
		t.Error("submission should be complete")
	}
}

func TestSession_SendEmptyStream(t *testing.T) {
	s := NewSession(&api.MockClient{AskBody: "{\"done\":true}\n"})

	result, err := s.Send(context.Background(), "hi", nil)
	if err != nil {
		t.Fatal(err)
	}
	if !apierrors.IsEmptyResponse(result.Err()) {
		t.Errorf("Err() = %v", result.Err())
	}
	if got := s.Conversation().Messages()[1].Text; got != models.NoResponsePlaceholder {
		t.Errorf("reply = %q, want placeholder", got)
	}
}

func TestSession_SendTransportFailure(t *testing.T) {
	client := &api.MockClient{
		AskErr: apierrors.NewNetworkStatusError("ask", models.EndpointAsk, 500, `{"detail":"vector store offline"}`),
	}
	s := NewSession(client)

	_, err := s.Send(context.Background(), "hi", nil)
	if !apierrors.IsNetworkError(err) {
		t.Fatalf("error = %v, want NetworkError", err)
	}
	if got := s.Conversation().Messages()[1].Text; got != "Error: vector store offline" {
		t.Errorf("reply = %q", got)
	}
	if s.Conversation().InFlight() {
		t.Error("a failed submission must be completed")
	}

	// the conversation accepts the next prompt
	client.AskErr = nil
	client.AskBody = "{\"content\":\"ok\"}\n"
	if _, err := s.Send(context.Background(), "again", nil); err != nil {
		t.Errorf("next Send() error: %v", err)
	}
}

func TestSession_SendReadFailure(t *testing.T) {
	client := &api.MockClient{AskReader: &failingReader{
		data: "{\"content\":\"partial\"}\n",
		err:  errors.New("connection reset by peer"),
	}}
	s := NewSession(client)

	_, err := s.Send(context.Background(), "hi", nil)
	if !apierrors.IsNetworkError(err) {
		t.Fatalf("error = %v", err)
	}
	if got := s.Conversation().Messages()[1].Text; got != "Error: connection reset by peer" {
		t.Errorf("reply = %q", got)
	}
}

func TestSession_SendServerErrorChunk(t *testing.T) {
	s := NewSession(&api.MockClient{AskBody: "{\"content\":\"a\"}\n{\"error\":\"rate limited\"}\n{\"content\":\"b\"}\n"})

	result, err := s.Send(context.Background(), "hi", nil)
	if err != nil {
		t.Fatalf("Send() error: %v", err)
	}
	if result.Text != "Error: rate limited" {
		t.Errorf("Text = %q", result.Text)
	}
	if got := s.Conversation().Messages()[1].Text; got != "Error: rate limited" {
		t.Errorf("reply = %q", got)
	}
}

func TestSession_SendWhileInFlight(t *testing.T) {
	client := &api.MockClient{AskBody: "{\"content\":\"x\"}\n"}
	s := NewSession(client)

	if _, err := s.Conversation().Submit("pending"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Send(context.Background(), "second", nil); !errors.Is(err, apierrors.ErrSubmissionInFlight) {
		t.Errorf("error = %v, want ErrSubmissionInFlight", err)
	}
	if ask, _, _, _ := client.Calls(); ask != 0 {
		t.Error("refused submission must not reach the transport")
	}
}

func writeDoc(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("content"), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestSession_UploadEmptySelection(t *testing.T) {
	client := &api.MockClient{}
	s := NewSession(client)

	_, err := s.UploadSelection(context.Background())
	if !errors.Is(err, apierrors.ErrNoFiles) {
		t.Errorf("error = %v, want ErrNoFiles", err)
	}
	if _, upload, _, _ := client.Calls(); upload != 0 {
		t.Error("transport must not be called for an empty selection")
	}
}

func TestSession_UploadClearsSelection(t *testing.T) {
	dir := t.TempDir()
	a := writeDoc(t, dir, "a.pdf")
	b := writeDoc(t, dir, "b.txt")

	t.Run("success", func(t *testing.T) {
		client := &api.MockClient{UploadVal: &models.UploadResult{UploadedFiles: []string{"a.pdf", "b.txt"}}}
		s := NewSession(client)

		if err := s.Select(a, b, a); err != nil {
			t.Fatal(err)
		}
		if len(s.Selection()) != 2 {
			t.Fatalf("selection = %v, want deduplicated", s.Selection())
		}

		result, err := s.UploadSelection(context.Background())
		if err != nil {
			t.Fatal(err)
		}
		if result.Summary() != "a.pdf, b.txt" {
			t.Errorf("Summary() = %q", result.Summary())
		}
		if len(client.LastPaths) != 2 {
			t.Errorf("uploaded %v", client.LastPaths)
		}
		if len(s.Selection()) != 0 {
			t.Error("selection should be cleared after success")
		}
	})

	t.Run("failure", func(t *testing.T) {
		client := &api.MockClient{UploadErr: apierrors.NewUploadStatusError(models.EndpointUploadFiles, 500, "")}
		s := NewSession(client)
		_ = s.Select(a)

		if _, err := s.UploadSelection(context.Background()); !apierrors.IsUploadError(err) {
			t.Errorf("error = %v", err)
		}
		if len(s.Selection()) != 0 {
			t.Error("selection should be cleared after failure")
		}
	})
}

func TestSession_SelectValidation(t *testing.T) {
	dir := t.TempDir()
	s := NewSession(&api.MockClient{})

	tests := []string{
		filepath.Join(dir, "missing.pdf"),
		dir,
		writeDoc(t, dir, "photo.png"),
	}
	for _, path := range tests {
		if err := s.Select(path); !apierrors.IsUploadError(err) {
			t.Errorf("Select(%s) error = %v, want UploadError", path, err)
		}
	}
	if len(s.Selection()) != 0 {
		t.Errorf("invalid paths were selected: %v", s.Selection())
	}

	// One bad path rejects the whole call.
	ok := writeDoc(t, dir, "ok.docx")
	if err := s.Select(ok, filepath.Join(dir, "typo.pdf")); !apierrors.IsUploadError(err) {
		t.Errorf("Select(valid, missing) error = %v, want UploadError", err)
	}
	if got := s.Selection(); len(got) != 0 {
		t.Errorf("Selection() = %v after a failed Select, want empty", got)
	}

	if err := s.Select(ok, ok); err != nil {
		t.Fatalf("Select(ok) error = %v", err)
	}
	if got := s.Selection(); len(got) != 1 || got[0] != ok {
		t.Errorf("Selection() = %v, want [%s]", got, ok)
	}
	s.ClearSelection()
	if len(s.Selection()) != 0 {
		t.Error("ClearSelection() left entries")
	}
}

func TestSession_RecordingFillsInput(t *testing.T) {
	client := &api.MockClient{TranscribeVal: &models.Transcription{Transcript: "what does the report say"}}
	s, recorder, _, _ := newVoiceSession(client)
	ctx := context.Background()

	_, started, err := s.ToggleRecording(ctx)
	if err != nil || !started {
		t.Fatalf("ToggleRecording() started=%v err=%v", started, err)
	}
	if !s.Recording() {
		t.Fatal("Recording() should be true")
	}
	if err := s.StartRecording(ctx); !errors.Is(err, apierrors.ErrRecordingActive) {
		t.Errorf("second StartRecording() error = %v", err)
	}

	transcript, started, err := s.ToggleRecording(ctx)
	if err != nil || started {
		t.Fatalf("ToggleRecording() started=%v err=%v", started, err)
	}
	if transcript != "what does the report say" {
		t.Errorf("transcript = %q", transcript)
	}
	if s.Conversation().Input() != transcript {
		t.Errorf("input = %q", s.Conversation().Input())
	}
	if s.Conversation().Len() != 0 {
		t.Error("transcription must never submit")
	}
	if client.LastClip == nil || client.LastClip.FileName != "voice-input.wav" {
		t.Errorf("transcribed clip = %+v", client.LastClip)
	}
	if started, stopped, _ := recorder.Counts(); started != 1 || stopped != 1 {
		t.Errorf("recorder counts = %d/%d", started, stopped)
	}
	if s.Recording() || s.Transcribing() {
		t.Error("session should be idle")
	}
}

func TestSession_RecordingTranscriptionFailure(t *testing.T) {
	client := &api.MockClient{TranscribeErr: apierrors.NewTranscriptionStatusError(models.EndpointVoiceInput, 400, "")}
	s, _, _, _ := newVoiceSession(client)
	s.Conversation().SetInput("typed")

	_ = s.StartRecording(context.Background())
	if _, err := s.StopRecording(context.Background()); !apierrors.IsTranscriptionError(err) {
		t.Errorf("error = %v", err)
	}
	if s.Conversation().Input() != "typed" {
		t.Error("failed transcription must leave the input alone")
	}
}

func TestSession_StopWithoutRecording(t *testing.T) {
	s, _, _, _ := newVoiceSession(&api.MockClient{})
	if _, err := s.StopRecording(context.Background()); !errors.Is(err, apierrors.ErrNotRecording) {
		t.Errorf("error = %v, want ErrNotRecording", err)
	}
}

func TestSession_AbortRecording(t *testing.T) {
	client := &api.MockClient{}
	s, recorder, _, _ := newVoiceSession(client)

	_ = s.StartRecording(context.Background())
	s.AbortRecording()
	s.AbortRecording()

	if _, _, aborted := recorder.Counts(); aborted != 1 {
		t.Errorf("aborted = %d, want 1", aborted)
	}
	if _, _, transcribe, _ := client.Calls(); transcribe != 0 {
		t.Error("abandoned recording must not be transcribed")
	}
}

func TestSession_VoiceDisabled(t *testing.T) {
	s := NewSession(&api.MockClient{})
	ctx := context.Background()

	if s.VoiceInputEnabled() || s.VoiceOutputEnabled() || s.CanPlay() {
		t.Error("voice should be disabled without capabilities")
	}
	if err := s.StartRecording(ctx); !errors.Is(err, apierrors.ErrVoiceDisabled) {
		t.Errorf("StartRecording() error = %v", err)
	}
	if _, err := s.SpeakText(ctx, "x"); !errors.Is(err, apierrors.ErrVoiceDisabled) {
		t.Errorf("SpeakText() error = %v", err)
	}
}

func TestSession_Speak(t *testing.T) {
	client := &api.MockClient{AskBody: "{\"content\":\"Hello\"}\n"}
	s, _, store, player := newVoiceSession(client)
	ctx := context.Background()

	if _, err := s.Speak(ctx); !errors.Is(err, apierrors.ErrNothingToSpeak) {
		t.Errorf("Speak() error = %v, want ErrNothingToSpeak", err)
	}
	if _, _, _, synth := client.Calls(); synth != 0 {
		t.Error("nothing to speak must not reach the transport")
	}

	if _, err := s.Send(ctx, "hi", nil); err != nil {
		t.Fatal(err)
	}

	first, err := s.Speak(ctx)
	if err != nil {
		t.Fatalf("Speak() error: %v", err)
	}
	if client.LastSpeechText != "Hello" {
		t.Errorf("synthesized %q", client.LastSpeechText)
	}
	if err := s.Play(ctx); err != nil {
		t.Fatal(err)
	}
	if len(player.Played) != 1 || player.Played[0] != first.Location() {
		t.Errorf("played %v", player.Played)
	}

	if _, err := s.Speak(ctx); err != nil {
		t.Fatal(err)
	}
	if store.Created[0].ReleaseCount() != 1 {
		t.Errorf("superseded resource released %d times, want 1", store.Created[0].ReleaseCount())
	}

	s.Close()
	if store.Created[1].ReleaseCount() != 1 {
		t.Errorf("Close() released current %d times, want 1", store.Created[1].ReleaseCount())
	}
}

func TestSession_SpeakFailureKeepsCurrent(t *testing.T) {
	client := &api.MockClient{SynthesizeErr: apierrors.NewSynthesisError(models.EndpointVoiceOutput, io.ErrUnexpectedEOF)}
	s, _, store, _ := newVoiceSession(client)

	if _, err := s.SpeakText(context.Background(), "hello"); !apierrors.IsSynthesisError(err) {
		t.Errorf("error = %v", err)
	}
	if len(store.Created) != 0 {
		t.Error("no resource should be created when synthesis fails")
	}
}
