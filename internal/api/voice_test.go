package api

import (
	"context"
	"errors"
	"testing"

	"github.com/tidwall/gjson"

	apierrors "github.com/diogo/mybot/internal/errors"
	"github.com/diogo/mybot/internal/models"
)

func TestTranscribe_Success(t *testing.T) {
	mock := NewMockHttpClient([]byte(`{"transcript":"  what is in the report  "}`), 200)
	client := newTestClient(mock)

	clip := &models.AudioClip{Data: []byte("RIFF....WAVE"), MIMEType: "audio/wav"}
	result, err := client.Transcribe(context.Background(), clip)
	if err != nil {
		t.Fatalf("Transcribe() error: %v", err)
	}
	if result.Transcript != "what is in the report" {
		t.Errorf("Transcript = %q", result.Transcript)
	}

	req := mock.LastRequest()
	if req.URL != "http://bot.test"+models.EndpointVoiceInput {
		t.Errorf("url = %s", req.URL)
	}
	files := readForm(t, req)
	if len(files) != 1 {
		t.Fatalf("got %d parts, want 1", len(files))
	}
	part := files[0]
	if part.Field != "file" || part.FileName != "voice-input.wav" || part.ContentType != "audio/wav" {
		t.Errorf("part = %+v", part)
	}
	if part.Data != "RIFF....WAVE" {
		t.Errorf("audio data = %q", part.Data)
	}
}

func TestTranscribe_Fallback(t *testing.T) {
	for _, body := range []string{`{}`, `{"transcript":""}`, `not json`} {
		mock := NewMockHttpClient([]byte(body), 200)
		client := newTestClient(mock)

		result, err := client.Transcribe(context.Background(), &models.AudioClip{Data: []byte("x"), FileName: "clip.webm"})
		if err != nil {
			t.Fatalf("Transcribe(%s) error: %v", body, err)
		}
		if result.Transcript != models.TranscriptFallback {
			t.Errorf("Transcribe(%s) = %q, want fallback", body, result.Transcript)
		}
	}
}

func TestTranscribe_Errors(t *testing.T) {
	tests := []struct {
		name string
		mock *MockHttpClient
		clip *models.AudioClip
		sent bool
	}{
		{"empty clip", &MockHttpClient{}, &models.AudioClip{}, false},
		{"nil clip", &MockHttpClient{}, nil, false},
		{"transport", NewMockHttpClientWithError(errors.New("reset")), &models.AudioClip{Data: []byte("x")}, true},
		{"status", NewMockHttpClient([]byte(`{"detail":"could not decode audio"}`), 400), &models.AudioClip{Data: []byte("x")}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(tt.mock)
			_, err := client.Transcribe(context.Background(), tt.clip)
			if !apierrors.IsTranscriptionError(err) {
				t.Errorf("error = %v, want TranscriptionError", err)
			}
			if sent := len(tt.mock.Requests) > 0; sent != tt.sent {
				t.Errorf("request sent = %v, want %v", sent, tt.sent)
			}
		})
	}
}

func TestSynthesize_Success(t *testing.T) {
	mock := NewMockHttpClient([]byte("ID3-mp3-bytes"), 200)
	mock.Response.Header.Set("Content-Type", "audio/mpeg")
	client := newTestClient(mock)

	clip, err := client.Synthesize(context.Background(), "Hello there")
	if err != nil {
		t.Fatalf("Synthesize() error: %v", err)
	}
	if string(clip.Data) != "ID3-mp3-bytes" {
		t.Errorf("Data = %q", clip.Data)
	}
	if clip.MIMEType != "audio/mpeg" || clip.Extension() != ".mp3" {
		t.Errorf("MIMEType = %s, Extension = %s", clip.MIMEType, clip.Extension())
	}

	req := mock.LastRequest()
	if got := gjson.GetBytes(req.Body, "query").String(); got != "Hello there" {
		t.Errorf("query = %q", got)
	}
}

func TestSynthesize_DefaultMIME(t *testing.T) {
	mock := NewMockHttpClient([]byte("bytes"), 200)
	client := newTestClient(mock)

	clip, err := client.Synthesize(context.Background(), "hi")
	if err != nil {
		t.Fatal(err)
	}
	if clip.MIMEType != models.DefaultSpeechMIME {
		t.Errorf("MIMEType = %s, want %s", clip.MIMEType, models.DefaultSpeechMIME)
	}
}

func TestSynthesize_Errors(t *testing.T) {
	t.Run("empty text", func(t *testing.T) {
		mock := &MockHttpClient{}
		_, err := newTestClient(mock).Synthesize(context.Background(), " ")
		if !errors.Is(err, apierrors.ErrNothingToSpeak) {
			t.Errorf("error = %v, want ErrNothingToSpeak", err)
		}
		if len(mock.Requests) != 0 {
			t.Error("empty text must not reach the transport")
		}
	})

	t.Run("empty audio", func(t *testing.T) {
		_, err := newTestClient(NewMockHttpClient(nil, 200)).Synthesize(context.Background(), "hi")
		if !apierrors.IsSynthesisError(err) {
			t.Errorf("error = %v, want SynthesisError", err)
		}
	})

	t.Run("status", func(t *testing.T) {
		_, err := newTestClient(NewMockHttpClient([]byte(`{"detail":"tts offline"}`), 503)).Synthesize(context.Background(), "hi")
		if !apierrors.IsSynthesisError(err) || apierrors.Detail(err) != "tts offline" {
			t.Errorf("error = %v", err)
		}
	})
}

func TestReadAudioFile(t *testing.T) {
	path := writeTempFile(t, t.TempDir(), "question.mp3", "ID3")

	clip, err := ReadAudioFile(path)
	if err != nil {
		t.Fatalf("ReadAudioFile() error: %v", err)
	}
	if string(clip.Data) != "ID3" || clip.FileName != "question.mp3" || clip.Extension() != ".mp3" {
		t.Errorf("clip = %+v", clip)
	}
	if clip.MIMEType == "" {
		t.Error("MIMEType should be detected")
	}

	if _, err := ReadAudioFile(path + ".missing"); !apierrors.IsTranscriptionError(err) {
		t.Errorf("missing file error = %v, want TranscriptionError", err)
	}
}
