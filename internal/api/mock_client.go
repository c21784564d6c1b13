package api

import (
	"context"
	"io"
	"strings"
	"sync"

	"github.com/diogo/mybot/internal/models"
)

// MockClient is a mock implementation of ClientInterface for testing
type MockClient struct {
	mu sync.Mutex

	// Mock return values
	AskBody       string
	AskReader     io.ReadCloser
	AskErr        error
	UploadVal     *models.UploadResult
	UploadErr     error
	TranscribeVal *models.Transcription
	TranscribeErr error
	SynthesizeVal *models.AudioClip
	SynthesizeErr error

	// Call counters/recorders
	AskCalls        int
	UploadCalls     int
	TranscribeCalls int
	SynthesizeCalls int
	LastQuery       string
	LastPaths       []string
	LastClip        *models.AudioClip
	LastSpeechText  string
	CloseCalled     bool
}

// Ensure MockClient implements ClientInterface
var _ ClientInterface = (*MockClient)(nil)

func (m *MockClient) Ask(ctx context.Context, query string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.AskCalls++
	m.LastQuery = query
	if m.AskErr != nil {
		return nil, m.AskErr
	}
	if m.AskReader != nil {
		return m.AskReader, nil
	}
	return io.NopCloser(strings.NewReader(m.AskBody)), nil
}

func (m *MockClient) UploadFiles(ctx context.Context, paths []string) (*models.UploadResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.UploadCalls++
	m.LastPaths = append([]string(nil), paths...)
	if m.UploadErr != nil {
		return nil, m.UploadErr
	}
	if m.UploadVal != nil {
		return m.UploadVal, nil
	}
	return &models.UploadResult{}, nil
}

func (m *MockClient) Transcribe(ctx context.Context, clip *models.AudioClip) (*models.Transcription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.TranscribeCalls++
	m.LastClip = clip
	if m.TranscribeErr != nil {
		return nil, m.TranscribeErr
	}
	if m.TranscribeVal != nil {
		return m.TranscribeVal, nil
	}
	return &models.Transcription{Transcript: models.TranscriptFallback}, nil
}

func (m *MockClient) Synthesize(ctx context.Context, text string) (*models.AudioClip, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.SynthesizeCalls++
	m.LastSpeechText = text
	if m.SynthesizeErr != nil {
		return nil, m.SynthesizeErr
	}
	if m.SynthesizeVal != nil {
		return m.SynthesizeVal, nil
	}
	return &models.AudioClip{Data: []byte("audio"), MIMEType: models.DefaultSpeechMIME}, nil
}

func (m *MockClient) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CloseCalled = true
}

// Calls returns a snapshot of the call counters: ask, upload, transcribe, synthesize
func (m *MockClient) Calls() (ask, upload, transcribe, synthesize int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.AskCalls, m.UploadCalls, m.TranscribeCalls, m.SynthesizeCalls
}
