package voice

import (
	"context"
	"fmt"
	"sync"

	apierrors "github.com/diogo/mybot/internal/errors"
	"github.com/diogo/mybot/internal/models"
)

// MockRecorder is an in-memory Recorder for testing
type MockRecorder struct {
	mu sync.Mutex

	Clip     *models.AudioClip
	StartErr error
	StopErr  error

	Started int
	Stopped int
	Aborted int
}

// Start implements Recorder
func (m *MockRecorder) Start(ctx context.Context) (Recording, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.StartErr != nil {
		return nil, m.StartErr
	}
	m.Started++
	return &mockRecording{recorder: m}, nil
}

// Counts returns started, stopped and aborted totals
func (m *MockRecorder) Counts() (started, stopped, aborted int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Started, m.Stopped, m.Aborted
}

type mockRecording struct {
	recorder *MockRecorder
	done     bool
}

func (r *mockRecording) Stop() (*models.AudioClip, error) {
	m := r.recorder
	m.mu.Lock()
	defer m.mu.Unlock()

	if r.done {
		return nil, apierrors.ErrNotRecording
	}
	r.done = true
	m.Stopped++
	if m.StopErr != nil {
		return nil, m.StopErr
	}
	if m.Clip != nil {
		return m.Clip, nil
	}
	return &models.AudioClip{Data: []byte("RIFF"), MIMEType: "audio/wav", FileName: "voice-input.wav"}, nil
}

func (r *mockRecording) Abort() error {
	m := r.recorder
	m.mu.Lock()
	defer m.mu.Unlock()

	if r.done {
		return nil
	}
	r.done = true
	m.Aborted++
	return nil
}

// MockStore is an in-memory Store that counts releases per resource
type MockStore struct {
	mu        sync.Mutex
	CreateErr error
	Created   []*MockResource
}

// Create implements Store
func (s *MockStore) Create(clip *models.AudioClip) (Resource, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.CreateErr != nil {
		return nil, s.CreateErr
	}
	res := &MockResource{Loc: fmt.Sprintf("mem://clip-%d", len(s.Created)+1), Clip: clip}
	s.Created = append(s.Created, res)
	return res, nil
}

// MockResource records how often it was released
type MockResource struct {
	mu       sync.Mutex
	Loc      string
	Clip     *models.AudioClip
	Releases int
}

// Location implements Resource
func (r *MockResource) Location() string { return r.Loc }

// Release implements Resource. It counts every call.
func (r *MockResource) Release() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Releases++
	return nil
}

// ReleaseCount returns how often Release was called
func (r *MockResource) ReleaseCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.Releases
}

// MockPlayer records played locations
type MockPlayer struct {
	mu     sync.Mutex
	Err    error
	Played []string
}

// Play implements Player
func (p *MockPlayer) Play(ctx context.Context, location string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Played = append(p.Played, location)
	return p.Err
}
