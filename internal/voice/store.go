package voice

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"

	"github.com/diogo/mybot/internal/models"
)

// Resource is a playable handle to stored audio
type Resource interface {
	// Location is what a Player needs to play the audio.
	Location() string
	// Release frees the resource. Releasing twice is a no-op.
	Release() error
}

// Store turns audio clips into playable resources
type Store interface {
	Create(clip *models.AudioClip) (Resource, error)
}

// TempFileStore keeps each clip in its own file under Dir
type TempFileStore struct {
	// Dir defaults to os.TempDir().
	Dir string
}

// NewTempFileStore creates a store writing to dir
func NewTempFileStore(dir string) *TempFileStore {
	return &TempFileStore{Dir: dir}
}

// Create writes clip to a uniquely named file
func (s *TempFileStore) Create(clip *models.AudioClip) (Resource, error) {
	if clip.Size() == 0 {
		return nil, fmt.Errorf("audio clip is empty")
	}

	dir := s.Dir
	if dir == "" {
		dir = os.TempDir()
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create audio directory: %w", err)
	}

	path := filepath.Join(dir, "mybot-"+uuid.NewString()+clip.Extension())
	if err := os.WriteFile(path, clip.Data, 0o600); err != nil {
		return nil, fmt.Errorf("failed to write audio file: %w", err)
	}

	return &fileResource{path: path}, nil
}

type fileResource struct {
	path string
	once sync.Once
	err  error
}

func (r *fileResource) Location() string {
	return r.path
}

func (r *fileResource) Release() error {
	r.once.Do(func() {
		if err := os.Remove(r.path); err != nil && !os.IsNotExist(err) {
			r.err = fmt.Errorf("failed to remove audio file: %w", err)
		}
	})
	return r.err
}
