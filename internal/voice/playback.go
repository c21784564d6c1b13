package voice

import (
	"context"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/diogo/mybot/internal/logging"
	"github.com/diogo/mybot/internal/models"
)

// PlaybackManager owns the single current playback resource. Presenting a
// new clip releases the previous resource first.
type PlaybackManager struct {
	store  Store
	player Player
	logger *log.Logger

	mu      sync.Mutex
	current Resource
	closed  bool
}

// NewPlaybackManager creates a manager. player may be nil when audio is
// only saved, never played.
func NewPlaybackManager(store Store, player Player, logger *log.Logger) *PlaybackManager {
	if logger == nil {
		logger = logging.Discard()
	}
	return &PlaybackManager{store: store, player: player, logger: logger}
}

// Present replaces the current resource with one holding clip
func (m *PlaybackManager) Present(clip *models.AudioClip) (Resource, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, fmt.Errorf("playback manager is closed")
	}

	m.releaseCurrent()

	res, err := m.store.Create(clip)
	if err != nil {
		return nil, err
	}
	m.current = res
	m.logger.Debug("audio resource created", "location", res.Location(), "bytes", clip.Size())
	return res, nil
}

// Current returns the current resource, or nil
func (m *PlaybackManager) Current() Resource {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// Play plays the current resource
func (m *PlaybackManager) Play(ctx context.Context) error {
	res := m.Current()
	if res == nil {
		return fmt.Errorf("no audio to play")
	}
	if m.player == nil {
		return fmt.Errorf("no audio player configured")
	}
	return m.player.Play(ctx, res.Location())
}

// CanPlay reports whether a player is configured
func (m *PlaybackManager) CanPlay() bool {
	return m.player != nil
}

// Close releases the current resource. Later Present calls fail.
func (m *PlaybackManager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.releaseCurrent()
	m.closed = true
}

func (m *PlaybackManager) releaseCurrent() {
	if m.current == nil {
		return
	}
	if err := m.current.Release(); err != nil {
		m.logger.Warn("failed to release audio resource", "location", m.current.Location(), "err", err)
	}
	m.current = nil
}
