// Package voice provides audio capture, audio resource storage and playback.
// Each capability is an interface so the chat session can run without
// audio hardware.
package voice

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	apierrors "github.com/diogo/mybot/internal/errors"
	"github.com/diogo/mybot/internal/logging"
	"github.com/diogo/mybot/internal/models"
)

// stopGrace is how long a recorder may take to flush after an interrupt
const stopGrace = 3 * time.Second

// DefaultRecordCommand captures CD-quality WAV from the default input to stdout
func DefaultRecordCommand() []string {
	return []string{"arecord", "-q", "-f", "cd", "-t", "wav"}
}

// Recorder starts audio captures
type Recorder interface {
	Start(ctx context.Context) (Recording, error)
}

// Recording is one capture in progress. Exactly one of Stop or Abort should
// be called; either releases the capture device.
type Recording interface {
	// Stop ends the capture and returns the recorded audio.
	Stop() (*models.AudioClip, error)
	// Abort ends the capture and discards the audio.
	Abort() error
}

// CommandRecorder records by running an external program that writes audio
// to its standard output until interrupted.
type CommandRecorder struct {
	command  []string
	mimeType string
	logger   *log.Logger
}

// NewCommandRecorder creates a recorder. An empty command selects
// DefaultRecordCommand and an empty mimeType selects audio/wav.
func NewCommandRecorder(command []string, mimeType string, logger *log.Logger) *CommandRecorder {
	if len(command) == 0 {
		command = DefaultRecordCommand()
	}
	if mimeType == "" {
		mimeType = "audio/wav"
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &CommandRecorder{command: command, mimeType: mimeType, logger: logger}
}

// Start launches the capture program
func (r *CommandRecorder) Start(ctx context.Context) (Recording, error) {
	cmd := exec.CommandContext(ctx, r.command[0], r.command[1:]...)

	rec := &commandRecording{
		cmd:      cmd,
		mimeType: r.mimeType,
		logger:   r.logger,
		done:     make(chan struct{}),
	}
	cmd.Stdout = &rec.stdout
	cmd.Stderr = &rec.stderr

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start recorder %q: %w", r.command[0], err)
	}
	r.logger.Debug("recording started", "command", strings.Join(r.command, " "), "pid", cmd.Process.Pid)

	go func() {
		rec.waitErr = cmd.Wait()
		close(rec.done)
	}()

	return rec, nil
}

type commandRecording struct {
	cmd      *exec.Cmd
	mimeType string
	logger   *log.Logger

	stdout  bytes.Buffer
	stderr  bytes.Buffer
	done    chan struct{}
	waitErr error

	mu     sync.Mutex
	closed bool
}

func (r *commandRecording) Stop() (*models.AudioClip, error) {
	if !r.claim() {
		return nil, apierrors.ErrNotRecording
	}

	// an interrupt lets the recorder finish the file header
	if err := r.cmd.Process.Signal(os.Interrupt); err != nil {
		_ = r.cmd.Process.Kill()
	}

	select {
	case <-r.done:
	case <-time.After(stopGrace):
		r.logger.Warn("recorder did not exit after interrupt, killing it")
		_ = r.cmd.Process.Kill()
		<-r.done
	}

	if r.stdout.Len() == 0 {
		detail := strings.TrimSpace(r.stderr.String())
		if detail == "" && r.waitErr != nil {
			detail = r.waitErr.Error()
		}
		return nil, fmt.Errorf("recorder produced no audio: %s", detail)
	}

	clip := &models.AudioClip{
		Data:     append([]byte(nil), r.stdout.Bytes()...),
		MIMEType: r.mimeType,
	}
	clip.FileName = "voice-input" + clip.Extension()

	r.logger.Debug("recording stopped", "bytes", clip.Size())
	return clip, nil
}

func (r *commandRecording) Abort() error {
	if !r.claim() {
		return nil
	}
	_ = r.cmd.Process.Kill()
	<-r.done
	r.logger.Debug("recording abandoned")
	return nil
}

// claim marks the recording closed and reports whether this call did it
func (r *commandRecording) claim() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return false
	}
	r.closed = true
	return true
}
