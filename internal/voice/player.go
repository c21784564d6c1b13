package voice

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// DefaultPlayCommand plays a file without opening a window
func DefaultPlayCommand() []string {
	return []string{"ffplay", "-nodisp", "-autoexit", "-loglevel", "quiet"}
}

// Player plays a stored audio resource
type Player interface {
	Play(ctx context.Context, location string) error
}

// CommandPlayer plays by running an external program with the file path as
// its last argument.
type CommandPlayer struct {
	command []string
}

// NewCommandPlayer creates a player. An empty command selects DefaultPlayCommand.
func NewCommandPlayer(command []string) *CommandPlayer {
	if len(command) == 0 {
		command = DefaultPlayCommand()
	}
	return &CommandPlayer{command: command}
}

// Play blocks until playback finishes or ctx is cancelled
func (p *CommandPlayer) Play(ctx context.Context, location string) error {
	args := append(append([]string(nil), p.command[1:]...), location)
	cmd := exec.CommandContext(ctx, p.command[0], args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if detail := strings.TrimSpace(stderr.String()); detail != "" {
			return fmt.Errorf("playback failed: %w: %s", err, detail)
		}
		return fmt.Errorf("playback failed: %w", err)
	}
	return nil
}
