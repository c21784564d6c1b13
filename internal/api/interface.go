package api

import (
	"context"
	"io"

	"github.com/diogo/mybot/internal/models"
)

// ClientInterface is the transport used by the chat session and the CLI
type ClientInterface interface {
	// Ask posts a query and returns the live NDJSON answer stream.
	// The caller closes it.
	Ask(ctx context.Context, query string) (io.ReadCloser, error)
	UploadFiles(ctx context.Context, paths []string) (*models.UploadResult, error)
	Transcribe(ctx context.Context, clip *models.AudioClip) (*models.Transcription, error)
	Synthesize(ctx context.Context, text string) (*models.AudioClip, error)
	Close()
}

var _ ClientInterface = (*Client)(nil)
