package models

import (
	"path/filepath"
	"strings"
)

// UploadResult is the server's answer to a document upload
type UploadResult struct {
	UploadedFiles []string
	// Count is the server-reported number of stored files
	Count int
}

// Summary returns the uploaded names joined for display, or a generic
// success text when the server listed none.
func (r *UploadResult) Summary() string {
	if r == nil || len(r.UploadedFiles) == 0 {
		return UploadFallback
	}
	return strings.Join(r.UploadedFiles, ", ")
}

// Transcription is the server's answer to a voice-input request
type Transcription struct {
	Transcript string
}

// DefaultSpeechMIME is assumed when synthesized audio arrives untyped
const DefaultSpeechMIME = "audio/mpeg"

// AudioClip holds recorded or synthesized audio
type AudioClip struct {
	Data     []byte
	MIMEType string
	FileName string
}

// Size returns the clip length in bytes
func (c *AudioClip) Size() int {
	if c == nil {
		return 0
	}
	return len(c.Data)
}

// Extension returns the file extension matching the clip's MIME type
func (c *AudioClip) Extension() string {
	if c == nil {
		return ""
	}
	if c.FileName != "" {
		if ext := filepath.Ext(c.FileName); ext != "" {
			return ext
		}
	}
	switch strings.ToLower(strings.TrimSpace(strings.Split(c.MIMEType, ";")[0])) {
	case "audio/wav", "audio/x-wav", "audio/wave":
		return ".wav"
	case "audio/webm":
		return ".webm"
	case "audio/ogg":
		return ".ogg"
	case "audio/mpeg", "audio/mp3":
		return ".mp3"
	default:
		return ".bin"
	}
}
