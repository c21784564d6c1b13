// Package models contains data types and constants for the mybot assistant service.
package models

// DefaultBaseURL is the assistant service address used when none is configured
const DefaultBaseURL = "http://localhost:8000"

// Endpoints of the assistant service, relative to the base URL
const (
	EndpointAsk         = "/ask"
	EndpointUploadFiles = "/upload-files"
	EndpointVoiceInput  = "/voice-input"
	EndpointVoiceOutput = "/voice-output"
)

// Multipart field names expected by the service
const (
	FieldFiles = "files"
	FieldAudio = "file"
)

// Display texts shared by the CLI and the TUI
const (
	NoResponsePlaceholder = "No response received from server"
	ErrorPrefix           = "Error: "
	TranscriptFallback    = "Could not transcribe audio"
	UploadFallback        = "Files uploaded successfully"
)

// ContentTypeNDJSON is the media type of the /ask response stream
const ContentTypeNDJSON = "application/x-ndjson"

// DocumentExtensions returns the file extensions accepted for upload
func DocumentExtensions() []string {
	return []string{".pdf", ".txt", ".doc", ".docx"}
}

// DefaultHeaders returns the headers sent with every request
func DefaultHeaders() map[string]string {
	return map[string]string{
		"User-Agent":      "mybot/0.1",
		"Accept-Language": "en-US,en;q=0.9",
	}
}

// ErrorText formats a message for display in place of an assistant reply
func ErrorText(detail string) string {
	return ErrorPrefix + detail
}
