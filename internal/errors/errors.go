// Package errors provides custom error types for the mybot assistant client.
package errors

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/tidwall/gjson"
)

// Sentinel errors for common cases
var (
	ErrNetwork            = errors.New("network error")
	ErrUpload             = errors.New("upload failed")
	ErrTranscription      = errors.New("transcription failed")
	ErrSynthesis          = errors.New("speech synthesis failed")
	ErrInvalidChunk       = errors.New("invalid stream chunk")
	ErrEmptyResponse      = errors.New("no response received from server")
	ErrStreamFailed       = errors.New("server reported a stream error")
	ErrNoFiles            = errors.New("please select files first")
	ErrEmptyPrompt        = errors.New("prompt cannot be empty")
	ErrSubmissionInFlight = errors.New("a response is still streaming")
	ErrNothingToSpeak     = errors.New("no assistant response to convert to speech")
	ErrNotRecording       = errors.New("no recording in progress")
	ErrStaleSubmission    = errors.New("submission is no longer in flight")
	ErrRecordingActive    = errors.New("a recording is already in progress")
	ErrVoiceDisabled      = errors.New("voice features are disabled")
)

// maxBodyLen caps the response body kept on an error for diagnostics.
const maxBodyLen = 4096

// requestFailure holds the request context shared by the transport errors.
type requestFailure struct {
	Endpoint   string
	StatusCode int
	Body       string
	Cause      error
}

func newStatusFailure(endpoint string, status int, body string) requestFailure {
	if len(body) > maxBodyLen {
		cut := maxBodyLen
		for cut > 0 && !utf8.RuneStart(body[cut]) {
			cut--
		}
		body = body[:cut]
	}
	return requestFailure{Endpoint: endpoint, StatusCode: status, Body: body}
}

func (f requestFailure) describe(kind string) string {
	switch {
	case f.StatusCode > 0:
		return fmt.Sprintf("%s [%d] at %s: %s", kind, f.StatusCode, f.Endpoint, f.detail())
	case f.Cause != nil:
		return fmt.Sprintf("%s at %s: %v", kind, f.Endpoint, f.Cause)
	default:
		return fmt.Sprintf("%s at %s", kind, f.Endpoint)
	}
}

// detail prefers the server's "detail" field, then the raw body.
func (f requestFailure) detail() string {
	if d := detailFromBody(f.Body); d != "" {
		return d
	}
	if f.Cause != nil {
		return f.Cause.Error()
	}
	return fmt.Sprintf("status %d", f.StatusCode)
}

// NetworkError is returned when a request could not be sent or the remote
// answered with a non-success status.
type NetworkError struct {
	requestFailure
	Operation string
}

func (e *NetworkError) Error() string {
	return e.describe("network error")
}

func (e *NetworkError) Unwrap() error { return e.Cause }

// Is allows comparison with sentinel errors
func (e *NetworkError) Is(target error) bool {
	if target == ErrNetwork {
		return true
	}
	_, ok := target.(*NetworkError)
	return ok
}

// NewNetworkError creates a NetworkError for a transport failure
func NewNetworkError(operation, endpoint string, cause error) *NetworkError {
	return &NetworkError{
		requestFailure: requestFailure{Endpoint: endpoint, Cause: cause},
		Operation:      operation,
	}
}

// NewNetworkStatusError creates a NetworkError for a non-success status
func NewNetworkStatusError(operation, endpoint string, status int, body string) *NetworkError {
	return &NetworkError{
		requestFailure: newStatusFailure(endpoint, status, body),
		Operation:      operation,
	}
}

// UploadError represents a failed document upload
type UploadError struct {
	requestFailure
	FileName string
}

func (e *UploadError) Error() string {
	if e.FileName != "" && e.StatusCode == 0 {
		return fmt.Sprintf("upload failed for %s: %v", e.FileName, e.Cause)
	}
	return e.describe("upload failed")
}

func (e *UploadError) Unwrap() error { return e.Cause }

// Is allows comparison with sentinel errors
func (e *UploadError) Is(target error) bool {
	if target == ErrUpload {
		return true
	}
	_, ok := target.(*UploadError)
	return ok
}

// NewUploadError creates an UploadError for a transport or file failure
func NewUploadError(endpoint string, cause error) *UploadError {
	return &UploadError{requestFailure: requestFailure{Endpoint: endpoint, Cause: cause}}
}

// NewUploadFileError creates an UploadError for a local file that cannot be sent
func NewUploadFileError(endpoint, fileName string, cause error) *UploadError {
	return &UploadError{
		requestFailure: requestFailure{Endpoint: endpoint, Cause: cause},
		FileName:       fileName,
	}
}

// NewUploadStatusError creates an UploadError for a non-success status
func NewUploadStatusError(endpoint string, status int, body string) *UploadError {
	return &UploadError{requestFailure: newStatusFailure(endpoint, status, body)}
}

// TranscriptionError represents a failed speech-to-text request
type TranscriptionError struct {
	requestFailure
}

func (e *TranscriptionError) Error() string {
	return e.describe("transcription failed")
}

func (e *TranscriptionError) Unwrap() error { return e.Cause }

// Is allows comparison with sentinel errors
func (e *TranscriptionError) Is(target error) bool {
	if target == ErrTranscription {
		return true
	}
	_, ok := target.(*TranscriptionError)
	return ok
}

// NewTranscriptionError creates a TranscriptionError for a transport failure
func NewTranscriptionError(endpoint string, cause error) *TranscriptionError {
	return &TranscriptionError{requestFailure{Endpoint: endpoint, Cause: cause}}
}

// NewTranscriptionStatusError creates a TranscriptionError for a non-success status
func NewTranscriptionStatusError(endpoint string, status int, body string) *TranscriptionError {
	return &TranscriptionError{newStatusFailure(endpoint, status, body)}
}

// SynthesisError represents a failed text-to-speech request
type SynthesisError struct {
	requestFailure
}

func (e *SynthesisError) Error() string {
	return e.describe("speech synthesis failed")
}

func (e *SynthesisError) Unwrap() error { return e.Cause }

// Is allows comparison with sentinel errors
func (e *SynthesisError) Is(target error) bool {
	if target == ErrSynthesis {
		return true
	}
	_, ok := target.(*SynthesisError)
	return ok
}

// NewSynthesisError creates a SynthesisError for a transport failure
func NewSynthesisError(endpoint string, cause error) *SynthesisError {
	return &SynthesisError{requestFailure{Endpoint: endpoint, Cause: cause}}
}

// NewSynthesisStatusError creates a SynthesisError for a non-success status
func NewSynthesisStatusError(endpoint string, status int, body string) *SynthesisError {
	return &SynthesisError{newStatusFailure(endpoint, status, body)}
}

// ParseError represents a stream line that is not a valid chunk record
type ParseError struct {
	Message string
	Line    string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error: %s", e.Message)
}

// Is allows comparison with sentinel errors
func (e *ParseError) Is(target error) bool {
	if target == ErrInvalidChunk {
		return true
	}
	_, ok := target.(*ParseError)
	return ok
}

// NewParseError creates a new ParseError
func NewParseError(message, line string) *ParseError {
	return &ParseError{Message: message, Line: line}
}

// EmptyResponseError is returned when a stream completes without content
type EmptyResponseError struct {
	Endpoint string
}

func (e *EmptyResponseError) Error() string {
	return ErrEmptyResponse.Error()
}

// Is allows comparison with sentinel errors
func (e *EmptyResponseError) Is(target error) bool {
	if target == ErrEmptyResponse {
		return true
	}
	_, ok := target.(*EmptyResponseError)
	return ok
}

// NewEmptyResponseError creates a new EmptyResponseError
func NewEmptyResponseError(endpoint string) *EmptyResponseError {
	return &EmptyResponseError{Endpoint: endpoint}
}

// StreamError carries an error reported by the server inside the stream
type StreamError struct {
	Message string
}

func (e *StreamError) Error() string {
	return fmt.Sprintf("stream error: %s", e.Message)
}

// Is allows comparison with sentinel errors
func (e *StreamError) Is(target error) bool {
	if target == ErrStreamFailed {
		return true
	}
	_, ok := target.(*StreamError)
	return ok
}

// NewStreamError creates a new StreamError
func NewStreamError(message string) *StreamError {
	return &StreamError{Message: message}
}

// failureOf extracts the shared request context from a transport error.
func failureOf(err error) (requestFailure, bool) {
	var netErr *NetworkError
	if errors.As(err, &netErr) {
		return netErr.requestFailure, true
	}
	var upErr *UploadError
	if errors.As(err, &upErr) {
		return upErr.requestFailure, true
	}
	var trErr *TranscriptionError
	if errors.As(err, &trErr) {
		return trErr.requestFailure, true
	}
	var synErr *SynthesisError
	if errors.As(err, &synErr) {
		return synErr.requestFailure, true
	}
	return requestFailure{}, false
}

// GetHTTPStatus returns the HTTP status carried by err, or 0
func GetHTTPStatus(err error) int {
	if f, ok := failureOf(err); ok {
		return f.StatusCode
	}
	return 0
}

// GetEndpoint returns the endpoint carried by err, or ""
func GetEndpoint(err error) string {
	if f, ok := failureOf(err); ok {
		return f.Endpoint
	}
	var emptyErr *EmptyResponseError
	if errors.As(err, &emptyErr) {
		return emptyErr.Endpoint
	}
	return ""
}

// GetResponseBody returns the (truncated) response body carried by err
func GetResponseBody(err error) string {
	if f, ok := failureOf(err); ok {
		return f.Body
	}
	return ""
}

// Detail returns the most useful human-readable reason for err: the server's
// "detail" field when present, otherwise the error text.
func Detail(err error) string {
	if err == nil {
		return ""
	}
	if f, ok := failureOf(err); ok {
		return f.detail()
	}
	var streamErr *StreamError
	if errors.As(err, &streamErr) {
		return streamErr.Message
	}
	return err.Error()
}

// detailFromBody extracts {"detail": ...} from a JSON error body.
func detailFromBody(body string) string {
	body = strings.TrimSpace(body)
	if body == "" {
		return ""
	}
	if !gjson.Valid(body) {
		return body
	}
	detail := gjson.Get(body, "detail")
	if !detail.Exists() {
		return body
	}
	if detail.IsArray() {
		// validation errors come back as a list of {msg: ...}
		var msgs []string
		detail.ForEach(func(_, v gjson.Result) bool {
			if msg := v.Get("msg").String(); msg != "" {
				msgs = append(msgs, msg)
			}
			return true
		})
		if len(msgs) > 0 {
			return strings.Join(msgs, "; ")
		}
		return detail.Raw
	}
	return detail.String()
}

// IsNetworkError reports whether err is a NetworkError
func IsNetworkError(err error) bool {
	return errors.Is(err, ErrNetwork)
}

// IsUploadError reports whether err is an UploadError
func IsUploadError(err error) bool {
	return errors.Is(err, ErrUpload)
}

// IsTranscriptionError reports whether err is a TranscriptionError
func IsTranscriptionError(err error) bool {
	return errors.Is(err, ErrTranscription)
}

// IsSynthesisError reports whether err is a SynthesisError
func IsSynthesisError(err error) bool {
	return errors.Is(err, ErrSynthesis)
}

// IsParseError reports whether err is a ParseError
func IsParseError(err error) bool {
	return errors.Is(err, ErrInvalidChunk)
}

// IsEmptyResponse reports whether err is an EmptyResponseError
func IsEmptyResponse(err error) bool {
	return errors.Is(err, ErrEmptyResponse)
}
