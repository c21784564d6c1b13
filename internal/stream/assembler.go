// Package stream decodes the newline-delimited JSON answer stream of the
// assistant service into one growing text.
package stream

import (
	"bytes"
	"context"
	"io"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/tidwall/gjson"

	apierrors "github.com/diogo/mybot/internal/errors"
	"github.com/diogo/mybot/internal/logging"
	"github.com/diogo/mybot/internal/models"
)

// ReadSize is the size of a single read from the response body
const ReadSize = 4096

// ssePrefix is accepted in front of a record for servers that frame the
// stream as server-sent events.
const ssePrefix = "data:"

// ParseChunk decodes one stream line. Whitespace around the record and an
// optional "data:" prefix are ignored. The record must be a JSON object;
// absent fields decode to their zero values.
func ParseChunk(line string) (models.StreamChunk, error) {
	line = strings.TrimSpace(line)
	if strings.HasPrefix(line, ssePrefix) {
		line = strings.TrimSpace(line[len(ssePrefix):])
	}
	if line == "" {
		return models.StreamChunk{}, apierrors.NewParseError("empty record", line)
	}
	if !gjson.Valid(line) {
		return models.StreamChunk{}, apierrors.NewParseError("invalid JSON", line)
	}

	record := gjson.Parse(line)
	if !record.IsObject() {
		return models.StreamChunk{}, apierrors.NewParseError("record is not an object", line)
	}

	return models.StreamChunk{
		Content: record.Get("content").String(),
		Done:    record.Get("done").Bool(),
		Error:   record.Get("error").String(),
	}, nil
}

// UpdateFunc receives the full text every time it changes
type UpdateFunc func(text string)

// Option configures an Assembler
type Option func(*Assembler)

// WithUpdate sets the hook called with the republished text
func WithUpdate(fn UpdateFunc) Option {
	return func(a *Assembler) {
		a.onUpdate = fn
	}
}

// WithLogger sets the logger for skipped and ignored records
func WithLogger(logger *log.Logger) Option {
	return func(a *Assembler) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// Assembler folds stream bytes into the answer text. Bytes may be split at
// any boundary, including inside a record or a multi-byte rune.
// An Assembler is not safe for concurrent use.
type Assembler struct {
	buf      []byte
	text     strings.Builder
	onUpdate UpdateFunc
	logger   *log.Logger

	serverErr  string
	sawContent bool
	done       bool
	finished   bool
	result     Result

	records int
	invalid int
	ignored int
}

// NewAssembler creates an Assembler
func NewAssembler(opts ...Option) *Assembler {
	a := &Assembler{logger: logging.Discard()}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Write consumes the next bytes of the stream. It never fails; malformed
// records are logged and skipped.
func (a *Assembler) Write(p []byte) (int, error) {
	if a.finished {
		return len(p), nil
	}

	a.buf = append(a.buf, p...)

	start := 0
	for {
		i := bytes.IndexByte(a.buf[start:], '\n')
		if i < 0 {
			break
		}
		a.processLine(a.buf[start : start+i])
		start += i + 1
	}
	a.buf = append(a.buf[:0], a.buf[start:]...)

	return len(p), nil
}

func (a *Assembler) processLine(line []byte) {
	if len(bytes.TrimSpace(line)) == 0 {
		return
	}

	chunk, err := ParseChunk(string(line))
	if err != nil {
		a.invalid++
		a.logger.Debug("skipping stream record", "err", err, "line", truncate(string(line), 120))
		return
	}
	a.records++

	if chunk.HasError() {
		if a.serverErr != "" {
			a.ignored++
			a.logger.Debug("ignoring error after termination", "error", chunk.Error)
			return
		}
		a.serverErr = chunk.Error
		a.logger.Warn("server reported stream error", "error", chunk.Error)
		a.publish(models.ErrorText(chunk.Error))
		return
	}

	if chunk.HasContent() {
		if a.serverErr != "" {
			a.ignored++
			a.logger.Debug("ignoring content after stream error", "bytes", len(chunk.Content))
			return
		}
		a.text.WriteString(chunk.Content)
		a.sawContent = true
		a.publish(a.text.String())
	}

	if chunk.Done {
		a.done = true
		a.logger.Debug("stream completion marker received", "chars", a.text.Len())
	}
}

func (a *Assembler) publish(text string) {
	if a.onUpdate != nil {
		a.onUpdate(text)
	}
}

// Text returns what the trailing message currently shows
func (a *Assembler) Text() string {
	if a.serverErr != "" {
		return models.ErrorText(a.serverErr)
	}
	if a.finished && !a.sawContent {
		return models.NoResponsePlaceholder
	}
	return a.text.String()
}

// Terminated reports whether a server error ended the display
func (a *Assembler) Terminated() bool {
	return a.serverErr != ""
}

// Finish processes a final unterminated record and settles the text.
// Calling it again returns the same Result.
func (a *Assembler) Finish() Result {
	if a.finished {
		return a.result
	}

	if len(a.buf) > 0 {
		tail := a.buf
		a.buf = nil
		a.processLine(tail)
	}
	a.finished = true

	empty := !a.sawContent && a.serverErr == ""
	if empty {
		a.logger.Debug("stream ended without content")
		a.publish(models.NoResponsePlaceholder)
	}

	a.result = Result{
		Text:        a.Text(),
		Records:     a.records,
		Invalid:     a.invalid,
		Ignored:     a.ignored,
		Done:        a.done,
		Empty:       empty,
		ServerError: a.serverErr,
	}
	return a.result
}

// Result summarizes a completed stream
type Result struct {
	// Text is the final trailing message text.
	Text string
	// Records counts decoded records; Invalid counts skipped lines.
	Records int
	Invalid int
	// Ignored counts records dropped after a server error.
	Ignored     int
	Done        bool
	Empty       bool
	ServerError string
}

// Err reports why the answer is not a real reply, or nil
func (r Result) Err() error {
	switch {
	case r.ServerError != "":
		return apierrors.NewStreamError(r.ServerError)
	case r.Empty:
		return apierrors.NewEmptyResponseError(models.EndpointAsk)
	default:
		return nil
	}
}

// Run reads r until EOF, feeding the assembler, and finishes it.
// A read failure is returned as a NetworkError alongside the partial Result.
func (a *Assembler) Run(ctx context.Context, r io.Reader) (Result, error) {
	buf := make([]byte, ReadSize)
	for {
		if err := ctx.Err(); err != nil {
			return a.Finish(), err
		}

		n, err := r.Read(buf)
		if n > 0 {
			_, _ = a.Write(buf[:n])
		}
		if err == io.EOF {
			return a.Finish(), nil
		}
		if err != nil {
			a.logger.Error("stream read failed", "err", err)
			return a.Finish(), apierrors.NewNetworkError("stream", models.EndpointAsk, err)
		}
	}
}

// Collect decodes a whole stream and returns its Result
func Collect(ctx context.Context, r io.Reader, opts ...Option) (Result, error) {
	return NewAssembler(opts...).Run(ctx, r)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
