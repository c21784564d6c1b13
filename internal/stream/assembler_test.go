package stream

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	apierrors "github.com/diogo/mybot/internal/errors"
	"github.com/diogo/mybot/internal/models"
)

func TestParseChunk(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		want    models.StreamChunk
		wantErr bool
	}{
		{"content", `{"content":"Hi"}`, models.StreamChunk{Content: "Hi"}, false},
		{"done", `{"done":true}`, models.StreamChunk{Done: true}, false},
		{"error", `{"error":"boom"}`, models.StreamChunk{Error: "boom"}, false},
		{"surrounding whitespace", "  {\"content\":\"x\"}\r", models.StreamChunk{Content: "x"}, false},
		{"sse prefix", `data: {"content":"y"}`, models.StreamChunk{Content: "y"}, false},
		{"sse prefix no space", `data:{"done":true}`, models.StreamChunk{Done: true}, false},
		{"empty object", `{}`, models.StreamChunk{}, false},
		{"null fields", `{"content":null,"error":null}`, models.StreamChunk{}, false},
		{"not json", `hello`, models.StreamChunk{}, true},
		{"truncated", `{"content":"Hi`, models.StreamChunk{}, true},
		{"array", `["a"]`, models.StreamChunk{}, true},
		{"string", `"a"`, models.StreamChunk{}, true},
		{"blank", `   `, models.StreamChunk{}, true},
		{"sse done marker", `data: [DONE]`, models.StreamChunk{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseChunk(tt.line)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseChunk(%q) error = %v, wantErr %v", tt.line, err, tt.wantErr)
			}
			if err != nil && !apierrors.IsParseError(err) {
				t.Errorf("error %T is not a ParseError", err)
			}
			if got != tt.want {
				t.Errorf("ParseChunk(%q) = %+v, want %+v", tt.line, got, tt.want)
			}
		})
	}
}

// feed writes parts one at a time and returns every published text
func feed(parts ...string) (*Assembler, []string) {
	var updates []string
	a := NewAssembler(WithUpdate(func(text string) {
		updates = append(updates, text)
	}))
	for _, p := range parts {
		_, _ = a.Write([]byte(p))
	}
	return a, updates
}

func TestAssembler_ContentAcrossChunks(t *testing.T) {
	a, updates := feed("{\"content\":\"Hel\"}\n", "{\"content\":\"lo\"}\n", "{\"done\":true}\n")
	result := a.Finish()

	if result.Text != "Hello" {
		t.Errorf("Text = %q, want Hello", result.Text)
	}
	if len(updates) != 2 || updates[0] != "Hel" || updates[1] != "Hello" {
		t.Errorf("updates = %q", updates)
	}
	if !result.Done {
		t.Error("Done should be recorded")
	}
	if result.Err() != nil {
		t.Errorf("Err() = %v, want nil", result.Err())
	}
}

func TestAssembler_RecordSplitAcrossReads(t *testing.T) {
	a, _ := feed(`{"cont`, "ent\":\"Hi\"}\n")
	if got := a.Finish().Text; got != "Hi" {
		t.Errorf("Text = %q, want Hi", got)
	}
}

func TestAssembler_AnySplitGivesSameText(t *testing.T) {
	stream := "{\"content\":\"Héllo\"}\n\n  \n{\"content\":\", 世界\"}\nnot json\n{\"content\":\"!\"}\n{\"done\":true}\n"
	want := "Héllo, 世界!"

	for size := 1; size <= len(stream); size++ {
		a := NewAssembler()
		for i := 0; i < len(stream); i += size {
			end := i + size
			if end > len(stream) {
				end = len(stream)
			}
			_, _ = a.Write([]byte(stream[i:end]))
		}
		result := a.Finish()
		if result.Text != want {
			t.Fatalf("split size %d: Text = %q, want %q", size, result.Text, want)
		}
		if result.Invalid != 1 {
			t.Fatalf("split size %d: Invalid = %d, want 1", size, result.Invalid)
		}
	}
}

func TestAssembler_MultibyteRuneSplit(t *testing.T) {
	record := []byte("{\"content\":\"ü\"}\n")
	idx := strings.Index(string(record), "ü")

	a := NewAssembler()
	_, _ = a.Write(record[:idx+1]) // first byte of the rune only
	_, _ = a.Write(record[idx+1:])

	if got := a.Finish().Text; got != "ü" {
		t.Errorf("Text = %q, want ü", got)
	}
}

func TestAssembler_SkipsBlankAndInvalidLines(t *testing.T) {
	a, _ := feed("\n", "   \n", "garbage\n", "{\"content\":\"ok\"}\n", "[1,2]\n")
	result := a.Finish()

	if result.Text != "ok" {
		t.Errorf("Text = %q, want ok", result.Text)
	}
	if result.Invalid != 2 {
		t.Errorf("Invalid = %d, want 2", result.Invalid)
	}
	if result.Records != 1 {
		t.Errorf("Records = %d, want 1", result.Records)
	}
}

func TestAssembler_EmptyStreamPlaceholder(t *testing.T) {
	tests := []struct {
		name  string
		parts []string
	}{
		{"nothing", nil},
		{"only done", []string{"{\"done\":true}\n"}},
		{"only garbage", []string{"oops\n", "\n"}},
		{"empty content", []string{"{\"content\":\"\"}\n"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, updates := feed(tt.parts...)
			result := a.Finish()

			if result.Text != models.NoResponsePlaceholder {
				t.Errorf("Text = %q, want placeholder", result.Text)
			}
			if len(updates) == 0 || updates[len(updates)-1] != models.NoResponsePlaceholder {
				t.Errorf("placeholder not published, updates = %q", updates)
			}
			if !result.Empty || !apierrors.IsEmptyResponse(result.Err()) {
				t.Errorf("Err() = %v, want EmptyResponseError", result.Err())
			}
		})
	}
}

func TestAssembler_ErrorTerminates(t *testing.T) {
	a, updates := feed(
		"{\"content\":\"partial\"}\n",
		"{\"error\":\"model crashed\"}\n",
		"{\"content\":\" more\"}\n",
		"{\"error\":\"second\"}\n",
	)
	result := a.Finish()

	want := "Error: model crashed"
	if result.Text != want {
		t.Errorf("Text = %q, want %q", result.Text, want)
	}
	if updates[len(updates)-1] != want {
		t.Errorf("last update = %q, want %q", updates[len(updates)-1], want)
	}
	if result.Ignored != 2 {
		t.Errorf("Ignored = %d, want 2", result.Ignored)
	}
	if !a.Terminated() {
		t.Error("Terminated() should be true")
	}

	var streamErr *apierrors.StreamError
	if !errors.As(result.Err(), &streamErr) || streamErr.Message != "model crashed" {
		t.Errorf("Err() = %v, want StreamError(model crashed)", result.Err())
	}
}

func TestAssembler_ErrorWithoutContentIsNotEmpty(t *testing.T) {
	a, _ := feed("{\"error\":\"no index\"}\n")
	result := a.Finish()

	if result.Text != "Error: no index" {
		t.Errorf("Text = %q", result.Text)
	}
	if result.Empty {
		t.Error("an error reply must not be reported as empty")
	}
}

func TestAssembler_FinalLineWithoutNewline(t *testing.T) {
	a, _ := feed("{\"content\":\"a\"}\n", "{\"content\":\"b\"}")

	if got := a.Text(); got != "a" {
		t.Errorf("before Finish Text = %q, want a", got)
	}
	if got := a.Finish().Text; got != "ab" {
		t.Errorf("Text = %q, want ab", got)
	}
}

func TestAssembler_FinishIdempotent(t *testing.T) {
	a, updates := feed("{\"content\":\"x\"}\n")
	first := a.Finish()
	_, _ = a.Write([]byte("{\"content\":\"late\"}\n"))
	second := a.Finish()

	if first != second {
		t.Errorf("Finish() changed: %+v vs %+v", first, second)
	}
	if len(updates) != 1 {
		t.Errorf("writes after Finish must be ignored, updates = %q", updates)
	}
}

// chunkReader returns its parts one Read at a time
type chunkReader struct {
	parts []string
	err   error
}

func (r *chunkReader) Read(p []byte) (int, error) {
	if len(r.parts) == 0 {
		if r.err != nil {
			return 0, r.err
		}
		return 0, io.EOF
	}
	n := copy(p, r.parts[0])
	r.parts[0] = r.parts[0][n:]
	if r.parts[0] == "" {
		r.parts = r.parts[1:]
	}
	return n, nil
}

func TestRun(t *testing.T) {
	r := &chunkReader{parts: []string{"{\"content\":\"Hel\"}\n{\"con", "tent\":\"lo\"}\n", "{\"done\":true}"}}

	result, err := Collect(context.Background(), r)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if result.Text != "Hello" || !result.Done {
		t.Errorf("Result = %+v", result)
	}
}

func TestRun_LargeStream(t *testing.T) {
	var sb strings.Builder
	var want strings.Builder
	for i := 0; i < 2000; i++ {
		sb.WriteString("{\"content\":\"token \"}\n")
		want.WriteString("token ")
	}

	result, err := Collect(context.Background(), strings.NewReader(sb.String()))
	if err != nil {
		t.Fatal(err)
	}
	if result.Text != want.String() {
		t.Errorf("Text length = %d, want %d", len(result.Text), want.Len())
	}
	if result.Records != 2000 {
		t.Errorf("Records = %d", result.Records)
	}
}

func TestRun_ReadFailure(t *testing.T) {
	r := &chunkReader{parts: []string{"{\"content\":\"partial\"}\n"}, err: errors.New("connection reset")}

	result, err := Collect(context.Background(), r)
	if !apierrors.IsNetworkError(err) {
		t.Fatalf("error = %v, want NetworkError", err)
	}
	if result.Text != "partial" {
		t.Errorf("partial Text = %q", result.Text)
	}
}

func TestRun_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Collect(ctx, strings.NewReader("{\"content\":\"x\"}\n"))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}
