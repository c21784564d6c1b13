package render

import (
	"strings"
)

// Markdown renders markdown content for terminal display
func Markdown(content string, opts Options) (string, error) {
	tr, err := shared.checkout(opts)
	if err != nil {
		return "", err
	}
	defer shared.checkin(opts, tr)

	return tr.Render(content)
}

// StreamingMarkdown renders a reply that may still be growing. An open
// code fence is closed first so the partial block renders as code instead
// of swallowing the rest of the screen. On error the raw text is returned.
func StreamingMarkdown(content string, opts Options) string {
	out, err := Markdown(CloseOpenFence(content), opts)
	if err != nil {
		return content
	}
	return strings.TrimRight(out, "\n")
}

// CloseOpenFence appends a closing fence when content ends inside a ``` or
// ~~~ code block. A fence closes only on a run of the same character at
// least as long as the one that opened it.
func CloseOpenFence(content string) string {
	var open string
	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if open == "" {
			open = fenceRun(trimmed)
			continue
		}
		if run := fenceRun(trimmed); run != "" && run == trimmed && run[0] == open[0] && len(run) >= len(open) {
			open = ""
		}
	}
	if open == "" {
		return content
	}
	if !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	return content + open
}

// fenceRun returns the leading run of three or more backticks or tildes
func fenceRun(line string) string {
	if line == "" || (line[0] != '`' && line[0] != '~') {
		return ""
	}
	n := 0
	for n < len(line) && line[n] == line[0] {
		n++
	}
	if n < 3 {
		return ""
	}
	return line[:n]
}
