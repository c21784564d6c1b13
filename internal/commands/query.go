package commands

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/diogo/mybot/internal/chat"
	"github.com/diogo/mybot/internal/config"
	apierrors "github.com/diogo/mybot/internal/errors"
	"github.com/diogo/mybot/internal/render"
	"github.com/diogo/mybot/internal/stream"
)

type queryOptions struct {
	output string
	file   string
	stream bool
}

// deltaWriter prints only what each republished answer adds. A text that
// no longer extends the printed one (an error replacing the reply) starts
// on a new line.
type deltaWriter struct {
	w       io.Writer
	printed string
}

func (d *deltaWriter) update(text string) {
	if strings.HasPrefix(text, d.printed) {
		_, _ = io.WriteString(d.w, text[len(d.printed):])
	} else {
		if d.printed != "" {
			_, _ = io.WriteString(d.w, "\n")
		}
		_, _ = io.WriteString(d.w, text)
	}
	d.printed = text
}

func (d *deltaWriter) finish() {
	if d.printed != "" && !strings.HasSuffix(d.printed, "\n") {
		_, _ = io.WriteString(d.w, "\n")
	}
}

// runQuery executes a single query and outputs the response.
// When stdout is not a terminal, or with --stream, the answer is written as
// it arrives without decoration.
func runQuery(ctx context.Context, deps *Dependencies, prompt string, opts queryOptions) error {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return apierrors.ErrEmptyPrompt
	}

	cfg, err := deps.loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	logger := deps.logger(cfg)

	client, err := deps.client(cfg, logger)
	if err != nil {
		return err
	}
	defer client.Close()

	session := chat.NewSession(client, chat.WithLogger(logger))

	out := deps.stdout()
	errOut := deps.stderr()
	raw := opts.stream || !isTerminal(out)

	logger.Debug("sending query", "base_url", cfg.BaseURL, "chars", len(prompt), "raw", raw)

	var result stream.Result
	startTime := time.Now()

	if raw {
		w := &deltaWriter{w: out}
		result, err = session.Send(ctx, prompt, w.update)
		w.finish()
	} else {
		spin := newSpinner(errOut, "Waiting for the answer")
		spin.start()
		result, err = session.Send(ctx, prompt, func(text string) {
			spin.setMessage(fmt.Sprintf("Receiving the answer (%d chars)", len(text)))
		})
		if err != nil {
			spin.stopWithError()
		} else {
			spin.stopWithSuccess("Done")
		}
	}

	logger.Debug("query finished",
		"took", time.Since(startTime).Round(time.Millisecond),
		"records", result.Records, "invalid", result.Invalid)

	if err != nil {
		if !raw {
			fmt.Fprintln(errOut, formatErrorMessage(err, "Query failed"))
		}
		return fmt.Errorf("query failed: %w", err)
	}

	if !raw {
		fmt.Fprintln(errOut)

		if cfg.CopyToClipboard {
			copyToClipboard(errOut, result.Text)
		}
	}

	if opts.output != "" {
		if err := writeOutputFile(opts.output, []byte(result.Text)); err != nil {
			return err
		}
		if !raw {
			fmt.Fprintln(errOut, successLine(fmt.Sprintf("Response saved to %s", opts.output)))
		}
	} else if !raw {
		printAnswer(out, cfg, result.Text)
	}

	// A server error chunk still fails the command after display.
	if result.ServerError != "" {
		return result.Err()
	}
	if result.Empty {
		logger.Warn("the service returned no content")
	}
	return nil
}

// printAnswer renders text as a markdown bubble like the chat screen
func printAnswer(w io.Writer, cfg config.Config, text string) {
	termWidth := getTerminalWidth(w)
	bubbleWidth := termWidth - 4
	if bubbleWidth < 40 {
		bubbleWidth = 40
	}
	if bubbleWidth > 120 {
		bubbleWidth = 120
	}
	contentWidth := bubbleWidth - 4

	fmt.Fprintln(w, assistantLabelStyle.Render("✦ Assistant"))

	rendered, err := render.Markdown(text, render.OptionsFromConfig(cfg.Markdown, contentWidth))
	if err != nil {
		rendered = text
	}
	rendered = strings.TrimRight(rendered, "\n")

	fmt.Fprintln(w, assistantBubbleStyle.Width(bubbleWidth).Render(rendered))
}
