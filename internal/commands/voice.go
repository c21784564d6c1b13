package commands

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/diogo/mybot/internal/api"
	"github.com/diogo/mybot/internal/chat"
	apierrors "github.com/diogo/mybot/internal/errors"
)

func newTranscribeCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "transcribe <audio-file>",
		Short: "Convert a recorded question to text",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			cfg, err := deps.loadConfig()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			logger := deps.logger(cfg)

			clip, err := api.ReadAudioFile(args[0])
			if err != nil {
				return err
			}

			client, err := deps.client(cfg, logger)
			if err != nil {
				return err
			}
			defer client.Close()

			result, err := client.Transcribe(cmd.Context(), clip)
			if err != nil {
				fmt.Fprintln(deps.stderr(), formatErrorMessage(err, "Transcription failed"))
				return fmt.Errorf("transcription failed: %w", err)
			}

			fmt.Fprintln(deps.stdout(), result.Transcript)
			return nil
		},
	}
}

type recordOptions struct {
	duration time.Duration
}

func newRecordCmd(deps *Dependencies) *cobra.Command {
	var opts recordOptions

	cmd := &cobra.Command{
		Use:   "record",
		Short: "Record a spoken question and print its transcript",
		Long: `Record from the microphone until Enter is pressed (or for --duration),
then print the transcript. The recorder program is set with
'mybot config set voice.record_command'.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			return runRecord(cmd.Context(), deps, opts)
		},
	}

	cmd.Flags().DurationVarP(&opts.duration, "duration", "d", 0, "Stop after this long instead of waiting for Enter")
	return cmd
}

func runRecord(ctx context.Context, deps *Dependencies, opts recordOptions) error {
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

	session := chat.NewSession(client,
		chat.WithLogger(logger),
		chat.WithRecorder(deps.recorder(cfg, logger)),
	)
	defer session.Close()

	errOut := deps.stderr()

	if _, _, err := session.ToggleRecording(ctx); err != nil {
		fmt.Fprintln(errOut, formatErrorMessage(err, "Could not start recording"))
		return err
	}

	if opts.duration > 0 {
		fmt.Fprintf(errOut, "● Recording for %s...\n", opts.duration)
		select {
		case <-time.After(opts.duration):
		case <-ctx.Done():
		}
	} else {
		fmt.Fprintln(errOut, "● Recording... press Enter to stop")
		waitForEnter(ctx, deps.stdin())
	}

	if err := ctx.Err(); err != nil {
		session.AbortRecording()
		return err
	}

	transcript, _, err := session.ToggleRecording(ctx)
	if err != nil {
		fmt.Fprintln(errOut, formatErrorMessage(err, "Voice input failed"))
		return err
	}

	fmt.Fprintln(deps.stdout(), transcript)
	return nil
}

// waitForEnter blocks until a line is read from r, r is exhausted or ctx ends
func waitForEnter(ctx context.Context, r io.Reader) {
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = bufio.NewReader(r).ReadString('\n')
	}()

	select {
	case <-done:
	case <-ctx.Done():
	}
}

type speakOptions struct {
	output string
	play   bool
}

func newSpeakCmd(deps *Dependencies) *cobra.Command {
	var opts speakOptions

	cmd := &cobra.Command{
		Use:   "speak [text]",
		Short: "Convert text to speech",
		Long: `Convert text (arguments or stdin) to speech. The audio is saved with -o,
played with --play, or saved to speech.mp3 when neither is given.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args, " ")
			if strings.TrimSpace(text) == "" && hasPipedInput(deps.stdin()) {
				data, err := io.ReadAll(deps.stdin())
				if err != nil {
					return fmt.Errorf("failed to read stdin: %w", err)
				}
				text = string(data)
			}
			if strings.TrimSpace(text) == "" {
				return apierrors.ErrNothingToSpeak
			}

			cmd.SilenceUsage = true
			return runSpeak(cmd.Context(), deps, text, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Save the audio to file")
	cmd.Flags().BoolVar(&opts.play, "play", false, "Play the audio")
	return cmd
}

func runSpeak(ctx context.Context, deps *Dependencies, text string, opts speakOptions) error {
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

	errOut := deps.stderr()

	clip, err := client.Synthesize(ctx, text)
	if err != nil {
		fmt.Fprintln(errOut, formatErrorMessage(err, "Speech synthesis failed"))
		return fmt.Errorf("speech synthesis failed: %w", err)
	}

	output := opts.output
	if output == "" && !opts.play {
		output = "speech" + clip.Extension()
	}

	if output != "" {
		if err := writeOutputFile(output, clip.Data); err != nil {
			return err
		}
		fmt.Fprintln(errOut, successLine(fmt.Sprintf("Speech saved to %s", output)))
	}

	if opts.play {
		playback := deps.playback(cfg, logger)
		defer playback.Close()

		if _, err := playback.Present(clip); err != nil {
			return err
		}
		if err := playback.Play(ctx); err != nil {
			fmt.Fprintln(errOut, formatErrorMessage(err, "Playback failed"))
			return err
		}
	}

	return nil
}
