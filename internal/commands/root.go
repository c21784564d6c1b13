// Package commands provides CLI commands for mybot.
package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
)

var (
	// Version info (set at build time)
	Version   = "0.1.0"
	BuildTime = "unknown"
)

// rootCmd represents the base command
var rootCmd = NewRootCmd(NewDependencies())

// NewRootCmd builds the command tree around deps
func NewRootCmd(deps *Dependencies) *cobra.Command {
	var opts queryOptions

	cmd := &cobra.Command{
		Use:   "mybot [prompt]",
		Short: "Ask questions about your documents from the terminal",
		Long: `mybot is a command-line client for a document question-answering service.
Upload PDF, TXT, DOC or DOCX files, then ask about them. Answers stream in
as they are generated. Questions can also be spoken and answers read aloud.

Examples:
  mybot chat                            Start interactive chat
  mybot upload report.pdf notes.txt     Upload documents
  mybot "What does the report conclude?"
  mybot -f question.md                  Read prompt from file
  cat question.md | mybot               Read prompt from stdin
  mybot "Summarize" -o summary.md       Save the answer to a file
  mybot speak "Hello" --play            Read text aloud
  mybot config set base_url http://localhost:8000`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if v, _ := cmd.Flags().GetBool("version"); v {
				fmt.Fprintf(deps.stdout(), "mybot %s (built %s)\n", Version, BuildTime)
				return nil
			}

			if opts.file != "" {
				data, err := os.ReadFile(opts.file)
				if err != nil {
					return fmt.Errorf("failed to read file: %w", err)
				}
				cmd.SilenceUsage = true
				return runQuery(cmd.Context(), deps, string(data), opts)
			}

			if len(args) > 0 {
				cmd.SilenceUsage = true
				return runQuery(cmd.Context(), deps, args[0], opts)
			}

			if hasPipedInput(deps.stdin()) {
				data, err := io.ReadAll(deps.stdin())
				if err != nil {
					return fmt.Errorf("failed to read stdin: %w", err)
				}
				cmd.SilenceUsage = true
				return runQuery(cmd.Context(), deps, string(data), opts)
			}

			// No input - show help
			return cmd.Help()
		},
	}

	cmd.SetOut(deps.stdout())
	cmd.SetErr(deps.stderr())

	// Global flags
	cmd.PersistentFlags().StringVar(&deps.baseURL, "base-url", "", "Assistant service address (overrides config)")
	cmd.PersistentFlags().BoolVar(&deps.verbose, "verbose", false, "Log debug details to stderr")

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Save response to file")
	cmd.Flags().StringVarP(&opts.file, "file", "f", "", "Read prompt from file")
	cmd.Flags().BoolVar(&opts.stream, "stream", false, "Print the answer as it arrives, without formatting")
	cmd.Flags().BoolP("version", "v", false, "Show version and exit")

	// Add subcommands
	cmd.AddCommand(newChatCmd(deps))
	cmd.AddCommand(newUploadCmd(deps))
	cmd.AddCommand(newTranscribeCmd(deps))
	cmd.AddCommand(newRecordCmd(deps))
	cmd.AddCommand(newSpeakCmd(deps))
	cmd.AddCommand(newConfigCmd(deps))

	return cmd
}

// Execute runs the root command. An interrupt cancels the running request.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
