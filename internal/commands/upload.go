package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/diogo/mybot/internal/chat"
)

func newUploadCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "upload <file>...",
		Short: "Upload documents for the assistant to read",
		Long: `Upload one or more documents (PDF, TXT, DOC, DOCX) in a single request.
Later questions are answered from the uploaded documents.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			return runUpload(cmd, deps, args)
		},
	}
}

func runUpload(cmd *cobra.Command, deps *Dependencies, paths []string) error {
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
	errOut := deps.stderr()

	if err := session.Select(paths...); err != nil {
		fmt.Fprintln(errOut, formatErrorMessage(err, "Cannot upload"))
		return err
	}

	var spin *spinner
	if isTerminal(errOut) {
		spin = newSpinner(errOut, fmt.Sprintf("Uploading %d file(s)", len(paths)))
		spin.start()
	}

	result, err := session.UploadSelection(cmd.Context())
	if err != nil {
		if spin != nil {
			spin.stopWithError()
		}
		fmt.Fprintln(errOut, formatErrorMessage(err, "Upload failed"))
		return fmt.Errorf("upload failed: %w", err)
	}
	if spin != nil {
		spin.stopWithSuccess("Uploaded")
	}

	fmt.Fprintln(deps.stdout(), result.Summary())
	return nil
}
