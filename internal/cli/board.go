package cli

import (
	"github.com/spf13/cobra"

	"schedcore/internal/board"
	"schedcore/internal/tui"
)

// NewBoardCommand creates the board command.
func NewBoardCommand(rootOpts *RootOptions) *cobra.Command {
	var serverURL string

	cmd := &cobra.Command{
		Use:   "board",
		Short: "Open the terminal lane board",
		Long: `Render the machine-lane board against a running schedcore server.

Operations are edited with the keyboard: move and resize an interval, then
save. Rejected saves revert on screen with the server's reason.

Example:
  schedcore board
  schedcore board --server http://sched.internal:8080`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := rootOpts.LoadConfig()
			if err != nil {
				return err
			}
			if serverURL == "" {
				serverURL = cfg.ServerURL
			}
			client, err := board.NewClient(serverURL)
			if err != nil {
				return err
			}
			return tui.Run(client)
		},
	}

	cmd.Flags().StringVar(&serverURL, "server", "", "schedcore server URL (default from config)")
	return cmd
}
