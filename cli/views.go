package cli

import (
	"github.com/spf13/cobra"

	"github.com/alexalex89/task-management/tui"
)

// runBoard is swapped out in tests.
var runBoard = tui.Run

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show totals per list",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireBoard(); err != nil {
			return err
		}
		return writeStats(cmd.OutOrStdout(), settings.Format, Board.Stats())
	},
}

var boardCmd = &cobra.Command{
	Use:   "board",
	Short: "Open the interactive board",
	Long: `Open the interactive board: the lists with their counts on the left, the
tasks of the selected list on the right.

Pick a task up with space, move it with j/k, h/l or tab to the lists, and
drop it with enter. esc cancels the drag.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireBoard(); err != nil {
			return err
		}
		return runBoard(commandContext(cmd), Board, logger)
	},
}

func init() {
	rootCmd.AddCommand(statsCmd, boardCmd)
}
