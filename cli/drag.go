package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alexalex89/task-management/dnd"
	"github.com/alexalex89/task-management/domain"
)

var dragCmd = &cobra.Command{
	Use:   "drag <task-id>",
	Short: "Drag a task onto another task or onto a list",
	Long: `Replay a drag and drop from the command line.

--onto drops the task on another task. Within the same list this moves it to
that task's place in the displayed order; across lists it moves the task to
the other task's list. --to drops it on a sidebar list button.

Examples:
  gtd drag 3f2a --onto 91cc
  gtd drag 3f2a --to someday`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireBoard(); err != nil {
			return err
		}
		onto, _ := cmd.Flags().GetString("onto")
		to, _ := cmd.Flags().GetString("to")
		if (onto == "") == (to == "") {
			return errors.New("exactly one of --onto or --to is required")
		}

		id, err := resolveID(args[0])
		if err != nil {
			return err
		}
		source, _ := Board.Get(id)

		session := dnd.NewSession(Board, dnd.NewSidebar(Board), logger)
		dt, err := session.DragStart(id, source.Category)
		if err != nil {
			return fmt.Errorf("starting drag: %w", err)
		}
		defer session.DragEnd()

		ctx := commandContext(cmd)
		var (
			target dnd.Target
			intent dnd.Intent
		)
		if onto != "" {
			targetID, err := resolveID(onto)
			if err != nil {
				return err
			}
			over, _ := Board.Get(targetID)
			target = dnd.Item(targetID, over.Category)
			session.DragEnter(target)
			session.DragOver(target)
			intent, err = session.DropOnItem(ctx, dt, over.Category, targetID)
			if err != nil {
				return fmt.Errorf("dropping on %s: %w", shortID(targetID), err)
			}
		} else {
			category, err := domain.ParseCategory(to)
			if err != nil {
				return err
			}
			target = dnd.Button(category)
			session.DragEnter(target)
			session.DragOver(target)
			intent, err = session.DropOnCategory(ctx, dt, category)
			if err != nil {
				return fmt.Errorf("dropping on %s: %w", category, err)
			}
		}

		task, _ := Board.Get(id)
		switch {
		case intent.Kind == dnd.Malformed:
			return fmt.Errorf("drop on %s ignored: %w", target, intent.Err)
		case target.Kind == dnd.TargetItem && target.TaskID == id:
			fmt.Fprintf(cmd.OutOrStdout(), "%s dropped on itself, nothing changed\n", shortID(id))
		case intent.Kind == dnd.Reorder:
			fmt.Fprintf(cmd.OutOrStdout(), "Reordered %s: %s is now order %d\n", task.Category.Label(), shortID(id), task.Order)
		default:
			fmt.Fprintf(cmd.OutOrStdout(), "Moved %s to %s\n", shortID(id), task.Category.Label())
		}
		return nil
	},
}

func init() {
	dragCmd.Flags().String("onto", "", "Task to drop onto")
	dragCmd.Flags().String("to", "", "List to drop onto")
	dragCmd.ValidArgsFunction = completeTaskIDs
	rootCmd.AddCommand(dragCmd)
}
