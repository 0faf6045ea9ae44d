package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/alexalex89/task-management/domain"
)

// resolveID accepts a full task id or an unambiguous prefix of one.
func resolveID(ref string) (string, error) {
	if _, ok := Board.Get(ref); ok {
		return ref, nil
	}
	var matches []string
	for _, t := range Board.All() {
		if strings.HasPrefix(t.ID, ref) {
			matches = append(matches, t.ID)
		}
	}
	switch len(matches) {
	case 0:
		return "", fmt.Errorf("no task matches %q", ref)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("%q is ambiguous: matches %d tasks", ref, len(matches))
	}
}

func parseFormFlags(cmd *cobra.Command) (domain.Category, domain.Priority, error) {
	catFlag, _ := cmd.Flags().GetString("category")
	prioFlag, _ := cmd.Flags().GetString("priority")
	category, err := domain.ParseCategory(catFlag)
	if err != nil {
		return "", "", err
	}
	priority, err := domain.ParsePriority(prioFlag)
	if err != nil {
		return "", "", err
	}
	return category, priority, nil
}

var addCmd = &cobra.Command{
	Use:   "add <title...>",
	Short: "File a new task",
	Long: `File a new task. Without --category it lands in the inbox.

Examples:
  gtd add Milch kaufen
  gtd add "Steuererklärung abgeben" -c scheduled -p high --due 2024-05-31`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireBoard(); err != nil {
			return err
		}
		category, priority, err := parseFormFlags(cmd)
		if err != nil {
			return err
		}
		description, _ := cmd.Flags().GetString("description")
		due, _ := cmd.Flags().GetString("due")

		task, err := Board.Create(commandContext(cmd), domain.FormData{
			Title:       strings.Join(args, " "),
			Description: description,
			Category:    category,
			Priority:    priority,
			DueDate:     due,
		})
		if task == nil && err == nil {
			return errors.New("task title must not be empty")
		}
		if task == nil {
			return fmt.Errorf("creating task: %w", err)
		}
		if err != nil {
			// The task exists in memory; only saving the board failed.
			return fmt.Errorf("creating task %s: %w", shortID(task.ID), err)
		}

		if settings.Format != formatTable {
			return writeTask(cmd.OutOrStdout(), settings.Format, *task)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Created task %s in %s: %s\n", shortID(task.ID), task.Category.Label(), task.Title)
		return nil
	},
}

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List tasks",
	Long: `List the tasks of one list, or of every list in sidebar order.

Lists are shown highest priority first, newest first within a priority.
--sort order shows the stored manual order instead.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireBoard(); err != nil {
			return err
		}
		catFlag, _ := cmd.Flags().GetString("category")
		sortFlag, _ := cmd.Flags().GetString("sort")
		completed, _ := cmd.Flags().GetBool("completed")
		active, _ := cmd.Flags().GetBool("active")
		if completed && active {
			return errors.New("--completed and --active are mutually exclusive")
		}

		view := Board.ByCategory
		switch sortFlag {
		case "priority", "":
		case "order":
			view = Board.ByOrder
		default:
			return fmt.Errorf("unknown sort %q (want priority or order)", sortFlag)
		}

		categories := domain.Categories
		if catFlag != "" {
			c, err := domain.ParseCategory(catFlag)
			if err != nil {
				return err
			}
			categories = []domain.Category{c}
		}

		var tasks []domain.Task
		for _, c := range categories {
			for _, t := range view(c) {
				if (completed && !t.Completed) || (active && t.Completed) {
					continue
				}
				tasks = append(tasks, t)
			}
		}
		return writeTasks(cmd.OutOrStdout(), settings.Format, tasks)
	},
}

var showCmd = &cobra.Command{
	Use:   "show <task-id>",
	Short: "Show one task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireBoard(); err != nil {
			return err
		}
		id, err := resolveID(args[0])
		if err != nil {
			return err
		}
		task, _ := Board.Get(id)
		return writeTask(cmd.OutOrStdout(), settings.Format, task)
	},
}

var editCmd = &cobra.Command{
	Use:   "edit <task-id>",
	Short: "Edit the title, description, list, priority or due date of a task",
	Long: `Edit a task. Only the flags given change; pass --due "" to clear the due
date and --priority "" to clear the priority.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireBoard(); err != nil {
			return err
		}
		id, err := resolveID(args[0])
		if err != nil {
			return err
		}
		current, _ := Board.Get(id)

		data := domain.EditData{
			ID:          id,
			Title:       current.Title,
			Description: current.Description,
			Category:    current.Category,
			Priority:    current.Priority,
		}
		if current.DueDate != nil {
			data.DueDate = current.DueDate.String()
		}

		flags := cmd.Flags()
		if flags.Changed("title") {
			data.Title, _ = flags.GetString("title")
		}
		if flags.Changed("description") {
			data.Description, _ = flags.GetString("description")
		}
		if flags.Changed("category") {
			raw, _ := flags.GetString("category")
			if data.Category, err = domain.ParseCategory(raw); err != nil {
				return err
			}
		}
		if flags.Changed("priority") {
			raw, _ := flags.GetString("priority")
			if data.Priority, err = domain.ParsePriority(raw); err != nil {
				return err
			}
		}
		if flags.Changed("due") {
			data.DueDate, _ = flags.GetString("due")
		}

		task, err := Board.Edit(commandContext(cmd), data)
		if err != nil {
			return fmt.Errorf("editing task %s: %w", shortID(id), err)
		}
		if task == nil {
			return fmt.Errorf("task %s was not changed", shortID(id))
		}
		if settings.Format != formatTable {
			return writeTask(cmd.OutOrStdout(), settings.Format, *task)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Updated task %s: %s\n", shortID(task.ID), task.Title)
		return nil
	},
}

var toggleCmd = &cobra.Command{
	Use:     "toggle <task-id> [task-id...]",
	Aliases: []string{"done"},
	Short:   "Mark tasks done, or open again",
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireBoard(); err != nil {
			return err
		}
		for _, ref := range args {
			id, err := resolveID(ref)
			if err != nil {
				return err
			}
			task, err := Board.ToggleComplete(commandContext(cmd), id)
			if err != nil {
				return fmt.Errorf("toggling task %s: %w", shortID(id), err)
			}
			state := "open"
			if task.Completed {
				state = "done"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s: %s\n", shortID(task.ID), state, task.Title)
		}
		return nil
	},
}

var rmCmd = &cobra.Command{
	Use:     "rm <task-id> [task-id...]",
	Aliases: []string{"delete"},
	Short:   "Delete tasks permanently",
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireBoard(); err != nil {
			return err
		}
		ids := make([]string, 0, len(args))
		for _, ref := range args {
			id, err := resolveID(ref)
			if err != nil {
				return err
			}
			ids = append(ids, id)
		}
		for _, id := range ids {
			task, err := Board.Delete(commandContext(cmd), id)
			if err != nil {
				return fmt.Errorf("deleting task %s: %w", shortID(id), err)
			}
			if task != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s: %s\n", shortID(task.ID), task.Title)
			}
		}
		return nil
	},
}

var moveCmd = &cobra.Command{
	Use:   "move <task-id> <list>",
	Short: "Move a task to another list",
	Long: `Move a task to another list. Its manual order is kept as it is.

Example:
  gtd move 3f2a next`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireBoard(); err != nil {
			return err
		}
		id, err := resolveID(args[0])
		if err != nil {
			return err
		}
		category, err := domain.ParseCategory(args[1])
		if err != nil {
			return err
		}
		task, err := Board.Move(commandContext(cmd), id, category)
		if err != nil {
			return fmt.Errorf("moving task %s: %w", shortID(id), err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Moved %s to %s\n", shortID(task.ID), task.Category.Label())
		return nil
	},
}

var reorderCmd = &cobra.Command{
	Use:   "reorder <list> <task-id> [task-id...]",
	Short: "Set the manual order of a list",
	Long: `Set the manual order of a list. The first task gets order 0, the second 1
and so on. Tasks that are not named keep their order.

Example:
  gtd reorder inbox 3f2a 91cc 07be`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireBoard(); err != nil {
			return err
		}
		category, err := domain.ParseCategory(args[0])
		if err != nil {
			return err
		}
		ids := make([]string, 0, len(args)-1)
		for _, ref := range args[1:] {
			id, err := resolveID(ref)
			if err != nil {
				return err
			}
			ids = append(ids, id)
		}
		if err := Board.Reorder(commandContext(cmd), category, ids); err != nil {
			return fmt.Errorf("reordering %s: %w", category, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Reordered %s\n", category.Label())
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{addCmd, editCmd} {
		c.Flags().StringP("description", "d", "", "Task description")
		c.Flags().StringP("category", "c", "", "List: inbox, next, waiting, scheduled or someday")
		c.Flags().StringP("priority", "p", "", "Priority: low, medium or high")
		c.Flags().String("due", "", "Due date as YYYY-MM-DD")
	}
	editCmd.Flags().StringP("title", "t", "", "New title")

	listCmd.Flags().StringP("category", "c", "", "Only this list")
	listCmd.Flags().String("sort", "priority", "Sort by priority or order")
	listCmd.Flags().Bool("completed", false, "Only completed tasks")
	listCmd.Flags().Bool("active", false, "Only open tasks")

	for _, c := range []*cobra.Command{showCmd, editCmd, toggleCmd, rmCmd, moveCmd} {
		c.ValidArgsFunction = completeTaskIDs
	}
	rootCmd.AddCommand(addCmd, listCmd, showCmd, editCmd, toggleCmd, rmCmd, moveCmd, reorderCmd)
}

func completeTaskIDs(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if Board == nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	var out []string
	for _, t := range Board.All() {
		if strings.HasPrefix(t.ID, toComplete) {
			out = append(out, t.ID+"\t"+t.Title)
		}
	}
	return out, cobra.ShellCompDirectiveNoFileComp
}
