package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"todo-keeper/internal/model"
	"todo-keeper/internal/service"
)

// NewListCommand prints the tasks of the active category.
func NewListCommand(opts *RootOptions) *cobra.Command {
	var category string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show the active list",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, opts, func(ctx context.Context, store *service.TodoStore) error {
				show := store.ActiveCategory()
				if category != "" {
					parsed, err := service.ParseCategory(category)
					if err != nil {
						return err
					}
					show = parsed
				}
				printList(cmd.OutOrStdout(), store, show)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&category, "category", "c", "", "show this category instead of the active one")
	return cmd
}

// NewAddCommand adds a task to the active (or given) category.
func NewAddCommand(opts *RootOptions) *cobra.Command {
	var category string
	cmd := &cobra.Command{
		Use:   "add <text>",
		Short: "Add a task",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, opts, func(ctx context.Context, store *service.TodoStore) error {
				target := store.ActiveCategory()
				if category != "" {
					parsed, err := service.ParseCategory(category)
					if err != nil {
						return err
					}
					target = parsed
				}
				text := strings.Join(args, " ")
				if text == "" {
					return fmt.Errorf("add: %w", service.ErrEmptyText)
				}
				if _, err := store.AddTask(ctx, text, target); err != nil {
					return err
				}
				printList(cmd.OutOrStdout(), store, target)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&category, "category", "c", "", "work or travel (default: active category)")
	return cmd
}

// NewCategoryCommand prints or switches the active category.
func NewCategoryCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:       "category [work|travel]",
		Short:     "Show or switch the active category",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"work", "travel"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, opts, func(ctx context.Context, store *service.TodoStore) error {
				if len(args) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), store.ActiveCategory())
					return nil
				}
				category, err := service.ParseCategory(args[0])
				if err != nil {
					return err
				}
				if _, err := store.SetActiveCategory(ctx, category); err != nil {
					return err
				}
				printList(cmd.OutOrStdout(), store, category)
				return nil
			})
		},
	}
}

// NewDoneCommand toggles the done flag of a task.
func NewDoneCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "done <n|id>",
		Short: "Toggle a task done or open",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, opts, func(ctx context.Context, store *service.TodoStore) error {
				id, err := resolveTask(store, args[0])
				if err != nil {
					return err
				}
				if _, err := store.ToggleDone(ctx, id); err != nil {
					return err
				}
				printList(cmd.OutOrStdout(), store, store.ActiveCategory())
				return nil
			})
		},
	}
}

// NewEditCommand toggles the editing flag of a task.
func NewEditCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "edit <n|id>",
		Short: "Toggle edit mode of a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, opts, func(ctx context.Context, store *service.TodoStore) error {
				id, err := resolveTask(store, args[0])
				if err != nil {
					return err
				}
				if _, err := store.ToggleEditing(ctx, id); err != nil {
					return err
				}
				printList(cmd.OutOrStdout(), store, store.ActiveCategory())
				return nil
			})
		},
	}
}

// NewRenameCommand replaces the text of a task. The process ends after the
// command, so the rename is flushed right away.
func NewRenameCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "rename <n|id> <text>",
		Short: "Change the text of a task",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, opts, func(ctx context.Context, store *service.TodoStore) error {
				id, err := resolveTask(store, args[0])
				if err != nil {
					return err
				}
				if _, err := store.RenameTask(id, strings.Join(args[1:], " ")); err != nil {
					return err
				}
				if err := store.Flush(ctx); err != nil {
					return err
				}
				printList(cmd.OutOrStdout(), store, store.ActiveCategory())
				return nil
			})
		},
	}
}

// NewDeleteCommand deletes a task after confirmation.
func NewDeleteCommand(opts *RootOptions) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete <n|id>",
		Short: "Delete a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, opts, func(ctx context.Context, store *service.TodoStore) error {
				id, err := resolveTask(store, args[0])
				if err != nil {
					return err
				}
				task, _ := store.Task(id)
				if !yes && !confirm(cmd.InOrStdin(), cmd.OutOrStdout(), fmt.Sprintf("Delete %q? Are you sure?", task.Text)) {
					fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
					return nil
				}
				if _, err := store.DeleteTask(ctx, id); err != nil {
					return err
				}
				printList(cmd.OutOrStdout(), store, store.ActiveCategory())
				return nil
			})
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}

// NewClearCommand erases both lists and the active category after confirmation.
func NewClearCommand(opts *RootOptions) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Erase every task",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, opts, func(ctx context.Context, store *service.TodoStore) error {
				if !yes && !confirm(cmd.InOrStdin(), cmd.OutOrStdout(), "Clear all tasks? Are you sure?") {
					fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
					return nil
				}
				if _, _, err := store.ClearAll(ctx); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "All tasks cleared.")
				return nil
			})
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}

// resolveTask maps a list position of the active category, or a raw id, to a task id.
func resolveTask(store *service.TodoStore, ref string) (string, error) {
	if n, err := strconv.Atoi(ref); err == nil {
		visible := store.VisibleTasks(store.ActiveCategory())
		if n >= 1 && n <= len(visible) {
			return visible[n-1].ID, nil
		}
	}
	if _, ok := store.Task(ref); ok {
		return ref, nil
	}
	return "", fmt.Errorf("%q: %w", ref, service.ErrNotFound)
}

func confirm(in io.Reader, out io.Writer, question string) bool {
	fmt.Fprintf(out, "%s [y/N] ", question)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" {
		fmt.Fprintln(out)
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}

func printList(w io.Writer, store *service.TodoStore, category model.Category) {
	total, done := store.Counts(category)
	marker := ""
	if category == store.ActiveCategory() {
		marker = " *"
	}
	fmt.Fprintf(w, "%s%s (%d open, %d done)\n", category, marker, total-done, done)

	tasks := store.VisibleTasks(category)
	if len(tasks) == 0 {
		fmt.Fprintf(w, "  %s\n", category.Prompt())
		return
	}
	for i, task := range tasks {
		box := "[ ]"
		if task.IsDone {
			box = "[x]"
		}
		suffix := ""
		if task.IsEditing {
			suffix = " (editing)"
		}
		fmt.Fprintf(w, "%3d. %s %s%s  %s\n", i+1, box, task.Text, suffix, task.ID)
	}
}
