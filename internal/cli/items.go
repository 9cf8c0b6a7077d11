package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/nhle/todosync/internal/model"
	"github.com/nhle/todosync/internal/ordering"
)

func newItemsCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "items <list-id>",
		Short: "Show the items of a list in order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := opts.open(false)
			if err != nil {
				return err
			}
			defer e.Close()
			if err := e.requireSession(); err != nil {
				return err
			}

			items, err := e.cache.ReadItems(commandContext(cmd), args[0])
			if err != nil {
				return friendly(err)
			}
			return newPrinter(cmd, opts).items(items)
		},
	}
}

func newItemCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "item",
		Short: "Add, edit, complete, remove or move an item",
	}
	cmd.AddCommand(newItemAddCommand(opts))
	cmd.AddCommand(newItemEditCommand(opts))
	cmd.AddCommand(newItemDoneCommand(opts, "done", true))
	cmd.AddCommand(newItemDoneCommand(opts, "undone", false))
	cmd.AddCommand(newItemRemoveCommand(opts))
	cmd.AddCommand(newItemMoveCommand(opts))
	cmd.AddCommand(newItemStepCommand(opts, "up", true))
	cmd.AddCommand(newItemStepCommand(opts, "down", false))
	return cmd
}

func parseDue(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, fmt.Errorf("invalid due date %q: use YYYY-MM-DD", s)
	}
	return &t, nil
}

func newItemAddCommand(opts *RootOptions) *cobra.Command {
	var description, due string

	cmd := &cobra.Command{
		Use:   "add <list-id> <title>",
		Short: "Add an item at the end of a list",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			dueDate, err := parseDue(due)
			if err != nil {
				return err
			}

			e, err := opts.open(false)
			if err != nil {
				return err
			}
			defer e.Close()
			if err := e.requireSession(); err != nil {
				return err
			}

			in := model.ItemInput{Title: args[1], DueDate: dueDate}
			if cmd.Flags().Changed("description") {
				in.Description = &description
			}
			item, err := e.mutations.CreateItem(commandContext(cmd), args[0], in)
			if err != nil {
				return friendly(err)
			}
			return newPrinter(cmd, opts).message(fmt.Sprintf("Added item %s at position %d.", item.ID, item.Order), item)
		},
	}
	cmd.Flags().StringVarP(&description, "description", "d", "", "item description")
	cmd.Flags().StringVar(&due, "due", "", "due date (YYYY-MM-DD)")
	return cmd
}

func newItemEditCommand(opts *RootOptions) *cobra.Command {
	var title, description, due string

	cmd := &cobra.Command{
		Use:   "edit <list-id> <item-id>",
		Short: "Change the title, description or due date of an item",
		Long: `Change fields of an item. Only the given flags change; pass an empty
value to clear the description or due date.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			listID, itemID := args[0], args[1]

			e, err := opts.open(false)
			if err != nil {
				return err
			}
			defer e.Close()
			if err := e.requireSession(); err != nil {
				return err
			}

			ctx := commandContext(cmd)
			cached, err := e.cache.ReadItems(ctx, listID)
			if err != nil {
				return friendly(err)
			}
			items := ordering.Sorted(cached)
			idx := ordering.IndexOf(items, itemID)
			if idx < 0 {
				return fmt.Errorf("item %s not found in list %s", itemID, listID)
			}
			current := items[idx]

			in := model.ItemInput{
				Title:       current.Title,
				Description: current.Description,
				DueDate:     current.DueDate,
			}
			if cmd.Flags().Changed("title") {
				in.Title = title
			}
			if cmd.Flags().Changed("description") {
				in.Description = &description
			}
			if cmd.Flags().Changed("due") {
				if in.DueDate, err = parseDue(due); err != nil {
					return err
				}
			}

			item, err := e.mutations.UpdateItem(ctx, listID, itemID, in)
			if err != nil {
				return friendly(err)
			}
			return newPrinter(cmd, opts).message("Updated item "+itemID+".", item)
		},
	}
	cmd.Flags().StringVarP(&title, "title", "t", "", "new title")
	cmd.Flags().StringVarP(&description, "description", "d", "", "new description")
	cmd.Flags().StringVar(&due, "due", "", "new due date (YYYY-MM-DD)")
	return cmd
}

func newItemDoneCommand(opts *RootOptions, use string, completed bool) *cobra.Command {
	short := "Mark an item as completed"
	if !completed {
		short = "Mark an item as not completed"
	}

	return &cobra.Command{
		Use:   use + " <list-id> <item-id>",
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := opts.open(false)
			if err != nil {
				return err
			}
			defer e.Close()
			if err := e.requireSession(); err != nil {
				return err
			}

			item, err := e.mutations.SetCompleted(commandContext(cmd), args[0], args[1], completed)
			if err != nil {
				return friendly(err)
			}
			state := "open"
			if completed {
				state = "completed"
			}
			return newPrinter(cmd, opts).message(fmt.Sprintf("Item %s is %s.", args[1], state), item)
		},
	}
}

func newItemRemoveCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <list-id> <item-id>",
		Aliases: []string{"delete"},
		Short:   "Delete an item",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := opts.open(false)
			if err != nil {
				return err
			}
			defer e.Close()
			if err := e.requireSession(); err != nil {
				return err
			}

			if err := e.mutations.DeleteItem(commandContext(cmd), args[0], args[1]); err != nil {
				return friendly(err)
			}
			return newPrinter(cmd, opts).message("Deleted item "+args[1]+".", map[string]string{"id": args[1]})
		},
	}
}

func newItemMoveCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "move <list-id> <item-id> <index>",
		Short: "Move an item to a zero-based position",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := strconv.Atoi(args[2])
			if err != nil {
				return fmt.Errorf("invalid index %q: %w", args[2], err)
			}

			e, err := opts.open(false)
			if err != nil {
				return err
			}
			defer e.Close()
			if err := e.requireSession(); err != nil {
				return err
			}

			plan, err := e.mutations.MoveItem(commandContext(cmd), args[0], args[1], index)
			if err != nil {
				return friendly(err)
			}
			return printPlan(cmd, opts, plan)
		},
	}
}

func newItemStepCommand(opts *RootOptions, use string, up bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <list-id> <item-id>",
		Short: "Move an item one position " + use,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := opts.open(false)
			if err != nil {
				return err
			}
			defer e.Close()
			if err := e.requireSession(); err != nil {
				return err
			}

			ctx := commandContext(cmd)
			var plan ordering.Plan
			if up {
				plan, err = e.mutations.MoveItemUp(ctx, args[0], args[1])
			} else {
				plan, err = e.mutations.MoveItemDown(ctx, args[0], args[1])
			}
			if err != nil {
				return friendly(err)
			}
			return printPlan(cmd, opts, plan)
		},
	}
}

func printPlan(cmd *cobra.Command, opts *RootOptions, plan ordering.Plan) error {
	p := newPrinter(cmd, opts)
	if !plan.Changed {
		return p.message("Nothing to move.", plan)
	}
	if opts.Format == "json" {
		return p.json(plan)
	}
	return p.items(plan.Items)
}
