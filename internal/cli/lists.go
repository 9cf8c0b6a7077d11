package cli

import (
	"github.com/spf13/cobra"

	"github.com/nhle/todosync/internal/model"
)

func newListsCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "lists",
		Short: "Show your lists",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := opts.open(false)
			if err != nil {
				return err
			}
			defer e.Close()
			if err := e.requireSession(); err != nil {
				return err
			}

			lists, err := e.cache.ReadLists(commandContext(cmd))
			if err != nil {
				return friendly(err)
			}
			return newPrinter(cmd, opts).lists(lists)
		},
	}
}

func newListCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Create, rename or delete a list",
	}
	cmd.AddCommand(newListCreateCommand(opts))
	cmd.AddCommand(newListRenameCommand(opts))
	cmd.AddCommand(newListDeleteCommand(opts))
	return cmd
}

func newListCreateCommand(opts *RootOptions) *cobra.Command {
	var description string

	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a list",
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

			in := model.ListInput{Name: args[0]}
			if cmd.Flags().Changed("description") {
				in.Description = &description
			}
			list, err := e.mutations.CreateList(commandContext(cmd), in)
			if err != nil {
				return friendly(err)
			}
			return newPrinter(cmd, opts).message("Created list "+list.ID+".", list)
		},
	}
	cmd.Flags().StringVarP(&description, "description", "d", "", "list description")
	return cmd
}

func newListRenameCommand(opts *RootOptions) *cobra.Command {
	var description string

	cmd := &cobra.Command{
		Use:   "rename <list-id> <name>",
		Short: "Rename a list",
		Long: `Rename a list. The description is kept unless --description is given;
pass --description "" to clear it.`,
		Args: cobra.ExactArgs(2),
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
			in := model.ListInput{Name: args[1]}
			if cmd.Flags().Changed("description") {
				in.Description = &description
			} else {
				current, err := e.cache.ReadList(ctx, args[0])
				if err != nil {
					return friendly(err)
				}
				in.Description = current.Description
			}
			if err := e.mutations.UpdateList(ctx, args[0], in); err != nil {
				return friendly(err)
			}
			return newPrinter(cmd, opts).message("Renamed list "+args[0]+".", map[string]string{"id": args[0], "name": args[1]})
		},
	}
	cmd.Flags().StringVarP(&description, "description", "d", "", "new description")
	return cmd
}

func newListDeleteCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <list-id>",
		Aliases: []string{"rm"},
		Short:   "Delete a list and its items",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := opts.open(false)
			if err != nil {
				return err
			}
			defer e.Close()
			if err := e.requireSession(); err != nil {
				return err
			}

			if err := e.mutations.DeleteList(commandContext(cmd), args[0]); err != nil {
				return friendly(err)
			}
			return newPrinter(cmd, opts).message("Deleted list "+args[0]+".", map[string]string{"id": args[0]})
		},
	}
}
