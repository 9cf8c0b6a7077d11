// Package cli implements the todosync command tree.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nhle/todosync/internal/credential"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	APIURL     string
	Verbose    bool
	Format     string // "text" | "json"

	// credentials replaces the OS keyring; tests set it.
	credentials credential.Store
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the todosync CLI.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "todosync",
		Short: "Terminal client for a todo-list backend",
		Long: `todosync manages todo lists and their ordered items on a REST backend.

Run without a subcommand to open the interactive TUI.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd, opts)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "config file (default ~/.config/todosync/config.yaml)")
	cmd.PersistentFlags().StringVar(&opts.APIURL, "api-url", "", "backend base URL (overrides config and TODOSYNC_API_URL)")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (text|json)")

	cmd.AddCommand(newLoginCommand(opts))
	cmd.AddCommand(newRegisterCommand(opts))
	cmd.AddCommand(newLogoutCommand(opts))
	cmd.AddCommand(newWhoamiCommand(opts))
	cmd.AddCommand(newListsCommand(opts))
	cmd.AddCommand(newListCommand(opts))
	cmd.AddCommand(newItemsCommand(opts))
	cmd.AddCommand(newItemCommand(opts))
	cmd.AddCommand(newTUICommand(opts))
	cmd.AddCommand(newServeCommand(opts))
	cmd.AddCommand(newConfigCommand(opts))

	return cmd
}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
