package cli

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/nhle/todosync/internal/app"
	appsync "github.com/nhle/todosync/internal/sync"
)

func newTUICommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Open the interactive terminal UI",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd, opts)
		},
	}
}

func runTUI(cmd *cobra.Command, opts *RootOptions) error {
	e, err := opts.open(true)
	if err != nil {
		return err
	}
	defer e.Close()

	watcher := appsync.New(e.cache, appsync.Options{
		Interval: e.cfg.Display.RefreshInterval(),
		Logger:   e.log.WithPrefix("watcher"),
	})
	defer watcher.Stop()

	m := app.New(app.Deps{
		Session:   e.session,
		Mutations: e.mutations,
		Watcher:   watcher,
		Logger:    e.log,
		OpTimeout: 3 * e.cfg.API.Timeout(),
	})

	e.log.Info("starting tui", "api", e.cfg.API.BaseURL)
	p := tea.NewProgram(m,
		tea.WithAltScreen(),
		tea.WithContext(commandContext(cmd)),
	)
	_, err = p.Run()
	return err
}
