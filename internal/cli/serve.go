package cli

import (
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nhle/todosync/internal/devserver"
	"github.com/nhle/todosync/internal/logging"
	"github.com/nhle/todosync/internal/store"
)

func newServeCommand(opts *RootOptions) *cobra.Command {
	var addr, dbPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the local development backend",
		Long: `Run a development implementation of the todo REST API backed by SQLite.
It is meant for local use and tests, not for production.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("addr") {
				addr = cfg.Server.Addr
			}
			if !cmd.Flags().Changed("db") {
				dbPath = cfg.Server.DBPath
			}

			logger, closer, err := logging.New(cfg.Log, opts.Verbose)
			if err != nil {
				return err
			}
			defer closer.Close()

			if dbPath != ":memory:" {
				if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
					return err
				}
			}
			st, err := store.NewSQLiteStore(dbPath)
			if err != nil {
				return err
			}
			defer st.Close()

			srv, err := devserver.New(st, devserver.Config{
				Addr:      addr,
				JWTSecret: cfg.Server.JWTSecret,
				Logger:    logger.WithPrefix("devserver"),
			})
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
			defer stop()

			logger.Info("serving", "addr", addr, "db", dbPath)
			return srv.ListenAndServe(ctx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :5000)")
	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite database path (default from config)")
	return cmd
}
