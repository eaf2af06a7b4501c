// Package cli is the command-line front end over a local TodoStore.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"todo-keeper/internal/config"
	"todo-keeper/internal/logging"
	"todo-keeper/internal/repository"
	"todo-keeper/internal/service"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	Namespace  string
	Database   string

	ids service.IDGenerator
}

// NewRootCommand creates the root command for the todo CLI.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "todo",
		Short:         "Work and travel to-do lists",
		Long:          "Keep two to-do lists, work and travel, in a local database.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "path to a TOML config file")
	cmd.PersistentFlags().StringVar(&opts.Namespace, "namespace", "", "key-value namespace of the list (default from config)")
	cmd.PersistentFlags().StringVar(&opts.Database, "db", "", "database DSN (overrides DATABASE_URL)")

	cmd.AddCommand(NewListCommand(opts))
	cmd.AddCommand(NewAddCommand(opts))
	cmd.AddCommand(NewCategoryCommand(opts))
	cmd.AddCommand(NewDoneCommand(opts))
	cmd.AddCommand(NewEditCommand(opts))
	cmd.AddCommand(NewRenameCommand(opts))
	cmd.AddCommand(NewDeleteCommand(opts))
	cmd.AddCommand(NewClearCommand(opts))

	return cmd
}

// openStore loads configuration, opens the database and initializes the store.
// The returned func closes the database.
func openStore(ctx context.Context, opts *RootOptions) (*service.TodoStore, func(), error) {
	var (
		cfg config.Config
		err error
	)
	if opts.ConfigPath != "" {
		cfg, err = config.LoadFile(opts.ConfigPath, true)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, nil, err
	}
	if opts.Database != "" {
		cfg.DatabaseURL = opts.Database
	}
	namespace := cfg.Namespace
	if opts.Namespace != "" {
		namespace = opts.Namespace
	}
	if err := config.ValidateNamespace(namespace); err != nil {
		return nil, nil, err
	}

	logger := logging.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	db, err := repository.NewDB(cfg.DatabaseDriver, cfg.DatabaseURL, logger)
	if err != nil {
		return nil, nil, err
	}
	closeDB := func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	}

	var storeOpts []service.Option
	if opts.ids != nil {
		storeOpts = append(storeOpts, service.WithIDGenerator(opts.ids))
	}
	store := service.NewTodoStore(repository.NewKVRepository(db, namespace), storeOpts...)
	if _, _, err := store.Initialize(ctx); err != nil {
		closeDB()
		return nil, nil, fmt.Errorf("load tasks: %w", err)
	}
	logger.Debug("store loaded", "namespace", namespace, "tasks", store.Tasks().Len())
	return store, closeDB, nil
}

// withStore runs fn against an initialized store and closes it afterwards.
func withStore(cmd *cobra.Command, opts *RootOptions, fn func(ctx context.Context, store *service.TodoStore) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	store, closeFn, err := openStore(ctx, opts)
	if err != nil {
		return err
	}
	defer closeFn()
	return fn(ctx, store)
}
