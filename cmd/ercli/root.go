package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/Colossus92/eazy-recycling-sub004/internal/app"
	"github.com/Colossus92/eazy-recycling-sub004/internal/config"
	appctx "github.com/Colossus92/eazy-recycling-sub004/internal/core/context"
	"github.com/Colossus92/eazy-recycling-sub004/pkg/logger"
)

type rootOptions struct {
	envFile  string
	logLevel string
	actor    string
}

// cliContext carries what PersistentPreRunE loaded to the subcommands.
type cliContext struct {
	cfg *config.Config
	log *logger.Logger
}

type cliContextKey struct{}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:     "ercli",
		Short:   "Eazy Recycling operator tool",
		Version: version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return persistentPreRun(cmd, opts)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&opts.envFile, "env-file", ".env", "dotenv file read before the environment")
	pf.StringVar(&opts.logLevel, "log-level", "", "log level override (debug, info, warn, error)")
	pf.StringVar(&opts.actor, "actor", "cli", "user id recorded on changes")

	cmd.AddCommand(
		newMigrateCommand(),
		newImportCommand(),
		newDeclareCommand(),
		newApproveCommand(),
	)
	return cmd
}

func persistentPreRun(cmd *cobra.Command, opts *rootOptions) error {
	cfg, err := config.Load(opts.envFile)
	if err != nil {
		return err
	}
	level := cfg.App.LogLevel
	if opts.logLevel != "" {
		level = opts.logLevel
	}
	log, err := logger.New(logger.Config{Level: level, Development: cfg.Development()})
	if err != nil {
		return fmt.Errorf("initialize logger: %w", err)
	}
	logger.SetDefault(log)

	ctx := appctx.WithUser(cmd.Context(), &appctx.UserContext{UserID: opts.actor})
	ctx = logger.WithLogger(ctx, log)
	cmd.SetContext(context.WithValue(ctx, cliContextKey{}, &cliContext{cfg: cfg, log: log}))
	return nil
}

func getCLIContext(cmd *cobra.Command) *cliContext {
	cc, _ := cmd.Context().Value(cliContextKey{}).(*cliContext)
	return cc
}

// withApp builds the application for one command and closes it after.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app.App) error) error {
	cc := getCLIContext(cmd)
	ctx := cmd.Context()
	a, err := app.New(ctx, cc.cfg, cc.log)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(ctx, a)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
