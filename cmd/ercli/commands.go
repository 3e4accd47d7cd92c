package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Colossus92/eazy-recycling-sub004/internal/app"
	"github.com/Colossus92/eazy-recycling-sub004/internal/core/id"
	"github.com/Colossus92/eazy-recycling-sub004/internal/domain/declaration"
	"github.com/Colossus92/eazy-recycling-sub004/internal/infrastructure/http/v1/dto"
	"github.com/Colossus92/eazy-recycling-sub004/internal/infrastructure/storage/postgres"
)

func newMigrateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	migrator := func(cmd *cobra.Command) *postgres.Migrator {
		return postgres.NewMigrator(getCLIContext(cmd).cfg.DB.URL)
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				if err := migrator(cmd).Up(); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
				return nil
			},
		},
		&cobra.Command{
			Use:   "down [steps]",
			Short: "Roll back migrations (default 1)",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				steps := 1
				if len(args) == 1 {
					n, err := strconv.Atoi(args[0])
					if err != nil {
						return fmt.Errorf("invalid steps %q: %w", args[0], err)
					}
					steps = n
				}
				if err := migrator(cmd).Down(steps); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "rolled back %d migration(s)\n", steps)
				return nil
			},
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print the applied schema version",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				v, dirty, err := migrator(cmd).Version()
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "version %d (dirty: %t)\n", v, dirty)
				return nil
			},
		},
		&cobra.Command{
			Use:   "force <version>",
			Short: "Mark a version as applied after a manual repair",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				v, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("invalid version %q: %w", args[0], err)
				}
				return migrator(cmd).Force(v)
			},
		},
	)
	return cmd
}

func newImportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Import a waste stream registry export (CSV)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				res, err := a.Imports.Import(ctx, filepath.Base(args[0]), f)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), res)
			})
		},
	}
}

func newDeclareCommand() *cobra.Command {
	var corrections bool

	cmd := &cobra.Command{
		Use:   "declare <yyyy-mm>",
		Short: "Declare a month to the LMA gateway",
		Long: "Declare a month to the LMA gateway. With --corrections, record\n" +
			"corrective declarations for a month whose ledger changed; they\n" +
			"are transmitted after approval.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			period, err := declaration.ParseYearMonth(args[0])
			if err != nil {
				return err
			}
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				if corrections {
					decls, err := a.Declarations.DeclareCorrections(ctx, period)
					if err != nil {
						return err
					}
					return printJSON(cmd.OutOrStdout(), dto.FromCorrections(period, decls))
				}
				report, err := a.Declarations.DeclareMonth(ctx, period)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), dto.FromReport(report))
			})
		},
	}
	cmd.Flags().BoolVar(&corrections, "corrections", false, "record corrections instead of first and monthly declarations")
	return cmd
}

func newApproveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "approve <declaration-id>",
		Short: "Approve and transmit a corrective declaration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			declarationID, err := id.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid declaration id %q: %w", args[0], err)
			}
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				d, err := a.Declarations.Approve(ctx, declarationID)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), dto.FromDeclaration(d))
			})
		},
	}
}
