package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/careconnect/intake/internal/config"
	"github.com/careconnect/intake/internal/domain"
	"github.com/careconnect/intake/internal/pkg/logger"
	"github.com/careconnect/intake/internal/repository/sqlstore"
	"github.com/careconnect/intake/internal/service/registration"
)

type rootOptions struct {
	configPath string
	verbose    bool
}

// newRootCmd builds the command tree. A fresh tree per call keeps flag state
// out of package globals.
func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "intakectl",
		Short: "Operate the CareConnect intake store",
		Long: `intakectl works directly against the intake store configured for the
server: it can create the tables, list registrations and export them as CSV.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := logger.WARN
			if opts.verbose {
				level = logger.DEBUG
			}
			logger.SetLevel(level)
		},
	}
	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "config/config.yaml", "Path to the service config file")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable verbose logging")

	cmd.AddCommand(newInitCmd(opts), newListCmd(opts), newExportCmd(opts))
	return cmd
}

// openService loads the config and opens the store it names. The caller
// closes the returned pool.
func openService(ctx context.Context, opts *rootOptions) (*registration.Service, *sql.DB, *config.Config, error) {
	cfg, err := config.LoadFromEnv(opts.configPath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load config: %w", err)
	}
	db, dialect, err := sqlstore.Open(ctx, cfg.Database)
	if err != nil {
		return nil, nil, nil, err
	}
	return registration.NewService(sqlstore.New(db, dialect)), db, cfg, nil
}

func kindArg(arg string) (domain.Schema, error) {
	kind, err := domain.ParseKind(arg)
	if err != nil {
		return domain.Schema{}, err
	}
	schema, _ := domain.SchemaFor(kind)
	return schema, nil
}
