package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newInitCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the registration tables",
		Long:  `Create the facilities, providers and volunteers tables if they are missing. Existing data is left untouched.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, db, cfg, err := openService(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := svc.EnsureSchema(cmd.Context()); err != nil {
				return err
			}

			target := cfg.Database.Path()
			if cfg.Database.Driver == "postgres" {
				target = "postgres"
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Initialized intake store in", target)
			return nil
		},
	}
}
