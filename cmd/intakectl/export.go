package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/careconnect/intake/internal/render"
)

func newExportCmd(opts *rootOptions) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export <kind>",
		Short: "Write registrations as CSV",
		Long:  `Write the same CSV the admin download serves. Without --output the CSV goes to stdout.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			schema, err := kindArg(args[0])
			if err != nil {
				return err
			}

			svc, db, _, err := openService(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer db.Close()

			recs, err := svc.List(cmd.Context(), schema.Kind)
			if err != nil {
				return err
			}
			body, err := render.CSV(schema, recs)
			if err != nil {
				return err
			}

			if output == "" {
				_, err = cmd.OutOrStdout().Write(body)
				return err
			}
			if err := os.WriteFile(output, body, 0644); err != nil {
				return fmt.Errorf("write %s: %w", output, err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Exported %d %s to %s\n", len(recs), schema.Table, output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write CSV to this file instead of stdout")
	return cmd
}
