package main

import (
	"encoding/json"

	"github.com/olekukonko/tablewriter"
	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/careconnect/intake/internal/domain"
)

func newListCmd(opts *rootOptions) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:       "list <kind>",
		Short:     "List registrations, newest first",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"facilities", "providers", "volunteers"},
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

			if asJSON {
				encoder := json.NewEncoder(cmd.OutOrStdout())
				encoder.SetIndent("", "  ")
				return encoder.Encode(lo.Map(recs, func(r domain.Record, _ int) map[string]any {
					return r.Map(schema)
				}))
			}

			table := tablewriter.NewWriter(cmd.OutOrStdout())
			table.SetHeader(schema.Columns())
			table.SetAutoWrapText(false)
			table.SetAutoFormatHeaders(false)
			for _, rec := range recs {
				table.Append(rec.Row(schema))
			}
			table.Render()
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output in JSON format")
	return cmd
}
