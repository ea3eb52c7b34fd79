package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"audioconv/internal/formats"
	"audioconv/internal/preflight"
)

func newToolsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "tools",
		Short: "Show which external decoders and encoders are available",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			target, err := formats.ParseTarget(cfg.Encoder.Target)
			if err != nil {
				return err
			}
			table := formats.NewTable(cfg.Tools)
			statuses := preflight.CheckTools(preflight.AllTools(table, target), cfg.Tools.Dir)

			rows := make([][]string, 0, len(statuses))
			for _, s := range statuses {
				location := s.Path
				if !s.Available {
					location = s.Detail
				}
				rows = append(rows, []string{s.Command, yesNo(s.Available), yesNo(!s.Optional), location, s.Description})
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable(
				[]string{"Tool", "Available", "Required", "Location", "Purpose"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft},
			))
			if missing := preflight.Missing(statuses); len(missing) > 0 {
				return fmt.Errorf("%d required tool(s) missing", len(missing))
			}
			return nil
		},
	}
}
