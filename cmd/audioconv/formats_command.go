package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"audioconv/internal/formats"
)

func newFormatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "formats",
		Short: "List supported source formats and their decoders",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			table := formats.NewTable(cfg.Tools)
			rows := make([][]string, 0, len(table.Entries()))
			for _, entry := range table.Entries() {
				decoder, mode := "-", "source is WAV"
				switch entry.Decoder.Mode {
				case formats.DecodeStream:
					decoder, mode = entry.Decoder.Tool, "pipe"
				case formats.DecodeFile:
					decoder, mode = entry.Decoder.Tool, "scratch file"
				}
				rows = append(rows, []string{entry.Label, strings.Join(entry.Extensions, " "), decoder, mode})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Format", "Extensions", "Decoder", "Intermediate"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft},
			))
			return nil
		},
	}
}
