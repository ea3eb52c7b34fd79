package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"audioconv/internal/formats"
	"audioconv/internal/tags"
)

func newProbeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "probe <file>",
		Short: "Show the detected format and tags of a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			path := args[0]
			table := formats.NewTable(cfg.Tools)
			format, err := formats.NewDispatcher(table).Detect(path)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "File:   %s\n", path)
			fmt.Fprintf(out, "Format: %s\n", format)

			fields, err := tags.Read(path)
			if err != nil {
				fmt.Fprintf(out, "Tags:   unreadable (%v)\n", err)
				return nil
			}
			rows := tagRows(fields)
			if len(rows) == 0 {
				fmt.Fprintln(out, "Tags:   none")
				return nil
			}
			fmt.Fprintln(out, renderTable([]string{"Tag", "Value"}, rows, []columnAlignment{alignLeft, alignLeft}))
			return nil
		},
	}
}

func tagRows(f tags.Fields) [][]string {
	var rows [][]string
	add := func(name, value string) {
		if value != "" {
			rows = append(rows, []string{name, value})
		}
	}
	pos := func(n, total int) string {
		switch {
		case n <= 0:
			return ""
		case total > 0:
			return fmt.Sprintf("%d/%d", n, total)
		default:
			return strconv.Itoa(n)
		}
	}
	add("Title", f.Title)
	add("Artist", f.Artist)
	add("Album", f.Album)
	add("Album artist", f.AlbumArtist)
	add("Composer", f.Composer)
	add("Genre", f.Genre)
	if f.Year > 0 {
		add("Year", strconv.Itoa(f.Year))
	}
	add("Track", pos(f.Track, f.TrackTotal))
	add("Disc", pos(f.Disc, f.DiscTotal))
	add("Comment", f.Comment)
	return rows
}
