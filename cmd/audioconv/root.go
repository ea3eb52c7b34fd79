package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var configFlag string
	var logLevelFlag string
	var logFormatFlag string

	ctx := newCommandContext(&configFlag, &logLevelFlag, &logFormatFlag)
	opts := &convertOptions{}

	rootCmd := &cobra.Command{
		Use:   "audioconv [flags] <file|dir>...",
		Short: "Batch convert audio files to Ogg Vorbis or MP3",
		Long: "audioconv decodes FLAC, Monkey's Audio, WavPack, MP4/M4A, MP3, Ogg and WAV files with\n" +
			"their native command line tools and re-encodes them with oggenc or lame, copying tags\n" +
			"and never overwriting existing files.",
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if shouldSkipConfig(cmd) {
				return nil
			}
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			return runConvert(cmd, ctx, opts, args)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormatFlag, "log-format", "", "Log format (console, json)")

	flags := rootCmd.Flags()
	flags.StringVarP(&opts.target, "target", "t", "", "Output format: ogg or mp3")
	flags.IntVarP(&opts.quality, "quality", "q", 0, "Encoder quality (oggenc -q -1..10, lame -V 0..9)")
	flags.BoolVarP(&opts.split, "split", "s", false, "Split single-file albums using their .cue sheet")
	flags.BoolVarP(&opts.recursive, "recursive", "r", false, "Descend into subdirectories")
	flags.StringVar(&opts.pattern, "pattern", "", "Only convert directory entries matching this glob (e.g. \"*.flac\")")
	flags.IntVarP(&opts.jobs, "jobs", "j", 0, "Number of files converted in parallel")
	flags.StringVarP(&opts.outputDir, "output-dir", "o", "", "Write outputs here instead of next to each source")
	flags.StringVar(&opts.sameFormat, "same-format", "", "Inputs already in the target format: reject, skip or allow")
	flags.BoolVar(&opts.verify, "verify", false, "Decode output headers after encoding")
	flags.BoolVar(&opts.keepIntermediate, "keep-intermediate", false, "Keep decoded WAV files next to the outputs")
	flags.BoolVar(&opts.noProgress, "no-progress", false, "Disable the progress bar")

	rootCmd.AddCommand(newToolsCommand(ctx))
	rootCmd.AddCommand(newFormatsCommand(ctx))
	rootCmd.AddCommand(newProbeCommand(ctx))
	rootCmd.AddCommand(newConfigCommand(ctx))

	return rootCmd
}
