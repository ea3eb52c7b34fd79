package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	c.normalizeEncoder()
	if err := c.normalizeOutput(); err != nil {
		return err
	}
	if err := c.normalizeTools(); err != nil {
		return err
	}
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.Run.Pattern = strings.TrimSpace(c.Run.Pattern)
	return c.normalizeLogging()
}

func (c *Config) normalizeEncoder() {
	target := strings.ToLower(strings.TrimSpace(c.Encoder.Target))
	target = strings.TrimPrefix(target, ".")
	switch target {
	case "", "vorbis", "oggenc":
		target = TargetOgg
	case "lame":
		target = TargetMP3
	}
	c.Encoder.Target = target
}

func (c *Config) normalizeOutput() error {
	var err error
	if c.Output.Dir, err = expandPath(strings.TrimSpace(c.Output.Dir)); err != nil {
		return fmt.Errorf("output.dir: %w", err)
	}
	if c.Output.Marker == "" {
		c.Output.Marker = defaultMarker
	}
	if c.Output.MaxAttempts == 0 {
		c.Output.MaxAttempts = defaultMaxAttempts
	}
	c.Output.SameFormat = strings.ToLower(strings.TrimSpace(c.Output.SameFormat))
	if c.Output.SameFormat == "" {
		c.Output.SameFormat = defaultSameFormat
	}
	return nil
}

func (c *Config) normalizeTools() error {
	var err error
	if c.Tools.Dir, err = expandPath(strings.TrimSpace(c.Tools.Dir)); err != nil {
		return fmt.Errorf("tools.dir: %w", err)
	}
	defaults := defaultTools()
	fill := func(value *string, fallback string) {
		*value = strings.TrimSpace(*value)
		if *value == "" {
			*value = fallback
		}
	}
	fill(&c.Tools.Flac, defaults.Flac)
	fill(&c.Tools.Lame, defaults.Lame)
	fill(&c.Tools.Oggenc, defaults.Oggenc)
	fill(&c.Tools.Oggdec, defaults.Oggdec)
	fill(&c.Tools.Mac, defaults.Mac)
	fill(&c.Tools.Wvunpack, defaults.Wvunpack)
	fill(&c.Tools.Mplayer, defaults.Mplayer)
	fill(&c.Tools.Shnsplit, defaults.Shnsplit)
	fill(&c.Tools.Cuebreakpoints, defaults.Cuebreakpoints)
	return nil
}

func (c *Config) normalizePaths() error {
	scratch := strings.TrimSpace(c.Paths.ScratchDir)
	if scratch == "" {
		scratch = os.TempDir()
	}
	var err error
	if c.Paths.ScratchDir, err = expandPath(scratch); err != nil {
		return fmt.Errorf("paths.scratch_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeLogging() error {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	var err error
	if c.Logging.File, err = expandPath(strings.TrimSpace(c.Logging.File)); err != nil {
		return fmt.Errorf("logging.file: %w", err)
	}
	return nil
}
