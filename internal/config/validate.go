package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateEncoder(); err != nil {
		return err
	}
	if err := c.validateOutput(); err != nil {
		return err
	}
	if err := c.validateRun(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateEncoder() error {
	switch c.Encoder.Target {
	case TargetOgg, TargetMP3:
	default:
		return fmt.Errorf("encoder.target: unsupported value %q (want %s or %s)", c.Encoder.Target, TargetOgg, TargetMP3)
	}
	if q := c.Encoder.OggQuality; q < minOggQuality || q > maxOggQuality {
		return fmt.Errorf("encoder.ogg_quality: %d outside %d..%d", q, minOggQuality, maxOggQuality)
	}
	if q := c.Encoder.MP3Quality; q < minMP3Quality || q > maxMP3Quality {
		return fmt.Errorf("encoder.mp3_quality: %d outside %d..%d", q, minMP3Quality, maxMP3Quality)
	}
	return nil
}

func (c *Config) validateOutput() error {
	if c.Output.MaxAttempts < 1 {
		return errors.New("output.max_attempts must be at least 1")
	}
	if strings.ContainsAny(c.Output.Marker, `/\`) {
		return fmt.Errorf("output.marker: %q must not contain path separators", c.Output.Marker)
	}
	switch c.Output.SameFormat {
	case SameFormatReject, SameFormatSkip, SameFormatAllow:
	default:
		return fmt.Errorf("output.same_format: unsupported value %q (want reject, skip, or allow)", c.Output.SameFormat)
	}
	return nil
}

func (c *Config) validateRun() error {
	if c.Run.Jobs < 1 {
		return errors.New("run.jobs must be at least 1")
	}
	if c.Run.Pattern != "" {
		if _, err := filepath.Match(c.Run.Pattern, ""); err != nil {
			return fmt.Errorf("run.pattern: %w", err)
		}
	}
	if c.Tools.TimeoutSeconds < 0 {
		return errors.New("tools.timeout_seconds must not be negative")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}
