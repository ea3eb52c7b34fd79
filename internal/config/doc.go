// Package config loads, normalizes, and validates audioconv configuration.
//
// A configuration file is optional: defaults reproduce the classic
// behaviour (Ogg Vorbis at quality 8, outputs next to their sources, tools
// resolved from PATH). When present, the TOML file is read from --config,
// ~/.config/audioconv/config.toml, or ./audioconv.toml in that order. Command
// line flags are applied on top of the loaded values by the CLI.
//
// Always obtain settings through this package so downstream code receives
// expanded paths, canonical enum values, and clear validation errors.
package config
