package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Encoder selects the output codec and its quality settings.
type Encoder struct {
	Target     string `toml:"target"`
	OggQuality int    `toml:"ogg_quality"`
	MP3Quality int    `toml:"mp3_quality"`
}

// Output controls where converted files land and how collisions are named.
type Output struct {
	Dir         string `toml:"dir"`
	Marker      string `toml:"marker"`
	MaxAttempts int    `toml:"max_attempts"`
	SameFormat  string `toml:"same_format"`
}

// Tools names the external binaries. Dir, when set, is searched before PATH.
type Tools struct {
	Dir            string `toml:"dir"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	Flac           string `toml:"flac"`
	Lame           string `toml:"lame"`
	Oggenc         string `toml:"oggenc"`
	Oggdec         string `toml:"oggdec"`
	Mac            string `toml:"mac"`
	Wvunpack       string `toml:"wvunpack"`
	Mplayer        string `toml:"mplayer"`
	Shnsplit       string `toml:"shnsplit"`
	Cuebreakpoints string `toml:"cuebreakpoints"`
}

// Run holds batch behaviour toggles.
type Run struct {
	Jobs             int    `toml:"jobs"`
	Verify           bool   `toml:"verify"`
	Split            bool   `toml:"split"`
	Recursive        bool   `toml:"recursive"`
	Pattern          string `toml:"pattern"`
	KeepIntermediate bool   `toml:"keep_intermediate"`
}

// Paths contains working directories.
type Paths struct {
	ScratchDir string `toml:"scratch_dir"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
	File   string `toml:"file"`
}

// Config encapsulates all configuration values for audioconv.
type Config struct {
	Encoder Encoder `toml:"encoder"`
	Output  Output  `toml:"output"`
	Tools   Tools   `toml:"tools"`
	Run     Run     `toml:"run"`
	Paths   Paths   `toml:"paths"`
	Logging Logging `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/audioconv/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded. A missing file is not an error.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			var strict *toml.StrictMissingError
			if errors.As(err, &strict) {
				return nil, "", false, fmt.Errorf("parse config: %s", strings.TrimSpace(strict.String()))
			}
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.Finalize(); err != nil {
		return nil, "", false, err
	}
	return &cfg, resolvedPath, exists, nil
}

// Finalize normalizes and validates the config. The CLI calls it again after
// applying flag overrides.
func (c *Config) Finalize() error {
	if err := c.normalize(); err != nil {
		return err
	}
	return c.Validate()
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		info, err := os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return "", false, fmt.Errorf("config file %s does not exist", expanded)
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		if info.IsDir() {
			return "", false, fmt.Errorf("config path %s is a directory", expanded)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	projectPath, err := filepath.Abs("audioconv.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}
	return defaultPath, false, nil
}

// Quality returns the configured quality for the selected target.
func (c *Config) Quality() int {
	if c.Encoder.Target == TargetMP3 {
		return c.Encoder.MP3Quality
	}
	return c.Encoder.OggQuality
}

// SetQuality stores q as the quality of the selected target.
func (c *Config) SetQuality(q int) {
	if c.Encoder.Target == TargetMP3 {
		c.Encoder.MP3Quality = q
		return
	}
	c.Encoder.OggQuality = q
}

// ToolTimeoutSeconds returns the per-process timeout; zero means none.
func (c *Config) ToolTimeoutSeconds() int {
	if c.Tools.TimeoutSeconds < 0 {
		return 0
	}
	return c.Tools.TimeoutSeconds
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
