package thermodo

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/goccy/go-yaml"
	"github.com/joho/godotenv"
)

// Config is the YAML configuration of the command line tool.
type Config struct {
	Input       string         `yaml:"input"`  // capture device, index or name prefix
	Output      string         `yaml:"output"` // playback device
	Mode        string         `yaml:"mode"`
	BufferSize  int            `yaml:"buffer_size"`
	DeviceCheck bool           `yaml:"device_check"`
	Presence    PresenceConfig `yaml:"presence"`
	Log         LogConfig      `yaml:"log"`
	Simulate    SimulateConfig `yaml:"simulate"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // json or console
	File   string `yaml:"file"`
}

// SimulateConfig replaces the audio devices with a Loopback.
type SimulateConfig struct {
	Enabled    bool    `yaml:"enabled"`
	Resistance float64 `yaml:"resistance"`
	Noise      int     `yaml:"noise"`
	Headset    bool    `yaml:"headset"`
}

func DefaultConfig() *Config {
	return &Config{
		Mode:       ModeDefault.String(),
		BufferSize: int(BufferSeconds * SampleRate),
		Presence:   DefaultPresenceConfig(),
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		Simulate: SimulateConfig{
			Resistance: RefResistance,
			Noise:      20,
		},
	}
}

// LoadConfig reads the defaults, then envFile (if present), then the YAML
// file at path (if not empty), then THERMODO_* environment variables.
func LoadConfig(path, envFile string) (*Config, error) {
	cfg := DefaultConfig()

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}

		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) applyEnv() error {
	c.Input = getEnvOrDefault("THERMODO_INPUT", c.Input)
	c.Output = getEnvOrDefault("THERMODO_OUTPUT", c.Output)
	c.Mode = getEnvOrDefault("THERMODO_MODE", c.Mode)
	c.Log.Level = getEnvOrDefault("THERMODO_LOG_LEVEL", c.Log.Level)
	c.Log.File = getEnvOrDefault("THERMODO_LOG_FILE", c.Log.File)

	if v := os.Getenv("THERMODO_DEVICE_CHECK"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("THERMODO_DEVICE_CHECK: %w", err)
		}
		c.DeviceCheck = b
	}

	if v := os.Getenv("THERMODO_RESISTANCE"); v != "" {
		r, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("THERMODO_RESISTANCE: %w", err)
		}
		c.Simulate.Resistance = r
	}

	return nil
}

func (c *Config) Validate() error {
	if _, err := ParseMode(c.Mode); err != nil {
		return err
	}

	if c.BufferSize < SamplesPerFrame {
		return fmt.Errorf("buffer_size %d is shorter than a frame (%d samples)", c.BufferSize, SamplesPerFrame)
	}

	if c.Presence.BufferSize <= c.Presence.CutSamples {
		return fmt.Errorf("presence buffer_size %d must exceed cut_samples %d", c.Presence.BufferSize, c.Presence.CutSamples)
	}

	if c.Simulate.Resistance < 0 {
		return fmt.Errorf("negative resistance %v", c.Simulate.Resistance)
	}

	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
