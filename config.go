package conveyor

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Config is the file based configuration of a store. It is read from TOML
// or YAML and applied with WithConfig.
type Config struct {
	Name     string         `toml:"name" yaml:"name"`
	Log      LogConfig      `toml:"log" yaml:"log"`
	Activity ActivityConfig `toml:"activity" yaml:"activity"`
}

// LogConfig selects the level and format of the logrus adapter.
type LogConfig struct {
	Level  string `toml:"level" yaml:"level"`
	Format string `toml:"format" yaml:"format"`
}

// ActivityConfig controls activity event emission.
type ActivityConfig struct {
	Enabled bool     `toml:"enabled" yaml:"enabled"`
	Channel string   `toml:"channel" yaml:"channel"`
	Verbs   []string `toml:"verbs" yaml:"verbs"`
}

const (
	defaultLogLevel  = "info"
	defaultLogFormat = "text"
)

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() Config {
	return Config{
		Log: LogConfig{Level: defaultLogLevel, Format: defaultLogFormat},
		Activity: ActivityConfig{
			Enabled: true,
			Channel: defaultActivityChannel,
		},
	}
}

// LoadConfig reads path, choosing the decoder by extension (.toml, .yaml or
// .yml). A missing file yields DefaultConfig; keys absent from the file keep
// their defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	path = strings.TrimSpace(path)
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		err = toml.Unmarshal(data, &cfg)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &cfg)
	default:
		return Config{}, fmt.Errorf("parse config: unsupported extension %q", ext)
	}
	if err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	cfg.normalize()
	return cfg, nil
}

func (c *Config) normalize() {
	c.Name = strings.TrimSpace(c.Name)
	c.Log.Level = strings.ToLower(strings.TrimSpace(c.Log.Level))
	if c.Log.Level == "" {
		c.Log.Level = defaultLogLevel
	}
	c.Log.Format = strings.ToLower(strings.TrimSpace(c.Log.Format))
	if c.Log.Format == "" {
		c.Log.Format = defaultLogFormat
	}
	verbs := c.Activity.Verbs[:0]
	for _, verb := range c.Activity.Verbs {
		if verb = strings.TrimSpace(verb); verb != "" {
			verbs = append(verbs, verb)
		}
	}
	c.Activity.Verbs = verbs
	if len(verbs) == 0 {
		c.Activity.Verbs = nil
	}
	c.Activity.Channel = strings.TrimSpace(c.Activity.Channel)
	if c.Activity.Channel == "" {
		c.Activity.Channel = defaultActivityChannel
	}
}
