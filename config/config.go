package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/gigapi/gigapi-accidents/aggregate"
	"github.com/spf13/viper"
)

// SourceConfig describes one accident dataset.
type SourceConfig struct {
	Name       string `mapstructure:"name"`
	Label      string `mapstructure:"label"`
	Dataset    string `mapstructure:"dataset"`
	File       string `mapstructure:"file"`
	Path       string `mapstructure:"path"`
	DateColumn string `mapstructure:"date_column"`
	Encoding   string `mapstructure:"encoding"`
	Sheet      string `mapstructure:"sheet"`
	Delimiter  string `mapstructure:"delimiter"`
}

type KaggleConfig struct {
	Username string        `mapstructure:"username"`
	Key      string        `mapstructure:"key"`
	BaseURL  string        `mapstructure:"base_url"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

type Configuration struct {
	WorkDir    string         `mapstructure:"work_dir"`
	LogLevel   string         `mapstructure:"log_level"`
	LogFormat  string         `mapstructure:"log_format"`
	Engine     string         `mapstructure:"engine"`
	DatePolicy string         `mapstructure:"date_policy"`
	Join       string         `mapstructure:"join"`
	Format     string         `mapstructure:"format"`
	Scale      string         `mapstructure:"scale"`
	Kaggle     KaggleConfig   `mapstructure:"kaggle"`
	Sources    []SourceConfig `mapstructure:"sources"`
}

var Config *Configuration

// DefaultSources are the two datasets compared out of the box.
var DefaultSources = []SourceConfig{
	{
		Name:       "aviation",
		Label:      "Aviation Accidents",
		Dataset:    "mirzaniazmorshed/ntsb-aviation-accidents",
		File:       "events.xlsx",
		DateColumn: "ev_date",
	},
	{
		Name:       "cars",
		Label:      "Car Crashes",
		Dataset:    "sobhanmoosavi/us-accidents",
		DateColumn: "Start_Time",
	},
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("work_dir", ".")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "console")
	v.SetDefault("engine", "native")
	v.SetDefault("date_policy", "drop")
	v.SetDefault("join", "inner")
	v.SetDefault("format", "table")
	v.SetDefault("scale", "none")
	v.SetDefault("kaggle.username", "")
	v.SetDefault("kaggle.key", "")
	v.SetDefault("kaggle.base_url", "https://www.kaggle.com/api/v1")
	v.SetDefault("kaggle.timeout", 0)
}

// Load reads configuration from the optional file at path, then from the
// ACCIDENTS_* environment. An empty path reads only defaults and env.
func Load(path string) (*Configuration, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("ACCIDENTS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	cfg := &Configuration{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if len(cfg.Sources) == 0 {
		cfg.Sources = append([]SourceConfig(nil), DefaultSources...)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// InitConfig loads configuration into Config.
func InitConfig(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	Config = cfg
	return nil
}

// Validate checks source definitions for names and a single origin each.
func (c *Configuration) Validate() error {
	seen := make(map[string]bool, len(c.Sources))
	for i, s := range c.Sources {
		if s.Name == "" {
			return fmt.Errorf("source #%d has no name", i)
		}
		if seen[s.Name] {
			return fmt.Errorf("duplicate source %q", s.Name)
		}
		seen[s.Name] = true
		label := s.Label
		if label == "" {
			label = s.Name
		}
		if strings.EqualFold(label, aggregate.YearKey) {
			return fmt.Errorf("source %q cannot be labelled %q", s.Name, label)
		}
		if s.DateColumn == "" {
			return fmt.Errorf("source %q has no date_column", s.Name)
		}
		if (s.Dataset == "") == (s.Path == "") {
			return fmt.Errorf("source %q needs exactly one of dataset or path", s.Name)
		}
		if s.File != "" && s.Dataset == "" {
			return fmt.Errorf("source %q sets file without a dataset", s.Name)
		}
		if len([]rune(s.Delimiter)) > 1 {
			return fmt.Errorf("source %q delimiter must be a single character", s.Name)
		}
	}
	return nil
}

// Source looks a source up by name.
func (c *Configuration) Source(name string) (SourceConfig, bool) {
	for _, s := range c.Sources {
		if s.Name == name {
			return s, true
		}
	}
	return SourceConfig{}, false
}
