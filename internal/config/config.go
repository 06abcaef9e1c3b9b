// Package config reads the pinpoint configuration from a yaml file and
// environment variables.
package config

import (
	"fmt"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/jakopako/pinpoint/internal/browser"
	"github.com/jakopako/pinpoint/internal/output"
	"github.com/jakopako/pinpoint/internal/types"
	"gopkg.in/yaml.v3"
)

type TargeterConfig struct {
	// Exclude selects the regions (e.g. embedded widgets) in which clicks
	// are left alone.
	Exclude string `yaml:"exclude,omitempty" env:"PINPOINT_TARGETER_EXCLUDE"`
}

type CaptureConfig struct {
	MaxAscendDepth int    `yaml:"max_ascend_depth" env:"PINPOINT_CAPTURE_MAX_ASCEND_DEPTH" env-default:"4"`
	BoxShadow      string `yaml:"box_shadow,omitempty" env:"PINPOINT_CAPTURE_BOX_SHADOW"`
	ZIndex         string `yaml:"z_index,omitempty" env:"PINPOINT_CAPTURE_Z_INDEX"`
	// Hide lists selectors of page chrome that is hidden while capturing.
	Hide []string `yaml:"hide,omitempty" env:"PINPOINT_CAPTURE_HIDE" env-separator:","`
}

type RecorderConfig struct {
	ConsoleCapacity     int `yaml:"console_capacity" env:"PINPOINT_RECORDER_CONSOLE_CAPACITY" env-default:"100"`
	InteractionCapacity int `yaml:"interaction_capacity" env:"PINPOINT_RECORDER_INTERACTION_CAPACITY" env-default:"100"`
}

// Config defines the overall structure of the pinpoint configuration.
// Values will be taken from a config yml file or environment variables
// or both.
type Config struct {
	Browser      browser.Config      `yaml:"browser"`
	Targeter     TargeterConfig      `yaml:"targeter"`
	Capture      CaptureConfig       `yaml:"capture"`
	Recorder     RecorderConfig      `yaml:"recorder"`
	Writer       output.WriterConfig `yaml:"writer"`
	Interactions []types.Interaction `yaml:"interactions,omitempty"`
}

// NewConfig reads the configuration at path. If path is empty only the
// environment is read.
func NewConfig(path string) (*Config, error) {
	var config Config
	if path == "" {
		if err := cleanenv.ReadEnv(&config); err != nil {
			return nil, fmt.Errorf("error while reading config from env: %w", err)
		}
		return &config, nil
	}
	if err := cleanenv.ReadConfig(path, &config); err != nil {
		return nil, fmt.Errorf("error while reading config file %s: %w", path, err)
	}
	return &config, nil
}

// YAML renders the effective configuration. Credentials are masked.
func (c *Config) YAML() ([]byte, error) {
	masked := *c
	if masked.Writer.Password != "" {
		masked.Writer.Password = "********"
	}
	return yaml.Marshal(&masked)
}
