package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"onehand.ai/internal/reclassify"
)

// Config is the optional onehand.yaml. Keys left out keep their defaults.
type Config struct {
	Blacklist       []string `yaml:"blacklist"`
	CategoryPrefix  string   `yaml:"category_prefix"`
	BlockCategories []string `yaml:"block_categories"`

	StartDelayMs   int `yaml:"start_delay_ms"`
	ReadyTimeoutMs int `yaml:"ready_timeout_ms"`

	VerboseLimit int  `yaml:"verbose_limit"`
	Debug        bool `yaml:"debug"`
}

func Defaults() Config {
	r := reclassify.DefaultRules()
	return Config{
		Blacklist:       r.Blacklist,
		CategoryPrefix:  r.CategoryPrefix,
		BlockCategories: r.BlockCategories,
		StartDelayMs:    5000,
		ReadyTimeoutMs:  30000,
		VerboseLimit:    3,
	}
}

func Load(path string) (Config, error) {
	c := Defaults()
	raw, err := os.ReadFile(path)
	if err != nil {
		return c, err
	}
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return c, fmt.Errorf("onehand.yaml: %w", err)
	}
	if err := c.Validate(); err != nil {
		return c, fmt.Errorf("onehand.yaml: %w", err)
	}
	return c, nil
}

func (c Config) Validate() error {
	if c.StartDelayMs < 0 {
		return fmt.Errorf("start_delay_ms must be >= 0")
	}
	if c.ReadyTimeoutMs < 0 {
		return fmt.Errorf("ready_timeout_ms must be >= 0")
	}
	if c.VerboseLimit < 0 {
		return fmt.Errorf("verbose_limit must be >= 0")
	}
	if len(c.Blacklist) == 0 {
		return fmt.Errorf("blacklist must not be empty")
	}
	if len(c.BlockCategories) == 0 {
		return fmt.Errorf("block_categories must not be empty")
	}
	for _, p := range c.Blacklist {
		if p == "" {
			return fmt.Errorf("blacklist: empty pattern")
		}
	}
	return nil
}

func (c Config) Rules() reclassify.Rules {
	return reclassify.Rules{
		Blacklist:       append([]string(nil), c.Blacklist...),
		CategoryPrefix:  c.CategoryPrefix,
		BlockCategories: append([]string(nil), c.BlockCategories...),
	}
}

func (c Config) StartDelay() time.Duration {
	return time.Duration(c.StartDelayMs) * time.Millisecond
}

func (c Config) ReadyTimeout() time.Duration {
	return time.Duration(c.ReadyTimeoutMs) * time.Millisecond
}
