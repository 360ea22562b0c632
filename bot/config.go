package bot

import (
	coreconfig "github.com/m3rciful/aitagbot/core/config"
)

// Config carries the loaded core configuration for the runner.
type Config struct {
	core *coreconfig.Config
}

// LoadConfig reads and validates configuration from path.
func LoadConfig(path string) (*Config, error) {
	core, err := coreconfig.Load(path)
	if err != nil {
		return nil, err
	}
	return &Config{core: core}, nil
}

// CoreConfig exposes the embedded core configuration.
func (c *Config) CoreConfig() *coreconfig.Config {
	if c == nil {
		return nil
	}
	return c.core
}
