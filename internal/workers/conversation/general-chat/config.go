package generalchat

import (
	"fmt"
	"time"
)

type Config struct {
	Timeout         time.Duration `mapstructure:"timeout"`
	SystemPrompt    string        `mapstructure:"system_prompt"`
	DefaultQuestion string        `mapstructure:"default_question"`
}

func DefaultConfig() *Config {
	return &Config{
		Timeout:         60 * time.Second,
		DefaultQuestion: "Hello",
	}
}

func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.DefaultQuestion == "" {
		return fmt.Errorf("default_question is required")
	}
	return nil
}
