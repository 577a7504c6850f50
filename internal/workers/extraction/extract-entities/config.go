package extractentities

import (
	"fmt"
	"time"

	"sap-address-assistant/internal/models"
)

type Config struct {
	Domain       models.Domain `mapstructure:"domain"`
	Timeout      time.Duration `mapstructure:"timeout"`
	CacheEnabled bool          `mapstructure:"cache_enabled"`
}

func DefaultConfig(domain models.Domain) *Config {
	return &Config{
		Domain:  domain,
		Timeout: 60 * time.Second,
	}
}

func (c *Config) Validate() error {
	if c.Domain != models.DomainTelephone && c.Domain != models.DomainPostal {
		return fmt.Errorf("unsupported extraction domain %q", c.Domain)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	return nil
}
