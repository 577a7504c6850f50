package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Load reads configs/config.yaml, merges config.<env>.yaml on top and
// applies environment overrides.
func Load() (*Config, error) {
	envFile := loadEnvFile()

	v := newViper()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	v.SetConfigName(fmt.Sprintf("config.%s", environment()))
	_ = v.MergeInConfig() // optional

	cfg, err := finish(v)
	if err != nil {
		return nil, err
	}
	cfg.EnvFile = envFile
	return cfg, nil
}

// LoadFromFile loads configuration from a specific file path
func LoadFromFile(path string) (*Config, error) {
	envFile := loadEnvFile()

	v := newViper()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	cfg, err := finish(v)
	if err != nil {
		return nil, err
	}
	cfg.EnvFile = envFile
	return cfg, nil
}

func newViper() *viper.Viper {
	v := viper.New()
	// sap.base_url <- SAP_BASE_URL
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

func finish(v *viper.Viper) (*Config, error) {
	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func environment() string {
	if env := os.Getenv("APP_ENVIRONMENT"); env != "" {
		return env
	}
	if env := os.Getenv("APP_ENV"); env != "" {
		return env
	}
	return "development"
}

// loadEnvFile loads the first .env found walking up from the working
// directory and returns its path.
func loadEnvFile() string {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
		"../../../.env",
	}

	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return path
			}
		}
	}
	return ""
}

// Find project root by looking for go.mod
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}

// expandEnvVars resolves ${VAR} placeholders in string values.
func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		strVal, ok := v.Get(key).(string)
		if !ok {
			continue
		}
		if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
			expanded := os.ExpandEnv(strVal)
			if expanded != strVal {
				v.Set(key, expanded)
			}
		}
	}
}

// setDefaults registers every key so AutomaticEnv can override it during Unmarshal.
func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "SAP Plant Conversational Hub")
	v.SetDefault("app.version", "1.1.0")
	v.SetDefault("app.environment", environment())

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.read_timeout", 15000)
	v.SetDefault("server.write_timeout", 90000)
	v.SetDefault("server.shutdown_timeout", 30000)
	v.SetDefault("server.slow_request_ms", 1200)
	v.SetDefault("server.cors.allowed_origins", []string{"*"})
	v.SetDefault("server.cors.allowed_methods", []string{"GET", "POST", "OPTIONS"})
	v.SetDefault("server.cors.allowed_headers", []string{"Content-Type", "Authorization", "X-Request-ID"})
	v.SetDefault("server.cors.allow_credentials", false)
	v.SetDefault("server.rate_limit.enabled", true)
	v.SetDefault("server.rate_limit.requests_per_second", 10.0)
	v.SetDefault("server.rate_limit.burst", 20)

	v.SetDefault("sap.base_url", "")
	v.SetDefault("sap.username", "")
	v.SetDefault("sap.password", "")
	v.SetDefault("sap.client", "")
	v.SetDefault("sap.connect_timeout", 10000)
	v.SetDefault("sap.read_timeout", 30000)
	v.SetDefault("sap.update_method", "PATCH")
	v.SetDefault("sap.telephone_entity_set", "TELEPHONEADDRSet")
	v.SetDefault("sap.postal_entity_set", "PLANTPOSTALADDRSet")

	v.SetDefault("llm.provider", "openai")
	v.SetDefault("llm.base_url", "")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.model", "bedrock.anthropic.claude-opus-4")
	v.SetDefault("llm.temperature", 0.0)
	v.SetDefault("llm.max_tokens", 1024)
	v.SetDefault("llm.timeout", 30000)

	v.SetDefault("database.postgres.enabled", false)
	v.SetDefault("database.postgres.dsn", "")
	v.SetDefault("database.postgres.host", "localhost")
	v.SetDefault("database.postgres.port", 5432)
	v.SetDefault("database.postgres.database", "")
	v.SetDefault("database.postgres.user", "")
	v.SetDefault("database.postgres.password", "")
	v.SetDefault("database.redis.enabled", false)
	v.SetDefault("database.redis.address", "")
	v.SetDefault("database.redis.password", "")
	v.SetDefault("database.redis.db", 0)
	v.SetDefault("database.redis.cache_ttl", 600000)

	v.SetDefault("registry.path", "")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")
}

// applyDefaults fills values an explicit config file may have zeroed.
func applyDefaults(cfg *Config) {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.Server.SlowRequestMillis <= 0 {
		cfg.Server.SlowRequestMillis = 1200
	}
	if cfg.Server.ShutdownTimeout <= 0 {
		cfg.Server.ShutdownTimeout = 30000
	}
	if cfg.Server.RateLimit.Burst <= 0 {
		cfg.Server.RateLimit.Burst = 1
	}

	cfg.SAP.UpdateMethod = strings.ToUpper(strings.TrimSpace(cfg.SAP.UpdateMethod))
	if cfg.SAP.UpdateMethod == "" {
		cfg.SAP.UpdateMethod = "PATCH"
	}
	cfg.SAP.BaseURL = strings.TrimRight(cfg.SAP.BaseURL, "/")
	if cfg.SAP.ConnectTimeout <= 0 {
		cfg.SAP.ConnectTimeout = 10000
	}
	if cfg.SAP.ReadTimeout <= 0 {
		cfg.SAP.ReadTimeout = 30000
	}

	if cfg.LLM.Provider == "" {
		cfg.LLM.Provider = "openai"
	}
	if cfg.LLM.Timeout <= 0 {
		cfg.LLM.Timeout = 30000
	}

	if cfg.Database.Postgres.MaxConnections == 0 {
		cfg.Database.Postgres.MaxConnections = 10
	}
	if cfg.Database.Postgres.MaxIdle == 0 {
		cfg.Database.Postgres.MaxIdle = 2
	}
	if cfg.Database.Postgres.SSLMode == "" {
		cfg.Database.Postgres.SSLMode = "disable"
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
}

// overrideEmptyConfig honours the conventional variable names that do not
// follow the nested key layout.
func overrideEmptyConfig(cfg *Config) {
	if cfg.LLM.APIKey == "" {
		if val := os.Getenv("OPENAI_API_KEY"); val != "" {
			cfg.LLM.APIKey = val
		}
	}
	if cfg.LLM.BaseURL == "" {
		if val := os.Getenv("OPENAI_BASE_URL"); val != "" {
			cfg.LLM.BaseURL = val
		}
	}
	if val := os.Getenv("OPENAI_MODEL"); val != "" {
		cfg.LLM.Model = val
	}

	if val := os.Getenv("HTTP_ADDR"); val != "" {
		cfg.Server.Addr = val
	}

	if val := os.Getenv("REDIS_ADDRESS"); val != "" && cfg.Database.Redis.Address == "" {
		cfg.Database.Redis.Address = val
		cfg.Database.Redis.Enabled = true
	}
	if val := os.Getenv("AUDIT_DSN"); val != "" && cfg.Database.Postgres.DSN == "" {
		cfg.Database.Postgres.DSN = val
		cfg.Database.Postgres.Enabled = true
	}
}

// validateConfig validates critical configuration fields
func validateConfig(cfg *Config) error {
	if cfg.SAP.BaseURL == "" {
		return fmt.Errorf("sap.base_url is required")
	}
	if cfg.SAP.TelephoneEntitySet == "" || cfg.SAP.PostalEntitySet == "" {
		return fmt.Errorf("sap entity sets are required")
	}
	if cfg.SAP.UpdateMethod != "PATCH" && cfg.SAP.UpdateMethod != "PUT" {
		return fmt.Errorf("sap.update_method must be PATCH or PUT, got %q", cfg.SAP.UpdateMethod)
	}

	switch cfg.LLM.Provider {
	case "openai":
		if cfg.LLM.APIKey == "" {
			return fmt.Errorf("llm.api_key is required for the openai provider")
		}
	case "noop":
	default:
		return fmt.Errorf("unknown llm.provider %q", cfg.LLM.Provider)
	}

	if cfg.Database.Redis.Enabled && cfg.Database.Redis.Address == "" {
		return fmt.Errorf("database.redis.address is required when the cache is enabled")
	}
	if cfg.Database.Postgres.Enabled && cfg.Database.Postgres.DSN == "" && cfg.Database.Postgres.Database == "" {
		return fmt.Errorf("database.postgres.dsn or database is required when auditing is enabled")
	}
	if cfg.Server.RateLimit.Enabled && cfg.Server.RateLimit.RequestsPerSecond <= 0 {
		return fmt.Errorf("server.rate_limit.requests_per_second must be positive")
	}
	return nil
}

// GetDuration converts milliseconds from config to time.Duration
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}
