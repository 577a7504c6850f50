package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"sap-address-assistant/internal/common/config"
	"sap-address-assistant/internal/common/llm"
)

func baseConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Name: "sap-address-assistant"},
		SAP: config.SAPConfig{
			BaseURL:            "http://sap.invalid/sap/opu/odata/sap/ZPLANT_SRV",
			Client:             "100",
			UpdateMethod:       "PATCH",
			TelephoneEntitySet: "TELEPHONEADDRSet",
			PostalEntitySet:    "PLANTPOSTALADDRSet",
		},
		LLM: config.LLMConfig{Provider: "noop", Timeout: 1000},
	}
}

func TestRetryWithBackoff(t *testing.T) {
	attempts := 0
	err := retryWithBackoff(context.Background(), func() error {
		attempts++
		if attempts < 3 {
			return errors.New("not yet")
		}
		return nil
	}, 5, time.Millisecond, zap.NewNop(), "test op")
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)

	attempts = 0
	err = retryWithBackoff(context.Background(), func() error {
		attempts++
		return errors.New("down")
	}, 2, time.Millisecond, zap.NewNop(), "test op")
	require.Error(t, err)
	assert.Equal(t, 2, attempts)
	assert.Contains(t, err.Error(), "test op failed after 2 attempts: down")
}

func TestRetryWithBackoff_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0

	start := time.Now()
	err := retryWithBackoff(ctx, func() error {
		attempts++
		cancel()
		return errors.New("down")
	}, 5, time.Hour, zap.NewNop(), "test op")

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, attempts)
	assert.Less(t, time.Since(start), time.Second)
}

func TestNewLLM(t *testing.T) {
	c, err := newLLM(config.LLMConfig{Provider: "noop"})
	require.NoError(t, err)
	assert.IsType(t, &llm.NoopClient{}, c)

	c, err = newLLM(config.LLMConfig{Provider: "openai", APIKey: "k", Model: "m"})
	require.NoError(t, err)
	assert.IsType(t, &llm.OpenAIClient{}, c)

	_, err = newLLM(config.LLMConfig{Provider: "openai", Model: "m"})
	assert.Error(t, err)

	_, err = newLLM(config.LLMConfig{Provider: "bedrock"})
	assert.Error(t, err)
}

func TestNew_Defaults(t *testing.T) {
	a, err := New(context.Background(), baseConfig(), zaptest.NewLogger(t), Options{})
	require.NoError(t, err)
	defer a.Close()

	assert.NotNil(t, a.Server)
	assert.NotNil(t, a.Dispatcher)
	assert.Nil(t, a.redis)
	assert.Nil(t, a.postgres)
}

func TestNew_BadRegistryPath(t *testing.T) {
	cfg := baseConfig()
	cfg.Registry.Path = "/does/not/exist.json"

	_, err := New(context.Background(), cfg, zaptest.NewLogger(t), Options{})
	assert.Error(t, err)
}

func TestNew_RedisUnavailable(t *testing.T) {
	cfg := baseConfig()
	cfg.Database.Redis = config.RedisConfig{Enabled: true, Address: "127.0.0.1:1"}

	_, err := New(context.Background(), cfg, zaptest.NewLogger(t), Options{ConnectAttempts: 1, ConnectDelay: time.Millisecond})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Redis connection failed after 1 attempts")
}

func TestNew_RedisUnavailableHonoursShutdown(t *testing.T) {
	cfg := baseConfig()
	cfg.Database.Redis = config.RedisConfig{Enabled: true, Address: "127.0.0.1:1"}

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := New(ctx, cfg, zaptest.NewLogger(t), Options{ConnectAttempts: 5, ConnectDelay: time.Hour})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Redis connection aborted")
	assert.Less(t, time.Since(start), 10*time.Second)
}
