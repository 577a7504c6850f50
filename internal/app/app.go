// Package app wires configuration into the running assistant.
package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"sap-address-assistant/internal/api"
	"sap-address-assistant/internal/common/config"
	"sap-address-assistant/internal/common/database"
	"sap-address-assistant/internal/common/llm"
	"sap-address-assistant/internal/common/logger"
	"sap-address-assistant/internal/common/observability"
	"sap-address-assistant/internal/common/sap"
	"sap-address-assistant/internal/dispatch"
	"sap-address-assistant/internal/models"
	generalchat "sap-address-assistant/internal/workers/conversation/general-chat"
	extractentities "sap-address-assistant/internal/workers/extraction/extract-entities"
	addresshandler "sap-address-assistant/internal/workers/sap/address-handler"
	"sap-address-assistant/pkg/registry"
)

// Options tunes startup. Zero values use production settings.
type Options struct {
	Observability *observability.Observability
	// ConnectAttempts bounds the Redis and PostgreSQL startup retries.
	ConnectAttempts int
	ConnectDelay    time.Duration
}

// App holds every long lived component.
type App struct {
	Config     *config.Config
	Server     *api.Server
	Dispatcher *dispatch.Dispatcher

	zapLog   *zap.Logger
	redis    *database.RedisClient
	postgres *database.PostgresClient
}

// retryWithBackoff attempts to execute a function with exponential backoff.
// It gives up early when ctx is done.
func retryWithBackoff(ctx context.Context, operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return fmt.Errorf("%s aborted after %d attempts: %w", operationName, i+1, ctx.Err())
			case <-timer.C:
			}
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func New(ctx context.Context, cfg *config.Config, zapLog *zap.Logger, opts Options) (*App, error) {
	if opts.ConnectAttempts <= 0 {
		opts.ConnectAttempts = 10
	}
	if opts.ConnectDelay <= 0 {
		opts.ConnectDelay = 2 * time.Second
	}
	obs := opts.Observability
	if obs == nil {
		obs = observability.NewNoop()
	}
	log := logger.NewZapAdapter(zapLog)

	a := &App{Config: cfg, zapLog: zapLog}
	checks := map[string]api.ReadinessCheck{}

	reg, err := registry.Load(cfg.Registry.Path)
	if err != nil {
		return nil, err
	}

	model, err := newLLM(cfg.LLM)
	if err != nil {
		return nil, err
	}

	// --- Optional extraction cache ---
	var cache extractentities.Cache
	if cfg.Database.Redis.Enabled {
		err = retryWithBackoff(ctx, func() error {
			client, err := database.NewRedis(cfg.Database.Redis)
			if err != nil {
				return err
			}
			if err := client.Ping(ctx); err != nil {
				_ = client.Close()
				return err
			}
			a.redis = client
			return nil
		}, opts.ConnectAttempts, opts.ConnectDelay, zapLog, "Redis connection")
		if err != nil {
			a.Close()
			return nil, err
		}
		cache = database.NewExtractionCache(a.redis.Client, config.GetDuration(cfg.Database.Redis.CacheTTL))
		checks["redis"] = a.redis.Ping
		zapLog.Info("Redis connected successfully")
	}

	// --- Optional write audit ---
	var audit addresshandler.AuditRecorder
	if cfg.Database.Postgres.Enabled {
		err = retryWithBackoff(ctx, func() error {
			client, err := database.NewPostgres(cfg.Database.Postgres)
			if err != nil {
				return err
			}
			if err := client.Ping(ctx); err != nil {
				_ = client.Close()
				return err
			}
			a.postgres = client
			return nil
		}, opts.ConnectAttempts, opts.ConnectDelay, zapLog, "PostgreSQL connection")
		if err != nil {
			a.Close()
			return nil, err
		}
		store := database.NewAuditStore(a.postgres.DB)
		if err := store.EnsureSchema(ctx); err != nil {
			a.Close()
			return nil, err
		}
		audit = store
		checks["postgres"] = a.postgres.Ping
		zapLog.Info("PostgreSQL connected successfully")
	}

	// --- Remote clients, extractors and handlers per domain ---
	extractors := map[models.Domain]*extractentities.Service{}
	handlers := map[models.Domain]*addresshandler.Handler{}
	entitySets := map[models.Domain]string{
		models.DomainTelephone: cfg.SAP.TelephoneEntitySet,
		models.DomainPostal:    cfg.SAP.PostalEntitySet,
	}
	for _, domain := range []models.Domain{models.DomainTelephone, models.DomainPostal} {
		client, err := sap.NewClient(sap.Options{
			BaseURL:        cfg.SAP.BaseURL,
			Username:       cfg.SAP.Username,
			Password:       cfg.SAP.Password,
			SAPClient:      cfg.SAP.Client,
			EntitySet:      entitySets[domain],
			Domain:         domain,
			UpdateMethod:   cfg.SAP.UpdateMethod,
			ConnectTimeout: config.GetDuration(cfg.SAP.ConnectTimeout),
			Timeout:        config.GetDuration(cfg.SAP.ReadTimeout),
		}, log)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("%s client: %w", domain, err)
		}

		extractCfg := extractentities.DefaultConfig(domain)
		if cfg.LLM.Timeout > 0 {
			extractCfg.Timeout = config.GetDuration(cfg.LLM.Timeout)
		}
		extractCfg.CacheEnabled = cache != nil
		extractors[domain], err = extractentities.NewService(extractentities.ServiceDependencies{
			LLM:    model,
			Cache:  cache,
			Logger: log,
		}, extractCfg)
		if err != nil {
			a.Close()
			return nil, err
		}

		handlers[domain], err = addresshandler.NewHandler(domain, addresshandler.HandlerDependencies{
			Client:   client,
			Registry: reg,
			Audit:    audit,
			Logger:   log,
		})
		if err != nil {
			a.Close()
			return nil, err
		}
	}

	chatCfg := generalchat.DefaultConfig()
	if cfg.LLM.Timeout > 0 {
		chatCfg.Timeout = config.GetDuration(cfg.LLM.Timeout)
	}
	chat, err := generalchat.NewHandler(chatCfg, model, log)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.Dispatcher, err = dispatch.New(dispatch.Dependencies{
		TelephoneExtractor: extractors[models.DomainTelephone],
		PostalExtractor:    extractors[models.DomainPostal],
		Telephone:          handlers[models.DomainTelephone],
		Postal:             handlers[models.DomainPostal],
		General:            chat,
		Observability:      obs,
		Logger:             log,
	})
	if err != nil {
		a.Close()
		return nil, err
	}

	a.Server, err = api.NewServer(api.Options{
		Config:     cfg,
		Dispatcher: a.Dispatcher,
		Logger:     log,
		Checks:     checks,
	})
	if err != nil {
		a.Close()
		return nil, err
	}

	zapLog.Info("assistant initialized",
		zap.String("registryVersion", reg.Version),
		zap.String("llmProvider", cfg.LLM.Provider),
		zap.Bool("cache", cache != nil),
		zap.Bool("audit", audit != nil),
	)
	return a, nil
}

func newLLM(cfg config.LLMConfig) (llm.Client, error) {
	switch strings.ToLower(cfg.Provider) {
	case "noop":
		return llm.NewNoopClient(), nil
	case "", "openai":
		return llm.NewOpenAIClient(llm.Config{
			APIKey:      cfg.APIKey,
			BaseURL:     cfg.BaseURL,
			Model:       cfg.Model,
			Temperature: cfg.Temperature,
			MaxTokens:   cfg.MaxTokens,
			Timeout:     config.GetDuration(cfg.Timeout),
		})
	default:
		return nil, fmt.Errorf("unsupported llm provider %q", cfg.Provider)
	}
}

// Close releases the optional backing connections.
func (a *App) Close() {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.zapLog.Error("Error closing Redis client", zap.Error(err))
		}
	}
	if a.postgres != nil {
		if err := a.postgres.Close(); err != nil {
			a.zapLog.Error("Error closing PostgreSQL pool", zap.Error(err))
		}
	}
}
