package extractentities

import (
	"context"
	"fmt"
	"strings"
	"time"

	stdErrors "sap-address-assistant/internal/common/errors"
	"sap-address-assistant/internal/common/llm"
	"sap-address-assistant/internal/common/logger"
	"sap-address-assistant/internal/common/metrics"
	"sap-address-assistant/internal/models"
)

const TaskType = "extract-entities"

// Service turns free text into an intent and entity map for one domain.
type Service struct {
	config *Config
	llm    llm.Client
	cache  Cache
	logger logger.Logger
}

func NewService(deps ServiceDependencies, config *Config) (*Service, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration for %s: %w", TaskType, err)
	}
	if deps.LLM == nil {
		return nil, fmt.Errorf("%s: language model client is required", TaskType)
	}

	log := deps.Logger
	if log == nil {
		log = logger.NewNoOpLogger()
	}

	s := &Service{
		config: config,
		llm:    deps.LLM,
		logger: log.With(map[string]interface{}{
			"taskType": TaskType,
			"domain":   string(config.Domain),
		}),
	}
	if config.CacheEnabled && deps.Cache != nil {
		s.cache = deps.Cache
	}
	return s, nil
}

func (s *Service) Domain() models.Domain { return s.config.Domain }

// Extract classifies text. Model output without a parseable JSON object is
// an EXTRACTION_FAILED error; unknown intents are not errors.
func (s *Service) Extract(ctx context.Context, text string) (models.ExtractionResult, error) {
	domain := s.config.Domain
	text = strings.TrimSpace(text)

	if cached, ok := s.lookup(ctx, text); ok {
		return cached, nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()

	start := time.Now()
	reply, err := s.llm.Complete(ctx, buildRequest(domain, text))
	if err != nil {
		s.logger.Warn("language model call failed", map[string]interface{}{
			"error": err.Error(),
		})
		return models.ExtractionResult{}, err
	}

	result, err := parseExtraction(domain, reply)
	if err != nil {
		s.logger.Warn("model output could not be parsed", map[string]interface{}{
			"error":     err.Error(),
			"rawLength": len(reply),
		})
		return models.ExtractionResult{}, stdErrors.NewExtractionError(string(domain), err)
	}

	s.logger.Info("entities extracted", map[string]interface{}{
		"intent":      result.Intent.String(),
		"entityCount": len(result.Entities.Keys()),
		"duration_ms": time.Since(start).Milliseconds(),
	})

	s.store(ctx, text, result)
	return result, nil
}

func (s *Service) lookup(ctx context.Context, text string) (models.ExtractionResult, bool) {
	if s.cache == nil {
		return models.ExtractionResult{}, false
	}
	result, ok, err := s.cache.Get(ctx, s.config.Domain, text)
	if err != nil {
		s.logger.Warn("extraction cache read failed", map[string]interface{}{"error": err.Error()})
		metrics.ExtractionCacheTotal.WithLabelValues(string(s.config.Domain), "error").Inc()
		return models.ExtractionResult{}, false
	}
	if !ok {
		metrics.ExtractionCacheTotal.WithLabelValues(string(s.config.Domain), "miss").Inc()
		return models.ExtractionResult{}, false
	}
	metrics.ExtractionCacheTotal.WithLabelValues(string(s.config.Domain), "hit").Inc()
	if result.Entities == nil {
		result.Entities = models.EntityMap{}
	}
	return result, true
}

func (s *Service) store(ctx context.Context, text string, result models.ExtractionResult) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, s.config.Domain, text, result); err != nil {
		s.logger.Warn("extraction cache write failed", map[string]interface{}{"error": err.Error()})
	}
}
