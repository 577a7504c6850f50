package extractentities

import (
	"context"

	"sap-address-assistant/internal/common/llm"
	"sap-address-assistant/internal/common/logger"
	"sap-address-assistant/internal/models"
)

// Cache is the optional result store consulted before calling the model.
type Cache interface {
	Get(ctx context.Context, domain models.Domain, text string) (models.ExtractionResult, bool, error)
	Set(ctx context.Context, domain models.Domain, text string, result models.ExtractionResult) error
}

type ServiceDependencies struct {
	LLM    llm.Client
	Cache  Cache
	Logger logger.Logger
}

// rawExtraction is the model reply before normalization. Intent stays
// untyped so non-string labels degrade to GeneralChat instead of failing.
type rawExtraction struct {
	Intent   interface{}            `json:"intent"`
	Entities map[string]interface{} `json:"entities"`
}
