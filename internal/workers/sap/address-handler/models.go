package addresshandler

import (
	"context"

	"sap-address-assistant/internal/common/database"
	"sap-address-assistant/internal/common/logger"
	"sap-address-assistant/internal/models"
	"sap-address-assistant/pkg/registry"
)

// RemoteClient is the slice of the OData entity-set client the handler uses.
type RemoteClient interface {
	EntitySet() string
	FetchAll(ctx context.Context) ([]map[string]interface{}, error)
	Upsert(ctx context.Context, fields models.EntityMap) (*models.UpsertResult, error)
}

// AuditRecorder persists write outcomes. Optional.
type AuditRecorder interface {
	Record(ctx context.Context, entry database.AuditEntry) (string, error)
}

type HandlerDependencies struct {
	Client   RemoteClient
	Registry *registry.IntentRegistry
	Audit    AuditRecorder
	Logger   logger.Logger
}
