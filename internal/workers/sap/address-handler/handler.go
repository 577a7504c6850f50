package addresshandler

import (
	"context"
	"fmt"
	"time"

	"sap-address-assistant/internal/common/database"
	stdErrors "sap-address-assistant/internal/common/errors"
	"sap-address-assistant/internal/common/logger"
	"sap-address-assistant/internal/common/metrics"
	"sap-address-assistant/internal/models"
	"sap-address-assistant/pkg/registry"
)

const TaskType = "sap-address-handler"

// Handler serves the get, create and update intents of one address domain.
type Handler struct {
	domain   models.Domain
	client   RemoteClient
	registry *registry.IntentRegistry
	audit    AuditRecorder
	logger   logger.Logger
}

func NewHandler(domain models.Domain, deps HandlerDependencies) (*Handler, error) {
	if domain != models.DomainTelephone && domain != models.DomainPostal {
		return nil, fmt.Errorf("%s: unsupported domain %q", TaskType, domain)
	}
	if deps.Client == nil {
		return nil, fmt.Errorf("%s: remote client is required", TaskType)
	}

	reg := deps.Registry
	if reg == nil {
		reg = registry.Default()
	}
	log := deps.Logger
	if log == nil {
		log = logger.NewNoOpLogger()
	}

	return &Handler{
		domain:   domain,
		client:   deps.Client,
		registry: reg,
		audit:    deps.Audit,
		logger: log.With(map[string]interface{}{
			"taskType":  TaskType,
			"domain":    string(domain),
			"entitySet": deps.Client.EntitySet(),
		}),
	}, nil
}

func (h *Handler) Domain() models.Domain { return h.domain }

// Validate checks the intent's required fields before any remote call.
func (h *Handler) Validate(intent models.Intent, entities models.EntityMap) error {
	if intent.Domain() != h.domain {
		return stdErrors.NewInvalidRequestError(fmt.Sprintf("intent %s is not served by the %s handler", intent, h.domain))
	}
	if missing := entities.Missing(h.registry.RequiredFields(intent)); len(missing) > 0 {
		return stdErrors.NewValidationError(missing)
	}
	return nil
}

func (h *Handler) Execute(ctx context.Context, intent models.Intent, entities models.EntityMap, rc models.RequestContext) (*models.DispatchResult, error) {
	if err := h.Validate(intent, entities); err != nil {
		return nil, err
	}

	switch intent.Action() {
	case models.ActionGet:
		records, err := h.client.FetchAll(ctx)
		if err != nil {
			return nil, err
		}
		h.logger.Info("records fetched", map[string]interface{}{
			"requestId": rc.RequestID,
			"count":     len(records),
		})
		return &models.DispatchResult{
			Status: models.StatusSuccess,
			Type:   models.ResultTypeSAP,
			Intent: intent,
			Data:   records,
		}, nil

	case models.ActionCreate, models.ActionUpdate:
		result, err := h.client.Upsert(ctx, entities)
		h.recordAudit(ctx, intent, entities, rc, result, err)
		if err != nil {
			return nil, err
		}
		return &models.DispatchResult{
			Status: models.StatusSuccess,
			Type:   models.ResultTypeSAP,
			Intent: intent,
			Data:   result,
		}, nil

	default:
		return nil, stdErrors.NewInvalidRequestError(fmt.Sprintf("unsupported intent %s", intent))
	}
}

func (h *Handler) recordAudit(ctx context.Context, intent models.Intent, entities models.EntityMap, rc models.RequestContext, result *models.UpsertResult, opErr error) {
	if h.audit == nil {
		return
	}

	entry := database.AuditEntry{
		RequestID: rc.RequestID,
		Intent:    intent.String(),
		Domain:    string(h.domain),
		Plant:     entities.Get(models.KeyField),
		Action:    string(intent.Action()),
		Status:    models.StatusSuccess,
		CreatedAt: time.Now().UTC(),
	}
	if result != nil {
		entry.Action = string(result.Action)
	}
	if opErr != nil {
		entry.Status = models.StatusError
		entry.ErrorCode = string(stdErrors.Normalize(opErr).Code)
	}

	if _, err := h.audit.Record(ctx, entry); err != nil {
		metrics.AuditWritesTotal.WithLabelValues("error").Inc()
		h.logger.Warn("audit write failed", map[string]interface{}{
			"requestId": rc.RequestID,
			"error":     err.Error(),
		})
		return
	}
	metrics.AuditWritesTotal.WithLabelValues("success").Inc()
}
