// Package dispatch resolves free text or an explicit intent to a domain
// handler and runs it.
package dispatch

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	stdErrors "sap-address-assistant/internal/common/errors"
	"sap-address-assistant/internal/common/logger"
	"sap-address-assistant/internal/common/observability"
	"sap-address-assistant/internal/models"
)

// Extractor classifies text for one domain.
type Extractor interface {
	Domain() models.Domain
	Extract(ctx context.Context, text string) (models.ExtractionResult, error)
}

// Handler executes the intents of one domain.
type Handler interface {
	Validate(intent models.Intent, entities models.EntityMap) error
	Execute(ctx context.Context, intent models.Intent, entities models.EntityMap, rc models.RequestContext) (*models.DispatchResult, error)
}

type Dependencies struct {
	TelephoneExtractor Extractor
	PostalExtractor    Extractor

	Telephone Handler
	Postal    Handler
	General   Handler

	Observability *observability.Observability
	Logger        logger.Logger
}

type Dispatcher struct {
	telExtractor    Extractor
	postalExtractor Extractor

	telephone Handler
	postal    Handler
	general   Handler

	obs    *observability.Observability
	logger logger.Logger
}

func New(deps Dependencies) (*Dispatcher, error) {
	if deps.TelephoneExtractor == nil || deps.PostalExtractor == nil {
		return nil, fmt.Errorf("dispatch: both extractors are required")
	}
	if deps.Telephone == nil || deps.Postal == nil || deps.General == nil {
		return nil, fmt.Errorf("dispatch: telephone, postal and general handlers are required")
	}

	obs := deps.Observability
	if obs == nil {
		obs = observability.NewNoop()
	}
	log := deps.Logger
	if log == nil {
		log = logger.NewNoOpLogger()
	}

	return &Dispatcher{
		telExtractor:    deps.TelephoneExtractor,
		postalExtractor: deps.PostalExtractor,
		telephone:       deps.Telephone,
		postal:          deps.Postal,
		general:         deps.General,
		obs:             obs,
		logger:          log.With(map[string]interface{}{"component": "dispatcher"}),
	}, nil
}

// Reconcile picks the telephone result when it is structured, else the
// postal result when it is structured, else an empty GeneralChat.
func Reconcile(tel, postal models.ExtractionResult) models.ExtractionResult {
	if tel.Intent != models.IntentGeneralChat && tel.Intent != "" {
		return withEntities(tel)
	}
	if postal.Intent != models.IntentGeneralChat && postal.Intent != "" {
		return withEntities(postal)
	}
	return models.GeneralChatResult()
}

func withEntities(r models.ExtractionResult) models.ExtractionResult {
	if r.Entities == nil {
		r.Entities = models.EntityMap{}
	}
	return r
}

// Classify runs both extractors, telephone first, and reconciles them.
// Either extractor failing fails the request.
func (d *Dispatcher) Classify(ctx context.Context, text string) (models.ExtractionResult, error) {
	ctx, span := d.obs.Tracer().Start(ctx, "dispatch.classify")
	defer span.End()

	tel, err := d.telExtractor.Extract(ctx, text)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "telephone extraction")
		return models.ExtractionResult{}, err
	}

	postal, err := d.postalExtractor.Extract(ctx, text)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "postal extraction")
		return models.ExtractionResult{}, err
	}

	result := Reconcile(tel, postal)
	span.SetAttributes(
		attribute.String("extract.telephone", tel.Intent.String()),
		attribute.String("extract.postal", postal.Intent.String()),
		attribute.String("intent", result.Intent.String()),
	)
	d.logger.Debug("query classified", map[string]interface{}{
		"telephoneIntent": tel.Intent.String(),
		"postalIntent":    postal.Intent.String(),
		"intent":          result.Intent.String(),
	})
	return result, nil
}

// Dispatch validates and executes intent on its handler.
func (d *Dispatcher) Dispatch(ctx context.Context, intent models.Intent, entities models.EntityMap, rc models.RequestContext) (*models.DispatchResult, error) {
	if entities == nil {
		entities = models.EntityMap{}
	}

	ctx, span := d.obs.Tracer().Start(ctx, "dispatch.execute")
	defer span.End()
	span.SetAttributes(
		attribute.String("intent", intent.String()),
		attribute.String("request_id", rc.RequestID),
	)

	start := time.Now()
	handler := d.lookup(intent)

	result, err := d.run(ctx, handler, intent, entities, rc)
	outcome := models.StatusSuccess
	if err != nil {
		outcome = string(stdErrors.Normalize(err).Code)
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
	}
	d.obs.RecordDispatch(ctx, intent.String(), outcome, time.Since(start))

	d.logger.Info("intent dispatched", map[string]interface{}{
		"requestId":   rc.RequestID,
		"intent":      intent.String(),
		"outcome":     outcome,
		"duration_ms": time.Since(start).Milliseconds(),
	})
	return result, err
}

// Process classifies text and dispatches the winning intent.
func (d *Dispatcher) Process(ctx context.Context, rc models.RequestContext) (*models.DispatchResult, error) {
	extraction, err := d.Classify(ctx, rc.UserQuery)
	if err != nil {
		return nil, err
	}
	return d.Dispatch(ctx, extraction.Intent, extraction.Entities, rc)
}

func (d *Dispatcher) run(ctx context.Context, h Handler, intent models.Intent, entities models.EntityMap, rc models.RequestContext) (*models.DispatchResult, error) {
	if err := h.Validate(intent, entities); err != nil {
		return nil, err
	}
	return h.Execute(ctx, intent, entities, rc)
}

func (d *Dispatcher) lookup(intent models.Intent) Handler {
	switch intent {
	case models.IntentGetTelephoneAddress, models.IntentCreateTelephoneAddress, models.IntentUpdateTelephoneAddress:
		return d.telephone
	case models.IntentGetPostalAddress, models.IntentCreatePostalAddress, models.IntentUpdatePostalAddress:
		return d.postal
	default:
		return d.general
	}
}
