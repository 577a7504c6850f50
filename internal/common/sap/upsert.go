package sap

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	stdErrors "sap-address-assistant/internal/common/errors"
	"sap-address-assistant/internal/models"
)

const tracerName = "sap-address-assistant/sap"

// Upsert creates or updates the record keyed by PLANT.
//
// The key is checked first; a fresh CSRF token is then fetched and the
// write is a PATCH/PUT when the record exists, a POST otherwise. There is
// no fallback between verbs.
func (c *Client) Upsert(ctx context.Context, fields models.EntityMap) (*models.UpsertResult, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "sap.upsert")
	defer span.End()

	cleaned := fields.Clean()
	plant := cleaned.Get(models.KeyField)
	if plant == "" {
		return nil, stdErrors.NewValidationError([]string{models.KeyField})
	}
	span.SetAttributes(
		attribute.String("sap.entity_set", c.entitySet),
		attribute.String("sap.plant", plant),
	)

	existing, err := c.GetByKey(ctx, plant)
	if err != nil {
		return nil, c.fail(span, "existence check", err)
	}

	token, err := c.FetchCSRFToken(ctx)
	if err != nil {
		return nil, c.fail(span, "csrf fetch", err)
	}

	record := cleaned.ToRecord()
	label := c.domain.Label()

	if existing != nil {
		span.SetAttributes(attribute.String("sap.action", string(models.UpsertUpdated)))
		if err := c.Update(ctx, plant, record, token); err != nil {
			return nil, c.fail(span, "update", err)
		}
		c.logger.Info("record updated", map[string]interface{}{"plant": plant, "method": c.updateMethod})
		return &models.UpsertResult{
			Status:  models.StatusSuccess,
			Action:  models.UpsertUpdated,
			Plant:   plant,
			Message: fmt.Sprintf("Plant %s %s updated", plant, label),
		}, nil
	}

	span.SetAttributes(attribute.String("sap.action", string(models.UpsertCreated)))
	created, err := c.Create(ctx, record, token)
	if err != nil {
		return nil, c.fail(span, "create", err)
	}
	c.logger.Info("record created", map[string]interface{}{"plant": plant})
	return &models.UpsertResult{
		Status:  models.StatusSuccess,
		Action:  models.UpsertCreated,
		Plant:   plant,
		Message: fmt.Sprintf("Plant %s %s created", plant, label),
		Record:  created,
	}, nil
}

func (c *Client) fail(span trace.Span, stage string, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, stage)
	c.logger.Warn("upsert failed", map[string]interface{}{
		"stage": stage,
		"error": err.Error(),
	})
	return err
}
