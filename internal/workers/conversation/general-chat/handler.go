package generalchat

import (
	"context"
	"fmt"
	"strings"

	"sap-address-assistant/internal/common/llm"
	"sap-address-assistant/internal/common/logger"
	"sap-address-assistant/internal/models"
)

const TaskType = "general-chat"

// QuestionEntity is the entity consulted when the request carries no free text.
const QuestionEntity = "question"

type Handler struct {
	config *Config
	llm    llm.Client
	logger logger.Logger
}

func NewHandler(config *Config, client llm.Client, log logger.Logger) (*Handler, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration for %s: %w", TaskType, err)
	}
	if client == nil {
		return nil, fmt.Errorf("%s: language model client is required", TaskType)
	}
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Handler{
		config: config,
		llm:    client,
		logger: log.With(map[string]interface{}{"taskType": TaskType}),
	}, nil
}

// Validate accepts anything; general chat has no required fields.
func (h *Handler) Validate(models.Intent, models.EntityMap) error { return nil }

func (h *Handler) Execute(ctx context.Context, _ models.Intent, entities models.EntityMap, rc models.RequestContext) (*models.DispatchResult, error) {
	question := h.question(entities, rc)

	ctx, cancel := context.WithTimeout(ctx, h.config.Timeout)
	defer cancel()

	var messages []llm.Message
	if h.config.SystemPrompt != "" {
		messages = append(messages, llm.Message{Role: llm.RoleSystem, Content: h.config.SystemPrompt})
	}
	messages = append(messages, llm.Message{Role: llm.RoleUser, Content: question})

	reply, err := h.llm.Complete(ctx, llm.Request{Purpose: "chat", Messages: messages})
	if err != nil {
		h.logger.Warn("chat completion failed", map[string]interface{}{
			"requestId": rc.RequestID,
			"error":     err.Error(),
		})
		return nil, err
	}

	h.logger.Debug("chat reply generated", map[string]interface{}{
		"requestId":   rc.RequestID,
		"replyLength": len(reply),
	})

	return &models.DispatchResult{
		Status: models.StatusSuccess,
		Type:   models.ResultTypeGeneral,
		Intent: models.IntentGeneralChat,
		Reply:  reply,
	}, nil
}

func (h *Handler) question(entities models.EntityMap, rc models.RequestContext) string {
	if q := strings.TrimSpace(rc.UserQuery); q != "" {
		return rc.UserQuery
	}
	if q := entities.Get(QuestionEntity); q != "" {
		return q
	}
	return h.config.DefaultQuestion
}
