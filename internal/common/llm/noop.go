package llm

import (
	"context"
	"fmt"
)

// NoopClient answers without calling a model. Extraction requests always
// classify as GeneralChat.
type NoopClient struct{}

func NewNoopClient() *NoopClient { return &NoopClient{} }

func (NoopClient) Complete(_ context.Context, req Request) (string, error) {
	observe(req.Purpose, "noop")
	if req.ExpectJSON {
		return `{"intent": "GeneralChat", "entities": {}}`, nil
	}
	var last string
	for i := len(req.Messages) - 1; i >= 0; i-- {
		if req.Messages[i].Role == RoleUser {
			last = req.Messages[i].Content
			break
		}
	}
	return fmt.Sprintf("Language model is disabled. You said: %s", last), nil
}
