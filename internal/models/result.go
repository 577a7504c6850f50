package models

// ExtractionResult is the structured output of one entity extractor.
type ExtractionResult struct {
	Intent   Intent    `json:"intent"`
	Entities EntityMap `json:"entities"`
}

// GeneralChatResult is the default extraction outcome.
func GeneralChatResult() ExtractionResult {
	return ExtractionResult{Intent: IntentGeneralChat, Entities: EntityMap{}}
}

const (
	ResultTypeSAP     = "sap"
	ResultTypeGeneral = "general"

	StatusSuccess = "success"
	StatusError   = "error"
)

// DispatchResult is returned directly as the HTTP response body.
type DispatchResult struct {
	Status string      `json:"status"`
	Type   string      `json:"type"`
	Intent Intent      `json:"intent,omitempty"`
	Data   interface{} `json:"data,omitempty"`
	Reply  string      `json:"reply,omitempty"`
}

// UpsertAction reports which write the remote client performed.
type UpsertAction string

const (
	UpsertCreated UpsertAction = "created"
	UpsertUpdated UpsertAction = "updated"
)

// UpsertResult is the normalized outcome of a create-or-update call.
type UpsertResult struct {
	Status  string                 `json:"status"`
	Action  UpsertAction           `json:"action"`
	Plant   string                 `json:"plant"`
	Message string                 `json:"message"`
	Record  map[string]interface{} `json:"record,omitempty"`
}

// RequestContext carries per-request values into handlers.
type RequestContext struct {
	RequestID string
	UserQuery string
}
