package errors

import (
	"encoding/json"
	"net/http"
)

// ErrorHandler writes error envelopes for failed requests.
type ErrorHandler struct {
	logger Logger
}

type Logger interface {
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

// Envelope is the JSON body returned for every failed request.
type Envelope struct {
	Status  string    `json:"status"`
	Message string    `json:"message"`
	Code    ErrorCode `json:"code"`
}

func NewErrorHandler(logger Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// HandleHTTPError normalizes err, logs it and writes the envelope.
// Internal errors never leak their details to the client.
func (h *ErrorHandler) HandleHTTPError(w http.ResponseWriter, requestID string, err error) {
	stdErr := Normalize(err)
	status := HTTPStatus(stdErr.Code)

	h.logError(requestID, status, stdErr)

	message := stdErr.Message
	if status == http.StatusInternalServerError {
		message = "Internal server error"
	}

	WriteEnvelope(w, status, Envelope{
		Status:  "error",
		Message: message,
		Code:    stdErr.Code,
	})
}

// WriteEnvelope writes an error envelope with the given status.
func WriteEnvelope(w http.ResponseWriter, status int, env Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(env)
}

func (h *ErrorHandler) logError(requestID string, status int, stdErr *StandardError) {
	fields := map[string]interface{}{
		"requestId":     requestID,
		"status":        status,
		"errorCode":     string(stdErr.Code),
		"message":       stdErr.Message,
		"details":       stdErr.Details,
		"retryable":     stdErr.Retryable,
		"errorCategory": GetErrorCategory(stdErr.Code),
	}
	for k, v := range stdErr.Metadata {
		fields[k] = v
	}

	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", fields)
		return
	}
	h.logger.Warn("request rejected", fields)
}
