package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	stdErrors "sap-address-assistant/internal/common/errors"
	"sap-address-assistant/internal/models"
)

const maxBodyBytes = 1 << 20

// ProcessQueryRequest is the /process-query body. user_query takes
// precedence over an explicit intent.
type ProcessQueryRequest struct {
	UserQuery string                 `json:"user_query"`
	Intent    string                 `json:"intent"`
	Entities  map[string]interface{} `json:"entities"`
}

func (s *Server) handleProcessQuery(w http.ResponseWriter, r *http.Request) {
	requestID := RequestIDFromContext(r.Context())
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		stdErrors.WriteEnvelope(w, http.StatusMethodNotAllowed, stdErrors.Envelope{
			Status:  models.StatusError,
			Message: "Method not allowed",
			Code:    stdErrors.ErrCodeInvalidRequest,
		})
		return
	}

	req, err := s.decode(w, r)
	if err != nil {
		s.errHandler.HandleHTTPError(w, requestID, err)
		return
	}

	rc := models.RequestContext{RequestID: requestID, UserQuery: req.UserQuery}

	var result *models.DispatchResult
	if strings.TrimSpace(req.UserQuery) != "" {
		result, err = s.dispatcher.Process(r.Context(), rc)
	} else {
		intent := models.ParseIntent(strings.TrimSpace(req.Intent))
		result, err = s.dispatcher.Dispatch(r.Context(), intent, models.EntityMapFromAny(req.Entities), rc)
	}
	if err != nil {
		s.errHandler.HandleHTTPError(w, requestID, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request) (*ProcessQueryRequest, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return nil, stdErrors.NewInvalidRequestError("request body could not be read")
	}

	result, err := s.validator.ValidateBytes(body)
	if err != nil {
		return nil, stdErrors.NewInvalidRequestError("request body is not valid JSON")
	}
	if !result.Valid {
		return nil, stdErrors.NewInvalidRequestError(result.Summary())
	}

	var req ProcessQueryRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, stdErrors.NewInvalidRequestError("request body is not valid JSON")
	}
	return &req, nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"service": s.config.App.Name,
		"version": s.config.App.Version,
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	status := http.StatusOK
	components := make(map[string]string, len(s.checks))
	for name, check := range s.checks {
		if err := check(ctx); err != nil {
			status = http.StatusServiceUnavailable
			components[name] = "unavailable"
			s.logger.Warn("readiness check failed", map[string]interface{}{
				"component": name,
				"error":     err.Error(),
			})
			continue
		}
		components[name] = "ok"
	}

	state := "ready"
	if status != http.StatusOK {
		state = "not_ready"
	}
	writeJSON(w, status, map[string]interface{}{
		"status":     state,
		"components": components,
	})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
