package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"sap-address-assistant/internal/common/config"
	stdErrors "sap-address-assistant/internal/common/errors"
	"sap-address-assistant/internal/common/logger"
	"sap-address-assistant/internal/models"
)

// ==========================
// Mock Implementations
// ==========================

type MockDispatcher struct {
	mock.Mock
}

func (m *MockDispatcher) Process(ctx context.Context, rc models.RequestContext) (*models.DispatchResult, error) {
	args := m.Called(ctx, rc)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.DispatchResult), args.Error(1)
}

func (m *MockDispatcher) Dispatch(ctx context.Context, intent models.Intent, entities models.EntityMap, rc models.RequestContext) (*models.DispatchResult, error) {
	args := m.Called(ctx, intent, entities, rc)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.DispatchResult), args.Error(1)
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Name: "sap-address-assistant", Version: "test"},
		Server: config.ServerConfig{
			Addr:              ":0",
			SlowRequestMillis: 1200,
			CORS: config.CORSConfig{
				AllowedOrigins: []string{"*"},
				AllowedMethods: []string{"GET", "POST", "OPTIONS"},
				AllowedHeaders: []string{"Content-Type", "X-Request-ID"},
			},
		},
	}
}

func newTestServer(t *testing.T, d Dispatcher, mutate ...func(*Options)) http.Handler {
	t.Helper()
	opts := Options{
		Config:         testConfig(),
		Dispatcher:     d,
		Logger:         logger.NewTestLogger(t),
		MetricsHandler: http.NotFoundHandler(),
	}
	for _, m := range mutate {
		m(&opts)
	}
	s, err := NewServer(opts)
	require.NoError(t, err)
	return s.Routes()
}

func post(t *testing.T, h http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) stdErrors.Envelope {
	t.Helper()
	var env stdErrors.Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

// ==========================
// Constructor Tests
// ==========================

func TestNewServer_Validation(t *testing.T) {
	_, err := NewServer(Options{Dispatcher: new(MockDispatcher)})
	assert.Error(t, err)

	_, err = NewServer(Options{Config: testConfig()})
	assert.Error(t, err)
}

// ==========================
// /process-query Tests
// ==========================

func TestProcessQuery_FreeTextIsClassified(t *testing.T) {
	d := new(MockDispatcher)
	want := &models.DispatchResult{
		Status: models.StatusSuccess,
		Type:   models.ResultTypeSAP,
		Intent: models.IntentCreateTelephoneAddress,
		Data:   map[string]interface{}{"plant": "1000"},
	}
	d.On("Process", mock.Anything, mock.MatchedBy(func(rc models.RequestContext) bool {
		return rc.UserQuery == "create telephone address for plant 1000" && rc.RequestID != ""
	})).Return(want, nil).Once()

	h := newTestServer(t, d)
	rec := post(t, h, "/process-query", `{"user_query":"create telephone address for plant 1000"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"success","type":"sap","intent":"CreateTelephoneAddress","data":{"plant":"1000"}}`, rec.Body.String())
	d.AssertExpectations(t)
}

func TestProcessQuery_Aliases(t *testing.T) {
	for _, path := range []string{"/process-user-query/", "/v3/route"} {
		t.Run(path, func(t *testing.T) {
			d := new(MockDispatcher)
			d.On("Process", mock.Anything, mock.Anything).
				Return(&models.DispatchResult{Status: models.StatusSuccess, Type: models.ResultTypeGeneral, Reply: "hi"}, nil).Once()

			rec := post(t, newTestServer(t, d), path, `{"user_query":"hello"}`)
			assert.Equal(t, http.StatusOK, rec.Code)
			d.AssertExpectations(t)
		})
	}
}

func TestProcessQuery_AliasIsNotASubtree(t *testing.T) {
	d := new(MockDispatcher)

	rec := post(t, newTestServer(t, d), "/process-user-query/anything", `{"user_query":"hello"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	d.AssertNotCalled(t, "Process", mock.Anything, mock.Anything)
}

func TestProcessQuery_ExplicitIntent(t *testing.T) {
	tests := []struct {
		name         string
		body         string
		wantIntent   models.Intent
		wantEntities models.EntityMap
	}{
		{
			name:         "known intent with normalized entities",
			body:         `{"intent":"UpdatePostalAddress","entities":{"PLANT":2000,"CITY":"Pune","FLOOR":null}}`,
			wantIntent:   models.IntentUpdatePostalAddress,
			wantEntities: models.EntityMap{"PLANT": "2000", "CITY": "Pune", "FLOOR": ""},
		},
		{
			name:         "unknown intent falls back to chat",
			body:         `{"intent":"DeletePlant","entities":{"question":"what now?"}}`,
			wantIntent:   models.IntentGeneralChat,
			wantEntities: models.EntityMap{"question": "what now?"},
		},
		{
			name:         "blank user query uses intent",
			body:         `{"user_query":"  ","intent":"GetTelephoneAddress"}`,
			wantIntent:   models.IntentGetTelephoneAddress,
			wantEntities: models.EntityMap{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := new(MockDispatcher)
			d.On("Dispatch", mock.Anything, tt.wantIntent, tt.wantEntities, mock.Anything).
				Return(&models.DispatchResult{Status: models.StatusSuccess, Type: models.ResultTypeSAP}, nil).Once()

			rec := post(t, newTestServer(t, d), "/process-query", tt.body)
			assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			d.AssertExpectations(t)
			d.AssertNotCalled(t, "Process", mock.Anything, mock.Anything)
		})
	}
}

func TestProcessQuery_InvalidBodies(t *testing.T) {
	bodies := map[string]string{
		"empty object":        `{}`,
		"empty query":         `{"user_query":""}`,
		"whitespace query":    `{"user_query":"   "}`,
		"empty intent":        `{"intent":""}`,
		"not json":            `create phone`,
		"wrong type":          `{"user_query":42}`,
		"nested entity":       `{"intent":"GetPostalAddress","entities":{"PLANT":{"a":1}}}`,
		"entities not object": `{"intent":"GetPostalAddress","entities":["PLANT"]}`,
	}

	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			d := new(MockDispatcher)
			rec := post(t, newTestServer(t, d), "/process-query", body)

			require.Equal(t, http.StatusBadRequest, rec.Code)
			env := decodeEnvelope(t, rec)
			assert.Equal(t, "error", env.Status)
			assert.Equal(t, stdErrors.ErrCodeInvalidRequest, env.Code)
			d.AssertNotCalled(t, "Process", mock.Anything, mock.Anything)
			d.AssertNotCalled(t, "Dispatch", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestProcessQuery_ErrorMapping(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantStatus  int
		wantCode    stdErrors.ErrorCode
		wantMessage string
	}{
		{"missing field", stdErrors.NewValidationError([]string{"PLANT"}), http.StatusBadRequest, stdErrors.ErrCodeValidationFailed, "Missing required field(s): PLANT"},
		{"bad model output", stdErrors.NewExtractionError("telephone", errors.New("eof")), http.StatusBadRequest, stdErrors.ErrCodeExtractionFailed, "invalid upstream response"},
		{"remote failure", stdErrors.NewRemoteServiceError("create", 403, "denied"), http.StatusBadGateway, stdErrors.ErrCodeRemoteServiceError, ""},
		{"csrf failure", stdErrors.NewCSRFFetchError(401, "unauthorized"), http.StatusBadGateway, stdErrors.ErrCodeCSRFFetchFailed, ""},
		{"remote timeout", stdErrors.NewRemoteTransportError("fetch", context.DeadlineExceeded), http.StatusGatewayTimeout, stdErrors.ErrCodeRemoteTimeout, ""},
		{"llm timeout", stdErrors.NewLLMTimeoutError(context.DeadlineExceeded), http.StatusGatewayTimeout, stdErrors.ErrCodeLLMTimeout, ""},
		{"unexpected", errors.New("nil pointer somewhere"), http.StatusInternalServerError, stdErrors.ErrCodeInternalError, "Internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := new(MockDispatcher)
			d.On("Process", mock.Anything, mock.Anything).Return(nil, tt.err).Once()

			rec := post(t, newTestServer(t, d), "/process-query", `{"user_query":"anything"}`)

			require.Equal(t, tt.wantStatus, rec.Code)
			env := decodeEnvelope(t, rec)
			assert.Equal(t, "error", env.Status)
			assert.Equal(t, tt.wantCode, env.Code)
			if tt.wantMessage != "" {
				assert.Equal(t, tt.wantMessage, env.Message)
			}
			assert.NotContains(t, rec.Body.String(), "nil pointer")
		})
	}
}

func TestProcessQuery_MethodNotAllowed(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestServer(t, new(MockDispatcher)).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/process-query", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, http.MethodPost, rec.Header().Get("Allow"))
}

// ==========================
// Health & Readiness Tests
// ==========================

func TestHealth(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestServer(t, new(MockDispatcher)).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","service":"sap-address-assistant","version":"test"}`, rec.Body.String())
}

func TestReady(t *testing.T) {
	healthy := func(context.Context) error { return nil }
	broken := func(context.Context) error { return errors.New("connection refused") }

	rec := httptest.NewRecorder()
	newTestServer(t, new(MockDispatcher), func(o *Options) {
		o.Checks = map[string]ReadinessCheck{"redis": healthy}
	}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ready","components":{"redis":"ok"}}`, rec.Body.String())

	rec = httptest.NewRecorder()
	newTestServer(t, new(MockDispatcher), func(o *Options) {
		o.Checks = map[string]ReadinessCheck{"redis": healthy, "postgres": broken}
	}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.JSONEq(t, `{"status":"not_ready","components":{"redis":"ok","postgres":"unavailable"}}`, rec.Body.String())
}

func TestMetricsEndpoint(t *testing.T) {
	called := false
	h := newTestServer(t, new(MockDispatcher), func(o *Options) {
		o.MetricsHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			called = true
			w.WriteHeader(http.StatusOK)
		})
	})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, called)
}
