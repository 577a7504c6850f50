// Package api exposes the assistant over HTTP.
package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"sap-address-assistant/internal/common/config"
	stdErrors "sap-address-assistant/internal/common/errors"
	"sap-address-assistant/internal/common/logger"
	"sap-address-assistant/internal/common/validation"
	"sap-address-assistant/internal/models"
)

// Dispatcher is the request pipeline behind /process-query.
type Dispatcher interface {
	Process(ctx context.Context, rc models.RequestContext) (*models.DispatchResult, error)
	Dispatch(ctx context.Context, intent models.Intent, entities models.EntityMap, rc models.RequestContext) (*models.DispatchResult, error)
}

// ReadinessCheck reports whether an optional backing service is reachable.
type ReadinessCheck func(ctx context.Context) error

type Options struct {
	Config     *config.Config
	Dispatcher Dispatcher
	Logger     logger.Logger
	// Checks run on /ready, keyed by component name.
	Checks map[string]ReadinessCheck
	// MetricsHandler overrides the default Prometheus handler.
	MetricsHandler http.Handler
}

type Server struct {
	config     *config.Config
	dispatcher Dispatcher
	validator  *validation.Validator
	errHandler *stdErrors.ErrorHandler
	logger     logger.Logger
	checks     map[string]ReadinessCheck
	metrics    http.Handler
}

func NewServer(opts Options) (*Server, error) {
	if opts.Config == nil {
		return nil, fmt.Errorf("api: config is required")
	}
	if opts.Dispatcher == nil {
		return nil, fmt.Errorf("api: dispatcher is required")
	}
	validator, err := validation.NewValidator(validation.ProcessQuerySchema())
	if err != nil {
		return nil, fmt.Errorf("api: compile request schema: %w", err)
	}

	log := opts.Logger
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	metricsHandler := opts.MetricsHandler
	if metricsHandler == nil {
		metricsHandler = promhttp.Handler()
	}

	return &Server{
		config:     opts.Config,
		dispatcher: opts.Dispatcher,
		validator:  validator,
		errHandler: stdErrors.NewErrorHandler(log),
		logger:     log.With(map[string]interface{}{"component": "api"}),
		checks:     opts.Checks,
		metrics:    metricsHandler,
	}, nil
}

// Routes builds the full handler tree with middleware applied.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	query := http.HandlerFunc(s.handleProcessQuery)
	for _, path := range []string{"/process-query", "/process-user-query/", "/v3/route"} {
		pattern := path
		if strings.HasSuffix(pattern, "/") {
			// exact match only, not a subtree
			pattern += "{$}"
		}
		mux.Handle(pattern, chain(query, Metrics(path)))
	}
	mux.Handle("/health", chain(http.HandlerFunc(s.handleHealth), Metrics("/health")))
	mux.Handle("/ready", chain(http.HandlerFunc(s.handleReady), Metrics("/ready")))
	mux.Handle("/metrics", s.metrics)

	srvCfg := s.config.Server
	return chain(mux,
		RequestID(),
		Timing(s.logger, time.Duration(srvCfg.SlowRequestMillis)*time.Millisecond),
		Recover(s.logger, s.errHandler),
		CORS(srvCfg.CORS),
		RateLimit(srvCfg.RateLimit, s.errHandler),
	)
}

// HTTPServer returns an http.Server configured from the server settings.
func (s *Server) HTTPServer() *http.Server {
	srvCfg := s.config.Server
	return &http.Server{
		Addr:              srvCfg.Addr,
		Handler:           s.Routes(),
		ReadTimeout:       config.GetDuration(srvCfg.ReadTimeout),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      config.GetDuration(srvCfg.WriteTimeout),
	}
}
