// Package sap is a minimal SAP Gateway OData v2 client scoped to one entity set.
package sap

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-resty/resty/v2"

	stdErrors "sap-address-assistant/internal/common/errors"
	commonhttp "sap-address-assistant/internal/common/http"
	"sap-address-assistant/internal/common/logger"
	"sap-address-assistant/internal/common/metrics"
	"sap-address-assistant/internal/models"
)

const (
	headerCSRFToken     = "X-CSRF-Token"
	headerRequestedWith = "X-Requested-With"
)

// Options configures a Client.
type Options struct {
	BaseURL        string
	Username       string
	Password       string
	SAPClient      string
	EntitySet      string
	Domain         models.Domain
	UpdateMethod   string // PATCH or PUT
	ConnectTimeout time.Duration
	Timeout        time.Duration
	Transport      http.RoundTripper
}

// Client talks to a single OData entity set keyed by PLANT.
type Client struct {
	http         *resty.Client
	entitySet    string
	sapClient    string
	domain       models.Domain
	updateMethod string
	logger       logger.Logger
}

// CSRFToken is a freshly fetched write token and its session cookies.
type CSRFToken struct {
	Value   string
	Cookies []*http.Cookie
}

func NewClient(opts Options, log logger.Logger) (*Client, error) {
	if opts.BaseURL == "" {
		return nil, fmt.Errorf("sap base url is required")
	}
	if opts.EntitySet == "" {
		return nil, fmt.Errorf("sap entity set is required")
	}
	method := strings.ToUpper(opts.UpdateMethod)
	if method == "" {
		method = http.MethodPatch
	}
	if method != http.MethodPatch && method != http.MethodPut {
		return nil, fmt.Errorf("unsupported update method %q", opts.UpdateMethod)
	}

	client := commonhttp.NewClient(commonhttp.ClientOptions{
		BaseURL:        strings.TrimRight(opts.BaseURL, "/"),
		ConnectTimeout: opts.ConnectTimeout,
		Timeout:        opts.Timeout,
		Username:       opts.Username,
		Password:       opts.Password,
		Headers:        map[string]string{"Accept": "application/json"},
		Transport:      opts.Transport,
	})

	return &Client{
		http:         client,
		entitySet:    opts.EntitySet,
		sapClient:    opts.SAPClient,
		domain:       opts.Domain,
		updateMethod: method,
		logger: log.With(map[string]interface{}{
			"entitySet": opts.EntitySet,
		}),
	}, nil
}

// EntitySet returns the configured entity set name.
func (c *Client) EntitySet() string { return c.entitySet }

// FetchAll returns every record of the entity set.
func (c *Client) FetchAll(ctx context.Context) ([]map[string]interface{}, error) {
	const op = "fetch"
	start := time.Now()

	resp, err := c.request(ctx).Get(c.collectionPath())
	if err != nil {
		c.observe(op, start, 0)
		return nil, stdErrors.NewRemoteTransportError(op, err)
	}
	c.observe(op, start, resp.StatusCode())

	if !resp.IsSuccess() {
		return nil, stdErrors.NewRemoteServiceError(op, resp.StatusCode(), truncate(resp.String()))
	}
	if !isJSON(resp) {
		return nil, stdErrors.NewRemoteServiceError(op, resp.StatusCode(),
			fmt.Sprintf("non-JSON response (%s): %s", resp.Header().Get("Content-Type"), truncate(resp.String())))
	}

	var payload map[string]interface{}
	if err := json.Unmarshal(resp.Body(), &payload); err != nil {
		return nil, stdErrors.NewRemoteServiceError(op, resp.StatusCode(), "malformed JSON: "+err.Error())
	}

	records := extractResults(payload)
	c.logger.Debug("fetched records", map[string]interface{}{"count": len(records)})
	return records, nil
}

// GetByKey returns the record for plant, or nil when it does not exist.
func (c *Client) GetByKey(ctx context.Context, plant string) (map[string]interface{}, error) {
	const op = "get"
	start := time.Now()

	resp, err := c.request(ctx).Get(c.keyPath(plant))
	if err != nil {
		c.observe(op, start, 0)
		return nil, stdErrors.NewRemoteTransportError(op, err)
	}
	c.observe(op, start, resp.StatusCode())

	switch {
	case resp.StatusCode() == http.StatusNotFound:
		return nil, nil
	case resp.StatusCode() == http.StatusOK:
		var payload map[string]interface{}
		if err := json.Unmarshal(resp.Body(), &payload); err != nil {
			// 200 without a body still proves existence.
			return map[string]interface{}{}, nil
		}
		return unwrapEntity(payload), nil
	default:
		return nil, stdErrors.NewRemoteServiceError(op, resp.StatusCode(), truncate(resp.String()))
	}
}

// FetchCSRFToken obtains a fresh token for one write. Tokens are never cached.
func (c *Client) FetchCSRFToken(ctx context.Context) (*CSRFToken, error) {
	const op = "csrf"
	start := time.Now()

	resp, err := c.request(ctx).
		SetHeader(headerCSRFToken, "Fetch").
		SetHeader(headerRequestedWith, "XMLHttpRequest").
		Get(c.collectionPath())
	if err != nil {
		c.observe(op, start, 0)
		if stdErrors.IsTimeout(err) {
			return nil, stdErrors.NewRemoteTransportError(op, err)
		}
		return nil, stdErrors.NewCSRFFetchError(0, err.Error())
	}
	c.observe(op, start, resp.StatusCode())

	if resp.StatusCode() != http.StatusOK {
		return nil, stdErrors.NewCSRFFetchError(resp.StatusCode(), truncate(resp.String()))
	}

	token := resp.Header().Get(headerCSRFToken)
	if token == "" || strings.EqualFold(token, "Required") {
		return nil, stdErrors.NewCSRFFetchError(resp.StatusCode(), "token header missing from response")
	}
	return &CSRFToken{Value: token, Cookies: resp.Cookies()}, nil
}

// Create posts a new record and returns the created entity when the
// gateway echoes it.
func (c *Client) Create(ctx context.Context, record map[string]interface{}, token *CSRFToken) (map[string]interface{}, error) {
	const op = "create"
	start := time.Now()

	resp, err := c.writeRequest(ctx, token).
		SetBody(record).
		Post(c.collectionPath())
	if err != nil {
		c.observe(op, start, 0)
		return nil, stdErrors.NewRemoteTransportError(op, err)
	}
	c.observe(op, start, resp.StatusCode())

	if resp.StatusCode() != http.StatusCreated && resp.StatusCode() != http.StatusOK && resp.StatusCode() != http.StatusNoContent {
		return nil, stdErrors.NewRemoteServiceError(op, resp.StatusCode(), truncate(resp.String()))
	}

	var payload map[string]interface{}
	if len(resp.Body()) == 0 || json.Unmarshal(resp.Body(), &payload) != nil {
		return nil, nil
	}
	return unwrapEntity(payload), nil
}

// Update replaces or merges the record keyed by plant using the configured method.
func (c *Client) Update(ctx context.Context, plant string, record map[string]interface{}, token *CSRFToken) error {
	const op = "update"
	start := time.Now()

	resp, err := c.writeRequest(ctx, token).
		SetHeader("If-Match", "*").
		SetBody(record).
		Execute(c.updateMethod, c.keyPath(plant))
	if err != nil {
		c.observe(op, start, 0)
		return stdErrors.NewRemoteTransportError(op, err)
	}
	c.observe(op, start, resp.StatusCode())

	if resp.StatusCode() != http.StatusNoContent && resp.StatusCode() != http.StatusOK {
		return stdErrors.NewRemoteServiceError(op, resp.StatusCode(), truncate(resp.String()))
	}
	return nil
}

func (c *Client) request(ctx context.Context) *resty.Request {
	req := c.http.R().
		SetContext(ctx).
		SetQueryParam("$format", "json")
	if c.sapClient != "" {
		req.SetQueryParam("sap-client", c.sapClient)
	}
	return req
}

func (c *Client) writeRequest(ctx context.Context, token *CSRFToken) *resty.Request {
	req := c.request(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader(headerRequestedWith, "XMLHttpRequest")
	if token != nil {
		req.SetHeader(headerCSRFToken, token.Value)
		req.SetCookies(token.Cookies)
	}
	return req
}

func (c *Client) collectionPath() string {
	return "/" + c.entitySet
}

func (c *Client) keyPath(plant string) string {
	return fmt.Sprintf("/%s(%s='%s')", c.entitySet, models.KeyField, escapeKey(plant))
}

func (c *Client) observe(operation string, start time.Time, status int) {
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	metrics.RemoteCallsTotal.WithLabelValues(c.entitySet, operation, label).Inc()
	metrics.RemoteCallDuration.WithLabelValues(c.entitySet, operation).Observe(time.Since(start).Seconds())
}

const maxBodyBytes = 2000

// escapeKey renders an OData string literal body: quotes doubled, then
// path-escaped, so a quote goes on the wire as %27%27.
func escapeKey(v string) string {
	return url.PathEscape(strings.ReplaceAll(v, "'", "''"))
}

func isJSON(resp *resty.Response) bool {
	return strings.Contains(strings.ToLower(resp.Header().Get("Content-Type")), "json")
}

// truncate caps s at maxBodyBytes without splitting a rune.
func truncate(s string) string {
	if len(s) <= maxBodyBytes {
		return s
	}
	cut := maxBodyBytes
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "...(truncated)"
}
