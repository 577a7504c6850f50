package http

import (
	"net"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

// ClientOptions configures an outbound REST client.
type ClientOptions struct {
	BaseURL        string
	ConnectTimeout time.Duration
	Timeout        time.Duration
	Username       string
	Password       string
	Headers        map[string]string
	// Transport overrides the default transport, mainly for tests.
	Transport http.RoundTripper
}

// NewClient builds a resty client. Cookies are never shared between requests:
// callers thread any session cookies explicitly.
func NewClient(opts ClientOptions) *resty.Client {
	client := resty.New()
	client.SetCookieJar(nil)

	if opts.Transport != nil {
		client.SetTransport(opts.Transport)
	} else {
		client.SetTransport(newTransport(opts.ConnectTimeout))
	}
	if opts.BaseURL != "" {
		client.SetBaseURL(opts.BaseURL)
	}
	if opts.Timeout > 0 {
		client.SetTimeout(opts.Timeout)
	}
	if opts.Username != "" || opts.Password != "" {
		client.SetBasicAuth(opts.Username, opts.Password)
	}
	for k, v := range opts.Headers {
		client.SetHeader(k, v)
	}
	return client
}

func newTransport(connectTimeout time.Duration) *http.Transport {
	if connectTimeout <= 0 {
		connectTimeout = 10 * time.Second
	}
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   connectTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   connectTimeout,
		MaxIdleConns:          20,
		IdleConnTimeout:       90 * time.Second,
		ExpectContinueTimeout: time.Second,
	}
}
