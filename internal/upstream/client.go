// Package upstream forwards gateway requests to named backend services.
package upstream

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

var (
	// ErrUnknownService is returned when no upstream is registered under the name.
	ErrUnknownService = errors.New("unknown upstream service")
	// ErrUnavailable wraps transport failures talking to an upstream.
	ErrUnavailable = errors.New("upstream unavailable")
)

// ForwardedHeaders lists the request headers relayed to upstreams.
var ForwardedHeaders = []string{
	"Content-Type",
	"Accept",
	"Authorization",
	"X-Request-ID",
	"X-User-ID",
}

// Request is the part of an inbound request relayed to an upstream.
type Request struct {
	Method   string
	Path     string
	RawQuery string
	Header   map[string]string
	Body     []byte
}

// Response is what the upstream answered. The status is relayed unchanged;
// redirects are not followed, so Location is set for 3xx answers.
type Response struct {
	StatusCode  int
	ContentType string
	Location    string
	Body        []byte
}

// Forwarder relays requests to a named upstream.
type Forwarder interface {
	Forward(ctx context.Context, service string, req Request) (*Response, error)
	Services() []string
}

// Client holds one resty client per configured service.
type Client struct {
	clients map[string]*resty.Client
}

// New builds a Client from a name to base URL map.
func New(services map[string]string, timeout time.Duration) (*Client, error) {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	clients := make(map[string]*resty.Client, len(services))
	for name, base := range services {
		base = strings.TrimRight(strings.TrimSpace(base), "/")
		if name == "" || base == "" {
			return nil, fmt.Errorf("upstream %q: empty name or url", name)
		}
		cli := resty.New().
			SetBaseURL(base).
			SetTimeout(timeout).
			SetAllowGetMethodPayload(true).
			SetTransport(otelhttp.NewTransport(http.DefaultTransport))
		cli.GetClient().CheckRedirect = func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		}
		clients[name] = cli
	}
	return &Client{clients: clients}, nil
}

// Services returns the configured service names in sorted order.
func (c *Client) Services() []string {
	names := make([]string, 0, len(c.clients))
	for name := range c.clients {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (c *Client) Forward(ctx context.Context, service string, req Request) (*Response, error) {
	cli, ok := c.clients[service]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownService, service)
	}

	r := cli.R().SetContext(ctx)
	for k, v := range req.Header {
		if v != "" {
			r.SetHeader(k, v)
		}
	}
	if req.RawQuery != "" {
		r.SetQueryString(req.RawQuery)
	}
	if len(req.Body) > 0 {
		r.SetBody(req.Body)
	}

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}
	resp, err := r.Execute(method, "/"+strings.TrimLeft(req.Path, "/"))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUnavailable, service, err)
	}

	return &Response{
		StatusCode:  resp.StatusCode(),
		ContentType: resp.Header().Get("Content-Type"),
		Location:    resp.Header().Get("Location"),
		Body:        resp.Body(),
	}, nil
}
