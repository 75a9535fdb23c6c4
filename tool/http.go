package tool

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// HTTPOption configures the HTTP request tool.
type HTTPOption func(*httpConfig)

type httpConfig struct {
	client          *http.Client
	allowedHosts    []string
	maxResponseSize int64
}

// WithHTTPClient sets the client used for requests.
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(cfg *httpConfig) {
		cfg.client = c
	}
}

// WithAllowedHosts restricts requests to the given hosts and their subdomains.
func WithAllowedHosts(hosts ...string) HTTPOption {
	return func(cfg *httpConfig) {
		cfg.allowedHosts = hosts
	}
}

// WithMaxResponseSize caps the response body returned to the model. Default 256KB.
func WithMaxResponseSize(n int64) HTTPOption {
	return func(cfg *httpConfig) {
		cfg.maxResponseSize = n
	}
}

func (c *httpConfig) checkHost(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if len(c.allowedHosts) == 0 {
		return nil
	}
	host := u.Hostname()
	for _, a := range c.allowedHosts {
		if host == a || strings.HasSuffix(host, "."+a) {
			return nil
		}
	}
	return fmt.Errorf("host %q is not in allowed list", host)
}

// HTTPArgs are the arguments of the http_get tool.
type HTTPArgs struct {
	URL     string            `json:"url" jsonschema:"description=URL to fetch"`
	Headers map[string]string `json:"headers,omitempty" jsonschema:"description=Request headers"`
}

// HTTPResult is what the http_get tool returns to the model.
type HTTPResult struct {
	StatusCode  int    `json:"status_code"`
	ContentType string `json:"content_type,omitempty"`
	Body        string `json:"body"`
	Truncated   bool   `json:"truncated,omitempty"`
}

// HTTPGet returns a tool that fetches a URL and returns its body.
func HTTPGet(opts ...HTTPOption) Tool {
	cfg := &httpConfig{maxResponseSize: 256 * 1024}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.client == nil {
		cfg.client = &http.Client{Timeout: 20 * time.Second}
	}

	return Func("http_get", "Fetch a URL over HTTP GET and return the response body",
		func(ctx context.Context, args HTTPArgs) (HTTPResult, error) {
			if err := cfg.checkHost(args.URL); err != nil {
				return HTTPResult{}, err
			}
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, args.URL, nil)
			if err != nil {
				return HTTPResult{}, err
			}
			for k, v := range args.Headers {
				req.Header.Set(k, v)
			}
			resp, err := cfg.client.Do(req)
			if err != nil {
				return HTTPResult{}, err
			}
			defer resp.Body.Close()

			body, err := io.ReadAll(io.LimitReader(resp.Body, cfg.maxResponseSize+1))
			if err != nil {
				return HTTPResult{}, err
			}
			res := HTTPResult{
				StatusCode:  resp.StatusCode,
				ContentType: resp.Header.Get("Content-Type"),
			}
			if int64(len(body)) > cfg.maxResponseSize {
				body = body[:cfg.maxResponseSize]
				res.Truncated = true
			}
			res.Body = string(body)
			return res, nil
		})
}
