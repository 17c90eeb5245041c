package connector

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/milkywaybrain/goccxt/internal/config"
)

// REST is for REST API connection.
type REST struct {
	HTTPClient *http.Client
	Cfg        *config.REST
}

// NewREST creates a new REST API connection with pooled transport.
func NewREST(cfg *config.REST) *REST {
	t := http.DefaultTransport.(*http.Transport).Clone()
	if cfg.MaxIdleConns > 0 {
		t.MaxIdleConns = cfg.MaxIdleConns
	}
	if cfg.MaxIdleConnsPerHost > 0 {
		t.MaxIdleConnsPerHost = cfg.MaxIdleConnsPerHost
	}
	client := http.Client{
		Transport: t,
	}
	if cfg.ReqTimeoutMs > 0 {
		client.Timeout = time.Duration(cfg.ReqTimeoutMs) * time.Millisecond
	}
	return &REST{
		HTTPClient: &client,
		Cfg:        cfg,
	}
}

// Request creates a new request bound to the context.
func (r *REST) Request(ctx context.Context, method string, url string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, err
	}
	return req, nil
}

// Do sends the request.
func (r *REST) Do(req *http.Request) (*http.Response, error) {
	resp, err := r.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	return resp, nil
}
