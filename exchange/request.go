package exchange

import (
	"bytes"
	"context"
	"io"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/milkywaybrain/goccxt/internal/metrics"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

var _ Exchange = (*Base)(nil)

// Fetch sends an HTTP request and returns the response body.
// Throttling, proxy, user agent and error mapping are applied here, so every
// failure is an exchange error except a canceled caller context.
func (b *Base) Fetch(ctx context.Context, method, url string, header http.Header, body []byte) ([]byte, error) {
	if b.limiter != nil {
		if err := b.limiter.Wait(ctx); err != nil {
			return nil, b.transportError(ctx, method, url, err)
		}
	}

	url = b.cfg.Proxy + url
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := b.rest.Request(ctx, method, url, reader)
	if err != nil {
		return nil, Errorf(ExchangeError, "%s %s %s: %v", b.desc.ID, method, url, err)
	}
	for k, vals := range header {
		for _, v := range vals {
			req.Header.Add(k, v)
		}
	}
	if b.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", b.cfg.UserAgent)
	}

	if b.cfg.Verbose {
		log.Info().Str("exchange", b.desc.ID).Str("method", method).Str("url", url).Bytes("body", body).Msg("request")
	}

	start := time.Now()
	resp, err := b.rest.Do(req)
	metrics.APIRequestDuration.WithLabelValues(b.desc.ID, method).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.APIRequestsTotal.WithLabelValues(b.desc.ID, method, "error").Inc()
		return nil, b.transportError(ctx, method, url, err)
	}
	defer resp.Body.Close()
	metrics.APIRequestsTotal.WithLabelValues(b.desc.ID, method, strconv.Itoa(resp.StatusCode)).Inc()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, b.transportError(ctx, method, url, err)
	}

	if b.cfg.Verbose {
		log.Info().Str("exchange", b.desc.ID).Int("status", resp.StatusCode).Str("url", url).Bytes("body", data).Msg("response")
	}

	if err = b.handleErrors(method, url, resp.StatusCode, resp.Header, data); err != nil {
		if kind, ok := KindOf(err); ok {
			metrics.APIErrorsTotal.WithLabelValues(b.desc.ID, kind.String()).Inc()
		}
		log.Debug().Str("exchange", b.desc.ID).Str("func", "Fetch").Int("status", resp.StatusCode).Err(err).Msg("")
		return nil, err
	}
	return data, nil
}

// transportError maps transport failures to RequestTimeout or NetworkError.
func (b *Base) transportError(ctx context.Context, method, url string, err error) error {
	if ctx.Err() == context.Canceled {
		return ctx.Err()
	}
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		metrics.APIErrorsTotal.WithLabelValues(b.desc.ID, RequestTimeout.String()).Inc()
		return Errorf(RequestTimeout, "%s %s %s request timed out (%d ms)", b.desc.ID, method, url, b.cfg.Timeout)
	}
	metrics.APIErrorsTotal.WithLabelValues(b.desc.ID, NetworkError.String()).Inc()
	return Errorf(NetworkError, "%s %s %s %v", b.desc.ID, method, url, err)
}

// handleErrors lets the exchange map its own error replies first, then falls back
// to the HTTP status.
func (b *Base) handleErrors(method, url string, status int, header http.Header, body []byte) error {
	if b.desc.HandleErrors != nil {
		if err := b.desc.HandleErrors(status, header, body); err != nil {
			return err
		}
	}
	if status < 400 {
		return nil
	}

	var kind Kind
	switch {
	case status == 418 || status == 429:
		kind = DDoSProtection
	case status == 504:
		kind = RequestTimeout
	case status == 500 || status == 502 || status == 503 || (status >= 520 && status <= 530):
		kind = ExchangeNotAvailable
	case status == 401:
		kind = AuthenticationError
	default:
		kind = ExchangeError
	}
	return Errorf(kind, "%s %s %s %d %s", b.desc.ID, method, url, status, truncateBody(body))
}

func truncateBody(body []byte) string {
	const max = 512
	if len(body) > max {
		return string(body[:max]) + "..."
	}
	return string(body)
}
