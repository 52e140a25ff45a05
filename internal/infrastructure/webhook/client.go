package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"github.com/baechuer/eprocure-portal/internal/domain"
)

const (
	HeaderEvent     = "X-Portal-Event"
	HeaderSignature = "X-Portal-Signature"
	HeaderRequestID = "X-Request-ID"
)

var deliveriesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "portal",
		Name:      "webhook_deliveries_total",
		Help:      "Automation webhook deliveries by event type and result",
	},
	[]string{"event", "result"}, // ok, http_error, transport_error
)

// Client posts lifecycle events to an automation endpoint (n8n, Zapier, ...).
type Client struct {
	url    string
	secret string
	client *http.Client
	lg     zerolog.Logger
}

func NewClient(url, secret string, timeout time.Duration, lg zerolog.Logger) *Client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		url:    url,
		secret: secret,
		client: &http.Client{Timeout: timeout},
		lg:     lg.With().Str("component", "webhook").Logger(),
	}
}

// Publish delivers one event. Any non-2xx response is an error; callers
// decide whether to care.
func (c *Client) Publish(ctx context.Context, ev domain.LifecycleEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(HeaderEvent, string(ev.Type))
	if ev.RequestID != "" {
		req.Header.Set(HeaderRequestID, ev.RequestID)
	}
	if c.secret != "" {
		req.Header.Set(HeaderSignature, "sha256="+Sign(c.secret, body))
	}

	resp, err := c.client.Do(req)
	if err != nil {
		deliveriesTotal.WithLabelValues(string(ev.Type), "transport_error").Inc()
		return fmt.Errorf("webhook request: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		deliveriesTotal.WithLabelValues(string(ev.Type), "http_error").Inc()
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	deliveriesTotal.WithLabelValues(string(ev.Type), "ok").Inc()
	c.lg.Debug().
		Str("event", string(ev.Type)).
		Str("message_id", ev.ID).
		Int("status", resp.StatusCode).
		Msg("webhook delivered")
	return nil
}

// Sign returns the hex HMAC-SHA256 of body keyed by secret.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}
