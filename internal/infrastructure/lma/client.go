// Package lma is the HTTP client of the LMA compliance gateway.
package lma

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Colossus92/eazy-recycling-sub004/internal/domain/declaration"
	"github.com/Colossus92/eazy-recycling-sub004/pkg/logger"
)

// ErrCircuitOpen is returned while the gateway is considered down.
var ErrCircuitOpen = errors.New("lma gateway unavailable: circuit breaker open")

// Config holds gateway client settings.
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration

	// FailureThreshold consecutive failures open the breaker for OpenTimeout.
	FailureThreshold uint32
	OpenTimeout      time.Duration
}

func (c *Config) applyDefaults() {
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	if c.FailureThreshold == 0 {
		c.FailureThreshold = 5
	}
	if c.OpenTimeout <= 0 {
		c.OpenTimeout = time.Minute
	}
}

// Client implements declaration.Gateway over HTTP. Rejections (422) are
// answers, not failures: they never trip the breaker.
type Client struct {
	cfg        Config
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	tracer     trace.Tracer
}

var _ declaration.Gateway = (*Client)(nil)

// NewClient creates a gateway client.
func NewClient(cfg Config) *Client {
	cfg.applyDefaults()
	threshold := cfg.FailureThreshold

	settings := gobreaker.Settings{
		Name:        declaration.GatewayName,
		MaxRequests: 1,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn(context.Background(), "circuit breaker state changed",
				"name", name, "from", from.String(), "to", to.String())
		},
	}

	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		breaker:    gobreaker.NewCircuitBreaker(settings),
		tracer:     otel.Tracer("eazy-recycling/lma"),
	}
}

// State returns the breaker state for health reporting.
func (c *Client) State() gobreaker.State {
	return c.breaker.State()
}

// Submit posts msg to /declarations.
func (c *Client) Submit(ctx context.Context, msg declaration.Message) (declaration.Acknowledgement, error) {
	ctx, span := c.tracer.Start(ctx, "lma.Submit",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("lma.declaration_id", msg.DeclarationID),
			attribute.String("lma.kind", string(msg.Kind)),
		))
	defer span.End()

	res, err := c.breaker.Execute(func() (interface{}, error) {
		return c.post(ctx, msg)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		err = ErrCircuitOpen
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return declaration.Acknowledgement{}, err
	}

	ack := res.(declaration.Acknowledgement)
	span.SetAttributes(attribute.Bool("lma.accepted", ack.Accepted))
	return ack, nil
}

func (c *Client) post(ctx context.Context, msg declaration.Message) (declaration.Acknowledgement, error) {
	body, err := json.Marshal(msg)
	if err != nil {
		return declaration.Acknowledgement{}, fmt.Errorf("encode declaration: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/declarations", bytes.NewReader(body))
	if err != nil {
		return declaration.Acknowledgement{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return declaration.Acknowledgement{}, fmt.Errorf("send declaration: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		var ack declaration.Acknowledgement
		if err := json.NewDecoder(resp.Body).Decode(&ack); err != nil {
			return declaration.Acknowledgement{}, fmt.Errorf("decode acknowledgement: %w", err)
		}
		return ack, nil
	case resp.StatusCode == http.StatusUnprocessableEntity:
		var ack declaration.Acknowledgement
		if err := json.NewDecoder(resp.Body).Decode(&ack); err != nil {
			return declaration.Acknowledgement{}, fmt.Errorf("decode rejection: %w", err)
		}
		ack.Accepted = false
		return ack, nil
	default:
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return declaration.Acknowledgement{}, fmt.Errorf("gateway returned status %d: %s",
			resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
}
