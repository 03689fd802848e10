package soap

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"rkd-client/pkg/logger"
	"rkd-client/pkg/metrics"
	"rkd-client/pkg/rkd"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

const contentType = "application/soap+xml; charset=utf-8"

// Transport posts SOAP 1.2 envelopes over HTTP. It implements rkd.Transport.
type Transport struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	messageID  func() string
}

// Option configures a Transport.
type Option func(*Transport)

// WithRateLimit throttles outgoing requests to r per second with the given burst.
func WithRateLimit(r rate.Limit, burst int) Option {
	return func(t *Transport) {
		t.limiter = rate.NewLimiter(r, burst)
	}
}

// WithMessageID replaces the generator for adr:MessageID values.
func WithMessageID(fn func() string) Option {
	return func(t *Transport) {
		t.messageID = fn
	}
}

// NewTransport creates a Transport. A nil client gets a 30 second timeout.
func NewTransport(client *http.Client, opts ...Option) *Transport {
	if client == nil {
		client = &http.Client{
			Timeout: 30 * time.Second,
		}
	}
	t := &Transport{
		httpClient: client,
		messageID: func() string {
			return "urn:uuid:" + uuid.NewString()
		},
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Send encodes req, posts it to req.Endpoint and decodes the response body.
func (t *Transport) Send(ctx context.Context, req *rkd.RequestDescriptor) (rkd.Fields, error) {
	op := req.Operation.Action()
	start := time.Now()
	fields, err := t.send(ctx, req)
	metrics.SOAPRequestDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	metrics.SOAPRequestsTotal.WithLabelValues(op, outcome(err)).Inc()
	return fields, err
}

func (t *Transport) send(ctx context.Context, req *rkd.RequestDescriptor) (rkd.Fields, error) {
	op := req.Operation.Action()

	if t.limiter != nil {
		if err := t.limiter.Wait(ctx); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, rkd.NewTransportError(op, fmt.Errorf("rate limiter: %w", ctxErr))
			}
			// the wait would outlast the deadline
			return nil, &rkd.TimeoutError{Operation: op, Err: fmt.Errorf("rate limiter: %w", err)}
		}
	}

	payload, err := Encode(req, t.messageID())
	if err != nil {
		logger.GlobalLogger.Errorf("Failed to encode SOAP request: action=%s, error=%v", req.Action, err)
		return nil, fmt.Errorf("failed to encode %s request: %w", op, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, req.Endpoint, bytes.NewReader(payload))
	if err != nil {
		logger.GlobalLogger.Errorf("Failed to create SOAP request: url=%s, error=%v", req.Endpoint, err)
		return nil, rkd.NewTransportError(op, err)
	}
	httpReq.Header.Set("Content-Type", fmt.Sprintf("%s; action=%q", contentType, req.Action))

	logger.GlobalLogger.Debugf("Sending SOAP request: url=%s, action=%s", req.Endpoint, req.Action)
	resp, err := t.httpClient.Do(httpReq)
	if err != nil {
		logger.GlobalLogger.Errorf("Failed to send SOAP request: url=%s, action=%s, error=%v", req.Endpoint, req.Action, err)
		return nil, rkd.NewTransportError(op, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		logger.GlobalLogger.Errorf("Failed to read SOAP response body: url=%s, status=%s, error=%v", req.Endpoint, resp.Status, err)
		return nil, rkd.NewTransportError(op, err)
	}

	fields, err := Decode(body)
	if err != nil {
		var fault *rkd.FaultError
		if errors.As(err, &fault) {
			logger.GlobalLogger.Errorf("SOAP fault: action=%s, status=%s, code=%s, reason=%s", req.Action, resp.Status, fault.Code, fault.Reason)
			return nil, fault
		}
		if resp.StatusCode != http.StatusOK {
			logger.GlobalLogger.Errorf("SOAP request failed: url=%s, status=%s, response=%s", req.Endpoint, resp.Status, string(body))
			return nil, rkd.NewTransportError(op, fmt.Errorf("unexpected status %s", resp.Status))
		}
		logger.GlobalLogger.Errorf("Failed to decode SOAP response: url=%s, error=%v", req.Endpoint, err)
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		logger.GlobalLogger.Errorf("SOAP request failed: url=%s, status=%s", req.Endpoint, resp.Status)
		return nil, rkd.NewTransportError(op, fmt.Errorf("unexpected status %s", resp.Status))
	}
	return fields, nil
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, rkd.ErrFault):
		return "fault"
	case errors.Is(err, rkd.ErrMalformedResponse):
		return "malformed"
	case errors.Is(err, rkd.ErrTimeout):
		return "timeout"
	default:
		return "transport"
	}
}
