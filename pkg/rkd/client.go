package rkd

import (
	"context"
	"errors"
	"fmt"

	"rkd-client/pkg/logger"
)

// Client issues authenticated operations. Domain modules hold a Client
// rather than reimplementing addressing and token handling.
type Client struct {
	session   *Session
	builder   *Builder
	transport Transport
}

// NewClient composes a session, builder and transport.
func NewClient(session *Session, builder *Builder, transport Transport) *Client {
	return &Client{
		session:   session,
		builder:   builder,
		transport: transport,
	}
}

// Session returns the session backing the client.
func (c *Client) Session() *Session {
	return c.session
}

// Builder returns the builder backing the client.
func (c *Client) Builder() *Builder {
	return c.builder
}

// Call sends op with a valid service token attached to the header and
// returns the operation's result node.
func (c *Client) Call(ctx context.Context, op Operation, capability Capability, header, body Fields) (Response, error) {
	tok, err := c.session.Valid(ctx)
	if err != nil {
		return nil, err
	}

	h := header.Clone()
	h[PrefixCommon+":Authorization"] = Fields{
		PrefixCommon + ":ApplicationID": c.session.Credentials().ApplicationID,
		PrefixCommon + ":Token":         tok.Value,
	}

	req, err := c.builder.Build(op, capability, h, body)
	if err != nil {
		return nil, err
	}

	raw, err := c.transport.Send(ctx, req)
	if err != nil {
		logger.GlobalLogger.Errorf("Request failed: action=%s, error=%v", req.Action, err)
		var fault *FaultError
		switch {
		case errors.As(err, &fault), errors.Is(err, ErrTransport), errors.Is(err, ErrTimeout):
			return nil, err
		case errors.Is(err, context.DeadlineExceeded):
			return nil, &TimeoutError{Operation: op.Action(), Err: err}
		default:
			return nil, NewTransportError(op.Action(), err)
		}
	}

	resp, err := c.builder.Parse(raw, op.ResultKey())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op.Action(), err)
	}
	return resp, nil
}
