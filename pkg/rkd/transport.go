package rkd

import "context"

// Transport sends a RequestDescriptor over the service's wire protocol and
// returns the decoded response body keyed by snake_case element name.
//
// Application-level faults are returned as *FaultError. Anything else that
// prevents a response is a transport failure.
type Transport interface {
	Send(ctx context.Context, req *RequestDescriptor) (Fields, error)
}

// TransportFunc adapts a function to Transport.
type TransportFunc func(ctx context.Context, req *RequestDescriptor) (Fields, error)

func (f TransportFunc) Send(ctx context.Context, req *RequestDescriptor) (Fields, error) {
	return f(ctx, req)
}
