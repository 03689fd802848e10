package rkd

import (
	"errors"
	"fmt"
	"time"
)

// Sentinels for errors.Is checks against the typed errors below.
var (
	ErrTransport         = errors.New("rkd: transport failure")
	ErrAuthentication    = errors.New("rkd: authentication failed")
	ErrMalformedResponse = errors.New("rkd: malformed response")
	ErrTimeout           = errors.New("rkd: timeout")
	ErrFault             = errors.New("rkd: service fault")
)

// TransportError is a network or connection failure. It is never retried by this package.
type TransportError struct {
	Operation string
	Err       error
}

func NewTransportError(operation string, err error) *TransportError {
	return &TransportError{Operation: operation, Err: err}
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport failure for %s: %v", e.Operation, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

func (e *TransportError) Is(target error) bool {
	return target == ErrTransport
}

// FaultError is an application-level fault reported by the service.
type FaultError struct {
	Code   string
	Reason string
}

func (e *FaultError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("service fault: %s", e.Reason)
	}
	return fmt.Sprintf("service fault %s: %s", e.Code, e.Reason)
}

func (e *FaultError) Is(target error) bool {
	return target == ErrFault
}

// AuthenticationError means token acquisition was rejected or could not reach the service.
// Err is the *FaultError or *TransportError that caused it.
type AuthenticationError struct {
	Username string
	Err      error
}

func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("authentication failed for user %q: %v", e.Username, e.Err)
}

func (e *AuthenticationError) Unwrap() error {
	return e.Err
}

func (e *AuthenticationError) Is(target error) bool {
	return target == ErrAuthentication
}

// MalformedResponseError means the transport succeeded but the response does
// not have the expected shape.
type MalformedResponseError struct {
	Key    string
	Reason string
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed response at %q: %s", e.Key, e.Reason)
}

func (e *MalformedResponseError) Is(target error) bool {
	return target == ErrMalformedResponse
}

// TimeoutError means a blocking call exceeded its deadline.
type TimeoutError struct {
	Operation string
	Timeout   time.Duration
	Err       error
}

func (e *TimeoutError) Error() string {
	if e.Timeout > 0 {
		return fmt.Sprintf("%s timed out after %s: %v", e.Operation, e.Timeout, e.Err)
	}
	return fmt.Sprintf("%s timed out: %v", e.Operation, e.Err)
}

func (e *TimeoutError) Unwrap() error {
	return e.Err
}

func (e *TimeoutError) Is(target error) bool {
	return target == ErrTimeout
}
