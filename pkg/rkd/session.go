package rkd

import (
	"context"
	"errors"
	"sync"
	"time"

	"rkd-client/pkg/logger"
	"rkd-client/pkg/metrics"

	"golang.org/x/sync/singleflight"
)

// DefaultTimeout bounds a token request when the caller's context has no deadline.
const DefaultTimeout = 30 * time.Second

const (
	fieldToken      = "token"
	fieldExpiration = "expiration"
	refreshKey      = "create_service_token"
)

// Session owns the credentials and the current service token.
//
// Any number of goroutines may read the token concurrently. Refreshes are
// collapsed: callers that find the token stale while a refresh is in flight
// wait for that refresh and share its result or error.
type Session struct {
	creds     Credentials
	builder   *Builder
	transport Transport
	store     TokenStore
	now       func() time.Time
	timeout   time.Duration

	mu    sync.RWMutex
	token *Token

	group singleflight.Group
}

// Option configures a Session.
type Option func(*Session)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		s.now = now
	}
}

// WithTimeout sets the deadline applied to token requests made under a
// context without one. Zero disables it.
func WithTimeout(d time.Duration) Option {
	return func(s *Session) {
		s.timeout = d
	}
}

// WithStore publishes every acquired token to store.
func WithStore(store TokenStore) Option {
	return func(s *Session) {
		s.store = store
	}
}

// NewSession authenticates with creds and returns a Session holding the
// resulting token. Construction fails with *AuthenticationError,
// *MalformedResponseError or *TimeoutError; no Session is returned then.
func NewSession(ctx context.Context, creds Credentials, builder *Builder, transport Transport, opts ...Option) (*Session, error) {
	s := &Session{
		creds:     creds,
		builder:   builder,
		transport: transport,
		now:       time.Now,
		timeout:   DefaultTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}

	if _, err := s.refresh(ctx, nil); err != nil {
		return nil, err
	}
	return s, nil
}

// Credentials returns the credentials the session authenticates with.
func (s *Session) Credentials() Credentials {
	return s.creds
}

// Current returns a copy of the current token, or nil before the first
// successful authentication. The value and expiry always come from the same call.
func (s *Session) Current() *Token {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.token == nil {
		return nil
	}
	tok := *s.token
	return &tok
}

// Token returns the current token value, or "" when there is none.
func (s *Session) Token() string {
	if tok := s.Current(); tok != nil {
		return tok.Value
	}
	return ""
}

// ExpiresAt returns the current token's expiry, or the zero time when there is none.
func (s *Session) ExpiresAt() time.Time {
	if tok := s.Current(); tok != nil {
		return tok.ExpiresAt
	}
	return time.Time{}
}

// State derives the session state at the session clock's current time.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	switch {
	case s.token == nil:
		return Unauthenticated
	case s.token.Expired(s.now()):
		return Expired
	default:
		return Authenticated
	}
}

// Valid returns a token that has not expired, refreshing first if needed.
func (s *Session) Valid(ctx context.Context) (*Token, error) {
	s.mu.RLock()
	seen := s.token
	valid := seen != nil && !seen.Expired(s.now())
	s.mu.RUnlock()

	if valid {
		tok := *seen
		return &tok, nil
	}
	return s.refresh(ctx, seen)
}

// Refresh acquires a new token even if the current one is still valid.
// Callers racing with an in-flight refresh share its result.
func (s *Session) Refresh(ctx context.Context) (*Token, error) {
	s.mu.RLock()
	seen := s.token
	s.mu.RUnlock()
	return s.refresh(ctx, seen)
}

// refresh replaces seen with a freshly acquired token. If another refresh
// already replaced seen, its token is returned without a remote call.
func (s *Session) refresh(ctx context.Context, seen *Token) (*Token, error) {
	ch := s.group.DoChan(refreshKey, func() (interface{}, error) {
		s.mu.RLock()
		cur := s.token
		s.mu.RUnlock()
		if cur != seen && cur != nil {
			return cur, nil
		}
		return s.authenticate(ctx)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		tok := *res.Val.(*Token)
		return &tok, nil
	case <-ctx.Done():
		return nil, s.classify(ctx, ctx.Err(), 0)
	}
}

// authenticate performs one CreateServiceToken call and installs the result.
// The call is shared by every waiter, so it survives the cancellation of the
// caller that started it and is bounded only by that caller's deadline or
// the session timeout.
func (s *Session) authenticate(ctx context.Context) (*Token, error) {
	ctx, cancel, timeout := s.flightContext(ctx)
	defer cancel()

	req, err := s.builder.Build(CreateServiceToken, TokenManagement, nil, Fields{
		PrefixCommon + ":ApplicationID": s.creds.ApplicationID,
		PrefixOperation + ":Username":   s.creds.Username,
		PrefixOperation + ":Password":   s.creds.Password,
	})
	if err != nil {
		return nil, err
	}

	start := time.Now()
	raw, err := s.transport.Send(ctx, req)
	metrics.TokenRefreshDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		if !errors.Is(ctx.Err(), context.DeadlineExceeded) {
			// an earlier deadline, such as http.Client.Timeout, fired first
			timeout = 0
		}
		err = s.classify(ctx, err, timeout)
		metrics.TokenRefreshTotal.WithLabelValues(outcome(err)).Inc()
		logger.GlobalLogger.Errorf("Failed to acquire service token: username=%s, action=%s, error=%v", s.creds.Username, req.Action, err)
		return nil, err
	}

	tok, err := s.extract(raw)
	if err != nil {
		metrics.TokenRefreshTotal.WithLabelValues(outcome(err)).Inc()
		logger.GlobalLogger.Errorf("Unexpected token response shape: username=%s, error=%v", s.creds.Username, err)
		return nil, err
	}

	s.mu.Lock()
	s.token = tok
	s.mu.Unlock()

	metrics.TokenRefreshTotal.WithLabelValues("success").Inc()
	logger.GlobalLogger.Printf("Successfully retrieved service token: username=%s, expires_at=%s", s.creds.Username, tok.ExpiresAt.Format(time.RFC3339))

	if s.store != nil {
		published := *tok
		if err := s.store.Publish(ctx, &published); err != nil {
			logger.GlobalLogger.Errorf("Failed to publish service token: username=%s, error=%v", s.creds.Username, err)
		}
	}
	return tok, nil
}

// flightContext detaches ctx from its cancellation and re-applies its
// deadline, or the session timeout when it has none. The returned duration
// is the session timeout when that is the bound in force.
func (s *Session) flightContext(ctx context.Context) (context.Context, context.CancelFunc, time.Duration) {
	detached := context.WithoutCancel(ctx)
	if deadline, ok := ctx.Deadline(); ok {
		c, cancel := context.WithDeadline(detached, deadline)
		return c, cancel, 0
	}
	if s.timeout > 0 {
		c, cancel := context.WithTimeout(detached, s.timeout)
		return c, cancel, s.timeout
	}
	c, cancel := context.WithCancel(detached)
	return c, cancel, 0
}

func (s *Session) extract(raw Fields) (*Token, error) {
	resp, err := s.builder.Parse(raw, CreateServiceToken.ResultKey())
	if err != nil {
		return nil, err
	}
	value, err := resp.String(fieldToken)
	if err != nil {
		return nil, err
	}
	if value == "" {
		return nil, &MalformedResponseError{Key: fieldToken, Reason: "empty token"}
	}
	expiresAt, err := resp.Time(fieldExpiration)
	if err != nil {
		return nil, err
	}
	return &Token{Value: value, ExpiresAt: expiresAt}, nil
}

// classify maps a failed token request onto the error taxonomy.
func (s *Session) classify(ctx context.Context, err error, timeout time.Duration) error {
	op := CreateServiceToken.Action()

	var (
		fault     *FaultError
		malformed *MalformedResponseError
		timedOut  *TimeoutError
		transport *TransportError
	)
	var netErr interface{ Timeout() bool }
	switch {
	case errors.As(err, &timedOut):
		return timedOut
	case errors.Is(err, context.Canceled):
		return context.Canceled
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded),
		errors.As(err, &netErr) && netErr.Timeout():
		return &TimeoutError{Operation: op, Timeout: timeout, Err: err}
	case errors.As(err, &malformed):
		return malformed
	case errors.As(err, &fault):
		return &AuthenticationError{Username: s.creds.Username, Err: fault}
	case errors.As(err, &transport):
		return &AuthenticationError{Username: s.creds.Username, Err: transport}
	default:
		return &AuthenticationError{Username: s.creds.Username, Err: NewTransportError(op, err)}
	}
}

func outcome(err error) string {
	switch {
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.Is(err, ErrMalformedResponse):
		return "malformed"
	case errors.Is(err, ErrFault):
		return "fault"
	default:
		return "transport"
	}
}
