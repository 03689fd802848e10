package rkd

import (
	"context"
	"time"
)

// Credentials authenticate the client. They are never modified after NewSession.
type Credentials struct {
	Username      string
	Password      string
	ApplicationID string
}

// Token is a service token and the moment it stops being valid.
type Token struct {
	Value     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the token is stale at now.
func (t *Token) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

// TokenStore receives every token the session acquires.
type TokenStore interface {
	Publish(ctx context.Context, tok *Token) error
}

// State is the session's authentication state.
type State int

const (
	Unauthenticated State = iota
	Authenticated
	Expired
)

func (s State) String() string {
	switch s {
	case Authenticated:
		return "authenticated"
	case Expired:
		return "expired"
	default:
		return "unauthenticated"
	}
}
