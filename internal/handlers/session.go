package handlers

import (
	"context"
	"net/http"
	"time"

	"rkd-client/pkg/logger"
	"rkd-client/pkg/rkd"

	"github.com/gin-gonic/gin"
)

// TokenSource is the part of *rkd.Session the handlers use.
type TokenSource interface {
	Current() *rkd.Token
	State() rkd.State
	Valid(ctx context.Context) (*rkd.Token, error)
	Refresh(ctx context.Context) (*rkd.Token, error)
}

type SessionHandler struct {
	session TokenSource
	timeout time.Duration
}

// NewSessionHandler serves session state; timeout bounds token refreshes made on behalf of a request.
func NewSessionHandler(session TokenSource, timeout time.Duration) *SessionHandler {
	return &SessionHandler{session: session, timeout: timeout}
}

type sessionResponse struct {
	State     string     `json:"state"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

type tokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Health reports 200 while the session holds a token, even an expired one,
// since the next request refreshes it.
func (h *SessionHandler) Health(c *gin.Context) {
	state := h.session.State()
	if state == rkd.Unauthenticated {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "error", "session": state.String()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "session": state.String()})
}

// GetSession reports the session state without revealing the token.
func (h *SessionHandler) GetSession(c *gin.Context) {
	resp := sessionResponse{State: h.session.State().String()}
	if tok := h.session.Current(); tok != nil {
		expiresAt := tok.ExpiresAt
		resp.ExpiresAt = &expiresAt
	}
	c.JSON(http.StatusOK, resp)
}

// GetToken returns a valid service token, refreshing it first if it expired.
func (h *SessionHandler) GetToken(c *gin.Context) {
	ctx, cancel := h.context(c)
	defer cancel()

	tok, err := h.session.Valid(ctx)
	if err != nil {
		_ = c.Error(err)
		return
	}
	logger.GlobalLogger.Debugf("service token handed out: subject=%s", c.GetString("subject"))
	c.JSON(http.StatusOK, tokenResponse{Token: tok.Value, ExpiresAt: tok.ExpiresAt})
}

// RefreshToken forces a new service token.
func (h *SessionHandler) RefreshToken(c *gin.Context) {
	ctx, cancel := h.context(c)
	defer cancel()

	tok, err := h.session.Refresh(ctx)
	if err != nil {
		_ = c.Error(err)
		return
	}
	logger.GlobalLogger.Printf("service token refreshed on request: subject=%s, expires_at=%s", c.GetString("subject"), tok.ExpiresAt.Format(time.RFC3339))
	c.JSON(http.StatusOK, tokenResponse{Token: tok.Value, ExpiresAt: tok.ExpiresAt})
}

func (h *SessionHandler) context(c *gin.Context) (context.Context, context.CancelFunc) {
	if h.timeout > 0 {
		return context.WithTimeout(c.Request.Context(), h.timeout)
	}
	return context.WithCancel(c.Request.Context())
}
