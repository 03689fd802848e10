package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"rkd-client/internal/middleware"
	"rkd-client/pkg/rkd"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSource struct {
	token *rkd.Token
	state rkd.State
	err   error
}

func (s *stubSource) Current() *rkd.Token { return s.token }
func (s *stubSource) State() rkd.State    { return s.state }
func (s *stubSource) Valid(ctx context.Context) (*rkd.Token, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.token, nil
}
func (s *stubSource) Refresh(ctx context.Context) (*rkd.Token, error) {
	return s.Valid(ctx)
}

func newRouter(source TokenSource) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewSessionHandler(source, time.Second)
	r := gin.New()
	r.Use(middleware.ErrorHandler())
	r.GET("/health", h.Health)
	r.GET("/api/session", h.GetSession)
	r.GET("/api/token", h.GetToken)
	r.POST("/api/token/refresh", h.RefreshToken)
	return r
}

func do(r http.Handler, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, nil)
	r.ServeHTTP(w, req)
	return w
}

func TestGetTokenWithRealSession(t *testing.T) {
	var calls int32
	transport := rkd.TransportFunc(func(ctx context.Context, req *rkd.RequestDescriptor) (rkd.Fields, error) {
		n := atomic.AddInt32(&calls, 1)
		value := "abc123"
		if n > 1 {
			value = "def456"
		}
		return rkd.Fields{"create_service_token_response_1": rkd.Fields{
			"token":      value,
			"expiration": time.Now().Add(time.Hour).Unix(),
		}}, nil
	})
	creds := rkd.Credentials{Username: "bob", Password: "hello", ApplicationID: "1234"}
	session, err := rkd.NewSession(context.Background(), creds, rkd.NewBuilder(rkd.Endpoints{WSDL: "https://rkd.test", Namespaces: "http://ns.test"}), transport)
	require.NoError(t, err)

	r := newRouter(session)

	w := do(r, http.MethodGet, "/api/token")
	require.Equal(t, http.StatusOK, w.Code)
	var body tokenResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "abc123", body.Token)

	w = do(r, http.MethodPost, "/api/token/refresh")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "def456", body.Token)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestGetSessionHidesToken(t *testing.T) {
	expires := time.Unix(1700000000, 0).UTC()
	r := newRouter(&stubSource{token: &rkd.Token{Value: "secret-token", ExpiresAt: expires}, state: rkd.Expired})

	w := do(r, http.MethodGet, "/api/session")
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "secret-token")
	assert.Contains(t, w.Body.String(), `"state":"expired"`)
	assert.Contains(t, w.Body.String(), `"expires_at":"2023-11-14T22:13:20Z"`)
}

func TestGetTokenMapsErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"timeout", &rkd.TimeoutError{Operation: "CreateServiceToken_1", Err: context.DeadlineExceeded}, http.StatusGatewayTimeout, "SERVICE_TIMEOUT"},
		{"rejected", &rkd.AuthenticationError{Username: "bob", Err: &rkd.FaultError{Reason: "bad password"}}, http.StatusBadGateway, "AUTHENTICATION_FAILED"},
		{"unreachable", &rkd.AuthenticationError{Username: "bob", Err: rkd.NewTransportError("CreateServiceToken_1", errors.New("refused"))}, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newRouter(&stubSource{state: rkd.Expired, err: tt.err})

			w := do(r, http.MethodGet, "/api/token")
			assert.Equal(t, tt.status, w.Code)
			assert.Contains(t, w.Body.String(), tt.code)
		})
	}
}

func TestHealth(t *testing.T) {
	w := do(newRouter(&stubSource{state: rkd.Unauthenticated}), http.MethodGet, "/health")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = do(newRouter(&stubSource{state: rkd.Expired, token: &rkd.Token{}}), http.MethodGet, "/health")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"session":"expired"`)
}
