package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"rkd-client/internal/handlers"
	"rkd-client/internal/middleware"
	"rkd-client/pkg/cache"
	"rkd-client/pkg/config"
	"rkd-client/pkg/logger"
	"rkd-client/pkg/metrics"
	"rkd-client/pkg/rkd"
	"rkd-client/pkg/soap"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"golang.org/x/time/rate"
)

// App represents the application structure
type App struct {
	Config         *config.Config
	Router         *gin.Engine
	Session        *rkd.Session
	SessionHandler *handlers.SessionHandler
	RateLimiter    *middleware.RateLimiter
	Server         *http.Server

	transport rkd.Transport
	redis     *redis.Client
	stop      context.CancelFunc
}

// Create and initialize a new App instance. The session authenticates
// before the router is built, so a gateway with bad credentials never starts.
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	app := &App{Config: cfg}

	// Initialize infrastructure
	app.initializeMetrics()
	if err := app.initializeCache(ctx); err != nil {
		return nil, err
	}
	app.initializeTransport()
	app.initializeRateLimiter()

	// Initialize the RKD session
	if err := app.initializeSession(ctx); err != nil {
		app.cleanup()
		return nil, err
	}

	// Initialize web layer
	app.initializeRouter()

	return app, nil
}

// initialize Prometheus metrics
func (a *App) initializeMetrics() {
	metrics.Init()
}

// connect to Redis when a shared token store is configured
func (a *App) initializeCache(ctx context.Context) error {
	if !a.Config.Redis.Enabled {
		logger.GlobalLogger.Println("Redis disabled, service token will not be shared")
		return nil
	}
	client, err := cache.NewRedisClient(ctx, a.Config.RedisConfig())
	if err != nil {
		return fmt.Errorf("failed to initialize Redis: %w", err)
	}
	a.redis = client
	return nil
}

// initialize the outbound SOAP transport
func (a *App) initializeTransport() {
	var opts []soap.Option
	if rps := a.Config.Service.RequestsPerSecond; rps > 0 {
		opts = append(opts, soap.WithRateLimit(rate.Limit(rps), a.Config.Service.Burst))
	}
	a.transport = soap.NewTransport(&http.Client{Timeout: a.Config.Service.Timeout}, opts...)
}

// initialize the inbound per-IP rate limiter
func (a *App) initializeRateLimiter() {
	a.RateLimiter = middleware.NewRateLimiter(rate.Limit(100/60.0), 10)

	ctx, cancel := context.WithCancel(context.Background())
	a.stop = cancel
	go a.RateLimiter.Cleanup(ctx, time.Minute, 3*time.Minute)
}

// authenticate against RKD
func (a *App) initializeSession(ctx context.Context) error {
	opts := []rkd.Option{rkd.WithTimeout(a.Config.Service.Timeout)}
	if a.redis != nil {
		opts = append(opts, rkd.WithStore(cache.NewTokenStore(a.redis, a.Config.RKDCredentials())))
	}

	session, err := rkd.NewSession(ctx, a.Config.RKDCredentials(), rkd.NewBuilder(a.Config.Endpoints()), a.transport, opts...)
	if err != nil {
		return fmt.Errorf("failed to authenticate with RKD: %w", err)
	}
	a.Session = session
	a.SessionHandler = handlers.NewSessionHandler(session, a.Config.Service.Timeout)
	return nil
}

// set up the Gin router with middleware and routes
func (a *App) initializeRouter() {
	a.Router = gin.New()
	a.setupMiddleware()
	a.setupRoutes()
}

// cleanup operations
func (a *App) cleanup() {
	if a.stop != nil {
		a.stop()
	}
	if a.redis != nil {
		cache.CloseRedis(a.redis)
	}
}
