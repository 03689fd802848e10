package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"rkd-client/internal/auth"
	"rkd-client/pkg/cache"
	"rkd-client/pkg/config"
	"rkd-client/pkg/logger"
	"rkd-client/pkg/rkd"
	"rkd-client/pkg/soap"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
)

// App returns the rkdctl command tree.
func App() *cli.App {
	return &cli.App{
		Name:  "rkdctl",
		Usage: "Reuters Knowledge Direct token tool",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Value:   "configs/config.yaml",
				Usage:   "Config file path",
				EnvVars: []string{"CONFIG_PATH"},
			},
			&cli.StringFlag{
				Name:  "log-level",
				Value: "ERROR",
				Usage: "Log level (DEBUG, INFO, ERROR)",
			},
		},
		Before: func(c *cli.Context) error {
			_ = godotenv.Load()
			logger.InitLogger(os.Stderr, c.String("log-level"))
			return nil
		},
		Commands: []*cli.Command{
			TokenCommand(),
			SharedCommand(),
			JWTCommand(),
		},
	}
}

// TokenCommand authenticates once and prints the service token.
func TokenCommand() *cli.Command {
	return &cli.Command{
		Name:  "token",
		Usage: "Create a service token with the configured credentials",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "publish",
				Usage: "Publish the token to Redis",
			},
		},
		Action: tokenCreate,
	}
}

// SharedCommand prints the token published in Redis.
func SharedCommand() *cli.Command {
	return &cli.Command{
		Name:  "shared",
		Usage: "Show the service token shared through Redis",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "clear",
				Usage: "Remove the shared token so consumers stop using it",
			},
		},
		Action: sharedShow,
	}
}

// JWTCommand mints a gateway access token.
func JWTCommand() *cli.Command {
	return &cli.Command{
		Name:  "jwt",
		Usage: "Issue a gateway access token",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "subject",
				Aliases:  []string{"s"},
				Usage:    "Caller name",
				Required: true,
			},
			&cli.DurationFlag{
				Name:  "ttl",
				Value: 24 * time.Hour,
				Usage: "Token lifetime",
			},
			&cli.StringFlag{
				Name:  "scope",
				Value: auth.ScopeToken,
				Usage: "Token scope",
			},
			&cli.StringFlag{
				Name:    "secret",
				Usage:   "Signing secret",
				EnvVars: []string{"JWT_SECRET"},
			},
		},
		Action: jwtIssue,
	}
}

func tokenCreate(c *cli.Context) error {
	cfg, err := config.LoadConfig(c.String("config"))
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Context, cfg.Service.Timeout)
	defer cancel()

	var opts []rkd.Option
	if c.Bool("publish") {
		if !cfg.Redis.Enabled {
			return errors.New("--publish needs redis to be configured")
		}
		client, err := cache.NewRedisClient(ctx, cfg.RedisConfig())
		if err != nil {
			return err
		}
		defer cache.CloseRedis(client)
		opts = append(opts, rkd.WithStore(cache.NewTokenStore(client, cfg.RKDCredentials())))
	}
	opts = append(opts, rkd.WithTimeout(cfg.Service.Timeout))

	transport := soap.NewTransport(&http.Client{Timeout: cfg.Service.Timeout})
	session, err := rkd.NewSession(ctx, cfg.RKDCredentials(), rkd.NewBuilder(cfg.Endpoints()), transport, opts...)
	if err != nil {
		return fmt.Errorf("authentication failed: %w", err)
	}

	tok := session.Current()
	fmt.Fprintf(c.App.Writer, "Token:      %s\n", tok.Value)
	fmt.Fprintf(c.App.Writer, "Expires At: %s\n", tok.ExpiresAt.Format(time.RFC3339))
	return nil
}

func sharedShow(c *cli.Context) error {
	cfg, err := config.LoadConfig(c.String("config"))
	if err != nil {
		return err
	}
	if !cfg.Redis.Enabled {
		return errors.New("redis is not configured")
	}

	ctx, cancel := context.WithTimeout(c.Context, 10*time.Second)
	defer cancel()

	client, err := cache.NewRedisClient(ctx, cfg.RedisConfig())
	if err != nil {
		return err
	}
	defer cache.CloseRedis(client)

	store := cache.NewTokenStore(client, cfg.RKDCredentials())
	if c.Bool("clear") {
		return clearShared(ctx, c.App.Writer, store)
	}
	return printShared(ctx, c.App.Writer, store)
}

func clearShared(ctx context.Context, w io.Writer, store cache.TokenOperations) error {
	if err := store.Clear(ctx); err != nil {
		return err
	}
	fmt.Fprintln(w, "Shared token removed")
	return nil
}

func printShared(ctx context.Context, w io.Writer, store cache.TokenOperations) error {
	stored, err := store.Load(ctx)
	if errors.Is(err, cache.ErrTokenNotFound) {
		fmt.Fprintln(w, "No token published")
		return nil
	}
	if err != nil {
		return err
	}
	ttl, err := store.TTL(ctx)
	if err != nil && !errors.Is(err, cache.ErrTokenNotFound) {
		return err
	}

	fmt.Fprintf(w, "Token:      %s\n", stored.Token)
	fmt.Fprintf(w, "Expires At: %s\n", stored.ExpiresAt.Format(time.RFC3339))
	fmt.Fprintf(w, "TTL:        %s\n", ttl.Round(time.Second))
	return nil
}

func jwtIssue(c *cli.Context) error {
	secret := c.String("secret")
	if secret == "" {
		return errors.New("a signing secret is required (--secret or JWT_SECRET)")
	}
	details, err := auth.GenerateJWT(c.String("subject"), c.String("scope"), secret, c.Duration("ttl"))
	if err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, details.Token)
	return nil
}
