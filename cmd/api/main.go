package main

import (
	"context"
	"os"

	"rkd-client/pkg/logger"
)

func main() {
	cfg := LoadConfiguration()

	app, err := NewApp(context.Background(), cfg)
	if err != nil {
		logger.GlobalLogger.Errorf("Failed to start rkd gateway: %v", err)
		os.Exit(1)
	}
	defer app.cleanup()

	app.InitializeServer()
	app.StartServer()
}
