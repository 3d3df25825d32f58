package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/mikey/phishguard/internal/core"
	"github.com/mikey/phishguard/internal/di"
	"github.com/mikey/phishguard/internal/ports"
	"go.uber.org/zap"
)

func main() {
	configFile := flag.String("config", "", "Path to config file (searches the default locations if empty)")
	flag.Parse()

	// Build the dependency injection container
	container, err := di.BuildContainer(*configFile)
	if err != nil {
		fmt.Printf("Failed to build dependency container: %v\n", err)
		os.Exit(1)
	}

	// Run the application
	if err := container.Invoke(run); err != nil {
		fmt.Printf("Application error: %v\n", err)
		os.Exit(1)
	}
}

// run is the main application function that gets all dependencies injected
func run(
	logger *zap.Logger,
	frontend ports.Frontend,
	generator core.TextGenerator,
) error {
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start the frontend
	if err := frontend.Start(); err != nil {
		logger.Error("Failed to start frontend", zap.Error(err))
		return err
	}

	<-ctx.Done()
	logger.Info("Shutting down...")

	if err := frontend.Stop(); err != nil {
		logger.Error("Failed to stop frontend", zap.Error(err))
	}

	// Close any resources that need closing
	if closer, ok := generator.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			logger.Error("Failed to close narrative client", zap.Error(err))
		}
	}

	logger.Info("Shutdown complete")
	return nil
}
