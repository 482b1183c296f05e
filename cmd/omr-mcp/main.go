package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ironsheep/omr-sheet-mcp/internal/config"
	"github.com/ironsheep/omr-sheet-mcp/internal/logger"
	"github.com/ironsheep/omr-sheet-mcp/internal/server"
	"github.com/sirupsen/logrus"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("omr-sheet-mcp %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			fmt.Println("omr-sheet-mcp - MCP server for OMR sheet normalization")
			fmt.Println()
			fmt.Println("Usage: omr-sheet-mcp [options]")
			fmt.Println()
			fmt.Println("Options:")
			fmt.Println("  --version, -v    Print version information")
			fmt.Println("  --help, -h       Print this help message")
			fmt.Println()
			fmt.Println("Environment variables (also read from .env):")
			fmt.Println("  LOG_LEVEL=debug              Log level (debug, info, warn, error)")
			fmt.Println("  OMR_WORKERS=0                Batch worker count (0 = CPU count)")
			fmt.Println("  OMR_RADIUS_MAX=42            First fiducial radius threshold")
			fmt.Println("  OMR_RADIUS_MIN=37            Last fiducial radius threshold")
			fmt.Println("  OMR_FIDUCIAL_BACKEND=blob    blob or hough (gocv builds only)")
			fmt.Println("  OMR_OCR_FALLBACK=false       Read template labels when no barcode decodes")
			fmt.Println()
			fmt.Println("This server communicates via MCP protocol over stdin/stdout.")
			return
		}
	}

	cfg, err := config.Load()
	if err != nil {
		logger.WithError(err).Fatal("Invalid configuration")
	}
	logger.Configure(cfg.LogLevel)

	logger.WithFields(logrus.Fields{
		"version": Version,
		"built":   BuildTime,
		"commit":  GitCommit,
		"workers": cfg.Workers,
		"backend": cfg.FiducialBackend,
	}).Info("Starting OMR sheet MCP server")

	srv, err := server.New(cfg)
	if err != nil {
		logger.WithError(err).Fatal("Failed to create server")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.WithError(err).Fatal("Server error")
	}
}
