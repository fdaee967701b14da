// Copyright CSV Chart Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpAdapter "github.com/halejandromedinag15-gif/Proyecto1final/pkg/adapters/http"
	"github.com/halejandromedinag15-gif/Proyecto1final/pkg/chartimage"
	"github.com/halejandromedinag15-gif/Proyecto1final/pkg/core/chart"
	"github.com/halejandromedinag15-gif/Proyecto1final/pkg/core/config"
	"github.com/halejandromedinag15-gif/Proyecto1final/pkg/filestore"
	"github.com/halejandromedinag15-gif/Proyecto1final/pkg/observability/logging"

	// File store backends register themselves with filestore.Providers.
	_ "github.com/halejandromedinag15-gif/Proyecto1final/pkg/filestore/filesystem"
	_ "github.com/halejandromedinag15-gif/Proyecto1final/pkg/filestore/memory"
	_ "github.com/halejandromedinag15-gif/Proyecto1final/pkg/filestore/s3"
	_ "github.com/halejandromedinag15-gif/Proyecto1final/pkg/filestore/sqldb"
)

var (
	// Version is set via ldflags during build
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config.yaml", "Path to configuration file")
	port := flag.Int("port", 0, "HTTP port to listen on (overrides config)")
	version := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	// Print version
	if *version {
		fmt.Printf("CSV Chart Server\nVersion: %s\nBuild Time: %s\n", Version, BuildTime)
		os.Exit(0)
	}

	// Load configuration
	cfg, usedDefaults, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config %s: %v\n", *configPath, err)
		os.Exit(1)
	}

	if *port != 0 {
		cfg.Server.Port = *port
	}

	logger := logging.New(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	logger.Info("Starting CSV Chart Server",
		"version", Version,
		"build_time", BuildTime)
	if usedDefaults {
		logger.Warn("Config file not found, using defaults", "path", *configPath)
	}

	comma, err := cfg.Chart.Comma()
	if err != nil {
		logger.Error("Invalid chart configuration", "error", err)
		os.Exit(1)
	}

	// Initialize upload store
	initCtx := context.Background()
	store, err := filestore.Providers.New(initCtx, cfg.FileStore.Type, cfg.FileStore.Params())
	if err != nil {
		logger.Error("Failed to initialize file store",
			"type", cfg.FileStore.Type,
			"available", filestore.Providers.Available(),
			"error", err)
		os.Exit(1)
	}
	defer store.Close(context.Background())
	logger.Info("Initialized file store", "type", cfg.FileStore.Type)

	extractor := &chart.Extractor{
		Title:  cfg.Chart.Title,
		Comma:  comma,
		Logger: logger.Logger,
	}

	// Initialize HTTP adapter
	handler := httpAdapter.New(logger, store, extractor, httpAdapter.Options{
		SlotName:          cfg.Upload.Filename,
		AllowedExtensions: cfg.Upload.AllowedExtensions,
		MaxBytes:          cfg.Upload.MaxBytes,
		DisableImage:      cfg.Chart.DisableImage,
		Image: chartimage.Options{
			Width:  cfg.Chart.ImageWidth,
			Height: cfg.Chart.ImageHeight,
		},
	})
	logger.Info("Initialized HTTP adapter", "slot", cfg.Upload.Filename)

	// Create HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  120 * time.Second,
	}

	// Graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("Server listening", "address", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("Shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", "error", err)
		os.Exit(1)
	}

	logger.Info("Server stopped gracefully")
}

// loadConfig reads the config file. Only a missing file falls back to
// defaults; a file that exists but does not parse or validate is an error.
func loadConfig(path string) (*config.Config, bool, error) {
	cfg, err := config.Load(path)
	if err == nil {
		return cfg, false, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return config.Default(), true, nil
	}
	return nil, false, err
}
