// FILE: zkpauth/src/cmd/zkpauth/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"syscall"
	"time"

	"zkpauth/src/internal/config"
	"zkpauth/src/internal/version"

	"github.com/lixenwraith/log"
)

var logger *log.Logger

func main() {
	flagCfg, configArgs, err := ParseFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	InitOutputHandler(flagCfg.Quiet)

	if flagCfg.ShowHelp {
		printUsage()
		os.Exit(0)
	}

	if flagCfg.ShowVersion {
		fmt.Println(version.String())
		os.Exit(0)
	}

	if flagCfg.ConfigFile != "" {
		os.Setenv("ZKPAUTH_CONFIG_FILE", flagCfg.ConfigFile)
	}

	cfg, err := config.LoadWithCLI(configArgs)
	if err != nil {
		if flagCfg.ConfigFile != "" && strings.Contains(err.Error(), "not found") {
			FatalError(2, "Config file not found: %s\n", flagCfg.ConfigFile)
		}
		FatalError(1, "Failed to load config: %v\n", err)
	}

	if flagCfg.DumpConfig != "" {
		if err := cfg.SaveToFile(flagCfg.DumpConfig); err != nil {
			FatalError(1, "Failed to write config: %v\n", err)
		}
		Print("Configuration written to %s\n", flagCfg.DumpConfig)
		os.Exit(0)
	}

	if err := initializeLogger(cfg); err != nil {
		FatalError(1, "Failed to initialize logger: %v\n", err)
	}
	defer shutdownLogger()

	logger.Info("msg", "zkpauth starting",
		"version", version.String(),
		"config_file", cfg.ConfigFile,
		"log_output", cfg.Logging.Output)

	server, err := bootstrapServer(cfg)
	if err != nil {
		logger.Error("msg", "Failed to bootstrap server", "error", err)
		shutdownLogger()
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if enableStatusReporter() {
		go statusReporter(ctx, server, 30*time.Second)
	}

	sigHandler := NewSignalHandler(server, logger)
	defer sigHandler.Stop()

	sig := sigHandler.Handle(ctx)
	logger.Info("msg", "Shutdown signal received, starting graceful shutdown", "signal", sig)
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	done := make(chan struct{})
	go func() {
		server.Shutdown()
		close(done)
	}()

	select {
	case <-done:
		logger.Info("msg", "Shutdown complete")
	case <-shutdownCtx.Done():
		logger.Error("msg", "Shutdown timeout exceeded - forcing exit")
		shutdownLogger()
		os.Exit(1)
	}

	if sig == syscall.SIGINT {
		Print("\n")
	}
}

func shutdownLogger() {
	if logger != nil {
		if err := logger.Shutdown(2 * time.Second); err != nil {
			Error("Logger shutdown error: %v\n", err)
		}
	}
}

func enableStatusReporter() bool {
	return os.Getenv("ZKPAUTH_DISABLE_STATUS_REPORTER") != "1"
}
