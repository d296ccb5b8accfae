// FILE: zkpauth/src/cmd/zkpauth/bootstrap.go
package main

import (
	"fmt"
	"strings"
	"time"

	"zkpauth/src/internal/auth"
	"zkpauth/src/internal/config"
	"zkpauth/src/internal/limit"
	"zkpauth/src/internal/store"
	"zkpauth/src/internal/transport"
	"zkpauth/src/internal/version"
	"zkpauth/src/internal/zkp"

	"github.com/lixenwraith/log"
)

// Server owns every running component.
type Server struct {
	coordinator *auth.Coordinator
	handler     *transport.Handler
	tcp         *transport.TCPServer
	http        *transport.HTTPServer
}

// bootstrapServer wires group, ledger, coordinator and listeners from cfg.
func bootstrapServer(cfg *config.Config) (*Server, error) {
	group, err := zkp.Lookup(cfg.Group.Name)
	if err != nil {
		return nil, fmt.Errorf("group: %w", err)
	}
	if err := group.Validate(); err != nil {
		return nil, fmt.Errorf("group: %w", err)
	}

	registryOpts := store.RegistryOptions{}
	if cfg.Challenges.Eviction == "ttl" {
		registryOpts.TTL = time.Duration(cfg.Challenges.TTLSeconds) * time.Second
		registryOpts.MaxEntries = int(cfg.Challenges.MaxEntries)
	}
	ledger := store.NewLedger(int(cfg.Store.Shards), registryOpts)

	coordinator := auth.NewCoordinator(group, ledger, auth.Options{
		ConsumeOnVerify: cfg.Challenges.ConsumeOnVerify,
	}, logger)

	guard := limit.New(cfg.Server.Limit, logger)
	handler := transport.NewHandler(coordinator, guard, logger)

	srv := &Server{
		coordinator: coordinator,
		handler:     handler,
	}

	if cfg.Server.TCP.Enabled {
		tcp, err := transport.NewTCPServer(cfg.Server.Host, cfg.Server.TCP, handler, logger)
		if err != nil {
			return nil, err
		}
		if err := tcp.Start(); err != nil {
			handler.Shutdown()
			return nil, fmt.Errorf("failed to start TCP server: %w", err)
		}
		srv.tcp = tcp
		Print("TCP endpoint: %s:%d\n", cfg.Server.Host, cfg.Server.TCP.Port)
	}

	if cfg.Server.HTTP.Enabled {
		httpSrv, err := transport.NewHTTPServer(cfg.Server.Host, cfg.Server.HTTP, handler, logger)
		if err == nil {
			err = httpSrv.Start()
		}
		if err != nil {
			srv.Shutdown()
			return nil, fmt.Errorf("failed to start HTTP server: %w", err)
		}
		if srv.tcp != nil {
			httpSrv.AddStatusSource("tcp", srv.tcp.GetStats)
		}
		srv.http = httpSrv
		Print("HTTP endpoints: http://%s:%d%s/{register,challenge,verify,status}\n",
			cfg.Server.Host, cfg.Server.HTTP.Port, cfg.Server.HTTP.PathPrefix)
	}

	if srv.tcp == nil && srv.http == nil {
		handler.Shutdown()
		return nil, fmt.Errorf("no listeners enabled")
	}

	logger.Info("msg", "zkpauth started",
		"version", version.Short(),
		"group", group.Name,
		"eviction", cfg.Challenges.Eviction,
		"consume_on_verify", cfg.Challenges.ConsumeOnVerify,
		"shards", cfg.Store.Shards)

	return srv, nil
}

// Shutdown stops listeners before the guard.
func (s *Server) Shutdown() {
	if s.http != nil {
		s.http.Stop()
	}
	if s.tcp != nil {
		s.tcp.Stop()
	}
	s.handler.Shutdown()
}

// GetStats collects statistics from every component
func (s *Server) GetStats() map[string]any {
	stats := map[string]any{
		"handler": s.handler.GetStats(),
	}
	if s.tcp != nil {
		stats["tcp"] = s.tcp.GetStats()
	}
	if s.http != nil {
		stats["http"] = s.http.GetStats()
	}
	return stats
}

// initializeLogger sets up the logger based on configuration
func initializeLogger(cfg *config.Config) error {
	logger = log.NewLogger()

	var configArgs []string

	if cfg.Quiet {
		configArgs = append(configArgs,
			"disable_file=true",
			"enable_stdout=false",
			"level=255")

		return logger.InitWithDefaults(configArgs...)
	}

	levelValue, err := parseLogLevel(cfg.Logging.Level)
	if err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	configArgs = append(configArgs, fmt.Sprintf("level=%d", levelValue))

	switch cfg.Logging.Output {
	case "none":
		configArgs = append(configArgs, "disable_file=true", "enable_stdout=false")

	case "stdout":
		configArgs = append(configArgs,
			"disable_file=true",
			"enable_stdout=true",
			"stdout_target=stdout")

	case "stderr":
		configArgs = append(configArgs,
			"disable_file=true",
			"enable_stdout=true",
			"stdout_target=stderr")

	case "file":
		configArgs = append(configArgs, "enable_stdout=false")
		configureFileLogging(&configArgs, cfg)

	case "both":
		configArgs = append(configArgs, "enable_stdout=true")
		configureFileLogging(&configArgs, cfg)
		configureConsoleTarget(&configArgs, cfg)

	default:
		return fmt.Errorf("invalid log output mode: %s", cfg.Logging.Output)
	}

	if cfg.Logging.Console != nil && cfg.Logging.Console.Format != "" {
		configArgs = append(configArgs, fmt.Sprintf("format=%s", cfg.Logging.Console.Format))
	}

	return logger.InitWithDefaults(configArgs...)
}

// configureFileLogging sets up file-based logging parameters
func configureFileLogging(configArgs *[]string, cfg *config.Config) {
	if cfg.Logging.File != nil {
		*configArgs = append(*configArgs,
			fmt.Sprintf("directory=%s", cfg.Logging.File.Directory),
			fmt.Sprintf("name=%s", cfg.Logging.File.Name),
			fmt.Sprintf("max_size_mb=%d", cfg.Logging.File.MaxSizeMB),
			fmt.Sprintf("max_total_size_mb=%d", cfg.Logging.File.MaxTotalSizeMB))

		if cfg.Logging.File.RetentionHours > 0 {
			*configArgs = append(*configArgs,
				fmt.Sprintf("retention_period_hrs=%.1f", cfg.Logging.File.RetentionHours))
		}
	}
}

// configureConsoleTarget sets up console output parameters
func configureConsoleTarget(configArgs *[]string, cfg *config.Config) {
	target := "stderr"

	if cfg.Logging.Console != nil && cfg.Logging.Console.Target != "" {
		target = cfg.Logging.Console.Target
	}

	if target == "split" {
		*configArgs = append(*configArgs, "stdout_split_mode=true")
		*configArgs = append(*configArgs, "stdout_target=split")
	} else {
		*configArgs = append(*configArgs, fmt.Sprintf("stdout_target=%s", target))
	}
}

func parseLogLevel(level string) (int, error) {
	switch strings.ToLower(level) {
	case "debug":
		return int(log.LevelDebug), nil
	case "info":
		return int(log.LevelInfo), nil
	case "warn", "warning":
		return int(log.LevelWarn), nil
	case "error":
		return int(log.LevelError), nil
	default:
		return 0, fmt.Errorf("unknown log level: %s", level)
	}
}
