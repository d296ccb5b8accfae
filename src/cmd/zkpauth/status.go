// FILE: zkpauth/src/cmd/zkpauth/status.go
package main

import (
	"context"
	"time"
)

// statusReporter periodically logs server statistics
func statusReporter(ctx context.Context, server *Server, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			logStatus(server)
		}
	}
}

func logStatus(server *Server) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("msg", "Panic in status reporter",
				"component", "status_reporter",
				"panic", r)
		}
	}()

	stats := server.GetStats()
	fields := []any{
		"msg", "Status report",
		"component", "status_reporter",
	}

	if handler, ok := stats["handler"].(map[string]any); ok {
		fields = append(fields,
			"total_requests", handler["total_requests"],
			"limited_requests", handler["limited_requests"],
			"failed_requests", handler["failed_requests"])

		if authStats, ok := handler["auth"].(map[string]any); ok {
			fields = append(fields,
				"registered_users", authStats["registered_users"],
				"live_auth_sessions", authStats["live_auth_sessions"],
				"answers_accepted", authStats["answers_accepted"],
				"answers_rejected", authStats["answers_rejected"])
		}
	}

	if tcp, ok := stats["tcp"].(map[string]any); ok {
		fields = append(fields, "tcp_active_connections", tcp["active_connections"])
	}

	logger.Debug(fields...)
}
