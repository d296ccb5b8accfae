// FILE: zkpauth/src/internal/transport/httpserver.go
package transport

import (
	"encoding/json"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"zkpauth/src/internal/auth"
	"zkpauth/src/internal/config"
	"zkpauth/src/internal/version"

	"github.com/lixenwraith/log"
	"github.com/valyala/fasthttp"
)

// HTTP endpoint paths, relative to the configured prefix
const (
	PathRegister  = "/register"
	PathChallenge = "/challenge"
	PathVerify    = "/verify"
	PathStatus    = "/status"
)

// HTTPServer exposes the service as JSON over HTTP.
type HTTPServer struct {
	host    string
	port    int64
	prefix  string
	server  *fasthttp.Server
	handler *Handler
	routes  map[string]string
	wg      sync.WaitGroup
	logger  *log.Logger

	// Extra status sections, e.g. the TCP server stats
	statusMu      sync.RWMutex
	statusSources map[string]func() map[string]any

	// Statistics
	totalRequests atomic.Uint64
	startTime     time.Time
}

// NewHTTPServer creates an HTTP server for cfg.
func NewHTTPServer(host string, cfg config.HTTPConfig, handler *Handler, logger *log.Logger) (*HTTPServer, error) {
	if cfg.Port < 1 || cfg.Port > 65535 {
		return nil, fmt.Errorf("http server requires valid port, got %d", cfg.Port)
	}

	h := &HTTPServer{
		host:    host,
		port:    cfg.Port,
		prefix:  cfg.PathPrefix,
		handler: handler,
		routes: map[string]string{
			cfg.PathPrefix + PathRegister:  CmdRegister,
			cfg.PathPrefix + PathChallenge: CmdChallenge,
			cfg.PathPrefix + PathVerify:    CmdAnswer,
		},
		statusSources: make(map[string]func() map[string]any),
		logger:        logger,
	}

	h.server = &fasthttp.Server{
		Handler:            h.requestHandler,
		Name:               fmt.Sprintf("zkpauth/%s", version.Short()),
		ReadTimeout:        time.Duration(cfg.ReadTimeoutMs) * time.Millisecond,
		WriteTimeout:       time.Duration(cfg.WriteTimeoutMs) * time.Millisecond,
		MaxRequestBodySize: int(cfg.MaxBodySize),
		CloseOnShutdown:    true,
	}

	return h, nil
}

// AddStatusSource adds a named section to the /status report.
func (h *HTTPServer) AddStatusSource(name string, fn func() map[string]any) {
	h.statusMu.Lock()
	defer h.statusMu.Unlock()
	h.statusSources[name] = fn
}

// Start binds the listener and serves in the background.
func (h *HTTPServer) Start() error {
	addr := fmt.Sprintf("%s:%d", h.host, h.port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	h.Serve(ln)
	return nil
}

// Serve runs the server on ln in the background.
func (h *HTTPServer) Serve(ln net.Listener) {
	h.startTime = time.Now()

	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		h.logger.Info("msg", "HTTP server starting",
			"component", "http_server",
			"address", ln.Addr().String(),
			"path_prefix", h.prefix)

		if err := h.server.Serve(ln); err != nil {
			h.logger.Error("msg", "HTTP server failed",
				"component", "http_server",
				"port", h.port,
				"error", err)
		}
	}()
}

// Stop shuts the server down.
func (h *HTTPServer) Stop() {
	h.logger.Info("msg", "Stopping HTTP server", "component", "http_server")

	if err := h.server.Shutdown(); err != nil {
		h.logger.Error("msg", "Error shutting down HTTP server",
			"component", "http_server",
			"error", err)
	}

	h.wg.Wait()
	h.logger.Info("msg", "HTTP server stopped", "component", "http_server")
}

// GetStats returns server statistics
func (h *HTTPServer) GetStats() map[string]any {
	return map[string]any{
		"port":           h.port,
		"path_prefix":    h.prefix,
		"total_requests": h.totalRequests.Load(),
		"uptime_seconds": int64(time.Since(h.startTime).Seconds()),
	}
}

func (h *HTTPServer) requestHandler(ctx *fasthttp.RequestCtx) {
	h.totalRequests.Add(1)
	path := string(ctx.Path())

	if path == h.prefix+PathStatus {
		if !ctx.IsGet() {
			h.writeError(ctx, fasthttp.StatusMethodNotAllowed, auth.Errorf(auth.CodeInvalidArgument, "use GET for %s", path))
			return
		}
		h.handleStatus(ctx)
		return
	}

	cmd, ok := h.routes[path]
	if !ok {
		h.writeError(ctx, fasthttp.StatusNotFound, auth.Errorf(auth.CodeNotFound, "no route for %s", path))
		return
	}
	if !ctx.IsPost() {
		h.writeError(ctx, fasthttp.StatusMethodNotAllowed, auth.Errorf(auth.CodeInvalidArgument, "use POST for %s", path))
		return
	}

	resp, err := h.handler.Handle(ctx.RemoteAddr().String(), cmd, ctx.PostBody())
	if err != nil {
		h.writeError(ctx, HTTPStatus(auth.CodeOf(err)), err)
		return
	}

	h.writeJSON(ctx, fasthttp.StatusOK, resp)
}

func (h *HTTPServer) handleStatus(ctx *fasthttp.RequestCtx) {
	status := map[string]any{
		"service": "zkpauth",
		"build":   version.Info(),
		"http":    h.GetStats(),
		"handler": h.handler.GetStats(),
	}

	h.statusMu.RLock()
	for name, fn := range h.statusSources {
		status[name] = fn()
	}
	h.statusMu.RUnlock()

	h.writeJSON(ctx, fasthttp.StatusOK, status)
}

func (h *HTTPServer) writeError(ctx *fasthttp.RequestCtx, status int, err error) {
	h.writeJSON(ctx, status, ToWire(err))
}

func (h *HTTPServer) writeJSON(ctx *fasthttp.RequestCtx, status int, v any) {
	ctx.SetStatusCode(status)
	ctx.SetContentType("application/json")
	if err := json.NewEncoder(ctx).Encode(v); err != nil {
		h.logger.Error("msg", "Failed to encode response",
			"component", "http_server",
			"error", err)
	}
}
