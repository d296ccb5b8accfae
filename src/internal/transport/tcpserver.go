// FILE: zkpauth/src/internal/transport/tcpserver.go
package transport

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"zkpauth/src/internal/auth"
	"zkpauth/src/internal/config"
	"zkpauth/src/internal/core"

	"github.com/lixenwraith/log"
	"github.com/lixenwraith/log/compat"
	"github.com/panjf2000/ants/v2"
	"github.com/panjf2000/gnet/v2"
)

// TCPServer serves the line protocol on a gnet engine. The event loops only
// frame lines; requests run on a worker pool and reply through AsyncWrite.
type TCPServer struct {
	host     string
	port     int64
	workers  int
	handler  *Handler
	pool     *ants.Pool
	server   *tcpServer
	engine   *gnet.Engine
	engineMu sync.Mutex
	booted   chan struct{}
	wg       sync.WaitGroup
	logger   *log.Logger

	// Statistics
	activeConns   atomic.Int64
	totalConns    atomic.Uint64
	totalRequests atomic.Uint64
	invalidLines  atomic.Uint64
	startTime     time.Time
}

// NewTCPServer creates a TCP server bound to host and cfg.Port.
func NewTCPServer(host string, cfg config.TCPConfig, handler *Handler, logger *log.Logger) (*TCPServer, error) {
	if cfg.Port < 1 || cfg.Port > 65535 {
		return nil, fmt.Errorf("tcp server requires valid port, got %d", cfg.Port)
	}
	if host == "" {
		host = "0.0.0.0"
	}
	workers := int(cfg.Workers)
	if workers <= 0 {
		workers = core.DefaultTCPWorkers
	}

	return &TCPServer{
		host:    host,
		port:    cfg.Port,
		workers: workers,
		handler: handler,
		booted:  make(chan struct{}),
		logger:  logger,
	}, nil
}

// Start runs the engine in the background and returns once it is accepting
// connections or has failed to bind.
func (t *TCPServer) Start() error {
	pool, err := ants.NewPool(t.workers)
	if err != nil {
		return fmt.Errorf("failed to create tcp worker pool: %w", err)
	}
	t.pool = pool

	t.server = &tcpServer{
		owner:   t,
		clients: make(map[gnet.Conn]*tcpClient),
	}
	t.startTime = time.Now()

	addr := fmt.Sprintf("tcp://%s:%d", t.host, t.port)
	gnetLogger := compat.NewGnetAdapter(t.logger)

	errChan := make(chan error, 1)
	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		t.logger.Info("msg", "TCP server starting",
			"component", "tcp_server",
			"address", addr)

		err := gnet.Run(t.server, addr,
			gnet.WithLogger(gnetLogger),
			gnet.WithMulticore(true),
			gnet.WithReusePort(true),
		)
		if err != nil {
			t.logger.Error("msg", "TCP server failed",
				"component", "tcp_server",
				"port", t.port,
				"error", err)
		}
		errChan <- err
	}()

	select {
	case err := <-errChan:
		t.wg.Wait()
		pool.Release()
		t.pool = nil
		if err == nil {
			err = fmt.Errorf("tcp server exited during startup")
		}
		return err
	case <-t.booted:
		t.logger.Info("msg", "TCP server started", "component", "tcp_server", "port", t.port)
		return nil
	case <-time.After(5 * time.Second):
		return fmt.Errorf("tcp server did not boot on port %d", t.port)
	}
}

// Stop shuts the engine down and waits for the event loops to exit.
func (t *TCPServer) Stop() {
	t.logger.Info("msg", "Stopping TCP server", "component", "tcp_server")

	t.engineMu.Lock()
	engine := t.engine
	t.engineMu.Unlock()

	if engine != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := engine.Stop(ctx); err != nil {
			t.logger.Warn("msg", "TCP engine stop error",
				"component", "tcp_server",
				"error", err)
		}
	}

	t.wg.Wait()

	if t.pool != nil {
		if err := t.pool.ReleaseTimeout(2 * time.Second); err != nil {
			t.logger.Warn("msg", "TCP worker pool did not drain",
				"component", "tcp_server",
				"error", err)
		}
	}
	t.logger.Info("msg", "TCP server stopped", "component", "tcp_server")
}

// GetStats returns connection and request counters
func (t *TCPServer) GetStats() map[string]any {
	var running int
	if t.pool != nil {
		running = t.pool.Running()
	}
	return map[string]any{
		"workers":            t.workers,
		"busy_workers":       running,
		"port":               t.port,
		"active_connections": t.activeConns.Load(),
		"total_connections":  t.totalConns.Load(),
		"total_requests":     t.totalRequests.Load(),
		"invalid_lines":      t.invalidLines.Load(),
		"uptime_seconds":     int64(time.Since(t.startTime).Seconds()),
	}
}

// Per-connection state. buffer and closing belong to the event loop; the
// pending queue is drained by at most one worker at a time, which keeps
// replies in request order.
type tcpClient struct {
	buffer     bytes.Buffer
	closing    bool
	remoteAddr string

	mu      sync.Mutex
	pending []tcpRequest
	busy    bool
}

// A framed line, or a canned reply for protocol violations
type tcpRequest struct {
	line       []byte
	reply      []byte
	closeAfter bool
}

// Handles gnet events
type tcpServer struct {
	gnet.BuiltinEventEngine
	owner   *TCPServer
	clients map[gnet.Conn]*tcpClient
	mu      sync.RWMutex
}

func (s *tcpServer) OnBoot(eng gnet.Engine) gnet.Action {
	s.owner.engineMu.Lock()
	s.owner.engine = &eng
	s.owner.engineMu.Unlock()
	close(s.owner.booted)

	s.owner.logger.Debug("msg", "TCP server booted",
		"component", "tcp_server",
		"port", s.owner.port)
	return gnet.None
}

func (s *tcpServer) OnOpen(c gnet.Conn) (out []byte, action gnet.Action) {
	s.mu.Lock()
	s.clients[c] = &tcpClient{remoteAddr: c.RemoteAddr().String()}
	s.mu.Unlock()

	s.owner.totalConns.Add(1)
	newCount := s.owner.activeConns.Add(1)
	s.owner.logger.Debug("msg", "TCP connection opened",
		"component", "tcp_server",
		"remote_addr", c.RemoteAddr().String(),
		"active_connections", newCount)

	return nil, gnet.None
}

func (s *tcpServer) OnClose(c gnet.Conn, err error) gnet.Action {
	s.mu.Lock()
	delete(s.clients, c)
	s.mu.Unlock()

	newCount := s.owner.activeConns.Add(-1)
	s.owner.logger.Debug("msg", "TCP connection closed",
		"component", "tcp_server",
		"remote_addr", c.RemoteAddr().String(),
		"active_connections", newCount,
		"error", err)
	return gnet.None
}

func (s *tcpServer) OnTraffic(c gnet.Conn) gnet.Action {
	s.mu.RLock()
	client, exists := s.clients[c]
	s.mu.RUnlock()

	if !exists {
		return gnet.Close
	}

	data, err := c.Next(-1)
	if err != nil {
		s.owner.logger.Error("msg", "Error reading from connection",
			"component", "tcp_server",
			"error", err)
		return gnet.Close
	}
	if client.closing {
		return gnet.None
	}
	client.buffer.Write(data)

	var reqs []tcpRequest
	for {
		idx := bytes.IndexByte(client.buffer.Bytes(), '\n')
		if idx < 0 {
			break
		}
		// Next reuses the buffer's storage, so the line is copied for the worker
		line := client.buffer.Next(idx + 1)
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		reqs = append(reqs, tcpRequest{line: append([]byte(nil), line...)})
	}

	if client.buffer.Len() > core.MaxLineLength {
		s.owner.invalidLines.Add(1)
		s.owner.logger.Warn("msg", "Line too long without newline",
			"component", "tcp_server",
			"remote_addr", client.remoteAddr,
			"buffer_size", client.buffer.Len())
		reqs = append(reqs, tcpRequest{
			reply:      FormatReply(nil, auth.Errorf(auth.CodeInvalidArgument, "line exceeds %d bytes", core.MaxLineLength)),
			closeAfter: true,
		})
		client.buffer.Reset()
		client.closing = true
	}

	if len(reqs) > 0 {
		s.enqueue(c, client, reqs)
	}
	return gnet.None
}

// enqueue appends reqs to the connection's queue and hands the queue to a
// worker unless one already owns it.
func (s *tcpServer) enqueue(c gnet.Conn, client *tcpClient, reqs []tcpRequest) {
	client.mu.Lock()
	client.pending = append(client.pending, reqs...)
	if client.busy {
		client.mu.Unlock()
		return
	}
	client.busy = true
	client.mu.Unlock()

	if err := s.owner.pool.Submit(func() { s.drain(c, client) }); err != nil {
		s.owner.logger.Warn("msg", "Worker pool unavailable, serving on event loop",
			"component", "tcp_server",
			"remote_addr", client.remoteAddr,
			"error", err)
		s.drain(c, client)
	}
}

func (s *tcpServer) drain(c gnet.Conn, client *tcpClient) {
	for {
		client.mu.Lock()
		if len(client.pending) == 0 {
			client.busy = false
			client.mu.Unlock()
			return
		}
		req := client.pending[0]
		client.pending = client.pending[1:]
		client.mu.Unlock()

		reply := req.reply
		if reply == nil {
			reply = s.serveLine(client.remoteAddr, req.line)
		}
		if err := c.AsyncWrite(reply, nil); err != nil {
			s.owner.logger.Debug("msg", "Write failed",
				"component", "tcp_server",
				"remote_addr", client.remoteAddr,
				"error", err)
		}
		if req.closeAfter {
			_ = c.CloseWithCallback(nil)
		}
	}
}

func (s *tcpServer) serveLine(remoteAddr string, line []byte) []byte {
	cmd, payload, err := ParseLine(line)
	if err != nil {
		s.owner.invalidLines.Add(1)
		return FormatReply(nil, auth.Errorf(auth.CodeInvalidArgument, "%v", err))
	}

	s.owner.totalRequests.Add(1)
	resp, err := s.owner.handler.Handle(remoteAddr, cmd, payload)
	return FormatReply(resp, err)
}
