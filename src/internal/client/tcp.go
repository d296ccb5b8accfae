// FILE: zkpauth/src/internal/client/tcp.go
package client

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"zkpauth/src/internal/auth"
	"zkpauth/src/internal/core"
	"zkpauth/src/internal/transport"

	"github.com/lixenwraith/log"
)

// TCPTransport speaks the line protocol over one connection. Calls are
// serialized, each waits for its reply line.
type TCPTransport struct {
	address string
	timeout time.Duration
	conn    net.Conn
	reader  *bufio.Reader
	mu      sync.Mutex
	logger  *log.Logger
}

// DialTCP connects to address.
func DialTCP(ctx context.Context, address string, timeout time.Duration, logger *log.Logger) (*TCPTransport, error) {
	dialer := &net.Dialer{
		Timeout:   timeout,
		KeepAlive: 30 * time.Second,
	}

	conn, err := dialer.DialContext(ctx, "tcp", address)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", address, err)
	}

	if tcpConn, ok := conn.(*net.TCPConn); ok {
		tcpConn.SetNoDelay(true)
	}

	logger.Debug("msg", "TCP transport connected",
		"component", "client",
		"address", address,
		"local_addr", conn.LocalAddr().String())

	return &TCPTransport{
		address: address,
		timeout: timeout,
		conn:    conn,
		reader:  bufio.NewReaderSize(conn, 4096),
		logger:  logger,
	}, nil
}

func (t *TCPTransport) Register(ctx context.Context, req *auth.RegisterRequest) (*auth.RegisterResponse, error) {
	resp := &auth.RegisterResponse{}
	if err := t.call(ctx, transport.CmdRegister, req, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (t *TCPTransport) CreateChallenge(ctx context.Context, req *auth.ChallengeRequest) (*auth.ChallengeResponse, error) {
	resp := &auth.ChallengeResponse{}
	if err := t.call(ctx, transport.CmdChallenge, req, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (t *TCPTransport) VerifyAnswer(ctx context.Context, req *auth.AnswerRequest) (*auth.AnswerResponse, error) {
	resp := &auth.AnswerResponse{}
	if err := t.call(ctx, transport.CmdAnswer, req, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (t *TCPTransport) call(ctx context.Context, cmd string, req, resp any) error {
	line, err := transport.FormatRequest(cmd, req)
	if err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.conn == nil {
		return fmt.Errorf("transport closed")
	}

	deadline := time.Now().Add(t.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := t.conn.SetDeadline(deadline); err != nil {
		return fmt.Errorf("failed to set deadline: %w", err)
	}

	// Unblock the read if ctx is cancelled before the deadline
	stop := context.AfterFunc(ctx, func() {
		t.conn.SetDeadline(time.Now())
	})
	defer stop()

	if _, err := t.conn.Write(line); err != nil {
		return fmt.Errorf("%s: write failed: %w", cmd, err)
	}

	reply, err := t.readLine()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("%s: read failed: %w", cmd, err)
	}

	return transport.ParseReply(reply, resp)
}

func (t *TCPTransport) readLine() ([]byte, error) {
	var line []byte
	for {
		chunk, isPrefix, err := t.reader.ReadLine()
		if err != nil {
			return nil, err
		}
		line = append(line, chunk...)
		if len(line) > core.MaxLineLength {
			return nil, fmt.Errorf("reply exceeds %d bytes", core.MaxLineLength)
		}
		if !isPrefix {
			return line, nil
		}
	}
}

// Close closes the connection.
func (t *TCPTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.conn == nil {
		return nil
	}
	err := t.conn.Close()
	t.conn = nil
	return err
}
