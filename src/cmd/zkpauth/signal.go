// FILE: zkpauth/src/cmd/zkpauth/signal.go
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/lixenwraith/log"
)

// SignalHandler waits for termination and answers status requests.
type SignalHandler struct {
	server  *Server
	logger  *log.Logger
	sigChan chan os.Signal
}

// NewSignalHandler registers for SIGINT, SIGTERM and SIGUSR1.
func NewSignalHandler(server *Server, logger *log.Logger) *SignalHandler {
	sh := &SignalHandler{
		server:  server,
		logger:  logger,
		sigChan: make(chan os.Signal, 1),
	}

	signal.Notify(sh.sigChan,
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGUSR1, // log a status report
	)

	return sh
}

// Handle blocks until a termination signal arrives or ctx is done.
func (sh *SignalHandler) Handle(ctx context.Context) os.Signal {
	for {
		select {
		case sig := <-sh.sigChan:
			if sig == syscall.SIGUSR1 {
				sh.logger.Info("msg", "Status signal received", "signal", sig)
				logStatus(sh.server)
				continue
			}
			return sig
		case <-ctx.Done():
			return nil
		}
	}
}

// Stop releases signal registration
func (sh *SignalHandler) Stop() {
	signal.Stop(sh.sigChan)
}
