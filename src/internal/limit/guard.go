// FILE: zkpauth/src/internal/limit/guard.go
package limit

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"zkpauth/src/internal/config"

	"github.com/lixenwraith/log"
	"golang.org/x/time/rate"
)

var (
	// ErrRateLimited is returned when a client exceeds its request rate.
	ErrRateLimited = errors.New("rate limit exceeded")
	// ErrBlocked is returned while a client is serving a temporary block.
	ErrBlocked = errors.New("temporarily blocked")
)

const (
	defaultMaxTrackedIPs = 10000
	evictionSampleSize   = 20
	maxBlockShift        = 6 // caps the progressive block at 64 minutes
	idleExpiry           = time.Hour
	cleanupInterval      = 5 * time.Minute
)

// Guard throttles protocol requests per remote IP. Exceeding the rate starts
// a progressive block of 2^failures minutes. A nil *Guard allows everything.
type Guard struct {
	config config.LimitConfig
	logger *log.Logger
	now    func() time.Time

	ips map[string]*ipState
	mu  sync.Mutex

	// Statistics
	totalRequests   atomic.Uint64
	blockedRequests atomic.Uint64

	// Lifecycle management
	ctx         context.Context
	cancel      context.CancelFunc
	cleanupDone chan struct{}
}

type ipState struct {
	limiter      *rate.Limiter
	failCount    int
	lastAttempt  time.Time
	blockedUntil time.Time
}

// New creates a guard. Returns nil when limiting is disabled.
func New(cfg config.LimitConfig, logger *log.Logger) *Guard {
	if !cfg.Enabled {
		return nil
	}
	if cfg.MaxTrackedIPs <= 0 {
		cfg.MaxTrackedIPs = defaultMaxTrackedIPs
	}

	ctx, cancel := context.WithCancel(context.Background())
	g := &Guard{
		config:      cfg,
		logger:      logger,
		now:         time.Now,
		ips:         make(map[string]*ipState),
		ctx:         ctx,
		cancel:      cancel,
		cleanupDone: make(chan struct{}),
	}

	go g.cleanupLoop()

	logger.Info("msg", "Request guard initialized",
		"component", "limit",
		"requests_per_second", cfg.RequestsPerSecond,
		"burst_size", cfg.BurstSize,
		"max_tracked_ips", cfg.MaxTrackedIPs)

	return g
}

// Allow checks whether a request from remoteAddr may proceed.
func (g *Guard) Allow(remoteAddr string) error {
	if g == nil {
		return nil
	}
	g.totalRequests.Add(1)

	ip := hostOf(remoteAddr)
	now := g.now()

	g.mu.Lock()
	defer g.mu.Unlock()

	state, exists := g.ips[ip]
	if !exists {
		if int64(len(g.ips)) >= g.config.MaxTrackedIPs {
			g.evictOldest(now)
		}
		state = &ipState{
			limiter:     rate.NewLimiter(rate.Limit(g.config.RequestsPerSecond), int(g.config.BurstSize)),
			lastAttempt: now,
		}
		g.ips[ip] = state
	}

	if now.Before(state.blockedUntil) {
		g.blockedRequests.Add(1)
		remaining := state.blockedUntil.Sub(now)
		g.logger.Warn("msg", "IP temporarily blocked",
			"component", "limit",
			"ip", ip,
			"remaining", remaining)
		return fmt.Errorf("%w, try again in %v", ErrBlocked, remaining.Round(time.Second))
	}

	if !state.limiter.AllowN(now, 1) {
		g.blockedRequests.Add(1)
		state.failCount++

		blockMinutes := 1 << min(state.failCount, maxBlockShift)
		state.blockedUntil = now.Add(time.Duration(blockMinutes) * time.Minute)

		g.logger.Warn("msg", "Rate limit exceeded, blocking IP",
			"component", "limit",
			"ip", ip,
			"fail_count", state.failCount,
			"block_duration", time.Duration(blockMinutes)*time.Minute)
		return ErrRateLimited
	}

	state.lastAttempt = now
	return nil
}

// RecordFailure counts a rejected proof against remoteAddr.
func (g *Guard) RecordFailure(remoteAddr string) {
	if g == nil {
		return
	}
	ip := hostOf(remoteAddr)

	g.mu.Lock()
	defer g.mu.Unlock()

	if state, exists := g.ips[ip]; exists {
		state.failCount++
		state.lastAttempt = g.now()
	}
}

// RecordSuccess clears the failure history of remoteAddr.
func (g *Guard) RecordSuccess(remoteAddr string) {
	if g == nil {
		return
	}
	ip := hostOf(remoteAddr)

	g.mu.Lock()
	defer g.mu.Unlock()

	if state, exists := g.ips[ip]; exists {
		state.failCount = 0
		state.blockedUntil = time.Time{}
	}
}

// evictOldest drops the least recently seen IP among a small sample.
func (g *Guard) evictOldest(now time.Time) {
	var oldestIP string
	oldestTime := now

	sampled := 0
	for ip, state := range g.ips {
		if state.lastAttempt.Before(oldestTime) || oldestIP == "" {
			oldestIP = ip
			oldestTime = state.lastAttempt
		}
		sampled++
		if sampled >= evictionSampleSize {
			break
		}
	}

	if oldestIP != "" {
		delete(g.ips, oldestIP)
		g.logger.Debug("msg", "Evicted old guard state",
			"component", "limit",
			"evicted_ip", oldestIP,
			"last_seen", oldestTime)
	}
}

func (g *Guard) cleanupLoop() {
	defer close(g.cleanupDone)

	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-g.ctx.Done():
			return
		case <-ticker.C:
			g.cleanup()
		}
	}
}

func (g *Guard) cleanup() {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	for ip, state := range g.ips {
		if now.Sub(state.lastAttempt) > idleExpiry && now.After(state.blockedUntil) {
			delete(g.ips, ip)
		}
	}
}

// Shutdown stops the cleanup goroutine.
func (g *Guard) Shutdown() {
	if g == nil {
		return
	}
	g.cancel()

	select {
	case <-g.cleanupDone:
	case <-time.After(2 * time.Second):
		g.logger.Warn("msg", "Guard cleanup shutdown timeout", "component", "limit")
	}
}

// GetStats returns guard statistics
func (g *Guard) GetStats() map[string]any {
	if g == nil {
		return map[string]any{"enabled": false}
	}

	g.mu.Lock()
	tracked := len(g.ips)
	g.mu.Unlock()

	return map[string]any{
		"enabled":          true,
		"tracked_ips":      tracked,
		"total_requests":   g.totalRequests.Load(),
		"blocked_requests": g.blockedRequests.Load(),
	}
}

func hostOf(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr
	}
	return host
}
