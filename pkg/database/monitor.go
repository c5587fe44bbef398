package database

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Pinger is satisfied by *sqlx.DB and *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Monitor tracks whether the primary database is reachable.
type Monitor struct {
	db       Pinger
	interval time.Duration
	timeout  time.Duration
	logger   *zap.Logger

	available atomic.Bool
	onChange  func(bool)

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewMonitor builds a monitor. A nil db reports the store as unavailable for
// the lifetime of the process.
func NewMonitor(db Pinger, interval time.Duration, logger *zap.Logger) *Monitor {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Monitor{
		db:       db,
		interval: interval,
		timeout:  3 * time.Second,
		logger:   logger,
	}
}

// OnChange registers a callback invoked whenever availability flips.
func (m *Monitor) OnChange(fn func(bool)) {
	m.onChange = fn
}

// Available reports the last observed state.
func (m *Monitor) Available() bool {
	return m.available.Load()
}

// Check pings the database once and records the result.
func (m *Monitor) Check(ctx context.Context) bool {
	if m.db == nil {
		m.set(false)
		return false
	}
	pingCtx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()
	err := m.db.PingContext(pingCtx)
	if err != nil {
		m.logger.Debug("database ping failed", zap.Error(err))
	}
	m.set(err == nil)
	return err == nil
}

// Start runs an immediate check and then probes on every interval until Stop.
func (m *Monitor) Start(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cancel != nil {
		return
	}
	m.Check(ctx)
	if m.db == nil {
		return
	}
	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.done = make(chan struct{})
	go func() {
		defer close(m.done)
		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()
		for {
			select {
			case <-runCtx.Done():
				return
			case <-ticker.C:
				m.Check(runCtx)
			}
		}
	}()
}

// Stop ends background probing.
func (m *Monitor) Stop() {
	m.mu.Lock()
	cancel, done := m.cancel, m.done
	m.cancel = nil
	m.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (m *Monitor) set(up bool) {
	previous := m.available.Swap(up)
	if previous == up {
		return
	}
	if up {
		m.logger.Info("primary database available")
	} else {
		m.logger.Warn("primary database unavailable, serving from json mirror")
	}
	if m.onChange != nil {
		m.onChange(up)
	}
}
