// Package shutdown cancels a run on SIGINT/SIGTERM and closes registered
// components in reverse registration order.
package shutdown

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"frequency-filters/internal/logger"
)

type Shutdownable interface {
	Name() string
	Shutdown() error
}

type Manager struct {
	components []Shutdownable
	logger     logger.Logger
	timeout    time.Duration
	mu         sync.Mutex
	done       chan struct{}
	ctx        context.Context
	cancel     context.CancelFunc
	signals    chan os.Signal
	listening  chan struct{}
}

// NewManager returns a manager whose components each get timeout to shut
// down. A non-positive timeout means 10s.
func NewManager(log logger.Logger, timeout time.Duration) *Manager {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithCancel(context.Background())

	return &Manager{
		components: make([]Shutdownable, 0),
		logger:     log,
		timeout:    timeout,
		done:       make(chan struct{}),
		ctx:        ctx,
		cancel:     cancel,
	}
}

func (m *Manager) Register(component Shutdownable) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.components = append(m.components, component)
}

// Listen cancels Context on the first signal so in-flight images can finish.
// A second signal shuts everything down and exits.
func (m *Manager) Listen() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.signals != nil {
		return
	}
	signals := make(chan os.Signal, 2)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)
	m.signals = signals
	m.listening = make(chan struct{})

	go func(listening chan struct{}) {
		defer close(listening)

		sig, ok := <-signals
		if !ok {
			return
		}
		m.logger.Info("ShutdownManager", "shutdown signal received, finishing in-flight images", map[string]interface{}{
			"signal": sig.String(),
		})
		m.cancel()

		sig, ok = <-signals
		if !ok {
			return
		}
		m.logger.Warning("ShutdownManager", "second signal received, forcing exit", map[string]interface{}{
			"signal": sig.String(),
		})
		m.Shutdown()
		os.Exit(130)
	}(m.listening)
}

// Stop detaches the signal handler and ends the Listen goroutine.
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.signals != nil {
		signal.Stop(m.signals)
		close(m.signals)
		m.signals = nil
	}
}

func (m *Manager) Shutdown() {
	m.mu.Lock()
	defer m.mu.Unlock()

	select {
	case <-m.done:
		return
	default:
		close(m.done)
	}

	m.logger.Debug("ShutdownManager", "shutdown sequence initiated", map[string]interface{}{
		"components": len(m.components),
	})

	m.cancel()

	for i := len(m.components) - 1; i >= 0; i-- {
		component := m.components[i]

		errc := make(chan error, 1)
		go func() {
			errc <- component.Shutdown()
		}()

		select {
		case err := <-errc:
			if err != nil {
				m.logger.Error("ShutdownManager", err, map[string]interface{}{
					"component": component.Name(),
				})
			}
		case <-time.After(m.timeout):
			m.logger.Warning("ShutdownManager", "component shutdown timeout", map[string]interface{}{
				"component": component.Name(),
				"timeout":   m.timeout.String(),
			})
		}
	}

	m.logger.Debug("ShutdownManager", "shutdown sequence completed", nil)
}

func (m *Manager) Context() context.Context {
	return m.ctx
}

func (m *Manager) Done() <-chan struct{} {
	return m.done
}
