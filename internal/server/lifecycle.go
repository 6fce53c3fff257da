// Package server runs the arena's long-lived services under one context and
// stops them together on a termination signal, a failure, or completion.
package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// Service is a component that runs until its work is done or ctx is canceled.
type Service interface {
	Run(ctx context.Context) error
}

// FuncService adapts a function into the Service interface.
type FuncService func(ctx context.Context) error

// Run calls f.
func (f FuncService) Run(ctx context.Context) error { return f(ctx) }

// Lifecycle runs a set of named services. The first service to return, for
// any reason, cancels the rest.
type Lifecycle struct {
	logger   *zap.Logger
	services []namedService
	mu       sync.Mutex
}

type namedService struct {
	name    string
	service Service
}

// NewLifecycle creates a new Lifecycle manager.
//
// Precondition: logger must be non-nil.
func NewLifecycle(logger *zap.Logger) *Lifecycle {
	return &Lifecycle{
		logger: logger,
	}
}

// Add registers a named service.
//
// Precondition: name must be non-empty; svc must be non-nil.
func (l *Lifecycle) Add(name string, svc Service) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.services = append(l.services, namedService{name: name, service: svc})
}

// Run starts every service and blocks until one returns, SIGINT or SIGTERM
// arrives, or ctx is done. It then cancels the shared context and waits for
// all services to return.
//
// Postcondition: every service has returned. The result is the first
// service error, or nil.
func (l *Lifecycle) Run(ctx context.Context) error {
	start := time.Now()

	l.mu.Lock()
	services := append([]namedService(nil), l.services...)
	l.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	type exit struct {
		name string
		err  error
	}
	exits := make(chan exit, len(services))
	var wg sync.WaitGroup
	for _, ns := range services {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l.logger.Info("starting service", zap.String("service", ns.name))
			svcStart := time.Now()
			err := ns.service.Run(ctx)
			if err != nil {
				l.logger.Error("service failed",
					zap.String("service", ns.name),
					zap.Error(err),
					zap.Duration("uptime", time.Since(svcStart)),
				)
			} else {
				l.logger.Info("service finished",
					zap.String("service", ns.name),
					zap.Duration("uptime", time.Since(svcStart)),
				)
			}
			exits <- exit{name: ns.name, err: err}
		}()
	}

	l.logger.Info("all services started",
		zap.Int("count", len(services)),
		zap.Duration("startup", time.Since(start)),
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	var firstErr error
	pending := len(services)
	if pending > 0 {
		select {
		case sig := <-sigCh:
			l.logger.Info("received signal, shutting down", zap.String("signal", sig.String()))
		case e := <-exits:
			pending--
			if e.err != nil {
				firstErr = fmt.Errorf("service %s: %w", e.name, e.err)
			}
		case <-ctx.Done():
			l.logger.Info("context cancelled, shutting down")
		}
	}

	cancel()
	wg.Wait()
	close(exits)
	for e := range exits {
		if e.err != nil && firstErr == nil {
			firstErr = fmt.Errorf("service %s: %w", e.name, e.err)
		}
	}

	l.logger.Info("shutdown complete",
		zap.Int("services", len(services)),
		zap.Duration("total_uptime", time.Since(start)),
	)
	return firstErr
}
