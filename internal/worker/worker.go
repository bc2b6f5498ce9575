package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Pool runs named best-effort tasks outside the request cycle and waits for
// them on shutdown. A panicking task is logged and does not take the process down.
type Pool struct {
	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
	logger *slog.Logger

	mu     sync.Mutex
	closed bool
}

// NewPool creates a new worker pool
func NewPool(logger *slog.Logger) *Pool {
	ctx, cancel := context.WithCancel(context.Background())
	return &Pool{
		ctx:    ctx,
		cancel: cancel,
		logger: logger,
	}
}

// Submit runs task in its own goroutine. Tasks submitted after Shutdown are dropped.
func (p *Pool) Submit(name string, task func(ctx context.Context)) {
	p.start(name, func() {
		task(p.ctx)
	})
}

// SubmitWithTimeout is Submit with a per-task deadline.
func (p *Pool) SubmitWithTimeout(name string, timeout time.Duration, task func(ctx context.Context)) {
	p.start(name, func() {
		ctx, cancel := context.WithTimeout(p.ctx, timeout)
		defer cancel()
		task(ctx)
	})
}

func (p *Pool) start(name string, run func()) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		p.logger.Warn("⚠️ [Worker] Pool is shut down, dropping task", "task", name)
		return
	}
	p.wg.Add(1)
	p.mu.Unlock()

	go func() {
		defer p.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				p.logger.Error("❌ [Worker] Task panicked", "task", name, "panic", r)
			}
		}()

		p.logger.Debug("⚙️ [Worker] Task started", "task", name)
		run()
	}()
}

// Context returns the pool's context
func (p *Pool) Context() context.Context {
	return p.ctx
}

// Wait blocks until every submitted task has returned or ctx is done. Running
// tasks are not cancelled.
func (p *Pool) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown stops accepting tasks, cancels running ones and waits until they
// return or ctx is done.
func (p *Pool) Shutdown(ctx context.Context) error {
	p.logger.Info("🛑 [Worker] Initiating graceful shutdown...")

	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()

	p.cancel()

	if err := p.Wait(ctx); err != nil {
		p.logger.Warn("⚠️ [Worker] Shutdown deadline exceeded, some tasks may not have completed")
		return err
	}

	p.logger.Info("✅ [Worker] All background tasks completed")
	return nil
}
