// Package dispatch runs inbound message handlers on a bounded worker pool.
package dispatch

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/chris/kiosk-settlement/pkg/transport"
	"golang.org/x/sync/semaphore"
)

// DefaultTaskTimeout bounds a task when New is given no timeout.
const DefaultTaskTimeout = time.Minute

// Pool limits the number of handlers running at once. Submitting blocks
// while the pool is full, which pushes back on the transport.
type Pool struct {
	sem     *semaphore.Weighted
	wg      sync.WaitGroup
	timeout time.Duration
	logger  *slog.Logger
}

// New creates a Pool running at most size handlers concurrently, each
// bounded by taskTimeout.
func New(size int, taskTimeout time.Duration, logger *slog.Logger) *Pool {
	if size < 1 {
		size = 1
	}
	if taskTimeout <= 0 {
		taskTimeout = DefaultTaskTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Pool{sem: semaphore.NewWeighted(int64(size)), timeout: taskTimeout, logger: logger}
}

// Submit runs task on a worker. The task context keeps ctx's values but not
// its cancellation: a task that has been accepted runs to completion even
// when the caller is shutting down. The task timeout covers both waiting for
// a worker and running.
func (p *Pool) Submit(ctx context.Context, name string, task func(context.Context) error) error {
	taskCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.timeout)
	if err := p.sem.Acquire(taskCtx, 1); err != nil {
		cancel()
		p.logger.Warn("dropping task, pool saturated for the whole task timeout", "task", name, "error", err)
		return err
	}
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer p.sem.Release(1)
		defer cancel()
		if err := task(taskCtx); err != nil {
			p.logger.Error("task failed", "task", name, "error", err)
		}
	}()
	return nil
}

// Handler wraps h so every message is processed on the pool.
func (p *Pool) Handler(name string, h transport.Handler) transport.Handler {
	return func(ctx context.Context, payload []byte) error {
		return p.Submit(ctx, name, func(ctx context.Context) error {
			return h(ctx, payload)
		})
	}
}

// Wait blocks until all submitted tasks have finished.
func (p *Pool) Wait() {
	p.wg.Wait()
}
