package sweeper

import (
	"context"
	"log/slog"
	"sync"
)

// Task represents a unit of work
type Task func(ctx context.Context) error

// WorkerPool fans a batch of tasks out over a fixed number of goroutines.
// One pool serves one sweep; Wait drains the queue and the pool is done.
type WorkerPool struct {
	workerCount int
	taskQueue   chan Task
	wg          sync.WaitGroup
	ctx         context.Context
	cancel      context.CancelFunc
	closed      bool
	closeMux    sync.Mutex
	logger      *slog.Logger
}

// NewWorkerPool creates a pool with the specified number of workers
func NewWorkerPool(ctx context.Context, workerCount int, logger *slog.Logger) *WorkerPool {
	ctx, cancel := context.WithCancel(ctx)
	return &WorkerPool{
		workerCount: workerCount,
		taskQueue:   make(chan Task, workerCount*2),
		ctx:         ctx,
		cancel:      cancel,
		logger:      logger,
	}
}

// Start launches worker goroutines
func (wp *WorkerPool) Start() {
	for i := 0; i < wp.workerCount; i++ {
		wp.wg.Add(1)
		go wp.worker(i)
	}
}

// Submit adds a task to the queue
func (wp *WorkerPool) Submit(task Task) {
	select {
	case wp.taskQueue <- task:
	case <-wp.ctx.Done():
		wp.logger.Warn("worker pool shutting down, task rejected")
	}
}

// Wait blocks until all submitted tasks complete, then releases the pool's
// derived context.
func (wp *WorkerPool) Wait() {
	wp.closeMux.Lock()
	if !wp.closed {
		close(wp.taskQueue)
		wp.closed = true
	}
	wp.closeMux.Unlock()

	wp.wg.Wait()
	wp.cancel()
}

// Shutdown cancels all workers
func (wp *WorkerPool) Shutdown() {
	wp.cancel()
	wp.Wait()
}

// worker processes tasks from the queue
func (wp *WorkerPool) worker(id int) {
	defer wp.wg.Done()

	for {
		select {
		case task, ok := <-wp.taskQueue:
			if !ok {
				return
			}
			if err := task(wp.ctx); err != nil {
				wp.logger.Error("sweep task failed", "worker", id, "error", err)
			}
		case <-wp.ctx.Done():
			return
		}
	}
}
