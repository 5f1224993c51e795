package quarantine

import (
	"context"
	"log"
	"sync"
)

// Pool is a bounded worker pool for fire-and-forget work that must not run
// on the request path (post-commit notifications, status fan-out). It is
// owned by the registry and drained on shutdown; a full queue drops the task
// with a warning instead of growing without bound.
type Pool struct {
	tasks  chan func()
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewPool starts workers goroutines draining a queue of queueSize tasks.
func NewPool(workers, queueSize int) *Pool {
	if workers <= 0 {
		workers = 2
	}
	if queueSize <= 0 {
		queueSize = 64
	}

	ctx, cancel := context.WithCancel(context.Background())
	p := &Pool{
		tasks:  make(chan func(), queueSize),
		ctx:    ctx,
		cancel: cancel,
	}

	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.run()
	}

	return p
}

func (p *Pool) run() {
	defer p.wg.Done()

	for {
		select {
		case <-p.ctx.Done():
			return
		case task, ok := <-p.tasks:
			if !ok {
				return
			}
			task()
		}
	}
}

// Submit enqueues a task. Returns false when the pool is stopped or the
// queue is full.
func (p *Pool) Submit(task func()) bool {
	select {
	case <-p.ctx.Done():
		return false
	default:
	}

	select {
	case p.tasks <- task:
		return true
	default:
		log.Println("[quarantine] worker pool queue full, dropping task")
		return false
	}
}

// Stop cancels the workers and waits for in-flight tasks to finish.
func (p *Pool) Stop() {
	p.cancel()
	p.wg.Wait()
}
