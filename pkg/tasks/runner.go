package tasks

import (
	"log"
	"sync"
)

// Runner executes fire-and-forget side tasks on a small worker pool. Tasks are
// never awaited by callers; failures are logged and swallowed.
type Runner struct {
	queue chan job

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

type job struct {
	name string
	fn   func() error
}

func NewRunner(workers, queueSize int) *Runner {
	if workers <= 0 {
		workers = 1
	}
	if queueSize <= 0 {
		queueSize = 16
	}
	r := &Runner{queue: make(chan job, queueSize)}
	for i := 0; i < workers; i++ {
		r.wg.Add(1)
		go r.work()
	}
	return r
}

func (r *Runner) work() {
	defer r.wg.Done()
	for j := range r.queue {
		r.run(j)
	}
}

func (r *Runner) run(j job) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Printf("[tasks] %s panicked: %v", j.name, rec)
		}
	}()
	if err := j.fn(); err != nil {
		log.Printf("[tasks] %s failed: %v", j.name, err)
	}
}

// Submit enqueues a task without blocking. When the queue is full the task is
// dropped, which is acceptable for best-effort side work.
func (r *Runner) Submit(name string, fn func() error) bool {
	if r == nil || fn == nil {
		return false
	}
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return false
	}
	select {
	case r.queue <- job{name: name, fn: fn}:
		r.mu.Unlock()
		return true
	default:
		r.mu.Unlock()
		log.Printf("[tasks] queue full, dropping %s", name)
		return false
	}
}

// Close stops accepting tasks and waits for in-flight ones to finish.
func (r *Runner) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	close(r.queue)
	r.mu.Unlock()
	r.wg.Wait()
}
