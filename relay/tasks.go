package relay

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

/* TaskRunner executes best-effort side effects (usage counters,
 * last-event timestamps) off the request path. Submissions never block:
 * when the buffer is full the task is dropped and logged, because a
 * counter update is never worth stalling an ingest response for.
 */
type TaskRunner struct {
	tasks  chan func(context.Context)
	logger zerolog.Logger
	wg     sync.WaitGroup
	once   sync.Once
}

// NewTaskRunner starts a runner draining up to buffer queued tasks
func NewTaskRunner(buffer int, logger zerolog.Logger) *TaskRunner {
	if buffer <= 0 {
		buffer = 256
	}
	r := &TaskRunner{
		tasks:  make(chan func(context.Context), buffer),
		logger: logger,
	}
	r.wg.Add(1)
	go r.run()
	return r
}

func (r *TaskRunner) run() {
	defer r.wg.Done()
	for task := range r.tasks {
		// Each task gets its own deadline, detached from any request
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		task(ctx)
		cancel()
	}
}

// Submit queues a task without blocking; a full buffer drops it
func (r *TaskRunner) Submit(task func(context.Context)) {
	select {
	case r.tasks <- task:
	default:
		r.logger.Warn().Msg("background task buffer full, dropping task")
	}
}

// Close stops accepting tasks and waits for queued ones to finish
func (r *TaskRunner) Close() {
	r.once.Do(func() {
		close(r.tasks)
	})
	r.wg.Wait()
}
