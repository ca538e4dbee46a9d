package enrich

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Store is the write-back contract: derived fields keyed by idea id.
type Store interface {
	UpdateEnrichment(ctx context.Context, id int64, project, theme, emotion string) error
}

type job struct {
	ideaID  int64
	content string
}

// Dispatcher runs enrichment off the request path: a bounded queue fed by
// Enqueue and drained by a fixed worker pool. Delivery is at-most-once with
// no ordering guarantee across ideas; a trigger dropped on a full queue or
// lost to a process exit leaves the idea permanently unenriched.
type Dispatcher struct {
	analyzer *Analyzer
	store    Store
	logger   *zap.SugaredLogger

	jobs chan job
	wg   sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

// NewDispatcher constructs a Dispatcher with the given worker count and
// queue capacity and starts its workers.
func NewDispatcher(analyzer *Analyzer, store Store, logger *zap.SugaredLogger, workers, queueSize int) *Dispatcher {
	if workers <= 0 {
		workers = 2
	}
	if queueSize <= 0 {
		queueSize = 64
	}
	d := &Dispatcher{
		analyzer: analyzer,
		store:    store,
		logger:   logger,
		jobs:     make(chan job, queueSize),
	}
	for i := 0; i < workers; i++ {
		d.wg.Add(1)
		go d.worker()
	}
	return d
}

// Enqueue submits a fire-and-forget enrichment trigger. It never blocks:
// when the queue is full the trigger is dropped and Enqueue reports false.
func (d *Dispatcher) Enqueue(ideaID int64, content string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return false
	}
	select {
	case d.jobs <- job{ideaID: ideaID, content: content}:
		return true
	default:
		return false
	}
}

// Close stops intake and waits for in-flight jobs to finish. Queued jobs are
// drained; a job is not cancellable once dispatched.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.jobs)
	d.mu.Unlock()
	d.wg.Wait()
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()
	for j := range d.jobs {
		d.process(j)
	}
}

// process analyzes one idea and writes the derived fields back. Failures
// are logged and swallowed; there is no retry.
func (d *Dispatcher) process(j job) {
	// worker contexts are rooted in Background: the originating request has
	// already been answered and must not cancel this write
	ctx, cancel := context.WithTimeout(context.Background(), 45*time.Second)
	defer cancel()

	res := d.analyzer.Analyze(ctx, j.content)
	if err := d.store.UpdateEnrichment(ctx, j.ideaID, res.Project, res.Theme, res.Emotion); err != nil {
		d.logger.Warnw("enrichment write-back failed", "idea_id", j.ideaID, "err", err)
		return
	}
	d.logger.Debugw("idea enriched",
		"idea_id", j.ideaID,
		"project", res.Project,
		"theme", res.Theme,
		"emotion", res.Emotion,
	)
}
