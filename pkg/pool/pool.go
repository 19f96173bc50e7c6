// Package pool implements the process-scoped worker pool (C7) that is the
// only component allowed to touch the Index Store's SQL connection. Each
// worker owns one *store.Store opened against the vault's database file;
// work is submitted as a closure and its result returned through a
// completion channel, the same submit-and-await shape the teacher's
// embeddings indexer uses for its batch workers, generalized here to a
// fixed-size FIFO pool instead of a one-shot batch.
package pool

import (
	"context"
	"runtime"
	"sync"

	"github.com/kimun-go/vaultcore/pkg/store"
	"github.com/kimun-go/vaultcore/pkg/vaulterr"
)

// DefaultSize returns min(4, cpu_count), the pool size used when Options
// does not override it.
func DefaultSize() int {
	n := runtime.NumCPU()
	if n > 4 {
		return 4
	}
	if n < 1 {
		return 1
	}
	return n
}

// Job is a unit of work submitted to the pool. It receives the worker's
// dedicated store connection and returns a result and an error.
type Job func(ctx context.Context, s *store.Store) (any, error)

type request struct {
	ctx    context.Context
	job    Job
	result chan result
}

type result struct {
	value any
	err   error
}

// Pool owns Size worker goroutines, each with its own *store.Store. Workers
// dequeue submissions FIFO; there is no per-caller affinity.
type Pool struct {
	jobs chan request

	mu     sync.Mutex
	closed bool
	done   chan struct{}
	wg     sync.WaitGroup
}

// Open opens Size connections against dbPath (via store.Open, so schema
// init and pragma setup run once per worker) and starts their workers. Size
// <= 0 uses DefaultSize.
func Open(ctx context.Context, dbPath string, size int) (*Pool, error) {
	if size <= 0 {
		size = DefaultSize()
	}

	conns := make([]*store.Store, 0, size)
	for i := 0; i < size; i++ {
		s, err := store.Open(ctx, dbPath)
		if err != nil {
			for _, opened := range conns {
				_ = opened.Close()
			}
			return nil, err
		}
		conns = append(conns, s)
	}

	p := &Pool{
		jobs: make(chan request),
		done: make(chan struct{}),
	}
	for _, s := range conns {
		p.wg.Add(1)
		go p.worker(s)
	}
	return p, nil
}

func (p *Pool) worker(s *store.Store) {
	defer p.wg.Done()
	defer s.Close()
	for {
		select {
		case <-p.done:
			return
		case req, ok := <-p.jobs:
			if !ok {
				return
			}
			v, err := req.job(req.ctx, s)
			select {
			case req.result <- result{value: v, err: err}:
			default:
				// result is buffered (cap 1), so this send never actually
				// blocks; kept as a guard against a future change to that.
			}
		}
	}
}

// Submit dispatches job to the next free worker and blocks until it
// completes, returning its result. A submission after Close returns
// ErrPoolClosed without running job. Cancelling ctx does not cancel an
// already-dispatched job (§4.7); it only stops Submit from waiting on it.
func (p *Pool) Submit(ctx context.Context, job Job) (any, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, vaulterr.ErrPoolClosed
	}
	p.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	req := request{ctx: ctx, job: job, result: make(chan result, 1)}
	select {
	case p.jobs <- req:
	case <-p.done:
		return nil, vaulterr.ErrPoolClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	select {
	case r := <-req.result:
		return r.value, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close marks the pool closed to new submissions, drains in-flight jobs,
// then closes every worker's connection.
func (p *Pool) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.mu.Unlock()

	close(p.done)
	p.wg.Wait()
	return nil
}
