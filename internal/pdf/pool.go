package pdf

import (
	"errors"
	"runtime"
	"sync"
	"time"
)

// Pool sizing constants.
const (
	// MinPoolSize ensures at least one worker is available.
	MinPoolSize = 1

	// MaxPoolSize caps browser instances to limit memory (~200MB each).
	MaxPoolSize = 8

	// cpuDivisor leaves headroom for Chrome child processes.
	cpuDivisor = 2
)

// Pool hands out Exporters, each with its own browser, so documents can be
// printed in parallel. Exporters are created lazily on first acquire.
type Pool struct {
	size      int
	newFn     func() *Exporter
	exporters []*Exporter
	sem       chan *Exporter
	mu        sync.Mutex
	created   int
	closed    bool
}

// NewPool creates a pool with capacity for n exporters using timeout for
// page loads.
func NewPool(n int, timeout time.Duration) *Pool {
	return newPool(n, func() *Exporter { return NewExporter(timeout) })
}

func newPool(n int, newFn func() *Exporter) *Pool {
	if n < 1 {
		n = 1
	}
	return &Pool{
		size:      n,
		newFn:     newFn,
		exporters: make([]*Exporter, 0, n),
		sem:       make(chan *Exporter, n),
	}
}

// Acquire gets an exporter from the pool, creating one if needed.
// Blocks if all exporters are in use. Returns nil after Close.
func (p *Pool) Acquire() *Exporter {
	select {
	case e := <-p.sem:
		return e
	default:
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	if p.created < p.size {
		p.created++
		p.mu.Unlock()

		e := p.newFn()

		p.mu.Lock()
		p.exporters = append(p.exporters, e)
		p.mu.Unlock()
		return e
	}
	p.mu.Unlock()

	return <-p.sem
}

// Release returns an exporter to the pool.
func (p *Pool) Release(e *Exporter) {
	if e == nil {
		return
	}
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.mu.Unlock()

	p.sem <- e
}

// Close releases all browser resources.
// Returns an aggregated error if several exporters fail to close.
func (p *Pool) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.sem)
	exporters := p.exporters
	p.mu.Unlock()

	var errs []error
	for _, e := range exporters {
		if err := e.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Size returns the pool capacity.
func (p *Pool) Size() int {
	return p.size
}

// ResolvePoolSize determines the browser pool size.
// Priority: explicit workers > GOMAXPROCS-based calculation.
func ResolvePoolSize(workers int) int {
	if workers > 0 {
		return workers
	}

	// GOMAXPROCS is container-aware once automaxprocs has run.
	n := runtime.GOMAXPROCS(0) / cpuDivisor
	if n < MinPoolSize {
		return MinPoolSize
	}
	if n > MaxPoolSize {
		return MaxPoolSize
	}
	return n
}
