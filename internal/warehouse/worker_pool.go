package warehouse

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ppiankov/snowspectre/internal/models"
)

// TableProfile is the outcome of profiling one table
type TableProfile struct {
	Meta    models.TableMeta
	Columns []models.ColumnStat
	Err     error
}

// ColumnFetcher fetches column stats for a single table
type ColumnFetcher interface {
	FetchColumnStats(ctx context.Context, meta models.TableMeta) ([]models.ColumnStat, error)
}

// ProfilePool fans table profiling out over a fixed set of workers. Each
// worker rate-limits its queries and consults the stats cache first.
type ProfilePool struct {
	workers int
	fetcher ColumnFetcher
	cache   *StatsCache
	limiter *RateLimiter
	jobs    chan models.TableMeta
	results chan *TableProfile
	wg      sync.WaitGroup
	ctx     context.Context
	cancel  context.CancelFunc
	started bool
	mu      sync.Mutex
}

// NewProfilePool creates a profiling pool
func NewProfilePool(workers int, fetcher ColumnFetcher, cache *StatsCache, limiter *RateLimiter) *ProfilePool {
	if workers <= 0 {
		workers = 1
	}
	return &ProfilePool{
		workers: workers,
		fetcher: fetcher,
		cache:   cache,
		limiter: limiter,
		jobs:    make(chan models.TableMeta, workers*2),
		results: make(chan *TableProfile, workers*2),
	}
}

// Start starts the worker pool
func (p *ProfilePool) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.started {
		return
	}

	p.ctx, p.cancel = context.WithCancel(ctx)
	p.started = true

	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
}

func (p *ProfilePool) worker(id int) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("profile worker panic recovered",
				slog.Int("worker_id", id),
				slog.String("panic", fmt.Sprint(r)),
			)
		}
		p.wg.Done()
	}()

	for {
		select {
		case <-p.ctx.Done():
			return
		case meta, ok := <-p.jobs:
			if !ok {
				return
			}
			p.results <- p.profile(meta)
		}
	}
}

func (p *ProfilePool) profile(meta models.TableMeta) *TableProfile {
	if p.cache != nil {
		if stats := p.cache.Get(meta.FullName); stats != nil {
			return &TableProfile{Meta: meta, Columns: stats}
		}
	}

	if p.limiter != nil {
		if err := p.limiter.Wait(p.ctx); err != nil {
			return &TableProfile{Meta: meta, Err: err}
		}
	}

	stats, err := p.fetcher.FetchColumnStats(p.ctx, meta)
	if err != nil {
		return &TableProfile{Meta: meta, Err: err}
	}

	if p.cache != nil {
		p.cache.Set(meta.FullName, stats)
	}

	return &TableProfile{Meta: meta, Columns: stats}
}

// Submit submits a table to the pool
func (p *ProfilePool) Submit(meta models.TableMeta) {
	select {
	case <-p.ctx.Done():
		return
	case p.jobs <- meta:
	}
}

// Results returns the results channel
func (p *ProfilePool) Results() <-chan *TableProfile {
	return p.results
}

// Stop stops the pool and waits for all workers to finish
func (p *ProfilePool) Stop() {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return
	}
	p.mu.Unlock()

	close(p.jobs)
	p.wg.Wait()
	close(p.results)

	if p.cancel != nil {
		p.cancel()
	}

	p.mu.Lock()
	p.started = false
	p.mu.Unlock()
}
