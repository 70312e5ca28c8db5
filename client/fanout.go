package client

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/luca-patrignani/war/metrics"
)

// DefaultConcurrency is the in-flight cap RunMany uses when given none.
const DefaultConcurrency = 1000

// Result is one driver run as reported by RunMany.
type Result struct {
	Index   int
	Outcome Outcome
	Err     error
	Kind    FailureKind
}

// Report aggregates a RunMany batch. Results are in completion order.
type Report struct {
	Launched  int
	Completed int
	Failures  map[FailureKind]int
	Results   []Result
}

type fanoutConfig struct {
	metrics *metrics.Metrics
}

type fanoutOption func(*fanoutConfig)

// WithMetrics records every run outcome on m.
func WithMetrics(m *metrics.Metrics) fanoutOption {
	return func(c *fanoutConfig) {
		c.metrics = m
	}
}

// RunMany plays n games with drivers from newDriver, at most limit at a
// time. A limit below one means DefaultConcurrency. Once ctx is done no new
// driver is admitted; running ones finish on their own.
func RunMany(ctx context.Context, n, limit int, newDriver func() *Driver, opts ...fanoutOption) Report {
	var cfg fanoutConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	if limit < 1 {
		limit = DefaultConcurrency
	}

	sem := semaphore.NewWeighted(int64(limit))
	results := make(chan Result)
	launched := 0
	go func() {
		var wg sync.WaitGroup
		defer close(results)
		defer wg.Wait()
		for i := range n {
			if ctx.Err() != nil {
				return
			}
			if err := sem.Acquire(ctx, 1); err != nil {
				return
			}
			launched++
			wg.Add(1)
			go func() {
				defer wg.Done()
				defer sem.Release(1)
				out, err := newDriver().Play(context.WithoutCancel(ctx))
				results <- Result{Index: i, Outcome: out, Err: err, Kind: Classify(err)}
			}()
		}
	}()

	report := Report{Failures: make(map[FailureKind]int)}
	for r := range results {
		if r.Err == nil {
			report.Completed++
			cfg.metrics.ClientRun("completed")
		} else {
			report.Failures[r.Kind]++
			cfg.metrics.ClientRun(r.Kind.String())
		}
		report.Results = append(report.Results, r)
	}
	report.Launched = launched
	return report
}
