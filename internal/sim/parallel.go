package sim

import (
	"context"
	"math/rand"
	"sync"
)

// Ensemble runs the same scene from consecutive seeds concurrently, each
// run with its own store and pool.
type Ensemble struct {
	cfg       Config
	count     int
	disc      DiscParams
	opts      []Option
	numRuns   int
	seedStart int64
}

func NewEnsemble(cfg Config, count int, disc DiscParams, numRuns int, seedStart int64, opts ...Option) *Ensemble {
	return &Ensemble{cfg: cfg, count: count, disc: disc, opts: opts, numRuns: numRuns, seedStart: seedStart}
}

func (e *Ensemble) Run(ctx context.Context, metrics func() []Metric) ([]*Result, error) {
	results := make([]*Result, e.numRuns)
	errs := make([]error, e.numRuns)

	var wg sync.WaitGroup
	for i := 0; i < e.numRuns; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			s, err := New(e.cfg, e.opts...)
			if err != nil {
				errs[idx] = err
				return
			}
			if metrics != nil {
				for _, m := range metrics() {
					s.AddMetric(m)
				}
			}
			rng := rand.New(rand.NewSource(e.seedStart + int64(idx)))
			if err := s.Initialize(e.count, e.disc, rng); err != nil {
				errs[idx] = err
				return
			}
			results[idx], errs[idx] = s.Run(ctx)
		}(i)
	}

	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	return results, nil
}
