package pipeline

import (
	"context"
	"sync"

	"clipforge/config"
	"clipforge/fault"
	"clipforge/logger"
	"clipforge/storage"
)

// StatusReport is the readiness view of a job, recomputed from storage on
// every call. per_index is always in index order regardless of probe order.
type StatusReport struct {
	Ready    int    `json:"ready"`
	Total    int    `json:"total"`
	PerIndex []bool `json:"per_index"`
}

// Prober checks segment output existence. Probes are independent per index
// and run concurrently; an index beyond what was dispatched simply reports
// unavailable.
type Prober struct {
	cfg      config.StorageConfig
	resolver *storage.Resolver
}

func NewProber(cfg config.StorageConfig, resolver *storage.Resolver) *Prober {
	return &Prober{cfg: cfg, resolver: resolver}
}

// Status probes indices 0..expected-1. When expected is zero or negative the
// default probe range of 64 indices is scanned.
func (p *Prober) Status(ctx context.Context, jobID string, expected int) (StatusReport, error) {
	if err := ValidateJobID(jobID); err != nil {
		return StatusReport{}, err
	}
	if expected <= 0 {
		expected = config.DefaultProbeRange
	}

	perIndex := make([]bool, expected)
	errs := make([]error, expected)

	var wg sync.WaitGroup
	for i := 0; i < expected; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			loc := storage.ObjectRef(p.cfg.VideosBucket, SegmentKey(jobID, i))
			exists, err := p.resolver.Exists(ctx, loc)
			if err != nil {
				errs[i] = err
				return
			}
			perIndex[i] = exists
		}(i)
	}
	wg.Wait()

	ready := 0
	for i, ok := range perIndex {
		if ok {
			ready++
		}
		if errs[i] != nil {
			// A misconfigured probe surface is the caller's problem; a
			// transient transfer error just reads as not ready.
			if fault.Is(errs[i], fault.NoPresignMethod) {
				return StatusReport{}, errs[i]
			}
			logger.Warnf("probe failed for segment %d of %s: %v", i, jobID, errs[i])
		}
	}

	return StatusReport{Ready: ready, Total: expected, PerIndex: perIndex}, nil
}
