package fraud

import (
	"context"
	"sync"
)

// MemoryStore is an in-memory Store used when no database is configured
// and in tests. Results are deep-copied on the way in and out.
type MemoryStore struct {
	mu       sync.RWMutex
	analyses []*Result
	alerts   []*Result
}

// NewMemoryStore creates an in-memory analysis archive.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) RecordAnalysis(ctx context.Context, res *Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.analyses = append(s.analyses, copyResult(res))
	return nil
}

func (s *MemoryStore) RecordAlert(ctx context.Context, res *Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alerts = append(s.alerts, copyResult(res))
	return nil
}

func (s *MemoryStore) ListAlerts(ctx context.Context, limit int) ([]*Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.alerts) == 0 {
		return nil, nil
	}
	start := len(s.alerts) - limit
	if start < 0 {
		start = 0
	}

	// Most recent first.
	out := make([]*Result, 0, len(s.alerts)-start)
	for i := len(s.alerts) - 1; i >= start; i-- {
		out = append(out, copyResult(s.alerts[i]))
	}
	return out, nil
}

// AnalysisCount reports how many analyses have been archived (test hook).
func (s *MemoryStore) AnalysisCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.analyses)
}

func copyResult(res *Result) *Result {
	cp := *res
	cp.DetectedAnomalies = append([]string(nil), res.DetectedAnomalies...)
	details := make(map[string]float64, len(res.Details))
	for k, v := range res.Details {
		details[k] = v
	}
	cp.Details = details
	return &cp
}
