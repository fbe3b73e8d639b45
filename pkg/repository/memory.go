package repository

import (
	"context"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/vybelabs/numen/pkg/model"
)

// Memory is the in-process Repository used by default and in tests.
// Rotation order is tracked with a monotonic sequence so lastUsedAt is
// strictly increasing even when the wall clock is not.
type Memory struct {
	mu    sync.Mutex
	seq   uint64
	used  map[model.FallbackID]uint64
	at    map[model.FallbackID]time.Time
	stats Stats
}

// NewMemory creates an empty in-memory repository.
func NewMemory() *Memory {
	return &Memory{
		used: make(map[model.FallbackID]uint64),
		at:   make(map[model.FallbackID]time.Time),
	}
}

func (m *Memory) ClaimFallback(ctx context.Context, pairKey string, candidates []model.FallbackID) (model.FallbackID, error) {
	if len(candidates) == 0 {
		return "", goerr.Wrap(ErrNoCandidate, "empty candidate set", goerr.V("pair", pairKey))
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	best := candidates[0]
	bestSeq := m.used[best]
	for _, id := range candidates[1:] {
		if s := m.used[id]; s < bestSeq {
			best, bestSeq = id, s
		}
	}

	m.seq++
	m.used[best] = m.seq
	m.at[best] = time.Now()
	return best, nil
}

func (m *Memory) LastUsedAt(ctx context.Context, id model.FallbackID) (time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.at[id], nil
}

func (m *Memory) RecordOutcome(ctx context.Context, outcome Outcome, d time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch outcome {
	case OutcomeAccepted:
		m.stats.Accepted++
	case OutcomeFallback:
		m.stats.Fallback++
	case OutcomeEmergency:
		m.stats.Emergency++
	default:
		return goerr.New("unknown outcome", goerr.V("outcome", outcome))
	}
	m.stats.TotalRequests++
	m.stats.TotalDuration += d
	return nil
}

func (m *Memory) GetStats(ctx context.Context) (*Stats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	snapshot := m.stats
	return &snapshot, nil
}

func (m *Memory) Close() error {
	return nil
}
