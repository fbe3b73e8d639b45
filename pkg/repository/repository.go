package repository

import (
	"context"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/vybelabs/numen/pkg/model"
)

var ErrNoCandidate = goerr.New("no fallback candidate")

// Outcome classifies how one generation request ended.
type Outcome string

const (
	OutcomeAccepted  Outcome = "accepted"
	OutcomeFallback  Outcome = "fallback"
	OutcomeEmergency Outcome = "emergency"
)

// Stats holds the aggregate counters kept across requests.
type Stats struct {
	Accepted      int64
	Fallback      int64
	Emergency     int64
	TotalRequests int64
	TotalDuration time.Duration
}

// AverageLatency returns the mean request duration, or zero when no
// requests have been recorded.
func (s *Stats) AverageLatency() time.Duration {
	if s.TotalRequests == 0 {
		return 0
	}
	return s.TotalDuration / time.Duration(s.TotalRequests)
}

// Repository owns the only cross-request mutable state: the fallback
// rotation clock and the aggregate statistics. Implementations must
// serialize updates so two concurrent claims for the same pair never
// return the same entry without advancing the rotation.
type Repository interface {
	// ClaimFallback picks the least-recently-used entry among candidates
	// for the pair key, advances its rotation position atomically, and
	// returns its ID. Candidates must be the full bank for the key.
	ClaimFallback(ctx context.Context, pairKey string, candidates []model.FallbackID) (model.FallbackID, error)

	// LastUsedAt reports when the entry was last claimed. A zero time
	// means the entry has never been used.
	LastUsedAt(ctx context.Context, id model.FallbackID) (time.Time, error)

	// RecordOutcome updates the aggregate counters for one finished
	// request.
	RecordOutcome(ctx context.Context, outcome Outcome, d time.Duration) error

	// GetStats returns a snapshot of the aggregate counters.
	GetStats(ctx context.Context) (*Stats, error)

	Close() error
}
