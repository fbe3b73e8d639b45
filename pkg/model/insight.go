package model

import (
	"time"

	"github.com/google/uuid"
)

type RequestID string

// NewRequestID generates a new unique RequestID
func NewRequestID() RequestID {
	return RequestID(uuid.New().String())
}

// Strategy selects how the composer assembles a passage. Strategies are
// tried in a fixed order across retry attempts.
type Strategy string

const (
	// StrategyEnhanced favors more verbatim corpus content and high
	// structural variety.
	StrategyEnhanced Strategy = "enhanced"
	// StrategyStrict enforces a tighter word budget and voice fidelity.
	StrategyStrict Strategy = "strict"
	// StrategyPure uses corpus text with minimal restructuring.
	StrategyPure Strategy = "pure"

	// StrategyFallback and StrategyEmergency mark results that did not
	// come out of live composition.
	StrategyFallback  Strategy = "fallback"
	StrategyEmergency Strategy = "emergency"
)

// CandidatePassage is one composed passage before the quality gate.
type CandidatePassage struct {
	Text            string
	SourceFragments []FragmentID
	Strategy        Strategy
}

// QualityScore is the evaluator verdict. Overall is the configured
// weighted sum of the subscores and always stays in [0,1].
type QualityScore struct {
	Overall       float64
	Relevance     float64
	Voice         float64
	Structure     float64
	Actionability float64
	Safety        float64
}

// FailureReason classifies why one attempt did not produce the result.
type FailureReason string

const (
	FailureBelowThreshold     FailureReason = "quality_below_threshold"
	FailureContentUnavailable FailureReason = "content_unavailable"
	FailureTimeout            FailureReason = "timeout"
	FailureCancelled          FailureReason = "cancelled"
)

// GenerationAttempt is one entry of the per-request attempt log.
type GenerationAttempt struct {
	Strategy      Strategy
	Passage       *CandidatePassage
	Score         *QualityScore
	Duration      time.Duration
	FailureReason FailureReason
}

// GenerationResult is the externally visible outcome. Text is never empty
// and FinalScore never falls below the configured minimum threshold.
type GenerationResult struct {
	RequestID     RequestID
	Text          string
	FinalScore    float64
	StrategyUsed  Strategy
	AttemptsUsed  int
	TotalDuration time.Duration
	UsedFallback  bool
	Attempts      []GenerationAttempt
}
