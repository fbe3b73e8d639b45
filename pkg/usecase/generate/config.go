package generate

import (
	"math"
	"time"

	"github.com/m-mizutani/goerr/v2"
)

// ScoreWeights are the evaluator rubric weights. They must form a convex
// combination: each in [0,1], summing to 1.
type ScoreWeights struct {
	Relevance     float64
	Voice         float64
	Structure     float64
	Actionability float64
	Safety        float64
}

func (w ScoreWeights) sum() float64 {
	return w.Relevance + w.Voice + w.Structure + w.Actionability + w.Safety
}

// RankWeights weight the selector's candidate ranking terms.
type RankWeights struct {
	Keyword  float64
	Depth    float64
	Voice    float64
	Semantic float64
}

func (w RankWeights) sum() float64 {
	return w.Keyword + w.Depth + w.Voice + w.Semantic
}

// Config holds every pipeline tunable. Weights and thresholds live here
// rather than in code so the quality bar is an operational decision.
type Config struct {
	// MinQualityThreshold is the quality gate. Every result returned to
	// a caller scores at least this much.
	MinQualityThreshold float64

	// MaxAttempts bounds the live generation retries, one strategy each.
	MaxAttempts int

	// AttemptTimeout bounds one select+compose+evaluate cycle;
	// TotalTimeout bounds the whole request across all tiers. They are
	// independent knobs.
	AttemptTimeout time.Duration
	TotalTimeout   time.Duration

	// SelectTimeout bounds candidate ranking inside one attempt. On
	// expiry the selector returns whatever it has ranked so far.
	SelectTimeout time.Duration

	MinCandidates int
	MaxCandidates int

	// DiversityThreshold is the similarity above which a candidate is
	// skipped in favor of variety; RelevanceWeight balances relevance
	// against diversity during greedy selection.
	DiversityThreshold float64
	RelevanceWeight    float64

	// MinResultWords is the floor below which no passage is acceptable.
	MinResultWords int

	ScoreWeights ScoreWeights
	RankWeights  RankWeights

	// ScoreCacheTTL bounds how long precomputed fragment scores are
	// served before recomputation.
	ScoreCacheTTL time.Duration

	// Seed pins the composer's random source for reproducible output.
	// Nil means a fresh seed per request.
	Seed *int64
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		MinQualityThreshold: 0.85,
		MaxAttempts:         3,
		AttemptTimeout:      100 * time.Millisecond,
		TotalTimeout:        200 * time.Millisecond,
		SelectTimeout:       100 * time.Millisecond,
		MinCandidates:       3,
		MaxCandidates:       6,
		DiversityThreshold:  0.75,
		RelevanceWeight:     0.70,
		MinResultWords:      20,
		ScoreWeights: ScoreWeights{
			Relevance:     0.25,
			Voice:         0.20,
			Structure:     0.20,
			Actionability: 0.20,
			Safety:        0.15,
		},
		RankWeights: RankWeights{
			Keyword:  0.30,
			Depth:    0.20,
			Voice:    0.20,
			Semantic: 0.30,
		},
		ScoreCacheTTL: 5 * time.Minute,
	}
}

const weightEpsilon = 1e-9

// Validate fails loudly on configuration defects. A config that passes
// here cannot make Generate return an error at request time.
func (c *Config) Validate() error {
	if c.MinQualityThreshold <= 0 || c.MinQualityThreshold > 1 {
		return goerr.New("quality threshold must be in (0,1]", goerr.V("threshold", c.MinQualityThreshold))
	}
	if c.MaxAttempts < 1 {
		return goerr.New("max attempts must be at least 1", goerr.V("attempts", c.MaxAttempts))
	}
	if c.AttemptTimeout <= 0 || c.TotalTimeout <= 0 || c.SelectTimeout <= 0 {
		return goerr.New("timeouts must be positive")
	}
	if c.MinCandidates < 1 || c.MaxCandidates < c.MinCandidates {
		return goerr.New("candidate bounds are inconsistent",
			goerr.V("min", c.MinCandidates), goerr.V("max", c.MaxCandidates))
	}
	if c.RelevanceWeight < 0 || c.RelevanceWeight > 1 {
		return goerr.New("relevance weight must be in [0,1]", goerr.V("weight", c.RelevanceWeight))
	}
	if c.MinResultWords < 1 {
		return goerr.New("minimum result words must be positive")
	}
	if math.Abs(c.ScoreWeights.sum()-1.0) > weightEpsilon {
		return goerr.New("score weights must sum to 1", goerr.V("sum", c.ScoreWeights.sum()))
	}
	if math.Abs(c.RankWeights.sum()-1.0) > weightEpsilon {
		return goerr.New("rank weights must sum to 1", goerr.V("sum", c.RankWeights.sum()))
	}
	if c.ScoreCacheTTL <= 0 {
		return goerr.New("score cache TTL must be positive")
	}
	return nil
}
