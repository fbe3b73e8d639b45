package generate

import (
	"context"
	"errors"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/vybelabs/numen/pkg/adapter"
	"github.com/vybelabs/numen/pkg/model"
	"github.com/vybelabs/numen/pkg/repository"
	"github.com/vybelabs/numen/pkg/safety"
	"github.com/vybelabs/numen/pkg/utils/logging"
)

const (
	// fallbackGrace bounds the fallback tier after the total budget has
	// been spent: the request must still come back with usable text.
	fallbackGrace = 50 * time.Millisecond

	telemetryTimeout = 2 * time.Second
)

// Pipeline is the quality-gate orchestrator: it drives generation
// attempts through the strategy ladder, gates them on the evaluator, and
// falls through to the curated bank and the emergency tier. Every call
// returns a passage scoring at or above the configured threshold.
type Pipeline struct {
	selector  *Selector
	composer  *Composer
	evaluator *Evaluator
	bank      *Bank
	repo      repository.Repository
	telemetry adapter.Telemetry
	cfg       Config
	newRand   func() *rand.Rand
}

// Input contains dependencies for building a pipeline. Store is
// required; everything else has a default.
type Input struct {
	Store     ContentStore
	Bank      []*model.FallbackEntry
	Repo      repository.Repository
	Telemetry adapter.Telemetry
	Safety    *safety.Checker
	Embedder  adapter.Embedder
	Config    *Config
}

// New wires the pipeline and validates its configuration. Anything that
// could make Generate unable to honor the quality guarantee fails here,
// at startup, never at request time.
func New(ctx context.Context, input Input) (*Pipeline, error) {
	if input.Store == nil {
		return nil, goerr.New("content store is required")
	}

	cfg := DefaultConfig()
	if input.Config != nil {
		cfg = *input.Config
	}
	if err := cfg.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid pipeline config")
	}

	repo := input.Repo
	if repo == nil {
		repo = repository.NewMemory()
	}

	telemetry := input.Telemetry
	if telemetry == nil {
		telemetry = &adapter.SlogTelemetry{}
	}

	checker := input.Safety
	if checker == nil {
		var err error
		checker, err = safety.New(ctx)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to build safety checker")
		}
	}

	// bank entries feed FinalScore and result text directly without
	// passing the evaluator, so the score floor and the length floor are
	// both enforced here
	for _, e := range input.Bank {
		if err := e.Validate(); err != nil {
			return nil, goerr.Wrap(err, "invalid fallback bank entry")
		}
		if e.QualityScore < cfg.MinQualityThreshold {
			return nil, goerr.New("fallback bank entry below quality threshold",
				goerr.V("id", e.ID), goerr.V("score", e.QualityScore),
				goerr.V("threshold", cfg.MinQualityThreshold))
		}
		if wc := len(strings.Fields(e.BaseText)); wc < cfg.MinResultWords {
			return nil, goerr.New("fallback bank entry below minimum length",
				goerr.V("id", e.ID), goerr.V("words", wc),
				goerr.V("min", cfg.MinResultWords))
		}
		for p, v := range e.PersonaVariants {
			if strings.TrimSpace(v) == "" {
				continue
			}
			if wc := len(strings.Fields(v)); wc < cfg.MinResultWords {
				return nil, goerr.New("fallback bank variant below minimum length",
					goerr.V("id", e.ID), goerr.V("persona", p), goerr.V("words", wc),
					goerr.V("min", cfg.MinResultWords))
			}
		}
	}

	p := &Pipeline{
		selector:  NewSelector(input.Store, input.Embedder, cfg),
		composer:  NewComposer(cfg),
		evaluator: NewEvaluator(checker, cfg),
		bank:      NewBank(input.Bank, repo),
		repo:      repo,
		telemetry: telemetry,
		cfg:       cfg,
	}

	p.newRand = func() *rand.Rand {
		seed := time.Now().UnixNano()
		if cfg.Seed != nil {
			seed = *cfg.Seed
		}
		return rand.New(rand.NewPCG(uint64(seed), uint64(seed)>>1|1))
	}

	if err := p.verifyEmergencyTier(ctx); err != nil {
		return nil, err
	}

	return p, nil
}

// verifyEmergencyTier proves the last-resort tier clears the gate for
// every persona and number pair. A failure here is a configuration
// defect, caught before the first request.
func (p *Pipeline) verifyEmergencyTier(ctx context.Context) error {
	rng := rand.New(rand.NewPCG(1, 2))
	for _, persona := range model.Personas() {
		for a := 1; a <= 9; a++ {
			for b := a; b <= 9; b++ {
				reqCtx := model.Context{NumberA: a, NumberB: b, Persona: persona}
				passage := emergencyCompose(rng, reqCtx)
				score, err := p.evaluator.Evaluate(ctx, passage, reqCtx)
				if err != nil {
					return goerr.Wrap(err, "emergency verification failed")
				}
				if score.Overall < p.cfg.MinQualityThreshold {
					return goerr.New("emergency template below quality threshold",
						goerr.V("persona", persona), goerr.V("pair", reqCtx.PairKey()),
						goerr.V("score", score.Overall))
				}
			}
		}
	}
	return nil
}

// Generate produces one guaranteed-quality passage for the context. The
// only errors it returns are caller contract violations (invalid
// context); every pipeline-internal failure is recovered through the
// fallback tiers.
func (p *Pipeline) Generate(ctx context.Context, reqCtx model.Context) (*model.GenerationResult, error) {
	if err := reqCtx.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	requestID := model.NewRequestID()
	rng := p.newRand()

	totalCtx, cancel := context.WithTimeout(ctx, p.cfg.TotalTimeout)
	defer cancel()

	var (
		attempts     []model.GenerationAttempt
		liveAttempts int
	)

	for n := 1; n <= p.cfg.MaxAttempts; n++ {
		// cooperative cancellation: the budget is checked at attempt
		// boundaries, an attempt in flight is never pre-empted
		if totalCtx.Err() != nil {
			break
		}

		strategy := strategyForAttempt(n)
		attemptStart := time.Now()
		attemptCtx, cancelAttempt := context.WithTimeout(totalCtx, p.cfg.AttemptTimeout)
		passage, score, err := p.attempt(attemptCtx, reqCtx, rng, strategy)
		ctxErr := attemptCtx.Err()
		cancelAttempt()
		duration := time.Since(attemptStart)

		if err != nil && errors.Is(err, ErrContentUnavailable) {
			// zero matching fragments: generation is bypassed entirely,
			// no attempt slots are consumed
			attempts = append(attempts, model.GenerationAttempt{
				Strategy:      strategy,
				Duration:      duration,
				FailureReason: model.FailureContentUnavailable,
			})
			break
		}

		liveAttempts++

		switch {
		case err == nil && score.Overall >= p.cfg.MinQualityThreshold:
			attempts = append(attempts, model.GenerationAttempt{
				Strategy: strategy,
				Passage:  passage,
				Score:    score,
				Duration: duration,
			})
			result := p.buildResult(requestID, passage.Text, score.Overall, strategy, liveAttempts, false, start, attempts)
			p.finish(ctx, reqCtx, result, repository.OutcomeAccepted)
			return result, nil

		case err != nil && (errors.Is(err, context.DeadlineExceeded) || errors.Is(ctxErr, context.DeadlineExceeded)):
			attempts = append(attempts, model.GenerationAttempt{
				Strategy:      strategy,
				Duration:      duration,
				FailureReason: model.FailureTimeout,
			})

		case err != nil && errors.Is(err, context.Canceled):
			attempts = append(attempts, model.GenerationAttempt{
				Strategy:      strategy,
				Duration:      duration,
				FailureReason: model.FailureCancelled,
			})

		case err != nil:
			logging.From(ctx).Warn("generation attempt failed", "error", err, "strategy", strategy)
			attempts = append(attempts, model.GenerationAttempt{
				Strategy:      strategy,
				Passage:       passage,
				Duration:      duration,
				FailureReason: model.FailureBelowThreshold,
			})

		default:
			attempts = append(attempts, model.GenerationAttempt{
				Strategy:      strategy,
				Passage:       passage,
				Score:         score,
				Duration:      duration,
				FailureReason: model.FailureBelowThreshold,
			})
		}
	}

	return p.fallbackResult(ctx, reqCtx, rng, requestID, start, attempts, liveAttempts), nil
}

func (p *Pipeline) attempt(ctx context.Context, reqCtx model.Context, rng *rand.Rand, strategy model.Strategy) (*model.CandidatePassage, *model.QualityScore, error) {
	candidates, err := p.selector.Select(ctx, reqCtx)
	if err != nil {
		return nil, nil, err
	}

	passage := p.composer.Compose(rng, reqCtx, candidates, strategy)

	score, err := p.evaluator.Evaluate(ctx, passage, reqCtx)
	if err != nil {
		return passage, nil, err
	}
	return passage, score, nil
}

// fallbackResult runs the FALLBACK_LOOKUP and EMERGENCY tiers. It runs
// on a detached context: even a cancelled request comes back with text.
func (p *Pipeline) fallbackResult(ctx context.Context, reqCtx model.Context, rng *rand.Rand, requestID model.RequestID, start time.Time, attempts []model.GenerationAttempt, liveAttempts int) *model.GenerationResult {
	fbCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), fallbackGrace)
	defer cancel()

	entry, text, err := p.bank.Lookup(fbCtx, reqCtx)
	if err == nil {
		result := p.buildResult(requestID, text, entry.QualityScore, model.StrategyFallback, liveAttempts, true, start, attempts)
		p.finish(ctx, reqCtx, result, repository.OutcomeFallback)
		return result
	}
	if !errors.Is(err, ErrFallbackExhausted) {
		logging.From(ctx).Warn("fallback bank lookup failed", "error", err)
	}

	passage := emergencyCompose(rng, reqCtx)
	result := p.buildResult(requestID, passage.Text, p.cfg.MinQualityThreshold, model.StrategyEmergency, liveAttempts, true, start, attempts)
	p.finish(ctx, reqCtx, result, repository.OutcomeEmergency)
	return result
}

func (p *Pipeline) buildResult(requestID model.RequestID, text string, score float64, strategy model.Strategy, liveAttempts int, usedFallback bool, start time.Time, attempts []model.GenerationAttempt) *model.GenerationResult {
	return &model.GenerationResult{
		RequestID:     requestID,
		Text:          text,
		FinalScore:    score,
		StrategyUsed:  strategy,
		AttemptsUsed:  liveAttempts,
		TotalDuration: time.Since(start),
		UsedFallback:  usedFallback,
		Attempts:      attempts,
	}
}

// finish records statistics and emits telemetry. Both are best-effort:
// neither blocks nor fails the request.
func (p *Pipeline) finish(ctx context.Context, reqCtx model.Context, result *model.GenerationResult, outcome repository.Outcome) {
	bg := context.WithoutCancel(ctx)

	statsCtx, cancel := context.WithTimeout(bg, fallbackGrace)
	defer cancel()
	if err := p.repo.RecordOutcome(statsCtx, outcome, result.TotalDuration); err != nil {
		logging.From(ctx).Warn("failed to record outcome", "error", err)
	}

	record := adapter.NewTelemetryRecord(reqCtx, result)
	go func() {
		emitCtx, cancel := context.WithTimeout(bg, telemetryTimeout)
		defer cancel()
		if err := p.telemetry.Emit(emitCtx, record); err != nil {
			logging.From(bg).Debug("telemetry emission failed", "error", err)
		}
	}()
}

// Stats returns the repository's aggregate counters.
func (p *Pipeline) Stats(ctx context.Context) (*repository.Stats, error) {
	return p.repo.GetStats(ctx)
}
