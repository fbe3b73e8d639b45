package generate

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/vybelabs/numen/pkg/adapter"
	"github.com/vybelabs/numen/pkg/model"
	"github.com/vybelabs/numen/pkg/utils/logging"
	"golang.org/x/sync/errgroup"
)

// ErrContentUnavailable signals that the store has zero fragments for the
// requested persona and numbers. It is not user visible; the orchestrator
// skips straight to the fallback bank.
var ErrContentUnavailable = goerr.New("content unavailable")

// ContentStore is the read API of the corpus, owned elsewhere and static
// per release.
type ContentStore interface {
	Fetch(ctx context.Context, persona model.Persona, number int) []*model.ContentFragment
}

// Selector retrieves and ranks candidate fragments for one attempt.
type Selector struct {
	store    ContentStore
	embedder adapter.Embedder
	cache    *scoreCache
	cfg      Config
}

// NewSelector creates a selector. The embedder is optional; without one
// the semantic term uses a deterministic lexical cosine.
func NewSelector(store ContentStore, embedder adapter.Embedder, cfg Config) *Selector {
	return &Selector{
		store:    store,
		embedder: embedder,
		cache:    newScoreCache(cfg.ScoreCacheTTL),
		cfg:      cfg,
	}
}

type rankedFragment struct {
	fragment *model.ContentFragment
	score    float64
}

// Select returns 1..MaxCandidates fragments ordered by rank, balancing
// relevance against category/source diversity. It degrades under its time
// budget rather than erroring: on expiry whatever has been ranked so far
// is used. An empty pool is the one hard failure, ErrContentUnavailable.
func (s *Selector) Select(ctx context.Context, reqCtx model.Context) ([]*model.ContentFragment, error) {
	pool := s.fetchPool(ctx, reqCtx)
	if len(pool) == 0 {
		return nil, goerr.Wrap(ErrContentUnavailable, "no fragments for context",
			goerr.V("persona", reqCtx.Persona), goerr.V("pair", reqCtx.PairKey()))
	}

	ranked := s.rank(ctx, reqCtx, pool)
	return s.pick(ranked), nil
}

func (s *Selector) fetchPool(ctx context.Context, reqCtx model.Context) []*model.ContentFragment {
	pool := s.store.Fetch(ctx, reqCtx.Persona, reqCtx.NumberA)
	if reqCtx.NumberB != reqCtx.NumberA {
		pool = append(pool[:len(pool):len(pool)], s.store.Fetch(ctx, reqCtx.Persona, reqCtx.NumberB)...)
	}
	return pool
}

func (s *Selector) rank(ctx context.Context, reqCtx model.Context, pool []*model.ContentFragment) []rankedFragment {
	cacheKey := fmt.Sprintf("%s|%s|%s", reqCtx.Persona, reqCtx.PairKey(), reqCtx.SituationalTag)
	scores, ok := s.cache.get(cacheKey)
	if !ok {
		scores = s.scorePool(ctx, reqCtx, pool)
		if len(scores) == len(pool) {
			// only cache complete computations; partial results from a
			// timed-out pass would otherwise be served for the full TTL
			s.cache.put(cacheKey, scores)
		}
	}

	ranked := make([]rankedFragment, 0, len(pool))
	for _, f := range pool {
		score, scored := scores[f.ID]
		if !scored {
			// unscored fragments sink to the bottom but stay eligible
			score = 0
		}
		ranked = append(ranked, rankedFragment{fragment: f, score: score})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})
	return ranked
}

// scorePool computes rank scores concurrently under the select budget.
// Fragments still unscored at expiry are simply absent from the result.
func (s *Selector) scorePool(ctx context.Context, reqCtx model.Context, pool []*model.ContentFragment) map[model.FragmentID]float64 {
	scoreCtx, cancel := context.WithTimeout(ctx, s.cfg.SelectTimeout)
	defer cancel()

	query := s.queryText(reqCtx)
	results := make([]float64, len(pool))
	done := make([]bool, len(pool))

	eg, egCtx := errgroup.WithContext(scoreCtx)
	eg.SetLimit(4)
	for i, f := range pool {
		eg.Go(func() error {
			if egCtx.Err() != nil {
				return nil
			}
			results[i] = s.fragmentScore(egCtx, reqCtx, f, query)
			done[i] = true
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		logging.From(ctx).Warn("fragment scoring aborted", "error", err)
	}

	scores := make(map[model.FragmentID]float64, len(pool))
	for i, f := range pool {
		if done[i] {
			scores[f.ID] = results[i]
		}
	}
	return scores
}

func (s *Selector) queryText(reqCtx model.Context) string {
	var parts []string
	parts = append(parts, model.ThemeOf(reqCtx.NumberA).Keywords...)
	parts = append(parts, model.ThemeOf(reqCtx.NumberB).Keywords...)
	if reqCtx.SituationalTag != "" {
		parts = append(parts, reqCtx.SituationalTag)
	}
	return strings.Join(parts, " ")
}

func (s *Selector) fragmentScore(ctx context.Context, reqCtx model.Context, f *model.ContentFragment, query string) float64 {
	w := s.cfg.RankWeights
	return w.Keyword*keywordMatch(f, reqCtx) +
		w.Depth*f.Intensity +
		w.Voice*voiceMatch(f, reqCtx.Persona) +
		w.Semantic*s.semanticSimilarity(ctx, f, query)
}

// keywordMatch measures overlap between the fragment's text and tags and
// both numbers' keyword sets, normalized to [0,1].
func keywordMatch(f *model.ContentFragment, reqCtx model.Context) float64 {
	words := tokenSet(f.Text + " " + strings.Join(f.Tags, " "))

	hits := 0
	seen := make(map[string]struct{})
	for _, n := range []int{reqCtx.NumberA, reqCtx.NumberB} {
		for _, kw := range model.ThemeOf(n).Keywords {
			if _, dup := seen[kw]; dup {
				continue
			}
			seen[kw] = struct{}{}
			if _, ok := words[kw]; ok {
				hits++
			}
		}
	}

	const saturation = 4
	if hits > saturation {
		hits = saturation
	}
	return float64(hits) / saturation
}

// voiceMatch measures persona marker density in the fragment text.
func voiceMatch(f *model.ContentFragment, persona model.Persona) float64 {
	voice := persona.Voice()
	if voice == nil {
		return 0
	}
	words := tokenSet(f.Text)

	hits := 0
	for _, marker := range voice.Markers {
		if _, ok := words[marker]; ok {
			hits++
		}
	}
	const saturation = 3
	if hits > saturation {
		hits = saturation
	}
	return float64(hits) / saturation
}

func (s *Selector) semanticSimilarity(ctx context.Context, f *model.ContentFragment, query string) float64 {
	if s.embedder != nil {
		qv, qErr := s.embedder.Embed(ctx, query)
		fv, fErr := s.embedder.Embed(ctx, f.Text)
		if qErr == nil && fErr == nil {
			return vectorCosine(qv, fv)
		}
		logging.From(ctx).Debug("embedder unavailable, using lexical similarity")
	}
	return lexicalCosine(f.Text, query)
}

// pick selects greedily from the ranked list, weighting rank against
// diversity from already-chosen candidates. Candidates too similar to a
// chosen one are skipped once the minimum count is reached.
func (s *Selector) pick(ranked []rankedFragment) []*model.ContentFragment {
	chosen := make([]*model.ContentFragment, 0, s.cfg.MaxCandidates)
	remaining := make([]rankedFragment, len(ranked))
	copy(remaining, ranked)

	for len(chosen) < s.cfg.MaxCandidates && len(remaining) > 0 {
		bestIdx := -1
		bestScore := -1.0
		for i, cand := range remaining {
			sim := maxSimilarity(cand.fragment, chosen)
			if len(chosen) >= s.cfg.MinCandidates && sim > s.cfg.DiversityThreshold {
				continue
			}
			combined := s.cfg.RelevanceWeight*cand.score + (1-s.cfg.RelevanceWeight)*(1-sim)
			if combined > bestScore {
				bestIdx, bestScore = i, combined
			}
		}
		if bestIdx < 0 {
			break
		}
		chosen = append(chosen, remaining[bestIdx].fragment)
		remaining = append(remaining[:bestIdx], remaining[bestIdx+1:]...)
	}

	return chosen
}

func maxSimilarity(f *model.ContentFragment, chosen []*model.ContentFragment) float64 {
	var max float64
	for _, c := range chosen {
		sim := fragmentSimilarity(f, c)
		if sim > max {
			max = sim
		}
	}
	return max
}

// fragmentSimilarity blends category identity with text cosine.
func fragmentSimilarity(a, b *model.ContentFragment) float64 {
	sim := 0.7 * lexicalCosine(a.Text, b.Text)
	if a.Category == b.Category {
		sim += 0.3
	}
	return sim
}
