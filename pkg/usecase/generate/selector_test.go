package generate_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/vybelabs/numen/pkg/model"
	"github.com/vybelabs/numen/pkg/usecase/generate"
)

// mapStore is a ContentStore stub backed by a plain map.
type mapStore struct {
	fragments map[string][]*model.ContentFragment
}

func newMapStore(fragments ...*model.ContentFragment) *mapStore {
	s := &mapStore{fragments: make(map[string][]*model.ContentFragment)}
	for _, f := range fragments {
		key := fmt.Sprintf("%s/%d", f.Persona, f.AssociatedNumber)
		s.fragments[key] = append(s.fragments[key], f)
	}
	return s
}

func (s *mapStore) Fetch(ctx context.Context, persona model.Persona, number int) []*model.ContentFragment {
	return s.fragments[fmt.Sprintf("%s/%d", persona, number)]
}

func TestSelectContentUnavailable(t *testing.T) {
	selector := generate.NewSelector(newMapStore(), nil, generate.DefaultConfig())

	_, err := selector.Select(t.Context(), oracleContext())
	gt.Error(t, err)
	gt.True(t, errors.Is(err, generate.ErrContentUnavailable))
}

func TestSelectRanksRelevantFirst(t *testing.T) {
	relevant := &model.ContentFragment{
		ID: "rel", Persona: model.PersonaOracle, AssociatedNumber: 3, Category: model.CategoryInsight,
		Text: "Creativity and imagination are revealing a vision of expression.", Intensity: 0.9,
	}
	offTopic := &model.ContentFragment{
		ID: "off", Persona: model.PersonaOracle, AssociatedNumber: 3, Category: model.CategoryReflection,
		Text: "Something ordinary happened on an ordinary afternoon.", Intensity: 0.1,
	}

	selector := generate.NewSelector(newMapStore(relevant, offTopic), nil, generate.DefaultConfig())

	candidates, err := selector.Select(t.Context(), oracleContext())
	gt.NoError(t, err)
	gt.True(t, len(candidates) >= 1)
	gt.Equal(t, candidates[0].ID, model.FragmentID("rel"))
}

func TestSelectBoundsCandidateCount(t *testing.T) {
	var fragments []*model.ContentFragment
	for i := 0; i < 20; i++ {
		fragments = append(fragments, &model.ContentFragment{
			ID:               model.FragmentID(fmt.Sprintf("f-%d", i)),
			Persona:          model.PersonaOracle,
			AssociatedNumber: 3,
			Category:         model.CategoryInsight,
			Text:             fmt.Sprintf("Fragment number %d speaks of creativity and vision today.", i),
			Intensity:        0.5,
		})
	}

	cfg := generate.DefaultConfig()
	selector := generate.NewSelector(newMapStore(fragments...), nil, cfg)

	candidates, err := selector.Select(t.Context(), oracleContext())
	gt.NoError(t, err)
	gt.True(t, len(candidates) >= 1)
	gt.True(t, len(candidates) <= cfg.MaxCandidates)
}

func TestSelectPullsFromBothNumbers(t *testing.T) {
	f3 := &model.ContentFragment{
		ID: "f3", Persona: model.PersonaOracle, AssociatedNumber: 3, Category: model.CategoryInsight,
		Text: "Creativity is unfolding through your expression this week.", Intensity: 0.6,
	}
	f7 := &model.ContentFragment{
		ID: "f7", Persona: model.PersonaOracle, AssociatedNumber: 7, Category: model.CategoryReflection,
		Text: "Wisdom and insight gather in your hours of solitude.", Intensity: 0.6,
	}

	selector := generate.NewSelector(newMapStore(f3, f7), nil, generate.DefaultConfig())

	candidates, err := selector.Select(t.Context(), oracleContext())
	gt.NoError(t, err)
	gt.Equal(t, len(candidates), 2)
}

func TestSelectDeterministic(t *testing.T) {
	selector := generate.NewSelector(newMapStore(testFragments()...), nil, generate.DefaultConfig())

	first, err := selector.Select(t.Context(), oracleContext())
	gt.NoError(t, err)
	second, err := selector.Select(t.Context(), oracleContext())
	gt.NoError(t, err)

	gt.Equal(t, first, second)
}
