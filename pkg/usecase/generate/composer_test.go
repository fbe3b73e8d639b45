package generate_test

import (
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/vybelabs/numen/pkg/model"
	"github.com/vybelabs/numen/pkg/usecase/generate"
)

func testFragments() []*model.ContentFragment {
	return []*model.ContentFragment{
		{
			ID: "f3-a", Persona: model.PersonaOracle, AssociatedNumber: 3, Category: model.CategoryInsight,
			Text: "The currents of creativity and imagination are gathering around your voice.", Intensity: 0.7,
		},
		{
			ID: "f3-b", Persona: model.PersonaOracle, AssociatedNumber: 3, Category: model.CategoryReflection,
			Text: "Joy and expression have been waiting in the unseen spaces of your week.", Intensity: 0.5,
		},
		{
			ID: "f7-a", Persona: model.PersonaOracle, AssociatedNumber: 7, Category: model.CategoryInsight,
			Text: "Wisdom and insight are revealing themselves through your solitude.", Intensity: 0.8,
		},
	}
}

func TestComposeDeterministicWithSameSeed(t *testing.T) {
	composer := generate.NewComposer(generate.DefaultConfig())
	reqCtx := oracleContext()

	first := composer.Compose(rand.New(rand.NewPCG(7, 7)), reqCtx, testFragments(), model.StrategyEnhanced)
	second := composer.Compose(rand.New(rand.NewPCG(7, 7)), reqCtx, testFragments(), model.StrategyEnhanced)

	gt.Equal(t, first.Text, second.Text)
	gt.Equal(t, first.SourceFragments, second.SourceFragments)
}

func TestComposeCarriesDirective(t *testing.T) {
	composer := generate.NewComposer(generate.DefaultConfig())
	reqCtx := oracleContext()

	for _, strategy := range []model.Strategy{model.StrategyEnhanced, model.StrategyStrict, model.StrategyPure} {
		passage := composer.Compose(rand.New(rand.NewPCG(1, 1)), reqCtx, testFragments(), strategy)
		gt.True(t, generate.HasDirective(passage.Text))
		gt.Equal(t, passage.Strategy, strategy)
	}
}

func TestComposeCoversBothNumbers(t *testing.T) {
	composer := generate.NewComposer(generate.DefaultConfig())
	reqCtx := oracleContext()

	passage := composer.Compose(rand.New(rand.NewPCG(2, 2)), reqCtx, testFragments(), model.StrategyEnhanced)

	numbers := make(map[int]bool)
	for _, id := range passage.SourceFragments {
		for _, f := range testFragments() {
			if f.ID == id {
				numbers[f.AssociatedNumber] = true
			}
		}
	}
	gt.True(t, numbers[3])
	gt.True(t, numbers[7])
}

func TestComposeRespectsWordBudget(t *testing.T) {
	composer := generate.NewComposer(generate.DefaultConfig())
	reqCtx := oracleContext()
	voice := reqCtx.Persona.Voice()

	for seed := uint64(0); seed < 8; seed++ {
		enhanced := composer.Compose(rand.New(rand.NewPCG(seed, seed)), reqCtx, testFragments(), model.StrategyEnhanced)
		gt.True(t, len(strings.Fields(enhanced.Text)) <= voice.MaxWords)

		strict := composer.Compose(rand.New(rand.NewPCG(seed, seed)), reqCtx, testFragments(), model.StrategyStrict)
		gt.True(t, len(strings.Fields(strict.Text)) <= voice.MaxWords*3/4)
	}
}

func TestComposeVerbatimByStrategy(t *testing.T) {
	composer := generate.NewComposer(generate.DefaultConfig())
	reqCtx := oracleContext()

	byID := make(map[model.FragmentID]string)
	for _, f := range testFragments() {
		byID[f.ID] = f.Text
	}

	for seed := uint64(0); seed < 8; seed++ {
		// pure keeps every fragment verbatim
		pure := composer.Compose(rand.New(rand.NewPCG(seed, seed)), reqCtx, testFragments(), model.StrategyPure)
		for _, id := range pure.SourceFragments {
			gt.True(t, strings.Contains(pure.Text, byID[id]))
		}

		// enhanced rewords part of its fragments
		enhanced := composer.Compose(rand.New(rand.NewPCG(seed, seed)), reqCtx, testFragments(), model.StrategyEnhanced)
		reworded := 0
		for _, id := range enhanced.SourceFragments {
			if !strings.Contains(enhanced.Text, byID[id]) {
				reworded++
			}
		}
		gt.True(t, reworded >= 1)
	}
}

func TestComposeVariesAcrossSeeds(t *testing.T) {
	composer := generate.NewComposer(generate.DefaultConfig())
	reqCtx := oracleContext()

	texts := make(map[string]struct{})
	for seed := uint64(0); seed < 16; seed++ {
		passage := composer.Compose(rand.New(rand.NewPCG(seed, seed+1)), reqCtx, testFragments(), model.StrategyEnhanced)
		texts[passage.Text] = struct{}{}
	}
	gt.True(t, len(texts) > 1)
}
