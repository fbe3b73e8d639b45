package generate_test

import (
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/vybelabs/numen/pkg/model"
	"github.com/vybelabs/numen/pkg/safety"
	"github.com/vybelabs/numen/pkg/usecase/generate"
)

func newEvaluator(t *testing.T) *generate.Evaluator {
	t.Helper()
	checker, err := safety.New(t.Context())
	gt.NoError(t, err)
	return generate.NewEvaluator(checker, generate.DefaultConfig())
}

func oracleContext() model.Context {
	return model.Context{NumberA: 3, NumberB: 7, Persona: model.PersonaOracle}
}

// a hand-built passage that touches both themes, uses oracle markers,
// and carries a directive
const goodOraclePassage = "A vision is forming in the unseen current of this day. " +
	"The threads of creativity and imagination weave through your hours, asking for expression. " +
	"Wisdom waits in the quiet spaces where truth and insight gather. " +
	"Take one step toward what the current of creativity is showing you. " +
	"The signs will keep unfolding as you move."

func TestEvaluateAcceptsGoodPassage(t *testing.T) {
	e := newEvaluator(t)

	score, err := e.Evaluate(t.Context(), &model.CandidatePassage{Text: goodOraclePassage}, oracleContext())
	gt.NoError(t, err)
	gt.True(t, score.Overall >= 0.85)
	gt.Equal(t, score.Safety, 1.0)
	gt.Equal(t, score.Actionability, 1.0)
}

func TestEvaluateDeterministic(t *testing.T) {
	e := newEvaluator(t)
	passage := &model.CandidatePassage{Text: goodOraclePassage}

	first, err := e.Evaluate(t.Context(), passage, oracleContext())
	gt.NoError(t, err)
	second, err := e.Evaluate(t.Context(), passage, oracleContext())
	gt.NoError(t, err)

	gt.Equal(t, first, second)
}

func TestEvaluateMissingDirective(t *testing.T) {
	e := newEvaluator(t)

	text := "A vision is forming in the unseen current of this day. " +
		"The threads of creativity weave through your hours. " +
		"Wisdom waits in the quiet spaces where insight gathers and truth settles softly."
	score, err := e.Evaluate(t.Context(), &model.CandidatePassage{Text: text}, oracleContext())
	gt.NoError(t, err)
	gt.Equal(t, score.Actionability, 0.0)
	gt.True(t, score.Overall < 0.85)
}

func TestEvaluateSafetyVeto(t *testing.T) {
	e := newEvaluator(t)

	text := goodOraclePassage + " This alignment will definitely cure what ails you."
	score, err := e.Evaluate(t.Context(), &model.CandidatePassage{Text: text}, oracleContext())
	gt.NoError(t, err)
	gt.Equal(t, score.Safety, 0.0)
	gt.Equal(t, score.Overall, 0.0)
}

func TestEvaluateEnforcesLengthFloor(t *testing.T) {
	e := newEvaluator(t)

	// strong on every other axis, but under the configured word minimum:
	// the length floor must veto outright rather than shave the structure
	// subscore
	text := "Vision unfolds in creativity and imagination. Take one step toward wisdom and insight."
	score, err := e.Evaluate(t.Context(), &model.CandidatePassage{Text: text}, oracleContext())
	gt.NoError(t, err)
	gt.Equal(t, score.Safety, 1.0)
	gt.Equal(t, score.Actionability, 1.0)
	gt.Equal(t, score.Overall, 0.0)
}

func TestEvaluateShortPassage(t *testing.T) {
	e := newEvaluator(t)

	score, err := e.Evaluate(t.Context(), &model.CandidatePassage{Text: "Take the creativity path."}, oracleContext())
	gt.NoError(t, err)
	gt.True(t, score.Structure < 1.0)
	gt.True(t, score.Overall < 0.85)
}

func TestEvaluateForeignMarkersPenalized(t *testing.T) {
	e := newEvaluator(t)

	ctx := t.Context()
	oracleText := &model.CandidatePassage{Text: goodOraclePassage}

	asOracle, err := e.Evaluate(ctx, oracleText, oracleContext())
	gt.NoError(t, err)
	asScholar, err := e.Evaluate(ctx, oracleText, model.Context{NumberA: 3, NumberB: 7, Persona: model.PersonaScholar})
	gt.NoError(t, err)

	gt.True(t, asOracle.Voice > asScholar.Voice)
}

func TestHasDirective(t *testing.T) {
	directives := []string{
		"Take one small step toward what you imagine.",
		"Notice where your attention goes first thing today.",
		"You should give the harmony theme room to breathe.",
	}
	for _, text := range directives {
		gt.True(t, generate.HasDirective(text))
	}

	nonDirectives := []string{
		"The day unfolds in patterns of seven.",
		"Wisdom gathers in quiet places.",
		"",
	}
	for _, text := range nonDirectives {
		gt.False(t, generate.HasDirective(text))
	}
}
