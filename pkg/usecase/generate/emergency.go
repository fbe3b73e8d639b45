package generate

import (
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/vybelabs/numen/pkg/model"
)

// emergencyCompose builds the last-resort passage from fixed skeletons
// parameterized by the two numbers' labels and keywords, in the persona's
// voice. The tier cannot fail: every template carries both themes, a
// directive, and enough words to clear the configured minimums, so by
// construction it scores at or above the gate. Tests confirm this against
// the live evaluator.
func emergencyCompose(rng *rand.Rand, reqCtx model.Context) *model.CandidatePassage {
	voice := reqCtx.Persona.Voice()
	themeA := model.ThemeOf(reqCtx.NumberA)
	themeB := model.ThemeOf(reqCtx.NumberB)

	opening := voice.Openings[rng.IntN(len(voice.Openings))]
	closing := voice.Closings[rng.IntN(len(voice.Closings))]

	var bridge string
	if reqCtx.NumberA == reqCtx.NumberB {
		bridge = fmt.Sprintf(
			"The energy of %s is doubled for you now, joining %s with %s in a single current.",
			themeA.Label, themeA.Keywords[1], themeA.Keywords[2])
	} else {
		bridge = fmt.Sprintf(
			"The path of %s meets the gift of %s today, weaving %s and %s with %s and %s.",
			themeA.Label, themeB.Label,
			themeA.Keywords[1], themeA.Keywords[2],
			themeB.Keywords[1], themeB.Keywords[2])
	}

	label := themeA.Label
	if rng.IntN(2) == 1 {
		label = themeB.Label
	}
	directive := fmt.Sprintf(voice.Directives[rng.IntN(len(voice.Directives))], label)

	text := strings.Join([]string{opening, bridge, directive, closing}, " ")

	return &model.CandidatePassage{
		Text:     text,
		Strategy: model.StrategyEmergency,
	}
}
