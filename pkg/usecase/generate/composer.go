package generate

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"unicode"

	"github.com/vybelabs/numen/pkg/model"
)

// Composer assembles selected fragments into one candidate passage. All
// randomness is drawn from the injected source so a pinned seed
// reproduces the passage exactly.
type Composer struct {
	cfg Config
}

func NewComposer(cfg Config) *Composer {
	return &Composer{cfg: cfg}
}

type strategyParams struct {
	maxFragments int
	maxWords     int
	withOpening  bool
	withClosing  bool

	// reworded is how many of the picked fragments are lightly
	// paraphrased; the rest stay verbatim
	reworded int
}

// strategyForAttempt returns the strategy for the nth attempt (1-based).
// The order is fixed: each retry genuinely changes how the passage is
// built, which is what gives the quality gate fresh candidates.
func strategyForAttempt(n int) model.Strategy {
	switch n {
	case 1:
		return model.StrategyEnhanced
	case 2:
		return model.StrategyStrict
	default:
		return model.StrategyPure
	}
}

func paramsFor(strategy model.Strategy, voice *model.VoiceProfile) strategyParams {
	switch strategy {
	case model.StrategyStrict:
		// tight budget, one fragment reworded, persona frame on one side
		return strategyParams{maxFragments: 2, maxWords: voice.MaxWords * 3 / 4, withOpening: true, reworded: 1}
	case model.StrategyPure:
		// corpus text fully verbatim
		return strategyParams{maxFragments: 2, maxWords: voice.MaxWords, withClosing: true}
	default: // enhanced
		return strategyParams{maxFragments: 3, maxWords: voice.MaxWords, withOpening: true, withClosing: true, reworded: 2}
	}
}

// connectives anchor a reworded fragment into the surrounding passage.
var connectives = []string{"Here,", "In this pairing,", "Through it all,"}

// reword lightly paraphrases a fragment sentence by folding it behind a
// connective. The fragment's vocabulary is kept intact so relevance and
// voice scoring see the same words.
func reword(rng *rand.Rand, text string) string {
	conn := connectives[rng.IntN(len(connectives))]
	runes := []rune(text)
	if len(runes) > 0 {
		runes[0] = unicode.ToLower(runes[0])
	}
	return conn + " " + string(runes)
}

// Compose builds one candidate passage. Candidates must be non-empty.
func (c *Composer) Compose(rng *rand.Rand, reqCtx model.Context, candidates []*model.ContentFragment, strategy model.Strategy) *model.CandidatePassage {
	voice := reqCtx.Persona.Voice()
	params := paramsFor(strategy, voice)

	// shuffle a copy so repeated calls with the same context vary
	pool := make([]*model.ContentFragment, len(candidates))
	copy(pool, candidates)
	rng.Shuffle(len(pool), func(i, j int) {
		pool[i], pool[j] = pool[j], pool[i]
	})

	n := params.maxFragments
	if n > len(pool) {
		n = len(pool)
	}
	picked := pickCovering(pool, reqCtx, n)

	var sentences []string
	var sources []model.FragmentID

	if params.withOpening {
		sentences = append(sentences, voice.Openings[rng.IntN(len(voice.Openings))])
	}
	for i, f := range picked {
		line := f.Text
		if i < params.reworded {
			line = reword(rng, line)
		}
		sentences = append(sentences, line)
		sources = append(sources, f.ID)
	}
	sentences = append(sentences, c.directive(rng, reqCtx, voice))
	if params.withClosing {
		sentences = append(sentences, voice.Closings[rng.IntN(len(voice.Closings))])
	}

	text := strings.Join(sentences, " ")
	text = c.trimToBudget(text, sentences, params.maxWords)

	return &model.CandidatePassage{
		Text:            text,
		SourceFragments: sources,
		Strategy:        strategy,
	}
}

// pickCovering takes n fragments from the shuffled pool, preferring one
// for each of the two numbers before filling the rest in shuffle order.
// A passage touching both themes clears the relevance bar far more often.
func pickCovering(pool []*model.ContentFragment, reqCtx model.Context, n int) []*model.ContentFragment {
	picked := make([]*model.ContentFragment, 0, n)
	used := make(map[model.FragmentID]struct{})

	take := func(number int) {
		for _, f := range pool {
			if _, ok := used[f.ID]; ok {
				continue
			}
			if f.AssociatedNumber == number {
				picked = append(picked, f)
				used[f.ID] = struct{}{}
				return
			}
		}
	}

	take(reqCtx.NumberA)
	if reqCtx.NumberB != reqCtx.NumberA && len(picked) < n {
		take(reqCtx.NumberB)
	}
	for _, f := range pool {
		if len(picked) >= n {
			break
		}
		if _, ok := used[f.ID]; ok {
			continue
		}
		picked = append(picked, f)
		used[f.ID] = struct{}{}
	}

	return picked
}

// directive renders a second-person action clause themed on one of the
// two numbers. Every composed passage carries exactly one.
func (c *Composer) directive(rng *rand.Rand, reqCtx model.Context, voice *model.VoiceProfile) string {
	number := reqCtx.NumberA
	if rng.IntN(2) == 1 {
		number = reqCtx.NumberB
	}
	label := model.ThemeOf(number).Label
	tmpl := voice.Directives[rng.IntN(len(voice.Directives))]
	return fmt.Sprintf(tmpl, label)
}

// trimToBudget drops trailing sentences until the word budget is met,
// but never drops below two sentences: the directive always survives
// because optional framing is trimmed from the end first.
func (c *Composer) trimToBudget(text string, sentences []string, maxWords int) string {
	for len(sentences) > 2 && len(strings.Fields(text)) > maxWords {
		// drop the last non-directive sentence; the directive is either
		// last (no closing) or second to last
		if isDirective(sentences[len(sentences)-1]) {
			sentences = append(sentences[:len(sentences)-2], sentences[len(sentences)-1])
		} else {
			sentences = sentences[:len(sentences)-1]
		}
		text = strings.Join(sentences, " ")
	}
	return text
}
