package generate

import (
	"context"
	"strings"
	"unicode"

	"github.com/m-mizutani/goerr/v2"
	"github.com/vybelabs/numen/pkg/model"
	"github.com/vybelabs/numen/pkg/safety"
)

// Evaluator scores candidate passages against the weighted rubric. It is
// deterministic: the same passage and context always produce the same
// score. The only randomness in the pipeline lives in the composer.
type Evaluator struct {
	safety *safety.Checker
	cfg    Config
}

func NewEvaluator(checker *safety.Checker, cfg Config) *Evaluator {
	return &Evaluator{safety: checker, cfg: cfg}
}

// Evaluate scores one passage. An error here means the safety engine
// itself failed, not that the passage is bad.
func (e *Evaluator) Evaluate(ctx context.Context, passage *model.CandidatePassage, reqCtx model.Context) (*model.QualityScore, error) {
	violations, err := e.safety.Check(ctx, passage.Text)
	if err != nil {
		return nil, goerr.Wrap(err, "safety check failed")
	}

	score := &model.QualityScore{
		Relevance:     e.relevance(passage.Text, reqCtx),
		Voice:         e.voice(passage.Text, reqCtx.Persona),
		Structure:     e.structure(passage.Text, reqCtx.Persona),
		Actionability: e.actionability(passage.Text),
		Safety:        e.safetyScore(violations),
	}

	w := e.cfg.ScoreWeights
	score.Overall = w.Relevance*score.Relevance +
		w.Voice*score.Voice +
		w.Structure*score.Structure +
		w.Actionability*score.Actionability +
		w.Safety*score.Safety

	// a safety violation is a veto, not a weighted deduction: an
	// otherwise perfect passage must still be rejected
	if score.Safety == 0 {
		score.Overall = 0
	}

	// the length floor is the same kind of contract: a passage under the
	// configured minimum never reaches a caller, no matter how well it
	// scores elsewhere
	if len(strings.Fields(passage.Text)) < e.cfg.MinResultWords {
		score.Overall = 0
	}

	return score, nil
}

// relevance measures how well the passage covers both numbers' keyword
// sets. Each number contributes half; two distinct keyword hits saturate
// one number's half.
func (e *Evaluator) relevance(text string, reqCtx model.Context) float64 {
	words := tokenSet(text)

	coverage := func(n int) float64 {
		hits := 0
		for _, kw := range model.ThemeOf(n).Keywords {
			if _, ok := words[kw]; ok {
				hits++
				if hits == 2 {
					break
				}
			}
		}
		return float64(hits) / 2
	}

	if reqCtx.NumberA == reqCtx.NumberB {
		return coverage(reqCtx.NumberA)
	}
	return 0.5*coverage(reqCtx.NumberA) + 0.5*coverage(reqCtx.NumberB)
}

// voice rewards the persona's lexical markers and penalizes markers that
// belong to other registers.
func (e *Evaluator) voice(text string, persona model.Persona) float64 {
	profile := persona.Voice()
	if profile == nil {
		return 0
	}
	words := tokenSet(text)

	hits := 0
	for _, marker := range profile.Markers {
		if _, ok := words[marker]; ok {
			hits++
			if hits == 2 {
				break
			}
		}
	}
	score := float64(hits) / 2

	for _, foreign := range profile.ForeignMarkers {
		if _, ok := words[foreign]; ok {
			score -= 0.25
		}
	}

	return clamp01(score)
}

// structure checks word-count and sentence-count bounds and scans for
// malformed sentences: double punctuation, trailing conjunctions,
// lowercase fragment starts.
func (e *Evaluator) structure(text string, persona model.Persona) float64 {
	profile := persona.Voice()

	score := 1.0
	wordCount := len(strings.Fields(text))
	if wordCount < profile.MinWords || wordCount < e.cfg.MinResultWords {
		score -= 0.5
	}
	if wordCount > profile.MaxWords {
		score -= 0.3
	}

	sentences := splitSentences(text)
	if len(sentences) < 2 || len(sentences) > 8 {
		score -= 0.3
	}

	for _, sentence := range sentences {
		if malformedSentence(sentence) {
			score -= 0.4
		}
	}

	return clamp01(score)
}

// actionability is binary: a passage without a directive clause scores
// zero on this axis no matter what else it does well.
func (e *Evaluator) actionability(text string) float64 {
	if HasDirective(text) {
		return 1
	}
	return 0
}

func (e *Evaluator) safetyScore(violations []string) float64 {
	if len(violations) == 0 {
		return 1
	}
	return 0
}

// imperative openers recognized by the directive heuristic. Kept in sync
// with the voice profiles' directive templates.
var imperativeOpeners = map[string]struct{}{
	"take": {}, "choose": {}, "notice": {}, "write": {}, "practice": {},
	"listen": {}, "ask": {}, "set": {}, "give": {}, "offer": {}, "name": {},
	"release": {}, "breathe": {}, "say": {}, "pick": {}, "tend": {},
	"follow": {}, "apply": {}, "study": {}, "spend": {}, "tell": {},
	"honor": {}, "claim": {}, "withdraw": {}, "do": {}, "rest": {},
	"let": {}, "feel": {}, "examine": {}, "consider": {}, "question": {},
	"begin": {}, "start": {}, "find": {}, "make": {}, "keep": {},
}

// HasDirective reports whether the text contains at least one explicit
// human-directed action clause: a sentence opening with an imperative
// verb, or a second-person directive. The quality gate and the
// actionability property tests share this heuristic.
func HasDirective(text string) bool {
	for _, sentence := range splitSentences(text) {
		if isDirective(sentence) {
			return true
		}
	}
	return false
}

func isDirective(sentence string) bool {
	tokens := tokenize(sentence)
	if len(tokens) == 0 {
		return false
	}
	if _, ok := imperativeOpeners[tokens[0]]; ok {
		return true
	}
	// second-person directive: "you"/"your" plus an obligation verb
	var secondPerson, modal bool
	for _, tok := range tokens {
		switch tok {
		case "you", "your", "yourself":
			secondPerson = true
		case "must", "should", "need", "try":
			modal = true
		}
	}
	return secondPerson && modal
}

func splitSentences(text string) []string {
	var sentences []string
	var current strings.Builder
	for _, r := range text {
		current.WriteRune(r)
		if r == '.' || r == '!' || r == '?' {
			if s := strings.TrimSpace(current.String()); s != "" {
				sentences = append(sentences, s)
			}
			current.Reset()
		}
	}
	if s := strings.TrimSpace(current.String()); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}

var trailingConjunctions = map[string]struct{}{
	"and": {}, "but": {}, "or": {}, "because": {}, "so": {}, "with": {}, "the": {},
}

func malformedSentence(sentence string) bool {
	runes := []rune(sentence)
	if len(runes) == 0 {
		return true
	}

	first := runes[0]
	if !unicode.IsUpper(first) && !unicode.IsDigit(first) && first != '"' {
		return true
	}

	if strings.Contains(sentence, "..") || strings.Contains(sentence, ",.") ||
		strings.Contains(sentence, "!.") || strings.Contains(sentence, "?.") {
		return true
	}

	tokens := tokenize(sentence)
	if len(tokens) == 0 {
		return true
	}
	if _, ok := trailingConjunctions[tokens[len(tokens)-1]]; ok {
		return true
	}
	return false
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
