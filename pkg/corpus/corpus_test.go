package corpus_test

import (
	"strings"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/vybelabs/numen/pkg/corpus"
	"github.com/vybelabs/numen/pkg/model"
)

func TestDefaultCorpus(t *testing.T) {
	ctx := t.Context()

	store, bank, err := corpus.Default(ctx)
	gt.NoError(t, err)
	gt.True(t, store.Len() > 0)
	gt.True(t, len(bank) > 0)

	// every persona has fragments for at least the core numbers
	for _, persona := range model.Personas() {
		total := 0
		for n := 1; n <= 9; n++ {
			total += len(store.Fetch(ctx, persona, n))
		}
		gt.True(t, total > 0)
	}
}

func TestLoadSkipsMalformedFragments(t *testing.T) {
	doc := `
version: "test"
fragments:
  - id: ok-1
    persona: oracle
    number: 3
    category: insight
    text: "The current of creativity moves through your vision today."
    intensity: 0.5
  - id: bad-1
    persona: oracle
    number: 3
    category: insight
    text: "no terminal punctuation and lowercase start"
    intensity: 0.5
  - id: bad-2
    persona: oracle
    number: 42
    category: insight
    text: "Number out of range."
    intensity: 0.5
`
	store, err := corpus.Load(t.Context(), strings.NewReader(doc))
	gt.NoError(t, err)
	gt.Equal(t, store.Len(), 1)
	gt.Equal(t, store.Version(), "test")

	frags := store.Fetch(t.Context(), model.PersonaOracle, 3)
	gt.Equal(t, len(frags), 1)
	gt.Equal(t, frags[0].ID, model.FragmentID("ok-1"))
}

func TestLoadRejectsEmptyCorpus(t *testing.T) {
	doc := `
version: "test"
fragments:
  - id: bad-1
    persona: oracle
    number: 3
    category: insight
    text: "broken"
    intensity: 0.5
`
	_, err := corpus.Load(t.Context(), strings.NewReader(doc))
	gt.Error(t, err)
}

func TestLoadFallbacksRejectsInvalidEntry(t *testing.T) {
	doc := `
version: "test"
entries:
  - id: fb-1
    pair: 3-7
    text: "Creativity and wisdom meet today. Take one step toward what you imagine."
    score: 1.5
`
	_, err := corpus.LoadFallbacks(t.Context(), strings.NewReader(doc))
	gt.Error(t, err)
}

func TestDefaultBankEntriesAreVetted(t *testing.T) {
	_, bank, err := corpus.Default(t.Context())
	gt.NoError(t, err)

	for _, e := range bank {
		gt.NoError(t, e.Validate())
		gt.True(t, e.QualityScore >= 0.85)
	}
}
