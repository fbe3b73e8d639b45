package model

import (
	"strings"
	"unicode"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
)

var ErrMalformedFragment = goerr.New("malformed fragment")

type FragmentID string

// NewFragmentID generates a new unique FragmentID
func NewFragmentID() FragmentID {
	return FragmentID(uuid.New().String())
}

// Category groups fragments by the role they can play in a passage.
type Category string

const (
	CategoryInsight    Category = "insight"
	CategoryReflection Category = "reflection"
	CategoryAction     Category = "action"
	CategoryAffirm     Category = "affirmation"
)

// ContentFragment is one curated corpus entry. Fragments are owned by the
// content store and never mutated after load.
type ContentFragment struct {
	ID               FragmentID `yaml:"id"`
	Persona          Persona    `yaml:"persona"`
	AssociatedNumber int        `yaml:"number"`
	Category         Category   `yaml:"category"`
	Text             string     `yaml:"text"`
	Intensity        float64    `yaml:"intensity"`
	Tags             []string   `yaml:"tags"`
}

// Validate applies the load-time structural sanity checks. Fragments that
// fail are excluded from candidate pools and never reach the evaluator.
func (f *ContentFragment) Validate() error {
	if f.ID == "" {
		return goerr.Wrap(ErrMalformedFragment, "fragment id is empty")
	}
	if err := f.Persona.Validate(); err != nil {
		return goerr.Wrap(ErrMalformedFragment, "fragment persona", goerr.V("id", f.ID), goerr.V("persona", f.Persona))
	}
	if f.AssociatedNumber < 1 || f.AssociatedNumber > 9 {
		return goerr.Wrap(ErrMalformedFragment, "fragment number out of range",
			goerr.V("id", f.ID), goerr.V("number", f.AssociatedNumber))
	}
	switch f.Category {
	case CategoryInsight, CategoryReflection, CategoryAction, CategoryAffirm:
	default:
		return goerr.Wrap(ErrMalformedFragment, "unknown fragment category",
			goerr.V("id", f.ID), goerr.V("category", f.Category))
	}
	text := strings.TrimSpace(f.Text)
	if text == "" {
		return goerr.Wrap(ErrMalformedFragment, "fragment text is empty", goerr.V("id", f.ID))
	}
	if !endsTerminated(text) {
		return goerr.Wrap(ErrMalformedFragment, "fragment text is not a terminated sentence",
			goerr.V("id", f.ID), goerr.V("text", text))
	}
	if f.Intensity < 0 || f.Intensity > 1 {
		return goerr.Wrap(ErrMalformedFragment, "fragment intensity out of range",
			goerr.V("id", f.ID), goerr.V("intensity", f.Intensity))
	}
	return nil
}

// WordCount returns the number of whitespace-separated words in the text.
func (f *ContentFragment) WordCount() int {
	return len(strings.Fields(f.Text))
}

func endsTerminated(text string) bool {
	r := []rune(text)
	last := r[len(r)-1]
	if last != '.' && last != '!' && last != '?' {
		return false
	}
	// double terminal punctuation such as ".." or "?." is malformed
	if len(r) >= 2 {
		prev := r[len(r)-2]
		if prev == '.' || prev == '!' || prev == '?' || prev == ',' {
			return false
		}
	}
	first := r[0]
	return unicode.IsUpper(first) || unicode.IsDigit(first) || first == '"'
}
