package model

import (
	"strings"

	"github.com/m-mizutani/goerr/v2"
)

type FallbackID string

// FallbackEntry is one pre-vetted passage of the curated fallback bank.
// Entries are static after load; only the rotation timestamp held in the
// repository changes at runtime.
type FallbackEntry struct {
	ID              FallbackID         `yaml:"id"`
	NumberPairKey   string             `yaml:"pair"`
	BaseText        string             `yaml:"text"`
	PersonaVariants map[Persona]string `yaml:"variants"`
	QualityScore    float64            `yaml:"score"`
}

// TextFor returns the persona variant when one exists, else the base text.
func (e *FallbackEntry) TextFor(p Persona) string {
	if t, ok := e.PersonaVariants[p]; ok && strings.TrimSpace(t) != "" {
		return t
	}
	return e.BaseText
}

// Validate checks the entry at load time. The bank is part of the quality
// guarantee, so a broken entry is a configuration error.
func (e *FallbackEntry) Validate() error {
	if e.ID == "" {
		return goerr.New("fallback entry id is empty")
	}
	if e.NumberPairKey == "" {
		return goerr.New("fallback entry pair key is empty", goerr.V("id", e.ID))
	}
	if strings.TrimSpace(e.BaseText) == "" {
		return goerr.New("fallback entry text is empty", goerr.V("id", e.ID))
	}
	if e.QualityScore <= 0 || e.QualityScore > 1 {
		return goerr.New("fallback entry score out of range",
			goerr.V("id", e.ID), goerr.V("score", e.QualityScore))
	}
	for p := range e.PersonaVariants {
		if err := p.Validate(); err != nil {
			return goerr.Wrap(err, "fallback entry variant persona", goerr.V("id", e.ID))
		}
	}
	return nil
}
