package model_test

import (
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/vybelabs/numen/pkg/model"
)

func TestContextValidate(t *testing.T) {
	valid := model.Context{NumberA: 3, NumberB: 7, Persona: model.PersonaOracle}
	gt.NoError(t, valid.Validate())

	cases := map[string]model.Context{
		"number too low":  {NumberA: 0, NumberB: 7, Persona: model.PersonaOracle},
		"number too high": {NumberA: 3, NumberB: 10, Persona: model.PersonaOracle},
		"unknown persona": {NumberA: 3, NumberB: 7, Persona: "sage"},
		"empty persona":   {NumberA: 3, NumberB: 7},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			gt.Error(t, tc.Validate())
		})
	}
}

func TestPairKeyCanonical(t *testing.T) {
	a := model.Context{NumberA: 3, NumberB: 7, Persona: model.PersonaGuide}
	b := model.Context{NumberA: 7, NumberB: 3, Persona: model.PersonaGuide}
	gt.Equal(t, a.PairKey(), b.PairKey())
	gt.Equal(t, a.PairKey(), "3-7")

	same := model.Context{NumberA: 5, NumberB: 5, Persona: model.PersonaGuide}
	gt.Equal(t, same.PairKey(), "5-5")
}
