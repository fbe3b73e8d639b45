package generate_test

import (
	"errors"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/vybelabs/numen/pkg/model"
	"github.com/vybelabs/numen/pkg/repository"
	"github.com/vybelabs/numen/pkg/usecase/generate"
)

func testBank() []*model.FallbackEntry {
	return []*model.FallbackEntry{
		{
			ID: "fb-1", NumberPairKey: "3-7", QualityScore: 0.90,
			BaseText: "Creativity and wisdom are working on the same problem today. Take one step toward what you imagine and let insight catch up.",
			PersonaVariants: map[model.Persona]string{
				model.PersonaGuide: "Take a breath and notice how creativity and wisdom share this moment together. Practice one small act of honest expression today, and let it be enough.",
			},
		},
		{
			ID: "fb-2", NumberPairKey: "3-7", QualityScore: 0.88,
			BaseText: "Expression wants depth today, and depth wants expression in return. Write one honest sentence about what you have been avoiding, and read it back slowly.",
		},
	}
}

func TestBankRotation(t *testing.T) {
	ctx := t.Context()
	bank := generate.NewBank(testBank(), repository.NewMemory())
	reqCtx := oracleContext()

	first, _, err := bank.Lookup(ctx, reqCtx)
	gt.NoError(t, err)
	second, _, err := bank.Lookup(ctx, reqCtx)
	gt.NoError(t, err)
	third, _, err := bank.Lookup(ctx, reqCtx)
	gt.NoError(t, err)

	gt.True(t, first.ID != second.ID)
	gt.Equal(t, third.ID, first.ID)
}

func TestBankPersonaVariant(t *testing.T) {
	ctx := t.Context()

	entries := testBank()[:1]
	asGuide := model.Context{NumberA: 3, NumberB: 7, Persona: model.PersonaGuide}

	bank := generate.NewBank(entries, repository.NewMemory())
	entry, text, err := bank.Lookup(ctx, asGuide)
	gt.NoError(t, err)
	gt.Equal(t, text, entry.PersonaVariants[model.PersonaGuide])

	bank = generate.NewBank(entries, repository.NewMemory())
	entry, text, err = bank.Lookup(ctx, oracleContext())
	gt.NoError(t, err)
	gt.Equal(t, text, entry.BaseText)
}

func TestBankMissingPair(t *testing.T) {
	bank := generate.NewBank(testBank(), repository.NewMemory())

	_, _, err := bank.Lookup(t.Context(), model.Context{NumberA: 1, NumberB: 1, Persona: model.PersonaOracle})
	gt.Error(t, err)
	gt.True(t, errors.Is(err, generate.ErrFallbackExhausted))
}

func TestBankSize(t *testing.T) {
	bank := generate.NewBank(testBank(), repository.NewMemory())
	gt.Equal(t, bank.Size("3-7"), 2)
	gt.Equal(t, bank.Size("1-1"), 0)
}
