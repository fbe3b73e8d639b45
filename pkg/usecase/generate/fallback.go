package generate

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/vybelabs/numen/pkg/model"
	"github.com/vybelabs/numen/pkg/repository"
)

// ErrFallbackExhausted signals that the bank has no entry for the number
// pair. Like ErrContentUnavailable it never reaches a caller; the
// orchestrator advances to the emergency tier.
var ErrFallbackExhausted = goerr.New("fallback bank exhausted")

// Bank is the curated fallback bank: pre-vetted passages keyed by number
// pair. Entries are static; the rotation clock lives in the repository so
// concurrent instances share it.
type Bank struct {
	byPair map[string][]*model.FallbackEntry
	byID   map[model.FallbackID]*model.FallbackEntry
	repo   repository.Repository
}

// NewBank indexes the entries. Entries are assumed validated at load.
func NewBank(entries []*model.FallbackEntry, repo repository.Repository) *Bank {
	b := &Bank{
		byPair: make(map[string][]*model.FallbackEntry),
		byID:   make(map[model.FallbackID]*model.FallbackEntry),
		repo:   repo,
	}
	for _, e := range entries {
		b.byPair[e.NumberPairKey] = append(b.byPair[e.NumberPairKey], e)
		b.byID[e.ID] = e
	}
	return b
}

// Lookup claims the least-recently-used entry for the context's number
// pair and returns it with its persona-resolved text. Two consecutive
// lookups for the same pair never return the same entry unless the bank
// holds exactly one.
func (b *Bank) Lookup(ctx context.Context, reqCtx model.Context) (*model.FallbackEntry, string, error) {
	key := reqCtx.PairKey()
	entries := b.byPair[key]
	if len(entries) == 0 {
		return nil, "", goerr.Wrap(ErrFallbackExhausted, "no bank entries for pair", goerr.V("pair", key))
	}

	ids := make([]model.FallbackID, len(entries))
	for i, e := range entries {
		ids[i] = e.ID
	}

	claimed, err := b.repo.ClaimFallback(ctx, key, ids)
	if err != nil {
		return nil, "", goerr.Wrap(err, "failed to claim fallback entry", goerr.V("pair", key))
	}

	entry := b.byID[claimed]
	if entry == nil {
		return nil, "", goerr.New("claimed unknown fallback entry", goerr.V("id", claimed))
	}

	return entry, entry.TextFor(reqCtx.Persona), nil
}

// Size returns the number of entries for a pair key.
func (b *Bank) Size(key string) int {
	return len(b.byPair[key])
}
