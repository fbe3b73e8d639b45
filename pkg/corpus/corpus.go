package corpus

import (
	"context"

	"github.com/vybelabs/numen/pkg/model"
)

// Store is the read-only content store. Fragments are indexed by
// (persona, number) at load time so request-time lookups are O(1) map
// reads, safe for unsynchronized concurrent use.
type Store struct {
	version   string
	byKey     map[storeKey][]*model.ContentFragment
	fragments []*model.ContentFragment
}

type storeKey struct {
	persona model.Persona
	number  int
}

// Fetch returns the fragments tagged with the persona and number. The
// returned slice is shared and must not be mutated by callers.
func (s *Store) Fetch(ctx context.Context, persona model.Persona, number int) []*model.ContentFragment {
	return s.byKey[storeKey{persona: persona, number: number}]
}

// Len returns the number of fragments that survived load-time validation.
func (s *Store) Len() int {
	return len(s.fragments)
}

// Version returns the corpus release version string.
func (s *Store) Version() string {
	return s.version
}

func (s *Store) index(f *model.ContentFragment) {
	k := storeKey{persona: f.Persona, number: f.AssociatedNumber}
	s.byKey[k] = append(s.byKey[k], f)
	s.fragments = append(s.fragments, f)
}
