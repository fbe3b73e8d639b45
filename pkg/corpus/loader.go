package corpus

import (
	"bytes"
	"context"
	_ "embed"
	"io"

	"github.com/m-mizutani/goerr/v2"
	"github.com/vybelabs/numen/pkg/model"
	"github.com/vybelabs/numen/pkg/utils/logging"
	"gopkg.in/yaml.v3"
)

//go:embed data/fragments.yaml
var defaultFragmentsRaw []byte

//go:embed data/fallbacks.yaml
var defaultFallbacksRaw []byte

type corpusFile struct {
	Version   string                   `yaml:"version"`
	Fragments []*model.ContentFragment `yaml:"fragments"`
}

type fallbackFile struct {
	Version string                 `yaml:"version"`
	Entries []*model.FallbackEntry `yaml:"entries"`
}

// Load reads a corpus YAML document. Malformed fragments are logged and
// excluded from the candidate pools rather than failing the whole load;
// they must never reach the evaluator.
func Load(ctx context.Context, r io.Reader) (*Store, error) {
	var file corpusFile
	if err := yaml.NewDecoder(r).Decode(&file); err != nil {
		return nil, goerr.Wrap(err, "failed to decode corpus file")
	}

	store := &Store{
		version: file.Version,
		byKey:   make(map[storeKey][]*model.ContentFragment),
	}

	logger := logging.From(ctx)
	for _, f := range file.Fragments {
		if err := f.Validate(); err != nil {
			logger.Warn("excluding malformed fragment", "error", err, "id", f.ID)
			continue
		}
		store.index(f)
	}

	if store.Len() == 0 {
		return nil, goerr.New("corpus contains no valid fragments")
	}

	return store, nil
}

// LoadFallbacks reads a fallback bank YAML document. Unlike corpus
// fragments, a broken bank entry is a configuration error: the bank backs
// the quality guarantee and must be fully intact.
func LoadFallbacks(ctx context.Context, r io.Reader) ([]*model.FallbackEntry, error) {
	var file fallbackFile
	if err := yaml.NewDecoder(r).Decode(&file); err != nil {
		return nil, goerr.Wrap(err, "failed to decode fallback bank file")
	}

	for _, e := range file.Entries {
		if err := e.Validate(); err != nil {
			return nil, goerr.Wrap(err, "invalid fallback bank entry")
		}
	}

	return file.Entries, nil
}

// Default loads the embedded corpus and fallback bank shipped with the
// binary.
func Default(ctx context.Context) (*Store, []*model.FallbackEntry, error) {
	store, err := Load(ctx, bytes.NewReader(defaultFragmentsRaw))
	if err != nil {
		return nil, nil, goerr.Wrap(err, "failed to load embedded corpus")
	}

	bank, err := LoadFallbacks(ctx, bytes.NewReader(defaultFallbacksRaw))
	if err != nil {
		return nil, nil, goerr.Wrap(err, "failed to load embedded fallback bank")
	}

	return store, bank, nil
}
