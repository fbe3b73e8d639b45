package safety

import (
	"context"
	_ "embed"
	"os"
	"path/filepath"

	"github.com/m-mizutani/goerr/v2"
	"github.com/open-policy-agent/opa/v1/rego"
)

//go:embed policy/safety.rego
var defaultPolicyRaw string

// Checker evaluates passages against the safety policy. The policy is a
// Rego module producing a set of violation messages; an empty set means
// the passage is safe. Evaluation is deterministic for identical input.
type Checker struct {
	query *rego.PreparedEvalQuery
}

type config struct {
	policyDir string
}

type Option func(*config)

// WithPolicyDir loads additional *.rego modules from the directory,
// layered over the embedded default policy.
func WithPolicyDir(dir string) Option {
	return func(c *config) {
		c.policyDir = dir
	}
}

// New prepares the safety query. Policy problems are configuration errors
// and fail here, at startup, never at request time.
func New(ctx context.Context, opts ...Option) (*Checker, error) {
	var cfg config
	for _, opt := range opts {
		opt(&cfg)
	}

	modules := []func(*rego.Rego){
		rego.Query("data.safety.violations"),
		rego.Module("safety.rego", defaultPolicyRaw),
	}

	if cfg.policyDir != "" {
		files, err := filepath.Glob(filepath.Join(cfg.policyDir, "*.rego"))
		if err != nil {
			return nil, goerr.Wrap(err, "failed to glob policy files", goerr.V("dir", cfg.policyDir))
		}
		for _, file := range files {
			data, err := os.ReadFile(file)
			if err != nil {
				return nil, goerr.Wrap(err, "failed to read policy file", goerr.V("path", file))
			}
			modules = append(modules, rego.Module(file, string(data)))
		}
	}

	prepared, err := rego.New(modules...).PrepareForEval(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to prepare safety query")
	}

	return &Checker{query: &prepared}, nil
}

// Check returns the violation messages for the text, empty when safe.
func (c *Checker) Check(ctx context.Context, text string) ([]string, error) {
	results, err := c.query.Eval(ctx, rego.EvalInput(map[string]any{"text": text}))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to evaluate safety policy")
	}

	var violations []string
	for _, result := range results {
		for _, expr := range result.Expressions {
			values, ok := expr.Value.([]any)
			if !ok {
				continue
			}
			for _, v := range values {
				if msg, ok := v.(string); ok {
					violations = append(violations, msg)
				}
			}
		}
	}

	return violations, nil
}
