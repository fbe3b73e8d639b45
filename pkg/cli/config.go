package cli

import (
	"context"
	"os"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
	"github.com/vybelabs/numen/pkg/adapter"
	"github.com/vybelabs/numen/pkg/corpus"
	"github.com/vybelabs/numen/pkg/model"
	"github.com/vybelabs/numen/pkg/repository"
	"github.com/vybelabs/numen/pkg/usecase/generate"
	"github.com/vybelabs/numen/pkg/utils/logging"
)

// config holds configuration values
type config struct {
	logLevel string

	// Corpus sources
	corpusPath   string
	bankPath     string
	bucket       string
	corpusObject string
	bankObject   string

	// Rotation repository
	repoBackend string
	sqlitePath  string
	project     string
	database    string

	// Telemetry
	bigQueryProject string
	bigQueryDataset string
	bigQueryTable   string

	// Optional semantic scoring
	geminiProject  string
	geminiLocation string

	// Pipeline tunables
	threshold      float64
	maxAttempts    int64
	attemptTimeout time.Duration
	totalTimeout   time.Duration
	seed           int64
}

// globalFlags returns common flags used across commands with destination config
func globalFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "Log level (debug, info, warn, error)",
			Value:       "info",
			Sources:     cli.EnvVars("NUMEN_LOG_LEVEL"),
			Destination: &cfg.logLevel,
		},
	}
}

// corpusFlags configure where fragments and the fallback bank come from.
// With no flags the embedded corpus is used.
func corpusFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "corpus",
			Usage:       "Path to a corpus YAML file (default: embedded corpus)",
			Sources:     cli.EnvVars("NUMEN_CORPUS"),
			Destination: &cfg.corpusPath,
		},
		&cli.StringFlag{
			Name:        "bank",
			Usage:       "Path to a fallback bank YAML file (default: embedded bank)",
			Sources:     cli.EnvVars("NUMEN_BANK"),
			Destination: &cfg.bankPath,
		},
		&cli.StringFlag{
			Name:        "bucket",
			Usage:       "Cloud Storage bucket holding corpus objects",
			Sources:     cli.EnvVars("NUMEN_BUCKET"),
			Destination: &cfg.bucket,
		},
		&cli.StringFlag{
			Name:        "corpus-object",
			Usage:       "Object key of the corpus YAML in the bucket",
			Value:       "corpus/fragments.yaml",
			Sources:     cli.EnvVars("NUMEN_CORPUS_OBJECT"),
			Destination: &cfg.corpusObject,
		},
		&cli.StringFlag{
			Name:        "bank-object",
			Usage:       "Object key of the fallback bank YAML in the bucket",
			Value:       "corpus/fallbacks.yaml",
			Sources:     cli.EnvVars("NUMEN_BANK_OBJECT"),
			Destination: &cfg.bankObject,
		},
	}
}

// repoFlags configure the rotation and statistics repository backend.
func repoFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "repo",
			Usage:       "Rotation repository backend (memory, sqlite, firestore)",
			Value:       "memory",
			Sources:     cli.EnvVars("NUMEN_REPO"),
			Destination: &cfg.repoBackend,
		},
		&cli.StringFlag{
			Name:        "sqlite-path",
			Usage:       "Path to the SQLite database file",
			Value:       "numen.db",
			Sources:     cli.EnvVars("NUMEN_SQLITE_PATH"),
			Destination: &cfg.sqlitePath,
		},
		&cli.StringFlag{
			Name:        "project",
			Aliases:     []string{"p"},
			Usage:       "Google Cloud project ID",
			Sources:     cli.EnvVars("GOOGLE_CLOUD_PROJECT"),
			Destination: &cfg.project,
		},
		&cli.StringFlag{
			Name:        "database",
			Aliases:     []string{"d"},
			Usage:       "Firestore database ID",
			Value:       "(default)",
			Sources:     cli.EnvVars("FIRESTORE_DATABASE_ID"),
			Destination: &cfg.database,
		},
	}
}

// telemetryFlags configure the BigQuery telemetry sink. Without a
// project, telemetry goes to the structured log.
func telemetryFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "bigquery-project",
			Usage:       "Google Cloud project ID for BigQuery telemetry",
			Sources:     cli.EnvVars("NUMEN_BIGQUERY_PROJECT"),
			Destination: &cfg.bigQueryProject,
		},
		&cli.StringFlag{
			Name:        "bigquery-dataset",
			Usage:       "BigQuery dataset for telemetry records",
			Value:       "numen",
			Sources:     cli.EnvVars("NUMEN_BIGQUERY_DATASET"),
			Destination: &cfg.bigQueryDataset,
		},
		&cli.StringFlag{
			Name:        "bigquery-table",
			Usage:       "BigQuery table for telemetry records",
			Value:       "generation_results",
			Sources:     cli.EnvVars("NUMEN_BIGQUERY_TABLE"),
			Destination: &cfg.bigQueryTable,
		},
	}
}

// embedderFlags configure the optional Gemini embedding scorer. Without
// a project, the selector falls back to lexical similarity.
func embedderFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "gemini-project",
			Usage:       "Google Cloud project ID for Gemini embeddings",
			Sources:     cli.EnvVars("GEMINI_PROJECT_ID"),
			Destination: &cfg.geminiProject,
		},
		&cli.StringFlag{
			Name:        "gemini-location",
			Usage:       "Google Cloud location for Gemini",
			Value:       "us-central1",
			Sources:     cli.EnvVars("GEMINI_LOCATION"),
			Destination: &cfg.geminiLocation,
		},
	}
}

// pipelineFlags expose the quality-gate tunables.
func pipelineFlags(cfg *config) []cli.Flag {
	defaults := generate.DefaultConfig()
	return []cli.Flag{
		&cli.FloatFlag{
			Name:        "threshold",
			Aliases:     []string{"t"},
			Usage:       "Minimum acceptable quality score (0.0-1.0)",
			Value:       defaults.MinQualityThreshold,
			Sources:     cli.EnvVars("NUMEN_THRESHOLD"),
			Destination: &cfg.threshold,
		},
		&cli.IntFlag{
			Name:        "max-attempts",
			Usage:       "Maximum generation attempts before falling back",
			Value:       int64(defaults.MaxAttempts),
			Sources:     cli.EnvVars("NUMEN_MAX_ATTEMPTS"),
			Destination: &cfg.maxAttempts,
		},
		&cli.DurationFlag{
			Name:        "attempt-timeout",
			Usage:       "Time budget for one generation attempt",
			Value:       defaults.AttemptTimeout,
			Sources:     cli.EnvVars("NUMEN_ATTEMPT_TIMEOUT"),
			Destination: &cfg.attemptTimeout,
		},
		&cli.DurationFlag{
			Name:        "total-timeout",
			Usage:       "Time budget for the whole request",
			Value:       defaults.TotalTimeout,
			Sources:     cli.EnvVars("NUMEN_TOTAL_TIMEOUT"),
			Destination: &cfg.totalTimeout,
		},
		&cli.IntFlag{
			Name:        "seed",
			Usage:       "Random seed for reproducible output (0 means a fresh seed per request)",
			Sources:     cli.EnvVars("NUMEN_SEED"),
			Destination: &cfg.seed,
		},
	}
}

// setupLogging builds the logger from config and attaches it to the
// context so every pipeline layer logs through it.
func (cfg *config) setupLogging(ctx context.Context) context.Context {
	logger := logging.New(cfg.logLevel, os.Stderr)
	logging.SetDefault(logger)
	return logging.With(ctx, logger)
}

// newCorpus loads fragments and the fallback bank from the configured
// source: local files, a Cloud Storage bucket, or the embedded corpus.
func (cfg *config) newCorpus(ctx context.Context) (*corpus.Store, []*model.FallbackEntry, error) {
	if cfg.bucket != "" {
		return cfg.loadRemoteCorpus(ctx)
	}

	if cfg.corpusPath == "" && cfg.bankPath == "" {
		return corpus.Default(ctx)
	}

	store, bank, err := corpus.Default(ctx)
	if err != nil {
		return nil, nil, err
	}

	if cfg.corpusPath != "" {
		f, err := os.Open(cfg.corpusPath)
		if err != nil {
			return nil, nil, goerr.Wrap(err, "failed to open corpus file", goerr.V("path", cfg.corpusPath))
		}
		defer f.Close()
		if store, err = corpus.Load(ctx, f); err != nil {
			return nil, nil, err
		}
	}

	if cfg.bankPath != "" {
		f, err := os.Open(cfg.bankPath)
		if err != nil {
			return nil, nil, goerr.Wrap(err, "failed to open fallback bank file", goerr.V("path", cfg.bankPath))
		}
		defer f.Close()
		if bank, err = corpus.LoadFallbacks(ctx, f); err != nil {
			return nil, nil, err
		}
	}

	return store, bank, nil
}

func (cfg *config) loadRemoteCorpus(ctx context.Context) (*corpus.Store, []*model.FallbackEntry, error) {
	storage, err := adapter.NewStorage(ctx, cfg.bucket)
	if err != nil {
		return nil, nil, goerr.Wrap(err, "failed to create storage client")
	}

	cr, err := storage.Get(ctx, cfg.corpusObject)
	if err != nil {
		return nil, nil, goerr.Wrap(err, "failed to fetch corpus object", goerr.V("object", cfg.corpusObject))
	}
	defer cr.Close()
	store, err := corpus.Load(ctx, cr)
	if err != nil {
		return nil, nil, err
	}

	br, err := storage.Get(ctx, cfg.bankObject)
	if err != nil {
		return nil, nil, goerr.Wrap(err, "failed to fetch fallback bank object", goerr.V("object", cfg.bankObject))
	}
	defer br.Close()
	bank, err := corpus.LoadFallbacks(ctx, br)
	if err != nil {
		return nil, nil, err
	}

	return store, bank, nil
}

// newRepository creates the rotation repository for the configured backend.
func (cfg *config) newRepository(ctx context.Context) (repository.Repository, error) {
	switch cfg.repoBackend {
	case "memory", "":
		return repository.NewMemory(), nil
	case "sqlite":
		return repository.NewSQLite(cfg.sqlitePath)
	case "firestore":
		if cfg.project == "" {
			return nil, goerr.New("project is required for the firestore backend")
		}
		return repository.NewFirestore(ctx, cfg.project, cfg.database)
	default:
		return nil, goerr.New("unknown repository backend",
			goerr.V("backend", cfg.repoBackend),
			goerr.V("supported", []string{"memory", "sqlite", "firestore"}))
	}
}

// newTelemetry creates the telemetry sink. Nil means the pipeline's
// default structured-log sink.
func (cfg *config) newTelemetry(ctx context.Context) (adapter.Telemetry, func(), error) {
	if cfg.bigQueryProject == "" {
		return nil, func() {}, nil
	}

	sink, err := adapter.NewBigQueryTelemetry(ctx, cfg.bigQueryProject,
		adapter.WithTable(cfg.bigQueryDataset, cfg.bigQueryTable))
	if err != nil {
		return nil, nil, goerr.Wrap(err, "failed to create BigQuery telemetry")
	}
	return sink, func() { _ = sink.Close() }, nil
}

// newEmbedder creates the optional Gemini embedder.
func (cfg *config) newEmbedder(ctx context.Context) (adapter.Embedder, error) {
	if cfg.geminiProject == "" {
		return nil, nil
	}
	return adapter.NewGeminiEmbedder(ctx, cfg.geminiProject, cfg.geminiLocation)
}

// newPipeline assembles the full generation pipeline. The returned
// cleanup closes the repository and telemetry sink.
func (cfg *config) newPipeline(ctx context.Context) (*generate.Pipeline, func(), error) {
	store, bank, err := cfg.newCorpus(ctx)
	if err != nil {
		return nil, nil, err
	}

	repo, err := cfg.newRepository(ctx)
	if err != nil {
		return nil, nil, err
	}

	telemetry, closeTelemetry, err := cfg.newTelemetry(ctx)
	if err != nil {
		_ = repo.Close()
		return nil, nil, err
	}

	embedder, err := cfg.newEmbedder(ctx)
	if err != nil {
		closeTelemetry()
		_ = repo.Close()
		return nil, nil, err
	}

	pipelineCfg := generate.DefaultConfig()
	pipelineCfg.MinQualityThreshold = cfg.threshold
	pipelineCfg.MaxAttempts = int(cfg.maxAttempts)
	pipelineCfg.AttemptTimeout = cfg.attemptTimeout
	pipelineCfg.TotalTimeout = cfg.totalTimeout
	if cfg.seed != 0 {
		seed := cfg.seed
		pipelineCfg.Seed = &seed
	}

	pipeline, err := generate.New(ctx, generate.Input{
		Store:     store,
		Bank:      bank,
		Repo:      repo,
		Telemetry: telemetry,
		Embedder:  embedder,
		Config:    &pipelineCfg,
	})
	if err != nil {
		closeTelemetry()
		_ = repo.Close()
		return nil, nil, goerr.Wrap(err, "failed to build pipeline")
	}

	cleanup := func() {
		closeTelemetry()
		_ = repo.Close()
	}
	return pipeline, cleanup, nil
}
