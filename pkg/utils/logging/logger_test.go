package logging_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/vybelabs/numen/pkg/utils/logging"
)

func TestNew(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := logging.New("info", buf)
	gt.V(t, logger).NotNil()

	logger.Info("quality gate passed")
	gt.S(t, buf.String()).Contains("quality gate passed")
}

func TestNewLevels(t *testing.T) {
	cases := []struct {
		name    string
		level   string
		logged  []string
		dropped []string
	}{
		{"debug", "debug", []string{"debug msg", "info msg", "warn msg", "error msg"}, nil},
		{"info", "info", []string{"info msg", "warn msg", "error msg"}, []string{"debug msg"}},
		{"warn", "warn", []string{"warn msg", "error msg"}, []string{"debug msg", "info msg"}},
		{"warning alias", "warning", []string{"warn msg", "error msg"}, []string{"info msg"}},
		{"error", "error", []string{"error msg"}, []string{"warn msg"}},
		{"case insensitive", "DEBUG", []string{"debug msg"}, nil},
		{"unknown falls back to info", "mystery", []string{"info msg"}, []string{"debug msg"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			logger := logging.New(tc.level, buf)
			gt.V(t, logger).NotNil()

			logger.Debug("debug msg")
			logger.Info("info msg")
			logger.Warn("warn msg")
			logger.Error("error msg")

			out := buf.String()
			for _, msg := range tc.logged {
				gt.S(t, out).Contains(msg)
			}
			for _, msg := range tc.dropped {
				gt.S(t, out).NotContains(msg)
			}
		})
	}
}

func TestNewNilWriter(t *testing.T) {
	// a nil writer falls back to stderr so generated passages on stdout
	// stay clean for piping
	logger := logging.New("info", nil)
	gt.V(t, logger).NotNil()
	logger.Info("stderr default")
}

func TestWithAndFrom(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := logging.New("debug", buf).With("pipeline", "generate")

	ctx := logging.With(context.Background(), logger)
	retrieved := logging.From(ctx)
	gt.Equal(t, retrieved, logger)

	retrieved.Info("attempt accepted")
	out := buf.String()
	gt.S(t, out).Contains("attempt accepted")
	gt.S(t, out).Contains("pipeline")
	gt.S(t, out).Contains("generate")
}

func TestFromFallsBackToDefault(t *testing.T) {
	original := logging.Default()
	defer logging.SetDefault(original)

	buf := &bytes.Buffer{}
	logging.SetDefault(logging.New("warn", buf))

	logger := logging.From(context.Background())
	gt.Equal(t, logger, logging.Default())

	logger.Warn("fallback tier engaged")
	gt.S(t, buf.String()).Contains("fallback tier engaged")
}
