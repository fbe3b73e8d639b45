package adapter

import (
	"context"

	"cloud.google.com/go/bigquery"
	"github.com/m-mizutani/goerr/v2"
)

// BigQueryTelemetry streams telemetry records into a BigQuery table.
type BigQueryTelemetry struct {
	client   *bigquery.Client
	inserter *bigquery.Inserter
}

// BigQueryOption is a functional option for the telemetry sink
type BigQueryOption func(*bigQueryConfig)

type bigQueryConfig struct {
	dataset string
	table   string
}

// WithTable overrides the destination dataset and table.
func WithTable(dataset, table string) BigQueryOption {
	return func(c *bigQueryConfig) {
		c.dataset = dataset
		c.table = table
	}
}

// NewBigQueryTelemetry creates a telemetry sink writing to BigQuery.
func NewBigQueryTelemetry(ctx context.Context, projectID string, opts ...BigQueryOption) (*BigQueryTelemetry, error) {
	cfg := &bigQueryConfig{
		dataset: "numen",
		table:   "generation_results",
	}
	for _, opt := range opts {
		opt(cfg)
	}

	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create BigQuery client", goerr.V("project", projectID))
	}

	return &BigQueryTelemetry{
		client:   client,
		inserter: client.Dataset(cfg.dataset).Table(cfg.table).Inserter(),
	}, nil
}

func (b *BigQueryTelemetry) Emit(ctx context.Context, record *TelemetryRecord) error {
	if err := b.inserter.Put(ctx, record); err != nil {
		return goerr.Wrap(err, "failed to insert telemetry record", goerr.V("request_id", record.RequestID))
	}
	return nil
}

func (b *BigQueryTelemetry) Close() error {
	return b.client.Close()
}
