package adapter

import (
	"context"
	"time"

	"github.com/vybelabs/numen/pkg/model"
	"github.com/vybelabs/numen/pkg/utils/logging"
)

// Telemetry receives summarized generation results for offline analysis.
// Emission is fire-and-forget from the pipeline's point of view: a sink
// error never affects a request.
type Telemetry interface {
	Emit(ctx context.Context, record *TelemetryRecord) error
}

// TelemetryRecord is the summarized form of a GenerationResult.
type TelemetryRecord struct {
	RequestID    string    `bigquery:"request_id"`
	Persona      string    `bigquery:"persona"`
	NumberA      int       `bigquery:"number_a"`
	NumberB      int       `bigquery:"number_b"`
	FinalScore   float64   `bigquery:"final_score"`
	StrategyUsed string    `bigquery:"strategy_used"`
	AttemptsUsed int       `bigquery:"attempts_used"`
	UsedFallback bool      `bigquery:"used_fallback"`
	DurationMS   int64     `bigquery:"duration_ms"`
	CreatedAt    time.Time `bigquery:"created_at"`
}

// NewTelemetryRecord summarizes a result for emission. The passage text is
// deliberately not included.
func NewTelemetryRecord(reqCtx model.Context, result *model.GenerationResult) *TelemetryRecord {
	return &TelemetryRecord{
		RequestID:    string(result.RequestID),
		Persona:      string(reqCtx.Persona),
		NumberA:      reqCtx.NumberA,
		NumberB:      reqCtx.NumberB,
		FinalScore:   result.FinalScore,
		StrategyUsed: string(result.StrategyUsed),
		AttemptsUsed: result.AttemptsUsed,
		UsedFallback: result.UsedFallback,
		DurationMS:   result.TotalDuration.Milliseconds(),
		CreatedAt:    time.Now().UTC(),
	}
}

// SlogTelemetry writes records to the structured log. It is the default
// sink when no BigQuery destination is configured.
type SlogTelemetry struct{}

func (s *SlogTelemetry) Emit(ctx context.Context, record *TelemetryRecord) error {
	logging.From(ctx).Info("generation result",
		"request_id", record.RequestID,
		"persona", record.Persona,
		"pair", [2]int{record.NumberA, record.NumberB},
		"score", record.FinalScore,
		"strategy", record.StrategyUsed,
		"attempts", record.AttemptsUsed,
		"fallback", record.UsedFallback,
		"duration_ms", record.DurationMS,
	)
	return nil
}
