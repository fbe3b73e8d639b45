package repository

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/vybelabs/numen/pkg/model"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	rotationCollection = "fallback_rotation"
	statsCollection    = "outcome_stats"
)

// Firestore is a Repository backed by Cloud Firestore, for deployments
// where multiple instances must share rotation state.
type Firestore struct {
	client *firestore.Client
}

type rotationDoc struct {
	PairKey string    `firestore:"pair_key"`
	Seq     int64     `firestore:"seq"`
	UsedAt  time.Time `firestore:"used_at"`
}

type statsDoc struct {
	Count      int64 `firestore:"count"`
	DurationNS int64 `firestore:"duration_ns"`
}

// NewFirestore creates a new Firestore repository
func NewFirestore(ctx context.Context, projectID, databaseID string) (*Firestore, error) {
	client, err := firestore.NewClientWithDatabase(ctx, projectID, databaseID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create firestore client",
			goerr.V("project", projectID), goerr.V("database", databaseID))
	}
	return &Firestore{client: client}, nil
}

func (r *Firestore) ClaimFallback(ctx context.Context, pairKey string, candidates []model.FallbackID) (model.FallbackID, error) {
	if len(candidates) == 0 {
		return "", goerr.Wrap(ErrNoCandidate, "empty candidate set", goerr.V("pair", pairKey))
	}

	var claimed model.FallbackID
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		var (
			best    model.FallbackID
			bestSeq int64 = -1
			maxSeq  int64
		)
		for _, id := range candidates {
			ref := r.client.Collection(rotationCollection).Doc(string(id))
			snap, err := tx.Get(ref)

			var doc rotationDoc
			switch {
			case err == nil:
				if err := snap.DataTo(&doc); err != nil {
					return goerr.Wrap(err, "failed to decode rotation doc", goerr.V("entry", id))
				}
			case status.Code(err) == codes.NotFound:
				// never used
			default:
				return goerr.Wrap(err, "failed to get rotation doc", goerr.V("entry", id))
			}

			if doc.Seq > maxSeq {
				maxSeq = doc.Seq
			}
			if bestSeq < 0 || doc.Seq < bestSeq {
				best, bestSeq = id, doc.Seq
			}
		}

		claimed = best
		ref := r.client.Collection(rotationCollection).Doc(string(best))
		return tx.Set(ref, rotationDoc{
			PairKey: pairKey,
			Seq:     maxSeq + 1,
			UsedAt:  time.Now().UTC(),
		})
	})
	if err != nil {
		return "", goerr.Wrap(err, "fallback claim transaction failed", goerr.V("pair", pairKey))
	}

	return claimed, nil
}

func (r *Firestore) LastUsedAt(ctx context.Context, id model.FallbackID) (time.Time, error) {
	snap, err := r.client.Collection(rotationCollection).Doc(string(id)).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, goerr.Wrap(err, "failed to get rotation doc", goerr.V("entry", id))
	}

	var doc rotationDoc
	if err := snap.DataTo(&doc); err != nil {
		return time.Time{}, goerr.Wrap(err, "failed to decode rotation doc", goerr.V("entry", id))
	}
	return doc.UsedAt, nil
}

func (r *Firestore) RecordOutcome(ctx context.Context, outcome Outcome, d time.Duration) error {
	ref := r.client.Collection(statsCollection).Doc(string(outcome))
	_, err := ref.Set(ctx, map[string]any{
		"count":       firestore.Increment(1),
		"duration_ns": firestore.Increment(d.Nanoseconds()),
	}, firestore.MergeAll)
	if err != nil {
		return goerr.Wrap(err, "failed to record outcome", goerr.V("outcome", outcome))
	}
	return nil
}

func (r *Firestore) GetStats(ctx context.Context) (*Stats, error) {
	stats := &Stats{}
	for _, outcome := range []Outcome{OutcomeAccepted, OutcomeFallback, OutcomeEmergency} {
		snap, err := r.client.Collection(statsCollection).Doc(string(outcome)).Get(ctx)
		if status.Code(err) == codes.NotFound {
			continue
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to get stats doc", goerr.V("outcome", outcome))
		}

		var doc statsDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, goerr.Wrap(err, "failed to decode stats doc", goerr.V("outcome", outcome))
		}

		switch outcome {
		case OutcomeAccepted:
			stats.Accepted = doc.Count
		case OutcomeFallback:
			stats.Fallback = doc.Count
		case OutcomeEmergency:
			stats.Emergency = doc.Count
		}
		stats.TotalRequests += doc.Count
		stats.TotalDuration += time.Duration(doc.DurationNS)
	}

	return stats, nil
}

func (r *Firestore) Close() error {
	return r.client.Close()
}
