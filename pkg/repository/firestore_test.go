package repository_test

import (
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/gt"
	"github.com/vybelabs/numen/pkg/model"
	"github.com/vybelabs/numen/pkg/repository"
)

func newFirestoreRepo(t *testing.T) *repository.Firestore {
	t.Helper()

	projectID := os.Getenv("TEST_FIRESTORE_PROJECT_ID")
	databaseID := os.Getenv("TEST_FIRESTORE_DATABASE_ID")
	if projectID == "" || databaseID == "" {
		t.Skip("TEST_FIRESTORE_PROJECT_ID and TEST_FIRESTORE_DATABASE_ID must be set to run Firestore tests")
	}

	repo, err := repository.NewFirestore(t.Context(), projectID, databaseID)
	gt.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestFirestoreRotation(t *testing.T) {
	repo := newFirestoreRepo(t)
	ctx := t.Context()

	// unique IDs per run so reruns against the same database stay clean
	suffix := uuid.New().String()
	candidates := []model.FallbackID{
		model.FallbackID("fb-a-" + suffix),
		model.FallbackID("fb-b-" + suffix),
	}

	first, err := repo.ClaimFallback(ctx, "3-7", candidates)
	gt.NoError(t, err)
	second, err := repo.ClaimFallback(ctx, "3-7", candidates)
	gt.NoError(t, err)
	third, err := repo.ClaimFallback(ctx, "3-7", candidates)
	gt.NoError(t, err)

	gt.True(t, first != second)
	gt.Equal(t, third, first)

	at, err := repo.LastUsedAt(ctx, first)
	gt.NoError(t, err)
	gt.True(t, !at.IsZero())
}

func TestFirestoreStats(t *testing.T) {
	repo := newFirestoreRepo(t)
	ctx := t.Context()

	before, err := repo.GetStats(ctx)
	gt.NoError(t, err)

	gt.NoError(t, repo.RecordOutcome(ctx, repository.OutcomeAccepted, 20*time.Millisecond))

	after, err := repo.GetStats(ctx)
	gt.NoError(t, err)
	gt.Equal(t, after.Accepted, before.Accepted+1)
	gt.True(t, after.TotalDuration > before.TotalDuration)
}
