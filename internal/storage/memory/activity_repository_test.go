package memory_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/order-console/internal/domain"
	"github.com/vladislavdragonenkov/order-console/internal/storage/memory"
)

func newEvent(kind domain.ActivityKind, entityID string) domain.ActivityEvent {
	return domain.ActivityEvent{
		Kind:       kind,
		EntityType: "order",
		EntityID:   entityID,
		Payload:    []byte(`{"status":"Completed"}`),
	}
}

func TestActivityRepository_EnqueueAndPull(t *testing.T) {
	repo := memory.NewActivityRepository()

	first, err := repo.Enqueue(newEvent(domain.ActivityOrderStatusChanged, "7"))
	require.NoError(t, err)
	require.NotEmpty(t, first.ID)
	require.Equal(t, domain.ActivityStatusPending, first.Status)
	require.False(t, first.Occurred.IsZero())

	_, err = repo.Enqueue(newEvent(domain.ActivityOrderDeleted, "3"))
	require.NoError(t, err)

	pending, err := repo.PullPending(10)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	require.Equal(t, first.ID, pending[0].ID)

	limited, err := repo.PullPending(1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
}

func TestActivityRepository_MarkSentAndFailed(t *testing.T) {
	repo := memory.NewActivityRepository()

	a, _ := repo.Enqueue(newEvent(domain.ActivityOrderCreated, "1"))
	b, _ := repo.Enqueue(newEvent(domain.ActivityOrderCreated, "2"))

	require.NoError(t, repo.MarkSent(a.ID))
	require.NoError(t, repo.MarkFailed(b.ID))
	require.ErrorIs(t, repo.MarkSent("missing"), domain.ErrActivityNotFound)

	pending, err := repo.PullPending(10)
	require.NoError(t, err)
	require.Empty(t, pending)

	stats, err := repo.Stats()
	require.NoError(t, err)
	require.Zero(t, stats.PendingCount)
}

func TestActivityRepository_Stats(t *testing.T) {
	repo := memory.NewActivityRepository()
	old := time.Now().UTC().Add(-time.Hour)

	event := newEvent(domain.ActivityProductCreated, "5")
	event.Occurred = old
	_, _ = repo.Enqueue(event)
	_, _ = repo.Enqueue(newEvent(domain.ActivityProductUpdated, "5"))

	stats, err := repo.Stats()
	require.NoError(t, err)
	require.Equal(t, 2, stats.PendingCount)
	require.True(t, stats.OldestPendingAt.Equal(old))
}

func TestActivityRepository_ListRecentNewestFirst(t *testing.T) {
	repo := memory.NewActivityRepository()
	for _, id := range []string{"1", "2", "3"} {
		_, err := repo.Enqueue(newEvent(domain.ActivityOrderDeleted, id))
		require.NoError(t, err)
	}

	events, err := repo.ListRecent(2)
	require.NoError(t, err)
	require.Len(t, events, 2)
	require.Equal(t, "3", events[0].EntityID)
	require.Equal(t, "2", events[1].EntityID)
}

func TestActivityRepository_DeleteRelayedBefore(t *testing.T) {
	repo := memory.NewActivityRepository()
	cutoff := time.Now().UTC()

	oldSent := newEvent(domain.ActivityOrderCreated, "1")
	oldSent.Occurred = cutoff.Add(-48 * time.Hour)
	oldPending := newEvent(domain.ActivityOrderCreated, "2")
	oldPending.Occurred = cutoff.Add(-48 * time.Hour)

	sent, _ := repo.Enqueue(oldSent)
	_, _ = repo.Enqueue(oldPending)
	fresh, _ := repo.Enqueue(newEvent(domain.ActivityOrderCreated, "3"))
	require.NoError(t, repo.MarkSent(sent.ID))
	require.NoError(t, repo.MarkSent(fresh.ID))

	deleted, err := repo.DeleteRelayedBefore(cutoff.Add(-time.Hour), 10)
	require.NoError(t, err)
	require.Equal(t, 1, deleted)

	remaining, err := repo.ListRecent(0)
	require.NoError(t, err)
	require.Len(t, remaining, 2)
}

func TestActivityRepository_DeletePendingBefore(t *testing.T) {
	repo := memory.NewActivityRepository()
	cutoff := time.Now().UTC()

	oldPending := newEvent(domain.ActivityOrderCreated, "1")
	oldPending.Occurred = cutoff.Add(-48 * time.Hour)
	oldSent := newEvent(domain.ActivityOrderDeleted, "2")
	oldSent.Occurred = cutoff.Add(-48 * time.Hour)

	_, _ = repo.Enqueue(oldPending)
	sent, _ := repo.Enqueue(oldSent)
	_, _ = repo.Enqueue(newEvent(domain.ActivityOrderCreated, "3"))
	require.NoError(t, repo.MarkSent(sent.ID))

	deleted, err := repo.DeletePendingBefore(cutoff.Add(-time.Hour), 10)
	require.NoError(t, err)
	require.Equal(t, 1, deleted)

	stats, err := repo.Stats()
	require.NoError(t, err)
	require.Equal(t, 1, stats.PendingCount)

	remaining, err := repo.ListRecent(0)
	require.NoError(t, err)
	require.Len(t, remaining, 2)
	require.Equal(t, "3", remaining[0].EntityID)
	require.Equal(t, "2", remaining[1].EntityID)
}
