package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/vladislavdragonenkov/order-console/internal/domain"
	"github.com/vladislavdragonenkov/order-console/internal/storage/memory"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func pendingEvent(id string) domain.ActivityEvent {
	return domain.ActivityEvent{
		ID:         id,
		Kind:       domain.ActivityOrderStatusChanged,
		EntityType: "order",
		EntityID:   "order-" + id,
		Payload:    []byte(`{"status":"Completed"}`),
		Occurred:   time.Now().UTC(),
	}
}

func TestWorker_ProcessOnce_MarkSent(t *testing.T) {
	t.Parallel()

	repo := &stubActivityRepo{pending: []domain.ActivityEvent{pendingEvent("evt-1")}}
	publisher := &stubPublisher{}

	worker := NewWorker(repo, publisher, WithRetryBaseDelay(0), WithMaxAttempts(3))
	worker.ProcessOnce(context.Background())

	require.Equal(t, []string{"evt-1"}, repo.sentIDs)
	require.Empty(t, repo.failedIDs)
	require.Equal(t, 1, publisher.calls())

	status := worker.Status()
	require.Equal(t, 1, status.Sent)
	require.Zero(t, status.Failed)
	require.False(t, status.LastRunAt.IsZero())
}

func TestWorker_ProcessOnce_MarkFailedAndDLQAfterRetries(t *testing.T) {
	t.Parallel()

	repo := &stubActivityRepo{pending: []domain.ActivityEvent{pendingEvent("evt-2")}}
	publisher := &stubPublisher{err: errors.New("publish failed")}
	dlqPublisher := &stubPublisher{}

	worker := NewWorker(
		repo,
		publisher,
		WithDLQPublisher(dlqPublisher),
		WithRetryBaseDelay(0),
		WithMaxAttempts(3),
	)
	worker.ProcessOnce(context.Background())

	require.Equal(t, 3, publisher.calls())
	require.Empty(t, repo.sentIDs)
	require.Equal(t, []string{"evt-2"}, repo.failedIDs)
	require.Equal(t, 1, dlqPublisher.calls())

	dead := dlqPublisher.last()
	require.Equal(t, "evt-2", dead.ID)
	var body map[string]any
	require.NoError(t, json.Unmarshal(dead.Payload, &body))
	require.Equal(t, "evt-2", body["activity_id"])
	require.Contains(t, body["publish_error"], "publish failed")
	require.Equal(t, map[string]any{"status": "Completed"}, body["payload"])

	status := worker.Status()
	require.Equal(t, 1, status.Failed)
	require.Contains(t, status.LastError, "publish failed after 3 attempts")
}

func TestWorker_ProcessOnce_SuccessAfterRetry(t *testing.T) {
	t.Parallel()

	repo := &stubActivityRepo{pending: []domain.ActivityEvent{pendingEvent("evt-3")}}
	publisher := &stubPublisher{
		sequenceErrors: []error{errors.New("attempt 1"), errors.New("attempt 2"), nil},
	}

	worker := NewWorker(repo, publisher, WithRetryBaseDelay(0), WithMaxAttempts(3))
	worker.ProcessOnce(context.Background())

	require.Equal(t, 3, publisher.calls())
	require.Equal(t, []string{"evt-3"}, repo.sentIDs)
	require.Empty(t, repo.failedIDs)
}

func TestWorker_ProcessOnce_WithMemoryRepository(t *testing.T) {
	t.Parallel()

	repo := memory.NewActivityRepository()
	for _, id := range []string{"a", "b"} {
		_, err := repo.Enqueue(pendingEvent(id))
		require.NoError(t, err)
	}

	publisher := &stubPublisher{}
	worker := NewWorker(repo, publisher, WithRetryBaseDelay(0))
	worker.ProcessOnce(context.Background())

	stats, err := repo.Stats()
	require.NoError(t, err)
	require.Zero(t, stats.PendingCount)
	require.Equal(t, 2, publisher.calls())
	require.Zero(t, worker.Status().Pending)

	recent, err := repo.ListRecent(10)
	require.NoError(t, err)
	for _, event := range recent {
		require.Equal(t, domain.ActivityStatusSent, event.Status)
	}
}

func TestWorker_RetryBackoff(t *testing.T) {
	t.Parallel()

	worker := NewWorker(nil, nil, WithRetryBaseDelay(10*time.Millisecond))
	require.Equal(t, 10*time.Millisecond, worker.retryBackoff(1))
	require.Equal(t, 20*time.Millisecond, worker.retryBackoff(2))
	require.Equal(t, 40*time.Millisecond, worker.retryBackoff(3))

	disabled := NewWorker(nil, nil, WithRetryBaseDelay(0))
	require.Zero(t, disabled.retryBackoff(5))
}

func TestWorker_PublishWithRetry_StopsOnCancel(t *testing.T) {
	t.Parallel()

	publisher := &stubPublisher{err: errors.New("down")}
	worker := NewWorker(&stubActivityRepo{}, publisher, WithRetryBaseDelay(time.Hour), WithMaxAttempts(5))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := worker.publishWithRetry(ctx, pendingEvent("evt-4"))
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, 1, publisher.calls())
}

func TestWorker_Run_StopsOnContextCancel(t *testing.T) {
	t.Parallel()

	worker := NewWorker(&stubActivityRepo{}, &stubPublisher{},
		WithPollInterval(5*time.Millisecond),
		WithRetryBaseDelay(0),
	)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		worker.Run(ctx)
	}()

	time.Sleep(15 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(1 * time.Second):
		t.Fatal("worker did not stop on context cancel")
	}
}

func TestWorker_Run_DisabledWithoutPublisher(t *testing.T) {
	t.Parallel()

	worker := NewWorker(&stubActivityRepo{}, nil)
	done := make(chan struct{})
	go func() {
		defer close(done)
		worker.Run(context.Background())
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("disabled worker should return immediately")
	}
}

type stubActivityRepo struct {
	mu        sync.Mutex
	pending   []domain.ActivityEvent
	sentIDs   []string
	failedIDs []string
}

func (s *stubActivityRepo) Enqueue(event domain.ActivityEvent) (domain.ActivityEvent, error) {
	return event, nil
}

func (s *stubActivityRepo) PullPending(limit int) ([]domain.ActivityEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if limit <= 0 || limit >= len(s.pending) {
		return append([]domain.ActivityEvent(nil), s.pending...), nil
	}
	return append([]domain.ActivityEvent(nil), s.pending[:limit]...), nil
}

func (s *stubActivityRepo) Stats() (domain.ActivityStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stats := domain.ActivityStats{PendingCount: len(s.pending) - len(s.sentIDs) - len(s.failedIDs)}
	if stats.PendingCount > 0 {
		stats.OldestPendingAt = time.Now().UTC().Add(-time.Second)
	}
	return stats, nil
}

func (s *stubActivityRepo) MarkSent(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sentIDs = append(s.sentIDs, id)
	return nil
}

func (s *stubActivityRepo) MarkFailed(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failedIDs = append(s.failedIDs, id)
	return nil
}

func (s *stubActivityRepo) ListRecent(int) ([]domain.ActivityEvent, error) {
	return nil, nil
}

func (s *stubActivityRepo) DeleteRelayedBefore(time.Time, int) (int, error) {
	return 0, nil
}

func (s *stubActivityRepo) DeletePendingBefore(time.Time, int) (int, error) {
	return 0, nil
}

type stubPublisher struct {
	mu             sync.Mutex
	err            error
	sequenceErrors []error
	callCount      int
	published      []domain.ActivityEvent
}

func (s *stubPublisher) Publish(event domain.ActivityEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.callCount++
	s.published = append(s.published, event)
	if len(s.sequenceErrors) > 0 {
		err := s.sequenceErrors[0]
		s.sequenceErrors = s.sequenceErrors[1:]
		return err
	}
	return s.err
}

func (s *stubPublisher) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.callCount
}

func (s *stubPublisher) last() domain.ActivityEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.published[len(s.published)-1]
}

var (
	_ domain.ActivityRepository = (*stubActivityRepo)(nil)
	_ domain.ActivityPublisher  = (*stubPublisher)(nil)
)
