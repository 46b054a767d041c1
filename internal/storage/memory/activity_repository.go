package memory

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vladislavdragonenkov/order-console/internal/domain"
)

// activityRecord хранит событие и служебные поля для in-memory реализации.
type activityRecord struct {
	event      domain.ActivityEvent
	seq        int64
	attemptCnt int
	updatedAt  time.Time
}

// activityRepositoryInMemory — in-memory outbox событий активности (для разработки/тестов).
type activityRepositoryInMemory struct {
	mu      sync.RWMutex
	seq     int64
	records map[string]*activityRecord
}

// NewActivityRepository создаёт in-memory реализацию ActivityRepository.
func NewActivityRepository() *activityRepositoryInMemory {
	return &activityRepositoryInMemory{records: make(map[string]*activityRecord)}
}

// Enqueue сохраняет событие со статусом `pending`.
func (r *activityRepositoryInMemory) Enqueue(event domain.ActivityEvent) (domain.ActivityEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if event.Occurred.IsZero() {
		event.Occurred = now
	}
	event.Status = domain.ActivityStatusPending

	r.seq++
	r.records[event.ID] = &activityRecord{event: event, seq: r.seq, updatedAt: now}
	return event, nil
}

// PullPending возвращает до limit событий со статусом `pending` в порядке записи.
func (r *activityRepositoryInMemory) PullPending(limit int) ([]domain.ActivityEvent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if limit <= 0 {
		limit = 100
	}

	pending := r.sortedLocked(func(rec *activityRecord) bool {
		return rec.event.Status == domain.ActivityStatusPending
	}, false)
	if len(pending) > limit {
		pending = pending[:limit]
	}
	return pending, nil
}

// Stats возвращает размер backlog и время самого старого pending-события.
func (r *activityRepositoryInMemory) Stats() (domain.ActivityStats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var stats domain.ActivityStats
	for _, rec := range r.records {
		if rec.event.Status != domain.ActivityStatusPending {
			continue
		}
		stats.PendingCount++
		if stats.OldestPendingAt.IsZero() || rec.event.Occurred.Before(stats.OldestPendingAt) {
			stats.OldestPendingAt = rec.event.Occurred
		}
	}
	return stats, nil
}

// MarkSent обновляет статус события после успешной публикации.
func (r *activityRepositoryInMemory) MarkSent(id string) error {
	return r.mark(id, domain.ActivityStatusSent)
}

// MarkFailed фиксирует ошибку публикации.
func (r *activityRepositoryInMemory) MarkFailed(id string) error {
	return r.mark(id, domain.ActivityStatusFailed)
}

func (r *activityRepositoryInMemory) mark(id string, status domain.ActivityStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	record, ok := r.records[id]
	if !ok {
		return domain.ErrActivityNotFound
	}
	record.event.Status = status
	record.attemptCnt++
	record.updatedAt = time.Now().UTC()
	return nil
}

// ListRecent возвращает последние события, новые первыми.
func (r *activityRepositoryInMemory) ListRecent(limit int) ([]domain.ActivityEvent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	events := r.sortedLocked(func(*activityRecord) bool { return true }, true)
	if limit > 0 && len(events) > limit {
		events = events[:limit]
	}
	return events, nil
}

// DeleteRelayedBefore удаляет отправленные и проваленные события старше before.
func (r *activityRepositoryInMemory) DeleteRelayedBefore(before time.Time, limit int) (int, error) {
	return r.deleteBefore(before, limit, func(rec *activityRecord) bool {
		return rec.event.Status != domain.ActivityStatusPending
	})
}

// DeletePendingBefore удаляет pending-события старше before.
func (r *activityRepositoryInMemory) DeletePendingBefore(before time.Time, limit int) (int, error) {
	return r.deleteBefore(before, limit, func(rec *activityRecord) bool {
		return rec.event.Status == domain.ActivityStatusPending
	})
}

func (r *activityRepositoryInMemory) deleteBefore(before time.Time, limit int, match func(*activityRecord) bool) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if limit <= 0 {
		limit = 500
	}

	candidates := r.sortedLocked(func(rec *activityRecord) bool {
		return match(rec) && rec.event.Occurred.Before(before)
	}, false)
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	for _, event := range candidates {
		delete(r.records, event.ID)
	}
	return len(candidates), nil
}

// sortedLocked отбирает события по фильтру и сортирует по порядку записи.
func (r *activityRepositoryInMemory) sortedLocked(keep func(*activityRecord) bool, newestFirst bool) []domain.ActivityEvent {
	records := make([]*activityRecord, 0, len(r.records))
	for _, rec := range r.records {
		if keep(rec) {
			records = append(records, rec)
		}
	}
	sort.Slice(records, func(i, j int) bool {
		if newestFirst {
			return records[i].seq > records[j].seq
		}
		return records[i].seq < records[j].seq
	})

	result := make([]domain.ActivityEvent, 0, len(records))
	for _, rec := range records {
		result = append(result, rec.event)
	}
	return result
}

var _ domain.ActivityRepository = (*activityRepositoryInMemory)(nil)
