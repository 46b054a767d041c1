package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/vladislavdragonenkov/order-console/internal/domain"
)

type activityRepository struct {
	db *sql.DB
}

// NewActivityRepository создаёт PostgreSQL-реализацию ActivityRepository.
func NewActivityRepository(store *Store) domain.ActivityRepository {
	return &activityRepository{db: store.DB()}
}

func (r *activityRepository) Enqueue(event domain.ActivityEvent) (domain.ActivityEvent, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if event.Occurred.IsZero() {
		event.Occurred = now
	}
	event.Status = domain.ActivityStatusPending

	var payload sql.NullString
	if len(event.Payload) > 0 {
		payload = sql.NullString{String: string(event.Payload), Valid: true}
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO activity_events (
			id, kind, entity_type, entity_id, payload,
			occurred, status, attempt_count, updated_at
		) VALUES ($1,$2,$3,$4,$5::jsonb,$6,'pending',0,$7)
	`,
		event.ID, string(event.Kind), event.EntityType, event.EntityID, payload, event.Occurred.UTC(), now,
	)
	if err != nil {
		return domain.ActivityEvent{}, fmt.Errorf("enqueue activity event: %w", err)
	}

	return event, nil
}

func (r *activityRepository) PullPending(limit int) ([]domain.ActivityEvent, error) {
	if limit <= 0 {
		limit = 100
	}
	return r.query(`
		SELECT id, kind, entity_type, entity_id, payload, occurred, status
		FROM activity_events
		WHERE status = 'pending'
		ORDER BY seq
		LIMIT $1
	`, limit)
}

func (r *activityRepository) ListRecent(limit int) ([]domain.ActivityEvent, error) {
	if limit <= 0 {
		limit = 1000
	}
	return r.query(`
		SELECT id, kind, entity_type, entity_id, payload, occurred, status
		FROM activity_events
		ORDER BY seq DESC
		LIMIT $1
	`, limit)
}

func (r *activityRepository) query(q string, limit int) ([]domain.ActivityEvent, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("query activity events: %w", err)
	}
	defer rows.Close()

	result := make([]domain.ActivityEvent, 0, limit)
	for rows.Next() {
		var (
			event   domain.ActivityEvent
			kind    string
			status  string
			payload sql.NullString
		)
		if err := rows.Scan(
			&event.ID,
			&kind,
			&event.EntityType,
			&event.EntityID,
			&payload,
			&event.Occurred,
			&status,
		); err != nil {
			return nil, fmt.Errorf("scan activity event: %w", err)
		}
		event.Kind = domain.ActivityKind(kind)
		event.Status = domain.ActivityStatus(status)
		event.Occurred = event.Occurred.UTC()
		if payload.Valid {
			event.Payload = []byte(payload.String)
		}
		result = append(result, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate activity rows: %w", err)
	}

	return result, nil
}

func (r *activityRepository) Stats() (domain.ActivityStats, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	var (
		stats  domain.ActivityStats
		oldest sql.NullTime
	)

	if err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*), MIN(occurred)
		FROM activity_events
		WHERE status = 'pending'
	`).Scan(&stats.PendingCount, &oldest); err != nil {
		return domain.ActivityStats{}, fmt.Errorf("activity stats query failed: %w", err)
	}

	if oldest.Valid {
		stats.OldestPendingAt = oldest.Time.UTC()
	}

	return stats, nil
}

func (r *activityRepository) MarkSent(id string) error {
	return r.markStatus(id, domain.ActivityStatusSent)
}

func (r *activityRepository) MarkFailed(id string) error {
	return r.markStatus(id, domain.ActivityStatusFailed)
}

func (r *activityRepository) markStatus(id string, status domain.ActivityStatus) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `
		UPDATE activity_events
		SET status = $2,
		    attempt_count = attempt_count + 1,
		    updated_at = $3
		WHERE id = $1
	`, id, string(status), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("mark activity event as %s: %w", status, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected for activity %s: %w", status, err)
	}
	if affected == 0 {
		return domain.ErrActivityNotFound
	}

	return nil
}

func (r *activityRepository) DeleteRelayedBefore(before time.Time, limit int) (int, error) {
	return r.deleteBefore(before, limit, "status <> 'pending'")
}

// DeletePendingBefore удаляет pending-события старше before.
func (r *activityRepository) DeletePendingBefore(before time.Time, limit int) (int, error) {
	return r.deleteBefore(before, limit, "status = 'pending'")
}

func (r *activityRepository) deleteBefore(before time.Time, limit int, statusFilter string) (int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	if limit <= 0 {
		limit = 500
	}

	res, err := r.db.ExecContext(ctx, `
		DELETE FROM activity_events
		WHERE seq IN (
			SELECT seq
			FROM activity_events
			WHERE `+statusFilter+` AND occurred < $1
			ORDER BY seq
			LIMIT $2
		)
	`, before.UTC(), limit)
	if err != nil {
		return 0, fmt.Errorf("delete activity events: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected for activity cleanup: %w", err)
	}
	return int(affected), nil
}

var _ domain.ActivityRepository = (*activityRepository)(nil)
