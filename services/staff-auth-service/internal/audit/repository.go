package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/md-rashed-zaman/staffportal/libs/db"
	"github.com/md-rashed-zaman/staffportal/services/staff-auth-service/internal/outbox"
)

const (
	ActionLogin       = "staff.login"
	ActionLoginFailed = "staff.login.failed"

	// EventLogin is the topic successful staff logins are relayed to.
	EventLogin = "staff.auth.login.v1"
)

type Repository struct {
	pool   *db.Pool
	outbox *outbox.Repository
}

func NewRepository(pool *db.Pool, outboxRepo *outbox.Repository) *Repository {
	return &Repository{pool: pool, outbox: outboxRepo}
}

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func insert(ctx context.Context, q execer, action, actorID string, metadata map[string]any) error {
	raw, err := json.Marshal(metadata)
	if err != nil {
		return err
	}
	_, err = q.Exec(ctx, `
		INSERT INTO audit_events (event_type, actor_id, metadata)
		VALUES ($1, NULLIF($2, '')::uuid, $3)
	`, action, actorID, raw)
	return err
}

// Record writes an audit row without announcing it.
func (r *Repository) Record(ctx context.Context, action string, actorID string, metadata map[string]any) error {
	return insert(ctx, r.pool, action, actorID, metadata)
}

// RecordWithOutbox writes the audit row and an outbox row for eventType in
// one transaction.
func (r *Repository) RecordWithOutbox(ctx context.Context, action, eventType, actorID string, metadata map[string]any) error {
	if r.outbox == nil {
		return r.Record(ctx, action, actorID, metadata)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := insert(ctx, tx, action, actorID, metadata); err != nil {
		return err
	}

	payload, err := json.Marshal(map[string]any{
		"action":     action,
		"actor_id":   actorID,
		"metadata":   metadata,
		"created_at": time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return err
	}
	if err := r.outbox.Insert(ctx, tx, outbox.Event{
		AggregateType: "staff_user",
		AggregateID:   actorID,
		EventType:     eventType,
		Payload:       payload,
	}); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

type Event struct {
	ID        int64           `json:"id"`
	Action    string          `json:"action"`
	ActorID   string          `json:"actor_id,omitempty"`
	Metadata  json.RawMessage `json:"metadata"`
	CreatedAt string          `json:"created_at"`
}

func (r *Repository) ListRecent(ctx context.Context, limit int) ([]Event, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, event_type, COALESCE(actor_id::text, ''), metadata, created_at
		FROM audit_events
		ORDER BY id DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (Event, error) {
		var (
			e         Event
			createdAt time.Time
		)
		if err := row.Scan(&e.ID, &e.Action, &e.ActorID, &e.Metadata, &createdAt); err != nil {
			return Event{}, err
		}
		e.CreatedAt = createdAt.UTC().Format(time.RFC3339)
		return e, nil
	})
}
