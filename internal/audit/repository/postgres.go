package repository

import (
	"context"
	"database/sql"

	"community-poll-hub/backend/internal/audit/domain"
)

// PostgresRepository persists audit logs via database/sql (pgx stdlib driver).
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns an audit log repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create persists the audit log. The entry must have ID set.
func (r *PostgresRepository) Create(ctx context.Context, entry *domain.AuditLog) error {
	actor := sql.NullString{String: entry.ActorID, Valid: entry.ActorID != ""}
	meta := sql.NullString{String: entry.Metadata, Valid: entry.Metadata != ""}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO audit_logs (id, category, event, actor_id, resource, ip, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		entry.ID, string(entry.Category), entry.Event, actor, entry.Resource, entry.IP, meta, entry.CreatedAt)
	return err
}

// ListRecent returns the newest entries first, up to limit.
func (r *PostgresRepository) ListRecent(ctx context.Context, limit int32) ([]*domain.AuditLog, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, category, event, actor_id, resource, ip, metadata, created_at
		FROM audit_logs ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEntries(rows)
}

// ListByActor returns the newest entries for one actor, up to limit.
func (r *PostgresRepository) ListByActor(ctx context.Context, actorID string, limit int32) ([]*domain.AuditLog, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, category, event, actor_id, resource, ip, metadata, created_at
		FROM audit_logs WHERE actor_id = $1 ORDER BY created_at DESC LIMIT $2`, actorID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEntries(rows)
}

func scanEntries(rows *sql.Rows) ([]*domain.AuditLog, error) {
	var out []*domain.AuditLog
	for rows.Next() {
		var (
			e        domain.AuditLog
			category string
			actor    sql.NullString
			meta     sql.NullString
		)
		if err := rows.Scan(&e.ID, &category, &e.Event, &actor, &e.Resource, &e.IP, &meta, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Category = domain.Category(category)
		if actor.Valid {
			e.ActorID = actor.String
		}
		if meta.Valid {
			e.Metadata = meta.String
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}
