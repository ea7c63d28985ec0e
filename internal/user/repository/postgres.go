package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"community-poll-hub/backend/internal/user/domain"
)

const userColumns = `id, username, email, password_hash, role,
	pending_email, email_confirmation_token_digest, email_confirmation_sent_at,
	created_at, updated_at`

// PostgresRepository persists users via database/sql (pgx stdlib driver).
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a user repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// GetByID returns the user for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

// GetByUsername returns the user with the exact username, or nil if not found.
// The username column has a case-sensitive collation; no folding is applied.
func (r *PostgresRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username)
	return scanUser(row)
}

// GetByEmail returns the user with the given verified email, or nil if not found.
func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	return scanUser(row)
}

// Create persists the user. The user must have ID set; it is not assigned here.
func (r *PostgresRepository) Create(ctx context.Context, u *domain.User) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (id, username, email, password_hash, role, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		u.ID, u.Username, u.Email, u.PasswordHash, int(u.Role), u.CreatedAt, u.UpdatedAt)
	return err
}

// Update rewrites the user's mutable account fields. Pending email-change
// fields are managed only through SetPendingEmailChange/ClaimEmailChange so an
// account update cannot clobber an in-flight confirmation.
func (r *PostgresRepository) Update(ctx context.Context, u *domain.User) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET username = $2, email = $3, password_hash = $4, role = $5, updated_at = $6
		WHERE id = $1`,
		u.ID, u.Username, u.Email, u.PasswordHash, int(u.Role), time.Now().UTC())
	return err
}

// Delete removes the user row. Deleting a missing row is not an error.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	return err
}

// List returns users visible under the scope filter.
func (r *PostgresRepository) List(ctx context.Context, filter ListFilter, ownerID string) ([]*domain.User, error) {
	var (
		rows *sql.Rows
		err  error
	)
	switch filter {
	case FilterAll:
		rows, err = r.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY username`)
	case FilterOwn:
		rows, err = r.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, ownerID)
	default:
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// EmailTakenByOther reports whether email belongs to a different user.
func (r *PostgresRepository) EmailTakenByOther(ctx context.Context, email, userID string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE email = $1 AND id <> $2)`,
		email, userID).Scan(&exists)
	return exists, err
}

// SetPendingEmailChange stores the pending change in one statement so
// concurrent requests for the same user are last-committed-wins with no
// partial field interleaving.
func (r *PostgresRepository) SetPendingEmailChange(ctx context.Context, userID, pendingEmail, tokenDigest string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET pending_email = $2,
		    email_confirmation_token_digest = $3,
		    email_confirmation_sent_at = $4,
		    updated_at = $4
		WHERE id = $1`,
		userID, pendingEmail, tokenDigest, time.Now().UTC())
	return err
}

// ClaimEmailChange swaps pending_email into email and clears the pending
// fields in a single statement keyed on the digest, so a token can be redeemed
// at most once: the second redemption matches no row and returns nil.
func (r *PostgresRepository) ClaimEmailChange(ctx context.Context, tokenDigest string) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx, `
		UPDATE users
		SET email = pending_email,
		    pending_email = NULL,
		    email_confirmation_token_digest = NULL,
		    email_confirmation_sent_at = NULL,
		    updated_at = $2
		WHERE email_confirmation_token_digest = $1 AND pending_email IS NOT NULL
		RETURNING `+userColumns,
		tokenDigest, time.Now().UTC())
	return scanUser(row)
}

// GetByConfirmationTokenDigest returns the user holding the digest, or nil.
func (r *PostgresRepository) GetByConfirmationTokenDigest(ctx context.Context, tokenDigest string) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email_confirmation_token_digest = $1`, tokenDigest)
	return scanUser(row)
}

// ClearPendingEmailChange drops any pending change for the user.
func (r *PostgresRepository) ClearPendingEmailChange(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET pending_email = NULL,
		    email_confirmation_token_digest = NULL,
		    email_confirmation_sent_at = NULL,
		    updated_at = $2
		WHERE id = $1`,
		userID, time.Now().UTC())
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*domain.User, error) {
	var (
		u       domain.User
		role    int
		pending sql.NullString
		digest  sql.NullString
		sentAt  sql.NullTime
	)
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &role,
		&pending, &digest, &sentAt, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	u.Role = domain.Role(role)
	if pending.Valid {
		u.PendingEmail = pending.String
	}
	if digest.Valid {
		u.ConfirmationTokenDigest = digest.String
	}
	if sentAt.Valid {
		t := sentAt.Time
		u.ConfirmationSentAt = &t
	}
	return &u, nil
}
