package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jetci/wecare-app-sub000/internal/model"
)

// RefreshTokenRepo implements RefreshTokenRepository against MySQL.
// Rows are keyed by the SHA-256 hash of the raw token; the raw value
// never reaches this layer's storage.
type RefreshTokenRepo struct{ DB *sql.DB }

func NewRefreshTokenRepo(db *sql.DB) *RefreshTokenRepo { return &RefreshTokenRepo{DB: db} }

func newTokenRecordID() string { return "rt-" + uuid.NewString()[:16] }

// Store inserts a fresh token row.
func (r *RefreshTokenRepo) Store(ctx context.Context, userID uint64, tokenHash string, expiresAt time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO refresh_tokens (id, user_id, token_hash, expires_at) VALUES (?,?,?,?)",
		newTokenRecordID(), userID, tokenHash, expiresAt.UTC())
	if err != nil {
		return fmt.Errorf("storing refresh token: %w", err)
	}
	return nil
}

// Validate returns the live record for a hash.  Unknown, revoked and
// expired rows all collapse to ErrTokenInvalid; only driver failures
// surface as anything else.
func (r *RefreshTokenRepo) Validate(ctx context.Context, tokenHash string) (model.RefreshToken, error) {
	var t model.RefreshToken
	var revokedAt sql.NullTime
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, user_id, token_hash, expires_at, revoked_at, created_at FROM refresh_tokens WHERE token_hash=? LIMIT 1",
		tokenHash).Scan(&t.ID, &t.UserID, &t.TokenHash, &t.ExpiresAt, &revokedAt, &t.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.RefreshToken{}, ErrTokenInvalid
	}
	if err != nil {
		return model.RefreshToken{}, fmt.Errorf("looking up refresh token: %w", err)
	}
	if revokedAt.Valid {
		t.RevokedAt = &revokedAt.Time
	}
	if !t.Live(time.Now().UTC()) {
		return model.RefreshToken{}, ErrTokenInvalid
	}
	return t, nil
}

// Rotate consumes the old hash and inserts its replacement in one
// transaction.  The consume is a compare-and-swap: the UPDATE only
// matches a row that is still unrevoked and unexpired, and must affect
// exactly one row.  Two rotations racing on the same old hash are
// serialized by the row lock; the loser's UPDATE matches nothing and
// the whole transaction rolls back with ErrTokenInvalid, so a rotated
// token can never authenticate again.
func (r *RefreshTokenRepo) Rotate(ctx context.Context, oldHash, newHash string, userID uint64, expiresAt time.Time) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning rotation: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback is a no-op after commit

	res, err := tx.ExecContext(ctx,
		"UPDATE refresh_tokens SET revoked_at=NOW() WHERE token_hash=? AND revoked_at IS NULL AND expires_at > NOW()",
		oldHash)
	if err != nil {
		return fmt.Errorf("consuming old token: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("consuming old token: %w", err)
	}
	if n != 1 {
		return ErrTokenInvalid
	}

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO refresh_tokens (id, user_id, token_hash, expires_at) VALUES (?,?,?,?)",
		newTokenRecordID(), userID, newHash, expiresAt.UTC()); err != nil {
		return fmt.Errorf("storing rotated token: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing rotation: %w", err)
	}
	return nil
}

// Revoke consumes one token by hash.  Idempotent: revoking an unknown
// or already-consumed hash is not an error.
func (r *RefreshTokenRepo) Revoke(ctx context.Context, tokenHash string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE refresh_tokens SET revoked_at=NOW() WHERE token_hash=? AND revoked_at IS NULL",
		tokenHash)
	if err != nil {
		return fmt.Errorf("revoking token: %w", err)
	}
	return nil
}

// RevokeAllForUser consumes every live token a user holds.  Used by
// administrative disable and logout-everywhere.
func (r *RefreshTokenRepo) RevokeAllForUser(ctx context.Context, userID uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE refresh_tokens SET revoked_at=NOW() WHERE user_id=? AND revoked_at IS NULL",
		userID)
	if err != nil {
		return fmt.Errorf("revoking all tokens for user: %w", err)
	}
	return nil
}

// DeleteExpired sweeps rows whose expiry has passed and returns the
// number of deleted rows.
func (r *RefreshTokenRepo) DeleteExpired(ctx context.Context) (int64, error) {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM refresh_tokens WHERE expires_at <= NOW()")
	if err != nil {
		return 0, fmt.Errorf("deleting expired tokens: %w", err)
	}
	n, _ := res.RowsAffected() //nolint:errcheck
	return n, nil
}
