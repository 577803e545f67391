package repository

import (
	"context"
	"time"

	"github.com/jetci/wecare-app-sub000/internal/model"
)

// UserRepository is the persistence boundary for account records.
// Components receive it explicitly instead of reaching for a global
// client, so tests can substitute the in-memory implementation.
type UserRepository interface {
	// Create inserts a user and returns the generated ID.  The caller
	// supplies an already-hashed password; repositories never see
	// plaintext.  Returns ErrDuplicate when the national ID is taken.
	Create(ctx context.Context, u *model.User) (uint64, error)
	// GetByNationalID fetches a user by login identifier.
	GetByNationalID(ctx context.Context, nationalID string) (model.User, error)
	// GetByID fetches a user by primary key.
	GetByID(ctx context.Context, id uint64) (model.User, error)
	// SetApproved flips the approval flag.
	SetApproved(ctx context.Context, id uint64, approved bool) error
	// UpdateProfile updates the self-editable profile fields.
	UpdateProfile(ctx context.Context, id uint64, fullName, phone string) error
	// List returns every user, newest first.  Admin surface only.
	List(ctx context.Context) ([]model.User, error)
}

// RefreshTokenRepository persists refresh-token records.  Only Store,
// Rotate and the revoke operations mutate the table; Validate is a
// consistent-snapshot read.
type RefreshTokenRepository interface {
	// Store inserts a fresh token record (login issues one).
	Store(ctx context.Context, userID uint64, tokenHash string, expiresAt time.Time) error
	// Validate returns the record for a hash if it is live.  Unknown,
	// expired and revoked hashes all return ErrTokenInvalid.
	Validate(ctx context.Context, tokenHash string) (model.RefreshToken, error)
	// Rotate atomically consumes the old hash and stores the new one
	// in a single transaction.  When two calls race on the same old
	// hash exactly one succeeds; the loser gets ErrTokenInvalid.
	Rotate(ctx context.Context, oldHash, newHash string, userID uint64, expiresAt time.Time) error
	// Revoke consumes one token by hash.  Revoking an already-consumed
	// or unknown hash is not an error; logout is idempotent.
	Revoke(ctx context.Context, tokenHash string) error
	// RevokeAllForUser consumes every live token a user holds.
	RevokeAllForUser(ctx context.Context, userID uint64) error
	// DeleteExpired sweeps rows whose expiry has passed.
	DeleteExpired(ctx context.Context) (int64, error)
}

// PatientRepository is the persistence boundary for patient records.
type PatientRepository interface {
	Create(ctx context.Context, p *model.Patient) (uint64, error)
	GetByID(ctx context.Context, id uint64) (model.Patient, error)
	ListByManager(ctx context.Context, managerID uint64) ([]model.Patient, error)
	ListAll(ctx context.Context) ([]model.Patient, error)
	Update(ctx context.Context, p *model.Patient) error
	Delete(ctx context.Context, id uint64) error
}

// RideRepository is the persistence boundary for ride records.
type RideRepository interface {
	Create(ctx context.Context, r *model.Ride) (uint64, error)
	GetByID(ctx context.Context, id uint64) (model.Ride, error)
	ListByRequester(ctx context.Context, userID uint64) ([]model.Ride, error)
	ListByDriver(ctx context.Context, driverID uint64) ([]model.Ride, error)
	ListAll(ctx context.Context) ([]model.Ride, error)
	// AssignDriver sets the driver and moves the ride to ASSIGNED.
	AssignDriver(ctx context.Context, rideID, driverID uint64) error
	// UpdateStatus moves the ride to the given status.
	UpdateStatus(ctx context.Context, rideID uint64, status model.RideStatus) error
	// Summary aggregates ride counts by status for reporting.
	Summary(ctx context.Context) (map[model.RideStatus]int64, error)
}

// NotificationRepository is the persistence boundary for notification
// rows written by the ride-event consumer.
type NotificationRepository interface {
	Create(ctx context.Context, n *model.Notification) (uint64, error)
	ListByUser(ctx context.Context, userID uint64) ([]model.Notification, error)
	// MarkRead flags a notification as read; scoped by owner so a user
	// cannot flag someone else's rows.
	MarkRead(ctx context.Context, id, userID uint64) error
}
