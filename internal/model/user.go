package model

import "time"

// User represents an account row in the `users` table.  The json tags
// are deliberately absent: handlers build their own response types so
// that the password hash can never be serialized by accident.
//
// Fields:
//  ID           – primary key identifier.
//  NationalID   – unique 13-digit national ID used as the login identifier.
//  PasswordHash – bcrypt hashed password; never leaves the server.
//  Role         – account role (closed enum, see role.go).
//  Approved     – whether an admin has approved the account.  New
//                 registrations start unapproved and cannot log in
//                 until approved, except for privileged roles.
//  FullName     – display name.
//  Phone        – contact phone number.
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
type User struct {
	ID           uint64
	NationalID   string
	PasswordHash string
	Role         Role
	Approved     bool
	FullName     string
	Phone        string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// RefreshToken models a row in the `refresh_tokens` table.  The raw
// opaque value handed to the client is never stored; only its SHA-256
// hash.  A row is consumed (revoked_at set) exactly once: on rotation,
// logout, or administrative revocation.
//
// Fields:
//  ID        – opaque record identifier ("rt-" + uuid fragment).
//  UserID    – owner of the token.
//  TokenHash – SHA-256 hex digest of the raw token value.
//  ExpiresAt – absolute UTC expiry computed at issuance.
//  RevokedAt – when the token was consumed (nil while still live).
//  CreatedAt – timestamp of creation.
type RefreshToken struct {
	ID        string
	UserID    uint64
	TokenHash string
	ExpiresAt time.Time
	RevokedAt *time.Time
	CreatedAt time.Time
}

// Live reports whether the token is neither revoked nor expired at
// the given instant.
func (t RefreshToken) Live(now time.Time) bool {
	return t.RevokedAt == nil && now.Before(t.ExpiresAt)
}
