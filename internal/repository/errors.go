// Package repository defines the persistence interfaces for the
// platform and their MySQL implementations.  Sentinel errors declared
// here let handlers map storage outcomes to HTTP statuses without
// inspecting driver-specific errors.  Anything that is not one of
// these sentinels is a backing-store failure and must surface as an
// internal error (HTTP 500), never as "not authenticated": a
// transient outage is retryable, a consumed token is not.
package repository

import "errors"

// ErrNotFound is returned when a referenced row does not exist.
// Handlers translate it to HTTP 404 only after authorization has
// already passed; before that point it must collapse into the generic
// unauthenticated/forbidden response.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when an insert violates a unique key, such
// as registering a national ID that already exists.  Handlers
// translate it to HTTP 409.
var ErrDuplicate = errors.New("duplicate record")

// ErrTokenInvalid is returned when a refresh token is unknown,
// expired, revoked, or already consumed by a concurrent rotation.
// All four cases are deliberately indistinguishable and map to 401.
var ErrTokenInvalid = errors.New("invalid refresh token")
