// Package auth implements credential verification and the RBAC guard.
// Both are pure over their inputs: no token issuance, no persistence.
// Token minting belongs to the caller so that every issuance path
// (login, refresh) goes through the same repository-backed flow.
package auth

import (
	"context"
	"errors"

	"github.com/jetci/wecare-app-sub000/internal/model"
	"github.com/jetci/wecare-app-sub000/internal/repository"
)

// Verification error kinds.  ErrUserNotFound and ErrInvalidCredential
// exist so the server can log the real cause, but handlers must render
// both as one identical 401 body.  The distinction never crosses the
// wire, otherwise login becomes a user-enumeration oracle.
var (
	ErrUserNotFound      = errors.New("user not found")
	ErrInvalidCredential = errors.New("invalid credential")
	ErrNotApproved       = errors.New("account not approved")
)

// Verifier checks submitted credentials against stored accounts.
type Verifier struct {
	Users repository.UserRepository
}

func NewVerifier(users repository.UserRepository) *Verifier {
	return &Verifier{Users: users}
}

// Verify looks up the account by national-ID identifier, compares the
// password against the stored bcrypt hash, and enforces the approval
// gate.  It returns the user on success and one of the error kinds
// above on failure.  Repository failures other than not-found pass
// through unwrapped-kind so callers can map them to 500 instead of 401.
func (v *Verifier) Verify(ctx context.Context, identifier, password string) (model.User, error) {
	u, err := v.Users.GetByNationalID(ctx, identifier)
	if errors.Is(err, repository.ErrNotFound) {
		// Burn a bcrypt comparison against a throwaway hash so the
		// unknown-identifier path costs the same as a wrong password.
		VerifyPassword(dummyHash, password)
		return model.User{}, ErrUserNotFound
	}
	if err != nil {
		return model.User{}, err
	}
	if !VerifyPassword(u.PasswordHash, password) {
		return model.User{}, ErrInvalidCredential
	}
	if !u.Approved && !privilegedBypass(u.Role) {
		return model.User{}, ErrNotApproved
	}
	return u, nil
}

// privilegedBypass reports whether the role may log in before an admin
// approves the account.  Without this a fresh deployment would have no
// account able to approve the first admin.
func privilegedBypass(r model.Role) bool {
	switch r {
	case model.RoleAdmin, model.RoleDeveloper:
		return true
	case model.RoleCommunity, model.RoleDriver, model.RoleHealthOfficer, model.RoleExecutive:
		return false
	}
	return false
}

// dummyHash is a bcrypt hash of an unused random value, kept only to
// equalize timing between unknown-user and wrong-password failures.
const dummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"
