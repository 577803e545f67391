package auth

import (
	"errors"

	"github.com/jetci/wecare-app-sub000/internal/model"
	"github.com/jetci/wecare-app-sub000/internal/token"
)

// ErrForbidden is returned when an authenticated session fails a role
// or ownership check.  Handlers translate it to HTTP 403.
var ErrForbidden = errors.New("forbidden")

// Authorize checks that the session's role is in the allowed set.  It
// is a pure predicate: no state carries across calls.  The role claim
// is matched exactly, never normalized; a claim that is not the
// canonical constant (which should be impossible for tokens minted by
// this service) always fails.
func Authorize(sess token.Session, allowed ...model.Role) error {
	role := model.Role(sess.Role)
	if !role.Valid() {
		return ErrForbidden
	}
	for _, a := range allowed {
		if role == a {
			return nil
		}
	}
	return ErrForbidden
}

// AuthorizeOwner layers the per-row ownership check over the role
// check.  Self-scoped roles must own the resource; ADMIN and DEVELOPER
// bypass ownership.  Every handler that touches a patient or ride row
// goes through this single primitive so the check cannot be forgotten
// per-route.
func AuthorizeOwner(sess token.Session, resourceOwnerID uint64, allowed ...model.Role) error {
	if err := Authorize(sess, allowed...); err != nil {
		return err
	}
	role := model.Role(sess.Role)
	if role.BypassesOwnership() {
		return nil
	}
	if role.SelfScoped() && resourceOwnerID != sess.UserID {
		return ErrForbidden
	}
	return nil
}
