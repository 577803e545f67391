package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jetci/wecare-app-sub000/internal/model"
	"github.com/jetci/wecare-app-sub000/internal/repository"
)

func TestTokenStoreValidate(t *testing.T) {
	s := NewTokenStore()
	ctx := context.Background()
	exp := time.Now().Add(time.Hour)

	if err := s.Store(ctx, 1, "hash-a", exp); err != nil {
		t.Fatalf("Store: %v", err)
	}

	rec, err := s.Validate(ctx, "hash-a")
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if rec.UserID != 1 {
		t.Errorf("UserID = %d, want 1", rec.UserID)
	}

	if _, err := s.Validate(ctx, "hash-unknown"); !errors.Is(err, repository.ErrTokenInvalid) {
		t.Errorf("unknown hash: err = %v, want ErrTokenInvalid", err)
	}

	if err := s.Store(ctx, 1, "hash-old", time.Now().Add(-time.Minute)); err != nil {
		t.Fatalf("Store: %v", err)
	}
	if _, err := s.Validate(ctx, "hash-old"); !errors.Is(err, repository.ErrTokenInvalid) {
		t.Errorf("expired hash: err = %v, want ErrTokenInvalid", err)
	}
}

func TestTokenStoreRotate(t *testing.T) {
	s := NewTokenStore()
	ctx := context.Background()
	exp := time.Now().Add(time.Hour)

	if err := s.Store(ctx, 1, "hash-a", exp); err != nil {
		t.Fatalf("Store: %v", err)
	}
	if err := s.Rotate(ctx, "hash-a", "hash-b", 1, exp); err != nil {
		t.Fatalf("Rotate: %v", err)
	}

	// The old hash is consumed, the new one is live.
	if _, err := s.Validate(ctx, "hash-a"); !errors.Is(err, repository.ErrTokenInvalid) {
		t.Errorf("old hash after rotate: err = %v, want ErrTokenInvalid", err)
	}
	if _, err := s.Validate(ctx, "hash-b"); err != nil {
		t.Errorf("new hash after rotate: %v", err)
	}

	// Rotating the consumed hash again loses.
	if err := s.Rotate(ctx, "hash-a", "hash-c", 1, exp); !errors.Is(err, repository.ErrTokenInvalid) {
		t.Errorf("replayed rotate: err = %v, want ErrTokenInvalid", err)
	}
	if got := s.LiveCountForUser(1); got != 1 {
		t.Errorf("live tokens = %d, want 1", got)
	}
}

// Many goroutines rotating the same hash: exactly one succeeds.
func TestTokenStoreRotateConcurrent(t *testing.T) {
	s := NewTokenStore()
	ctx := context.Background()
	exp := time.Now().Add(time.Hour)
	if err := s.Store(ctx, 1, "hash-seed", exp); err != nil {
		t.Fatalf("Store: %v", err)
	}

	const n = 32
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = s.Rotate(ctx, "hash-seed", fmt.Sprintf("hash-next-%d", i), 1, exp)
		}(i)
	}
	wg.Wait()

	wins := 0
	for i, err := range errs {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, repository.ErrTokenInvalid):
		default:
			t.Errorf("rotation %d: unexpected error %v", i, err)
		}
	}
	if wins != 1 {
		t.Errorf("winners = %d, want exactly 1", wins)
	}
	if got := s.LiveCountForUser(1); got != 1 {
		t.Errorf("live tokens = %d, want 1", got)
	}
}

func TestTokenStoreRevokeIdempotent(t *testing.T) {
	s := NewTokenStore()
	ctx := context.Background()
	if err := s.Store(ctx, 1, "hash-a", time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("Store: %v", err)
	}
	for i := 0; i < 2; i++ {
		if err := s.Revoke(ctx, "hash-a"); err != nil {
			t.Fatalf("Revoke #%d: %v", i+1, err)
		}
	}
	if err := s.Revoke(ctx, "never-stored"); err != nil {
		t.Errorf("Revoke unknown: %v", err)
	}
	if got := s.LiveCountForUser(1); got != 0 {
		t.Errorf("live tokens = %d, want 0", got)
	}
}

func TestTokenStoreRevokeAllForUser(t *testing.T) {
	s := NewTokenStore()
	ctx := context.Background()
	exp := time.Now().Add(time.Hour)
	s.Store(ctx, 1, "hash-a", exp)
	s.Store(ctx, 1, "hash-b", exp)
	s.Store(ctx, 2, "hash-c", exp)

	if err := s.RevokeAllForUser(ctx, 1); err != nil {
		t.Fatalf("RevokeAllForUser: %v", err)
	}
	if got := s.LiveCountForUser(1); got != 0 {
		t.Errorf("user 1 live tokens = %d, want 0", got)
	}
	if got := s.LiveCountForUser(2); got != 1 {
		t.Errorf("user 2 live tokens = %d, want 1", got)
	}
}

func TestTokenStoreDeleteExpired(t *testing.T) {
	s := NewTokenStore()
	ctx := context.Background()
	s.Store(ctx, 1, "hash-live", time.Now().Add(time.Hour))
	s.Store(ctx, 1, "hash-dead", time.Now().Add(-time.Hour))

	n, err := s.DeleteExpired(ctx)
	if err != nil {
		t.Fatalf("DeleteExpired: %v", err)
	}
	if n != 1 {
		t.Errorf("deleted = %d, want 1", n)
	}
	if _, err := s.Validate(ctx, "hash-live"); err != nil {
		t.Errorf("live token removed: %v", err)
	}
}

func TestUserStoreDuplicateNationalID(t *testing.T) {
	s := NewUserStore()
	ctx := context.Background()
	u1 := model.User{NationalID: "1234567890123", Role: model.RoleCommunity}
	if _, err := s.Create(ctx, &u1); err != nil {
		t.Fatalf("Create: %v", err)
	}
	u2 := model.User{NationalID: "1234567890123", Role: model.RoleCommunity}
	if _, err := s.Create(ctx, &u2); !errors.Is(err, repository.ErrDuplicate) {
		t.Errorf("duplicate create: err = %v, want ErrDuplicate", err)
	}
}

func TestRideStoreSummary(t *testing.T) {
	s := NewRideStore()
	ctx := context.Background()
	for _, st := range []model.RideStatus{
		model.RideRequested, model.RideRequested, model.RideCompleted,
	} {
		r := model.Ride{PatientID: 1, RequestedByUserID: 1, Status: st}
		if _, err := s.Create(ctx, &r); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}
	sum, err := s.Summary(ctx)
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if sum[model.RideRequested] != 2 || sum[model.RideCompleted] != 1 {
		t.Errorf("summary = %v", sum)
	}
}
