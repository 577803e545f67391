// Package memory provides in-memory implementations of the repository
// interfaces.  They honor the same sentinel-error contracts as the
// MySQL implementations, including the compare-and-swap rotation
// semantics, so handler and auth tests can run without a database.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jetci/wecare-app-sub000/internal/model"
	"github.com/jetci/wecare-app-sub000/internal/repository"
)

// UserStore is an in-memory repository.UserRepository.
type UserStore struct {
	mu     sync.Mutex
	nextID uint64
	users  map[uint64]model.User
}

func NewUserStore() *UserStore {
	return &UserStore{users: map[uint64]model.User{}}
}

func (s *UserStore) Create(_ context.Context, u *model.User) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.NationalID == u.NationalID {
			return 0, repository.ErrDuplicate
		}
	}
	s.nextID++
	u.ID = s.nextID
	now := time.Now().UTC()
	u.CreatedAt, u.UpdatedAt = now, now
	s.users[u.ID] = *u
	return u.ID, nil
}

func (s *UserStore) GetByNationalID(_ context.Context, nationalID string) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.NationalID == nationalID {
			return u, nil
		}
	}
	return model.User{}, repository.ErrNotFound
}

func (s *UserStore) GetByID(_ context.Context, id uint64) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return model.User{}, repository.ErrNotFound
	}
	return u, nil
}

func (s *UserStore) SetApproved(_ context.Context, id uint64, approved bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.Approved = approved
	u.UpdatedAt = time.Now().UTC()
	s.users[id] = u
	return nil
}

func (s *UserStore) UpdateProfile(_ context.Context, id uint64, fullName, phone string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.FullName, u.Phone = fullName, phone
	u.UpdatedAt = time.Now().UTC()
	s.users[id] = u
	return nil
}

func (s *UserStore) List(_ context.Context) ([]model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	users := make([]model.User, 0, len(s.users))
	for _, u := range s.users {
		users = append(users, u)
	}
	return users, nil
}

// Delete removes a user outright.  Test helper; the MySQL
// implementation has no physical delete in the normal flow.
func (s *UserStore) Delete(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.users, id)
}

// TokenStore is an in-memory repository.RefreshTokenRepository.  The
// whole store is guarded by one mutex, which makes Rotate a true
// compare-and-swap: under concurrent rotations of the same hash only
// the first caller finds the row live.
type TokenStore struct {
	mu     sync.Mutex
	tokens map[string]model.RefreshToken // keyed by token hash
}

func NewTokenStore() *TokenStore {
	return &TokenStore{tokens: map[string]model.RefreshToken{}}
}

func (s *TokenStore) Store(_ context.Context, userID uint64, tokenHash string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[tokenHash] = model.RefreshToken{
		ID:        "rt-" + uuid.NewString()[:16],
		UserID:    userID,
		TokenHash: tokenHash,
		ExpiresAt: expiresAt.UTC(),
		CreatedAt: time.Now().UTC(),
	}
	return nil
}

func (s *TokenStore) Validate(_ context.Context, tokenHash string) (model.RefreshToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tokens[tokenHash]
	if !ok || !t.Live(time.Now().UTC()) {
		return model.RefreshToken{}, repository.ErrTokenInvalid
	}
	return t, nil
}

func (s *TokenStore) Rotate(_ context.Context, oldHash, newHash string, userID uint64, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	old, ok := s.tokens[oldHash]
	if !ok || !old.Live(now) {
		return repository.ErrTokenInvalid
	}
	old.RevokedAt = &now
	s.tokens[oldHash] = old
	s.tokens[newHash] = model.RefreshToken{
		ID:        "rt-" + uuid.NewString()[:16],
		UserID:    userID,
		TokenHash: newHash,
		ExpiresAt: expiresAt.UTC(),
		CreatedAt: now,
	}
	return nil
}

func (s *TokenStore) Revoke(_ context.Context, tokenHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tokens[tokenHash]
	if !ok || t.RevokedAt != nil {
		return nil // idempotent
	}
	now := time.Now().UTC()
	t.RevokedAt = &now
	s.tokens[tokenHash] = t
	return nil
}

func (s *TokenStore) RevokeAllForUser(_ context.Context, userID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	for hash, t := range s.tokens {
		if t.UserID == userID && t.RevokedAt == nil {
			t.RevokedAt = &now
			s.tokens[hash] = t
		}
	}
	return nil
}

func (s *TokenStore) DeleteExpired(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	var n int64
	for hash, t := range s.tokens {
		if !now.Before(t.ExpiresAt) {
			delete(s.tokens, hash)
			n++
		}
	}
	return n, nil
}

// LiveCountForUser reports how many unexpired, unrevoked tokens a user
// holds.  Exposed for the race-safety tests.
func (s *TokenStore) LiveCountForUser(userID uint64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	count := 0
	for _, t := range s.tokens {
		if t.UserID == userID && t.Live(now) {
			count++
		}
	}
	return count
}

// PatientStore is an in-memory repository.PatientRepository.
type PatientStore struct {
	mu       sync.Mutex
	nextID   uint64
	patients map[uint64]model.Patient
}

func NewPatientStore() *PatientStore {
	return &PatientStore{patients: map[uint64]model.Patient{}}
}

func (s *PatientStore) Create(_ context.Context, p *model.Patient) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	p.ID = s.nextID
	now := time.Now().UTC()
	p.CreatedAt, p.UpdatedAt = now, now
	s.patients[p.ID] = *p
	return p.ID, nil
}

func (s *PatientStore) GetByID(_ context.Context, id uint64) (model.Patient, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.patients[id]
	if !ok {
		return model.Patient{}, repository.ErrNotFound
	}
	return p, nil
}

func (s *PatientStore) ListByManager(_ context.Context, managerID uint64) ([]model.Patient, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	patients := []model.Patient{}
	for _, p := range s.patients {
		if p.ManagedByUserID == managerID {
			patients = append(patients, p)
		}
	}
	return patients, nil
}

func (s *PatientStore) ListAll(_ context.Context) ([]model.Patient, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	patients := make([]model.Patient, 0, len(s.patients))
	for _, p := range s.patients {
		patients = append(patients, p)
	}
	return patients, nil
}

func (s *PatientStore) Update(_ context.Context, p *model.Patient) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.patients[p.ID]
	if !ok {
		return repository.ErrNotFound
	}
	existing.FullName, existing.Phone = p.FullName, p.Phone
	existing.Address, existing.Notes = p.Address, p.Notes
	existing.UpdatedAt = time.Now().UTC()
	s.patients[p.ID] = existing
	return nil
}

func (s *PatientStore) Delete(_ context.Context, id uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.patients[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.patients, id)
	return nil
}

// RideStore is an in-memory repository.RideRepository.
type RideStore struct {
	mu     sync.Mutex
	nextID uint64
	rides  map[uint64]model.Ride
}

func NewRideStore() *RideStore {
	return &RideStore{rides: map[uint64]model.Ride{}}
}

func (s *RideStore) Create(_ context.Context, r *model.Ride) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	r.ID = s.nextID
	if r.Reference == "" {
		r.Reference = "WCR-" + uuid.NewString()[:8]
	}
	if r.Status == "" {
		r.Status = model.RideRequested
	}
	now := time.Now().UTC()
	r.CreatedAt, r.UpdatedAt = now, now
	s.rides[r.ID] = *r
	return r.ID, nil
}

func (s *RideStore) GetByID(_ context.Context, id uint64) (model.Ride, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rides[id]
	if !ok {
		return model.Ride{}, repository.ErrNotFound
	}
	return r, nil
}

func (s *RideStore) ListByRequester(_ context.Context, userID uint64) ([]model.Ride, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rides := []model.Ride{}
	for _, r := range s.rides {
		if r.RequestedByUserID == userID {
			rides = append(rides, r)
		}
	}
	return rides, nil
}

func (s *RideStore) ListByDriver(_ context.Context, driverID uint64) ([]model.Ride, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rides := []model.Ride{}
	for _, r := range s.rides {
		if r.DriverID != nil && *r.DriverID == driverID {
			rides = append(rides, r)
		}
	}
	return rides, nil
}

func (s *RideStore) ListAll(_ context.Context) ([]model.Ride, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rides := make([]model.Ride, 0, len(s.rides))
	for _, r := range s.rides {
		rides = append(rides, r)
	}
	return rides, nil
}

func (s *RideStore) AssignDriver(_ context.Context, rideID, driverID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rides[rideID]
	if !ok || r.Status != model.RideRequested {
		return repository.ErrNotFound
	}
	r.DriverID = &driverID
	r.Status = model.RideAssigned
	r.UpdatedAt = time.Now().UTC()
	s.rides[rideID] = r
	return nil
}

func (s *RideStore) UpdateStatus(_ context.Context, rideID uint64, status model.RideStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rides[rideID]
	if !ok {
		return repository.ErrNotFound
	}
	r.Status = status
	r.UpdatedAt = time.Now().UTC()
	s.rides[rideID] = r
	return nil
}

func (s *RideStore) Summary(_ context.Context) (map[model.RideStatus]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	summary := map[model.RideStatus]int64{}
	for _, r := range s.rides {
		summary[r.Status]++
	}
	return summary, nil
}

// NotificationStore is an in-memory repository.NotificationRepository.
type NotificationStore struct {
	mu            sync.Mutex
	nextID        uint64
	notifications map[uint64]model.Notification
}

func NewNotificationStore() *NotificationStore {
	return &NotificationStore{notifications: map[uint64]model.Notification{}}
}

func (s *NotificationStore) Create(_ context.Context, n *model.Notification) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	n.ID = s.nextID
	n.CreatedAt = time.Now().UTC()
	s.notifications[n.ID] = *n
	return n.ID, nil
}

func (s *NotificationStore) ListByUser(_ context.Context, userID uint64) ([]model.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	notifications := []model.Notification{}
	for _, n := range s.notifications {
		if n.UserID == userID {
			notifications = append(notifications, n)
		}
	}
	return notifications, nil
}

func (s *NotificationStore) MarkRead(_ context.Context, id, userID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.notifications[id]
	if !ok || n.UserID != userID {
		return repository.ErrNotFound
	}
	n.Read = true
	s.notifications[id] = n
	return nil
}
