package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/jetci/wecare-app-sub000/internal/model"
)

// RideRepo implements RideRepository against MySQL.
type RideRepo struct{ DB *sql.DB }

func NewRideRepo(db *sql.DB) *RideRepo { return &RideRepo{DB: db} }

const rideColumns = "id,reference,patient_id,requested_by_user_id,driver_id,status,pickup_address,destination,scheduled_at,created_at,updated_at"

// NewRideReference builds a short human-facing ride code.
func NewRideReference() string {
	return "WCR-" + strings.ToUpper(uuid.NewString()[:8])
}

// Create inserts a ride in REQUESTED status and returns its ID.
func (r *RideRepo) Create(ctx context.Context, ride *model.Ride) (uint64, error) {
	if ride.Reference == "" {
		ride.Reference = NewRideReference()
	}
	if ride.Status == "" {
		ride.Status = model.RideRequested
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO rides (reference, patient_id, requested_by_user_id, status, pickup_address, destination, scheduled_at) VALUES (?,?,?,?,?,?,?)",
		ride.Reference, ride.PatientID, ride.RequestedByUserID, string(ride.Status),
		ride.PickupAddress, ride.Destination, ride.ScheduledAt.UTC())
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	ride.ID = uint64(id)
	return ride.ID, nil
}

// GetByID fetches a ride by primary key.
func (r *RideRepo) GetByID(ctx context.Context, id uint64) (model.Ride, error) {
	var ride model.Ride
	var driverID sql.NullInt64
	var status string
	err := r.DB.QueryRowContext(ctx,
		"SELECT "+rideColumns+" FROM rides WHERE id=? LIMIT 1", id).Scan(
		&ride.ID, &ride.Reference, &ride.PatientID, &ride.RequestedByUserID, &driverID,
		&status, &ride.PickupAddress, &ride.Destination, &ride.ScheduledAt,
		&ride.CreatedAt, &ride.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Ride{}, ErrNotFound
	}
	if err != nil {
		return model.Ride{}, err
	}
	if driverID.Valid {
		d := uint64(driverID.Int64)
		ride.DriverID = &d
	}
	ride.Status = model.RideStatus(status)
	return ride, nil
}

// ListByRequester returns rides created by a community user.
func (r *RideRepo) ListByRequester(ctx context.Context, userID uint64) ([]model.Ride, error) {
	return r.list(ctx,
		"SELECT "+rideColumns+" FROM rides WHERE requested_by_user_id=? ORDER BY created_at DESC", userID)
}

// ListByDriver returns rides assigned to a driver.
func (r *RideRepo) ListByDriver(ctx context.Context, driverID uint64) ([]model.Ride, error) {
	return r.list(ctx,
		"SELECT "+rideColumns+" FROM rides WHERE driver_id=? ORDER BY created_at DESC", driverID)
}

// ListAll returns every ride, newest first.
func (r *RideRepo) ListAll(ctx context.Context) ([]model.Ride, error) {
	return r.list(ctx, "SELECT "+rideColumns+" FROM rides ORDER BY created_at DESC")
}

func (r *RideRepo) list(ctx context.Context, query string, args ...interface{}) ([]model.Ride, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	rides := []model.Ride{}
	for rows.Next() {
		var ride model.Ride
		var driverID sql.NullInt64
		var status string
		if err := rows.Scan(&ride.ID, &ride.Reference, &ride.PatientID, &ride.RequestedByUserID,
			&driverID, &status, &ride.PickupAddress, &ride.Destination, &ride.ScheduledAt,
			&ride.CreatedAt, &ride.UpdatedAt); err != nil {
			return nil, err
		}
		if driverID.Valid {
			d := uint64(driverID.Int64)
			ride.DriverID = &d
		}
		ride.Status = model.RideStatus(status)
		rides = append(rides, ride)
	}
	return rides, rows.Err()
}

// AssignDriver sets the driver and moves a REQUESTED ride to ASSIGNED.
// The status guard in the WHERE clause keeps a concurrent assignment
// from clobbering a ride that already progressed.
func (r *RideRepo) AssignDriver(ctx context.Context, rideID, driverID uint64) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE rides SET driver_id=?, status=? WHERE id=? AND status=?",
		driverID, string(model.RideAssigned), rideID, string(model.RideRequested))
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateStatus moves a ride to the given status.
func (r *RideRepo) UpdateStatus(ctx context.Context, rideID uint64, status model.RideStatus) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE rides SET status=? WHERE id=?", string(status), rideID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := r.GetByID(ctx, rideID); err != nil {
			return err
		}
	}
	return nil
}

// Summary aggregates ride counts by status.
func (r *RideRepo) Summary(ctx context.Context) (map[model.RideStatus]int64, error) {
	rows, err := r.DB.QueryContext(ctx, "SELECT status, COUNT(*) FROM rides GROUP BY status")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	summary := map[model.RideStatus]int64{}
	for rows.Next() {
		var status string
		var count int64
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		summary[model.RideStatus(status)] = count
	}
	return summary, rows.Err()
}
