package model

import (
	"strings"
	"time"
)

// RideStatus enumerates the lifecycle of a transport ride.
type RideStatus string

const (
	RideRequested  RideStatus = "REQUESTED"   // created by a community user, waiting for a driver
	RideAssigned   RideStatus = "ASSIGNED"    // admin assigned a driver
	RideInProgress RideStatus = "IN_PROGRESS" // driver picked the patient up
	RideCompleted  RideStatus = "COMPLETED"   // patient delivered
	RideCancelled  RideStatus = "CANCELLED"   // cancelled by requester or admin
)

// ParseRideStatus normalizes a raw string into a RideStatus.
func ParseRideStatus(raw string) (RideStatus, bool) {
	s := RideStatus(strings.ToUpper(strings.TrimSpace(raw)))
	switch s {
	case RideRequested, RideAssigned, RideInProgress, RideCompleted, RideCancelled:
		return s, true
	}
	return "", false
}

// CanTransition reports whether a ride may move from its current
// status to next.  Drivers advance assigned rides forward; cancellation
// is allowed any time before completion.
func (s RideStatus) CanTransition(next RideStatus) bool {
	if next == RideCancelled {
		return s == RideRequested || s == RideAssigned || s == RideInProgress
	}
	switch s {
	case RideRequested:
		return next == RideAssigned
	case RideAssigned:
		return next == RideInProgress
	case RideInProgress:
		return next == RideCompleted
	}
	return false
}

// Ride represents a row in the `rides` table.  RequestedByUserID is
// the owning COMMUNITY user; DriverID is set when an admin assigns a
// driver and is the ownership anchor for DRIVER-scoped access.
type Ride struct {
	ID                uint64
	Reference         string // human-facing ride code, uuid-derived
	PatientID         uint64
	RequestedByUserID uint64
	DriverID          *uint64
	Status            RideStatus
	PickupAddress     string
	Destination       string
	ScheduledAt       time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}
