// Package queue defines the message payloads exchanged over the
// broker and the background consumer that turns ride events into
// notification rows.
package queue

// RideEventQueueName is the durable queue carrying ride lifecycle
// events.
const RideEventQueueName = "ride.events"

// RideStatusEvent is published whenever a ride changes status
// (requested, assigned, in progress, completed, cancelled).  It
// carries enough information for the consumer to write notifications
// without querying the primary database.
type RideStatusEvent struct {
	RideID            uint64  `json:"ride_id"`
	Reference         string  `json:"reference"`
	PatientID         uint64  `json:"patient_id"`
	RequestedByUserID uint64  `json:"requested_by_user_id"`
	DriverID          *uint64 `json:"driver_id,omitempty"`
	Status            string  `json:"status"`
	OccurredAt        string  `json:"occurred_at"`
}
