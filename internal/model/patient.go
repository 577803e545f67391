package model

import "time"

// Patient represents a row in the `patients` table.  Each patient is
// managed by exactly one COMMUNITY user; that foreign key is the
// anchor of the per-row ownership check applied by every patient and
// ride endpoint.
//
// Fields:
//  ID              – primary key identifier.
//  ManagedByUserID – owning COMMUNITY user (users.id).
//  FullName        – patient display name.
//  Phone           – contact phone number.
//  Address         – pickup address used when requesting rides.
//  Notes           – free-form care notes.
//  CreatedAt       – timestamp of creation.
//  UpdatedAt       – timestamp of last update.
type Patient struct {
	ID              uint64
	ManagedByUserID uint64
	FullName        string
	Phone           string
	Address         string
	Notes           string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
