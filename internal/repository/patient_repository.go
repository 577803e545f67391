package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jetci/wecare-app-sub000/internal/model"
)

// PatientRepo implements PatientRepository against MySQL.
type PatientRepo struct{ DB *sql.DB }

func NewPatientRepo(db *sql.DB) *PatientRepo { return &PatientRepo{DB: db} }

const patientColumns = "id,managed_by_user_id,full_name,phone,address,notes,created_at,updated_at"

// Create inserts a patient and returns its ID.
func (r *PatientRepo) Create(ctx context.Context, p *model.Patient) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO patients (managed_by_user_id, full_name, phone, address, notes) VALUES (?,?,?,?,?)",
		p.ManagedByUserID, p.FullName, p.Phone, p.Address, p.Notes)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	p.ID = uint64(id)
	return p.ID, nil
}

// GetByID fetches a patient by primary key.
func (r *PatientRepo) GetByID(ctx context.Context, id uint64) (model.Patient, error) {
	var p model.Patient
	err := r.DB.QueryRowContext(ctx,
		"SELECT "+patientColumns+" FROM patients WHERE id=? LIMIT 1", id).Scan(
		&p.ID, &p.ManagedByUserID, &p.FullName, &p.Phone, &p.Address, &p.Notes,
		&p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Patient{}, ErrNotFound
	}
	if err != nil {
		return model.Patient{}, err
	}
	return p, nil
}

// ListByManager returns the patients a community user manages.
func (r *PatientRepo) ListByManager(ctx context.Context, managerID uint64) ([]model.Patient, error) {
	return r.list(ctx,
		"SELECT "+patientColumns+" FROM patients WHERE managed_by_user_id=? ORDER BY created_at DESC", managerID)
}

// ListAll returns every patient, newest first.
func (r *PatientRepo) ListAll(ctx context.Context) ([]model.Patient, error) {
	return r.list(ctx, "SELECT "+patientColumns+" FROM patients ORDER BY created_at DESC")
}

func (r *PatientRepo) list(ctx context.Context, query string, args ...interface{}) ([]model.Patient, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	patients := []model.Patient{}
	for rows.Next() {
		var p model.Patient
		if err := rows.Scan(&p.ID, &p.ManagedByUserID, &p.FullName, &p.Phone, &p.Address,
			&p.Notes, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		patients = append(patients, p)
	}
	return patients, rows.Err()
}

// Update rewrites the mutable fields of a patient row.
func (r *PatientRepo) Update(ctx context.Context, p *model.Patient) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE patients SET full_name=?, phone=?, address=?, notes=? WHERE id=?",
		p.FullName, p.Phone, p.Address, p.Notes, p.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := r.GetByID(ctx, p.ID); err != nil {
			return err
		}
	}
	return nil
}

// Delete removes a patient row.
func (r *PatientRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM patients WHERE id=?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
