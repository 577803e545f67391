package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/jetci/wecare-app-sub000/internal/model"
)

// UserRepo implements UserRepository against MySQL.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userColumns = "id,national_id,password_hash,role,approved,full_name,phone,created_at,updated_at"

// Create inserts a user and returns its ID.  MySQL error 1062
// (duplicate key) maps to ErrDuplicate.
func (r *UserRepo) Create(ctx context.Context, u *model.User) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (national_id, password_hash, role, approved, full_name, phone) VALUES (?,?,?,?,?,?)",
		u.NationalID, u.PasswordHash, string(u.Role), u.Approved, u.FullName, u.Phone)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return 0, ErrDuplicate
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	u.ID = uint64(id)
	return u.ID, nil
}

// GetByNationalID fetches a user by login identifier.
func (r *UserRepo) GetByNationalID(ctx context.Context, nationalID string) (model.User, error) {
	return r.getOne(ctx, "SELECT "+userColumns+" FROM users WHERE national_id=? LIMIT 1", strings.TrimSpace(nationalID))
}

// GetByID fetches a user by primary key.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	return r.getOne(ctx, "SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id)
}

func (r *UserRepo) getOne(ctx context.Context, query string, arg interface{}) (model.User, error) {
	var u model.User
	var role string
	err := r.DB.QueryRowContext(ctx, query, arg).Scan(
		&u.ID, &u.NationalID, &u.PasswordHash, &role, &u.Approved,
		&u.FullName, &u.Phone, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, ErrNotFound
	}
	if err != nil {
		return model.User{}, err
	}
	u.Role = model.Role(role)
	return u, nil
}

// SetApproved flips the approval flag for one user.
func (r *UserRepo) SetApproved(ctx context.Context, id uint64, approved bool) error {
	res, err := r.DB.ExecContext(ctx, "UPDATE users SET approved=? WHERE id=?", approved, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// RowsAffected is 0 both for a missing row and for a no-op
		// update; confirm existence before reporting not found.
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// UpdateProfile updates the self-editable fields.
func (r *UserRepo) UpdateProfile(ctx context.Context, id uint64, fullName, phone string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET full_name=?, phone=? WHERE id=?", fullName, phone, id)
	return err
}

// List returns every user, newest first.
func (r *UserRepo) List(ctx context.Context) ([]model.User, error) {
	rows, err := r.DB.QueryContext(ctx, "SELECT "+userColumns+" FROM users ORDER BY created_at DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []model.User{}
	for rows.Next() {
		var u model.User
		var role string
		if err := rows.Scan(&u.ID, &u.NationalID, &u.PasswordHash, &role, &u.Approved,
			&u.FullName, &u.Phone, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		u.Role = model.Role(role)
		users = append(users, u)
	}
	return users, rows.Err()
}
