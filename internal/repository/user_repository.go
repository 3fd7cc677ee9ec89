package repository

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"

	"dashboard/backend/internal/db"
	"dashboard/backend/internal/model"
)

type UserRepository struct {
	db      *sql.DB
	dialect db.Dialect
}

func NewUserRepository(database *sql.DB, dialect db.Dialect) *UserRepository {
	return &UserRepository{db: database, dialect: dialect}
}

func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	_, err := r.db.ExecContext(
		ctx,
		db.Rebind(r.dialect, `INSERT INTO users (id, email, password_hash, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)`),
		user.ID,
		user.Email,
		user.PasswordHash,
		formatTime(user.CreatedAt),
		formatTime(user.UpdatedAt),
	)
	if err != nil {
		return errors.Wrap(err, "create user")
	}
	return nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	row := r.db.QueryRowContext(
		ctx,
		db.Rebind(r.dialect, `SELECT id, email, password_hash, created_at, updated_at
		 FROM users
		 WHERE email = ?`),
		email,
	)
	return scanUser(row, "get user by email")
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*model.User, error) {
	row := r.db.QueryRowContext(
		ctx,
		db.Rebind(r.dialect, `SELECT id, email, password_hash, created_at, updated_at
		 FROM users
		 WHERE id = ?`),
		id,
	)
	return scanUser(row, "get user by id")
}

func scanUser(s scanner, op string) (*model.User, error) {
	var user model.User
	var createdAt string
	var updatedAt string
	if err := s.Scan(&user.ID, &user.Email, &user.PasswordHash, &createdAt, &updatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, op)
	}

	parsedCreatedAt, err := parseTime(createdAt)
	if err != nil {
		return nil, errors.Wrap(err, "parse user created_at")
	}
	parsedUpdatedAt, err := parseTime(updatedAt)
	if err != nil {
		return nil, errors.Wrap(err, "parse user updated_at")
	}
	user.CreatedAt = parsedCreatedAt
	user.UpdatedAt = parsedUpdatedAt

	return &user, nil
}
