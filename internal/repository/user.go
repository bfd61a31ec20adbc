package repository

import (
	"context"
	"errors"

	"credential-server/internal/domain"
)

var (
	// ErrUserNotFound is returned when no record matches the lookup key.
	ErrUserNotFound = errors.New("user not found")
	// ErrUserAlreadyExists is returned by Create when the username is taken.
	ErrUserAlreadyExists = errors.New("user already exists")
)

// UserRepository defines persistence operations for User entities.
type UserRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, user *domain.User) error
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
}
