package user

import (
	"context"
	"errors"

	"github.com/orgball2608/hashtag-discovery/internal/domain"
)

var (
	ErrAlreadyExists = errors.New("user already exists")
	ErrNotFound      = errors.New("user not found")
)

//go:generate go run go.uber.org/mock/mockgen -source=user.go -destination=mocks/mock.go
type Repository interface {
	// Create stores a new user and returns it with its id and timestamps set.
	// A taken email yields ErrAlreadyExists.
	Create(ctx context.Context, user domain.User) (*domain.User, error)

	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	GetByID(ctx context.Context, id int64) (*domain.User, error)
}
