package auth

import (
	"context"

	"github.com/orgball2608/hashtag-discovery/internal/domain"
)

type RegisterInput struct {
	Email    string
	Password string
	Name     string
}

// Session is what a successful register or login hands back to the caller.
type Session struct {
	Token string       `json:"token"`
	User  *domain.User `json:"user"`
}

//go:generate go run go.uber.org/mock/mockgen -source=auth.go -destination=mocks/mock.go
type Service interface {
	// Register fails with errors.ErrConflict when the email is taken.
	Register(ctx context.Context, in RegisterInput) (Session, error)

	// Login fails with errors.ErrUnauthorized on an unknown email or a wrong password.
	Login(ctx context.Context, email, password string) (Session, error)

	Me(ctx context.Context, userID int64) (*domain.User, error)

	// Authenticate returns the user id carried by a valid bearer token.
	Authenticate(token string) (int64, error)
}
