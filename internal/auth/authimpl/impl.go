package authimpl

import (
	"context"
	"errors"
	"strings"

	"github.com/orgball2608/hashtag-discovery/internal/auth"
	"github.com/orgball2608/hashtag-discovery/internal/domain"
	"github.com/orgball2608/hashtag-discovery/internal/repositories/user"
	"github.com/orgball2608/hashtag-discovery/pkg/config"
	apperrors "github.com/orgball2608/hashtag-discovery/pkg/errors"
	"github.com/orgball2608/hashtag-discovery/pkg/logger"
	"go.uber.org/fx"
)

type Opts struct {
	fx.In

	UserRepo user.Repository
	Config   *config.Config
	Logger   logger.Logger
}

type AuthImpl struct {
	UserRepo user.Repository
	Tokens   *auth.Tokens
	Logger   logger.Logger
}

var _ auth.Service = (*AuthImpl)(nil)

func New(opts Opts) (*AuthImpl, error) {
	tokens, err := auth.NewTokens(opts.Config.Auth.JWTSecret, opts.Config.Auth.JWTExpires)
	if err != nil {
		return nil, err
	}
	return &AuthImpl{
		UserRepo: opts.UserRepo,
		Tokens:   tokens,
		Logger:   opts.Logger.WithComponent("Auth"),
	}, nil
}

func (a *AuthImpl) Register(ctx context.Context, in auth.RegisterInput) (auth.Session, error) {
	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return auth.Session{}, apperrors.Wrap(err, "hash password")
	}

	created, err := a.UserRepo.Create(ctx, domain.User{
		Email:        user.NormalizeEmail(in.Email),
		Name:         strings.TrimSpace(in.Name),
		PasswordHash: hash,
	})
	if err != nil {
		if errors.Is(err, user.ErrAlreadyExists) {
			return auth.Session{}, apperrors.Wrap(apperrors.ErrConflict, "Email already registered")
		}
		return auth.Session{}, apperrors.Storage(err)
	}

	a.Logger.Info("User registered", "user_id", created.ID)
	return a.session(created)
}

func (a *AuthImpl) Login(ctx context.Context, email, password string) (auth.Session, error) {
	u, err := a.UserRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return auth.Session{}, invalidCredentials()
		}
		return auth.Session{}, apperrors.Storage(err)
	}
	if !auth.CheckPassword(u.PasswordHash, password) {
		return auth.Session{}, invalidCredentials()
	}
	return a.session(u)
}

func (a *AuthImpl) Me(ctx context.Context, userID int64) (*domain.User, error) {
	u, err := a.UserRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.Storage(err)
	}
	return u, nil
}

func (a *AuthImpl) Authenticate(token string) (int64, error) {
	id, err := a.Tokens.Parse(token)
	if err != nil {
		return 0, apperrors.Wrap(apperrors.ErrUnauthorized, "Invalid token")
	}
	return id, nil
}

func (a *AuthImpl) session(u *domain.User) (auth.Session, error) {
	token, err := a.Tokens.Issue(u.ID)
	if err != nil {
		return auth.Session{}, apperrors.Wrap(err, "issue token")
	}
	return auth.Session{Token: token, User: u}, nil
}

func invalidCredentials() error {
	return apperrors.Wrap(apperrors.ErrUnauthorized, "Invalid credentials")
}
