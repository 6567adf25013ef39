package authimpl_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/orgball2608/hashtag-discovery/internal/auth"
	"github.com/orgball2608/hashtag-discovery/internal/auth/authimpl"
	"github.com/orgball2608/hashtag-discovery/internal/domain"
	"github.com/orgball2608/hashtag-discovery/internal/repositories/user"
	mock_user "github.com/orgball2608/hashtag-discovery/internal/repositories/user/mocks"
	"github.com/orgball2608/hashtag-discovery/pkg/config"
	apperrors "github.com/orgball2608/hashtag-discovery/pkg/errors"
	"github.com/orgball2608/hashtag-discovery/pkg/logger"
	"go.uber.org/mock/gomock"
)

func newService(t *testing.T) (*authimpl.AuthImpl, *mock_user.MockRepository) {
	t.Helper()
	ctrl := gomock.NewController(t)
	repo := mock_user.NewMockRepository(ctrl)

	cfg := &config.Config{}
	cfg.Auth.JWTSecret = "test-secret"
	cfg.Auth.JWTExpires = time.Hour

	svc, err := authimpl.New(authimpl.Opts{UserRepo: repo, Config: cfg, Logger: logger.NewNop()})
	if err != nil {
		t.Fatalf("new auth service: %v", err)
	}
	return svc, repo
}

func TestRegister(t *testing.T) {
	svc, repo := newService(t)

	repo.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, u domain.User) (*domain.User, error) {
			if u.Email != "ana@example.com" || u.Name != "Ana" {
				t.Errorf("unexpected user %+v", u)
			}
			if !auth.CheckPassword(u.PasswordHash, "secret123") {
				t.Error("password must be stored as a bcrypt hash")
			}
			u.ID = 5
			return &u, nil
		})

	session, err := svc.Register(context.Background(), auth.RegisterInput{Email: " Ana@Example.com ", Password: "secret123", Name: " Ana "})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if session.User.ID != 5 {
		t.Errorf("unexpected user %+v", session.User)
	}

	id, err := svc.Authenticate(session.Token)
	if err != nil || id != 5 {
		t.Fatalf("token should authenticate user 5, got %d, %v", id, err)
	}
}

func TestRegister_Duplicate(t *testing.T) {
	svc, repo := newService(t)
	repo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil, user.ErrAlreadyExists)

	_, err := svc.Register(context.Background(), auth.RegisterInput{Email: "a@b.c", Password: "secret123", Name: "A"})
	if !errors.Is(err, apperrors.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestLogin(t *testing.T) {
	svc, repo := newService(t)

	hash, err := auth.HashPassword("secret123")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	stored := &domain.User{ID: 9, Email: "a@b.c", PasswordHash: hash}

	repo.EXPECT().GetByEmail(gomock.Any(), "a@b.c").Return(stored, nil).Times(2)
	repo.EXPECT().GetByEmail(gomock.Any(), "nobody@b.c").Return(nil, user.ErrNotFound)

	session, err := svc.Login(context.Background(), "a@b.c", "secret123")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if session.Token == "" || session.User.ID != 9 {
		t.Fatalf("unexpected session %+v", session)
	}

	if _, err := svc.Login(context.Background(), "a@b.c", "wrong"); !errors.Is(err, apperrors.ErrUnauthorized) {
		t.Errorf("wrong password: expected unauthorized, got %v", err)
	}
	if _, err := svc.Login(context.Background(), "nobody@b.c", "secret123"); !errors.Is(err, apperrors.ErrUnauthorized) {
		t.Errorf("unknown email: expected unauthorized, got %v", err)
	}
}

func TestMe(t *testing.T) {
	svc, repo := newService(t)

	repo.EXPECT().GetByID(gomock.Any(), int64(1)).Return(&domain.User{ID: 1}, nil)
	repo.EXPECT().GetByID(gomock.Any(), int64(2)).Return(nil, user.ErrNotFound)
	repo.EXPECT().GetByID(gomock.Any(), int64(3)).Return(nil, errors.New("conn reset"))

	if u, err := svc.Me(context.Background(), 1); err != nil || u.ID != 1 {
		t.Fatalf("unexpected %+v, %v", u, err)
	}
	if _, err := svc.Me(context.Background(), 2); !apperrors.IsNotFound(err) {
		t.Errorf("expected not found, got %v", err)
	}
	if _, err := svc.Me(context.Background(), 3); !errors.Is(err, apperrors.ErrServiceUnavailable) {
		t.Errorf("expected storage error, got %v", err)
	}
}

func TestAuthenticate_Invalid(t *testing.T) {
	svc, _ := newService(t)
	if _, err := svc.Authenticate("bogus"); !errors.Is(err, apperrors.ErrUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestNew_RequiresSecret(t *testing.T) {
	_, err := authimpl.New(authimpl.Opts{Config: &config.Config{}, Logger: logger.NewNop()})
	if !errors.Is(err, auth.ErrNoSecret) {
		t.Fatalf("expected ErrNoSecret, got %v", err)
	}
}
