package user

import (
	"context"
	"errors"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/orgball2608/hashtag-discovery/internal/domain"
	"github.com/orgball2608/hashtag-discovery/internal/repositories"
	"github.com/orgball2608/hashtag-discovery/pkg/logger"
)

var userColumns = []string{"id", "email", "name", "password_hash", "created_at", "updated_at"}

type PgxRepository struct {
	pool   *pgxpool.Pool
	logger logger.Logger
}

func NewPgxRepository(pool *pgxpool.Pool, logger logger.Logger) *PgxRepository {
	return &PgxRepository{
		pool:   pool,
		logger: logger.WithComponent("UserRepo"),
	}
}

var _ Repository = (*PgxRepository)(nil)

func (r *PgxRepository) Create(ctx context.Context, u domain.User) (*domain.User, error) {
	u.Email = NormalizeEmail(u.Email)

	query, args, err := repositories.SqBuilder.
		Insert("users").
		Columns("email", "name", "password_hash").
		Values(u.Email, u.Name, u.PasswordHash).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return nil, repositories.ErrBadQuery
	}

	if err := r.pool.QueryRow(ctx, query, args...).Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if pgErr, ok := repositories.PgError(err); ok && pgErr.Code == repositories.UniqueViolation {
			return nil, ErrAlreadyExists
		}
		return nil, err
	}

	r.logger.Info("User created", "id", u.ID)
	return &u, nil
}

func (r *PgxRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getOne(ctx, sq.Eq{"email": NormalizeEmail(email)})
}

func (r *PgxRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	return r.getOne(ctx, sq.Eq{"id": id})
}

func (r *PgxRepository) getOne(ctx context.Context, where sq.Eq) (*domain.User, error) {
	query, args, err := repositories.SqBuilder.
		Select(userColumns...).
		From("users").
		Where(where).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, repositories.ErrBadQuery
	}

	var u domain.User
	err = r.pool.QueryRow(ctx, query, args...).Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// NormalizeEmail lowercases and trims, so lookups are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
