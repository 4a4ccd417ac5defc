package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/vicinityapp/vicinity-api/internal/app/models"
)

// PgxPool is the subset of *pgxpool.Pool the repository uses. Narrowed so
// tests can drive the queries with pgxmock.
type PgxPool interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

var _ Repo = (*PostgresAuthRepo)(nil)

type Repo interface {
	// GetUserByEmail fetches user details needed for credential validation.
	GetUserByEmail(ctx context.Context, email string) (*models.UserAuth, error)
	// GetUserByID fetches user details by ID.
	GetUserByID(ctx context.Context, userID uuid.UUID) (*models.UserAuth, error)
	// Register stores a new user with a HASHED password. Returns new user ID.
	Register(ctx context.Context, username, email, hashedPassword string) (uuid.UUID, error)

	// Refresh token handling.
	StoreRefreshToken(ctx context.Context, userID uuid.UUID, token string, expiresAt time.Time) error
	ValidateRefreshTokenAndGetUserID(ctx context.Context, refreshToken string) (uuid.UUID, error)
	InvalidateRefreshToken(ctx context.Context, refreshToken string) error
}

type PostgresAuthRepo struct {
	logger *zap.Logger
	db     PgxPool
}

func NewPostgresAuthRepo(db PgxPool, logger *zap.Logger) *PostgresAuthRepo {
	return &PostgresAuthRepo{logger: logger, db: db}
}

// GetUserByEmail implements Repo.
func (r *PostgresAuthRepo) GetUserByEmail(ctx context.Context, email string) (*models.UserAuth, error) {
	var user models.UserAuth
	query := `SELECT id, username, email, password_hash, created_at FROM users WHERE email = $1`
	err := r.db.QueryRow(ctx, query, email).Scan(&user.ID, &user.Username, &user.Email, &user.Password, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("user with email %s not found: %w", email, models.ErrNotFound)
		}
		r.logger.Error("Error fetching user by email", zap.String("email", email), zap.Error(err))
		return nil, fmt.Errorf("database error fetching user: %w", err)
	}
	return &user, nil
}

// GetUserByID implements Repo.
func (r *PostgresAuthRepo) GetUserByID(ctx context.Context, userID uuid.UUID) (*models.UserAuth, error) {
	var user models.UserAuth
	query := `SELECT id, username, email, password_hash, created_at FROM users WHERE id = $1`
	err := r.db.QueryRow(ctx, query, userID).Scan(&user.ID, &user.Username, &user.Email, &user.Password, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("user with ID %s not found: %w", userID, models.ErrNotFound)
		}
		r.logger.Error("Error fetching user by ID", zap.String("user_id", userID.String()), zap.Error(err))
		return nil, fmt.Errorf("database error fetching user by ID: %w", err)
	}
	return &user, nil
}

// Register implements Repo. Expects a HASHED password.
func (r *PostgresAuthRepo) Register(ctx context.Context, username, email, hashedPassword string) (uuid.UUID, error) {
	ctx, span := otel.Tracer("AuthRepository").Start(ctx, "Register", trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
	))
	defer span.End()

	var userID uuid.UUID
	query := `INSERT INTO users (username, email, password_hash, created_at) VALUES ($1, $2, $3, $4) RETURNING id`
	err := r.db.QueryRow(ctx, query, username, email, hashedPassword, time.Now()).Scan(&userID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "database error")
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return uuid.Nil, fmt.Errorf("email or username already exists: %w", models.ErrConflict)
		}
		r.logger.Error("Error inserting user", zap.String("email", email), zap.Error(err))
		return uuid.Nil, fmt.Errorf("database error registering user: %w", err)
	}

	span.SetStatus(codes.Ok, "user created")
	return userID, nil
}

// StoreRefreshToken implements Repo.
func (r *PostgresAuthRepo) StoreRefreshToken(ctx context.Context, userID uuid.UUID, token string, expiresAt time.Time) error {
	query := `INSERT INTO refresh_tokens (user_id, token, expires_at) VALUES ($1, $2, $3)`
	if _, err := r.db.Exec(ctx, query, userID, token, expiresAt); err != nil {
		r.logger.Error("Error storing refresh token", zap.String("user_id", userID.String()), zap.Error(err))
		return fmt.Errorf("database error storing refresh token: %w", err)
	}
	return nil
}

// ValidateRefreshTokenAndGetUserID implements Repo.
func (r *PostgresAuthRepo) ValidateRefreshTokenAndGetUserID(ctx context.Context, refreshToken string) (uuid.UUID, error) {
	var userID uuid.UUID
	var expiresAt time.Time
	var revokedAt *time.Time

	query := `SELECT user_id, expires_at, revoked_at FROM refresh_tokens WHERE token = $1`
	err := r.db.QueryRow(ctx, query, refreshToken).Scan(&userID, &expiresAt, &revokedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, fmt.Errorf("refresh token not found: %w", models.ErrUnauthenticated)
		}
		r.logger.Error("Error querying refresh token", zap.Error(err))
		return uuid.Nil, fmt.Errorf("database error validating refresh token: %w", err)
	}

	if revokedAt != nil {
		return uuid.Nil, fmt.Errorf("refresh token has been revoked: %w", models.ErrUnauthenticated)
	}
	if time.Now().After(expiresAt) {
		return uuid.Nil, fmt.Errorf("refresh token has expired: %w", models.ErrUnauthenticated)
	}
	return userID, nil
}

// InvalidateRefreshToken implements Repo.
func (r *PostgresAuthRepo) InvalidateRefreshToken(ctx context.Context, refreshToken string) error {
	query := `UPDATE refresh_tokens SET revoked_at = NOW() WHERE token = $1 AND revoked_at IS NULL`
	tag, err := r.db.Exec(ctx, query, refreshToken)
	if err != nil {
		r.logger.Error("Error invalidating refresh token", zap.Error(err))
		return fmt.Errorf("database error invalidating token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		r.logger.Warn("Refresh token not found or already invalidated")
	}
	return nil
}
