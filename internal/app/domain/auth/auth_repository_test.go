package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vicinityapp/vicinity-api/internal/app/models"
)

func TestPostgresAuthRepo_StoreRefreshToken(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mockPool.Close()

	repo := NewPostgresAuthRepo(mockPool, zap.NewNop())

	expiresAt := time.Now().Add(7 * 24 * time.Hour)
	mockPool.ExpectExec("INSERT INTO refresh_tokens \\(user_id, token, expires_at\\)").
		WithArgs(userID, "token-value", expiresAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, repo.StoreRefreshToken(ctx, userID, "token-value", expiresAt))
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestPostgresAuthRepo_ValidateRefreshTokenAndGetUserID(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	columns := []string{"user_id", "expires_at", "revoked_at"}

	t.Run("ValidToken", func(t *testing.T) {
		mockPool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mockPool.Close()

		repo := NewPostgresAuthRepo(mockPool, zap.NewNop())

		mockPool.ExpectQuery("SELECT user_id, expires_at, revoked_at FROM refresh_tokens").
			WithArgs("good-token").
			WillReturnRows(pgxmock.NewRows(columns).
				AddRow(userID, time.Now().Add(time.Hour), (*time.Time)(nil)))

		got, err := repo.ValidateRefreshTokenAndGetUserID(ctx, "good-token")
		require.NoError(t, err)
		assert.Equal(t, userID, got)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("RevokedToken", func(t *testing.T) {
		mockPool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mockPool.Close()

		repo := NewPostgresAuthRepo(mockPool, zap.NewNop())

		revokedAt := time.Now().Add(-time.Minute)
		mockPool.ExpectQuery("SELECT user_id, expires_at, revoked_at FROM refresh_tokens").
			WithArgs("revoked-token").
			WillReturnRows(pgxmock.NewRows(columns).
				AddRow(userID, time.Now().Add(time.Hour), &revokedAt))

		_, err = repo.ValidateRefreshTokenAndGetUserID(ctx, "revoked-token")
		assert.ErrorIs(t, err, models.ErrUnauthenticated)
	})

	t.Run("ExpiredToken", func(t *testing.T) {
		mockPool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mockPool.Close()

		repo := NewPostgresAuthRepo(mockPool, zap.NewNop())

		mockPool.ExpectQuery("SELECT user_id, expires_at, revoked_at FROM refresh_tokens").
			WithArgs("stale-token").
			WillReturnRows(pgxmock.NewRows(columns).
				AddRow(userID, time.Now().Add(-time.Hour), (*time.Time)(nil)))

		_, err = repo.ValidateRefreshTokenAndGetUserID(ctx, "stale-token")
		assert.ErrorIs(t, err, models.ErrUnauthenticated)
	})

	t.Run("UnknownToken", func(t *testing.T) {
		mockPool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mockPool.Close()

		repo := NewPostgresAuthRepo(mockPool, zap.NewNop())

		mockPool.ExpectQuery("SELECT user_id, expires_at, revoked_at FROM refresh_tokens").
			WithArgs("bogus").
			WillReturnError(pgx.ErrNoRows)

		_, err = repo.ValidateRefreshTokenAndGetUserID(ctx, "bogus")
		assert.ErrorIs(t, err, models.ErrUnauthenticated)
	})
}

func TestPostgresAuthRepo_InvalidateRefreshToken(t *testing.T) {
	ctx := context.Background()

	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mockPool.Close()

	repo := NewPostgresAuthRepo(mockPool, zap.NewNop())

	mockPool.ExpectExec("UPDATE refresh_tokens SET revoked_at = NOW").
		WithArgs("old-token").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, repo.InvalidateRefreshToken(ctx, "old-token"))
	assert.NoError(t, mockPool.ExpectationsWereMet())
}
