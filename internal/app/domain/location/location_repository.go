package location

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
// tests can drive the transaction with pgxmock.
type PgxPool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

var _ Repository = (*RepositoryImpl)(nil)

// Repository is the primary location store: append-only location records
// plus the per-user current-location pointer table. It is the source of
// truth for every "current location" read.
type Repository interface {
	// SetCurrentLocation appends a new immutable location record and moves
	// the user's current pointer onto it in a single transaction. Returns
	// the new record ID and pointer row ID.
	SetCurrentLocation(ctx context.Context, userID uuid.UUID, lat, lon float64, addr models.Address) (locationID, userLocationID uuid.UUID, err error)
	// GetCurrentLocation returns the user's current location or
	// models.ErrNoLocation when no pointer row is current.
	GetCurrentLocation(ctx context.Context, userID uuid.UUID) (*models.CurrentLocation, error)
	// GetLocationHistory returns past location records, newest first.
	GetLocationHistory(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Location, error)
	// ListCurrentPoints returns every user's current position except the
	// excluded user. Input to heatmap aggregation.
	ListCurrentPoints(ctx context.Context, excludeUserID uuid.UUID) ([]models.UserPoint, error)
}

type RepositoryImpl struct {
	logger *zap.Logger
	db     PgxPool
}

func NewRepository(db PgxPool, logger *zap.Logger) *RepositoryImpl {
	return &RepositoryImpl{logger: logger, db: db}
}

const (
	lockUserSQL = `
		SELECT id FROM users WHERE id = $1 FOR UPDATE
	`
	insertLocationSQL = `
		INSERT INTO locations (id, latitude, longitude, city, state, country, postal_code, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	clearCurrentSQL = `
		UPDATE user_locations SET is_current = FALSE
		WHERE user_id = $1 AND is_current = TRUE
	`
	insertCurrentSQL = `
		INSERT INTO user_locations (id, user_id, location_id, is_current, created_at)
		VALUES ($1, $2, $3, TRUE, $4)
	`
)

// SetCurrentLocation implements the history-preserving update: insert the
// immutable record, flip every prior current row to false, insert exactly
// one new current row. Any failure rolls the whole unit back so readers
// never observe zero or two current rows.
func (r *RepositoryImpl) SetCurrentLocation(ctx context.Context, userID uuid.UUID, lat, lon float64, addr models.Address) (uuid.UUID, uuid.UUID, error) {
	ctx, span := otel.Tracer("LocationRepository").Start(ctx, "SetCurrentLocation",
		trace.WithAttributes(attribute.String("user_id", userID.String())))
	defer span.End()

	locationID := uuid.New()
	userLocationID := uuid.New()
	now := time.Now()

	tx, err := r.db.Begin(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "begin failed")
		return uuid.Nil, uuid.Nil, fmt.Errorf("database error starting location update: %w", err)
	}
	defer func() {
		// No-op after commit.
		_ = tx.Rollback(ctx)
	}()

	// Row lock on the user serializes same-user updates. Without it a
	// concurrent READ COMMITTED writer cannot see this transaction's new
	// current row, and its pointer insert would hit the one-current unique
	// index instead of winning as the later update.
	if _, err = tx.Exec(ctx, lockUserSQL, userID); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "user lock failed")
		r.logger.Error("Failed to lock user row for location update", zap.String("user_id", userID.String()), zap.Error(err))
		return uuid.Nil, uuid.Nil, fmt.Errorf("database error locking user for location update: %w", err)
	}

	if _, err = tx.Exec(ctx, insertLocationSQL,
		locationID, lat, lon, addr.City, addr.State, addr.Country, addr.PostalCode, now,
	); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert location failed")
		r.logger.Error("Failed to insert location record", zap.String("user_id", userID.String()), zap.Error(err))
		return uuid.Nil, uuid.Nil, fmt.Errorf("database error inserting location: %w", err)
	}

	if _, err = tx.Exec(ctx, clearCurrentSQL, userID); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "clear current failed")
		r.logger.Error("Failed to clear current location pointer", zap.String("user_id", userID.String()), zap.Error(err))
		return uuid.Nil, uuid.Nil, fmt.Errorf("database error clearing current location: %w", err)
	}

	if _, err = tx.Exec(ctx, insertCurrentSQL, userLocationID, userID, locationID, now); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert pointer failed")
		r.logger.Error("Failed to insert current location pointer", zap.String("user_id", userID.String()), zap.Error(err))
		return uuid.Nil, uuid.Nil, fmt.Errorf("database error setting current location: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "commit failed")
		return uuid.Nil, uuid.Nil, fmt.Errorf("database error committing location update: %w", err)
	}

	span.SetStatus(codes.Ok, "current location updated")
	return locationID, userLocationID, nil
}

// GetCurrentLocation implements Repository.
func (r *RepositoryImpl) GetCurrentLocation(ctx context.Context, userID uuid.UUID) (*models.CurrentLocation, error) {
	query := `
		SELECT ul.id, ul.user_id, ul.created_at,
		       l.id, l.latitude, l.longitude, l.city, l.state, l.country, l.postal_code, l.created_at
		FROM user_locations ul
		JOIN locations l ON l.id = ul.location_id
		WHERE ul.user_id = $1 AND ul.is_current = TRUE
	`

	var cl models.CurrentLocation
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&cl.UserLocationID, &cl.UserID, &cl.SetAt,
		&cl.Location.ID, &cl.Location.Latitude, &cl.Location.Longitude,
		&cl.Location.City, &cl.Location.State, &cl.Location.Country,
		&cl.Location.PostalCode, &cl.Location.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("no current location for user %s: %w", userID, models.ErrNoLocation)
		}
		r.logger.Error("Failed to fetch current location", zap.String("user_id", userID.String()), zap.Error(err))
		return nil, fmt.Errorf("database error fetching current location: %w", err)
	}
	return &cl, nil
}

// GetLocationHistory implements Repository.
func (r *RepositoryImpl) GetLocationHistory(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Location, error) {
	query := `
		SELECT l.id, l.latitude, l.longitude, l.city, l.state, l.country, l.postal_code, l.created_at
		FROM user_locations ul
		JOIN locations l ON l.id = ul.location_id
		WHERE ul.user_id = $1
		ORDER BY ul.created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("database error fetching location history: %w", err)
	}
	defer rows.Close()

	var history []models.Location
	for rows.Next() {
		var l models.Location
		if err := rows.Scan(&l.ID, &l.Latitude, &l.Longitude, &l.City, &l.State, &l.Country, &l.PostalCode, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("database error scanning location history: %w", err)
		}
		history = append(history, l)
	}
	return history, rows.Err()
}

// ListCurrentPoints implements Repository.
func (r *RepositoryImpl) ListCurrentPoints(ctx context.Context, excludeUserID uuid.UUID) ([]models.UserPoint, error) {
	query := `
		SELECT ul.user_id, l.latitude, l.longitude
		FROM user_locations ul
		JOIN locations l ON l.id = ul.location_id
		WHERE ul.is_current = TRUE AND ul.user_id <> $1
	`

	rows, err := r.db.Query(ctx, query, excludeUserID)
	if err != nil {
		return nil, fmt.Errorf("database error listing current locations: %w", err)
	}
	defer rows.Close()

	var points []models.UserPoint
	for rows.Next() {
		var p models.UserPoint
		if err := rows.Scan(&p.UserID, &p.Latitude, &p.Longitude); err != nil {
			return nil, fmt.Errorf("database error scanning current location: %w", err)
		}
		points = append(points, p)
	}
	return points, rows.Err()
}
