package location

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/vicinityapp/vicinity-api/internal/app/models"
)

var _ GeoPointRepository = (*PostgisGeoPointRepo)(nil)

// GeoPointRepository is the secondary, geometry-native store: one mutable
// PostGIS point per user, upserted in place. It is a derived, best-effort
// projection of the primary store consumed by external geospatial
// components; it carries no history and may lag the primary after a
// partial failure.
type GeoPointRepository interface {
	Upsert(ctx context.Context, userID uuid.UUID, lat, lon float64) error
	Get(ctx context.Context, userID uuid.UUID) (*models.GeoPoint, error)
}

type PostgisGeoPointRepo struct {
	logger *zap.Logger
	db     PgxPool
}

func NewPostgisGeoPointRepo(db PgxPool, logger *zap.Logger) *PostgisGeoPointRepo {
	return &PostgisGeoPointRepo{logger: logger, db: db}
}

// Upsert overwrites the user's point in place with a fresh timestamp,
// inserting on first write. ST_MakePoint takes (lon, lat).
func (r *PostgisGeoPointRepo) Upsert(ctx context.Context, userID uuid.UUID, lat, lon float64) error {
	query := `
		INSERT INTO user_geo_points (user_id, point, updated_at)
		VALUES ($1, ST_SetSRID(ST_MakePoint($2, $3), 4326), $4)
		ON CONFLICT (user_id) DO UPDATE
		SET point = EXCLUDED.point, updated_at = EXCLUDED.updated_at
	`

	if _, err := r.db.Exec(ctx, query, userID, lon, lat, time.Now()); err != nil {
		r.logger.Error("Failed to upsert geo point", zap.String("user_id", userID.String()), zap.Error(err))
		return fmt.Errorf("database error upserting geo point: %w", err)
	}
	return nil
}

// Get reads the mirrored point back, mainly for drift reconciliation.
func (r *PostgisGeoPointRepo) Get(ctx context.Context, userID uuid.UUID) (*models.GeoPoint, error) {
	query := `
		SELECT user_id, ST_Y(point), ST_X(point), updated_at
		FROM user_geo_points
		WHERE user_id = $1
	`

	var p models.GeoPoint
	err := r.db.QueryRow(ctx, query, userID).Scan(&p.UserID, &p.Latitude, &p.Longitude, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("no geo point for user %s: %w", userID, models.ErrNotFound)
		}
		r.logger.Error("Failed to fetch geo point", zap.String("user_id", userID.String()), zap.Error(err))
		return nil, fmt.Errorf("database error fetching geo point: %w", err)
	}
	return &p, nil
}
