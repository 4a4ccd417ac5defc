package businesses

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/vicinityapp/vicinity-api/internal/app/models"
)

var _ Repository = (*RepositoryImpl)(nil)

// Repository reads the business catalog (joined against location records
// for coordinates) and owns the likes relation.
type Repository interface {
	GetByID(ctx context.Context, businessID uuid.UUID) (*models.Business, error)
	// ListWithLocations returns the whole catalog with coordinates, input
	// to in-process proximity ranking.
	ListWithLocations(ctx context.Context) ([]models.Business, error)
	// ListFiltered returns a filtered, paginated listing.
	ListFiltered(ctx context.Context, filter models.BusinessFilter) ([]models.Business, error)
	// ListByCluster returns candidates for the recommendation ranker.
	ListByCluster(ctx context.Context, clusterID int) ([]models.Business, error)

	Like(ctx context.Context, userID, businessID uuid.UUID) error
	Unlike(ctx context.Context, userID, businessID uuid.UUID) error
	ListLikedIDs(ctx context.Context, userID uuid.UUID) (map[uuid.UUID]bool, error)
}

type RepositoryImpl struct {
	logger *zap.Logger
	db     *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool, logger *zap.Logger) *RepositoryImpl {
	return &RepositoryImpl{logger: logger, db: db}
}

const businessColumns = `b.id, b.name, b.description, b.type, b.rating, b.cluster_id, b.location_id, l.latitude, l.longitude`

func scanBusinesses(rows pgx.Rows) ([]models.Business, error) {
	var out []models.Business
	for rows.Next() {
		var b models.Business
		if err := rows.Scan(&b.ID, &b.Name, &b.Description, &b.Type, &b.Rating,
			&b.ClusterID, &b.LocationID, &b.Latitude, &b.Longitude); err != nil {
			return nil, fmt.Errorf("database error scanning business: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// GetByID implements Repository.
func (r *RepositoryImpl) GetByID(ctx context.Context, businessID uuid.UUID) (*models.Business, error) {
	query := `
		SELECT ` + businessColumns + `
		FROM businesses b
		JOIN locations l ON l.id = b.location_id
		WHERE b.id = $1
	`

	var b models.Business
	err := r.db.QueryRow(ctx, query, businessID).Scan(&b.ID, &b.Name, &b.Description, &b.Type,
		&b.Rating, &b.ClusterID, &b.LocationID, &b.Latitude, &b.Longitude)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("business %s not found: %w", businessID, models.ErrNotFound)
		}
		return nil, fmt.Errorf("database error fetching business: %w", err)
	}
	return &b, nil
}

// ListWithLocations implements Repository.
func (r *RepositoryImpl) ListWithLocations(ctx context.Context) ([]models.Business, error) {
	query := `
		SELECT ` + businessColumns + `
		FROM businesses b
		JOIN locations l ON l.id = b.location_id
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("database error listing businesses: %w", err)
	}
	defer rows.Close()
	return scanBusinesses(rows)
}

// ListFiltered builds the listing query dynamically from the filter.
func (r *RepositoryImpl) ListFiltered(ctx context.Context, filter models.BusinessFilter) ([]models.Business, error) {
	builder := sq.Select(businessColumns).
		From("businesses b").
		Join("locations l ON l.id = b.location_id").
		OrderBy("b.rating DESC, b.name ASC").
		PlaceholderFormat(sq.Dollar)

	if filter.Type != "" {
		builder = builder.Where(sq.Eq{"b.type": filter.Type})
	}
	if filter.MinRating > 0 {
		builder = builder.Where(sq.GtOrEq{"b.rating": filter.MinRating})
	}
	if filter.Limit > 0 {
		builder = builder.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		builder = builder.Offset(uint64(filter.Offset))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("building business listing query: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("database error listing businesses: %w", err)
	}
	defer rows.Close()
	return scanBusinesses(rows)
}

// ListByCluster implements Repository.
func (r *RepositoryImpl) ListByCluster(ctx context.Context, clusterID int) ([]models.Business, error) {
	query := `
		SELECT ` + businessColumns + `
		FROM businesses b
		JOIN locations l ON l.id = b.location_id
		WHERE b.cluster_id = $1
	`

	rows, err := r.db.Query(ctx, query, clusterID)
	if err != nil {
		return nil, fmt.Errorf("database error listing businesses by cluster: %w", err)
	}
	defer rows.Close()
	return scanBusinesses(rows)
}

// Like implements Repository. A duplicate like is a conflict; an unknown
// business surfaces as not found via the foreign key.
func (r *RepositoryImpl) Like(ctx context.Context, userID, businessID uuid.UUID) error {
	query := `INSERT INTO business_likes (user_id, business_id, created_at) VALUES ($1, $2, NOW())`
	if _, err := r.db.Exec(ctx, query, userID, businessID); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case "23505":
				return fmt.Errorf("business already liked: %w", models.ErrConflict)
			case "23503":
				return fmt.Errorf("business %s not found: %w", businessID, models.ErrNotFound)
			}
		}
		r.logger.Error("Failed to insert like", zap.String("user_id", userID.String()),
			zap.String("business_id", businessID.String()), zap.Error(err))
		return fmt.Errorf("database error liking business: %w", err)
	}
	return nil
}

// Unlike implements Repository.
func (r *RepositoryImpl) Unlike(ctx context.Context, userID, businessID uuid.UUID) error {
	query := `DELETE FROM business_likes WHERE user_id = $1 AND business_id = $2`
	tag, err := r.db.Exec(ctx, query, userID, businessID)
	if err != nil {
		return fmt.Errorf("database error removing like: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("like not found: %w", models.ErrNotFound)
	}
	return nil
}

// ListLikedIDs implements Repository.
func (r *RepositoryImpl) ListLikedIDs(ctx context.Context, userID uuid.UUID) (map[uuid.UUID]bool, error) {
	query := `SELECT business_id FROM business_likes WHERE user_id = $1`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("database error listing likes: %w", err)
	}
	defer rows.Close()

	liked := make(map[uuid.UUID]bool)
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("database error scanning like: %w", err)
		}
		liked[id] = true
	}
	return liked, rows.Err()
}
