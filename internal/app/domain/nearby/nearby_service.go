package nearby

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/vicinityapp/vicinity-api/internal/app/domain/geo"
	"github.com/vicinityapp/vicinity-api/internal/app/domain/location"
	"github.com/vicinityapp/vicinity-api/internal/app/models"
	"github.com/vicinityapp/vicinity-api/internal/app/observability/metrics"
)

const candidateCacheKey = "businesses:with-locations"

// BusinessSource is the catalog read the proximity engine consumes.
type BusinessSource interface {
	ListWithLocations(ctx context.Context) ([]models.Business, error)
}

var _ Service = (*ServiceImpl)(nil)

// Service is the proximity query engine: distance from a center to every
// candidate, strict radius filter, ascending order, capped count.
type Service interface {
	// FindNearbyBusinesses centers the query on the caller's current
	// location; a caller without one gets models.ErrNoLocation.
	FindNearbyBusinesses(ctx context.Context, userID uuid.UUID, radiusKm float64, limit int) ([]models.Business, error)
	// FindNearbyAt ranks businesses around an explicit point. Used by the
	// live websocket feed where the client streams its position.
	FindNearbyAt(ctx context.Context, lat, lon, radiusKm float64, limit int) ([]models.Business, error)
}

type ServiceImpl struct {
	logger       *zap.Logger
	locationRepo location.Repository
	businesses   BusinessSource
	cache        *cache.Cache
}

func NewService(locationRepo location.Repository, businesses BusinessSource, logger *zap.Logger) *ServiceImpl {
	return &ServiceImpl{
		logger:       logger,
		locationRepo: locationRepo,
		businesses:   businesses,
		cache:        cache.New(1*time.Minute, 5*time.Minute),
	}
}

// FindNearbyBusinesses implements Service.
func (s *ServiceImpl) FindNearbyBusinesses(ctx context.Context, userID uuid.UUID, radiusKm float64, limit int) ([]models.Business, error) {
	ctx, span := otel.Tracer("NearbyService").Start(ctx, "FindNearbyBusinesses",
		trace.WithAttributes(
			attribute.String("user_id", userID.String()),
			attribute.Float64("radius_km", radiusKm),
		))
	defer span.End()

	if err := geo.ValidateRadius(radiusKm); err != nil {
		span.SetStatus(codes.Error, "invalid radius")
		return nil, err
	}

	current, err := s.locationRepo.GetCurrentLocation(ctx, userID)
	if err != nil {
		// Proximity is undefined without a center; ErrNoLocation passes
		// through rather than degrading to an empty result.
		span.SetStatus(codes.Error, "no center")
		return nil, err
	}

	return s.rankAround(ctx, current.Location.Latitude, current.Location.Longitude, radiusKm, limit)
}

// FindNearbyAt implements Service.
func (s *ServiceImpl) FindNearbyAt(ctx context.Context, lat, lon, radiusKm float64, limit int) ([]models.Business, error) {
	if err := geo.ValidateCoordinates(lat, lon); err != nil {
		return nil, err
	}
	if err := geo.ValidateRadius(radiusKm); err != nil {
		return nil, err
	}
	return s.rankAround(ctx, lat, lon, radiusKm, limit)
}

func (s *ServiceImpl) rankAround(ctx context.Context, lat, lon, radiusKm float64, limit int) ([]models.Business, error) {
	start := time.Now()

	candidates, err := s.candidates(ctx)
	if err != nil {
		return nil, err
	}

	results := RankByDistance(candidates, lat, lon, radiusKm, limit)

	if m := metrics.Get(); m != nil {
		m.ProximityQueryDuration.Record(ctx, time.Since(start).Seconds())
	}
	return results, nil
}

// candidates returns the catalog with coordinates, cached briefly so bursts
// of nearby queries don't re-read the whole table.
func (s *ServiceImpl) candidates(ctx context.Context) ([]models.Business, error) {
	if cached, ok := s.cache.Get(candidateCacheKey); ok {
		return cached.([]models.Business), nil
	}

	list, err := s.businesses.ListWithLocations(ctx)
	if err != nil {
		return nil, err
	}
	s.cache.Set(candidateCacheKey, list, cache.DefaultExpiration)
	return list, nil
}

// RankByDistance computes the distance from the center to every candidate,
// keeps those strictly inside the radius, orders ascending by distance and
// caps the result at limit. Points exactly on the boundary are excluded.
func RankByDistance(candidates []models.Business, centerLat, centerLon, radiusKm float64, limit int) []models.Business {
	results := make([]models.Business, 0, len(candidates))
	for _, b := range candidates {
		d := geo.Distance(centerLat, centerLon, b.Latitude, b.Longitude)
		if d < radiusKm {
			b.DistanceKm = &d
			results = append(results, b)
		}
	}

	sort.Slice(results, func(i, j int) bool {
		return *results[i].DistanceKm < *results[j].DistanceKm
	})

	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results
}
