package location

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/vicinityapp/vicinity-api/internal/app/domain/geo"
	"github.com/vicinityapp/vicinity-api/internal/app/models"
	"github.com/vicinityapp/vicinity-api/internal/app/observability/metrics"
)

// Drift below this is floating-point noise between the two stores, not
// divergence.
const syncToleranceKm = 0.001

var _ Service = (*ServiceImpl)(nil)

// Service orchestrates the dual location stores: transactional,
// history-preserving writes to the primary store and best-effort mirror
// writes to the geometry-native secondary store.
type Service interface {
	UpdateLocation(ctx context.Context, userID uuid.UUID, lat, lon float64, addr models.Address) (*models.LocationUpdateResult, error)
	GetCurrentLocation(ctx context.Context, userID uuid.UUID) (*models.CurrentLocation, error)
	GetLocationHistory(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Location, error)
	CheckSync(ctx context.Context, userID uuid.UUID) (*models.LocationSyncStatus, error)
}

type ServiceImpl struct {
	logger       *zap.Logger
	locationRepo Repository
	geoPointRepo GeoPointRepository
}

func NewService(locationRepo Repository, geoPointRepo GeoPointRepository, logger *zap.Logger) *ServiceImpl {
	return &ServiceImpl{
		logger:       logger,
		locationRepo: locationRepo,
		geoPointRepo: geoPointRepo,
	}
}

// UpdateLocation validates the coordinates, commits the primary update,
// then mirrors the point into the secondary store. The mirror write runs
// outside the rollback boundary: its failure never fails the request, it
// is logged, counted and surfaced in MirrorStatus so callers can detect
// drift.
func (s *ServiceImpl) UpdateLocation(ctx context.Context, userID uuid.UUID, lat, lon float64, addr models.Address) (*models.LocationUpdateResult, error) {
	ctx, span := otel.Tracer("LocationService").Start(ctx, "UpdateLocation",
		trace.WithAttributes(attribute.String("user_id", userID.String())))
	defer span.End()

	if err := geo.ValidateCoordinates(lat, lon); err != nil {
		span.SetStatus(codes.Error, "invalid coordinates")
		return nil, err
	}

	locationID, userLocationID, err := s.locationRepo.SetCurrentLocation(ctx, userID, lat, lon, addr)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "primary update failed")
		return nil, err
	}
	if m := metrics.Get(); m != nil {
		m.LocationUpdatesTotal.Add(ctx, 1)
	}

	result := &models.LocationUpdateResult{
		LocationID:     locationID,
		UserLocationID: userLocationID,
		MirrorStatus:   models.MirrorSynced,
	}

	if m := metrics.Get(); m != nil {
		m.MirrorWritesTotal.Add(ctx, 1)
	}
	if err := s.geoPointRepo.Upsert(ctx, userID, lat, lon); err != nil {
		// Primary already committed; report success with the mirror
		// outcome flagged. Not retried.
		s.logger.Warn("Mirror write to geo point store failed; stores may have drifted",
			zap.String("user_id", userID.String()),
			zap.Error(err))
		if m := metrics.Get(); m != nil {
			m.MirrorFailuresTotal.Add(ctx, 1)
		}
		result.MirrorStatus = models.MirrorFailed
	}

	span.SetStatus(codes.Ok, "location updated")
	return result, nil
}

// GetCurrentLocation implements Service.
func (s *ServiceImpl) GetCurrentLocation(ctx context.Context, userID uuid.UUID) (*models.CurrentLocation, error) {
	return s.locationRepo.GetCurrentLocation(ctx, userID)
}

// GetLocationHistory implements Service.
func (s *ServiceImpl) GetLocationHistory(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Location, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.locationRepo.GetLocationHistory(ctx, userID, limit, offset)
}

// CheckSync reads both stores and reports the drift between the
// authoritative current location and the mirrored point.
func (s *ServiceImpl) CheckSync(ctx context.Context, userID uuid.UUID) (*models.LocationSyncStatus, error) {
	current, err := s.locationRepo.GetCurrentLocation(ctx, userID)
	if err != nil {
		return nil, err
	}

	status := &models.LocationSyncStatus{
		Primary: models.Coordinates{
			Latitude:  current.Location.Latitude,
			Longitude: current.Location.Longitude,
		},
	}

	point, err := s.geoPointRepo.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			// Mirror never caught up; authoritative data still stands.
			return status, nil
		}
		return nil, fmt.Errorf("reading mirror for sync check: %w", err)
	}

	drift := geo.Distance(current.Location.Latitude, current.Location.Longitude, point.Latitude, point.Longitude)
	status.Mirror = &models.Coordinates{Latitude: point.Latitude, Longitude: point.Longitude}
	status.DriftKm = &drift
	status.InSync = drift < syncToleranceKm
	return status, nil
}
