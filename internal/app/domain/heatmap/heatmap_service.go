package heatmap

import (
	"context"
	"errors"
	"sort"

	"github.com/google/uuid"
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

var _ Service = (*ServiceImpl)(nil)

// Service aggregates the current positions of every other user around the
// requesting user for density visualization.
type Service interface {
	// BuildHeatmap collects every other user's current location strictly
	// within radiusKm of the caller's current location. A caller without a
	// current location gets an explicit empty heatmap, not an error: "no
	// data yet" is a normal state here.
	BuildHeatmap(ctx context.Context, userID uuid.UUID, radiusKm float64) (*models.Heatmap, error)
}

type ServiceImpl struct {
	logger       *zap.Logger
	locationRepo location.Repository
}

func NewService(locationRepo location.Repository, logger *zap.Logger) *ServiceImpl {
	return &ServiceImpl{logger: logger, locationRepo: locationRepo}
}

// BuildHeatmap implements Service.
func (s *ServiceImpl) BuildHeatmap(ctx context.Context, userID uuid.UUID, radiusKm float64) (*models.Heatmap, error) {
	ctx, span := otel.Tracer("HeatmapService").Start(ctx, "BuildHeatmap",
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
		if errors.Is(err, models.ErrNoLocation) {
			span.SetStatus(codes.Ok, "no center, empty heatmap")
			return &models.Heatmap{Locations: []models.HeatmapPoint{}, Count: 0}, nil
		}
		span.RecordError(err)
		return nil, err
	}

	centerLat := current.Location.Latitude
	centerLon := current.Location.Longitude

	points, err := s.locationRepo.ListCurrentPoints(ctx, userID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	inRange := make([]models.HeatmapPoint, 0, len(points))
	for _, p := range points {
		d := geo.Distance(centerLat, centerLon, p.Latitude, p.Longitude)
		if d < radiusKm {
			inRange = append(inRange, models.HeatmapPoint{
				UserID:     p.UserID,
				Latitude:   p.Latitude,
				Longitude:  p.Longitude,
				DistanceKm: d,
			})
		}
	}
	sort.Slice(inRange, func(i, j int) bool {
		return inRange[i].DistanceKm < inRange[j].DistanceKm
	})

	if m := metrics.Get(); m != nil {
		m.HeatmapPointsReturned.Record(ctx, int64(len(inRange)))
	}
	span.SetStatus(codes.Ok, "heatmap built")

	return &models.Heatmap{
		Center:    &models.Coordinates{Latitude: centerLat, Longitude: centerLon},
		Locations: inRange,
		Count:     len(inRange),
	}, nil
}
