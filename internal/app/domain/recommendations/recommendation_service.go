package recommendations

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
	"golang.org/x/sync/errgroup"

	"github.com/vicinityapp/vicinity-api/internal/app/domain/businesses"
	"github.com/vicinityapp/vicinity-api/internal/app/domain/geo"
	"github.com/vicinityapp/vicinity-api/internal/app/domain/location"
	"github.com/vicinityapp/vicinity-api/internal/app/models"
)

// PreferenceSource yields the caller's survey-assigned cluster.
type PreferenceSource interface {
	GetPreference(ctx context.Context, userID uuid.UUID) (*models.UserPreference, error)
}

var _ Service = (*ServiceImpl)(nil)

// Service ranks businesses in the user's preference cluster. Proximity
// dominates when the user has a current location; rating is the fallback
// signal when they don't.
type Service interface {
	Recommend(ctx context.Context, userID uuid.UUID, limit int) ([]models.Business, error)
}

type ServiceImpl struct {
	logger       *zap.Logger
	preferences  PreferenceSource
	businessRepo businesses.Repository
	locationRepo location.Repository
}

func NewService(preferences PreferenceSource, businessRepo businesses.Repository, locationRepo location.Repository, logger *zap.Logger) *ServiceImpl {
	return &ServiceImpl{
		logger:       logger,
		preferences:  preferences,
		businessRepo: businessRepo,
		locationRepo: locationRepo,
	}
}

// Recommend implements Service. A user without a preference row has not
// completed the survey flow yet; that is ErrNotFound, not an empty list.
func (s *ServiceImpl) Recommend(ctx context.Context, userID uuid.UUID, limit int) ([]models.Business, error) {
	ctx, span := otel.Tracer("RecommendationService").Start(ctx, "Recommend",
		trace.WithAttributes(attribute.String("user_id", userID.String())))
	defer span.End()

	pref, err := s.preferences.GetPreference(ctx, userID)
	if err != nil {
		span.SetStatus(codes.Error, "no preference")
		return nil, err
	}

	var candidates []models.Business
	var liked map[uuid.UUID]bool

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		candidates, err = s.businessRepo.ListByCluster(gctx, pref.ClusterID)
		return err
	})
	g.Go(func() error {
		var err error
		liked, err = s.businessRepo.ListLikedIDs(gctx, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		return nil, err
	}

	filtered := make([]models.Business, 0, len(candidates))
	for _, b := range candidates {
		if !liked[b.ID] {
			filtered = append(filtered, b)
		}
	}

	current, err := s.locationRepo.GetCurrentLocation(ctx, userID)
	switch {
	case err == nil:
		for i := range filtered {
			d := geo.Distance(current.Location.Latitude, current.Location.Longitude,
				filtered[i].Latitude, filtered[i].Longitude)
			filtered[i].DistanceKm = &d
		}
		sort.Slice(filtered, func(i, j int) bool {
			return *filtered[i].DistanceKm < *filtered[j].DistanceKm
		})
	case errors.Is(err, models.ErrNoLocation):
		sort.Slice(filtered, func(i, j int) bool {
			return filtered[i].Rating > filtered[j].Rating
		})
	default:
		span.RecordError(err)
		return nil, err
	}

	if limit > 0 && len(filtered) > limit {
		filtered = filtered[:limit]
	}

	span.SetStatus(codes.Ok, "recommendations ranked")
	return filtered, nil
}
