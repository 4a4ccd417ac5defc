package location

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vicinityapp/vicinity-api/internal/app/models"
)

// MockLocationRepo is a mock implementation of the Repository interface
type MockLocationRepo struct {
	mock.Mock
}

func (m *MockLocationRepo) SetCurrentLocation(ctx context.Context, userID uuid.UUID, lat, lon float64, addr models.Address) (uuid.UUID, uuid.UUID, error) {
	args := m.Called(ctx, userID, lat, lon, addr)
	return args.Get(0).(uuid.UUID), args.Get(1).(uuid.UUID), args.Error(2)
}

func (m *MockLocationRepo) GetCurrentLocation(ctx context.Context, userID uuid.UUID) (*models.CurrentLocation, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CurrentLocation), args.Error(1)
}

func (m *MockLocationRepo) GetLocationHistory(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Location, error) {
	args := m.Called(ctx, userID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Location), args.Error(1)
}

func (m *MockLocationRepo) ListCurrentPoints(ctx context.Context, excludeUserID uuid.UUID) ([]models.UserPoint, error) {
	args := m.Called(ctx, excludeUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.UserPoint), args.Error(1)
}

// MockGeoPointRepo is a mock implementation of the GeoPointRepository interface
type MockGeoPointRepo struct {
	mock.Mock
}

func (m *MockGeoPointRepo) Upsert(ctx context.Context, userID uuid.UUID, lat, lon float64) error {
	args := m.Called(ctx, userID, lat, lon)
	return args.Error(0)
}

func (m *MockGeoPointRepo) Get(ctx context.Context, userID uuid.UUID) (*models.GeoPoint, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.GeoPoint), args.Error(1)
}

func TestServiceImpl_UpdateLocation(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	t.Run("Success", func(t *testing.T) {
		locationRepo := new(MockLocationRepo)
		geoRepo := new(MockGeoPointRepo)
		service := NewService(locationRepo, geoRepo, zap.NewNop())

		locationID := uuid.New()
		userLocationID := uuid.New()
		locationRepo.On("SetCurrentLocation", mock.Anything, userID, 38.7223, -9.1393, models.Address{}).
			Return(locationID, userLocationID, nil)
		geoRepo.On("Upsert", mock.Anything, userID, 38.7223, -9.1393).Return(nil)

		result, err := service.UpdateLocation(ctx, userID, 38.7223, -9.1393, models.Address{})
		require.NoError(t, err)
		assert.Equal(t, locationID, result.LocationID)
		assert.Equal(t, userLocationID, result.UserLocationID)
		assert.Equal(t, models.MirrorSynced, result.MirrorStatus)

		locationRepo.AssertExpectations(t)
		geoRepo.AssertExpectations(t)
	})

	t.Run("MirrorFailureDoesNotFailUpdate", func(t *testing.T) {
		locationRepo := new(MockLocationRepo)
		geoRepo := new(MockGeoPointRepo)
		service := NewService(locationRepo, geoRepo, zap.NewNop())

		locationRepo.On("SetCurrentLocation", mock.Anything, userID, 38.7223, -9.1393, models.Address{}).
			Return(uuid.New(), uuid.New(), nil)
		geoRepo.On("Upsert", mock.Anything, userID, 38.7223, -9.1393).
			Return(errors.New("geo store unreachable"))

		result, err := service.UpdateLocation(ctx, userID, 38.7223, -9.1393, models.Address{})
		require.NoError(t, err)
		assert.Equal(t, models.MirrorFailed, result.MirrorStatus)
	})

	t.Run("InvalidCoordinates", func(t *testing.T) {
		locationRepo := new(MockLocationRepo)
		geoRepo := new(MockGeoPointRepo)
		service := NewService(locationRepo, geoRepo, zap.NewNop())

		result, err := service.UpdateLocation(ctx, userID, 91.0, 0.0, models.Address{})
		assert.Nil(t, result)
		assert.ErrorIs(t, err, models.ErrValidation)

		locationRepo.AssertNotCalled(t, "SetCurrentLocation")
		geoRepo.AssertNotCalled(t, "Upsert")
	})

	t.Run("PrimaryFailureSkipsMirror", func(t *testing.T) {
		locationRepo := new(MockLocationRepo)
		geoRepo := new(MockGeoPointRepo)
		service := NewService(locationRepo, geoRepo, zap.NewNop())

		locationRepo.On("SetCurrentLocation", mock.Anything, userID, 38.7223, -9.1393, models.Address{}).
			Return(uuid.Nil, uuid.Nil, errors.New("db down"))

		result, err := service.UpdateLocation(ctx, userID, 38.7223, -9.1393, models.Address{})
		assert.Nil(t, result)
		assert.Error(t, err)
		geoRepo.AssertNotCalled(t, "Upsert")
	})
}

func TestServiceImpl_CheckSync(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	current := &models.CurrentLocation{
		UserID: userID,
		Location: models.Location{
			Latitude:  38.7223,
			Longitude: -9.1393,
		},
	}

	t.Run("InSync", func(t *testing.T) {
		locationRepo := new(MockLocationRepo)
		geoRepo := new(MockGeoPointRepo)
		service := NewService(locationRepo, geoRepo, zap.NewNop())

		locationRepo.On("GetCurrentLocation", mock.Anything, userID).Return(current, nil)
		geoRepo.On("Get", mock.Anything, userID).Return(&models.GeoPoint{
			UserID:    userID,
			Latitude:  38.7223,
			Longitude: -9.1393,
		}, nil)

		status, err := service.CheckSync(ctx, userID)
		require.NoError(t, err)
		assert.True(t, status.InSync)
		require.NotNil(t, status.DriftKm)
		assert.InDelta(t, 0.0, *status.DriftKm, 0.0001)
	})

	t.Run("Drifted", func(t *testing.T) {
		locationRepo := new(MockLocationRepo)
		geoRepo := new(MockGeoPointRepo)
		service := NewService(locationRepo, geoRepo, zap.NewNop())

		locationRepo.On("GetCurrentLocation", mock.Anything, userID).Return(current, nil)
		geoRepo.On("Get", mock.Anything, userID).Return(&models.GeoPoint{
			UserID:    userID,
			Latitude:  38.7323, // ~1.1km north
			Longitude: -9.1393,
		}, nil)

		status, err := service.CheckSync(ctx, userID)
		require.NoError(t, err)
		assert.False(t, status.InSync)
		require.NotNil(t, status.DriftKm)
		assert.Greater(t, *status.DriftKm, 1.0)
	})

	t.Run("MirrorMissing", func(t *testing.T) {
		locationRepo := new(MockLocationRepo)
		geoRepo := new(MockGeoPointRepo)
		service := NewService(locationRepo, geoRepo, zap.NewNop())

		locationRepo.On("GetCurrentLocation", mock.Anything, userID).Return(current, nil)
		geoRepo.On("Get", mock.Anything, userID).Return(nil, models.ErrNotFound)

		status, err := service.CheckSync(ctx, userID)
		require.NoError(t, err)
		assert.False(t, status.InSync)
		assert.Nil(t, status.Mirror)
		assert.Nil(t, status.DriftKm)
	})

	t.Run("NoCurrentLocation", func(t *testing.T) {
		locationRepo := new(MockLocationRepo)
		geoRepo := new(MockGeoPointRepo)
		service := NewService(locationRepo, geoRepo, zap.NewNop())

		locationRepo.On("GetCurrentLocation", mock.Anything, userID).Return(nil, models.ErrNoLocation)

		status, err := service.CheckSync(ctx, userID)
		assert.Nil(t, status)
		assert.ErrorIs(t, err, models.ErrNoLocation)
	})
}
