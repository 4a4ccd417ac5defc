package friends

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vicinityapp/vicinity-api/internal/app/models"
)

type MockFriendsRepo struct {
	mock.Mock
}

func (m *MockFriendsRepo) CreateRequest(ctx context.Context, requesterID, addresseeID uuid.UUID) (*models.FriendRequest, error) {
	args := m.Called(ctx, requesterID, addresseeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.FriendRequest), args.Error(1)
}

func (m *MockFriendsRepo) GetRequest(ctx context.Context, requestID uuid.UUID) (*models.FriendRequest, error) {
	args := m.Called(ctx, requestID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.FriendRequest), args.Error(1)
}

func (m *MockFriendsRepo) UpdateRequestStatus(ctx context.Context, requestID uuid.UUID, status string) (*models.FriendRequest, error) {
	args := m.Called(ctx, requestID, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.FriendRequest), args.Error(1)
}

func (m *MockFriendsRepo) ListPendingFor(ctx context.Context, addresseeID uuid.UUID) ([]models.FriendRequest, error) {
	args := m.Called(ctx, addresseeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.FriendRequest), args.Error(1)
}

func (m *MockFriendsRepo) ListFriends(ctx context.Context, userID uuid.UUID) ([]models.Friend, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Friend), args.Error(1)
}

func (m *MockFriendsRepo) AreFriends(ctx context.Context, userID, otherID uuid.UUID) (bool, error) {
	args := m.Called(ctx, userID, otherID)
	return args.Bool(0), args.Error(1)
}

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

func TestServiceImpl_SendRequest(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	t.Run("SelfRequestRejected", func(t *testing.T) {
		repo := new(MockFriendsRepo)
		service := NewService(repo, new(MockLocationRepo), zap.NewNop())

		req, err := service.SendRequest(ctx, userID, userID)
		assert.Nil(t, req)
		assert.ErrorIs(t, err, models.ErrValidation)
		repo.AssertNotCalled(t, "CreateRequest")
	})

	t.Run("DuplicatePairIsConflict", func(t *testing.T) {
		repo := new(MockFriendsRepo)
		service := NewService(repo, new(MockLocationRepo), zap.NewNop())

		other := uuid.New()
		repo.On("CreateRequest", mock.Anything, userID, other).Return(nil, models.ErrConflict)

		req, err := service.SendRequest(ctx, userID, other)
		assert.Nil(t, req)
		assert.ErrorIs(t, err, models.ErrConflict)
	})
}

func TestServiceImpl_RespondRequest(t *testing.T) {
	ctx := context.Background()
	requester := uuid.New()
	addressee := uuid.New()
	requestID := uuid.New()

	pending := &models.FriendRequest{
		ID:          requestID,
		RequesterID: requester,
		AddresseeID: addressee,
		Status:      models.FriendStatusPending,
		CreatedAt:   time.Now(),
	}

	t.Run("OnlyAddresseeMayRespond", func(t *testing.T) {
		repo := new(MockFriendsRepo)
		service := NewService(repo, new(MockLocationRepo), zap.NewNop())

		repo.On("GetRequest", mock.Anything, requestID).Return(pending, nil)

		req, err := service.RespondRequest(ctx, requester, requestID, true)
		assert.Nil(t, req)
		assert.ErrorIs(t, err, models.ErrForbidden)
		repo.AssertNotCalled(t, "UpdateRequestStatus")
	})

	t.Run("AcceptPending", func(t *testing.T) {
		repo := new(MockFriendsRepo)
		service := NewService(repo, new(MockLocationRepo), zap.NewNop())

		accepted := *pending
		accepted.Status = models.FriendStatusAccepted

		repo.On("GetRequest", mock.Anything, requestID).Return(pending, nil)
		repo.On("UpdateRequestStatus", mock.Anything, requestID, models.FriendStatusAccepted).Return(&accepted, nil)

		req, err := service.RespondRequest(ctx, addressee, requestID, true)
		require.NoError(t, err)
		assert.Equal(t, models.FriendStatusAccepted, req.Status)
	})

	t.Run("DeclinePending", func(t *testing.T) {
		repo := new(MockFriendsRepo)
		service := NewService(repo, new(MockLocationRepo), zap.NewNop())

		declined := *pending
		declined.Status = models.FriendStatusDeclined

		repo.On("GetRequest", mock.Anything, requestID).Return(pending, nil)
		repo.On("UpdateRequestStatus", mock.Anything, requestID, models.FriendStatusDeclined).Return(&declined, nil)

		req, err := service.RespondRequest(ctx, addressee, requestID, false)
		require.NoError(t, err)
		assert.Equal(t, models.FriendStatusDeclined, req.Status)
	})

	t.Run("AlreadyResolvedIsConflict", func(t *testing.T) {
		repo := new(MockFriendsRepo)
		service := NewService(repo, new(MockLocationRepo), zap.NewNop())

		resolved := *pending
		resolved.Status = models.FriendStatusAccepted
		repo.On("GetRequest", mock.Anything, requestID).Return(&resolved, nil)

		req, err := service.RespondRequest(ctx, addressee, requestID, false)
		assert.Nil(t, req)
		assert.ErrorIs(t, err, models.ErrConflict)
	})
}

func TestServiceImpl_GetFriendLocation(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	friendID := uuid.New()

	t.Run("NonFriendForbidden", func(t *testing.T) {
		repo := new(MockFriendsRepo)
		locationRepo := new(MockLocationRepo)
		service := NewService(repo, locationRepo, zap.NewNop())

		repo.On("AreFriends", mock.Anything, userID, friendID).Return(false, nil)

		loc, err := service.GetFriendLocation(ctx, userID, friendID)
		assert.Nil(t, loc)
		assert.ErrorIs(t, err, models.ErrForbidden)
		locationRepo.AssertNotCalled(t, "GetCurrentLocation")
	})

	t.Run("FriendWithLocation", func(t *testing.T) {
		repo := new(MockFriendsRepo)
		locationRepo := new(MockLocationRepo)
		service := NewService(repo, locationRepo, zap.NewNop())

		current := &models.CurrentLocation{
			UserID:   friendID,
			Location: models.Location{Latitude: 38.7223, Longitude: -9.1393},
		}
		repo.On("AreFriends", mock.Anything, userID, friendID).Return(true, nil)
		locationRepo.On("GetCurrentLocation", mock.Anything, friendID).Return(current, nil)

		loc, err := service.GetFriendLocation(ctx, userID, friendID)
		require.NoError(t, err)
		assert.Equal(t, friendID, loc.UserID)
	})

	t.Run("FriendWithoutLocation", func(t *testing.T) {
		repo := new(MockFriendsRepo)
		locationRepo := new(MockLocationRepo)
		service := NewService(repo, locationRepo, zap.NewNop())

		repo.On("AreFriends", mock.Anything, userID, friendID).Return(true, nil)
		locationRepo.On("GetCurrentLocation", mock.Anything, friendID).Return(nil, models.ErrNoLocation)

		loc, err := service.GetFriendLocation(ctx, userID, friendID)
		assert.Nil(t, loc)
		assert.ErrorIs(t, err, models.ErrNoLocation)
	})
}
