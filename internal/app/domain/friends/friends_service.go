package friends

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/vicinityapp/vicinity-api/internal/app/domain/location"
	"github.com/vicinityapp/vicinity-api/internal/app/models"
)

var _ Service = (*ServiceImpl)(nil)

// Service manages the friend request lifecycle and the location visibility
// it grants. Seeing another user's current location requires an accepted
// friendship in either direction.
type Service interface {
	SendRequest(ctx context.Context, requesterID, addresseeID uuid.UUID) (*models.FriendRequest, error)
	RespondRequest(ctx context.Context, responderID, requestID uuid.UUID, accept bool) (*models.FriendRequest, error)
	ListPendingRequests(ctx context.Context, userID uuid.UUID) ([]models.FriendRequest, error)
	ListFriends(ctx context.Context, userID uuid.UUID) ([]models.Friend, error)
	GetFriendLocation(ctx context.Context, userID, friendID uuid.UUID) (*models.CurrentLocation, error)
}

type ServiceImpl struct {
	logger       *zap.Logger
	repo         Repository
	locationRepo location.Repository
}

func NewService(repo Repository, locationRepo location.Repository, logger *zap.Logger) *ServiceImpl {
	return &ServiceImpl{logger: logger, repo: repo, locationRepo: locationRepo}
}

// SendRequest implements Service.
func (s *ServiceImpl) SendRequest(ctx context.Context, requesterID, addresseeID uuid.UUID) (*models.FriendRequest, error) {
	ctx, span := otel.Tracer("FriendsService").Start(ctx, "SendRequest",
		trace.WithAttributes(
			attribute.String("requester_id", requesterID.String()),
			attribute.String("addressee_id", addresseeID.String()),
		))
	defer span.End()

	if requesterID == addresseeID {
		span.SetStatus(codes.Error, "self request")
		return nil, fmt.Errorf("cannot send a friend request to yourself: %w", models.ErrValidation)
	}

	req, err := s.repo.CreateRequest(ctx, requesterID, addresseeID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	s.logger.Info("Friend request sent",
		zap.String("requestID", req.ID.String()),
		zap.String("requesterID", requesterID.String()))
	return req, nil
}

// RespondRequest implements Service. Only the addressee may respond, and
// only while the request is still pending.
func (s *ServiceImpl) RespondRequest(ctx context.Context, responderID, requestID uuid.UUID, accept bool) (*models.FriendRequest, error) {
	ctx, span := otel.Tracer("FriendsService").Start(ctx, "RespondRequest",
		trace.WithAttributes(attribute.String("request_id", requestID.String())))
	defer span.End()

	req, err := s.repo.GetRequest(ctx, requestID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	if req.AddresseeID != responderID {
		span.SetStatus(codes.Error, "not the addressee")
		return nil, fmt.Errorf("only the addressee can respond to this request: %w", models.ErrForbidden)
	}
	if req.Status != models.FriendStatusPending {
		span.SetStatus(codes.Error, "already resolved")
		return nil, fmt.Errorf("friend request already %s: %w", req.Status, models.ErrConflict)
	}

	status := models.FriendStatusDeclined
	if accept {
		status = models.FriendStatusAccepted
	}

	updated, err := s.repo.UpdateRequestStatus(ctx, requestID, status)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	s.logger.Info("Friend request resolved",
		zap.String("requestID", requestID.String()),
		zap.String("status", status))
	return updated, nil
}

// ListPendingRequests implements Service.
func (s *ServiceImpl) ListPendingRequests(ctx context.Context, userID uuid.UUID) ([]models.FriendRequest, error) {
	ctx, span := otel.Tracer("FriendsService").Start(ctx, "ListPendingRequests")
	defer span.End()
	return s.repo.ListPendingFor(ctx, userID)
}

// ListFriends implements Service.
func (s *ServiceImpl) ListFriends(ctx context.Context, userID uuid.UUID) ([]models.Friend, error) {
	ctx, span := otel.Tracer("FriendsService").Start(ctx, "ListFriends")
	defer span.End()
	return s.repo.ListFriends(ctx, userID)
}

// GetFriendLocation implements Service. The friendship check runs first so a
// non-friend cannot distinguish "no such user" from "has no location".
func (s *ServiceImpl) GetFriendLocation(ctx context.Context, userID, friendID uuid.UUID) (*models.CurrentLocation, error) {
	ctx, span := otel.Tracer("FriendsService").Start(ctx, "GetFriendLocation",
		trace.WithAttributes(
			attribute.String("user_id", userID.String()),
			attribute.String("friend_id", friendID.String()),
		))
	defer span.End()

	ok, err := s.repo.AreFriends(ctx, userID, friendID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if !ok {
		span.SetStatus(codes.Error, "not friends")
		return nil, fmt.Errorf("location visible to accepted friends only: %w", models.ErrForbidden)
	}

	current, err := s.locationRepo.GetCurrentLocation(ctx, friendID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return current, nil
}
