package friends

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/vicinityapp/vicinity-api/internal/app/models"
)

var _ Repository = (*PostgresFriendsRepo)(nil)

type Repository interface {
	CreateRequest(ctx context.Context, requesterID, addresseeID uuid.UUID) (*models.FriendRequest, error)
	GetRequest(ctx context.Context, requestID uuid.UUID) (*models.FriendRequest, error)
	UpdateRequestStatus(ctx context.Context, requestID uuid.UUID, status string) (*models.FriendRequest, error)
	ListPendingFor(ctx context.Context, addresseeID uuid.UUID) ([]models.FriendRequest, error)
	ListFriends(ctx context.Context, userID uuid.UUID) ([]models.Friend, error)
	AreFriends(ctx context.Context, userID, otherID uuid.UUID) (bool, error)
}

type PostgresFriendsRepo struct {
	logger *zap.Logger
	pgpool *pgxpool.Pool
}

func NewPostgresFriendsRepo(pgxPool *pgxpool.Pool, logger *zap.Logger) *PostgresFriendsRepo {
	return &PostgresFriendsRepo{logger: logger, pgpool: pgxPool}
}

// CreateRequest inserts a pending request. The pair-unique index rejects a
// second request between the same two users regardless of direction.
func (r *PostgresFriendsRepo) CreateRequest(ctx context.Context, requesterID, addresseeID uuid.UUID) (*models.FriendRequest, error) {
	ctx, span := otel.Tracer("FriendsRepo").Start(ctx, "CreateRequest")
	defer span.End()

	var req models.FriendRequest
	err := r.pgpool.QueryRow(ctx, `
        INSERT INTO friend_requests (requester_id, addressee_id, status)
        VALUES ($1, $2, $3)
        RETURNING id, requester_id, addressee_id, status, created_at, responded_at`,
		requesterID, addresseeID, models.FriendStatusPending,
	).Scan(&req.ID, &req.RequesterID, &req.AddresseeID, &req.Status, &req.CreatedAt, &req.RespondedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case "23505":
				return nil, fmt.Errorf("friend request already exists: %w", models.ErrConflict)
			case "23503":
				return nil, fmt.Errorf("user not found: %w", models.ErrNotFound)
			}
		}
		span.SetStatus(codes.Error, "insert failed")
		return nil, fmt.Errorf("failed to create friend request: %w", err)
	}
	return &req, nil
}

func (r *PostgresFriendsRepo) GetRequest(ctx context.Context, requestID uuid.UUID) (*models.FriendRequest, error) {
	ctx, span := otel.Tracer("FriendsRepo").Start(ctx, "GetRequest")
	defer span.End()

	var req models.FriendRequest
	err := r.pgpool.QueryRow(ctx, `
        SELECT id, requester_id, addressee_id, status, created_at, responded_at
        FROM friend_requests WHERE id = $1`, requestID,
	).Scan(&req.ID, &req.RequesterID, &req.AddresseeID, &req.Status, &req.CreatedAt, &req.RespondedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("friend request not found: %w", models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get friend request: %w", err)
	}
	return &req, nil
}

func (r *PostgresFriendsRepo) UpdateRequestStatus(ctx context.Context, requestID uuid.UUID, status string) (*models.FriendRequest, error) {
	ctx, span := otel.Tracer("FriendsRepo").Start(ctx, "UpdateRequestStatus")
	defer span.End()

	var req models.FriendRequest
	err := r.pgpool.QueryRow(ctx, `
        UPDATE friend_requests
        SET status = $2, responded_at = $3
        WHERE id = $1
        RETURNING id, requester_id, addressee_id, status, created_at, responded_at`,
		requestID, status, time.Now(),
	).Scan(&req.ID, &req.RequesterID, &req.AddresseeID, &req.Status, &req.CreatedAt, &req.RespondedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("friend request not found: %w", models.ErrNotFound)
		}
		span.SetStatus(codes.Error, "update failed")
		return nil, fmt.Errorf("failed to update friend request: %w", err)
	}
	return &req, nil
}

func (r *PostgresFriendsRepo) ListPendingFor(ctx context.Context, addresseeID uuid.UUID) ([]models.FriendRequest, error) {
	ctx, span := otel.Tracer("FriendsRepo").Start(ctx, "ListPendingFor")
	defer span.End()

	rows, err := r.pgpool.Query(ctx, `
        SELECT id, requester_id, addressee_id, status, created_at, responded_at
        FROM friend_requests
        WHERE addressee_id = $1 AND status = $2
        ORDER BY created_at DESC`,
		addresseeID, models.FriendStatusPending)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending requests: %w", err)
	}
	defer rows.Close()

	requests := make([]models.FriendRequest, 0)
	for rows.Next() {
		var req models.FriendRequest
		if err := rows.Scan(&req.ID, &req.RequesterID, &req.AddresseeID, &req.Status, &req.CreatedAt, &req.RespondedAt); err != nil {
			return nil, fmt.Errorf("failed to scan friend request: %w", err)
		}
		requests = append(requests, req)
	}
	return requests, rows.Err()
}

// ListFriends returns the other side of every accepted request involving the
// user, whichever direction the original request went.
func (r *PostgresFriendsRepo) ListFriends(ctx context.Context, userID uuid.UUID) ([]models.Friend, error) {
	ctx, span := otel.Tracer("FriendsRepo").Start(ctx, "ListFriends")
	defer span.End()

	rows, err := r.pgpool.Query(ctx, `
        SELECT u.id, u.username, fr.responded_at
        FROM friend_requests fr
        JOIN users u ON u.id = CASE
            WHEN fr.requester_id = $1 THEN fr.addressee_id
            ELSE fr.requester_id
        END
        WHERE (fr.requester_id = $1 OR fr.addressee_id = $1)
          AND fr.status = $2
        ORDER BY fr.responded_at DESC`,
		userID, models.FriendStatusAccepted)
	if err != nil {
		return nil, fmt.Errorf("failed to list friends: %w", err)
	}
	defer rows.Close()

	friends := make([]models.Friend, 0)
	for rows.Next() {
		var f models.Friend
		var since *time.Time
		if err := rows.Scan(&f.UserID, &f.Username, &since); err != nil {
			return nil, fmt.Errorf("failed to scan friend: %w", err)
		}
		if since != nil {
			f.Since = *since
		}
		friends = append(friends, f)
	}
	return friends, rows.Err()
}

func (r *PostgresFriendsRepo) AreFriends(ctx context.Context, userID, otherID uuid.UUID) (bool, error) {
	ctx, span := otel.Tracer("FriendsRepo").Start(ctx, "AreFriends")
	defer span.End()

	var exists bool
	err := r.pgpool.QueryRow(ctx, `
        SELECT EXISTS (
            SELECT 1 FROM friend_requests
            WHERE status = $3
              AND ((requester_id = $1 AND addressee_id = $2)
                OR (requester_id = $2 AND addressee_id = $1))
        )`, userID, otherID, models.FriendStatusAccepted).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check friendship: %w", err)
	}
	return exists, nil
}
