package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/vicinityapp/vicinity-api/internal/app/models"
	"github.com/vicinityapp/vicinity-api/internal/app/observability/metrics"
	"github.com/vicinityapp/vicinity-api/internal/pkg/config"
)

var _ Service = (*ServiceImpl)(nil)

// Service defines the authentication business logic contract.
type Service interface {
	Register(ctx context.Context, username, email, password string) (uuid.UUID, error)
	Login(ctx context.Context, email, password string) (accessToken, refreshToken string, err error)
	RefreshSession(ctx context.Context, refreshToken string) (accessToken, newRefreshToken string, err error)
	Logout(ctx context.Context, refreshToken string) error
}

type ServiceImpl struct {
	logger *zap.Logger
	repo   Repo
	cfg    *config.Config
}

func NewService(repo Repo, cfg *config.Config, logger *zap.Logger) *ServiceImpl {
	return &ServiceImpl{logger: logger, repo: repo, cfg: cfg}
}

// Register hashes the password and stores the new user.
func (s *ServiceImpl) Register(ctx context.Context, username, email, password string) (uuid.UUID, error) {
	l := s.logger.With(zap.String("method", "Register"), zap.String("email", email))

	ctx, span := otel.Tracer("AuthService").Start(ctx, "Register",
		trace.WithAttributes(attribute.String("username", username)))
	defer span.End()

	if username == "" || email == "" || len(password) < 8 {
		return uuid.Nil, fmt.Errorf("username, email and a password of at least 8 characters are required: %w", models.ErrValidation)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		l.Error("Failed to hash password", zap.Error(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "password hashing failed")
		return uuid.Nil, fmt.Errorf("could not process password")
	}

	userID, err := s.repo.Register(ctx, username, email, string(hashed))
	if err != nil {
		l.Error("Repository registration failed", zap.Error(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository registration failed")
		return uuid.Nil, err
	}

	if m := metrics.Get(); m != nil {
		m.AuthRequestsTotal.Add(ctx, 1)
	}
	l.Info("Registration successful", zap.String("user_id", userID.String()))
	span.SetStatus(codes.Ok, "user registered")
	return userID, nil
}

// Login validates credentials, generates an access token and stores a new
// refresh token.
func (s *ServiceImpl) Login(ctx context.Context, email, password string) (string, string, error) {
	l := s.logger.With(zap.String("method", "Login"), zap.String("email", email))

	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		l.Warn("GetUserByEmail failed")
		// Don't reveal whether the user exists or the password is wrong.
		return "", "", fmt.Errorf("invalid credentials: %w", models.ErrUnauthenticated)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		l.Warn("Password comparison failed", zap.String("user_id", user.ID.String()))
		return "", "", fmt.Errorf("invalid credentials: %w", models.ErrUnauthenticated)
	}

	accessToken, refreshToken, err := s.issueTokens(ctx, user)
	if err != nil {
		return "", "", err
	}

	if m := metrics.Get(); m != nil {
		m.AuthRequestsTotal.Add(ctx, 1)
	}
	l.Info("Login successful")
	return accessToken, refreshToken, nil
}

// RefreshSession rotates the refresh token and issues a fresh access token.
func (s *ServiceImpl) RefreshSession(ctx context.Context, refreshToken string) (string, string, error) {
	l := s.logger.With(zap.String("method", "RefreshSession"))

	userID, err := s.repo.ValidateRefreshTokenAndGetUserID(ctx, refreshToken)
	if err != nil {
		return "", "", err
	}

	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return "", "", fmt.Errorf("session user no longer exists: %w", models.ErrUnauthenticated)
	}

	// Rotate: invalidate the presented token before issuing a new one.
	if err := s.repo.InvalidateRefreshToken(ctx, refreshToken); err != nil {
		l.Error("Failed to rotate refresh token", zap.Error(err))
		return "", "", err
	}

	return s.issueTokens(ctx, user)
}

// Logout revokes the presented refresh token.
func (s *ServiceImpl) Logout(ctx context.Context, refreshToken string) error {
	return s.repo.InvalidateRefreshToken(ctx, refreshToken)
}

func (s *ServiceImpl) issueTokens(ctx context.Context, user *models.UserAuth) (string, string, error) {
	accessToken, err := GenerateToken(s.cfg.JWT, user.ID, user.Email, user.Username)
	if err != nil {
		s.logger.Error("Failed to generate access token", zap.String("user_id", user.ID.String()), zap.Error(err))
		return "", "", fmt.Errorf("error generating tokens: %w", err)
	}

	refreshToken, err := newRefreshToken()
	if err != nil {
		return "", "", fmt.Errorf("error generating refresh token: %w", err)
	}

	expiresAt := time.Now().Add(s.cfg.JWT.RefreshTokenTTL)
	if err := s.repo.StoreRefreshToken(ctx, user.ID, refreshToken, expiresAt); err != nil {
		s.logger.Error("Failed to store refresh token", zap.String("user_id", user.ID.String()), zap.Error(err))
		return "", "", fmt.Errorf("error storing session: %w", err)
	}

	return accessToken, refreshToken, nil
}

func newRefreshToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
