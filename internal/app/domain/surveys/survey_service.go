package surveys

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/vicinityapp/vicinity-api/internal/app/models"
)

const questionsCacheKey = "survey:questions"

var _ Service = (*ServiceImpl)(nil)

// Service serves the survey catalog and turns submitted answers into the
// user's preference cluster.
type Service interface {
	GetQuestions(ctx context.Context) ([]models.SurveyQuestion, error)
	// SubmitResponse validates the answers against the catalog, stores them
	// and assigns the cluster derived from them. Returns the resulting
	// preference.
	SubmitResponse(ctx context.Context, userID uuid.UUID, answers []models.SurveyAnswer) (*models.UserPreference, error)
	GetPreference(ctx context.Context, userID uuid.UUID) (*models.UserPreference, error)
}

type ServiceImpl struct {
	logger *zap.Logger
	repo   Repository
	cache  *cache.Cache
}

func NewService(repo Repository, logger *zap.Logger) *ServiceImpl {
	return &ServiceImpl{
		logger: logger,
		repo:   repo,
		// The question catalog is static between deploys; a long TTL just
		// bounds staleness after a manual edit.
		cache: cache.New(10*time.Minute, 20*time.Minute),
	}
}

// GetQuestions implements Service.
func (s *ServiceImpl) GetQuestions(ctx context.Context) ([]models.SurveyQuestion, error) {
	ctx, span := otel.Tracer("SurveyService").Start(ctx, "GetQuestions")
	defer span.End()

	if cached, ok := s.cache.Get(questionsCacheKey); ok {
		return cached.([]models.SurveyQuestion), nil
	}

	questions, err := s.repo.ListQuestions(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	s.cache.Set(questionsCacheKey, questions, cache.DefaultExpiration)
	return questions, nil
}

// SubmitResponse implements Service.
func (s *ServiceImpl) SubmitResponse(ctx context.Context, userID uuid.UUID, answers []models.SurveyAnswer) (*models.UserPreference, error) {
	ctx, span := otel.Tracer("SurveyService").Start(ctx, "SubmitResponse",
		trace.WithAttributes(attribute.String("user_id", userID.String())))
	defer span.End()

	if len(answers) == 0 {
		span.SetStatus(codes.Error, "empty submission")
		return nil, fmt.Errorf("a survey response needs at least one answer: %w", models.ErrValidation)
	}

	questions, err := s.GetQuestions(ctx)
	if err != nil {
		return nil, err
	}
	byID := make(map[int]models.SurveyQuestion, len(questions))
	for _, q := range questions {
		byID[q.ID] = q
	}

	seen := make(map[int]bool, len(answers))
	for _, a := range answers {
		q, ok := byID[a.QuestionID]
		if !ok {
			return nil, fmt.Errorf("unknown question %d: %w", a.QuestionID, models.ErrValidation)
		}
		if a.OptionIndex < 0 || a.OptionIndex >= len(q.Options) {
			return nil, fmt.Errorf("option %d out of range for question %d: %w", a.OptionIndex, a.QuestionID, models.ErrValidation)
		}
		if seen[a.QuestionID] {
			return nil, fmt.Errorf("question %d answered twice: %w", a.QuestionID, models.ErrValidation)
		}
		seen[a.QuestionID] = true
	}

	if err := s.repo.SaveResponse(ctx, userID, answers); err != nil {
		span.RecordError(err)
		return nil, err
	}

	clusterID := DeriveCluster(answers)
	pref, err := s.repo.UpsertPreference(ctx, userID, clusterID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	s.logger.Info("Survey response processed",
		zap.String("userID", userID.String()),
		zap.Int("clusterID", clusterID),
		zap.Int("answers", len(answers)))
	span.SetStatus(codes.Ok, "preference assigned")
	return pref, nil
}

// GetPreference implements Service.
func (s *ServiceImpl) GetPreference(ctx context.Context, userID uuid.UUID) (*models.UserPreference, error) {
	ctx, span := otel.Tracer("SurveyService").Start(ctx, "GetPreference")
	defer span.End()
	return s.repo.GetPreference(ctx, userID)
}

// DeriveCluster maps a set of answers to a preference cluster: the option
// index chosen most often across questions, ties resolved to the lowest
// index so assignment is deterministic.
func DeriveCluster(answers []models.SurveyAnswer) int {
	counts := make(map[int]int)
	for _, a := range answers {
		counts[a.OptionIndex]++
	}

	best, bestCount := 0, -1
	for idx, n := range counts {
		if n > bestCount || (n == bestCount && idx < best) {
			best, bestCount = idx, n
		}
	}
	return best
}
