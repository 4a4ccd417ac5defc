package surveys

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/vicinityapp/vicinity-api/internal/app/models"
)

var _ Repository = (*PostgresSurveyRepo)(nil)

type Repository interface {
	ListQuestions(ctx context.Context) ([]models.SurveyQuestion, error)
	SaveResponse(ctx context.Context, userID uuid.UUID, answers []models.SurveyAnswer) error
	UpsertPreference(ctx context.Context, userID uuid.UUID, clusterID int) (*models.UserPreference, error)
	GetPreference(ctx context.Context, userID uuid.UUID) (*models.UserPreference, error)
}

type PostgresSurveyRepo struct {
	logger *zap.Logger
	pgpool *pgxpool.Pool
}

func NewPostgresSurveyRepo(pgxPool *pgxpool.Pool, logger *zap.Logger) *PostgresSurveyRepo {
	return &PostgresSurveyRepo{logger: logger, pgpool: pgxPool}
}

func (r *PostgresSurveyRepo) ListQuestions(ctx context.Context) ([]models.SurveyQuestion, error) {
	ctx, span := otel.Tracer("SurveyRepo").Start(ctx, "ListQuestions")
	defer span.End()

	rows, err := r.pgpool.Query(ctx, `
        SELECT id, prompt, options, position
        FROM survey_questions
        ORDER BY position ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list survey questions: %w", err)
	}
	defer rows.Close()

	questions := make([]models.SurveyQuestion, 0)
	for rows.Next() {
		var q models.SurveyQuestion
		if err := rows.Scan(&q.ID, &q.Prompt, &q.Options, &q.Position); err != nil {
			return nil, fmt.Errorf("failed to scan survey question: %w", err)
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

// SaveResponse replaces the user's previous answers in one transaction so a
// resubmission never leaves a mix of old and new rows.
func (r *PostgresSurveyRepo) SaveResponse(ctx context.Context, userID uuid.UUID, answers []models.SurveyAnswer) error {
	ctx, span := otel.Tracer("SurveyRepo").Start(ctx, "SaveResponse")
	defer span.End()

	tx, err := r.pgpool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM survey_responses WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("failed to clear previous responses: %w", err)
	}
	for _, a := range answers {
		if _, err := tx.Exec(ctx, `
            INSERT INTO survey_responses (user_id, question_id, option_index)
            VALUES ($1, $2, $3)`,
			userID, a.QuestionID, a.OptionIndex); err != nil {
			span.SetStatus(codes.Error, "insert failed")
			return fmt.Errorf("failed to save survey answer: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit survey response: %w", err)
	}
	return nil
}

func (r *PostgresSurveyRepo) UpsertPreference(ctx context.Context, userID uuid.UUID, clusterID int) (*models.UserPreference, error) {
	ctx, span := otel.Tracer("SurveyRepo").Start(ctx, "UpsertPreference")
	defer span.End()

	var pref models.UserPreference
	err := r.pgpool.QueryRow(ctx, `
        INSERT INTO user_preferences (user_id, cluster_id, updated_at)
        VALUES ($1, $2, NOW())
        ON CONFLICT (user_id) DO UPDATE
        SET cluster_id = EXCLUDED.cluster_id, updated_at = NOW()
        RETURNING user_id, cluster_id, updated_at`,
		userID, clusterID,
	).Scan(&pref.UserID, &pref.ClusterID, &pref.UpdatedAt)
	if err != nil {
		span.SetStatus(codes.Error, "upsert failed")
		return nil, fmt.Errorf("failed to upsert preference: %w", err)
	}
	return &pref, nil
}

func (r *PostgresSurveyRepo) GetPreference(ctx context.Context, userID uuid.UUID) (*models.UserPreference, error) {
	ctx, span := otel.Tracer("SurveyRepo").Start(ctx, "GetPreference")
	defer span.End()

	var pref models.UserPreference
	err := r.pgpool.QueryRow(ctx, `
        SELECT user_id, cluster_id, updated_at
        FROM user_preferences WHERE user_id = $1`, userID,
	).Scan(&pref.UserID, &pref.ClusterID, &pref.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("no preference for user: %w", models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get preference: %w", err)
	}
	return &pref, nil
}
