package surveys

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

type MockSurveyRepo struct {
	mock.Mock
}

func (m *MockSurveyRepo) ListQuestions(ctx context.Context) ([]models.SurveyQuestion, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.SurveyQuestion), args.Error(1)
}

func (m *MockSurveyRepo) SaveResponse(ctx context.Context, userID uuid.UUID, answers []models.SurveyAnswer) error {
	args := m.Called(ctx, userID, answers)
	return args.Error(0)
}

func (m *MockSurveyRepo) UpsertPreference(ctx context.Context, userID uuid.UUID, clusterID int) (*models.UserPreference, error) {
	args := m.Called(ctx, userID, clusterID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UserPreference), args.Error(1)
}

func (m *MockSurveyRepo) GetPreference(ctx context.Context, userID uuid.UUID) (*models.UserPreference, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UserPreference), args.Error(1)
}

var testQuestions = []models.SurveyQuestion{
	{ID: 1, Prompt: "q1", Options: []string{"a", "b", "c"}, Position: 1},
	{ID: 2, Prompt: "q2", Options: []string{"a", "b", "c"}, Position: 2},
	{ID: 3, Prompt: "q3", Options: []string{"a", "b", "c"}, Position: 3},
}

func TestDeriveCluster(t *testing.T) {
	tests := []struct {
		name    string
		answers []models.SurveyAnswer
		want    int
	}{
		{
			name: "clear majority",
			answers: []models.SurveyAnswer{
				{QuestionID: 1, OptionIndex: 2},
				{QuestionID: 2, OptionIndex: 2},
				{QuestionID: 3, OptionIndex: 0},
			},
			want: 2,
		},
		{
			name: "tie resolves to lowest index",
			answers: []models.SurveyAnswer{
				{QuestionID: 1, OptionIndex: 2},
				{QuestionID: 2, OptionIndex: 0},
			},
			want: 0,
		},
		{
			name: "single answer",
			answers: []models.SurveyAnswer{
				{QuestionID: 1, OptionIndex: 1},
			},
			want: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DeriveCluster(tt.answers))
		})
	}
}

func TestServiceImpl_SubmitResponse(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	t.Run("AssignsDerivedCluster", func(t *testing.T) {
		repo := new(MockSurveyRepo)
		service := NewService(repo, zap.NewNop())

		answers := []models.SurveyAnswer{
			{QuestionID: 1, OptionIndex: 1},
			{QuestionID: 2, OptionIndex: 1},
			{QuestionID: 3, OptionIndex: 0},
		}

		repo.On("ListQuestions", mock.Anything).Return(testQuestions, nil)
		repo.On("SaveResponse", mock.Anything, userID, answers).Return(nil)
		repo.On("UpsertPreference", mock.Anything, userID, 1).Return(&models.UserPreference{
			UserID:    userID,
			ClusterID: 1,
			UpdatedAt: time.Now(),
		}, nil)

		pref, err := service.SubmitResponse(ctx, userID, answers)
		require.NoError(t, err)
		assert.Equal(t, 1, pref.ClusterID)
		repo.AssertExpectations(t)
	})

	t.Run("EmptyAnswers", func(t *testing.T) {
		repo := new(MockSurveyRepo)
		service := NewService(repo, zap.NewNop())

		pref, err := service.SubmitResponse(ctx, userID, nil)
		assert.Nil(t, pref)
		assert.ErrorIs(t, err, models.ErrValidation)
		repo.AssertNotCalled(t, "SaveResponse")
	})

	t.Run("UnknownQuestion", func(t *testing.T) {
		repo := new(MockSurveyRepo)
		service := NewService(repo, zap.NewNop())

		repo.On("ListQuestions", mock.Anything).Return(testQuestions, nil)

		pref, err := service.SubmitResponse(ctx, userID, []models.SurveyAnswer{
			{QuestionID: 99, OptionIndex: 0},
		})
		assert.Nil(t, pref)
		assert.ErrorIs(t, err, models.ErrValidation)
	})

	t.Run("OptionOutOfRange", func(t *testing.T) {
		repo := new(MockSurveyRepo)
		service := NewService(repo, zap.NewNop())

		repo.On("ListQuestions", mock.Anything).Return(testQuestions, nil)

		pref, err := service.SubmitResponse(ctx, userID, []models.SurveyAnswer{
			{QuestionID: 1, OptionIndex: 3},
		})
		assert.Nil(t, pref)
		assert.ErrorIs(t, err, models.ErrValidation)
	})

	t.Run("DuplicateQuestion", func(t *testing.T) {
		repo := new(MockSurveyRepo)
		service := NewService(repo, zap.NewNop())

		repo.On("ListQuestions", mock.Anything).Return(testQuestions, nil)

		pref, err := service.SubmitResponse(ctx, userID, []models.SurveyAnswer{
			{QuestionID: 1, OptionIndex: 0},
			{QuestionID: 1, OptionIndex: 1},
		})
		assert.Nil(t, pref)
		assert.ErrorIs(t, err, models.ErrValidation)
	})
}

func TestServiceImpl_GetQuestions_Caches(t *testing.T) {
	ctx := context.Background()

	repo := new(MockSurveyRepo)
	service := NewService(repo, zap.NewNop())

	repo.On("ListQuestions", mock.Anything).Return(testQuestions, nil).Once()

	first, err := service.GetQuestions(ctx)
	require.NoError(t, err)
	second, err := service.GetQuestions(ctx)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	repo.AssertNumberOfCalls(t, "ListQuestions", 1)
}
