package surveys

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/vicinityapp/vicinity-api/internal/app/common"
	"github.com/vicinityapp/vicinity-api/internal/app/domain/auth"
	"github.com/vicinityapp/vicinity-api/internal/app/models"
)

type Handler struct {
	service Service
	logger  *zap.Logger
}

func NewHandler(service Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// GetQuestions handles GET /api/survey/questions.
func (h *Handler) GetQuestions(c *gin.Context) {
	questions, err := h.service.GetQuestions(c.Request.Context())
	if err != nil {
		common.RespondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"questions": questions, "count": len(questions)})
}

type submitPayload struct {
	Answers []models.SurveyAnswer `json:"answers" binding:"required"`
}

// SubmitResponse handles POST /api/survey/responses.
func (h *Handler) SubmitResponse(c *gin.Context) {
	userID := auth.UserIDFromContext(c)

	var payload submitPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, common.ErrorResponse{Error: "answers is required"})
		return
	}

	pref, err := h.service.SubmitResponse(c.Request.Context(), userID, payload.Answers)
	if err != nil {
		common.RespondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, pref)
}
