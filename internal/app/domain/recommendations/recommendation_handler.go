package recommendations

import (
	"net/http"
	"strconv"

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

// Recommend handles GET /api/recommendations?limit.
func (h *Handler) Recommend(c *gin.Context) {
	userID := auth.UserIDFromContext(c)

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if limit <= 0 || limit > 50 {
		limit = 10
	}

	results, err := h.service.Recommend(c.Request.Context(), userID, limit)
	if err != nil {
		common.RespondError(c, h.logger, err)
		return
	}

	if results == nil {
		results = []models.Business{}
	}
	c.JSON(http.StatusOK, gin.H{"recommendations": results, "count": len(results)})
}
