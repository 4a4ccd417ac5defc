package businesses

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vicinityapp/vicinity-api/internal/app/common"
	"github.com/vicinityapp/vicinity-api/internal/app/domain/auth"
	"github.com/vicinityapp/vicinity-api/internal/app/models"
)

type Handler struct {
	repo   Repository
	logger *zap.Logger
}

func NewHandler(repo Repository, logger *zap.Logger) *Handler {
	return &Handler{repo: repo, logger: logger}
}

// List handles GET /api/businesses with optional type, min_rating, limit
// and offset query parameters.
func (h *Handler) List(c *gin.Context) {
	filter := models.BusinessFilter{
		Type: c.Query("type"),
	}
	if v := c.Query("min_rating"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			filter.MinRating = f
		}
	}
	filter.Limit, _ = strconv.Atoi(c.DefaultQuery("limit", "50"))
	filter.Offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))
	if filter.Limit <= 0 || filter.Limit > 200 {
		filter.Limit = 50
	}

	list, err := h.repo.ListFiltered(c.Request.Context(), filter)
	if err != nil {
		common.RespondError(c, h.logger, err)
		return
	}

	if list == nil {
		list = []models.Business{}
	}
	c.JSON(http.StatusOK, gin.H{"businesses": list, "count": len(list)})
}

// Like handles POST /api/businesses/:id/like.
func (h *Handler) Like(c *gin.Context) {
	userID := auth.UserIDFromContext(c)
	businessID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, common.ErrorResponse{Error: "invalid business id"})
		return
	}

	if err := h.repo.Like(c.Request.Context(), userID, businessID); err != nil {
		common.RespondError(c, h.logger, err)
		return
	}

	c.Status(http.StatusCreated)
}

// Unlike handles DELETE /api/businesses/:id/like.
func (h *Handler) Unlike(c *gin.Context) {
	userID := auth.UserIDFromContext(c)
	businessID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, common.ErrorResponse{Error: "invalid business id"})
		return
	}

	if err := h.repo.Unlike(c.Request.Context(), userID, businessID); err != nil {
		common.RespondError(c, h.logger, err)
		return
	}

	c.Status(http.StatusNoContent)
}
