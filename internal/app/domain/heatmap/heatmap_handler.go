package heatmap

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/vicinityapp/vicinity-api/internal/app/common"
	"github.com/vicinityapp/vicinity-api/internal/app/domain/auth"
)

type Handler struct {
	service Service
	logger  *zap.Logger
}

func NewHandler(service Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Build handles GET /api/user/heatmap?radius.
func (h *Handler) Build(c *gin.Context) {
	userID := auth.UserIDFromContext(c)

	radius, err := strconv.ParseFloat(c.DefaultQuery("radius", "10"), 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, common.ErrorResponse{Error: "radius must be a number of kilometers"})
		return
	}

	hm, err := h.service.BuildHeatmap(c.Request.Context(), userID, radius)
	if err != nil {
		common.RespondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, hm)
}
