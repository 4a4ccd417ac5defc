package location

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

type updateLocationRequest struct {
	Latitude   *float64 `json:"latitude" binding:"required"`
	Longitude  *float64 `json:"longitude" binding:"required"`
	City       *string  `json:"city"`
	State      *string  `json:"state"`
	Country    *string  `json:"country"`
	PostalCode *string  `json:"postal_code"`
}

// UpdateLocation handles POST /api/user/location.
func (h *Handler) UpdateLocation(c *gin.Context) {
	userID := auth.UserIDFromContext(c)

	var req updateLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, common.ErrorResponse{Error: "latitude and longitude are required"})
		return
	}

	addr := models.Address{
		City:       req.City,
		State:      req.State,
		Country:    req.Country,
		PostalCode: req.PostalCode,
	}

	result, err := h.service.UpdateLocation(c.Request.Context(), userID, *req.Latitude, *req.Longitude, addr)
	if err != nil {
		common.RespondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetCurrentLocation handles GET /api/user/location.
func (h *Handler) GetCurrentLocation(c *gin.Context) {
	userID := auth.UserIDFromContext(c)

	current, err := h.service.GetCurrentLocation(c.Request.Context(), userID)
	if err != nil {
		common.RespondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, current)
}

// GetLocationHistory handles GET /api/user/location/history.
func (h *Handler) GetLocationHistory(c *gin.Context) {
	userID := auth.UserIDFromContext(c)

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	history, err := h.service.GetLocationHistory(c.Request.Context(), userID, limit, offset)
	if err != nil {
		common.RespondError(c, h.logger, err)
		return
	}

	if history == nil {
		history = []models.Location{}
	}
	c.JSON(http.StatusOK, gin.H{"history": history, "count": len(history)})
}

// CheckSync handles GET /api/user/location/sync.
func (h *Handler) CheckSync(c *gin.Context) {
	userID := auth.UserIDFromContext(c)

	status, err := h.service.CheckSync(c.Request.Context(), userID)
	if err != nil {
		common.RespondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, status)
}
