package friends

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
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

type sendRequestPayload struct {
	UserID uuid.UUID `json:"user_id" binding:"required"`
}

// SendRequest handles POST /api/friends/requests.
func (h *Handler) SendRequest(c *gin.Context) {
	userID := auth.UserIDFromContext(c)

	var payload sendRequestPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, common.ErrorResponse{Error: "user_id is required"})
		return
	}

	req, err := h.service.SendRequest(c.Request.Context(), userID, payload.UserID)
	if err != nil {
		common.RespondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, req)
}

type respondPayload struct {
	Action string `json:"action" binding:"required,oneof=accept decline"`
}

// RespondRequest handles POST /api/friends/requests/:id.
func (h *Handler) RespondRequest(c *gin.Context) {
	userID := auth.UserIDFromContext(c)

	requestID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, common.ErrorResponse{Error: "invalid request id"})
		return
	}

	var payload respondPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, common.ErrorResponse{Error: "action must be accept or decline"})
		return
	}

	req, err := h.service.RespondRequest(c.Request.Context(), userID, requestID, payload.Action == "accept")
	if err != nil {
		common.RespondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, req)
}

// ListPending handles GET /api/friends/requests.
func (h *Handler) ListPending(c *gin.Context) {
	userID := auth.UserIDFromContext(c)

	requests, err := h.service.ListPendingRequests(c.Request.Context(), userID)
	if err != nil {
		common.RespondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"requests": requests, "count": len(requests)})
}

// List handles GET /api/friends.
func (h *Handler) List(c *gin.Context) {
	userID := auth.UserIDFromContext(c)

	friends, err := h.service.ListFriends(c.Request.Context(), userID)
	if err != nil {
		common.RespondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"friends": friends, "count": len(friends)})
}

// GetLocation handles GET /api/friends/:id/location.
func (h *Handler) GetLocation(c *gin.Context) {
	userID := auth.UserIDFromContext(c)

	friendID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, common.ErrorResponse{Error: "invalid friend id"})
		return
	}

	current, err := h.service.GetFriendLocation(c.Request.Context(), userID, friendID)
	if err != nil {
		common.RespondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, current)
}
