package nearby

import (
	"net/http"
	"strconv"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/vicinityapp/vicinity-api/internal/app/common"
	"github.com/vicinityapp/vicinity-api/internal/app/domain/auth"
	"github.com/vicinityapp/vicinity-api/internal/app/models"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// TODO: restrict to the app origins once the web client domain is fixed.
		return true
	},
}

type Handler struct {
	logger        *zap.Logger
	service       Service
	connections   map[*websocket.Conn]bool
	connectionsMu sync.RWMutex
}

func NewHandler(service Service, logger *zap.Logger) *Handler {
	return &Handler{
		logger:      logger,
		service:     service,
		connections: make(map[*websocket.Conn]bool),
	}
}

// FindNearby handles GET /api/businesses/nearby?radius&limit.
func (h *Handler) FindNearby(c *gin.Context) {
	userID := auth.UserIDFromContext(c)

	radius, err := strconv.ParseFloat(c.DefaultQuery("radius", "5"), 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, common.ErrorResponse{Error: "radius must be a number of kilometers"})
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	results, err := h.service.FindNearbyBusinesses(c.Request.Context(), userID, radius, limit)
	if err != nil {
		common.RespondError(c, h.logger, err)
		return
	}

	if results == nil {
		results = []models.Business{}
	}
	c.JSON(http.StatusOK, gin.H{"businesses": results, "count": len(results)})
}

// positionUpdate is a client position message on the live feed.
type positionUpdate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Radius    float64 `json:"radius"`
}

// wsMessage is what the live feed sends back to the client.
type wsMessage struct {
	Type       string            `json:"type"`
	Businesses []models.Business `json:"businesses,omitempty"`
	Message    string            `json:"message,omitempty"`
}

// LiveFeed handles GET /ws/nearby: the client streams its position and the
// server answers each update with the ranked businesses around that point.
func (h *Handler) LiveFeed(c *gin.Context) {
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("Failed to upgrade to WebSocket", zap.Error(err))
		return
	}
	defer ws.Close()

	h.connectionsMu.Lock()
	h.connections[ws] = true
	h.connectionsMu.Unlock()
	defer func() {
		h.connectionsMu.Lock()
		delete(h.connections, ws)
		h.connectionsMu.Unlock()
	}()

	for {
		var update positionUpdate
		if err := ws.ReadJSON(&update); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug("WebSocket read error", zap.Error(err))
			}
			return
		}

		if update.Radius <= 0 {
			update.Radius = 5
		}

		results, err := h.service.FindNearbyAt(c.Request.Context(), update.Latitude, update.Longitude, update.Radius, 20)
		if err != nil {
			if writeErr := ws.WriteJSON(wsMessage{Type: "error", Message: "invalid position update"}); writeErr != nil {
				return
			}
			continue
		}

		if err := ws.WriteJSON(wsMessage{Type: "businesses", Businesses: results}); err != nil {
			h.logger.Debug("WebSocket write error", zap.Error(err))
			return
		}
	}
}
