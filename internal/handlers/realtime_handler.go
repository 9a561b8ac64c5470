package handlers

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rifat-dv/meshly/backend/internal/realtime"
	"github.com/rifat-dv/meshly/backend/pkg/logger"
)

// RealtimeHandler upgrades authenticated requests to websocket connections
// and hands them to the hub.
type RealtimeHandler struct {
	hub      *realtime.Hub
	upgrader websocket.Upgrader
}

// NewRealtimeHandler creates a new RealtimeHandler
func NewRealtimeHandler(hub *realtime.Hub) *RealtimeHandler {
	return &RealtimeHandler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Browser clients connect from the app origin; CORS is handled
			// at the HTTP layer.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// RegisterRealtimeRoutes registers the websocket endpoint
func (h *RealtimeHandler) RegisterRealtimeRoutes(g *echo.Group) {
	g.GET("/ws", h.Connect)
}

// Connect upgrades the request and runs the client until it disconnects.
// Auth middleware has already established the user; each connection of the
// same user receives every event independently.
func (h *RealtimeHandler) Connect(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return unauthorized()
	}

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		logger.Log.WithError(err).Warn("websocket upgrade failed")
		return err
	}

	client := realtime.NewClient(h.hub, conn, currentUserID)
	logger.Log.WithField("user_id", currentUserID).Debug("websocket connected")
	client.Run()
	logger.Log.WithField("user_id", currentUserID).Debug("websocket disconnected")
	return nil
}
